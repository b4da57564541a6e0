package report

import (
	"bytes"
	"fmt"
	"html/template"
	"sort"

	"stockscan/internal/model"
)

var scannerTemplate = template.Must(template.New("scanner").Funcs(template.FuncMap{
	"percent": formatPercent,
	"class":   returnClass,
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<style>
  body { font-family: Arial, sans-serif; margin: 20px; }
  h1 { text-align: center; }
  h2 { margin-top: 28px; color: #333; }
  h3 { margin: 12px 0 4px 0; color: #555; }
  table { border-collapse: collapse; margin-bottom: 12px; }
  th, td { border: 1px solid #ddd; padding: 4px 10px; font-size: 13px; }
  th { background: #f4f4f4; }
  .positive { color: green; }
  .negative { color: red; }
</style>
<title>{{.Name}}</title>
</head>
<body>
<h1>{{.Name}} - {{.Date}}</h1>
{{range .Periods}}
<h2>{{.Label}} return</h2>
{{range .Bands}}
<h3>{{.Label}}</h3>
<table>
<tr><th>Ticker</th><th>Company</th><th>Sector</th><th>Industry</th><th>Return</th>{{range $.BenchmarkLabels}}<th>{{.}}</th>{{end}}</tr>
{{range .Rows}}
<tr>
  <td>{{.Ticker}}</td><td>{{.Company}}</td><td>{{.Sector}}</td><td>{{.Industry}}</td>
  <td class="{{class .Return}}">{{percent .Return}}</td>
  {{range .Benchmarks}}<td class="{{class .}}">{{percent .}}</td>{{end}}
</tr>
{{end}}
</table>
{{end}}
{{end}}
</body>
</html>
`))

type scannerPage struct {
	Name            string
	Date            string
	BenchmarkLabels []string
	Periods         []periodSection
}

type periodSection struct {
	Label string
	Bands []bandSection
}

type bandSection struct {
	Label string
	Rows  []htmlRow
}

type htmlRow struct {
	Ticker     string
	Company    string
	Sector     string
	Industry   string
	Return     float64
	Benchmarks []float64
}

// ScannerHTML renders the threshold-banded market scanner report.
func ScannerHTML(name string, table *model.ScanTable, increase, decrease []float64) (string, error) {
	page := scannerPage{
		Name: name,
		Date: table.AsOf.Format("2006-01-02"),
	}
	for _, b := range table.Benchmarks {
		page.BenchmarkLabels = append(page.BenchmarkLabels, b)
	}

	for _, lb := range table.Lookbacks {
		column := lb.Column()
		bands := BucketRows(table.Rows, column, increase, decrease)
		if len(bands) == 0 {
			continue
		}
		section := periodSection{Label: lb.Label}
		for _, band := range bands {
			bs := bandSection{Label: band.Label}
			for _, row := range band.Rows {
				hr := htmlRow{
					Ticker:   row.Ticker,
					Company:  row.CompanyName,
					Sector:   row.Sector,
					Industry: row.Industry,
					Return:   row.Return(column),
				}
				for _, bench := range table.Benchmarks {
					hr.Benchmarks = append(hr.Benchmarks, row.Return(lb.BenchmarkColumn(bench)))
				}
				bs.Rows = append(bs.Rows, hr)
			}
			section.Bands = append(section.Bands, bs)
		}
		page.Periods = append(page.Periods, section)
	}

	var buf bytes.Buffer
	if err := scannerTemplate.Execute(&buf, page); err != nil {
		return "", fmt.Errorf("render scanner report: %w", err)
	}
	return buf.String(), nil
}

var broadMarketTemplate = template.Must(template.New("broadmarket").Funcs(template.FuncMap{
	"percent": formatPercent,
	"class":   returnClass,
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<style>
  body { font-family: Arial, sans-serif; margin: 20px; }
  h1 { text-align: center; }
  .card { border: 1px solid #ddd; border-radius: 8px; padding: 16px; margin: 16px;
          width: 300px; display: inline-block; vertical-align: top;
          box-shadow: 0 2px 5px rgba(0, 0, 0, 0.1); }
  .card h2 { margin: 0; font-size: 20px; color: #333; }
  .card p { margin: 5px 0; font-size: 14px; }
  .returns span { display: inline-block; width: 110px; }
  .positive { color: green; }
  .negative { color: red; }
</style>
<title>Broad Market Monitoring Report</title>
</head>
<body>
<h1>Broad Market Monitoring Report - {{.Date}}</h1>
{{range .Classes}}
<h2>{{.Name}}</h2>
{{range .Cards}}
<div class="card">
  <h2>{{.Ticker}}</h2>
  <p>{{.Name}}</p>
  <div class="returns">
  {{range .Returns}}<span>{{.Label}}: <span class="{{class .Value}}">{{percent .Value}}</span></span>{{end}}
  </div>
</div>
{{end}}
{{end}}
</body>
</html>
`))

type broadMarketPage struct {
	Date    string
	Classes []assetClassSection
}

type assetClassSection struct {
	Name  string
	Cards []etfCard
}

type etfCard struct {
	Ticker  string
	Name    string
	Returns []labeledReturn
}

type labeledReturn struct {
	Label string
	Value float64
}

// BroadMarketHTML renders the per-asset-class ETF card report.
func BroadMarketHTML(table *model.ScanTable, etfs map[string]model.ETFInfo) (string, error) {
	byClass := map[string][]etfCard{}
	for _, row := range table.Rows {
		info, ok := etfs[row.Ticker]
		if !ok {
			info = model.ETFInfo{Ticker: row.Ticker, Name: model.NotAvailable, AssetClass: model.NotAvailable}
		}
		card := etfCard{Ticker: row.Ticker, Name: info.Name}
		for _, lb := range table.Lookbacks {
			card.Returns = append(card.Returns, labeledReturn{Label: lb.Label, Value: row.Return(lb.Column())})
		}
		byClass[info.AssetClass] = append(byClass[info.AssetClass], card)
	}

	classes := make([]string, 0, len(byClass))
	for name := range byClass {
		classes = append(classes, name)
	}
	sort.Strings(classes)

	page := broadMarketPage{Date: table.AsOf.Format("2006-01-02")}
	for _, name := range classes {
		page.Classes = append(page.Classes, assetClassSection{Name: name, Cards: byClass[name]})
	}

	var buf bytes.Buffer
	if err := broadMarketTemplate.Execute(&buf, page); err != nil {
		return "", fmt.Errorf("render broad market report: %w", err)
	}
	return buf.String(), nil
}

func formatPercent(v float64) string {
	return fmt.Sprintf("%+.2f%%", v*100)
}

func returnClass(v float64) string {
	if v < 0 {
		return "negative"
	}
	return "positive"
}
