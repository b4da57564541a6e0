package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"stockscan/internal/config"
	"stockscan/internal/model"
	"stockscan/internal/notifier"
	"stockscan/internal/report"
	"stockscan/internal/scanner"
	"stockscan/internal/universe"

	"github.com/phuslu/log"
)

// App ties the pipeline, universes and delivery together for one process.
type App struct {
	pipeline   *scanner.Pipeline
	universes  *universe.Loader
	mailer     *notifier.Mailer
	recipients []string
	cfg        *config.Config
	outputDir  string
	logger     log.Logger
}

// RunRange produces the full report set for every date in [start, end].
func (a *App) RunRange(ctx context.Context, mode model.SyncMode, start, end time.Time) error {
	start = model.DateOnly(start)
	end = model.DateOnly(end)

	for date := start; !date.After(end); date = date.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := a.runDate(ctx, mode, date); err != nil {
			return fmt.Errorf("run %s: %w", date.Format(dateFlagFormat), err)
		}
		// Subsequent dates in a range replay from the fetched history.
		if mode == model.SyncInitial || mode == model.SyncDaily {
			mode = model.SyncDBRerun
		}
	}
	return nil
}

// runDate produces the SP500, NASDAQ, watchlist, broker and broad-market
// reports for one date. Scanner universes that resolve to no tickers are
// skipped with a log line.
func (a *App) runDate(ctx context.Context, mode model.SyncMode, date time.Time) error {
	a.logger.Info().
		Str("mode", mode.String()).
		Str("date", date.Format(dateFlagFormat)).
		Msg("scan run starting")

	sp500, err := a.universes.SP500()
	if err != nil {
		return err
	}
	if err := a.scannerReport(ctx, "SP500 Market Scanner", sp500, mode, date); err != nil {
		return err
	}

	nasdaq, err := a.universes.NasdaqOnly()
	if err != nil {
		return err
	}
	if err := a.scannerReport(ctx, "NASDAQ Market Scanner", nasdaq, mode, date); err != nil {
		return err
	}

	watchlist, err := a.universes.Watchlist(a.cfg.Universe.WatchlistUser, a.cfg.Universe.WatchlistCSV)
	if err != nil {
		return err
	}
	if err := a.scannerReport(ctx, "Watchlist Report", watchlist, mode, date); err != nil {
		return err
	}

	positions, err := a.universes.BrokerPositions(a.cfg.Universe.BrokerPositions)
	if err != nil {
		return err
	}
	if err := a.scannerReport(ctx, "Portfolio Report", positions, mode, date); err != nil {
		return err
	}

	return a.broadMarketReport(ctx, mode, date)
}

// scannerReport scans one universe and delivers the threshold-banded report
// with its CSV and chart attachments.
func (a *App) scannerReport(ctx context.Context, name string, tickers []string, mode model.SyncMode, date time.Time) error {
	if len(tickers) == 0 {
		a.logger.Warn().Str("report", name).Msg("universe is empty, skipping report")
		return nil
	}

	table, err := a.pipeline.Scan(tickers, model.DefaultLookbacks, mode, scanner.DefaultBenchmarks, date)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if len(table.Rows) == 0 {
		a.logger.Warn().Str("report", name).Msg("scan produced no rows, skipping report")
		return nil
	}

	html, err := report.ScannerHTML(name, table,
		a.cfg.Report.IncreaseThresholds, a.cfg.Report.DecreaseThresholds)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	var attachments []notifier.Attachment
	if csvData, err := report.TableCSV(table); err == nil {
		attachments = append(attachments, notifier.Attachment{
			Filename:    attachmentName(name, date, "csv"),
			ContentType: "text/csv",
			Data:        csvData,
		})
	} else {
		a.logger.Warn().Err(err).Str("report", name).Msg("csv export failed")
	}
	if png, err := report.ReturnChart(table, a.cfg.Report.TopChartRows); err == nil {
		attachments = append(attachments, notifier.Attachment{
			Filename:    attachmentName(name, date, "png"),
			ContentType: "image/png",
			Data:        png,
		})
	} else {
		a.logger.Warn().Err(err).Str("report", name).Msg("chart render failed")
	}

	return a.deliver(ctx, name, date, html, attachments)
}

// broadMarketReport scans the ETF monitoring list and delivers the
// per-asset-class card report.
func (a *App) broadMarketReport(ctx context.Context, mode model.SyncMode, date time.Time) error {
	tickers, err := a.universes.ETFs()
	if err != nil {
		return err
	}
	if len(tickers) == 0 {
		a.logger.Warn().Msg("ETF list is empty, skipping broad market report")
		return nil
	}

	table, err := a.pipeline.Scan(tickers, model.DefaultLookbacks, mode, nil, date)
	if err != nil {
		return fmt.Errorf("broad market: %w", err)
	}
	etfs, err := a.universes.ETFInfoIndex()
	if err != nil {
		return err
	}
	html, err := report.BroadMarketHTML(table, etfs)
	if err != nil {
		return fmt.Errorf("broad market: %w", err)
	}
	return a.deliver(ctx, "Broad Market Monitoring Report", date, html, nil)
}

// deliver writes the report to the output directory and, when recipients are
// configured, emails it with its attachments.
func (a *App) deliver(ctx context.Context, name string, date time.Time, html string, attachments []notifier.Attachment) error {
	path := filepath.Join(a.outputDir, attachmentName(name, date, "html"))
	if err := os.MkdirAll(a.outputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
		return fmt.Errorf("write report file: %w", err)
	}
	a.logger.Info().Str("report", name).Str("path", path).Msg("report written")

	if a.mailer == nil {
		return nil
	}
	msg := notifier.Message{
		To:          a.recipients,
		Subject:     fmt.Sprintf("%s %s", name, date.Format(dateFlagFormat)),
		Body:        fmt.Sprintf("%s for %s attached.", name, date.Format(dateFlagFormat)),
		HTML:        html,
		Attachments: attachments,
	}
	if err := a.mailer.SendWithRetry(ctx, msg, 3); err != nil {
		return fmt.Errorf("email %s: %w", name, err)
	}
	a.logger.Info().Str("report", name).Int("recipients", len(a.recipients)).Msg("report emailed")
	return nil
}

// Alert emails the failure when a run dies, so a broken scheduled run does
// not go unnoticed.
func (a *App) Alert(ctx context.Context, runErr error) {
	if a.mailer == nil {
		return
	}
	msg := notifier.Message{
		To:      a.recipients,
		Subject: "Stock scan run failed",
		Body:    fmt.Sprintf("The scan run failed:\n\n%v\n", runErr),
	}
	if err := a.mailer.SendWithRetry(ctx, msg, 3); err != nil {
		a.logger.Error().Err(err).Msg("failure alert email could not be sent")
	}
}

// attachmentName builds a stable per-report file name, e.g.
// "sp500_market_scanner_2024-03-15.csv".
func attachmentName(name string, date time.Time, ext string) string {
	slug := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r >= 'A' && r <= 'Z':
			slug = append(slug, r+('a'-'A'))
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			slug = append(slug, r)
		case r == ' ':
			slug = append(slug, '_')
		}
	}
	return fmt.Sprintf("%s_%s.%s", string(slug), date.Format(dateFlagFormat), ext)
}
