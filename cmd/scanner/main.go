package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stockscan/internal/config"
	"stockscan/internal/fetcher"
	"stockscan/internal/model"
	"stockscan/internal/notifier"
	"stockscan/internal/returns"
	"stockscan/internal/scanner"
	"stockscan/internal/scheduler"
	"stockscan/internal/store"
	"stockscan/internal/syncer"
	"stockscan/internal/universe"

	"github.com/phuslu/log"
)

const dateFlagFormat = "2006-01-02"

func main() {
	var (
		cfgPath   = flag.String("config", "configs/config.yaml", "path to the YAML config file")
		modeFlag  = flag.String("mode", "daily", "sync mode: initial, daily, rerun or db_rerun")
		recipient = flag.String("recipient", "", "override report recipient email address")
		startDate = flag.String("start-date", "", "first report date (YYYY-MM-DD, defaults to today)")
		endDate   = flag.String("end-date", "", "last report date (YYYY-MM-DD, defaults to start date)")
		schedule  = flag.Bool("schedule", false, "run as a daemon on the configured cron schedule")
		seed      = flag.Bool("seed", false, "reload holdings and ETF tables from the configured CSV files before scanning")
		outputDir = flag.String("output", "reports", "directory report files are written to")
	)
	flag.Parse()

	if v := os.Getenv("CONFIG_PATH"); v != "" && *cfgPath == "configs/config.yaml" {
		*cfgPath = v
	}
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config validation: %v\n", err)
		os.Exit(1)
	}

	logger := log.Logger{
		Level:      log.ParseLevel(cfg.Logging.Level),
		TimeFormat: "15:04:05",
		Writer:     &log.ConsoleWriter{ColorOutput: true},
	}

	mode, err := model.ParseSyncMode(*modeFlag)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid -mode")
	}
	start, end, err := parseDateRange(*startDate, *endDate)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid date range")
	}

	st, err := store.NewSQLiteStore(cfg.Database.SQLitePath, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.Database.SQLitePath).Msg("open database")
	}
	defer st.Close()

	var f fetcher.Fetcher
	if cfg.DataSource.BaseURL != "" {
		f = fetcher.NewRESTFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
	} else {
		f = fetcher.NewYahooFetcher(cfg.Proxy)
	}
	logger.Info().Str("source", f.Name()).Msg("data source selected")

	recipients := cfg.Email.Recipients
	if *recipient != "" {
		recipients = []string{*recipient}
	}
	var mailer *notifier.Mailer
	if len(recipients) > 0 {
		mailer = notifier.NewMailer(cfg.Email.SMTPHost, cfg.Email.SMTPPort,
			cfg.Email.Username, cfg.Email.Password, cfg.Email.From, logger)
	}

	policy := syncer.NewPolicy(st, f, cfg.DataSource.Window, logger)
	calc := returns.NewCalculator(logger)
	universes := universe.NewLoader(st, logger)

	if *seed {
		if err := seedTables(universes, cfg, f); err != nil {
			logger.Fatal().Err(err).Msg("seed universe tables")
		}
	}

	app := &App{
		pipeline:   scanner.NewPipeline(policy, calc, st, logger),
		universes:  universes,
		mailer:     mailer,
		recipients: recipients,
		cfg:        cfg,
		outputDir:  *outputDir,
		logger:     logger,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *schedule {
		runDaemon(ctx, cancel, app, cfg, logger)
		return
	}

	if err := app.RunRange(ctx, mode, start, end); err != nil {
		app.Alert(ctx, err)
		logger.Fatal().Err(err).Msg("scan run failed")
	}
}

// runDaemon registers the daily scan on the configured cron expression and
// blocks until a shutdown signal.
func runDaemon(ctx context.Context, cancel context.CancelFunc, app *App, cfg *config.Config, logger log.Logger) {
	sched := scheduler.New(logger)
	err := sched.Register(cfg.Schedule.DailyCron, func() {
		today := time.Now().UTC()
		if err := app.RunRange(ctx, model.SyncDaily, today, today); err != nil {
			app.Alert(ctx, err)
			logger.Error().Err(err).Msg("scheduled scan failed")
		}
	})
	if err != nil {
		logger.Fatal().Err(err).Str("cron", cfg.Schedule.DailyCron).Msg("register schedule")
	}
	sched.Start()
	defer sched.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info().Msg("shutdown signal received, stopping")
	cancel()
}

// seedTables reloads the constituent and ETF tables from the configured
// CSV files. Missing paths are skipped so a partial config still works.
func seedTables(universes *universe.Loader, cfg *config.Config, f fetcher.Fetcher) error {
	if cfg.Universe.SP500CSV != "" {
		if err := universes.SeedHoldings(store.TableSP500Holdings, cfg.Universe.SP500CSV, f); err != nil {
			return err
		}
	}
	if cfg.Universe.NasdaqCSV != "" {
		if err := universes.SeedHoldings(store.TableNASDAQHoldings, cfg.Universe.NasdaqCSV, f); err != nil {
			return err
		}
	}
	if cfg.Universe.ETFCSV != "" {
		if err := universes.SeedETFs(cfg.Universe.ETFCSV); err != nil {
			return err
		}
	}
	return nil
}

// parseDateRange resolves the -start-date/-end-date flags. Both default to
// today; an end before the start is rejected.
func parseDateRange(startFlag, endFlag string) (time.Time, time.Time, error) {
	today := model.DateOnly(time.Now().UTC())
	start, end := today, today

	var err error
	if startFlag != "" {
		if start, err = time.ParseInLocation(dateFlagFormat, startFlag, time.UTC); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("parse -start-date: %w", err)
		}
		end = start
	}
	if endFlag != "" {
		if end, err = time.ParseInLocation(dateFlagFormat, endFlag, time.UTC); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("parse -end-date: %w", err)
		}
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("end date %s before start date %s",
			end.Format(dateFlagFormat), start.Format(dateFlagFormat))
	}
	return start, end, nil
}
