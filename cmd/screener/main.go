package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"MarketScanner/internal/collector"
	"MarketScanner/internal/config"
	"MarketScanner/internal/logger"
	"MarketScanner/internal/metrics"
	"MarketScanner/internal/notifier"
	"MarketScanner/internal/scanner"
	"MarketScanner/internal/scheduler"
	"MarketScanner/internal/store"
)

func main() {
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		bootLog := zerolog.New(os.Stderr).With().Timestamp().Logger()
		bootLog.Fatal().Err(err).Str("path", cfgPath).Msg("load config")
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		bootLog := zerolog.New(os.Stderr).With().Timestamp().Logger()
		bootLog.Fatal().Err(err).Msg("init logger")
	}
	log.Info().Msg("MarketScanner starting...")

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("MarketScanner stopped")
	}
}

// run owns every resource with a deferred cleanup, so errors return here
// instead of exiting past the defers.
func run(cfg *config.Config, log zerolog.Logger) error {
	scanCfg, err := cfg.ToScanConfig()
	if err != nil {
		return fmt.Errorf("build scan config: %w", err)
	}

	// Bar cache
	var bars store.BarStore = store.NewNoopStore()
	if cfg.Cache.Enabled() {
		sqlStore, err := store.NewSQLiteStore(cfg.Cache.Path(), log)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite cache failed, using noop")
		} else {
			bars = sqlStore
		}
	} else {
		log.Info().Msg("bar cache disabled")
	}
	defer bars.Close()

	fetcher := collector.NewCachingFetcher(newFetcher(cfg, scanCfg.FetchTimeout), bars, cfg.Cache.Expiry(), log)
	log.Info().Str("source", fetcher.Name()).Msg("data source ready")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	opts := []scanner.Option{}
	if cfg.Metrics.Listen != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		opts = append(opts, scanner.WithMetrics(metrics.New(reg)))
		srv := serveMetrics(cfg.Metrics.Listen, reg, log)
		defer func() {
			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}
	sc := scanner.New(fetcher, log, opts...)

	if os.Getenv("SCAN_ONCE") == "true" {
		report, err := sc.Scan(ctx, scanCfg)
		if err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		if err := notifier.WriteTable(os.Stdout, report); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		return nil
	}

	var tn *notifier.TelegramNotifier
	var sender scheduler.Sender
	if cfg.Telegram.BotToken != "" {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, log)
		sender = tn
	} else {
		log.Warn().Msg("telegram not configured, reports go to the log only")
	}

	sched := scheduler.NewScheduler(ctx, sc, scanCfg, sender, log)
	sched.Presets = cfg.Scan.PresetParams
	if err := sched.Register(cfg.Schedule.ScanCron); err != nil {
		return fmt.Errorf("register cron tasks: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info().Msg("telegram polling started")
	}

	if os.Getenv("RUN_ON_START") == "true" {
		log.Info().Msg("RUN_ON_START enabled, executing scan now")
		go sched.RunNow()
	}

	log.Info().Str("cron", cfg.Schedule.ScanCron).Msg("MarketScanner is running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutdown signal received, stopping...")
	cancel()
	return nil
}

func newFetcher(cfg *config.Config, timeout time.Duration) collector.Fetcher {
	switch cfg.DataSource.Provider {
	case "rest":
		return collector.NewRESTFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy, timeout)
	case "mock":
		return &collector.MockFetcher{Price: cfg.DataSource.MockPrice}
	default:
		return collector.NewYahooFetcher(cfg.Proxy, timeout)
	}
}

func serveMetrics(addr string, reg *prometheus.Registry, log zerolog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server")
		}
	}()
	log.Info().Str("addr", addr).Msg("metrics endpoint listening")
	return srv
}
