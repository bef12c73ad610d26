package scheduler

import (
	"context"
	"fmt"
	"html"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"MarketScanner/internal/notifier"
	"MarketScanner/internal/scanner"
	"MarketScanner/internal/strategy"
)

// Sender delivers formatted messages. notifier.TelegramNotifier implements it.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler runs scans on a cron schedule and on demand.
type Scheduler struct {
	Cron     *cron.Cron
	Scanner  *scanner.Scanner
	Config   scanner.Config
	Notifier Sender
	Log      zerolog.Logger
	Ctx      context.Context

	// Presets resolves the rule set named by "/scan <preset>".
	Presets func(name string) (strategy.Params, error)

	// mu serializes scans; overlapping triggers are skipped.
	mu sync.Mutex
}

// NewScheduler creates a new Scheduler. notif may be nil, in which case
// reports are only logged.
func NewScheduler(ctx context.Context, sc *scanner.Scanner, cfg scanner.Config, notif Sender, log zerolog.Logger) *Scheduler {
	cl := cronLogger{log: log}
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds(), cron.WithLogger(cl), cron.WithChain(cron.Recover(cl))),
		Scanner:  sc,
		Config:   cfg,
		Notifier: notif,
		Log:      log,
		Ctx:      ctx,
		Presets:  strategy.Preset,
	}
}

// Register adds the scan task on the given cron spec (seconds field first).
func (s *Scheduler) Register(scanCron string) error {
	if _, err := s.Cron.AddFunc(scanCron, s.scanTask); err != nil {
		return fmt.Errorf("register scan task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.Log.Info().Int("jobs", len(s.Cron.Entries())).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.Log.Info().Msg("scheduler stopped")
}

// RunNow executes one scan immediately (manual trigger / RUN_ON_START).
func (s *Scheduler) RunNow() {
	s.scanTask()
}

func (s *Scheduler) scanTask() {
	if !s.mu.TryLock() {
		s.Log.Warn().Msg("previous scan still running, skipping")
		return
	}
	defer s.mu.Unlock()

	report, err := s.scan(s.Config)
	if err != nil {
		s.trySend(fmt.Sprintf("❌ Scan failed: %s", html.EscapeString(err.Error())))
		return
	}
	s.trySend(notifier.FormatScanReport(report))
}

func (s *Scheduler) scan(cfg scanner.Config) (*scanner.Report, error) {
	s.Log.Info().Msg("running scan")
	report, err := s.Scanner.Scan(s.Ctx, cfg)
	if err != nil {
		s.Log.Error().Err(err).Msg("scan failed")
		return nil, err
	}
	return report, nil
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(_ context.Context, text string) string {
	cmd, args := notifier.ParseCommand(text)
	switch cmd {
	case "/scan":
		cfg := s.Config
		if len(args) > 0 {
			params, err := s.Presets(args[0])
			if err != nil {
				return html.EscapeString(err.Error())
			}
			cfg.Strategy = params
		}
		if !s.mu.TryLock() {
			return "⏳ A scan is already running, try again shortly."
		}
		defer s.mu.Unlock()
		report, err := s.scan(cfg)
		if err != nil {
			return fmt.Sprintf("❌ Scan failed: %s", html.EscapeString(err.Error()))
		}
		return notifier.FormatScanReport(report)
	case "/help", "/start":
		return notifier.FormatHelp(strategy.PresetNames())
	default:
		return "Unknown command. Send /help for the list."
	}
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		s.Log.Info().Str("report", text).Msg("no notifier configured")
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		s.Log.Error().Err(err).Msg("send notification failed")
	}
}

// cronLogger routes cron's internal logging through zerolog.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
