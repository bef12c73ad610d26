package scanner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"MarketScanner/internal/collector"
	"MarketScanner/internal/fund"
	"MarketScanner/internal/model"
	"MarketScanner/internal/ranking"
	"MarketScanner/internal/strategy"
	"MarketScanner/internal/universe"
)

// MetricsSink receives scan counters. metrics.Recorder implements it.
type MetricsSink interface {
	RecordTicker(outcome string)
	RecordScan(selected int, topScore float64, elapsed time.Duration)
}

type nopMetrics struct{}

func (nopMetrics) RecordTicker(string)                    {}
func (nopMetrics) RecordScan(int, float64, time.Duration) {}

// Scanner runs the screening pipeline over a universe.
type Scanner struct {
	collector *collector.Collector
	log       zerolog.Logger
	metrics   MetricsSink
	now       func() time.Time
	newID     func() string
	sleep     func(ctx context.Context, d time.Duration) error
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithMetrics attaches a metrics sink.
func WithMetrics(m MetricsSink) Option {
	return func(s *Scanner) { s.metrics = m }
}

// WithClock overrides the wall clock used for report timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Scanner) { s.now = now }
}

// WithIDGenerator overrides scan id generation.
func WithIDGenerator(fn func() string) Option {
	return func(s *Scanner) { s.newID = fn }
}

// New creates a Scanner reading bars through fetcher.
func New(fetcher collector.Fetcher, log zerolog.Logger, opts ...Option) *Scanner {
	s := &Scanner{
		collector: collector.NewCollector(fetcher),
		log:       log,
		metrics:   nopMetrics{},
		now:       time.Now,
		newID:     uuid.NewString,
		sleep:     sleepCtx,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type outcome struct {
	result *model.ScoreResult
	skip   *Skip
}

// Scan screens the configured universe once. Per-ticker failures become
// skips on the report; an error is returned only for an invalid config or
// when the scan as a whole is abandoned (deadline or cancellation).
func (s *Scanner) Scan(ctx context.Context, cfg Config) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scan config: %w", err)
	}
	planner, err := fund.NewPlanner(cfg.Budget, cfg.LotSize, cfg.StopLossFraction)
	if err != nil {
		return nil, fmt.Errorf("invalid scan config: %w", err)
	}
	if cfg.ScanDeadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ScanDeadline)
		defer cancel()
	}

	report := &Report{ScanID: s.newID(), StartedAt: s.now()}
	log := s.log.With().Str("scan_id", report.ScanID).Logger()

	instruments := universe.Filter(cfg.Universe, cfg.Filter)
	report.Scanned = len(instruments)
	log.Info().Int("tickers", len(instruments)).Str("policy", cfg.Policy.String()).Msg("scan started")

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.RequestInterval), 1)
	}

	slots := make([]outcome, len(instruments))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Concurrency)
	for i, inst := range instruments {
		g.Go(func() error {
			slots[i] = s.evaluateTicker(gctx, log, cfg, limiter, inst)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		log.Warn().Err(err).Msg("scan abandoned")
		return nil, fmt.Errorf("scan abandoned: %w", err)
	}

	var results []*model.ScoreResult
	for _, o := range slots {
		switch {
		case o.skip != nil:
			report.Skips = append(report.Skips, *o.skip)
			s.metrics.RecordTicker(string(o.skip.Kind))
		case o.result != nil:
			results = append(results, o.result)
			s.metrics.RecordTicker("scored")
		default:
			s.metrics.RecordTicker("no_signal")
		}
	}

	report.Results = ranking.Sort(results)
	report.Selection = ranking.Select(results, cfg.Policy)
	report.NoCandidates = report.Selection.Empty()
	report.Message = summarize(report.Selection)

	if !report.Selection.Empty() {
		allocs, err := planner.Plan(report.Selection.Items)
		if err != nil {
			return nil, fmt.Errorf("allocate: %w", err)
		}
		report.Allocations = allocs
		report.HedgeWarning = hedgeSelected(report.Selection, cfg.HedgeTicker)
	}
	report.Rows = buildRows(report.Selection, report.Allocations)
	report.FinishedAt = s.now()

	elapsed := report.FinishedAt.Sub(report.StartedAt)
	s.metrics.RecordScan(len(report.Selection.Items), report.Selection.TopScore, elapsed)
	log.Info().
		Int("scored", len(results)).
		Int("selected", len(report.Selection.Items)).
		Int("skipped", len(report.Skips)).
		Bool("fell_back", report.Selection.FellBack).
		Dur("elapsed", elapsed).
		Msg("scan finished")
	return report, nil
}

// evaluateTicker runs FETCH through AGGREGATE for one instrument. Any
// failure ends only this ticker's path.
func (s *Scanner) evaluateTicker(ctx context.Context, log zerolog.Logger, cfg Config, limiter *rate.Limiter, inst model.Instrument) (out outcome) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%w: %v", errPanic, r)
			log.Error().Err(err).Str("ticker", inst.Ticker).Msg("ticker evaluation panicked")
			out = outcome{skip: &Skip{Ticker: inst.Ticker, Kind: KindComputation, Reason: err.Error()}}
		}
	}()

	series, err := s.fetch(ctx, log, cfg, limiter, inst.Ticker)
	if err == nil {
		var res *model.ScoreResult
		res, err = strategy.Evaluate(inst, series.Bars, cfg.Strategy)
		if err == nil {
			if res == nil {
				log.Debug().Str("ticker", inst.Ticker).Msg("no trigger fired")
			} else {
				log.Debug().Str("ticker", inst.Ticker).Float64("score", res.CompositeScore).Str("triggers", res.TriggerText()).Msg("ticker scored")
			}
			return outcome{result: res}
		}
	}

	kind := Classify(err)
	ev := log.Debug()
	if kind != KindInsufficientData {
		ev = log.Warn()
	}
	ev.Err(err).Str("ticker", inst.Ticker).Str("kind", string(kind)).Msg("ticker skipped")
	return outcome{skip: &Skip{Ticker: inst.Ticker, Kind: kind, Reason: err.Error()}}
}

// fetch collects one series, pacing every attempt through the shared
// limiter and retrying transient failures with exponential backoff.
func (s *Scanner) fetch(ctx context.Context, log zerolog.Logger, cfg Config, limiter *rate.Limiter, ticker string) (model.Series, error) {
	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err := limiter.Wait(ctx); err != nil {
			return model.Series{}, fmt.Errorf("rate limiter: %w", err)
		}

		fctx, cancel := ctx, context.CancelFunc(func() {})
		if cfg.FetchTimeout > 0 {
			fctx, cancel = context.WithTimeout(ctx, cfg.FetchTimeout)
		}
		series, err := s.collector.Collect(fctx, ticker, cfg.LookbackDays)
		cancel()
		if err == nil {
			return series, nil
		}
		lastErr = err
		if errors.Is(err, collector.ErrNoData) || ctx.Err() != nil || attempt == cfg.MaxAttempts {
			break
		}

		backoff := cfg.RetryBaseDelay * time.Duration(1<<uint(attempt-1))
		log.Debug().Err(err).Str("ticker", ticker).Int("attempt", attempt).Dur("backoff", backoff).Msg("fetch failed, retrying")
		if err := s.sleep(ctx, backoff); err != nil {
			return model.Series{}, err
		}
	}
	return model.Series{}, lastErr
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
