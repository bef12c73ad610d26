package scanner

import (
	"errors"
	"fmt"
	"time"

	"MarketScanner/internal/model"
	"MarketScanner/internal/strategy"
)

// Config is the immutable parameter set of one scan. It is built once and
// passed explicitly to every stage.
type Config struct {
	Universe         []model.Instrument
	Filter           model.MarketFilter
	LookbackDays     int
	Strategy         strategy.Params
	Policy           model.SelectionPolicy
	Budget           float64
	LotSize          int64
	StopLossFraction float64
	HedgeTicker      string

	// RequestInterval is the minimum spacing between data-source requests
	// across all workers. Zero disables pacing.
	RequestInterval time.Duration
	Concurrency     int
	MaxAttempts     int
	RetryBaseDelay  time.Duration
	FetchTimeout    time.Duration
	ScanDeadline    time.Duration
}

// Validate checks the invariants the pipeline relies on.
func (c Config) Validate() error {
	if c.Budget <= 0 {
		return errors.New("budget must be positive")
	}
	if c.LookbackDays <= 0 {
		return errors.New("lookback days must be positive")
	}
	switch c.Policy.Mode {
	case model.ModeFixedCount:
		if c.Policy.Count <= 0 {
			return fmt.Errorf("fixed count must be positive, got %d", c.Policy.Count)
		}
	case model.ModeAdaptiveThreshold:
		if c.Policy.MinScore < 0 {
			return fmt.Errorf("threshold must be >= 0, got %v", c.Policy.MinScore)
		}
	default:
		return fmt.Errorf("unknown selection mode %q", c.Policy.Mode)
	}
	if err := c.Strategy.Triggers.Weights.Validate(); err != nil {
		return err
	}
	if c.Concurrency < 1 {
		return errors.New("concurrency must be at least 1")
	}
	if c.MaxAttempts < 1 {
		return errors.New("max attempts must be at least 1")
	}
	return nil
}
