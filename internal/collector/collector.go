package collector

import (
	"context"
	"fmt"

	"MarketScanner/internal/model"
)

// Collector fetches and validates the daily series of one ticker.
type Collector struct {
	Fetcher Fetcher
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher) *Collector {
	return &Collector{Fetcher: fetcher}
}

// Collect fetches bars for ticker and normalizes them into a Series.
func (c *Collector) Collect(ctx context.Context, ticker string, lookbackDays int) (model.Series, error) {
	raw, err := c.Fetcher.FetchDailyBars(ctx, ticker, lookbackDays)
	if err != nil {
		return model.Series{}, fmt.Errorf("fetch daily bars from %s: %w", c.Fetcher.Name(), err)
	}
	bars, err := Normalize(raw)
	if err != nil {
		return model.Series{}, err
	}
	return model.Series{Ticker: ticker, Bars: bars}, nil
}
