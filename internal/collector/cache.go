package collector

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"MarketScanner/internal/model"
	"MarketScanner/internal/store"
)

// CachingFetcher serves bars from a BarStore while they are younger than
// TTL and refreshes them from the wrapped Fetcher otherwise.
type CachingFetcher struct {
	Next  Fetcher
	Store store.BarStore
	TTL   time.Duration
	Log   zerolog.Logger
	Now   func() time.Time
}

// NewCachingFetcher wraps next with a bar cache.
func NewCachingFetcher(next Fetcher, s store.BarStore, ttl time.Duration, log zerolog.Logger) *CachingFetcher {
	return &CachingFetcher{Next: next, Store: s, TTL: ttl, Log: log, Now: time.Now}
}

func (c *CachingFetcher) Name() string { return c.Next.Name() + "+cache" }

func (c *CachingFetcher) FetchDailyBars(ctx context.Context, ticker string, lookbackDays int) ([]model.OHLCV, error) {
	bars, fetchedAt, err := c.Store.LoadBars(ctx, ticker, lookbackDays)
	switch {
	case err == nil && c.Now().Sub(fetchedAt) < c.TTL:
		c.Log.Debug().Str("ticker", ticker).Time("fetched_at", fetchedAt).Msg("bar cache hit")
		return bars, nil
	case err != nil && !errors.Is(err, store.ErrCacheMiss):
		c.Log.Warn().Err(err).Str("ticker", ticker).Msg("bar cache read failed")
	}

	bars, err = c.Next.FetchDailyBars(ctx, ticker, lookbackDays)
	if err != nil {
		return nil, err
	}
	if err := c.Store.SaveBars(ctx, ticker, lookbackDays, bars); err != nil {
		c.Log.Warn().Err(err).Str("ticker", ticker).Msg("bar cache write failed")
	}
	return bars, nil
}
