package store

import (
	"context"
	"errors"
	"time"

	"MarketScanner/internal/model"
)

// ErrCacheMiss is returned when no cached bars exist for a ticker and window.
var ErrCacheMiss = errors.New("cache miss")

// BarStore caches fetched market data between scans. It never holds scores.
type BarStore interface {
	LoadBars(ctx context.Context, ticker string, lookbackDays int) ([]model.OHLCV, time.Time, error)
	SaveBars(ctx context.Context, ticker string, lookbackDays int, bars []model.OHLCV) error
	Close() error
}
