package collector

import (
	"context"
	"errors"

	"MarketScanner/internal/model"
)

// ErrNoData is returned when a source has no usable bars for a ticker.
var ErrNoData = errors.New("no data")

// Fetcher defines the interface for fetching daily bars over a lookback
// window of calendar days.
type Fetcher interface {
	FetchDailyBars(ctx context.Context, ticker string, lookbackDays int) ([]model.OHLCV, error)
	Name() string
}
