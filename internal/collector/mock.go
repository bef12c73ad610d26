package collector

import (
	"context"
	"fmt"
	"time"

	"MarketScanner/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Bars   map[string][]model.OHLCV
	Errors map[string]error
	// Price seeds generated bars for tickers absent from Bars.
	Price float64
	// Anchor is the date of the last generated bar.
	Anchor time.Time
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDailyBars(_ context.Context, ticker string, days int) ([]model.OHLCV, error) {
	if err, ok := m.Errors[ticker]; ok {
		return nil, err
	}
	if bars, ok := m.Bars[ticker]; ok {
		return bars, nil
	}
	if m.Price <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoData, ticker)
	}
	return GenerateMockBars(m.Price, days, m.anchor()), nil
}

func (m *MockFetcher) anchor() time.Time {
	if m.Anchor.IsZero() {
		return time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
	}
	return m.Anchor
}

// GenerateMockBars builds count gently rising daily bars ending at anchor.
func GenerateMockBars(basePrice float64, count int, anchor time.Time) []model.OHLCV {
	bars := make([]model.OHLCV, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.OHLCV{
			Time:   anchor.AddDate(0, 0, -(count - 1 - i)),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}
