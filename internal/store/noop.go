package store

import (
	"context"
	"time"

	"MarketScanner/internal/model"
)

// NoopStore is a no-op implementation used when SQLite is not configured.
type NoopStore struct{}

func NewNoopStore() *NoopStore { return &NoopStore{} }

func (n *NoopStore) LoadBars(_ context.Context, _ string, _ int) ([]model.OHLCV, time.Time, error) {
	return nil, time.Time{}, ErrCacheMiss
}
func (n *NoopStore) SaveBars(_ context.Context, _ string, _ int, _ []model.OHLCV) error { return nil }
func (n *NoopStore) Close() error                                                        { return nil }
