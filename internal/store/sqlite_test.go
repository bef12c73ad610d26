package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketScanner/internal/model"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "cache.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	fixed := time.Date(2025, 2, 3, 10, 0, 0, 0, time.UTC)
	s.Now = func() time.Time { return fixed }
	ctx := context.Background()

	day := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := []model.OHLCV{
		{Time: day, Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 100},
		{Time: day.AddDate(0, 0, 1), Open: 1.5, High: 2.5, Low: 1, Close: 2, Volume: 200},
	}
	require.NoError(t, s.SaveBars(ctx, "AAPL", 100, bars))

	got, fetchedAt, err := s.LoadBars(ctx, "AAPL", 100)
	require.NoError(t, err)
	assert.Equal(t, bars, got)
	assert.True(t, fetchedAt.Equal(fixed))
}

func TestSQLiteStore_ReplaceOnSave(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	day := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.SaveBars(ctx, "NVDA", 100, []model.OHLCV{{Time: day, Close: 1}, {Time: day.AddDate(0, 0, 1), Close: 2}}))
	require.NoError(t, s.SaveBars(ctx, "NVDA", 100, []model.OHLCV{{Time: day.AddDate(0, 0, 5), Close: 3}}))

	got, _, err := s.LoadBars(ctx, "NVDA", 100)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 3.0, got[0].Close)
}

func TestSQLiteStore_Miss(t *testing.T) {
	s := openTestStore(t)
	_, _, err := s.LoadBars(context.Background(), "NONE", 100)
	assert.True(t, errors.Is(err, ErrCacheMiss))
}

func TestNoopStore(t *testing.T) {
	n := NewNoopStore()
	_, _, err := n.LoadBars(context.Background(), "X", 1)
	assert.True(t, errors.Is(err, ErrCacheMiss))
	assert.NoError(t, n.SaveBars(context.Background(), "X", 1, nil))
	assert.NoError(t, n.Close())
}
