package collector

import (
	"fmt"
	"math"
	"sort"

	"MarketScanner/internal/model"
)

// Normalize validates bars at the data-source boundary: it drops null bars
// (holidays, halted sessions), sorts ascending and keeps one bar per
// calendar date, the last one seen winning.
func Normalize(bars []model.OHLCV) ([]model.OHLCV, error) {
	clean := make([]model.OHLCV, 0, len(bars))
	for _, b := range bars {
		if b.Time.IsZero() || math.IsNaN(b.Close) || b.Close <= 0 || math.IsNaN(b.Volume) || b.Volume < 0 {
			continue
		}
		clean = append(clean, b)
	}
	sort.SliceStable(clean, func(i, j int) bool { return clean[i].Time.Before(clean[j].Time) })

	out := clean[:0]
	for _, b := range clean {
		if n := len(out); n > 0 && sameDay(out[n-1], b) {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no valid bars", ErrNoData)
	}
	return out, nil
}

func sameDay(a, b model.OHLCV) bool {
	ay, am, ad := a.Time.Date()
	by, bm, bd := b.Time.Date()
	return ay == by && am == bm && ad == bd
}
