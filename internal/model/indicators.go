package model

import "math"

// IndicatorFrame holds per-bar indicator values aligned index-for-index with
// the source bars. Warm-up positions hold NaN.
type IndicatorFrame struct {
	RSI      []float64
	SMAShort []float64
	SMALong  []float64
}

// Len returns the number of aligned rows.
func (f *IndicatorFrame) Len() int { return len(f.RSI) }

// Row returns the indicator values at bar i.
func (f *IndicatorFrame) Row(i int) IndicatorRow {
	return IndicatorRow{RSI: f.RSI[i], SMAShort: f.SMAShort[i], SMALong: f.SMALong[i]}
}

// IndicatorRow is a single bar's slice of an IndicatorFrame.
type IndicatorRow struct {
	RSI      float64
	SMAShort float64
	SMALong  float64
}

// Complete reports whether every indicator in the row is defined.
func (r IndicatorRow) Complete() bool {
	return IsDefined(r.RSI) && IsDefined(r.SMAShort) && IsDefined(r.SMALong)
}

// IsDefined reports whether v is a computed value rather than warm-up filler.
func IsDefined(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
