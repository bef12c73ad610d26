package calculator

import (
	"errors"
	"fmt"

	"MarketScanner/internal/model"
)

// ErrInsufficientData is returned when a series is too short for the indicator windows.
var ErrInsufficientData = errors.New("insufficient data")

// Params configures the indicator windows.
type Params struct {
	RSIPeriod   int
	ShortWindow int
	LongWindow  int
	MinBars     int
}

// DefaultParams mirrors the RSI(14), SMA(5)/SMA(10) setup with a 30-bar floor.
func DefaultParams() Params {
	return Params{RSIPeriod: 14, ShortWindow: 5, LongWindow: 10, MinBars: 30}
}

// RequiredBars returns the effective minimum series length. It never drops
// below what is needed to have both the latest and previous rows defined.
func (p Params) RequiredBars() int {
	need := p.MinBars
	if n := p.RSIPeriod + 2; n > need {
		need = n
	}
	if n := p.LongWindow + 1; n > need {
		need = n
	}
	if n := p.ShortWindow + 1; n > need {
		need = n
	}
	return need
}

// BuildFrame computes RSI and both SMAs for every bar.
func BuildFrame(bars []model.OHLCV, p Params) (*model.IndicatorFrame, error) {
	if need := p.RequiredBars(); len(bars) < need {
		return nil, fmt.Errorf("%w: have %d bars, need %d", ErrInsufficientData, len(bars), need)
	}
	closes := extractCloses(bars)

	rsi, err := CalculateRSISeries(closes, p.RSIPeriod)
	if err != nil {
		return nil, fmt.Errorf("rsi: %w", err)
	}
	short, err := CalculateSMASeries(closes, p.ShortWindow)
	if err != nil {
		return nil, fmt.Errorf("sma(%d): %w", p.ShortWindow, err)
	}
	long, err := CalculateSMASeries(closes, p.LongWindow)
	if err != nil {
		return nil, fmt.Errorf("sma(%d): %w", p.LongWindow, err)
	}
	return &model.IndicatorFrame{RSI: rsi, SMAShort: short, SMALong: long}, nil
}
