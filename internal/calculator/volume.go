package calculator

import (
	"errors"

	"MarketScanner/internal/model"
)

// CalculateMeanVolume returns the arithmetic mean volume over every bar in the window.
func CalculateMeanVolume(bars []model.OHLCV) (float64, error) {
	if len(bars) == 0 {
		return 0, errors.New("no bars provided")
	}
	sum := 0.0
	for _, b := range bars {
		sum += b.Volume
	}
	return sum / float64(len(bars)), nil
}
