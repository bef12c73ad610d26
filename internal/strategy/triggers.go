package strategy

import (
	"fmt"
	"math"

	"MarketScanner/internal/model"
)

// TriggerParams holds the rule thresholds and weights.
type TriggerParams struct {
	Weights            model.TriggerWeights
	OversoldLevel      float64
	DomesticVolatility float64 // percent
	ForeignVolatility  float64 // percent
	VolumeMultiplier   float64
}

// VolatilityThreshold returns the daily-move threshold for market m.
func (p TriggerParams) VolatilityThreshold(m model.Market) float64 {
	if m == model.MarketDomestic {
		return p.DomesticVolatility
	}
	return p.ForeignVolatility
}

// TriggerInput is the slice of market state the rules look at.
type TriggerInput struct {
	Latest        model.IndicatorRow
	Previous      model.IndicatorRow
	LatestClose   float64
	PreviousClose float64
	LatestVolume  float64
	MeanVolume    float64
	Market        model.Market
}

// PctChange returns the close-to-close move in percent.
func (in TriggerInput) PctChange() float64 {
	if in.PreviousClose == 0 {
		return 0
	}
	return (in.LatestClose - in.PreviousClose) / in.PreviousClose * 100
}

// EvaluateTriggers applies every rule independently and returns the fired
// ones in a fixed order. Rules with zero weight never fire.
func EvaluateTriggers(in TriggerInput, p TriggerParams) []model.Trigger {
	var fired []model.Trigger
	add := func(kind model.TriggerKind, detail string) {
		w := p.Weights.Of(kind)
		if w <= 0 {
			return
		}
		fired = append(fired, model.Trigger{Kind: kind, Weight: w, Detail: detail})
	}

	if isOversold(in.Latest.RSI, p.OversoldLevel) {
		add(model.TriggerOversold, fmt.Sprintf("RSI %.1f", in.Latest.RSI))
	}
	if isGoldenCross(in.Previous, in.Latest) {
		add(model.TriggerGoldenCross, fmt.Sprintf("SMA short %.2f > SMA long %.2f", in.Latest.SMAShort, in.Latest.SMALong))
	}
	pct := in.PctChange()
	if isVolatile(pct, p.VolatilityThreshold(in.Market)) {
		add(model.TriggerVolatility, fmt.Sprintf("%+.1f%%", pct))
	}
	if isVolumeBreakout(in.LatestVolume, in.MeanVolume, p.VolumeMultiplier) {
		add(model.TriggerVolumeSpike, fmt.Sprintf("%.1fx avg", in.LatestVolume/in.MeanVolume))
	}
	return fired
}

func isOversold(rsi, level float64) bool {
	return model.IsDefined(rsi) && rsi < level
}

// isGoldenCross only fires on the bar where the short average crosses above
// the long one; a cross that already persisted does not fire again.
func isGoldenCross(prev, curr model.IndicatorRow) bool {
	return prev.SMAShort < prev.SMALong && curr.SMAShort > curr.SMALong
}

func isVolatile(pctChange, threshold float64) bool {
	return threshold > 0 && math.Abs(pctChange) >= threshold
}

func isVolumeBreakout(volume, mean, multiplier float64) bool {
	return mean > 0 && volume > mean*multiplier
}
