package model

import (
	"fmt"
	"strings"
)

// TriggerKind identifies one of the screening rules.
type TriggerKind string

const (
	TriggerOversold    TriggerKind = "OVERSOLD"
	TriggerGoldenCross TriggerKind = "GOLDEN_CROSS"
	TriggerVolatility  TriggerKind = "VOLATILITY"
	TriggerVolumeSpike TriggerKind = "VOLUME_SPIKE"
)

// Label returns the short human-readable trigger name.
func (k TriggerKind) Label() string {
	switch k {
	case TriggerOversold:
		return "RSI oversold"
	case TriggerGoldenCross:
		return "MA golden cross"
	case TriggerVolatility:
		return "Volatility"
	case TriggerVolumeSpike:
		return "Volume spike"
	default:
		return string(k)
	}
}

// TriggerWeights maps every trigger kind to the score it contributes when fired.
type TriggerWeights struct {
	Oversold    float64 `yaml:"oversold" validate:"gte=0"`
	Crossover   float64 `yaml:"crossover" validate:"gte=0"`
	Volatility  float64 `yaml:"volatility" validate:"gte=0"`
	VolumeSpike float64 `yaml:"volume_spike" validate:"gte=0"`
}

// Of returns the weight configured for kind.
func (w TriggerWeights) Of(kind TriggerKind) float64 {
	switch kind {
	case TriggerOversold:
		return w.Oversold
	case TriggerGoldenCross:
		return w.Crossover
	case TriggerVolatility:
		return w.Volatility
	case TriggerVolumeSpike:
		return w.VolumeSpike
	}
	return 0
}

// Validate rejects negative weights.
func (w TriggerWeights) Validate() error {
	for _, k := range []TriggerKind{TriggerOversold, TriggerGoldenCross, TriggerVolatility, TriggerVolumeSpike} {
		if w.Of(k) < 0 {
			return fmt.Errorf("weight for %s must be >= 0, got %v", k, w.Of(k))
		}
	}
	return nil
}

// Trigger is a fired rule instance.
type Trigger struct {
	Kind   TriggerKind
	Weight float64
	Detail string
}

// String renders the trigger as "Label(detail)".
func (t Trigger) String() string {
	if t.Detail == "" {
		return t.Kind.Label()
	}
	return fmt.Sprintf("%s(%s)", t.Kind.Label(), t.Detail)
}

// ScoreResult is the scored outcome for one ticker in one scan.
// It is only produced when at least one trigger fired.
type ScoreResult struct {
	Ticker         string
	DisplayName    string
	Market         Market
	LatestPrice    float64
	PreviousPrice  float64
	PctChange      float64
	CompositeScore float64
	Triggers       []Trigger
}

// TriggerText joins the fired triggers for display.
func (r *ScoreResult) TriggerText() string {
	parts := make([]string, len(r.Triggers))
	for i, t := range r.Triggers {
		parts[i] = t.String()
	}
	return strings.Join(parts, " + ")
}

// SelectionMode names the active selection policy.
type SelectionMode string

const (
	ModeFixedCount        SelectionMode = "fixed_count"
	ModeAdaptiveThreshold SelectionMode = "adaptive_threshold"
)

// SelectionPolicy decides which ranked candidates are kept.
type SelectionPolicy struct {
	Mode     SelectionMode
	Count    int
	MinScore float64
}

// FixedCount keeps the top n candidates regardless of score.
func FixedCount(n int) SelectionPolicy {
	return SelectionPolicy{Mode: ModeFixedCount, Count: n}
}

// AdaptiveThreshold keeps every candidate scoring at least minScore.
func AdaptiveThreshold(minScore float64) SelectionPolicy {
	return SelectionPolicy{Mode: ModeAdaptiveThreshold, MinScore: minScore}
}

func (p SelectionPolicy) String() string {
	if p.Mode == ModeFixedCount {
		return fmt.Sprintf("FixedCount(%d)", p.Count)
	}
	return fmt.Sprintf("AdaptiveThreshold(%g)", p.MinScore)
}

// UnitKind is the unit in which a suggested quantity is expressed.
type UnitKind string

const (
	UnitShare UnitKind = "share"
	UnitLot   UnitKind = "lot"
)

// AllocationResult is the suggested position size for one selected candidate.
type AllocationResult struct {
	Ticker         string
	DisplayName    string
	Quantity       int64
	Unit           UnitKind
	ReferencePrice float64
	Allocation     float64
	Cost           float64
	StopLossPrice  float64
}
