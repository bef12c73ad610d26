package strategy

import (
	"fmt"
	"sort"

	"MarketScanner/internal/calculator"
	"MarketScanner/internal/model"
)

// Presets are the named rule sets selectable from configuration.
var Presets = map[string]Params{
	"classic": {
		Indicators: calculator.DefaultParams(),
		Triggers: TriggerParams{
			Weights:            model.TriggerWeights{Oversold: 40, Crossover: 30, Volatility: 20, VolumeSpike: 10},
			OversoldLevel:      20,
			DomesticVolatility: 9.5,
			ForeignVolatility:  7.0,
			VolumeMultiplier:   2.0,
		},
	},
	"balanced": {
		Indicators: calculator.Params{RSIPeriod: 14, ShortWindow: 5, LongWindow: 10, MinBars: 25},
		Triggers: TriggerParams{
			Weights:            model.TriggerWeights{Oversold: 35, Crossover: 35, Volatility: 15, VolumeSpike: 15},
			OversoldLevel:      25,
			DomesticVolatility: 9.5,
			ForeignVolatility:  7.0,
			VolumeMultiplier:   1.8,
		},
	},
	"aggressive": {
		Indicators: calculator.Params{RSIPeriod: 14, ShortWindow: 5, LongWindow: 10, MinBars: 25},
		Triggers: TriggerParams{
			Weights:            model.TriggerWeights{Oversold: 30, Crossover: 30, Volatility: 20, VolumeSpike: 20},
			OversoldLevel:      30,
			DomesticVolatility: 7.0,
			ForeignVolatility:  5.0,
			VolumeMultiplier:   1.5,
		},
	},
}

// DefaultPreset is used when no preset is configured.
const DefaultPreset = "classic"

// Preset looks up a named rule set.
func Preset(name string) (Params, error) {
	if name == "" {
		name = DefaultPreset
	}
	p, ok := Presets[name]
	if !ok {
		return Params{}, fmt.Errorf("unknown preset %q (available: %v)", name, PresetNames())
	}
	return p, nil
}

// PresetNames lists the preset names in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(Presets))
	for n := range Presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
