package universe

import (
	"strings"

	"MarketScanner/internal/model"
)

// DefaultHedgeTicker is the inverse ETF whose selection raises a risk warning.
const DefaultHedgeTicker = "00632R.TW"

// Foreign is the default US large-cap list.
var Foreign = []model.Instrument{
	{Ticker: "AAPL", DisplayName: "Apple"},
	{Ticker: "NVDA", DisplayName: "NVIDIA"},
	{Ticker: "TSLA", DisplayName: "Tesla"},
	{Ticker: "AMD", DisplayName: "AMD"},
	{Ticker: "MSFT", DisplayName: "Microsoft"},
	{Ticker: "GOOGL", DisplayName: "Alphabet"},
	{Ticker: "META", DisplayName: "Meta"},
	{Ticker: "AMZN", DisplayName: "Amazon"},
}

// Domestic is the default Taiwan list, traded in lots.
var Domestic = []model.Instrument{
	{Ticker: "2330.TW", DisplayName: "TSMC"},
	{Ticker: "2454.TW", DisplayName: "MediaTek"},
	{Ticker: "2317.TW", DisplayName: "Hon Hai"},
	{Ticker: "2603.TW", DisplayName: "Evergreen Marine"},
	{Ticker: "2308.TW", DisplayName: "Delta Electronics"},
	{Ticker: "2382.TW", DisplayName: "Quanta Computer"},
	{Ticker: "2881.TW", DisplayName: "Fubon Financial"},
}

// Default returns the combined default universe, domestic first.
func Default() []model.Instrument {
	out := make([]model.Instrument, 0, len(Domestic)+len(Foreign))
	out = append(out, Domestic...)
	out = append(out, Foreign...)
	return Classify(out)
}

// Classify fills in the market of every instrument from its ticker and
// normalizes ticker case.
func Classify(in []model.Instrument) []model.Instrument {
	out := make([]model.Instrument, len(in))
	for i, inst := range in {
		inst.Ticker = strings.ToUpper(strings.TrimSpace(inst.Ticker))
		inst.Market = model.ClassifyTicker(inst.Ticker)
		out[i] = inst
	}
	return out
}

// Filter keeps the instruments allowed by f and drops duplicate tickers.
func Filter(in []model.Instrument, f model.MarketFilter) []model.Instrument {
	seen := make(map[string]bool, len(in))
	out := make([]model.Instrument, 0, len(in))
	for _, inst := range in {
		if seen[inst.Ticker] || !f.Allows(inst.Market) {
			continue
		}
		seen[inst.Ticker] = true
		out = append(out, inst)
	}
	return out
}
