package model

import (
	"strings"
	"time"
)

// OHLCV represents a single daily bar.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Series holds the ordered daily bars of one ticker, oldest first.
type Series struct {
	Ticker string
	Bars   []OHLCV
}

// Market classifies an instrument by the exchange conventions it trades under.
type Market string

const (
	// MarketDomestic instruments trade in lots and carry a wider daily limit.
	MarketDomestic Market = "DOMESTIC"
	// MarketForeign instruments trade in single shares.
	MarketForeign Market = "FOREIGN"
)

// DomesticSuffix marks a domestic (lot-traded) ticker symbol.
const DomesticSuffix = ".TW"

// ClassifyTicker derives the market from the ticker symbol.
func ClassifyTicker(ticker string) Market {
	if strings.HasSuffix(strings.ToUpper(ticker), DomesticSuffix) {
		return MarketDomestic
	}
	return MarketForeign
}

// MarketFilter restricts a scan to one or both markets.
type MarketFilter string

const (
	FilterDomestic MarketFilter = "domestic"
	FilterForeign  MarketFilter = "foreign"
	FilterBoth     MarketFilter = "both"
)

// Allows reports whether instruments of market m pass the filter.
func (f MarketFilter) Allows(m Market) bool {
	switch f {
	case FilterDomestic:
		return m == MarketDomestic
	case FilterForeign:
		return m == MarketForeign
	default:
		return true
	}
}

// Instrument is one entry of the scan universe.
type Instrument struct {
	Ticker      string `yaml:"ticker"`
	DisplayName string `yaml:"name"`
	Market      Market `yaml:"-"`
}

// Name returns the display name, falling back to the ticker.
func (i Instrument) Name() string {
	if i.DisplayName != "" {
		return i.DisplayName
	}
	return i.Ticker
}
