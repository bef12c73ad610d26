package scanner

import (
	"errors"

	"MarketScanner/internal/calculator"
	"MarketScanner/internal/collector"
	"MarketScanner/internal/strategy"
)

// ErrorKind classifies why a ticker was skipped.
type ErrorKind string

const (
	KindInsufficientData ErrorKind = "insufficient_data"
	KindFetchFailure     ErrorKind = "fetch_failure"
	KindComputation      ErrorKind = "computation_error"
)

// errPanic marks a recovered panic inside a ticker pipeline.
var errPanic = errors.New("panic during evaluation")

// Classify maps a per-ticker error to its kind.
func Classify(err error) ErrorKind {
	switch {
	case errors.Is(err, calculator.ErrInsufficientData), errors.Is(err, collector.ErrNoData):
		return KindInsufficientData
	case errors.Is(err, strategy.ErrMalformedBar), errors.Is(err, errPanic):
		return KindComputation
	default:
		return KindFetchFailure
	}
}

// Skip records a ticker that produced no result because of an error.
type Skip struct {
	Ticker string
	Kind   ErrorKind
	Reason string
}
