package strategy

import (
	"errors"
	"fmt"

	"MarketScanner/internal/calculator"
	"MarketScanner/internal/model"
)

// ErrMalformedBar is returned when the latest bars cannot be evaluated
// (missing close, zero previous close, undefined indicators).
var ErrMalformedBar = errors.New("malformed bar")

// Params bundles the indicator windows and trigger rules of one scan.
type Params struct {
	Indicators calculator.Params
	Triggers   TriggerParams
}

// Evaluate scores one instrument. It returns a nil result (and nil error)
// when no trigger fired, since only instruments with a signal are ranked.
func Evaluate(inst model.Instrument, bars []model.OHLCV, p Params) (*model.ScoreResult, error) {
	frame, err := calculator.BuildFrame(bars, p.Indicators)
	if err != nil {
		return nil, err
	}

	n := len(bars)
	latest, previous := bars[n-1], bars[n-2]
	if latest.Close <= 0 || previous.Close <= 0 {
		return nil, fmt.Errorf("%w: non-positive close (latest=%v previous=%v)", ErrMalformedBar, latest.Close, previous.Close)
	}
	currRow, prevRow := frame.Row(n-1), frame.Row(n-2)
	if !currRow.Complete() || !prevRow.Complete() {
		return nil, fmt.Errorf("%w: indicators undefined at latest bars", ErrMalformedBar)
	}

	meanVol, err := calculator.CalculateMeanVolume(bars)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBar, err)
	}

	in := TriggerInput{
		Latest:        currRow,
		Previous:      prevRow,
		LatestClose:   latest.Close,
		PreviousClose: previous.Close,
		LatestVolume:  latest.Volume,
		MeanVolume:    meanVol,
		Market:        inst.Market,
	}
	triggers := EvaluateTriggers(in, p.Triggers)
	score := Aggregate(triggers)
	if score <= 0 {
		return nil, nil
	}

	return &model.ScoreResult{
		Ticker:         inst.Ticker,
		DisplayName:    inst.Name(),
		Market:         inst.Market,
		LatestPrice:    latest.Close,
		PreviousPrice:  previous.Close,
		PctChange:      in.PctChange(),
		CompositeScore: score,
		Triggers:       triggers,
	}, nil
}

// Aggregate sums the weights of the fired triggers, counting each kind once.
func Aggregate(triggers []model.Trigger) float64 {
	seen := make(map[model.TriggerKind]bool, len(triggers))
	total := 0.0
	for _, t := range triggers {
		if seen[t.Kind] || t.Weight <= 0 {
			continue
		}
		seen[t.Kind] = true
		total += t.Weight
	}
	return total
}
