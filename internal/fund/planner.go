package fund

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"MarketScanner/internal/model"
)

// DefaultLotSize is the number of shares in one board lot on the domestic market.
const DefaultLotSize = 1000

var (
	// ErrEmptySelection guards the equal-weight split against division by zero.
	ErrEmptySelection = errors.New("cannot allocate an empty selection")
	// ErrInvalidBudget is returned for a non-positive budget.
	ErrInvalidBudget = errors.New("budget must be positive")
)

// Planner splits a fixed budget equally across a selection and converts each
// share of the budget into a tradable quantity.
type Planner struct {
	Budget           decimal.Decimal
	LotSize          int64
	StopLossFraction float64
}

// NewPlanner validates the inputs and creates a Planner. A zero lotSize
// falls back to DefaultLotSize; a zero stopLossFraction disables stop levels.
func NewPlanner(budget float64, lotSize int64, stopLossFraction float64) (*Planner, error) {
	if budget <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBudget, budget)
	}
	if lotSize <= 0 {
		lotSize = DefaultLotSize
	}
	if stopLossFraction < 0 || stopLossFraction >= 1 {
		return nil, fmt.Errorf("stop loss fraction must be in [0,1), got %v", stopLossFraction)
	}
	return &Planner{
		Budget:           decimal.NewFromFloat(budget),
		LotSize:          lotSize,
		StopLossFraction: stopLossFraction,
	}, nil
}

// Plan allocates budget / len(selection) to every selected candidate.
func (p *Planner) Plan(selection []*model.ScoreResult) ([]model.AllocationResult, error) {
	if len(selection) == 0 {
		return nil, ErrEmptySelection
	}
	perItem := p.Budget.Div(decimal.NewFromInt(int64(len(selection))))

	out := make([]model.AllocationResult, 0, len(selection))
	for _, r := range selection {
		price := decimal.NewFromFloat(r.LatestPrice)
		qty, unit := p.quantity(perItem, price, r.Market)

		unitShares := decimal.NewFromInt(1)
		if unit == model.UnitLot {
			unitShares = decimal.NewFromInt(p.LotSize)
		}
		cost := decimal.NewFromInt(qty).Mul(unitShares).Mul(price)

		alloc, _ := perItem.Float64()
		costF, _ := cost.Float64()
		out = append(out, model.AllocationResult{
			Ticker:         r.Ticker,
			DisplayName:    r.DisplayName,
			Quantity:       qty,
			Unit:           unit,
			ReferencePrice: r.LatestPrice,
			Allocation:     alloc,
			Cost:           costF,
			StopLossPrice:  StopLossPrice(r.LatestPrice, p.StopLossFraction),
		})
	}
	return out, nil
}

// quantity converts an allocation into units. Lot-traded instruments are
// floored to whole shares first and then to whole lots. For an integer lot
// size this always equals floor(allocation / (price * lotSize)).
func (p *Planner) quantity(allocation, price decimal.Decimal, m model.Market) (int64, model.UnitKind) {
	if !price.IsPositive() {
		if m == model.MarketDomestic {
			return 0, model.UnitLot
		}
		return 0, model.UnitShare
	}
	shares := allocation.Div(price).Floor()
	if m != model.MarketDomestic {
		return shares.IntPart(), model.UnitShare
	}
	lots := shares.Div(decimal.NewFromInt(p.LotSize)).Floor()
	return lots.IntPart(), model.UnitLot
}

// StopLossPrice returns price reduced by fraction, rounded to cents. It is a
// reference level only. A zero fraction yields zero.
func StopLossPrice(price, fraction float64) float64 {
	if fraction <= 0 || price <= 0 {
		return 0
	}
	v, _ := decimal.NewFromFloat(price).
		Mul(decimal.NewFromInt(1).Sub(decimal.NewFromFloat(fraction))).
		Round(2).
		Float64()
	return v
}
