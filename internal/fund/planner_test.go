package fund

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketScanner/internal/model"
)

func TestPlan_DoubleFloorForLots(t *testing.T) {
	p, err := NewPlanner(1_000_000, 1000, 0)
	require.NoError(t, err)

	sel := []*model.ScoreResult{
		{Ticker: "AAPL", LatestPrice: 500, Market: model.MarketForeign},
		{Ticker: "2330.TW", LatestPrice: 600, Market: model.MarketDomestic},
	}
	got, err := p.Plan(sel)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, int64(1000), got[0].Quantity)
	assert.Equal(t, model.UnitShare, got[0].Unit)
	assert.Equal(t, 500_000.0, got[0].Allocation)

	// floor(500000/600)=833 shares, floor(833/1000)=0 lots
	assert.Equal(t, int64(0), got[1].Quantity)
	assert.Equal(t, model.UnitLot, got[1].Unit)
}

func TestPlan_LotsWhenAffordable(t *testing.T) {
	p, err := NewPlanner(1_000_000, 1000, 0)
	require.NoError(t, err)
	got, err := p.Plan([]*model.ScoreResult{{Ticker: "2317.TW", LatestPrice: 150, Market: model.MarketDomestic}})
	require.NoError(t, err)
	// floor(1000000/150)=6666 shares -> 6 lots
	assert.Equal(t, int64(6), got[0].Quantity)
	assert.Equal(t, 900_000.0, got[0].Cost)
}

func TestPlan_LotFloorMatchesSingleFloor(t *testing.T) {
	prices := []float64{7, 13, 99.5, 150.5, 333, 599, 600, 1000, 1234.5}
	for budget := int64(100_000); budget <= 5_000_000; budget += 37_000 {
		p, err := NewPlanner(float64(budget), 1000, 0)
		require.NoError(t, err)
		for _, price := range prices {
			got, err := p.Plan([]*model.ScoreResult{{Ticker: "2330.TW", LatestPrice: price, Market: model.MarketDomestic}})
			require.NoError(t, err)

			want := decimal.NewFromInt(budget).
				Div(decimal.NewFromFloat(price).Mul(decimal.NewFromInt(1000))).
				Floor().IntPart()
			assert.Equal(t, want, got[0].Quantity, "budget %d price %v", budget, price)
		}
	}
}

func TestPlan_NeverExceedsBudget(t *testing.T) {
	budget := 777_777.0
	p, err := NewPlanner(budget, 1000, 0)
	require.NoError(t, err)
	sel := []*model.ScoreResult{
		{Ticker: "A", LatestPrice: 13.37, Market: model.MarketForeign},
		{Ticker: "B", LatestPrice: 0.91, Market: model.MarketForeign},
		{Ticker: "C.TW", LatestPrice: 42.5, Market: model.MarketDomestic},
	}
	got, err := p.Plan(sel)
	require.NoError(t, err)
	total := 0.0
	for _, a := range got {
		total += a.Cost
		assert.LessOrEqual(t, a.Cost, a.Allocation+1e-6)
	}
	assert.LessOrEqual(t, total, budget)
}

func TestPlan_EmptySelection(t *testing.T) {
	p, err := NewPlanner(1000, 0, 0)
	require.NoError(t, err)
	_, err = p.Plan(nil)
	assert.True(t, errors.Is(err, ErrEmptySelection))
}

func TestPlan_NonPositivePrice(t *testing.T) {
	p, err := NewPlanner(1000, 0, 0)
	require.NoError(t, err)
	got, err := p.Plan([]*model.ScoreResult{{Ticker: "Z", LatestPrice: 0, Market: model.MarketForeign}})
	require.NoError(t, err)
	assert.Equal(t, int64(0), got[0].Quantity)
}

func TestNewPlanner_Validation(t *testing.T) {
	_, err := NewPlanner(0, 1000, 0)
	assert.True(t, errors.Is(err, ErrInvalidBudget))
	_, err = NewPlanner(100, 1000, 1.2)
	assert.Error(t, err)

	p, err := NewPlanner(100, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(DefaultLotSize), p.LotSize)
}

func TestStopLossPrice(t *testing.T) {
	assert.Equal(t, 95.0, StopLossPrice(100, 0.05))
	assert.Equal(t, 0.0, StopLossPrice(100, 0))

	p, err := NewPlanner(10_000, 0, 0.08)
	require.NoError(t, err)
	got, err := p.Plan([]*model.ScoreResult{{Ticker: "NVDA", LatestPrice: 125, Market: model.MarketForeign}})
	require.NoError(t, err)
	assert.Equal(t, 115.0, got[0].StopLossPrice)
	assert.Equal(t, int64(80), got[0].Quantity)
}
