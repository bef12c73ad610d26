package scanner

import (
	"fmt"
	"strings"
	"time"

	"MarketScanner/internal/model"
	"MarketScanner/internal/ranking"
)

// Row is one line of the report handed to the presentation layer.
type Row struct {
	Rank        int
	Ticker      string
	DisplayName string
	Score       float64
	Price       float64
	PctChange   float64
	Triggers    string
	Quantity    int64
	Unit        model.UnitKind
	StopLoss    float64
}

// Report is the outcome of one scan.
type Report struct {
	ScanID     string
	StartedAt  time.Time
	FinishedAt time.Time
	Scanned    int

	// Results holds every scored candidate in rank order.
	Results     []*model.ScoreResult
	Selection   ranking.Selection
	Allocations []model.AllocationResult
	Rows        []Row
	Skips       []Skip

	NoCandidates bool
	HedgeWarning bool
	Message      string
}

// SkipCounts tallies skipped tickers by kind.
func (r *Report) SkipCounts() map[ErrorKind]int {
	out := make(map[ErrorKind]int)
	for _, s := range r.Skips {
		out[s.Kind]++
	}
	return out
}

func buildRows(sel ranking.Selection, allocs []model.AllocationResult) []Row {
	rows := make([]Row, len(sel.Items))
	for i, r := range sel.Items {
		row := Row{
			Rank:        i + 1,
			Ticker:      r.Ticker,
			DisplayName: r.DisplayName,
			Score:       r.CompositeScore,
			Price:       r.LatestPrice,
			PctChange:   r.PctChange,
			Triggers:    r.TriggerText(),
		}
		if i < len(allocs) {
			row.Quantity = allocs[i].Quantity
			row.Unit = allocs[i].Unit
			row.StopLoss = allocs[i].StopLossPrice
		}
		rows[i] = row
	}
	return rows
}

func hedgeSelected(sel ranking.Selection, hedge string) bool {
	if hedge == "" {
		return false
	}
	for _, r := range sel.Items {
		if strings.EqualFold(r.Ticker, hedge) {
			return true
		}
	}
	return false
}

func summarize(sel ranking.Selection) string {
	switch {
	case sel.Candidates == 0:
		return "no signals found: no instrument fired any trigger"
	case sel.FellBack:
		return fmt.Sprintf("no candidates met the %g threshold, highest observed score was %g; keeping the top candidate",
			sel.Policy.MinScore, sel.TopScore)
	default:
		return fmt.Sprintf("%d of %d candidates selected by %s", len(sel.Items), sel.Candidates, sel.Policy)
	}
}
