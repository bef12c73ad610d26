package ranking

import (
	"sort"

	"MarketScanner/internal/model"
)

// Selection is the outcome of applying a SelectionPolicy to one scan's results.
type Selection struct {
	Policy model.SelectionPolicy
	Items  []*model.ScoreResult
	// Candidates is the number of scored results the selection was drawn from.
	Candidates int
	// TopScore is the highest composite score observed in the scan.
	TopScore float64
	// FellBack is set when the threshold admitted nothing and the single best
	// candidate was kept instead.
	FellBack bool
}

// Empty reports whether nothing was selected.
func (s Selection) Empty() bool { return len(s.Items) == 0 }

// Sort returns a copy of results ordered by descending score, ties broken by
// ticker ascending.
func Sort(results []*model.ScoreResult) []*model.ScoreResult {
	out := make([]*model.ScoreResult, len(results))
	copy(out, results)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CompositeScore != out[j].CompositeScore {
			return out[i].CompositeScore > out[j].CompositeScore
		}
		return out[i].Ticker < out[j].Ticker
	})
	return out
}

// Select ranks results and applies policy.
func Select(results []*model.ScoreResult, policy model.SelectionPolicy) Selection {
	sel := Selection{Policy: policy, Candidates: len(results)}
	if len(results) == 0 {
		return sel
	}
	sorted := Sort(results)
	sel.TopScore = sorted[0].CompositeScore

	switch policy.Mode {
	case model.ModeFixedCount:
		n := policy.Count
		if n > len(sorted) {
			n = len(sorted)
		}
		if n < 0 {
			n = 0
		}
		sel.Items = sorted[:n]
	default:
		for _, r := range sorted {
			if r.CompositeScore < policy.MinScore {
				break
			}
			sel.Items = append(sel.Items, r)
		}
		if len(sel.Items) == 0 {
			sel.Items = sorted[:1]
			sel.FellBack = true
		}
	}
	return sel
}
