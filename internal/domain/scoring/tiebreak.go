package scoring

import (
	"sort"

	"github.com/fieldwise/dispatch/internal/domain/model"
)

// factorComparators maps each known tie-breaker factor to its comparator.
// Every factor orders by its own raw score, descending; unknown factor names
// never reach this table because config writes validate them.
var factorComparators = map[model.Factor]func(a, b *model.ScoredCandidate) int{
	model.FactorAvailability: compareFactor(model.FactorAvailability),
	model.FactorRating:       compareFactor(model.FactorRating),
	model.FactorDistance:     compareFactor(model.FactorDistance),
}

func compareFactor(f model.Factor) func(a, b *model.ScoredCandidate) int {
	return func(a, b *model.ScoredCandidate) int {
		av, bv := a.Breakdown.FactorScore(f), b.Breakdown.FactorScore(f)
		switch {
		case av > bv:
			return -1
		case av < bv:
			return 1
		default:
			return 0
		}
	}
}

// SortCandidates orders candidates by final score descending. Candidates
// whose scores differ by less than 0.01 form a tie group reordered by the
// configured tie-breakers in list order; remaining ties break by contractor
// id for determinism.
func SortCandidates(cands []model.ScoredCandidate, tieBreakers []model.Factor) {
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].Score > cands[j].Score
	})

	// Resolve tie groups: maximal runs of adjacent candidates whose scores
	// differ by less than the epsilon.
	start := 0
	for i := 1; i <= len(cands); i++ {
		if i < len(cands) && cands[i-1].Score-cands[i].Score < tieEpsilon {
			continue
		}
		if i-start > 1 {
			breakTies(cands[start:i], tieBreakers)
		}
		start = i
	}
}

func breakTies(group []model.ScoredCandidate, tieBreakers []model.Factor) {
	sort.SliceStable(group, func(i, j int) bool {
		a, b := &group[i], &group[j]
		for _, f := range tieBreakers {
			cmp, ok := factorComparators[f]
			if !ok {
				continue
			}
			switch cmp(a, b) {
			case -1:
				return true
			case 1:
				return false
			}
		}
		return a.ContractorID < b.ContractorID
	})
}
