package scheduler

import (
	"fmt"
	"sort"

	appErrors "github.com/noah-isme/pace-projection-api/pkg/errors"
)

type subjectPair struct {
	high *SubjectPlan
	low  *SubjectPlan
}

// pairByDifficulty matches the hardest remaining subject with the easiest one.
// Ties keep request order so the pairing is deterministic.
func pairByDifficulty(plans []*SubjectPlan) ([]subjectPair, error) {
	sorted := make([]*SubjectPlan, len(plans))
	copy(sorted, plans)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Difficulty > sorted[j].Difficulty
	})

	pairs := make([]subjectPair, 0, len(sorted)/2)
	for lo, hi := 0, len(sorted)-1; lo < hi; lo, hi = lo+1, hi-1 {
		pair := subjectPair{high: sorted[lo], low: sorted[hi]}
		if pair.high.Excludes(pair.low.ID) || pair.low.Excludes(pair.high.ID) {
			return nil, appErrors.Clone(appErrors.ErrUnsatisfiablePairing,
				fmt.Sprintf("difficulty pairing places %s with %s but they must not share a week", pair.high.ID, pair.low.ID))
		}
		pairs = append(pairs, pair)
	}
	return pairs, nil
}

// placeUniform fills the lattice one pair per week. It expects an even number of
// subjects that all carry the same pace count.
func placeUniform(lattice *Lattice, plans []*SubjectPlan) error {
	pairs, err := pairByDifficulty(plans)
	if err != nil {
		return err
	}
	if len(pairs) == 0 {
		return nil
	}

	paceCount := len(pairs[0].high.Paces)
	cursor := 0
	for p := 0; p < paceCount; p++ {
		for _, pair := range pairs {
			week := lattice.Week(cursor)
			cursor++
			if !canPlace(pair.high, week) {
				return stalledError(pair.high.ID)
			}
			place(pair.high, week, pair.high.Paces[p])
			if !canPlace(pair.low, week) {
				return stalledError(pair.low.ID)
			}
			place(pair.low, week, pair.low.Paces[p])
		}
	}
	return nil
}
