package scheduler

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bucket struct {
	quarter int
	week    int
}

func subject(id string, start, end int, notPairWith ...string) SubjectInput {
	return SubjectInput{SubSubjectID: id, StartPace: start, EndPace: end, NotPairWith: notPairWith}
}

func withDifficulty(in SubjectInput, difficulty int) SubjectInput {
	in.Difficulty = &difficulty
	return in
}

func groupByWeek(assignments []PaceAssignment) map[bucket]map[string]int {
	result := make(map[bucket]map[string]int)
	for _, a := range assignments {
		key := bucket{quarter: a.Quarter, week: a.Week}
		if result[key] == nil {
			result[key] = make(map[string]int)
		}
		result[key][a.SubSubjectID]++
	}
	return result
}

// requireScheduleInvariants checks that a generated schedule keeps every pace
// exactly once, honours weekly capacity and exclusions, and stays inside the calendar.
func requireScheduleInvariants(t *testing.T, subjects []SubjectInput, assignments []PaceAssignment) {
	t.Helper()

	expected := make(map[string]struct{})
	exclusions := make(map[string]map[string]struct{})
	for _, in := range subjects {
		plan := NormalizeSubject(in)
		for _, code := range plan.Paces {
			expected[fmt.Sprintf("%s#%d", plan.ID, code)] = struct{}{}
		}
		exclusions[plan.ID] = plan.NotPairWith
	}

	seen := make(map[string]struct{}, len(assignments))
	for _, a := range assignments {
		key := fmt.Sprintf("%s#%d", a.SubSubjectID, a.PaceCode)
		_, dup := seen[key]
		require.False(t, dup, "pace %s scheduled twice", key)
		seen[key] = struct{}{}
		_, ok := expected[key]
		require.True(t, ok, "pace %s was never requested", key)

		require.GreaterOrEqual(t, a.Quarter, 1)
		require.LessOrEqual(t, a.Quarter, QuarterCount)
		require.GreaterOrEqual(t, a.Week, 1)
		require.LessOrEqual(t, a.Week, WeeksPerQuarter)
	}
	require.Len(t, seen, len(expected), "every requested pace must be scheduled")

	for key, subjects := range groupByWeek(assignments) {
		assert.LessOrEqual(t, len(subjects), MaxSubjectsPerWeek, "quarter %d week %d over capacity", key.quarter, key.week)
		for id, count := range subjects {
			assert.Equal(t, 1, count, "subject %s placed %d times in quarter %d week %d", id, count, key.quarter, key.week)
			for other := range subjects {
				if other == id {
					continue
				}
				_, excluded := exclusions[id][other]
				assert.False(t, excluded, "%s and %s share quarter %d week %d", id, other, key.quarter, key.week)
			}
		}
	}
}
