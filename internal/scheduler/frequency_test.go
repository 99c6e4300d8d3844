package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/pace-projection-api/pkg/errors"
)

func plansFor(subjects ...SubjectInput) []*SubjectPlan {
	plans := make([]*SubjectPlan, 0, len(subjects))
	for _, in := range subjects {
		plan := NormalizeSubject(in)
		plans = append(plans, &plan)
	}
	return plans
}

func TestRoundRobinSpreadsUnevenSubjects(t *testing.T) {
	subjects := []SubjectInput{subject("math", 1, 18), subject("art", 1, 6)}
	lattice := newLattice()

	require.NoError(t, placeRoundRobin(lattice, plansFor(subjects...)))

	assignments := lattice.Flatten()
	require.Len(t, assignments, 24)
	requireScheduleInvariants(t, subjects, assignments)

	artWeeks := make(map[bucket]struct{})
	for _, a := range assignments {
		if a.SubSubjectID == "art" {
			artWeeks[bucket{quarter: a.Quarter, week: a.Week}] = struct{}{}
		}
	}
	assert.Greater(t, len(artWeeks), 4, "short subject must be spread, not clumped")
}

func TestRoundRobinKeepsPaceOrderWithinSubject(t *testing.T) {
	subjects := []SubjectInput{subject("math", 1, 30), subject("science", 1, 30), subject("art", 1, 20)}
	lattice := newLattice()
	require.NoError(t, placeRoundRobin(lattice, plansFor(subjects...)))

	last := map[string]int{}
	for _, a := range lattice.Flatten() {
		if prev, ok := last[a.SubSubjectID]; ok {
			assert.Greater(t, a.PaceCode, prev, "%s pace %d scheduled after a later pace", a.SubSubjectID, a.PaceCode)
		}
		last[a.SubSubjectID] = a.PaceCode
	}
}

func TestRoundRobinAdvancesSharedWeekIndex(t *testing.T) {
	lattice := newLattice()
	state := newRoundRobinState(plansFor(subject("math", 1, 2), subject("art", 1, 2, "math")))

	assert.Equal(t, 2, state.round(lattice))
	assert.Equal(t, 1, state.weekIndex, "index stays on the week where the last pace landed")
	assert.Equal(t, 2, state.remaining)

	week0 := lattice.Week(0)
	week1 := lattice.Week(1)
	assert.Equal(t, 1, week0.SubjectCount())
	assert.Equal(t, 1, week1.SubjectCount())
}

func TestRoundRobinStallReturnsError(t *testing.T) {
	lattice := newLattice()
	plans := plansFor(subject("math", 1, 24, "science"), subject("science", 1, 24), subject("english", 1, 24))

	err := placeRoundRobin(lattice, plans)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrScheduleStalled))
}

func TestGenerateFitsFourEqualSubjects(t *testing.T) {
	for _, length := range []int{19, 20, 27} {
		subjects := []SubjectInput{
			subject("math", 1, length),
			subject("science", 1, length),
			subject("english", 1, length),
			subject("history", 1, length),
		}
		result, err := Generate(Input{Subjects: subjects})
		require.NoError(t, err, "4 subjects of %d paces", length)
		assert.Equal(t, StrategyFrequencyRoundRobin, result.Strategy)
		requireScheduleInvariants(t, subjects, result.Assignments)
	}
}

func TestGenerateFitsFiveSubjectsAtCapacity(t *testing.T) {
	subjects := []SubjectInput{
		subject("math", 1, 36),
		subject("science", 1, 21),
		subject("english", 1, 21),
		subject("history", 1, 21),
		subject("art", 1, 9),
	}
	result, err := Generate(Input{Subjects: subjects})
	require.NoError(t, err)
	require.Len(t, result.Assignments, 108)
	requireScheduleInvariants(t, subjects, result.Assignments)
}

func TestPlaceBalancedKeepsLoadsLevel(t *testing.T) {
	lattice := newLattice()
	plans := plansFor(subject("math", 1, 20), subject("science", 1, 20), subject("english", 1, 20), subject("history", 1, 20))

	require.NoError(t, placeBalanced(lattice, plans))

	for i := 0; i < WeekCount; i++ {
		count := lattice.Week(i).SubjectCount()
		assert.GreaterOrEqual(t, count, 2, "week %d", i)
		assert.LessOrEqual(t, count, 3, "week %d", i)
	}

	last := map[string]int{}
	for _, a := range lattice.Flatten() {
		if prev, ok := last[a.SubSubjectID]; ok {
			assert.Greater(t, a.PaceCode, prev, "%s pace %d scheduled after a later pace", a.SubSubjectID, a.PaceCode)
		}
		last[a.SubSubjectID] = a.PaceCode
	}
}

func TestPlaceBalancedSpreadsShortSubject(t *testing.T) {
	lattice := newLattice()
	require.NoError(t, placeBalanced(lattice, plansFor(subject("art", 1, 6))))

	var weeks []int
	for i := 0; i < WeekCount; i++ {
		if lattice.Week(i).SubjectCount() > 0 {
			weeks = append(weeks, i)
		}
	}
	assert.Equal(t, []int{0, 6, 12, 18, 24, 30}, weeks)
}

func TestPlaceBalancedReportsExcludedSubject(t *testing.T) {
	lattice := newLattice()
	err := placeBalanced(lattice, plansFor(subject("math", 1, 24, "science"), subject("science", 1, 24)))
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrScheduleStalled))
	assert.Contains(t, err.Error(), "science")
}
