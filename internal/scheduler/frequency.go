package scheduler

import (
	"fmt"
	"sort"
	"strings"

	appErrors "github.com/noah-isme/pace-projection-api/pkg/errors"
)

// roundRobinState carries the cursors of the frequency strategy.
type roundRobinState struct {
	plans     []*SubjectPlan
	cursors   []int
	weekIndex int
	remaining int
}

func newRoundRobinState(plans []*SubjectPlan) *roundRobinState {
	remaining := 0
	for _, plan := range plans {
		remaining += len(plan.Paces)
	}
	return &roundRobinState{
		plans:     plans,
		cursors:   make([]int, len(plans)),
		remaining: remaining,
	}
}

// round gives every unfinished subject one chance to place its next pace and
// returns how many paces were placed.
func (s *roundRobinState) round(lattice *Lattice) int {
	placed := 0
	for i, plan := range s.plans {
		if s.cursors[i] >= len(plan.Paces) {
			continue
		}
		for attempt := 0; attempt < WeekCount; attempt++ {
			index := (s.weekIndex + attempt) % WeekCount
			week := lattice.Week(index)
			if !canPlace(plan, week) {
				continue
			}
			place(plan, week, plan.Paces[s.cursors[i]])
			s.cursors[i]++
			s.remaining--
			s.weekIndex = index
			placed++
			break
		}
	}
	return placed
}

func (s *roundRobinState) pending() []string {
	var ids []string
	for i, plan := range s.plans {
		if s.cursors[i] < len(plan.Paces) {
			ids = append(ids, plan.ID)
		}
	}
	return ids
}

// placeRoundRobin spreads each subject's paces across the calendar, ignoring
// difficulty. When a round places nothing the calendar is cleared and filled again
// by placeBalanced, which only fails when no legal week is left.
func placeRoundRobin(lattice *Lattice, plans []*SubjectPlan) error {
	state := newRoundRobinState(plans)
	for state.remaining > 0 {
		if state.round(lattice) == 0 {
			lattice.reset()
			return placeBalanced(lattice, plans)
		}
		state.weekIndex = (state.weekIndex + 1) % WeekCount
	}
	return nil
}

// placeBalanced gives subjects their weeks largest first, always taking the least
// loaded legal weeks and spreading the picks evenly across the calendar. Week loads
// never differ by more than one, so input within capacity and without exclusions
// always fits.
func placeBalanced(lattice *Lattice, plans []*SubjectPlan) error {
	order := make([]*SubjectPlan, len(plans))
	copy(order, plans)
	sort.SliceStable(order, func(i, j int) bool {
		return len(order[i].Paces) > len(order[j].Paces)
	})

	var stalled []string
	for _, plan := range order {
		weeks := pickWeeks(lattice, plan)
		if len(weeks) < len(plan.Paces) {
			stalled = append(stalled, plan.ID)
			continue
		}
		for i, index := range weeks {
			place(plan, lattice.Week(index), plan.Paces[i])
		}
	}
	if len(stalled) > 0 {
		return stalledError(stalled...)
	}
	return nil
}

// pickWeeks returns ascending week indexes for every pace of plan, or fewer when
// the legal weeks run out.
func pickWeeks(lattice *Lattice, plan *SubjectPlan) []int {
	byLoad := make([][]int, MaxSubjectsPerWeek)
	for i := 0; i < WeekCount; i++ {
		week := lattice.Week(i)
		if canPlace(plan, week) {
			byLoad[week.SubjectCount()] = append(byLoad[week.SubjectCount()], i)
		}
	}

	need := len(plan.Paces)
	picked := make([]int, 0, need)
	for _, candidates := range byLoad {
		if need == 0 {
			break
		}
		if len(candidates) <= need {
			picked = append(picked, candidates...)
			need -= len(candidates)
			continue
		}
		for i := 0; i < need; i++ {
			picked = append(picked, candidates[i*len(candidates)/need])
		}
		need = 0
	}
	sort.Ints(picked)
	return picked
}

func stalledError(subjectIDs ...string) error {
	return appErrors.Clone(appErrors.ErrScheduleStalled,
		fmt.Sprintf("no legal week left for subjects: %s", strings.Join(subjectIDs, ", ")))
}
