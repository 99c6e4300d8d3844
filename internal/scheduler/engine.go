// Package scheduler assigns curriculum paces to the weeks of a fixed 36-week
// academic calendar. It is pure: no I/O, no shared state between calls.
package scheduler

import (
	"fmt"

	appErrors "github.com/noah-isme/pace-projection-api/pkg/errors"
)

// Strategy names the placement algorithm used for a generation.
type Strategy string

const (
	StrategyUniformDifficulty   Strategy = "uniform_difficulty"
	StrategyFrequencyRoundRobin Strategy = "frequency_round_robin"
)

// Input is a validated projection request.
type Input struct {
	Subjects []SubjectInput
}

// Result is the outcome of a successful generation.
type Result struct {
	Strategy    Strategy
	TotalPaces  int
	Assignments []PaceAssignment
}

// Generate normalizes the subjects, picks a strategy from the input shape and
// fills a fresh calendar. Any failure rejects the request without partial output.
func Generate(input Input) (*Result, error) {
	plans := make([]*SubjectPlan, 0, len(input.Subjects))
	seen := make(map[string]struct{}, len(input.Subjects))
	total := 0
	for _, subject := range input.Subjects {
		if _, dup := seen[subject.SubSubjectID]; dup {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("subSubjectId %s appears more than once", subject.SubSubjectID))
		}
		seen[subject.SubSubjectID] = struct{}{}
		if err := checkSpan(subject); err != nil {
			return nil, err
		}
		plan := NormalizeSubject(subject)
		plans = append(plans, &plan)
		total += len(plan.Paces)
	}

	if total < MinTotalPaces {
		return nil, appErrors.Clone(appErrors.ErrInsufficientPaces,
			fmt.Sprintf("projection must contain at least %d total paces, got %d", MinTotalPaces, total))
	}
	if err := checkCapacity(plans, total); err != nil {
		return nil, err
	}

	strategy := selectStrategy(plans, total)
	lattice := newLattice()

	var err error
	switch strategy {
	case StrategyUniformDifficulty:
		err = placeUniform(lattice, plans)
	default:
		err = placeRoundRobin(lattice, plans)
	}
	if err != nil {
		return nil, err
	}

	return &Result{
		Strategy:    strategy,
		TotalPaces:  total,
		Assignments: lattice.Flatten(),
	}, nil
}

// selectStrategy uses difficulty pairing only for the balanced shape: exactly the
// minimum number of paces split evenly across an even number of subjects.
func selectStrategy(plans []*SubjectPlan, total int) Strategy {
	if total != MinTotalPaces || len(plans)%2 != 0 {
		return StrategyFrequencyRoundRobin
	}
	for _, plan := range plans[1:] {
		if len(plan.Paces) != len(plans[0].Paces) {
			return StrategyFrequencyRoundRobin
		}
	}
	return StrategyUniformDifficulty
}

// checkCapacity rejects input that cannot fit without a subject repeating inside a
// week or a week holding more than three subjects.
func checkCapacity(plans []*SubjectPlan, total int) error {
	for _, plan := range plans {
		if len(plan.Paces) > WeekCount {
			return appErrors.Clone(appErrors.ErrCapacityExceeded,
				fmt.Sprintf("subject %s has %d paces but the calendar has %d weeks", plan.ID, len(plan.Paces), WeekCount))
		}
	}
	if limit := WeekCount * MaxSubjectsPerWeek; total > limit {
		return appErrors.Clone(appErrors.ErrCapacityExceeded,
			fmt.Sprintf("projection has %d paces but the calendar holds at most %d", total, limit))
	}
	return nil
}

// checkSpan rejects a range that would leave more than a year of paces even after
// every skip, before it is expanded.
func checkSpan(in SubjectInput) error {
	if in.EndPace >= in.StartPace && in.distance() >= uint64(WeekCount+len(in.SkipPaces)) {
		return appErrors.Clone(appErrors.ErrCapacityExceeded,
			fmt.Sprintf("subject %s spans paces %d..%d but the calendar has %d weeks", in.SubSubjectID, in.StartPace, in.EndPace, WeekCount))
	}
	return nil
}
