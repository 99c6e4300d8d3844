package scheduler

// DefaultDifficulty applies when a subject does not declare one.
const DefaultDifficulty = 3

// SubjectInput is the raw descriptor for one subject of a projection request.
type SubjectInput struct {
	SubSubjectID string
	StartPace    int
	EndPace      int
	SkipPaces    []int
	NotPairWith  []string
	Difficulty   *int
}

// SubjectPlan is a normalized subject ready for placement.
type SubjectPlan struct {
	ID          string
	Difficulty  int
	NotPairWith map[string]struct{}
	// Paces is ascending and is the placement order.
	Paces []int
}

// Excludes reports whether the plan must never share a week with the given subject.
func (p *SubjectPlan) Excludes(subjectID string) bool {
	_, ok := p.NotPairWith[subjectID]
	return ok
}

// NormalizeSubject expands the pace range of a subject. A reversed range yields an
// empty pace list; the total pace check rejects it later.
func NormalizeSubject(in SubjectInput) SubjectPlan {
	skip := make(map[int]struct{}, len(in.SkipPaces))
	for _, code := range in.SkipPaces {
		skip[code] = struct{}{}
	}

	var paces []int
	if in.EndPace >= in.StartPace {
		paces = make([]int, 0, min(in.distance(), uint64(WeekCount+len(skip)))+1)
		for code := in.StartPace; ; code++ {
			if _, skipped := skip[code]; !skipped {
				paces = append(paces, code)
			}
			if code == in.EndPace {
				break
			}
		}
	}

	difficulty := DefaultDifficulty
	if in.Difficulty != nil {
		difficulty = *in.Difficulty
	}

	exclusions := make(map[string]struct{}, len(in.NotPairWith))
	for _, id := range in.NotPairWith {
		exclusions[id] = struct{}{}
	}

	return SubjectPlan{
		ID:          in.SubSubjectID,
		Difficulty:  difficulty,
		NotPairWith: exclusions,
		Paces:       paces,
	}
}

// distance is EndPace-StartPace without overflow, zero for a reversed range.
func (in SubjectInput) distance() uint64 {
	if in.EndPace < in.StartPace {
		return 0
	}
	return uint64(in.EndPace) - uint64(in.StartPace)
}
