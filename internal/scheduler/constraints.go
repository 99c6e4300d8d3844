package scheduler

// canPlace checks capacity, duplicate and exclusion constraints for a prospective
// placement. Exclusions are honoured from both subjects' perspectives.
func canPlace(plan *SubjectPlan, week *WeekSlot) bool {
	if len(week.assigned) >= MaxSubjectsPerWeek {
		return false
	}
	if _, exists := week.assigned[plan.ID]; exists {
		return false
	}
	for id, other := range week.assigned {
		if plan.Excludes(id) || other.Excludes(plan.ID) {
			return false
		}
	}
	return true
}

// place is the only mutation point of the lattice.
func place(plan *SubjectPlan, week *WeekSlot, paceCode int) {
	week.assigned[plan.ID] = plan
	week.placements = append(week.placements, PaceAssignment{
		SubSubjectID: plan.ID,
		PaceCode:     paceCode,
		Quarter:      week.Quarter(),
		Week:         week.WeekInQuarter(),
	})
}
