package scheduler

// Academic calendar shape. The lattice never grows or shrinks.
const (
	QuarterCount       = 4
	WeeksPerQuarter    = 9
	WeekCount          = QuarterCount * WeeksPerQuarter
	MaxSubjectsPerWeek = 3
	MinTotalPaces      = 72
)

// PaceAssignment places one pace of a sub-subject into a calendar week.
type PaceAssignment struct {
	SubSubjectID string `json:"subSubjectId"`
	PaceCode     int    `json:"paceCode"`
	Quarter      int    `json:"quarter"`
	Week         int    `json:"week"`
}

// WeekSlot tracks what has been placed in one week of the calendar.
type WeekSlot struct {
	Index      int
	assigned   map[string]*SubjectPlan
	placements []PaceAssignment
}

// Quarter returns the 1-based quarter the week belongs to.
func (w *WeekSlot) Quarter() int {
	return w.Index/WeeksPerQuarter + 1
}

// WeekInQuarter returns the 1-based week number inside the quarter.
func (w *WeekSlot) WeekInQuarter() int {
	return w.Index%WeeksPerQuarter + 1
}

// SubjectCount returns the number of distinct subjects placed in the week.
func (w *WeekSlot) SubjectCount() int {
	return len(w.assigned)
}

// Lattice is the fixed 36-week calendar for a single generation.
type Lattice struct {
	weeks [WeekCount]WeekSlot
}

func newLattice() *Lattice {
	l := &Lattice{}
	for i := range l.weeks {
		l.weeks[i] = WeekSlot{
			Index:    i,
			assigned: make(map[string]*SubjectPlan, MaxSubjectsPerWeek),
		}
	}
	return l
}

// reset empties every week so a strategy can start over.
func (l *Lattice) reset() {
	for i := range l.weeks {
		l.weeks[i].placements = nil
		clear(l.weeks[i].assigned)
	}
}

// Week returns the slot at index modulo the calendar length.
func (l *Lattice) Week(index int) *WeekSlot {
	return &l.weeks[((index%WeekCount)+WeekCount)%WeekCount]
}

// Flatten returns every placement in week order, then placement order.
func (l *Lattice) Flatten() []PaceAssignment {
	total := 0
	for i := range l.weeks {
		total += len(l.weeks[i].placements)
	}
	out := make([]PaceAssignment, 0, total)
	for i := range l.weeks {
		out = append(out, l.weeks[i].placements...)
	}
	return out
}
