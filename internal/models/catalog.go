package models

import "time"

// Student is the learner a projection belongs to.
type Student struct {
	ID        string    `db:"id" json:"id"`
	FullName  string    `db:"full_name" json:"full_name"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// SchoolYear is the academic year a projection covers.
type SchoolYear struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	StartDate time.Time `db:"start_date" json:"start_date"`
	EndDate   time.Time `db:"end_date" json:"end_date"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// SubSubject is a curriculum track with its published pace range.
type SubSubject struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	SubjectCode string    `db:"subject_code" json:"subject_code"`
	FirstPace   int       `db:"first_pace" json:"first_pace"`
	LastPace    int       `db:"last_pace" json:"last_pace"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Covers reports whether the pace range lies inside the catalog range.
func (s SubSubject) Covers(start, end int) bool {
	return start >= s.FirstPace && end <= s.LastPace
}
