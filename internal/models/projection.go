package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// ProjectionStatus represents lifecycle phases for saved projections.
type ProjectionStatus string

const (
	ProjectionStatusDraft     ProjectionStatus = "DRAFT"
	ProjectionStatusPublished ProjectionStatus = "PUBLISHED"
	ProjectionStatusArchived  ProjectionStatus = "ARCHIVED"
)

// Projection is a versioned pace projection for a student in a school year.
type Projection struct {
	ID           string           `db:"id" json:"id"`
	StudentID    string           `db:"student_id" json:"student_id"`
	SchoolYearID string           `db:"school_year_id" json:"school_year_id"`
	Version      int              `db:"version" json:"version"`
	Status       ProjectionStatus `db:"status" json:"status"`
	Strategy     string           `db:"strategy" json:"strategy"`
	TotalPaces   int              `db:"total_paces" json:"total_paces"`
	Meta         types.JSONText   `db:"meta" json:"meta"`
	CreatedAt    time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time        `db:"updated_at" json:"updated_at"`
}

// ProjectionPace is one pace placed into a quarter week.
type ProjectionPace struct {
	ID           string    `db:"id" json:"id"`
	ProjectionID string    `db:"projection_id" json:"projection_id"`
	SubSubjectID string    `db:"sub_subject_id" json:"sub_subject_id"`
	PaceCode     int       `db:"pace_code" json:"pace_code"`
	Quarter      int       `db:"quarter" json:"quarter"`
	Week         int       `db:"week" json:"week"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// ProjectionSummary groups the versions saved for a student and school year.
type ProjectionSummary struct {
	StudentID    string           `json:"student_id"`
	SchoolYearID string           `json:"school_year_id"`
	ActiveID     *string          `json:"active_id,omitempty"`
	Versions     []ProjectionMeta `json:"versions"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// ProjectionMeta represents lightweight metadata for list views.
type ProjectionMeta struct {
	ID         string           `json:"id"`
	Version    int              `json:"version"`
	Status     ProjectionStatus `json:"status"`
	Strategy   string           `json:"strategy"`
	TotalPaces int              `json:"total_paces"`
	CreatedAt  time.Time        `json:"created_at"`
}
