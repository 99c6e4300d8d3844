package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/pace-projection-api/internal/models"
)

// StudentRepository reads students.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByID loads a student. Missing rows return sql.ErrNoRows.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	const query = `SELECT id, full_name, active, created_at, updated_at FROM students WHERE id = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// SchoolYearRepository reads school years.
type SchoolYearRepository struct {
	db *sqlx.DB
}

// NewSchoolYearRepository constructs repository.
func NewSchoolYearRepository(db *sqlx.DB) *SchoolYearRepository {
	return &SchoolYearRepository{db: db}
}

// FindByID loads a school year. Missing rows return sql.ErrNoRows.
func (r *SchoolYearRepository) FindByID(ctx context.Context, id string) (*models.SchoolYear, error) {
	const query = `SELECT id, name, start_date, end_date, is_active, created_at, updated_at FROM school_years WHERE id = $1`
	var year models.SchoolYear
	if err := r.db.GetContext(ctx, &year, query, id); err != nil {
		return nil, err
	}
	return &year, nil
}

// SubSubjectRepository reads the curriculum catalog.
type SubSubjectRepository struct {
	db *sqlx.DB
}

// NewSubSubjectRepository constructs repository.
func NewSubSubjectRepository(db *sqlx.DB) *SubSubjectRepository {
	return &SubSubjectRepository{db: db}
}

// FindByIDs returns the sub-subjects that exist among ids. Unknown ids are simply
// absent from the result.
func (r *SubSubjectRepository) FindByIDs(ctx context.Context, ids []string) ([]models.SubSubject, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	const query = `SELECT id, name, subject_code, first_pace, last_pace, created_at FROM sub_subjects WHERE id = ANY($1) ORDER BY id`
	var subs []models.SubSubject
	if err := r.db.SelectContext(ctx, &subs, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("find sub subjects: %w", err)
	}
	return subs, nil
}
