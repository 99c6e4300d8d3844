package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/noah-isme/pace-projection-api/internal/models"
)

const projectionColumns = `id, student_id, school_year_id, version, status, strategy, total_paces, meta, created_at, updated_at`

// ProjectionRepository persists versioned pace projections.
type ProjectionRepository struct {
	db *sqlx.DB
}

// NewProjectionRepository constructs repository.
func NewProjectionRepository(db *sqlx.DB) *ProjectionRepository {
	return &ProjectionRepository{db: db}
}

func (r *ProjectionRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// CreateVersioned inserts a projection assigning the next version for the
// student and school year.
func (r *ProjectionRepository) CreateVersioned(ctx context.Context, exec sqlx.ExtContext, projection *models.Projection) error {
	if projection == nil {
		return fmt.Errorf("projection payload is nil")
	}
	if projection.StudentID == "" || projection.SchoolYearID == "" {
		return fmt.Errorf("student_id and school_year_id are required")
	}
	if projection.ID == "" {
		projection.ID = uuid.NewString()
	}
	if projection.Status == "" {
		projection.Status = models.ProjectionStatusDraft
	}
	if len(projection.Meta) == 0 {
		projection.Meta = types.JSONText(`{}`)
	}
	now := time.Now().UTC()
	if projection.CreatedAt.IsZero() {
		projection.CreatedAt = now
	}
	projection.UpdatedAt = now

	target := r.exec(exec)

	const nextVersionQuery = `SELECT COALESCE(MAX(version), 0) + 1 FROM projections WHERE student_id = $1 AND school_year_id = $2`
	if err := sqlx.GetContext(ctx, target, &projection.Version, nextVersionQuery, projection.StudentID, projection.SchoolYearID); err != nil {
		return fmt.Errorf("compute next projection version: %w", err)
	}

	const insertQuery = `
INSERT INTO projections (id, student_id, school_year_id, version, status, strategy, total_paces, meta, created_at, updated_at)
VALUES (:id, :student_id, :school_year_id, :version, :status, :strategy, :total_paces, :meta, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, target, insertQuery, projection); err != nil {
		return fmt.Errorf("insert projection: %w", err)
	}
	return nil
}

// ListByStudentYear returns every version for the student and school year, newest first.
func (r *ProjectionRepository) ListByStudentYear(ctx context.Context, studentID, schoolYearID string) ([]models.Projection, error) {
	const query = `SELECT ` + projectionColumns + ` FROM projections WHERE student_id = $1 AND school_year_id = $2 ORDER BY version DESC`
	var projections []models.Projection
	if err := r.db.SelectContext(ctx, &projections, query, studentID, schoolYearID); err != nil {
		return nil, fmt.Errorf("list projections: %w", err)
	}
	return projections, nil
}

// FindByID loads a projection by its identifier.
func (r *ProjectionRepository) FindByID(ctx context.Context, id string) (*models.Projection, error) {
	const query = `SELECT ` + projectionColumns + ` FROM projections WHERE id = $1`
	var projection models.Projection
	if err := r.db.GetContext(ctx, &projection, query, id); err != nil {
		return nil, err
	}
	return &projection, nil
}

// Delete removes a stored projection version. Paces and exports cascade.
func (r *ProjectionRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM projections WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete projection: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("projection rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateStatus changes the lifecycle status of a projection.
func (r *ProjectionRepository) UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.ProjectionStatus) error {
	const query = `UPDATE projections SET status = $1, updated_at = $2 WHERE id = $3`
	result, err := r.exec(exec).ExecContext(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update projection status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("projection status rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ArchivePublished moves every other published version of the student's year to
// ARCHIVED so at most one version stays published.
func (r *ProjectionRepository) ArchivePublished(ctx context.Context, exec sqlx.ExtContext, studentID, schoolYearID, keepID string) error {
	const query = `UPDATE projections SET status = $1, updated_at = $2
WHERE student_id = $3 AND school_year_id = $4 AND status = $5 AND id <> $6`
	_, err := r.exec(exec).ExecContext(ctx, query,
		models.ProjectionStatusArchived, time.Now().UTC(), studentID, schoolYearID, models.ProjectionStatusPublished, keepID)
	if err != nil {
		return fmt.Errorf("archive published projections: %w", err)
	}
	return nil
}
