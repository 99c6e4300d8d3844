package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/pace-projection-api/internal/models"
)

// paceBatchSize keeps one insert statement well under the Postgres bind limit.
const paceBatchSize = 500

// ProjectionPaceRepository manages the placed paces of a projection.
type ProjectionPaceRepository struct {
	db *sqlx.DB
}

// NewProjectionPaceRepository builds repository.
func NewProjectionPaceRepository(db *sqlx.DB) *ProjectionPaceRepository {
	return &ProjectionPaceRepository{db: db}
}

func (r *ProjectionPaceRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// InsertBatch stores paces with multi-row inserts.
func (r *ProjectionPaceRepository) InsertBatch(ctx context.Context, exec sqlx.ExtContext, paces []models.ProjectionPace) error {
	if len(paces) == 0 {
		return nil
	}
	target := r.exec(exec)
	now := time.Now().UTC()

	for i := range paces {
		pace := &paces[i]
		if pace.ID == "" {
			pace.ID = uuid.NewString()
		}
		if pace.CreatedAt.IsZero() {
			pace.CreatedAt = now
		}
	}

	const query = `
INSERT INTO projection_paces (id, projection_id, sub_subject_id, pace_code, quarter, week, created_at)
VALUES (:id, :projection_id, :sub_subject_id, :pace_code, :quarter, :week, :created_at)`

	for start := 0; start < len(paces); start += paceBatchSize {
		end := start + paceBatchSize
		if end > len(paces) {
			end = len(paces)
		}
		if _, err := sqlx.NamedExecContext(ctx, target, query, paces[start:end]); err != nil {
			return fmt.Errorf("insert projection paces: %w", err)
		}
	}
	return nil
}

// ListByProjection returns paces ordered by quarter, week and insertion.
func (r *ProjectionPaceRepository) ListByProjection(ctx context.Context, projectionID string) ([]models.ProjectionPace, error) {
	const query = `SELECT id, projection_id, sub_subject_id, pace_code, quarter, week, created_at
FROM projection_paces WHERE projection_id = $1 ORDER BY quarter ASC, week ASC, sub_subject_id ASC, pace_code ASC`
	var paces []models.ProjectionPace
	if err := r.db.SelectContext(ctx, &paces, query, projectionID); err != nil {
		return nil, fmt.Errorf("list projection paces: %w", err)
	}
	return paces, nil
}
