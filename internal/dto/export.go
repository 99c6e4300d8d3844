package dto

import (
	"time"

	"github.com/noah-isme/pace-projection-api/internal/models"
)

// ExportRequest captures POST /projections/:id/exports payload.
type ExportRequest struct {
	Format models.ExportFormat `json:"format" validate:"required,oneof=csv pdf"`
}

// ExportJobResponse is returned after enqueueing an export.
type ExportJobResponse struct {
	ID       string              `json:"id"`
	Status   models.ExportStatus `json:"status"`
	Progress int                 `json:"progress"`
}

// ExportStatusResponse exposes job progress metadata.
type ExportStatusResponse struct {
	ID           string              `json:"id"`
	ProjectionID string              `json:"projectionId"`
	Format       models.ExportFormat `json:"format"`
	Status       models.ExportStatus `json:"status"`
	Progress     int                 `json:"progress"`
	ResultURL    *string             `json:"resultUrl,omitempty"`
	Error        *string             `json:"error,omitempty"`
	FinishedAt   *time.Time          `json:"finishedAt,omitempty"`
}
