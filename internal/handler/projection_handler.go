package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/pace-projection-api/internal/dto"
	"github.com/noah-isme/pace-projection-api/internal/models"
	appErrors "github.com/noah-isme/pace-projection-api/pkg/errors"
	"github.com/noah-isme/pace-projection-api/pkg/response"
)

type projectionPreviewResponse struct {
	Mode     string                         `json:"mode"`
	Proposal *dto.ProjectionPreviewResponse `json:"proposal"`
}

type projectionPlanner interface {
	Preview(ctx context.Context, req dto.ProjectionRequest) (*dto.ProjectionPreviewResponse, error)
	Save(ctx context.Context, req dto.SaveProjectionRequest) (*dto.SaveProjectionResponse, error)
	Generate(ctx context.Context, req dto.GenerateProjectionRequest) (*dto.SaveProjectionResponse, error)
	List(ctx context.Context, query dto.ProjectionQuery) (*models.ProjectionSummary, error)
	GetPaces(ctx context.Context, projectionID string) (*dto.ProjectionPacesResponse, error)
	Publish(ctx context.Context, projectionID string) (*models.Projection, error)
	Delete(ctx context.Context, projectionID string) error
}

// ProjectionHandler exposes pace projection endpoints.
type ProjectionHandler struct {
	service projectionPlanner
}

// NewProjectionHandler constructs the handler.
func NewProjectionHandler(svc projectionPlanner) *ProjectionHandler {
	return &ProjectionHandler{service: svc}
}

// Preview godoc
// @Summary Generate a pace projection proposal without saving it
// @Tags Projections
// @Accept json
// @Produce json
// @Param payload body dto.ProjectionRequest true "Projection request"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /projections/preview [post]
func (h *ProjectionHandler) Preview(c *gin.Context) {
	var req dto.ProjectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid projection payload"))
		return
	}
	result, err := h.service.Preview(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, projectionPreviewResponse{Mode: "preview", Proposal: result})
}

// Save godoc
// @Summary Persist a previewed proposal as a new projection version
// @Tags Projections
// @Accept json
// @Produce json
// @Param payload body dto.SaveProjectionRequest true "Save payload"
// @Success 201 {object} response.Envelope
// @Router /projections/save [post]
func (h *ProjectionHandler) Save(c *gin.Context) {
	var req dto.SaveProjectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid save payload"))
		return
	}
	result, err := h.service.Save(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Generate godoc
// @Summary Generate and save a projection in one call
// @Tags Projections
// @Accept json
// @Produce json
// @Param payload body dto.GenerateProjectionRequest true "Generate payload"
// @Success 201 {object} response.Envelope
// @Router /projections/generate [post]
func (h *ProjectionHandler) Generate(c *gin.Context) {
	var req dto.GenerateProjectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generate payload"))
		return
	}
	result, err := h.service.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// List godoc
// @Summary List projection versions for a student's school year
// @Tags Projections
// @Produce json
// @Param studentId query string true "Student ID"
// @Param schoolYearId query string true "School year ID"
// @Success 200 {object} response.Envelope
// @Router /projections [get]
func (h *ProjectionHandler) List(c *gin.Context) {
	var query dto.ProjectionQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	result, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

// Paces godoc
// @Summary Get the stored paces of a projection grouped by week
// @Tags Projections
// @Produce json
// @Param id path string true "Projection ID"
// @Success 200 {object} response.Envelope
// @Router /projections/{id}/paces [get]
func (h *ProjectionHandler) Paces(c *gin.Context) {
	result, err := h.service.GetPaces(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

// Publish godoc
// @Summary Publish a projection and archive the previously published version
// @Tags Projections
// @Produce json
// @Param id path string true "Projection ID"
// @Success 200 {object} response.Envelope
// @Router /projections/{id}/publish [post]
func (h *ProjectionHandler) Publish(c *gin.Context) {
	result, err := h.service.Publish(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

// Delete godoc
// @Summary Delete a draft projection
// @Tags Projections
// @Param id path string true "Projection ID"
// @Success 204
// @Router /projections/{id} [delete]
func (h *ProjectionHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
