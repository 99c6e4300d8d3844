package dto

import "github.com/noah-isme/pace-projection-api/internal/models"

// SubjectRequest describes one sub-subject and the pace range the student covers.
type SubjectRequest struct {
	SubSubjectID string   `json:"subSubjectId" validate:"required"`
	StartPace    int      `json:"startPace" validate:"required,min=1"`
	EndPace      int      `json:"endPace" validate:"required,min=1,gtefield=StartPace"`
	SkipPaces    []int    `json:"skipPaces" validate:"omitempty,dive,min=1"`
	NotPairWith  []string `json:"notPairWith" validate:"omitempty,dive,required"`
	Difficulty   *int     `json:"difficulty,omitempty" validate:"omitempty,min=1,max=5"`
}

// ProjectionRequest instructs the generator to build a projection for a student's year.
type ProjectionRequest struct {
	StudentID    string           `json:"studentId" validate:"required"`
	SchoolYearID string           `json:"schoolYearId" validate:"required"`
	Subjects     []SubjectRequest `json:"subjects" validate:"required,min=1,max=6,dive"`
}

// PaceAssignmentResponse is one placed pace.
type PaceAssignmentResponse struct {
	SubSubjectID string `json:"subSubjectId"`
	PaceCode     int    `json:"paceCode"`
	Quarter      int    `json:"quarter"`
	Week         int    `json:"week"`
}

// WeekResponse lists the paces placed in one quarter week.
type WeekResponse struct {
	Quarter int                      `json:"quarter"`
	Week    int                      `json:"week"`
	Paces   []PaceAssignmentResponse `json:"paces"`
}

// ProjectionPreviewResponse returns a generated, unsaved projection.
type ProjectionPreviewResponse struct {
	ProposalID  string                   `json:"proposalId"`
	Fingerprint string                   `json:"fingerprint"`
	Strategy    string                   `json:"strategy"`
	TotalPaces  int                      `json:"totalPaces"`
	Assignments []PaceAssignmentResponse `json:"assignments"`
	Weeks       []WeekResponse           `json:"weeks"`
}

// SaveProjectionRequest persists a previewed proposal.
type SaveProjectionRequest struct {
	ProposalID string `json:"proposalId" validate:"required"`
	Publish    bool   `json:"publish"`
}

// SaveProjectionResponse identifies the stored projection version.
type SaveProjectionResponse struct {
	ProjectionID string                  `json:"projectionId"`
	Version      int                     `json:"version"`
	Status       models.ProjectionStatus `json:"status"`
	Strategy     string                  `json:"strategy"`
	TotalPaces   int                     `json:"totalPaces"`
}

// ProjectionQuery filters projection summaries by student and school year.
type ProjectionQuery struct {
	StudentID    string `form:"studentId" json:"studentId" validate:"required"`
	SchoolYearID string `form:"schoolYearId" json:"schoolYearId" validate:"required"`
}

// ProjectionPacesResponse lists the stored paces of a projection grouped by week.
type ProjectionPacesResponse struct {
	ProjectionID string                  `json:"projectionId"`
	Status       models.ProjectionStatus `json:"status"`
	Strategy     string                  `json:"strategy"`
	TotalPaces   int                     `json:"totalPaces"`
	Weeks        []WeekResponse          `json:"weeks"`
}

// GenerateProjectionRequest previews and saves in one call.
type GenerateProjectionRequest struct {
	ProjectionRequest
	Publish bool `json:"publish"`
}
