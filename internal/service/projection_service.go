package service

import (
	"context"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"

	"github.com/noah-isme/pace-projection-api/internal/dto"
	"github.com/noah-isme/pace-projection-api/internal/models"
	"github.com/noah-isme/pace-projection-api/internal/scheduler"
	appErrors "github.com/noah-isme/pace-projection-api/pkg/errors"
)

type projectionRepository interface {
	CreateVersioned(ctx context.Context, exec sqlx.ExtContext, projection *models.Projection) error
	ListByStudentYear(ctx context.Context, studentID, schoolYearID string) ([]models.Projection, error)
	FindByID(ctx context.Context, id string) (*models.Projection, error)
	Delete(ctx context.Context, id string) error
	UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.ProjectionStatus) error
	ArchivePublished(ctx context.Context, exec sqlx.ExtContext, studentID, schoolYearID, keepID string) error
}

type projectionPaceRepository interface {
	InsertBatch(ctx context.Context, exec sqlx.ExtContext, paces []models.ProjectionPace) error
	ListByProjection(ctx context.Context, projectionID string) ([]models.ProjectionPace, error)
}

type projectionStudentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type projectionSchoolYearReader interface {
	FindByID(ctx context.Context, id string) (*models.SchoolYear, error)
}

type subSubjectCatalog interface {
	FindByIDs(ctx context.Context, ids []string) ([]models.SubSubject, error)
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// ProjectionService validates projection requests, runs the placement engine and
// persists the resulting versions.
type ProjectionService struct {
	students    projectionStudentReader
	years       projectionSchoolYearReader
	catalog     subSubjectCatalog
	projections projectionRepository
	paces       projectionPaceRepository
	tx          txProvider
	cache       *CacheService
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	store       *proposalStore
	cacheTTL    time.Duration
}

// ProjectionServiceConfig governs proposal retention and cache lifetimes.
type ProjectionServiceConfig struct {
	ProposalTTL time.Duration
	CacheTTL    time.Duration
}

// NewProjectionService wires projection dependencies.
func NewProjectionService(
	students projectionStudentReader,
	years projectionSchoolYearReader,
	catalog subSubjectCatalog,
	projections projectionRepository,
	paces projectionPaceRepository,
	tx txProvider,
	cache *CacheService,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg ProjectionServiceConfig,
) *ProjectionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ProposalTTL <= 0 {
		cfg.ProposalTTL = 30 * time.Minute
	}
	return &ProjectionService{
		students:    students,
		years:       years,
		catalog:     catalog,
		projections: projections,
		paces:       paces,
		tx:          tx,
		cache:       cache,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		store:       newProposalStore(cfg.ProposalTTL),
		cacheTTL:    cfg.CacheTTL,
	}
}

// Preview generates a projection without persisting it. Identical requests within
// the proposal TTL return the proposal produced the first time.
func (s *ProjectionService) Preview(ctx context.Context, req dto.ProjectionRequest) (*dto.ProjectionPreviewResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid projection payload")
	}
	if err := s.ensureStudentAndYear(ctx, req.StudentID, req.SchoolYearID); err != nil {
		return nil, err
	}
	if err := s.ensureSubSubjects(ctx, req.Subjects); err != nil {
		return nil, err
	}

	fingerprint, err := requestFingerprint(req)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fingerprint projection request")
	}
	if existing, ok := s.store.FindByFingerprint(fingerprint); ok {
		s.logger.Debug("projection proposal reused", zap.String("proposal_id", existing.ProposalID))
		return existing.response(), nil
	}

	start := time.Now()
	result, err := scheduler.Generate(toSchedulerInput(req.Subjects))
	elapsed := time.Since(start)
	if err != nil {
		appErr := appErrors.FromError(err)
		s.metrics.ObserveGeneration("", appErr.Code, 0, elapsed)
		s.logger.Sugar().Infow("projection generation rejected",
			"student_id", req.StudentID,
			"school_year_id", req.SchoolYearID,
			"code", appErr.Code,
			"reason", appErr.Message,
		)
		return nil, appErr
	}
	s.metrics.ObserveGeneration(string(result.Strategy), "", result.TotalPaces, elapsed)

	proposal := projectionProposal{
		ProposalID:   uuid.NewString(),
		Fingerprint:  fingerprint,
		StudentID:    req.StudentID,
		SchoolYearID: req.SchoolYearID,
		Strategy:     result.Strategy,
		TotalPaces:   result.TotalPaces,
		Subjects:     req.Subjects,
		Assignments:  result.Assignments,
		RequestedAt:  time.Now().UTC(),
	}
	s.store.Save(proposal)

	s.logger.Sugar().Infow("projection generated",
		"proposal_id", proposal.ProposalID,
		"strategy", result.Strategy,
		"total_paces", result.TotalPaces,
		"duration_ms", elapsed.Milliseconds(),
	)
	return proposal.response(), nil
}

// Save persists a previewed proposal as a new projection version.
func (s *ProjectionService) Save(ctx context.Context, req dto.SaveProjectionRequest) (*dto.SaveProjectionResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid save projection payload")
	}
	proposal, ok := s.store.Get(req.ProposalID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "proposal not found or expired")
	}
	if s.tx == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	metaBytes, marshalErr := json.Marshal(map[string]any{
		"fingerprint": proposal.Fingerprint,
		"generatedAt": proposal.RequestedAt,
		"subjects":    proposal.Subjects,
	})
	if marshalErr != nil {
		err = appErrors.Wrap(marshalErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode projection metadata")
		return nil, err
	}

	record := &models.Projection{
		StudentID:    proposal.StudentID,
		SchoolYearID: proposal.SchoolYearID,
		Status:       models.ProjectionStatusDraft,
		Strategy:     string(proposal.Strategy),
		TotalPaces:   proposal.TotalPaces,
		Meta:         types.JSONText(metaBytes),
	}
	if err = s.projections.CreateVersioned(ctx, tx, record); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create projection")
		return nil, err
	}

	rows := make([]models.ProjectionPace, 0, len(proposal.Assignments))
	for _, assignment := range proposal.Assignments {
		rows = append(rows, models.ProjectionPace{
			ProjectionID: record.ID,
			SubSubjectID: assignment.SubSubjectID,
			PaceCode:     assignment.PaceCode,
			Quarter:      assignment.Quarter,
			Week:         assignment.Week,
		})
	}
	if err = s.paces.InsertBatch(ctx, tx, rows); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist projection paces")
		return nil, err
	}

	if req.Publish {
		if err = s.publishWithin(ctx, tx, record); err != nil {
			return nil, err
		}
	}

	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit projection transaction")
		return nil, err
	}

	s.store.Delete(req.ProposalID)
	s.invalidateStudentYear(ctx, record.StudentID, record.SchoolYearID)

	return &dto.SaveProjectionResponse{
		ProjectionID: record.ID,
		Version:      record.Version,
		Status:       record.Status,
		Strategy:     record.Strategy,
		TotalPaces:   record.TotalPaces,
	}, nil
}

// Generate previews and saves in one call. Regeneration always starts from a
// clean slate and stores a new version.
func (s *ProjectionService) Generate(ctx context.Context, req dto.GenerateProjectionRequest) (*dto.SaveProjectionResponse, error) {
	preview, err := s.Preview(ctx, req.ProjectionRequest)
	if err != nil {
		return nil, err
	}
	return s.Save(ctx, dto.SaveProjectionRequest{ProposalID: preview.ProposalID, Publish: req.Publish})
}

// List returns the stored versions for a student and school year.
func (s *ProjectionService) List(ctx context.Context, query dto.ProjectionQuery) (*models.ProjectionSummary, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "studentId and schoolYearId are required")
	}

	cacheKey := studentYearListKey(query.StudentID, query.SchoolYearID)
	var cached models.ProjectionSummary
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return &cached, nil
	}

	records, err := s.projections.ListByStudentYear(ctx, query.StudentID, query.SchoolYearID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list projections")
	}

	summary := &models.ProjectionSummary{
		StudentID:    query.StudentID,
		SchoolYearID: query.SchoolYearID,
		Versions:     make([]models.ProjectionMeta, 0, len(records)),
	}
	for _, record := range records {
		summary.Versions = append(summary.Versions, models.ProjectionMeta{
			ID:         record.ID,
			Version:    record.Version,
			Status:     record.Status,
			Strategy:   record.Strategy,
			TotalPaces: record.TotalPaces,
			CreatedAt:  record.CreatedAt,
		})
		if record.Status == models.ProjectionStatusPublished && summary.ActiveID == nil {
			id := record.ID
			summary.ActiveID = &id
		}
		if record.UpdatedAt.After(summary.UpdatedAt) {
			summary.UpdatedAt = record.UpdatedAt
		}
	}

	_ = s.cache.Set(ctx, cacheKey, summary, s.cacheTTL)
	return summary, nil
}

// GetPaces returns the stored paces of a projection grouped by week.
func (s *ProjectionService) GetPaces(ctx context.Context, projectionID string) (*dto.ProjectionPacesResponse, error) {
	if projectionID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "projection id is required")
	}

	cacheKey := projectionPacesKey(projectionID)
	var cached dto.ProjectionPacesResponse
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return &cached, nil
	}

	record, err := s.loadProjection(ctx, projectionID)
	if err != nil {
		return nil, err
	}
	rows, err := s.paces.ListByProjection(ctx, projectionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list projection paces")
	}

	assignments := make([]dto.PaceAssignmentResponse, 0, len(rows))
	for _, row := range rows {
		assignments = append(assignments, dto.PaceAssignmentResponse{
			SubSubjectID: row.SubSubjectID,
			PaceCode:     row.PaceCode,
			Quarter:      row.Quarter,
			Week:         row.Week,
		})
	}
	resp := &dto.ProjectionPacesResponse{
		ProjectionID: record.ID,
		Status:       record.Status,
		Strategy:     record.Strategy,
		TotalPaces:   record.TotalPaces,
		Weeks:        groupByWeek(assignments),
	}

	_ = s.cache.Set(ctx, cacheKey, resp, s.cacheTTL)
	return resp, nil
}

// Publish marks a projection as the active version and archives any other
// published version of the same student and school year.
func (s *ProjectionService) Publish(ctx context.Context, projectionID string) (*models.Projection, error) {
	record, err := s.loadProjection(ctx, projectionID)
	if err != nil {
		return nil, err
	}
	if record.Status == models.ProjectionStatusPublished {
		return record, nil
	}
	if record.Status == models.ProjectionStatusArchived {
		return nil, appErrors.Clone(appErrors.ErrConflict, "archived projections cannot be published")
	}
	if s.tx == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.publishWithin(ctx, tx, record); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit publish transaction")
		return nil, err
	}

	s.invalidateStudentYear(ctx, record.StudentID, record.SchoolYearID)
	_ = s.cache.Evict(ctx, projectionPacesKey(record.ID))
	return record, nil
}

// Delete removes a draft projection version.
func (s *ProjectionService) Delete(ctx context.Context, projectionID string) error {
	record, err := s.loadProjection(ctx, projectionID)
	if err != nil {
		return err
	}
	if record.Status != models.ProjectionStatusDraft {
		return appErrors.Clone(appErrors.ErrConflict, "only draft projections can be deleted")
	}
	if err := s.projections.Delete(ctx, projectionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "projection not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete projection")
	}

	s.invalidateStudentYear(ctx, record.StudentID, record.SchoolYearID)
	_ = s.cache.Evict(ctx, projectionPacesKey(record.ID))
	return nil
}

func (s *ProjectionService) publishWithin(ctx context.Context, tx *sqlx.Tx, record *models.Projection) error {
	if err := s.projections.ArchivePublished(ctx, tx, record.StudentID, record.SchoolYearID, record.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to archive published projections")
	}
	if err := s.projections.UpdateStatus(ctx, tx, record.ID, models.ProjectionStatusPublished); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to publish projection")
	}
	record.Status = models.ProjectionStatusPublished
	return nil
}

func (s *ProjectionService) loadProjection(ctx context.Context, projectionID string) (*models.Projection, error) {
	record, err := s.projections.FindByID(ctx, projectionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "projection not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load projection")
	}
	return record, nil
}

// invalidateStudentYear drops list and pace entries for every version of the
// student's year. Cache failures never fail the write.
func (s *ProjectionService) invalidateStudentYear(ctx context.Context, studentID, schoolYearID string) {
	_ = s.cache.Invalidate(ctx, studentYearPattern(studentID, schoolYearID))
}

func (s *ProjectionService) ensureStudentAndYear(ctx context.Context, studentID, schoolYearID string) error {
	if s.students != nil {
		if _, err := s.students.FindByID(ctx, studentID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "student not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
		}
	}
	if s.years != nil {
		if _, err := s.years.FindByID(ctx, schoolYearID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "school year not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load school year")
		}
	}
	return nil
}

func (s *ProjectionService) ensureSubSubjects(ctx context.Context, subjects []dto.SubjectRequest) error {
	ids := make([]string, 0, len(subjects))
	seen := make(map[string]struct{}, len(subjects))
	for _, subject := range subjects {
		if _, dup := seen[subject.SubSubjectID]; dup {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("subSubjectId %s appears more than once", subject.SubSubjectID))
		}
		seen[subject.SubSubjectID] = struct{}{}
		ids = append(ids, subject.SubSubjectID)
	}
	if s.catalog == nil {
		return nil
	}

	found, err := s.catalog.FindByIDs(ctx, ids)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sub-subjects")
	}
	byID := make(map[string]models.SubSubject, len(found))
	for _, item := range found {
		byID[item.ID] = item
	}
	for _, subject := range subjects {
		entry, ok := byID[subject.SubSubjectID]
		if !ok {
			return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("sub-subject %s not found", subject.SubSubjectID))
		}
		if !entry.Covers(subject.StartPace, subject.EndPace) {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf(
				"pace range %d-%d is outside %s catalog range %d-%d",
				subject.StartPace, subject.EndPace, subject.SubSubjectID, entry.FirstPace, entry.LastPace))
		}
	}
	return nil
}

func toSchedulerInput(subjects []dto.SubjectRequest) scheduler.Input {
	input := scheduler.Input{Subjects: make([]scheduler.SubjectInput, 0, len(subjects))}
	for _, subject := range subjects {
		input.Subjects = append(input.Subjects, scheduler.SubjectInput{
			SubSubjectID: subject.SubSubjectID,
			StartPace:    subject.StartPace,
			EndPace:      subject.EndPace,
			SkipPaces:    subject.SkipPaces,
			NotPairWith:  subject.NotPairWith,
			Difficulty:   subject.Difficulty,
		})
	}
	return input
}

// requestFingerprint hashes the request body. Subject order is significant since
// it drives placement order.
func requestFingerprint(req dto.ProjectionRequest) (string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	sum := blake2b.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}

func groupByWeek(assignments []dto.PaceAssignmentResponse) []dto.WeekResponse {
	index := make(map[[2]int]int)
	weeks := make([]dto.WeekResponse, 0, scheduler.WeekCount)
	for _, assignment := range assignments {
		key := [2]int{assignment.Quarter, assignment.Week}
		pos, ok := index[key]
		if !ok {
			pos = len(weeks)
			index[key] = pos
			weeks = append(weeks, dto.WeekResponse{Quarter: assignment.Quarter, Week: assignment.Week})
		}
		weeks[pos].Paces = append(weeks[pos].Paces, assignment)
	}
	sort.SliceStable(weeks, func(i, j int) bool {
		if weeks[i].Quarter == weeks[j].Quarter {
			return weeks[i].Week < weeks[j].Week
		}
		return weeks[i].Quarter < weeks[j].Quarter
	})
	return weeks
}

type projectionProposal struct {
	ProposalID   string
	Fingerprint  string
	StudentID    string
	SchoolYearID string
	Strategy     scheduler.Strategy
	TotalPaces   int
	Subjects     []dto.SubjectRequest
	Assignments  []scheduler.PaceAssignment
	RequestedAt  time.Time
}

func (p projectionProposal) response() *dto.ProjectionPreviewResponse {
	assignments := make([]dto.PaceAssignmentResponse, 0, len(p.Assignments))
	for _, a := range p.Assignments {
		assignments = append(assignments, dto.PaceAssignmentResponse{
			SubSubjectID: a.SubSubjectID,
			PaceCode:     a.PaceCode,
			Quarter:      a.Quarter,
			Week:         a.Week,
		})
	}
	return &dto.ProjectionPreviewResponse{
		ProposalID:  p.ProposalID,
		Fingerprint: p.Fingerprint,
		Strategy:    string(p.Strategy),
		TotalPaces:  p.TotalPaces,
		Assignments: assignments,
		Weeks:       groupByWeek(assignments),
	}
}

type proposalStore struct {
	ttl          time.Duration
	mu           sync.RWMutex
	items        map[string]projectionProposal
	fingerprints map[string]string
}

func newProposalStore(ttl time.Duration) *proposalStore {
	return &proposalStore{
		ttl:          ttl,
		items:        make(map[string]projectionProposal),
		fingerprints: make(map[string]string),
	}
}

// Save stores the proposal and drops every expired one.
func (s *proposalStore) Save(proposal projectionProposal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, existing := range s.items {
		if time.Since(existing.RequestedAt) > s.ttl {
			if s.fingerprints[existing.Fingerprint] == id {
				delete(s.fingerprints, existing.Fingerprint)
			}
			delete(s.items, id)
		}
	}
	s.items[proposal.ProposalID] = proposal
	if proposal.Fingerprint != "" {
		s.fingerprints[proposal.Fingerprint] = proposal.ProposalID
	}
}

func (s *proposalStore) Get(id string) (projectionProposal, bool) {
	s.mu.RLock()
	proposal, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return projectionProposal{}, false
	}
	if time.Since(proposal.RequestedAt) > s.ttl {
		s.Delete(id)
		return projectionProposal{}, false
	}
	return proposal, true
}

func (s *proposalStore) FindByFingerprint(fingerprint string) (projectionProposal, bool) {
	s.mu.RLock()
	id, ok := s.fingerprints[fingerprint]
	s.mu.RUnlock()
	if !ok {
		return projectionProposal{}, false
	}
	return s.Get(id)
}

func (s *proposalStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if proposal, ok := s.items[id]; ok && s.fingerprints[proposal.Fingerprint] == id {
		delete(s.fingerprints, proposal.Fingerprint)
	}
	delete(s.items, id)
}
