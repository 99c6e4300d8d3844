package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pace-projection-api/internal/models"
	"github.com/noah-isme/pace-projection-api/internal/repository"
	appErrors "github.com/noah-isme/pace-projection-api/pkg/errors"
)

type cacheRepoStub struct {
	mu     sync.Mutex
	items  map[string][]byte
	ttls   map[string]time.Duration
	getErr error
}

func newCacheRepoStub() *cacheRepoStub {
	return &cacheRepoStub{items: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (s *cacheRepoStub) Get(ctx context.Context, key string, dest interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return s.getErr
	}
	payload, ok := s.items[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(payload, dest)
}

func (s *cacheRepoStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = payload
	s.ttls[key] = ttl
	return nil
}

func (s *cacheRepoStub) Delete(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.items, key)
		delete(s.ttls, key)
	}
	return nil
}

func (s *cacheRepoStub) DeleteByPattern(ctx context.Context, pattern string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.items {
		if ok, _ := path.Match(pattern, key); ok {
			delete(s.items, key)
			delete(s.ttls, key)
		}
	}
	return nil
}

type studentReaderStub struct {
	ids map[string]bool
	err error
}

func (s studentReaderStub) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s.err != nil {
		return nil, s.err
	}
	if !s.ids[id] {
		return nil, sql.ErrNoRows
	}
	return &models.Student{ID: id, FullName: "Student " + id, Active: true}, nil
}

type schoolYearReaderStub struct {
	ids map[string]bool
}

func (s schoolYearReaderStub) FindByID(ctx context.Context, id string) (*models.SchoolYear, error) {
	if !s.ids[id] {
		return nil, sql.ErrNoRows
	}
	return &models.SchoolYear{ID: id, Name: "2026-2027", IsActive: true}, nil
}

type subSubjectCatalogStub struct {
	items map[string]models.SubSubject
	calls int
}

func (s *subSubjectCatalogStub) FindByIDs(ctx context.Context, ids []string) ([]models.SubSubject, error) {
	s.calls++
	result := make([]models.SubSubject, 0, len(ids))
	for _, id := range ids {
		if item, ok := s.items[id]; ok {
			result = append(result, item)
		}
	}
	return result, nil
}

type projectionRepoStub struct {
	mu    sync.Mutex
	items []models.Projection
}

func (s *projectionRepoStub) CreateVersioned(ctx context.Context, exec sqlx.ExtContext, projection *models.Projection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	version := 1
	for _, item := range s.items {
		if item.StudentID == projection.StudentID && item.SchoolYearID == projection.SchoolYearID && item.Version >= version {
			version = item.Version + 1
		}
	}
	projection.ID = fmt.Sprintf("proj-%d", len(s.items)+1)
	projection.Version = version
	now := time.Now().UTC()
	projection.CreatedAt = now
	projection.UpdatedAt = now
	s.items = append(s.items, *projection)
	return nil
}

func (s *projectionRepoStub) ListByStudentYear(ctx context.Context, studentID, schoolYearID string) ([]models.Projection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []models.Projection
	for _, item := range s.items {
		if item.StudentID == studentID && item.SchoolYearID == schoolYearID {
			result = append(result, item)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Version > result[j].Version })
	return result, nil
}

func (s *projectionRepoStub) FindByID(ctx context.Context, id string) (*models.Projection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.items {
		if item.ID == id {
			found := item
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *projectionRepoStub) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for idx, item := range s.items {
		if item.ID == id {
			s.items = append(s.items[:idx], s.items[idx+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

func (s *projectionRepoStub) UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.ProjectionStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for idx := range s.items {
		if s.items[idx].ID == id {
			s.items[idx].Status = status
			return nil
		}
	}
	return sql.ErrNoRows
}

func (s *projectionRepoStub) ArchivePublished(ctx context.Context, exec sqlx.ExtContext, studentID, schoolYearID, keepID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for idx := range s.items {
		item := &s.items[idx]
		if item.StudentID == studentID && item.SchoolYearID == schoolYearID && item.ID != keepID && item.Status == models.ProjectionStatusPublished {
			item.Status = models.ProjectionStatusArchived
		}
	}
	return nil
}

func (s *projectionRepoStub) status(id string) models.ProjectionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.items {
		if item.ID == id {
			return item.Status
		}
	}
	return ""
}

type projectionPaceRepoStub struct {
	mu        sync.Mutex
	items     map[string][]models.ProjectionPace
	insertErr error
	listCalls int
}

func (s *projectionPaceRepoStub) InsertBatch(ctx context.Context, exec sqlx.ExtContext, paces []models.ProjectionPace) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.items == nil {
		s.items = make(map[string][]models.ProjectionPace)
	}
	for _, pace := range paces {
		s.items[pace.ProjectionID] = append(s.items[pace.ProjectionID], pace)
	}
	return nil
}

func (s *projectionPaceRepoStub) ListByProjection(ctx context.Context, projectionID string) ([]models.ProjectionPace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++
	return s.items[projectionID], nil
}

type exportJobRepoStub struct {
	mu    sync.Mutex
	items map[string]*models.ProjectionExportJob
	order []string
}

func newExportJobRepoStub() *exportJobRepoStub {
	return &exportJobRepoStub{items: map[string]*models.ProjectionExportJob{}}
}

func (s *exportJobRepoStub) Create(ctx context.Context, job *models.ProjectionExportJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job.ID == "" {
		job.ID = fmt.Sprintf("job-%d", len(s.items)+1)
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	clone := *job
	s.items[job.ID] = &clone
	s.order = append(s.order, job.ID)
	return nil
}

func (s *exportJobRepoStub) GetByID(ctx context.Context, id string) (*models.ProjectionExportJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *job
	return &clone, nil
}

func (s *exportJobRepoStub) Update(ctx context.Context, id string, params repository.UpdateExportJobParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.items[id]
	if !ok {
		return sql.ErrNoRows
	}
	if params.Status != nil {
		job.Status = *params.Status
	}
	if params.Progress != nil {
		job.Progress = *params.Progress
	}
	if params.ResultURL != nil {
		job.ResultURL = params.ResultURL
	}
	if params.ErrorMessage != nil {
		job.ErrorMessage = params.ErrorMessage
	}
	if params.FinishedAt != nil {
		job.FinishedAt = params.FinishedAt
	}
	return nil
}

func (s *exportJobRepoStub) ListQueued(ctx context.Context, limit int) ([]models.ProjectionExportJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []models.ProjectionExportJob
	for _, id := range s.order {
		job, ok := s.items[id]
		if ok && job.Status == models.ExportStatusQueued {
			result = append(result, *job)
		}
	}
	return result, nil
}

func (s *exportJobRepoStub) ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ProjectionExportJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []models.ProjectionExportJob
	for _, id := range s.order {
		job, ok := s.items[id]
		if ok && job.FinishedAt != nil && job.FinishedAt.Before(cutoff) {
			result = append(result, *job)
		}
	}
	return result, nil
}

func (s *exportJobRepoStub) get(id string) models.ProjectionExportJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.items[id]
}

type txProviderMock struct {
	db *sqlx.DB
}

func newTxProviderMock(t *testing.T) (txProvider, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &txProviderMock{db: sqlx.NewDb(db, "sqlmock")}, mock
}

func (t *txProviderMock) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return t.db.BeginTxx(ctx, opts)
}
