package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/pace-projection-api/internal/dto"
	"github.com/noah-isme/pace-projection-api/internal/models"
	"github.com/noah-isme/pace-projection-api/internal/scheduler"
	appErrors "github.com/noah-isme/pace-projection-api/pkg/errors"
)

func TestProjectionServicePreviewUniform(t *testing.T) {
	fx := newProjectionFixture(t, nil)

	resp, err := fx.service.Preview(context.Background(), uniformRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, resp.ProposalID)
	assert.Len(t, resp.Fingerprint, 64)
	assert.Equal(t, string(scheduler.StrategyUniformDifficulty), resp.Strategy)
	assert.Equal(t, 72, resp.TotalPaces)
	assert.Len(t, resp.Assignments, 72)
	require.Len(t, resp.Weeks, scheduler.WeekCount)
	assert.Equal(t, 1, resp.Weeks[0].Quarter)
	assert.Equal(t, 1, resp.Weeks[0].Week)
	assert.Equal(t, 4, resp.Weeks[35].Quarter)
	assert.Equal(t, 9, resp.Weeks[35].Week)
	for _, week := range resp.Weeks {
		assert.Len(t, week.Paces, 2)
	}

	snapshot := fx.metrics.Snapshot()
	assert.Equal(t, uint64(1), snapshot.Generations)
	assert.Equal(t, int64(1), snapshot.GenerationsByStrategy[string(scheduler.StrategyUniformDifficulty)])
}

func TestProjectionServicePreviewReusesProposalForIdenticalRequest(t *testing.T) {
	fx := newProjectionFixture(t, nil)

	first, err := fx.service.Preview(context.Background(), uniformRequest())
	require.NoError(t, err)
	second, err := fx.service.Preview(context.Background(), uniformRequest())
	require.NoError(t, err)

	assert.Equal(t, first.ProposalID, second.ProposalID)
	assert.Equal(t, first.Fingerprint, second.Fingerprint)
	assert.Equal(t, uint64(1), fx.metrics.Snapshot().Generations)

	changed := uniformRequest()
	changed.Subjects[0].Difficulty = intPtr(1)
	third, err := fx.service.Preview(context.Background(), changed)
	require.NoError(t, err)
	assert.NotEqual(t, first.Fingerprint, third.Fingerprint)
}

func TestProjectionServicePreviewValidation(t *testing.T) {
	fx := newProjectionFixture(t, nil)

	cases := map[string]struct {
		mutate func(*dto.ProjectionRequest)
		code   string
	}{
		"missing student id": {
			mutate: func(r *dto.ProjectionRequest) { r.StudentID = "" },
			code:   appErrors.ErrValidation.Code,
		},
		"too many subjects": {
			mutate: func(r *dto.ProjectionRequest) {
				for i := 0; i < 5; i++ {
					r.Subjects = append(r.Subjects, r.Subjects[0])
				}
			},
			code: appErrors.ErrValidation.Code,
		},
		"end before start": {
			mutate: func(r *dto.ProjectionRequest) { r.Subjects[0].EndPace = r.Subjects[0].StartPace - 1 },
			code:   appErrors.ErrValidation.Code,
		},
		"difficulty out of range": {
			mutate: func(r *dto.ProjectionRequest) { r.Subjects[0].Difficulty = intPtr(9) },
			code:   appErrors.ErrValidation.Code,
		},
		"unknown student": {
			mutate: func(r *dto.ProjectionRequest) { r.StudentID = "ghost" },
			code:   appErrors.ErrNotFound.Code,
		},
		"unknown school year": {
			mutate: func(r *dto.ProjectionRequest) { r.SchoolYearID = "1999" },
			code:   appErrors.ErrNotFound.Code,
		},
		"unknown sub-subject": {
			mutate: func(r *dto.ProjectionRequest) { r.Subjects[0].SubSubjectID = "latin" },
			code:   appErrors.ErrNotFound.Code,
		},
		"duplicate sub-subject": {
			mutate: func(r *dto.ProjectionRequest) { r.Subjects[1].SubSubjectID = r.Subjects[0].SubSubjectID },
			code:   appErrors.ErrValidation.Code,
		},
		"range outside catalog": {
			mutate: func(r *dto.ProjectionRequest) { r.Subjects[0].EndPace = 1200 },
			code:   appErrors.ErrValidation.Code,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			req := uniformRequest()
			tc.mutate(&req)
			_, err := fx.service.Preview(context.Background(), req)
			require.Error(t, err)
			assert.Equal(t, tc.code, appErrors.FromError(err).Code)
		})
	}
	assert.Zero(t, fx.metrics.Snapshot().Generations, "engine never runs on invalid input")
}

func TestProjectionServicePreviewEngineErrors(t *testing.T) {
	fx := newProjectionFixture(t, nil)

	short := uniformRequest()
	short.Subjects = short.Subjects[:1]
	short.Subjects[0].EndPace = short.Subjects[0].StartPace + 9
	_, err := fx.service.Preview(context.Background(), short)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInsufficientPaces.Code, appErr.Code)
	assert.Equal(t, appErrors.ErrInsufficientPaces.Status, appErr.Status)

	excluded := uniformRequest()
	excluded.Subjects[0].NotPairWith = []string{"reading"}
	_, err = fx.service.Preview(context.Background(), excluded)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnsatisfiablePairing.Code, appErrors.FromError(err).Code)

	snapshot := fx.metrics.Snapshot()
	assert.Equal(t, uint64(2), snapshot.Generations)
	assert.Equal(t, uint64(2), snapshot.GenerationFailures)
}

func TestProjectionServiceSavePersistsPaces(t *testing.T) {
	tx, mock := newTxProviderMock(t)
	fx := newProjectionFixture(t, tx)
	ctx := context.Background()

	preview, err := fx.service.Preview(ctx, uniformRequest())
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectCommit()

	saved, err := fx.service.Save(ctx, dto.SaveProjectionRequest{ProposalID: preview.ProposalID})
	require.NoError(t, err)
	assert.Equal(t, 1, saved.Version)
	assert.Equal(t, models.ProjectionStatusDraft, saved.Status)
	assert.Equal(t, preview.Strategy, saved.Strategy)
	assert.Len(t, fx.paces.items[saved.ProjectionID], 72)
	assert.NoError(t, mock.ExpectationsWereMet())

	_, err = fx.service.Save(ctx, dto.SaveProjectionRequest{ProposalID: preview.ProposalID})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code, "proposal is consumed by save")
}

func TestProjectionServiceSaveRollsBackOnPaceFailure(t *testing.T) {
	tx, mock := newTxProviderMock(t)
	fx := newProjectionFixture(t, tx)
	fx.paces.insertErr = errors.New("boom")
	ctx := context.Background()

	preview, err := fx.service.Preview(ctx, uniformRequest())
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err = fx.service.Save(ctx, dto.SaveProjectionRequest{ProposalID: preview.ProposalID})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectionServiceGenerateAndPublishArchivesPrevious(t *testing.T) {
	tx, mock := newTxProviderMock(t)
	fx := newProjectionFixture(t, tx)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectCommit()
	first, err := fx.service.Generate(ctx, dto.GenerateProjectionRequest{ProjectionRequest: uniformRequest(), Publish: true})
	require.NoError(t, err)
	assert.Equal(t, models.ProjectionStatusPublished, first.Status)

	req := uniformRequest()
	req.Subjects[0].Difficulty = intPtr(2)
	mock.ExpectBegin()
	mock.ExpectCommit()
	second, err := fx.service.Generate(ctx, dto.GenerateProjectionRequest{ProjectionRequest: req})
	require.NoError(t, err)
	assert.Equal(t, 2, second.Version)
	assert.Equal(t, models.ProjectionStatusDraft, second.Status)

	mock.ExpectBegin()
	mock.ExpectCommit()
	published, err := fx.service.Publish(ctx, second.ProjectionID)
	require.NoError(t, err)
	assert.Equal(t, models.ProjectionStatusPublished, published.Status)
	assert.Equal(t, models.ProjectionStatusArchived, fx.projections.status(first.ProjectionID))
	assert.NoError(t, mock.ExpectationsWereMet())

	summary, err := fx.service.List(ctx, dto.ProjectionQuery{StudentID: "stu-1", SchoolYearID: "sy-2026"})
	require.NoError(t, err)
	require.Len(t, summary.Versions, 2)
	assert.Equal(t, 2, summary.Versions[0].Version)
	require.NotNil(t, summary.ActiveID)
	assert.Equal(t, second.ProjectionID, *summary.ActiveID)

	_, err = fx.service.Publish(ctx, first.ProjectionID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestProjectionServiceListUsesCacheUntilInvalidated(t *testing.T) {
	tx, mock := newTxProviderMock(t)
	fx := newProjectionFixture(t, tx)
	ctx := context.Background()
	query := dto.ProjectionQuery{StudentID: "stu-1", SchoolYearID: "sy-2026"}

	empty, err := fx.service.List(ctx, query)
	require.NoError(t, err)
	assert.Empty(t, empty.Versions)
	assert.Contains(t, fx.cacheRepo.items, studentYearListKey("stu-1", "sy-2026"))

	mock.ExpectBegin()
	mock.ExpectCommit()
	_, err = fx.service.Generate(ctx, dto.GenerateProjectionRequest{ProjectionRequest: uniformRequest()})
	require.NoError(t, err)
	assert.NotContains(t, fx.cacheRepo.items, studentYearListKey("stu-1", "sy-2026"))

	summary, err := fx.service.List(ctx, query)
	require.NoError(t, err)
	assert.Len(t, summary.Versions, 1)
	assert.Nil(t, summary.ActiveID)

	_, err = fx.service.List(ctx, dto.ProjectionQuery{StudentID: "stu-1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestProjectionServiceGetPacesCaches(t *testing.T) {
	tx, mock := newTxProviderMock(t)
	fx := newProjectionFixture(t, tx)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectCommit()
	saved, err := fx.service.Generate(ctx, dto.GenerateProjectionRequest{ProjectionRequest: uniformRequest()})
	require.NoError(t, err)

	first, err := fx.service.GetPaces(ctx, saved.ProjectionID)
	require.NoError(t, err)
	assert.Len(t, first.Weeks, scheduler.WeekCount)
	assert.Equal(t, saved.ProjectionID, first.ProjectionID)

	second, err := fx.service.GetPaces(ctx, saved.ProjectionID)
	require.NoError(t, err)
	assert.Equal(t, first.Weeks, second.Weeks)
	assert.Equal(t, 1, fx.paces.listCalls, "second read is served from cache")

	_, err = fx.service.GetPaces(ctx, "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestProjectionServiceDeleteDraftOnly(t *testing.T) {
	tx, mock := newTxProviderMock(t)
	fx := newProjectionFixture(t, tx)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectCommit()
	published, err := fx.service.Generate(ctx, dto.GenerateProjectionRequest{ProjectionRequest: uniformRequest(), Publish: true})
	require.NoError(t, err)

	err = fx.service.Delete(ctx, published.ProjectionID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	req := uniformRequest()
	req.Subjects[1].Difficulty = intPtr(4)
	mock.ExpectBegin()
	mock.ExpectCommit()
	draft, err := fx.service.Generate(ctx, dto.GenerateProjectionRequest{ProjectionRequest: req})
	require.NoError(t, err)

	require.NoError(t, fx.service.Delete(ctx, draft.ProjectionID))
	err = fx.service.Delete(ctx, draft.ProjectionID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestProposalStoreExpires(t *testing.T) {
	store := newProposalStore(time.Minute)
	store.Save(projectionProposal{ProposalID: "fresh", Fingerprint: "f1", RequestedAt: time.Now().UTC()})
	store.Save(projectionProposal{ProposalID: "stale", Fingerprint: "f2", RequestedAt: time.Now().Add(-2 * time.Minute)})

	_, ok := store.Get("fresh")
	assert.True(t, ok)
	_, ok = store.FindByFingerprint("f1")
	assert.True(t, ok)
	_, ok = store.Get("stale")
	assert.False(t, ok)
	_, ok = store.FindByFingerprint("f2")
	assert.False(t, ok)

	store.Delete("fresh")
	_, ok = store.FindByFingerprint("f1")
	assert.False(t, ok)
}

func TestProposalStoreSweepsExpiredOnSave(t *testing.T) {
	store := newProposalStore(time.Minute)
	store.Save(projectionProposal{ProposalID: "abandoned", Fingerprint: "f1", RequestedAt: time.Now().Add(-2 * time.Minute)})
	store.Save(projectionProposal{ProposalID: "fresh", Fingerprint: "f2", RequestedAt: time.Now().UTC()})

	assert.Len(t, store.items, 1)
	assert.NotContains(t, store.items, "abandoned")
	assert.NotContains(t, store.fingerprints, "f1")
	assert.Equal(t, "fresh", store.fingerprints["f2"])
}

// --- Fixtures ---

type projectionFixture struct {
	service     *ProjectionService
	projections *projectionRepoStub
	paces       *projectionPaceRepoStub
	catalog     *subSubjectCatalogStub
	cacheRepo   *cacheRepoStub
	metrics     *MetricsService
}

func newProjectionFixture(t *testing.T, tx txProvider) *projectionFixture {
	t.Helper()
	fx := &projectionFixture{
		projections: &projectionRepoStub{},
		paces:       &projectionPaceRepoStub{},
		catalog: &subSubjectCatalogStub{items: map[string]models.SubSubject{
			"math":    {ID: "math", Name: "Math", SubjectCode: "MATH", FirstPace: 1001, LastPace: 1144},
			"reading": {ID: "reading", Name: "Word Building", SubjectCode: "WB", FirstPace: 1001, LastPace: 1144},
		}},
		cacheRepo: newCacheRepoStub(),
		metrics:   NewMetricsService(),
	}
	cache := NewCacheService(fx.cacheRepo, fx.metrics, time.Minute, zap.NewNop(), true)
	fx.service = NewProjectionService(
		studentReaderStub{ids: map[string]bool{"stu-1": true}},
		schoolYearReaderStub{ids: map[string]bool{"sy-2026": true}},
		fx.catalog,
		fx.projections,
		fx.paces,
		tx,
		cache,
		fx.metrics,
		validator.New(),
		zap.NewNop(),
		ProjectionServiceConfig{ProposalTTL: time.Hour, CacheTTL: time.Minute},
	)
	return fx
}

func uniformRequest() dto.ProjectionRequest {
	return dto.ProjectionRequest{
		StudentID:    "stu-1",
		SchoolYearID: "sy-2026",
		Subjects: []dto.SubjectRequest{
			{SubSubjectID: "math", StartPace: 1001, EndPace: 1036, Difficulty: intPtr(5)},
			{SubSubjectID: "reading", StartPace: 1001, EndPace: 1036, Difficulty: intPtr(1)},
		},
	}
}

func intPtr(v int) *int { return &v }
