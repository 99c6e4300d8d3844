package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pace-projection-api/internal/models"
)

var projectionRowColumns = []string{"id", "student_id", "school_year_id", "version", "status", "strategy", "total_paces", "meta", "created_at", "updated_at"}

func TestProjectionRepositoryCreateVersioned(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewProjectionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(version), 0) + 1 FROM projections WHERE student_id = $1 AND school_year_id = $2")).
		WithArgs("stu-1", "sy-1").
		WillReturnRows(sqlmock.NewRows([]string{"next"}).AddRow(3))

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO projections")).
		WithArgs(sqlmock.AnyArg(), "stu-1", "sy-1", 3, string(models.ProjectionStatusDraft), "uniform_difficulty", 72, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	payload := &models.Projection{
		StudentID:    "stu-1",
		SchoolYearID: "sy-1",
		Strategy:     "uniform_difficulty",
		TotalPaces:   72,
	}
	require.NoError(t, repo.CreateVersioned(context.Background(), nil, payload))
	assert.Equal(t, 3, payload.Version)
	assert.NotEmpty(t, payload.ID)
	assert.Equal(t, types.JSONText(`{}`), payload.Meta)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectionRepositoryCreateVersionedRequiresOwner(t *testing.T) {
	db, _, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewProjectionRepository(db)

	assert.Error(t, repo.CreateVersioned(context.Background(), nil, nil))
	assert.Error(t, repo.CreateVersioned(context.Background(), nil, &models.Projection{StudentID: "stu-1"}))
}

func TestProjectionRepositoryListByStudentYear(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewProjectionRepository(db)

	rows := sqlmock.NewRows(projectionRowColumns).
		AddRow("p-2", "stu-1", "sy-1", 2, "PUBLISHED", "frequency_round_robin", 80, types.JSONText(`{}`), time.Now(), time.Now()).
		AddRow("p-1", "stu-1", "sy-1", 1, "DRAFT", "uniform_difficulty", 72, types.JSONText(`{}`), time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM projections WHERE student_id = $1 AND school_year_id = $2 ORDER BY version DESC")).
		WithArgs("stu-1", "sy-1").
		WillReturnRows(rows)

	list, err := repo.ListByStudentYear(context.Background(), "stu-1", "sy-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, models.ProjectionStatusPublished, list[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectionRepositoryFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewProjectionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM projections WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectionRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewProjectionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM projections WHERE id = $1")).
		WithArgs("p-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM projections WHERE id = $1")).
		WithArgs("p-9").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Delete(context.Background(), "p-1"))
	assert.ErrorIs(t, repo.Delete(context.Background(), "p-9"), sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectionRepositoryUpdateStatusAndArchive(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewProjectionRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE projections SET status = $1, updated_at = $2")).
		WithArgs(models.ProjectionStatusArchived, sqlmock.AnyArg(), "stu-1", "sy-1", models.ProjectionStatusPublished, "p-2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE projections SET status = $1, updated_at = $2 WHERE id = $3")).
		WithArgs(models.ProjectionStatusPublished, sqlmock.AnyArg(), "p-2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.Beginx()
	require.NoError(t, err)
	require.NoError(t, repo.ArchivePublished(context.Background(), tx, "stu-1", "sy-1", "p-2"))
	require.NoError(t, repo.UpdateStatus(context.Background(), tx, "p-2", models.ProjectionStatusPublished))
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}
