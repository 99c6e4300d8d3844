package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubSubjectRepositoryFindByIDs(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSubSubjectRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "subject_code", "first_pace", "last_pace", "created_at"}).
		AddRow("math", "Math", "MTH", 1001, 1012, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM sub_subjects WHERE id = ANY($1)")).
		WithArgs(pq.Array([]string{"math", "ghost"})).
		WillReturnRows(rows)

	subs, err := repo.FindByIDs(context.Background(), []string{"math", "ghost"})
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, 1012, subs[0].LastPace)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubSubjectRepositoryFindByIDsEmpty(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	subs, err := NewSubSubjectRepository(db).FindByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, subs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentAndSchoolYearRepositories(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta("FROM students WHERE id = $1")).
		WithArgs("stu-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "full_name", "active", "created_at", "updated_at"}).
			AddRow("stu-1", "Ana", true, time.Now(), time.Now()))
	mock.ExpectQuery(regexp.QuoteMeta("FROM school_years WHERE id = $1")).
		WithArgs("sy-9").
		WillReturnError(sql.ErrNoRows)

	student, err := NewStudentRepository(db).FindByID(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Equal(t, "Ana", student.FullName)

	_, err = NewSchoolYearRepository(db).FindByID(context.Background(), "sy-9")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
