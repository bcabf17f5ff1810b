package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/survey-recon-api/internal/models"
)

func newSubmissionRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	return sqlxDB, mock, func() {
		sqlxDB.Close()
		db.Close()
	}
}

func submissionColumns() []string {
	return []string{"id", "subject_id", "external_id", "source", "session_key", "answers", "submitted_at", "created_at"}
}

func TestSubmissionRepositoryList(t *testing.T) {
	db, mock, cleanup := newSubmissionRepoMock(t)
	defer cleanup()

	repo := NewSubmissionRepository(db)
	submitted := time.Date(2025, 10, 5, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(submissionColumns()).
		AddRow("sub-1", "S1", "f1", "source-a", nil, []byte(`{"Q1":{"answer":"5"}}`), submitted, submitted)

	mock.ExpectQuery("SELECT s.id, s.subject_id").
		WithArgs("S1").
		WillReturnRows(rows)
	mock.ExpectQuery("SELECT COUNT").
		WithArgs("S1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	result, total, err := repo.List(context.Background(), models.SubmissionFilter{SubjectID: "S1"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, result, 1)
	assert.Equal(t, models.SourceForm, result[0].Source)

	rec, err := result[0].ToRawRecord()
	require.NoError(t, err)
	v, ok := rec.Answers.Get("Q1")
	require.True(t, ok)
	assert.Equal(t, "5", v)
}

func TestSubmissionRepositoryListBySubject(t *testing.T) {
	db, mock, cleanup := newSubmissionRepoMock(t)
	defer cleanup()

	repo := NewSubmissionRepository(db)
	key := "K1-AAA"
	submitted := time.Date(2025, 10, 5, 9, 30, 0, 0, time.UTC)
	rows := sqlmock.NewRows(submissionColumns()).
		AddRow("sub-2", "S1", "q1", "source-b", key, []byte(`{}`), submitted, submitted)

	mock.ExpectQuery("SELECT id, subject_id").
		WithArgs("S1").
		WillReturnRows(rows)

	result, err := repo.ListBySubject(context.Background(), "S1")
	require.NoError(t, err)
	require.Len(t, result, 1)
	require.NotNil(t, result[0].SessionKey)
	assert.Equal(t, key, *result[0].SessionKey)
}

func TestSubmissionRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newSubmissionRepoMock(t)
	defer cleanup()

	repo := NewSubmissionRepository(db)
	mock.ExpectExec("INSERT INTO submissions").
		WithArgs(sqlmock.AnyArg(), "S1", "f1", "source-a", nil, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	sub := &models.Submission{
		SubjectID:   "S1",
		ExternalID:  "f1",
		Source:      models.SourceForm,
		Answers:     types.JSONText(`{"Q1":{"answer":"5"}}`),
		SubmittedAt: time.Date(2025, 10, 5, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.Create(context.Background(), sub))
	assert.NotEmpty(t, sub.ID)
}
