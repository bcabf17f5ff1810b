package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/survey-recon-api/internal/dto"
	"github.com/noah-isme/survey-recon-api/internal/models"
)

type mockSubmissionRepo struct {
	created []models.Submission
	listed  []models.Submission
	total   int
	err     error
}

func (m *mockSubmissionRepo) List(_ context.Context, _ models.SubmissionFilter) ([]models.Submission, int, error) {
	if m.err != nil {
		return nil, 0, m.err
	}
	return m.listed, m.total, nil
}

func (m *mockSubmissionRepo) Create(_ context.Context, sub *models.Submission) error {
	if m.err != nil {
		return m.err
	}
	m.created = append(m.created, *sub)
	return nil
}

func (m *mockSubmissionRepo) Delete(_ context.Context, _ string) error {
	return m.err
}

type mockInvalidator struct {
	subjects []string
}

func (m *mockInvalidator) InvalidateSubject(_ context.Context, subjectID string) error {
	m.subjects = append(m.subjects, subjectID)
	return nil
}

func TestSubmissionServiceIngest(t *testing.T) {
	repo := &mockSubmissionRepo{}
	invalidator := &mockInvalidator{}
	svc := NewSubmissionService(repo, invalidator, nil, zap.NewNop())

	sub, err := svc.Ingest(context.Background(), dto.IngestSubmissionRequest{
		SubjectID:  "S1",
		ExternalID: "f1",
		Source:     models.SourceForm,
		CreatedAt:  "2025-10-05T10:00:00Z",
		Answers:    models.AnswerMap{"Q1": models.StringAnswer("5")},
	})
	require.NoError(t, err)
	require.Len(t, repo.created, 1)
	assert.Equal(t, "S1", sub.SubjectID)
	assert.Equal(t, 2025, sub.SubmittedAt.Year())

	// derived caches for the subject are dropped on ingest
	assert.Equal(t, []string{"S1"}, invalidator.subjects)
}

func TestSubmissionServiceIngestValidation(t *testing.T) {
	svc := NewSubmissionService(&mockSubmissionRepo{}, nil, nil, zap.NewNop())

	// missing required fields
	_, err := svc.Ingest(context.Background(), dto.IngestSubmissionRequest{SubjectID: "S1"})
	require.Error(t, err)

	// bad source value
	_, err = svc.Ingest(context.Background(), dto.IngestSubmissionRequest{
		SubjectID:  "S1",
		ExternalID: "f1",
		Source:     "source-c",
		Answers:    models.AnswerMap{},
	})
	require.Error(t, err)

	// malformed timestamp
	_, err = svc.Ingest(context.Background(), dto.IngestSubmissionRequest{
		SubjectID:  "S1",
		ExternalID: "f1",
		Source:     models.SourceForm,
		CreatedAt:  "yesterday",
		Answers:    models.AnswerMap{"Q1": models.StringAnswer("5")},
	})
	require.Error(t, err)
}

func TestSubmissionServiceList(t *testing.T) {
	repo := &mockSubmissionRepo{
		listed: []models.Submission{{ID: "sub-1", SubjectID: "S1"}},
		total:  1,
	}
	svc := NewSubmissionService(repo, nil, nil, zap.NewNop())

	resp, err := svc.List(context.Background(), models.SubmissionFilter{SubjectID: "S1"})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Total)
	assert.Equal(t, 1, resp.Page)
	require.Len(t, resp.Items, 1)
}
