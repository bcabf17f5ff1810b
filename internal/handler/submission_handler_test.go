package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/survey-recon-api/internal/dto"
	"github.com/noah-isme/survey-recon-api/internal/models"
)

type submissionServiceMock struct {
	lastFilter models.SubmissionFilter
	deleted    []string
}

func (m *submissionServiceMock) Ingest(_ context.Context, req dto.IngestSubmissionRequest) (*models.Submission, error) {
	return &models.Submission{ID: "a1", SubjectID: req.SubjectID, Source: req.Source}, nil
}

func (m *submissionServiceMock) List(_ context.Context, filter models.SubmissionFilter) (*dto.SubmissionListResponse, error) {
	m.lastFilter = filter
	return &dto.SubmissionListResponse{Items: []models.Submission{}, Page: 1}, nil
}

func (m *submissionServiceMock) Delete(_ context.Context, id, _ string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

func TestSubmissionHandlerIngest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewSubmissionHandler(&submissionServiceMock{})

	body, _ := json.Marshal(dto.IngestSubmissionRequest{
		SubjectID:  "S1",
		ExternalID: "ext-1",
		Source:     models.SourceForm,
		Answers:    models.AnswerMap{"ToM_Q1": models.TextAnswer("a")},
	})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/submissions", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Ingest(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "S1")
}

func TestSubmissionHandlerIngestInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewSubmissionHandler(&submissionServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/submissions", bytes.NewReader([]byte(`{`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Ingest(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmissionHandlerListFilters(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &submissionServiceMock{}
	handler := NewSubmissionHandler(mock)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/submissions?subjectId=S1&source=source-b&page=2&pageSize=5", nil)
	c.Request = req

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "S1", mock.lastFilter.SubjectID)
	assert.Equal(t, models.SourceSurvey, mock.lastFilter.Source)
	assert.Equal(t, 2, mock.lastFilter.Page)
	assert.Equal(t, 5, mock.lastFilter.PageSize)
}

func TestSubmissionHandlerDelete(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &submissionServiceMock{}
	handler := NewSubmissionHandler(mock)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodDelete, "/submissions/a1?subjectId=S1", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "a1"}}

	handler.Delete(c)
	c.Writer.WriteHeaderNow()
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []string{"a1"}, mock.deleted)
}
