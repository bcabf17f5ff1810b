package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/survey-recon-api/internal/dto"
	appErrors "github.com/noah-isme/survey-recon-api/pkg/errors"
)

type reportServiceMock struct {
	enqueueErr error
	statusErr  error
}

func (m *reportServiceMock) Enqueue(_ context.Context, req dto.ReportRequest) (*dto.ReportJobResponse, error) {
	if m.enqueueErr != nil {
		return nil, m.enqueueErr
	}
	return &dto.ReportJobResponse{ID: "job-1", Status: dto.ReportStatusQueued}, nil
}

func (m *reportServiceMock) Status(jobID string) (*dto.ReportStatusResponse, error) {
	if m.statusErr != nil {
		return nil, m.statusErr
	}
	return &dto.ReportStatusResponse{ID: jobID, Status: dto.ReportStatusCompleted, Finished: true}, nil
}

func (m *reportServiceMock) Download(jobID string) (*os.File, dto.ReportFormat, error) {
	return nil, "", appErrors.Clone(appErrors.ErrNotFound, "report is not ready")
}

func TestReportHandlerEnqueue(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewReportHandler(&reportServiceMock{})

	body, _ := json.Marshal(dto.ReportRequest{SubjectID: "S1", Format: dto.ReportFormatCSV})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/reports", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Enqueue(c)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), "job-1")
}

func TestReportHandlerEnqueueDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewReportHandler(&reportServiceMock{enqueueErr: appErrors.ErrReportDisabled})

	body, _ := json.Marshal(dto.ReportRequest{SubjectID: "S1", Format: dto.ReportFormatCSV})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/reports", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Enqueue(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReportHandlerStatusNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewReportHandler(&reportServiceMock{statusErr: appErrors.Clone(appErrors.ErrNotFound, "report job not found")})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/reports/missing", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	handler.Status(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
