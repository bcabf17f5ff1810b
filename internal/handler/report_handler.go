package handler

import (
	"context"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/survey-recon-api/internal/dto"
	appErrors "github.com/noah-isme/survey-recon-api/pkg/errors"
	"github.com/noah-isme/survey-recon-api/pkg/response"
)

type reportService interface {
	Enqueue(ctx context.Context, req dto.ReportRequest) (*dto.ReportJobResponse, error)
	Status(jobID string) (*dto.ReportStatusResponse, error)
	Download(jobID string) (*os.File, dto.ReportFormat, error)
}

// ReportHandler exposes async report generation.
type ReportHandler struct {
	service reportService
}

// NewReportHandler builds a new handler.
func NewReportHandler(service reportService) *ReportHandler {
	return &ReportHandler{service: service}
}

// Enqueue godoc
// @Summary Queue a validation report
// @Description Schedules background rendering of a subject's validation results as CSV or PDF. Poll the returned job id for completion.
// @Tags Reports
// @Accept json
// @Produce json
// @Param payload body dto.ReportRequest true "Report request"
// @Success 202 {object} response.Envelope{data=dto.ReportJobResponse}
// @Failure 400 {object} response.Envelope
// @Router /reports [post]
func (h *ReportHandler) Enqueue(c *gin.Context) {
	var req dto.ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid report payload"))
		return
	}

	job, err := h.service.Enqueue(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, job)
}

// Status godoc
// @Summary Report job status
// @Tags Reports
// @Produce json
// @Param id path string true "Report job identifier"
// @Success 200 {object} response.Envelope{data=dto.ReportStatusResponse}
// @Failure 404 {object} response.Envelope
// @Router /reports/{id} [get]
func (h *ReportHandler) Status(c *gin.Context) {
	status, err := h.service.Status(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status)
}

// Download godoc
// @Summary Download a completed report
// @Tags Reports
// @Produce octet-stream
// @Param id path string true "Report job identifier"
// @Success 200 {file} binary
// @Failure 404 {object} response.Envelope
// @Router /reports/{id}/download [get]
func (h *ReportHandler) Download(c *gin.Context) {
	file, format, err := h.service.Download(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck

	info, err := file.Stat()
	if err != nil {
		response.Error(c, err)
		return
	}

	contentType := "text/csv"
	if format == dto.ReportFormatPDF {
		contentType = "application/pdf"
	}
	c.Header("Content-Disposition", `attachment; filename="`+filepath.Base(file.Name())+`"`)
	c.DataFromReader(http.StatusOK, info.Size(), contentType, file, nil)
}
