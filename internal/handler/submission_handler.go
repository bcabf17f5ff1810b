package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/survey-recon-api/internal/dto"
	"github.com/noah-isme/survey-recon-api/internal/models"
	appErrors "github.com/noah-isme/survey-recon-api/pkg/errors"
	"github.com/noah-isme/survey-recon-api/pkg/response"
)

type submissionService interface {
	Ingest(ctx context.Context, req dto.IngestSubmissionRequest) (*models.Submission, error)
	List(ctx context.Context, filter models.SubmissionFilter) (*dto.SubmissionListResponse, error)
	Delete(ctx context.Context, id, subjectID string) error
}

// SubmissionHandler exposes raw submission ingestion and lookup.
type SubmissionHandler struct {
	service submissionService
}

// NewSubmissionHandler builds a new handler.
func NewSubmissionHandler(service submissionService) *SubmissionHandler {
	return &SubmissionHandler{service: service}
}

// Ingest godoc
// @Summary Ingest a raw submission
// @Description Stores one raw submission from either source. Re-sending the same source and external identifier is a no-op.
// @Tags Submissions
// @Accept json
// @Produce json
// @Param payload body dto.IngestSubmissionRequest true "Submission payload"
// @Success 201 {object} response.Envelope{data=models.Submission}
// @Failure 400 {object} response.Envelope
// @Router /submissions [post]
func (h *SubmissionHandler) Ingest(c *gin.Context) {
	var req dto.IngestSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid submission payload"))
		return
	}

	submission, err := h.service.Ingest(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, submission)
}

// List godoc
// @Summary List stored submissions
// @Tags Submissions
// @Produce json
// @Param subjectId query string false "Filter by subject"
// @Param source query string false "Filter by source (source-a or source-b)"
// @Param page query int false "Page number"
// @Param pageSize query int false "Page size (max 100)"
// @Success 200 {object} response.Envelope{data=dto.SubmissionListResponse}
// @Router /submissions [get]
func (h *SubmissionHandler) List(c *gin.Context) {
	filter := models.SubmissionFilter{
		SubjectID: c.Query("subjectId"),
		Source:    models.Source(c.Query("source")),
	}
	filter.Page, _ = strconv.Atoi(c.Query("page"))
	filter.PageSize, _ = strconv.Atoi(c.Query("pageSize"))

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Delete godoc
// @Summary Delete a submission
// @Tags Submissions
// @Param id path string true "Submission identifier"
// @Param subjectId query string false "Subject to invalidate cached results for"
// @Success 204
// @Router /submissions/{id} [delete]
func (h *SubmissionHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), c.Query("subjectId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
