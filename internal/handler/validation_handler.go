package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/survey-recon-api/internal/dto"
	appErrors "github.com/noah-isme/survey-recon-api/pkg/errors"
	"github.com/noah-isme/survey-recon-api/pkg/response"
)

type validationService interface {
	ValidateSubject(ctx context.Context, subjectID string, tasks []string) (*dto.SubjectValidationResponse, error)
	ValidateAdHoc(ctx context.Context, req dto.ValidateRequest) (*dto.SubjectValidationResponse, error)
}

// ValidationHandler exposes the merge-and-validate pipeline.
type ValidationHandler struct {
	service validationService
}

// NewValidationHandler builds a new handler.
func NewValidationHandler(service validationService) *ValidationHandler {
	return &ValidationHandler{service: service}
}

// ValidateSubject godoc
// @Summary Validate a stored subject
// @Description Merges all stored submissions for the subject and runs task validation. Use the tasks query parameter to restrict scoring to specific task identifiers.
// @Tags Validation
// @Produce json
// @Param subjectId path string true "Subject identifier"
// @Param tasks query string false "Comma-separated task identifiers"
// @Success 200 {object} response.Envelope{data=dto.SubjectValidationResponse}
// @Failure 404 {object} response.Envelope
// @Router /subjects/{subjectId}/validation [get]
func (h *ValidationHandler) ValidateSubject(c *gin.Context) {
	var tasks []string
	if raw := c.Query("tasks"); raw != "" {
		for _, task := range strings.Split(raw, ",") {
			if task = strings.TrimSpace(task); task != "" {
				tasks = append(tasks, task)
			}
		}
	}

	result, err := h.service.ValidateSubject(c.Request.Context(), c.Param("subjectId"), tasks)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// ValidateAdHoc godoc
// @Summary Validate raw records without persisting them
// @Tags Validation
// @Accept json
// @Produce json
// @Param payload body dto.ValidateRequest true "Raw records to validate"
// @Success 200 {object} response.Envelope{data=dto.SubjectValidationResponse}
// @Failure 400 {object} response.Envelope
// @Router /validate [post]
func (h *ValidationHandler) ValidateAdHoc(c *gin.Context) {
	var req dto.ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid validation payload"))
		return
	}

	result, err := h.service.ValidateAdHoc(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}
