package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/survey-recon-api/internal/dto"
	"github.com/noah-isme/survey-recon-api/internal/models"
	appErrors "github.com/noah-isme/survey-recon-api/pkg/errors"
	"github.com/noah-isme/survey-recon-api/pkg/response"
)

type reconcileService interface {
	MergeSubject(ctx context.Context, subjectID string) ([]models.MergedRecord, error)
	MergeAll(ctx context.Context) ([]models.MergedRecord, error)
	MergeRecords(form, survey []models.RawRecord) []models.MergedRecord
}

// ReconcileHandler exposes cross-source record merging.
type ReconcileHandler struct {
	service reconcileService
}

// NewReconcileHandler builds a new handler.
func NewReconcileHandler(service reconcileService) *ReconcileHandler {
	return &ReconcileHandler{service: service}
}

// MergeSubject godoc
// @Summary Merged view of one subject
// @Description Returns the reconciled records for a subject, one per grade level, with full per-field provenance.
// @Tags Reconcile
// @Produce json
// @Param subjectId path string true "Subject identifier"
// @Success 200 {object} response.Envelope{data=dto.ReconcileResponse}
// @Failure 404 {object} response.Envelope
// @Router /subjects/{subjectId}/merged [get]
func (h *ReconcileHandler) MergeSubject(c *gin.Context) {
	records, err := h.service.MergeSubject(c.Request.Context(), c.Param("subjectId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.ReconcileResponse{Records: records, Total: len(records)})
}

// Reconcile godoc
// @Summary Reconcile records across sources
// @Description With a body of raw records, merges them in place. With an empty body, reconciles every stored subject.
// @Tags Reconcile
// @Accept json
// @Produce json
// @Param request body dto.ReconcileRequest false "Optional ad-hoc records"
// @Success 200 {object} response.Envelope{data=dto.ReconcileResponse}
// @Failure 400 {object} response.Envelope
// @Router /reconcile [post]
func (h *ReconcileHandler) Reconcile(c *gin.Context) {
	var req dto.ReconcileRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid reconcile request"))
			return
		}
	}

	var (
		records []models.MergedRecord
		err     error
	)
	if len(req.Form) > 0 || len(req.Survey) > 0 {
		records = h.service.MergeRecords(req.Form, req.Survey)
	} else {
		records, err = h.service.MergeAll(c.Request.Context())
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.ReconcileResponse{Records: records, Total: len(records)})
}
