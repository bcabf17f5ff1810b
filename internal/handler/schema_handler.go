package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/survey-recon-api/internal/models"
	"github.com/noah-isme/survey-recon-api/pkg/response"
)

type schemaRegistry interface {
	Get(ctx context.Context, taskID string) (*models.TaskDefinition, error)
	Tasks() []string
}

// SchemaHandler exposes the loaded task schemas.
type SchemaHandler struct {
	registry schemaRegistry
}

// NewSchemaHandler builds a new handler.
func NewSchemaHandler(registry schemaRegistry) *SchemaHandler {
	return &SchemaHandler{registry: registry}
}

// List godoc
// @Summary List known task identifiers
// @Tags Schema
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /tasks [get]
func (h *SchemaHandler) List(c *gin.Context) {
	response.JSON(c, http.StatusOK, gin.H{"tasks": h.registry.Tasks()})
}

// Get godoc
// @Summary Task definition by identifier
// @Description Resolves aliases, so both the canonical task id and any known alias return the same definition.
// @Tags Schema
// @Produce json
// @Param taskId path string true "Task identifier"
// @Success 200 {object} response.Envelope{data=models.TaskDefinition}
// @Failure 404 {object} response.Envelope
// @Router /tasks/{taskId} [get]
func (h *SchemaHandler) Get(c *gin.Context) {
	definition, err := h.registry.Get(c.Request.Context(), c.Param("taskId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, definition)
}
