package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/survey-recon-api/internal/models"
	"github.com/noah-isme/survey-recon-api/pkg/response"
)

type metricsSnapshotter interface {
	Snapshot() models.SystemMetrics
}

// SystemHandler serves liveness, readiness and the metrics snapshot.
type SystemHandler struct {
	db      *sqlx.DB
	redis   *redis.Client
	metrics metricsSnapshotter
}

// NewSystemHandler builds a new handler. db and redis may be nil, in which
// case readiness skips the corresponding check.
func NewSystemHandler(db *sqlx.DB, redisClient *redis.Client, metrics metricsSnapshotter) *SystemHandler {
	return &SystemHandler{db: db, redis: redisClient, metrics: metrics}
}

// Health godoc
// @Summary Liveness probe
// @Tags System
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *SystemHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready godoc
// @Summary Readiness probe
// @Description Verifies database and cache connectivity.
// @Tags System
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /ready [get]
func (h *SystemHandler) Ready(c *gin.Context) {
	checks := gin.H{"status": "ready"}
	healthy := true

	if h.db != nil {
		if err := h.db.PingContext(c.Request.Context()); err != nil {
			checks["database"] = err.Error()
			healthy = false
		}
	}
	if h.redis != nil {
		if err := h.redis.Ping(c.Request.Context()).Err(); err != nil {
			checks["cache"] = err.Error()
			healthy = false
		}
	}

	if !healthy {
		checks["status"] = "degraded"
		c.JSON(http.StatusServiceUnavailable, checks)
		return
	}
	c.JSON(http.StatusOK, checks)
}

// Status godoc
// @Summary Runtime counters snapshot
// @Tags System
// @Produce json
// @Success 200 {object} response.Envelope{data=models.SystemMetrics}
// @Router /status [get]
func (h *SystemHandler) Status(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.metrics.Snapshot())
}
