package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/goharvest/internal/logger"
	"github.com/jonesrussell/goharvest/internal/orchestrator"
	"github.com/jonesrussell/goharvest/internal/registry"
)

// HarvestHandler exposes run triggers and scheduler status.
type HarvestHandler struct {
	harvester Harvester
	log       logger.Interface
}

// Run handles POST /api/v1/harvest/run. A run already in progress
// answers 409 without queueing.
func (h *HarvestHandler) Run(c *gin.Context) {
	result, err := h.harvester.Run(c.Request.Context())
	if errors.Is(err, orchestrator.ErrAlreadyRunning) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.log.Error("harvest run failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "harvest run failed"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// RunSource handles POST /api/v1/harvest/sources/:id/run.
func (h *HarvestHandler) RunSource(c *gin.Context) {
	id := c.Param("id")

	result, err := h.harvester.RunSource(c.Request.Context(), id)
	switch {
	case errors.Is(err, orchestrator.ErrAlreadyRunning):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, registry.ErrSourceNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "source not found"})
	case err != nil:
		h.log.Error("source harvest failed", "source_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "harvest run failed"})
	default:
		c.JSON(http.StatusOK, result)
	}
}

// Status handles GET /api/v1/harvest/status.
func (h *HarvestHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.harvester.Status())
}
