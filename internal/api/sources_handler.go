package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/goharvest/internal/domain"
	"github.com/jonesrussell/goharvest/internal/logger"
	"github.com/jonesrussell/goharvest/internal/registry"
)

// SourcesHandler exposes source CRUD.
type SourcesHandler struct {
	store SourceStore
	log   logger.Interface
}

// List handles GET /api/v1/sources.
func (h *SourcesHandler) List(c *gin.Context) {
	sources, err := h.store.List(c.Request.Context())
	if err != nil {
		h.log.Error("failed to list sources", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list sources"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"sources": sources, "total": len(sources)})
}

// Get handles GET /api/v1/sources/:id.
func (h *SourcesHandler) Get(c *gin.Context) {
	source, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, registry.ErrSourceNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "source not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get source"})
		return
	}

	c.JSON(http.StatusOK, source)
}

// Create handles POST /api/v1/sources.
func (h *SourcesHandler) Create(c *gin.Context) {
	var source domain.Source
	if err := c.ShouldBindJSON(&source); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	if err := h.store.Create(c.Request.Context(), &source); err != nil {
		h.log.Error("failed to create source", "name", source.Name, "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, source)
}

// Update handles PUT /api/v1/sources/:id.
func (h *SourcesHandler) Update(c *gin.Context) {
	var source domain.Source
	if err := c.ShouldBindJSON(&source); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	source.ID = c.Param("id")

	err := h.store.Update(c.Request.Context(), &source)
	switch {
	case errors.Is(err, registry.ErrSourceNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "source not found"})
	case err != nil:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, source)
	}
}

// Enable handles POST /api/v1/sources/:id/enable.
func (h *SourcesHandler) Enable(c *gin.Context) {
	h.setActive(c, true)
}

// Disable handles POST /api/v1/sources/:id/disable.
func (h *SourcesHandler) Disable(c *gin.Context) {
	h.setActive(c, false)
}

func (h *SourcesHandler) setActive(c *gin.Context, active bool) {
	err := h.store.SetActive(c.Request.Context(), c.Param("id"), active)
	switch {
	case errors.Is(err, registry.ErrSourceNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "source not found"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update source"})
	default:
		c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "active": active})
	}
}

// Delete handles DELETE /api/v1/sources/:id.
func (h *SourcesHandler) Delete(c *gin.Context) {
	err := h.store.Delete(c.Request.Context(), c.Param("id"))
	switch {
	case errors.Is(err, registry.ErrSourceNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "source not found"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete source"})
	default:
		c.Status(http.StatusNoContent)
	}
}
