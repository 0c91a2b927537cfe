package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/goharvest/internal/domain"
	"github.com/jonesrussell/goharvest/internal/logger"
	"github.com/jonesrussell/goharvest/internal/storage"
)

// ContentHandler exposes stored content queries.
type ContentHandler struct {
	store ContentReader
	log   logger.Interface
}

// List handles GET /api/v1/content with filter query parameters.
func (h *ContentHandler) List(c *gin.Context) {
	filter := storage.Filter{
		Type:      c.Query("type"),
		Status:    domain.ContentStatus(c.Query("status")),
		SourceID:  c.Query("source_id"),
		Search:    c.Query("q"),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	if v := c.Query("min_quality"); v != "" {
		minQuality, err := strconv.ParseFloat(v, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid min_quality"})
			return
		}
		filter.MinQuality = &minQuality
	}
	filter.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	filter.Offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))

	results, err := h.store.Query(c.Request.Context(), filter)
	if err != nil {
		h.log.Error("content query failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "content query failed"})
		return
	}

	total, err := h.store.Count(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "content count failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"content": results, "total": total})
}

// Get handles GET /api/v1/content/:id.
func (h *ContentHandler) Get(c *gin.Context) {
	content, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, storage.ErrContentNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "content not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get content"})
		return
	}

	c.JSON(http.StatusOK, content)
}

// Update handles PATCH /api/v1/content/:id.
func (h *ContentHandler) Update(c *gin.Context) {
	var patch domain.ContentPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	if patch.Status != nil && !domain.ValidContentStatus(*patch.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status"})
		return
	}

	err := h.store.Update(c.Request.Context(), c.Param("id"), patch)
	switch {
	case errors.Is(err, storage.ErrContentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "content not found"})
	case err != nil:
		h.log.Error("content update failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "content update failed"})
	default:
		c.Status(http.StatusNoContent)
	}
}

// Delete handles DELETE /api/v1/content/:id.
func (h *ContentHandler) Delete(c *gin.Context) {
	deleted, err := h.store.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "content delete failed"})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "content not found"})
		return
	}

	c.Status(http.StatusNoContent)
}
