// Package api implements the HTTP control surface: harvest triggers,
// run status, and CRUD over sources and stored content.
package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/goharvest/internal/domain"
	"github.com/jonesrussell/goharvest/internal/logger"
	"github.com/jonesrussell/goharvest/internal/orchestrator"
	"github.com/jonesrussell/goharvest/internal/storage"
)

// Harvester is the orchestrator surface the API exposes.
type Harvester interface {
	Run(ctx context.Context) (*orchestrator.RunResult, error)
	RunSource(ctx context.Context, id string) (*orchestrator.RunResult, error)
	Status() orchestrator.Status
}

// SourceStore is the registry surface the API exposes.
type SourceStore interface {
	Create(ctx context.Context, source *domain.Source) error
	Get(ctx context.Context, id string) (*domain.Source, error)
	List(ctx context.Context) ([]domain.Source, error)
	Update(ctx context.Context, source *domain.Source) error
	SetActive(ctx context.Context, id string, active bool) error
	Delete(ctx context.Context, id string) error
}

// ContentReader is the storage surface the API exposes.
type ContentReader interface {
	Get(ctx context.Context, id string) (*domain.StoredContent, error)
	Query(ctx context.Context, filter storage.Filter) ([]domain.StoredContent, error)
	Count(ctx context.Context, filter storage.Filter) (int, error)
	Update(ctx context.Context, id string, patch domain.ContentPatch) error
	Delete(ctx context.Context, id string) (bool, error)
}

// Pinger reports backing-store reachability for the health endpoint.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Deps wires the handlers.
type Deps struct {
	Harvester Harvester
	Sources   SourceStore
	Content   ContentReader
	DB        Pinger
	Logger    logger.Interface
}

// NewRouter builds the gin engine with all routes registered.
func NewRouter(deps Deps) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = logger.NewNoop()
	}

	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		if deps.DB != nil {
			if err := deps.DB.PingContext(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":   "degraded",
					"database": "unreachable",
				})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	harvest := &HarvestHandler{harvester: deps.Harvester, log: deps.Logger}
	sources := &SourcesHandler{store: deps.Sources, log: deps.Logger}
	content := &ContentHandler{store: deps.Content, log: deps.Logger}

	v1 := router.Group("/api/v1")
	{
		v1.POST("/harvest/run", harvest.Run)
		v1.POST("/harvest/sources/:id/run", harvest.RunSource)
		v1.GET("/harvest/status", harvest.Status)

		v1.GET("/sources", sources.List)
		v1.POST("/sources", sources.Create)
		v1.GET("/sources/:id", sources.Get)
		v1.PUT("/sources/:id", sources.Update)
		v1.POST("/sources/:id/enable", sources.Enable)
		v1.POST("/sources/:id/disable", sources.Disable)
		v1.DELETE("/sources/:id", sources.Delete)

		v1.GET("/content", content.List)
		v1.GET("/content/:id", content.Get)
		v1.PATCH("/content/:id", content.Update)
		v1.DELETE("/content/:id", content.Delete)
	}

	return router
}
