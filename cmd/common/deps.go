// Package common wires the shared dependency graph used by the CLI
// commands: config, logger, database, repositories, adapters, and the
// harvest orchestrator.
package common

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"

	"github.com/jonesrussell/goharvest/internal/adapter"
	apiadapter "github.com/jonesrussell/goharvest/internal/adapter/api"
	"github.com/jonesrussell/goharvest/internal/adapter/feed"
	"github.com/jonesrussell/goharvest/internal/adapter/scrape"
	"github.com/jonesrussell/goharvest/internal/config"
	"github.com/jonesrussell/goharvest/internal/database"
	"github.com/jonesrussell/goharvest/internal/dedup"
	"github.com/jonesrussell/goharvest/internal/logger"
	"github.com/jonesrussell/goharvest/internal/metrics"
	"github.com/jonesrussell/goharvest/internal/orchestrator"
	"github.com/jonesrussell/goharvest/internal/processor"
	"github.com/jonesrussell/goharvest/internal/registry"
	"github.com/jonesrussell/goharvest/internal/storage"
)

// Deps holds the constructed dependency graph for a command.
type Deps struct {
	Config       *config.Config
	Logger       logger.Interface
	DB           *sqlx.DB
	Sources      *registry.Repository
	Content      *storage.ContentStore
	Metrics      *metrics.Repository
	Orchestrator *orchestrator.Orchestrator

	redisClient *redis.Client
}

// Build constructs the full dependency graph from the global viper
// state, connects to the database, and runs migrations.
func Build(ctx context.Context) (*Deps, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Logger.Level,
		Encoding:    cfg.Logger.Encoding,
		Development: cfg.Logger.Development,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	db, err := database.NewPostgresConnection(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	deps := &Deps{
		Config:  cfg,
		Logger:  log,
		DB:      db,
		Sources: registry.NewRepository(db, log),
		Content: storage.NewContentStore(db, log),
		Metrics: metrics.NewRepository(db),
	}

	var cache *dedup.Cache
	if cfg.Redis.Enabled {
		deps.redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		cache = dedup.NewCache(deps.redisClient, 0)
	}

	fetcher := adapter.NewFetcher(cfg.Harvest.FetchTimeout, cfg.Harvest.UserAgent)
	adapters := adapter.NewRegistry()
	adapters.Register(feed.New(fetcher, log))
	adapters.Register(apiadapter.New(fetcher, log))
	adapters.Register(scrape.New(fetcher, cfg.Harvest.RenderServiceURL, log))

	deps.Orchestrator = orchestrator.New(
		deps.Sources,
		deps.Content,
		deps.Metrics,
		processor.NewDefault("article"),
		cache,
		adapters,
		orchestrator.Config{
			SourceLimit:   cfg.Harvest.SourceLimit,
			Concurrency:   cfg.Harvest.Concurrency,
			RetryCount:    cfg.Harvest.RetryCount,
			FetchTimeout:  cfg.Harvest.FetchTimeout,
			BaseInterval:  cfg.Harvest.BaseInterval(),
			MetricsWindow: cfg.Harvest.MetricsWindow,
			MinRunGap:     config.DefaultMinRunGap,
			MaxRunGap:     config.DefaultMaxRunGap,
		},
		log,
	)

	return deps, nil
}

// Close releases the connections held by the dependency graph.
func (d *Deps) Close() {
	if d.redisClient != nil {
		if err := d.redisClient.Close(); err != nil {
			d.Logger.Warn("failed to close redis client", "error", err)
		}
	}
	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			d.Logger.Warn("failed to close database", "error", err)
		}
	}
}
