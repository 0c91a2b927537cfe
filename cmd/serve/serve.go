// Package serve implements the HTTP server command. It exposes the
// control API and keeps the harvest loop running on the configured
// cadence.
package serve

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/goharvest/cmd/common"
	"github.com/jonesrussell/goharvest/internal/api"
	"github.com/jonesrussell/goharvest/internal/config"
	"github.com/jonesrussell/goharvest/internal/orchestrator"
)

const shutdownTimeout = 10 * time.Second

// Command returns the serve command.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and run harvests on a schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			deps, err := common.Build(ctx)
			if err != nil {
				return err
			}
			defer deps.Close()

			return run(ctx, deps)
		},
	}
}

func run(ctx context.Context, deps *common.Deps) error {
	router := api.NewRouter(api.Deps{
		Harvester: deps.Orchestrator,
		Sources:   deps.Sources,
		Content:   deps.Content,
		DB:        deps.DB,
		Logger:    deps.Logger,
	})

	server := &http.Server{
		Addr:         deps.Config.Server.Address,
		Handler:      router,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
	}

	scheduler := cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger)))
	spec := cadenceSpec(deps.Config.Harvest.BaseCadence)
	_, err := scheduler.AddFunc(spec, func() {
		result, runErr := deps.Orchestrator.Run(ctx)
		if errors.Is(runErr, orchestrator.ErrAlreadyRunning) {
			deps.Logger.Warn("scheduled harvest skipped, previous run still in progress")
			return
		}
		if runErr != nil {
			deps.Logger.Error("scheduled harvest failed", "error", runErr)
			return
		}
		deps.Logger.Info("scheduled harvest finished",
			"sources", result.SourcesProcessed,
			"new_items", result.NewItems,
			"errors", result.Errors)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule harvest: %w", err)
	}
	scheduler.Start()

	errCh := make(chan error, 1)
	go func() {
		deps.Logger.Info("http server listening",
			"address", server.Addr,
			"cadence", deps.Config.Harvest.BaseCadence)
		if serveErr := server.ListenAndServe(); !errors.Is(serveErr, http.ErrServerClosed) {
			errCh <- serveErr
		}
	}()

	select {
	case err := <-errCh:
		scheduler.Stop()
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	deps.Logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown failed: %w", err)
	}

	// Let an in-flight scheduled harvest finish before returning.
	<-scheduler.Stop().Done()

	return nil
}

// cadenceSpec maps a cadence name to a cron spec.
func cadenceSpec(cadence string) string {
	switch cadence {
	case config.CadenceTwiceDaily:
		return "0 0,12 * * *"
	case config.CadenceDaily:
		return "@daily"
	default:
		return "@hourly"
	}
}
