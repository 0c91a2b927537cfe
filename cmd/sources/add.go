package sources

import (
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/goharvest/cmd/common"
	"github.com/jonesrussell/goharvest/internal/domain"
)

// newAddCommand creates the add command, which registers a new source.
func newAddCommand() *cobra.Command {
	var (
		name          string
		sourceType    string
		url           string
		interval      time.Duration
		minInterval   time.Duration
		maxInterval   time.Duration
		contentTypes  []string
		adapterConfig string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a new source",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			source := &domain.Source{
				Name:          name,
				Type:          domain.SourceType(sourceType),
				URL:           url,
				Active:        true,
				FetchInterval: interval,
				MinInterval:   minInterval,
				MaxInterval:   maxInterval,
				ContentTypes:  domain.StringList(contentTypes),
			}
			if adapterConfig != "" {
				var cfg domain.JSONBMap
				if err := json.Unmarshal([]byte(adapterConfig), &cfg); err != nil {
					return fmt.Errorf("invalid adapter config: %w", err)
				}
				source.AdapterConfig = cfg
			}

			deps, err := common.Build(ctx)
			if err != nil {
				return err
			}
			defer deps.Close()

			if err := deps.Sources.Create(ctx, source); err != nil {
				return fmt.Errorf("failed to create source: %w", err)
			}

			deps.Logger.Info("source created",
				"id", source.ID,
				"name", source.Name,
				"type", source.Type)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "source name (required)")
	cmd.Flags().StringVar(&sourceType, "type", "feed", "source type: feed, api, scraper, or webhook")
	cmd.Flags().StringVar(&url, "url", "", "source URL (required)")
	cmd.Flags().DurationVar(&interval, "interval", time.Hour, "initial fetch interval")
	cmd.Flags().DurationVar(&minInterval, "min-interval", 30*time.Minute, "interval floor")
	cmd.Flags().DurationVar(&maxInterval, "max-interval", 48*time.Hour, "interval ceiling")
	cmd.Flags().StringSliceVar(&contentTypes, "content-types", nil, "content types this source yields")
	cmd.Flags().StringVar(&adapterConfig, "adapter-config", "", "adapter configuration as JSON")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("url")

	return cmd
}
