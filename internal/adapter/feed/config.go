package feed

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/jonesrussell/goharvest/internal/adapter"
	"github.com/jonesrussell/goharvest/internal/domain"
)

// Config is the feed adapter's slice of a source's adapter config.
type Config struct {
	// Autodiscover enables feed autodiscovery when the source URL does
	// not parse as a feed (HTML landing page instead of the feed
	// itself). On by default.
	Autodiscover *bool `mapstructure:"autodiscover"`
	// RequireContent drops items whose content/description is empty.
	// On by default; some aggregation setups want title-only items.
	RequireContent *bool `mapstructure:"require_content"`
	// MaxItems caps items taken from one poll. Zero means no cap.
	MaxItems int `mapstructure:"max_items"`
}

// autodiscover returns the effective autodiscovery flag.
func (c Config) autodiscover() bool {
	return c.Autodiscover == nil || *c.Autodiscover
}

// requireContent returns the effective content requirement flag.
func (c Config) requireContent() bool {
	return c.RequireContent == nil || *c.RequireContent
}

// decodeConfig converts the opaque per-source config map into a typed
// feed config.
func decodeConfig(source *domain.Source) (Config, error) {
	var cfg Config
	if err := mapstructure.Decode(map[string]any(source.AdapterConfig), &cfg); err != nil {
		return Config{}, &adapter.ConfigError{
			Detail: fmt.Sprintf("feed config for source %q", source.Name),
			Cause:  err,
		}
	}
	return cfg, nil
}
