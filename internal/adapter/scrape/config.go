package scrape

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/jonesrussell/goharvest/internal/adapter"
	"github.com/jonesrussell/goharvest/internal/domain"
)

// Selector dialects.
const (
	DialectCSS    = "css"
	DialectXPath  = "xpath"
	DialectRegex  = "regex"
	DialectSchema = "schema"
)

// Auth modes.
const (
	AuthNone   = ""
	AuthBasic  = "basic"
	AuthCookie = "cookie"
	AuthHeader = "header"
)

// AuthConfig holds scrape-target credentials.
type AuthConfig struct {
	Type     string `mapstructure:"type"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Cookie   string `mapstructure:"cookie"`
	Name     string `mapstructure:"name"`
	Value    string `mapstructure:"value"`
}

// CleanConfig controls content cleaning before storage.
type CleanConfig struct {
	StripScripts        *bool `mapstructure:"strip_scripts"`
	NormalizeWhitespace *bool `mapstructure:"normalize_whitespace"`
	TextOnly            bool  `mapstructure:"text_only"`
}

func (c CleanConfig) stripScripts() bool {
	return c.StripScripts == nil || *c.StripScripts
}

func (c CleanConfig) normalizeWhitespace() bool {
	return c.NormalizeWhitespace == nil || *c.NormalizeWhitespace
}

// Config is the scraper adapter configuration carried in
// Source.AdapterConfig.
type Config struct {
	// Dialect selects the selector engine. Defaults to css.
	Dialect string `mapstructure:"dialect"`

	// Render routes the fetch through the external JS-rendering
	// service when one is configured.
	Render bool `mapstructure:"render"`

	Auth AuthConfig `mapstructure:"auth"`

	// ItemSelector splits the page into item nodes. Empty means the
	// whole page is a single item.
	ItemSelector string `mapstructure:"item_selector"`

	// Selectors maps normalized field names to dialect expressions.
	// Keys outside the known field set land in item metadata.
	Selectors map[string]string `mapstructure:"selectors"`

	// SchemaType restricts schema-dialect extraction to one JSON-LD
	// @type (e.g. "Article"). Empty matches any node with a headline
	// or name.
	SchemaType string `mapstructure:"schema_type"`

	Clean    CleanConfig `mapstructure:"clean"`
	MaxItems int         `mapstructure:"max_items"`
}

// knownFields are the selector keys mapped onto NormalizedItem
// directly; anything else goes to Meta.
var knownFields = map[string]struct{}{
	"title":     {},
	"url":       {},
	"content":   {},
	"summary":   {},
	"author":    {},
	"image":     {},
	"published": {},
}

func (c Config) validate() error {
	switch c.Dialect {
	case DialectCSS, DialectXPath, DialectRegex, DialectSchema:
	default:
		return &adapter.ConfigError{
			Detail: fmt.Sprintf("unknown selector dialect %q", c.Dialect),
		}
	}

	switch c.Auth.Type {
	case AuthNone, AuthBasic:
	case AuthCookie:
		if c.Auth.Cookie == "" {
			return &adapter.ConfigError{Detail: "cookie auth requires cookie"}
		}
	case AuthHeader:
		if c.Auth.Name == "" {
			return &adapter.ConfigError{Detail: "header auth requires name"}
		}
	default:
		return &adapter.ConfigError{
			Detail: fmt.Sprintf("unknown auth type %q", c.Auth.Type),
		}
	}

	return nil
}

func decodeConfig(source *domain.Source) (Config, error) {
	var cfg Config
	if err := mapstructure.Decode(map[string]any(source.AdapterConfig), &cfg); err != nil {
		return Config{}, &adapter.ConfigError{
			Detail: "invalid scraper config for source " + source.Name,
			Cause:  err,
		}
	}

	if cfg.Dialect == "" {
		cfg.Dialect = DialectCSS
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
