package api

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/jonesrussell/goharvest/internal/adapter"
	"github.com/jonesrussell/goharvest/internal/domain"
)

// Auth modes accepted by the API adapter.
const (
	AuthNone   = ""
	AuthBasic  = "basic"
	AuthBearer = "bearer"
	AuthAPIKey = "api_key"
)

// API key placement.
const (
	KeyInHeader = "header"
	KeyInQuery  = "query"
)

// AuthConfig describes how requests to the API are authenticated.
type AuthConfig struct {
	Type     string `mapstructure:"type"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Token    string `mapstructure:"token"`
	// Key/KeyName/In configure api_key auth: KeyName is the header or
	// query parameter name, In selects where it goes.
	Key     string `mapstructure:"key"`
	KeyName string `mapstructure:"key_name"`
	In      string `mapstructure:"in"`
}

// Config is the API adapter's slice of a source's adapter config.
type Config struct {
	// ItemsPath is a dot path (gjson syntax, [n] indices supported as
	// numeric segments) to the item collection in the response. Empty
	// means the response root is the array.
	ItemsPath string `mapstructure:"items_path"`
	// Fields maps normalized field names (title, url, content, summary,
	// author, image, published) to dot paths inside each raw item. Keys
	// outside the known set land in item Meta.
	Fields map[string]string `mapstructure:"fields"`
	// Query adds static query parameters to the request.
	Query map[string]string `mapstructure:"query"`
	// Headers adds static request headers.
	Headers map[string]string `mapstructure:"headers"`
	Auth    AuthConfig        `mapstructure:"auth"`
	// MaxItems caps items taken from one call. Zero means no cap.
	MaxItems int `mapstructure:"max_items"`
}

// defaultFields is the mapping used when a field is not configured.
var defaultFields = map[string]string{
	"title":     "title",
	"url":       "url",
	"content":   "content",
	"summary":   "summary",
	"author":    "author",
	"image":     "image",
	"published": "published",
}

// fieldPath returns the configured dot path for a normalized field,
// falling back to the conventional name.
func (c Config) fieldPath(field string) string {
	if path, ok := c.Fields[field]; ok {
		return path
	}
	return defaultFields[field]
}

// validate rejects auth configurations the adapter cannot honor.
func (c Config) validate(sourceName string) error {
	switch c.Auth.Type {
	case AuthNone, AuthBasic, AuthBearer:
	case AuthAPIKey:
		if c.Auth.Key == "" || c.Auth.KeyName == "" {
			return &adapter.ConfigError{
				Detail: fmt.Sprintf("api source %q: api_key auth requires key and key_name", sourceName),
			}
		}
		if c.Auth.In != KeyInHeader && c.Auth.In != KeyInQuery {
			return &adapter.ConfigError{
				Detail: fmt.Sprintf("api source %q: api_key auth 'in' must be header or query", sourceName),
			}
		}
	default:
		return &adapter.ConfigError{
			Detail: fmt.Sprintf("api source %q: unknown auth type %q", sourceName, c.Auth.Type),
		}
	}
	return nil
}

// decodeConfig converts the opaque per-source config map into a typed
// API config and validates it.
func decodeConfig(source *domain.Source) (Config, error) {
	var cfg Config
	if err := mapstructure.Decode(map[string]any(source.AdapterConfig), &cfg); err != nil {
		return Config{}, &adapter.ConfigError{
			Detail: fmt.Sprintf("api config for source %q", source.Name),
			Cause:  err,
		}
	}
	if err := cfg.validate(source.Name); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
