// Package domain provides domain models used across the application.
package domain

import (
	"fmt"
	"time"
)

// SourceType identifies which adapter handles a source.
type SourceType string

const (
	SourceTypeFeed    SourceType = "feed"
	SourceTypeAPI     SourceType = "api"
	SourceTypeScraper SourceType = "scraper"
	SourceTypeWebhook SourceType = "webhook"
)

// ValidSourceType reports whether t is a known source type.
func ValidSourceType(t SourceType) bool {
	switch t {
	case SourceTypeFeed, SourceTypeAPI, SourceTypeScraper, SourceTypeWebhook:
		return true
	default:
		return false
	}
}

// Source is a configured external origin of content.
type Source struct {
	ID            string     `db:"id" json:"id"`
	Name          string     `db:"name" json:"name"`
	Type          SourceType `db:"type" json:"type"`
	URL           string     `db:"url" json:"url"`
	AdapterConfig JSONBMap   `db:"adapter_config" json:"adapter_config"`
	ContentTypes  StringList `db:"content_types" json:"content_types"`
	Active        bool       `db:"active" json:"active"`

	// Scheduling state. FetchInterval is always kept inside
	// [MinInterval, MaxInterval] by the registry.
	FetchInterval time.Duration `db:"fetch_interval" json:"fetch_interval"`
	MinInterval   time.Duration `db:"min_interval" json:"min_interval"`
	MaxInterval   time.Duration `db:"max_interval" json:"max_interval"`
	LastFetchAt   *time.Time    `db:"last_fetch_at" json:"last_fetch_at,omitempty"`
	NextFetchAt   *time.Time    `db:"next_fetch_at" json:"next_fetch_at,omitempty"`

	// ETag / LastModified are the HTTP validators from the last
	// successful poll. Adapters replay them as a conditional request
	// and refresh them from the response.
	ETag         string `db:"etag" json:"etag,omitempty"`
	LastModified string `db:"last_modified" json:"last_modified,omitempty"`

	// Optional per-crawl quotas. Zero means unlimited.
	QuotaMaxItems int `db:"quota_max_items" json:"quota_max_items,omitempty"`
	QuotaMaxSize  int `db:"quota_max_size" json:"quota_max_size,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Validate checks structural invariants on a source definition.
func (s *Source) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("source %q: name is required", s.ID)
	}
	if s.URL == "" {
		return fmt.Errorf("source %q: url is required", s.Name)
	}
	if !ValidSourceType(s.Type) {
		return fmt.Errorf("source %q: unknown type %q", s.Name, s.Type)
	}
	if s.MinInterval <= 0 || s.MaxInterval <= 0 {
		return fmt.Errorf("source %q: min/max interval must be positive", s.Name)
	}
	if s.MinInterval > s.MaxInterval {
		return fmt.Errorf("source %q: min interval %s exceeds max interval %s",
			s.Name, s.MinInterval, s.MaxInterval)
	}
	if s.FetchInterval < s.MinInterval || s.FetchInterval > s.MaxInterval {
		return fmt.Errorf("source %q: fetch interval %s outside [%s, %s]",
			s.Name, s.FetchInterval, s.MinInterval, s.MaxInterval)
	}
	return nil
}

// ClampInterval forces d into the source's [MinInterval, MaxInterval] range.
func (s *Source) ClampInterval(d time.Duration) time.Duration {
	if d < s.MinInterval {
		return s.MinInterval
	}
	if d > s.MaxInterval {
		return s.MaxInterval
	}
	return d
}

// Due reports whether the source is eligible for crawling at now.
// A source with no scheduled next fetch is always due once active.
func (s *Source) Due(now time.Time) bool {
	if !s.Active {
		return false
	}
	return s.NextFetchAt == nil || !s.NextFetchAt.After(now)
}
