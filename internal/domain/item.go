package domain

import "time"

// MediaRef is an attachment discovered on an item (enclosure,
// media:content entry, or inline image).
type MediaRef struct {
	URL  string `json:"url"`
	Type string `json:"type,omitempty"`
	Size int64  `json:"size,omitempty"`
}

// NormalizedItem is the common item shape every adapter produces.
// Title and URL are mandatory; adapters drop items missing either.
// URL and Image are always absolute, resolved against the source.
type NormalizedItem struct {
	Title       string         `json:"title"`
	Content     string         `json:"content"`
	URL         string         `json:"url"`
	SourceURL   string         `json:"source_url"`
	PublishDate *time.Time     `json:"publish_date,omitempty"`
	Author      string         `json:"author,omitempty"`
	Image       string         `json:"image,omitempty"`
	Summary     string         `json:"summary,omitempty"`
	Media       []MediaRef     `json:"media,omitempty"`
	Meta        map[string]any `json:"meta,omitempty"`

	// Attached by the orchestrator before processing, not by adapters.
	SourceID   string `json:"source_id,omitempty"`
	SourceName string `json:"source_name,omitempty"`
}

// Valid reports whether the item carries the mandatory fields.
func (n *NormalizedItem) Valid() bool {
	return n.Title != "" && n.URL != ""
}

// SetMeta stores a metadata value, allocating the map on first use.
func (n *NormalizedItem) SetMeta(key string, value any) {
	if n.Meta == nil {
		n.Meta = make(map[string]any)
	}
	n.Meta[key] = value
}
