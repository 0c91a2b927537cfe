package adapter

import (
	"strconv"
	"strings"
	"time"
)

// dateLayouts are tried in order when parsing publish dates. Covers
// ISO 8601 / RFC 3339, the RFC 2822 family used by RSS, Dublin Core
// dates, and a few loose timestamp shapes seen in the wild.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05",
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	time.RFC850,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02 Jan 2006",
	"January 2, 2006",
}

// ParseDate parses a publish date in any supported format. Returns nil
// when the value is empty or unparseable; adapters treat a missing
// date as "unknown", not as an error.
func ParseDate(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return &t
		}
	}

	// Fallback: epoch seconds or milliseconds.
	if secs, err := strconv.ParseInt(value, 10, 64); err == nil && secs > 0 {
		const msThreshold = 1e12
		if secs >= msThreshold {
			t := time.UnixMilli(secs).UTC()
			return &t
		}
		t := time.Unix(secs, 0).UTC()
		return &t
	}

	return nil
}
