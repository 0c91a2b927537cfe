package adapter

import (
	"github.com/jonesrussell/goharvest/internal/domain"
)

// SetConditional replays the source's stored validators so the server
// can answer 304 instead of resending an unchanged document.
func SetConditional(opts *FetchOptions, source *domain.Source) {
	if source.ETag != "" {
		etag := source.ETag
		opts.ETag = &etag
	}
	if source.LastModified != "" {
		lastModified := source.LastModified
		opts.LastModified = &lastModified
	}
}

// SaveValidators stores the response validators on the source. The
// orchestrator persists them when it records the crawl outcome, so
// the next poll of this source is conditional.
func SaveValidators(source *domain.Source, resp *FetchResponse) {
	if resp.ETag != nil {
		source.ETag = *resp.ETag
	}
	if resp.LastModified != nil {
		source.LastModified = *resp.LastModified
	}
}
