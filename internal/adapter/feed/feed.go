// Package feed implements the source adapter for RSS, Atom, and RDF
// feeds. Format detection is delegated to gofeed; when the configured
// URL turns out to be an HTML page, autodiscovery locates the real
// feed before giving up.
package feed

import (
	"bytes"
	"context"
	"net/http"

	"github.com/mmcdole/gofeed"

	"github.com/jonesrussell/goharvest/internal/adapter"
	"github.com/jonesrussell/goharvest/internal/domain"
	"github.com/jonesrussell/goharvest/internal/logger"
)

// feedAccept is the Accept header sent when polling feeds.
const feedAccept = "application/rss+xml, application/atom+xml, application/xml;q=0.9, text/xml;q=0.8, */*;q=0.1"

// Adapter fetches and normalizes feed sources.
type Adapter struct {
	fetcher adapter.HTTPFetcher
	log     logger.Interface
}

// New creates a feed adapter.
func New(fetcher adapter.HTTPFetcher, log logger.Interface) *Adapter {
	if log == nil {
		log = logger.NewNoop()
	}
	return &Adapter{fetcher: fetcher, log: log}
}

// Type returns the source type this adapter handles.
func (a *Adapter) Type() domain.SourceType { return domain.SourceTypeFeed }

// Fetch polls the source's feed and returns normalized items. Items
// missing a title, permalink, or (by default) content are dropped.
func (a *Adapter) Fetch(ctx context.Context, source *domain.Source) ([]domain.NormalizedItem, error) {
	cfg, err := decodeConfig(source)
	if err != nil {
		return nil, err
	}

	opts := adapter.FetchOptions{Accept: feedAccept}
	adapter.SetConditional(&opts, source)

	resp, err := a.fetcher.Fetch(ctx, source.URL, opts)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotModified {
		a.log.Debug("feed not modified", "source", source.Name)
		return []domain.NormalizedItem{}, nil
	}
	if okErr := adapter.RequireOK(source.URL, resp); okErr != nil {
		return nil, okErr
	}
	adapter.SaveValidators(source, resp)

	parsed, parseErr := gofeed.NewParser().Parse(bytes.NewReader(resp.Body))
	if parseErr != nil {
		if !cfg.autodiscover() {
			return nil, &adapter.ParseError{URL: source.URL, Cause: parseErr}
		}

		parsed, err = a.discoverAndParse(ctx, source.URL, resp.Body)
		if err != nil {
			return nil, err
		}
	}

	return a.normalize(source, cfg, parsed), nil
}

// discoverAndParse runs feed autodiscovery against the fetched page and
// parses the first feed it finds.
func (a *Adapter) discoverAndParse(ctx context.Context, pageURL string, body []byte) (*gofeed.Feed, error) {
	feedURL := discoverFeedURL(pageURL, body)
	if feedURL == "" {
		feedURL = a.probeCommonPaths(ctx, pageURL)
	}
	if feedURL == "" || feedURL == pageURL {
		return nil, &adapter.ParseError{
			URL:   pageURL,
			Cause: errNoFeedFound,
		}
	}

	a.log.Info("feed autodiscovered",
		"page_url", pageURL,
		"feed_url", feedURL,
	)

	resp, err := a.fetcher.Fetch(ctx, feedURL, adapter.FetchOptions{Accept: feedAccept})
	if err != nil {
		return nil, err
	}
	if okErr := adapter.RequireOK(feedURL, resp); okErr != nil {
		return nil, okErr
	}

	parsed, parseErr := gofeed.NewParser().Parse(bytes.NewReader(resp.Body))
	if parseErr != nil {
		return nil, &adapter.ParseError{URL: feedURL, Cause: parseErr}
	}
	return parsed, nil
}

// probeCommonPaths tries well-known feed paths off the page's root.
func (a *Adapter) probeCommonPaths(ctx context.Context, pageURL string) string {
	for _, path := range commonFeedPaths {
		candidate := adapter.ResolveOptionalURL(pageURL, path)
		if candidate == "" {
			continue
		}

		resp, err := a.fetcher.Fetch(ctx, candidate, adapter.FetchOptions{Accept: feedAccept})
		if err != nil || resp.StatusCode != http.StatusOK {
			continue
		}
		if _, parseErr := gofeed.NewParser().Parse(bytes.NewReader(resp.Body)); parseErr == nil {
			return candidate
		}
	}
	return ""
}

// normalize converts parsed feed entries into normalized items,
// dropping entries that fail validation.
func (a *Adapter) normalize(source *domain.Source, cfg Config, parsed *gofeed.Feed) []domain.NormalizedItem {
	items := make([]domain.NormalizedItem, 0, len(parsed.Items))

	for _, entry := range parsed.Items {
		item, ok := a.normalizeEntry(source, cfg, entry)
		if !ok {
			a.log.Debug("feed entry dropped",
				"source", source.Name,
				"title", entry.Title,
			)
			continue
		}

		items = append(items, item)
		if cfg.MaxItems > 0 && len(items) >= cfg.MaxItems {
			break
		}
	}

	return items
}

// normalizeEntry maps one gofeed entry to a NormalizedItem. Returns
// false when the entry is missing a title, permalink, or content.
func (a *Adapter) normalizeEntry(source *domain.Source, cfg Config, entry *gofeed.Item) (domain.NormalizedItem, bool) {
	link := extractLink(entry)
	if link == "" || entry.Title == "" {
		return domain.NormalizedItem{}, false
	}

	permalink, err := adapter.ResolveURL(source.URL, link)
	if err != nil {
		return domain.NormalizedItem{}, false
	}

	content := entry.Content
	if content == "" {
		content = entry.Description
	}
	if content == "" && cfg.requireContent() {
		return domain.NormalizedItem{}, false
	}

	item := domain.NormalizedItem{
		Title:       entry.Title,
		Content:     content,
		URL:         permalink,
		SourceURL:   source.URL,
		Summary:     entry.Description,
		PublishDate: extractDate(entry),
		Author:      extractAuthor(entry),
		Media:       extractMedia(source.URL, entry),
	}
	if img := extractImage(source.URL, entry, content); img != "" {
		item.Image = img
	}
	if len(entry.Categories) > 0 {
		item.SetMeta("categories", entry.Categories)
	}
	if entry.GUID != "" {
		item.SetMeta("guid", entry.GUID)
	}

	return item, true
}
