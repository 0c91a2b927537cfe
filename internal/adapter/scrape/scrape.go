// Package scrape implements the source adapter for arbitrary web
// pages. Pages are fetched over HTTP, optionally routed through an
// external JS-rendering service, and items are extracted with one of
// four selector dialects before content cleaning.
package scrape

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/jonesrussell/goharvest/internal/adapter"
	"github.com/jonesrussell/goharvest/internal/domain"
	"github.com/jonesrussell/goharvest/internal/logger"
)

// Adapter fetches and normalizes scraped sources.
type Adapter struct {
	fetcher   adapter.HTTPFetcher
	renderURL string
	log       logger.Interface
}

// New creates a scraper adapter. renderURL is the base URL of the
// JS-rendering service; empty disables the render hop.
func New(fetcher adapter.HTTPFetcher, renderURL string, log logger.Interface) *Adapter {
	if log == nil {
		log = logger.NewNoop()
	}
	return &Adapter{fetcher: fetcher, renderURL: renderURL, log: log}
}

// Type returns the source type this adapter handles.
func (a *Adapter) Type() domain.SourceType { return domain.SourceTypeScraper }

// Fetch scrapes the source page once and returns normalized items.
// Items missing a title are dropped; items missing a URL fall back to
// the page URL.
func (a *Adapter) Fetch(ctx context.Context, source *domain.Source) ([]domain.NormalizedItem, error) {
	cfg, err := decodeConfig(source)
	if err != nil {
		return nil, err
	}

	requestURL := source.URL
	rendered := cfg.Render && a.renderURL != ""
	if rendered {
		requestURL = a.renderURL + "?url=" + url.QueryEscape(source.URL)
	}

	opts := buildFetchOptions(cfg)
	// Validators describe the origin page; a render-service response
	// is a different document.
	if !rendered {
		adapter.SetConditional(&opts, source)
	}

	resp, err := a.fetcher.Fetch(ctx, requestURL, opts)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotModified {
		return []domain.NormalizedItem{}, nil
	}
	if okErr := adapter.RequireOK(source.URL, resp); okErr != nil {
		return nil, okErr
	}
	if !rendered {
		adapter.SaveValidators(source, resp)
	}

	sets, err := engineFor(cfg.Dialect).extract(resp.Body, cfg)
	if err != nil {
		return nil, &adapter.ParseError{URL: source.URL, Cause: err}
	}

	items := make([]domain.NormalizedItem, 0, len(sets))
	for _, fields := range sets {
		item, ok := a.normalize(source, cfg, fields)
		if !ok {
			a.log.Debug("scraped item dropped",
				"source", source.Name,
			)
			continue
		}

		items = append(items, item)
		if cfg.MaxItems > 0 && len(items) >= cfg.MaxItems {
			break
		}
	}

	return items, nil
}

func buildFetchOptions(cfg Config) adapter.FetchOptions {
	opts := adapter.FetchOptions{
		Accept:  "text/html,application/xhtml+xml,application/json;q=0.8",
		Headers: map[string]string{},
	}

	switch cfg.Auth.Type {
	case AuthBasic:
		opts.BasicUser = cfg.Auth.Username
		opts.BasicPass = cfg.Auth.Password
	case AuthCookie:
		opts.Headers["Cookie"] = cfg.Auth.Cookie
	case AuthHeader:
		opts.Headers[cfg.Auth.Name] = cfg.Auth.Value
	}

	return opts
}

func (a *Adapter) normalize(source *domain.Source, cfg Config, fields fieldSet) (domain.NormalizedItem, bool) {
	title := strings.TrimSpace(fields["title"])
	if title == "" {
		return domain.NormalizedItem{}, false
	}

	itemURL := source.URL
	if raw := fields["url"]; raw != "" {
		resolved, err := adapter.ResolveURL(source.URL, raw)
		if err != nil {
			return domain.NormalizedItem{}, false
		}
		itemURL = resolved
	}

	item := domain.NormalizedItem{
		Title:       title,
		Content:     cleanContent(fields["content"], cfg.Clean),
		URL:         itemURL,
		SourceURL:   source.URL,
		Summary:     cleanContent(fields["summary"], CleanConfig{TextOnly: true}),
		Author:      strings.TrimSpace(fields["author"]),
		PublishDate: adapter.ParseDate(fields["published"]),
	}
	if img := fields["image"]; img != "" {
		item.Image = adapter.ResolveOptionalURL(source.URL, img)
	}

	for key, value := range fields {
		if _, known := knownFields[key]; known {
			continue
		}
		if value != "" {
			item.SetMeta(key, value)
		}
	}

	return item, true
}
