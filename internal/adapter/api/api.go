// Package api implements the source adapter for REST/JSON endpoints.
// One authenticated GET per crawl; the item collection is located by a
// configurable dot path and each raw item is field-mapped into the
// normalized shape.
package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/tidwall/gjson"

	"github.com/jonesrussell/goharvest/internal/adapter"
	"github.com/jonesrussell/goharvest/internal/domain"
	"github.com/jonesrussell/goharvest/internal/logger"
)

// Adapter fetches and normalizes JSON API sources.
type Adapter struct {
	fetcher adapter.HTTPFetcher
	log     logger.Interface
}

// New creates an API adapter.
func New(fetcher adapter.HTTPFetcher, log logger.Interface) *Adapter {
	if log == nil {
		log = logger.NewNoop()
	}
	return &Adapter{fetcher: fetcher, log: log}
}

// Type returns the source type this adapter handles.
func (a *Adapter) Type() domain.SourceType { return domain.SourceTypeAPI }

// Fetch calls the API once and returns normalized items. Items missing
// a title or resolvable URL are dropped.
func (a *Adapter) Fetch(ctx context.Context, source *domain.Source) ([]domain.NormalizedItem, error) {
	cfg, err := decodeConfig(source)
	if err != nil {
		return nil, err
	}

	requestURL, err := buildRequestURL(source.URL, cfg)
	if err != nil {
		return nil, err
	}

	opts := buildFetchOptions(cfg)
	adapter.SetConditional(&opts, source)

	resp, err := a.fetcher.Fetch(ctx, requestURL, opts)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotModified {
		return []domain.NormalizedItem{}, nil
	}
	if okErr := adapter.RequireOK(requestURL, resp); okErr != nil {
		return nil, okErr
	}
	adapter.SaveValidators(source, resp)

	if !gjson.ValidBytes(resp.Body) {
		return nil, &adapter.ParseError{
			URL:   requestURL,
			Cause: fmt.Errorf("response is not valid JSON"),
		}
	}

	collection := locateCollection(resp.Body, cfg.ItemsPath)
	if !collection.IsArray() {
		return nil, &adapter.ParseError{
			URL:   requestURL,
			Cause: fmt.Errorf("items path %q did not resolve to an array", cfg.ItemsPath),
		}
	}

	return a.normalize(source, cfg, collection), nil
}

// buildRequestURL applies static query parameters and query-placed API
// keys to the source URL.
func buildRequestURL(sourceURL string, cfg Config) (string, error) {
	u, err := url.Parse(sourceURL)
	if err != nil {
		return "", &adapter.ConfigError{Detail: "invalid api url", Cause: err}
	}

	q := u.Query()
	for k, v := range cfg.Query {
		q.Set(k, v)
	}
	if cfg.Auth.Type == AuthAPIKey && cfg.Auth.In == KeyInQuery {
		q.Set(cfg.Auth.KeyName, cfg.Auth.Key)
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// buildFetchOptions assembles headers and auth for the request.
func buildFetchOptions(cfg Config) adapter.FetchOptions {
	opts := adapter.FetchOptions{
		Accept:  "application/json",
		Headers: map[string]string{},
	}
	for k, v := range cfg.Headers {
		opts.Headers[k] = v
	}

	switch cfg.Auth.Type {
	case AuthBasic:
		opts.BasicUser = cfg.Auth.Username
		opts.BasicPass = cfg.Auth.Password
	case AuthBearer:
		opts.Headers["Authorization"] = "Bearer " + cfg.Auth.Token
	case AuthAPIKey:
		if cfg.Auth.In == KeyInHeader {
			opts.Headers[cfg.Auth.KeyName] = cfg.Auth.Key
		}
	}

	return opts
}

// locateCollection resolves the item collection, treating an empty
// path as "the response root is the array".
func locateCollection(body []byte, itemsPath string) gjson.Result {
	if itemsPath == "" {
		return gjson.ParseBytes(body)
	}
	return gjson.GetBytes(body, itemsPath)
}

// normalize field-maps each raw item, dropping ones that fail
// validation.
func (a *Adapter) normalize(source *domain.Source, cfg Config, collection gjson.Result) []domain.NormalizedItem {
	raw := collection.Array()
	items := make([]domain.NormalizedItem, 0, len(raw))

	for _, element := range raw {
		item, ok := a.normalizeElement(source, cfg, element)
		if !ok {
			a.log.Debug("api item dropped",
				"source", source.Name,
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

// normalizeElement maps one raw JSON element onto a NormalizedItem.
func (a *Adapter) normalizeElement(source *domain.Source, cfg Config, element gjson.Result) (domain.NormalizedItem, bool) {
	title := element.Get(cfg.fieldPath("title")).String()
	rawURL := element.Get(cfg.fieldPath("url")).String()
	if title == "" || rawURL == "" {
		return domain.NormalizedItem{}, false
	}

	resolved, err := adapter.ResolveURL(source.URL, rawURL)
	if err != nil {
		return domain.NormalizedItem{}, false
	}

	item := domain.NormalizedItem{
		Title:     title,
		Content:   element.Get(cfg.fieldPath("content")).String(),
		URL:       resolved,
		SourceURL: source.URL,
		Summary:   element.Get(cfg.fieldPath("summary")).String(),
		Author:    element.Get(cfg.fieldPath("author")).String(),
	}

	if img := element.Get(cfg.fieldPath("image")).String(); img != "" {
		item.Image = adapter.ResolveOptionalURL(source.URL, img)
	}
	if published := element.Get(cfg.fieldPath("published")); published.Exists() {
		item.PublishDate = adapter.ParseDate(published.String())
	}

	// Extra configured fields land in item metadata.
	for field, path := range cfg.Fields {
		if _, known := defaultFields[field]; known {
			continue
		}
		if v := element.Get(path); v.Exists() {
			item.SetMeta(field, v.Value())
		}
	}

	return item, true
}
