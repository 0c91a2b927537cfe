package scrape_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/goharvest/internal/adapter"
	"github.com/jonesrussell/goharvest/internal/adapter/scrape"
	"github.com/jonesrussell/goharvest/internal/domain"
)

const listingPage = `<!DOCTYPE html>
<html><body>
<div class="listing">
  <article><h2>First Story</h2><a href="/news/first">more</a><div class="body">Body <b>one</b>.<script>track()</script></div></article>
  <article><h2>Second Story</h2><a href="https://cdn.example.net/second">more</a><div class="body">Body two.</div></article>
  <article><h2></h2><a href="/news/untitled-a">more</a><div class="body">No title.</div></article>
  <article><h2>Third Story</h2><a href="../third">more</a><div class="body">Body three.</div></article>
  <article><a href="/news/untitled-b">more</a><div class="body">Also no title.</div></article>
</div>
</body></html>`

const articlePage = `<html><body>
<h1 id="headline">  Deep   Dive  </h1>
<div id="story"><p>Paragraph one.</p><style>p{}</style><p>Paragraph two.</p></div>
</body></html>`

const schemaPage = `<html><head>
<script type="application/ld+json">
{"@context":"https://schema.org","@graph":[
  {"@type":"WebSite","name":"Example"},
  {"@type":"Article","headline":"Graph Story","articleBody":"From the graph.","url":"https://example.com/graph-story","datePublished":"2024-03-01T10:15:00Z","author":{"name":"G. Writer"}}
]}
</script>
</head><body></body></html>`

type fakeFetcher struct {
	body     string
	status   int
	lastURL  string
	lastOpts adapter.FetchOptions
	err      error
}

func (f *fakeFetcher) Fetch(_ context.Context, url string, opts adapter.FetchOptions) (*adapter.FetchResponse, error) {
	f.lastURL = url
	f.lastOpts = opts
	if f.err != nil {
		return nil, f.err
	}
	status := f.status
	if status == 0 {
		status = http.StatusOK
	}
	return &adapter.FetchResponse{StatusCode: status, Body: []byte(f.body)}, nil
}

func scrapeSource(cfg domain.JSONBMap) *domain.Source {
	return &domain.Source{
		ID:            "src-scrape",
		Name:          "city-news",
		Type:          domain.SourceTypeScraper,
		URL:           "https://example.com/news/latest",
		AdapterConfig: cfg,
	}
}

func TestFetch_CSSMultiItemDropsMissingTitles(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{body: listingPage}
	a := scrape.New(fetcher, "", nil)

	src := scrapeSource(domain.JSONBMap{
		"item_selector": "article",
		"selectors": map[string]any{
			"title":   "h2",
			"url":     "a@href",
			"content": ".body",
		},
	})

	items, err := a.Fetch(context.Background(), src)
	require.NoError(t, err)

	// Five item nodes, two without a title.
	require.Len(t, items, 3)

	assert.Equal(t, "First Story", items[0].Title)
	assert.Equal(t, "https://example.com/news/first", items[0].URL)
	assert.Equal(t, "https://cdn.example.net/second", items[1].URL)
	assert.Equal(t, "https://example.com/third", items[2].URL)

	// Scripts are stripped by default, markup is kept.
	assert.Contains(t, items[0].Content, "<b>one</b>")
	assert.NotContains(t, items[0].Content, "track()")
}

func TestFetch_PageAsSingleItem(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{body: articlePage}
	a := scrape.New(fetcher, "", nil)

	src := scrapeSource(domain.JSONBMap{
		"selectors": map[string]any{
			"title":   "#headline",
			"content": "#story",
		},
		"clean": map[string]any{"text_only": true},
	})

	items, err := a.Fetch(context.Background(), src)
	require.NoError(t, err)
	require.Len(t, items, 1)

	assert.Equal(t, "Deep   Dive", items[0].Title)
	assert.Equal(t, "Paragraph one. Paragraph two.", items[0].Content)
	// No url selector configured, page URL is used.
	assert.Equal(t, "https://example.com/news/latest", items[0].URL)
}

func TestFetch_XPathDialect(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{body: listingPage}
	a := scrape.New(fetcher, "", nil)

	src := scrapeSource(domain.JSONBMap{
		"dialect":       "xpath",
		"item_selector": "//article",
		"selectors": map[string]any{
			"title": ".//h2",
			"url":   ".//a/@href",
		},
	})

	items, err := a.Fetch(context.Background(), src)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "First Story", items[0].Title)
	assert.Equal(t, "https://example.com/news/first", items[0].URL)
}

func TestFetch_RegexDialect(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{body: listingPage}
	a := scrape.New(fetcher, "", nil)

	src := scrapeSource(domain.JSONBMap{
		"dialect":       "regex",
		"item_selector": `<article>(.*?)</article>`,
		"selectors": map[string]any{
			"title": `<h2>([^<]+)</h2>`,
			"url":   `href="([^"]+)"`,
		},
	})

	items, err := a.Fetch(context.Background(), src)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "Second Story", items[1].Title)
	assert.Equal(t, "https://cdn.example.net/second", items[1].URL)
}

func TestFetch_SchemaDialect(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{body: schemaPage}
	a := scrape.New(fetcher, "", nil)

	src := scrapeSource(domain.JSONBMap{
		"dialect":     "schema",
		"schema_type": "Article",
	})

	items, err := a.Fetch(context.Background(), src)
	require.NoError(t, err)
	require.Len(t, items, 1)

	item := items[0]
	assert.Equal(t, "Graph Story", item.Title)
	assert.Equal(t, "From the graph.", item.Content)
	assert.Equal(t, "https://example.com/graph-story", item.URL)
	assert.Equal(t, "G. Writer", item.Author)
	require.NotNil(t, item.PublishDate)
	assert.Equal(t, 2024, item.PublishDate.Year())
}

func TestFetch_RenderHop(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{body: articlePage}
	a := scrape.New(fetcher, "http://render.internal/render", nil)

	src := scrapeSource(domain.JSONBMap{
		"render":    true,
		"selectors": map[string]any{"title": "#headline"},
	})

	_, err := a.Fetch(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t,
		"http://render.internal/render?url=https%3A%2F%2Fexample.com%2Fnews%2Flatest",
		fetcher.lastURL)
}

func TestFetch_ConditionalOnDirectFetchOnly(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{body: articlePage}
	a := scrape.New(fetcher, "http://render.internal/render", nil)

	src := scrapeSource(domain.JSONBMap{
		"selectors": map[string]any{"title": "#headline"},
	})
	src.ETag = `"v1"`

	_, err := a.Fetch(context.Background(), src)
	require.NoError(t, err)
	require.NotNil(t, fetcher.lastOpts.ETag)
	assert.Equal(t, `"v1"`, *fetcher.lastOpts.ETag)

	// Through the render service the validators stay home: the
	// rendered document is not the origin page.
	src = scrapeSource(domain.JSONBMap{
		"render":    true,
		"selectors": map[string]any{"title": "#headline"},
	})
	src.ETag = `"v1"`

	_, err = a.Fetch(context.Background(), src)
	require.NoError(t, err)
	assert.Nil(t, fetcher.lastOpts.ETag)
}

func TestFetch_CookieAndHeaderAuth(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{body: articlePage}
	a := scrape.New(fetcher, "", nil)

	src := scrapeSource(domain.JSONBMap{
		"auth":      map[string]any{"type": "cookie", "cookie": "session=abc"},
		"selectors": map[string]any{"title": "#headline"},
	})

	_, err := a.Fetch(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, "session=abc", fetcher.lastOpts.Headers["Cookie"])

	src = scrapeSource(domain.JSONBMap{
		"auth":      map[string]any{"type": "header", "name": "X-Access", "value": "k1"},
		"selectors": map[string]any{"title": "#headline"},
	})

	_, err = a.Fetch(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, "k1", fetcher.lastOpts.Headers["X-Access"])
}

func TestFetch_UnknownDialectIsConfigError(t *testing.T) {
	t.Parallel()

	a := scrape.New(&fakeFetcher{body: articlePage}, "", nil)

	src := scrapeSource(domain.JSONBMap{"dialect": "jq"})

	_, err := a.Fetch(context.Background(), src)
	require.Error(t, err)

	var cfgErr *adapter.ConfigError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestFetch_HTTPErrorIsFetchError(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{body: "gone", status: http.StatusForbidden}
	a := scrape.New(fetcher, "", nil)

	_, err := a.Fetch(context.Background(), scrapeSource(nil))
	require.Error(t, err)

	var fetchErr *adapter.FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, http.StatusForbidden, fetchErr.StatusCode)
}
