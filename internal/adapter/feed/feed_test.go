package feed_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/goharvest/internal/adapter"
	"github.com/jonesrussell/goharvest/internal/adapter/feed"
	"github.com/jonesrussell/goharvest/internal/domain"
)

// rssFixture is an RSS 2.0 document with three items, one of which has
// no <link> and must be dropped.
const rssFixture = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:media="http://search.yahoo.com/mrss/">
  <channel>
    <title>Example News</title>
    <link>https://news.example.com</link>
    <item>
      <title>First Story</title>
      <link>https://news.example.com/first</link>
      <description>First summary</description>
      <pubDate>Fri, 01 Mar 2024 10:30:00 +0000</pubDate>
      <enclosure url="/media/first.jpg" type="image/jpeg" length="1024"/>
    </item>
    <item>
      <title>No Permalink</title>
      <description>This one has no link element</description>
    </item>
    <item>
      <title>Second Story</title>
      <link>/second</link>
      <description>&lt;p&gt;Second summary with &lt;img src="cover.png"&gt;&lt;/p&gt;</description>
    </item>
  </channel>
</rss>`

// landingPage declares the feed via a link alternate element.
const landingPage = `<!DOCTYPE html>
<html><head>
<link rel="alternate" type="application/rss+xml" href="/feeds/all.xml">
</head><body>not a feed</body></html>`

// fakeFetcher serves canned responses by URL.
type fakeFetcher struct {
	responses map[string]*adapter.FetchResponse
	err       error
	calls     []string
	lastOpts  adapter.FetchOptions
}

func (f *fakeFetcher) Fetch(_ context.Context, url string, opts adapter.FetchOptions) (*adapter.FetchResponse, error) {
	f.calls = append(f.calls, url)
	f.lastOpts = opts
	if f.err != nil {
		return nil, f.err
	}
	if resp, ok := f.responses[url]; ok {
		return resp, nil
	}
	return &adapter.FetchResponse{StatusCode: http.StatusNotFound}, nil
}

func okResponse(body string) *adapter.FetchResponse {
	return &adapter.FetchResponse{StatusCode: http.StatusOK, Body: []byte(body)}
}

func feedSource(url string) *domain.Source {
	return &domain.Source{
		ID:   "src-feed",
		Name: "example-news",
		Type: domain.SourceTypeFeed,
		URL:  url,
	}
}

func TestFetch_DropsItemsMissingLink(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{responses: map[string]*adapter.FetchResponse{
		"https://news.example.com/feed.xml": okResponse(rssFixture),
	}}
	a := feed.New(fetcher, nil)

	items, err := a.Fetch(context.Background(), feedSource("https://news.example.com/feed.xml"))
	require.NoError(t, err)
	require.Len(t, items, 2)

	first := items[0]
	assert.Equal(t, "First Story", first.Title)
	assert.Equal(t, "https://news.example.com/first", first.URL)
	assert.Equal(t, "https://news.example.com/feed.xml", first.SourceURL)
	require.NotNil(t, first.PublishDate)
	assert.Equal(t, 2024, first.PublishDate.Year())

	// Enclosure URL resolved to absolute form and used as the image.
	require.Len(t, first.Media, 1)
	assert.Equal(t, "https://news.example.com/media/first.jpg", first.Media[0].URL)
	assert.Equal(t, int64(1024), first.Media[0].Size)
	assert.Equal(t, first.Media[0].URL, first.Image)

	// Relative permalink resolved against the feed URL.
	second := items[1]
	assert.Equal(t, "https://news.example.com/second", second.URL)
	// Inline <img> used as image fallback.
	assert.Equal(t, "https://news.example.com/cover.png", second.Image)
}

func TestFetch_NotModifiedYieldsNoItems(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{responses: map[string]*adapter.FetchResponse{
		"https://news.example.com/feed.xml": {StatusCode: http.StatusNotModified},
	}}
	a := feed.New(fetcher, nil)

	items, err := a.Fetch(context.Background(), feedSource("https://news.example.com/feed.xml"))
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestFetch_ConditionalGetReplaysAndRefreshesValidators(t *testing.T) {
	t.Parallel()

	etag := `"v2"`
	modified := "Sat, 02 Mar 2024 08:00:00 GMT"
	resp := okResponse(rssFixture)
	resp.ETag = &etag
	resp.LastModified = &modified

	fetcher := &fakeFetcher{responses: map[string]*adapter.FetchResponse{
		"https://news.example.com/feed.xml": resp,
	}}
	a := feed.New(fetcher, nil)

	source := feedSource("https://news.example.com/feed.xml")
	source.ETag = `"v1"`
	source.LastModified = "Fri, 01 Mar 2024 10:30:00 GMT"

	_, err := a.Fetch(context.Background(), source)
	require.NoError(t, err)

	// The stored validators go out with the request.
	require.NotNil(t, fetcher.lastOpts.ETag)
	assert.Equal(t, `"v1"`, *fetcher.lastOpts.ETag)
	require.NotNil(t, fetcher.lastOpts.LastModified)
	assert.Equal(t, "Fri, 01 Mar 2024 10:30:00 GMT", *fetcher.lastOpts.LastModified)

	// The response validators replace them for the next poll.
	assert.Equal(t, `"v2"`, source.ETag)
	assert.Equal(t, "Sat, 02 Mar 2024 08:00:00 GMT", source.LastModified)
}

func TestFetch_NotModifiedKeepsValidators(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{responses: map[string]*adapter.FetchResponse{
		"https://news.example.com/feed.xml": {StatusCode: http.StatusNotModified},
	}}
	a := feed.New(fetcher, nil)

	source := feedSource("https://news.example.com/feed.xml")
	source.ETag = `"v1"`

	items, err := a.Fetch(context.Background(), source)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, `"v1"`, source.ETag)
}

func TestFetch_Autodiscovery(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{responses: map[string]*adapter.FetchResponse{
		"https://news.example.com":               okResponse(landingPage),
		"https://news.example.com/feeds/all.xml": okResponse(rssFixture),
	}}
	a := feed.New(fetcher, nil)

	items, err := a.Fetch(context.Background(), feedSource("https://news.example.com"))
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Contains(t, fetcher.calls, "https://news.example.com/feeds/all.xml")
}

func TestFetch_AutodiscoveryDisabled(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{responses: map[string]*adapter.FetchResponse{
		"https://news.example.com": okResponse(landingPage),
	}}
	a := feed.New(fetcher, nil)

	src := feedSource("https://news.example.com")
	off := false
	src.AdapterConfig = domain.JSONBMap{"autodiscover": off}

	_, err := a.Fetch(context.Background(), src)
	require.Error(t, err)

	var parseErr *adapter.ParseError
	assert.True(t, errors.As(err, &parseErr))
}

func TestFetch_HTTPErrorIsFetchError(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{responses: map[string]*adapter.FetchResponse{
		"https://news.example.com/feed.xml": {StatusCode: http.StatusInternalServerError},
	}}
	a := feed.New(fetcher, nil)

	_, err := a.Fetch(context.Background(), feedSource("https://news.example.com/feed.xml"))
	require.Error(t, err)

	var fetchErr *adapter.FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, http.StatusInternalServerError, fetchErr.StatusCode)
}

func TestFetch_NetworkErrorPropagates(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{err: &adapter.FetchError{URL: "x", Cause: errors.New("connection refused")}}
	a := feed.New(fetcher, nil)

	_, err := a.Fetch(context.Background(), feedSource("https://news.example.com/feed.xml"))
	require.Error(t, err)

	var fetchErr *adapter.FetchError
	assert.True(t, errors.As(err, &fetchErr))
}

func TestFetch_MaxItems(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{responses: map[string]*adapter.FetchResponse{
		"https://news.example.com/feed.xml": okResponse(rssFixture),
	}}
	a := feed.New(fetcher, nil)

	src := feedSource("https://news.example.com/feed.xml")
	src.AdapterConfig = domain.JSONBMap{"max_items": 1}

	items, err := a.Fetch(context.Background(), src)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}
