package feed

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/jonesrussell/goharvest/internal/adapter"
	"github.com/jonesrussell/goharvest/internal/domain"
)

// errNoFeedFound is returned when autodiscovery exhausts every option.
var errNoFeedFound = errors.New("no feed found at source url")

// httpPrefix is used to decide whether a GUID doubles as a permalink.
const httpPrefix = "http"

// inlineImgPattern pulls the first <img src> out of item HTML.
var inlineImgPattern = regexp.MustCompile(`<img[^>]+src=["']([^"']+)["']`)

// extractLink returns the best available permalink for an entry,
// preferring the explicit link and falling back to an http GUID.
func extractLink(entry *gofeed.Item) string {
	if entry.Link != "" {
		return entry.Link
	}
	if len(entry.Links) > 0 && entry.Links[0] != "" {
		return entry.Links[0]
	}
	if strings.HasPrefix(entry.GUID, httpPrefix) {
		return entry.GUID
	}
	return ""
}

// extractDate returns the entry publish date, trying the parsed
// published/updated values, then the raw strings, then Dublin Core.
func extractDate(entry *gofeed.Item) *time.Time {
	if entry.PublishedParsed != nil {
		return entry.PublishedParsed
	}
	if entry.UpdatedParsed != nil {
		return entry.UpdatedParsed
	}
	if t := adapter.ParseDate(entry.Published); t != nil {
		return t
	}
	if t := adapter.ParseDate(entry.Updated); t != nil {
		return t
	}
	if entry.DublinCoreExt != nil && len(entry.DublinCoreExt.Date) > 0 {
		return adapter.ParseDate(entry.DublinCoreExt.Date[0])
	}
	return nil
}

// extractAuthor returns the entry author name, trying the typed author
// list, then Dublin Core creator.
func extractAuthor(entry *gofeed.Item) string {
	if len(entry.Authors) > 0 && entry.Authors[0] != nil {
		return entry.Authors[0].Name
	}
	if entry.Author != nil {
		return entry.Author.Name
	}
	if entry.DublinCoreExt != nil && len(entry.DublinCoreExt.Creator) > 0 {
		return entry.DublinCoreExt.Creator[0]
	}
	return ""
}

// extractMedia collects enclosures and media:content attachments,
// resolved to absolute URLs.
func extractMedia(baseURL string, entry *gofeed.Item) []domain.MediaRef {
	var media []domain.MediaRef

	for _, enc := range entry.Enclosures {
		if enc == nil || enc.URL == "" {
			continue
		}
		resolved := adapter.ResolveOptionalURL(baseURL, enc.URL)
		if resolved == "" {
			continue
		}
		ref := domain.MediaRef{URL: resolved, Type: enc.Type}
		if size, err := strconv.ParseInt(enc.Length, 10, 64); err == nil {
			ref.Size = size
		}
		media = append(media, ref)
	}

	for _, ext := range entry.Extensions["media"]["content"] {
		u := ext.Attrs["url"]
		if u == "" {
			continue
		}
		resolved := adapter.ResolveOptionalURL(baseURL, u)
		if resolved == "" {
			continue
		}
		media = append(media, domain.MediaRef{
			URL:  resolved,
			Type: ext.Attrs["type"],
		})
	}

	return media
}

// extractImage returns a representative image for the entry: the feed
// item image, the first image-typed attachment, or the first inline
// <img> in the content HTML.
func extractImage(baseURL string, entry *gofeed.Item, content string) string {
	if entry.Image != nil && entry.Image.URL != "" {
		return adapter.ResolveOptionalURL(baseURL, entry.Image.URL)
	}

	for _, ref := range extractMedia(baseURL, entry) {
		if ref.Type == "" || strings.HasPrefix(ref.Type, "image/") {
			return ref.URL
		}
	}

	if m := inlineImgPattern.FindStringSubmatch(content); m != nil {
		return adapter.ResolveOptionalURL(baseURL, m[1])
	}

	return ""
}
