package feed

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonesrussell/goharvest/internal/adapter"
)

// commonFeedPaths are well-known paths probed when HTML link discovery
// comes up empty.
var commonFeedPaths = []string{
	"/feed",
	"/rss",
	"/feed.xml",
	"/rss.xml",
	"/atom.xml",
	"/index.xml",
}

// feedMIMETypes are the type attribute substrings that mark an
// alternate link as a feed.
var feedMIMETypes = []string{"rss", "atom", "xml"}

// discoverFeedURL scans an HTML page for <link rel="alternate"> feed
// references and returns the first one resolved to absolute form, or
// "" when the page declares none.
func discoverFeedURL(pageURL string, body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}

	var found string
	doc.Find(`link[rel="alternate"]`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		linkType, _ := sel.Attr("type")
		href, hasHref := sel.Attr("href")
		if !hasHref || href == "" || !isFeedType(linkType) {
			return true
		}

		found = adapter.ResolveOptionalURL(pageURL, href)
		return found == ""
	})

	return found
}

// isFeedType reports whether a link type attribute names a feed format.
func isFeedType(linkType string) bool {
	linkType = strings.ToLower(linkType)
	for _, t := range feedMIMETypes {
		if strings.Contains(linkType, t) {
			return true
		}
	}
	return false
}
