package scrape

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var (
	commentPattern    = regexp.MustCompile(`(?s)<!--.*?-->`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// cleanContent applies the configured cleaning passes to an extracted
// content fragment.
func cleanContent(content string, cfg CleanConfig) string {
	if cfg.stripScripts() {
		content = stripScripts(content)
	}
	if cfg.TextOnly {
		content = textOnly(content)
	}
	if cfg.normalizeWhitespace() {
		content = whitespacePattern.ReplaceAllString(content, " ")
	}
	return strings.TrimSpace(content)
}

// stripScripts removes script/style elements and HTML comments from a
// fragment, leaving the rest of the markup intact.
func stripScripts(fragment string) string {
	fragment = commentPattern.ReplaceAllString(fragment, "")

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}
	doc.Find("script, style, noscript").Remove()

	cleaned, err := doc.Find("body").Html()
	if err != nil {
		return fragment
	}
	return cleaned
}

// textOnly strips all markup. Element boundaries become spaces so
// adjacent blocks don't run together.
func textOnly(fragment string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(fragment))

	var parts []string
	skipDepth := 0
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return strings.Join(parts, " ")
		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			if isNonContentTag(string(name)) {
				skipDepth++
			}
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			if isNonContentTag(string(name)) && skipDepth > 0 {
				skipDepth--
			}
		case html.TextToken:
			if skipDepth > 0 {
				continue
			}
			if text := strings.TrimSpace(string(tokenizer.Text())); text != "" {
				parts = append(parts, text)
			}
		}
	}
}

func isNonContentTag(name string) bool {
	switch name {
	case "script", "style", "noscript":
		return true
	}
	return false
}
