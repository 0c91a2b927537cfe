package scrape

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// cssEngine extracts fields with CSS selectors via goquery. A selector
// may carry an "@attr" suffix to read an attribute instead of text;
// a bare "@attr" reads the attribute off the item node itself. The
// content field yields inner HTML so cleaning flags still apply.
type cssEngine struct{}

func (cssEngine) extract(body []byte, cfg Config) ([]fieldSet, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	if cfg.ItemSelector == "" {
		return []fieldSet{cssFields(doc.Selection, cfg)}, nil
	}

	var sets []fieldSet
	doc.Find(cfg.ItemSelector).Each(func(_ int, node *goquery.Selection) {
		sets = append(sets, cssFields(node, cfg))
	})

	return sets, nil
}

func cssFields(scope *goquery.Selection, cfg Config) fieldSet {
	fields := fieldSet{}
	for key, selector := range cfg.Selectors {
		fields[key] = cssValue(scope, key, selector)
	}
	return fields
}

func cssValue(scope *goquery.Selection, key, selector string) string {
	expr, attr := splitAttr(selector)

	target := scope
	if expr != "" {
		target = scope.Find(expr)
	}
	if target.Length() == 0 {
		return ""
	}

	if attr != "" {
		value, _ := target.First().Attr(attr)
		return strings.TrimSpace(value)
	}
	if key == "content" {
		html, htmlErr := target.First().Html()
		if htmlErr != nil {
			return ""
		}
		return html
	}

	return strings.TrimSpace(target.First().Text())
}

// splitAttr separates "h2 a@href" into the selector and attribute
// parts. Attribute selectors inside brackets are left intact.
func splitAttr(selector string) (expr, attr string) {
	at := strings.LastIndex(selector, "@")
	if at < 0 || strings.Contains(selector[at:], "]") {
		return selector, ""
	}
	return strings.TrimSpace(selector[:at]), strings.TrimSpace(selector[at+1:])
}
