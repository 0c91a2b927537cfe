package scrape

import (
	"bytes"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// xpathEngine extracts fields with XPath expressions via htmlquery.
// Attribute access uses native XPath syntax (//a/@href).
type xpathEngine struct{}

func (xpathEngine) extract(body []byte, cfg Config) ([]fieldSet, error) {
	doc, err := htmlquery.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	if cfg.ItemSelector == "" {
		return []fieldSet{xpathFields(doc, cfg)}, nil
	}

	nodes, err := htmlquery.QueryAll(doc, cfg.ItemSelector)
	if err != nil {
		return nil, err
	}

	sets := make([]fieldSet, 0, len(nodes))
	for _, node := range nodes {
		sets = append(sets, xpathFields(node, cfg))
	}

	return sets, nil
}

func xpathFields(scope *html.Node, cfg Config) fieldSet {
	fields := fieldSet{}
	for key, expr := range cfg.Selectors {
		fields[key] = xpathValue(scope, key, expr)
	}
	return fields
}

func xpathValue(scope *html.Node, key, expr string) string {
	node, err := htmlquery.Query(scope, expr)
	if err != nil || node == nil {
		return ""
	}
	if key == "content" && node.Type == html.ElementNode {
		return htmlquery.OutputHTML(node, false)
	}
	return strings.TrimSpace(htmlquery.InnerText(node))
}
