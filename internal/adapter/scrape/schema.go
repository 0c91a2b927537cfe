package scrape

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"
)

// schemaProperties maps normalized field names to the JSON-LD
// properties tried in order.
var schemaProperties = map[string][]string{
	"title":     {"headline", "name"},
	"url":       {"url", "mainEntityOfPage.@id", "mainEntityOfPage"},
	"content":   {"articleBody", "text"},
	"summary":   {"description"},
	"author":    {"author.name", "author.0.name", "author"},
	"image":     {"image.url", "image.0", "image"},
	"published": {"datePublished", "dateCreated"},
}

// schemaEngine extracts items from JSON-LD blocks embedded in the
// page, walking @graph arrays and matching nodes by @type. Explicit
// selectors override the built-in property table per field.
type schemaEngine struct{}

func (schemaEngine) extract(body []byte, cfg Config) ([]fieldSet, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var sets []fieldSet
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, script *goquery.Selection) {
		payload := script.Text()
		if !gjson.Valid(payload) {
			return
		}
		for _, node := range schemaNodes(gjson.Parse(payload)) {
			if !schemaMatches(node, cfg.SchemaType) {
				continue
			}
			sets = append(sets, schemaFields(node, cfg))
		}
	})

	return sets, nil
}

// schemaNodes flattens a JSON-LD payload into candidate nodes: the
// @graph members, the elements of a root array, or the root object.
func schemaNodes(root gjson.Result) []gjson.Result {
	if graph := root.Get("@graph"); graph.IsArray() {
		return graph.Array()
	}
	if root.IsArray() {
		return root.Array()
	}
	return []gjson.Result{root}
}

func schemaMatches(node gjson.Result, wantType string) bool {
	if wantType == "" {
		return node.Get("headline").Exists() || node.Get("name").Exists()
	}

	nodeType := node.Get("@type")
	if nodeType.IsArray() {
		for _, t := range nodeType.Array() {
			if strings.EqualFold(t.String(), wantType) {
				return true
			}
		}
		return false
	}

	return strings.EqualFold(nodeType.String(), wantType)
}

func schemaFields(node gjson.Result, cfg Config) fieldSet {
	fields := fieldSet{}

	for key, paths := range schemaProperties {
		for _, path := range paths {
			if v := node.Get(path); v.Exists() && v.String() != "" {
				fields[key] = v.String()
				break
			}
		}
	}

	// Configured selectors are raw gjson paths into the node.
	for key, path := range cfg.Selectors {
		if v := node.Get(path); v.Exists() {
			fields[key] = v.String()
		}
	}

	return fields
}
