package scrape

// fieldSet holds the raw extracted value per configured selector key,
// before cleaning and normalization.
type fieldSet map[string]string

// engine extracts field sets from a fetched page using one selector
// dialect. ItemSelector splits the page into many items; without one
// the whole page yields a single field set.
type engine interface {
	extract(body []byte, cfg Config) ([]fieldSet, error)
}

func engineFor(dialect string) engine {
	switch dialect {
	case DialectXPath:
		return xpathEngine{}
	case DialectRegex:
		return regexEngine{}
	case DialectSchema:
		return schemaEngine{}
	default:
		return cssEngine{}
	}
}
