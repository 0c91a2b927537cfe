package scrape

import (
	"fmt"
	"regexp"
)

// regexEngine extracts fields with regular expressions. ItemSelector
// is a pattern whose matches become the item segments (group 1 when
// present, the whole match otherwise); field patterns run against each
// segment and yield their first capture group.
type regexEngine struct{}

func (regexEngine) extract(body []byte, cfg Config) ([]fieldSet, error) {
	fieldPatterns := make(map[string]*regexp.Regexp, len(cfg.Selectors))
	for key, pattern := range cfg.Selectors {
		re, err := regexp.Compile("(?s)" + pattern)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", key, err)
		}
		fieldPatterns[key] = re
	}

	segments, err := regexSegments(body, cfg.ItemSelector)
	if err != nil {
		return nil, err
	}

	sets := make([]fieldSet, 0, len(segments))
	for _, segment := range segments {
		fields := fieldSet{}
		for key, re := range fieldPatterns {
			fields[key] = firstGroup(re, segment)
		}
		sets = append(sets, fields)
	}

	return sets, nil
}

func regexSegments(body []byte, itemPattern string) ([]string, error) {
	if itemPattern == "" {
		return []string{string(body)}, nil
	}

	re, err := regexp.Compile("(?s)" + itemPattern)
	if err != nil {
		return nil, fmt.Errorf("item selector: %w", err)
	}

	matches := re.FindAllStringSubmatch(string(body), -1)
	segments := make([]string, 0, len(matches))
	for _, m := range matches {
		if len(m) > 1 {
			segments = append(segments, m[1])
			continue
		}
		segments = append(segments, m[0])
	}

	return segments, nil
}

func firstGroup(re *regexp.Regexp, segment string) string {
	m := re.FindStringSubmatch(segment)
	switch {
	case m == nil:
		return ""
	case len(m) > 1:
		return m[1]
	default:
		return m[0]
	}
}
