package adapter

import (
	"fmt"
	"net/url"
	"strings"
)

// ResolveURL resolves ref against base, producing an absolute URL.
// It handles absolute refs, protocol-relative (//host/...), root-relative
// (/path), and relative refs including ".." traversal.
func ResolveURL(base, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", &ValidationError{Detail: "empty url"}
	}

	refURL, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", ref, err)
	}
	if refURL.IsAbs() {
		return refURL.String(), nil
	}

	baseURL, err := url.Parse(base)
	if err != nil || !baseURL.IsAbs() {
		return "", fmt.Errorf("cannot resolve %q against base %q", ref, base)
	}

	return baseURL.ResolveReference(refURL).String(), nil
}

// ResolveOptionalURL resolves ref against base, returning "" for an
// empty or unresolvable ref instead of an error. Used for optional
// fields like images where a bad URL should not drop the item.
func ResolveOptionalURL(base, ref string) string {
	resolved, err := ResolveURL(base, ref)
	if err != nil {
		return ""
	}
	return resolved
}
