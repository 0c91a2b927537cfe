package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

var fingerprintSpace = regexp.MustCompile(`\s+`)

// Fingerprint computes the dedup hash for a piece of content. Title
// and content are case-folded and whitespace-normalized first so
// trivial formatting differences map to the same fingerprint.
func Fingerprint(title, content string) string {
	normalized := normalizeForHash(title) + "\n" + normalizeForHash(content)
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

func normalizeForHash(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return fingerprintSpace.ReplaceAllString(s, " ")
}
