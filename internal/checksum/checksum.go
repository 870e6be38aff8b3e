// Package checksum fingerprints content and turns fingerprints into HTTP
// entity tags.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// ETag quotes sum as a strong entity tag. A non-empty variant is appended
// so different renderings of the same content get different tags.
func ETag(sum, variant string) string {
	if variant != "" {
		sum += "-" + variant
	}
	return `"` + sum + `"`
}

// Match reports whether an If-None-Match header value matches etag. Weak
// validators compare equal to their strong form, and "*" matches anything.
func Match(header, etag string) bool {
	if header == "" {
		return false
	}
	for _, part := range strings.Split(header, ",") {
		part = strings.TrimPrefix(strings.TrimSpace(part), "W/")
		if part == "*" || part == etag {
			return true
		}
	}
	return false
}
