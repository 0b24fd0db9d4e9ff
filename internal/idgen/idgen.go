// Package idgen generates entity IDs and short public slugs.
package idgen

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	nanoid "github.com/matoous/go-nanoid/v2"
)

// SlugAlphabet is the character set of the random slug suffix. It is lower
// case only because slugs appear in collect-page URLs.
var SlugAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// SlugLength is the number of random characters appended to a slug.
var SlugLength = 6

// NewID returns a random UUID string for a stored entity.
func NewID() string {
	return uuid.NewString()
}

// Slug returns a URL-safe slug derived from name with a random suffix,
// e.g. "Acme Feedback!" -> "acme-feedback-x3k9qa".
func Slug(name string) (string, error) {
	suffix, err := nanoid.Generate(SlugAlphabet, SlugLength)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	base := slugify(name)
	if base == "" {
		return suffix, nil
	}
	return base + "-" + suffix, nil
}

func slugify(s string) string {
	var sb strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
			dash = false
		case sb.Len() > 0 && !dash:
			sb.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(sb.String(), "-")
}
