// Package reference decodes encoded object storage URLs into storage paths.
package reference

import (
	"fmt"
	"net/url"
	"regexp"

	"github.com/kailas-cloud/finder/internal/domain"
)

// pathRegex captures the object path between the "/o/" marker and the query delimiter.
var pathRegex = regexp.MustCompile(`/o/(.*?)\?`)

// ExtractPath returns the literal storage path embedded in an encoded download URL,
// e.g. ".../v0/b/bucket/o/uploads%2Fabc.jpg?alt=media" -> "uploads/abc.jpg".
//
// The URL is decoded twice: once as a whole, once for the captured path.
func ExtractPath(rawURL string) (string, error) {
	decoded, err := url.PathUnescape(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: decode url: %w", domain.ErrInvalidReference, err)
	}

	m := pathRegex.FindStringSubmatch(decoded)
	if m == nil {
		return "", fmt.Errorf("%w: invalid imageUrl format", domain.ErrInvalidReference)
	}

	path, err := url.PathUnescape(m[1])
	if err != nil {
		return "", fmt.Errorf("%w: decode path: %w", domain.ErrInvalidReference, err)
	}
	if path == "" {
		return "", fmt.Errorf("%w: empty object path", domain.ErrInvalidReference)
	}
	return path, nil
}
