package post

import (
	"fmt"
	"strings"
)

// Identifier is the short token naming a remote post (the shortcode)
type Identifier string

// ParseIdentifier extracts the identifier from the trailing path segment of a post URL.
// Query strings and fragments are dropped before trailing slashes are trimmed.
// No other validation is done: a malformed URL yields whatever its last segment is.
func ParseIdentifier(rawURL string) (Identifier, error) {
	s := strings.TrimSpace(rawURL)
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimRight(s, "/")

	segments := strings.Split(s, "/")
	last := segments[len(segments)-1]
	if last == "" {
		return "", fmt.Errorf("%w: %q", ErrEmptyIdentifier, rawURL)
	}

	return Identifier(last), nil
}

// String returns the identifier as a plain string
func (id Identifier) String() string {
	return string(id)
}
