// Package qr turns raw scanned QR payloads into canonical pass tokens.
//
// Accepted payloads:
//   - a bare token string
//   - a URL carrying the token in one of the query parameters
//     token, t, s, pass_token, pt (fixed priority order, first match wins)
//   - a URL whose last non-empty path segment is the token
//
// A second, deprecated scheme (project + subject encoded in the link) is
// handled by ResolveLegacy and is never merged into the canonical resolver.
package qr

import (
	"net/url"
	"strings"

	dErrors "cartera/pkg/domain-errors"
)

// ResolvedToken is the canonical output of Resolve: a non-empty, trimmed
// opaque pass token.
type ResolvedToken struct {
	Value string
}

// tokenParams is the authoritative priority order for query lookups.
var tokenParams = []string{"token", "t", "s", "pass_token", "pt"}

// Resolve converts an arbitrary scanned string into a ResolvedToken.
// Pure function; rejection is a domain error with code invalid_payload.
func Resolve(raw string) (ResolvedToken, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ResolvedToken{}, dErrors.New(dErrors.CodeInvalidPayload, "empty QR payload")
	}

	// Anything that does not look like a URL is the token itself.
	if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		return ResolvedToken{Value: trimmed}, nil
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		// Near-URL garbage still gets a chance as a bare token.
		return ResolvedToken{Value: trimmed}, nil
	}

	query := u.Query()
	for _, param := range tokenParams {
		if v := strings.TrimSpace(query.Get(param)); v != "" {
			return ResolvedToken{Value: v}, nil
		}
	}

	// Fallback: last non-empty path segment.
	segments := splitPath(u.Path)
	if len(segments) > 0 {
		return ResolvedToken{Value: segments[len(segments)-1]}, nil
	}

	return ResolvedToken{}, dErrors.New(dErrors.CodeInvalidPayload, "no pass token in QR payload")
}

func splitPath(path string) []string {
	parts := strings.Split(path, "/")
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
