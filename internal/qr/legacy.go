package qr

import (
	"net/url"
	"strings"

	dErrors "cartera/pkg/domain-errors"
)

// LegacyPayload is the deprecated claim-link scheme that identified the
// customer by project and provider subject instead of a pass token:
//
//	https://host/c/<projectId>/<googleSub>
//	https://host/claim?p=<projectId>&s=<googleSub>
//
// Kept as an explicit compatibility shim for links already in the wild.
// New payloads always go through Resolve.
type LegacyPayload struct {
	ProjectID string
	GoogleSub string
}

// ResolveLegacy parses the deprecated scheme. Both fields must be present
// or the payload is rejected.
func ResolveLegacy(raw string) (LegacyPayload, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return LegacyPayload{}, dErrors.New(dErrors.CodeInvalidPayload, "empty QR payload")
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return LegacyPayload{}, dErrors.New(dErrors.CodeInvalidPayload, "malformed legacy QR payload")
	}

	// Path form: /c/<projectId>/<googleSub>
	segments := splitPath(u.Path)
	if len(segments) == 3 && segments[0] == "c" {
		return validated(LegacyPayload{ProjectID: segments[1], GoogleSub: segments[2]})
	}

	// Query form: ?p=<projectId>&s=<googleSub>
	query := u.Query()
	payload := LegacyPayload{
		ProjectID: strings.TrimSpace(query.Get("p")),
		GoogleSub: strings.TrimSpace(query.Get("s")),
	}
	if payload.ProjectID != "" || payload.GoogleSub != "" {
		return validated(payload)
	}

	return LegacyPayload{}, dErrors.New(dErrors.CodeInvalidPayload, "payload does not match legacy scheme")
}

func validated(p LegacyPayload) (LegacyPayload, error) {
	if p.ProjectID == "" || p.GoogleSub == "" {
		return LegacyPayload{}, dErrors.New(dErrors.CodeInvalidPayload, "legacy payload requires both project and subject")
	}
	return p, nil
}
