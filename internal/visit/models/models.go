package models

import (
	"time"

	id "cartera/pkg/domain"
)

// Visit is one registered scan against a pass. Visits are append-only;
// registration is deliberately not idempotent, each accepted scan is a
// new row.
type Visit struct {
	ID        id.VisitID   `json:"id"`
	ProjectID id.ProjectID `json:"project_id"`
	PassID    id.PassID    `json:"pass_id"`
	Points    int          `json:"points"`
	Reset     bool         `json:"reset"`
	VisitedAt time.Time    `json:"visited_at"`
}

// VisitResult is the scanner-facing outcome of a registration.
type VisitResult struct {
	Points    int       `json:"points"`
	ExpiresAt time.Time `json:"expires_at"`
	Reset     bool      `json:"reset"`
}

// RegisterInput carries one scan: the scanning project plus the token
// resolved from the QR payload.
type RegisterInput struct {
	ProjectID id.ProjectID
	PassToken string
}
