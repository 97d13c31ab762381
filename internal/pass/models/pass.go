package models

import (
	"time"

	id "cartera/pkg/domain"
	dErrors "cartera/pkg/domain-errors"
)

// Platform identifies the wallet a pass was generated for.
type Platform string

const (
	PlatformApple   Platform = "apple"
	PlatformGoogle  Platform = "google"
	PlatformUnknown Platform = ""
)

// Pass is a wallet pass issued under a project. A pass starts unclaimed;
// claiming binds it to a user via OAuth and stamps owner metadata.
type Pass struct {
	ID           id.PassID         `json:"id"`
	ProjectID    id.ProjectID      `json:"project_id"`
	PassToken    string            `json:"pass_token"`
	SerialNumber string            `json:"serial_number"`
	ClaimCode    string            `json:"claim_code,omitempty"`
	Platform     Platform          `json:"platform,omitempty"`
	UserID       id.UserID         `json:"user_id,omitempty"`
	Points       int               `json:"points"`
	ExpiresAt    *time.Time        `json:"expires_at,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// Claimed reports whether the pass has been bound to a user.
func (p *Pass) Claimed() bool {
	return !p.UserID.IsNil()
}

// WindowExpired reports whether the visit window has lapsed.
func (p *Pass) WindowExpired(now time.Time) bool {
	return p.ExpiresAt != nil && now.After(*p.ExpiresAt)
}

// IssueInput carries the fields needed to issue a new pass.
type IssueInput struct {
	ProjectID    id.ProjectID
	SerialNumber string
	ClaimCode    string
	Platform     Platform
}

// OwnerMetadata is stamped onto a pass when a claim completes.
type OwnerMetadata struct {
	GoogleSub string
	Email     string
	Name      string
}

func (m OwnerMetadata) Validate() error {
	if m.GoogleSub == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "google subject is required")
	}
	return nil
}
