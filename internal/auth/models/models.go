package models

import (
	"time"

	id "cartera/pkg/domain"
)

// Session is the server-side auth session behind a bearer token.
//
// Invariants:
//   - GoogleSub is set for OAuth sessions and empty for staff logins
//   - ProjectID is set for staff sessions and nil for customer sessions
//   - ExpiresAt is strictly after CreatedAt
type Session struct {
	ID        id.SessionID `json:"id"`
	UserID    id.UserID    `json:"user_id"`
	ProjectID id.ProjectID `json:"project_id,omitempty"`
	GoogleSub string       `json:"google_sub,omitempty"`
	Email     string       `json:"email"`
	Name      string       `json:"name"`
	CreatedAt time.Time    `json:"created_at"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// Expired reports whether the session is past its expiry at the given time.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// Member is a staff account bound to a project, authenticated by password.
type Member struct {
	ID           id.UserID    `json:"id"`
	ProjectID    id.ProjectID `json:"project_id"`
	Email        string       `json:"email"`
	PasswordHash string       `json:"-"`
	Role         string       `json:"role"`
	CreatedAt    time.Time    `json:"created_at"`
}

// AuthEvent names a session lifecycle transition published to subscribers.
type AuthEvent string

const (
	EventSignedIn  AuthEvent = "SIGNED_IN"
	EventSignedOut AuthEvent = "SIGNED_OUT"
)

// OAuthRedirect is the browser navigation issued to start provider login.
type OAuthRedirect struct {
	URL string `json:"url"`
}

// SignInResult is returned by password and OAuth-callback logins.
type SignInResult struct {
	Session     *Session `json:"session"`
	AccessToken string   `json:"access_token"`
	ExpiresIn   int64    `json:"expires_in"`
}
