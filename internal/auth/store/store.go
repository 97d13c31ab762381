package store

import (
	"context"

	"cartera/internal/auth/models"
	id "cartera/pkg/domain"
)

// SessionStore persists auth sessions. Implementations: memory (tests and
// single-node dev), Redis (production, TTL-evicted).
type SessionStore interface {
	Save(ctx context.Context, session *models.Session) error
	FindByID(ctx context.Context, sessionID id.SessionID) (*models.Session, error)
	Delete(ctx context.Context, sessionID id.SessionID) error
}

// MemberStore looks up staff accounts for password login.
type MemberStore interface {
	FindByEmail(ctx context.Context, projectID id.ProjectID, email string) (*models.Member, error)
	Save(ctx context.Context, member *models.Member) error
}
