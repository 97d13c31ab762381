package events

import (
	"context"
	"time"
)

// Topics carrying domain events. One topic per aggregate, keyed so
// per-pass ordering is preserved.
const (
	TopicVisits = "cartera.visits"
	TopicPasses = "cartera.passes"
)

// Publisher accepts domain events for delivery. The outbox implementation
// stages events in the same database as the state change; a worker drains
// them to the broker.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, payload any) error
}

// VisitRegistered is emitted after every accepted scan. Downstream
// consumers drive pass refreshes and notification fan-out from it.
type VisitRegistered struct {
	ProjectID string    `json:"project_id"`
	PassID    string    `json:"pass_id"`
	PassToken string    `json:"pass_token"`
	Points    int       `json:"points"`
	Reset     bool      `json:"reset"`
	ExpiresAt time.Time `json:"expires_at"`
	VisitedAt time.Time `json:"visited_at"`
}

// PassClaimed is emitted when a claim flow binds a pass to a user.
type PassClaimed struct {
	ProjectID string    `json:"project_id"`
	PassToken string    `json:"pass_token"`
	UserID    string    `json:"user_id"`
	GoogleSub string    `json:"google_sub"`
	ClaimedAt time.Time `json:"claimed_at"`
}

// NopPublisher drops events. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, string, any) error { return nil }
