package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"cartera/pkg/platform/tx"
)

// OutboxEntry is one staged event row.
type OutboxEntry struct {
	ID        uuid.UUID
	Topic     string
	Key       string
	Payload   []byte
	CreatedAt time.Time
}

// Outbox stages events in the service database so a state change and its
// event share one durability story. It satisfies Publisher; the worker
// drains staged rows to the broker.
type Outbox struct {
	pool *pgxpool.Pool
}

func NewOutbox(pool *pgxpool.Pool) *Outbox {
	return &Outbox{pool: pool}
}

func (o *Outbox) Publish(ctx context.Context, topic, key string, payload any) error {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode event payload: %w", err)
	}
	const stage = `
		INSERT INTO event_outbox (id, topic, key, payload, created_at)
		VALUES ($1, $2, $3, $4, NOW())`
	// When the caller runs inside a transaction, the staged row commits
	// or rolls back with the state change it describes.
	if txn, ok := tx.From(ctx); ok {
		_, err = txn.Exec(ctx, stage, uuid.NewString(), topic, key, encoded)
	} else {
		_, err = o.pool.Exec(ctx, stage, uuid.NewString(), topic, key, encoded)
	}
	if err != nil {
		return fmt.Errorf("stage event: %w", err)
	}
	return nil
}

// FetchUnpublished returns the oldest staged rows, capped at limit.
func (o *Outbox) FetchUnpublished(ctx context.Context, limit int) ([]*OutboxEntry, error) {
	rows, err := o.pool.Query(ctx, `
		SELECT id, topic, key, payload, created_at
		FROM event_outbox WHERE NOT published
		ORDER BY created_at LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("fetch unpublished events: %w", err)
	}
	defer rows.Close()

	var out []*OutboxEntry
	for rows.Next() {
		var (
			entry OutboxEntry
			rawID string
		)
		if err := rows.Scan(&rawID, &entry.Topic, &entry.Key, &entry.Payload, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		if entry.ID, err = uuid.Parse(rawID); err != nil {
			return nil, fmt.Errorf("parse outbox entry id: %w", err)
		}
		out = append(out, &entry)
	}
	return out, rows.Err()
}

// MarkPublished flags rows as delivered.
func (o *Outbox) MarkPublished(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	raw := make([]string, len(ids))
	for i, entryID := range ids {
		raw[i] = entryID.String()
	}
	_, err := o.pool.Exec(ctx, `
		UPDATE event_outbox SET published = TRUE WHERE id = ANY($1::uuid[])`,
		raw,
	)
	if err != nil {
		return fmt.Errorf("mark events published: %w", err)
	}
	return nil
}
