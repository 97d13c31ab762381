package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// RawProducer delivers pre-encoded payloads to the broker.
type RawProducer interface {
	PublishRaw(ctx context.Context, topic, key string, payload []byte) error
}

// Worker drains the outbox to the broker. Rows only get marked published
// after the produce succeeds, so delivery is at-least-once; consumers
// must tolerate duplicates.
type Worker struct {
	logger   *slog.Logger
	outbox   *Outbox
	producer RawProducer
	interval time.Duration
	batch    int
}

func NewWorker(outbox *Outbox, producer RawProducer, interval time.Duration, logger *slog.Logger) *Worker {
	if interval <= 0 {
		interval = time.Second
	}
	return &Worker{
		logger:   logger,
		outbox:   outbox,
		producer: producer,
		interval: interval,
		batch:    100,
	}
}

// Run drains until the context is cancelled.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.DrainOnce(ctx); err != nil {
				w.logger.ErrorContext(ctx, "outbox drain failed", "error", err.Error())
			}
		}
	}
}

// DrainOnce publishes one batch of staged events.
func (w *Worker) DrainOnce(ctx context.Context) error {
	entries, err := w.outbox.FetchUnpublished(ctx, w.batch)
	if err != nil {
		return err
	}

	var delivered []uuid.UUID
	for _, entry := range entries {
		if err := w.producer.PublishRaw(ctx, entry.Topic, entry.Key, entry.Payload); err != nil {
			w.logger.WarnContext(ctx, "event produce failed",
				"topic", entry.Topic,
				"event_id", entry.ID.String(),
				"error", err.Error(),
			)
			break
		}
		delivered = append(delivered, entry.ID)
	}
	return w.outbox.MarkPublished(ctx, delivered)
}
