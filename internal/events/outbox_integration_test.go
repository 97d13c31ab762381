//go:build integration

package events_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"cartera/internal/events"
	"cartera/pkg/platform/tx"
	"cartera/pkg/testutil/containers"
)

func TestOutboxJoinsCallerTransaction(t *testing.T) {
	ctx := context.Background()
	pg := containers.NewPostgresContainer(t)
	outbox := events.NewOutbox(pg.Pool)

	txn, err := pg.Pool.Begin(ctx)
	require.NoError(t, err)
	err = outbox.Publish(tx.WithTx(ctx, txn), events.TopicVisits, "tok-1", map[string]int{"points": 1})
	require.NoError(t, err)
	require.NoError(t, txn.Rollback(ctx))

	entries, err := outbox.FetchUnpublished(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, entries, "rolled back staging must leave no row")

	runner := tx.NewPgx(pg.Pool)
	err = runner.Run(ctx, func(ctx context.Context) error {
		return outbox.Publish(ctx, events.TopicVisits, "tok-2", map[string]int{"points": 2})
	})
	require.NoError(t, err)

	entries, err = outbox.FetchUnpublished(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "tok-2", entries[0].Key)
}
