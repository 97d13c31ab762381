package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"cartera/internal/pass/models"
	id "cartera/pkg/domain"
)

func newCachedPass(t *testing.T) (*CachedPassStore, *models.Pass) {
	t.Helper()

	store := NewCachedPassStore(NewInMemoryPassStore(), time.Minute)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	pass := &models.Pass{
		ID:           id.PassID(uuid.New()),
		ProjectID:    id.ProjectID(uuid.New()),
		PassToken:    "tok-1",
		SerialNumber: "serial-1",
		Points:       1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, store.Create(context.Background(), pass))
	return store, pass
}

func TestCachedFindByTokenIsolatesCallers(t *testing.T) {
	store, pass := newCachedPass(t)
	ctx := context.Background()

	first, err := store.FindByToken(ctx, pass.PassToken)
	require.NoError(t, err)
	second, err := store.FindByToken(ctx, pass.PassToken)
	require.NoError(t, err)

	expires := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	first.Points = 7
	first.ExpiresAt = &expires
	first.Metadata = map[string]string{"name": "Ada"}

	require.Equal(t, 1, second.Points)
	require.Nil(t, second.ExpiresAt)
	require.Empty(t, second.Metadata)
}

func TestCachedFindByTokenDropsUnpersistedMutation(t *testing.T) {
	store, pass := newCachedPass(t)
	ctx := context.Background()

	loaded, err := store.FindByToken(ctx, pass.PassToken)
	require.NoError(t, err)
	loaded.Points = 99

	again, err := store.FindByToken(ctx, pass.PassToken)
	require.NoError(t, err)
	require.Equal(t, 1, again.Points)
}

func TestCachedUpdateInvalidatesEntry(t *testing.T) {
	store, pass := newCachedPass(t)
	ctx := context.Background()

	loaded, err := store.FindByToken(ctx, pass.PassToken)
	require.NoError(t, err)
	loaded.Points = 2
	require.NoError(t, store.Update(ctx, loaded))

	fresh, err := store.FindByToken(ctx, pass.PassToken)
	require.NoError(t, err)
	require.Equal(t, 2, fresh.Points)
}
