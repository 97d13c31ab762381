//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"cartera/internal/auth/models"
	"cartera/internal/auth/store"
	id "cartera/pkg/domain"
	"cartera/pkg/platform/sentinel"
	"cartera/pkg/testutil/containers"
)

type RedisSessionStoreSuite struct {
	suite.Suite
	redis    *containers.RedisContainer
	sessions *store.RedisSessionStore
}

func TestRedisSessionStoreSuite(t *testing.T) {
	suite.Run(t, new(RedisSessionStoreSuite))
}

func (s *RedisSessionStoreSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.sessions = store.NewRedisSessionStore(s.redis.Client)
}

func (s *RedisSessionStoreSuite) SetupTest() {
	require.NoError(s.T(), s.redis.FlushAll(context.Background()))
}

func (s *RedisSessionStoreSuite) newSession(ttl time.Duration) *models.Session {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &models.Session{
		ID:        id.SessionID(uuid.New()),
		UserID:    id.UserID(uuid.New()),
		GoogleSub: "sub-123",
		Email:     "owner@example.com",
		Name:      "Owner",
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

func (s *RedisSessionStoreSuite) TestSaveAndFind() {
	ctx := context.Background()
	session := s.newSession(time.Hour)
	require.NoError(s.T(), s.sessions.Save(ctx, session))

	found, err := s.sessions.FindByID(ctx, session.ID)
	require.NoError(s.T(), err)
	require.Equal(s.T(), session.UserID, found.UserID)
	require.Equal(s.T(), session.GoogleSub, found.GoogleSub)
}

func (s *RedisSessionStoreSuite) TestDelete() {
	ctx := context.Background()
	session := s.newSession(time.Hour)
	require.NoError(s.T(), s.sessions.Save(ctx, session))
	require.NoError(s.T(), s.sessions.Delete(ctx, session.ID))

	_, err := s.sessions.FindByID(ctx, session.ID)
	require.ErrorIs(s.T(), err, sentinel.ErrNotFound)
}

func (s *RedisSessionStoreSuite) TestExpiredSessionEvicted() {
	ctx := context.Background()
	session := s.newSession(time.Second)
	require.NoError(s.T(), s.sessions.Save(ctx, session))

	require.Eventually(s.T(), func() bool {
		_, err := s.sessions.FindByID(ctx, session.ID)
		return err != nil
	}, 5*time.Second, 250*time.Millisecond)
}

func (s *RedisSessionStoreSuite) TestUnknownSessionNotFound() {
	_, err := s.sessions.FindByID(context.Background(), id.SessionID(uuid.New()))
	require.ErrorIs(s.T(), err, sentinel.ErrNotFound)
}
