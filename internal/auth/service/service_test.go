package service

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"cartera/internal/auth/models"
	"cartera/internal/auth/store"
	jwttoken "cartera/internal/jwt_token"
	"cartera/internal/platform/config"
	id "cartera/pkg/domain"
	dErrors "cartera/pkg/domain-errors"
)

type AuthServiceSuite struct {
	suite.Suite
	svc      *Service
	sessions *store.InMemorySessionStore
	members  *store.InMemoryMemberStore
	ctx      context.Context
}

func TestAuthServiceSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceSuite))
}

func (s *AuthServiceSuite) SetupTest() {
	s.sessions = store.NewInMemorySessionStore()
	s.members = store.NewInMemoryMemberStore()
	s.ctx = context.Background()
	s.svc = NewService(
		s.sessions,
		s.members,
		jwttoken.NewJWTService("test-key", "cartera", "cartera-api"),
		NewHub(),
		config.OAuthConfig{
			AuthorizeURL: "https://provider.example.com/authorize",
			Provider:     "google",
			Scopes:       "openid profile email",
		},
		time.Hour,
	)
}

func (s *AuthServiceSuite) TestGetSession_NoSession() {
	session, err := s.svc.GetSession(s.ctx, id.SessionID(uuid.New()))
	s.Require().NoError(err)
	s.Nil(session, "unknown session resolves to nil, not an error")
}

func (s *AuthServiceSuite) TestSignInWithOAuth_EmbedsReturnPath() {
	redirect, err := s.svc.SignInWithOAuth(OAuthOptions{
		RedirectTo: "https://app.example.com/claim/callback?c=9f3a",
	})
	s.Require().NoError(err)

	u, err := url.Parse(redirect.URL)
	s.Require().NoError(err)
	s.Equal("provider.example.com", u.Host)
	s.Contains(u.Query().Get("redirect_uri"), "c=9f3a",
		"claim code must survive the provider round-trip")
	s.Equal("openid profile email", u.Query().Get("scope"))
	s.NotEmpty(u.Query().Get("state"))
}

func (s *AuthServiceSuite) TestSignInWithOAuth_RequiresRedirect() {
	_, err := s.svc.SignInWithOAuth(OAuthOptions{})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func (s *AuthServiceSuite) TestCompleteOAuth_CreatesSessionAndPublishes() {
	var published []models.AuthEvent
	sub := s.svc.Hub().Subscribe(func(event models.AuthEvent, _ *models.Session) {
		published = append(published, event)
	})
	defer sub.Unsubscribe()

	result, err := s.svc.CompleteOAuth(s.ctx, ProviderIdentity{
		Sub:   "sub-42",
		Email: "customer@example.com",
		Name:  "Customer",
	})
	s.Require().NoError(err)
	s.NotEmpty(result.AccessToken)
	s.Equal("sub-42", result.Session.GoogleSub)
	s.Equal([]models.AuthEvent{models.EventSignedIn}, published)

	found, err := s.svc.GetSession(s.ctx, result.Session.ID)
	s.Require().NoError(err)
	s.Require().NotNil(found)
	s.Equal("customer@example.com", found.Email)
}

func (s *AuthServiceSuite) TestPasswordLogin() {
	projectID := id.ProjectID(uuid.New())
	hash, err := HashPassword("correct horse")
	s.Require().NoError(err)
	s.Require().NoError(s.members.Save(s.ctx, &models.Member{
		ID:           id.UserID(uuid.New()),
		ProjectID:    projectID,
		Email:        "staff@example.com",
		PasswordHash: hash,
		Role:         "staff",
		CreatedAt:    time.Now(),
	}))

	s.Run("valid credentials", func() {
		result, err := s.svc.PasswordLogin(s.ctx, projectID, "staff@example.com", "correct horse")
		s.Require().NoError(err)
		s.Equal(projectID, result.Session.ProjectID)
	})

	s.Run("wrong password", func() {
		_, err := s.svc.PasswordLogin(s.ctx, projectID, "staff@example.com", "wrong")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("unknown member", func() {
		_, err := s.svc.PasswordLogin(s.ctx, projectID, "other@example.com", "whatever")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *AuthServiceSuite) TestSignOut_PublishesAndDeletes() {
	result, err := s.svc.CompleteOAuth(s.ctx, ProviderIdentity{Sub: "sub-1", Email: "a@b.c"})
	s.Require().NoError(err)

	var events []models.AuthEvent
	sub := s.svc.Hub().Subscribe(func(event models.AuthEvent, _ *models.Session) {
		events = append(events, event)
	})
	defer sub.Unsubscribe()

	s.Require().NoError(s.svc.SignOut(s.ctx, result.Session.ID))
	s.Equal([]models.AuthEvent{models.EventSignedOut}, events)

	found, err := s.svc.GetSession(s.ctx, result.Session.ID)
	s.Require().NoError(err)
	s.Nil(found)
}

func (s *AuthServiceSuite) TestHub_UnsubscribeStopsDelivery() {
	var count int
	sub := s.svc.Hub().Subscribe(func(models.AuthEvent, *models.Session) { count++ })

	s.svc.Hub().Publish(models.EventSignedIn, nil)
	sub.Unsubscribe()
	sub.Unsubscribe() // idempotent
	s.svc.Hub().Publish(models.EventSignedIn, nil)

	s.Equal(1, count)
}
