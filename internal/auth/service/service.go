// Package service implements the auth session boundary: session lookup,
// OAuth redirect construction, provider callback completion, staff password
// login and sign-out. Identity-provider internals stay external; this layer
// only builds the redirect and consumes the provider's identity payload.
package service

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"cartera/internal/auth/models"
	"cartera/internal/auth/store"
	jwttoken "cartera/internal/jwt_token"
	"cartera/internal/platform/config"
	id "cartera/pkg/domain"
	dErrors "cartera/pkg/domain-errors"
	"cartera/pkg/platform/sentinel"
	"cartera/pkg/requestcontext"
)

// Service adapts session storage, token minting and the provider redirect
// into a callable façade. Transport concerns stay out of business logic.
type Service struct {
	sessions   store.SessionStore
	members    store.MemberStore
	tokens     *jwttoken.JWTService
	hub        *Hub
	oauth      config.OAuthConfig
	accessTTL  time.Duration
	sessionTTL time.Duration
}

func NewService(sessions store.SessionStore, members store.MemberStore, tokens *jwttoken.JWTService, hub *Hub, oauth config.OAuthConfig, accessTTL time.Duration) *Service {
	return &Service{
		sessions:   sessions,
		members:    members,
		tokens:     tokens,
		hub:        hub,
		oauth:      oauth,
		accessTTL:  accessTTL,
		sessionTTL: 24 * time.Hour,
	}
}

// Hub exposes the auth-state hub for flows that subscribe to session events.
func (s *Service) Hub() *Hub { return s.hub }

// GetSession returns the session for the given ID, or nil when no valid
// session exists. Infrastructure failures are returned as errors so callers
// can distinguish "no session" from "could not check".
func (s *Service) GetSession(ctx context.Context, sessionID id.SessionID) (*models.Session, error) {
	if sessionID.IsNil() {
		return nil, nil
	}
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "session lookup failed")
	}
	if session.Expired(requestcontext.Now(ctx)) {
		return nil, nil
	}
	return session, nil
}

// OAuthOptions parameterizes a provider redirect.
type OAuthOptions struct {
	// RedirectTo is the post-login return URL; claim flows embed the claim
	// code here so it survives the provider round-trip.
	RedirectTo string
	Scopes     string
}

// SignInWithOAuth builds the full browser navigation to the identity
// provider. Control leaves the application after this URL is followed.
func (s *Service) SignInWithOAuth(opts OAuthOptions) (models.OAuthRedirect, error) {
	if opts.RedirectTo == "" {
		return models.OAuthRedirect{}, dErrors.New(dErrors.CodeBadRequest, "redirect target is required")
	}
	authorize, err := url.Parse(s.oauth.AuthorizeURL)
	if err != nil {
		return models.OAuthRedirect{}, dErrors.Wrap(err, dErrors.CodeInternal, "invalid authorize URL")
	}

	scopes := opts.Scopes
	if scopes == "" {
		scopes = s.oauth.Scopes
	}

	q := authorize.Query()
	q.Set("response_type", "code")
	q.Set("redirect_uri", opts.RedirectTo)
	q.Set("scope", scopes)
	q.Set("state", uuid.NewString())
	authorize.RawQuery = q.Encode()

	return models.OAuthRedirect{URL: authorize.String()}, nil
}

// ProviderIdentity is the identity payload extracted from the provider's
// callback. Sub is the stable subject identifier; it may legitimately be
// missing when the provider omits identity data, and callers decide how
// fatal that is.
type ProviderIdentity struct {
	Sub   string
	Email string
	Name  string
}

// CompleteOAuth creates a session for a provider identity and announces the
// sign-in to subscribers. This is the "provider redirected back" half of
// the OAuth dance.
func (s *Service) CompleteOAuth(ctx context.Context, identity ProviderIdentity) (*models.SignInResult, error) {
	if strings.TrimSpace(identity.Email) == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "provider identity missing email")
	}

	now := requestcontext.Now(ctx)
	session := &models.Session{
		ID:        id.SessionID(uuid.New()),
		UserID:    id.UserID(uuid.New()),
		GoogleSub: strings.TrimSpace(identity.Sub),
		Email:     identity.Email,
		Name:      identity.Name,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save session")
	}

	result, err := s.mint(session)
	if err != nil {
		return nil, err
	}

	s.hub.Publish(models.EventSignedIn, session)
	return result, nil
}

// PasswordLogin authenticates a staff member against their project.
func (s *Service) PasswordLogin(ctx context.Context, projectID id.ProjectID, email, password string) (*models.SignInResult, error) {
	if projectID.IsNil() || strings.TrimSpace(email) == "" || password == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "project, email and password are required")
	}

	member, err := s.members.FindByEmail(ctx, projectID, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "member lookup failed")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(member.PasswordHash), []byte(password)); err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}

	now := requestcontext.Now(ctx)
	session := &models.Session{
		ID:        id.SessionID(uuid.New()),
		UserID:    member.ID,
		ProjectID: member.ProjectID,
		Email:     member.Email,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save session")
	}

	result, err := s.mint(session)
	if err != nil {
		return nil, err
	}

	s.hub.Publish(models.EventSignedIn, session)
	return result, nil
}

// SignOut deletes the session and announces the sign-out.
func (s *Service) SignOut(ctx context.Context, sessionID id.SessionID) error {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if session == nil {
		return nil
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete session")
	}
	s.hub.Publish(models.EventSignedOut, session)
	return nil
}

// HashPassword hashes a staff password for storage.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (s *Service) mint(session *models.Session) (*models.SignInResult, error) {
	projectID := ""
	if !session.ProjectID.IsNil() {
		projectID = session.ProjectID.String()
	}
	token, err := s.tokens.GenerateAccessToken(jwttoken.TokenInput{
		UserID:    uuid.UUID(session.UserID),
		SessionID: uuid.UUID(session.ID),
		ProjectID: projectID,
		GoogleSub: session.GoogleSub,
		ExpiresIn: s.accessTTL,
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign access token")
	}
	return &models.SignInResult{
		Session:     session,
		AccessToken: token,
		ExpiresIn:   int64(s.accessTTL.Seconds()),
	}, nil
}
