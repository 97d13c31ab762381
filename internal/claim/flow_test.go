package claim_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	authModel "cartera/internal/auth/models"
	authService "cartera/internal/auth/service"
	"cartera/internal/claim"
	passModel "cartera/internal/pass/models"
	passService "cartera/internal/pass/service"
	id "cartera/pkg/domain"
	dErrors "cartera/pkg/domain-errors"
)

type fakeAuth struct {
	hub         *authService.Hub
	session     *authModel.Session
	sessionErr  error
	signInCalls int
	lastOpts    authService.OAuthOptions
}

func (a *fakeAuth) GetSession(_ context.Context, _ id.SessionID) (*authModel.Session, error) {
	return a.session, a.sessionErr
}

func (a *fakeAuth) SignInWithOAuth(opts authService.OAuthOptions) (authModel.OAuthRedirect, error) {
	a.signInCalls++
	a.lastOpts = opts
	return authModel.OAuthRedirect{URL: "https://provider.example.com/authorize?redirect_uri=" + opts.RedirectTo}, nil
}

func (a *fakeAuth) Hub() *authService.Hub { return a.hub }

type fakeResolver struct {
	destination *passService.Destination
	err         error
	calls       int
}

func (r *fakeResolver) ResolveDestination(_ context.Context, _ string) (*passService.Destination, error) {
	r.calls++
	return r.destination, r.err
}

type fakeBinder struct {
	err   error
	calls int
	last  passModel.OwnerMetadata
}

func (b *fakeBinder) BindOwner(_ context.Context, _ string, _ id.UserID, owner passModel.OwnerMetadata) (*passModel.Pass, error) {
	b.calls++
	b.last = owner
	return &passModel.Pass{}, b.err
}

type ClaimFlowSuite struct {
	suite.Suite
	ctx      context.Context
	auth     *fakeAuth
	resolver *fakeResolver
	binder   *fakeBinder
	flows    *claim.Flows
	session  *authModel.Session
}

func (s *ClaimFlowSuite) SetupTest() {
	s.ctx = context.Background()
	s.session = &authModel.Session{
		ID:        id.SessionID(uuid.New()),
		UserID:    id.UserID(uuid.New()),
		GoogleSub: "sub-1",
		Email:     "ana@example.com",
		Name:      "Ana",
	}
	s.auth = &fakeAuth{hub: authService.NewHub()}
	s.resolver = &fakeResolver{destination: &passService.Destination{
		URL:       "https://cards.example.com/wallet/abc",
		PassToken: "tok-1",
	}}
	s.binder = &fakeBinder{}
	s.flows = claim.NewFlows(s.auth, s.resolver, s.binder,
		"https://cards.example.com/claim/callback", slog.New(slog.DiscardHandler))
}

func TestClaimFlowSuite(t *testing.T) {
	suite.Run(t, new(ClaimFlowSuite))
}

func (s *ClaimFlowSuite) TestExistingSessionSkipsOAuth() {
	s.auth.session = s.session

	flow := s.flows.New("9f3a")
	flow.Start(s.ctx, s.session.ID)

	s.Equal(claim.StateRedirecting, flow.State())
	s.Equal(0, s.auth.signInCalls)
	s.Equal(1, s.binder.calls)

	result := flow.Result()
	s.Equal("https://cards.example.com/wallet/abc", result.Destination)
	s.Equal("tok-1", result.PassToken)

	select {
	case <-flow.Done():
	default:
		s.Fail("flow should be done")
	}
}

func (s *ClaimFlowSuite) TestNoSessionStartsAuthentication() {
	flow := s.flows.New("9f3a")
	flow.Start(s.ctx, id.SessionID{})

	s.Equal(claim.StateAuthenticating, flow.State())
	s.Equal(1, s.auth.signInCalls)
	s.Contains(s.auth.lastOpts.RedirectTo, "c=9f3a")
	s.NotEmpty(flow.AuthURL())
	s.Equal(0, s.resolver.calls)
}

func (s *ClaimFlowSuite) TestMissingClaimCode() {
	flow := s.flows.New("")
	flow.Start(s.ctx, id.SessionID{})

	result := flow.Result()
	s.Equal(claim.StateFailed, result.State)
	s.Equal(claim.ReasonMissingClaimCode, result.Reason)
}

func (s *ClaimFlowSuite) TestSessionCheckError() {
	s.auth.sessionErr = dErrors.New(dErrors.CodeInternal, "session lookup failed")

	flow := s.flows.New("9f3a")
	flow.Start(s.ctx, s.session.ID)

	result := flow.Result()
	s.Equal(claim.StateFailed, result.State)
	s.Equal(claim.ReasonSessionCheckError, result.Reason)
	s.Equal(0, s.auth.signInCalls)
}

func (s *ClaimFlowSuite) TestMissingPassTokenNeverWritesMetadata() {
	s.auth.session = s.session
	s.resolver.destination = &passService.Destination{URL: "https://cards.example.com/wallet/abc"}

	flow := s.flows.New("9f3a")
	flow.Start(s.ctx, s.session.ID)

	result := flow.Result()
	s.Equal(claim.StateFailed, result.State)
	s.Equal(claim.ReasonNoPassToken, result.Reason)
	s.Equal(0, s.binder.calls)
}

func (s *ClaimFlowSuite) TestMissingDestination() {
	s.auth.session = s.session
	s.resolver.destination = &passService.Destination{PassToken: "tok-1"}

	flow := s.flows.New("9f3a")
	flow.Start(s.ctx, s.session.ID)

	s.Equal(claim.ReasonNoDestination, flow.Result().Reason)
}

func (s *ClaimFlowSuite) TestResolverErrorSurfacesItsMessage() {
	s.auth.session = s.session
	s.resolver.destination = nil
	s.resolver.err = dErrors.New(dErrors.CodeRemoteCall, "claim resolver unavailable")

	flow := s.flows.New("9f3a")
	flow.Start(s.ctx, s.session.ID)

	result := flow.Result()
	s.Equal(claim.StateFailed, result.State)
	s.Equal("claim resolver unavailable", result.Reason)
	s.NotEqual(claim.ReasonNoDestination, result.Reason)
	s.Equal(0, s.binder.calls)
}

func (s *ClaimFlowSuite) TestMissingSubjectBlocksWrite() {
	session := *s.session
	session.GoogleSub = ""
	s.auth.session = &session

	flow := s.flows.New("9f3a")
	flow.Start(s.ctx, session.ID)

	result := flow.Result()
	s.Equal(claim.StateFailed, result.State)
	s.Equal(claim.ReasonMissingSubjectID, result.Reason)
	s.Equal(0, s.binder.calls)
}

func (s *ClaimFlowSuite) TestMetadataWriteError() {
	s.auth.session = s.session
	s.binder.err = dErrors.New(dErrors.CodeInternal, "failed to bind pass owner")

	flow := s.flows.New("9f3a")
	flow.Start(s.ctx, s.session.ID)

	s.Equal(claim.ReasonMetadataWriteError, flow.Result().Reason)
}

func (s *ClaimFlowSuite) TestProbeAndSubscriptionConvergeOnce() {
	flow := s.flows.New("9f3a")
	flow.AwaitCallback(s.ctx)
	s.Equal(claim.StateAwaitingCallback, flow.State())

	// Both the hub event and the probe observe the signed-in condition.
	s.auth.hub.Publish(authModel.EventSignedIn, s.session)
	flow.Resume(s.ctx, s.session)

	s.Equal(claim.StateRedirecting, flow.State())
	s.Equal(1, s.resolver.calls)
	s.Equal(1, s.binder.calls)
	s.Equal("sub-1", s.binder.last.GoogleSub)
}

func (s *ClaimFlowSuite) TestSignedOutEventIsIgnored() {
	flow := s.flows.New("9f3a")
	flow.AwaitCallback(s.ctx)

	s.auth.hub.Publish(authModel.EventSignedOut, nil)

	s.Equal(claim.StateAwaitingCallback, flow.State())
	s.Equal(0, s.resolver.calls)
}

func (s *ClaimFlowSuite) TestTeardownStopsStaleFlow() {
	flow := s.flows.New("9f3a")
	flow.AwaitCallback(s.ctx)
	flow.Teardown()

	s.auth.hub.Publish(authModel.EventSignedIn, s.session)

	s.Equal(claim.StateAwaitingCallback, flow.State())
	s.Equal(0, s.resolver.calls)
}
