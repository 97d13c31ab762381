package claim

import (
	"context"
	"log/slog"
	"net/url"
	"sync"

	authModel "cartera/internal/auth/models"
	authService "cartera/internal/auth/service"
	passModel "cartera/internal/pass/models"
	passService "cartera/internal/pass/service"
	id "cartera/pkg/domain"
	dErrors "cartera/pkg/domain-errors"
)

// AuthGateway is the session boundary the flow drives. Satisfied by the
// auth service.
type AuthGateway interface {
	GetSession(ctx context.Context, sessionID id.SessionID) (*authModel.Session, error)
	SignInWithOAuth(opts authService.OAuthOptions) (authModel.OAuthRedirect, error)
	Hub() *authService.Hub
}

// DestinationResolver maps a claim code to the wallet destination and pass
// token. Satisfied by the pass service.
type DestinationResolver interface {
	ResolveDestination(ctx context.Context, claimCode string) (*passService.Destination, error)
}

// MetadataBinder stamps owner metadata onto a pass. Satisfied by the pass
// service.
type MetadataBinder interface {
	BindOwner(ctx context.Context, passToken string, userID id.UserID, owner passModel.OwnerMetadata) (*passModel.Pass, error)
}

// Flows builds claim flows with shared dependencies.
type Flows struct {
	logger   *slog.Logger
	auth     AuthGateway
	resolver DestinationResolver
	binder   MetadataBinder
	// callbackURL is the post-login return path the claim code is embedded in.
	callbackURL string
}

func NewFlows(auth AuthGateway, resolver DestinationResolver, binder MetadataBinder, callbackURL string, logger *slog.Logger) *Flows {
	return &Flows{
		logger:      logger,
		auth:        auth,
		resolver:    resolver,
		binder:      binder,
		callbackURL: callbackURL,
	}
}

// New creates a flow for one claim attempt. Each page load gets its own
// flow; a flow is never reused.
func (f *Flows) New(claimCode string) *Flow {
	return &Flow{
		flows: f,
		code:  claimCode,
		state: StateCheckingSession,
		done:  make(chan struct{}),
	}
}

// Flow is the claim state machine. States advance strictly in order; no
// step starts before its predecessor's external call resolves. The only
// concurrency hazard is AwaitingCallback, where the initial session probe
// and the auth-change subscription can both observe the signed-in
// condition; resolveEntered gates the transition so it happens once.
type Flow struct {
	flows *Flows
	code  string

	mu             sync.Mutex
	state          State
	reason         string
	destination    string
	passToken      string
	authURL        string
	resolveEntered bool
	sub            *authService.Subscription
	done           chan struct{}
}

// Start runs CheckingSession for the given (possibly nil) session.
func (f *Flow) Start(ctx context.Context, sessionID id.SessionID) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != StateCheckingSession {
		return
	}
	if f.code == "" {
		f.fail(ReasonMissingClaimCode)
		return
	}

	session, err := f.flows.auth.GetSession(ctx, sessionID)
	if err != nil {
		f.flows.logger.ErrorContext(ctx, "claim session check failed",
			"claim_code", f.code,
			"error", err.Error(),
		)
		f.fail(ReasonSessionCheckError)
		return
	}
	if session != nil {
		f.resolveEntered = true
		f.advance(ctx, session)
		return
	}

	returnTo, err := url.Parse(f.flows.callbackURL)
	if err != nil {
		f.fail(ReasonSessionCheckError)
		return
	}
	q := returnTo.Query()
	q.Set("c", f.code)
	returnTo.RawQuery = q.Encode()

	redirect, err := f.flows.auth.SignInWithOAuth(authService.OAuthOptions{RedirectTo: returnTo.String()})
	if err != nil {
		f.fail(ReasonSessionCheckError)
		return
	}
	f.authURL = redirect.URL
	f.state = StateAuthenticating
}

// AwaitCallback moves the flow into AwaitingCallback and subscribes to
// auth-change events. Callers should probe the session afterwards via
// Resume so a sign-in that completed before the subscription still
// advances the flow.
func (f *Flow) AwaitCallback(ctx context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != StateCheckingSession && f.state != StateAuthenticating {
		return
	}
	f.state = StateAwaitingCallback
	f.sub = f.flows.auth.Hub().Subscribe(func(event authModel.AuthEvent, session *authModel.Session) {
		f.handleAuthEvent(ctx, event, session)
	})
}

// Resume feeds an independently observed session into an awaiting flow.
// Safe to call even when the subscription already fired.
func (f *Flow) Resume(ctx context.Context, session *authModel.Session) {
	f.handleAuthEvent(ctx, authModel.EventSignedIn, session)
}

func (f *Flow) handleAuthEvent(ctx context.Context, event authModel.AuthEvent, session *authModel.Session) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if event != authModel.EventSignedIn || session == nil {
		return
	}
	if f.state != StateAwaitingCallback || f.resolveEntered {
		return
	}
	f.resolveEntered = true
	f.advance(ctx, session)
}

// advance runs ResolvingDestination, BindingMetadata and Redirecting in
// sequence. Callers hold f.mu and have claimed the resolve gate.
func (f *Flow) advance(ctx context.Context, session *authModel.Session) {
	f.state = StateResolvingDestination
	destination, err := f.flows.resolver.ResolveDestination(ctx, f.code)
	if err != nil {
		f.flows.logger.WarnContext(ctx, "claim destination resolution failed",
			"claim_code", f.code,
			"error", err.Error(),
		)
		// A failed resolver call surfaces its own message; no-destination
		// is reserved for a response that resolved without one.
		f.fail(dErrors.MessageOf(err))
		return
	}
	if destination.URL == "" {
		f.fail(ReasonNoDestination)
		return
	}
	if destination.PassToken == "" {
		f.fail(ReasonNoPassToken)
		return
	}

	f.state = StateBindingMetadata
	if session.GoogleSub == "" {
		f.fail(ReasonMissingSubjectID)
		return
	}
	_, err = f.flows.binder.BindOwner(ctx, destination.PassToken, session.UserID, passModel.OwnerMetadata{
		GoogleSub: session.GoogleSub,
		Email:     session.Email,
		Name:      session.Name,
	})
	if err != nil {
		f.flows.logger.ErrorContext(ctx, "claim metadata write failed",
			"claim_code", f.code,
			"error", err.Error(),
		)
		f.fail(ReasonMetadataWriteError)
		return
	}

	f.state = StateRedirecting
	f.destination = destination.URL
	f.passToken = destination.PassToken
	f.finish()
}

// fail marks the flow terminally failed. Callers hold f.mu.
func (f *Flow) fail(reason string) {
	f.state = StateFailed
	f.reason = reason
	f.finish()
}

func (f *Flow) finish() {
	if f.sub != nil {
		f.sub.Unsubscribe()
		f.sub = nil
	}
	select {
	case <-f.done:
	default:
		close(f.done)
	}
}

// Teardown unsubscribes from auth events. Idempotent; call when the
// claim view goes away so a stale flow never reacts to later sign-ins.
func (f *Flow) Teardown() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sub != nil {
		f.sub.Unsubscribe()
		f.sub = nil
	}
}

// Done closes once the flow reaches Redirecting or Failed.
func (f *Flow) Done() <-chan struct{} { return f.done }

// State returns the current state.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// AuthURL is the provider navigation built in Authenticating.
func (f *Flow) AuthURL() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.authURL
}

// Result snapshots the flow outcome.
func (f *Flow) Result() Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Result{
		State:       f.state,
		Destination: f.destination,
		PassToken:   f.passToken,
		Reason:      f.reason,
	}
}
