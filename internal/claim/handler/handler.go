package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	authModel "cartera/internal/auth/models"
	"cartera/internal/claim"
	passService "cartera/internal/pass/service"
	"cartera/internal/platform/metrics"
	"cartera/internal/platform/middleware"
	id "cartera/pkg/domain"
	dErrors "cartera/pkg/domain-errors"
	"cartera/pkg/platform/httputil"
	"cartera/pkg/requestcontext"
)

// SessionReader loads the session behind a bearer credential.
type SessionReader interface {
	GetSession(ctx context.Context, sessionID id.SessionID) (*authModel.Session, error)
}

// Resolver serves the universal-link boundary directly.
type Resolver interface {
	ResolveDestination(ctx context.Context, claimCode string) (*passService.Destination, error)
}

// Handler serves the claim pages and the universal-link endpoint.
type Handler struct {
	logger       *slog.Logger
	flows        *claim.Flows
	sessions     SessionReader
	resolver     Resolver
	metrics      *metrics.Metrics
	jwtValidator middleware.JWTValidator
}

func New(flows *claim.Flows, sessions SessionReader, resolver Resolver, logger *slog.Logger, metrics *metrics.Metrics, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		flows:        flows,
		sessions:     sessions,
		resolver:     resolver,
		metrics:      metrics,
		jwtValidator: jwtValidator,
	}
}

// Register registers the claim routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(cr chi.Router) {
		cr.Use(middleware.OptionalAuth(h.jwtValidator))
		cr.Get("/claim/{projectID}", h.handleStart)
		cr.Get("/claim/callback", h.handleCallback)
		cr.Get("/universal-link", h.handleUniversalLink)
	})
}

// handleStart runs the flow from CheckingSession for a fresh claim page
// load. A logged-in claimer is carried straight through to the wallet
// redirect; everyone else is bounced to the identity provider.
func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	flow := h.flows.New(r.URL.Query().Get("c"))
	defer flow.Teardown()

	flow.Start(ctx, requestcontext.SessionID(ctx))
	h.respond(w, r, flow)
}

// handleCallback re-enters the flow after the provider redirected back.
// The flow subscribes to auth events first and then probes the session,
// so it advances whichever of the two observes the sign-in.
func (h *Handler) handleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	flow := h.flows.New(r.URL.Query().Get("c"))
	defer flow.Teardown()

	flow.AwaitCallback(ctx)

	session, err := h.sessions.GetSession(ctx, requestcontext.SessionID(ctx))
	if err != nil {
		h.logger.ErrorContext(ctx, "claim callback session probe failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "session lookup failed"))
		return
	}
	if session != nil {
		flow.Resume(ctx, session)
	}
	h.respond(w, r, flow)
}

// handleUniversalLink is the claim resolver boundary: a claim code plus a
// bearer credential maps to the wallet destination and pass token.
func (h *Handler) handleUniversalLink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if requestcontext.UserID(ctx).IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	destination, err := h.resolver.ResolveDestination(ctx, r.URL.Query().Get("c"))
	if err != nil {
		h.logger.WarnContext(ctx, "universal link resolution failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	if r.URL.Query().Get("mode") == "json" {
		httputil.WriteJSON(w, http.StatusOK, destination)
		return
	}
	http.Redirect(w, r, destination.URL, http.StatusFound)
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, flow *claim.Flow) {
	result := flow.Result()
	switch result.State {
	case claim.StateAuthenticating:
		http.Redirect(w, r, flow.AuthURL(), http.StatusFound)
	case claim.StateRedirecting:
		h.metrics.IncrementPassesClaimed()
		http.Redirect(w, r, result.Destination, http.StatusFound)
	case claim.StateFailed:
		httputil.WriteJSON(w, http.StatusUnprocessableEntity, result)
	default:
		// Still awaiting the provider round-trip.
		httputil.WriteJSON(w, http.StatusAccepted, result)
	}
}
