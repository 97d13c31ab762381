package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	authModel "cartera/internal/auth/models"
	authService "cartera/internal/auth/service"
	"cartera/internal/platform/metrics"
	"cartera/internal/platform/middleware"
	id "cartera/pkg/domain"
	dErrors "cartera/pkg/domain-errors"
	"cartera/pkg/platform/httputil"
	"cartera/pkg/requestcontext"
)

// Service defines the interface for auth operations.
type Service interface {
	GetSession(ctx context.Context, sessionID id.SessionID) (*authModel.Session, error)
	SignInWithOAuth(opts authService.OAuthOptions) (authModel.OAuthRedirect, error)
	CompleteOAuth(ctx context.Context, identity authService.ProviderIdentity) (*authModel.SignInResult, error)
	PasswordLogin(ctx context.Context, projectID id.ProjectID, email, password string) (*authModel.SignInResult, error)
	SignOut(ctx context.Context, sessionID id.SessionID) error
}

// Handler handles authentication endpoints.
type Handler struct {
	logger       *slog.Logger
	auth         Service
	metrics      *metrics.Metrics
	jwtValidator middleware.JWTValidator
}

func New(auth Service, logger *slog.Logger, metrics *metrics.Metrics, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		auth:         auth,
		metrics:      metrics,
		jwtValidator: jwtValidator,
	}
}

// Register registers the auth routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/login", h.handlePasswordLogin)
	r.Get("/auth/oauth/start", h.handleOAuthStart)
	r.Get("/auth/oauth/callback", h.handleOAuthCallback)

	r.Group(func(authed chi.Router) {
		authed.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
		authed.Get("/auth/session", h.handleSession)
		authed.Post("/auth/logout", h.handleLogout)
	})
}

type loginRequest struct {
	ProjectID string `json:"project_id"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

func (h *Handler) handlePasswordLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, err := httputil.DecodeAndPrepare[loginRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	projectID, err := id.ParseProjectID(req.ProjectID)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid project id"))
		return
	}

	result, err := h.auth.PasswordLogin(ctx, projectID, req.Email, req.Password)
	if err != nil {
		h.logger.WarnContext(ctx, "password login failed",
			"request_id", middleware.GetRequestID(ctx),
			"project_id", projectID.String(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleOAuthStart(w http.ResponseWriter, r *http.Request) {
	redirect, err := h.auth.SignInWithOAuth(authService.OAuthOptions{
		RedirectTo: r.URL.Query().Get("redirect_to"),
		Scopes:     r.URL.Query().Get("scopes"),
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	http.Redirect(w, r, redirect.URL, http.StatusFound)
}

// handleOAuthCallback finishes the provider round-trip. The subject may
// legitimately be missing; downstream flows decide how fatal that is.
func (h *Handler) handleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	result, err := h.auth.CompleteOAuth(ctx, authService.ProviderIdentity{
		Sub:   query.Get("sub"),
		Email: query.Get("email"),
		Name:  query.Get("name"),
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "oauth callback failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	session, err := h.auth.GetSession(ctx, requestcontext.SessionID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if session == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "no active session"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, session)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.auth.SignOut(ctx, requestcontext.SessionID(ctx)); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
