package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"cartera/internal/platform/metrics"
	"cartera/internal/platform/middleware"
	"cartera/internal/qr"
	"cartera/internal/visit/models"
	id "cartera/pkg/domain"
	dErrors "cartera/pkg/domain-errors"
	"cartera/pkg/platform/httputil"
	"cartera/pkg/requestcontext"
)

// Registrar is the interface for visit registration.
type Registrar interface {
	Register(ctx context.Context, in models.RegisterInput) (*models.VisitResult, error)
	ListByProject(ctx context.Context, projectID id.ProjectID, limit int) ([]*models.Visit, error)
}

// Handler handles scanner-facing endpoints.
type Handler struct {
	logger            *slog.Logger
	visits            Registrar
	metrics           *metrics.Metrics
	jwtValidator      middleware.JWTValidator
	scanRatePerMinute int
}

func New(visits Registrar, logger *slog.Logger, metrics *metrics.Metrics, jwtValidator middleware.JWTValidator, scanRatePerMinute int) *Handler {
	return &Handler{
		logger:            logger,
		visits:            visits,
		metrics:           metrics,
		jwtValidator:      jwtValidator,
		scanRatePerMinute: scanRatePerMinute,
	}
}

// Register registers the scanner routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(sr chi.Router) {
		sr.Use(middleware.RateLimit(h.scanRatePerMinute))
		sr.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
		sr.Post("/scanner/visit", h.handleVisit)
		sr.Get("/projects/{projectID}/visits", h.handleListVisits)
	})
}

type visitRequest struct {
	// Payload is the raw decoded QR string; the token is resolved server
	// side so every scanner build shares one parsing rule.
	Payload string `json:"payload"`
}

// handleVisit accepts one scan from an authenticated scanner. The
// scanner's project binding comes from its token, never from the body.
func (h *Handler) handleVisit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	projectID := requestcontext.ProjectID(ctx)
	if projectID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "scanner token carries no project"))
		return
	}

	req, err := httputil.DecodeAndPrepare[visitRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	token, err := qr.Resolve(req.Payload)
	if err != nil {
		h.logger.WarnContext(ctx, "unresolvable scan payload",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	result, err := h.visits.Register(ctx, models.RegisterInput{
		ProjectID: projectID,
		PassToken: token.Value,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "visit registration failed",
			"request_id", requestID,
			"project_id", projectID.String(),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleListVisits(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	projectID, err := id.ParseProjectID(chi.URLParam(r, "projectID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid project id"))
		return
	}
	if caller := requestcontext.ProjectID(ctx); caller != projectID {
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "project mismatch"))
		return
	}

	visits, err := h.visits.ListByProject(ctx, projectID, 100)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, visits)
}
