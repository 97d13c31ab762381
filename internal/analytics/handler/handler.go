package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"cartera/internal/analytics/models"
	"cartera/internal/platform/metrics"
	"cartera/internal/platform/middleware"
	id "cartera/pkg/domain"
	dErrors "cartera/pkg/domain-errors"
	"cartera/pkg/platform/httputil"
)

// Service defines the interface for KPI queries.
type Service interface {
	ProjectKPIs(ctx context.Context, projectID id.ProjectID) (*models.ProjectKPIs, error)
	GlobalKPIs(ctx context.Context) (*models.GlobalKPIs, error)
	VisitTimeseries(ctx context.Context, projectID id.ProjectID, since time.Time, bucket time.Duration) ([]*models.TimeseriesPoint, error)
}

// Handler handles dashboard KPI endpoints.
type Handler struct {
	logger       *slog.Logger
	analytics    Service
	metrics      *metrics.Metrics
	jwtValidator middleware.JWTValidator
}

func New(analytics Service, logger *slog.Logger, metrics *metrics.Metrics, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		analytics:    analytics,
		metrics:      metrics,
		jwtValidator: jwtValidator,
	}
}

// Register registers the analytics routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(ar chi.Router) {
		ar.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
		ar.Get("/kpis", h.handleGlobalKPIs)
		ar.Get("/projects/{projectID}/kpis", h.handleProjectKPIs)
		ar.Get("/projects/{projectID}/kpis/timeseries", h.handleTimeseries)
	})
}

func (h *Handler) handleGlobalKPIs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	kpis, err := h.analytics.GlobalKPIs(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to compute global KPIs",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, kpis)
}

func (h *Handler) handleProjectKPIs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	projectID, err := id.ParseProjectID(chi.URLParam(r, "projectID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid project id"))
		return
	}
	kpis, err := h.analytics.ProjectKPIs(ctx, projectID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to compute project KPIs",
			"request_id", middleware.GetRequestID(ctx),
			"project_id", projectID.String(),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, kpis)
}

func (h *Handler) handleTimeseries(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	projectID, err := id.ParseProjectID(chi.URLParam(r, "projectID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid project id"))
		return
	}

	var since time.Time
	if raw := r.URL.Query().Get("since"); raw != "" {
		since, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid since timestamp"))
			return
		}
	}
	var bucket time.Duration
	if raw := r.URL.Query().Get("bucket"); raw != "" {
		bucket, err = time.ParseDuration(raw)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid bucket duration"))
			return
		}
	}

	points, err := h.analytics.VisitTimeseries(ctx, projectID, since, bucket)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, points)
}
