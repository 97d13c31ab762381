package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"cartera/internal/customer/models"
	"cartera/internal/platform/metrics"
	"cartera/internal/platform/middleware"
	id "cartera/pkg/domain"
	dErrors "cartera/pkg/domain-errors"
	"cartera/pkg/platform/httputil"
	"cartera/pkg/requestcontext"
)

// Service defines the interface for customer queries.
type Service interface {
	ListWithVisits(ctx context.Context, projectID id.ProjectID) ([]*models.CustomerWithVisits, error)
}

// Handler handles customer dashboard endpoints.
type Handler struct {
	logger       *slog.Logger
	customers    Service
	metrics      *metrics.Metrics
	jwtValidator middleware.JWTValidator
}

func New(customers Service, logger *slog.Logger, metrics *metrics.Metrics, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		customers:    customers,
		metrics:      metrics,
		jwtValidator: jwtValidator,
	}
}

// Register registers the customer routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(cr chi.Router) {
		cr.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
		cr.Get("/projects/{projectID}/customers", h.handleList)
	})
}

// handleList returns a project's customers with their visit activity.
// Staff only see the project their token is bound to.
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	projectID, err := id.ParseProjectID(chi.URLParam(r, "projectID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid project id"))
		return
	}
	if caller := requestcontext.ProjectID(ctx); !caller.IsNil() && caller != projectID {
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "project mismatch"))
		return
	}

	customers, err := h.customers.ListWithVisits(ctx, projectID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list customers",
			"request_id", middleware.GetRequestID(ctx),
			"project_id", projectID.String(),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, customers)
}
