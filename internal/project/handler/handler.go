package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"cartera/internal/platform/metrics"
	"cartera/internal/platform/middleware"
	projectModel "cartera/internal/project/models"
	id "cartera/pkg/domain"
	dErrors "cartera/pkg/domain-errors"
	"cartera/pkg/platform/httputil"
)

// Service defines the interface for project operations.
type Service interface {
	Create(ctx context.Context, in projectModel.CreateProjectInput) (*projectModel.Project, error)
	Get(ctx context.Context, projectID id.ProjectID) (*projectModel.Project, error)
	List(ctx context.Context) ([]*projectModel.Project, error)
	Update(ctx context.Context, projectID id.ProjectID, patch projectModel.Patch) (*projectModel.Project, error)
	Delete(ctx context.Context, projectID id.ProjectID) error
	AddLocation(ctx context.Context, in projectModel.AddLocationInput) (*projectModel.Location, error)
	ListLocations(ctx context.Context, projectID id.ProjectID) ([]*projectModel.Location, error)
	RemoveLocation(ctx context.Context, locationID id.LocationID) error
}

// Handler handles project administration endpoints.
type Handler struct {
	logger       *slog.Logger
	projects     Service
	metrics      *metrics.Metrics
	jwtValidator middleware.JWTValidator
}

func New(projects Service, logger *slog.Logger, metrics *metrics.Metrics, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		projects:     projects,
		metrics:      metrics,
		jwtValidator: jwtValidator,
	}
}

// Register registers the project routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(pr chi.Router) {
		pr.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
		pr.Post("/projects", h.handleCreate)
		pr.Get("/projects", h.handleList)
		pr.Get("/projects/{projectID}", h.handleGet)
		pr.Patch("/projects/{projectID}", h.handleUpdate)
		pr.Delete("/projects/{projectID}", h.handleDelete)
		pr.Post("/projects/{projectID}/locations", h.handleAddLocation)
		pr.Get("/projects/{projectID}/locations", h.handleListLocations)
		pr.Delete("/projects/{projectID}/locations/{locationID}", h.handleRemoveLocation)
	})
}

type createProjectRequest struct {
	Name              string `json:"name"`
	LogoURL           string `json:"logo_url"`
	ClaimURLTemplate  string `json:"claim_url_template"`
	QRPayloadTemplate string `json:"qr_payload_template"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req, err := httputil.DecodeAndPrepare[createProjectRequest](r)
	if err != nil {
		h.logger.WarnContext(ctx, "invalid create project request",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	project, err := h.projects.Create(ctx, projectModel.CreateProjectInput{
		Name:              req.Name,
		LogoURL:           req.LogoURL,
		ClaimURLTemplate:  req.ClaimURLTemplate,
		QRPayloadTemplate: req.QRPayloadTemplate,
	})
	if err != nil {
		h.logError(ctx, "failed to create project", err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, project)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	projects, err := h.projects.List(ctx)
	if err != nil {
		h.logError(ctx, "failed to list projects", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, projects)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	projectID, ok := h.projectIDFromPath(w, r)
	if !ok {
		return
	}
	project, err := h.projects.Get(ctx, projectID)
	if err != nil {
		h.logError(ctx, "failed to load project", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, project)
}

type updateProjectRequest struct {
	Name              *string `json:"name"`
	LogoURL           *string `json:"logo_url"`
	ClaimURLTemplate  *string `json:"claim_url_template"`
	QRPayloadTemplate *string `json:"qr_payload_template"`
	VisitWindow       *string `json:"visit_window"`
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	projectID, ok := h.projectIDFromPath(w, r)
	if !ok {
		return
	}
	req, err := httputil.DecodeAndPrepare[updateProjectRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	patch := projectModel.Patch{
		Name:              req.Name,
		LogoURL:           req.LogoURL,
		ClaimURLTemplate:  req.ClaimURLTemplate,
		QRPayloadTemplate: req.QRPayloadTemplate,
	}
	if req.VisitWindow != nil {
		window, err := time.ParseDuration(*req.VisitWindow)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidPayload, "invalid visit_window duration"))
			return
		}
		patch.VisitWindow = &window
	}

	project, err := h.projects.Update(ctx, projectID, patch)
	if err != nil {
		h.logError(ctx, "failed to update project", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, project)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	projectID, ok := h.projectIDFromPath(w, r)
	if !ok {
		return
	}
	if err := h.projects.Delete(ctx, projectID); err != nil {
		h.logError(ctx, "failed to delete project", err)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type addLocationRequest struct {
	Label   string `json:"label"`
	Address string `json:"address"`
}

func (h *Handler) handleAddLocation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	projectID, ok := h.projectIDFromPath(w, r)
	if !ok {
		return
	}
	req, err := httputil.DecodeAndPrepare[addLocationRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	location, err := h.projects.AddLocation(ctx, projectModel.AddLocationInput{
		ProjectID: projectID,
		Label:     req.Label,
		Address:   req.Address,
	})
	if err != nil {
		h.logError(ctx, "failed to add location", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, location)
}

func (h *Handler) handleListLocations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	projectID, ok := h.projectIDFromPath(w, r)
	if !ok {
		return
	}
	locations, err := h.projects.ListLocations(ctx, projectID)
	if err != nil {
		h.logError(ctx, "failed to list locations", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, locations)
}

func (h *Handler) handleRemoveLocation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	locationID, err := id.ParseLocationID(chi.URLParam(r, "locationID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid location id"))
		return
	}
	if err := h.projects.RemoveLocation(ctx, locationID); err != nil {
		h.logError(ctx, "failed to remove location", err)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) projectIDFromPath(w http.ResponseWriter, r *http.Request) (id.ProjectID, bool) {
	projectID, err := id.ParseProjectID(chi.URLParam(r, "projectID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid project id"))
		return id.ProjectID{}, false
	}
	return projectID, true
}

func (h *Handler) logError(ctx context.Context, msg string, err error) {
	if dErrors.Is(err, dErrors.CodeInternal) {
		h.logger.ErrorContext(ctx, msg,
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		return
	}
	h.logger.WarnContext(ctx, msg,
		"request_id", middleware.GetRequestID(ctx),
		"error", err.Error(),
	)
}
