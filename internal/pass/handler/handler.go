package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"cartera/internal/pass/models"
	"cartera/internal/platform/metrics"
	"cartera/internal/platform/middleware"
	projectModel "cartera/internal/project/models"
	"cartera/internal/qr"
	"cartera/internal/wallet"
	id "cartera/pkg/domain"
	dErrors "cartera/pkg/domain-errors"
	"cartera/pkg/platform/httputil"
	"cartera/pkg/requestcontext"
)

// Service defines the interface for pass operations.
type Service interface {
	Issue(ctx context.Context, in models.IssueInput) (*models.Pass, error)
	GetByToken(ctx context.Context, passToken string) (*models.Pass, error)
	GetBySerial(ctx context.Context, serialNumber string) (*models.Pass, error)
	ListByUser(ctx context.Context, userID id.UserID) ([]*models.Pass, error)
	FillClaimTemplate(template string, projectID id.ProjectID, googleSub string) string
}

// ProjectReader loads projects for the legacy claim-link redirect.
type ProjectReader interface {
	Get(ctx context.Context, projectID id.ProjectID) (*projectModel.Project, error)
}

// WalletGenerator brokers wallet artifact generation.
type WalletGenerator interface {
	Generate(ctx context.Context, req wallet.GenerateRequest) (*wallet.GeneratedPass, error)
}

// Handler handles pass issuance and wallet endpoints.
type Handler struct {
	logger       *slog.Logger
	passes       Service
	projects     ProjectReader
	generator    WalletGenerator
	metrics      *metrics.Metrics
	jwtValidator middleware.JWTValidator
}

func New(passes Service, projects ProjectReader, generator WalletGenerator, logger *slog.Logger, metrics *metrics.Metrics, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		passes:       passes,
		projects:     projects,
		generator:    generator,
		metrics:      metrics,
		jwtValidator: jwtValidator,
	}
}

// Register registers the pass routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(authed chi.Router) {
		authed.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
		authed.Post("/projects/{projectID}/passes", h.handleIssue)
		authed.Get("/passes/me", h.handleListMine)
	})
	r.Get("/passes/{passToken}/wallet", h.handleWallet)
	r.Get("/s/{serialNumber}/wallet", h.handleWalletBySerial)
	r.Get("/c/{projectID}/{googleSub}", h.handleLegacyClaimLink)
}

type issuePassRequest struct {
	SerialNumber string `json:"serial_number"`
	ClaimCode    string `json:"claim_code"`
	Platform     string `json:"platform"`
}

func (h *Handler) handleIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	projectID, err := id.ParseProjectID(chi.URLParam(r, "projectID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid project id"))
		return
	}
	req, err := httputil.DecodeAndPrepare[issuePassRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	platform := models.Platform(req.Platform)
	if platform == models.PlatformUnknown {
		platform = wallet.DetectPlatform(requestcontext.UserAgent(ctx))
	}

	pass, err := h.passes.Issue(ctx, models.IssueInput{
		ProjectID:    projectID,
		SerialNumber: req.SerialNumber,
		ClaimCode:    req.ClaimCode,
		Platform:     platform,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "failed to issue pass",
			"request_id", middleware.GetRequestID(ctx),
			"project_id", projectID.String(),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, pass)
}

func (h *Handler) handleListMine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	passes, err := h.passes.ListByUser(ctx, userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, passes)
}

// handleWallet redirects the holder to the platform wallet artifact for
// an issued pass. Platform falls back to user-agent detection so one
// link works from either phone.
func (h *Handler) handleWallet(w http.ResponseWriter, r *http.Request) {
	pass, err := h.passes.GetByToken(r.Context(), chi.URLParam(r, "passToken"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.redirectToWallet(w, r, pass)
}

// handleWalletBySerial serves printed links that embed the serial
// number rather than the pass token.
func (h *Handler) handleWalletBySerial(w http.ResponseWriter, r *http.Request) {
	pass, err := h.passes.GetBySerial(r.Context(), chi.URLParam(r, "serialNumber"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.redirectToWallet(w, r, pass)
}

func (h *Handler) redirectToWallet(w http.ResponseWriter, r *http.Request, pass *models.Pass) {
	ctx := r.Context()

	platform := pass.Platform
	if platform == models.PlatformUnknown {
		platform = wallet.DetectPlatform(requestcontext.UserAgent(ctx))
	}

	generated, err := h.generator.Generate(ctx, wallet.GenerateRequest{
		ProjectID:    pass.ProjectID,
		PassToken:    pass.PassToken,
		SerialNumber: pass.SerialNumber,
		Platform:     platform,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "wallet generation failed",
			"request_id", middleware.GetRequestID(ctx),
			"pass_id", pass.ID.String(),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	http.Redirect(w, r, generated.URL, http.StatusFound)
}

// handleLegacyClaimLink serves QR codes printed before the token scheme:
// the payload carries a project and provider subject instead of a pass
// token. The pair is re-validated through the legacy adapter and bounced
// to the project's claim destination.
func (h *Handler) handleLegacyClaimLink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	payload, err := qr.ResolveLegacy(r.URL.Path)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	projectID, err := id.ParseProjectID(payload.ProjectID)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid project id"))
		return
	}

	project, err := h.projects.Get(ctx, projectID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	destination := h.passes.FillClaimTemplate(project.ClaimURLTemplate, projectID, payload.GoogleSub)
	if destination == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "project has no claim destination"))
		return
	}
	http.Redirect(w, r, destination, http.StatusFound)
}
