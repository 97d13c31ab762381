package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	customerModel "cartera/internal/customer/models"
	"cartera/internal/events"
	"cartera/internal/pass/models"
	"cartera/internal/pass/store"
	projectModel "cartera/internal/project/models"
	id "cartera/pkg/domain"
	dErrors "cartera/pkg/domain-errors"
	"cartera/pkg/platform/sentinel"
	"cartera/pkg/requestcontext"
)

// ProjectReader is the slice of the project service used here.
type ProjectReader interface {
	Get(ctx context.Context, projectID id.ProjectID) (*projectModel.Project, error)
}

// CustomerSync records claimers in the project customer registry.
type CustomerSync interface {
	SyncFromClaim(ctx context.Context, projectID id.ProjectID, googleSub, name, email string) (*customerModel.Customer, error)
}

// Service owns pass issuance, lookup and claim binding.
type Service struct {
	logger          *slog.Logger
	passes          store.PassStore
	projects        ProjectReader
	customers       CustomerSync
	publisher       events.Publisher
	tracer          trace.Tracer
	canonicalOrigin string
}

func New(passes store.PassStore, projects ProjectReader, canonicalOrigin string) *Service {
	return &Service{
		logger:          slog.Default(),
		passes:          passes,
		projects:        projects,
		publisher:       events.NopPublisher{},
		tracer:          otel.Tracer("cartera/pass"),
		canonicalOrigin: strings.TrimRight(canonicalOrigin, "/"),
	}
}

// SetLogger replaces the default logger.
func (s *Service) SetLogger(logger *slog.Logger) { s.logger = logger }

// SetCustomerSync wires the customer registry into claim completion.
func (s *Service) SetCustomerSync(customers CustomerSync) { s.customers = customers }

// SetPublisher wires the event publisher used for claim events.
func (s *Service) SetPublisher(publisher events.Publisher) { s.publisher = publisher }

// Issue creates an unclaimed pass under a project. The pass token and
// claim code are generated server side when not supplied.
func (s *Service) Issue(ctx context.Context, in models.IssueInput) (*models.Pass, error) {
	if _, err := s.projects.Get(ctx, in.ProjectID); err != nil {
		return nil, err
	}
	serial := strings.TrimSpace(in.SerialNumber)
	if serial == "" {
		serial = randomToken(12)
	}
	claimCode := strings.TrimSpace(in.ClaimCode)
	if claimCode == "" {
		claimCode = randomToken(8)
	}
	now := requestcontext.Now(ctx)
	pass := &models.Pass{
		ID:           id.PassID(uuid.New()),
		ProjectID:    in.ProjectID,
		PassToken:    randomToken(16),
		SerialNumber: serial,
		ClaimCode:    claimCode,
		Platform:     in.Platform,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.passes.Create(ctx, pass); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "pass already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue pass")
	}
	return pass, nil
}

func (s *Service) GetByToken(ctx context.Context, passToken string) (*models.Pass, error) {
	pass, err := s.passes.FindByToken(ctx, passToken)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "pass not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load pass")
	}
	return pass, nil
}

// GetBySerial resolves printed wallet links that carry the serial
// number instead of the pass token.
func (s *Service) GetBySerial(ctx context.Context, serialNumber string) (*models.Pass, error) {
	pass, err := s.passes.FindBySerial(ctx, serialNumber)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "pass not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load pass")
	}
	return pass, nil
}

func (s *Service) ListByUser(ctx context.Context, userID id.UserID) ([]*models.Pass, error) {
	passes, err := s.passes.ListByUser(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list passes")
	}
	return passes, nil
}

// UpdatePoints persists a points or window change made by the registrar.
func (s *Service) UpdatePoints(ctx context.Context, pass *models.Pass) error {
	if err := s.passes.Update(ctx, pass); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update pass")
	}
	return nil
}

// Destination is the claim target resolved from a claim code.
type Destination struct {
	URL       string `json:"destination"`
	PassToken string `json:"passToken"`
}

// ResolveDestination maps a claim code to the wallet destination and the
// pass token the claimer should bind to.
func (s *Service) ResolveDestination(ctx context.Context, claimCode string) (*Destination, error) {
	ctx, span := s.tracer.Start(ctx, "claim.resolve")
	defer span.End()

	claimCode = strings.TrimSpace(claimCode)
	if claimCode == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "claim code is required")
	}
	pass, err := s.passes.FindByClaimCode(ctx, claimCode)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "unknown claim code")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve claim code")
	}
	project, err := s.projects.Get(ctx, pass.ProjectID)
	if err != nil {
		return nil, err
	}
	destination := s.FillClaimTemplate(project.ClaimURLTemplate, pass.ProjectID, pass.Metadata["google_sub"])
	if destination == "" {
		return nil, dErrors.New(dErrors.CodeNotFound, "project has no claim destination")
	}
	span.SetAttributes(attribute.String("project_id", pass.ProjectID.String()))
	return &Destination{URL: destination, PassToken: pass.PassToken}, nil
}

// BindOwner stamps owner metadata onto a pass after a completed claim.
// Binding is idempotent for the same user.
func (s *Service) BindOwner(ctx context.Context, passToken string, userID id.UserID, owner models.OwnerMetadata) (*models.Pass, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	pass, err := s.GetByToken(ctx, passToken)
	if err != nil {
		return nil, err
	}
	if pass.Claimed() && pass.UserID != userID {
		return nil, dErrors.New(dErrors.CodeConflict, "pass already claimed by another user")
	}

	now := requestcontext.Now(ctx)
	pass.UserID = userID
	if pass.Metadata == nil {
		pass.Metadata = make(map[string]string)
	}
	pass.Metadata["google_sub"] = owner.GoogleSub
	pass.Metadata["email"] = owner.Email
	pass.Metadata["name"] = owner.Name
	pass.Metadata["user_id"] = userID.String()
	pass.Metadata["claimed_at"] = now.UTC().Format(time.RFC3339)
	if agent := requestcontext.UserAgent(ctx); agent != "" {
		pass.Metadata["user_agent"] = agent
	}
	pass.UpdatedAt = now

	if err := s.passes.Update(ctx, pass); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to bind pass owner")
	}

	if s.customers != nil {
		if _, err := s.customers.SyncFromClaim(ctx, pass.ProjectID, owner.GoogleSub, owner.Name, owner.Email); err != nil {
			return nil, err
		}
	}
	if err := s.publisher.Publish(ctx, events.TopicPasses, pass.PassToken, events.PassClaimed{
		ProjectID: pass.ProjectID.String(),
		PassToken: pass.PassToken,
		UserID:    userID.String(),
		GoogleSub: owner.GoogleSub,
		ClaimedAt: now,
	}); err != nil {
		// The claim is already durable; event delivery lag is acceptable.
		s.logger.WarnContext(ctx, "pass claimed event publish failed",
			"pass_id", pass.ID.String(),
			"error", err.Error(),
		)
	}
	return pass, nil
}

// FillClaimTemplate expands a claim URL template and pins it to the
// canonical origin. Relative templates are prefixed; absolute templates
// on a foreign origin are rewritten to the canonical host and scheme.
func (s *Service) FillClaimTemplate(template string, projectID id.ProjectID, googleSub string) string {
	if template == "" {
		return ""
	}
	filled := strings.ReplaceAll(template, "{projectId}", projectID.String())
	if googleSub == "" || strings.Contains(googleSub, "{") || googleSub == "me" {
		filled = strings.Replace(filled, "/{googleSub}", "/me", 1)
	} else {
		filled = strings.ReplaceAll(filled, "{googleSub}", googleSub)
	}

	if !strings.HasPrefix(filled, "http") {
		return s.canonicalOrigin + filled
	}

	parsed, err := url.Parse(filled)
	if err != nil {
		return s.canonicalOrigin
	}
	canonical, err := url.Parse(s.canonicalOrigin)
	if err != nil || canonical.Host == "" {
		return filled
	}
	if parsed.Scheme != canonical.Scheme || parsed.Host != canonical.Host {
		parsed.Scheme = canonical.Scheme
		parsed.Host = canonical.Host
		return parsed.String()
	}
	return filled
}

func randomToken(bytes int) string {
	buf := make([]byte, bytes)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%x", uuid.New())
	}
	return hex.EncodeToString(buf)
}
