package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"cartera/internal/events"
	passModel "cartera/internal/pass/models"
	projectModel "cartera/internal/project/models"
	"cartera/internal/visit/metrics"
	"cartera/internal/visit/models"
	"cartera/internal/visit/store"
	id "cartera/pkg/domain"
	dErrors "cartera/pkg/domain-errors"
	"cartera/pkg/platform/tx"
	"cartera/pkg/requestcontext"
)

// PassAccess is the slice of the pass service the registrar needs.
type PassAccess interface {
	GetByToken(ctx context.Context, passToken string) (*passModel.Pass, error)
	UpdatePoints(ctx context.Context, pass *passModel.Pass) error
}

// ProjectReader loads the scanning project for its visit window.
type ProjectReader interface {
	Get(ctx context.Context, projectID id.ProjectID) (*projectModel.Project, error)
}

// Service registers visits. Registration is not idempotent; callers must
// not retry automatically and must not submit the same scan concurrently.
type Service struct {
	logger        *slog.Logger
	visits        store.VisitStore
	passes        PassAccess
	projects      ProjectReader
	publisher     events.Publisher
	metrics       *metrics.Metrics
	tracer        trace.Tracer
	runner        tx.Runner
	defaultWindow time.Duration
}

func New(visits store.VisitStore, passes PassAccess, projects ProjectReader, publisher events.Publisher, m *metrics.Metrics, defaultWindow time.Duration, logger *slog.Logger) *Service {
	return &Service{
		logger:        logger,
		visits:        visits,
		passes:        passes,
		projects:      projects,
		publisher:     publisher,
		metrics:       m,
		tracer:        otel.Tracer("cartera/visit"),
		runner:        tx.Nop{},
		defaultWindow: defaultWindow,
	}
}

// SetTxRunner wires a transaction boundary around registration so the
// pass update, the visit row and the staged event commit together.
func (s *Service) SetTxRunner(runner tx.Runner) { s.runner = runner }

// Register accepts one resolved scan: it validates token and project
// ownership, advances or resets the points window, appends a visit row
// and emits a visit event.
func (s *Service) Register(ctx context.Context, in models.RegisterInput) (*models.VisitResult, error) {
	start := time.Now()
	defer s.metrics.ObserveRegister(start)

	ctx, span := s.tracer.Start(ctx, "visit.register",
		trace.WithAttributes(attribute.String("project_id", in.ProjectID.String())))
	defer span.End()

	if in.PassToken == "" {
		s.metrics.IncrementRejected()
		return nil, dErrors.New(dErrors.CodeInvalidPayload, "pass token is required")
	}

	pass, err := s.passes.GetByToken(ctx, in.PassToken)
	if err != nil {
		s.metrics.IncrementRejected()
		return nil, err
	}
	if pass.ProjectID != in.ProjectID {
		s.metrics.IncrementRejected()
		return nil, dErrors.New(dErrors.CodeForbidden, "pass belongs to another project")
	}

	project, err := s.projects.Get(ctx, pass.ProjectID)
	if err != nil {
		return nil, err
	}
	window := project.VisitWindow
	if window <= 0 {
		window = s.defaultWindow
	}

	now := requestcontext.Now(ctx)
	reset := pass.WindowExpired(now)
	if reset || pass.ExpiresAt == nil {
		pass.Points = 1
	} else {
		pass.Points++
	}
	expiresAt := now.Add(window)
	pass.ExpiresAt = &expiresAt
	pass.UpdatedAt = now

	visit := &models.Visit{
		ID:        id.VisitID(uuid.New()),
		ProjectID: pass.ProjectID,
		PassID:    pass.ID,
		Points:    pass.Points,
		Reset:     reset,
		VisitedAt: now,
	}
	// One unit of work. With the outbox wired the staged event commits
	// or rolls back together with the pass update and the visit row.
	err = s.runner.Run(ctx, func(ctx context.Context) error {
		if err := s.passes.UpdatePoints(ctx, pass); err != nil {
			return err
		}
		if err := s.visits.Record(ctx, visit); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record visit")
		}
		if err := s.publisher.Publish(ctx, events.TopicVisits, pass.PassToken, events.VisitRegistered{
			ProjectID: pass.ProjectID.String(),
			PassID:    pass.ID.String(),
			PassToken: pass.PassToken,
			Points:    pass.Points,
			Reset:     reset,
			ExpiresAt: expiresAt,
			VisitedAt: now,
		}); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to stage visit event")
		}
		return nil
	})
	if err != nil {
		s.logger.WarnContext(ctx, "visit registration failed",
			"pass_id", pass.ID.String(),
			"error", err.Error(),
		)
		return nil, err
	}

	s.metrics.IncrementRegistered()
	if reset {
		s.metrics.IncrementWindowReset()
	}
	return &models.VisitResult{Points: pass.Points, ExpiresAt: expiresAt, Reset: reset}, nil
}

// ListByProject returns the newest visits for a project dashboard.
func (s *Service) ListByProject(ctx context.Context, projectID id.ProjectID, limit int) ([]*models.Visit, error) {
	visits, err := s.visits.ListByProject(ctx, projectID, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list visits")
	}
	return visits, nil
}
