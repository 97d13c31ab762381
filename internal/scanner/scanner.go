package scanner

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"cartera/internal/qr"
	visitModel "cartera/internal/visit/models"
	id "cartera/pkg/domain"
	dErrors "cartera/pkg/domain-errors"
	"cartera/pkg/requestcontext"
)

// FrameSource delivers decoded QR payloads from a camera or feed. A
// source is exclusively owned by one Scanner at a time; Stop must release
// the device and drop any pending decode callback.
type FrameSource interface {
	Start(ctx context.Context, onDecode func(payload string)) error
	Stop() error
}

// Registrar submits resolved tokens for visit registration.
type Registrar interface {
	Register(ctx context.Context, in visitModel.RegisterInput) (*visitModel.VisitResult, error)
}

// View is a snapshot of scanner state for rendering.
type View struct {
	Busy       bool                    `json:"busy"`
	Result     *visitModel.VisitResult `json:"result,omitempty"`
	Message    string                  `json:"message,omitempty"`
	ShownUntil time.Time               `json:"shown_until,omitempty"`
}

const defaultDisplayWindow = 5 * time.Second

// Scanner feeds decoded frames through token resolution into visit
// registration. A busy flag, not a queue, enforces that only one
// resolution is in flight: frames arriving while busy are dropped, since
// registration is not idempotent and must never run twice for one scan.
type Scanner struct {
	logger        *slog.Logger
	source        FrameSource
	registrar     Registrar
	projectID     id.ProjectID
	displayWindow time.Duration

	mu         sync.Mutex
	busy       bool
	started    bool
	result     *visitModel.VisitResult
	message    string
	shownUntil time.Time
}

func New(source FrameSource, registrar Registrar, projectID id.ProjectID, logger *slog.Logger) *Scanner {
	return &Scanner{
		logger:        logger,
		source:        source,
		registrar:     registrar,
		projectID:     projectID,
		displayWindow: defaultDisplayWindow,
	}
}

// Start claims the frame source. Frames are handled synchronously on the
// source's decode goroutine.
func (s *Scanner) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return dErrors.New(dErrors.CodeConflict, "scanner already started")
	}
	s.started = true
	s.mu.Unlock()

	if err := s.source.Start(ctx, func(payload string) {
		s.HandleFrame(ctx, payload)
	}); err != nil {
		s.mu.Lock()
		s.started = false
		s.mu.Unlock()
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to start frame source")
	}
	return nil
}

// Stop releases the camera and any pending decode callback. Idempotent.
func (s *Scanner) Stop() error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	s.mu.Unlock()

	if err := s.source.Stop(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to release frame source")
	}
	return nil
}

// HandleFrame processes one decoded payload. Frames arriving while a
// registration is in flight, or while the previous result is still on
// screen, are dropped.
func (s *Scanner) HandleFrame(ctx context.Context, payload string) {
	now := requestcontext.Now(ctx)

	s.mu.Lock()
	if !s.started || s.busy || now.Before(s.shownUntil) {
		s.mu.Unlock()
		return
	}
	s.busy = true
	s.mu.Unlock()

	result, message := s.process(ctx, payload)

	s.mu.Lock()
	s.busy = false
	s.result = result
	s.message = message
	s.shownUntil = now.Add(s.displayWindow)
	s.mu.Unlock()
}

func (s *Scanner) process(ctx context.Context, payload string) (*visitModel.VisitResult, string) {
	token, err := qr.Resolve(payload)
	if err != nil {
		return nil, dErrors.MessageOf(err)
	}
	result, err := s.registrar.Register(ctx, visitModel.RegisterInput{
		ProjectID: s.projectID,
		PassToken: token.Value,
	})
	if err != nil {
		// Surfaced verbatim; the operator decides whether to rescan.
		s.logger.WarnContext(ctx, "scan registration failed",
			"project_id", s.projectID.String(),
			"error", err.Error(),
		)
		return nil, dErrors.MessageOf(err)
	}
	return result, ""
}

// Snapshot returns the current view. The last result stays visible for
// the display window; expired results are cleared lazily.
func (s *Scanner) Snapshot(now time.Time) View {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.shownUntil.IsZero() && now.After(s.shownUntil) {
		s.result = nil
		s.message = ""
		s.shownUntil = time.Time{}
	}
	return View{
		Busy:       s.busy,
		Result:     s.result,
		Message:    s.message,
		ShownUntil: s.shownUntil,
	}
}
