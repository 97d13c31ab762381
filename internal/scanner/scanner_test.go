package scanner_test

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"cartera/internal/scanner"
	visitModel "cartera/internal/visit/models"
	id "cartera/pkg/domain"
	"cartera/pkg/requestcontext"
)

type fakeSource struct {
	mu       sync.Mutex
	onDecode func(string)
	stopped  bool
}

func (f *fakeSource) Start(_ context.Context, onDecode func(string)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onDecode = onDecode
	return nil
}

func (f *fakeSource) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
	f.onDecode = nil
	return nil
}

func (f *fakeSource) emit(payload string) {
	f.mu.Lock()
	onDecode := f.onDecode
	f.mu.Unlock()
	if onDecode != nil {
		onDecode(payload)
	}
}

type blockingRegistrar struct {
	mu      sync.Mutex
	calls   int
	block   chan struct{}
	started chan struct{}
}

func (r *blockingRegistrar) Register(_ context.Context, _ visitModel.RegisterInput) (*visitModel.VisitResult, error) {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	if r.started != nil {
		r.started <- struct{}{}
	}
	if r.block != nil {
		<-r.block
	}
	return &visitModel.VisitResult{Points: 3}, nil
}

func (r *blockingRegistrar) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

type ScannerSuite struct {
	suite.Suite
	ctx       context.Context
	now       time.Time
	source    *fakeSource
	registrar *blockingRegistrar
	scanner   *scanner.Scanner
}

func (s *ScannerSuite) SetupTest() {
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.source = &fakeSource{}
	s.registrar = &blockingRegistrar{}
	s.scanner = scanner.New(s.source, s.registrar, id.ProjectID(uuid.New()), slog.New(slog.DiscardHandler))
}

func TestScannerSuite(t *testing.T) {
	suite.Run(t, new(ScannerSuite))
}

func (s *ScannerSuite) TestFrameRegistersVisit() {
	s.Require().NoError(s.scanner.Start(s.ctx))
	s.source.emit("tok-123")

	s.Equal(1, s.registrar.callCount())
	view := s.scanner.Snapshot(s.now)
	s.False(view.Busy)
	s.Require().NotNil(view.Result)
	s.Equal(3, view.Result.Points)
	s.Equal(s.now.Add(5*time.Second), view.ShownUntil)
}

func (s *ScannerSuite) TestBusyFlagDropsConcurrentFrames() {
	s.registrar.block = make(chan struct{})
	s.registrar.started = make(chan struct{}, 1)
	s.Require().NoError(s.scanner.Start(s.ctx))

	done := make(chan struct{})
	go func() {
		s.source.emit("tok-123")
		close(done)
	}()
	<-s.registrar.started

	s.True(s.scanner.Snapshot(s.now).Busy)
	s.source.emit("tok-456")
	close(s.registrar.block)
	<-done

	s.Equal(1, s.registrar.callCount())
}

func (s *ScannerSuite) TestResultDisplayWindowBlocksRescan() {
	s.Require().NoError(s.scanner.Start(s.ctx))
	s.source.emit("tok-123")

	// Still showing the previous result: the frame is dropped.
	s.source.emit("tok-456")
	s.Equal(1, s.registrar.callCount())

	// After the display window lapses the next frame goes through.
	laterCtx := requestcontext.WithTime(context.Background(), s.now.Add(6*time.Second))
	s.scanner.HandleFrame(laterCtx, "tok-456")
	s.Equal(2, s.registrar.callCount())
}

func (s *ScannerSuite) TestSnapshotClearsExpiredResult() {
	s.Require().NoError(s.scanner.Start(s.ctx))
	s.source.emit("tok-123")

	view := s.scanner.Snapshot(s.now.Add(6 * time.Second))
	s.Nil(view.Result)
	s.True(view.ShownUntil.IsZero())
}

func (s *ScannerSuite) TestUnresolvablePayloadSurfacesMessage() {
	s.Require().NoError(s.scanner.Start(s.ctx))
	s.source.emit("   ")

	view := s.scanner.Snapshot(s.now)
	s.Nil(view.Result)
	s.NotEmpty(view.Message)
	s.Equal(0, s.registrar.callCount())
}

func (s *ScannerSuite) TestStopReleasesSource() {
	s.Require().NoError(s.scanner.Start(s.ctx))
	s.Require().NoError(s.scanner.Stop())
	s.True(s.source.stopped)

	s.scanner.HandleFrame(s.ctx, "tok-123")
	s.Equal(0, s.registrar.callCount())

	s.Require().NoError(s.scanner.Stop())
}

func (s *ScannerSuite) TestStartTwiceFails() {
	s.Require().NoError(s.scanner.Start(s.ctx))
	s.Error(s.scanner.Start(s.ctx))
}
