package record

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/clipforge/clipforge-agent/internal/media"
	"github.com/clipforge/clipforge-agent/internal/overlay"
	"github.com/clipforge/clipforge-agent/internal/timeline"
)

// Capturer starts and stops a capture process. One Capturer instance handles
// one session.
type Capturer interface {
	Start(ctx context.Context, spec CaptureSpec) error
	Stop() error
}

// CapturerFactory builds a fresh Capturer per session.
type CapturerFactory func() Capturer

// Service runs at most one recording session at a time.
type Service struct {
	newCapturer  CapturerFactory
	processor    media.Processor
	recordingDir string
	logger       *slog.Logger

	mu        sync.Mutex
	active    *activeSession
	listeners []EventFunc
}

type activeSession struct {
	id        string
	capturer  Capturer
	spec      CaptureSpec
	mode      overlay.RecordingMode
	placement *timeline.OverlayPlacement
	startedAt time.Time
}

func NewService(factory CapturerFactory, processor media.Processor, recordingDir string, logger *slog.Logger) *Service {
	return &Service{
		newCapturer:  factory,
		processor:    processor,
		recordingDir: recordingDir,
		logger:       logger,
	}
}

// Subscribe registers a listener for recording events.
func (s *Service) Subscribe(fn EventFunc) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

func (s *Service) emit(ev Event) {
	s.mu.Lock()
	listeners := make([]EventFunc, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()
	for _, fn := range listeners {
		fn(ev)
	}
}

// Start begins a capture session. Geometry for the camera overlay is resolved
// up front so both modes fail fast on a bad config.
func (s *Service) Start(ctx context.Context, opts Options) (string, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		opts.Width, opts.Height = 1920, 1080
	}
	if opts.FrameRate <= 0 {
		opts.FrameRate = 30
	}
	if opts.Overlay.RecordingMode == "" {
		opts.Overlay.RecordingMode = overlay.ModeComposited
	}

	hasCamera := opts.CameraSource != ""
	var burnIn *overlay.Rect
	var placement *timeline.OverlayPlacement

	if hasCamera {
		rect, err := overlay.Resolve(opts.Overlay, opts.Width, opts.Height, 0, 0)
		if err != nil {
			return "", fmt.Errorf("invalid overlay config: %w", err)
		}
		switch opts.Overlay.RecordingMode {
		case overlay.ModeComposited:
			burnIn = &rect
		case overlay.ModeSeparateTracks:
			placement = overlay.SeedPlacement(rect, opts.Width, opts.Height)
		default:
			return "", fmt.Errorf("unknown recording mode %q", opts.Overlay.RecordingMode)
		}
	}

	if err := os.MkdirAll(s.recordingDir, 0755); err != nil {
		return "", fmt.Errorf("cannot create recording dir: %w", err)
	}

	sessionID := timeline.NewID()
	stamp := time.Now().Format("20060102-150405")
	spec := CaptureSpec{
		ScreenSource: opts.ScreenSource,
		CameraSource: opts.CameraSource,
		Width:        opts.Width,
		Height:       opts.Height,
		FrameRate:    opts.FrameRate,
		BurnIn:       burnIn,
		PrimaryPath:  filepath.Join(s.recordingDir, fmt.Sprintf("screen-%s.mp4", stamp)),
	}
	if hasCamera && opts.Overlay.RecordingMode == overlay.ModeSeparateTracks {
		spec.SecondaryPath = filepath.Join(s.recordingDir, fmt.Sprintf("camera-%s.mp4", stamp))
	}

	s.mu.Lock()
	if s.active != nil {
		s.mu.Unlock()
		return "", fmt.Errorf("a recording is already in progress")
	}
	capturer := s.newCapturer()
	s.active = &activeSession{
		id:        sessionID,
		capturer:  capturer,
		spec:      spec,
		mode:      opts.Overlay.RecordingMode,
		placement: placement,
		startedAt: time.Now(),
	}
	s.mu.Unlock()

	if err := capturer.Start(ctx, spec); err != nil {
		s.mu.Lock()
		s.active = nil
		s.mu.Unlock()
		s.emit(Event{Type: EventError, SessionID: sessionID, Error: err.Error()})
		return "", fmt.Errorf("capture start failed: %w", err)
	}

	s.logger.Info("recording started", "session_id", sessionID,
		"mode", opts.Overlay.RecordingMode, "camera", hasCamera)
	s.emit(Event{Type: EventStarted, SessionID: sessionID, PrimaryPath: spec.PrimaryPath})
	return sessionID, nil
}

// Stop ends the active session and probes what was written.
func (s *Service) Stop(ctx context.Context) (*Result, error) {
	s.mu.Lock()
	sess := s.active
	s.active = nil
	s.mu.Unlock()

	if sess == nil {
		return nil, fmt.Errorf("no recording in progress")
	}

	if err := sess.capturer.Stop(); err != nil {
		s.emit(Event{Type: EventError, SessionID: sess.id, Error: err.Error()})
		return nil, fmt.Errorf("capture stop failed: %w", err)
	}

	result := &Result{
		SessionID:     sess.id,
		PrimaryPath:   sess.spec.PrimaryPath,
		SecondaryPath: sess.spec.SecondaryPath,
		Duration:      time.Since(sess.startedAt).Seconds(),
		Mode:          sess.mode,
	}
	if sess.placement != nil {
		result.Placement = &placementJSON{X: sess.placement.X, Y: sess.placement.Y, Scale: sess.placement.Scale}
	}

	// prefer the container's own duration when the file is probeable
	if probe, err := s.processor.Probe(ctx, result.PrimaryPath); err == nil && probe.Duration > 0 {
		result.Duration = probe.Duration
	}

	s.logger.Info("recording stopped", "session_id", sess.id,
		"duration", result.Duration, "path", result.PrimaryPath)
	s.emit(Event{
		Type:          EventStopped,
		SessionID:     sess.id,
		PrimaryPath:   result.PrimaryPath,
		SecondaryPath: result.SecondaryPath,
	})
	return result, nil
}

// Recording reports whether a session is active.
func (s *Service) Recording() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active != nil
}
