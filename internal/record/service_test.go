package record

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/clipforge/clipforge-agent/internal/media"
	"github.com/clipforge/clipforge-agent/internal/overlay"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeCapturer records the spec it was started with.
type fakeCapturer struct {
	spec     CaptureSpec
	started  bool
	stopped  bool
	startErr error
}

func (f *fakeCapturer) Start(ctx context.Context, spec CaptureSpec) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.spec = spec
	f.started = true
	return nil
}

func (f *fakeCapturer) Stop() error {
	f.stopped = true
	return nil
}

func newTestService(t *testing.T, cap *fakeCapturer) *Service {
	t.Helper()
	proc := media.NewStubProcessor(discardLogger())
	return NewService(func() Capturer { return cap }, proc, t.TempDir(), discardLogger())
}

func TestService_CompositedRecording(t *testing.T) {
	cap := &fakeCapturer{}
	svc := newTestService(t, cap)
	ctx := context.Background()

	opts := Options{
		CameraSource: "/dev/video0",
		Width:        1920,
		Height:       1080,
		FrameRate:    30,
		Overlay: overlay.Config{
			Position:      overlay.PositionBottomRight,
			Size:          overlay.SizeSmall,
			RecordingMode: overlay.ModeComposited,
		},
	}

	id, err := svc.Start(ctx, opts)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if id == "" {
		t.Error("session id is empty")
	}
	if !svc.Recording() {
		t.Error("Recording() = false during session")
	}

	// composited mode burns the camera in: one output, rect resolved
	if cap.spec.BurnIn == nil {
		t.Fatal("composited mode should set a burn-in rect")
	}
	if cap.spec.BurnIn.Width != 384 || cap.spec.BurnIn.Height != 216 {
		t.Errorf("burn-in = %+v, want 384x216", cap.spec.BurnIn)
	}
	if cap.spec.SecondaryPath != "" {
		t.Error("composited mode should not produce a secondary file")
	}

	result, err := svc.Stop(ctx)
	if err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if result.Mode != overlay.ModeComposited {
		t.Errorf("mode = %s", result.Mode)
	}
	if result.Placement != nil {
		t.Error("composited result should not carry a placement")
	}
	if !cap.stopped {
		t.Error("capturer was not stopped")
	}
	if svc.Recording() {
		t.Error("Recording() = true after stop")
	}
}

func TestService_SeparateTracksRecording(t *testing.T) {
	cap := &fakeCapturer{}
	svc := newTestService(t, cap)
	ctx := context.Background()

	var events []Event
	svc.Subscribe(func(ev Event) { events = append(events, ev) })

	opts := Options{
		CameraSource: "/dev/video0",
		Width:        1920,
		Height:       1080,
		Overlay: overlay.Config{
			Position:      overlay.PositionBottomRight,
			Size:          overlay.SizeSmall,
			RecordingMode: overlay.ModeSeparateTracks,
		},
	}

	if _, err := svc.Start(ctx, opts); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if cap.spec.BurnIn != nil {
		t.Error("separate-tracks mode must not burn in")
	}
	if cap.spec.SecondaryPath == "" {
		t.Error("separate-tracks mode needs a camera output file")
	}

	result, err := svc.Stop(ctx)
	if err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if result.SecondaryPath == "" {
		t.Error("result missing secondary path")
	}
	if result.Placement == nil {
		t.Fatal("separate-tracks result must seed a placement")
	}
	// seeded placement reproduces the bottom-right small rect when projected
	// back: scale 0.2 of base width
	if math.Abs(result.Placement.Scale-0.2) > 1e-9 {
		t.Errorf("placement scale = %v, want 0.2", result.Placement.Scale)
	}

	// subscribers get both output paths on the stopped event, same as the
	// Stop caller does via Result
	if len(events) != 2 || events[1].Type != EventStopped {
		t.Fatalf("events = %+v, want started then stopped", events)
	}
	if events[1].SecondaryPath != result.SecondaryPath {
		t.Errorf("stopped event secondary path = %q, want %q", events[1].SecondaryPath, result.SecondaryPath)
	}
}

func TestService_ScreenOnlyRecording(t *testing.T) {
	cap := &fakeCapturer{}
	svc := newTestService(t, cap)
	ctx := context.Background()

	if _, err := svc.Start(ctx, Options{}); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if cap.spec.BurnIn != nil || cap.spec.SecondaryPath != "" {
		t.Error("screen-only session should have a single plain output")
	}
	if cap.spec.Width != 1920 || cap.spec.FrameRate != 30 {
		t.Errorf("defaults not applied: %+v", cap.spec)
	}
	if _, err := svc.Stop(ctx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
}

func TestService_RejectsConcurrentSessions(t *testing.T) {
	cap := &fakeCapturer{}
	svc := newTestService(t, cap)
	ctx := context.Background()

	if _, err := svc.Start(ctx, Options{}); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if _, err := svc.Start(ctx, Options{}); err == nil {
		t.Error("second Start() should fail while recording")
	}
	svc.Stop(ctx)
}

func TestService_StopWithoutStart(t *testing.T) {
	svc := newTestService(t, &fakeCapturer{})
	if _, err := svc.Stop(context.Background()); err == nil {
		t.Error("Stop() without a session should fail")
	}
}

func TestService_StartFailureEmitsError(t *testing.T) {
	cap := &fakeCapturer{startErr: errors.New("device busy")}
	svc := newTestService(t, cap)

	var events []Event
	svc.Subscribe(func(ev Event) { events = append(events, ev) })

	if _, err := svc.Start(context.Background(), Options{}); err == nil {
		t.Fatal("Start() should propagate capturer failure")
	}
	if svc.Recording() {
		t.Error("failed start left the service recording")
	}
	if len(events) != 1 || events[0].Type != EventError {
		t.Errorf("events = %+v, want one recording-error", events)
	}
}

func TestService_EventsOnStartStop(t *testing.T) {
	cap := &fakeCapturer{}
	svc := newTestService(t, cap)
	ctx := context.Background()

	var events []Event
	svc.Subscribe(func(ev Event) { events = append(events, ev) })

	svc.Start(ctx, Options{})
	svc.Stop(ctx)

	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}
	if events[0].Type != EventStarted || events[1].Type != EventStopped {
		t.Errorf("event order = %s, %s", events[0].Type, events[1].Type)
	}
}

func TestService_InvalidOverlayConfig(t *testing.T) {
	svc := newTestService(t, &fakeCapturer{})
	_, err := svc.Start(context.Background(), Options{
		CameraSource: "/dev/video0",
		Overlay:      overlay.Config{Position: "center", Size: overlay.SizeSmall, RecordingMode: overlay.ModeComposited},
	})
	if err == nil {
		t.Error("unknown overlay position should fail the session")
	}
}

func TestBuildCaptureArgs_Composited(t *testing.T) {
	spec := CaptureSpec{
		CameraSource: "/dev/video0",
		Width:        1920,
		Height:       1080,
		FrameRate:    30,
		BurnIn:       &overlay.Rect{X: 1516, Y: 844, Width: 384, Height: 216},
		PrimaryPath:  "/tmp/out.mp4",
	}
	sets, err := buildCaptureArgs(spec)
	if err != nil {
		t.Fatalf("buildCaptureArgs() error = %v", err)
	}
	if len(sets) != 1 {
		t.Fatalf("processes = %d, want 1 for composited", len(sets))
	}
}

func TestBuildCaptureArgs_SeparateTracks(t *testing.T) {
	spec := CaptureSpec{
		CameraSource:  "/dev/video0",
		Width:         1920,
		Height:        1080,
		FrameRate:     30,
		PrimaryPath:   "/tmp/screen.mp4",
		SecondaryPath: "/tmp/camera.mp4",
	}
	sets, err := buildCaptureArgs(spec)
	if err != nil {
		t.Fatalf("buildCaptureArgs() error = %v", err)
	}
	if len(sets) != 2 {
		t.Fatalf("processes = %d, want 2 for separate tracks", len(sets))
	}
	if sets[0][len(sets[0])-1] != "/tmp/screen.mp4" || sets[1][len(sets[1])-1] != "/tmp/camera.mp4" {
		t.Errorf("output paths misplaced: %v / %v", sets[0], sets[1])
	}
}
