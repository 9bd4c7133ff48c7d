// Package record drives screen-plus-camera capture. In composited mode the
// camera is burned into the screen stream at record time; in separate-tracks
// mode each source is written to its own file and the camera's intended
// geometry is seeded as an editable track placement.
package record

import "github.com/clipforge/clipforge-agent/internal/overlay"

const (
	EventStarted = "recording-started"
	EventStopped = "recording-stopped"
	EventError   = "recording-error"
)

// Event is delivered to subscribers on recording state changes.
type Event struct {
	Type          string `json:"type"`
	SessionID     string `json:"session_id"`
	PrimaryPath   string `json:"primary_path,omitempty"`
	SecondaryPath string `json:"secondary_path,omitempty"`
	Error         string `json:"error,omitempty"`
}

type EventFunc func(Event)

// Options describe one capture session.
type Options struct {
	ScreenSource string         `json:"screen_source,omitempty"`
	CameraSource string         `json:"camera_source,omitempty"`
	Width        int            `json:"width"`
	Height       int            `json:"height"`
	FrameRate    float64        `json:"frame_rate"`
	Overlay      overlay.Config `json:"overlay"`
}

// Result is what a finished session produced. SecondaryPath is set only in
// separate-tracks mode; Placement carries the seeded camera geometry for the
// new timeline track.
type Result struct {
	SessionID     string                `json:"session_id"`
	PrimaryPath   string                `json:"primary_path"`
	SecondaryPath string                `json:"secondary_path,omitempty"`
	Duration      float64               `json:"duration"`
	Mode          overlay.RecordingMode `json:"mode"`
	Placement     *placementJSON        `json:"placement,omitempty"`
}

// placementJSON mirrors timeline.OverlayPlacement for the wire.
type placementJSON struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Scale float64 `json:"scale"`
}

// CaptureSpec is the low-level instruction handed to a Capturer.
type CaptureSpec struct {
	ScreenSource string
	CameraSource string
	Width        int
	Height       int
	FrameRate    float64
	// BurnIn, when non-nil, composites the camera into the screen stream at
	// the given rectangle.
	BurnIn        *overlay.Rect
	PrimaryPath   string
	SecondaryPath string
}
