// Package overlay converts picture-in-picture configuration into concrete
// rectangles over a base video frame. The same geometry is handed to the
// encoder as a burn-in region for composited recordings, or persisted as
// normalized track placement for separate-track recordings.
package overlay

import (
	"fmt"
	"math"

	"github.com/clipforge/clipforge-agent/internal/timeline"
)

type Position string

const (
	PositionTopLeft     Position = "top-left"
	PositionTopRight    Position = "top-right"
	PositionBottomLeft  Position = "bottom-left"
	PositionBottomRight Position = "bottom-right"
)

type Size string

const (
	SizeSmall  Size = "small"
	SizeMedium Size = "medium"
	SizeLarge  Size = "large"
)

type RecordingMode string

const (
	// ModeComposited bakes the overlay into a single output stream at record
	// time.
	ModeComposited RecordingMode = "composited"
	// ModeSeparateTracks keeps the overlay as editable per-track metadata.
	ModeSeparateTracks RecordingMode = "separate-tracks"
)

// scale fractions of the base frame width per size class
var sizeScales = map[Size]float64{
	SizeSmall:  0.2,
	SizeMedium: 0.3,
	SizeLarge:  0.45,
}

// CornerMargin is the fixed inset, in base-frame pixels, between the overlay
// and the frame edge.
const CornerMargin = 20

// Config is the initial / recording-time PiP setup. Once the user drags the
// overlay on the timeline, the track's persisted placement takes over.
type Config struct {
	Position      Position      `json:"position"`
	Size          Size          `json:"size"`
	CustomWidth   int           `json:"custom_width,omitempty"`
	CustomHeight  int           `json:"custom_height,omitempty"`
	RecordingMode RecordingMode `json:"recording_mode"`
}

// Rect is an axis-aligned overlay rectangle in base-frame pixel space.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Resolve computes the overlay rectangle for a config over a base frame.
// srcWidth/srcHeight describe the overlay source and fix its aspect ratio;
// pass zeros to assume 16:9. The result is always fully inside the base frame.
func Resolve(cfg Config, baseWidth, baseHeight, srcWidth, srcHeight int) (Rect, error) {
	if baseWidth <= 0 || baseHeight <= 0 {
		return Rect{}, fmt.Errorf("base frame %dx%d invalid", baseWidth, baseHeight)
	}

	aspect := 16.0 / 9.0
	if srcWidth > 0 && srcHeight > 0 {
		aspect = float64(srcWidth) / float64(srcHeight)
	}

	var w, h int
	if cfg.CustomWidth > 0 && cfg.CustomHeight > 0 {
		w, h = cfg.CustomWidth, cfg.CustomHeight
	} else {
		scale, ok := sizeScales[cfg.Size]
		if !ok {
			return Rect{}, fmt.Errorf("unknown overlay size %q", cfg.Size)
		}
		w = int(math.Round(float64(baseWidth) * scale))
		h = int(math.Round(float64(w) / aspect))
	}

	if w > baseWidth {
		w = baseWidth
	}
	if h > baseHeight {
		h = baseHeight
	}
	if w < 1 || h < 1 {
		return Rect{}, fmt.Errorf("overlay %dx%d degenerate", w, h)
	}

	x, y, err := cornerOrigin(cfg.Position, baseWidth, baseHeight, w, h)
	if err != nil {
		return Rect{}, err
	}

	return Rect{X: x, Y: y, Width: w, Height: h}, nil
}

func cornerOrigin(pos Position, baseW, baseH, w, h int) (int, int, error) {
	margin := CornerMargin
	// The margin yields to the frame edge when the overlay barely fits.
	if w+margin > baseW || h+margin > baseH {
		margin = 0
	}

	switch pos {
	case PositionTopLeft:
		return margin, margin, nil
	case PositionTopRight:
		return baseW - w - margin, margin, nil
	case PositionBottomLeft:
		return margin, baseH - h - margin, nil
	case PositionBottomRight:
		return baseW - w - margin, baseH - h - margin, nil
	default:
		return 0, 0, fmt.Errorf("unknown overlay position %q", pos)
	}
}

// SeedPlacement converts a resolved rectangle into the normalized, continuously
// adjustable placement stored on a timeline track. Used in separate-tracks
// mode, where nothing is burned in and the geometry stays editable.
func SeedPlacement(r Rect, baseWidth, baseHeight int) *timeline.OverlayPlacement {
	if baseWidth <= 0 || baseHeight <= 0 {
		return nil
	}
	return &timeline.OverlayPlacement{
		X:     float64(r.X) / float64(baseWidth),
		Y:     float64(r.Y) / float64(baseHeight),
		Scale: float64(r.Width) / float64(baseWidth),
	}
}

// PlacementRect is the inverse of SeedPlacement: it projects a track's
// normalized placement back into base-frame pixels for preview compositing.
func PlacementRect(p *timeline.OverlayPlacement, baseWidth, baseHeight, srcWidth, srcHeight int) Rect {
	if p == nil || baseWidth <= 0 || baseHeight <= 0 {
		return Rect{}
	}
	aspect := 16.0 / 9.0
	if srcWidth > 0 && srcHeight > 0 {
		aspect = float64(srcWidth) / float64(srcHeight)
	}
	w := int(math.Round(float64(baseWidth) * p.Scale))
	h := int(math.Round(float64(w) / aspect))
	// A tall source can project a height past the frame even when the width
	// fits; shrink along the aspect so the rect stays containable.
	if w > baseWidth {
		w = baseWidth
		h = int(math.Round(float64(w) / aspect))
	}
	if h > baseHeight {
		h = baseHeight
		w = int(math.Round(float64(h) * aspect))
	}
	x := int(math.Round(float64(baseWidth) * p.X))
	y := int(math.Round(float64(baseHeight) * p.Y))

	if x+w > baseWidth {
		x = baseWidth - w
	}
	if y+h > baseHeight {
		y = baseHeight - h
	}
	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}
	return Rect{X: x, Y: y, Width: w, Height: h}
}
