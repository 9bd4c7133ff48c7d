// Package timeline holds the in-memory editing model: tracks, clips, the
// playhead, zoom and snap state, and the arithmetic that maps between
// timeline seconds and ruler pixels.
package timeline

import (
	"math"

	"github.com/google/uuid"
)

type TrackType string

const (
	TrackTypeVideo TrackType = "video"
	TrackTypeAudio TrackType = "audio"
)

// Clip is a placed instance of a catalog video on a track. It references the
// source asset by ID only; ownership stays with the library catalog.
type Clip struct {
	ID               string  `json:"id"`
	VideoID          string  `json:"video_id"`
	TrackID          string  `json:"track_id"`
	StartTime        float64 `json:"start_time"`
	EndTime          float64 `json:"end_time"`
	TrimStart        float64 `json:"trim_start"`
	TrimEnd          float64 `json:"trim_end"`
	OriginalDuration float64 `json:"original_duration"`
	Selected         bool    `json:"selected"`
}

// Duration returns the placed length of the clip in seconds.
func (c *Clip) Duration() float64 {
	return c.EndTime - c.StartTime
}

// OverlayPlacement is the persisted picture-in-picture geometry of a track,
// normalized to the base frame: X and Y in [0,1], Scale in (0,1].
type OverlayPlacement struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Scale float64 `json:"scale"`
}

// Track is an ordered lane of non-overlapping clips. Video tracks may carry an
// overlay placement used when the track is composited over the track beneath
// it; audio tracks ignore it.
type Track struct {
	ID      string            `json:"id"`
	Name    string            `json:"name"`
	Type    TrackType         `json:"type"`
	Clips   []*Clip           `json:"clips"`
	Muted   bool              `json:"muted"`
	Volume  float64           `json:"volume"`
	Overlay *OverlayPlacement `json:"overlay,omitempty"`
}

// ClipByID returns the clip with the given ID, or nil.
func (t *Track) ClipByID(id string) *Clip {
	for _, c := range t.Clips {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// Timeline is the project's track stack. Track order defines compositing
// order: a later track renders on top of an earlier one.
type Timeline struct {
	Tracks     []*Track `json:"tracks"`
	Playhead   float64  `json:"playhead"`
	Zoom       float64  `json:"zoom"`
	SnapToGrid bool     `json:"snap_to_grid"`
	GridSize   float64  `json:"grid_size"`
}

// NewTimeline returns an empty timeline with one video and one audio track.
func NewTimeline() *Timeline {
	return &Timeline{
		Tracks: []*Track{
			{ID: NewID(), Name: "Video 1", Type: TrackTypeVideo, Volume: 1},
			{ID: NewID(), Name: "Audio 1", Type: TrackTypeAudio, Volume: 1},
		},
		Zoom:     1,
		GridSize: 1,
	}
}

// Duration is derived: the max end time across all clips, or 0.
func (tl *Timeline) Duration() float64 {
	var max float64
	for _, tr := range tl.Tracks {
		for _, c := range tr.Clips {
			if c.EndTime > max {
				max = c.EndTime
			}
		}
	}
	return max
}

// TrackByID returns the track with the given ID, or nil.
func (tl *Timeline) TrackByID(id string) *Track {
	for _, tr := range tl.Tracks {
		if tr.ID == id {
			return tr
		}
	}
	return nil
}

// FindClip locates a clip anywhere on the timeline together with its track.
func (tl *Timeline) FindClip(clipID string) (*Track, *Clip) {
	for _, tr := range tl.Tracks {
		if c := tr.ClipByID(clipID); c != nil {
			return tr, c
		}
	}
	return nil, nil
}

// Source describes the catalog asset a clip references, reduced to what the
// timeline needs to place and validate clips.
type Source struct {
	ID        string
	Name      string
	FilePath  string
	Duration  float64
	TrimStart float64
	TrimEnd   float64
	Width     int
	Height    int
	Missing   bool
}

// UsableDuration is the trimmed length of the source asset.
func (s *Source) UsableDuration() float64 {
	return s.TrimEnd - s.TrimStart
}

// Catalog resolves weak video references. A clip whose video is absent from
// the catalog is a dangling reference; it is reported, never deleted.
type Catalog interface {
	Source(videoID string) (*Source, bool)
}

// NewID generates an identifier for timeline entities.
func NewID() string {
	return uuid.NewString()
}

// Validate checks every per-clip and per-track invariant. Used when loading a
// persisted project so a corrupted document never becomes the live model.
func (tl *Timeline) Validate() error {
	for _, tr := range tl.Tracks {
		for i, c := range tr.Clips {
			if c.EndTime <= c.StartTime {
				return &OutOfRangeError{What: "clip end time", Value: c.EndTime, Min: c.StartTime, Max: math.Inf(1)}
			}
			if c.TrimStart < 0 || c.TrimStart >= c.TrimEnd || c.TrimEnd > c.OriginalDuration {
				return &InvalidTrimError{ClipID: c.ID, TrimStart: c.TrimStart, TrimEnd: c.TrimEnd, OriginalDuration: c.OriginalDuration}
			}
			if !almostEqual(c.EndTime-c.StartTime, c.TrimEnd-c.TrimStart) {
				return &InvalidTrimError{ClipID: c.ID, TrimStart: c.TrimStart, TrimEnd: c.TrimEnd, OriginalDuration: c.OriginalDuration}
			}
			for _, other := range tr.Clips[i+1:] {
				if c.StartTime < other.EndTime && c.EndTime > other.StartTime {
					return &OverlapError{TrackID: tr.ID, ClipID: other.ID, Start: c.StartTime, End: c.EndTime}
				}
			}
		}
	}
	return nil
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}
