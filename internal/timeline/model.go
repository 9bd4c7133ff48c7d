package timeline

import (
	"log/slog"
	"math"
	"sort"
)

// Options bound the model's zoom range and snap window.
type Options struct {
	ZoomMin         float64
	ZoomMax         float64
	SnapTolerancePx float64
}

// DefaultOptions mirror the agent's config defaults.
func DefaultOptions() Options {
	return Options{ZoomMin: 0.1, ZoomMax: 10, SnapTolerancePx: 10}
}

// Model owns one timeline and enforces its invariants. Every mutation either
// fully applies or fails with a named error leaving the timeline unchanged.
// The model is not safe for concurrent mutation; the editing session is the
// single mutator.
type Model struct {
	tl      *Timeline
	catalog Catalog
	opts    Options
	logger  *slog.Logger
}

func NewModel(tl *Timeline, catalog Catalog, opts Options, logger *slog.Logger) *Model {
	if tl == nil {
		tl = NewTimeline()
	}
	if tl.Zoom <= 0 {
		tl.Zoom = 1
	}
	if tl.GridSize <= 0 {
		tl.GridSize = 1
	}
	return &Model{tl: tl, catalog: catalog, opts: opts, logger: logger}
}

// Timeline exposes the model's current state for read-only consumers.
func (m *Model) Timeline() *Timeline {
	return m.tl
}

// Duration returns the derived timeline duration.
func (m *Model) Duration() float64 {
	return m.tl.Duration()
}

// AddTrack appends a track at the top of the stack and returns it.
func (m *Model) AddTrack(name string, typ TrackType) *Track {
	tr := &Track{ID: NewID(), Name: name, Type: typ, Volume: 1}
	m.tl.Tracks = append(m.tl.Tracks, tr)
	return tr
}

// RemoveTrack deletes a track and all clips on it.
func (m *Model) RemoveTrack(trackID string) error {
	for i, tr := range m.tl.Tracks {
		if tr.ID == trackID {
			m.tl.Tracks = append(m.tl.Tracks[:i], m.tl.Tracks[i+1:]...)
			m.clampPlayhead()
			return nil
		}
	}
	return &NotFoundError{Kind: "track", ID: trackID}
}

// MoveTrack reorders a track to the given stack index. Stacking order is the
// compositing order, so this is how overlays are restacked.
func (m *Model) MoveTrack(trackID string, newIndex int) error {
	if newIndex < 0 || newIndex >= len(m.tl.Tracks) {
		return &OutOfRangeError{What: "track index", Value: float64(newIndex), Min: 0, Max: float64(len(m.tl.Tracks) - 1)}
	}
	from := -1
	for i, tr := range m.tl.Tracks {
		if tr.ID == trackID {
			from = i
			break
		}
	}
	if from == -1 {
		return &NotFoundError{Kind: "track", ID: trackID}
	}
	tr := m.tl.Tracks[from]
	m.tl.Tracks = append(m.tl.Tracks[:from], m.tl.Tracks[from+1:]...)
	m.tl.Tracks = append(m.tl.Tracks[:newIndex], append([]*Track{tr}, m.tl.Tracks[newIndex:]...)...)
	return nil
}

// SetTrackOverlay stores the persisted PiP placement for a video track.
// Audio tracks never composite, so the placement is rejected.
func (m *Model) SetTrackOverlay(trackID string, placement *OverlayPlacement) error {
	tr := m.tl.TrackByID(trackID)
	if tr == nil {
		return &NotFoundError{Kind: "track", ID: trackID}
	}
	if tr.Type != TrackTypeVideo {
		return &OutOfRangeError{What: "overlay on audio track", Value: 0, Min: 0, Max: 0}
	}
	if placement != nil {
		if placement.X < 0 || placement.X > 1 || placement.Y < 0 || placement.Y > 1 {
			return &OutOfRangeError{What: "overlay position", Value: placement.X, Min: 0, Max: 1}
		}
		if placement.Scale <= 0 || placement.Scale > 1 {
			return &OutOfRangeError{What: "overlay scale", Value: placement.Scale, Min: 0, Max: 1}
		}
	}
	tr.Overlay = placement
	return nil
}

// AddClip places the full trimmed source duration at startTime on a track.
func (m *Model) AddClip(trackID, videoID string, startTime float64) (*Clip, error) {
	tr := m.tl.TrackByID(trackID)
	if tr == nil {
		return nil, &NotFoundError{Kind: "track", ID: trackID}
	}
	if startTime < 0 {
		return nil, &OutOfRangeError{What: "start time", Value: startTime, Min: 0, Max: math.Inf(1)}
	}

	src, ok := m.catalog.Source(videoID)
	if !ok || src.Missing {
		return nil, &MissingAssetError{VideoID: videoID}
	}

	length := src.UsableDuration()
	if length <= 0 {
		return nil, &InvalidTrimError{TrimStart: src.TrimStart, TrimEnd: src.TrimEnd, OriginalDuration: src.Duration}
	}

	end := startTime + length
	if other := overlapping(tr, startTime, end, ""); other != nil {
		return nil, &OverlapError{TrackID: trackID, ClipID: other.ID, Start: startTime, End: end}
	}

	clip := &Clip{
		ID:               NewID(),
		VideoID:          videoID,
		TrackID:          trackID,
		StartTime:        startTime,
		EndTime:          end,
		TrimStart:        src.TrimStart,
		TrimEnd:          src.TrimEnd,
		OriginalDuration: src.Duration,
	}
	tr.Clips = append(tr.Clips, clip)
	sortClips(tr)

	if m.logger != nil {
		m.logger.Debug("clip added", "clip_id", clip.ID, "track_id", trackID, "start", startTime, "end", end)
	}
	return clip, nil
}

// MoveClip repositions a clip, optionally onto another track, preserving its
// length. newTrackID may be empty to stay on the current track.
func (m *Model) MoveClip(clipID string, newStartTime float64, newTrackID string) error {
	fromTrack, clip := m.tl.FindClip(clipID)
	if clip == nil {
		return &NotFoundError{Kind: "clip", ID: clipID}
	}
	if newStartTime < 0 {
		return &OutOfRangeError{What: "start time", Value: newStartTime, Min: 0, Max: math.Inf(1)}
	}

	dest := fromTrack
	if newTrackID != "" && newTrackID != fromTrack.ID {
		dest = m.tl.TrackByID(newTrackID)
		if dest == nil {
			return &NotFoundError{Kind: "track", ID: newTrackID}
		}
	}

	length := clip.Duration()
	newEnd := newStartTime + length
	if other := overlapping(dest, newStartTime, newEnd, clipID); other != nil {
		return &OverlapError{TrackID: dest.ID, ClipID: other.ID, Start: newStartTime, End: newEnd}
	}

	if dest != fromTrack {
		removeClip(fromTrack, clipID)
		clip.TrackID = dest.ID
		dest.Clips = append(dest.Clips, clip)
	}
	clip.StartTime = newStartTime
	clip.EndTime = newEnd
	sortClips(dest)
	m.clampPlayhead()
	return nil
}

// TrimClip updates the clip's source in/out points. The placed start stays
// fixed; the end moves so placed length always equals trimmed length.
func (m *Model) TrimClip(clipID string, newTrimStart, newTrimEnd float64) error {
	tr, clip := m.tl.FindClip(clipID)
	if clip == nil {
		return &NotFoundError{Kind: "clip", ID: clipID}
	}

	if newTrimStart >= newTrimEnd || newTrimStart < 0 || newTrimEnd > clip.OriginalDuration {
		return &InvalidTrimError{
			ClipID:           clipID,
			TrimStart:        newTrimStart,
			TrimEnd:          newTrimEnd,
			OriginalDuration: clip.OriginalDuration,
		}
	}

	newEnd := clip.StartTime + (newTrimEnd - newTrimStart)
	if other := overlapping(tr, clip.StartTime, newEnd, clipID); other != nil {
		return &OverlapError{TrackID: tr.ID, ClipID: other.ID, Start: clip.StartTime, End: newEnd}
	}

	clip.TrimStart = newTrimStart
	clip.TrimEnd = newTrimEnd
	clip.EndTime = newEnd
	sortClips(tr)
	m.clampPlayhead()
	return nil
}

// SplitClip cuts one clip into two at a time strictly inside it. Both halves
// get fresh IDs, contiguous trim ranges, and cleared selection.
func (m *Model) SplitClip(clipID string, atTime float64) (*Clip, *Clip, error) {
	tr, clip := m.tl.FindClip(clipID)
	if clip == nil {
		return nil, nil, &NotFoundError{Kind: "clip", ID: clipID}
	}
	if atTime <= clip.StartTime || atTime >= clip.EndTime {
		return nil, nil, &OutOfRangeError{What: "split time", Value: atTime, Min: clip.StartTime, Max: clip.EndTime}
	}

	offset := atTime - clip.StartTime
	splitTrim := clip.TrimStart + offset

	left := &Clip{
		ID:               NewID(),
		VideoID:          clip.VideoID,
		TrackID:          tr.ID,
		StartTime:        clip.StartTime,
		EndTime:          atTime,
		TrimStart:        clip.TrimStart,
		TrimEnd:          splitTrim,
		OriginalDuration: clip.OriginalDuration,
	}
	right := &Clip{
		ID:               NewID(),
		VideoID:          clip.VideoID,
		TrackID:          tr.ID,
		StartTime:        atTime,
		EndTime:          clip.EndTime,
		TrimStart:        splitTrim,
		TrimEnd:          clip.TrimEnd,
		OriginalDuration: clip.OriginalDuration,
	}

	removeClip(tr, clipID)
	tr.Clips = append(tr.Clips, left, right)
	sortClips(tr)

	if m.logger != nil {
		m.logger.Debug("clip split", "clip_id", clipID, "at", atTime, "left", left.ID, "right", right.ID)
	}
	return left, right, nil
}

// RemoveClip deletes a clip from its track.
func (m *Model) RemoveClip(clipID string) error {
	tr, clip := m.tl.FindClip(clipID)
	if clip == nil {
		return &NotFoundError{Kind: "clip", ID: clipID}
	}
	removeClip(tr, clipID)
	m.clampPlayhead()
	return nil
}

// SelectClip marks a clip selected. With exclusive set, every other clip is
// deselected first.
func (m *Model) SelectClip(clipID string, exclusive bool) error {
	_, clip := m.tl.FindClip(clipID)
	if clip == nil {
		return &NotFoundError{Kind: "clip", ID: clipID}
	}
	if exclusive {
		m.ClearSelection()
	}
	clip.Selected = true
	return nil
}

// ClearSelection deselects every clip.
func (m *Model) ClearSelection() {
	for _, tr := range m.tl.Tracks {
		for _, c := range tr.Clips {
			c.Selected = false
		}
	}
}

// SelectedClips returns the selected clips across all tracks.
func (m *Model) SelectedClips() []*Clip {
	var out []*Clip
	for _, tr := range m.tl.Tracks {
		for _, c := range tr.Clips {
			if c.Selected {
				out = append(out, c)
			}
		}
	}
	return out
}

// SetPlayhead moves the playhead, clamped to [0, duration].
func (m *Model) SetPlayhead(t float64) float64 {
	if math.IsNaN(t) || t < 0 {
		t = 0
	}
	if d := m.tl.Duration(); t > d {
		t = d
	}
	m.tl.Playhead = t
	return t
}

// SetZoom sets the zoom level, clamped to the configured bounds. Only values
// that are not usable numbers at all are rejected.
func (m *Model) SetZoom(level float64) (float64, error) {
	if math.IsNaN(level) || math.IsInf(level, 0) || level <= 0 {
		return m.tl.Zoom, &ZoomOutOfBoundsError{Level: level, Min: m.opts.ZoomMin, Max: m.opts.ZoomMax}
	}
	if level < m.opts.ZoomMin {
		level = m.opts.ZoomMin
	}
	if level > m.opts.ZoomMax {
		level = m.opts.ZoomMax
	}
	m.tl.Zoom = level
	return level, nil
}

// ToggleSnap flips snap-to-grid and returns the new state.
func (m *Model) ToggleSnap() bool {
	m.tl.SnapToGrid = !m.tl.SnapToGrid
	return m.tl.SnapToGrid
}

// SetGridSize sets the snap grid spacing in seconds.
func (m *Model) SetGridSize(seconds float64) error {
	if seconds <= 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return &OutOfRangeError{What: "grid size", Value: seconds, Min: 0, Max: math.Inf(1)}
	}
	m.tl.GridSize = seconds
	return nil
}

// Ruler plans tick intervals for the current duration and zoom.
func (m *Model) Ruler(targetTicks int) RulerScale {
	return PlanRuler(m.tl.Duration(), m.tl.Zoom, targetTicks)
}

// SnapTime corrects a candidate time for a clip being dragged on a track,
// using the model's snap settings and the current ruler scale to size the
// tolerance window.
func (m *Model) SnapTime(t float64, trackID, excludeClipID string, timelineWidth float64) float64 {
	tr := m.tl.TrackByID(trackID)
	if tr == nil {
		return t
	}
	tolerance := m.opts.SnapTolerancePx * SecondsPerPixel(timelineWidth, m.tl.Duration(), DefaultHeaderWidth)
	return ResolveSnap(t, ClipEdges(tr, excludeClipID), m.tl.SnapToGrid, m.tl.GridSize, tolerance)
}

// ResolveSource resolves a clip's weak video reference through the catalog.
func (m *Model) ResolveSource(clipID string) (*Source, error) {
	_, clip := m.tl.FindClip(clipID)
	if clip == nil {
		return nil, &NotFoundError{Kind: "clip", ID: clipID}
	}
	src, ok := m.catalog.Source(clip.VideoID)
	if !ok || src.Missing {
		return nil, &MissingAssetError{ClipID: clipID, VideoID: clip.VideoID}
	}
	return src, nil
}

// DanglingClips reports every clip whose video is absent from the catalog.
func (m *Model) DanglingClips() []*Clip {
	var out []*Clip
	for _, tr := range m.tl.Tracks {
		for _, c := range tr.Clips {
			if src, ok := m.catalog.Source(c.VideoID); !ok || src.Missing {
				out = append(out, c)
			}
		}
	}
	return out
}

// overlapping returns the first clip on the track intersecting [start, end),
// excluding excludeID. Touching edges do not overlap.
func overlapping(tr *Track, start, end float64, excludeID string) *Clip {
	for _, c := range tr.Clips {
		if c.ID == excludeID {
			continue
		}
		if start < c.EndTime && end > c.StartTime {
			return c
		}
	}
	return nil
}

func removeClip(tr *Track, clipID string) {
	for i, c := range tr.Clips {
		if c.ID == clipID {
			tr.Clips = append(tr.Clips[:i], tr.Clips[i+1:]...)
			return
		}
	}
}

func sortClips(tr *Track) {
	sort.SliceStable(tr.Clips, func(i, j int) bool {
		return tr.Clips[i].StartTime < tr.Clips[j].StartTime
	})
}

func (m *Model) clampPlayhead() {
	if d := m.tl.Duration(); m.tl.Playhead > d {
		m.tl.Playhead = d
	}
}
