package timeline

import (
	"errors"
	"math"
	"testing"
)

type fakeCatalog map[string]*Source

func (f fakeCatalog) Source(id string) (*Source, bool) {
	s, ok := f[id]
	return s, ok
}

func testCatalog() fakeCatalog {
	return fakeCatalog{
		"vid-a": {ID: "vid-a", Name: "a.mp4", Duration: 10, TrimStart: 0, TrimEnd: 10, Width: 1920, Height: 1080},
		"vid-b": {ID: "vid-b", Name: "b.mp4", Duration: 20, TrimStart: 0, TrimEnd: 20, Width: 1280, Height: 720},
	}
}

func newTestModel(t *testing.T) *Model {
	t.Helper()
	return NewModel(NewTimeline(), testCatalog(), DefaultOptions(), nil)
}

func videoTrack(m *Model) *Track {
	for _, tr := range m.Timeline().Tracks {
		if tr.Type == TrackTypeVideo {
			return tr
		}
	}
	return nil
}

func TestAddClip_SpansTrimmedSource(t *testing.T) {
	m := newTestModel(t)
	tr := videoTrack(m)

	clip, err := m.AddClip(tr.ID, "vid-a", 3)
	if err != nil {
		t.Fatalf("AddClip() error = %v", err)
	}

	if clip.StartTime != 3 || clip.EndTime != 13 {
		t.Errorf("clip span [%v, %v), want [3, 13)", clip.StartTime, clip.EndTime)
	}
	if clip.TrimStart != 0 || clip.TrimEnd != 10 || clip.OriginalDuration != 10 {
		t.Errorf("clip trim [%v, %v] of %v, want full source", clip.TrimStart, clip.TrimEnd, clip.OriginalDuration)
	}
	if m.Duration() != 13 {
		t.Errorf("timeline duration = %v, want 13", m.Duration())
	}
}

func TestAddClip_OverlapRejectedAndStateUnchanged(t *testing.T) {
	m := newTestModel(t)
	tr := videoTrack(m)

	if _, err := m.AddClip(tr.ID, "vid-a", 0); err != nil {
		t.Fatalf("first AddClip() error = %v", err)
	}

	_, err := m.AddClip(tr.ID, "vid-b", 5)
	var overlapErr *OverlapError
	if !errors.As(err, &overlapErr) {
		t.Fatalf("second AddClip() error = %v, want OverlapError", err)
	}

	if len(tr.Clips) != 1 {
		t.Errorf("track has %d clips after rejected add, want 1", len(tr.Clips))
	}
	if m.Duration() != 10 {
		t.Errorf("duration = %v after rejected add, want 10", m.Duration())
	}
}

func TestAddClip_TouchingEdgesAllowed(t *testing.T) {
	m := newTestModel(t)
	tr := videoTrack(m)

	if _, err := m.AddClip(tr.ID, "vid-a", 0); err != nil {
		t.Fatalf("AddClip() error = %v", err)
	}
	if _, err := m.AddClip(tr.ID, "vid-b", 10); err != nil {
		t.Fatalf("AddClip() at touching edge error = %v", err)
	}
}

func TestAddClip_MissingAsset(t *testing.T) {
	m := newTestModel(t)
	tr := videoTrack(m)

	_, err := m.AddClip(tr.ID, "vid-gone", 0)
	var missingErr *MissingAssetError
	if !errors.As(err, &missingErr) {
		t.Fatalf("AddClip() error = %v, want MissingAssetError", err)
	}
}

func TestAddClip_ClipsSortedByStartTime(t *testing.T) {
	m := newTestModel(t)
	tr := videoTrack(m)

	m.AddClip(tr.ID, "vid-a", 30)
	m.AddClip(tr.ID, "vid-a", 0)
	m.AddClip(tr.ID, "vid-a", 15)

	for i := 1; i < len(tr.Clips); i++ {
		if tr.Clips[i-1].StartTime > tr.Clips[i].StartTime {
			t.Fatalf("clips not ordered by start time: %v then %v", tr.Clips[i-1].StartTime, tr.Clips[i].StartTime)
		}
	}
}

func TestMoveClip_OntoOccupiedRangeFails(t *testing.T) {
	m := newTestModel(t)
	tr := videoTrack(m)

	a, _ := m.AddClip(tr.ID, "vid-a", 0)
	b, _ := m.AddClip(tr.ID, "vid-b", 20)

	err := m.MoveClip(b.ID, 5, "")
	var overlapErr *OverlapError
	if !errors.As(err, &overlapErr) {
		t.Fatalf("MoveClip() error = %v, want OverlapError", err)
	}
	if b.StartTime != 20 {
		t.Errorf("clip moved despite overlap: start = %v", b.StartTime)
	}
	_ = a
}

func TestMoveClip_ToEmptyRegionOfOtherTrack(t *testing.T) {
	m := newTestModel(t)
	tr := videoTrack(m)
	other := m.AddTrack("Video 2", TrackTypeVideo)

	clip, _ := m.AddClip(tr.ID, "vid-a", 0)

	if err := m.MoveClip(clip.ID, 7, other.ID); err != nil {
		t.Fatalf("MoveClip() error = %v", err)
	}

	if clip.TrackID != other.ID {
		t.Errorf("clip track = %s, want %s", clip.TrackID, other.ID)
	}
	if clip.StartTime != 7 || clip.EndTime != 17 {
		t.Errorf("clip span [%v, %v), want [7, 17)", clip.StartTime, clip.EndTime)
	}
	if len(tr.Clips) != 0 {
		t.Errorf("source track still has %d clips", len(tr.Clips))
	}
	if other.ClipByID(clip.ID) == nil {
		t.Error("destination track does not contain moved clip")
	}
}

func TestTrimClip_PreservesStartAndShiftsEnd(t *testing.T) {
	// Scenario: clip [0, 10) with full trim of a 10s source; trimming to
	// [2, 10] keeps the placed start and shortens the span to [0, 8).
	m := newTestModel(t)
	tr := videoTrack(m)

	clip, _ := m.AddClip(tr.ID, "vid-a", 0)

	if err := m.TrimClip(clip.ID, 2, 10); err != nil {
		t.Fatalf("TrimClip() error = %v", err)
	}

	if clip.StartTime != 0 {
		t.Errorf("start time = %v, want 0 preserved", clip.StartTime)
	}
	if clip.EndTime != 8 {
		t.Errorf("end time = %v, want 8", clip.EndTime)
	}
	if got, want := clip.Duration(), clip.TrimEnd-clip.TrimStart; got != want {
		t.Errorf("placed duration %v != trimmed duration %v", got, want)
	}
}

func TestTrimClip_InvalidBounds(t *testing.T) {
	m := newTestModel(t)
	tr := videoTrack(m)
	clip, _ := m.AddClip(tr.ID, "vid-a", 0)

	tests := []struct {
		name       string
		start, end float64
	}{
		{name: "inverted", start: 8, end: 2},
		{name: "equal", start: 5, end: 5},
		{name: "negative start", start: -1, end: 5},
		{name: "end past source", start: 0, end: 11},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := m.TrimClip(clip.ID, tc.start, tc.end)
			var trimErr *InvalidTrimError
			if !errors.As(err, &trimErr) {
				t.Fatalf("TrimClip(%v, %v) error = %v, want InvalidTrimError", tc.start, tc.end, err)
			}
			if clip.TrimStart != 0 || clip.TrimEnd != 10 {
				t.Errorf("trim mutated to [%v, %v] after failed call", clip.TrimStart, clip.TrimEnd)
			}
		})
	}
}

func TestTrimClip_OverlapWithNeighborFails(t *testing.T) {
	m := newTestModel(t)
	tr := videoTrack(m)

	a, _ := m.AddClip(tr.ID, "vid-a", 0)
	m.TrimClip(a.ID, 0, 5) // a now spans [0, 5)
	b, _ := m.AddClip(tr.ID, "vid-b", 5)
	_ = b

	// Restoring a's full trim would extend it to [0, 10) into b.
	err := m.TrimClip(a.ID, 0, 10)
	var overlapErr *OverlapError
	if !errors.As(err, &overlapErr) {
		t.Fatalf("TrimClip() error = %v, want OverlapError", err)
	}
	if a.EndTime != 5 {
		t.Errorf("end time = %v after failed trim, want 5", a.EndTime)
	}
}

func TestSplitClip_ContiguousTrimRanges(t *testing.T) {
	m := newTestModel(t)
	tr := videoTrack(m)

	clip, _ := m.AddClip(tr.ID, "vid-a", 2)
	m.SelectClip(clip.ID, true)

	left, right, err := m.SplitClip(clip.ID, 6)
	if err != nil {
		t.Fatalf("SplitClip() error = %v", err)
	}

	if left.TrimEnd != right.TrimStart {
		t.Errorf("trim ranges not contiguous: left ends %v, right starts %v", left.TrimEnd, right.TrimStart)
	}
	if got, want := left.Duration()+right.Duration(), 10.0; math.Abs(got-want) > 1e-9 {
		t.Errorf("combined duration = %v, want %v", got, want)
	}
	if left.EndTime != 6 || right.StartTime != 6 {
		t.Errorf("split spans [%v,%v) [%v,%v), want cut at 6", left.StartTime, left.EndTime, right.StartTime, right.EndTime)
	}
	if left.ID == clip.ID || right.ID == clip.ID || left.ID == right.ID {
		t.Error("split halves must have fresh ids")
	}
	if left.Selected || right.Selected {
		t.Error("split halves must have selection cleared")
	}
	if tr.ClipByID(clip.ID) != nil {
		t.Error("original clip still on track after split")
	}
}

func TestSplitClip_OutsideClipFails(t *testing.T) {
	m := newTestModel(t)
	tr := videoTrack(m)
	clip, _ := m.AddClip(tr.ID, "vid-a", 2)

	for _, at := range []float64{2, 12, 0, 20} {
		_, _, err := m.SplitClip(clip.ID, at)
		var rangeErr *OutOfRangeError
		if !errors.As(err, &rangeErr) {
			t.Fatalf("SplitClip(at=%v) error = %v, want OutOfRangeError", at, err)
		}
	}
	if len(tr.Clips) != 1 {
		t.Errorf("track has %d clips after failed splits, want 1", len(tr.Clips))
	}
}

func TestSelectClip_Exclusive(t *testing.T) {
	m := newTestModel(t)
	tr := videoTrack(m)

	a, _ := m.AddClip(tr.ID, "vid-a", 0)
	b, _ := m.AddClip(tr.ID, "vid-b", 10)

	m.SelectClip(a.ID, false)
	m.SelectClip(b.ID, false)
	if len(m.SelectedClips()) != 2 {
		t.Fatalf("selected %d clips, want 2", len(m.SelectedClips()))
	}

	m.SelectClip(a.ID, true)
	sel := m.SelectedClips()
	if len(sel) != 1 || sel[0].ID != a.ID {
		t.Errorf("exclusive select left %d selected", len(sel))
	}
}

func TestSetPlayhead_Clamped(t *testing.T) {
	m := newTestModel(t)
	tr := videoTrack(m)
	m.AddClip(tr.ID, "vid-a", 0) // duration 10

	if got := m.SetPlayhead(-3); got != 0 {
		t.Errorf("SetPlayhead(-3) = %v, want 0", got)
	}
	if got := m.SetPlayhead(25); got != 10 {
		t.Errorf("SetPlayhead(25) = %v, want clamped to 10", got)
	}
	if got := m.SetPlayhead(4); got != 4 {
		t.Errorf("SetPlayhead(4) = %v, want 4", got)
	}
}

func TestSetZoom_ClampsToBounds(t *testing.T) {
	m := newTestModel(t)

	if got, err := m.SetZoom(100); err != nil || got != DefaultOptions().ZoomMax {
		t.Errorf("SetZoom(100) = %v, %v, want clamp to max", got, err)
	}
	if got, err := m.SetZoom(0.001); err != nil || got != DefaultOptions().ZoomMin {
		t.Errorf("SetZoom(0.001) = %v, %v, want clamp to min", got, err)
	}

	_, err := m.SetZoom(math.NaN())
	var zoomErr *ZoomOutOfBoundsError
	if !errors.As(err, &zoomErr) {
		t.Errorf("SetZoom(NaN) error = %v, want ZoomOutOfBoundsError", err)
	}
	if _, err := m.SetZoom(-1); err == nil {
		t.Error("SetZoom(-1) should fail")
	}
}

func TestSetGridSize(t *testing.T) {
	m := newTestModel(t)

	if err := m.SetGridSize(0.5); err != nil {
		t.Fatalf("SetGridSize(0.5) error = %v", err)
	}
	if err := m.SetGridSize(0); err == nil {
		t.Error("SetGridSize(0) should fail")
	}
	if err := m.SetGridSize(-2); err == nil {
		t.Error("SetGridSize(-2) should fail")
	}
}

func TestRemoveTrack_CascadesClips(t *testing.T) {
	m := newTestModel(t)
	tr := videoTrack(m)
	m.AddClip(tr.ID, "vid-a", 0)

	if err := m.RemoveTrack(tr.ID); err != nil {
		t.Fatalf("RemoveTrack() error = %v", err)
	}
	if m.Timeline().TrackByID(tr.ID) != nil {
		t.Error("track still present after removal")
	}
	if m.Duration() != 0 {
		t.Errorf("duration = %v after removing only populated track, want 0", m.Duration())
	}
}

func TestMoveTrack_ReordersStack(t *testing.T) {
	m := newTestModel(t)
	extra := m.AddTrack("Overlay", TrackTypeVideo)

	if err := m.MoveTrack(extra.ID, 0); err != nil {
		t.Fatalf("MoveTrack() error = %v", err)
	}
	if m.Timeline().Tracks[0].ID != extra.ID {
		t.Errorf("track not moved to index 0")
	}
	if err := m.MoveTrack(extra.ID, 99); err == nil {
		t.Error("MoveTrack to invalid index should fail")
	}
}

func TestDanglingClips_ReportedNotDeleted(t *testing.T) {
	cat := testCatalog()
	m := NewModel(NewTimeline(), cat, DefaultOptions(), nil)
	tr := videoTrack(m)

	clip, _ := m.AddClip(tr.ID, "vid-a", 0)
	delete(cat, "vid-a")

	dangling := m.DanglingClips()
	if len(dangling) != 1 || dangling[0].ID != clip.ID {
		t.Fatalf("DanglingClips() = %v, want the orphaned clip", dangling)
	}
	if tr.ClipByID(clip.ID) == nil {
		t.Error("dangling clip was removed from track")
	}

	_, err := m.ResolveSource(clip.ID)
	var missingErr *MissingAssetError
	if !errors.As(err, &missingErr) {
		t.Errorf("ResolveSource() error = %v, want MissingAssetError", err)
	}
}

func TestSetTrackOverlay(t *testing.T) {
	m := newTestModel(t)
	video := videoTrack(m)

	var audio *Track
	for _, tr := range m.Timeline().Tracks {
		if tr.Type == TrackTypeAudio {
			audio = tr
		}
	}

	if err := m.SetTrackOverlay(video.ID, &OverlayPlacement{X: 0.7, Y: 0.7, Scale: 0.25}); err != nil {
		t.Fatalf("SetTrackOverlay() error = %v", err)
	}
	if video.Overlay == nil || video.Overlay.Scale != 0.25 {
		t.Error("overlay placement not stored")
	}

	if err := m.SetTrackOverlay(audio.ID, &OverlayPlacement{X: 0, Y: 0, Scale: 0.5}); err == nil {
		t.Error("audio tracks must reject overlay placement")
	}
	if err := m.SetTrackOverlay(video.ID, &OverlayPlacement{X: 1.5, Y: 0, Scale: 0.5}); err == nil {
		t.Error("out-of-range overlay position must be rejected")
	}
}

func TestTimelineValidate(t *testing.T) {
	m := newTestModel(t)
	tr := videoTrack(m)
	m.AddClip(tr.ID, "vid-a", 0)
	m.AddClip(tr.ID, "vid-b", 10)

	if err := m.Timeline().Validate(); err != nil {
		t.Fatalf("Validate() on consistent timeline error = %v", err)
	}

	// Corrupt the document the way a bad save would.
	tr.Clips[0].EndTime = 12
	if err := m.Timeline().Validate(); err == nil {
		t.Error("Validate() should reject inconsistent clip spans")
	}
}
