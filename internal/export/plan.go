package export

import (
	"fmt"
	"sort"

	"github.com/clipforge/clipforge-agent/internal/media"
	"github.com/clipforge/clipforge-agent/internal/overlay"
	"github.com/clipforge/clipforge-agent/internal/timeline"
)

// PlanOptions carry the project's render settings into the planner.
type PlanOptions struct {
	Width      int
	Height     int
	FrameRate  float64
	OutputPath string
}

// Plan flattens a timeline into an encoder request. The first video track is
// the base program: its clips become trimmed segments in start order. Video
// tracks above it with a persisted placement are composited as burned-in
// overlays. A clip whose source is missing from the catalog fails the plan
// with a MissingAssetError.
func Plan(tl *timeline.Timeline, catalog timeline.Catalog, opts PlanOptions) (*media.ExportRequest, []ResolvedClip, error) {
	baseTrack := firstVideoTrack(tl)
	if baseTrack == nil || len(baseTrack.Clips) == 0 {
		return nil, nil, fmt.Errorf("timeline has no clips to export")
	}

	clips := make([]*timeline.Clip, len(baseTrack.Clips))
	copy(clips, baseTrack.Clips)
	sort.SliceStable(clips, func(i, j int) bool { return clips[i].StartTime < clips[j].StartTime })

	req := &media.ExportRequest{
		OutputPath: opts.OutputPath,
		Width:      opts.Width,
		Height:     opts.Height,
		FrameRate:  opts.FrameRate,
	}
	var resolved []ResolvedClip

	for _, c := range clips {
		src, ok := catalog.Source(c.VideoID)
		if !ok || src.Missing {
			return nil, nil, &timeline.MissingAssetError{ClipID: c.ID, VideoID: c.VideoID}
		}
		req.Segments = append(req.Segments, media.ExportSegment{
			SourcePath: src.FilePath,
			TrimStart:  c.TrimStart,
			TrimEnd:    c.TrimEnd,
			Volume:     baseTrack.Volume,
			Muted:      baseTrack.Muted,
		})
		resolved = append(resolved, ResolvedClip{
			ClipName:  src.Name,
			MediaPath: src.FilePath,
			TrimStart: c.TrimStart,
			TrimEnd:   c.TrimEnd,
		})
	}

	overlays, err := planOverlays(tl, baseTrack, catalog, opts)
	if err != nil {
		return nil, nil, err
	}
	req.Overlays = overlays

	return req, resolved, nil
}

// planOverlays walks the video tracks above the base in stacking order and
// projects each placement into output pixels.
func planOverlays(tl *timeline.Timeline, baseTrack *timeline.Track, catalog timeline.Catalog, opts PlanOptions) ([]media.ExportOverlay, error) {
	var overlays []media.ExportOverlay
	past := false
	for _, tr := range tl.Tracks {
		if tr == baseTrack {
			past = true
			continue
		}
		if !past || tr.Type != timeline.TrackTypeVideo || tr.Overlay == nil || len(tr.Clips) == 0 {
			continue
		}

		c := tr.Clips[0]
		src, ok := catalog.Source(c.VideoID)
		if !ok || src.Missing {
			return nil, &timeline.MissingAssetError{ClipID: c.ID, VideoID: c.VideoID}
		}

		rect := overlay.PlacementRect(tr.Overlay, opts.Width, opts.Height, src.Width, src.Height)
		if rect.Width < 1 || rect.Height < 1 {
			return nil, fmt.Errorf("overlay track %s resolves to a degenerate rectangle", tr.ID)
		}
		overlays = append(overlays, media.ExportOverlay{
			SourcePath: src.FilePath,
			X:          rect.X,
			Y:          rect.Y,
			Width:      rect.Width,
			Height:     rect.Height,
		})
	}
	return overlays, nil
}

func firstVideoTrack(tl *timeline.Timeline) *timeline.Track {
	for _, tr := range tl.Tracks {
		if tr.Type == timeline.TrackTypeVideo {
			return tr
		}
	}
	return nil
}
