package timeline

import "math"

// ResolveSnap corrects a candidate time against neighboring clip edges and,
// when enabled, grid lines. Only the single closest correction within the
// tolerance window applies; ties prefer clip edges over the grid. The
// tolerance is in seconds (a pixel window already converted via
// SecondsPerPixel).
func ResolveSnap(t float64, edges []float64, snapToGrid bool, gridSize, tolerance float64) float64 {
	if tolerance <= 0 {
		return t
	}

	bestEdge := math.NaN()
	bestEdgeDist := math.Inf(1)
	for _, e := range edges {
		d := math.Abs(t - e)
		if d <= tolerance && d < bestEdgeDist {
			bestEdge = e
			bestEdgeDist = d
		}
	}

	bestGrid := math.NaN()
	bestGridDist := math.Inf(1)
	if snapToGrid && gridSize > 0 {
		g := math.Round(t/gridSize) * gridSize
		if g < 0 {
			g = 0
		}
		if d := math.Abs(t - g); d <= tolerance {
			bestGrid = g
			bestGridDist = d
		}
	}

	switch {
	case !math.IsNaN(bestEdge) && bestEdgeDist <= bestGridDist:
		return bestEdge
	case !math.IsNaN(bestGrid):
		return bestGrid
	default:
		return t
	}
}

// ClipEdges collects the boundary times of every clip on the track except the
// one being dragged.
func ClipEdges(track *Track, excludeClipID string) []float64 {
	var edges []float64
	for _, c := range track.Clips {
		if c.ID == excludeClipID {
			continue
		}
		edges = append(edges, c.StartTime, c.EndTime)
	}
	return edges
}
