package timeline

// DefaultHeaderWidth is the fixed pixel width of the track header column that
// precedes the ruler area.
const DefaultHeaderWidth = 100.0

// PositionToTime converts a ruler pixel position into timeline seconds given
// the viewport width and total duration. Returns 0 when the geometry is
// degenerate (duration <= 0 or no ruler area), so callers never divide by zero.
func PositionToTime(position, timelineWidth, duration, headerWidth float64) float64 {
	rulerWidth := timelineWidth - headerWidth
	if duration <= 0 || rulerWidth <= 0 {
		return 0
	}
	return (position - headerWidth) / rulerWidth * duration
}

// TimeToPosition is the exact inverse of PositionToTime.
func TimeToPosition(t, timelineWidth, duration, headerWidth float64) float64 {
	rulerWidth := timelineWidth - headerWidth
	if duration <= 0 || rulerWidth <= 0 {
		return headerWidth
	}
	return headerWidth + (t/duration)*rulerWidth
}

// SecondsPerPixel returns the current ruler scale, or 0 for degenerate
// geometry. Used to convert pixel tolerances into time tolerances.
func SecondsPerPixel(timelineWidth, duration, headerWidth float64) float64 {
	rulerWidth := timelineWidth - headerWidth
	if duration <= 0 || rulerWidth <= 0 {
		return 0
	}
	return duration / rulerWidth
}
