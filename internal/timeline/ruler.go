package timeline

import (
	"fmt"
	"math"
)

// niceIntervals are the admissible major tick spacings in seconds, ordered.
var niceIntervals = []float64{1, 2, 5, 10, 15, 30, 60, 120, 300, 600, 1800, 3600}

// DefaultTargetTickCount is how many major ticks the planner aims for across
// the visible span.
const DefaultTargetTickCount = 20

// RulerScale is the planned tick layout for the current duration and zoom.
type RulerScale struct {
	MajorInterval float64 `json:"major_interval"`
	MinorInterval float64 `json:"minor_interval"`
	DisplayFormat string  `json:"display_format"`
	TickCount     int     `json:"tick_count"`
}

// PlanRuler chooses a human-readable tick spacing for a timeline of the given
// duration at the given zoom level. The visible span is duration/zoom; the
// ideal spacing divides it into targetTicks ticks and is rounded up to the
// smallest nice interval. Durations and zooms that cannot produce ticks yield
// a zero TickCount.
func PlanRuler(duration, zoom float64, targetTicks int) RulerScale {
	if targetTicks <= 0 {
		targetTicks = DefaultTargetTickCount
	}
	if duration <= 0 || zoom <= 0 {
		return RulerScale{MajorInterval: 1, MinorInterval: 0.5, DisplayFormat: "ss"}
	}

	ideal := (duration / zoom) / float64(targetTicks)

	major := niceIntervals[len(niceIntervals)-1]
	for _, n := range niceIntervals {
		if n >= ideal {
			major = n
			break
		}
	}
	if ideal < 1 {
		major = 1
	}

	// Spacings under 10s halve; 10s and up subdivide into fifths.
	minor := major / 2
	if major >= 10 {
		minor = major / 5
	}

	return RulerScale{
		MajorInterval: major,
		MinorInterval: minor,
		DisplayFormat: displayFormat(major),
		TickCount:     int(math.Ceil(duration / major)),
	}
}

func displayFormat(major float64) string {
	switch {
	case major >= 3600:
		return "hh:mm:ss"
	case major >= 60:
		return "mm:ss"
	default:
		return "ss"
	}
}

// FormatTick renders a tick time label for the given display format.
func FormatTick(seconds float64, format string) string {
	total := int(math.Round(seconds))
	switch format {
	case "hh:mm:ss":
		return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
	case "mm:ss":
		return fmt.Sprintf("%02d:%02d", total/60, total%60)
	default:
		return fmt.Sprintf("%ds", total)
	}
}
