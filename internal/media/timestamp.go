package media

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatTimestamp converts seconds to the HH:MM:SS.mmm form ffmpeg expects.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	hours := int(seconds / 3600)
	minutes := int(seconds/60) % 60
	secs := seconds - float64(hours*3600) - float64(minutes*60)
	return fmt.Sprintf("%02d:%02d:%06.3f", hours, minutes, secs)
}

// ParseFrameRate parses ffprobe's rational frame rate form (e.g. "30/1",
// "30000/1001"). Returns 0 for anything unparseable.
func ParseFrameRate(s string) float64 {
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			return v
		}
		return 0
	}
	num, err1 := strconv.ParseFloat(parts[0], 64)
	den, err2 := strconv.ParseFloat(parts[1], 64)
	if err1 != nil || err2 != nil || den == 0 {
		return 0
	}
	return num / den
}
