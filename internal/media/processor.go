// Package media wraps the external ffmpeg/ffprobe binaries behind the
// Processor interface. The editing model never touches frames; it asks this
// package where files are and what is in them, and hands it render plans.
package media

import "context"

// ProbeResult is the metadata extracted from a video file.
type ProbeResult struct {
	Duration    float64
	Width       int
	Height      int
	FrameRate   float64
	Codec       string
	Bitrate     int64
	HasAudio    bool
	AudioCodec  string
	AudioSample int
}

// Progress reports encoder progress to the caller: percent in 0-100 plus an
// optional human-readable message.
type Progress struct {
	Percent int
	Message string
}

// ProgressFunc receives progress events during long encodes.
type ProgressFunc func(Progress)

// ExportSegment is one contiguous piece of source media in an export.
type ExportSegment struct {
	SourcePath string
	TrimStart  float64
	TrimEnd    float64
	Volume     float64
	Muted      bool
}

// ExportOverlay is a burn-in region composited over the base stream.
type ExportOverlay struct {
	SourcePath string
	X, Y       int
	Width      int
	Height     int
}

// ExportRequest is the flattened encoder instruction set produced by the
// export planner.
type ExportRequest struct {
	Segments   []ExportSegment
	Overlays   []ExportOverlay
	OutputPath string
	Width      int
	Height     int
	FrameRate  float64
}

// Processor is the contract the rest of the agent consumes.
type Processor interface {
	// Probe extracts duration, dimensions and frame rate from a file.
	Probe(ctx context.Context, filePath string) (*ProbeResult, error)

	// GenerateThumbnail captures a single frame at timeOffset seconds,
	// scaled to width pixels (height follows aspect).
	GenerateThumbnail(ctx context.Context, filePath, outputPath string, timeOffset float64, width int) error

	// Trim writes the [startTime, endTime) range of input to outputPath.
	Trim(ctx context.Context, inputPath, outputPath string, startTime, endTime float64) error

	// Export renders a flattened timeline to a single output file.
	Export(ctx context.Context, req ExportRequest, onProgress ProgressFunc) error
}
