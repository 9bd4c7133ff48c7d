// Package transcribe turns a video's audio into timed caption segments. Local
// transcription shells out to whisper; a remote HTTP service can be used when
// configured. Availability is probed once and cached.
package transcribe

import (
	"context"
	"time"
)

// Progress stages reported while a transcription job runs.
const (
	StageExtracting   = "extracting"
	StageTranscribing = "transcribing"
	StageFormatting   = "formatting"
	StageComplete     = "complete"
)

// Segment is one timed span of recognized speech, in seconds.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Transcript is the full result for one video.
type Transcript struct {
	VideoID   string    `json:"video_id"`
	Language  string    `json:"language,omitempty"`
	Segments  []Segment `json:"segments"`
	Model     string    `json:"model,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// StageFunc receives stage transitions during a run.
type StageFunc func(stage string)

// Transcriber is the contract the job runner consumes.
type Transcriber interface {
	Transcribe(ctx context.Context, videoPath string, onStage StageFunc) (*Transcript, error)
}

// Capabilities describe what the transcription environment can do.
type Capabilities struct {
	HasWhisper bool      `json:"has_whisper"`
	HasFFmpeg  bool      `json:"has_ffmpeg"`
	WhisperBin string    `json:"whisper_bin,omitempty"`
	ProbedAt   time.Time `json:"probed_at"`
}

func (c *Capabilities) CanTranscribe() bool {
	return c.HasWhisper && c.HasFFmpeg
}
