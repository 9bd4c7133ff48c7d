package transcribe

import (
	"context"
	"log/slog"
	"time"
)

// StubTranscriber returns an empty transcript. Used when neither whisper nor
// a remote endpoint is available.
type StubTranscriber struct {
	logger *slog.Logger
}

func NewStubTranscriber(logger *slog.Logger) *StubTranscriber {
	return &StubTranscriber{logger: logger}
}

func (s *StubTranscriber) Transcribe(ctx context.Context, videoPath string, onStage StageFunc) (*Transcript, error) {
	s.logger.Info("transcribe stub: transcription requested (whisper not available)",
		"path", videoPath)
	if onStage != nil {
		onStage(StageComplete)
	}
	return &Transcript{CreatedAt: time.Now()}, nil
}
