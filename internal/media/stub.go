package media

import (
	"context"
	"log/slog"
)

// StubProcessor stands in for ffmpeg when the binaries are unavailable.
// Probes return plausible fixed metadata so the rest of the agent stays
// exercisable.
type StubProcessor struct {
	logger *slog.Logger
}

func NewStubProcessor(logger *slog.Logger) *StubProcessor {
	return &StubProcessor{logger: logger}
}

func (s *StubProcessor) Probe(ctx context.Context, filePath string) (*ProbeResult, error) {
	s.logger.Info("media stub: probe requested (ffmpeg not available)", "path", filePath)
	return &ProbeResult{
		Duration:  10,
		Width:     1920,
		Height:    1080,
		FrameRate: 30,
		Codec:     "h264",
		HasAudio:  true,
	}, nil
}

func (s *StubProcessor) GenerateThumbnail(ctx context.Context, filePath, outputPath string, timeOffset float64, width int) error {
	s.logger.Info("media stub: thumbnail requested",
		"input", filePath, "output", outputPath, "offset", timeOffset)
	return nil
}

func (s *StubProcessor) Trim(ctx context.Context, inputPath, outputPath string, startTime, endTime float64) error {
	s.logger.Info("media stub: trim requested",
		"input", inputPath, "output", outputPath, "start", startTime, "end", endTime)
	return nil
}

func (s *StubProcessor) Export(ctx context.Context, req ExportRequest, onProgress ProgressFunc) error {
	s.logger.Info("media stub: export requested",
		"output", req.OutputPath, "segments", len(req.Segments), "overlays", len(req.Overlays))
	if onProgress != nil {
		onProgress(Progress{Percent: 100, Message: "stub export complete"})
	}
	return nil
}
