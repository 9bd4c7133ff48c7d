package record

import (
	"context"
	"log/slog"
	"os"
)

// StubCapturer writes empty placeholder files instead of capturing. Used when
// ffmpeg or the capture devices are unavailable.
type StubCapturer struct {
	logger *slog.Logger
}

func NewStubCapturer(logger *slog.Logger) *StubCapturer {
	return &StubCapturer{logger: logger}
}

func (c *StubCapturer) Start(ctx context.Context, spec CaptureSpec) error {
	c.logger.Info("capture stub: start requested (no capture devices)",
		"primary", spec.PrimaryPath, "secondary", spec.SecondaryPath)
	if err := os.WriteFile(spec.PrimaryPath, nil, 0644); err != nil {
		return err
	}
	if spec.SecondaryPath != "" {
		return os.WriteFile(spec.SecondaryPath, nil, 0644)
	}
	return nil
}

func (c *StubCapturer) Stop() error {
	c.logger.Info("capture stub: stop requested")
	return nil
}
