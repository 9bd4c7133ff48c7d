// Package watcher polls imported source files and flips their library
// missing flag when they disappear or come back, e.g. when an external drive
// is unplugged. Clips referencing an offline source stay on the timeline.
package watcher

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/clipforge/clipforge-agent/internal/library"
)

const defaultPollInterval = 30 * time.Second

type Watcher struct {
	videos       *library.Service
	logger       *slog.Logger
	pollInterval time.Duration
}

func New(videos *library.Service, logger *slog.Logger) *Watcher {
	return &Watcher{
		videos:       videos,
		logger:       logger,
		pollInterval: defaultPollInterval,
	}
}

// Start polls until the context is cancelled.
func (w *Watcher) Start(ctx context.Context) {
	w.logger.Info("file watcher started", "interval", w.pollInterval)

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("file watcher stopping")
			return
		case <-ticker.C:
			w.Sweep(ctx)
		}
	}
}

// Sweep checks every library video once and reconciles its missing flag.
func (w *Watcher) Sweep(ctx context.Context) {
	videos, err := w.videos.Videos(ctx)
	if err != nil {
		w.logger.Error("watcher failed to list videos", "error", err)
		return
	}

	for _, v := range videos {
		present := fileExists(v.FilePath)
		switch {
		case !present && !v.Missing:
			w.logger.Warn("source file went offline", "video_id", v.ID)
			if err := w.videos.MarkMissing(ctx, v.ID); err != nil {
				w.logger.Error("failed to mark video missing", "video_id", v.ID, "error", err)
			}
		case present && v.Missing:
			w.logger.Info("source file came back", "video_id", v.ID)
			if err := w.videos.MarkPresent(ctx, v.ID); err != nil {
				w.logger.Error("failed to mark video present", "video_id", v.ID, "error", err)
			}
		}
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
