// Package project persists editing projects. A project owns one timeline plus
// export and recording defaults; the timeline is stored as a JSON document and
// validated on load.
package project

import (
	"time"

	"github.com/clipforge/clipforge-agent/internal/overlay"
	"github.com/clipforge/clipforge-agent/internal/timeline"
)

type Project struct {
	ID                string             `json:"id"`
	Name              string             `json:"name"`
	Timeline          *timeline.Timeline `json:"timeline"`
	ExportSettings    ExportSettings     `json:"export_settings"`
	RecordingDefaults overlay.Config     `json:"recording_defaults"`
	CreatedAt         time.Time          `json:"created_at"`
	ModifiedAt        time.Time          `json:"modified_at"`
}

type ExportSettings struct {
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	FrameRate float64 `json:"frame_rate"`
	Format    string  `json:"format"`
}

func DefaultExportSettings() ExportSettings {
	return ExportSettings{
		Width:     1920,
		Height:    1080,
		FrameRate: 30,
		Format:    "mp4",
	}
}

func DefaultRecordingConfig() overlay.Config {
	return overlay.Config{
		Position:      overlay.PositionBottomRight,
		Size:          overlay.SizeSmall,
		RecordingMode: overlay.ModeComposited,
	}
}
