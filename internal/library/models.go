// Package library manages the imported video pool: probing files on import,
// tracking their on-disk presence, and queueing background jobs against them.
package library

import (
	"path/filepath"
	"strings"
	"time"
)

// Video is an imported source file. Duration, dimensions and frame rate come
// from the probe at import time; trim bounds default to the full duration.
type Video struct {
	ID            string    `json:"id"`
	FilePath      string    `json:"file_path"`
	Name          string    `json:"name"`
	Duration      float64   `json:"duration"`
	Width         int       `json:"width"`
	Height        int       `json:"height"`
	FrameRate     float64   `json:"frame_rate"`
	TrimStart     float64   `json:"trim_start"`
	TrimEnd       float64   `json:"trim_end"`
	ThumbnailPath string    `json:"thumbnail_path,omitempty"`
	Missing       bool      `json:"missing"`
	CreatedAt     time.Time `json:"created_at"`
}

const (
	JobTypeThumbnail  = "thumbnail"
	JobTypeExport     = "export"
	JobTypeTranscribe = "transcribe"

	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

type Job struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	Status     string    `json:"status"`
	VideoID    string    `json:"video_id,omitempty"`
	ProjectID  string    `json:"project_id,omitempty"`
	Progress   int       `json:"progress"`
	Message    string    `json:"message,omitempty"`
	Error      string    `json:"error,omitempty"`
	OutputPath string    `json:"output_path,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// BatchImportResult reports a multi-file import. A failed file never aborts
// the rest of the batch.
type BatchImportResult struct {
	Imported []*Video           `json:"imported"`
	Failed   []BatchImportError `json:"failed,omitempty"`
}

type BatchImportError struct {
	FilePath string `json:"file_path"`
	Error    string `json:"error"`
}

var videoExtensions = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".mkv":  true,
	".webm": true,
	".avi":  true,
}

func IsVideoFile(filename string) bool {
	return videoExtensions[strings.ToLower(filepath.Ext(filename))]
}
