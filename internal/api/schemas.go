package api

import (
	"time"

	"github.com/clipforge/clipforge-agent/internal/library"
	"github.com/clipforge/clipforge-agent/internal/overlay"
	"github.com/clipforge/clipforge-agent/internal/project"
	"github.com/clipforge/clipforge-agent/internal/timeline"
	"github.com/clipforge/clipforge-agent/internal/transcribe"
)

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	UptimeS int64  `json:"uptime_s"`
}

type StatusResponse struct {
	State         string                   `json:"state"`
	LastError     string                   `json:"last_error,omitempty"`
	VideosCount   int                      `json:"videos_count"`
	ProjectsCount int                      `json:"projects_count"`
	JobsRunning   int                      `json:"jobs_running"`
	Recording     bool                     `json:"recording"`
	ActiveJob     *JobResponse             `json:"active_job,omitempty"`
	Transcription *transcribe.Capabilities `json:"transcription,omitempty"`
}

type ImportRequest struct {
	Path  string   `json:"path,omitempty"`
	Paths []string `json:"paths,omitempty"`
}

type VideoResponse struct {
	ID            string  `json:"id"`
	FilePath      string  `json:"file_path"`
	Name          string  `json:"name"`
	Duration      float64 `json:"duration"`
	Width         int     `json:"width"`
	Height        int     `json:"height"`
	FrameRate     float64 `json:"frame_rate"`
	TrimStart     float64 `json:"trim_start"`
	TrimEnd       float64 `json:"trim_end"`
	HasThumbnail  bool    `json:"has_thumbnail"`
	Missing       bool    `json:"missing"`
	CreatedAt     string  `json:"created_at"`
}

type VideosResponse struct {
	Videos []VideoResponse `json:"videos"`
}

type TrimRequest struct {
	TrimStart float64 `json:"trim_start"`
	TrimEnd   float64 `json:"trim_end"`
}

type ProjectResponse struct {
	ID             string                 `json:"id"`
	Name           string                 `json:"name"`
	ExportSettings project.ExportSettings `json:"export_settings"`
	CreatedAt      string                 `json:"created_at"`
	ModifiedAt     string                 `json:"modified_at"`
}

type ProjectsResponse struct {
	Projects []ProjectResponse `json:"projects"`
}

type CreateProjectRequest struct {
	Name string `json:"name"`
}

type RenameProjectRequest struct {
	Name string `json:"name"`
}

type AddTrackRequest struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type MoveTrackRequest struct {
	Index int `json:"index"`
}

type TrackOverlayRequest struct {
	Clear bool    `json:"clear,omitempty"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Scale float64 `json:"scale"`
}

type AddClipRequest struct {
	TrackID   string  `json:"track_id"`
	VideoID   string  `json:"video_id"`
	StartTime float64 `json:"start_time"`
}

type MoveClipRequest struct {
	StartTime float64 `json:"start_time"`
	TrackID   string  `json:"track_id,omitempty"`
}

type TrimClipRequest struct {
	TrimStart float64 `json:"trim_start"`
	TrimEnd   float64 `json:"trim_end"`
}

type SplitClipRequest struct {
	AtTime float64 `json:"at_time"`
}

type SplitClipResponse struct {
	Left  *timeline.Clip `json:"left"`
	Right *timeline.Clip `json:"right"`
}

type SelectClipRequest struct {
	Exclusive bool `json:"exclusive"`
}

type PlayheadRequest struct {
	Time float64 `json:"time"`
}

type PlayheadResponse struct {
	Time float64 `json:"time"`
}

type ZoomRequest struct {
	Level float64 `json:"level"`
}

type ZoomResponse struct {
	Level float64 `json:"level"`
}

type SnapToggleResponse struct {
	SnapToGrid bool `json:"snap_to_grid"`
}

type GridRequest struct {
	Seconds float64 `json:"seconds"`
}

type SnapResponse struct {
	Time float64 `json:"time"`
}

type TimelineResponse struct {
	Timeline *timeline.Timeline `json:"timeline"`
	Duration float64            `json:"duration"`
	Dangling []string           `json:"dangling_clip_ids,omitempty"`
}

type JobResponse struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Status     string `json:"status"`
	VideoID    string `json:"video_id,omitempty"`
	ProjectID  string `json:"project_id,omitempty"`
	Progress   int    `json:"progress"`
	Message    string `json:"message,omitempty"`
	Error      string `json:"error,omitempty"`
	OutputPath string `json:"output_path,omitempty"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

type JobsResponse struct {
	Jobs []JobResponse `json:"jobs"`
}

type QueueJobResponse struct {
	JobID string `json:"job_id"`
}

type OverlayResolveRequest struct {
	Config     overlay.Config `json:"config"`
	BaseWidth  int            `json:"base_width"`
	BaseHeight int            `json:"base_height"`
	SrcWidth   int            `json:"src_width,omitempty"`
	SrcHeight  int            `json:"src_height,omitempty"`
}

type RecordStartResponse struct {
	SessionID string `json:"session_id"`
}

type RecordStatusResponse struct {
	Recording bool `json:"recording"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func VideoToResponse(v *library.Video) VideoResponse {
	return VideoResponse{
		ID:           v.ID,
		FilePath:     v.FilePath,
		Name:         v.Name,
		Duration:     v.Duration,
		Width:        v.Width,
		Height:       v.Height,
		FrameRate:    v.FrameRate,
		TrimStart:    v.TrimStart,
		TrimEnd:      v.TrimEnd,
		HasThumbnail: v.ThumbnailPath != "",
		Missing:      v.Missing,
		CreatedAt:    v.CreatedAt.Format(time.RFC3339),
	}
}

func ProjectToResponse(p *project.Project) ProjectResponse {
	return ProjectResponse{
		ID:             p.ID,
		Name:           p.Name,
		ExportSettings: p.ExportSettings,
		CreatedAt:      p.CreatedAt.Format(time.RFC3339),
		ModifiedAt:     p.ModifiedAt.Format(time.RFC3339),
	}
}

func JobToResponse(j *library.Job) JobResponse {
	return JobResponse{
		ID:         j.ID,
		Type:       j.Type,
		Status:     j.Status,
		VideoID:    j.VideoID,
		ProjectID:  j.ProjectID,
		Progress:   j.Progress,
		Message:    j.Message,
		Error:      j.Error,
		OutputPath: j.OutputPath,
		CreatedAt:  j.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  j.UpdatedAt.Format(time.RFC3339),
	}
}
