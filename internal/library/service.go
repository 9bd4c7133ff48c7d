package library

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/clipforge/clipforge-agent/internal/media"
	"github.com/clipforge/clipforge-agent/internal/timeline"
)

// Service imports and manages source videos. Import probes the file once and
// stores the result; the editing model reads durations from here, never from
// disk.
type Service struct {
	repo         Repository
	processor    media.Processor
	thumbnailDir string
	logger       *slog.Logger
}

func NewService(repo Repository, processor media.Processor, thumbnailDir string, logger *slog.Logger) *Service {
	return &Service{
		repo:         repo,
		processor:    processor,
		thumbnailDir: thumbnailDir,
		logger:       logger,
	}
}

// ImportVideo probes a file and registers it. Re-importing a path returns the
// existing record.
func (s *Service) ImportVideo(ctx context.Context, path string) (*Video, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}

	if _, err := os.Stat(absPath); err != nil {
		return nil, fmt.Errorf("file does not exist: %w", err)
	}
	if !IsVideoFile(absPath) {
		return nil, fmt.Errorf("unsupported file type: %s", filepath.Ext(absPath))
	}

	existing, err := s.repo.GetVideoByPath(ctx, absPath)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	probe, err := s.processor.Probe(ctx, absPath)
	if err != nil {
		return nil, fmt.Errorf("probe failed: %w", err)
	}
	if probe.Duration <= 0 {
		return nil, fmt.Errorf("file has no playable duration")
	}

	video := &Video{
		ID:        timeline.NewID(),
		FilePath:  absPath,
		Name:      strings.TrimSuffix(filepath.Base(absPath), filepath.Ext(absPath)),
		Duration:  probe.Duration,
		Width:     probe.Width,
		Height:    probe.Height,
		FrameRate: probe.FrameRate,
		TrimStart: 0,
		TrimEnd:   probe.Duration,
		CreatedAt: time.Now(),
	}

	if err := s.repo.CreateVideo(ctx, video); err != nil {
		return nil, err
	}

	if _, err := s.QueueThumbnail(ctx, video.ID); err != nil {
		s.logger.Warn("failed to queue thumbnail job", "video_id", video.ID, "error", err)
	}

	s.logger.Info("video imported", "video_id", video.ID, "path", absPath,
		"duration", probe.Duration)
	return video, nil
}

// ImportBatch imports each path, continuing past individual failures.
func (s *Service) ImportBatch(ctx context.Context, paths []string) *BatchImportResult {
	result := &BatchImportResult{}
	for _, path := range paths {
		video, err := s.ImportVideo(ctx, path)
		if err != nil {
			result.Failed = append(result.Failed, BatchImportError{FilePath: path, Error: err.Error()})
			continue
		}
		result.Imported = append(result.Imported, video)
	}
	return result
}

// RemoveVideo deletes the library record only. Timeline clips referencing it
// become dangling; the model reports them as missing assets.
func (s *Service) RemoveVideo(ctx context.Context, id string) error {
	video, err := s.repo.GetVideo(ctx, id)
	if err != nil {
		return err
	}
	if video == nil {
		return &timeline.NotFoundError{Kind: "video", ID: id}
	}
	if err := s.repo.DeleteVideo(ctx, id); err != nil {
		return err
	}
	s.logger.Info("video removed", "video_id", id)
	return nil
}

func (s *Service) Video(ctx context.Context, id string) (*Video, error) {
	return s.repo.GetVideo(ctx, id)
}

func (s *Service) Videos(ctx context.Context) ([]*Video, error) {
	return s.repo.ListVideos(ctx)
}

// SetTrim records source-level trim bounds on the library entry. These are
// defaults for new clips and do not touch existing timeline clips.
func (s *Service) SetTrim(ctx context.Context, id string, trimStart, trimEnd float64) error {
	video, err := s.repo.GetVideo(ctx, id)
	if err != nil {
		return err
	}
	if video == nil {
		return &timeline.NotFoundError{Kind: "video", ID: id}
	}
	if trimStart < 0 || trimEnd > video.Duration || trimStart >= trimEnd {
		return &timeline.InvalidTrimError{
			ClipID:           id,
			TrimStart:        trimStart,
			TrimEnd:          trimEnd,
			OriginalDuration: video.Duration,
		}
	}
	return s.repo.UpdateVideoTrim(ctx, id, trimStart, trimEnd)
}

func (s *Service) MarkMissing(ctx context.Context, id string) error {
	return s.repo.UpdateVideoMissing(ctx, id, true)
}

func (s *Service) MarkPresent(ctx context.Context, id string) error {
	return s.repo.UpdateVideoMissing(ctx, id, false)
}

// QueueThumbnail creates a pending thumbnail job for the runner.
func (s *Service) QueueThumbnail(ctx context.Context, videoID string) (*Job, error) {
	return s.createJob(ctx, &Job{Type: JobTypeThumbnail, VideoID: videoID})
}

// QueueJob creates a pending job of any type; export and transcription use
// this with their own type constants.
func (s *Service) QueueJob(ctx context.Context, job *Job) (*Job, error) {
	return s.createJob(ctx, job)
}

func (s *Service) createJob(ctx context.Context, job *Job) (*Job, error) {
	now := time.Now()
	job.ID = timeline.NewID()
	job.Status = JobStatusPending
	job.CreatedAt = now
	job.UpdatedAt = now

	if err := s.repo.CreateJob(ctx, job); err != nil {
		return nil, err
	}
	s.logger.Info("job queued", "job_id", job.ID, "type", job.Type)
	return job, nil
}

func (s *Service) Job(ctx context.Context, id string) (*Job, error) {
	return s.repo.GetJob(ctx, id)
}

func (s *Service) Jobs(ctx context.Context, limit int) ([]*Job, error) {
	return s.repo.ListJobs(ctx, limit)
}

// ExecuteThumbnail renders the poster frame for a video. Called by the job
// runner.
func (s *Service) ExecuteThumbnail(ctx context.Context, jobID, videoID string) error {
	video, err := s.repo.GetVideo(ctx, videoID)
	if err != nil {
		return err
	}
	if video == nil {
		return &timeline.NotFoundError{Kind: "video", ID: videoID}
	}

	outputPath := filepath.Join(s.thumbnailDir, video.ID+".jpg")
	// grab the frame a second in; frame zero is often black
	offset := 1.0
	if video.Duration < 2 {
		offset = video.Duration / 2
	}

	if err := s.processor.GenerateThumbnail(ctx, video.FilePath, outputPath, offset, 320); err != nil {
		return err
	}
	if err := s.repo.UpdateVideoThumbnail(ctx, videoID, outputPath); err != nil {
		return err
	}
	if err := s.repo.UpdateJobOutput(ctx, jobID, outputPath); err != nil {
		return err
	}

	s.logger.Info("thumbnail generated", "video_id", videoID, "path", outputPath)
	return nil
}

// Catalog bridges the library to the editing model's asset lookup. The model
// holds video IDs only; every resolution goes through here.
type Catalog struct {
	repo Repository
}

func NewCatalog(repo Repository) *Catalog {
	return &Catalog{repo: repo}
}

func (c *Catalog) Source(videoID string) (*timeline.Source, bool) {
	video, err := c.repo.GetVideo(context.Background(), videoID)
	if err != nil || video == nil {
		return nil, false
	}
	return &timeline.Source{
		ID:        video.ID,
		Name:      video.Name,
		FilePath:  video.FilePath,
		Duration:  video.Duration,
		TrimStart: video.TrimStart,
		TrimEnd:   video.TrimEnd,
		Width:     video.Width,
		Height:    video.Height,
		Missing:   video.Missing,
	}, true
}
