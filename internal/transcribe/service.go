package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/clipforge/clipforge-agent/internal/library"
	"github.com/clipforge/clipforge-agent/internal/timeline"
)

// stage progress percentages reported while a job runs
var stageProgress = map[string]int{
	StageExtracting:   10,
	StageTranscribing: 40,
	StageFormatting:   90,
	StageComplete:     100,
}

// Service queues transcription jobs and stores finished transcripts as JSON
// documents keyed by video ID.
type Service struct {
	transcriber Transcriber
	probe       *CachedProbe
	videos      *library.Service
	repo        library.Repository
	outDir      string
	logger      *slog.Logger
}

// NewService wires the transcription pipeline. probe may be nil when the
// transcriber is remote and needs no local binaries.
func NewService(transcriber Transcriber, probe *CachedProbe, videos *library.Service,
	repo library.Repository, outDir string, logger *slog.Logger) *Service {
	return &Service{
		transcriber: transcriber,
		probe:       probe,
		videos:      videos,
		repo:        repo,
		outDir:      outDir,
		logger:      logger,
	}
}

// Capabilities reports what the local environment supports.
func (s *Service) Capabilities() *Capabilities {
	if s.probe == nil {
		return &Capabilities{HasWhisper: true, HasFFmpeg: true}
	}
	return s.probe.Get()
}

// Queue creates a pending transcription job for a video.
func (s *Service) Queue(ctx context.Context, videoID string) (*library.Job, error) {
	video, err := s.videos.Video(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if video == nil {
		return nil, &timeline.NotFoundError{Kind: "video", ID: videoID}
	}
	if video.Missing {
		return nil, fmt.Errorf("source file for video %s is offline", videoID)
	}
	if caps := s.Capabilities(); !caps.CanTranscribe() {
		return nil, fmt.Errorf("transcription unavailable: whisper=%v ffmpeg=%v",
			caps.HasWhisper, caps.HasFFmpeg)
	}

	return s.videos.QueueJob(ctx, &library.Job{
		Type:    library.JobTypeTranscribe,
		VideoID: videoID,
	})
}

// ExecuteJob runs a queued transcription. Registered with the job runner
// under library.JobTypeTranscribe.
func (s *Service) ExecuteJob(ctx context.Context, job *library.Job) error {
	video, err := s.videos.Video(ctx, job.VideoID)
	if err != nil {
		return err
	}
	if video == nil {
		return &timeline.NotFoundError{Kind: "video", ID: job.VideoID}
	}

	transcript, err := s.transcriber.Transcribe(ctx, video.FilePath, func(stage string) {
		s.repo.UpdateJobProgress(ctx, job.ID, stageProgress[stage], stage)
	})
	if err != nil {
		return err
	}
	transcript.VideoID = video.ID

	outPath, err := s.save(transcript)
	if err != nil {
		return err
	}
	if err := s.repo.UpdateJobOutput(ctx, job.ID, outPath); err != nil {
		return err
	}

	s.logger.Info("transcript stored", "video_id", video.ID,
		"segments", len(transcript.Segments), "path", outPath)
	return nil
}

// Transcript loads a stored transcript, or nil when none exists yet.
func (s *Service) Transcript(videoID string) (*Transcript, error) {
	data, err := os.ReadFile(s.transcriptPath(videoID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var t Transcript
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("corrupt transcript for video %s: %w", videoID, err)
	}
	return &t, nil
}

func (s *Service) save(t *Transcript) (string, error) {
	if err := os.MkdirAll(s.outDir, 0755); err != nil {
		return "", fmt.Errorf("cannot create transcript dir: %w", err)
	}
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return "", err
	}
	path := s.transcriptPath(t.VideoID)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("cannot write transcript: %w", err)
	}
	return path, nil
}

func (s *Service) transcriptPath(videoID string) string {
	return filepath.Join(s.outDir, videoID+".json")
}
