package library

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/clipforge/clipforge-agent/internal/media"
	"github.com/clipforge/clipforge-agent/internal/timeline"
)

func setupRunnerTest(t *testing.T, proc media.Processor) (*Runner, *Service, Repository) {
	t.Helper()
	database, repo := setupTestDB(t)
	t.Cleanup(func() { database.Close() })

	svc := NewService(repo, proc, t.TempDir(), discardLogger())
	runner := NewRunner(svc, repo, discardLogger())
	return runner, svc, repo
}

func createVideoRecord(t *testing.T, repo Repository) *Video {
	t.Helper()
	video := &Video{
		ID:        timeline.NewID(),
		FilePath:  "/test/clip.mp4",
		Name:      "clip",
		Duration:  10,
		Width:     1920,
		Height:    1080,
		TrimEnd:   10,
		CreatedAt: time.Now(),
	}
	if err := repo.CreateVideo(context.Background(), video); err != nil {
		t.Fatalf("create video: %v", err)
	}
	return video
}

func TestRunner_ProcessThumbnailJob(t *testing.T) {
	proc := &fakeProcessor{probe: &media.ProbeResult{Duration: 10}}
	runner, svc, repo := setupRunnerTest(t, proc)
	ctx := context.Background()

	video := createVideoRecord(t, repo)
	job, err := svc.QueueThumbnail(ctx, video.ID)
	if err != nil {
		t.Fatalf("QueueThumbnail() error = %v", err)
	}

	runner.processNextJob(ctx)

	updated, _ := repo.GetJob(ctx, job.ID)
	if updated.Status != JobStatusCompleted {
		t.Errorf("job status = %s, want %s (error: %s)", updated.Status, JobStatusCompleted, updated.Error)
	}
	if updated.Progress != 100 {
		t.Errorf("job progress = %d, want 100", updated.Progress)
	}
	if proc.thumbCalls != 1 {
		t.Errorf("thumbnail generated %d times, want 1", proc.thumbCalls)
	}

	refreshed, _ := repo.GetVideo(ctx, video.ID)
	if refreshed.ThumbnailPath == "" {
		t.Error("video thumbnail path not recorded")
	}
}

func TestRunner_ProcessThumbnailJob_MissingVideo(t *testing.T) {
	proc := &fakeProcessor{probe: &media.ProbeResult{Duration: 10}}
	runner, svc, repo := setupRunnerTest(t, proc)
	ctx := context.Background()

	job, _ := svc.QueueThumbnail(ctx, "nonexistent-video")
	runner.processNextJob(ctx)

	updated, _ := repo.GetJob(ctx, job.ID)
	if updated.Status != JobStatusFailed {
		t.Errorf("job status = %s, want %s", updated.Status, JobStatusFailed)
	}
}

func TestRunner_DispatchesRegisteredHandler(t *testing.T) {
	proc := &fakeProcessor{probe: &media.ProbeResult{Duration: 10}}
	runner, svc, repo := setupRunnerTest(t, proc)
	ctx := context.Background()

	var handled string
	runner.RegisterHandler(JobTypeExport, func(ctx context.Context, job *Job) error {
		handled = job.ID
		return nil
	})

	job, _ := svc.QueueJob(ctx, &Job{Type: JobTypeExport, ProjectID: "proj-1"})
	runner.processNextJob(ctx)

	if handled != job.ID {
		t.Errorf("handler saw job %q, want %q", handled, job.ID)
	}
	updated, _ := repo.GetJob(ctx, job.ID)
	if updated.Status != JobStatusCompleted {
		t.Errorf("job status = %s, want %s", updated.Status, JobStatusCompleted)
	}
}

func TestRunner_HandlerFailureMarksJobFailed(t *testing.T) {
	proc := &fakeProcessor{probe: &media.ProbeResult{Duration: 10}}
	runner, svc, repo := setupRunnerTest(t, proc)
	ctx := context.Background()

	runner.RegisterHandler(JobTypeTranscribe, func(ctx context.Context, job *Job) error {
		return errors.New("whisper not installed")
	})

	job, _ := svc.QueueJob(ctx, &Job{Type: JobTypeTranscribe, VideoID: "vid-1"})
	runner.processNextJob(ctx)

	updated, _ := repo.GetJob(ctx, job.ID)
	if updated.Status != JobStatusFailed {
		t.Errorf("job status = %s, want %s", updated.Status, JobStatusFailed)
	}
	if updated.Error == "" {
		t.Error("failure reason not recorded")
	}
}

func TestRunner_UnknownJobType(t *testing.T) {
	proc := &fakeProcessor{probe: &media.ProbeResult{Duration: 10}}
	runner, svc, repo := setupRunnerTest(t, proc)
	ctx := context.Background()

	job, _ := svc.QueueJob(ctx, &Job{Type: "mystery"})
	runner.processNextJob(ctx)

	updated, _ := repo.GetJob(ctx, job.ID)
	if updated.Status != JobStatusFailed {
		t.Errorf("job status = %s, want %s", updated.Status, JobStatusFailed)
	}
}

func TestRunner_PauseResume(t *testing.T) {
	proc := &fakeProcessor{probe: &media.ProbeResult{Duration: 10}}
	runner, _, _ := setupRunnerTest(t, proc)

	if runner.IsPaused() {
		t.Error("runner should start unpaused")
	}
	runner.Pause()
	if !runner.IsPaused() {
		t.Error("Pause() did not take effect")
	}
	runner.Resume()
	if runner.IsPaused() {
		t.Error("Resume() did not take effect")
	}
}
