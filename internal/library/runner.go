package library

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"
)

// JobHandler executes one job to completion. Handlers report progress through
// the repository themselves; the runner only manages status transitions.
type JobHandler func(ctx context.Context, job *Job) error

// Runner polls for pending jobs and executes them one at a time. Thumbnail
// jobs are handled directly; other job types dispatch to registered handlers
// so export and transcription stay in their own packages.
type Runner struct {
	service      *Service
	repo         Repository
	handlers     map[string]JobHandler
	logger       *slog.Logger
	pollInterval time.Duration
	running      atomic.Bool
	paused       atomic.Bool
}

func NewRunner(service *Service, repo Repository, logger *slog.Logger) *Runner {
	return &Runner{
		service:      service,
		repo:         repo,
		handlers:     make(map[string]JobHandler),
		logger:       logger,
		pollInterval: 2 * time.Second,
	}
}

// RegisterHandler binds a job type to its executor. Not safe to call after
// Start.
func (r *Runner) RegisterHandler(jobType string, handler JobHandler) {
	r.handlers[jobType] = handler
}

func (r *Runner) Start(ctx context.Context) {
	if r.running.Swap(true) {
		return
	}

	r.logger.Info("job runner started")

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("job runner stopping")
			r.running.Store(false)
			return
		case <-ticker.C:
			if !r.paused.Load() {
				r.processNextJob(ctx)
			}
		}
	}
}

func (r *Runner) Pause() {
	r.paused.Store(true)
	r.logger.Info("job runner paused")
}

func (r *Runner) Resume() {
	r.paused.Store(false)
	r.logger.Info("job runner resumed")
}

func (r *Runner) IsPaused() bool {
	return r.paused.Load()
}

func (r *Runner) IsRunning() bool {
	return r.running.Load()
}

func (r *Runner) processNextJob(ctx context.Context) {
	jobs, err := r.repo.ListPendingJobs(ctx)
	if err != nil {
		r.logger.Error("failed to list pending jobs", "error", err)
		return
	}
	if len(jobs) == 0 {
		return
	}

	job := jobs[0]
	r.logger.Info("processing job", "job_id", job.ID, "type", job.Type)
	r.repo.UpdateJobStatus(ctx, job.ID, JobStatusRunning, "")

	var execErr error
	switch job.Type {
	case JobTypeThumbnail:
		execErr = r.service.ExecuteThumbnail(ctx, job.ID, job.VideoID)
	default:
		handler, ok := r.handlers[job.Type]
		if !ok {
			r.logger.Warn("unknown job type", "type", job.Type)
			r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, "unknown job type")
			return
		}
		execErr = handler(ctx, job)
	}

	if execErr != nil {
		r.logger.Error("job failed", "job_id", job.ID, "type", job.Type, "error", execErr)
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, fmt.Sprintf("%v", execErr))
		return
	}

	r.repo.UpdateJobProgress(ctx, job.ID, 100, "")
	r.repo.UpdateJobStatus(ctx, job.ID, JobStatusCompleted, "")
	r.logger.Info("job completed", "job_id", job.ID, "type", job.Type)
}

func (r *Runner) ActiveJobCount(ctx context.Context) int {
	jobs, err := r.repo.ListJobs(ctx, 100)
	if err != nil {
		return 0
	}
	count := 0
	for _, j := range jobs {
		if j.Status == JobStatusRunning {
			count++
		}
	}
	return count
}
