package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/clipforge/clipforge-agent/internal/library"
	"github.com/clipforge/clipforge-agent/internal/media"
	"github.com/clipforge/clipforge-agent/internal/project"
	"github.com/clipforge/clipforge-agent/internal/timeline"
)

const maxNameLen = 120

// Service turns export requests into background jobs and executes them. EDL
// generation is cheap and runs inline; video renders go through the job
// runner so the API can report progress.
type Service struct {
	projects  *project.Service
	videos    *library.Service
	repo      library.Repository
	catalog   timeline.Catalog
	processor media.Processor
	exportDir string
	logger    *slog.Logger
}

func NewService(projects *project.Service, videos *library.Service, repo library.Repository,
	catalog timeline.Catalog, processor media.Processor, exportDir string, logger *slog.Logger) *Service {
	return &Service{
		projects:  projects,
		videos:    videos,
		repo:      repo,
		catalog:   catalog,
		processor: processor,
		exportDir: exportDir,
		logger:    logger,
	}
}

// Export handles one request. EDL requests return the written file directly;
// video requests return a queued job ID.
func (s *Service) Export(ctx context.Context, req Request) (*Response, error) {
	p, err := s.projects.Get(ctx, req.ProjectID)
	if err != nil {
		return nil, err
	}

	outputDir := req.OutputDir
	if outputDir == "" {
		outputDir = s.exportDir
		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return nil, fmt.Errorf("cannot create export dir: %w", err)
		}
	}
	if err := ValidateOutputDir(outputDir); err != nil {
		return nil, err
	}

	format := strings.ToLower(req.Format)
	if format == "" {
		format = p.ExportSettings.Format
	}
	if format != "mp4" && format != "edl" {
		return nil, fmt.Errorf("unsupported export format %q", format)
	}

	name := req.FileName
	if name == "" {
		name = p.Name
	}
	name = SanitizeName(name, maxNameLen)
	if name == "" {
		name = "export"
	}
	outputPath := filepath.Join(outputDir, fmt.Sprintf("%s.%s", name, format))

	if format == "edl" {
		return s.exportEDL(ctx, p, outputPath)
	}
	return s.queueRender(ctx, p, outputPath)
}

func (s *Service) exportEDL(ctx context.Context, p *project.Project, outputPath string) (*Response, error) {
	var resolved []ResolvedClip
	err := s.projects.View(ctx, p.ID, func(m *timeline.Model) error {
		_, clips, err := Plan(m.Timeline(), s.catalog, PlanOptions{
			Width:     p.ExportSettings.Width,
			Height:    p.ExportSettings.Height,
			FrameRate: p.ExportSettings.FrameRate,
		})
		resolved = clips
		return err
	})
	if err != nil {
		return nil, err
	}

	doc := GenerateEDL(resolved, p.Name, p.ExportSettings.FrameRate)
	if err := os.WriteFile(outputPath, []byte(doc), 0644); err != nil {
		return nil, fmt.Errorf("failed to write EDL: %w", err)
	}

	s.logger.Info("EDL exported", "project_id", p.ID, "path", outputPath, "clips", len(resolved))
	return &Response{
		Status:     "completed",
		Format:     "edl",
		OutputPath: outputPath,
		ClipCount:  len(resolved),
	}, nil
}

func (s *Service) queueRender(ctx context.Context, p *project.Project, outputPath string) (*Response, error) {
	// plan now so an unexportable timeline fails at request time, not in the
	// background
	var clipCount int
	err := s.projects.View(ctx, p.ID, func(m *timeline.Model) error {
		req, _, err := Plan(m.Timeline(), s.catalog, PlanOptions{
			Width:     p.ExportSettings.Width,
			Height:    p.ExportSettings.Height,
			FrameRate: p.ExportSettings.FrameRate,
		})
		if err != nil {
			return err
		}
		clipCount = len(req.Segments)
		return nil
	})
	if err != nil {
		return nil, err
	}

	job, err := s.videos.QueueJob(ctx, &library.Job{
		Type:       library.JobTypeExport,
		ProjectID:  p.ID,
		OutputPath: outputPath,
	})
	if err != nil {
		return nil, err
	}

	return &Response{
		Status:     "queued",
		Format:     "mp4",
		OutputPath: outputPath,
		JobID:      job.ID,
		ClipCount:  clipCount,
	}, nil
}

// ExecuteJob renders a queued export. Registered with the job runner under
// library.JobTypeExport.
func (s *Service) ExecuteJob(ctx context.Context, job *library.Job) error {
	p, err := s.projects.Get(ctx, job.ProjectID)
	if err != nil {
		return err
	}

	var plan *media.ExportRequest
	err = s.projects.View(ctx, p.ID, func(m *timeline.Model) error {
		req, _, err := Plan(m.Timeline(), s.catalog, PlanOptions{
			Width:      p.ExportSettings.Width,
			Height:     p.ExportSettings.Height,
			FrameRate:  p.ExportSettings.FrameRate,
			OutputPath: job.OutputPath,
		})
		plan = req
		return err
	})
	if err != nil {
		return err
	}

	started := time.Now()
	err = s.processor.Export(ctx, *plan, func(prog media.Progress) {
		s.repo.UpdateJobProgress(ctx, job.ID, prog.Percent, prog.Message)
	})
	if err != nil {
		return err
	}

	s.logger.Info("render completed", "project_id", p.ID, "path", job.OutputPath,
		"duration", time.Since(started))
	return nil
}
