package project

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/clipforge/clipforge-agent/internal/timeline"
)

// Service manages project lifecycle and owns the live editing sessions. Each
// open project has exactly one timeline model; all mutations on it are
// serialized through Mutate, which persists the result before returning.
type Service struct {
	repo    Repository
	catalog timeline.Catalog
	opts    timeline.Options
	logger  *slog.Logger

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	mu    sync.Mutex
	model *timeline.Model
}

func NewService(repo Repository, catalog timeline.Catalog, opts timeline.Options, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		catalog:  catalog,
		opts:     opts,
		logger:   logger,
		sessions: make(map[string]*session),
	}
}

// Create makes a new project with an empty default timeline.
func (s *Service) Create(ctx context.Context, name string) (*Project, error) {
	if name == "" {
		name = "Untitled Project"
	}
	now := time.Now()
	p := &Project{
		ID:                timeline.NewID(),
		Name:              name,
		Timeline:          timeline.NewTimeline(),
		ExportSettings:    DefaultExportSettings(),
		RecordingDefaults: DefaultRecordingConfig(),
		CreatedAt:         now,
		ModifiedAt:        now,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info("project created", "project_id", p.ID, "name", name)
	return p, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Project, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, &timeline.NotFoundError{Kind: "project", ID: id}
	}
	return p, nil
}

func (s *Service) List(ctx context.Context) ([]*Project, error) {
	return s.repo.List(ctx)
}

func (s *Service) Rename(ctx context.Context, id, name string) error {
	if name == "" {
		return fmt.Errorf("project name is required")
	}
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.Rename(ctx, id, name)
}

// Delete removes the project and drops its live session if open.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()

	s.logger.Info("project deleted", "project_id", id)
	return nil
}

// UpdateExportSettings persists new render defaults for the project.
func (s *Service) UpdateExportSettings(ctx context.Context, id string, settings ExportSettings) error {
	p, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if settings.Width <= 0 || settings.Height <= 0 || settings.FrameRate <= 0 {
		return fmt.Errorf("export settings %dx%d@%v invalid", settings.Width, settings.Height, settings.FrameRate)
	}
	p.ExportSettings = settings
	p.ModifiedAt = time.Now()
	return s.repo.Update(ctx, p)
}

// Open loads the project into a live session, validating the stored timeline
// first. Re-opening returns the existing session's model.
func (s *Service) Open(ctx context.Context, id string) (*timeline.Model, error) {
	s.mu.Lock()
	if sess, ok := s.sessions[id]; ok {
		s.mu.Unlock()
		return sess.model, nil
	}
	s.mu.Unlock()

	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Timeline == nil {
		p.Timeline = timeline.NewTimeline()
	}
	if err := p.Timeline.Validate(); err != nil {
		return nil, fmt.Errorf("stored timeline failed validation: %w", err)
	}

	model := timeline.NewModel(p.Timeline, s.catalog, s.opts, s.logger)

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		return sess.model, nil
	}
	s.sessions[id] = &session{model: model}
	s.logger.Info("project opened", "project_id", id)
	return model, nil
}

// Close drops the live session without deleting the project. Pending changes
// are already persisted because every Mutate saves.
func (s *Service) Close(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// Mutate runs fn against the project's model under the session lock and saves
// the timeline afterwards. If fn fails, nothing is persisted; the model's own
// validate-then-apply semantics guarantee it is also unchanged.
func (s *Service) Mutate(ctx context.Context, id string, fn func(m *timeline.Model) error) error {
	if _, err := s.Open(ctx, id); err != nil {
		return err
	}

	s.mu.Lock()
	sess := s.sessions[id]
	s.mu.Unlock()
	if sess == nil {
		return &timeline.NotFoundError{Kind: "project", ID: id}
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := fn(sess.model); err != nil {
		return err
	}
	return s.save(ctx, id, sess.model)
}

// View runs fn read-only under the session lock.
func (s *Service) View(ctx context.Context, id string, fn func(m *timeline.Model) error) error {
	if _, err := s.Open(ctx, id); err != nil {
		return err
	}

	s.mu.Lock()
	sess := s.sessions[id]
	s.mu.Unlock()
	if sess == nil {
		return &timeline.NotFoundError{Kind: "project", ID: id}
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return fn(sess.model)
}

func (s *Service) save(ctx context.Context, id string, model *timeline.Model) error {
	p, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	p.Timeline = model.Timeline()
	p.ModifiedAt = time.Now()
	if err := s.repo.Update(ctx, p); err != nil {
		return fmt.Errorf("failed to persist timeline: %w", err)
	}
	return nil
}
