package library

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/clipforge/clipforge-agent/internal/db"
	"github.com/clipforge/clipforge-agent/internal/media"
	"github.com/clipforge/clipforge-agent/internal/timeline"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupTestDB(t *testing.T) (*db.DB, Repository) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	database, err := db.New(dbPath, nil)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	return database, NewRepository(database.Conn())
}

// fakeProcessor returns canned probe results and records thumbnail calls.
type fakeProcessor struct {
	probe      *media.ProbeResult
	probeErr   error
	thumbCalls int
}

func (f *fakeProcessor) Probe(ctx context.Context, filePath string) (*media.ProbeResult, error) {
	if f.probeErr != nil {
		return nil, f.probeErr
	}
	return f.probe, nil
}

func (f *fakeProcessor) GenerateThumbnail(ctx context.Context, filePath, outputPath string, timeOffset float64, width int) error {
	f.thumbCalls++
	return nil
}

func (f *fakeProcessor) Trim(ctx context.Context, inputPath, outputPath string, startTime, endTime float64) error {
	return nil
}

func (f *fakeProcessor) Export(ctx context.Context, req media.ExportRequest, onProgress media.ProgressFunc) error {
	return nil
}

func writeTestVideo(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("fake video content"), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	return path
}

func newTestService(t *testing.T, proc media.Processor) (*Service, Repository, func()) {
	t.Helper()
	database, repo := setupTestDB(t)
	svc := NewService(repo, proc, t.TempDir(), discardLogger())
	return svc, repo, func() { database.Close() }
}

func TestService_ImportVideo(t *testing.T) {
	proc := &fakeProcessor{probe: &media.ProbeResult{Duration: 12.5, Width: 1920, Height: 1080, FrameRate: 30}}
	svc, _, cleanup := newTestService(t, proc)
	defer cleanup()

	path := writeTestVideo(t, "clip.mp4")
	video, err := svc.ImportVideo(context.Background(), path)
	if err != nil {
		t.Fatalf("ImportVideo() error = %v", err)
	}

	if video.ID == "" {
		t.Error("video.ID is empty")
	}
	if video.Name != "clip" {
		t.Errorf("video.Name = %q, want clip", video.Name)
	}
	if video.Duration != 12.5 {
		t.Errorf("video.Duration = %v, want 12.5", video.Duration)
	}
	if video.TrimStart != 0 || video.TrimEnd != 12.5 {
		t.Errorf("trim = [%v, %v], want [0, 12.5]", video.TrimStart, video.TrimEnd)
	}

	// import also queues a thumbnail job
	jobs, err := svc.Jobs(context.Background(), 10)
	if err != nil {
		t.Fatalf("Jobs() error = %v", err)
	}
	if len(jobs) != 1 || jobs[0].Type != JobTypeThumbnail {
		t.Errorf("expected one thumbnail job, got %+v", jobs)
	}
}

func TestService_ImportVideo_Duplicate(t *testing.T) {
	proc := &fakeProcessor{probe: &media.ProbeResult{Duration: 5}}
	svc, _, cleanup := newTestService(t, proc)
	defer cleanup()

	path := writeTestVideo(t, "clip.mp4")
	ctx := context.Background()

	first, err := svc.ImportVideo(ctx, path)
	if err != nil {
		t.Fatalf("first import: %v", err)
	}
	second, err := svc.ImportVideo(ctx, path)
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("re-import created a new record: %s != %s", first.ID, second.ID)
	}
}

func TestService_ImportVideo_Errors(t *testing.T) {
	t.Run("nonexistent file", func(t *testing.T) {
		svc, _, cleanup := newTestService(t, &fakeProcessor{probe: &media.ProbeResult{Duration: 5}})
		defer cleanup()
		if _, err := svc.ImportVideo(context.Background(), "/nonexistent/clip.mp4"); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("unsupported extension", func(t *testing.T) {
		svc, _, cleanup := newTestService(t, &fakeProcessor{probe: &media.ProbeResult{Duration: 5}})
		defer cleanup()
		path := writeTestVideo(t, "notes.txt")
		if _, err := svc.ImportVideo(context.Background(), path); err == nil {
			t.Error("expected error for non-video extension")
		}
	})

	t.Run("probe failure", func(t *testing.T) {
		svc, _, cleanup := newTestService(t, &fakeProcessor{probeErr: errors.New("corrupt")})
		defer cleanup()
		path := writeTestVideo(t, "clip.mp4")
		if _, err := svc.ImportVideo(context.Background(), path); err == nil {
			t.Error("expected probe error to surface")
		}
	})

	t.Run("zero duration", func(t *testing.T) {
		svc, _, cleanup := newTestService(t, &fakeProcessor{probe: &media.ProbeResult{Duration: 0}})
		defer cleanup()
		path := writeTestVideo(t, "clip.mp4")
		if _, err := svc.ImportVideo(context.Background(), path); err == nil {
			t.Error("expected error for zero-duration file")
		}
	})
}

func TestService_ImportBatch_ContinuesPastFailures(t *testing.T) {
	proc := &fakeProcessor{probe: &media.ProbeResult{Duration: 5}}
	svc, _, cleanup := newTestService(t, proc)
	defer cleanup()

	good := writeTestVideo(t, "good.mp4")
	result := svc.ImportBatch(context.Background(), []string{good, "/nope/bad.mp4"})

	if len(result.Imported) != 1 {
		t.Errorf("Imported = %d, want 1", len(result.Imported))
	}
	if len(result.Failed) != 1 {
		t.Fatalf("Failed = %d, want 1", len(result.Failed))
	}
	if result.Failed[0].FilePath != "/nope/bad.mp4" {
		t.Errorf("Failed path = %q", result.Failed[0].FilePath)
	}
}

func TestService_SetTrim(t *testing.T) {
	proc := &fakeProcessor{probe: &media.ProbeResult{Duration: 10}}
	svc, _, cleanup := newTestService(t, proc)
	defer cleanup()
	ctx := context.Background()

	video, err := svc.ImportVideo(ctx, writeTestVideo(t, "clip.mp4"))
	if err != nil {
		t.Fatalf("import: %v", err)
	}

	if err := svc.SetTrim(ctx, video.ID, 2, 8); err != nil {
		t.Fatalf("SetTrim() error = %v", err)
	}
	got, _ := svc.Video(ctx, video.ID)
	if got.TrimStart != 2 || got.TrimEnd != 8 {
		t.Errorf("trim = [%v, %v], want [2, 8]", got.TrimStart, got.TrimEnd)
	}

	var trimErr *timeline.InvalidTrimError
	err = svc.SetTrim(ctx, video.ID, 5, 15)
	if !errors.As(err, &trimErr) {
		t.Errorf("out-of-range trim: got %v, want InvalidTrimError", err)
	}
	err = svc.SetTrim(ctx, video.ID, 6, 6)
	if !errors.As(err, &trimErr) {
		t.Errorf("empty trim: got %v, want InvalidTrimError", err)
	}
}

func TestService_RemoveVideo(t *testing.T) {
	proc := &fakeProcessor{probe: &media.ProbeResult{Duration: 10}}
	svc, _, cleanup := newTestService(t, proc)
	defer cleanup()
	ctx := context.Background()

	video, err := svc.ImportVideo(ctx, writeTestVideo(t, "clip.mp4"))
	if err != nil {
		t.Fatalf("import: %v", err)
	}

	if err := svc.RemoveVideo(ctx, video.ID); err != nil {
		t.Fatalf("RemoveVideo() error = %v", err)
	}
	got, _ := svc.Video(ctx, video.ID)
	if got != nil {
		t.Error("video still present after removal")
	}

	var nf *timeline.NotFoundError
	if err := svc.RemoveVideo(ctx, "missing-id"); !errors.As(err, &nf) {
		t.Errorf("removing unknown id: got %v, want NotFoundError", err)
	}
}

func TestService_MarkMissingPresent(t *testing.T) {
	proc := &fakeProcessor{probe: &media.ProbeResult{Duration: 10}}
	svc, _, cleanup := newTestService(t, proc)
	defer cleanup()
	ctx := context.Background()

	video, _ := svc.ImportVideo(ctx, writeTestVideo(t, "clip.mp4"))

	if err := svc.MarkMissing(ctx, video.ID); err != nil {
		t.Fatalf("MarkMissing() error = %v", err)
	}
	got, _ := svc.Video(ctx, video.ID)
	if !got.Missing {
		t.Error("video not marked missing")
	}

	if err := svc.MarkPresent(ctx, video.ID); err != nil {
		t.Fatalf("MarkPresent() error = %v", err)
	}
	got, _ = svc.Video(ctx, video.ID)
	if got.Missing {
		t.Error("video still marked missing")
	}
}

func TestCatalog_Source(t *testing.T) {
	proc := &fakeProcessor{probe: &media.ProbeResult{Duration: 10, Width: 1920, Height: 1080}}
	svc, repo, cleanup := newTestService(t, proc)
	defer cleanup()

	video, _ := svc.ImportVideo(context.Background(), writeTestVideo(t, "clip.mp4"))

	catalog := NewCatalog(repo)
	src, ok := catalog.Source(video.ID)
	if !ok {
		t.Fatal("Source() not found for imported video")
	}
	if src.Duration != 10 || src.Width != 1920 {
		t.Errorf("source = %+v", src)
	}
	if src.UsableDuration() != 10 {
		t.Errorf("UsableDuration() = %v, want 10", src.UsableDuration())
	}

	if _, ok := catalog.Source("deleted-id"); ok {
		t.Error("Source() should miss for unknown id")
	}
}

func TestIsVideoFile(t *testing.T) {
	tests := []struct {
		filename string
		want     bool
	}{
		{"video.mp4", true},
		{"video.MP4", true},
		{"video.mov", true},
		{"video.webm", true},
		{"document.pdf", false},
		{"noextension", false},
	}
	for _, tt := range tests {
		if got := IsVideoFile(tt.filename); got != tt.want {
			t.Errorf("IsVideoFile(%s) = %v, want %v", tt.filename, got, tt.want)
		}
	}
}
