package playback

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/clipforge/clipforge-agent/internal/db"
	"github.com/clipforge/clipforge-agent/internal/library"
	"github.com/clipforge/clipforge-agent/internal/timeline"
)

func setupServer(t *testing.T) (*Server, library.Repository) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	database, err := db.New(dbPath, nil)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	repo := library.NewRepository(database.Conn())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(repo, logger), repo
}

func seedVideo(t *testing.T, repo library.Repository, content []byte) *library.Video {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("write media: %v", err)
	}
	video := &library.Video{
		ID:        timeline.NewID(),
		FilePath:  path,
		Name:      "clip",
		Duration:  10,
		TrimEnd:   10,
		CreatedAt: time.Now(),
	}
	if err := repo.CreateVideo(context.Background(), video); err != nil {
		t.Fatalf("create video: %v", err)
	}
	return video
}

func TestServeVideo_FullFile(t *testing.T) {
	server, repo := setupServer(t)
	content := []byte("0123456789abcdef")
	video := seedVideo(t, repo, content)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/playback", nil)

	if err := server.ServeVideo(rec, req, video.ID); err != nil {
		t.Fatalf("ServeVideo() error = %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if got := rec.Body.String(); got != string(content) {
		t.Errorf("body = %q", got)
	}
	if rec.Header().Get("Accept-Ranges") != "bytes" {
		t.Error("missing Accept-Ranges header")
	}
	if rec.Header().Get("Content-Type") != "video/mp4" {
		t.Errorf("content type = %q, want video/mp4", rec.Header().Get("Content-Type"))
	}
}

func TestServeVideo_PartialRange(t *testing.T) {
	server, repo := setupServer(t)
	content := []byte("0123456789abcdef")
	video := seedVideo(t, repo, content)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/playback", nil)
	req.Header.Set("Range", "bytes=4-7")

	if err := server.ServeVideo(rec, req, video.ID); err != nil {
		t.Fatalf("ServeVideo() error = %v", err)
	}
	if rec.Code != http.StatusPartialContent {
		t.Errorf("status = %d, want 206", rec.Code)
	}
	if got := rec.Body.String(); got != "4567" {
		t.Errorf("body = %q, want 4567", got)
	}
	if got := rec.Header().Get("Content-Range"); got != "bytes 4-7/16" {
		t.Errorf("Content-Range = %q", got)
	}
}

func TestServeVideo_UnsatisfiableRange(t *testing.T) {
	server, repo := setupServer(t)
	video := seedVideo(t, repo, []byte("short"))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/playback", nil)
	req.Header.Set("Range", "bytes=100-")

	if err := server.ServeVideo(rec, req, video.ID); err != nil {
		t.Fatalf("ServeVideo() error = %v", err)
	}
	if rec.Code != http.StatusRequestedRangeNotSatisfiable {
		t.Errorf("status = %d, want 416", rec.Code)
	}
}

func TestServeVideo_InvalidRangeFallsBackToFull(t *testing.T) {
	server, repo := setupServer(t)
	content := []byte("0123456789")
	video := seedVideo(t, repo, content)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/playback", nil)
	req.Header.Set("Range", "chars=0-4")

	if err := server.ServeVideo(rec, req, video.ID); err != nil {
		t.Fatalf("ServeVideo() error = %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 for invalid range", rec.Code)
	}
	if rec.Body.Len() != len(content) {
		t.Errorf("body length = %d, want %d", rec.Body.Len(), len(content))
	}
}

func TestServeVideo_UnknownID(t *testing.T) {
	server, _ := setupServer(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/playback", nil)

	if err := server.ServeVideo(rec, req, "nope"); err != nil {
		t.Fatalf("ServeVideo() error = %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestServeVideo_OfflineSource(t *testing.T) {
	server, repo := setupServer(t)
	video := seedVideo(t, repo, []byte("data"))
	repo.UpdateVideoMissing(context.Background(), video.ID, true)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/playback", nil)

	if err := server.ServeVideo(rec, req, video.ID); err != nil {
		t.Fatalf("ServeVideo() error = %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 for offline source", rec.Code)
	}
}
