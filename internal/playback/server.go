package playback

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/clipforge/clipforge-agent/internal/library"
)

// Server resolves a library video ID to its source file and streams it.
type Server struct {
	repo   library.Repository
	logger *slog.Logger
}

func NewServer(repo library.Repository, logger *slog.Logger) *Server {
	return &Server{repo: repo, logger: logger}
}

// ServeVideo streams the source file of a library video. Offline sources and
// unknown IDs produce 404.
func (s *Server) ServeVideo(w http.ResponseWriter, r *http.Request, videoID string) error {
	video, err := s.repo.GetVideo(context.Background(), videoID)
	if err != nil {
		return fmt.Errorf("failed to look up video: %w", err)
	}
	if video == nil || video.Missing {
		http.Error(w, "video not found", http.StatusNotFound)
		return nil
	}
	return s.ServeFile(w, r, video.FilePath)
}

// ServeFile streams any local file with byte-range support. Also used for
// thumbnails and finished exports.
func (s *Server) ServeFile(w http.ResponseWriter, r *http.Request, filePath string) error {
	file, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			http.Error(w, "file not found", http.StatusNotFound)
			return nil
		}
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat file: %w", err)
	}

	size := stat.Size()
	contentType := mime.TypeByExtension(filepath.Ext(filePath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Content-Type", contentType)

	parsedRange, err := ParseRange(r.Header.Get("Range"), size)

	if err == ErrUnsatisfiable {
		w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", size))
		http.Error(w, "Range Not Satisfiable", http.StatusRequestedRangeNotSatisfiable)
		return nil
	}
	if err != nil && err != ErrInvalidRange {
		return err
	}

	// an invalid Range header degrades to a full response
	if parsedRange == nil {
		w.Header().Set("Content-Length", fmt.Sprintf("%d", size))
		w.WriteHeader(http.StatusOK)
		io.Copy(w, file)
		return nil
	}

	w.Header().Set("Content-Length", fmt.Sprintf("%d", parsedRange.ContentLength()))
	w.Header().Set("Content-Range", parsedRange.ContentRange(size))
	w.WriteHeader(http.StatusPartialContent)

	if _, err := file.Seek(parsedRange.Start, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek: %w", err)
	}

	io.CopyN(w, file, parsedRange.ContentLength())
	return nil
}
