package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
)

// RemoteError represents a failure from the remote transcription endpoint.
type RemoteError struct {
	StatusCode int
	Body       string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote transcription failed: HTTP %d: %s", e.StatusCode, e.Body)
}

// IsRetryable returns true for server errors (5xx). Client errors (4xx) are
// considered permanent.
func (e *RemoteError) IsRetryable() bool {
	return e.StatusCode >= 500
}

// RemoteClient sends audio to an HTTP transcription service. Used when a
// remote endpoint is configured and preferred over the local whisper install.
type RemoteClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewRemoteClient(baseURL, token string, logger *slog.Logger) *RemoteClient {
	return &RemoteClient{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 10 * time.Minute,
		},
		logger: logger,
	}
}

func (c *RemoteClient) Transcribe(ctx context.Context, videoPath string, onStage StageFunc) (*Transcript, error) {
	if onStage != nil {
		onStage(StageTranscribing)
	}

	data, err := os.ReadFile(videoPath)
	if err != nil {
		return nil, fmt.Errorf("cannot read media file: %w", err)
	}

	url := fmt.Sprintf("%s/api/transcribe", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("X-Clipforge-Request-Id", uuid.NewString())

	c.logger.Info("sending media to remote transcription",
		"url", url, "body_bytes", len(data))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 10<<20))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &RemoteError{StatusCode: resp.StatusCode, Body: string(respBody[:min(len(respBody), 4096)])}
	}

	if onStage != nil {
		onStage(StageFormatting)
	}

	var transcript Transcript
	if err := json.Unmarshal(respBody, &transcript); err != nil {
		return nil, fmt.Errorf("cannot parse remote response: %w", err)
	}
	transcript.CreatedAt = time.Now()

	if onStage != nil {
		onStage(StageComplete)
	}
	c.logger.Info("remote transcription succeeded", "segments", len(transcript.Segments))
	return &transcript, nil
}
