package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

const maxStderrBytes = 8 * 1024

// Config holds the whisper runner's configuration.
type Config struct {
	WhisperPath  string        // path to whisper binary; empty = auto-detect
	FFmpegPath   string        // used for the audio extraction step
	Model        string        // default "base"
	WorkDir      string        // scratch dir for extracted audio and JSON output
	AudioTimeout time.Duration // timeout for audio extraction
	RunTimeout   time.Duration // timeout for the whisper run
	Logger       *slog.Logger
}

// DefaultConfig returns production-ready defaults.
func DefaultConfig(dataDir string, logger *slog.Logger) Config {
	return Config{
		Model:        "base",
		WorkDir:      filepath.Join(dataDir, "transcripts"),
		AudioTimeout: 5 * time.Minute,
		RunTimeout:   30 * time.Minute,
		Logger:       logger,
	}
}

// WhisperRunner is the local subprocess implementation of Transcriber.
type WhisperRunner struct {
	cfg     Config
	whisper string
	ffmpeg  string
}

func NewWhisperRunner(cfg Config) (*WhisperRunner, error) {
	whisper, err := resolveBinary(cfg.WhisperPath, "whisper")
	if err != nil {
		return nil, fmt.Errorf("cannot locate whisper: %w", err)
	}
	ffmpeg, err := resolveBinary(cfg.FFmpegPath, "ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("cannot locate ffmpeg: %w", err)
	}
	if err := os.MkdirAll(cfg.WorkDir, 0755); err != nil {
		return nil, fmt.Errorf("cannot create transcript dir: %w", err)
	}

	cfg.Logger.Info("transcription runner initialised",
		"whisper", whisper, "model", cfg.Model, "work_dir", cfg.WorkDir)

	return &WhisperRunner{cfg: cfg, whisper: whisper, ffmpeg: ffmpeg}, nil
}

func (r *WhisperRunner) Transcribe(ctx context.Context, videoPath string, onStage StageFunc) (*Transcript, error) {
	stage := func(s string) {
		if onStage != nil {
			onStage(s)
		}
	}

	base := strings.TrimSuffix(filepath.Base(videoPath), filepath.Ext(videoPath))
	audioPath := filepath.Join(r.cfg.WorkDir, base+".wav")
	defer os.Remove(audioPath)

	stage(StageExtracting)
	if err := r.extractAudio(ctx, videoPath, audioPath); err != nil {
		return nil, fmt.Errorf("audio extraction failed: %w", err)
	}

	stage(StageTranscribing)
	if err := r.runWhisper(ctx, audioPath); err != nil {
		return nil, err
	}

	stage(StageFormatting)
	jsonPath := filepath.Join(r.cfg.WorkDir, base+".json")
	transcript, err := parseWhisperOutput(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("cannot parse whisper output: %w", err)
	}
	transcript.Model = r.cfg.Model
	transcript.CreatedAt = time.Now()

	stage(StageComplete)
	r.cfg.Logger.Info("transcription complete",
		"segments", len(transcript.Segments), "language", transcript.Language)
	return transcript, nil
}

// extractAudio writes 16 kHz mono PCM, the input format whisper expects.
func (r *WhisperRunner) extractAudio(ctx context.Context, videoPath, audioPath string) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.AudioTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.ffmpeg,
		"-y", "-hide_banner", "-loglevel", "error",
		"-i", videoPath,
		"-vn", "-acodec", "pcm_s16le", "-ar", "16000", "-ac", "1",
		audioPath,
	)
	return r.run(cmd, "extract audio")
}

func (r *WhisperRunner) runWhisper(ctx context.Context, audioPath string) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.RunTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.whisper,
		audioPath,
		"--model", r.cfg.Model,
		"--output_format", "json",
		"--output_dir", r.cfg.WorkDir,
	)
	return r.run(cmd, "whisper")
}

func (r *WhisperRunner) run(cmd *exec.Cmd, what string) error {
	var stderrBuf bytes.Buffer
	cmd.Stderr = &limitedWriter{w: &stderrBuf, limit: maxStderrBytes}
	cmd.Stdout = io.Discard

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	if err != nil {
		r.cfg.Logger.Warn("subprocess failed", "what", what,
			"duration_ms", elapsed.Milliseconds(),
			"stderr_tail", truncate(stderrBuf.String(), 512))
		return fmt.Errorf("%s exited with error: %w", what, err)
	}

	r.cfg.Logger.Info("subprocess succeeded", "what", what,
		"duration_ms", elapsed.Milliseconds())
	return nil
}

// whisperOutput is the JSON whisper writes alongside the audio.
type whisperOutput struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

func parseWhisperOutput(path string) (*Transcript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw whisperOutput
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	t := &Transcript{Language: raw.Language}
	for _, s := range raw.Segments {
		text := strings.TrimSpace(s.Text)
		if text == "" {
			continue
		}
		t.Segments = append(t.Segments, Segment{Start: s.Start, End: s.End, Text: text})
	}
	return t, nil
}

func resolveBinary(preferred, name string) (string, error) {
	if preferred != "" {
		if p, err := exec.LookPath(preferred); err == nil {
			return p, nil
		}
		return "", fmt.Errorf("configured %s %q not found", name, preferred)
	}
	p, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%s not found on PATH", name)
	}
	return p, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return "..." + s[len(s)-maxLen:]
}

// limitedWriter keeps only the last `limit` bytes written.
type limitedWriter struct {
	w     *bytes.Buffer
	limit int
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	n := len(p)
	lw.w.Write(p)
	if lw.w.Len() > lw.limit {
		b := lw.w.Bytes()
		lw.w.Reset()
		lw.w.Write(b[len(b)-lw.limit:])
	}
	return n, nil
}
