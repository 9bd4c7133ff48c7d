// Package config provides configuration management for the ClipForge Agent.
// Configuration is loaded from environment variables with sensible defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	// Default values
	DefaultPort     = 8791
	DefaultLogLevel = "info"
	DefaultDataDir  = ".clipforge"

	// Environment variable names
	EnvPort     = "CLIPFORGE_PORT"
	EnvLogLevel = "CLIPFORGE_LOG_LEVEL"
	EnvDataDir  = "CLIPFORGE_DATA_DIR"

	EnvHeadless = "CLIPFORGE_HEADLESS"

	EnvFFmpegPath  = "CLIPFORGE_FFMPEG_PATH"
	EnvFFprobePath = "CLIPFORGE_FFPROBE_PATH"
	EnvWhisperPath = "CLIPFORGE_WHISPER_PATH"

	EnvZoomMin          = "CLIPFORGE_ZOOM_MIN"
	EnvZoomMax          = "CLIPFORGE_ZOOM_MAX"
	EnvSnapTolerancePx  = "CLIPFORGE_SNAP_TOLERANCE_PX"
	EnvTranscribeRemote = "CLIPFORGE_TRANSCRIBE_URL"
	EnvTranscribeToken  = "CLIPFORGE_TRANSCRIBE_TOKEN"

	// Database filename
	DBFilename = "clipforge.db"

	// Editor defaults
	DefaultZoomMin         = 0.1
	DefaultZoomMax         = 10.0
	DefaultSnapTolerancePx = 10.0

	// Collaborator timeouts
	DefaultExportTimeout     = 60 * time.Minute
	DefaultTranscribeTimeout = 30 * time.Minute
	DefaultProbeTimeout      = 30 * time.Second
)

// Config defines the application configuration interface
type Config interface {
	Port() int
	LogLevel() string
	Headless() bool
	DataDir() string
	DBPath() string
	ThumbnailDir() string
	RecordingDir() string
	ExportDir() string

	FFmpegPath() string
	FFprobePath() string
	WhisperPath() string

	ZoomMin() float64
	ZoomMax() float64
	SnapTolerancePx() float64

	TranscribeRemoteURL() string
	TranscribeRemoteToken() string

	ExportTimeout() time.Duration
	TranscribeTimeout() time.Duration
	ProbeTimeout() time.Duration
}

// EnvConfig reads configuration from environment variables
type EnvConfig struct {
	port     int
	logLevel string
	headless bool
	dataDir  string

	ffmpegPath  string
	ffprobePath string
	whisperPath string

	zoomMin         float64
	zoomMax         float64
	snapTolerancePx float64

	transcribeURL   string
	transcribeToken string
}

// New creates a new EnvConfig with defaults and environment variable overrides
func New() (*EnvConfig, error) {
	cfg := &EnvConfig{
		port:            DefaultPort,
		logLevel:        DefaultLogLevel,
		dataDir:         defaultDataDir(),
		zoomMin:         DefaultZoomMin,
		zoomMax:         DefaultZoomMax,
		snapTolerancePx: DefaultSnapTolerancePx,
	}

	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		if port < 1 || port > 65535 {
			return nil, fmt.Errorf("invalid %s: port must be between 1 and 65535", EnvPort)
		}
		cfg.port = port
	}

	if ll := os.Getenv(EnvLogLevel); ll != "" {
		cfg.logLevel = ll
	}

	if dd := os.Getenv(EnvDataDir); dd != "" {
		cfg.dataDir = dd
	}

	if h := os.Getenv(EnvHeadless); h != "" {
		cfg.headless = h == "1" || h == "true"
	}

	cfg.ffmpegPath = os.Getenv(EnvFFmpegPath)
	cfg.ffprobePath = os.Getenv(EnvFFprobePath)
	cfg.whisperPath = os.Getenv(EnvWhisperPath)
	cfg.transcribeURL = os.Getenv(EnvTranscribeRemote)
	cfg.transcribeToken = os.Getenv(EnvTranscribeToken)

	if zm := os.Getenv(EnvZoomMin); zm != "" {
		v, err := strconv.ParseFloat(zm, 64)
		if err != nil || v <= 0 {
			return nil, fmt.Errorf("invalid %s: must be a positive number", EnvZoomMin)
		}
		cfg.zoomMin = v
	}

	if zm := os.Getenv(EnvZoomMax); zm != "" {
		v, err := strconv.ParseFloat(zm, 64)
		if err != nil || v <= 0 {
			return nil, fmt.Errorf("invalid %s: must be a positive number", EnvZoomMax)
		}
		cfg.zoomMax = v
	}

	if cfg.zoomMin >= cfg.zoomMax {
		return nil, fmt.Errorf("zoom bounds invalid: min %.3f must be below max %.3f", cfg.zoomMin, cfg.zoomMax)
	}

	if st := os.Getenv(EnvSnapTolerancePx); st != "" {
		v, err := strconv.ParseFloat(st, 64)
		if err != nil || v < 0 {
			return nil, fmt.Errorf("invalid %s: must be a non-negative number", EnvSnapTolerancePx)
		}
		cfg.snapTolerancePx = v
	}

	return cfg, nil
}

// Port returns the HTTP server port
func (c *EnvConfig) Port() int {
	return c.port
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

// Headless reports whether the system tray should be skipped
func (c *EnvConfig) Headless() bool {
	return c.headless
}

// DataDir returns the data directory path
func (c *EnvConfig) DataDir() string {
	return c.dataDir
}

// DBPath returns the full path to the SQLite database file
func (c *EnvConfig) DBPath() string {
	return filepath.Join(c.dataDir, DBFilename)
}

// ThumbnailDir returns the directory for generated clip thumbnails
func (c *EnvConfig) ThumbnailDir() string {
	return filepath.Join(c.dataDir, "thumbnails")
}

// RecordingDir returns the directory for captured recordings
func (c *EnvConfig) RecordingDir() string {
	return filepath.Join(c.dataDir, "recordings")
}

// ExportDir returns the default directory for exported files
func (c *EnvConfig) ExportDir() string {
	return filepath.Join(c.dataDir, "exports")
}

func (c *EnvConfig) FFmpegPath() string {
	return c.ffmpegPath
}

func (c *EnvConfig) FFprobePath() string {
	return c.ffprobePath
}

func (c *EnvConfig) WhisperPath() string {
	return c.whisperPath
}

// ZoomMin returns the lowest zoom level the editor may set
func (c *EnvConfig) ZoomMin() float64 {
	return c.zoomMin
}

// ZoomMax returns the highest zoom level the editor may set
func (c *EnvConfig) ZoomMax() float64 {
	return c.zoomMax
}

// SnapTolerancePx returns the snap window in ruler pixels
func (c *EnvConfig) SnapTolerancePx() float64 {
	return c.snapTolerancePx
}

func (c *EnvConfig) TranscribeRemoteURL() string {
	return c.transcribeURL
}

func (c *EnvConfig) TranscribeRemoteToken() string {
	return c.transcribeToken
}

func (c *EnvConfig) ExportTimeout() time.Duration {
	return DefaultExportTimeout
}

func (c *EnvConfig) TranscribeTimeout() time.Duration {
	return DefaultTranscribeTimeout
}

func (c *EnvConfig) ProbeTimeout() time.Duration {
	return DefaultProbeTimeout
}

// defaultDataDir returns the default data directory path
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home is not available
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
