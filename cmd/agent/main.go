package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/clipforge/clipforge-agent/internal/api"
	"github.com/clipforge/clipforge-agent/internal/config"
	"github.com/clipforge/clipforge-agent/internal/db"
	"github.com/clipforge/clipforge-agent/internal/export"
	"github.com/clipforge/clipforge-agent/internal/library"
	"github.com/clipforge/clipforge-agent/internal/logging"
	"github.com/clipforge/clipforge-agent/internal/media"
	"github.com/clipforge/clipforge-agent/internal/playback"
	"github.com/clipforge/clipforge-agent/internal/project"
	"github.com/clipforge/clipforge-agent/internal/record"
	"github.com/clipforge/clipforge-agent/internal/timeline"
	"github.com/clipforge/clipforge-agent/internal/transcribe"
	"github.com/clipforge/clipforge-agent/internal/ui"
	"github.com/clipforge/clipforge-agent/internal/watcher"
)

var Version = "0.1.0"

func main() {
	if err := run(); err != nil {
		log.Fatalf("fatal error: %v", err)
	}
}

func run() error {
	startTime := time.Now()

	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	for _, dir := range []string{cfg.DataDir(), cfg.ThumbnailDir(), cfg.RecordingDir(), cfg.ExportDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	logger := logging.NewLogger(cfg.LogLevel())
	logger.Info("starting clipforge agent", "version", Version, "data_dir", cfg.DataDir())

	database, err := db.New(cfg.DBPath(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	repo := library.NewRepository(database.Conn())

	authToken, err := ensureAuthToken(repo)
	if err != nil {
		return fmt.Errorf("failed to ensure auth token: %w", err)
	}

	fmt.Println()
	fmt.Println("╔═══════════════════════════════════════════════════════════╗")
	fmt.Println("║                   CLIPFORGE AGENT v0.1.0                  ║")
	fmt.Println("╠═══════════════════════════════════════════════════════════╣")
	fmt.Printf("║  API URL:    http://127.0.0.1:%-27d ║\n", cfg.Port())
	fmt.Printf("║  Auth Token: %-45s ║\n", authToken)
	fmt.Println("╚═══════════════════════════════════════════════════════════╝")
	fmt.Println()

	var processor media.Processor
	if p, err := media.NewFFmpegProcessor(cfg.FFmpegPath(), cfg.FFprobePath(), logger); err != nil {
		logger.Warn("ffmpeg unavailable, media operations stubbed", "error", err)
		processor = media.NewStubProcessor(logger)
	} else {
		processor = p
	}

	videos := library.NewService(repo, processor, cfg.ThumbnailDir(), logger)
	catalog := library.NewCatalog(repo)

	projects := project.NewService(project.NewRepository(database.Conn()), catalog, timeline.Options{
		ZoomMin:         cfg.ZoomMin(),
		ZoomMax:         cfg.ZoomMax(),
		SnapTolerancePx: cfg.SnapTolerancePx(),
	}, logger)

	exports := export.NewService(projects, videos, repo, catalog, processor, cfg.ExportDir(), logger)

	transcripts, err := buildTranscripts(cfg, videos, repo, logger)
	if err != nil {
		return err
	}

	runner := library.NewRunner(videos, repo, logger)
	runner.RegisterHandler(library.JobTypeExport, exports.ExecuteJob)
	runner.RegisterHandler(library.JobTypeTranscribe, transcripts.ExecuteJob)

	recorder := record.NewService(newCapturerFactory(cfg, logger), processor, cfg.RecordingDir(), logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go runner.Start(ctx)

	fileWatcher := watcher.New(videos, logger)
	go fileWatcher.Start(ctx)

	apiServer := api.NewServer(api.ServerConfig{
		Port:        cfg.Port(),
		Videos:      videos,
		Projects:    projects,
		Exports:     exports,
		Recorder:    recorder,
		Transcripts: transcripts,
		Repository:  repo,
		Runner:      runner,
		Playback:    playback.NewServer(repo, logger),
		Logger:      logger,
		StartTime:   startTime,
	})

	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	quitCh := make(chan struct{})

	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received shutdown signal", "signal", sig)
			close(quitCh)
		case <-quitCh:
		}
	}()

	if cfg.Headless() {
		logger.Info("running in headless mode (no system tray)")
	} else {
		tray := ui.NewTray(ui.TrayConfig{
			Recorder: recorder,
			Runner:   runner,
			Logger:   logger,
			OnQuit: func() {
				close(quitCh)
			},
		})
		go tray.Run()
	}

	<-quitCh

	logger.Info("initiating graceful shutdown")

	if recorder.Recording() {
		if _, err := recorder.Stop(context.Background()); err != nil {
			logger.Error("failed to stop active recording", "error", err)
		}
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}

// buildTranscripts picks the remote transcription client when one is
// configured, otherwise the local whisper runner, otherwise a stub.
func buildTranscripts(cfg config.Config, videos *library.Service, repo library.Repository,
	logger *slog.Logger) (*transcribe.Service, error) {
	outDir := filepath.Join(cfg.DataDir(), "transcripts")

	if cfg.TranscribeRemoteURL() != "" {
		client := transcribe.NewRemoteClient(cfg.TranscribeRemoteURL(), cfg.TranscribeRemoteToken(), logger)
		logger.Info("remote transcription enabled", "base_url", cfg.TranscribeRemoteURL())
		return transcribe.NewService(client, nil, videos, repo, outDir, logger), nil
	}

	probe := transcribe.NewCachedProbe(cfg.WhisperPath(), cfg.FFmpegPath(), logger)

	wcfg := transcribe.DefaultConfig(cfg.DataDir(), logger)
	wcfg.WhisperPath = cfg.WhisperPath()
	wcfg.FFmpegPath = cfg.FFmpegPath()

	runner, err := transcribe.NewWhisperRunner(wcfg)
	if err != nil {
		logger.Warn("whisper unavailable, transcription stubbed", "error", err)
		return transcribe.NewService(transcribe.NewStubTranscriber(logger), probe, videos, repo, outDir, logger), nil
	}
	return transcribe.NewService(runner, probe, videos, repo, outDir, logger), nil
}

// newCapturerFactory returns real ffmpeg capture when the binary resolves,
// otherwise stub capture that writes placeholder files.
func newCapturerFactory(cfg config.Config, logger *slog.Logger) record.CapturerFactory {
	ffmpegPath := cfg.FFmpegPath()
	if ffmpegPath == "" {
		if found, err := exec.LookPath("ffmpeg"); err == nil {
			ffmpegPath = found
		}
	}

	if ffmpegPath == "" {
		logger.Warn("ffmpeg unavailable, recording stubbed")
		return func() record.Capturer {
			return record.NewStubCapturer(logger)
		}
	}

	return func() record.Capturer {
		return record.NewFFmpegCapturer(ffmpegPath, logger)
	}
}

func ensureAuthToken(repo library.Repository) (string, error) {
	ctx := context.Background()

	existing, err := repo.GetConfig(ctx, "auth_token")
	if err == nil && existing != "" {
		return existing, nil
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	token := hex.EncodeToString(tokenBytes)

	if err := repo.SetConfig(ctx, "auth_token", token); err != nil {
		return "", err
	}

	return token, nil
}
