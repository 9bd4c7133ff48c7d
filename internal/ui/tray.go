package ui

import (
	"context"
	"log/slog"
	"sync"

	"github.com/clipforge/clipforge-agent/internal/library"
	"github.com/clipforge/clipforge-agent/internal/record"
	"github.com/getlantern/systray"
)

type Tray struct {
	recorder *record.Service
	runner   *library.Runner
	logger   *slog.Logger

	statusItem *systray.MenuItem
	recordItem *systray.MenuItem
	pauseItem  *systray.MenuItem

	mu sync.Mutex

	onQuit func()
}

type TrayConfig struct {
	Recorder *record.Service
	Runner   *library.Runner
	Logger   *slog.Logger
	OnQuit   func()
}

func NewTray(cfg TrayConfig) *Tray {
	return &Tray{
		recorder: cfg.Recorder,
		runner:   cfg.Runner,
		logger:   cfg.Logger,
		onQuit:   cfg.OnQuit,
	}
}

func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

func (t *Tray) onReady() {
	systray.SetIcon(iconBytes)
	systray.SetTitle("ClipForge")
	systray.SetTooltip("ClipForge Agent")

	t.statusItem = systray.AddMenuItem("Status: Idle", "Current agent status")
	t.statusItem.Disable()

	systray.AddSeparator()

	t.recordItem = systray.AddMenuItem("Start Recording", "Start a screen recording")
	t.pauseItem = systray.AddMenuItem("Pause Jobs", "Pause background jobs")

	systray.AddSeparator()

	quitItem := systray.AddMenuItem("Quit", "Quit ClipForge Agent")

	if t.recorder != nil {
		t.recorder.Subscribe(t.onRecordEvent)
	}

	go func() {
		for {
			select {
			case <-t.recordItem.ClickedCh:
				t.toggleRecording()
			case <-t.pauseItem.ClickedCh:
				t.togglePause()
			case <-quitItem.ClickedCh:
				t.logger.Info("quit requested from tray")
				if t.onQuit != nil {
					t.onQuit()
				}
				systray.Quit()
				return
			}
		}
	}()

	t.logger.Info("system tray ready")
}

func (t *Tray) onExit() {
	t.logger.Info("system tray exiting")
}

func (t *Tray) onRecordEvent(ev record.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch ev.Type {
	case record.EventStarted:
		t.recordItem.SetTitle("Stop Recording")
		t.statusItem.SetTitle("Status: Recording")
	case record.EventStopped:
		t.recordItem.SetTitle("Start Recording")
		t.statusItem.SetTitle("Status: Idle")
	case record.EventError:
		t.recordItem.SetTitle("Start Recording")
		t.statusItem.SetTitle("Status: Recording Failed")
	}
}

func (t *Tray) toggleRecording() {
	if t.recorder == nil {
		return
	}

	if t.recorder.Recording() {
		if _, err := t.recorder.Stop(context.Background()); err != nil {
			t.logger.Error("failed to stop recording from tray", "error", err)
		}
		return
	}

	// defaults: full screen, no camera
	if _, err := t.recorder.Start(context.Background(), record.Options{}); err != nil {
		t.logger.Error("failed to start recording from tray", "error", err)
	}
}

func (t *Tray) togglePause() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.runner == nil {
		return
	}

	if t.runner.IsPaused() {
		t.runner.Resume()
		t.pauseItem.SetTitle("Pause Jobs")
		t.statusItem.SetTitle("Status: Idle")
	} else {
		t.runner.Pause()
		t.pauseItem.SetTitle("Resume Jobs")
		t.statusItem.SetTitle("Status: Paused")
	}
}

func (t *Tray) UpdateStatus(status string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.runner != nil && t.runner.IsPaused() {
		return
	}
	t.statusItem.SetTitle("Status: " + status)
}

func (t *Tray) Quit() {
	systray.Quit()
}
