package transcribe

import (
	"log/slog"
	"os/exec"
	"sync"
	"time"
)

const defaultProbeTTL = 5 * time.Minute

// CachedProbe checks for the whisper and ffmpeg binaries and caches the
// answer, so transcription jobs don't stat the PATH every poll.
type CachedProbe struct {
	whisperPath string
	ffmpegPath  string
	ttl         time.Duration
	logger      *slog.Logger

	mu     sync.RWMutex
	cached *Capabilities
}

func NewCachedProbe(whisperPath, ffmpegPath string, logger *slog.Logger) *CachedProbe {
	return &CachedProbe{
		whisperPath: whisperPath,
		ffmpegPath:  ffmpegPath,
		ttl:         defaultProbeTTL,
		logger:      logger,
	}
}

// Get returns cached capabilities if fresh, otherwise re-probes.
func (p *CachedProbe) Get() *Capabilities {
	p.mu.RLock()
	if p.cached != nil && time.Since(p.cached.ProbedAt) < p.ttl {
		caps := p.cached
		p.mu.RUnlock()
		return caps
	}
	p.mu.RUnlock()

	return p.Refresh()
}

// Refresh forces a new probe regardless of cache freshness.
func (p *CachedProbe) Refresh() *Capabilities {
	p.mu.Lock()
	defer p.mu.Unlock()

	caps := &Capabilities{ProbedAt: time.Now()}
	if bin, err := lookPath(p.whisperPath, "whisper"); err == nil {
		caps.HasWhisper = true
		caps.WhisperBin = bin
	}
	if _, err := lookPath(p.ffmpegPath, "ffmpeg"); err == nil {
		caps.HasFFmpeg = true
	}

	p.logger.Info("transcription probe complete",
		"whisper", caps.HasWhisper, "ffmpeg", caps.HasFFmpeg)
	p.cached = caps
	return caps
}

// Invalidate clears the cached capabilities.
func (p *CachedProbe) Invalidate() {
	p.mu.Lock()
	p.cached = nil
	p.mu.Unlock()
}

func lookPath(preferred, name string) (string, error) {
	if preferred != "" {
		return exec.LookPath(preferred)
	}
	return exec.LookPath(name)
}
