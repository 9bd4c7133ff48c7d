package record

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"sync"
)

// FFmpegCapturer records with ffmpeg device inputs. Separate-tracks mode runs
// one process per source; composited mode runs a single process with an
// overlay filter.
type FFmpegCapturer struct {
	ffmpegPath string
	logger     *slog.Logger

	mu   sync.Mutex
	cmds []*exec.Cmd
}

func NewFFmpegCapturer(ffmpegPath string, logger *slog.Logger) *FFmpegCapturer {
	return &FFmpegCapturer{ffmpegPath: ffmpegPath, logger: logger}
}

func (c *FFmpegCapturer) Start(ctx context.Context, spec CaptureSpec) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.cmds) > 0 {
		return fmt.Errorf("capturer already started")
	}

	argSets, err := buildCaptureArgs(spec)
	if err != nil {
		return err
	}

	for _, args := range argSets {
		cmd := exec.CommandContext(ctx, c.ffmpegPath, args...)
		if err := cmd.Start(); err != nil {
			c.stopLocked()
			return fmt.Errorf("failed to start capture process: %w", err)
		}
		c.logger.Info("capture process started", "pid", cmd.Process.Pid)
		c.cmds = append(c.cmds, cmd)
	}
	return nil
}

// Stop interrupts the processes so ffmpeg finalizes its containers, then
// waits for exit.
func (c *FFmpegCapturer) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopLocked()
}

func (c *FFmpegCapturer) stopLocked() error {
	var firstErr error
	for _, cmd := range c.cmds {
		if cmd.Process != nil {
			cmd.Process.Signal(os.Interrupt)
		}
	}
	for _, cmd := range c.cmds {
		if err := cmd.Wait(); err != nil && firstErr == nil {
			// interrupt exits non-zero on some builds even after a clean flush
			if _, ok := err.(*exec.ExitError); !ok {
				firstErr = err
			}
		}
	}
	c.cmds = nil
	return firstErr
}

// buildCaptureArgs returns one arg set per ffmpeg process.
func buildCaptureArgs(spec CaptureSpec) ([][]string, error) {
	screenIn, cameraIn, err := deviceInputs(spec)
	if err != nil {
		return nil, err
	}

	encode := []string{"-c:v", "libx264", "-preset", "ultrafast", "-pix_fmt", "yuv420p"}

	// separate files per source
	if spec.SecondaryPath != "" {
		screen := append(append([]string{"-y"}, screenIn...), encode...)
		screen = append(screen, spec.PrimaryPath)
		camera := append(append([]string{"-y"}, cameraIn...), encode...)
		camera = append(camera, spec.SecondaryPath)
		return [][]string{screen, camera}, nil
	}

	// screen only
	if spec.BurnIn == nil || spec.CameraSource == "" {
		args := append(append([]string{"-y"}, screenIn...), encode...)
		args = append(args, spec.PrimaryPath)
		return [][]string{args}, nil
	}

	// composited: camera scaled and overlaid onto the screen stream
	r := spec.BurnIn
	filter := fmt.Sprintf("[1:v]scale=%d:%d[cam];[0:v][cam]overlay=%d:%d[out]",
		r.Width, r.Height, r.X, r.Y)
	args := append([]string{"-y"}, screenIn...)
	args = append(args, cameraIn...)
	args = append(args, "-filter_complex", filter, "-map", "[out]")
	args = append(args, encode...)
	args = append(args, spec.PrimaryPath)
	return [][]string{args}, nil
}

func deviceInputs(spec CaptureSpec) (screen, camera []string, err error) {
	fps := strconv.FormatFloat(spec.FrameRate, 'f', -1, 64)
	size := fmt.Sprintf("%dx%d", spec.Width, spec.Height)

	switch runtime.GOOS {
	case "linux":
		screenSrc := spec.ScreenSource
		if screenSrc == "" {
			screenSrc = ":0.0"
		}
		screen = []string{"-f", "x11grab", "-framerate", fps, "-video_size", size, "-i", screenSrc}
		if spec.CameraSource != "" {
			camera = []string{"-f", "v4l2", "-framerate", fps, "-i", spec.CameraSource}
		}
	case "darwin":
		screenSrc := spec.ScreenSource
		if screenSrc == "" {
			screenSrc = "1:none"
		}
		screen = []string{"-f", "avfoundation", "-framerate", fps, "-i", screenSrc}
		if spec.CameraSource != "" {
			camera = []string{"-f", "avfoundation", "-framerate", fps, "-i", spec.CameraSource}
		}
	case "windows":
		screen = []string{"-f", "gdigrab", "-framerate", fps, "-i", "desktop"}
		if spec.CameraSource != "" {
			camera = []string{"-f", "dshow", "-i", "video=" + spec.CameraSource}
		}
	default:
		return nil, nil, fmt.Errorf("screen capture not supported on %s", runtime.GOOS)
	}
	return screen, camera, nil
}
