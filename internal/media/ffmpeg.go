package media

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

const maxStderrBytes = 8 * 1024 // tail of stderr kept for diagnostics

// FFmpegProcessor shells out to ffmpeg/ffprobe. It is the production
// implementation of Processor.
type FFmpegProcessor struct {
	ffmpegPath  string
	ffprobePath string
	logger      *slog.Logger
}

// NewFFmpegProcessor resolves the binaries, honouring explicit paths and
// falling back to PATH lookup.
func NewFFmpegProcessor(ffmpegPath, ffprobePath string, logger *slog.Logger) (*FFmpegProcessor, error) {
	ffmpeg, err := resolveBinary(ffmpegPath, "ffmpeg")
	if err != nil {
		return nil, err
	}
	ffprobe, err := resolveBinary(ffprobePath, "ffprobe")
	if err != nil {
		return nil, err
	}

	logger.Info("media processor initialised", "ffmpeg", ffmpeg, "ffprobe", ffprobe)
	return &FFmpegProcessor{ffmpegPath: ffmpeg, ffprobePath: ffprobe, logger: logger}, nil
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

// ffprobe JSON output structure
type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
		BitRate  string `json:"bit_rate"`
	} `json:"format"`
	Streams []struct {
		CodecType  string `json:"codec_type"`
		CodecName  string `json:"codec_name"`
		Width      int    `json:"width"`
		Height     int    `json:"height"`
		RFrameRate string `json:"r_frame_rate"`
		SampleRate string `json:"sample_rate"`
	} `json:"streams"`
}

func (p *FFmpegProcessor) Probe(ctx context.Context, filePath string) (*ProbeResult, error) {
	if filePath == "" {
		return nil, fmt.Errorf("file path is required")
	}

	cmd := exec.CommandContext(ctx, p.ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		filePath,
	)
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}

	var raw probeOutput
	if err := json.Unmarshal(output, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	return parseProbe(&raw), nil
}

func parseProbe(raw *probeOutput) *ProbeResult {
	result := &ProbeResult{}

	if dur, err := strconv.ParseFloat(raw.Format.Duration, 64); err == nil {
		result.Duration = dur
	}
	if br, err := strconv.ParseInt(raw.Format.BitRate, 10, 64); err == nil {
		result.Bitrate = br
	}

	for _, stream := range raw.Streams {
		switch stream.CodecType {
		case "video":
			result.Width = stream.Width
			result.Height = stream.Height
			result.Codec = stream.CodecName
			result.FrameRate = ParseFrameRate(stream.RFrameRate)
		case "audio":
			result.HasAudio = true
			result.AudioCodec = stream.CodecName
			if sr, err := strconv.Atoi(stream.SampleRate); err == nil {
				result.AudioSample = sr
			}
		}
	}
	return result
}

func (p *FFmpegProcessor) GenerateThumbnail(ctx context.Context, filePath, outputPath string, timeOffset float64, width int) error {
	if width <= 0 {
		width = 320
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("cannot create thumbnail dir: %w", err)
	}

	args := []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-ss", FormatTimestamp(timeOffset),
		"-i", filePath,
		"-frames:v", "1",
		"-vf", fmt.Sprintf("scale=%d:-2", width),
		outputPath,
	}
	return p.run(ctx, args, 0, nil)
}

func (p *FFmpegProcessor) Trim(ctx context.Context, inputPath, outputPath string, startTime, endTime float64) error {
	if endTime <= startTime {
		return fmt.Errorf("invalid trim range: end %.3f must be after start %.3f", endTime, startTime)
	}
	args := []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-ss", FormatTimestamp(startTime),
		"-t", FormatTimestamp(endTime - startTime),
		"-i", inputPath,
		"-c", "copy",
		outputPath,
	}
	return p.run(ctx, args, 0, nil)
}

func (p *FFmpegProcessor) Export(ctx context.Context, req ExportRequest, onProgress ProgressFunc) error {
	if len(req.Segments) == 0 {
		return fmt.Errorf("export request has no segments")
	}
	if err := os.MkdirAll(filepath.Dir(req.OutputPath), 0755); err != nil {
		return fmt.Errorf("cannot create export dir: %w", err)
	}

	args, total := buildExportArgs(req)

	if onProgress != nil {
		onProgress(Progress{Percent: 0, Message: "starting encode"})
	}
	if err := p.run(ctx, args, total, onProgress); err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	if onProgress != nil {
		onProgress(Progress{Percent: 100, Message: "encode complete"})
	}
	return nil
}

// buildExportArgs flattens the request into an ffmpeg invocation: trimmed
// segment inputs concatenated, then overlay inputs composited over the
// result. Returns the args and the total output duration for progress math.
func buildExportArgs(req ExportRequest) ([]string, float64) {
	args := []string{"-y", "-hide_banner", "-loglevel", "error", "-progress", "pipe:2"}

	var total float64
	for _, seg := range req.Segments {
		args = append(args,
			"-ss", FormatTimestamp(seg.TrimStart),
			"-t", FormatTimestamp(seg.TrimEnd-seg.TrimStart),
			"-i", seg.SourcePath,
		)
		total += seg.TrimEnd - seg.TrimStart
	}
	for _, ov := range req.Overlays {
		args = append(args, "-i", ov.SourcePath)
	}

	n := len(req.Segments)
	var filter strings.Builder
	videoLabel := "0:v"
	audioLabel := "0:a"

	if n > 1 {
		for i := 0; i < n; i++ {
			fmt.Fprintf(&filter, "[%d:v][%d:a]", i, i)
		}
		fmt.Fprintf(&filter, "concat=n=%d:v=1:a=1[cv][ca]", n)
		videoLabel = "cv"
		audioLabel = "ca"
	}

	for i, ov := range req.Overlays {
		if filter.Len() > 0 {
			filter.WriteString(";")
		}
		in := n + i
		scaled := fmt.Sprintf("ovs%d", i)
		out := fmt.Sprintf("ovd%d", i)
		fmt.Fprintf(&filter, "[%d:v]scale=%d:%d[%s];[%s][%s]overlay=%d:%d[%s]",
			in, ov.Width, ov.Height, scaled, videoLabel, scaled, ov.X, ov.Y, out)
		videoLabel = out
	}

	if filter.Len() > 0 {
		args = append(args, "-filter_complex", filter.String(),
			"-map", "["+videoLabel+"]")
		if audioLabel == "ca" {
			args = append(args, "-map", "[ca]")
		} else {
			args = append(args, "-map", audioLabel+"?")
		}
	}

	args = append(args, "-c:v", "libx264", "-preset", "medium", "-crf", "23", "-c:a", "aac")
	if req.FrameRate > 0 {
		args = append(args, "-r", strconv.FormatFloat(req.FrameRate, 'f', -1, 64))
	}
	if req.Width > 0 && req.Height > 0 && len(req.Overlays) == 0 && n == 1 {
		args = append(args, "-vf", fmt.Sprintf("scale=%d:%d", req.Width, req.Height))
	}
	args = append(args, req.OutputPath)
	return args, total
}

// run executes ffmpeg, streaming -progress output into onProgress when a
// total duration is known.
func (p *FFmpegProcessor) run(ctx context.Context, args []string, totalSeconds float64, onProgress ProgressFunc) error {
	cmd := exec.CommandContext(ctx, p.ffmpegPath, args...)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to open stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	var tail bytes.Buffer
	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		line := scanner.Text()
		if pct, ok := parseProgressLine(line, totalSeconds); ok {
			if onProgress != nil {
				onProgress(Progress{Percent: pct})
			}
			continue
		}
		tail.WriteString(line)
		tail.WriteString("\n")
		if tail.Len() > maxStderrBytes {
			b := tail.Bytes()
			tail.Reset()
			tail.Write(b[len(b)-maxStderrBytes:])
		}
	}

	if err := cmd.Wait(); err != nil {
		p.logger.Warn("ffmpeg failed", "error", err, "stderr_tail", truncate(tail.String(), 512))
		return fmt.Errorf("ffmpeg exited with error: %w", err)
	}
	return nil
}

// parseProgressLine reads one key=value line of ffmpeg -progress output and
// converts out_time_ms into a percentage of totalSeconds.
func parseProgressLine(line string, totalSeconds float64) (int, bool) {
	if totalSeconds <= 0 {
		return 0, false
	}
	val, found := strings.CutPrefix(line, "out_time_ms=")
	if !found {
		return 0, false
	}
	us, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
	if err != nil {
		return 0, false
	}
	// out_time_ms is microseconds despite the name
	pct := int(float64(us) / 1e6 / totalSeconds * 100)
	if pct > 100 {
		pct = 100
	}
	if pct < 0 {
		pct = 0
	}
	return pct, true
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return "..." + s[len(s)-maxLen:]
}
