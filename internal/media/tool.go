package media

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Tool is the narrow surface the pipeline needs from a media toolchain. It
// exists so the orchestrator can be exercised with a fake that never touches
// a real binary.
type Tool interface {
	// Run invokes the transcoder with the given argument vector.
	Run(ctx context.Context, args []string) error
	// ProbeDuration returns a media file's duration in seconds.
	ProbeDuration(ctx context.Context, path string) (float64, error)
}

// ToolError reports a non-zero exit (or a missing binary) together with the
// tool's captured diagnostic output.
type ToolError struct {
	Op     string
	Output string
	Err    error
}

func (e *ToolError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("media tool %s: %v: %s", e.Op, e.Err, e.Output)
	}
	return fmt.Sprintf("media tool %s: %v", e.Op, e.Err)
}

func (e *ToolError) Unwrap() error { return e.Err }

// FFmpeg shells out to ffmpeg/ffprobe binaries.
type FFmpeg struct {
	ffmpeg  string
	ffprobe string
}

func NewFFmpeg(ffmpegPath, ffprobePath string) *FFmpeg {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &FFmpeg{ffmpeg: ffmpegPath, ffprobe: ffprobePath}
}

// Check verifies both binaries are resolvable before any run starts.
func (f *FFmpeg) Check() error {
	if _, err := exec.LookPath(f.ffmpeg); err != nil {
		return &ToolError{Op: "lookup", Err: fmt.Errorf("ffmpeg not installed: %w", err)}
	}
	if _, err := exec.LookPath(f.ffprobe); err != nil {
		return &ToolError{Op: "lookup", Err: fmt.Errorf("ffprobe not installed: %w", err)}
	}
	return nil
}

func (f *FFmpeg) Run(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, f.ffmpeg, args...)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return &ToolError{Op: "ffmpeg", Output: tail(string(b)), Err: err}
	}
	return nil
}

func (f *FFmpeg) ProbeDuration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, f.ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return 0, &ToolError{Op: "ffprobe", Output: tail(string(b)), Err: err}
	}
	s := strings.TrimSpace(string(b))
	sec, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, &ToolError{Op: "ffprobe", Err: fmt.Errorf("parse duration %q: %w", s, err)}
	}
	return sec, nil
}

// tail keeps diagnostics readable: ffmpeg dumps its full banner on stderr.
func tail(out string) string {
	out = strings.TrimSpace(out)
	const maxLines = 12
	lines := strings.Split(out, "\n")
	if len(lines) > maxLines {
		lines = lines[len(lines)-maxLines:]
	}
	return strings.Join(lines, "\n")
}
