package lib

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"
)

const (
	DefaultTranscoder      = "ffmpeg"
	DefaultOutputExtension = ".mka"
)

// Converter turns one Job into an Outcome. Implementations must be total:
// every failure is reported through the Outcome, never returned or panicked.
type Converter interface {
	Convert(ctx context.Context, job Job) Outcome
}

// ConverterFunc adapts an ordinary function to the Converter interface.
type ConverterFunc func(ctx context.Context, job Job) Outcome

func (f ConverterFunc) Convert(ctx context.Context, job Job) Outcome {
	return f(ctx, job)
}

// FFmpegConverter extracts the first audio stream of a video file into an
// audio-only container without re-encoding. Each call runs its own ffmpeg
// child process and shares no state with other calls.
type FFmpegConverter struct {
	Binary          string
	OutputExtension string
}

func NewFFmpegConverter(binary, outputExt string) *FFmpegConverter {
	if binary == "" {
		binary = DefaultTranscoder
	}
	if outputExt == "" {
		outputExt = DefaultOutputExtension
	}
	if !strings.HasPrefix(outputExt, ".") {
		outputExt = "." + outputExt
	}
	return &FFmpegConverter{Binary: binary, OutputExtension: outputExt}
}

// OutputPath derives the destination for job: the input base name with the
// output extension, inside the job's output directory. Two inputs that differ
// only by extension map to the same path; the later write wins.
func (c *FFmpegConverter) OutputPath(job Job) string {
	base := filepath.Base(job.Input)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(job.OutputDir, stem+c.OutputExtension)
}

// Args returns the ffmpeg argument list for job, without the binary.
func (c *FFmpegConverter) Args(job Job) []string {
	return []string{
		"-i", job.Input,
		"-vn",
		"-c:a:0", "copy",
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		c.OutputPath(job),
	}
}

func (c *FFmpegConverter) Convert(ctx context.Context, job Job) (outcome Outcome) {
	defer func() {
		if r := recover(); r != nil {
			outcome = Failed(fmt.Sprintf("conversion of %s crashed: %v", filepath.Base(job.Input), r))
		}
	}()

	outputPath := c.OutputPath(job)
	args := c.Args(job)

	slog.Debug("Executing transcoder", "binary", c.Binary, "args", strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, c.Binary, args...)
	cmd.SysProcAttr = childProcAttr()

	var stderrBuf bytes.Buffer
	cmd.Stderr = &stderrBuf

	err := cmd.Run()
	if err == nil {
		return Succeeded(outputPath)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		reason := strings.TrimSpace(stderrBuf.String())
		if reason == "" {
			reason = err.Error()
		}
		return Failed(reason)
	}
	return Failed(err.Error())
}

// CheckTranscoderAvailable verifies that binary can be found on PATH.
func CheckTranscoderAvailable(binary string) error {
	if binary == "" {
		binary = DefaultTranscoder
	}
	path, err := exec.LookPath(binary)
	if err != nil {
		return fmt.Errorf("%w: %s is not installed or not in PATH", ErrTranscoderMissing, binary)
	}
	slog.Debug("Transcoder found", "binary", binary, "path", path)
	return nil
}
