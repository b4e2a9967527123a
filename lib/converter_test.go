package lib

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTranscoder writes an executable shell script standing in for ffmpeg.
func fakeTranscoder(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake transcoder scripts need a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "fake-ffmpeg")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0755))
	return path
}

// copyInputScript writes the input path into the output file (the last argument).
const copyInputScript = `for last; do :; done
printf '%s' "$2" > "$last"`

func TestFFmpegConverter_OutputPath(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		ext      string
		expected string
	}{
		{"default extension", "/videos/movie.mp4", "", "/out/movie.mka"},
		{"extension without dot", "/videos/show.s01e01.mkv", "m4a", "/out/show.s01e01.m4a"},
		{"no input extension", "/videos/raw", ".mka", "/out/raw.mka"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewFFmpegConverter("", tt.ext)
			got := c.OutputPath(Job{Input: tt.input, OutputDir: "/out"})
			assert.Equal(t, filepath.FromSlash(tt.expected), got)
		})
	}
}

func TestFFmpegConverter_Args(t *testing.T) {
	c := NewFFmpegConverter("ffmpeg", ".mka")
	job := Job{Input: "in/clip.mp4", OutputDir: "out"}

	assert.Equal(t, []string{
		"-i", "in/clip.mp4",
		"-vn",
		"-c:a:0", "copy",
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		filepath.Join("out", "clip.mka"),
	}, c.Args(job))
}

func TestFFmpegConverter_Success(t *testing.T) {
	bin := fakeTranscoder(t, copyInputScript)
	outDir := t.TempDir()
	input := filepath.Join(t.TempDir(), "clip.mp4")

	outcome := NewFFmpegConverter(bin, "").Convert(context.Background(), Job{Input: input, OutputDir: outDir})

	require.Equal(t, OutcomeSuccess, outcome.Kind, outcome.Reason)
	assert.Equal(t, filepath.Join(outDir, "clip.mka"), outcome.OutputPath)
	data, err := os.ReadFile(outcome.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, input, string(data))
}

func TestFFmpegConverter_NonZeroExit(t *testing.T) {
	bin := fakeTranscoder(t, `echo "  no audio stream  " >&2
exit 1`)

	outcome := NewFFmpegConverter(bin, "").Convert(context.Background(), Job{Input: "clip.mp4", OutputDir: t.TempDir()})

	assert.Equal(t, Failed("no audio stream"), outcome)
}

func TestFFmpegConverter_NonZeroExitWithoutStderr(t *testing.T) {
	bin := fakeTranscoder(t, "exit 3")

	outcome := NewFFmpegConverter(bin, "").Convert(context.Background(), Job{Input: "clip.mp4", OutputDir: t.TempDir()})

	assert.Equal(t, OutcomeFailure, outcome.Kind)
	assert.Contains(t, outcome.Reason, "exit status 3")
}

func TestFFmpegConverter_MissingBinary(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "no-such-ffmpeg")

	outcome := NewFFmpegConverter(missing, "").Convert(context.Background(), Job{Input: "clip.mp4", OutputDir: t.TempDir()})

	assert.Equal(t, OutcomeFailure, outcome.Kind)
	assert.NotEmpty(t, outcome.Reason)
}

func TestFFmpegConverter_NameCollisionLastWriterWins(t *testing.T) {
	bin := fakeTranscoder(t, copyInputScript)
	inDir, outDir := t.TempDir(), t.TempDir()
	c := NewFFmpegConverter(bin, ".mka")

	first := c.Convert(context.Background(), Job{Input: filepath.Join(inDir, "clip.mp4"), OutputDir: outDir})
	second := c.Convert(context.Background(), Job{Input: filepath.Join(inDir, "clip.mkv"), OutputDir: outDir})

	require.Equal(t, OutcomeSuccess, first.Kind)
	require.Equal(t, OutcomeSuccess, second.Kind)
	assert.Equal(t, first.OutputPath, second.OutputPath)

	data, err := os.ReadFile(second.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(inDir, "clip.mkv"), string(data))
}

func TestCheckTranscoderAvailable(t *testing.T) {
	err := CheckTranscoderAvailable(filepath.Join(t.TempDir(), "definitely-not-ffmpeg"))
	assert.ErrorIs(t, err, ErrTranscoderMissing)

	bin := fakeTranscoder(t, "exit 0")
	assert.NoError(t, CheckTranscoderAvailable(bin))
}
