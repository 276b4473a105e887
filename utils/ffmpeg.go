package utils

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"reelmaker/metrics"
)

// MaxStderrExcerpt bounds how much encoder stderr is kept for diagnostics
const MaxStderrExcerpt = 1000

// ExecError describes a failed encoder invocation
type ExecError struct {
	Tool     string
	ExitCode int
	Stderr   string
	TimedOut bool
	Err      error
}

func (e *ExecError) Error() string {
	if e.TimedOut {
		return fmt.Sprintf("%s timed out: %s", e.Tool, e.Stderr)
	}
	return fmt.Sprintf("%s exited with code %d: %s", e.Tool, e.ExitCode, e.Stderr)
}

func (e *ExecError) Unwrap() error {
	return e.Err
}

// Runner executes encoder command lines
type Runner interface {
	Run(ctx context.Context, args []string) error
	Duration(ctx context.Context, path string) (float64, error)
	HasAudio(ctx context.Context, path string) (bool, error)
}

// FFmpeg shells out to ffmpeg and ffprobe with a per-call timeout
type FFmpeg struct {
	Binary      string
	ProbeBinary string
	Timeout     time.Duration
}

// NewFFmpeg creates an FFmpeg runner
func NewFFmpeg(binary, probeBinary string, timeout time.Duration) *FFmpeg {
	return &FFmpeg{Binary: binary, ProbeBinary: probeBinary, Timeout: timeout}
}

// Run executes an FFmpeg command
func (f *FFmpeg) Run(ctx context.Context, args []string) error {
	ctx, cancel := context.WithTimeout(ctx, f.Timeout)
	defer cancel()

	start := time.Now()
	cmd := exec.CommandContext(ctx, f.Binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	metrics.EncoderInvocationDuration.Observe(time.Since(start).Seconds())
	if err == nil {
		metrics.EncoderInvocationsTotal.WithLabelValues("success").Inc()
		return nil
	}

	execErr := &ExecError{
		Tool:     "ffmpeg",
		ExitCode: -1,
		Stderr:   Truncate(stderr.String(), MaxStderrExcerpt),
		Err:      err,
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		execErr.ExitCode = exitErr.ExitCode()
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		execErr.TimedOut = true
		metrics.EncoderInvocationsTotal.WithLabelValues("timeout").Inc()
	} else {
		metrics.EncoderInvocationsTotal.WithLabelValues("failure").Inc()
	}
	return execErr
}

// Duration returns the duration of a media file in seconds
func (f *FFmpeg) Duration(ctx context.Context, path string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, f.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, f.ProbeBinary,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)

	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe error: %w", err)
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(string(output)), 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse duration: %w", err)
	}

	return duration, nil
}

// HasAudio reports whether a media file has at least one audio stream
func (f *FFmpeg) HasAudio(ctx context.Context, path string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, f.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, f.ProbeBinary,
		"-v", "error",
		"-select_streams", "a",
		"-show_entries", "stream=index",
		"-of", "csv=p=0",
		path,
	)

	output, err := cmd.Output()
	if err != nil {
		return false, fmt.Errorf("ffprobe error: %w", err)
	}
	return strings.TrimSpace(string(output)) != "", nil
}

// Truncate cuts s to at most n bytes
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
