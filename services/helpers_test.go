package services

import (
	"bytes"
	"context"
	"errors"
	"image/color"
	"os"
	"slices"
	"sync"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"reelmaker/utils"
)

// errNoOutput makes fakeRunner report success without writing anything
var errNoOutput = errors.New("no output")

// fakeRunner stands in for ffmpeg. Every call writes a small file at the
// last argument, which is always the output path, unless hook says otherwise.
type fakeRunner struct {
	mu       sync.Mutex
	calls    [][]string
	hook     func(args []string) error
	duration float64
	silent   bool
}

func (f *fakeRunner) Run(ctx context.Context, args []string) error {
	f.mu.Lock()
	f.calls = append(f.calls, slices.Clone(args))
	hook := f.hook
	f.mu.Unlock()

	if hook != nil {
		if err := hook(args); errors.Is(err, errNoOutput) {
			return nil
		} else if err != nil {
			return err
		}
	}
	return os.WriteFile(args[len(args)-1], []byte("encoded"), 0644)
}

func (f *fakeRunner) Duration(ctx context.Context, path string) (float64, error) {
	return f.duration, nil
}

func (f *fakeRunner) HasAudio(ctx context.Context, path string) (bool, error) {
	return !f.silent, nil
}

func (f *fakeRunner) Calls() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

func exitError(code int) error {
	return &utils.ExecError{Tool: "ffmpeg", ExitCode: code, Stderr: "Invalid data found when processing input"}
}

func argAfter(args []string, flag string) string {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}

func testProfile() utils.EncodeProfile {
	return utils.EncodeProfile{
		Width:        72,
		Height:       128,
		FPS:          30,
		VideoCodec:   "libx264",
		Preset:       "veryfast",
		CRF:          23,
		PixelFormat:  "yuv420p",
		AudioBitrate: "128k",
	}
}

func testCanvas() Canvas {
	return Canvas{Width: 72, Height: 128, Background: color.NRGBA{R: 255, G: 255, B: 255, A: 255}}
}

func pngBytes(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, imaging.New(w, h, c), imaging.PNG))
	return buf.Bytes()
}

func dirNames(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func testLogger() *zap.Logger {
	return zap.NewNop()
}
