package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// TempTracker records every intermediate path a job creates so they can be
// removed together. Cleanup is safe to call more than once.
type TempTracker struct {
	mu    sync.Mutex
	paths []string
	done  bool
}

// NewTempTracker creates an empty tracker
func NewTempTracker() *TempTracker {
	return &TempTracker{}
}

// Track registers a path for removal
func (t *TempTracker) Track(paths ...string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, p := range paths {
		if p != "" {
			t.paths = append(t.paths, p)
		}
	}
}

// Release stops tracking a path, e.g. when it becomes the final artifact
func (t *TempTracker) Release(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.paths = lo.Without(t.paths, path)
}

// Paths returns a snapshot of the tracked paths
func (t *TempTracker) Paths() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return lo.Uniq(t.paths)
}

// Cleanup removes every tracked path. Removal is best-effort; paths that
// could not be removed are returned for logging.
func (t *TempTracker) Cleanup() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return nil
	}
	t.done = true

	var failed []string
	for _, p := range lo.Uniq(t.paths) {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			failed = append(failed, p)
		}
	}
	t.paths = nil
	return failed
}

// SafeName replaces everything outside [A-Za-z0-9._-] with an underscore
func SafeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '.' || r == '_' || r == '-' {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

// UniqueStem builds a collision-free name without extension: prefix_index_unix_token
func UniqueStem(prefix string, index int) string {
	token := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s_%d_%d_%s", prefix, index, time.Now().Unix(), token)
}

// UniqueName is UniqueStem with an extension
func UniqueName(prefix string, index int, ext string) string {
	return UniqueStem(prefix, index) + "." + strings.TrimPrefix(ext, ".")
}

// SaveStream writes r to path, creating parent directories
func SaveStream(r io.Reader, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, r); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// WriteConcatManifest writes a concat-demuxer list with one absolute path per line
func WriteConcatManifest(path string, inputs []string) error {
	var b strings.Builder
	for _, in := range inputs {
		abs, err := filepath.Abs(in)
		if err != nil {
			return fmt.Errorf("failed to get absolute path for %s: %w", in, err)
		}
		fmt.Fprintf(&b, "file '%s'\n", strings.ReplaceAll(abs, "'", `'\''`))
	}
	return os.WriteFile(path, []byte(b.String()), 0644)
}

// ReplaceFile moves src over dst, copying when a rename is not possible
func ReplaceFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	if err := SaveStream(in, dst); err != nil {
		return err
	}
	return os.Remove(src)
}

// FileExists checks if a non-empty regular file exists
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular() && info.Size() > 0
}

// GetFileSize returns file size in bytes
func GetFileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
