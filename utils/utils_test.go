package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected string
	}{
		{"Zero", 0, "00:00:00.000"},
		{"Five seconds", 5, "00:00:05.000"},
		{"Fractional", 61.25, "00:01:01.250"},
		{"Hours", 3723.5, "01:02:03.500"},
		{"Negative clamps", -4, "00:00:00.000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatTimestamp(tt.input))
		})
	}
}

func TestSafeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"lofi.mp3", "lofi.mp3"},
		{"my song (remix).mp3", "my_song__remix_.mp3"},
		{"../etc/passwd", ".._etc_passwd"},
		{"café", "caf_"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, SafeName(tt.input))
		})
	}
}

func TestUniqueNameDoesNotCollide(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		name := UniqueName("seg", 1, "mp4")
		assert.True(t, strings.HasPrefix(name, "seg_1_"))
		assert.True(t, strings.HasSuffix(name, ".mp4"))
		assert.False(t, seen[name], "duplicate name %s", name)
		seen[name] = true
	}
}

func TestUniqueStem(t *testing.T) {
	stem := UniqueStem("reel", 0)
	assert.True(t, strings.HasPrefix(stem, "reel_0_"))
	assert.Empty(t, filepath.Ext(stem))
	assert.NotEqual(t, stem, UniqueStem("reel", 0))

	name := UniqueName("reel", 0, ".mp4")
	assert.True(t, strings.HasSuffix(name, ".mp4"))
	assert.False(t, strings.HasSuffix(name, "..mp4"))
}

func TestTempTrackerCleanup(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.mp4")
	b := filepath.Join(dir, "b.mp4")
	keep := filepath.Join(dir, "keep.mp4")
	for _, p := range []string{a, b, keep} {
		require.NoError(t, os.WriteFile(p, []byte("x"), 0644))
	}

	tr := NewTempTracker()
	tr.Track(a, b, keep, a, "")
	tr.Release(keep)
	assert.ElementsMatch(t, []string{a, b}, tr.Paths())

	failed := tr.Cleanup()
	assert.Empty(t, failed)
	assert.NoFileExists(t, a)
	assert.NoFileExists(t, b)
	assert.FileExists(t, keep)

	// second call is a no-op
	assert.Nil(t, tr.Cleanup())
}

func TestTempTrackerIgnoresMissingFiles(t *testing.T) {
	tr := NewTempTracker()
	tr.Track(filepath.Join(t.TempDir(), "never-created.mp4"))
	assert.Empty(t, tr.Cleanup())
}

func TestWriteConcatManifest(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "list.txt")
	inputs := []string{filepath.Join(dir, "a.mp4"), filepath.Join(dir, "it's.mp4")}

	require.NoError(t, WriteConcatManifest(manifest, inputs))

	data, err := os.ReadFile(manifest)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "file '"+inputs[0]+"'", lines[0])
	assert.Contains(t, lines[1], `it'\''s.mp4`)
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty")
	full := filepath.Join(dir, "full")
	require.NoError(t, os.WriteFile(empty, nil, 0644))
	require.NoError(t, os.WriteFile(full, []byte("data"), 0644))

	assert.False(t, FileExists(empty))
	assert.True(t, FileExists(full))
	assert.False(t, FileExists(dir))
	assert.False(t, FileExists(filepath.Join(dir, "missing")))
}

func TestReplaceFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")
	require.NoError(t, os.WriteFile(src, []byte("new"), 0644))
	require.NoError(t, os.WriteFile(dst, []byte("old"), 0644))

	require.NoError(t, ReplaceFile(src, dst))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
	assert.NoFileExists(t, src)
}

func TestCredentialPoolRotation(t *testing.T) {
	pool := NewCredentialPool([]string{"a", "b"})

	first, err := pool.Acquire()
	require.NoError(t, err)
	second, err := pool.Acquire()
	require.NoError(t, err)
	assert.NotEqual(t, first, second, "least-used key should be preferred")
}

func TestCredentialPoolBench(t *testing.T) {
	now := time.Unix(1000, 0)
	pool := NewCredentialPool([]string{"a"})
	pool.now = func() time.Time { return now }

	pool.Bench("a", time.Minute)
	_, err := pool.Acquire()
	assert.ErrorIs(t, err, ErrNoCredentials)
	assert.Equal(t, 0, pool.Available())

	now = now.Add(2 * time.Minute)
	key, err := pool.Acquire()
	require.NoError(t, err)
	assert.Equal(t, "a", key)
}

func TestCredentialPoolEmpty(t *testing.T) {
	_, err := NewCredentialPool(nil).Acquire()
	assert.ErrorIs(t, err, ErrNoCredentials)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 10))
	assert.Equal(t, "ab", Truncate("abc", 2))
}
