package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLibrary(t *testing.T) (*AudioLibrary, string) {
	t.Helper()
	dir := t.TempDir()
	for _, name := range []string{"lofi.mp3", "my_song.m4a", "chill beats.wav", "Theme.OGG", "notes.txt"} {
		writeFile(t, filepath.Join(dir, name), "audio")
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.mp3"), 0755))
	return NewAudioLibrary(dir), dir
}

func TestAudioLibraryList(t *testing.T) {
	lib, _ := newTestLibrary(t)

	names, err := lib.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"Theme.OGG", "chill beats.wav", "lofi.mp3", "my_song.m4a"}, names)
}

func TestAudioLibraryListMissingDir(t *testing.T) {
	_, err := NewAudioLibrary(filepath.Join(t.TempDir(), "nope")).List()
	assert.Error(t, err)
}

func TestAudioLibraryResolve(t *testing.T) {
	lib, dir := newTestLibrary(t)

	tests := []struct {
		name      string
		requested string
		want      string
	}{
		{"Exact name", "lofi.mp3", "lofi.mp3"},
		{"Bare name", "lofi", "lofi.mp3"},
		{"Sanitized name", "my song", "my_song.m4a"},
		{"Sanitized exact", "my song.m4a", "my_song.m4a"},
		{"Original name with extension", "chill beats", "chill beats.wav"},
		{"Surrounding whitespace", "  lofi  ", "lofi.mp3"},
		{"Unknown", "missing", ""},
		{"Empty", "", ""},
		{"Traversal", "../lofi.mp3", ""},
		{"Directory", "nested", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := lib.Resolve(tt.requested)
			if tt.want == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Name)
			assert.Equal(t, filepath.Join(dir, tt.want), got.Path)
		})
	}
}
