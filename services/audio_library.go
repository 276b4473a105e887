package services

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/samber/lo"

	"reelmaker/models"
	"reelmaker/utils"
)

var (
	listedAudioExtensions   = []string{".mp3", ".wav", ".m4a", ".ogg"}
	resolvedAudioExtensions = []string{"mp3", "m4a", "aac", "wav", "ogg"}
)

// AudioLibrary is a flat directory of selectable tracks
type AudioLibrary struct {
	dir string
}

// NewAudioLibrary creates a library rooted at dir
func NewAudioLibrary(dir string) *AudioLibrary {
	return &AudioLibrary{dir: dir}
}

// List returns the playable track names in the library, sorted
func (l *AudioLibrary) List() ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio library: %w", err)
	}

	names := lo.FilterMap(entries, func(e os.DirEntry, _ int) (string, bool) {
		if e.IsDir() {
			return "", false
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		return e.Name(), lo.Contains(listedAudioExtensions, ext)
	})
	sort.Strings(names)
	return names, nil
}

// Resolve maps a user-supplied track name to a file. It tries the exact
// name, then the sanitized name, then both with each known extension.
// A miss returns nil; it is never an error.
func (l *AudioLibrary) Resolve(requested string) *models.AudioSelection {
	requested = strings.TrimSpace(requested)
	if requested == "" {
		return nil
	}

	safe := utils.SafeName(requested)
	candidates := []string{requested, safe}
	for _, ext := range resolvedAudioExtensions {
		candidates = append(candidates, safe+"."+ext, requested+"."+ext)
	}

	for _, name := range lo.Uniq(candidates) {
		// names that escape the library directory are never looked up
		if name != filepath.Base(name) || name == "." || name == ".." {
			continue
		}
		path := filepath.Join(l.dir, name)
		if utils.FileExists(path) {
			return &models.AudioSelection{Requested: requested, Name: name, Path: path}
		}
	}
	return nil
}
