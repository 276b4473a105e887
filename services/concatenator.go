package services

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/samber/lo"

	"reelmaker/models"
	"reelmaker/utils"
)

// Concatenator joins uniformly encoded segments with the concat demuxer
type Concatenator struct {
	runner  utils.Runner
	workDir string
}

// NewConcatenator creates a new concatenator
func NewConcatenator(runner utils.Runner, workDir string) *Concatenator {
	return &Concatenator{runner: runner, workDir: workDir}
}

// Concatenate writes the segments, in order, into outputPath. The manifest
// is registered with tracker. Failures are fatal *StageError values.
func (c *Concatenator) Concatenate(ctx context.Context, segments []models.NormalizedSegment, outputPath string, tracker *utils.TempTracker) error {
	if len(segments) == 0 {
		return ErrEmptyInput
	}

	manifest := filepath.Join(c.workDir, utils.UniqueName("concat", len(segments), "txt"))
	tracker.Track(manifest)

	paths := lo.Map(segments, func(s models.NormalizedSegment, _ int) string { return s.Path })
	if err := utils.WriteConcatManifest(manifest, paths); err != nil {
		return fmt.Errorf("failed to write concat manifest: %w", err)
	}

	return runStage(ctx, c.runner, StageConcatenate, utils.ConcatArgs(manifest, outputPath), outputPath)
}
