package services

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"reelmaker/metrics"
	"reelmaker/models"
	"reelmaker/utils"
)

// EncodeStrategy is one way of attaching a track to an uploaded reel
type EncodeStrategy struct {
	Name string
	Args func(videoPath, audioPath, outputPath string) []string
}

// DefaultReelStrategies tries a fast stream-copy remux before a full re-encode
func DefaultReelStrategies(profile utils.EncodeProfile, audioBitrate string, maxSeconds float64) []EncodeStrategy {
	return []EncodeStrategy{
		{
			Name: "stream-copy",
			Args: func(v, a, out string) []string {
				return utils.RemuxCopyArgs(v, a, out, audioBitrate, maxSeconds)
			},
		},
		{
			Name: "re-encode",
			Args: func(v, a, out string) []string {
				return utils.RemuxReencodeArgs(profile, v, a, out, audioBitrate, maxSeconds)
			},
		},
	}
}

// ReelService publishes a single uploaded video, optionally with a library track
type ReelService struct {
	runner     utils.Runner
	library    *AudioLibrary
	strategies []EncodeStrategy
	workDir    string
	logger     *zap.Logger
}

// NewReelService creates a new reel service
func NewReelService(runner utils.Runner, library *AudioLibrary, strategies []EncodeStrategy, workDir string, logger *zap.Logger) *ReelService {
	return &ReelService{
		runner:     runner,
		library:    library,
		strategies: strategies,
		workDir:    workDir,
		logger:     logger,
	}
}

// Publish stores the upload as a reel. When audioSelector resolves, the
// strategies are tried in order and the first that produces output wins;
// if none do, the upload is published untouched.
func (rs *ReelService) Publish(ctx context.Context, upload io.Reader, filename, audioSelector string) (*models.ComposedArtifact, error) {
	if upload == nil || filename == "" {
		return nil, ErrNoInput
	}

	jobID := uuid.NewString()
	logger := rs.logger.With(zap.String("job_id", jobID))
	tracker := utils.NewTempTracker()
	start := time.Now()
	result := "failed"
	defer func() {
		metrics.JobsTotal.WithLabelValues("reel", result).Inc()
		metrics.JobDuration.WithLabelValues("reel").Observe(time.Since(start).Seconds())
		if failed := tracker.Cleanup(); len(failed) > 0 {
			metrics.CleanupFailuresTotal.Add(float64(len(failed)))
			logger.Warn("some intermediate files could not be removed", zap.Strings("paths", failed))
		}
	}()

	safeOrig := utils.SafeName(filepath.Base(filename))
	stem := strings.TrimSuffix(safeOrig, filepath.Ext(safeOrig))
	tmpPath := filepath.Join(rs.workDir, utils.UniqueStem("tmp_reel", 0)+"_"+safeOrig)
	tracker.Track(tmpPath)
	if err := utils.SaveStream(upload, tmpPath); err != nil {
		return nil, fmt.Errorf("failed to save reel upload: %w", err)
	}

	audio := rs.library.Resolve(audioSelector)
	applied := false
	base := utils.UniqueStem("reel", 0) + "_" + stem
	finalName := base + filepath.Ext(safeOrig)

	if audio != nil {
		for i, strategy := range rs.strategies {
			out := filepath.Join(rs.workDir, utils.UniqueName("merged", i, "mp4"))
			tracker.Track(out)
			err := runStage(ctx, rs.runner, StageRemux, strategy.Args(tmpPath, audio.Path, out), out)
			if err == nil {
				finalName = base + ".mp4"
				finalPath := filepath.Join(rs.workDir, finalName)
				if err := utils.ReplaceFile(out, finalPath); err != nil {
					return nil, err
				}
				applied = true
				logger.Info("song attached to reel", zap.String("strategy", strategy.Name), zap.String("song", audio.Name))
				break
			}
			logger.Warn("reel encode strategy failed", zap.String("strategy", strategy.Name), zap.Error(err))
			if ctx.Err() != nil {
				break
			}
		}
	} else if audioSelector != "" {
		logger.Info("song not found in library, publishing reel without it", zap.String("song", audioSelector))
	}

	if err := ctx.Err(); err != nil {
		result = "canceled"
		if applied {
			tracker.Track(filepath.Join(rs.workDir, finalName))
		}
		return nil, err
	}

	finalPath := filepath.Join(rs.workDir, finalName)
	if !applied {
		if err := utils.ReplaceFile(tmpPath, finalPath); err != nil {
			return nil, fmt.Errorf("failed to store reel: %w", err)
		}
	}

	result = "success"
	return &models.ComposedArtifact{
		JobID:         jobID,
		Path:          finalPath,
		Filename:      finalName,
		CaptionSuffix: SongCaptionSuffix(audioSelector),
		Audio:         audio,
		AudioApplied:  applied,
		Segments:      1,
	}, nil
}
