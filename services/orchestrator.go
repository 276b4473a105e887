package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"reelmaker/metrics"
	"reelmaker/models"
	"reelmaker/utils"
)

// JobState is a step of the composition state machine
type JobState string

const (
	StateReceived      JobState = "received"
	StateNormalizing   JobState = "normalizing"
	StateConcatenating JobState = "concatenating"
	StateOverlaying    JobState = "overlaying"
	StateHandoff       JobState = "handoff"
	StateDone          JobState = "done"
	StateFailed        JobState = "failed"
)

// SongCaptionSuffix formats the caption fragment naming the selected track
func SongCaptionSuffix(selector string) string {
	if selector == "" {
		return ""
	}
	return " · Song: " + selector
}

// compositionJob is the working state of one Compose call
type compositionJob struct {
	id       string
	state    JobState
	segments []models.NormalizedSegment
	audio    *models.AudioSelection
	tracker  *utils.TempTracker
	output   string
	logger   *zap.Logger
}

func (j *compositionJob) transition(s JobState) {
	j.logger.Debug("job state", zap.String("from", string(j.state)), zap.String("to", string(s)))
	j.state = s
	metrics.StageTransitionsTotal.WithLabelValues(string(s)).Inc()
}

// Orchestrator drives a slideshow job through normalize, concatenate and overlay
type Orchestrator struct {
	runner        utils.Runner
	normalizer    *Normalizer
	concatenator  *Concatenator
	overlay       *AudioOverlay
	library       *AudioLibrary
	workDir       string
	maxConcurrent int
	logger        *zap.Logger
}

// NewOrchestrator creates a new orchestrator
func NewOrchestrator(runner utils.Runner, normalizer *Normalizer, concatenator *Concatenator, overlay *AudioOverlay, library *AudioLibrary, workDir string, maxConcurrent int, logger *zap.Logger) *Orchestrator {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Orchestrator{
		runner:        runner,
		normalizer:    normalizer,
		concatenator:  concatenator,
		overlay:       overlay,
		library:       library,
		workDir:       workDir,
		maxConcurrent: maxConcurrent,
		logger:        logger,
	}
}

// Compose builds one video from items, in order, with the optional library
// track named by audioSelector. Every intermediate file is removed before
// Compose returns, whatever the outcome; on success only the artifact remains.
func (o *Orchestrator) Compose(ctx context.Context, items []models.RawMediaItem, audioSelector string) (artifact *models.ComposedArtifact, err error) {
	job := &compositionJob{
		id:      uuid.NewString(),
		state:   StateReceived,
		tracker: utils.NewTempTracker(),
	}
	job.logger = o.logger.With(zap.String("job_id", job.id))

	start := time.Now()
	metrics.JobsInProgress.Inc()
	defer func() {
		metrics.JobsInProgress.Dec()
		metrics.JobDuration.WithLabelValues("slideshow").Observe(time.Since(start).Seconds())
		if r := recover(); r != nil {
			o.finish(job, fmt.Errorf("panic: %v", r))
			panic(r)
		}
		o.finish(job, err)
	}()

	if len(items) == 0 {
		return nil, ErrNoInput
	}
	job.logger.Info("composition started", zap.Int("items", len(items)), zap.String("song", audioSelector))

	job.transition(StateNormalizing)
	job.segments = o.normalizeAll(ctx, job, items)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(job.segments) == 0 {
		return nil, ErrNoValidMedia
	}

	job.audio = o.library.Resolve(audioSelector)
	if audioSelector != "" && job.audio == nil {
		job.logger.Info("song not found in library, continuing without it", zap.String("song", audioSelector))
	}

	filename := utils.UniqueName("slideshow", len(job.segments), "mp4")
	job.output = filepath.Join(o.workDir, filename)
	job.tracker.Track(job.output)

	job.transition(StateConcatenating)
	joined := job.output
	if job.audio != nil {
		joined = filepath.Join(o.workDir, utils.UniqueName("joined", len(job.segments), "mp4"))
		job.tracker.Track(joined)
	}
	if err := o.concatenator.Concatenate(ctx, job.segments, joined, job.tracker); err != nil {
		return nil, err
	}

	applied := false
	if job.audio != nil {
		job.transition(StateOverlaying)
		result, overlayErr := o.overlay.Overlay(ctx, joined, job.audio.Path, job.output)
		if overlayErr != nil {
			metrics.OverlayFallbacksTotal.Inc()
			job.logger.Warn("audio overlay failed, keeping video without song", zap.Error(overlayErr))
			if err := utils.ReplaceFile(result, job.output); err != nil {
				return nil, err
			}
		} else {
			applied = true
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	job.transition(StateHandoff)
	duration, probeErr := o.runner.Duration(ctx, job.output)
	if probeErr != nil {
		job.logger.Debug("could not probe output duration", zap.Error(probeErr))
	}

	job.tracker.Release(job.output)
	return &models.ComposedArtifact{
		JobID:         job.id,
		Path:          job.output,
		Filename:      filename,
		CaptionSuffix: SongCaptionSuffix(audioSelector),
		Audio:         job.audio,
		AudioApplied:  applied,
		Segments:      len(job.segments),
		Dropped:       len(items) - len(job.segments),
		Duration:      duration,
	}, nil
}

// normalizeAll runs the normalizer over items with bounded parallelism.
// Failed items are dropped; survivors keep their input order.
func (o *Orchestrator) normalizeAll(ctx context.Context, job *compositionJob, items []models.RawMediaItem) []models.NormalizedSegment {
	results := make([]*models.NormalizedSegment, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.maxConcurrent)
	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			seg, err := o.normalizer.Normalize(gctx, item, i, job.tracker)
			if err != nil {
				metrics.ItemsDroppedTotal.WithLabelValues(item.Kind.String()).Inc()
				job.logger.Warn("dropping item", zap.Int("index", i), zap.Error(err))
				return nil
			}
			results[i] = &seg
			return nil
		})
	}
	_ = g.Wait()

	segments := make([]models.NormalizedSegment, 0, len(items))
	for _, r := range results {
		if r != nil {
			segments = append(segments, *r)
		}
	}
	return segments
}

// finish records the terminal state and runs cleanup exactly once
func (o *Orchestrator) finish(job *compositionJob, err error) {
	result := "success"
	switch {
	case err == nil:
		job.transition(StateDone)
		job.logger.Info("composition finished", zap.String("output", job.output), zap.Int("segments", len(job.segments)))
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		result = "canceled"
		job.transition(StateFailed)
		job.logger.Warn("composition canceled", zap.Error(err))
	default:
		result = "failed"
		job.transition(StateFailed)
		job.logger.Error("composition failed", zap.Error(err))
	}
	metrics.JobsTotal.WithLabelValues("slideshow", result).Inc()

	if failed := job.tracker.Cleanup(); len(failed) > 0 {
		metrics.CleanupFailuresTotal.Add(float64(len(failed)))
		job.logger.Warn("some intermediate files could not be removed", zap.Strings("paths", failed))
	}
}
