package services

import (
	"context"
	"fmt"

	"reelmaker/utils"
)

// AudioOverlay lays a library track over a finished video
type AudioOverlay struct {
	runner       utils.Runner
	profile      utils.EncodeProfile
	audioBitrate string
}

// NewAudioOverlay creates a new overlay stage
func NewAudioOverlay(runner utils.Runner, profile utils.EncodeProfile, audioBitrate string) *AudioOverlay {
	return &AudioOverlay{
		runner:       runner,
		profile:      profile,
		audioBitrate: audioBitrate,
	}
}

// Overlay maps the first video stream of videoPath and the first audio
// stream of audioPath into outputPath, trimmed to the shorter of the two.
// On any failure it returns videoPath unchanged together with the error;
// callers log the error and carry on with the returned path.
func (ao *AudioOverlay) Overlay(ctx context.Context, videoPath, audioPath, outputPath string) (string, error) {
	if videoPath == "" || audioPath == "" {
		return videoPath, fmt.Errorf("video and audio paths are required")
	}

	args := utils.OverlayArgs(ao.profile, videoPath, audioPath, outputPath, ao.audioBitrate)
	if err := runStage(ctx, ao.runner, StageOverlay, args, outputPath); err != nil {
		return videoPath, err
	}
	return outputPath, nil
}
