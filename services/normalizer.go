package services

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"reelmaker/models"
	"reelmaker/utils"
)

// Normalizer turns one raw input item into a segment that satisfies the output contract
type Normalizer struct {
	runner       utils.Runner
	profile      utils.EncodeProfile
	canvas       Canvas
	stillSeconds float64
	maxSeconds   float64
	workDir      string
	logger       *zap.Logger
}

// NewNormalizer creates a new normalizer writing intermediates into workDir
func NewNormalizer(runner utils.Runner, profile utils.EncodeProfile, canvas Canvas, stillSeconds, maxSeconds float64, workDir string, logger *zap.Logger) *Normalizer {
	return &Normalizer{
		runner:       runner,
		profile:      profile,
		canvas:       canvas,
		stillSeconds: stillSeconds,
		maxSeconds:   maxSeconds,
		workDir:      workDir,
		logger:       logger,
	}
}

// Normalize encodes item into a segment. Every file written along the way,
// including the segment itself, is registered with tracker before the
// encoder runs. A failure is returned as *ItemError.
func (n *Normalizer) Normalize(ctx context.Context, item models.RawMediaItem, index int, tracker *utils.TempTracker) (models.NormalizedSegment, error) {
	seg, err := n.normalize(ctx, item, index, tracker)
	if err != nil {
		return models.NormalizedSegment{}, &ItemError{Index: index, Kind: item.Kind.String(), Err: err}
	}
	return seg, nil
}

func (n *Normalizer) normalize(ctx context.Context, item models.RawMediaItem, index int, tracker *utils.TempTracker) (models.NormalizedSegment, error) {
	if item.IsStill() {
		return n.normalizeStill(ctx, item, index, tracker)
	}
	return n.normalizeVideo(ctx, item, index, tracker)
}

func (n *Normalizer) normalizeStill(ctx context.Context, item models.RawMediaItem, index int, tracker *utils.TempTracker) (models.NormalizedSegment, error) {
	data := item.Data
	rawExt := extensionForMime(item.MimeType)
	if item.Kind == models.UploadedFile {
		if item.Reader == nil {
			return models.NormalizedSegment{}, fmt.Errorf("upload %q has no content", item.Filename)
		}
		b, err := io.ReadAll(item.Reader)
		if err != nil {
			return models.NormalizedSegment{}, fmt.Errorf("failed to read upload: %w", err)
		}
		data = b
		rawExt = item.Extension()
	}
	if len(data) == 0 {
		return models.NormalizedSegment{}, fmt.Errorf("empty image data")
	}

	pngPath := filepath.Join(n.workDir, utils.UniqueName("still", index, "png"))
	rawPath := filepath.Join(n.workDir, utils.UniqueName("still_raw", index, rawExt))
	outPath := filepath.Join(n.workDir, utils.UniqueName("seg_img", index, "mp4"))
	tracker.Track(pngPath, rawPath, outPath)

	stillPath, decoded, err := n.canvas.Prepare(data, pngPath, rawPath)
	if err != nil {
		return models.NormalizedSegment{}, err
	}
	if !decoded {
		n.logger.Warn("image could not be decoded, passing raw bytes to encoder",
			zap.Int("index", index), zap.String("kind", item.Kind.String()))
	}

	args := utils.StillImageArgs(n.profile, stillPath, outPath, n.stillSeconds)
	if err := runStage(ctx, n.runner, StageNormalize, args, outPath); err != nil {
		return models.NormalizedSegment{}, err
	}
	return models.NormalizedSegment{Index: index, Path: outPath, Still: true}, nil
}

func (n *Normalizer) normalizeVideo(ctx context.Context, item models.RawMediaItem, index int, tracker *utils.TempTracker) (models.NormalizedSegment, error) {
	if item.Reader == nil {
		return models.NormalizedSegment{}, fmt.Errorf("upload %q has no content", item.Filename)
	}

	ext := item.Extension()
	if ext == "" {
		ext = "bin"
	}
	srcPath := filepath.Join(n.workDir, utils.UniqueName("upvid_src", index, utils.SafeName(ext)))
	outPath := filepath.Join(n.workDir, utils.UniqueName("seg_vid", index, "mp4"))
	tracker.Track(srcPath, outPath)

	if err := utils.SaveStream(item.Reader, srcPath); err != nil {
		return models.NormalizedSegment{}, err
	}

	hasAudio, err := n.runner.HasAudio(ctx, srcPath)
	if err != nil {
		// unreadable uploads fail in the encoder and get dropped there
		n.logger.Warn("could not read audio streams of upload", zap.Int("index", index), zap.Error(err))
		hasAudio = true
	}

	args := utils.VideoReencodeArgs(n.profile, srcPath, outPath, n.maxSeconds, hasAudio)
	if err := runStage(ctx, n.runner, StageNormalize, args, outPath); err != nil {
		return models.NormalizedSegment{}, err
	}
	return models.NormalizedSegment{Index: index, Path: outPath, Still: false}, nil
}

func extensionForMime(mime string) string {
	switch strings.ToLower(strings.TrimSpace(mime)) {
	case "image/png":
		return "png"
	case "image/gif":
		return "gif"
	case "image/webp":
		return "webp"
	case "image/bmp":
		return "bmp"
	default:
		return "jpg"
	}
}
