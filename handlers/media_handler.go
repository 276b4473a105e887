package handlers

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"reelmaker/models"
	"reelmaker/services"
	"reelmaker/store"
)

const (
	slideshowCaption = "Photo/Video Slideshow"
	reelCaption      = "Reel"

	// statusClientClosedRequest is used when the caller went away mid-job
	statusClientClosedRequest = 499
)

// Composer builds a slideshow from raw media
type Composer interface {
	Compose(ctx context.Context, items []models.RawMediaItem, audioSelector string) (*models.ComposedArtifact, error)
}

// ReelPublisher stores a single uploaded video
type ReelPublisher interface {
	Publish(ctx context.Context, upload io.Reader, filename, audioSelector string) (*models.ComposedArtifact, error)
}

// MediaHandler handles slideshow and reel uploads
type MediaHandler struct {
	composer  Composer
	reels     ReelPublisher
	posts     store.PostStore
	urlPrefix string
	logger    *zap.Logger
}

// NewMediaHandler creates a new media handler. Finished files are linked
// under urlPrefix.
func NewMediaHandler(composer Composer, reels ReelPublisher, posts store.PostStore, urlPrefix string, logger *zap.Logger) *MediaHandler {
	return &MediaHandler{
		composer:  composer,
		reels:     reels,
		posts:     posts,
		urlPrefix: strings.TrimSuffix(urlPrefix, "/") + "/",
		logger:    logger,
	}
}

// Slideshow handles POST /api/slideshow
func (h *MediaHandler) Slideshow(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ComposeResponse{Error: "invalid multipart form"})
		return
	}
	song := strings.TrimSpace(c.PostForm("song"))

	items := inlineImages(form, h.logger)

	var files []multipart.File
	defer func() {
		for _, f := range files {
			f.Close()
		}
	}()
	for _, fh := range form.File["media"] {
		f, err := fh.Open()
		if err != nil {
			h.logger.Warn("failed to open uploaded media", zap.String("filename", fh.Filename), zap.Error(err))
			continue
		}
		files = append(files, f)
		items = append(items, models.NewUploadedFile(f, fh.Filename))
	}

	artifact, err := h.composer.Compose(c.Request.Context(), items, song)
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.publish(c, artifact, slideshowCaption)
}

// Reel handles POST /api/reel
func (h *MediaHandler) Reel(c *gin.Context) {
	fh, err := c.FormFile("video")
	if err != nil || fh.Filename == "" {
		c.JSON(http.StatusBadRequest, models.ComposeResponse{Error: "no video received"})
		return
	}
	song := strings.TrimSpace(c.PostForm("song"))

	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ComposeResponse{Error: "save failed", Details: err.Error()})
		return
	}
	defer f.Close()

	artifact, err := h.reels.Publish(c.Request.Context(), f, fh.Filename, song)
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.publish(c, artifact, reelCaption)
}

// publish records the post and writes the success response
func (h *MediaHandler) publish(c *gin.Context, artifact *models.ComposedArtifact, captionBase string) {
	caption := artifact.Caption(captionBase)
	post, err := h.posts.CreatePost(c.Request.Context(), c.GetString(ContextUserID), caption, artifact.Filename)
	if err != nil {
		h.logger.Error("failed to record post", zap.String("job_id", artifact.JobID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ComposeResponse{Error: "failed to save post", Details: err.Error()})
		return
	}

	c.JSON(http.StatusOK, models.ComposeResponse{
		OK:      true,
		JobID:   artifact.JobID,
		Video:   h.urlPrefix + artifact.Filename,
		File:    artifact.Filename,
		Caption: caption,
		PostID:  post.ID,
	})
}

func (h *MediaHandler) writeError(c *gin.Context, err error) {
	_ = c.Error(err)

	var stageErr *services.StageError
	switch {
	case errors.Is(err, services.ErrNoInput):
		c.JSON(http.StatusBadRequest, models.ComposeResponse{Error: "no valid photos or media provided"})
	case errors.Is(err, services.ErrNoValidMedia):
		c.JSON(http.StatusBadRequest, models.ComposeResponse{Error: "no valid media after processing"})
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		c.AbortWithStatus(statusClientClosedRequest)
	case errors.As(err, &stageErr):
		c.JSON(http.StatusInternalServerError, models.ComposeResponse{
			Error:   "ffmpeg failed to create final video",
			Details: stageErr.Stderr,
		})
	default:
		c.JSON(http.StatusInternalServerError, models.ComposeResponse{
			Error:   "server processing error",
			Details: err.Error(),
		})
	}
}

// inlineImages reads photo0..photo{count-1}. Fields that are not data URLs
// or fail to decode are skipped. Only fields present in the form are
// visited, so the work is bounded by the request size and not by count.
func inlineImages(form *multipart.Form, logger *zap.Logger) []models.RawMediaItem {
	count, err := strconv.Atoi(firstValue(form, "count"))
	if err != nil || count < 0 {
		count = 0
	}

	var items []models.RawMediaItem
	for _, i := range photoIndexes(form, count) {
		raw := firstValue(form, fmt.Sprintf("photo%d", i))
		if !strings.HasPrefix(raw, "data:") {
			continue
		}
		data, mime, err := ParseDataURL(raw)
		if err != nil {
			logger.Warn("skipping undecodable photo", zap.Int("index", i), zap.Error(err))
			continue
		}
		items = append(items, models.NewInlineImage(data, mime))
	}
	return items
}

// photoIndexes returns the sorted N of every photoN field with N below count
func photoIndexes(form *multipart.Form, count int) []int {
	var indexes []int
	for key := range form.Value {
		suffix, ok := strings.CutPrefix(key, "photo")
		if !ok {
			continue
		}
		i, err := strconv.Atoi(suffix)
		if err != nil || i < 0 || i >= count || strconv.Itoa(i) != suffix {
			continue
		}
		indexes = append(indexes, i)
	}
	slices.Sort(indexes)
	return indexes
}

func firstValue(form *multipart.Form, key string) string {
	if v := form.Value[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

// ParseDataURL decodes a base64 data URL into its bytes and media type
func ParseDataURL(s string) ([]byte, string, error) {
	header, payload, ok := strings.Cut(s, ",")
	if !ok || !strings.HasPrefix(header, "data:") {
		return nil, "", fmt.Errorf("not a data URL")
	}

	meta := strings.TrimPrefix(header, "data:")
	mime, params, _ := strings.Cut(meta, ";")
	if !strings.Contains(params, "base64") {
		return nil, "", fmt.Errorf("data URL is not base64 encoded")
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode data URL: %w", err)
	}
	return data, mime, nil
}
