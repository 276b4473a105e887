package handlers

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"reelmaker/models"
	"reelmaker/utils"
)

// TrackLister lists the selectable library tracks
type TrackLister interface {
	List() ([]string, error)
}

// CopyrightChecker looks up the audio of a video file
type CopyrightChecker interface {
	Check(ctx context.Context, videoPath string, startSeconds, durationSeconds float64) models.FingerprintResult
}

// LibraryHandler serves the audio library and copyright lookups
type LibraryHandler struct {
	tracks  TrackLister
	checker CopyrightChecker
	workDir string
	logger  *zap.Logger
}

// NewLibraryHandler creates a new library handler
func NewLibraryHandler(tracks TrackLister, checker CopyrightChecker, workDir string, logger *zap.Logger) *LibraryHandler {
	return &LibraryHandler{
		tracks:  tracks,
		checker: checker,
		workDir: workDir,
		logger:  logger,
	}
}

// AudioFiles handles GET /api/audio_files
func (h *LibraryHandler) AudioFiles(c *gin.Context) {
	names, err := h.tracks.List()
	if err != nil {
		h.logger.Warn("audio library unavailable", zap.Error(err))
		names = []string{}
	}
	c.JSON(http.StatusOK, names)
}

// CheckCopyright handles POST /api/copyright/check
func (h *LibraryHandler) CheckCopyright(c *gin.Context) {
	fh, err := c.FormFile("video")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "video is required"})
		return
	}

	start, err := formFloat(c, "start", -1)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start must be a number"})
		return
	}
	duration, err := formFloat(c, "duration", 0)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "duration must be a number"})
		return
	}

	ext := utils.SafeName(strings.TrimPrefix(filepath.Ext(fh.Filename), "."))
	if ext == "" {
		ext = "bin"
	}
	path := filepath.Join(h.workDir, utils.UniqueName("check", 0, ext))
	defer os.Remove(path)
	if err := c.SaveUploadedFile(fh, path); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save upload"})
		return
	}

	c.JSON(http.StatusOK, h.checker.Check(c.Request.Context(), path, start, duration))
}

func formFloat(c *gin.Context, key string, def float64) (float64, error) {
	raw, ok := c.GetPostForm(key)
	if !ok || raw == "" {
		return def, nil
	}
	return strconv.ParseFloat(raw, 64)
}
