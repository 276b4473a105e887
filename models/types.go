package models

import (
	"io"
	"path/filepath"
	"strings"
	"time"
)

// MediaKind tags the variant held by a RawMediaItem
type MediaKind int

const (
	// InlineImage is a still image submitted as a data URL
	InlineImage MediaKind = iota
	// UploadedFile is a multipart upload, either a still or a video
	UploadedFile
)

func (k MediaKind) String() string {
	switch k {
	case InlineImage:
		return "inline_image"
	case UploadedFile:
		return "uploaded_file"
	default:
		return "unknown"
	}
}

var stillExtensions = map[string]bool{
	"png": true, "jpg": true, "jpeg": true, "gif": true, "webp": true, "bmp": true,
}

// RawMediaItem is one user-supplied input for a composition job.
// Only the fields of its Kind are populated.
type RawMediaItem struct {
	Kind MediaKind

	// InlineImage
	Data     []byte
	MimeType string

	// UploadedFile
	Reader   io.Reader
	Filename string
}

// NewInlineImage builds an InlineImage item
func NewInlineImage(data []byte, mimeType string) RawMediaItem {
	return RawMediaItem{Kind: InlineImage, Data: data, MimeType: mimeType}
}

// NewUploadedFile builds an UploadedFile item
func NewUploadedFile(r io.Reader, filename string) RawMediaItem {
	return RawMediaItem{Kind: UploadedFile, Reader: r, Filename: filename}
}

// Extension returns the lower-cased extension of an uploaded file, without the dot
func (m RawMediaItem) Extension() string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(m.Filename)), ".")
}

// IsStill reports whether the item should become a fixed-duration clip
func (m RawMediaItem) IsStill() bool {
	if m.Kind == InlineImage {
		return true
	}
	return stillExtensions[m.Extension()]
}

// NormalizedSegment is an encoded clip that satisfies the output contract
type NormalizedSegment struct {
	Index int
	Path  string
	Still bool
}

// AudioSelection is a library track resolved from a user-supplied name
type AudioSelection struct {
	Requested string
	Name      string
	Path      string
}

// ComposedArtifact is what a successful job hands to the persistence layer
type ComposedArtifact struct {
	JobID         string
	Path          string
	Filename      string
	CaptionSuffix string
	Audio         *AudioSelection
	AudioApplied  bool
	Segments      int
	Dropped       int
	Duration      float64
}

// Caption joins a base caption with the artifact's suffix
func (a *ComposedArtifact) Caption(base string) string {
	return base + a.CaptionSuffix
}

// FingerprintResult is the advisory outcome of a copyright check
type FingerprintResult struct {
	Matched bool    `json:"matched"`
	Title   *string `json:"title,omitempty"`
	Artist  *string `json:"artist,omitempty"`
}

// ComposeResponse is returned to the client after a slideshow or reel is published
type ComposeResponse struct {
	OK      bool   `json:"ok"`
	JobID   string `json:"job_id,omitempty"`
	Video   string `json:"video,omitempty"`
	File    string `json:"file,omitempty"`
	Caption string `json:"caption,omitempty"`
	PostID  uint   `json:"post_id,omitempty"`
	Error   string `json:"error,omitempty"`
	Details string `json:"details,omitempty"`
}

// Post is the record the persistence collaborator stores for a finished artifact
type Post struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        string    `gorm:"index;not null" json:"user_id"`
	Caption       string    `json:"caption"`
	MediaFilename string    `gorm:"not null" json:"media_filename"`
	Visibility    string    `gorm:"default:public" json:"visibility"`
	CreatedAt     time.Time `json:"created_at"`
}
