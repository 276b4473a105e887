package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"reelmaker/models"
)

// VisibilityPublic is the only visibility new posts are created with
const VisibilityPublic = "public"

// PostStore records finished artifacts as user posts
type PostStore interface {
	CreatePost(ctx context.Context, userID, caption, mediaFilename string) (*models.Post, error)
}

// GormPostStore persists posts in Postgres
type GormPostStore struct {
	db *gorm.DB
}

// Open connects to dsn and migrates the posts table
func Open(dsn string) (*GormPostStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return NewGormPostStore(db)
}

// NewGormPostStore wraps an existing connection
func NewGormPostStore(db *gorm.DB) (*GormPostStore, error) {
	if err := db.AutoMigrate(&models.Post{}); err != nil {
		return nil, fmt.Errorf("failed to migrate posts: %w", err)
	}
	return &GormPostStore{db: db}, nil
}

// CreatePost inserts a public post
func (s *GormPostStore) CreatePost(ctx context.Context, userID, caption, mediaFilename string) (*models.Post, error) {
	post := &models.Post{
		UserID:        userID,
		Caption:       caption,
		MediaFilename: mediaFilename,
		Visibility:    VisibilityPublic,
	}
	if err := s.db.WithContext(ctx).Create(post).Error; err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}
	return post, nil
}

// Close releases the underlying connection pool
func (s *GormPostStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// MemoryPostStore keeps posts in process; used when no database is configured
type MemoryPostStore struct {
	mu    sync.Mutex
	posts []models.Post
	now   func() time.Time
}

// NewMemoryPostStore creates an empty in-memory store
func NewMemoryPostStore() *MemoryPostStore {
	return &MemoryPostStore{now: time.Now}
}

// CreatePost appends a public post
func (s *MemoryPostStore) CreatePost(ctx context.Context, userID, caption, mediaFilename string) (*models.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	post := models.Post{
		ID:            uint(len(s.posts) + 1),
		UserID:        userID,
		Caption:       caption,
		MediaFilename: mediaFilename,
		Visibility:    VisibilityPublic,
		CreatedAt:     s.now(),
	}
	s.posts = append(s.posts, post)
	return &post, nil
}

// Posts returns a copy of everything stored so far
func (s *MemoryPostStore) Posts() []models.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Post(nil), s.posts...)
}
