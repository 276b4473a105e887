package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"reelmaker/config"
	"reelmaker/handlers"
	"reelmaker/logging"
	"reelmaker/services"
	"reelmaker/store"
	"reelmaker/utils"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()
	logger.Info("configuration loaded", zap.Stringer("config", cfg))

	for _, dir := range []string{cfg.UploadDir, cfg.AudioLibraryDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			logger.Fatal("failed to create directory", zap.String("dir", dir), zap.Error(err))
		}
	}

	posts, closePosts := openPostStore(cfg, logger)
	defer closePosts()

	// Pipeline
	runner := utils.NewFFmpeg(cfg.FFmpegPath, cfg.FFprobePath, cfg.FFmpegTimeout)
	profile := utils.EncodeProfile{
		Width:        cfg.TargetWidth,
		Height:       cfg.TargetHeight,
		FPS:          cfg.VideoFPS,
		VideoCodec:   cfg.VideoCodec,
		Preset:       cfg.VideoPreset,
		CRF:          cfg.VideoCRF,
		PixelFormat:  cfg.PixelFormat,
		AudioBitrate: cfg.SegmentAudioBitrate,
	}
	canvas := services.Canvas{Width: cfg.TargetWidth, Height: cfg.TargetHeight, Background: cfg.CanvasColor}
	library := services.NewAudioLibrary(cfg.AudioLibraryDir)

	orchestrator := services.NewOrchestrator(
		runner,
		services.NewNormalizer(runner, profile, canvas, cfg.StillDurationSeconds, cfg.MaxReelSeconds, cfg.UploadDir, logger.Named("normalizer")),
		services.NewConcatenator(runner, cfg.UploadDir),
		services.NewAudioOverlay(runner, profile, cfg.OverlayAudioBitrate),
		library,
		cfg.UploadDir,
		cfg.MaxConcurrentEncodes,
		logger.Named("orchestrator"),
	)
	reels := services.NewReelService(
		runner,
		library,
		services.DefaultReelStrategies(profile, cfg.OverlayAudioBitrate, cfg.MaxReelSeconds),
		cfg.UploadDir,
		logger.Named("reel"),
	)
	checker := services.NewFingerprintChecker(
		runner,
		cfg.ACRHost,
		cfg.ACRAccessSecret,
		utils.NewCredentialPool(cfg.ACRAccessKeys),
		cfg.ACRTimeout,
		cfg.ACRCooldown,
		cfg.UploadDir,
		logger.Named("fingerprint"),
	)

	// Create Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), handlers.RequestLogger(logger.Named("http")))
	router.MaxMultipartMemory = int64(cfg.MaxUploadMB) << 20

	// Setup CORS
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	if cfg.JWTSecret == "" {
		logger.Warn("JWT_SECRET is empty, posts will be attributed to the anonymous user")
	}
	handlers.RegisterRoutes(
		router,
		handlers.NewMediaHandler(orchestrator, reels, posts, "/uploads", logger.Named("media")),
		handlers.NewLibraryHandler(library, checker, cfg.UploadDir, logger.Named("library")),
		handlers.RequireUser(cfg.JWTSecret),
		cfg.UploadDir,
	)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	logger.Info("starting server", zap.String("addr", addr))
	if err := router.Run(addr); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}
}

// openPostStore uses Postgres when DATABASE_URL is set and an in-memory store otherwise
func openPostStore(cfg *config.Config, logger *zap.Logger) (store.PostStore, func()) {
	if cfg.DatabaseURL == "" {
		logger.Warn("DATABASE_URL is empty, posts are kept in memory only")
		return store.NewMemoryPostStore(), func() {}
	}

	db, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to open post store", zap.Error(err))
	}
	return db, func() {
		if err := db.Close(); err != nil {
			logger.Warn("failed to close post store", zap.Error(err))
		}
	}
}
