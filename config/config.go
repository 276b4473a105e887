package config

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server
	Port        string
	UploadDir   string
	CORSOrigins []string
	MaxUploadMB int

	// Audio library
	AudioLibraryDir string

	// Output contract
	TargetWidth          int
	TargetHeight         int
	StillDurationSeconds float64
	MaxReelSeconds       float64
	VideoFPS             int
	VideoCodec           string
	VideoPreset          string
	VideoCRF             int
	PixelFormat          string
	SegmentAudioBitrate  string
	OverlayAudioBitrate  string
	CanvasColor          color.NRGBA

	// Encoder
	FFmpegPath           string
	FFprobePath          string
	FFmpegTimeout        time.Duration
	MaxConcurrentEncodes int

	// Copyright recognition service
	ACRHost         string
	ACRAccessKeys   []string
	ACRAccessSecret string
	ACRTimeout      time.Duration
	ACRCooldown     time.Duration

	// Collaborators
	DatabaseURL string
	JWTSecret   string

	// Logging
	LogLevel  string
	LogFormat string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	canvas, err := parseHexColor(getEnv("CANVAS_COLOR", "#ffffff"))
	if err != nil {
		return nil, fmt.Errorf("CANVAS_COLOR: %w", err)
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		UploadDir:   getEnv("UPLOAD_DIR", "./static/uploads"),
		CORSOrigins: parseList(getEnv("CORS_ORIGINS", "http://localhost:5173,http://localhost:3000")),
		MaxUploadMB: getEnvAsInt("MAX_UPLOAD_MB", 200),

		AudioLibraryDir: getEnv("AUDIO_LIBRARY_DIR", "./static/audio_library"),

		TargetWidth:          getEnvAsInt("TARGET_WIDTH", 720),
		TargetHeight:         getEnvAsInt("TARGET_HEIGHT", 1280),
		StillDurationSeconds: getEnvAsFloat("STILL_DURATION_SECONDS", 3),
		MaxReelSeconds:       getEnvAsFloat("MAX_REEL_SECONDS", 60),
		VideoFPS:             getEnvAsInt("VIDEO_FPS", 30),
		VideoCodec:           getEnv("VIDEO_CODEC", "libx264"),
		VideoPreset:          getEnv("VIDEO_PRESET", "veryfast"),
		VideoCRF:             getEnvAsInt("VIDEO_CRF", 23),
		PixelFormat:          getEnv("PIXEL_FORMAT", "yuv420p"),
		SegmentAudioBitrate:  getEnv("SEGMENT_AUDIO_BITRATE", "128k"),
		OverlayAudioBitrate:  getEnv("OVERLAY_AUDIO_BITRATE", "192k"),
		CanvasColor:          canvas,

		FFmpegPath:           getEnv("FFMPEG_PATH", "ffmpeg"),
		FFprobePath:          getEnv("FFPROBE_PATH", "ffprobe"),
		FFmpegTimeout:        getEnvAsDuration("FFMPEG_TIMEOUT", 5*time.Minute),
		MaxConcurrentEncodes: getEnvAsInt("MAX_CONCURRENT_ENCODES", 2),

		ACRHost:         getEnv("ACR_HOST", "https://identify-eu-west-1.acrcloud.com/v1/identify"),
		ACRAccessKeys:   parseList(getEnv("ACR_ACCESS_KEYS", "")),
		ACRAccessSecret: getEnv("ACR_ACCESS_SECRET", ""),
		ACRTimeout:      getEnvAsDuration("ACR_TIMEOUT", 10*time.Second),
		ACRCooldown:     getEnvAsDuration("ACR_COOLDOWN", 2*time.Minute),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		JWTSecret:   getEnv("JWT_SECRET", ""),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.TargetWidth <= 0 || c.TargetHeight <= 0 {
		return errors.New("TARGET_WIDTH and TARGET_HEIGHT must be positive")
	}
	if c.TargetWidth%2 != 0 || c.TargetHeight%2 != 0 {
		return errors.New("TARGET_WIDTH and TARGET_HEIGHT must be even for yuv420p")
	}
	if c.StillDurationSeconds <= 0 {
		return errors.New("STILL_DURATION_SECONDS must be positive")
	}
	if c.MaxReelSeconds <= 0 {
		return errors.New("MAX_REEL_SECONDS must be positive")
	}
	if c.MaxConcurrentEncodes <= 0 {
		return errors.New("MAX_CONCURRENT_ENCODES must be positive")
	}
	if c.FFmpegTimeout <= 0 {
		return errors.New("FFMPEG_TIMEOUT must be positive")
	}
	if c.UploadDir == "" {
		return errors.New("UPLOAD_DIR is required")
	}
	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func parseList(raw string) []string {
	if raw == "" {
		return []string{}
	}
	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// parseHexColor accepts #rgb or #rrggbb.
func parseHexColor(s string) (color.NRGBA, error) {
	c := color.NRGBA{A: 0xff}
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	switch len(s) {
	case 6:
		v, err := strconv.ParseUint(s, 16, 32)
		if err != nil {
			return c, fmt.Errorf("invalid hex colour %q", s)
		}
		c.R, c.G, c.B = uint8(v>>16), uint8(v>>8), uint8(v)
	case 3:
		v, err := strconv.ParseUint(s, 16, 16)
		if err != nil {
			return c, fmt.Errorf("invalid hex colour %q", s)
		}
		c.R, c.G, c.B = uint8(v>>8&0xf)*17, uint8(v>>4&0xf)*17, uint8(v&0xf)*17
	default:
		return c, fmt.Errorf("invalid hex colour %q", s)
	}
	return c, nil
}

func (c *Config) String() string {
	return fmt.Sprintf("Config{Port: %s, Target: %dx%d, Encoders: %d, ACR Keys: %d, DB: %t}",
		c.Port, c.TargetWidth, c.TargetHeight, c.MaxConcurrentEncodes, len(c.ACRAccessKeys), c.DatabaseURL != "")
}
