package config

import (
	"image/color"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("TARGET_WIDTH", "")
	t.Setenv("TARGET_HEIGHT", "")
	t.Setenv("ACR_ACCESS_KEYS", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 720, cfg.TargetWidth)
	assert.Equal(t, 1280, cfg.TargetHeight)
	assert.Equal(t, 3.0, cfg.StillDurationSeconds)
	assert.Equal(t, "libx264", cfg.VideoCodec)
	assert.Equal(t, 5*time.Minute, cfg.FFmpegTimeout)
	assert.Equal(t, color.NRGBA{R: 255, G: 255, B: 255, A: 255}, cfg.CanvasColor)
	assert.Empty(t, cfg.ACRAccessKeys)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("TARGET_WIDTH", "1080")
	t.Setenv("TARGET_HEIGHT", "1920")
	t.Setenv("FFMPEG_TIMEOUT", "90s")
	t.Setenv("ACR_ACCESS_KEYS", " a , b,,c ")
	t.Setenv("CANVAS_COLOR", "#000")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 1080, cfg.TargetWidth)
	assert.Equal(t, 1920, cfg.TargetHeight)
	assert.Equal(t, 90*time.Second, cfg.FFmpegTimeout)
	assert.Equal(t, []string{"a", "b", "c"}, cfg.ACRAccessKeys)
	assert.Equal(t, color.NRGBA{A: 255}, cfg.CanvasColor)
}

func TestLoadConfigRejectsOddDimensions(t *testing.T) {
	t.Setenv("TARGET_WIDTH", "721")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfigRejectsBadColour(t *testing.T) {
	t.Setenv("CANVAS_COLOR", "not-a-colour")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected color.NRGBA
		wantErr  bool
	}{
		{"Long form", "#102030", color.NRGBA{R: 0x10, G: 0x20, B: 0x30, A: 0xff}, false},
		{"Short form", "fa0", color.NRGBA{R: 0xff, G: 0xaa, B: 0x00, A: 0xff}, false},
		{"Bad length", "#12345", color.NRGBA{}, true},
		{"Bad digits", "#zzzzzz", color.NRGBA{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := parseHexColor(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, c)
		})
	}
}
