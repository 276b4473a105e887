package utils

import (
	"fmt"
	"math"
)

// FormatTimestamp formats seconds to an FFmpeg seek position (HH:MM:SS.mmm)
func FormatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	totalMs := int(math.Round(seconds * 1000))

	h := totalMs / 3600000
	m := (totalMs % 3600000) / 60000
	s := (totalMs % 60000) / 1000
	ms := totalMs % 1000

	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms)
}
