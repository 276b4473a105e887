package services

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"math"
	"os"

	"github.com/disintegration/imaging"
)

// Canvas places still images onto the fixed output frame
type Canvas struct {
	Width      int
	Height     int
	Background color.Color
}

// ContainSize returns the largest w×h with the source aspect ratio that fits the canvas
func (c Canvas) ContainSize(srcW, srcH int) (int, int) {
	if srcW <= 0 || srcH <= 0 {
		return 0, 0
	}
	scale := math.Min(float64(c.Width)/float64(srcW), float64(c.Height)/float64(srcH))
	w := int(math.Round(float64(srcW) * scale))
	h := int(math.Round(float64(srcH) * scale))
	return max(1, min(w, c.Width)), max(1, min(h, c.Height))
}

// Fit contain-fits img and centres it on a canvas filled with the background colour
func (c Canvas) Fit(img image.Image) *image.NRGBA {
	b := img.Bounds()
	w, h := c.ContainSize(b.Dx(), b.Dy())
	scaled := imaging.Resize(img, w, h, imaging.Lanczos)
	bg := imaging.New(c.Width, c.Height, c.Background)
	return imaging.PasteCenter(bg, scaled)
}

// Prepare writes an encoder-friendly still for data. Decodable images are
// re-saved as PNG at pngPath, fitted onto the canvas when smaller than it in
// either dimension. Undecodable data is written verbatim to rawPath so the
// encoder still gets a chance at it. The returned path is the file written.
func (c Canvas) Prepare(data []byte, pngPath, rawPath string) (string, bool, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		if werr := os.WriteFile(rawPath, data, 0644); werr != nil {
			return "", false, fmt.Errorf("failed to write raw still: %w", werr)
		}
		return rawPath, false, nil
	}

	b := img.Bounds()
	if b.Dx() < c.Width || b.Dy() < c.Height {
		img = c.Fit(img)
	}
	if err := imaging.Save(img, pngPath); err != nil {
		return "", true, fmt.Errorf("failed to write still: %w", err)
	}
	return pngPath, true, nil
}
