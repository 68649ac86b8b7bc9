package debug

import (
	"fmt"
	"image"
	"path/filepath"
	"time"

	"github.com/Faultbox/pmviewer/internal/export"
)

// ScreenshotCapture saves frame buffer contents to timestamped files.
type ScreenshotCapture struct {
	outputDir string
	prefix    string
	format    export.Format
	now       func() time.Time
}

// NewScreenshotCapture creates a capture writing prefix_<time>.<ext> files
// into outputDir.
func NewScreenshotCapture(outputDir, prefix string, format export.Format) *ScreenshotCapture {
	return &ScreenshotCapture{
		outputDir: outputDir,
		prefix:    prefix,
		format:    format,
		now:       time.Now,
	}
}

// FlipRows converts bottom-up RGBA rows, as read from OpenGL, into an
// image with the origin at the top.
func FlipRows(pixels []byte, width, height int) (*image.NRGBA, error) {
	if len(pixels) != width*height*4 {
		return nil, fmt.Errorf("pixel data size mismatch: expected %d, got %d", width*height*4, len(pixels))
	}
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	rowSize := width * 4
	for y := 0; y < height; y++ {
		src := (height - 1 - y) * rowSize
		copy(img.Pix[y*img.Stride:y*img.Stride+rowSize], pixels[src:src+rowSize])
	}
	return img, nil
}

// CaptureFromPixels saves bottom-up RGBA pixel data and returns the file
// name.
func (sc *ScreenshotCapture) CaptureFromPixels(pixels []byte, width, height int) (string, error) {
	img, err := FlipRows(pixels, width, height)
	if err != nil {
		return "", err
	}
	return sc.CaptureFromImage(img)
}

// CaptureFromImage saves img and returns the file name.
func (sc *ScreenshotCapture) CaptureFromImage(img image.Image) (string, error) {
	filename := sc.GenerateFilename()
	if err := export.SaveImage(filename, img, sc.format); err != nil {
		return "", err
	}
	return filename, nil
}

// GenerateFilename returns the file name the next capture would use.
func (sc *ScreenshotCapture) GenerateFilename() string {
	timestamp := sc.now().Format("2006-01-02_15-04-05")
	return filepath.Join(sc.outputDir, fmt.Sprintf("%s_%s%s", sc.prefix, timestamp, sc.format.Ext()))
}
