// Package export writes decoded textures as image files and reconstructed
// scenes as Wavefront OBJ meshes.
package export

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"github.com/ftrvxmtrx/tga"
	"go.uber.org/multierr"
	"golang.org/x/image/draw"
)

// ErrUnknownFormat is returned for an image format name other than png,
// webp or tga.
var ErrUnknownFormat = errors.New("unknown image format")

// Format is an image file format.
type Format int

const (
	PNG Format = iota
	WebP
	TGA
)

// ParseFormat maps a name such as "png" or ".webp" to a Format.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(name, ".")) {
	case "png":
		return PNG, nil
	case "webp":
		return WebP, nil
	case "tga":
		return TGA, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// Ext returns the file extension of f, with the dot.
func (f Format) Ext() string {
	switch f {
	case WebP:
		return ".webp"
	case TGA:
		return ".tga"
	}
	return ".png"
}

func (f Format) String() string {
	return strings.TrimPrefix(f.Ext(), ".")
}

// Encode writes img to w in format f. WebP output is lossless.
func Encode(w io.Writer, img image.Image, f Format) error {
	switch f {
	case WebP:
		return nativewebp.Encode(w, img, nil)
	case TGA:
		return tga.Encode(w, img)
	default:
		return png.Encode(w, img)
	}
}

// SaveImage writes img to path, creating parent directories.
func SaveImage(path string, img image.Image, f Format) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() { err = multierr.Append(err, file.Close()) }()

	bw := bufio.NewWriter(file)
	if err := Encode(bw, img, f); err != nil {
		return fmt.Errorf("encoding %s: %w", f, err)
	}
	return bw.Flush()
}

// Thumbnail scales img to fit in a size x size square, keeping its aspect
// ratio. Images that already fit are copied unscaled.
func Thumbnail(img image.Image, size int) *image.NRGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w > size || h > size {
		if w >= h {
			w, h = size, max(1, h*size/w)
		} else {
			w, h = max(1, w*size/h), size
		}
	}

	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	if w == b.Dx() && h == b.Dy() {
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
		return dst
	}
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
