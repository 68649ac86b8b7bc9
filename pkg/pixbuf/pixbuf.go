// Package pixbuf implements a packed pixel buffer with a fixed set of
// luminance and RGB layouts.
package pixbuf

import (
	"image"
	"image/color"
)

// Format is the packed layout of an Image.
type Format int

const (
	LUM4   Format = iota // 4-bit luminance, two pixels per byte
	LUM8                 // 8-bit luminance
	LUM4A4               // 4-bit luminance, 4-bit alpha
	LUM8A8               // 8-bit luminance, 8-bit alpha
	RGB8                 // 8 bits per channel
	RGBA8                // 8 bits per channel with alpha
)

// BitsPerPixel returns the storage cost of one pixel.
func (f Format) BitsPerPixel() int {
	switch f {
	case LUM4:
		return 4
	case LUM8, LUM4A4:
		return 8
	case LUM8A8:
		return 16
	case RGB8:
		return 24
	case RGBA8:
		return 32
	default:
		return 0
	}
}

// HasAlpha reports whether the format stores an alpha channel.
func (f Format) HasAlpha() bool {
	return f == LUM4A4 || f == LUM8A8 || f == RGBA8
}

func (f Format) String() string {
	switch f {
	case LUM4:
		return "LUM4"
	case LUM8:
		return "LUM8"
	case LUM4A4:
		return "LUM4_A4"
	case LUM8A8:
		return "LUM8_A8"
	case RGB8:
		return "RGB8"
	case RGBA8:
		return "RGBA8"
	default:
		return "unknown"
	}
}

// Color is a straight (non-premultiplied) 8-bit RGBA color.
type Color struct {
	R, G, B, A uint8
}

// RGBA implements color.Color.
func (c Color) RGBA() (r, g, b, a uint32) {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}.RGBA()
}

// Luminance returns the weighted grey level of c.
func (c Color) Luminance() uint8 {
	return uint8(float32(c.R)*0.212 + float32(c.G)*0.701 + float32(c.B)*0.087)
}

// Image is a width x height buffer of packed pixels.
type Image struct {
	width  int
	height int
	format Format
	pix    []byte
}

// New allocates a zeroed image. The buffer is exactly
// ceil(width*height*bpp/8) bytes.
func New(width, height int, format Format) *Image {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	size := (width*height*format.BitsPerPixel() + 7) / 8
	return &Image{
		width:  width,
		height: height,
		format: format,
		pix:    make([]byte, size),
	}
}

// Width returns the image width in pixels.
func (img *Image) Width() int { return img.width }

// Height returns the image height in pixels.
func (img *Image) Height() int { return img.height }

// Format returns the pixel layout.
func (img *Image) Format() Format { return img.format }

// Pix returns the packed pixel buffer, row-major with no row padding.
func (img *Image) Pix() []byte { return img.pix }

// Set writes c at (x, y) converting to the image format.
// Coordinates outside the image are ignored.
func (img *Image) Set(x, y int, c Color) {
	if x < 0 || y < 0 || x >= img.width || y >= img.height {
		return
	}
	i := y*img.width + x
	p := img.pix

	switch img.format {
	case LUM4:
		l := c.Luminance() >> 4
		if i&1 == 0 {
			p[i/2] = p[i/2]&0x0F | l<<4
		} else {
			p[i/2] = p[i/2]&0xF0 | l
		}
	case LUM8:
		p[i] = c.Luminance()
	case LUM4A4:
		p[i] = c.Luminance()&0xF0 | c.A>>4
	case LUM8A8:
		p[i*2] = c.Luminance()
		p[i*2+1] = c.A
	case RGB8:
		p[i*3] = c.R
		p[i*3+1] = c.G
		p[i*3+2] = c.B
	case RGBA8:
		p[i*4] = c.R
		p[i*4+1] = c.G
		p[i*4+2] = c.B
		p[i*4+3] = c.A
	}
}

// Get reads the pixel at (x, y). Formats without alpha report 255.
// Coordinates outside the image return transparent black.
func (img *Image) Get(x, y int) Color {
	if x < 0 || y < 0 || x >= img.width || y >= img.height {
		return Color{}
	}
	i := y*img.width + x
	p := img.pix

	switch img.format {
	case LUM4:
		l := p[i/2] & 0x0F
		if i&1 == 0 {
			l = p[i/2] >> 4
		}
		l *= 17
		return Color{l, l, l, 255}
	case LUM8:
		return Color{p[i], p[i], p[i], 255}
	case LUM4A4:
		l := (p[i] >> 4) * 17
		return Color{l, l, l, (p[i] & 0x0F) * 17}
	case LUM8A8:
		return Color{p[i*2], p[i*2], p[i*2], p[i*2+1]}
	case RGB8:
		return Color{p[i*3], p[i*3+1], p[i*3+2], 255}
	case RGBA8:
		return Color{p[i*4], p[i*4+1], p[i*4+2], p[i*4+3]}
	}
	return Color{}
}

// SetBlock copies a w x h block of colors, row-major, with its top-left
// corner at (x, y). Pixels falling outside the image are dropped.
func (img *Image) SetBlock(x, y, w, h int, block []Color) {
	for by := 0; by < h; by++ {
		for bx := 0; bx < w; bx++ {
			i := by*w + bx
			if i >= len(block) {
				return
			}
			img.Set(x+bx, y+by, block[i])
		}
	}
}

// ColorModel implements image.Image.
func (img *Image) ColorModel() color.Model { return color.NRGBAModel }

// Bounds implements image.Image.
func (img *Image) Bounds() image.Rectangle { return image.Rect(0, 0, img.width, img.height) }

// At implements image.Image.
func (img *Image) At(x, y int) color.Color {
	c := img.Get(x, y)
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}
}

// ToNRGBA copies the image into a standard library NRGBA image.
func (img *Image) ToNRGBA() *image.NRGBA {
	out := image.NewNRGBA(img.Bounds())
	for y := 0; y < img.height; y++ {
		for x := 0; x < img.width; x++ {
			c := img.Get(x, y)
			o := out.PixOffset(x, y)
			out.Pix[o] = c.R
			out.Pix[o+1] = c.G
			out.Pix[o+2] = c.B
			out.Pix[o+3] = c.A
		}
	}
	return out
}
