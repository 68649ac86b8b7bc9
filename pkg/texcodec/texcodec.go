// Package texcodec decodes GameCube GX texture encodings into RGBA images.
//
// Texel data is stored in tiles sized to fill one or more 32-byte cache
// lines; CMPR uses 8x8 super-blocks of four DXT1-style 4x4 blocks.
package texcodec

import (
	"errors"
	"fmt"

	"github.com/Faultbox/pmviewer/pkg/pixbuf"
)

// Encoding identifies a texel encoding.
type Encoding int

const (
	I4 Encoding = iota
	I8
	IA4
	IA8
	RGB0555
	RGB565
	RGB888
	RGB4A3
	RGB5A3
	RGBA8
	C4
	C8
	C14X2
	CMPR
)

var encodingNames = [...]string{
	I4: "I4", I8: "I8", IA4: "IA4", IA8: "IA8",
	RGB0555: "RGB0555", RGB565: "RGB565", RGB888: "RGB888",
	RGB4A3: "RGB4A3", RGB5A3: "RGB5A3", RGBA8: "RGBA8",
	C4: "C4", C8: "C8", C14X2: "C14X2", CMPR: "CMPR",
}

func (e Encoding) String() string {
	if e >= 0 && int(e) < len(encodingNames) {
		return encodingNames[e]
	}
	return fmt.Sprintf("Encoding(%d)", int(e))
}

// BitsPerPixel returns the storage cost of one texel, or 0 for unknown encodings.
func (e Encoding) BitsPerPixel() int {
	switch e {
	case I4, C4, CMPR:
		return 4
	case I8, IA4, C8:
		return 8
	case IA8, RGB0555, RGB565, RGB4A3, RGB5A3, C14X2:
		return 16
	case RGB888:
		return 24
	case RGBA8:
		return 32
	default:
		return 0
	}
}

// Paletted reports whether texels are palette indices.
func (e Encoding) Paletted() bool {
	return e == C4 || e == C8 || e == C14X2
}

// ErrUnsupportedFormat is matched by every UnsupportedFormatError.
var ErrUnsupportedFormat = errors.New("unsupported texture format")

// UnsupportedFormatError reports an encoding the codec cannot decode.
type UnsupportedFormatError struct {
	Format int
	Name   string
}

func (e *UnsupportedFormatError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("unsupported texture format %s (%d)", e.Name, e.Format)
	}
	return fmt.Sprintf("unsupported texture format %d", e.Format)
}

// Unwrap lets errors.Is match ErrUnsupportedFormat.
func (e *UnsupportedFormatError) Unwrap() error {
	return ErrUnsupportedFormat
}

// ErrMissingPalette is returned when a paletted encoding has no palette.
var ErrMissingPalette = errors.New("paletted texture without palette")

// Default GX cache geometry.
const (
	CacheLineSize = 32
)

// Params describes the layout of one texture in a buffer.
type Params struct {
	Encoding          Encoding
	Width             int
	Height            int
	CacheLineSize     int // bytes per cache line, 32 when zero
	CacheLinesPerTile int // 1 when zero
	Palette           *Palette
}

// DefaultParams returns the standard tiling for enc.
func DefaultParams(enc Encoding, width, height int) Params {
	p := Params{
		Encoding:          enc,
		Width:             width,
		Height:            height,
		CacheLineSize:     CacheLineSize,
		CacheLinesPerTile: 1,
	}
	if enc == RGBA8 {
		p.CacheLinesPerTile = 2
	}
	return p
}

func (p Params) normalized() Params {
	if p.CacheLineSize <= 0 {
		p.CacheLineSize = CacheLineSize
	}
	if p.CacheLinesPerTile <= 0 {
		p.CacheLinesPerTile = 1
	}
	return p
}

// Decode converts the texture at buf[off:] into an RGBA8 image.
func Decode(buf []byte, off int, p Params) (*pixbuf.Image, error) {
	if p.Width < 0 || p.Height < 0 {
		return nil, fmt.Errorf("invalid texture size %dx%d", p.Width, p.Height)
	}
	if p.Encoding == CMPR {
		return DecodeCMPR(buf, off, p.Width, p.Height)
	}
	return DecodeTiled(buf, off, p)
}
