package texcodec

import (
	"encoding/binary"
	"fmt"

	"github.com/Faultbox/pmviewer/pkg/bin"
	"github.com/Faultbox/pmviewer/pkg/pixbuf"
)

// CMPRSize returns the number of bytes a CMPR texture occupies.
func CMPRSize(width, height int) int {
	return pad8(width) * pad8(height) / 2
}

func pad8(v int) int {
	return (v + 7) &^ 7
}

// DecodeCMPR decodes a CMPR texture.
//
// The image is split into 8x8 super-blocks stored row-major. Each holds four
// 8-byte 4x4 blocks in top-left, top-right, bottom-left, bottom-right order.
// A block is two RGB565 endpoint colors and 32 bits of 2-bit selectors,
// all big-endian as stored on the console: the first endpoint is
// buf[0]<<8 | buf[1], and the top selector bits address pixel (0, 0).
func DecodeCMPR(buf []byte, off, width, height int) (*pixbuf.Image, error) {
	size := CMPRSize(width, height)
	if off < 0 || off > len(buf)-size {
		return nil, fmt.Errorf("%w: CMPR texture %dx%d needs %d bytes at offset %d (buffer %d)",
			bin.ErrOutOfRange, width, height, size, off, len(buf))
	}

	img := pixbuf.New(width, height, pixbuf.RGBA8)
	pw, ph := pad8(width), pad8(height)
	ww := pw / 2

	for y := 0; y < ph; y += 4 {
		for x := 0; x < pw; x += 4 {
			pos := off + (((x>>2)&1)+2*((y>>2)&1)+4*(x>>3)+ww*(y>>3))*8
			decodeCMPRBlock(img, buf[pos:pos+8], x, y)
		}
	}

	return img, nil
}

// CMPRPalette returns the four colors selectable by a block with
// endpoints c0 and c1.
func CMPRPalette(c0, c1 uint16) [4]pixbuf.Color {
	a := DecodeRGB565(c0)
	b := DecodeRGB565(c1)

	var pal [4]pixbuf.Color
	pal[0] = a
	pal[1] = b
	if c0 > c1 {
		pal[2] = lerp3(a, b)
		pal[3] = lerp3(b, a)
	} else {
		pal[2] = pixbuf.Color{
			R: uint8((int(a.R) + int(b.R)) / 2),
			G: uint8((int(a.G) + int(b.G)) / 2),
			B: uint8((int(a.B) + int(b.B)) / 2),
			A: 255,
		}
		pal[3] = pixbuf.Color{}
	}
	return pal
}

// lerp3 returns (2a + b) / 3 per channel.
func lerp3(a, b pixbuf.Color) pixbuf.Color {
	return pixbuf.Color{
		R: uint8((2*int(a.R) + int(b.R)) / 3),
		G: uint8((2*int(a.G) + int(b.G)) / 3),
		B: uint8((2*int(a.B) + int(b.B)) / 3),
		A: 255,
	}
}

func decodeCMPRBlock(img *pixbuf.Image, block []byte, x, y int) {
	pal := CMPRPalette(
		binary.BigEndian.Uint16(block[0:]),
		binary.BigEndian.Uint16(block[2:]),
	)
	sel := binary.BigEndian.Uint32(block[4:])

	for y1 := 0; y1 < 4; y1++ {
		for x1 := 0; x1 < 4; x1++ {
			i := (sel >> (30 - (x1*2 + y1*8))) & 3
			img.Set(x+x1, y+y1, pal[i])
		}
	}
}
