package texcodec

import "github.com/Faultbox/pmviewer/pkg/pixbuf"

// Bit replication widens an n-bit channel to 8 bits so that the maximum
// input maps to 255.

func expand3(v uint8) uint8 { v &= 0x07; return v<<5 | v<<2 | v>>1 }
func expand4(v uint8) uint8 { v &= 0x0F; return v<<4 | v }
func expand5(v uint8) uint8 { v &= 0x1F; return v<<3 | v>>2 }
func expand6(v uint8) uint8 { v &= 0x3F; return v<<2 | v>>4 }

// DecodeIA8 decodes a 16-bit intensity/alpha texel (alpha in the high byte).
func DecodeIA8(v uint16) pixbuf.Color {
	i := uint8(v)
	return pixbuf.Color{R: i, G: i, B: i, A: uint8(v >> 8)}
}

// DecodeIA4 decodes an 8-bit intensity/alpha texel (alpha in the high nibble).
func DecodeIA4(v uint8) pixbuf.Color {
	i := expand4(v)
	return pixbuf.Color{R: i, G: i, B: i, A: expand4(v >> 4)}
}

// DecodeRGB565 decodes an opaque 5:6:5 texel.
func DecodeRGB565(v uint16) pixbuf.Color {
	return pixbuf.Color{
		R: expand5(uint8(v >> 11)),
		G: expand6(uint8(v >> 5)),
		B: expand5(uint8(v)),
		A: 255,
	}
}

// DecodeRGB0555 decodes an opaque 5:5:5 texel.
func DecodeRGB0555(v uint16) pixbuf.Color {
	return pixbuf.Color{
		R: expand5(uint8(v >> 10)),
		G: expand5(uint8(v >> 5)),
		B: expand5(uint8(v)),
		A: 255,
	}
}

// DecodeRGB4A3 decodes a 3:4:4:4 texel with 3-bit alpha.
func DecodeRGB4A3(v uint16) pixbuf.Color {
	return pixbuf.Color{
		R: expand4(uint8(v >> 8)),
		G: expand4(uint8(v >> 4)),
		B: expand4(uint8(v)),
		A: expand3(uint8(v >> 12)),
	}
}

// DecodeRGB5A3 picks RGB0555 when the top bit is set and RGB4A3 otherwise.
func DecodeRGB5A3(v uint16) pixbuf.Color {
	if v&0x8000 != 0 {
		return DecodeRGB0555(v)
	}
	return DecodeRGB4A3(v)
}

func gray(i uint8) pixbuf.Color {
	return pixbuf.Color{R: i, G: i, B: i, A: 255}
}
