package formatstest

import (
	"encoding/binary"

	"github.com/Faultbox/pmviewer/pkg/formats"
)

// TPLPalette is a palette to embed in a synthetic TPL.
type TPLPalette struct {
	Format  uint32
	Entries []uint16
}

// TPLTexture is a texture to embed in a synthetic TPL.
type TPLTexture struct {
	Width   uint16
	Height  uint16
	Format  formats.TPLFormat
	WrapS   formats.TPLWrap
	WrapT   formats.TPLWrap
	Data    []byte
	Palette *TPLPalette
}

// BuildTPL lays out a TPL container: header, descriptor table, texture
// headers, palette headers, then 32-byte aligned data.
func BuildTPL(textures ...TPLTexture) []byte {
	const tableOff = 12
	n := len(textures)

	out := make([]byte, tableOff+8*n)
	binary.BigEndian.PutUint32(out[0:], formats.TPLMagic)
	binary.BigEndian.PutUint32(out[4:], uint32(n))
	binary.BigEndian.PutUint32(out[8:], tableOff)

	headerOffs := make([]int, n)
	paletteOffs := make([]int, n)
	for i, tex := range textures {
		headerOffs[i] = len(out)
		out = append(out, make([]byte, 36)...)
		if tex.Palette != nil {
			paletteOffs[i] = len(out)
			out = append(out, make([]byte, 12)...)
		}
	}

	for i, tex := range textures {
		binary.BigEndian.PutUint32(out[tableOff+i*8:], uint32(headerOffs[i]))
		binary.BigEndian.PutUint32(out[tableOff+i*8+4:], uint32(paletteOffs[i]))

		if tex.Palette != nil {
			out = align(out, 32)
			palData := len(out)
			for _, e := range tex.Palette.Entries {
				out = binary.BigEndian.AppendUint16(out, e)
			}
			p := out[paletteOffs[i]:]
			binary.BigEndian.PutUint16(p[0:], uint16(len(tex.Palette.Entries)))
			binary.BigEndian.PutUint32(p[4:], tex.Palette.Format)
			binary.BigEndian.PutUint32(p[8:], uint32(palData))
		}

		out = align(out, 32)
		data := len(out)
		out = append(out, tex.Data...)

		h := out[headerOffs[i]:]
		binary.BigEndian.PutUint16(h[0:], tex.Height)
		binary.BigEndian.PutUint16(h[2:], tex.Width)
		binary.BigEndian.PutUint32(h[4:], uint32(tex.Format))
		binary.BigEndian.PutUint32(h[8:], uint32(data))
		binary.BigEndian.PutUint32(h[12:], uint32(tex.WrapS))
		binary.BigEndian.PutUint32(h[16:], uint32(tex.WrapT))
		binary.BigEndian.PutUint32(h[20:], uint32(formats.TPLFilterLinear))
		binary.BigEndian.PutUint32(h[24:], uint32(formats.TPLFilterLinear))
	}

	return out
}

// SolidRGB565 returns a 4x4 RGB565 texture filled with one color.
func SolidRGB565(color uint16) TPLTexture {
	data := make([]byte, 32)
	for i := 0; i < 16; i++ {
		binary.BigEndian.PutUint16(data[i*2:], color)
	}
	return TPLTexture{Width: 4, Height: 4, Format: formats.TPLFormatRGB565, Data: data}
}

func align(b []byte, n int) []byte {
	for len(b)%n != 0 {
		b = append(b, 0)
	}
	return b
}
