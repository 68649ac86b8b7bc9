package texcodec

import (
	"fmt"

	"github.com/Faultbox/pmviewer/pkg/bin"
	"github.com/Faultbox/pmviewer/pkg/pixbuf"
)

// Palette holds the 16-bit entries used by C4, C8 and C14X2 textures.
type Palette struct {
	Format  Encoding // IA8, RGB565 or RGB5A3
	Entries []uint16
}

// DecodePalette reads count big-endian entries at off.
func DecodePalette(buf []byte, off, count int, format Encoding) (*Palette, error) {
	switch format {
	case IA8, RGB565, RGB5A3:
	default:
		return nil, &UnsupportedFormatError{Format: int(format), Name: format.String()}
	}

	pal := &Palette{Format: format, Entries: make([]uint16, count)}
	for i := range pal.Entries {
		v, err := bin.U16(buf, off+i*2)
		if err != nil {
			return nil, fmt.Errorf("palette entry %d: %w", i, err)
		}
		pal.Entries[i] = v
	}
	return pal, nil
}

// Color returns entry i decoded, or transparent black when i is out of range.
func (p *Palette) Color(i int) pixbuf.Color {
	if p == nil || i < 0 || i >= len(p.Entries) {
		return pixbuf.Color{}
	}
	v := p.Entries[i]
	switch p.Format {
	case IA8:
		return DecodeIA8(v)
	case RGB565:
		return DecodeRGB565(v)
	case RGB5A3:
		return DecodeRGB5A3(v)
	}
	return pixbuf.Color{}
}
