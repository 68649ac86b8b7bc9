package texcodec

import (
	"encoding/binary"
	"fmt"

	"github.com/Faultbox/pmviewer/pkg/bin"
	"github.com/Faultbox/pmviewer/pkg/pixbuf"
)

// TileSize returns the tile width and height in pixels for a tiled encoding.
// tileBpp is the encoding's bits per pixel divided by the cache lines per tile.
func TileSize(tileBpp, cacheLineSize int) (w, h int, ok bool) {
	switch tileBpp {
	case 1, 2:
		w = cacheLineSize / 2
	case 4, 8:
		w = cacheLineSize / 4
	case 16, 32:
		w = cacheLineSize / 8
	default:
		return 0, 0, false
	}
	h = cacheLineSize * 8 / (w * tileBpp)
	return w, h, true
}

// TiledSize returns the number of bytes a tiled texture occupies.
func TiledSize(p Params) (int, error) {
	p = p.normalized()
	bpp := p.Encoding.BitsPerPixel()
	tileBpp := bpp / p.CacheLinesPerTile
	tw, th, ok := TileSize(tileBpp, p.CacheLineSize)
	if bpp == 0 || !ok || p.Encoding == CMPR {
		return 0, &UnsupportedFormatError{Format: int(p.Encoding), Name: p.Encoding.String()}
	}
	tilesWide := (p.Width + tw - 1) / tw
	tilesHigh := (p.Height + th - 1) / th
	return tilesWide * tilesHigh * p.CacheLineSize * p.CacheLinesPerTile, nil
}

// DecodeTiled decodes a tiled (non-CMPR) texture.
//
// Tiles are stored row-major; texels are row-major inside a tile. The
// virtual image is padded to whole tiles and padding texels are skipped.
func DecodeTiled(buf []byte, off int, p Params) (*pixbuf.Image, error) {
	p = p.normalized()

	size, err := TiledSize(p)
	if err != nil {
		return nil, err
	}
	if p.Encoding.Paletted() && p.Palette == nil {
		return nil, ErrMissingPalette
	}
	if off < 0 || off > len(buf)-size {
		return nil, fmt.Errorf("%w: %s texture %dx%d needs %d bytes at offset %d (buffer %d)",
			bin.ErrOutOfRange, p.Encoding, p.Width, p.Height, size, off, len(buf))
	}

	line := p.CacheLineSize
	tileBpp := p.Encoding.BitsPerPixel() / p.CacheLinesPerTile
	tw, th, _ := TileSize(tileBpp, line)
	tileBytes := line * p.CacheLinesPerTile
	tilesWide := (p.Width + tw - 1) / tw
	tilesHigh := (p.Height + th - 1) / th

	img := pixbuf.New(p.Width, p.Height, pixbuf.RGBA8)

	for ty := 0; ty < tilesHigh; ty++ {
		for tx := 0; tx < tilesWide; tx++ {
			tile := off + (ty*tilesWide+tx)*tileBytes
			for b := 0; b < th; b++ {
				y := ty*th + b
				if y >= p.Height {
					break
				}
				for a := 0; a < tw; a++ {
					x := tx*tw + a
					if x >= p.Width {
						break
					}
					bit := (b*tw + a) * tileBpp
					img.Set(x, y, texel(buf, tile+bit/8, bit&7, line, p))
				}
			}
		}
	}

	return img, nil
}

// texel decodes the texel at byte offset pos. shift is the bit position
// inside that byte for sub-byte encodings; 0 selects the high nibble.
func texel(buf []byte, pos, shift, line int, p Params) pixbuf.Color {
	switch p.Encoding {
	case I4:
		return gray(expand4(nibble(buf[pos], shift)))
	case I8:
		return gray(buf[pos])
	case IA4:
		return DecodeIA4(buf[pos])
	case IA8:
		return DecodeIA8(binary.BigEndian.Uint16(buf[pos:]))
	case RGB0555:
		return DecodeRGB0555(binary.BigEndian.Uint16(buf[pos:]))
	case RGB565:
		return DecodeRGB565(binary.BigEndian.Uint16(buf[pos:]))
	case RGB4A3:
		return DecodeRGB4A3(binary.BigEndian.Uint16(buf[pos:]))
	case RGB5A3:
		return DecodeRGB5A3(binary.BigEndian.Uint16(buf[pos:]))
	case RGBA8:
		ar := binary.BigEndian.Uint16(buf[pos:])
		gb := binary.BigEndian.Uint16(buf[pos+line:])
		return pixbuf.Color{R: uint8(ar), G: uint8(gb >> 8), B: uint8(gb), A: uint8(ar >> 8)}
	case C4:
		return p.Palette.Color(int(nibble(buf[pos], shift)))
	case C8:
		return p.Palette.Color(int(buf[pos]))
	case C14X2:
		return p.Palette.Color(int(binary.BigEndian.Uint16(buf[pos:]) & 0x3FFF))
	}
	return pixbuf.Color{}
}

func nibble(b uint8, shift int) uint8 {
	if shift == 0 {
		return b >> 4
	}
	return b & 0x0F
}
