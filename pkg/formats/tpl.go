// TPL texture container parser.
package formats

import (
	"errors"
	"fmt"

	"github.com/Faultbox/pmviewer/pkg/bin"
	"github.com/Faultbox/pmviewer/pkg/pixbuf"
	"github.com/Faultbox/pmviewer/pkg/texcodec"
)

// TPLMagic is the first word of every TPL file.
const TPLMagic = 0x0020AF30

// TPL format errors.
var (
	ErrInvalidTPLMagic  = errors.New("invalid TPL magic: expected 0x0020AF30")
	ErrTruncatedTPLData = errors.New("truncated TPL data")
)

const (
	tplHeaderSize        = 12
	tplTextureHeaderSize = 36
	tplPaletteHeaderSize = 12
)

// TPLFormat is the on-disk texel format code.
type TPLFormat uint32

const (
	TPLFormatI4     TPLFormat = 0
	TPLFormatI8     TPLFormat = 1
	TPLFormatIA4    TPLFormat = 2
	TPLFormatIA8    TPLFormat = 3
	TPLFormatRGB565 TPLFormat = 4
	TPLFormatRGB5A3 TPLFormat = 5
	TPLFormatRGBA8  TPLFormat = 6
	TPLFormatC4     TPLFormat = 8
	TPLFormatC8     TPLFormat = 9
	TPLFormatC14X2  TPLFormat = 10
	TPLFormatCMPR   TPLFormat = 14
)

var tplFormatEncodings = map[TPLFormat]texcodec.Encoding{
	TPLFormatI4:     texcodec.I4,
	TPLFormatI8:     texcodec.I8,
	TPLFormatIA4:    texcodec.IA4,
	TPLFormatIA8:    texcodec.IA8,
	TPLFormatRGB565: texcodec.RGB565,
	TPLFormatRGB5A3: texcodec.RGB5A3,
	TPLFormatRGBA8:  texcodec.RGBA8,
	TPLFormatC4:     texcodec.C4,
	TPLFormatC8:     texcodec.C8,
	TPLFormatC14X2:  texcodec.C14X2,
	TPLFormatCMPR:   texcodec.CMPR,
}

// Encoding maps the format code to a codec encoding.
func (f TPLFormat) Encoding() (texcodec.Encoding, error) {
	enc, ok := tplFormatEncodings[f]
	if !ok {
		return 0, &texcodec.UnsupportedFormatError{Format: int(f)}
	}
	return enc, nil
}

func (f TPLFormat) String() string {
	if enc, ok := tplFormatEncodings[f]; ok {
		return enc.String()
	}
	return fmt.Sprintf("Unknown(%d)", uint32(f))
}

// TPLWrap is a texture coordinate wrap mode.
type TPLWrap uint32

const (
	TPLWrapClamp  TPLWrap = 0
	TPLWrapRepeat TPLWrap = 1
	TPLWrapMirror TPLWrap = 2
)

func (w TPLWrap) String() string {
	switch w {
	case TPLWrapClamp:
		return "Clamp"
	case TPLWrapRepeat:
		return "Repeat"
	case TPLWrapMirror:
		return "Mirror"
	default:
		return fmt.Sprintf("Unknown(%d)", uint32(w))
	}
}

// TPLFilter is a texture sampling filter.
type TPLFilter uint32

const (
	TPLFilterNear            TPLFilter = 0
	TPLFilterLinear          TPLFilter = 1
	TPLFilterNearMipNear     TPLFilter = 2
	TPLFilterLinearMipNear   TPLFilter = 3
	TPLFilterNearMipLinear   TPLFilter = 4
	TPLFilterLinearMipLinear TPLFilter = 5
)

// Linear reports whether magnification should interpolate.
func (f TPLFilter) Linear() bool {
	return f == TPLFilterLinear || f == TPLFilterLinearMipNear || f == TPLFilterLinearMipLinear
}

// TPLPalette is the palette header of a C4/C8/C14X2 texture.
type TPLPalette struct {
	Count      uint16
	Unpacked   uint8
	Format     uint32 // 0 IA8, 1 RGB565, 2 RGB5A3
	DataOffset uint32
}

// Encoding maps the palette format code to a codec encoding.
func (p *TPLPalette) Encoding() (texcodec.Encoding, error) {
	switch p.Format {
	case 0:
		return texcodec.IA8, nil
	case 1:
		return texcodec.RGB565, nil
	case 2:
		return texcodec.RGB5A3, nil
	}
	return 0, &texcodec.UnsupportedFormatError{Format: int(p.Format), Name: "palette"}
}

// TPLTexture is one texture header.
type TPLTexture struct {
	Width      uint16
	Height     uint16
	Format     TPLFormat
	DataOffset uint32
	WrapS      TPLWrap
	WrapT      TPLWrap
	MinFilter  TPLFilter
	MagFilter  TPLFilter
	LODBias    float32
	EdgeLOD    uint8
	MinLOD     uint8
	MaxLOD     uint8
	Unpacked   uint8
	Palette    *TPLPalette // nil unless the texture is paletted
}

// TPL is a parsed texture container. Texel data is decoded on demand.
type TPL struct {
	Textures []TPLTexture

	data []byte
}

// ParseTPL parses the container headers.
func ParseTPL(data []byte) (*TPL, error) {
	if len(data) < tplHeaderSize {
		return nil, ErrTruncatedTPLData
	}

	r := bin.NewReader(data, 0)
	if r.U32(0) != TPLMagic {
		return nil, ErrInvalidTPLMagic
	}
	count := int(r.U32(4))
	tableOff := int(r.U32(8))

	if tableOff < 0 || count < 0 || count > (len(data)-tableOff)/8 {
		return nil, fmt.Errorf("%w: %d textures at offset %d", ErrTruncatedTPLData, count, tableOff)
	}

	tpl := &TPL{
		Textures: make([]TPLTexture, count),
		data:     data,
	}

	for i := 0; i < count; i++ {
		headerOff := int(r.U32(tableOff + i*8))
		paletteOff := int(r.U32(tableOff + i*8 + 4))

		tex, err := parseTPLTexture(data, headerOff, paletteOff)
		if err != nil {
			return nil, fmt.Errorf("texture %d: %w", i, err)
		}
		tpl.Textures[i] = tex
	}

	return tpl, nil
}

func parseTPLTexture(data []byte, headerOff, paletteOff int) (TPLTexture, error) {
	r := bin.NewReader(data, headerOff)
	tex := TPLTexture{
		Height:     r.U16(0),
		Width:      r.U16(2),
		Format:     TPLFormat(r.U32(4)),
		DataOffset: r.U32(8),
		WrapS:      TPLWrap(r.U32(12)),
		WrapT:      TPLWrap(r.U32(16)),
		MinFilter:  TPLFilter(r.U32(20)),
		MagFilter:  TPLFilter(r.U32(24)),
		LODBias:    r.F32(28),
		EdgeLOD:    r.U8(32),
		MinLOD:     r.U8(33),
		MaxLOD:     r.U8(34),
		Unpacked:   r.U8(35),
	}
	if err := r.Err(); err != nil {
		return tex, fmt.Errorf("%w: header: %v", ErrTruncatedTPLData, err)
	}

	if paletteOff != 0 {
		p := bin.NewReader(data, paletteOff)
		tex.Palette = &TPLPalette{
			Count:      p.U16(0),
			Unpacked:   p.U8(2),
			Format:     p.U32(4),
			DataOffset: p.U32(8),
		}
		if err := p.Err(); err != nil {
			return tex, fmt.Errorf("%w: palette header: %v", ErrTruncatedTPLData, err)
		}
	}

	return tex, nil
}

// Params returns the codec parameters for a texture, decoding its palette
// from data when it has one.
func (t *TPLTexture) Params(data []byte) (texcodec.Params, error) {
	enc, err := t.Format.Encoding()
	if err != nil {
		return texcodec.Params{}, err
	}
	p := texcodec.DefaultParams(enc, int(t.Width), int(t.Height))

	if enc.Paletted() {
		if t.Palette == nil {
			return p, texcodec.ErrMissingPalette
		}
		palEnc, err := t.Palette.Encoding()
		if err != nil {
			return p, err
		}
		pal, err := texcodec.DecodePalette(data, int(t.Palette.DataOffset), int(t.Palette.Count), palEnc)
		if err != nil {
			return p, err
		}
		p.Palette = pal
	}
	return p, nil
}

// Len returns the number of textures.
func (t *TPL) Len() int {
	return len(t.Textures)
}

// Decode decodes texture i into an RGBA8 image.
func (t *TPL) Decode(i int) (*pixbuf.Image, error) {
	if i < 0 || i >= len(t.Textures) {
		return nil, fmt.Errorf("%w: texture %d of %d", ErrIndexOutOfRange, i, len(t.Textures))
	}
	tex := &t.Textures[i]
	p, err := tex.Params(t.data)
	if err != nil {
		return nil, fmt.Errorf("texture %d: %w", i, err)
	}
	img, err := texcodec.Decode(t.data, int(tex.DataOffset), p)
	if err != nil {
		return nil, fmt.Errorf("texture %d: %w", i, err)
	}
	return img, nil
}

// DecodeAll decodes every texture. It stops at the first failure.
func (t *TPL) DecodeAll() ([]*pixbuf.Image, error) {
	images := make([]*pixbuf.Image, len(t.Textures))
	for i := range t.Textures {
		img, err := t.Decode(i)
		if err != nil {
			return nil, err
		}
		images[i] = img
	}
	return images, nil
}
