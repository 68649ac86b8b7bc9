package formats_test

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/Faultbox/pmviewer/pkg/formats"
	"github.com/Faultbox/pmviewer/pkg/formats/formatstest"
	"github.com/Faultbox/pmviewer/pkg/pixbuf"
	"github.com/Faultbox/pmviewer/pkg/texcodec"
)

func TestParseTPL(t *testing.T) {
	solid := formatstest.SolidRGB565(0xF800)
	solid.WrapS = formats.TPLWrapRepeat
	solid.WrapT = formats.TPLWrapMirror

	data := formatstest.BuildTPL(solid)
	tpl, err := formats.ParseTPL(data)
	if err != nil {
		t.Fatalf("ParseTPL: %v", err)
	}
	if tpl.Len() != 1 {
		t.Fatalf("Len = %d, want 1", tpl.Len())
	}

	tex := tpl.Textures[0]
	if tex.Width != 4 || tex.Height != 4 || tex.Format != formats.TPLFormatRGB565 {
		t.Errorf("header = %dx%d %s", tex.Width, tex.Height, tex.Format)
	}
	if tex.WrapS != formats.TPLWrapRepeat || tex.WrapT != formats.TPLWrapMirror {
		t.Errorf("wrap = %s/%s", tex.WrapS, tex.WrapT)
	}
	if !tex.MagFilter.Linear() {
		t.Error("expected linear mag filter")
	}
	if tex.Palette != nil {
		t.Error("unpaletted texture should have no palette header")
	}
	if tex.DataOffset%32 != 0 {
		t.Errorf("data offset %d not 32-byte aligned", tex.DataOffset)
	}
}

func TestTPLDecode(t *testing.T) {
	tpl, err := formats.ParseTPL(formatstest.BuildTPL(
		formatstest.SolidRGB565(0xF800),
		formatstest.SolidRGB565(0x001F),
	))
	if err != nil {
		t.Fatalf("ParseTPL: %v", err)
	}

	images, err := tpl.DecodeAll()
	if err != nil {
		t.Fatalf("DecodeAll: %v", err)
	}
	want := []pixbuf.Color{{R: 255, A: 255}, {B: 255, A: 255}}
	for i, img := range images {
		if img.Width() != 4 || img.Height() != 4 || img.Format() != pixbuf.RGBA8 {
			t.Errorf("image %d: %dx%d %s", i, img.Width(), img.Height(), img.Format())
		}
		if got := img.Get(3, 3); got != want[i] {
			t.Errorf("image %d pixel = %+v, want %+v", i, got, want[i])
		}
	}

	if _, err := tpl.Decode(2); !errors.Is(err, formats.ErrIndexOutOfRange) {
		t.Errorf("expected ErrIndexOutOfRange, got %v", err)
	}
}

func TestTPLDecodePaletted(t *testing.T) {
	// 8x8 C4 is exactly one 32-byte tile; every texel selects entry 1
	data := make([]byte, 32)
	for i := range data {
		data[i] = 0x11
	}
	tex := formatstest.TPLTexture{
		Width:   8,
		Height:  8,
		Format:  formats.TPLFormatC4,
		Data:    data,
		Palette: &formatstest.TPLPalette{Format: 1, Entries: []uint16{0x0000, 0x07E0}},
	}

	tpl, err := formats.ParseTPL(formatstest.BuildTPL(tex))
	if err != nil {
		t.Fatalf("ParseTPL: %v", err)
	}
	pal := tpl.Textures[0].Palette
	if pal == nil || pal.Count != 2 || pal.Format != 1 {
		t.Fatalf("palette header = %+v", pal)
	}

	img, err := tpl.Decode(0)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got := img.Get(5, 6); got != (pixbuf.Color{G: 255, A: 255}) {
		t.Errorf("pixel = %+v, want green", got)
	}
}

func TestTPLDecodeErrors(t *testing.T) {
	unknown := formatstest.SolidRGB565(0)
	unknown.Format = 7

	noPalette := formatstest.SolidRGB565(0)
	noPalette.Format = formats.TPLFormatC8

	badPalette := formatstest.SolidRGB565(0)
	badPalette.Format = formats.TPLFormatC4
	badPalette.Palette = &formatstest.TPLPalette{Format: 9, Entries: []uint16{0}}

	tests := []struct {
		name    string
		tex     formatstest.TPLTexture
		wantErr error
	}{
		{"unknown format", unknown, texcodec.ErrUnsupportedFormat},
		{"missing palette", noPalette, texcodec.ErrMissingPalette},
		{"unknown palette format", badPalette, texcodec.ErrUnsupportedFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tpl, err := formats.ParseTPL(formatstest.BuildTPL(tt.tex))
			if err != nil {
				t.Fatalf("ParseTPL: %v", err)
			}
			if _, err := tpl.Decode(0); !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestParseTPLErrors(t *testing.T) {
	valid := formatstest.BuildTPL(formatstest.SolidRGB565(0))

	badMagic := append([]byte(nil), valid...)
	badMagic[0] = 0xFF

	manyTextures := append([]byte(nil), valid...)
	binary.BigEndian.PutUint32(manyTextures[4:], 1000)

	badHeader := append([]byte(nil), valid...)
	binary.BigEndian.PutUint32(badHeader[12:], uint32(len(valid)))

	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{"empty", nil, formats.ErrTruncatedTPLData},
		{"bad magic", badMagic, formats.ErrInvalidTPLMagic},
		{"texture table overflow", manyTextures, formats.ErrTruncatedTPLData},
		{"header past end", badHeader, formats.ErrTruncatedTPLData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := formats.ParseTPL(tt.data); !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestTPLFormatString(t *testing.T) {
	tests := []struct {
		f    formats.TPLFormat
		want string
	}{
		{formats.TPLFormatI4, "I4"},
		{formats.TPLFormatCMPR, "CMPR"},
		{formats.TPLFormatC14X2, "C14X2"},
		{7, "Unknown(7)"},
	}
	for _, tt := range tests {
		if got := tt.f.String(); got != tt.want {
			t.Errorf("TPLFormat(%d).String() = %q, want %q", uint32(tt.f), got, tt.want)
		}
	}
}
