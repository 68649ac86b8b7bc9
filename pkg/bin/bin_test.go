package bin

import (
	"errors"
	"testing"
)

func TestPrimitives(t *testing.T) {
	buf := []byte{
		0x12, 0x34, 0x56, 0x78, // 0
		0xFF, 0xFE, 0x80, 0x00, // 4
		0x3F, 0x80, 0x00, 0x00, // 8: 1.0f
		0xC0, 0x00, 0x00, 0x00, // 12: -2.0f
	}

	if v, err := U8(buf, 0); err != nil || v != 0x12 {
		t.Errorf("U8 = %#x, %v", v, err)
	}
	if v, err := U16(buf, 0); err != nil || v != 0x1234 {
		t.Errorf("U16 = %#x, %v", v, err)
	}
	if v, err := U32(buf, 0); err != nil || v != 0x12345678 {
		t.Errorf("U32 = %#x, %v", v, err)
	}
	if v, err := S8(buf, 4); err != nil || v != -1 {
		t.Errorf("S8 = %d, %v", v, err)
	}
	if v, err := S16(buf, 4); err != nil || v != -2 {
		t.Errorf("S16 = %d, %v", v, err)
	}
	if v, err := S32(buf, 4); err != nil || v != -98304 {
		t.Errorf("S32 = %d, %v", v, err)
	}
	if v, err := F32(buf, 8); err != nil || v != 1.0 {
		t.Errorf("F32 = %f, %v", v, err)
	}
	if v, err := F32(buf, 12); err != nil || v != -2.0 {
		t.Errorf("F32 = %f, %v", v, err)
	}
}

func TestOutOfRange(t *testing.T) {
	buf := make([]byte, 4)

	tests := []struct {
		name string
		read func() error
	}{
		{"u8 past end", func() error { _, err := U8(buf, 4); return err }},
		{"u16 straddles end", func() error { _, err := U16(buf, 3); return err }},
		{"u32 straddles end", func() error { _, err := U32(buf, 1); return err }},
		{"negative offset", func() error { _, err := U32(buf, -1); return err }},
		{"f32 empty", func() error { _, err := F32(nil, 0); return err }},
		{"bytes too long", func() error { _, err := Bytes(buf, 2, 3); return err }},
		{"string start past end", func() error { _, err := String(buf, 5, 8); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.read(); !errors.Is(err, ErrOutOfRange) {
				t.Errorf("expected ErrOutOfRange, got %v", err)
			}
		})
	}

	if _, err := U32(buf, 0); err != nil {
		t.Errorf("exact fit should succeed: %v", err)
	}
}

func TestString(t *testing.T) {
	buf := []byte("abc\x00def\x00\x00ghij")

	tests := []struct {
		name   string
		off    int
		maxLen int
		want   string
	}{
		{"nul terminated", 0, 64, "abc"},
		{"max length cut", 4, 2, "de"},
		{"empty", 8, 4, ""},
		{"runs to end of buffer", 9, 64, "ghij"},
		{"at end of buffer", len(buf), 4, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := String(buf, tt.off, tt.maxLen)
			if err != nil {
				t.Fatalf("String: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReaderSticky(t *testing.T) {
	buf := []byte{0, 0, 0, 7, 0x41, 0x42, 0, 0}

	r := NewReader(buf, 0)
	if v := r.U32(0); v != 7 {
		t.Errorf("U32 = %d, want 7", v)
	}
	if s := r.String(4, 4); s != "AB" {
		t.Errorf("String = %q, want AB", s)
	}
	if r.Err() != nil {
		t.Fatalf("unexpected error: %v", r.Err())
	}

	if v := r.U32(6); v != 0 {
		t.Errorf("failed read should return 0, got %d", v)
	}
	if !errors.Is(r.Err(), ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", r.Err())
	}

	// Reads after a failure return zero even when in range.
	if v := r.U32(0); v != 0 {
		t.Errorf("read after failure = %d, want 0", v)
	}

	at := r.At(4)
	if at.Err() != nil {
		t.Error("At should start without an error")
	}
	if v := at.U8(1); v != 0x42 {
		t.Errorf("At(4).U8(1) = %#x, want 0x42", v)
	}
}
