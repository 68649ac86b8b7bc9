// Package bin reads big-endian primitives at absolute offsets in a byte buffer.
//
// Every container in the game data is addressed by absolute offsets into a
// single buffer, so the helpers take (buf, off) rather than a stream.
package bin

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ErrOutOfRange is returned when a read would run past the buffer.
var ErrOutOfRange = errors.New("read out of range")

func check(buf []byte, off, width int) error {
	if off < 0 || width < 0 || off > len(buf)-width {
		return fmt.Errorf("%w: offset %d width %d (buffer %d)", ErrOutOfRange, off, width, len(buf))
	}
	return nil
}

// U8 reads an unsigned byte.
func U8(buf []byte, off int) (uint8, error) {
	if err := check(buf, off, 1); err != nil {
		return 0, err
	}
	return buf[off], nil
}

// S8 reads a signed byte.
func S8(buf []byte, off int) (int8, error) {
	v, err := U8(buf, off)
	return int8(v), err
}

// U16 reads a big-endian uint16.
func U16(buf []byte, off int) (uint16, error) {
	if err := check(buf, off, 2); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(buf[off:]), nil
}

// S16 reads a big-endian int16.
func S16(buf []byte, off int) (int16, error) {
	v, err := U16(buf, off)
	return int16(v), err
}

// U32 reads a big-endian uint32.
func U32(buf []byte, off int) (uint32, error) {
	if err := check(buf, off, 4); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf[off:]), nil
}

// S32 reads a big-endian int32.
func S32(buf []byte, off int) (int32, error) {
	v, err := U32(buf, off)
	return int32(v), err
}

// F32 reads a big-endian IEEE-754 single by reinterpreting the bits.
func F32(buf []byte, off int) (float32, error) {
	v, err := U32(buf, off)
	return math.Float32frombits(v), err
}

// String reads a NUL-terminated string of at most maxLen bytes.
// A string that reaches the end of the buffer is cut there; only a start
// offset outside the buffer is an error.
func String(buf []byte, off, maxLen int) (string, error) {
	if off < 0 || off > len(buf) {
		return "", fmt.Errorf("%w: string at offset %d (buffer %d)", ErrOutOfRange, off, len(buf))
	}
	end := off + maxLen
	if maxLen < 0 || end > len(buf) {
		end = len(buf)
	}
	s := buf[off:end]
	for i, c := range s {
		if c == 0 {
			return string(s[:i]), nil
		}
	}
	return string(s), nil
}

// Bytes returns a copy of n bytes at off.
func Bytes(buf []byte, off, n int) ([]byte, error) {
	if err := check(buf, off, n); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, buf[off:off+n])
	return out, nil
}
