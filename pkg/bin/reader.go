package bin

// Reader decodes a record at a fixed base offset and remembers the first
// failure. Once failed, every read returns the zero value, so a record
// decoder can read all its fields and check Err once.
type Reader struct {
	buf  []byte
	base int
	err  error
}

// NewReader returns a Reader over buf whose offsets are relative to base.
func NewReader(buf []byte, base int) *Reader {
	return &Reader{buf: buf, base: base}
}

// Err returns the first error encountered.
func (r *Reader) Err() error {
	return r.err
}

// Base returns the absolute offset the reader is anchored at.
func (r *Reader) Base() int {
	return r.base
}

// At returns a reader for the same buffer anchored at another absolute offset.
// The sticky error is not carried over.
func (r *Reader) At(base int) *Reader {
	return &Reader{buf: r.buf, base: base}
}

func (r *Reader) fail(err error) bool {
	if r.err != nil {
		return true
	}
	if err != nil {
		r.err = err
		return true
	}
	return false
}

// U8 reads an unsigned byte at base+off.
func (r *Reader) U8(off int) uint8 {
	if r.err != nil {
		return 0
	}
	v, err := U8(r.buf, r.base+off)
	if r.fail(err) {
		return 0
	}
	return v
}

// S8 reads a signed byte at base+off.
func (r *Reader) S8(off int) int8 {
	return int8(r.U8(off))
}

// U16 reads a uint16 at base+off.
func (r *Reader) U16(off int) uint16 {
	if r.err != nil {
		return 0
	}
	v, err := U16(r.buf, r.base+off)
	if r.fail(err) {
		return 0
	}
	return v
}

// S16 reads an int16 at base+off.
func (r *Reader) S16(off int) int16 {
	return int16(r.U16(off))
}

// U32 reads a uint32 at base+off.
func (r *Reader) U32(off int) uint32 {
	if r.err != nil {
		return 0
	}
	v, err := U32(r.buf, r.base+off)
	if r.fail(err) {
		return 0
	}
	return v
}

// S32 reads an int32 at base+off.
func (r *Reader) S32(off int) int32 {
	return int32(r.U32(off))
}

// F32 reads a float32 at base+off.
func (r *Reader) F32(off int) float32 {
	if r.err != nil {
		return 0
	}
	v, err := F32(r.buf, r.base+off)
	if r.fail(err) {
		return 0
	}
	return v
}

// Vec3 reads three consecutive float32 values at base+off.
func (r *Reader) Vec3(off int) [3]float32 {
	return [3]float32{r.F32(off), r.F32(off + 4), r.F32(off + 8)}
}

// String reads a NUL-terminated string of at most maxLen bytes at base+off.
func (r *Reader) String(off, maxLen int) string {
	if r.err != nil {
		return ""
	}
	v, err := String(r.buf, r.base+off, maxLen)
	if r.fail(err) {
		return ""
	}
	return v
}

// Bytes copies n bytes at base+off.
func (r *Reader) Bytes(off, n int) []byte {
	if r.err != nil {
		return nil
	}
	v, err := Bytes(r.buf, r.base+off, n)
	if r.fail(err) {
		return nil
	}
	return v
}
