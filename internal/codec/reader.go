package codec

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// maxStringLen bounds length-prefixed strings so a corrupt prefix cannot
// trigger a huge allocation.
const maxStringLen = 1 << 20

// Reader decodes a save record. The first failure is sticky: every later
// read returns a zero value and Err reports the original cause, so decoders
// can read a whole structure and check once.
type Reader struct {
	data    []byte
	off     int
	version int32
	err     error
}

func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Version is the record format version being decoded. Payload decoders
// consult it to decide which fields are present.
func (r *Reader) Version() int32 { return r.version }

// SetVersion records the format version once the record header is parsed.
func (r *Reader) SetVersion(v int32) { r.version = v }

// Err returns the first decode failure, or nil.
func (r *Reader) Err() error { return r.err }

// Fail records err unless an earlier failure is already stored.
func (r *Reader) Fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

func (r *Reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.off+n > len(r.data) {
		r.err = fmt.Errorf("read %d bytes at offset %d of %d: %w", n, r.off, len(r.data), io.ErrUnexpectedEOF)
		r.off = len(r.data)
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

// ReadInt32 reads 4 bytes as little-endian int32.
func (r *Reader) ReadInt32() int32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return int32(binary.LittleEndian.Uint32(b))
}

// ReadFloat32 reads an IEEE-754 32-bit float.
func (r *Reader) ReadFloat32() float32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}

// ReadVec3 reads x, y, z.
func (r *Reader) ReadVec3() mgl32.Vec3 {
	return mgl32.Vec3{r.ReadFloat32(), r.ReadFloat32(), r.ReadFloat32()}
}

// ReadQuat reads x, y, z, w.
func (r *Reader) ReadQuat() mgl32.Quat {
	x, y, z := r.ReadFloat32(), r.ReadFloat32(), r.ReadFloat32()
	return mgl32.Quat{W: r.ReadFloat32(), V: mgl32.Vec3{x, y, z}}
}

// ReadColor reads r, g, b, a.
func (r *Reader) ReadColor() mgl32.Vec4 {
	return mgl32.Vec4{r.ReadFloat32(), r.ReadFloat32(), r.ReadFloat32(), r.ReadFloat32()}
}

// ReadString reads an int32 length-prefixed string.
func (r *Reader) ReadString() string {
	n := r.ReadInt32()
	if r.err != nil {
		return ""
	}
	if n < 0 || n > maxStringLen {
		r.Fail(fmt.Errorf("string length %d out of range", n))
		return ""
	}
	return string(r.take(int(n)))
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.off
}
