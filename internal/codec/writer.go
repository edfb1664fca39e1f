// Package codec implements the little-endian primitive encoding shared by
// save records and the scene payloads embedded in them.
package codec

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Writer builds a save record. All multi-byte writes are little-endian and
// floats are IEEE-754 32-bit.
type Writer struct {
	buf []byte
}

func NewWriter() *Writer {
	return &Writer{buf: make([]byte, 0, 1024)}
}

// WriteInt32 writes 4 bytes little-endian.
func (w *Writer) WriteInt32(v int32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, uint32(v))
}

// WriteFloat32 writes the IEEE-754 bits of v.
func (w *Writer) WriteFloat32(v float32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, math.Float32bits(v))
}

// WriteVec3 writes x, y, z.
func (w *Writer) WriteVec3(v mgl32.Vec3) {
	w.WriteFloat32(v[0])
	w.WriteFloat32(v[1])
	w.WriteFloat32(v[2])
}

// WriteQuat writes x, y, z, w.
func (w *Writer) WriteQuat(q mgl32.Quat) {
	w.WriteFloat32(q.V[0])
	w.WriteFloat32(q.V[1])
	w.WriteFloat32(q.V[2])
	w.WriteFloat32(q.W)
}

// WriteColor writes r, g, b, a.
func (w *Writer) WriteColor(c mgl32.Vec4) {
	w.WriteFloat32(c[0])
	w.WriteFloat32(c[1])
	w.WriteFloat32(c[2])
	w.WriteFloat32(c[3])
}

// WriteString writes an int32 byte length followed by the raw bytes.
func (w *Writer) WriteString(s string) {
	w.WriteInt32(int32(len(s)))
	w.buf = append(w.buf, s...)
}

// Bytes returns the encoded record.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int {
	return len(w.buf)
}
