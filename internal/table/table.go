// Package table provides bounds-checked access to FlatBuffers tables and
// vectors.
//
// The generated accessors in internal/fb trust their input and panic (or read
// unrelated bytes) when offsets are corrupt. Table validates every offset it
// follows so untrusted buffers fail with an error instead.
package table

import (
	"errors"
	"fmt"

	flatbuffers "github.com/google/flatbuffers/go"
)

// Sentinel errors for buffer access.
var (
	// ErrOutOfBounds is returned when an offset resolves outside the buffer.
	ErrOutOfBounds = errors.New("propbag: offset out of bounds")

	// ErrMalformed is returned when a table or vtable is structurally invalid.
	ErrMalformed = errors.New("propbag: malformed buffer")

	// ErrIndexOutOfRange is returned when a vector index is outside [0, len).
	ErrIndexOutOfRange = errors.New("propbag: index out of range")
)

// MaxFields is the largest field count a Table caches.
const MaxFields = 3

const (
	sizeUOffset = uint64(flatbuffers.SizeUOffsetT)
	sizeVOffset = uint64(flatbuffers.SizeVOffsetT)

	// vtable header: vtable byte length + inline object size.
	vtableHeader = 2 * sizeVOffset
)

// Table is a validated view of one FlatBuffers table.
//
// The vtable is read once by Open; slots maps field slot numbers to the byte
// offset of the field inside the table, or 0 when the field is absent from
// this instance.
type Table struct {
	buf     []byte
	pos     uint32
	objSize uint32
	nfields int
	slots   [MaxFields]uint16
}

// Indirect follows the unsigned offset stored at off and returns the absolute
// position it points to.
func Indirect(buf []byte, off uint32) (uint32, error) {
	if uint64(off)+sizeUOffset > uint64(len(buf)) {
		return 0, fmt.Errorf("%w: uoffset at %d, buffer is %d bytes", ErrOutOfBounds, off, len(buf))
	}
	target := uint64(off) + uint64(flatbuffers.GetUOffsetT(buf[off:]))
	if target >= uint64(len(buf)) {
		return 0, fmt.Errorf("%w: uoffset at %d points to %d, buffer is %d bytes", ErrOutOfBounds, off, target, len(buf))
	}
	return uint32(target), nil //nolint:gosec // bounded by len(buf) above
}

// Open validates the table at pos and caches the slot offsets of its first
// nfields fields. Fields present in the vtable beyond nfields are ignored.
func Open(buf []byte, pos uint32, nfields int) (Table, error) {
	if nfields < 0 || nfields > MaxFields {
		panic(fmt.Sprintf("table: field count %d outside [0, %d]", nfields, MaxFields))
	}
	n := uint64(len(buf))
	if uint64(pos)+sizeUOffset > n {
		return Table{}, fmt.Errorf("%w: table at %d, buffer is %d bytes", ErrOutOfBounds, pos, n)
	}

	vt := int64(pos) - int64(flatbuffers.GetSOffsetT(buf[pos:]))
	if vt < 0 || uint64(vt)+vtableHeader > n {
		return Table{}, fmt.Errorf("%w: vtable for table at %d resolves to %d", ErrOutOfBounds, pos, vt)
	}
	vtLen := uint64(flatbuffers.GetVOffsetT(buf[vt:]))
	objSize := uint64(flatbuffers.GetVOffsetT(buf[vt+int64(sizeVOffset):]))
	if vtLen < vtableHeader || vtLen%sizeVOffset != 0 {
		return Table{}, fmt.Errorf("%w: vtable at %d has length %d", ErrMalformed, vt, vtLen)
	}
	if uint64(vt)+vtLen > n {
		return Table{}, fmt.Errorf("%w: vtable at %d with length %d", ErrOutOfBounds, vt, vtLen)
	}
	if objSize < sizeUOffset || uint64(pos)+objSize > n {
		return Table{}, fmt.Errorf("%w: table at %d with size %d", ErrOutOfBounds, pos, objSize)
	}

	t := Table{
		buf:     buf,
		pos:     pos,
		objSize: uint32(objSize),
		nfields: nfields,
	}
	for i := range nfields {
		voff := vtableHeader + uint64(i)*sizeVOffset
		if voff >= vtLen {
			break
		}
		o := flatbuffers.GetVOffsetT(buf[uint64(vt)+voff:])
		if o != 0 && (uint64(o) < sizeUOffset || uint64(o) >= objSize) {
			return Table{}, fmt.Errorf("%w: field %d of table at %d has offset %d outside object of %d bytes",
				ErrMalformed, i, pos, o, objSize)
		}
		t.slots[i] = uint16(o)
	}
	return t, nil
}

// Pos returns the absolute position of the table in its buffer.
func (t Table) Pos() uint32 {
	return t.pos
}

// Present reports whether slot has a non-zero vtable entry.
func (t Table) Present(slot int) bool {
	if slot < 0 || slot >= t.nfields {
		return false
	}
	return t.slots[slot] != 0
}

// field returns the absolute position of an inline field of the given size.
func (t Table) field(slot int, size uint32) (uint32, bool, error) {
	if !t.Present(slot) {
		return 0, false, nil
	}
	o := uint32(t.slots[slot])
	if uint64(o)+uint64(size) > uint64(t.objSize) {
		return 0, false, fmt.Errorf("%w: field %d of table at %d overruns object", ErrMalformed, slot, t.pos)
	}
	return t.pos + o, true, nil
}

// Int64 reads a 64-bit integer field, returning 0 when absent.
func (t Table) Int64(slot int) (int64, error) {
	p, ok, err := t.field(slot, flatbuffers.SizeInt64)
	if err != nil || !ok {
		return 0, err
	}
	return flatbuffers.GetInt64(t.buf[p:]), nil
}

// Float32 reads a 32-bit float field, returning 0 when absent.
func (t Table) Float32(slot int) (float32, error) {
	p, ok, err := t.field(slot, flatbuffers.SizeFloat32)
	if err != nil || !ok {
		return 0, err
	}
	return flatbuffers.GetFloat32(t.buf[p:]), nil
}

// ByteString returns the bytes of a string field without copying. The second
// result is false when the field is absent.
func (t Table) ByteString(slot int) ([]byte, bool, error) {
	p, ok, err := t.field(slot, flatbuffers.SizeUOffsetT)
	if err != nil || !ok {
		return nil, false, err
	}
	s, err := Indirect(t.buf, p)
	if err != nil {
		return nil, false, err
	}
	n := uint64(len(t.buf))
	if uint64(s)+sizeUOffset > n {
		return nil, false, fmt.Errorf("%w: string header at %d", ErrOutOfBounds, s)
	}
	strLen := uint64(flatbuffers.GetUOffsetT(t.buf[s:]))
	start := uint64(s) + sizeUOffset
	// Strings carry a trailing NUL that is not part of the length.
	if start+strLen+1 > n {
		return nil, false, fmt.Errorf("%w: string at %d with length %d", ErrOutOfBounds, s, strLen)
	}
	if t.buf[start+strLen] != 0 {
		return nil, false, fmt.Errorf("%w: string at %d is not NUL terminated", ErrMalformed, s)
	}
	return t.buf[start : start+strLen : start+strLen], true, nil
}

// Vector resolves a vector field whose elements are stride bytes wide. The
// second result is false when the field is absent.
func (t Table) Vector(slot int, stride uint32) (Vector, bool, error) {
	p, ok, err := t.field(slot, flatbuffers.SizeUOffsetT)
	if err != nil || !ok {
		return Vector{}, false, err
	}
	v, err := Indirect(t.buf, p)
	if err != nil {
		return Vector{}, false, err
	}
	n := uint64(len(t.buf))
	if uint64(v)+sizeUOffset > n {
		return Vector{}, false, fmt.Errorf("%w: vector header at %d", ErrOutOfBounds, v)
	}
	count := uint32(flatbuffers.GetUOffsetT(t.buf[v:]))
	start := uint64(v) + sizeUOffset
	if start+uint64(count)*uint64(stride) > n {
		return Vector{}, false, fmt.Errorf("%w: vector at %d with %d elements", ErrOutOfBounds, v, count)
	}
	return Vector{
		buf:    t.buf,
		start:  uint32(start), //nolint:gosec // bounded by len(buf) above
		count:  count,
		stride: stride,
	}, true, nil
}
