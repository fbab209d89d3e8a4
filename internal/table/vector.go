package table

import (
	"fmt"

	flatbuffers "github.com/google/flatbuffers/go"
)

// Vector is a validated FlatBuffers vector. Its header and element storage
// are known to lie within the buffer.
type Vector struct {
	buf    []byte
	start  uint32
	count  uint32
	stride uint32
}

// Len returns the element count from the vector header.
func (v Vector) Len() int {
	return int(v.count)
}

// Slot returns the absolute position of element i.
func (v Vector) Slot(i int) (uint32, error) {
	if i < 0 || uint64(i) >= uint64(v.count) {
		return 0, fmt.Errorf("%w: index %d, length %d", ErrIndexOutOfRange, i, v.count)
	}
	return v.start + uint32(i)*v.stride, nil //nolint:gosec // i < count, storage checked at construction
}

// Table resolves element i of a vector of tables. The element slot holds an
// offset to the element table, so resolution takes two steps: the slot
// address, then the indirection stored in it.
func (v Vector) Table(i, nfields int) (Table, error) {
	if v.stride != flatbuffers.SizeUOffsetT {
		panic(fmt.Sprintf("table: vector of tables with stride %d", v.stride))
	}
	slot, err := v.Slot(i)
	if err != nil {
		return Table{}, err
	}
	pos, err := Indirect(v.buf, slot)
	if err != nil {
		return Table{}, fmt.Errorf("element %d: %w", i, err)
	}
	t, err := Open(v.buf, pos, nfields)
	if err != nil {
		return Table{}, fmt.Errorf("element %d: %w", i, err)
	}
	return t, nil
}
