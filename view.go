package propbag

import (
	"fmt"

	flatbuffers "github.com/google/flatbuffers/go"

	"github.com/meigma/propbag/internal/table"
)

// View is a read-only, zero-copy view of a PropertyBag table.
//
// Open validates the bag table and the headers of its three vectors; element
// tables are validated when they are accessed. A View borrows its buffer:
// the buffer must not be modified while the View or any element view derived
// from it is in use. Views never mutate the buffer and are safe for concurrent
// use.
type View struct {
	buf     []byte
	tab     table.Table
	vecs    [numBagFields]table.Vector
	present [numBagFields]bool
}

// Open reads the root offset stored at offset and returns a view of the bag
// it points to.
func Open(buf []byte, offset uint32) (View, error) {
	if len(buf) == 0 {
		return View{}, fmt.Errorf("%w: %w", ErrEmptyBuffer, ErrOutOfBounds)
	}
	pos, err := table.Indirect(buf, offset)
	if err != nil {
		return View{}, fmt.Errorf("root offset: %w", err)
	}
	return openTable(buf, pos)
}

// OpenSizePrefixed opens a buffer that starts with a 4-byte size prefix.
// The view is restricted to the prefixed length; trailing bytes are ignored.
func OpenSizePrefixed(buf []byte) (View, error) {
	if len(buf) == 0 {
		return View{}, fmt.Errorf("%w: %w", ErrEmptyBuffer, ErrOutOfBounds)
	}
	if len(buf) < flatbuffers.SizeUint32 {
		return View{}, fmt.Errorf("%w: size prefix needs %d bytes, buffer is %d", ErrOutOfBounds, flatbuffers.SizeUint32, len(buf))
	}
	size := uint64(flatbuffers.GetUint32(buf))
	if size+flatbuffers.SizeUint32 > uint64(len(buf)) {
		return View{}, fmt.Errorf("%w: size prefix %d exceeds buffer of %d bytes", ErrOutOfBounds, size, len(buf))
	}
	return Open(buf[:size+flatbuffers.SizeUint32], flatbuffers.SizeUint32)
}

func openTable(buf []byte, pos uint32) (View, error) {
	tab, err := table.Open(buf, pos, numBagFields)
	if err != nil {
		return View{}, fmt.Errorf("bag table: %w", err)
	}
	v := View{buf: buf, tab: tab}
	for f := range Field(numBagFields) {
		vec, ok, err := tab.Vector(int(f), flatbuffers.SizeUOffsetT)
		if err != nil {
			return View{}, fmt.Errorf("%s: %w", f, err)
		}
		v.vecs[f] = vec
		v.present[f] = ok
	}
	return v, nil
}

// Bytes returns the underlying buffer.
func (v View) Bytes() []byte {
	return v.buf
}

// IsAbsent reports whether field was never written. An absent field is
// distinct from a field holding an empty vector.
func (v View) IsAbsent(field Field) bool {
	if !field.valid() {
		return true
	}
	return !v.present[field]
}

// Len returns the number of elements in field, or 0 when it is absent.
func (v View) Len(field Field) int {
	if v.IsAbsent(field) {
		return 0
	}
	return v.vecs[field].Len()
}

// IntsLength returns the number of int properties.
func (v View) IntsLength() int { return v.Len(FieldInts) }

// FloatsLength returns the number of float properties.
func (v View) FloatsLength() int { return v.Len(FieldFloats) }

// StringsLength returns the number of string properties.
func (v View) StringsLength() int { return v.Len(FieldStrings) }

// IntsIsNone reports whether the ints field is absent.
func (v View) IntsIsNone() bool { return v.IsAbsent(FieldInts) }

// FloatsIsNone reports whether the floats field is absent.
func (v View) FloatsIsNone() bool { return v.IsAbsent(FieldFloats) }

// StringsIsNone reports whether the strings field is absent.
func (v View) StringsIsNone() bool { return v.IsAbsent(FieldStrings) }

// element resolves and validates the property table at index j of field.
func (v View) element(field Field, j int) (table.Table, error) {
	if !field.valid() {
		return table.Table{}, fmt.Errorf("%w: unknown field %s", ErrIndexOutOfRange, field)
	}
	if !v.present[field] {
		return table.Table{}, fmt.Errorf("%s[%d]: %w: field is absent", field, j, ErrIndexOutOfRange)
	}
	t, err := v.vecs[field].Table(j, numPropertySlot)
	if err != nil {
		return table.Table{}, fmt.Errorf("%s[%d]: %w", field, j, err)
	}
	return t, nil
}

func readName(field Field, j int, t table.Table) ([]byte, error) {
	name, _, err := t.ByteString(propNameSlot)
	if err != nil {
		return nil, fmt.Errorf("%s[%d] name: %w", field, j, err)
	}
	return name, nil
}

// Ints returns the int property at index j.
func (v View) Ints(j int) (IntPropertyView, error) {
	t, err := v.element(FieldInts, j)
	if err != nil {
		return IntPropertyView{}, err
	}
	name, err := readName(FieldInts, j, t)
	if err != nil {
		return IntPropertyView{}, err
	}
	value, err := t.Int64(propValueSlot)
	if err != nil {
		return IntPropertyView{}, fmt.Errorf("ints[%d] value: %w", j, err)
	}
	return IntPropertyView{name: name, value: value}, nil
}

// Floats returns the float property at index j.
func (v View) Floats(j int) (FloatPropertyView, error) {
	t, err := v.element(FieldFloats, j)
	if err != nil {
		return FloatPropertyView{}, err
	}
	name, err := readName(FieldFloats, j, t)
	if err != nil {
		return FloatPropertyView{}, err
	}
	value, err := t.Float32(propValueSlot)
	if err != nil {
		return FloatPropertyView{}, fmt.Errorf("floats[%d] value: %w", j, err)
	}
	return FloatPropertyView{name: name, value: value}, nil
}

// Strings returns the string property at index j.
func (v View) Strings(j int) (StringPropertyView, error) {
	t, err := v.element(FieldStrings, j)
	if err != nil {
		return StringPropertyView{}, err
	}
	name, err := readName(FieldStrings, j, t)
	if err != nil {
		return StringPropertyView{}, err
	}
	value, _, err := t.ByteString(propValueSlot)
	if err != nil {
		return StringPropertyView{}, fmt.Errorf("strings[%d] value: %w", j, err)
	}
	return StringPropertyView{name: name, value: value}, nil
}

// Element returns a copy of the property at index j of field.
func (v View) Element(field Field, j int) (Property, error) {
	switch field {
	case FieldInts:
		p, err := v.Ints(j)
		if err != nil {
			return Property{}, err
		}
		return Property{Field: field, Name: p.Name(), Value: p.Value()}, nil
	case FieldFloats:
		p, err := v.Floats(j)
		if err != nil {
			return Property{}, err
		}
		return Property{Field: field, Name: p.Name(), Value: p.Value()}, nil
	case FieldStrings:
		p, err := v.Strings(j)
		if err != nil {
			return Property{}, err
		}
		return Property{Field: field, Name: p.Name(), Value: p.Value()}, nil
	default:
		return Property{}, fmt.Errorf("%w: unknown field %s", ErrIndexOutOfRange, field)
	}
}
