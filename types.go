package propbag

import "fmt"

// Identifier is the FlatBuffers file identifier written after the root offset
// of every property bag buffer.
const Identifier = "ORTM"

// Field identifies one of the three vector fields of a PropertyBag table.
//
// The numeric value is the field's vtable slot and must stay stable for
// buffers written by other producers to remain readable.
type Field uint8

const (
	FieldInts Field = iota
	FieldFloats
	FieldStrings
)

// numBagFields is the number of fields in the PropertyBag table.
const numBagFields = 3

// Property table slots.
const (
	propNameSlot    = 0
	propValueSlot   = 1
	numPropertySlot = 2
)

func (f Field) String() string {
	switch f {
	case FieldInts:
		return "ints"
	case FieldFloats:
		return "floats"
	case FieldStrings:
		return "strings"
	default:
		return fmt.Sprintf("Field(%d)", uint8(f))
	}
}

func (f Field) valid() bool {
	return f <= FieldStrings
}

// IntProperty is a named 64-bit integer.
type IntProperty struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
}

// FloatProperty is a named 32-bit float.
type FloatProperty struct {
	Name  string  `json:"name"`
	Value float32 `json:"value"`
}

// StringProperty is a named string.
type StringProperty struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Bag is a decoded property bag.
//
// A nil slice is an absent field: it was never written. A non-nil empty slice
// is a field holding a zero-length vector. Encode and Decode preserve the
// distinction.
type Bag struct {
	Ints    []IntProperty    `json:"ints,omitzero"`
	Floats  []FloatProperty  `json:"floats,omitzero"`
	Strings []StringProperty `json:"strings,omitzero"`
}

// Property is a copied element of any field.
// Value holds an int64, float32 or string depending on Field.
type Property struct {
	Field Field
	Name  string
	Value any
}
