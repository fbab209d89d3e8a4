package propbag

// IntPropertyView is a read-only view of an IntProperty table.
//
// NameBytes aliases the bag buffer and must be treated as immutable. The view
// is only valid while the buffer it was read from remains unmodified.
type IntPropertyView struct {
	name  []byte
	value int64
}

// NameBytes returns the name bytes from the bag buffer.
func (p IntPropertyView) NameBytes() []byte { return p.name }

// Name returns the name as a string.
func (p IntPropertyView) Name() string { return string(p.name) }

// Value returns the integer value.
func (p IntPropertyView) Value() int64 { return p.value }

// Property returns a fully copied IntProperty.
func (p IntPropertyView) Property() IntProperty {
	return IntProperty{Name: p.Name(), Value: p.value}
}

// FloatPropertyView is a read-only view of a FloatProperty table.
type FloatPropertyView struct {
	name  []byte
	value float32
}

// NameBytes returns the name bytes from the bag buffer.
func (p FloatPropertyView) NameBytes() []byte { return p.name }

// Name returns the name as a string.
func (p FloatPropertyView) Name() string { return string(p.name) }

// Value returns the float value.
func (p FloatPropertyView) Value() float32 { return p.value }

// Property returns a fully copied FloatProperty.
func (p FloatPropertyView) Property() FloatProperty {
	return FloatProperty{Name: p.Name(), Value: p.value}
}

// StringPropertyView is a read-only view of a StringProperty table.
// Both NameBytes and ValueBytes alias the bag buffer.
type StringPropertyView struct {
	name  []byte
	value []byte
}

// NameBytes returns the name bytes from the bag buffer.
func (p StringPropertyView) NameBytes() []byte { return p.name }

// Name returns the name as a string.
func (p StringPropertyView) Name() string { return string(p.name) }

// ValueBytes returns the value bytes from the bag buffer.
func (p StringPropertyView) ValueBytes() []byte { return p.value }

// Value returns the value as a string.
func (p StringPropertyView) Value() string { return string(p.value) }

// Property returns a fully copied StringProperty.
func (p StringPropertyView) Property() StringProperty {
	return StringProperty{Name: p.Name(), Value: p.Value()}
}
