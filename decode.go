package propbag

import "fmt"

// Decode opens buf at offset 0 and copies the whole bag out of it.
func Decode(buf []byte) (Bag, error) {
	v, err := Open(buf, 0)
	if err != nil {
		return Bag{}, err
	}
	return v.Bag()
}

// Bag copies every property out of the view. Absent fields decode to nil
// slices and empty fields to non-nil empty slices.
func (v View) Bag() (Bag, error) {
	var bag Bag
	if !v.IntsIsNone() {
		bag.Ints = make([]IntProperty, v.IntsLength())
		for i := range bag.Ints {
			p, err := v.Ints(i)
			if err != nil {
				return Bag{}, err
			}
			bag.Ints[i] = p.Property()
		}
	}
	if !v.FloatsIsNone() {
		bag.Floats = make([]FloatProperty, v.FloatsLength())
		for i := range bag.Floats {
			p, err := v.Floats(i)
			if err != nil {
				return Bag{}, err
			}
			bag.Floats[i] = p.Property()
		}
	}
	if !v.StringsIsNone() {
		bag.Strings = make([]StringProperty, v.StringsLength())
		for i := range bag.Strings {
			p, err := v.Strings(i)
			if err != nil {
				return Bag{}, err
			}
			bag.Strings[i] = p.Property()
		}
	}
	return bag, nil
}

// Verify checks that buf is a well-formed property bag: the identifier is
// present (unless WithoutIdentifier is given) and every element of every
// field resolves within the buffer. WithSizePrefix expects a size-prefixed
// buffer.
func Verify(buf []byte, opts ...Option) error {
	cfg := newConfig(opts)
	if cfg.identifier && !HasIdentifier(buf, 0, cfg.sizePrefix) {
		return ErrIdentifierMismatch
	}
	var (
		v   View
		err error
	)
	if cfg.sizePrefix {
		v, err = OpenSizePrefixed(buf)
	} else {
		v, err = Open(buf, 0)
	}
	if err != nil {
		return err
	}
	for f := range Field(numBagFields) {
		for i := range v.Len(f) {
			if _, err := v.Element(f, i); err != nil {
				return fmt.Errorf("verify: %w", err)
			}
		}
	}
	return nil
}
