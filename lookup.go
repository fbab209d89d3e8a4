package propbag

// LookupInt returns the value of the first int property named name.
func (v View) LookupInt(name string) (int64, bool, error) {
	for i := range v.IntsLength() {
		p, err := v.Ints(i)
		if err != nil {
			return 0, false, err
		}
		if string(p.NameBytes()) == name {
			return p.Value(), true, nil
		}
	}
	return 0, false, nil
}

// LookupFloat returns the value of the first float property named name.
func (v View) LookupFloat(name string) (float32, bool, error) {
	for i := range v.FloatsLength() {
		p, err := v.Floats(i)
		if err != nil {
			return 0, false, err
		}
		if string(p.NameBytes()) == name {
			return p.Value(), true, nil
		}
	}
	return 0, false, nil
}

// LookupString returns the value of the first string property named name.
func (v View) LookupString(name string) (string, bool, error) {
	for i := range v.StringsLength() {
		p, err := v.Strings(i)
		if err != nil {
			return "", false, err
		}
		if string(p.NameBytes()) == name {
			return p.Value(), true, nil
		}
	}
	return "", false, nil
}
