package propbag

// Encode serializes bag into a new buffer.
//
// Nil slices in bag are left absent; non-nil empty slices are written as
// zero-length vectors. By default the buffer carries the ORTM identifier and no
// size prefix.
func Encode(bag Bag, opts ...Option) []byte {
	cfg := newConfig(opts)
	b := NewBuilder(cfg.initialSize)
	root := b.AppendBag(bag)
	return b.Finish(root, opts...)
}

// AppendBag writes every property of bag followed by the bag table and
// returns the bag offset. The builder must be idle.
func (b *Builder) AppendBag(bag Bag) BagOffset {
	var ints, floats, strs VectorOffset
	if bag.Ints != nil {
		offs := make([]PropertyOffset, len(bag.Ints))
		for i := len(bag.Ints) - 1; i >= 0; i-- {
			offs[i] = b.CreateIntProperty(bag.Ints[i].Name, bag.Ints[i].Value)
		}
		b.StartIntsVector(len(offs))
		ints = b.prependAll(offs)
	}
	if bag.Floats != nil {
		offs := make([]PropertyOffset, len(bag.Floats))
		for i := len(bag.Floats) - 1; i >= 0; i-- {
			offs[i] = b.CreateFloatProperty(bag.Floats[i].Name, bag.Floats[i].Value)
		}
		b.StartFloatsVector(len(offs))
		floats = b.prependAll(offs)
	}
	if bag.Strings != nil {
		offs := make([]PropertyOffset, len(bag.Strings))
		for i := len(bag.Strings) - 1; i >= 0; i-- {
			offs[i] = b.CreateStringProperty(bag.Strings[i].Name, bag.Strings[i].Value)
		}
		b.StartStringsVector(len(offs))
		strs = b.prependAll(offs)
	}

	b.StartBag()
	if bag.Ints != nil {
		b.AddInts(ints)
	}
	if bag.Floats != nil {
		b.AddFloats(floats)
	}
	if bag.Strings != nil {
		b.AddStrings(strs)
	}
	return b.EndBag()
}

// prependAll writes offs into the open vector, last element first, and closes it.
func (b *Builder) prependAll(offs []PropertyOffset) VectorOffset {
	for i := len(offs) - 1; i >= 0; i-- {
		b.PrependOffset(offs[i])
	}
	return b.EndVector()
}
