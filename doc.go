// Package propbag encodes and decodes property bags: named lists of int,
// float and string properties stored as a FlatBuffers PropertyBag table.
//
// The binary layout is the ONNX Runtime PropertyBag table with file
// identifier "ORTM". Buffers written here are byte-identical to those produced
// by the reference FlatBuffers builder, and buffers produced elsewhere can be
// read with zero copies.
//
// # Layout
//
// A PropertyBag table has three optional fields, each a vector of offsets to
// property tables:
//   - ints (slot 0): IntProperty { name: string; value: long }
//   - floats (slot 1): FloatProperty { name: string; value: float }
//   - strings (slot 2): StringProperty { name: string; value: string }
//
// A field that was never written is absent, which is different from a field
// holding an empty vector. [Bag] represents absence with a nil slice.
//
// # Writing
//
// Encode a whole bag in one call:
//
//	buf := propbag.Encode(propbag.Bag{
//	    Ints: []propbag.IntProperty{{Name: "epoch", Value: 3}},
//	})
//
// Or drive a [Builder] directly, children first:
//
//	b := propbag.NewBuilder(0)
//	p := b.CreateIntProperty("epoch", 3)
//	b.StartIntsVector(1)
//	b.PrependOffset(p)
//	ints := b.EndVector()
//	b.StartBag()
//	b.AddInts(ints)
//	buf := b.Finish(b.EndBag())
//
// # Reading
//
// [Open] validates the root table and returns a [View]. Element access is
// bounds-checked and returns [ErrIndexOutOfRange] outside [0, len):
//
//	v, err := propbag.Open(buf, 0)
//	if err != nil {
//	    return err
//	}
//	for i := range v.IntsLength() {
//	    p, err := v.Ints(i)
//	    ...
//	}
//
// Corrupt buffers produce errors wrapping [ErrOutOfBounds] or [ErrMalformed]
// rather than panics.
package propbag
