package testutil

import (
	"fmt"
	"math/rand/v2"
	"testing"

	flatbuffers "github.com/google/flatbuffers/go"

	"github.com/meigma/propbag"
	"github.com/meigma/propbag/internal/fb"
)

// ExampleBag returns ints [("a",1),("b",2)], an empty floats vector and no
// strings field.
func ExampleBag() propbag.Bag {
	return propbag.Bag{
		Ints: []propbag.IntProperty{
			{Name: "a", Value: 1},
			{Name: "b", Value: 2},
		},
		Floats: []propbag.FloatProperty{},
	}
}

// FullBag returns a bag with every field populated.
func FullBag() propbag.Bag {
	return propbag.Bag{
		Ints: []propbag.IntProperty{
			{Name: "epoch", Value: 12},
			{Name: "step", Value: 48_000},
			{Name: "negative", Value: -7},
			{Name: "zero", Value: 0},
		},
		Floats: []propbag.FloatProperty{
			{Name: "learning_rate", Value: 0.001},
			{Name: "loss", Value: 2.5},
		},
		Strings: []propbag.StringProperty{
			{Name: "optimizer", Value: "AdamW"},
			{Name: "empty", Value: ""},
			{Name: "unicode", Value: "größe ✓"},
		},
	}
}

// RandomBag returns a bag where each field is independently absent, empty or
// populated with up to maxLen properties.
func RandomBag(rng *rand.Rand, maxLen int) propbag.Bag {
	var bag propbag.Bag
	if n, ok := randomLen(rng, maxLen); ok {
		bag.Ints = make([]propbag.IntProperty, n)
		for i := range bag.Ints {
			bag.Ints[i] = propbag.IntProperty{Name: randomName(rng, i), Value: rng.Int64() - rng.Int64()}
		}
	}
	if n, ok := randomLen(rng, maxLen); ok {
		bag.Floats = make([]propbag.FloatProperty, n)
		for i := range bag.Floats {
			bag.Floats[i] = propbag.FloatProperty{Name: randomName(rng, i), Value: rng.Float32()*2000 - 1000}
		}
	}
	if n, ok := randomLen(rng, maxLen); ok {
		bag.Strings = make([]propbag.StringProperty, n)
		for i := range bag.Strings {
			bag.Strings[i] = propbag.StringProperty{Name: randomName(rng, i), Value: randomName(rng, rng.IntN(1000))}
		}
	}
	return bag
}

// randomLen picks absent (ok=false) one time in three.
func randomLen(rng *rand.Rand, maxLen int) (int, bool) {
	if rng.IntN(3) == 0 {
		return 0, false
	}
	return rng.IntN(maxLen + 1), true
}

func randomName(rng *rand.Rand, i int) string {
	const letters = "abcdefghijklmnopqrstuvwxyz_"
	b := make([]byte, rng.IntN(12))
	for j := range b {
		b[j] = letters[rng.IntN(len(letters))]
	}
	return fmt.Sprintf("%s%d", b, i)
}

// BuildGenerated encodes bag with the generated builders only, bypassing
// propbag.Builder. Output must match propbag.Encode byte for byte.
func BuildGenerated(tb testing.TB, bag propbag.Bag) []byte {
	tb.Helper()

	builder := flatbuffers.NewBuilder(64)

	var intsOffset, floatsOffset, stringsOffset flatbuffers.UOffsetT
	if bag.Ints != nil {
		offsets := make([]flatbuffers.UOffsetT, len(bag.Ints))
		for i := len(bag.Ints) - 1; i >= 0; i-- {
			name := builder.CreateString(bag.Ints[i].Name)
			fb.IntPropertyStart(builder)
			fb.IntPropertyAddName(builder, name)
			fb.IntPropertyAddValue(builder, bag.Ints[i].Value)
			offsets[i] = fb.IntPropertyEnd(builder)
		}
		fb.PropertyBagStartIntsVector(builder, len(offsets))
		for i := len(offsets) - 1; i >= 0; i-- {
			builder.PrependUOffsetT(offsets[i])
		}
		intsOffset = builder.EndVector(len(offsets))
	}
	if bag.Floats != nil {
		offsets := make([]flatbuffers.UOffsetT, len(bag.Floats))
		for i := len(bag.Floats) - 1; i >= 0; i-- {
			name := builder.CreateString(bag.Floats[i].Name)
			fb.FloatPropertyStart(builder)
			fb.FloatPropertyAddName(builder, name)
			fb.FloatPropertyAddValue(builder, bag.Floats[i].Value)
			offsets[i] = fb.FloatPropertyEnd(builder)
		}
		fb.PropertyBagStartFloatsVector(builder, len(offsets))
		for i := len(offsets) - 1; i >= 0; i-- {
			builder.PrependUOffsetT(offsets[i])
		}
		floatsOffset = builder.EndVector(len(offsets))
	}
	if bag.Strings != nil {
		offsets := make([]flatbuffers.UOffsetT, len(bag.Strings))
		for i := len(bag.Strings) - 1; i >= 0; i-- {
			name := builder.CreateString(bag.Strings[i].Name)
			value := builder.CreateString(bag.Strings[i].Value)
			fb.StringPropertyStart(builder)
			fb.StringPropertyAddName(builder, name)
			fb.StringPropertyAddValue(builder, value)
			offsets[i] = fb.StringPropertyEnd(builder)
		}
		fb.PropertyBagStartStringsVector(builder, len(offsets))
		for i := len(offsets) - 1; i >= 0; i-- {
			builder.PrependUOffsetT(offsets[i])
		}
		stringsOffset = builder.EndVector(len(offsets))
	}

	fb.PropertyBagStart(builder)
	if bag.Ints != nil {
		fb.PropertyBagAddInts(builder, intsOffset)
	}
	if bag.Floats != nil {
		fb.PropertyBagAddFloats(builder, floatsOffset)
	}
	if bag.Strings != nil {
		fb.PropertyBagAddStrings(builder, stringsOffset)
	}
	root := fb.PropertyBagEnd(builder)

	fb.FinishPropertyBagBuffer(builder, root)
	return builder.FinishedBytes()
}

// ReadGenerated decodes buf with the generated accessors. It trusts buf and
// is only meant for cross-checking well-formed output. The generated reader
// cannot tell absent fields from empty ones, so both decode as empty slices.
func ReadGenerated(buf []byte) propbag.Bag {
	root := fb.GetRootAsPropertyBag(buf, 0)
	bag := propbag.Bag{
		Ints:    make([]propbag.IntProperty, root.IntsLength()),
		Floats:  make([]propbag.FloatProperty, root.FloatsLength()),
		Strings: make([]propbag.StringProperty, root.StringsLength()),
	}
	var ip fb.IntProperty
	for i := range bag.Ints {
		root.Ints(&ip, i)
		bag.Ints[i] = propbag.IntProperty{Name: string(ip.Name()), Value: ip.Value()}
	}
	var fp fb.FloatProperty
	for i := range bag.Floats {
		root.Floats(&fp, i)
		bag.Floats[i] = propbag.FloatProperty{Name: string(fp.Name()), Value: fp.Value()}
	}
	var sp fb.StringProperty
	for i := range bag.Strings {
		root.Strings(&sp, i)
		bag.Strings[i] = propbag.StringProperty{Name: string(sp.Name()), Value: string(sp.Value())}
	}
	return bag
}
