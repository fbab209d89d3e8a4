package propbag_test

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/propbag"
	"github.com/meigma/propbag/internal/testutil"
)

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		bag  propbag.Bag
	}{
		{name: "all absent", bag: propbag.Bag{}},
		{name: "all empty", bag: propbag.Bag{
			Ints:    []propbag.IntProperty{},
			Floats:  []propbag.FloatProperty{},
			Strings: []propbag.StringProperty{},
		}},
		{name: "example", bag: testutil.ExampleBag()},
		{name: "full", bag: testutil.FullBag()},
		{name: "empty names", bag: propbag.Bag{
			Ints:    []propbag.IntProperty{{Name: "", Value: 5}},
			Strings: []propbag.StringProperty{{Name: "", Value: ""}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := propbag.Decode(propbag.Encode(tt.bag))
			require.NoError(t, err)
			assert.Equal(t, tt.bag, got)
		})
	}
}

func TestRoundTripRandom(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(42, 7))
	for i := range 500 {
		bag := testutil.RandomBag(rng, 10)

		buf := propbag.Encode(bag)
		got, err := propbag.Decode(buf)
		require.NoError(t, err, "bag %d", i)
		require.Equal(t, bag, got, "bag %d", i)

		v, err := propbag.OpenSizePrefixed(propbag.Encode(bag, propbag.WithSizePrefix()))
		require.NoError(t, err, "bag %d", i)
		got, err = v.Bag()
		require.NoError(t, err, "bag %d", i)
		require.Equal(t, bag, got, "bag %d", i)
	}
}

func TestHasIdentifier(t *testing.T) {
	t.Parallel()

	buf := propbag.Encode(testutil.FullBag())
	assert.True(t, propbag.HasIdentifier(buf, 0, false))
	assert.False(t, propbag.HasIdentifier(buf, 0, true))

	prefixed := propbag.Encode(testutil.FullBag(), propbag.WithSizePrefix())
	assert.True(t, propbag.HasIdentifier(prefixed, 0, true))
	assert.False(t, propbag.HasIdentifier(prefixed, 0, false))

	assert.False(t, propbag.HasIdentifier(propbag.Encode(propbag.Bag{}, propbag.WithoutIdentifier()), 0, false))

	for i := 4; i < 8; i++ {
		altered := slices.Clone(buf)
		altered[i] ^= 0x20
		assert.False(t, propbag.HasIdentifier(altered, 0, false), "byte %d altered", i)
	}

	assert.False(t, propbag.HasIdentifier(nil, 0, false))
	assert.False(t, propbag.HasIdentifier(buf[:7], 0, false))
	assert.False(t, propbag.HasIdentifier(buf, ^uint32(0), false))
}

func TestVerify(t *testing.T) {
	t.Parallel()

	t.Run("valid", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, propbag.Verify(propbag.Encode(testutil.FullBag())))
		assert.NoError(t, propbag.Verify(propbag.Encode(testutil.FullBag(), propbag.WithSizePrefix()), propbag.WithSizePrefix()))
	})

	t.Run("identifier required by default", func(t *testing.T) {
		t.Parallel()
		buf := propbag.Encode(testutil.FullBag(), propbag.WithoutIdentifier())
		require.ErrorIs(t, propbag.Verify(buf), propbag.ErrIdentifierMismatch)
		assert.NoError(t, propbag.Verify(buf, propbag.WithoutIdentifier()))
	})

	t.Run("prefix mismatch", func(t *testing.T) {
		t.Parallel()
		buf := propbag.Encode(testutil.FullBag())
		assert.ErrorIs(t, propbag.Verify(buf, propbag.WithSizePrefix()), propbag.ErrIdentifierMismatch)
	})

	t.Run("corrupt vector", func(t *testing.T) {
		t.Parallel()
		buf := slices.Clone(emptyIntsGolden)
		buf[24] = 0x01
		assert.ErrorIs(t, propbag.Verify(buf), propbag.ErrOutOfBounds)
	})
}

func TestFieldString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "ints", propbag.FieldInts.String())
	assert.Equal(t, "floats", propbag.FieldFloats.String())
	assert.Equal(t, "strings", propbag.FieldStrings.String())
	assert.Equal(t, "Field(7)", propbag.Field(7).String())
}
