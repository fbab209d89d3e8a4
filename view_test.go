package propbag_test

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/propbag"
	"github.com/meigma/propbag/internal/testutil"
)

// mustOpen opens buf at offset 0 or fails the test.
func mustOpen(tb testing.TB, buf []byte) propbag.View {
	tb.Helper()
	v, err := propbag.Open(buf, 0)
	require.NoError(tb, err, "Open failed")
	return v
}

func TestViewExampleScenario(t *testing.T) {
	t.Parallel()

	v := mustOpen(t, propbag.Encode(testutil.ExampleBag()))

	assert.Equal(t, 2, v.IntsLength())
	p, err := v.Ints(0)
	require.NoError(t, err)
	assert.Equal(t, "a", p.Name())
	assert.Equal(t, int64(1), p.Value())
	p, err = v.Ints(1)
	require.NoError(t, err)
	assert.Equal(t, "b", p.Name())
	assert.Equal(t, int64(2), p.Value())

	assert.False(t, v.FloatsIsNone())
	assert.Equal(t, 0, v.FloatsLength())
	assert.True(t, v.StringsIsNone())
	assert.Equal(t, 0, v.StringsLength())
}

func TestViewAbsentVersusEmpty(t *testing.T) {
	t.Parallel()

	t.Run("empty ints", func(t *testing.T) {
		t.Parallel()
		v := mustOpen(t, propbag.Encode(propbag.Bag{Ints: []propbag.IntProperty{}}))
		assert.False(t, v.IsAbsent(propbag.FieldInts))
		assert.Equal(t, 0, v.Len(propbag.FieldInts))
	})

	t.Run("ints never added", func(t *testing.T) {
		t.Parallel()
		v := mustOpen(t, propbag.Encode(propbag.Bag{Floats: []propbag.FloatProperty{{Name: "x", Value: 1}}}))
		assert.True(t, v.IsAbsent(propbag.FieldInts))
		assert.Equal(t, 0, v.Len(propbag.FieldInts))
		assert.False(t, v.IsAbsent(propbag.FieldFloats))
	})

	t.Run("all absent", func(t *testing.T) {
		t.Parallel()
		v := mustOpen(t, propbag.Encode(propbag.Bag{}))
		for _, f := range []propbag.Field{propbag.FieldInts, propbag.FieldFloats, propbag.FieldStrings} {
			assert.True(t, v.IsAbsent(f), "%s should be absent", f)
		}
	})

	t.Run("unknown field", func(t *testing.T) {
		t.Parallel()
		v := mustOpen(t, propbag.Encode(testutil.FullBag()))
		assert.True(t, v.IsAbsent(propbag.Field(9)))
		assert.Equal(t, 0, v.Len(propbag.Field(9)))
		_, err := v.Element(propbag.Field(9), 0)
		assert.ErrorIs(t, err, propbag.ErrIndexOutOfRange)
	})
}

func TestViewIndexOutOfRange(t *testing.T) {
	t.Parallel()

	v := mustOpen(t, propbag.Encode(testutil.FullBag()))

	for _, f := range []propbag.Field{propbag.FieldInts, propbag.FieldFloats, propbag.FieldStrings} {
		n := v.Len(f)
		require.NotZero(t, n)

		_, err := v.Element(f, n)
		assert.ErrorIs(t, err, propbag.ErrIndexOutOfRange, "%s one past the end", f)
		_, err = v.Element(f, -1)
		assert.ErrorIs(t, err, propbag.ErrIndexOutOfRange, "%s negative index", f)
		_, err = v.Element(f, n-1)
		assert.NoError(t, err, "%s last element", f)
	}

	_, err := v.Ints(v.IntsLength())
	assert.ErrorIs(t, err, propbag.ErrIndexOutOfRange)
	_, err = v.Floats(v.FloatsLength())
	assert.ErrorIs(t, err, propbag.ErrIndexOutOfRange)
	_, err = v.Strings(v.StringsLength())
	assert.ErrorIs(t, err, propbag.ErrIndexOutOfRange)

	t.Run("absent field", func(t *testing.T) {
		t.Parallel()
		v := mustOpen(t, propbag.Encode(propbag.Bag{}))
		_, err := v.Ints(0)
		assert.ErrorIs(t, err, propbag.ErrIndexOutOfRange)
	})

	t.Run("empty field", func(t *testing.T) {
		t.Parallel()
		v := mustOpen(t, propbag.Encode(propbag.Bag{Strings: []propbag.StringProperty{}}))
		_, err := v.Strings(0)
		assert.ErrorIs(t, err, propbag.ErrIndexOutOfRange)
	})
}

func TestViewElements(t *testing.T) {
	t.Parallel()

	bag := testutil.FullBag()
	v := mustOpen(t, propbag.Encode(bag))

	for i, want := range bag.Floats {
		p, err := v.Floats(i)
		require.NoError(t, err)
		assert.Equal(t, want, p.Property())
		assert.Equal(t, []byte(want.Name), p.NameBytes())
	}
	for i, want := range bag.Strings {
		p, err := v.Strings(i)
		require.NoError(t, err)
		assert.Equal(t, want, p.Property())
		assert.Equal(t, want.Value, string(p.ValueBytes()))
	}

	el, err := v.Element(propbag.FieldStrings, 0)
	require.NoError(t, err)
	assert.Equal(t, propbag.Property{Field: propbag.FieldStrings, Name: "optimizer", Value: "AdamW"}, el)

	el, err = v.Element(propbag.FieldFloats, 1)
	require.NoError(t, err)
	assert.Equal(t, propbag.Property{Field: propbag.FieldFloats, Name: "loss", Value: float32(2.5)}, el)

	el, err = v.Element(propbag.FieldInts, 2)
	require.NoError(t, err)
	assert.Equal(t, propbag.Property{Field: propbag.FieldInts, Name: "negative", Value: int64(-7)}, el)
}

func TestViewLookup(t *testing.T) {
	t.Parallel()

	bag := testutil.FullBag()
	bag.Ints = append(bag.Ints, propbag.IntProperty{Name: "epoch", Value: 99})
	v := mustOpen(t, propbag.Encode(bag))

	n, ok, err := v.LookupInt("epoch")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(12), n, "first match wins")

	n, ok, err = v.LookupInt("zero")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Zero(t, n)

	f, ok, err := v.LookupFloat("loss")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, float32(2.5), f)

	s, ok, err := v.LookupString("optimizer")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "AdamW", s)

	_, ok, err = v.LookupString("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	empty := mustOpen(t, propbag.Encode(propbag.Bag{}))
	_, ok, err = empty.LookupFloat("loss")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOpenSizePrefixed(t *testing.T) {
	t.Parallel()

	bag := testutil.FullBag()
	buf := propbag.Encode(bag, propbag.WithSizePrefix())

	v, err := propbag.OpenSizePrefixed(buf)
	require.NoError(t, err)
	got, err := v.Bag()
	require.NoError(t, err)
	assert.Equal(t, bag, got)

	t.Run("trailing bytes ignored", func(t *testing.T) {
		t.Parallel()
		padded := append(slices.Clone(buf), 0xde, 0xad, 0xbe, 0xef)
		v, err := propbag.OpenSizePrefixed(padded)
		require.NoError(t, err)
		assert.Len(t, v.Bytes(), len(buf))
	})

	t.Run("prefix exceeds buffer", func(t *testing.T) {
		t.Parallel()
		_, err := propbag.OpenSizePrefixed(buf[:len(buf)-1])
		assert.ErrorIs(t, err, propbag.ErrOutOfBounds)
	})

	t.Run("short buffer", func(t *testing.T) {
		t.Parallel()
		_, err := propbag.OpenSizePrefixed([]byte{1, 0})
		assert.ErrorIs(t, err, propbag.ErrOutOfBounds)
	})
}

func TestOpenBounds(t *testing.T) {
	t.Parallel()

	t.Run("empty buffer", func(t *testing.T) {
		t.Parallel()
		_, err := propbag.Open(nil, 0)
		assert.ErrorIs(t, err, propbag.ErrEmptyBuffer)
		assert.ErrorIs(t, err, propbag.ErrOutOfBounds)
	})

	t.Run("offset past end", func(t *testing.T) {
		t.Parallel()
		_, err := propbag.Open(emptyBagGolden, uint32(len(emptyBagGolden)-3))
		assert.ErrorIs(t, err, propbag.ErrOutOfBounds)
	})

	t.Run("nonzero offset", func(t *testing.T) {
		t.Parallel()
		// Root offsets are relative to their own position.
		buf := append([]byte{0xaa, 0xbb, 0xcc, 0xdd}, emptyBagGolden...)
		v, err := propbag.Open(buf, 4)
		require.NoError(t, err)
		assert.True(t, v.IntsIsNone())
	})
}

func TestOpenCorruptBuffers(t *testing.T) {
	t.Parallel()

	corrupt := func(src []byte, at int, b ...byte) []byte {
		out := slices.Clone(src)
		copy(out[at:], b)
		return out
	}

	tests := []struct {
		name string
		buf  []byte
		want error
	}{
		{name: "root offset past end", buf: corrupt(emptyBagGolden, 0, 0xff), want: propbag.ErrOutOfBounds},
		{name: "vtable before buffer start", buf: corrupt(emptyBagGolden, 12, 0xff, 0xff, 0xff, 0x7f), want: propbag.ErrOutOfBounds},
		{name: "field offset outside table", buf: corrupt(emptyIntsGolden, 14, 0x08), want: propbag.ErrMalformed},
		{name: "vector count past end", buf: corrupt(emptyIntsGolden, 24, 0x01), want: propbag.ErrOutOfBounds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := propbag.Open(tt.buf, 0)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCorruptElement(t *testing.T) {
	t.Parallel()

	// Overwrite the NUL terminator of the first property name.
	buf := slices.Clone(exampleGolden)
	buf[73] = 'A'

	v := mustOpen(t, buf)
	_, err := v.Ints(0)
	require.ErrorIs(t, err, propbag.ErrMalformed)

	p, err := v.Ints(1)
	require.NoError(t, err, "other elements stay readable")
	assert.Equal(t, "b", p.Name())

	_, err = v.Bag()
	assert.ErrorIs(t, err, propbag.ErrMalformed)
	assert.ErrorIs(t, propbag.Verify(buf), propbag.ErrMalformed)
}

func TestTruncatedBuffersNeverPanic(t *testing.T) {
	t.Parallel()

	buf := propbag.Encode(testutil.FullBag())
	for n := range len(buf) {
		assert.NotPanics(t, func() {
			_, _ = propbag.Decode(buf[:n])
			_ = propbag.Verify(buf[:n])
		}, "truncated to %d bytes", n)
	}

	// Only trailing string padding may be cut from the example buffer.
	for n := range len(exampleGolden) - 2 {
		_, err := propbag.Decode(exampleGolden[:n])
		assert.Error(t, err, "truncated to %d bytes", n)
	}
}

func TestViewsShareBuffer(t *testing.T) {
	t.Parallel()

	buf := propbag.Encode(testutil.FullBag())
	v := mustOpen(t, buf)

	done := make(chan propbag.Bag, 8)
	for range cap(done) {
		go func() {
			bag, err := v.Bag()
			assert.NoError(t, err)
			done <- bag
		}()
	}
	for range cap(done) {
		assert.Equal(t, testutil.FullBag(), <-done)
	}
}
