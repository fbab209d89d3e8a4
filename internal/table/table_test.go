package table

import (
	"slices"
	"testing"

	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildRecord writes a table { name: string; value: long; extra: long } with
// a vector of two child tables at slot 2 when children is true, and returns
// the finished buffer.
func buildRecord(tb testing.TB, children bool) []byte {
	tb.Helper()

	b := flatbuffers.NewBuilder(0)
	var vec flatbuffers.UOffsetT
	if children {
		offs := make([]flatbuffers.UOffsetT, 2)
		for i := 1; i >= 0; i-- {
			name := b.CreateString([]string{"first", "second"}[i])
			b.StartObject(2)
			b.PrependUOffsetTSlot(0, name, 0)
			b.PrependInt64Slot(1, int64(i+10), 0)
			offs[i] = b.EndObject()
		}
		b.StartVector(4, 2, 4)
		b.PrependUOffsetT(offs[1])
		b.PrependUOffsetT(offs[0])
		vec = b.EndVector(2)
	}
	name := b.CreateString("root")
	b.StartObject(3)
	b.PrependUOffsetTSlot(0, name, 0)
	b.PrependInt64Slot(1, -42, 0)
	if children {
		b.PrependUOffsetTSlot(2, vec, 0)
	}
	b.Finish(b.EndObject())
	return b.FinishedBytes()
}

func mustRoot(tb testing.TB, buf []byte, nfields int) Table {
	tb.Helper()
	pos, err := Indirect(buf, 0)
	require.NoError(tb, err)
	tab, err := Open(buf, pos, nfields)
	require.NoError(tb, err)
	return tab
}

func TestOpenReadsFields(t *testing.T) {
	t.Parallel()

	buf := buildRecord(t, true)
	tab := mustRoot(t, buf, 3)

	name, ok, err := tab.ByteString(0)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "root", string(name))
	assert.Equal(t, len(name), cap(name), "string slice must not expose the terminator")

	v, err := tab.Int64(1)
	require.NoError(t, err)
	assert.Equal(t, int64(-42), v)

	vec, ok, err := tab.Vector(2, flatbuffers.SizeUOffsetT)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 2, vec.Len())

	for i, want := range []string{"first", "second"} {
		child, err := vec.Table(i, 2)
		require.NoError(t, err)
		got, _, err := child.ByteString(0)
		require.NoError(t, err)
		assert.Equal(t, want, string(got))
		n, err := child.Int64(1)
		require.NoError(t, err)
		assert.Equal(t, int64(i+10), n)
	}

	_, err = vec.Table(2, 2)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = vec.Slot(-1)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestOpenAbsentFields(t *testing.T) {
	t.Parallel()

	buf := buildRecord(t, false)
	tab := mustRoot(t, buf, 3)

	assert.True(t, tab.Present(0))
	assert.False(t, tab.Present(2), "trailing absent fields are trimmed from the vtable")
	assert.False(t, tab.Present(-1))
	assert.False(t, tab.Present(3))

	_, ok, err := tab.Vector(2, flatbuffers.SizeUOffsetT)
	require.NoError(t, err)
	assert.False(t, ok)

	f, err := tab.Float32(2)
	require.NoError(t, err)
	assert.Zero(t, f)
}

func TestOpenIgnoresUnknownFields(t *testing.T) {
	t.Parallel()

	// A reader that knows only the first field still opens a newer table.
	buf := buildRecord(t, true)
	tab := mustRoot(t, buf, 1)

	assert.True(t, tab.Present(0))
	assert.False(t, tab.Present(1))
	_, err := tab.Int64(1)
	assert.NoError(t, err)
}

func TestOpenRejectsCorruption(t *testing.T) {
	t.Parallel()

	buf := buildRecord(t, false)
	pos, err := Indirect(buf, 0)
	require.NoError(t, err)

	t.Run("table past end", func(t *testing.T) {
		t.Parallel()
		_, err := Open(buf, uint32(len(buf)-2), 3)
		assert.ErrorIs(t, err, ErrOutOfBounds)
	})

	t.Run("odd vtable length", func(t *testing.T) {
		t.Parallel()
		bad := slices.Clone(buf)
		vt := int(pos) - int(flatbuffers.GetSOffsetT(bad[pos:]))
		bad[vt] = 5
		_, err := Open(bad, pos, 3)
		assert.ErrorIs(t, err, ErrMalformed)
	})

	t.Run("object larger than buffer", func(t *testing.T) {
		t.Parallel()
		bad := slices.Clone(buf)
		vt := int(pos) - int(flatbuffers.GetSOffsetT(bad[pos:]))
		bad[vt+2], bad[vt+3] = 0xff, 0xff
		_, err := Open(bad, pos, 3)
		assert.ErrorIs(t, err, ErrOutOfBounds)
	})

	t.Run("indirect past end", func(t *testing.T) {
		t.Parallel()
		_, err := Indirect(buf, uint32(len(buf)-3))
		assert.ErrorIs(t, err, ErrOutOfBounds)
	})
}

func TestOpenPanicsOnTooManyFields(t *testing.T) {
	t.Parallel()

	buf := buildRecord(t, false)
	assert.Panics(t, func() {
		_, _ = Open(buf, 4, MaxFields+1)
	})
}
