package propbag

import (
	"errors"

	"github.com/meigma/propbag/internal/table"
)

// Errors re-exported from the table reader.
var (
	// ErrOutOfBounds is returned when an offset in the buffer resolves outside it.
	ErrOutOfBounds = table.ErrOutOfBounds

	// ErrMalformed is returned when a table or vtable is structurally invalid.
	ErrMalformed = table.ErrMalformed

	// ErrIndexOutOfRange is returned when a vector index is outside [0, len).
	ErrIndexOutOfRange = table.ErrIndexOutOfRange
)

var (
	// ErrEmptyBuffer is returned when decoding a zero-length buffer.
	ErrEmptyBuffer = errors.New("propbag: empty buffer")

	// ErrIdentifierMismatch is returned when a buffer does not carry the ORTM identifier.
	ErrIdentifierMismatch = errors.New("propbag: file identifier mismatch")

	// ErrBuilderMisuse is the value Builder panics with (wrapped) when called
	// out of order. It indicates a bug in the caller, not bad input data.
	ErrBuilderMisuse = errors.New("propbag: builder misuse")
)
