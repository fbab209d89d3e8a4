package stream

import "log/slog"

const (
	// DefaultMaxFrameSize is the frame size limit used when none is configured.
	DefaultMaxFrameSize = 16 << 20

	// MaxFrameSize is the largest frame a stream may carry.
	MaxFrameSize = 256 << 20
)

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithCompression sets the codec wrapped around the stream.
// Defaults to CompressionNone.
func WithCompression(c Compression) WriterOption {
	return func(w *Writer) {
		w.compression = c
	}
}

// WithWriterLogger sets the logger for stream writes.
// If not set, logging is disabled.
func WithWriterLogger(logger *slog.Logger) WriterOption {
	return func(w *Writer) {
		w.logger = logger
	}
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithMaxFrameSize limits the size of a single frame, excluding its 4-byte
// prefix. Values <= 0 use DefaultMaxFrameSize; values above MaxFrameSize are
// clamped to it.
func WithMaxFrameSize(n int) ReaderOption {
	return func(r *Reader) {
		switch {
		case n <= 0:
			n = DefaultMaxFrameSize
		case n > MaxFrameSize:
			n = MaxFrameSize
		}
		r.maxFrameSize = uint32(n) //nolint:gosec // clamped above
	}
}

// WithVerify fully verifies every frame before returning it, instead of only
// checking the identifier and the root table.
func WithVerify() ReaderOption {
	return func(r *Reader) {
		r.verify = true
	}
}

// WithReaderLogger sets the logger for stream reads.
// If not set, logging is disabled.
func WithReaderLogger(logger *slog.Logger) ReaderOption {
	return func(r *Reader) {
		r.logger = logger
	}
}

// WithWorkers sets how many goroutines ReadAll decodes with.
// Values <= 0 use GOMAXPROCS.
func WithWorkers(n int) ReaderOption {
	return func(r *Reader) {
		r.workers = n
	}
}
