package stream

import (
	"fmt"
	"io"
	"log/slog"

	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/opencontainers/go-digest"

	"github.com/meigma/propbag"
)

// Writer appends property bags to a stream.
//
// A Writer is not safe for concurrent use. Close must be called to flush a
// compressed stream; it does not close the underlying io.Writer.
type Writer struct {
	w           io.Writer
	closer      io.Closer
	builder     *propbag.Builder
	compression Compression
	logger      *slog.Logger
	frames      int
	written     int64
	closed      bool
}

// NewWriter creates a Writer that appends frames to w.
func NewWriter(w io.Writer, opts ...WriterOption) (*Writer, error) {
	sw := &Writer{
		builder: propbag.NewBuilder(0),
	}
	for _, opt := range opts {
		opt(sw)
	}
	if sw.logger == nil {
		sw.logger = slog.New(slog.DiscardHandler)
	}
	cw, closer, err := compressor(w, sw.compression)
	if err != nil {
		return nil, err
	}
	sw.w = cw
	sw.closer = closer
	return sw, nil
}

// Append encodes bag as one frame and returns the digest of the frame bytes.
func (w *Writer) Append(bag propbag.Bag) (digest.Digest, error) {
	w.builder.Reset()
	frame := w.builder.Finish(w.builder.AppendBag(bag), propbag.WithSizePrefix())
	return w.write(frame)
}

// AppendEncoded writes an already encoded, size-prefixed bag as one frame.
// The buffer is verified first and must contain exactly one frame.
func (w *Writer) AppendEncoded(frame []byte) (digest.Digest, error) {
	if err := propbag.Verify(frame, propbag.WithSizePrefix()); err != nil {
		return "", fmt.Errorf("append encoded frame: %w", err)
	}
	if size := uint64(flatbuffers.GetUint32(frame)) + flatbuffers.SizeUint32; size != uint64(len(frame)) {
		return "", fmt.Errorf("append encoded frame: %d trailing bytes", uint64(len(frame))-size)
	}
	return w.write(frame)
}

func (w *Writer) write(frame []byte) (digest.Digest, error) {
	if w.closed {
		return "", ErrClosed
	}
	if len(frame)-flatbuffers.SizeUint32 > MaxFrameSize {
		return "", fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(frame)-flatbuffers.SizeUint32)
	}
	if _, err := w.w.Write(frame); err != nil {
		return "", fmt.Errorf("write frame %d: %w", w.frames, err)
	}
	dgst := propbag.Digest(frame)
	w.frames++
	w.written += int64(len(frame))
	w.logger.Debug("frame written",
		slog.Int("frame", w.frames-1),
		slog.Int("size", len(frame)),
		slog.String("digest", dgst.String()))
	return dgst, nil
}

// Frames returns the number of frames written.
func (w *Writer) Frames() int {
	return w.frames
}

// Close flushes any compressed data. It does not close the underlying writer.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	w.logger.Debug("stream closed",
		slog.Int("frames", w.frames),
		slog.Int64("bytes", w.written),
		slog.String("compression", w.compression.String()))
	if w.closer == nil {
		return nil
	}
	return w.closer.Close()
}
