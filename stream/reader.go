package stream

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"runtime"

	flatbuffers "github.com/google/flatbuffers/go"
	"golang.org/x/sync/errgroup"

	"github.com/meigma/propbag"
)

// Reader reads property bags from a stream produced by Writer.
//
// Each View returned by Next owns its frame buffer and stays valid after
// further calls. A Reader is not safe for concurrent use.
type Reader struct {
	r            io.Reader
	release      func()
	compression  Compression
	maxFrameSize uint32
	verify       bool
	workers      int
	logger       *slog.Logger
	frames       int
	closed       bool
}

// NewReader creates a Reader over r. The compression is detected from the
// first bytes of the stream.
func NewReader(r io.Reader, opts ...ReaderOption) (*Reader, error) {
	sr := &Reader{
		maxFrameSize: DefaultMaxFrameSize,
	}
	for _, opt := range opts {
		opt(sr)
	}
	if sr.logger == nil {
		sr.logger = slog.New(slog.DiscardHandler)
	}

	br := bufio.NewReader(r)
	c, err := detect(br)
	if err != nil {
		return nil, fmt.Errorf("detect compression: %w", err)
	}
	dr, release, err := decompressor(br, c)
	if err != nil {
		return nil, err
	}
	sr.compression = c
	sr.release = release
	if c == CompressionNone {
		sr.r = br
	} else {
		sr.r = bufio.NewReader(dr)
	}
	sr.logger.Debug("stream opened", slog.String("compression", c.String()))
	return sr, nil
}

// Compression returns the codec detected on the stream.
func (r *Reader) Compression() Compression {
	return r.compression
}

// Next returns the next bag in the stream. It returns io.EOF when the stream
// ends on a frame boundary.
func (r *Reader) Next() (propbag.View, error) {
	frame, err := r.nextFrame()
	if err != nil {
		return propbag.View{}, err
	}
	v, err := r.open(frame)
	if err != nil {
		return propbag.View{}, fmt.Errorf("frame %d: %w", r.frames-1, err)
	}
	return v, nil
}

// All iterates over the remaining bags. Iteration stops at the end of the
// stream or after yielding the first error.
func (r *Reader) All() iter.Seq2[propbag.View, error] {
	return func(yield func(propbag.View, error) bool) {
		for {
			v, err := r.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(v, err) || err != nil {
				return
			}
		}
	}
}

// Frames returns the number of frames read so far.
func (r *Reader) Frames() int {
	return r.frames
}

// Close releases decoder resources. It does not close the underlying reader.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	r.release()
	return nil
}

// nextFrame reads one size-prefixed frame, prefix included.
func (r *Reader) nextFrame() ([]byte, error) {
	if r.closed {
		return nil, ErrClosed
	}
	var prefix [flatbuffers.SizeUint32]byte
	n, err := io.ReadFull(r.r, prefix[:])
	switch {
	case n == 0 && errors.Is(err, io.EOF):
		return nil, io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		return nil, fmt.Errorf("%w: %d of %d prefix bytes", ErrTruncatedFrame, n, len(prefix))
	case err != nil:
		return nil, fmt.Errorf("read frame prefix: %w", err)
	}

	size := flatbuffers.GetUint32(prefix[:])
	if size > r.maxFrameSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrFrameTooLarge, size, r.maxFrameSize)
	}

	frame := make([]byte, flatbuffers.SizeUint32+int(size))
	copy(frame, prefix[:])
	n, err = io.ReadFull(r.r, frame[flatbuffers.SizeUint32:])
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return nil, fmt.Errorf("%w: %d of %d bytes", ErrTruncatedFrame, n, size)
	case err != nil:
		return nil, fmt.Errorf("read frame: %w", err)
	}

	r.frames++
	r.logger.Debug("frame read", slog.Int("frame", r.frames-1), slog.Int("size", len(frame)))
	return frame, nil
}

func (r *Reader) open(frame []byte) (propbag.View, error) {
	if r.verify {
		if err := propbag.Verify(frame, propbag.WithSizePrefix()); err != nil {
			return propbag.View{}, err
		}
	} else if !propbag.HasIdentifier(frame, 0, true) {
		return propbag.View{}, propbag.ErrIdentifierMismatch
	}
	return propbag.OpenSizePrefixed(frame)
}

// ReadAll reads every frame from r and decodes the bags concurrently.
// Frames are read in order; decoding is spread over WithWorkers goroutines
// (GOMAXPROCS by default). The result preserves stream order.
func ReadAll(ctx context.Context, r io.Reader, opts ...ReaderOption) ([]propbag.Bag, error) {
	sr, err := NewReader(r, opts...)
	if err != nil {
		return nil, err
	}
	defer sr.Close()

	var frames [][]byte
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		frame, err := sr.nextFrame()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		frames = append(frames, frame)
	}

	workers := sr.workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	bags := make([]propbag.Bag, len(frames))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, frame := range frames {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			v, err := sr.open(frame)
			if err != nil {
				return fmt.Errorf("frame %d: %w", i, err)
			}
			bag, err := v.Bag()
			if err != nil {
				return fmt.Errorf("frame %d: %w", i, err)
			}
			bags[i] = bag
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	sr.logger.Debug("stream decoded", slog.Int("frames", len(bags)), slog.Int("workers", workers))
	return bags, nil
}
