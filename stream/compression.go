package stream

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies the codec wrapped around a stream.
type Compression uint8

const (
	CompressionNone Compression = iota
	CompressionZstd
	CompressionLZ4
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionZstd:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	default:
		return "unknown"
	}
}

// Frame magic numbers, as they appear on the wire.
var (
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	lz4Magic  = []byte{0x04, 0x22, 0x4d, 0x18}
)

// detect peeks at the start of br. Read as a size prefix, both magic numbers
// exceed MaxFrameSize, so a plain stream is never mistaken for a compressed one.
func detect(br *bufio.Reader) (Compression, error) {
	head, err := br.Peek(len(zstdMagic))
	if err != nil {
		// Too short to hold a magic number, so not compressed.
		if errors.Is(err, io.EOF) {
			return CompressionNone, nil
		}
		return CompressionNone, err
	}
	switch {
	case bytes.Equal(head, zstdMagic):
		return CompressionZstd, nil
	case bytes.Equal(head, lz4Magic):
		return CompressionLZ4, nil
	default:
		return CompressionNone, nil
	}
}

// compressor wraps w for the given compression. The returned closer flushes
// the compressed frame; it does not close w.
func compressor(w io.Writer, c Compression) (io.Writer, io.Closer, error) {
	switch c {
	case CompressionNone:
		return w, nil, nil
	case CompressionZstd:
		enc, err := zstd.NewWriter(w, zstd.WithEncoderConcurrency(1), zstd.WithLowerEncoderMem(true))
		if err != nil {
			return nil, nil, fmt.Errorf("create zstd encoder: %w", err)
		}
		return enc, enc, nil
	case CompressionLZ4:
		zw := lz4.NewWriter(w)
		return zw, zw, nil
	default:
		return nil, nil, fmt.Errorf("stream: unsupported compression %s", c)
	}
}

// decompressor wraps r for the given compression. The returned function
// releases decoder resources.
func decompressor(r io.Reader, c Compression) (io.Reader, func(), error) {
	switch c {
	case CompressionNone:
		return r, func() {}, nil
	case CompressionZstd:
		dec, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, nil, fmt.Errorf("create zstd decoder: %w", err)
		}
		return dec, dec.Close, nil
	case CompressionLZ4:
		return lz4.NewReader(r), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("stream: unsupported compression %s", c)
	}
}
