package stream

import "errors"

var (
	// ErrFrameTooLarge is returned when a frame's size prefix exceeds the
	// reader's limit.
	ErrFrameTooLarge = errors.New("stream: frame too large")

	// ErrTruncatedFrame is returned when the stream ends inside a frame.
	ErrTruncatedFrame = errors.New("stream: truncated frame")

	// ErrClosed is returned when using a closed Writer or Reader.
	ErrClosed = errors.New("stream: closed")
)
