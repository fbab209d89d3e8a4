package propbag

// DefaultInitialSize is the builder capacity Encode starts with.
const DefaultInitialSize = 256

// Option configures encoding, finishing and verification of a buffer.
type Option func(*config)

type config struct {
	sizePrefix  bool
	identifier  bool
	initialSize int
}

func newConfig(opts []Option) config {
	cfg := config{
		identifier:  true,
		initialSize: DefaultInitialSize,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithSizePrefix writes (or expects) a 4-byte little-endian length before the
// root offset, the framing used when buffers are concatenated in a stream.
func WithSizePrefix() Option {
	return func(c *config) {
		c.sizePrefix = true
	}
}

// WithoutIdentifier omits the ORTM file identifier when writing, and skips the
// identifier check when verifying.
func WithoutIdentifier() Option {
	return func(c *config) {
		c.identifier = false
	}
}

// WithInitialSize sets the starting capacity of the encode buffer.
// Values <= 0 use DefaultInitialSize. The buffer grows as needed.
func WithInitialSize(n int) Option {
	return func(c *config) {
		if n <= 0 {
			n = DefaultInitialSize
		}
		c.initialSize = n
	}
}
