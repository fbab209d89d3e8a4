package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/meigma/propbag"
)

// stdio is the path that selects stdin or stdout.
const stdio = "-"

func readInput(e *env, path string) ([]byte, error) {
	if path == stdio {
		return io.ReadAll(e.stdin)
	}
	return os.ReadFile(path) //nolint:gosec // path is supplied by the user on purpose
}

func writeOutput(e *env, path string, data []byte) error {
	if path == stdio {
		_, err := e.stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644) //nolint:gosec // output files are not secret
}

func openInput(e *env, path string) (io.ReadCloser, error) {
	if path == stdio {
		return io.NopCloser(e.stdin), nil
	}
	return os.Open(path) //nolint:gosec // path is supplied by the user on purpose
}

func createOutput(e *env, path string) (io.WriteCloser, error) {
	if path == stdio {
		return nopWriteCloser{e.stdout}, nil
	}
	return os.Create(path) //nolint:gosec // path is supplied by the user on purpose
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// decodeBags reads a sequence of JSON bag objects. Unknown keys are rejected
// so a typo in a field name is not silently dropped as an absent field.
func decodeBags(r io.Reader, fn func(propbag.Bag) error) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	for n := 0; ; n++ {
		var bag propbag.Bag
		err := dec.Decode(&bag)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("decode JSON bag %d: %w", n, err)
		}
		if err := fn(bag); err != nil {
			return err
		}
	}
}

func writeJSON(w io.Writer, v any, indent bool) error {
	enc := json.NewEncoder(w)
	if indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

// codecFlags are the layout flags shared by commands that read or write a
// single binary bag.
type codecFlags struct {
	sizePrefix   bool
	noIdentifier bool
}

func (c *codecFlags) register(fs *flag.FlagSet) {
	fs.BoolVar(&c.sizePrefix, "size-prefix", false, "buffer carries a 4-byte size prefix")
	fs.BoolVar(&c.noIdentifier, "no-identifier", false, "buffer has no ORTM file identifier")
}

func (c *codecFlags) options() []propbag.Option {
	var opts []propbag.Option
	if c.sizePrefix {
		opts = append(opts, propbag.WithSizePrefix())
	}
	if c.noIdentifier {
		opts = append(opts, propbag.WithoutIdentifier())
	}
	return opts
}

// open verifies buf and returns its view.
func (c *codecFlags) open(buf []byte) (propbag.View, error) {
	if err := propbag.Verify(buf, c.options()...); err != nil {
		return propbag.View{}, err
	}
	if c.sizePrefix {
		return propbag.OpenSizePrefixed(buf)
	}
	return propbag.Open(buf, 0)
}
