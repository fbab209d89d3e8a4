package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"

	ocispec "github.com/opencontainers/image-spec/specs-go/v1"

	"github.com/meigma/propbag"
	"github.com/meigma/propbag/cache/disk"
	"github.com/meigma/propbag/ocistore"
	"github.com/meigma/propbag/stream"
)

func runEncode(_ context.Context, e *env, args []string) error {
	fs := newFlagSet(e, "encode")
	in := fs.String("in", stdio, "JSON input file")
	out := fs.String("out", stdio, "binary output file")
	var codec codecFlags
	codec.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	data, err := readInput(e, *in)
	if err != nil {
		return err
	}
	var bags []propbag.Bag
	if err := decodeBags(bytes.NewReader(data), func(b propbag.Bag) error {
		bags = append(bags, b)
		return nil
	}); err != nil {
		return err
	}
	if len(bags) != 1 {
		return fmt.Errorf("expected one JSON bag, got %d", len(bags))
	}
	return writeOutput(e, *out, propbag.Encode(bags[0], codec.options()...))
}

func runDump(_ context.Context, e *env, args []string) error {
	fs := newFlagSet(e, "dump")
	in := fs.String("in", stdio, "binary input file")
	compact := fs.Bool("compact", false, "write JSON on one line")
	var codec codecFlags
	codec.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	buf, err := readInput(e, *in)
	if err != nil {
		return err
	}
	v, err := codec.open(buf)
	if err != nil {
		return err
	}
	bag, err := v.Bag()
	if err != nil {
		return err
	}
	return writeJSON(e.stdout, bag, !*compact)
}

func runVerify(_ context.Context, e *env, args []string) error {
	fs := newFlagSet(e, "verify")
	in := fs.String("in", stdio, "binary input file")
	var codec codecFlags
	codec.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	buf, err := readInput(e, *in)
	if err != nil {
		return err
	}
	v, err := codec.open(buf)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(e.stdout, "ok %s ints=%d floats=%d strings=%d\n",
		propbag.Digest(v.Bytes()), v.IntsLength(), v.FloatsLength(), v.StringsLength())
	return err
}

func runDigest(_ context.Context, e *env, args []string) error {
	fs := newFlagSet(e, "digest")
	in := fs.String("in", stdio, "binary input file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	buf, err := readInput(e, *in)
	if err != nil {
		return err
	}
	return writeJSON(e.stdout, propbag.Descriptor(buf), false)
}

func runPack(_ context.Context, e *env, args []string) error {
	fs := newFlagSet(e, "pack")
	in := fs.String("in", stdio, "JSON input with one bag per value")
	out := fs.String("out", stdio, "stream output file")
	compression := fs.String("compression", "none", "compression: none, zstd or lz4")
	if err := fs.Parse(args); err != nil {
		return err
	}
	c, err := parseCompression(*compression)
	if err != nil {
		return err
	}

	r, err := openInput(e, *in)
	if err != nil {
		return err
	}
	defer r.Close()
	f, err := createOutput(e, *out)
	if err != nil {
		return err
	}

	w, err := stream.NewWriter(f, stream.WithCompression(c), stream.WithWriterLogger(e.logger))
	if err != nil {
		_ = f.Close()
		return err
	}
	err = decodeBags(r, func(bag propbag.Bag) error {
		_, err := w.Append(bag)
		return err
	})
	err = errors.Join(err, w.Close(), f.Close())
	if err != nil {
		return err
	}
	e.logger.Info("stream packed", "frames", w.Frames(), "compression", c.String())
	return nil
}

func runUnpack(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet(e, "unpack")
	in := fs.String("in", stdio, "stream input file")
	workers := fs.Int("workers", 0, "decode workers (0 = GOMAXPROCS)")
	verify := fs.Bool("verify", false, "fully verify every frame")
	if err := fs.Parse(args); err != nil {
		return err
	}

	r, err := openInput(e, *in)
	if err != nil {
		return err
	}
	defer r.Close()

	opts := []stream.ReaderOption{stream.WithWorkers(*workers), stream.WithReaderLogger(e.logger)}
	if *verify {
		opts = append(opts, stream.WithVerify())
	}
	bags, err := stream.ReadAll(ctx, r, opts...)
	if err != nil {
		return err
	}
	for _, bag := range bags {
		if err := writeJSON(e.stdout, bag, false); err != nil {
			return err
		}
	}
	return nil
}

// layoutFlags select an OCI layout or remote repository and an optional
// local cache.
type layoutFlags struct {
	dir       string
	remote    string
	plainHTTP bool
	cacheDir  string
	tag       string
}

func (l *layoutFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&l.dir, "layout", "", "OCI image layout directory")
	fs.StringVar(&l.remote, "remote", "", "remote repository, e.g. registry.example.com/bags")
	fs.BoolVar(&l.plainHTTP, "plain-http", false, "use plain HTTP for -remote")
	fs.StringVar(&l.cacheDir, "cache-dir", "", "disk cache directory")
	fs.StringVar(&l.tag, "tag", "", "tag to push or pull")
}

func (l *layoutFlags) store(e *env) (*ocistore.Store, error) {
	if (l.dir == "") == (l.remote == "") {
		return nil, errors.New("exactly one of -layout or -remote is required")
	}
	opts := []ocistore.Option{ocistore.WithLogger(e.logger)}
	if l.cacheDir != "" {
		c, err := disk.New(l.cacheDir, disk.WithLogger(e.logger))
		if err != nil {
			return nil, err
		}
		opts = append(opts, ocistore.WithCache(c))
	}
	if l.remote != "" {
		opts = append(opts, ocistore.WithPlainHTTP(l.plainHTTP), ocistore.WithDockerConfig())
		return ocistore.NewRemote(l.remote, opts...)
	}
	return ocistore.NewLayout(l.dir, opts...)
}

func runPush(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet(e, "push")
	in := fs.String("in", stdio, "binary input file")
	var layout layoutFlags
	layout.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	s, err := layout.store(e)
	if err != nil {
		return err
	}
	buf, err := readInput(e, *in)
	if err != nil {
		return err
	}
	var desc ocispec.Descriptor
	if layout.tag != "" {
		desc, err = s.PushTagged(ctx, buf, layout.tag, nil)
	} else {
		desc, err = s.Push(ctx, buf)
	}
	if err != nil {
		return err
	}
	return writeJSON(e.stdout, desc, false)
}

func runPull(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet(e, "pull")
	var layout layoutFlags
	layout.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if layout.tag == "" {
		return errors.New("-tag is required")
	}

	s, err := layout.store(e)
	if err != nil {
		return err
	}
	v, err := s.FetchTagged(ctx, layout.tag)
	if err != nil {
		return err
	}
	bag, err := v.Bag()
	if err != nil {
		return err
	}
	return writeJSON(e.stdout, bag, true)
}

func parseCompression(name string) (stream.Compression, error) {
	switch name {
	case "none", "":
		return stream.CompressionNone, nil
	case "zstd":
		return stream.CompressionZstd, nil
	case "lz4":
		return stream.CompressionLZ4, nil
	default:
		return stream.CompressionNone, fmt.Errorf("unknown compression %q", name)
	}
}
