// Command propbag converts property bags between JSON and their binary
// FlatBuffers form, inspects them, and moves them through streams and OCI
// layouts.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"slices"
)

type command struct {
	name    string
	summary string
	run     func(ctx context.Context, env *env, args []string) error
}

var commands = []command{
	{"encode", "encode a JSON bag to binary", runEncode},
	{"dump", "decode a binary bag to JSON", runDump},
	{"verify", "check that a binary bag is well formed", runVerify},
	{"digest", "print the OCI descriptor of a binary bag", runDigest},
	{"pack", "write JSON bags as a frame stream", runPack},
	{"unpack", "decode a frame stream to JSON lines", runUnpack},
	{"push", "push a binary bag to an OCI layout", runPush},
	{"pull", "fetch a bag from an OCI layout as JSON", runPull},
	{"bench", "measure encode and decode throughput", runBench},
}

// env carries the process streams so commands can be driven from tests.
type env struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	logger *slog.Logger
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("propbag: ")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	e := &env{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}
	if err := run(ctx, e, os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		log.Fatal(err) //nolint:gocritic // exitAfterDefer is acceptable, stop only releases the signal handler
	}
}

func run(ctx context.Context, e *env, args []string) error {
	global := flag.NewFlagSet("propbag", flag.ContinueOnError)
	global.SetOutput(e.stderr)
	verbose := global.Bool("v", false, "log debug events to stderr")
	global.Usage = func() { usage(e.stderr, global) }
	if err := global.Parse(args); err != nil {
		return err
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	e.logger = slog.New(slog.NewTextHandler(e.stderr, &slog.HandlerOptions{Level: level}))

	rest := global.Args()
	if len(rest) == 0 {
		global.Usage()
		return flag.ErrHelp
	}
	i := slices.IndexFunc(commands, func(c command) bool { return c.name == rest[0] })
	if i < 0 {
		global.Usage()
		return fmt.Errorf("unknown command %q", rest[0])
	}
	return commands[i].run(ctx, e, rest[1:])
}

func usage(w io.Writer, global *flag.FlagSet) {
	fmt.Fprintln(w, "usage: propbag [-v] <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "commands:")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-8s %s\n", c.name, c.summary)
	}
	fmt.Fprintln(w)
	global.PrintDefaults()
}

// newFlagSet returns a flag set that reports errors instead of exiting.
func newFlagSet(e *env, name string) *flag.FlagSet {
	fs := flag.NewFlagSet("propbag "+name, flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	return fs
}
