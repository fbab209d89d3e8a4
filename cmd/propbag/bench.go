package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"runtime/pprof"
	"time"

	"github.com/felixge/fgprof"

	"github.com/meigma/propbag"
	"github.com/meigma/propbag/internal/testutil"
)

// sinkBag keeps decoded results alive so the loop is not optimized away.
var sinkBag propbag.Bag

type benchStats struct {
	ops     int
	bytes   int64
	elapsed time.Duration
}

func runBench(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet(e, "bench")
	mode := fs.String("mode", "roundtrip", "mode: encode, decode or roundtrip")
	bagCount := fs.Int("bags", 256, "number of distinct bags")
	maxLen := fs.Int("max-len", 16, "maximum properties per field")
	duration := fs.Duration("duration", 5*time.Second, "duration to run (ignored if iterations > 0)")
	iterations := fs.Int("iterations", 0, "number of iterations to run")
	seed := fs.Uint64("seed", 1, "random seed")
	cpuProfile := fs.String("cpuprofile", "", "write CPU profile to file")
	fgProfile := fs.String("fgprofile", "", "write fgprof (wall clock) profile to file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *bagCount <= 0 || *maxLen < 0 {
		return errors.New("-bags must be > 0 and -max-len >= 0")
	}

	rng := rand.New(rand.NewPCG(*seed, *seed)) //nolint:gosec // intentional for reproducible benchmarks
	bags := make([]propbag.Bag, *bagCount)
	encoded := make([][]byte, *bagCount)
	for i := range bags {
		bags[i] = testutil.RandomBag(rng, *maxLen)
		encoded[i] = propbag.Encode(bags[i])
	}

	if *fgProfile != "" {
		f, err := os.Create(*fgProfile) //nolint:gosec // path is supplied by the user on purpose
		if err != nil {
			return err
		}
		stop := fgprof.Start(f, fgprof.FormatPprof)
		defer func() {
			if err := stop(); err != nil {
				e.logger.Warn("fgprof stop failed", "error", err)
			}
			_ = f.Close()
		}()
	}
	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile) //nolint:gosec // path is supplied by the user on purpose
		if err != nil {
			return err
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			_ = f.Close()
			return err
		}
		defer func() {
			pprof.StopCPUProfile()
			_ = f.Close()
		}()
	}

	stats, err := benchLoop(ctx, *mode, bags, encoded, *iterations, *duration)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(e.stdout, "mode=%s ops=%d bytes=%d elapsed=%s throughput=%.2f MB/s\n",
		*mode,
		stats.ops,
		stats.bytes,
		stats.elapsed,
		float64(stats.bytes)/(1024*1024)/stats.elapsed.Seconds(),
	)
	return err
}

func benchLoop(ctx context.Context, mode string, bags []propbag.Bag, encoded [][]byte, iterations int, duration time.Duration) (benchStats, error) {
	start := time.Now()
	var stats benchStats

	shouldContinue := func() bool {
		if ctx.Err() != nil {
			return false
		}
		if iterations > 0 {
			return stats.ops < iterations
		}
		return time.Since(start) < duration
	}

	b := propbag.NewBuilder(propbag.DefaultInitialSize)
	for shouldContinue() {
		i := stats.ops % len(bags)
		switch mode {
		case "encode":
			b.Reset()
			buf := b.Finish(b.AppendBag(bags[i]))
			stats.bytes += int64(len(buf))
		case "decode":
			bag, err := propbag.Decode(encoded[i])
			if err != nil {
				return benchStats{}, err
			}
			sinkBag = bag
			stats.bytes += int64(len(encoded[i]))
		case "roundtrip":
			b.Reset()
			buf := b.Finish(b.AppendBag(bags[i]))
			bag, err := propbag.Decode(buf)
			if err != nil {
				return benchStats{}, err
			}
			sinkBag = bag
			stats.bytes += int64(len(buf))
		default:
			return benchStats{}, fmt.Errorf("unknown mode %q", mode)
		}
		stats.ops++
	}
	stats.elapsed = time.Since(start)
	return stats, ctx.Err()
}
