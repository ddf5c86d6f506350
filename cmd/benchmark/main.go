// Command benchmark measures search throughput for increasing worker counts.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"text/tabwriter"

	"github.com/i5heu/aesnt/pkg/cbc"
	"github.com/i5heu/aesnt/pkg/codec"
	"github.com/i5heu/aesnt/pkg/keyspace"
	"github.com/i5heu/aesnt/pkg/logging"
	"github.com/i5heu/aesnt/pkg/results"
	"github.com/i5heu/aesnt/pkg/search"
	"lukechampine.com/uint128"
)

func main() {
	keys := flag.Uint64("keys", 1<<22, "keys searched per measurement")
	blocks := flag.Int("blocks", 1, "ciphertext length in blocks")
	flag.Parse()

	if err := run(os.Stdout, *keys, *blocks, workerCounts(runtime.NumCPU())); err != nil {
		logging.Logger.Error("benchmark failed", "error", err)
		os.Exit(1)
	}
}

// workerCounts returns 1, 2, 4, ... up to and including limit.
func workerCounts(limit int) []int {
	var counts []int
	for n := 1; n < limit; n *= 2 {
		counts = append(counts, n)
	}
	return append(counts, limit)
}

func run(out io.Writer, keys uint64, blocks int, counts []int) error {
	if blocks < 1 {
		return fmt.Errorf("blocks must be positive, got %d", blocks)
	}
	// the ciphertext content does not matter for throughput
	ct := make([]codec.Block, blocks)
	job := search.Job{
		IV:         uint128.From64(0x9876543210FEDCBA),
		Ciphertext: ct,
		Range:      keyspace.Range{Start: uint128.Zero, End: uint128.From64(keys)},
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "hardware AES: %v\n", cbc.HardwareAccelerated())
	fmt.Fprintln(w, "WORKERS\tKEYS\tSECONDS\tKEYS/S")
	for _, n := range counts {
		engine := &search.Engine{Recorder: &results.Memory{}, Workers: n}
		report, err := engine.Run(job)
		if err != nil {
			return err
		}
		secs := report.Duration.Seconds()
		fmt.Fprintf(w, "%d\t%s\t%.3f\t%.0f\n", n, report.Evaluated.String(), secs, float64(keys)/secs)
	}
	return w.Flush()
}
