// Command findings lists what aesnt runs stored in a ledger.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/i5heu/aesnt/internal/ledger"
	"github.com/i5heu/aesnt/pkg/logging"
)

func main() {
	path := flag.String("ledger", "ledger", "badger directory written by aesnt -ledger")
	flag.Parse()

	if err := run(*path, os.Stdout); err != nil {
		logging.Logger.Error("listing findings failed", "error", err)
		os.Exit(1)
	}
}

func run(path string, out io.Writer) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("ledger %s: %w", path, err)
	}

	l, err := ledger.Open(ledger.Config{Path: path})
	if err != nil {
		return err
	}
	defer l.Close()

	entries, err := l.List()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tFOUND\tBUCKET\tPLAINTEXT")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%q\n", e.Key, e.FoundAt.Local().Format(time.DateTime), e.Bucket, e.Plaintext)
	}
	return w.Flush()
}
