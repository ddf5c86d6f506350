// Command selftest checks that a search on this machine finds a known key.
// It encrypts a printable block under a random key and IV, searches a small
// window around the key and expects exactly that one finding.
package main

import (
	"crypto/rand"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/i5heu/aesnt/pkg/cbc"
	"github.com/i5heu/aesnt/pkg/codec"
	"github.com/i5heu/aesnt/pkg/keyspace"
	"github.com/i5heu/aesnt/pkg/logging"
	"github.com/i5heu/aesnt/pkg/results"
	"github.com/i5heu/aesnt/pkg/search"
	"lukechampine.com/uint128"
)

const plaintext = "aesnt self-test!"

func main() {
	window := flag.Uint64("window", 1<<16, "keys searched on each side of the secret key")
	workers := flag.Int("workers", 0, "parallel workers (default: number of cores)")
	flag.Parse()

	logger := logging.Logger
	if err := selfTest(logger, *window, *workers); err != nil {
		logger.Error("self-test failed", "error", err)
		os.Exit(1)
	}
	logger.Info("self-test passed")
}

func randomUint128() (codec.Uint128, error) {
	var b codec.Block
	if _, err := rand.Read(b[:]); err != nil {
		return uint128.Zero, err
	}
	return codec.FromBlock(b), nil
}

func selfTest(logger *slog.Logger, window uint64, workers int) error {
	key, err := randomUint128()
	if err != nil {
		return err
	}
	iv, err := randomUint128()
	if err != nil {
		return err
	}
	ct, err := cbc.EncryptChain(iv, key, []byte(plaintext))
	if err != nil {
		return err
	}

	r := windowAround(key, window)
	mem := &results.Memory{}
	engine := &search.Engine{Recorder: mem, Logger: logger, Workers: workers}
	if _, err := engine.Run(search.Job{IV: iv, Ciphertext: ct, Range: r}); err != nil {
		return err
	}

	want := codec.ToBlock(key)
	for _, f := range mem.Findings() {
		if f.Key == want {
			if string(f.Plaintext) != plaintext {
				return fmt.Errorf("key found but plaintext is %q", f.Plaintext)
			}
			return nil
		}
	}
	return errors.New("secret key was not found")
}

// windowAround clamps [key-window, key+window+1) to the representable range.
func windowAround(key codec.Uint128, window uint64) keyspace.Range {
	start := uint128.Zero
	if key.Cmp64(window) > 0 {
		start = key.Sub64(window)
	}
	end := uint128.Max
	if uint128.Max.Sub(key).Cmp64(window+1) > 0 {
		end = key.Add64(window + 1)
	}
	return keyspace.Range{Start: start, End: end}
}
