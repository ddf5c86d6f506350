package main

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/i5heu/aesnt/internal/ledger"
	"github.com/i5heu/aesnt/pkg/cbc"
	"github.com/i5heu/aesnt/pkg/codec"
	"github.com/i5heu/aesnt/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	cli, err := parseFlags([]string{"-workers", "3", "-first", "00ff", "0100"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, 3, cli.workers)
	assert.True(t, cli.first)
	assert.Equal(t, "00ff", cli.startGuess)
	assert.Equal(t, "0100", cli.endGuess)

	_, err = parseFlags([]string{"00ff"}, io.Discard)
	assert.Error(t, err)
}

func TestRunRejectsMalformedInputBeforeSearching(t *testing.T) {
	t.Chdir(t.TempDir())
	out := filepath.Join(t.TempDir(), "out")

	base := cliConfig{
		iv:         "A63319C14E9803288D56534C3F19CC81",
		ciphertext: "ab304b07bd7bc9937a64022268b0d5a3",
		outputDir:  out,
		startGuess: "0",
		endGuess:   "10",
	}

	bad := base
	bad.startGuess = "nothex"
	assert.Error(t, run(bad, logging.Discard()))

	bad = base
	bad.ciphertext = "ab304b07bd7bc993"
	assert.ErrorIs(t, run(bad, logging.Discard()), codec.ErrNotBlockAligned)

	_, err := os.Stat(out)
	assert.True(t, os.IsNotExist(err), "no output may be created for a rejected run")
}

func TestRunEndToEnd(t *testing.T) {
	t.Chdir(t.TempDir())

	key, err := codec.ParseUint128Hex("20342D96E60AE01CB32AFA9AF83C7239")
	require.NoError(t, err)
	iv, err := codec.ParseUint128Hex("A63319C14E9803288D56534C3F19CC81")
	require.NoError(t, err)
	ct, err := cbc.EncryptChain(iv, key, []byte("brute force me!!"))
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "out")
	ledgerPath := filepath.Join(t.TempDir(), "ledger")
	cli := cliConfig{
		iv:         codec.FormatUint128Hex(iv),
		ciphertext: strings.ToUpper(hexBlocks(ct)),
		outputDir:  out,
		ledgerPath: ledgerPath,
		workers:    2,
		chunkSize:  64,
		startGuess: codec.FormatUint128Hex(key.Sub64(200)),
		endGuess:   codec.FormatUint128Hex(key.Add64(100)),
	}
	require.NoError(t, run(cli, logging.Discard()))

	files, err := filepath.Glob(filepath.Join(out, "results_from_*_hours.txt"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	var all strings.Builder
	for _, f := range files {
		data, err := os.ReadFile(f)
		require.NoError(t, err)
		all.Write(data)
	}
	assert.Contains(t, all.String(), "Plaintext: brute force me!!\n\n")
	assert.Contains(t, all.String(), "Key: "+codec.FormatKeyArray(codec.ToBlock(key)))

	l, err := ledger.Open(ledger.Config{Path: ledgerPath})
	require.NoError(t, err)
	defer l.Close()
	_, found, err := l.Get(codec.ToBlock(key))
	require.NoError(t, err)
	assert.True(t, found)
}

func hexBlocks(blocks []codec.Block) string {
	var sb strings.Builder
	for _, b := range blocks {
		sb.WriteString(codec.FormatUint128Hex(codec.FromBlock(b)))
	}
	return sb.String()
}
