// Command keygen prepares inputs for aesnt.
//
// Range mode prints the start_guess and end_guess covering every key that
// matches a template except in its top bits:
//
//	keygen -template 0000000000000600000000000000000f -unknown 37
//
// Encrypt mode produces a ciphertext to test a search against:
//
//	keygen -encrypt "attack at dawn" -key <hex> -iv <hex>
package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/i5heu/aesnt/pkg/cbc"
	"github.com/i5heu/aesnt/pkg/codec"
	"github.com/i5heu/aesnt/pkg/keyspace"
	"github.com/i5heu/aesnt/pkg/logging"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		logging.Logger.Error("keygen failed", "error", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("keygen", flag.ContinueOnError)
	template := fs.String("template", "", "template key as hex")
	unknown := fs.Int("unknown", 0, "number of unknown high bits of the template")
	plaintext := fs.String("encrypt", "", "plaintext to encrypt, space padded to 16 bytes")
	keyHex := fs.String("key", "", "key for -encrypt")
	ivHex := fs.String("iv", "", "IV for -encrypt")
	if err := fs.Parse(args); err != nil {
		return err
	}

	switch {
	case *template != "":
		return printRange(out, *template, *unknown)
	case *plaintext != "":
		return printCiphertext(out, *plaintext, *keyHex, *ivHex)
	default:
		return errors.New("either -template or -encrypt is required")
	}
}

func printRange(out io.Writer, templateHex string, unknown int) error {
	template, err := codec.ParseUint128Hex(templateHex)
	if err != nil {
		return fmt.Errorf("template: %w", err)
	}
	r, err := keyspace.RangeForUnknownHighBits(template, unknown)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "start_guess: %s\n", codec.FormatUint128Hex(r.Start))
	fmt.Fprintf(out, "end_guess:   %s\n", codec.FormatUint128Hex(r.End))
	fmt.Fprintf(out, "keys:        %s\n", r.Len().String())
	return nil
}

func printCiphertext(out io.Writer, text, keyHex, ivHex string) error {
	key, err := codec.ParseUint128Hex(keyHex)
	if err != nil {
		return fmt.Errorf("key: %w", err)
	}
	iv, err := codec.ParseUint128Hex(ivHex)
	if err != nil {
		return fmt.Errorf("iv: %w", err)
	}

	padded := []byte(text)
	if rem := len(padded) % codec.BlockSize; rem != 0 || len(padded) == 0 {
		padded = append(padded, bytes.Repeat([]byte{' '}, codec.BlockSize-rem)...)
	}

	ct, err := cbc.EncryptChain(iv, key, padded)
	if err != nil {
		return err
	}

	var sb strings.Builder
	for _, b := range ct {
		sb.WriteString(codec.FormatUint128Hex(codec.FromBlock(b)))
	}
	fmt.Fprintf(out, "plaintext:  %q\n", padded)
	fmt.Fprintf(out, "ciphertext: %s\n", sb.String())
	return nil
}
