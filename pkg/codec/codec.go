// Package codec converts between 128-bit unsigned integers and their
// big-endian 16-byte form, and parses the hex encodings used for keys, the IV
// and the ciphertext.
package codec

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"lukechampine.com/uint128"
)

// BlockSize is the AES block size and the width of every key and IV.
const BlockSize = 16

var (
	ErrMalformedHex    = errors.New("malformed hex")
	ErrNotBlockAligned = errors.New("length is not a positive multiple of 16 bytes")
)

// Uint128 is the integer form of keys and IVs.
type Uint128 = uint128.Uint128

// Block is one 16-byte big-endian value: a key, an IV or a ciphertext block.
type Block [BlockSize]byte

// ToBlock serializes u most significant byte first.
func ToBlock(u Uint128) Block {
	var b Block
	binary.BigEndian.PutUint64(b[:8], u.Hi)
	binary.BigEndian.PutUint64(b[8:], u.Lo)
	return b
}

// FromBlock is the inverse of ToBlock.
func FromBlock(b Block) Uint128 {
	return uint128.New(
		binary.BigEndian.Uint64(b[8:]),
		binary.BigEndian.Uint64(b[:8]),
	)
}

// ParseUint128Hex parses up to 32 hex digits, with an optional 0x prefix.
// Shorter inputs are treated as having leading zeros.
func ParseUint128Hex(s string) (Uint128, error) {
	digits := strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X")
	if len(digits) == 0 || len(digits) > 2*BlockSize {
		return Uint128{}, fmt.Errorf("%w: %q must have 1 to 32 hex digits", ErrMalformedHex, s)
	}

	padded := strings.Repeat("0", 2*BlockSize-len(digits)) + digits
	raw, err := hex.DecodeString(padded)
	if err != nil {
		return Uint128{}, fmt.Errorf("%w: %q: %v", ErrMalformedHex, s, err)
	}

	var b Block
	copy(b[:], raw)
	return FromBlock(b), nil
}

// FormatUint128Hex returns u as 32 lowercase hex digits.
func FormatUint128Hex(u Uint128) string {
	b := ToBlock(u)
	return hex.EncodeToString(b[:])
}

// ParseBlocks decodes a hex ciphertext into 16-byte blocks. Inputs whose
// decoded length is zero or not a multiple of 16 are rejected, never padded
// or truncated.
func ParseBlocks(s string) ([]Block, error) {
	raw, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("%w: ciphertext: %v", ErrMalformedHex, err)
	}
	return SplitBlocks(raw)
}

// SplitBlocks copies raw into 16-byte blocks.
func SplitBlocks(raw []byte) ([]Block, error) {
	if len(raw) == 0 || len(raw)%BlockSize != 0 {
		return nil, fmt.Errorf("%w: got %d bytes", ErrNotBlockAligned, len(raw))
	}

	blocks := make([]Block, len(raw)/BlockSize)
	for i := range blocks {
		copy(blocks[i][:], raw[i*BlockSize:])
	}
	return blocks, nil
}

// JoinBlocks concatenates blocks in order.
func JoinBlocks(blocks []Block) []byte {
	out := make([]byte, 0, len(blocks)*BlockSize)
	for _, b := range blocks {
		out = append(out, b[:]...)
	}
	return out
}

// FormatKeyArray renders b in the hex-array notation of the result files,
// e.g. "[20, 34, 2d, 96, e6, a, ...]".
func FormatKeyArray(b Block) string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, v := range b {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%x", v)
	}
	sb.WriteByte(']')
	return sb.String()
}
