// Package cbc implements AES-128 in CBC mode with explicit block chaining.
//
// The block cipher comes from crypto/aes, which uses the CPU's AES
// instructions when available and a constant-time software implementation
// otherwise. Both paths produce identical output.
package cbc

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	"github.com/i5heu/aesnt/pkg/codec"
	"golang.org/x/sys/cpu"
)

// HardwareAccelerated reports whether the host exposes AES instructions that
// crypto/aes will use.
func HardwareAccelerated() bool {
	return cpu.X86.HasAES || cpu.ARM64.HasAES || cpu.S390X.HasAES
}

func newBlockCipher(key codec.Uint128) cipher.Block {
	k := codec.ToBlock(key)
	// NewCipher only fails for key lengths other than 16, 24 or 32.
	c, err := aes.NewCipher(k[:])
	if err != nil {
		panic(err)
	}
	return c
}

// DecryptChain decrypts ct under key with the given IV. The key schedule is
// derived fresh on every call.
func DecryptChain(iv, key codec.Uint128, ct []codec.Block) []byte {
	dst := make([]byte, len(ct)*codec.BlockSize)
	if err := DecryptChainInto(dst, iv, key, ct); err != nil {
		panic(err)
	}
	return dst
}

// DecryptChainInto is DecryptChain writing into dst, which must hold exactly
// 16*len(ct) bytes. Workers reuse dst across candidate keys.
func DecryptChainInto(dst []byte, iv, key codec.Uint128, ct []codec.Block) error {
	if len(dst) != len(ct)*codec.BlockSize {
		return fmt.Errorf("destination is %d bytes, need %d", len(dst), len(ct)*codec.BlockSize)
	}

	c := newBlockCipher(key)
	chain := codec.ToBlock(iv)

	for i := range ct {
		out := dst[i*codec.BlockSize : (i+1)*codec.BlockSize]
		c.Decrypt(out, ct[i][:])
		for j := 0; j < codec.BlockSize; j++ {
			out[j] ^= chain[j]
		}
		// chaining value is the previous ciphertext block, not the plaintext
		chain = ct[i]
	}
	return nil
}

// EncryptChain encrypts a block-aligned plaintext. It exists to produce test
// vectors for the search.
func EncryptChain(iv, key codec.Uint128, plaintext []byte) ([]codec.Block, error) {
	pt, err := codec.SplitBlocks(plaintext)
	if err != nil {
		return nil, fmt.Errorf("plaintext: %w", err)
	}

	c := newBlockCipher(key)
	chain := codec.ToBlock(iv)
	ct := make([]codec.Block, len(pt))

	for i := range pt {
		var in codec.Block
		for j := 0; j < codec.BlockSize; j++ {
			in[j] = pt[i][j] ^ chain[j]
		}
		c.Encrypt(ct[i][:], in[:])
		chain = ct[i]
	}
	return ct, nil
}
