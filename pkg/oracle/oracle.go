// Package oracle decides whether a candidate plaintext looks like the real
// one.
//
// The test is a heuristic, not a proof. A uniformly random wrong key yields
// an all-printable plaintext of n bytes with probability (95/256)^n, which is
// about 1.3e-7 for a single block and shrinks quickly with length. A
// plaintext that is legitimately non-printable is never accepted.
package oracle

import "math"

const (
	minPrintable = 32
	maxPrintable = 126
)

// IsPlausiblePlaintext reports whether every byte of b is printable ASCII,
// i.e. in [32, 126]. It stops at the first byte outside that range.
func IsPlausiblePlaintext(b []byte) bool {
	for _, c := range b {
		if c < minPrintable || c > maxPrintable {
			return false
		}
	}
	return true
}

// FalseAcceptProbability is the chance that a random n-byte plaintext passes
// IsPlausiblePlaintext.
func FalseAcceptProbability(n int) float64 {
	return math.Pow(float64(maxPrintable-minPrintable+1)/256, float64(n))
}
