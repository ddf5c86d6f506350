// Package results persists accepted (plaintext, key) pairs.
package results

import (
	"fmt"
	"time"

	"github.com/i5heu/aesnt/pkg/codec"
)

// Finding is a key whose plaintext passed the oracle. It owns its plaintext.
type Finding struct { // A
	Plaintext []byte
	Key       codec.Block
}

// NewFinding copies plaintext so the caller can reuse its buffer.
func NewFinding(plaintext []byte, key codec.Uint128) Finding { // A
	return Finding{
		Plaintext: append([]byte(nil), plaintext...),
		Key:       codec.ToBlock(key),
	}
}

// Record renders f in the result file format.
func (f Finding) Record() []byte { // A
	return []byte(fmt.Sprintf("Plaintext: %s\n\nKey: %s\n\n", f.Plaintext, codec.FormatKeyArray(f.Key)))
}

// Recorder stores findings. Implementations must be safe for concurrent use.
type Recorder interface { // A
	Record(f Finding) error
}

// Clock abstracts time for testability.
type Clock interface { // A
	Now() time.Time
}

type realClock struct{} // A

func (realClock) Now() time.Time { // A
	return time.Now()
}

// Bucket is the hour and minute a result file belongs to, e.g. "0942".
func Bucket(t time.Time) string { // A
	return fmt.Sprintf("%02d%02d", t.Hour(), t.Minute())
}

// FileName returns the result file name for a bucket.
func FileName(bucket string) string { // A
	return "results_from_" + bucket + "_hours.txt"
}
