package keyspace

import (
	"errors"
	"fmt"
	"iter"

	"github.com/i5heu/aesnt/pkg/codec"
	"lukechampine.com/uint128"
)

var ErrRangeOverflow = errors.New("range end does not fit in 128 bits")

// Range is the half-open key interval [Start, End).
type Range struct { // A
	Start codec.Uint128
	End   codec.Uint128
}

// Empty reports End <= Start. An empty range is valid and searches nothing.
func (r Range) Empty() bool { // A
	return r.End.Cmp(r.Start) <= 0
}

// Len returns the number of keys in r.
func (r Range) Len() codec.Uint128 { // A
	if r.Empty() {
		return uint128.Zero
	}
	return r.End.Sub(r.Start)
}

// Contains reports whether key lies in r.
func (r Range) Contains(key codec.Uint128) bool { // A
	return key.Cmp(r.Start) >= 0 && key.Cmp(r.End) < 0
}

func (r Range) String() string { // A
	return fmt.Sprintf("[%s, %s)", codec.FormatUint128Hex(r.Start), codec.FormatUint128Hex(r.End))
}

// Chunks yields consecutive disjoint sub ranges of at most size keys that
// tile r exactly, in ascending order. Nothing is materialised up front, so
// the full 128-bit space can be iterated.
func (r Range) Chunks(size uint64) iter.Seq[Range] { // A
	if size == 0 {
		size = 1
	}
	return func(yield func(Range) bool) {
		cur := r.Start
		for cur.Cmp(r.End) < 0 {
			n := size
			if rest := r.End.Sub(cur); rest.Cmp64(size) < 0 {
				n = rest.Lo
			}
			next := cur.Add64(n)
			if !yield(Range{Start: cur, End: next}) {
				return
			}
			cur = next
		}
	}
}

// RangeForUnknownHighBits covers every key that agrees with template except
// in its top n bits. The result also contains keys that differ in lower bits
// between the two bounds; it is the contiguous hull of the candidates.
func RangeForUnknownHighBits(template codec.Uint128, n int) (Range, error) { // H
	if n < 0 || n > 128 {
		return Range{}, fmt.Errorf("unknown bit count %d outside [0, 128]", n)
	}
	if n == 0 {
		if template.Equals(uint128.Max) {
			return Range{}, ErrRangeOverflow
		}
		return Range{Start: template, End: template.Add64(1)}, nil
	}

	mask := uint128.Max.Lsh(uint(128 - n))
	start := template.And(mask.Xor(uint128.Max))
	last := template.Or(mask)
	if last.Equals(uint128.Max) {
		return Range{}, ErrRangeOverflow
	}
	return Range{Start: start, End: last.Add64(1)}, nil
}
