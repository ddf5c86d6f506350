package keyspace

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/i5heu/aesnt/pkg/codec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lukechampine.com/uint128"
	"pgregory.net/rapid"
)

// countingEvaluator records how often each key was evaluated.
type countingEvaluator struct { // A
	mu     sync.Mutex
	counts map[codec.Uint128]int
}

func newCountingEvaluator() *countingEvaluator { // A
	return &countingEvaluator{counts: make(map[codec.Uint128]int)}
}

func (c *countingEvaluator) evaluate(key codec.Uint128) (bool, error) { // A
	c.mu.Lock()
	c.counts[key]++
	c.mu.Unlock()
	return false, nil
}

func assertExactlyOnce(t *testing.T, r Range, counts map[codec.Uint128]int) { // A
	t.Helper()
	require.True(t, r.Len().Equals64(uint64(len(counts))), "distinct keys %d, range %v", len(counts), r)
	for key, n := range counts {
		assert.True(t, r.Contains(key), "key %v outside %v", key, r)
		assert.Equal(t, 1, n, "key %v evaluated %d times", key, n)
	}
}

func TestSearchCoversRangeExactlyOnce(t *testing.T) {
	r := Range{Start: uint128.From64(1000), End: uint128.From64(1000 + 10_007)}
	c := newCountingEvaluator()

	stats, err := Search(r, c.evaluate, WithWorkers(8), WithChunkSize(97))
	require.NoError(t, err)

	assertExactlyOnce(t, r, c.counts)
	assert.True(t, stats.Evaluated.Equals64(10_007))
	assert.Equal(t, uint64(104), stats.Chunks)
	assert.Zero(t, stats.Matches)
}

func TestSearchCoverageProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		start := uint128.New(
			rapid.Uint64().Draw(rt, "startLo"),
			rapid.Uint64().Draw(rt, "startHi"),
		)
		if start.Cmp(uint128.Max.Sub64(5000)) > 0 {
			start = uint128.Max.Sub64(5000)
		}
		length := rapid.Uint64Range(1, 3000).Draw(rt, "length")
		r := Range{Start: start, End: start.Add64(length)}
		c := newCountingEvaluator()

		_, err := Search(r, c.evaluate,
			WithWorkers(rapid.IntRange(1, 6).Draw(rt, "workers")),
			WithChunkSize(rapid.Uint64Range(1, 500).Draw(rt, "chunk")),
		)
		if err != nil {
			rt.Fatalf("search: %v", err)
		}
		if !r.Len().Equals64(uint64(len(c.counts))) {
			rt.Fatalf("expected %v distinct keys, got %d", r.Len(), len(c.counts))
		}
		for key, n := range c.counts {
			if n != 1 || !r.Contains(key) {
				rt.Fatalf("key %v evaluated %d times (in range: %v)", key, n, r.Contains(key))
			}
		}
	})
}

func TestSearchCrossesWordBoundary(t *testing.T) {
	start := uint128.New(^uint64(0)-50, 7)
	r := Range{Start: start, End: start.Add64(100)}
	c := newCountingEvaluator()

	_, err := Search(r, c.evaluate, WithChunkSize(7))
	require.NoError(t, err)
	assertExactlyOnce(t, r, c.counts)
	assert.Equal(t, 1, c.counts[uint128.New(0, 8)])
}

func TestSearchReachesTopOfKeySpace(t *testing.T) {
	r := Range{Start: uint128.Max.Sub64(64), End: uint128.Max}
	c := newCountingEvaluator()

	_, err := Search(r, c.evaluate, WithChunkSize(10))
	require.NoError(t, err)
	assertExactlyOnce(t, r, c.counts)
}

func TestSearchDegenerateRange(t *testing.T) {
	var calls atomic.Int64
	eval := func(codec.Uint128) (bool, error) {
		calls.Add(1)
		return true, nil
	}

	for _, r := range []Range{
		{Start: uint128.From64(10), End: uint128.From64(10)},
		{Start: uint128.From64(11), End: uint128.From64(10)},
		{Start: uint128.Max, End: uint128.Zero},
	} {
		stats, err := Search(r, eval)
		require.NoError(t, err)
		assert.True(t, stats.Evaluated.IsZero())
		assert.Zero(t, stats.Matches)
	}
	assert.Zero(t, calls.Load())
}

func TestSearchExhaustsRangeDespiteMatches(t *testing.T) {
	r := Range{Start: uint128.Zero, End: uint128.From64(5000)}
	var evaluated atomic.Int64
	eval := func(key codec.Uint128) (bool, error) {
		evaluated.Add(1)
		return key.Lo%1000 == 3, nil
	}

	stats, err := Search(r, eval, WithChunkSize(64), WithWorkers(4))
	require.NoError(t, err)
	assert.Equal(t, int64(5000), evaluated.Load())
	assert.Equal(t, uint64(5), stats.Matches)
}

func TestSearchStopAtFirstMatch(t *testing.T) {
	r := Range{Start: uint128.Zero, End: uint128.From64(1 << 30)}
	eval := func(key codec.Uint128) (bool, error) {
		return key.Lo == 10, nil
	}

	stats, err := Search(r, eval,
		WithPolicy(StopAtFirstMatch),
		WithChunkSize(1000),
		WithWorkers(2),
	)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), stats.Matches)
	assert.True(t, stats.Evaluated.Cmp64(1<<30) < 0, "search should not exhaust the range")
}

func TestSearchAbortsOnError(t *testing.T) {
	boom := errors.New("disk full")
	r := Range{Start: uint128.Zero, End: uint128.From64(1 << 30)}
	eval := func(key codec.Uint128) (bool, error) {
		if key.Lo == 500 {
			return true, boom
		}
		return false, nil
	}

	stats, err := Search(r, eval, WithChunkSize(100), WithWorkers(3))
	assert.ErrorIs(t, err, boom)
	assert.True(t, stats.Evaluated.Cmp64(1<<30) < 0)
}

func TestSearchWithBuildsEvaluatorPerChunk(t *testing.T) {
	r := Range{Start: uint128.Zero, End: uint128.From64(1000)}
	var built atomic.Int64
	var progressed atomic.Uint64

	_, err := SearchWith(r, func() Evaluator {
		built.Add(1)
		return func(codec.Uint128) (bool, error) { return false, nil }
	}, WithChunkSize(100), WithProgress(func(n uint64) { progressed.Add(n) }))
	require.NoError(t, err)

	assert.Equal(t, int64(10), built.Load())
	assert.Equal(t, uint64(1000), progressed.Load())
}

func TestChunksTileRange(t *testing.T) {
	r := Range{Start: uint128.From64(5), End: uint128.From64(28)}
	var got []Range
	for c := range r.Chunks(10) {
		got = append(got, c)
	}

	assert.Equal(t, []Range{
		{Start: uint128.From64(5), End: uint128.From64(15)},
		{Start: uint128.From64(15), End: uint128.From64(25)},
		{Start: uint128.From64(25), End: uint128.From64(28)},
	}, got)
}

func TestRangeForUnknownHighBits(t *testing.T) {
	template, err := codec.ParseUint128Hex("0000000000000600000000000000000f")
	require.NoError(t, err)

	r, err := RangeForUnknownHighBits(template, 37)
	require.NoError(t, err)
	assert.Equal(t, "0000000000000600000000000000000f", codec.FormatUint128Hex(r.Start))
	assert.Equal(t, "fffffffff8000600000000000000000f", codec.FormatUint128Hex(r.End.Sub64(1)))
	assert.True(t, r.Contains(template))

	r, err = RangeForUnknownHighBits(template, 0)
	require.NoError(t, err)
	assert.True(t, r.Len().Equals64(1))

	_, err = RangeForUnknownHighBits(uint128.Max, 4)
	assert.ErrorIs(t, err, ErrRangeOverflow)

	_, err = RangeForUnknownHighBits(template, 129)
	assert.Error(t, err)
}
