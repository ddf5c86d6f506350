// Package keyspace enumerates a range of 128-bit keys and fans the work out
// over a worker pool.
//
// Every key in the range is evaluated exactly once. By default the search is
// exhaustive: a match does not stop it, because a range can hold several keys
// that decrypt to plausible text. Stopping at the first match has to be
// requested with WithPolicy(StopAtFirstMatch).
package keyspace

import (
	"sync"
	"sync/atomic"

	"github.com/i5heu/aesnt/pkg/codec"
	workerpool "github.com/i5heu/aesnt/pkg/workerPool"
	"lukechampine.com/uint128"
)

// DefaultChunkSize is the number of keys handed to a worker at a time.
const DefaultChunkSize = 1 << 16

// Evaluator tests one key. A non-nil error aborts the search.
type Evaluator func(key codec.Uint128) (matched bool, err error)

// Policy decides what a match does to the rest of the search.
type Policy int // A

const ( // A
	// ExhaustRange evaluates every key regardless of matches.
	ExhaustRange Policy = iota
	// StopAtFirstMatch stops handing out keys after the first match. Keys
	// already in flight on other workers may still produce matches.
	StopAtFirstMatch
)

func (p Policy) String() string { // A
	switch p {
	case ExhaustRange:
		return "exhaust"
	case StopAtFirstMatch:
		return "stopAtFirstMatch"
	default:
		return "unknown"
	}
}

// Stats summarises a finished search.
type Stats struct { // A
	Evaluated codec.Uint128
	Matches   uint64
	Chunks    uint64
}

type options struct {
	workers   int
	chunkSize uint64
	policy    Policy
	progress  func(done uint64)
}

type Option func(*options)

// WithWorkers sets the number of parallel workers; <1 means runtime.NumCPU().
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

func WithChunkSize(n uint64) Option {
	return func(o *options) {
		if n > 0 {
			o.chunkSize = n
		}
	}
}

func WithPolicy(p Policy) Option {
	return func(o *options) { o.policy = p }
}

// WithProgress registers fn to receive the number of keys a worker finished,
// once per chunk. fn is called concurrently.
func WithProgress(fn func(done uint64)) Option {
	return func(o *options) { o.progress = fn }
}

// Search calls evaluate for every key in r.
func Search(r Range, evaluate Evaluator, opts ...Option) (Stats, error) { // A
	return SearchWith(r, func() Evaluator { return evaluate }, opts...)
}

// SearchWith is Search with an evaluator built per chunk, so an evaluator can
// own scratch buffers without locking.
func SearchWith( // A
	r Range,
	newEvaluator func() Evaluator,
	opts ...Option,
) (Stats, error) {
	o := options{chunkSize: DefaultChunkSize, policy: ExhaustRange}
	for _, opt := range opts {
		opt(&o)
	}

	if r.Empty() {
		return Stats{}, nil
	}

	wp := workerpool.NewWorkerPool(workerpool.Config{WorkerCount: o.workers})
	defer wp.Close()
	room := wp.CreateRoom()

	var (
		stop     atomic.Bool
		mu       sync.Mutex
		stats    Stats
		firstErr error
	)

	for chunk := range r.Chunks(o.chunkSize) {
		if stop.Load() {
			break
		}
		room.NewTaskWaitForFreeSlot(func() {
			n, matches, err := runChunk(chunk, newEvaluator(), o.policy, &stop)

			mu.Lock()
			stats.Evaluated = stats.Evaluated.Add64(n)
			stats.Matches += matches
			stats.Chunks++
			if err != nil && firstErr == nil {
				firstErr = err
			}
			mu.Unlock()

			if o.progress != nil && n > 0 {
				o.progress(n)
			}
		})
	}
	room.Wait()

	return stats, firstErr
}

func runChunk( // A
	chunk Range,
	evaluate Evaluator,
	policy Policy,
	stop *atomic.Bool,
) (evaluated, matches uint64, err error) {
	one := uint128.From64(1)
	for key := chunk.Start; key.Cmp(chunk.End) < 0; key = key.Add(one) {
		if stop.Load() {
			return evaluated, matches, nil
		}

		matched, err := evaluate(key)
		evaluated++
		if err != nil {
			stop.Store(true)
			return evaluated, matches, err
		}
		if matched {
			matches++
			if policy == StopAtFirstMatch {
				stop.Store(true)
				return evaluated, matches, nil
			}
		}
	}
	return evaluated, matches, nil
}
