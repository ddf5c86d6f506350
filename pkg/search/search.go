// Package search runs an AES-128 CBC key search: every key of a range decrypts
// the fixed ciphertext, and keys yielding printable plaintext are recorded.
package search

import (
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/i5heu/aesnt/pkg/cbc"
	"github.com/i5heu/aesnt/pkg/codec"
	"github.com/i5heu/aesnt/pkg/keyspace"
	"github.com/i5heu/aesnt/pkg/logging"
	"github.com/i5heu/aesnt/pkg/oracle"
	"github.com/i5heu/aesnt/pkg/results"
)

var ErrEmptyCiphertext = errors.New("ciphertext has no blocks")

// Job is the fixed input of one run.
type Job struct { // A
	IV         codec.Uint128
	Ciphertext []codec.Block
	Range      keyspace.Range
}

// Validate checks what the engine relies on. Block alignment is guaranteed
// by the []codec.Block type.
func (j Job) Validate() error { // A
	if len(j.Ciphertext) == 0 {
		return ErrEmptyCiphertext
	}
	return nil
}

// Report describes a finished run.
type Report struct { // A
	keyspace.Stats
	Duration   time.Duration
	FinishedAt time.Time
}

// Engine holds the run settings. The zero value plus a Recorder is usable.
type Engine struct { // A
	Recorder results.Recorder
	Logger   *slog.Logger

	// Workers defaults to runtime.NumCPU().
	Workers   int
	ChunkSize uint64
	Policy    keyspace.Policy

	// ProgressInterval > 0 enables a periodic progress event.
	ProgressInterval time.Duration
	// Progress, if set, receives evaluated-key counts as chunks finish.
	Progress func(done uint64)
}

// Run searches job.Range. It returns the first recorder error, which aborts
// the search: a finding that cannot be stored fails the run.
func (e *Engine) Run(job Job) (Report, error) { // A
	if err := job.Validate(); err != nil {
		return Report{}, fmt.Errorf("invalid job: %w", err)
	}
	if e.Recorder == nil {
		return Report{}, errors.New("engine has no recorder")
	}
	log := logging.OrDiscard(e.Logger)

	plaintextLen := len(job.Ciphertext) * codec.BlockSize
	log.Info("search started",
		keyRange, job.Range.String(),
		keyKeys, job.Range.Len().String(),
		keyBlocks, len(job.Ciphertext),
		keyWorkers, e.Workers,
		keyChunkSize, e.ChunkSize,
		keyPolicy, e.Policy.String(),
		keyHardwareAES, cbc.HardwareAccelerated(),
		keyFalseAccept, oracle.FalseAcceptProbability(plaintextLen),
	)

	var counter atomic.Uint64
	stopTicker := e.startProgressTicker(log, &counter)

	started := time.Now()
	stats, err := keyspace.SearchWith(job.Range,
		func() keyspace.Evaluator { return e.newEvaluator(job, log) },
		keyspace.WithWorkers(e.Workers),
		keyspace.WithChunkSize(e.ChunkSize),
		keyspace.WithPolicy(e.Policy),
		keyspace.WithProgress(func(n uint64) {
			counter.Add(n)
			if e.Progress != nil {
				e.Progress(n)
			}
		}),
	)
	stopTicker()

	report := Report{
		Stats:      stats,
		Duration:   time.Since(started),
		FinishedAt: time.Now(),
	}
	if err != nil {
		log.Error("search aborted",
			keyEvaluated, stats.Evaluated.String(),
			keyMatches, stats.Matches,
			keyError, err,
		)
		return report, err
	}

	log.Info("search finished",
		keyEvaluated, stats.Evaluated.String(),
		keyMatches, stats.Matches,
		keyDuration, report.Duration,
		keyFinishedAt, report.FinishedAt.Format("15:04"),
	)
	return report, nil
}

// newEvaluator returns an evaluator with its own plaintext buffer.
func (e *Engine) newEvaluator(job Job, log *slog.Logger) keyspace.Evaluator { // A
	buf := make([]byte, len(job.Ciphertext)*codec.BlockSize)

	return func(key codec.Uint128) (bool, error) {
		if err := cbc.DecryptChainInto(buf, job.IV, key, job.Ciphertext); err != nil {
			return false, err
		}
		if !oracle.IsPlausiblePlaintext(buf) {
			return false, nil
		}

		f := results.NewFinding(buf, key)
		if err := e.Recorder.Record(f); err != nil {
			return true, fmt.Errorf("recording finding for key %s: %w", codec.FormatUint128Hex(key), err)
		}
		log.Info("finding recorded",
			keyKey, codec.FormatUint128Hex(key),
			keyPlaintext, string(f.Plaintext),
		)
		return true, nil
	}
}

// startProgressTicker logs the key rate every ProgressInterval until the
// returned function is called.
func (e *Engine) startProgressTicker(log *slog.Logger, counter *atomic.Uint64) func() { // A
	if e.ProgressInterval <= 0 {
		return func() {}
	}

	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		ticker := time.NewTicker(e.ProgressInterval)
		defer ticker.Stop()

		var total uint64
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				n := counter.Swap(0)
				total += n
				log.Info("search progress",
					keyEvaluated, total,
					keyKeysPerSecond, float64(n)/e.ProgressInterval.Seconds(),
				)
			}
		}
	}()

	return func() {
		close(done)
		<-finished
	}
}
