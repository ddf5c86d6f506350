// Package ledger keeps every finding of every run in a badger database keyed
// by the 16-byte AES key, so results survive the per-minute text files.
package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/i5heu/aesnt/pkg/codec"
	"github.com/i5heu/aesnt/pkg/results"
	"github.com/sirupsen/logrus"
)

type Config struct {
	Path string
	// InMemory keeps the database in RAM; Path is ignored.
	InMemory bool
	Logger   *logrus.Logger
	Clock    results.Clock
}

type Entry struct {
	Key       string    `json:"key"`
	Plaintext string    `json:"plaintext"`
	FoundAt   time.Time `json:"foundAt"`
	Bucket    string    `json:"bucket"`
}

type Ledger struct {
	config       Config
	badgerDB     *badger.DB
	writeCounter uint64
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func Open(config Config) (*Ledger, error) {
	if config.Logger == nil {
		config.Logger = logrus.New()
		config.Logger.SetLevel(logrus.WarnLevel)
	}
	if config.Clock == nil {
		config.Clock = systemClock{}
	}

	var opts badger.Options
	if config.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if config.Path == "" {
			return nil, errors.New("ledger path is empty")
		}
		if err := os.MkdirAll(config.Path, 0o750); err != nil {
			return nil, fmt.Errorf("creating ledger directory: %w", err)
		}
		opts = badger.DefaultOptions(config.Path)
	}
	opts.Logger = config.Logger
	opts.ValueLogFileSize = 1024 * 1024 * 16
	// findings are rare and must not be lost
	opts.SyncWrites = true

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}

	return &Ledger{config: config, badgerDB: db}, nil
}

// Record stores f unless its key is already present. It implements
// results.Recorder.
func (l *Ledger) Record(f results.Finding) error {
	now := l.config.Clock.Now()
	entry := Entry{
		Key:       codecKeyHex(f.Key),
		Plaintext: string(f.Plaintext),
		FoundAt:   now.UTC(),
		Bucket:    results.Bucket(now),
	}
	value, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encoding ledger entry: %w", err)
	}

	err = l.badgerDB.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(f.Key[:])
		if err == nil {
			return nil
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		atomic.AddUint64(&l.writeCounter, 1)
		return txn.Set(f.Key[:], value)
	})
	if err != nil {
		return fmt.Errorf("writing ledger entry %s: %w", entry.Key, err)
	}
	return nil
}

// Get returns the entry for key.
func (l *Ledger) Get(key codec.Block) (Entry, bool, error) {
	var entry Entry
	found := false
	err := l.badgerDB.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key[:])
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		})
	})
	return entry, found, err
}

// List returns all entries ordered by key.
func (l *Ledger) List() ([]Entry, error) {
	var entries []Entry
	err := l.badgerDB.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			var e Entry
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &e)
			}); err != nil {
				return fmt.Errorf("decoding ledger entry %x: %w", it.Item().Key(), err)
			}
			entries = append(entries, e)
		}
		return nil
	})
	return entries, err
}

// Written is the number of new entries stored since Open.
func (l *Ledger) Written() uint64 {
	return atomic.LoadUint64(&l.writeCounter)
}

func (l *Ledger) Close() error {
	return l.badgerDB.Close()
}

func codecKeyHex(b codec.Block) string {
	return codec.FormatUint128Hex(codec.FromBlock(b))
}
