package results

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileSink appends findings to one text file per wall-clock minute. It is the
// only owner of the open file; Record calls are serialised by a mutex.
type FileSink struct { // A
	dir   string
	clock Clock

	mu     sync.Mutex
	bucket string
	file   *os.File
}

type FileSinkOption func(*FileSink)

// WithClock replaces the wall clock used for bucketing.
func WithClock(c Clock) FileSinkOption { // A
	return func(s *FileSink) { s.clock = c }
}

// NewFileSink creates dir if needed. Files are opened lazily on the first
// finding of each bucket, so a run without findings leaves no files.
func NewFileSink(dir string, opts ...FileSinkOption) (*FileSink, error) { // A
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating result directory %s: %w", dir, err)
	}

	s := &FileSink{dir: dir, clock: realClock{}}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Record appends f to the file of the current bucket with a single write and
// syncs it to disk.
func (s *FileSink) Record(f Finding) error { // A
	s.mu.Lock()
	defer s.mu.Unlock()

	bucket := Bucket(s.clock.Now())
	if s.file == nil || bucket != s.bucket {
		if err := s.rotate(bucket); err != nil {
			return err
		}
	}

	if _, err := s.file.Write(f.Record()); err != nil {
		return fmt.Errorf("appending to %s: %w", s.file.Name(), err)
	}
	if err := s.file.Sync(); err != nil {
		return fmt.Errorf("syncing %s: %w", s.file.Name(), err)
	}
	return nil
}

func (s *FileSink) rotate(bucket string) error { // A
	if s.file != nil {
		if err := s.file.Close(); err != nil {
			return fmt.Errorf("closing %s: %w", s.file.Name(), err)
		}
		s.file = nil
	}

	path := filepath.Join(s.dir, FileName(bucket))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
	if err != nil {
		return fmt.Errorf("opening result file %s: %w", path, err)
	}
	s.file = f
	s.bucket = bucket
	return nil
}

// Path returns the file of the current bucket, or "" before the first
// finding.
func (s *FileSink) Path() string { // A
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return ""
	}
	return s.file.Name()
}

func (s *FileSink) Close() error { // A
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}
