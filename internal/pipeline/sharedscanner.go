// Copyright 2026, the rrnascreen contributors.

package pipeline

import (
	"sync"

	"github.com/kshedden/rrnascreen/internal/ioformats"
)

// SharedScanner lets R reader goroutines pull non-overlapping records
// from one underlying input stream. Sharing one scanner under a mutex
// is the straightforward way to get R concurrent readers without
// reprocessing or skipping records.
type SharedScanner struct {
	mu sync.Mutex
	sc *ioformats.Scanner
}

// NewSharedScanner wraps sc for concurrent use by multiple readers.
func NewSharedScanner(sc *ioformats.Scanner) *SharedScanner {
	return &SharedScanner{sc: sc}
}

// Next returns the next record, safe for concurrent callers.
func (s *SharedScanner) Next() (ioformats.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sc.Next()
}

// Err returns the underlying scanner's error, if any.
func (s *SharedScanner) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sc.Err()
}
