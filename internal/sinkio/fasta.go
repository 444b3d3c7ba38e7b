// Copyright 2026, the rrnascreen contributors.

package sinkio

import (
	"bufio"
	"io"

	"github.com/kshedden/rrnascreen/internal/seqcode"
)

// FastaSink writes reads in FASTA format, gated by whether the read
// hit (matched mode) or didn't (unmatched mode) -- the
// muscato_nonmatch-style export folded into one sink interface, since
// the per-read hit flag is already in memory at Writer time.
type FastaSink struct {
	w         *bufio.Writer
	wantMatch bool
}

// NewFastaSink wraps w. wantMatch selects matched-read export when
// true, unmatched-read export when false.
func NewFastaSink(w io.Writer, wantMatch bool) *FastaSink {
	return &FastaSink{w: bufio.NewWriter(w), wantMatch: wantMatch}
}

func (s *FastaSink) WriteRead(read *seqcode.Read) error {
	if read.Hit != s.wantMatch {
		return nil
	}
	if _, err := s.w.WriteString(">"); err != nil {
		return err
	}
	if _, err := s.w.WriteString(read.Name); err != nil {
		return err
	}
	if err := s.w.WriteByte('\n'); err != nil {
		return err
	}
	if _, err := s.w.Write(read.Seq); err != nil {
		return err
	}
	return s.w.WriteByte('\n')
}

func (s *FastaSink) Close() error {
	return s.w.Flush()
}
