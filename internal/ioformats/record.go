// Copyright 2026, the rrnascreen contributors.

// Package ioformats is the FASTA/FASTQ record reader: a blocking
// scanner yielding (id, sequence, optional quality) records,
// auto-detected from the first byte of the stream. Grounded on a
// bufio.Scanner convention, generalized from fixed 4-line FASTQ
// records to both formats.
package ioformats

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Record is one (id, sequence, optional quality) triple as yielded by
// Scanner.Next.
type Record struct {
	Name string
	Seq  []byte
	Qual string // empty for FASTA records
}

// Scanner reads successive Records from a FASTA or FASTQ stream,
// detected once from the first line's leading byte.
type Scanner struct {
	scanner *bufio.Scanner
	isFastq bool
	started bool
	pending string // a sequence-header line read ahead for FASTA
	err     error
}

// NewScanner wraps r with a buffered line scanner sized for long
// reads, using a 1MB scan buffer.
func NewScanner(r io.Reader) *Scanner {
	sc := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	sc.Buffer(buf, 1024*1024)
	return &Scanner{scanner: sc}
}

// Err returns the first error encountered, if any, after Next returns
// false.
func (s *Scanner) Err() error {
	return s.err
}

// Next advances to the next record, returning false at end-of-stream
// or on error (distinguishable via Err).
func (s *Scanner) Next() (Record, bool) {
	if !s.started {
		s.started = true
		if !s.detect() {
			return Record{}, false
		}
	}

	if s.isFastq {
		return s.nextFastq()
	}
	return s.nextFasta()
}

func (s *Scanner) detect() bool {
	if !s.scanner.Scan() {
		s.err = s.scanner.Err()
		return false
	}
	line := s.scanner.Text()
	switch {
	case strings.HasPrefix(line, "@"):
		s.isFastq = true
	case strings.HasPrefix(line, ">"):
		s.isFastq = false
	default:
		s.err = fmt.Errorf("ioformats: unrecognized record start %q", line)
		return false
	}
	s.pending = line
	return true
}

// nextFastq reads the four-line FASTQ record starting at s.pending
// (the '@name' line already scanned).
func (s *Scanner) nextFastq() (Record, bool) {
	header := s.pending
	s.pending = ""
	if header == "" {
		if !s.scanner.Scan() {
			s.err = s.scanner.Err()
			return Record{}, false
		}
		header = s.scanner.Text()
	}

	rec := Record{Name: strings.TrimPrefix(header, "@")}

	if !s.scanner.Scan() {
		s.err = s.scanner.Err()
		return Record{}, false
	}
	rec.Seq = []byte(s.scanner.Text())

	if !s.scanner.Scan() { // '+' separator line, discarded
		s.err = s.scanner.Err()
		return Record{}, false
	}

	if !s.scanner.Scan() {
		s.err = s.scanner.Err()
		return Record{}, false
	}
	rec.Qual = s.scanner.Text()

	return rec, true
}

// nextFasta reads one '>'-headed record, accumulating sequence lines
// until the next header or EOF, reading one line ahead (TrimRight
// handles both trailing \n and \r).
func (s *Scanner) nextFasta() (Record, bool) {
	header := s.pending
	s.pending = ""
	if header == "" {
		if !s.scanner.Scan() {
			s.err = s.scanner.Err()
			return Record{}, false
		}
		header = s.scanner.Text()
	}
	if !strings.HasPrefix(header, ">") {
		s.err = fmt.Errorf("ioformats: expected a FASTA header, got %q", header)
		return Record{}, false
	}

	rec := Record{Name: strings.TrimPrefix(header, ">")}
	var seq strings.Builder

	for s.scanner.Scan() {
		line := strings.TrimRight(s.scanner.Text(), "\r\n")
		if strings.HasPrefix(line, ">") {
			s.pending = line
			break
		}
		seq.WriteString(line)
	}
	if s.err = s.scanner.Err(); s.err != nil {
		return Record{}, false
	}

	rec.Seq = []byte(seq.String())
	return rec, true
}
