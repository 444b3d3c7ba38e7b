// Copyright 2026, the rrnascreen contributors.

package sinkio

import (
	"bufio"
	"fmt"
	"io"

	"github.com/kshedden/rrnascreen/internal/seqcode"
)

// TabularSink writes accepted alignments in BLAST-tabular format
// (query, subject, identity%, aln-length, mismatches, gaps,
// q.start, q.end, s.start, s.end, e-value, score), buffered like every
// other output stream here (bufio.NewWriter).
type TabularSink struct {
	w *bufio.Writer
}

// NewTabularSink wraps w in a buffered writer; Close flushes it.
func NewTabularSink(w io.Writer) *TabularSink {
	return &TabularSink{w: bufio.NewWriter(w)}
}

func (s *TabularSink) WriteRead(read *seqcode.Read) error {
	for _, a := range read.Alignments {
		alnLen := a.ReadEnd - a.ReadStart
		mismatches := int(float64(alnLen) * (1 - a.Identity/100))
		_, err := fmt.Fprintf(s.w, "%s\t%s\t%.2f\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%g\t%d\n",
			read.Name, a.RefHeader, a.Identity, alnLen, mismatches, 0,
			a.ReadStart+1, a.ReadEnd, a.RefStart+1, a.RefEnd, a.EValue, a.Score)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *TabularSink) Close() error {
	return s.w.Flush()
}
