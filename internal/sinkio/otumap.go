// Copyright 2026, the rrnascreen contributors.

package sinkio

import (
	"bufio"
	"io"

	"github.com/kshedden/rrnascreen/internal/chain"
	"github.com/kshedden/rrnascreen/internal/seqcode"
)

// OTUMapSink writes one line per read eligible for OTU-map output:
// reads whose best alignment clears both the identity and coverage
// gates, plus reads that are de-novo-clustering eligible (hit_denovo
// still true after all parts).
type OTUMapSink struct {
	w      *bufio.Writer
	params chain.AcceptParams
}

// NewOTUMapSink wraps w.
func NewOTUMapSink(w io.Writer, params chain.AcceptParams) *OTUMapSink {
	return &OTUMapSink{w: bufio.NewWriter(w), params: params}
}

func (s *OTUMapSink) WriteRead(read *seqcode.Read) error {
	best, ok := bestAlignment(read)
	switch {
	case ok && chain.OTUEligible(best, s.params):
		if _, err := s.w.WriteString(read.Name); err != nil {
			return err
		}
		if _, err := s.w.WriteString("\t"); err != nil {
			return err
		}
		if _, err := s.w.WriteString(best.RefHeader); err != nil {
			return err
		}
		return s.w.WriteByte('\n')
	case read.HitDenovo:
		if _, err := s.w.WriteString(read.Name); err != nil {
			return err
		}
		if _, err := s.w.WriteString("\tdenovo\n"); err != nil {
			return err
		}
	}
	return nil
}

func bestAlignment(read *seqcode.Read) (seqcode.Alignment, bool) {
	if len(read.Alignments) == 0 {
		return seqcode.Alignment{}, false
	}
	best := read.Alignments[0]
	for _, a := range read.Alignments[1:] {
		if a.Score > best.Score {
			best = a
		}
	}
	return best, true
}

func (s *OTUMapSink) Close() error {
	return s.w.Flush()
}
