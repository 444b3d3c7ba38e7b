// Copyright 2026, the rrnascreen contributors.

package sinkio

import (
	"fmt"
	"io"

	"github.com/biogo/hts/sam"

	"github.com/kshedden/rrnascreen/internal/seqcode"
)

// SAMSink writes accepted alignments as SAM records, grounded on the
// corpus's biogo/hts/sam usage (kortschak-loopy, grailbio-bio's bam
// package, which embeds sam.Record directly).
//
// A SAM header must declare every @SQ line up front, but a read's
// accepted alignments can come from references belonging to separate
// index parts loaded and unloaded across the outer loop. NewSAMSink
// therefore takes the full, pre-scanned union of
// references across every index part that will be searched, and
// WriteAlignment resolves each alignment's target by name (via
// Alignment.RefHeader) rather than by RefID, since RefID is only
// unique within the part that produced it.
type SAMSink struct {
	w        *sam.Writer
	byHeader map[string]*sam.Reference
}

// NewSAMSink builds the SAM header from allRefs (the union of every
// reference across every index part to be searched) and opens a
// writer over w.
func NewSAMSink(w io.Writer, allRefs []seqcode.Reference) (*SAMSink, error) {
	samRefs := make([]*sam.Reference, 0, len(allRefs))
	byHeader := make(map[string]*sam.Reference, len(allRefs))
	for _, r := range allRefs {
		if _, dup := byHeader[r.Header]; dup {
			continue
		}
		ref, err := sam.NewReference(r.Header, "", "", len(r.Seq), nil, nil)
		if err != nil {
			return nil, err
		}
		samRefs = append(samRefs, ref)
		byHeader[r.Header] = ref
	}

	header, err := sam.NewHeader(nil, samRefs)
	if err != nil {
		return nil, err
	}

	sw, err := sam.NewWriter(w, header, sam.FlagDecimal)
	if err != nil {
		return nil, err
	}
	return &SAMSink{w: sw, byHeader: byHeader}, nil
}

// WriteRead implements AlignmentSink, emitting one SAM record per
// accepted alignment.
func (s *SAMSink) WriteRead(read *seqcode.Read) error {
	for _, a := range read.Alignments {
		if err := s.WriteAlignment(read, a); err != nil {
			return err
		}
	}
	return nil
}

// Close implements AlignmentSink. sam.Writer holds no buffering of
// its own beyond the underlying io.Writer, so there is nothing to
// flush here.
func (s *SAMSink) Close() error {
	return nil
}

// WriteAlignment renders one accepted alignment of one read as a SAM
// record.
func (s *SAMSink) WriteAlignment(read *seqcode.Read, a seqcode.Alignment) error {
	cigar, err := parseCigar(a.Cigar)
	if err != nil {
		return err
	}

	var flags sam.Flags
	if a.Reverse {
		flags |= sam.Reverse
	}

	ref, ok := s.byHeader[a.RefHeader]
	if !ok {
		return fmt.Errorf("sinkio: unknown SAM reference %q", a.RefHeader)
	}

	rec := &sam.Record{
		Name:  read.Name,
		Ref:   ref,
		Pos:   a.RefStart,
		MapQ:  255,
		Cigar: cigar,
		Flags: flags,
		Seq:   sam.NewSeq(read.Seq[a.ReadStart:a.ReadEnd]),
	}
	if read.Qual != "" {
		rec.Qual = []byte(read.Qual)[a.ReadStart:a.ReadEnd]
	}

	return s.w.Write(rec)
}

// cigarOpCode maps this package's single-letter op bytes (matching
// chain.bandedSW's traceback output) to sam.CigarOpType.
var cigarOpCode = map[byte]sam.CigarOpType{
	'=': sam.CigarEqual,
	'X': sam.CigarMismatch,
	'I': sam.CigarInsertion,
	'D': sam.CigarDeletion,
}

func parseCigar(s string) (sam.Cigar, error) {
	var ops sam.Cigar
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= '0' && c <= '9' {
			n = n*10 + int(c-'0')
			continue
		}
		op, ok := cigarOpCode[c]
		if !ok {
			return nil, errUnknownCigarOp(c)
		}
		ops = append(ops, sam.NewCigarOp(op, n))
		n = 0
	}
	return ops, nil
}

type errUnknownCigarOp byte

func (e errUnknownCigarOp) Error() string {
	return "sinkio: unknown CIGAR op " + string(rune(e))
}
