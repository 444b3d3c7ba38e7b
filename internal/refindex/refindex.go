// Copyright 2026, the rrnascreen contributors.

// Package refindex holds the in-memory, read-only-after-load
// representation of one part of one reference database: the
// half-window lookup table, the forward/reverse burst tries it points
// at, per-part scoring and windowing parameters, and the reference
// sequences themselves.
//
// An Index part is loaded once per (index, part) pair (blocking,
// single-threaded). Once loaded it is shared by reference across all
// Processor goroutines for the duration of the part; there is no
// internal locking because nothing mutates it after Load returns.
package refindex

import (
	"fmt"

	"github.com/willf/bloom"

	"github.com/kshedden/rrnascreen/internal/seedtrie"
	"github.com/kshedden/rrnascreen/internal/seqcode"
)

// Reference aliases seqcode.Reference: the data model (component A)
// owns the canonical shape, since it is also what chain.ProcessRead
// and the sinks consume.
type Reference = seqcode.Reference

// LookupEntry is one row of the half-window lookup table: how many
// references contain this half-window, and the forward/reverse burst
// trie roots rooted at it. Either trie may be nil.
type LookupEntry struct {
	Count int
	TrieF *seedtrie.Node
	TrieR *seedtrie.Node
}

// Part is one loaded index part.
type Part struct {
	Num int

	// LookupTbl is keyed by the packed half-window integer (see
	// seedtrie.PackKey), spanning 0..4^PartialWin.
	LookupTbl map[uint64]*LookupEntry

	// PresenceFilter lets the seed search skip a half-window key in
	// O(1) when it is certainly absent from LookupTbl, before paying
	// for the map lookup. It is a superset test only: a positive
	// result must still be confirmed against LookupTbl.
	PresenceFilter *bloom.BloomFilter

	PartialWin int
	LnWin      int // == 2*PartialWin
	NumBvs     int

	// SkipLengths holds the three successive window-slide strides
	// for this part, tried from the largest to the smallest so each
	// later pass probes a finer grid of windows.
	SkipLengths [3]int

	Match      int32
	Mismatch   int32
	GapOpen    int32
	GapExtend  int32

	References []Reference
}

// Validate checks an index part's structural invariants.
func (p *Part) Validate() error {
	if p.LnWin != 2*p.PartialWin {
		return fmt.Errorf("refindex: LnWin=%d != 2*PartialWin=%d", p.LnWin, 2*p.PartialWin)
	}
	if !(p.SkipLengths[0] >= p.SkipLengths[1] && p.SkipLengths[1] >= p.SkipLengths[2]) {
		return fmt.Errorf("refindex: SkipLengths must be non-increasing, got %v", p.SkipLengths)
	}
	return nil
}

// NewPart builds an empty part with the given windowing parameters,
// ready to be populated by a Loader. Splitting construction from
// population keeps Load (binary I/O, out of spec scope) independent
// from the in-memory shape the rest of the core depends on.
func NewPart(num, partialWin int, skip [3]int, match, mismatch, gapOpen, gapExtend int32) *Part {
	lnwin := 2 * partialWin
	return &Part{
		Num:         num,
		LookupTbl:   make(map[uint64]*LookupEntry),
		PartialWin:  partialWin,
		LnWin:       lnwin,
		NumBvs:      (partialWin - 2) * 4,
		SkipLengths: skip,
		Match:       match,
		Mismatch:    mismatch,
		GapOpen:     gapOpen,
		GapExtend:   gapExtend,
	}
}

// BuildPresenceFilter constructs the Bloom pre-check from the current
// contents of LookupTbl. Call once after all entries are populated.
func (p *Part) BuildPresenceFilter() {
	n := uint(len(p.LookupTbl))
	if n == 0 {
		n = 1
	}
	f := bloom.NewWithEstimates(n, 0.01)
	key := make([]byte, 8)
	for k := range p.LookupTbl {
		putKey(key, k)
		f.Add(key)
	}
	p.PresenceFilter = f
}

// MaybePresent reports whether key could be in LookupTbl. A false
// result is certain; a true result must be confirmed by an actual map
// lookup.
func (p *Part) MaybePresent(key uint64) bool {
	if p.PresenceFilter == nil {
		return true
	}
	b := make([]byte, 8)
	putKey(b, key)
	return p.PresenceFilter.Test(b)
}

func putKey(b []byte, k uint64) {
	for i := 7; i >= 0; i-- {
		b[i] = byte(k)
		k >>= 8
	}
}

// Lookup returns the entry for key, and whether it was present. It
// consults the Bloom pre-check first.
func (p *Part) Lookup(key uint64) (*LookupEntry, bool) {
	if !p.MaybePresent(key) {
		return nil, false
	}
	e, ok := p.LookupTbl[key]
	return e, ok
}
