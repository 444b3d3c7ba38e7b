// Copyright 2026, the rrnascreen contributors.

package refindex

import (
	"github.com/kshedden/rrnascreen/internal/seedtrie"
	"github.com/kshedden/rrnascreen/internal/seqcode"
)

// WindowHit is the result of probing one window of a read against a
// part: the seed hits discovered (if any), and whether subsearch 1(a)
// found an exact match (accept_zero_kmer, which gates whether
// subsearch 1(b) runs at all). Each hit's Pos is the start of the
// matched window on the reference.
type WindowHit struct {
	Hits           []seedtrie.Occurrence
	AcceptZeroKmer bool
}

// ProbeWindow runs the two subsearches for one window starting at
// winIndex: (1a) exact w1 / ≤1-edit w2 against TrieF, and,
// unless (1a) already found an exact match, (1b) exact w2 / ≤1-edit w1
// against TrieR.
func (p *Part) ProbeWindow(encoded []uint8, winIndex int) WindowHit {
	w1 := encoded[winIndex : winIndex+p.PartialWin]
	w2 := encoded[winIndex+p.PartialWin : winIndex+p.LnWin]

	var result WindowHit

	if !seedtrie.HasInvalid(w1) {
		keyF := seedtrie.PackKey(w1)
		if entry, ok := p.Lookup(keyF); ok && entry.Count > 0 && entry.TrieF != nil {
			hits, exact := seedtrie.Search(entry.TrieF, w2)
			// TrieF occurrences record where the second half starts;
			// shift back to the window start.
			for _, h := range hits {
				h.Pos -= p.PartialWin
				result.Hits = append(result.Hits, h)
			}
			if exact {
				result.AcceptZeroKmer = true
			}
		}
	}

	if result.AcceptZeroKmer {
		return result
	}

	if !seedtrie.HasInvalid(w2) {
		keyR := seedtrie.PackKey(w2)
		if entry, ok := p.Lookup(keyR); ok && entry.Count > 0 && entry.TrieR != nil {
			hits, _ := seedtrie.Search(entry.TrieR, w1)
			result.Hits = append(result.Hits, hits...)
		}
	}

	return result
}

// AppendWinHits converts a WindowHit into seqcode.WinHit entries and
// appends them to the read's accumulated hit list, tagging each with
// the window offset it was found at.
func AppendWinHits(read *seqcode.Read, winIndex int, wh WindowHit) {
	for _, h := range wh.Hits {
		read.IDWinHits = append(read.IDWinHits, seqcode.WinHit{
			RefID:     h.RefID,
			WinOffset: winIndex,
			RefPos:    h.Pos,
		})
	}
}
