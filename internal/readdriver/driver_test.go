package readdriver

import (
	"testing"

	"github.com/kshedden/rrnascreen/internal/chain"
	"github.com/kshedden/rrnascreen/internal/refindex"
	"github.com/kshedden/rrnascreen/internal/seedtrie"
	"github.com/kshedden/rrnascreen/internal/seqcode"
)

func buildPart(t *testing.T) *refindex.Part {
	t.Helper()
	p := refindex.NewPart(0, 9, [3]int{18, 9, 1}, 2, -3, -5, -2)
	return p
}

func buildExactPart(t *testing.T) *refindex.Part {
	t.Helper()
	p := refindex.NewPart(0, 9, [3]int{18, 9, 1}, 2, -3, -5, -2)
	ref := []byte("ACGTACGTACGTACGTAC")
	p.References = []refindex.Reference{{Header: "r0", Seq: ref}}

	w1 := seqcode.Encode(ref[0:9])
	w2 := seqcode.Encode(ref[9:18])

	bF := seedtrie.NewBuilder()
	bF.Insert(w2, 0, 9)
	p.LookupTbl[seedtrie.PackKey(w1)] = &refindex.LookupEntry{Count: 1, TrieF: bF.Root()}

	bR := seedtrie.NewBuilder()
	bR.Insert(w1, 0, 0)
	p.LookupTbl[seedtrie.PackKey(w2)] = &refindex.LookupEntry{Count: 1, TrieR: bR.Root()}

	p.BuildPresenceFilter()
	return p
}

func TestProcessReadTooShort(t *testing.T) {
	d := New(SearchConfig{Accept: chain.AcceptParams{SeedHitsThreshold: 2, MinSWScore: 1}})
	part := buildPart(t)
	read := seqcode.NewRead(0, "q0", []byte("ACGTACGT"), "", -1)

	done := d.ProcessRead(read, part, read.Encoded, false, 0, 0, false)
	if !done {
		t.Error("expected done=true for a too-short read")
	}
	if read.IsValid {
		t.Error("expected IsValid=false for a too-short read")
	}
}

func TestProcessReadExactMatchSingleSeed(t *testing.T) {
	part := buildExactPart(t)
	sc := chain.Scorer{Match: 2, Mismatch: -3, GapOpen: -5, GapExtend: -2, Band: 8, Lambda: 0.2, K: 0.03, DBSize: 1000}
	ap := chain.AcceptParams{SeedHitsThreshold: 1, Edges: 4, MinSWScore: 1, NumAlignments: 1}
	d := New(SearchConfig{Scorer: sc, Accept: ap})

	read := seqcode.NewRead(0, "q0", []byte("ACGTACGTACGTACGTAC"), "", 1)

	done := d.ProcessRead(read, part, read.Encoded, false, 0, 0, false)
	if !done {
		t.Error("expected done=true once num_alignments is reached")
	}
	if !read.Hit {
		t.Error("expected the exact-match read to hit")
	}
	if len(read.Alignments) != 1 {
		t.Fatalf("expected 1 alignment, got %d", len(read.Alignments))
	}
	if read.Alignments[0].Score != int32(len(read.Seq))*sc.Match {
		t.Errorf("expected a perfect score, got %d", read.Alignments[0].Score)
	}
}

func TestProcessReadSecondPartAlreadyDone(t *testing.T) {
	d := New(SearchConfig{})
	part := buildPart(t)
	read := seqcode.NewRead(0, "q0", []byte("ACGTACGTACGTACGTAC"), "", -1)
	read.Hit = true

	done := d.ProcessRead(read, part, read.Encoded, true, 1, 0, true)
	if !done {
		t.Error("expected immediate done when doneBefore is set on the reverse pass")
	}
}
