package chain

import (
	"testing"

	"github.com/kshedden/rrnascreen/internal/seqcode"
)

func TestGroupByRefThreshold(t *testing.T) {
	hits := []seqcode.WinHit{
		{RefID: 1, WinOffset: 0, RefPos: 10},
		{RefID: 1, WinOffset: 5, RefPos: 15},
		{RefID: 2, WinOffset: 0, RefPos: 3},
	}
	groups := GroupByRef(hits, 2)
	if _, ok := groups[1]; !ok {
		t.Error("ref 1 should meet the threshold")
	}
	if _, ok := groups[2]; ok {
		t.Error("ref 2 has only one hit and should be dropped")
	}
}

func TestLISStrictlyIncreasing(t *testing.T) {
	pairs := []pair{
		{refPos: 10, readPos: 0},
		{refPos: 20, readPos: 5},
		{refPos: 30, readPos: 3}, // breaks the increasing run on read_pos
		{refPos: 40, readPos: 10},
	}
	c := LIS(pairs)
	for i := 1; i < len(c); i++ {
		if c[i].readPos <= c[i-1].readPos {
			t.Fatalf("chain is not strictly increasing on read_pos: %+v", c)
		}
		if c[i].refPos <= c[i-1].refPos {
			t.Fatalf("chain is not increasing on ref_pos: %+v", c)
		}
	}
	if len(c) != 3 {
		t.Fatalf("expected a chain of length 3, got %d: %+v", len(c), c)
	}
}

func TestCandidateRegionClamped(t *testing.T) {
	pairs := []pair{{refPos: 0, readPos: 0}, {refPos: 5, readPos: 10}}
	start, end := CandidateRegion(pairs, 18, 4, 20)
	if start != 0 {
		t.Errorf("expected start clamped to 0, got %d", start)
	}
	if end != 20 {
		t.Errorf("expected end clamped to refLen 20, got %d", end)
	}
}

func TestBandedSWExactMatch(t *testing.T) {
	sc := &Scorer{Match: 2, Mismatch: -3, GapOpen: -5, GapExtend: -2, Band: 8, Lambda: 0.2, K: 0.03, DBSize: 1000}
	query := []byte("ACGTACGTACGT")
	r := bandedSW(query, query, sc)
	if r.score != int32(len(query))*sc.Match {
		t.Errorf("expected a perfect score of %d, got %d", len(query)*2, r.score)
	}
	if r.matches != len(query) {
		t.Errorf("expected %d matches, got %d", len(query), r.matches)
	}
}

func TestBandedSWOneMismatch(t *testing.T) {
	sc := &Scorer{Match: 2, Mismatch: -3, GapOpen: -5, GapExtend: -2, Band: 8}
	query := []byte("ACGTACGTACGT")
	target := []byte("ACGTAGGTACGT")
	r := bandedSW(query, target, sc)
	if r.matches != len(query)-1 {
		t.Errorf("expected %d matches, got %d (cigar=%s)", len(query)-1, r.matches, r.cigar)
	}
}

func TestAcceptScoreGate(t *testing.T) {
	p := AcceptParams{MinSWScore: 20}
	if Accept(seqcode.Alignment{Score: 19}, p) {
		t.Error("alignment below min_SW_score should not be accepted")
	}
	if !Accept(seqcode.Alignment{Score: 20}, p) {
		t.Error("alignment at min_SW_score should be accepted")
	}
}

func TestOTUEligibleGates(t *testing.T) {
	p := AcceptParams{MinID: 90, MinCov: 80}
	if OTUEligible(seqcode.Alignment{Identity: 89, Coverage: 95}, p) {
		t.Error("identity below min_id should not be OTU eligible")
	}
	if !OTUEligible(seqcode.Alignment{Identity: 95, Coverage: 85}, p) {
		t.Error("alignment clearing both gates should be OTU eligible")
	}
}

func TestProcessReadNumAlignmentsTermination(t *testing.T) {
	refs := []seqcode.Reference{
		{Header: "r0", Seq: []byte("ACGTACGTACGTACGTACGTACGT")},
	}
	read := seqcode.NewRead(0, "q0", []byte("ACGTACGTACGTACGTACGT"), "", 1)
	read.IDWinHits = []seqcode.WinHit{
		{RefID: 0, WinOffset: 0, RefPos: 0},
		{RefID: 0, WinOffset: 8, RefPos: 8},
	}
	sc := &Scorer{Match: 2, Mismatch: -3, GapOpen: -5, GapExtend: -2, Band: 8, Lambda: 0.2, K: 0.03, DBSize: 1000}
	p := AcceptParams{SeedHitsThreshold: 2, Edges: 4, MinSWScore: 1, NumAlignments: 1}

	done := ProcessRead(read, refs, 18, sc, p)
	if !done {
		t.Error("expected done once num_alignments is reached")
	}
	if len(read.Alignments) != 1 {
		t.Fatalf("expected exactly 1 alignment, got %d", len(read.Alignments))
	}
	if !read.Hit {
		t.Error("expected read.Hit to be set")
	}
}

func TestProcessReadNoGroupsMeetThreshold(t *testing.T) {
	refs := []seqcode.Reference{{Header: "r0", Seq: []byte("ACGTACGTACGT")}}
	read := seqcode.NewRead(0, "q0", []byte("ACGTACGT"), "", -1)
	read.IDWinHits = []seqcode.WinHit{{RefID: 0, WinOffset: 0, RefPos: 0}}
	sc := &Scorer{Match: 2, Mismatch: -3, GapOpen: -5, GapExtend: -2, Band: 8}
	p := AcceptParams{SeedHitsThreshold: 2}

	done := ProcessRead(read, refs, 8, sc, p)
	if done || read.Hit {
		t.Error("a single hit below seed_hits_threshold should produce no alignment")
	}
}
