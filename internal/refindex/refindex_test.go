package refindex

import (
	"os"
	"testing"

	"github.com/kshedden/rrnascreen/internal/seedtrie"
	"github.com/kshedden/rrnascreen/internal/seqcode"
)

func buildTestPart(t *testing.T) *Part {
	t.Helper()
	p := NewPart(0, 9, [3]int{10, 5, 1}, 2, -1, -2, -1)
	p.References = []Reference{{Header: "ref0", Seq: []byte("ACGTACGTACGTACGTAC")}}

	half1 := seqcode.Encode([]byte("ACGTACGTA"))
	half2 := seqcode.Encode([]byte("CGTACGTAC"))

	bF := seedtrie.NewBuilder()
	bF.Insert(half2, 0, 9)
	p.LookupTbl[seedtrie.PackKey(half1)] = &LookupEntry{Count: 1, TrieF: bF.Root()}

	bR := seedtrie.NewBuilder()
	bR.Insert(half1, 0, 0)
	p.LookupTbl[seedtrie.PackKey(half2)] = &LookupEntry{Count: 1, TrieR: bR.Root()}

	p.BuildPresenceFilter()
	return p
}

func TestProbeWindowExact(t *testing.T) {
	p := buildTestPart(t)
	enc := seqcode.Encode([]byte("ACGTACGTACGTACGTAC"))

	wh := p.ProbeWindow(enc, 0)
	if !wh.AcceptZeroKmer {
		t.Error("expected an exact match at window 0")
	}
	if len(wh.Hits) != 1 {
		t.Fatalf("expected one hit, got %d", len(wh.Hits))
	}
}

func TestProbeWindowAbsentKeySkipsBloom(t *testing.T) {
	p := buildTestPart(t)
	enc := seqcode.Encode([]byte("TTTTTTTTTTTTTTTTTT"))
	wh := p.ProbeWindow(enc, 0)
	if len(wh.Hits) != 0 {
		t.Errorf("expected no hits for an unrelated window, got %+v", wh.Hits)
	}
}

func TestValidateCatchesBadLnWin(t *testing.T) {
	p := NewPart(0, 9, [3]int{1, 1, 1}, 1, -1, -1, -1)
	p.LnWin = 19
	if err := p.Validate(); err == nil {
		t.Error("expected Validate to reject LnWin != 2*PartialWin")
	}
}

func TestValidateCatchesNonMonotonicSkip(t *testing.T) {
	p := NewPart(0, 9, [3]int{10, 20, 5}, 1, -1, -1, -1)
	if err := p.Validate(); err == nil {
		t.Error("expected Validate to reject non-monotonic SkipLengths")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	p := buildTestPart(t)
	if err := Save(p, dir, 1); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(dir, 1, 0)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.PartialWin != p.PartialWin || got.LnWin != p.LnWin {
		t.Errorf("window params did not round trip: got %+v", got)
	}
	if len(got.References) != 1 || string(got.References[0].Seq) != "ACGTACGTACGTACGTAC" {
		t.Errorf("references did not round trip: %+v", got.References)
	}

	enc := seqcode.Encode([]byte("ACGTACGTACGTACGTAC"))
	wh := got.ProbeWindow(enc, 0)
	if !wh.AcceptZeroKmer || len(wh.Hits) != 1 {
		t.Errorf("round-tripped trie did not reproduce the exact hit: %+v", wh)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(os.TempDir(), 999, 999)
	if err == nil {
		t.Error("expected an error loading a nonexistent index part")
	}
}
