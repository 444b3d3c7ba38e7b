// Copyright 2026, the rrnascreen contributors.

// Package tests_integration drives the full per-read pipeline
// (components B through E) against the declarative scenarios in
// scenarios.toml: TOML-described scenarios, run, check expectations,
// adapted from "exec an external binary and diff output files" to
// "call the in-process driver and assert on the resulting Read".
package tests_integration

import (
	"os"
	"testing"

	"github.com/BurntSushi/toml"

	"github.com/kshedden/rrnascreen/internal/chain"
	"github.com/kshedden/rrnascreen/internal/readdriver"
	"github.com/kshedden/rrnascreen/internal/refindex"
	"github.com/kshedden/rrnascreen/internal/seedtrie"
	"github.com/kshedden/rrnascreen/internal/seqcode"
)

type scenario struct {
	Name           string
	ReadName       string `toml:"read_name"`
	ReadSeq        string `toml:"read_seq"`
	RefName        string `toml:"ref_name"`
	RefSeq         string `toml:"ref_seq"`
	PartialWin     int    `toml:"partial_win"`
	LnWin          int    `toml:"ln_win"`
	WantValid      bool   `toml:"want_valid"`
	WantHit        bool   `toml:"want_hit"`
	WantAlignments int    `toml:"want_alignments"`
	WantMinScore   int32  `toml:"want_min_score"`
}

type scenarioFile struct {
	Scenario []scenario
}

func loadScenarios(t *testing.T) []scenario {
	t.Helper()
	data, err := os.ReadFile("scenarios.toml")
	if err != nil {
		t.Fatalf("reading scenarios.toml: %v", err)
	}
	var f scenarioFile
	if _, err := toml.Decode(string(data), &f); err != nil {
		t.Fatalf("decoding scenarios.toml: %v", err)
	}
	return f.Scenario
}

// buildIndexPart builds a full seed index over every lnWin-length
// window of ref, exactly as an (out-of-scope) index builder would:
// for each window, the left half seeds a forward trie keyed on the
// right half, and the right half seeds a reverse trie keyed on the
// left half.
func buildIndexPart(refName, ref string, partialWin, lnWin int) *refindex.Part {
	p := refindex.NewPart(0, partialWin, [3]int{lnWin, partialWin, 1}, 2, -3, -5, -2)
	refBytes := []byte(ref)
	p.References = []refindex.Reference{{Header: refName, Seq: refBytes}}

	enc := seqcode.Encode(refBytes)

	fBuilders := map[uint64]*seedtrie.Builder{}
	rBuilders := map[uint64]*seedtrie.Builder{}

	for i := 0; i+lnWin <= len(enc); i++ {
		w1 := enc[i : i+partialWin]
		w2 := enc[i+partialWin : i+lnWin]
		if seedtrie.HasInvalid(w1) || seedtrie.HasInvalid(w2) {
			continue
		}

		keyF := seedtrie.PackKey(w1)
		bF, ok := fBuilders[keyF]
		if !ok {
			bF = seedtrie.NewBuilder()
			fBuilders[keyF] = bF
		}
		bF.Insert(w2, 0, i+partialWin)

		keyR := seedtrie.PackKey(w2)
		bR, ok := rBuilders[keyR]
		if !ok {
			bR = seedtrie.NewBuilder()
			rBuilders[keyR] = bR
		}
		bR.Insert(w1, 0, i)
	}

	entryFor := func(key uint64) *refindex.LookupEntry {
		entry, ok := p.LookupTbl[key]
		if !ok {
			entry = &refindex.LookupEntry{}
			p.LookupTbl[key] = entry
		}
		return entry
	}
	for key, b := range fBuilders {
		e := entryFor(key)
		e.Count++
		e.TrieF = b.Root()
	}
	for key, b := range rBuilders {
		e := entryFor(key)
		e.Count++
		e.TrieR = b.Root()
	}

	p.BuildPresenceFilter()
	return p
}

func TestScenarios(t *testing.T) {
	for _, sc := range loadScenarios(t) {
		sc := sc
		t.Run(sc.Name, func(t *testing.T) {
			part := buildIndexPart(sc.RefName, sc.RefSeq, sc.PartialWin, sc.LnWin)

			scorer := chain.Scorer{
				Match: 2, Mismatch: -3, GapOpen: -5, GapExtend: -2,
				Band: 16, Lambda: 0.2, K: 0.03, DBSize: int64(len(sc.RefSeq) * 10),
			}
			accept := chain.AcceptParams{
				SeedHitsThreshold: 1, Edges: 4, MinSWScore: 1, NumAlignments: 4,
			}
			driver := readdriver.New(readdriver.SearchConfig{Scorer: scorer, Accept: accept, Forward: true})

			read := seqcode.NewRead(0, sc.ReadName, []byte(sc.ReadSeq), "", 4)
			driver.ProcessRead(read, part, read.Encoded, false, 0, 0, false)

			if read.IsValid != sc.WantValid {
				t.Errorf("IsValid = %v, want %v", read.IsValid, sc.WantValid)
			}
			if read.Hit != sc.WantHit {
				t.Errorf("Hit = %v, want %v", read.Hit, sc.WantHit)
			}
			if len(read.Alignments) != sc.WantAlignments {
				t.Fatalf("len(Alignments) = %d, want %d", len(read.Alignments), sc.WantAlignments)
			}
			for _, a := range read.Alignments {
				if a.Score < sc.WantMinScore {
					t.Errorf("alignment score %d below minimum %d", a.Score, sc.WantMinScore)
				}
			}
		})
	}
}

// TestCrossPartState covers a read that
// misses part 0 of an index but matches part 1, checking on the
// forward strand that a miss against one part leaves the read unhit
// and that a later, separately-built part still yields its alignment.
func TestCrossPartState(t *testing.T) {
	missPart := buildIndexPart("miss", "TTTTTTTTTTTTTTTTTTTTTTTTTTTT", 9, 18)
	hitPart := buildIndexPart("hit0", "ACGTACGTACGTACGTAC", 9, 18)

	scorer := chain.Scorer{Match: 2, Mismatch: -3, GapOpen: -5, GapExtend: -2, Band: 16, Lambda: 0.2, K: 0.03, DBSize: 1000}
	accept := chain.AcceptParams{SeedHitsThreshold: 1, Edges: 4, MinSWScore: 1, NumAlignments: 1}
	driver := readdriver.New(readdriver.SearchConfig{Scorer: scorer, Accept: accept, Forward: true})

	read := seqcode.NewRead(0, "r6", []byte("ACGTACGTACGTACGTAC"), "", 1)

	driver.ProcessRead(read, missPart, read.Encoded, false, 0, 0, false)
	if read.Hit {
		t.Fatalf("expected no hit after part 0, got a hit")
	}

	driver.ProcessRead(read, hitPart, read.Encoded, false, 0, 1, false)
	if !read.Hit {
		t.Errorf("expected a hit after part 1")
	}
	if len(read.Alignments) != 1 {
		t.Errorf("expected exactly one alignment, got %d", len(read.Alignments))
	}
}
