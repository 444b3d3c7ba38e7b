// Copyright 2026, the rrnascreen contributors.

package refindex

import (
	"bufio"
	"encoding/gob"
	"fmt"
	"os"
	"path"

	"github.com/golang/snappy"

	"github.com/kshedden/rrnascreen/internal/seedtrie"
)

// record is the on-disk shape this core persists for a part. The
// actual production index byte layout is the external indexer's
// contract and is not specified here; this gob+snappy encoding is
// this core's own placeholder for that out-of-scope interface, used
// by Save/Load and by the test fixtures. Using
// encoding/gob here (rather than one of the corpus's domain
// libraries) is deliberate: nothing in the pack defines or reads the
// unspecified index byte layout, so there is no ecosystem convention
// to follow for it (see DESIGN.md).
type record struct {
	PartialWin  int
	SkipLengths [3]int
	Match       int32
	Mismatch    int32
	GapOpen     int32
	GapExtend   int32
	References  []Reference
	Entries     []entryRecord
}

// entryRecord flattens one lookup_tbl row: the half-window path that
// leads TrieF (paired with its second-half occurrences) and/or TrieR
// (paired with its first-half occurrences).
type entryRecord struct {
	Key      uint64
	Count    int
	PathsF   [][]uint8
	OccF     []occRecord
	PathsR   [][]uint8
	OccR     []occRecord
}

type occRecord struct {
	RefID uint32
	Pos   int
}

// Save persists a part built in-memory (e.g. by a test, or by a
// future loader adapted to the real indexer's format) to
// dir/index_<num>_part_<part>.sz.
func Save(p *Part, dir string, indexNum int) error {
	rec := record{
		PartialWin:  p.PartialWin,
		SkipLengths: p.SkipLengths,
		Match:       p.Match,
		Mismatch:    p.Mismatch,
		GapOpen:     p.GapOpen,
		GapExtend:   p.GapExtend,
		References:  p.References,
	}
	for key, e := range p.LookupTbl {
		er := entryRecord{Key: key, Count: e.Count}
		if e.TrieF != nil {
			er.PathsF, er.OccF = flatten(e.TrieF, p.PartialWin)
		}
		if e.TrieR != nil {
			er.PathsR, er.OccR = flatten(e.TrieR, p.PartialWin)
		}
		rec.Entries = append(rec.Entries, er)
	}

	fname := indexFileName(dir, indexNum, p.Num)
	fid, err := os.Create(fname)
	if err != nil {
		return err
	}
	defer fid.Close()
	w := snappy.NewBufferedWriter(fid)
	defer w.Close()
	return gob.NewEncoder(w).Encode(rec)
}

// flatten walks a trie back into (path, occurrence) pairs for
// serialization. It is only ever called on tries this package built,
// so depth always matches partialWin.
func flatten(root *seedtrie.Node, partialWin int) ([][]uint8, []occRecord) {
	var paths [][]uint8
	var occs []occRecord
	var walk func(n *seedtrie.Node, path []uint8)
	walk = func(n *seedtrie.Node, path []uint8) {
		if n == nil {
			return
		}
		if len(path) == partialWin {
			for _, occ := range n.Leaf {
				p := make([]uint8, partialWin)
				copy(p, path)
				paths = append(paths, p)
				occs = append(occs, occRecord{RefID: occ.RefID, Pos: occ.Pos})
			}
			return
		}
		for c := uint8(0); c < 4; c++ {
			if n.Children[c] != nil {
				walk(n.Children[c], append(path, c))
			}
		}
	}
	walk(root, nil)
	return paths, occs
}

// Load reads the part persisted by Save. A production loader adapted
// to the real external index format would populate refindex.Part the
// same way: NewPart, then Builder.Insert per (path, refID, pos) into
// a LookupEntry's TrieF/TrieR.
func Load(dir string, indexNum, partNum int) (*Part, error) {
	fname := indexFileName(dir, indexNum, partNum)
	fid, err := os.Open(fname)
	if err != nil {
		return nil, fmt.Errorf("refindex: loading index %d part %d: %w", indexNum, partNum, err)
	}
	defer fid.Close()
	r := snappy.NewReader(fid)
	br := bufio.NewReaderSize(r, 1<<20)

	var rec record
	if err := gob.NewDecoder(br).Decode(&rec); err != nil {
		return nil, fmt.Errorf("refindex: decoding index %d part %d: %w", indexNum, partNum, err)
	}

	part := NewPart(partNum, rec.PartialWin, rec.SkipLengths, rec.Match, rec.Mismatch, rec.GapOpen, rec.GapExtend)
	part.References = rec.References

	for _, e := range rec.Entries {
		entry := &LookupEntry{Count: e.Count}
		if len(e.PathsF) > 0 {
			b := seedtrie.NewBuilder()
			for i, p := range e.PathsF {
				b.Insert(p, e.OccF[i].RefID, e.OccF[i].Pos)
			}
			entry.TrieF = b.Root()
		}
		if len(e.PathsR) > 0 {
			b := seedtrie.NewBuilder()
			for i, p := range e.PathsR {
				b.Insert(p, e.OccR[i].RefID, e.OccR[i].Pos)
			}
			entry.TrieR = b.Root()
		}
		part.LookupTbl[e.Key] = entry
	}

	if err := part.Validate(); err != nil {
		return nil, err
	}
	part.BuildPresenceFilter()
	return part, nil
}

func indexFileName(dir string, indexNum, partNum int) string {
	return path.Join(dir, fmt.Sprintf("index_%d_part_%d.sz", indexNum, partNum))
}

// PartExists reports whether a part file is present, without paying
// for the gob+snappy decode a full Load would cost. The outer loop
// uses this to look ahead for the true last (index, part) pair while
// still processing one part at a time.
func PartExists(dir string, indexNum, partNum int) bool {
	_, err := os.Stat(indexFileName(dir, indexNum, partNum))
	return err == nil
}
