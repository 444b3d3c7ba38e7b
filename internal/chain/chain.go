// Copyright 2026, the rrnascreen contributors.

// Package chain implements the LIS chainer and banded Smith-Waterman
// extender: group a read's accumulated seed hits by reference, chain
// them into a candidate region, extend with a banded gapped
// alignment, score it, and apply the acceptance and early-termination
// rules.
package chain

import (
	"fmt"
	"math"
	"sort"

	"github.com/kshedden/rrnascreen/internal/seqcode"
)

// Scorer carries the alignment scoring parameters and the
// Karlin-Altschul statistics needed to turn a raw score into an
// E-value. Building this as an explicit, immutable struct rather than
// process-wide globals keeps a run's scoring parameters threadable
// without shared mutable state (see SearchConfig in internal/config).
type Scorer struct {
	Match     int32
	Mismatch  int32
	GapOpen   int32
	GapExtend int32

	// Lambda and K are the scorer's configured Karlin-Altschul
	// parameters; their derivation is out of scope here.
	Lambda float64
	K      float64

	// DBSize is the total size (bases) of the reference database
	// this scorer's E-values are computed against.
	DBSize int64

	// Band bounds how far the banded Smith-Waterman may deviate
	// from the diagonal implied by the LIS chain.
	Band int
}

// pair is a (ref_pos, read_pos) seed coordinate.
type pair struct {
	refPos  int
	readPos int
}

// GroupByRef partitions a read's accumulated window hits by reference
// id, keeping only groups with at least minHits entries (the
// seed-hits-threshold gate).
func GroupByRef(hits []seqcode.WinHit, minHits int) map[uint32][]pair {
	byRef := make(map[uint32][]pair)
	for _, h := range hits {
		byRef[h.RefID] = append(byRef[h.RefID], pair{refPos: h.RefPos, readPos: h.WinOffset})
	}
	for id, ps := range byRef {
		if len(ps) < minHits {
			delete(byRef, id)
		}
	}
	return byRef
}

// LIS finds the longest strictly increasing subsequence of pairs on
// read_pos once sorted by ref_pos ascending, breaking ties in favor of
// the chain starting at the lowest read_pos.
func LIS(pairs []pair) []pair {
	if len(pairs) == 0 {
		return nil
	}
	ps := append([]pair(nil), pairs...)
	sort.SliceStable(ps, func(i, j int) bool { return ps[i].refPos < ps[j].refPos })

	n := len(ps)
	// length[i] = length of the longest strictly increasing chain
	// (on read_pos) ending at i; prev[i] links back to the
	// predecessor in that chain.
	length := make([]int, n)
	prev := make([]int, n)
	for i := range ps {
		length[i] = 1
		prev[i] = -1
		for j := 0; j < i; j++ {
			if ps[j].readPos < ps[i].readPos && length[j]+1 > length[i] {
				length[i] = length[j] + 1
				prev[i] = j
			}
		}
	}

	best := 0
	for i := 1; i < n; i++ {
		if length[i] > length[best] {
			best = i
		} else if length[i] == length[best] {
			// Tie-break: prefer the chain whose start has the
			// lower read_pos. Walk both chains back to their
			// start to compare.
			if startReadPos(ps, prev, i) < startReadPos(ps, prev, best) {
				best = i
			}
		}
	}

	chain := make([]pair, length[best])
	for i, k := best, length[best]-1; i >= 0; i = prev[i] {
		chain[k] = ps[i]
		k--
	}
	return chain
}

func startReadPos(ps []pair, prev []int, i int) int {
	for prev[i] != -1 {
		i = prev[i]
	}
	return ps[i].readPos
}

// CandidateRegion computes the (start, end) byte range within a
// reference sequence of length refLen that the chain implies: (min
// ref_pos, max ref_pos + lnwin), padded by up to edges nucleotides on
// each side and clamped to the reference.
func CandidateRegion(chainPairs []pair, lnwin, edges, refLen int) (start, end int) {
	minRef := chainPairs[0].refPos
	maxRef := chainPairs[0].refPos
	for _, p := range chainPairs[1:] {
		if p.refPos < minRef {
			minRef = p.refPos
		}
		if p.refPos > maxRef {
			maxRef = p.refPos
		}
	}
	start = minRef - edges
	end = maxRef + lnwin + edges
	if start < 0 {
		start = 0
	}
	if end > refLen {
		end = refLen
	}
	return start, end
}

// alignResult is the raw output of the banded Smith-Waterman extension
// before E-value/identity/coverage are folded in.
type alignResult struct {
	score     int32
	readStart int
	readEnd   int
	refStart  int
	refEnd    int
	cigar     string
	matches   int
	alnLen    int
}

// Extend runs banded Smith-Waterman between read and the candidate
// reference region ref[regionStart:regionEnd], and returns a fully
// populated seqcode.Alignment (coordinates are relative to the full
// reference, not the region).
func Extend(read []byte, ref []byte, regionStart, regionEnd int, refID uint32, refHeader string, reverse bool, sc *Scorer) seqcode.Alignment {
	region := ref[regionStart:regionEnd]
	raw := bandedSW(read, region, sc)

	alnLen := raw.alnLen
	ident := 0.0
	if alnLen > 0 {
		ident = 100 * float64(raw.matches) / float64(alnLen)
	}
	cov := 0.0
	if len(read) > 0 {
		cov = 100 * float64(raw.readEnd-raw.readStart) / float64(len(read))
	}

	return seqcode.Alignment{
		RefID:     refID,
		RefHeader: refHeader,
		RefStart:  regionStart + raw.refStart,
		RefEnd:    regionStart + raw.refEnd,
		ReadStart: raw.readStart,
		ReadEnd:   raw.readEnd,
		Score:     raw.score,
		Cigar:     raw.cigar,
		EValue:    Evalue(raw.score, alnLen, sc),
		Identity:  ident,
		Coverage:  cov,
		Reverse:   reverse,
	}
}

// Evalue computes the Karlin-Altschul E-value for a raw alignment
// score: E = K * m * n * exp(-lambda * S), where m*n is approximated
// by alnLen * DBSize (the scorer's configured database size stands in
// for the full search-space product since per-alignment query length
// already enters via alnLen).
func Evalue(score int32, alnLen int, sc *Scorer) float64 {
	if sc.DBSize <= 0 || alnLen <= 0 {
		return math.Inf(1)
	}
	return sc.K * float64(alnLen) * float64(sc.DBSize) * math.Exp(-sc.Lambda*float64(score))
}

// MinScoreFromEvalue inverts Evalue to derive the minimum raw score
// that keeps an alignment's E-value at or under evalueCutoff against a
// database of dbSize bases. Evalue's alnLen term is approximated as 1
// here since the alignment length isn't known until extension time;
// the resulting cutoff is thus the score at which even a
// single-base-long alignment would already clear evalueCutoff, a
// conservative (i.e. permissive) floor rather than an exact inverse
// for any particular alignment length.
func MinScoreFromEvalue(evalueCutoff float64, dbSize int64, sc *Scorer) int32 {
	if evalueCutoff <= 0 || dbSize <= 0 || sc.Lambda <= 0 || sc.K <= 0 {
		return 0
	}
	s := math.Log(sc.K*float64(dbSize)/evalueCutoff) / sc.Lambda
	if s <= 0 {
		return 0
	}
	return int32(math.Ceil(s))
}

func (r alignResult) String() string {
	return fmt.Sprintf("score=%d read=[%d,%d) ref=[%d,%d) cigar=%s", r.score, r.readStart, r.readEnd, r.refStart, r.refEnd, r.cigar)
}
