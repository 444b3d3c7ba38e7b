// Copyright 2026, the rrnascreen contributors.

package chain

import "github.com/kshedden/rrnascreen/internal/seqcode"

// AcceptParams holds the acceptance and early-termination thresholds
// for scoring an extended alignment. It is part of the immutable
// SearchConfig the driver threads through a run
// (internal/config.SearchConfig embeds this).
type AcceptParams struct {
	SeedHitsThreshold int
	Edges             int

	MinSWScore int32
	MinID      float64
	MinCov     float64

	// NumAlignments, if > 0, caps the number of accepted alignments
	// per read; reaching it signals done.
	NumAlignments int

	// NumBestHits and MinLIS together drive the alternate
	// termination rule: after MinLIS successful LIS chains, keep
	// only alignments tied for the best score, stopping once
	// NumBestHits such alignments exist.
	NumBestHits int
	MinLIS      int
}

// Accept reports whether a, which was the output of Extend, clears the
// score gate. identity/coverage only gate OTU-map eligibility, not the
// hit flag itself, so they are evaluated separately via OTUEligible.
func Accept(a seqcode.Alignment, p AcceptParams) bool {
	return a.Score >= p.MinSWScore
}

// OTUEligible reports whether an already-accepted alignment also
// clears the identity/coverage gates reserved for OTU-map output.
func OTUEligible(a seqcode.Alignment, p AcceptParams) bool {
	return a.Identity >= p.MinID && a.Coverage >= p.MinCov
}

// ProcessRead runs the full §4.4 pipeline for one read against one
// index part that has already had its windows probed for the current
// pass: group hits by reference, chain each group, extend, score, and
// apply the acceptance/termination rules. It appends accepted
// alignments to read.Alignments and returns done, which signals the
// per-read driver (component E) to stop probing further windows.
//
// ProcessRead is called once per pass, so the NumBestHits/MinLIS
// early-termination rule needs its running lisCount and maxScore to
// survive across calls; both are tracked on read itself
// (read.LisCount, read.MaxSWScore) rather than in call-local state.
func ProcessRead(read *seqcode.Read, refs []seqcode.Reference, lnwin int, sc *Scorer, p AcceptParams) (done bool) {
	groups := GroupByRef(read.IDWinHits, p.SeedHitsThreshold)
	if len(groups) == 0 {
		return false
	}

	var accepted []seqcode.Alignment
	for refID, pairs := range groups {
		if int(refID) >= len(refs) {
			continue
		}
		ref := refs[refID]

		chainPairs := LIS(pairs)
		if len(chainPairs) == 0 {
			continue
		}
		read.LisCount++

		regionStart, regionEnd := CandidateRegion(chainPairs, lnwin, p.Edges, len(ref.Seq))
		if regionEnd <= regionStart {
			continue
		}

		a := Extend(read.Seq, ref.Seq, regionStart, regionEnd, refID, ref.Header, false, sc)
		if !Accept(a, p) {
			continue
		}

		if a.Score > read.MaxSWScore {
			read.MaxSWScore = a.Score
		}
		accepted = append(accepted, a)
		read.Hit = true

		if p.NumAlignments > 0 {
			read.Alignments = append(read.Alignments, a)
			read.NumAlignments--
			if len(read.Alignments) >= p.NumAlignments || read.NumAlignments <= 0 {
				return true
			}
			continue
		}
	}

	if p.NumAlignments > 0 {
		return false
	}

	if p.NumBestHits > 0 && p.MinLIS > 0 && read.LisCount >= p.MinLIS {
		var best []seqcode.Alignment
		for _, a := range accepted {
			if a.Score == read.MaxSWScore {
				best = append(best, a)
			}
		}
		read.Alignments = append(read.Alignments, best...)
		if len(read.Alignments) >= p.NumBestHits {
			return true
		}
		return false
	}

	read.Alignments = append(read.Alignments, accepted...)
	return false
}
