// Copyright 2026, the rrnascreen contributors.

// Package readdriver implements the per-read driver: for one read
// against one loaded index part, runs the pass-escalating window
// search, invoking the LIS chainer/extender at each pass boundary, and
// applies the hit_denovo bookkeeping.
package readdriver

import (
	"github.com/golang-collections/go-datastructures/bitarray"

	"github.com/kshedden/rrnascreen/internal/chain"
	"github.com/kshedden/rrnascreen/internal/refindex"
	"github.com/kshedden/rrnascreen/internal/seqcode"
)

// SearchConfig is the immutable, threaded-through-the-driver
// replacement for the source's process-wide flags. One SearchConfig
// is built once per run and shared by reference across every
// Processor.
type SearchConfig struct {
	Scorer chain.Scorer
	Accept chain.AcceptParams

	// Forward restricts the search to the forward strand only,
	// skipping the reverse-complement pass entirely.
	Forward bool
}

// Driver runs the per-read, per-part pipeline stage. It holds no
// mutable state of its own; every field it touches lives on the Read
// or the Part.
type Driver struct {
	Config SearchConfig
}

// New returns a Driver for the given configuration.
func New(cfg SearchConfig) *Driver {
	return &Driver{Config: cfg}
}

// ProcessRead runs the driver for one (read, part, strand) triple.
// reverseStrand selects whether encoded is the read's
// reverse-complement; doneBefore lets the caller short-circuit the
// reverse-strand call immediately if the forward strand already
// signalled termination (it is ignored on the forward strand).
func (d *Driver) ProcessRead(read *seqcode.Read, part *refindex.Part, encoded []uint8, reverseStrand bool, indexNum, partNum int, doneBefore bool) (done bool) {
	read.LastIndex = indexNum
	read.LastPart = partNum

	if reverseStrand && doneBefore {
		return true
	}

	if read.TooShort(part.LnWin) {
		read.IsValid = false
		return true
	}

	// IDWinHits accumulates within runPasses across its own pass
	// escalation, but must never carry over into a different strand's
	// search: a stale forward-strand hit chained together with a
	// reverse-strand hit would produce a meaningless (ref_pos,
	// read_pos) pair.
	read.IDWinHits = read.IDWinHits[:0]

	done = d.runPasses(read, part, encoded, reverseStrand)

	if reverseStrand && !read.Hit {
		read.HitDenovo = false
	}
	return done
}

// runPasses runs the pass-escalation loop: pass 0/1/2 with strides
// skiplengths[p][pass_n], a per-read bitset of already-probed
// win_index values, and a chain-and-extend call at the end of every
// pass.
func (d *Driver) runPasses(read *seqcode.Read, part *refindex.Part, encoded []uint8, reverseStrand bool) bool {
	n := len(encoded)
	if n < part.LnWin {
		return true
	}
	maxWin := uint64(n - part.LnWin + 1)
	probed := bitarray.NewBitArray(maxWin)

	var lastStride int
	for pass := 0; pass < 3; pass++ {
		stride := part.SkipLengths[pass]
		if pass > 0 && stride == lastStride {
			continue
		}
		lastStride = stride
		if stride <= 0 {
			stride = 1
		}

		for winIndex := 0; winIndex+part.LnWin <= n; winIndex += stride {
			already, _ := probed.GetBit(uint64(winIndex))
			if already {
				continue
			}
			_ = probed.SetBit(uint64(winIndex))

			wh := part.ProbeWindow(encoded, winIndex)
			refindex.AppendWinHits(read, winIndex, wh)
		}

		done := chain.ProcessRead(read, part.References, part.LnWin, &d.Config.Scorer, d.Config.Accept)

		// The hits accumulated for this pass have now been grouped,
		// chained, and extended; carrying them into the next pass
		// would re-chain and re-extend the same candidate regions,
		// producing duplicate alignments.
		read.IDWinHits = read.IDWinHits[:0]

		if done {
			return true
		}
		if pass == 2 {
			return true
		}
	}
	return false
}
