// Copyright 2026, the rrnascreen contributors.

package chain

// cigarOp accumulates a run of one CIGAR operation as the traceback is
// walked (built back-to-front, reversed once complete).
type cigarOp struct {
	op  byte
	len int
}

// bandedSW runs a banded local (Smith-Waterman) alignment of query
// against target, restricted to a diagonal band of the configured
// width, with affine gap penalties. This is the differentiating
// scoring core, not an ambient concern with a corpus library
// equivalent, so it is hand-rolled (see DESIGN.md).
func bandedSW(query, target []byte, sc *Scorer) alignResult {
	n := len(query)
	m := len(target)
	if n == 0 || m == 0 {
		return alignResult{}
	}

	band := sc.Band
	if band <= 0 {
		band = 16
	}

	neg := int32(-1 << 30)

	// H[i][j]: best local alignment score ending at query[i-1],
	// target[j-1]. E[i][j]: best score ending with a gap in query
	// (consuming target). F[i][j]: best score ending with a gap in
	// target (consuming query). Indexed densely for simplicity; n
	// and m are read-window-sized (tens to low hundreds of bases),
	// so this is not a hot allocation.
	H := make([][]int32, n+1)
	E := make([][]int32, n+1)
	F := make([][]int32, n+1)
	for i := range H {
		H[i] = make([]int32, m+1)
		E[i] = make([]int32, m+1)
		F[i] = make([]int32, m+1)
	}

	var best int32
	var bi, bj int

	inBand := func(i, j int) bool {
		d := i - j
		if d < 0 {
			d = -d
		}
		return d <= band
	}

	for i := 1; i <= n; i++ {
		lo := i - band
		if lo < 1 {
			lo = 1
		}
		hi := i + band
		if hi > m {
			hi = m
		}
		for j := lo; j <= hi; j++ {
			if !inBand(i, j) {
				continue
			}
			var s int32
			if query[i-1] == target[j-1] {
				s = sc.Match
			} else {
				s = sc.Mismatch
			}

			diagPrev := int32(0)
			if inBand(i-1, j-1) {
				diagPrev = H[i-1][j-1]
			} else {
				diagPrev = neg
			}
			diag := diagPrev + s

			ePrev := neg
			if inBand(i, j-1) {
				e1 := H[i][j-1] + sc.GapOpen
				e2 := E[i][j-1] + sc.GapExtend
				ePrev = max32(e1, e2)
			}
			E[i][j] = ePrev

			fPrev := neg
			if inBand(i-1, j) {
				f1 := H[i-1][j] + sc.GapOpen
				f2 := F[i-1][j] + sc.GapExtend
				fPrev = max32(f1, f2)
			}
			F[i][j] = fPrev

			h := max32(0, max32(diag, max32(E[i][j], F[i][j])))
			H[i][j] = h
			if h > best {
				best = h
				bi, bj = i, j
			}
		}
	}

	if best == 0 {
		return alignResult{}
	}

	ops, matches, readStart, refStart := traceback(query, target, H, E, F, sc, bi, bj)
	return alignResult{
		score:     best,
		readStart: readStart,
		readEnd:   bi,
		refStart:  refStart,
		refEnd:    bj,
		cigar:     renderCigar(ops),
		matches:   matches,
		alnLen:    alnLenOf(ops),
	}
}

func max32(a, b int32) int32 {
	if a > b {
		return a
	}
	return b
}

// traceback walks back from (bi, bj) where H is maximal to a 0 cell,
// emitting CIGAR ops in reverse and counting matched positions.
func traceback(query, target []byte, H, E, F [][]int32, sc *Scorer, bi, bj int) (ops []cigarOp, matches, readStart, refStart int) {
	i, j := bi, bj
	push := func(op byte) {
		if len(ops) > 0 && ops[len(ops)-1].op == op {
			ops[len(ops)-1].len++
			return
		}
		ops = append(ops, cigarOp{op: op, len: 1})
	}

	for i > 0 && j > 0 && H[i][j] > 0 {
		h := H[i][j]
		switch {
		case j > 0 && h == E[i][j]:
			push('D')
			j--
		case i > 0 && h == F[i][j]:
			push('I')
			i--
		default:
			if query[i-1] == target[j-1] {
				push('=')
				matches++
			} else {
				push('X')
			}
			i--
			j--
		}
	}
	readStart, refStart = i, j

	// ops were pushed from the end of the alignment backward; reverse.
	for l, r := 0, len(ops)-1; l < r; l, r = l+1, r-1 {
		ops[l], ops[r] = ops[r], ops[l]
	}
	return ops, matches, readStart, refStart
}

func renderCigar(ops []cigarOp) string {
	out := make([]byte, 0, len(ops)*4)
	for _, o := range ops {
		out = appendInt(out, o.len)
		out = append(out, o.op)
	}
	return string(out)
}

func appendInt(b []byte, v int) []byte {
	if v == 0 {
		return append(b, '0')
	}
	start := len(b)
	for v > 0 {
		b = append(b, byte('0'+v%10))
		v /= 10
	}
	for l, r := start, len(b)-1; l < r; l, r = l+1, r-1 {
		b[l], b[r] = b[r], b[l]
	}
	return b
}

func alnLenOf(ops []cigarOp) int {
	n := 0
	for _, o := range ops {
		n += o.len
	}
	return n
}
