// Copyright 2017, Kerby Shedden and the Muscato contributors.
// Copyright 2026, the rrnascreen contributors.

// Package seqcode holds the encoded-read model: 2-bit nucleotide
// encoding, reverse complement, and the mutable per-read result state
// that is threaded through the rest of the pipeline.
package seqcode

import "encoding/binary"

// Base values for the 2-bit nucleotide alphabet. Invalid maps any byte
// that is not A/C/G/T/U (case-insensitive) so that it breaks every
// window key and trie edge it participates in.
const (
	BaseA uint8 = 0
	BaseC uint8 = 1
	BaseG uint8 = 2
	BaseT uint8 = 3
	BaseInvalid uint8 = 4
)

var encodeTable [256]uint8

func init() {
	for i := range encodeTable {
		encodeTable[i] = BaseInvalid
	}
	encodeTable['A'], encodeTable['a'] = BaseA, BaseA
	encodeTable['C'], encodeTable['c'] = BaseC, BaseC
	encodeTable['G'], encodeTable['g'] = BaseG, BaseG
	encodeTable['T'], encodeTable['t'] = BaseT, BaseT
	encodeTable['U'], encodeTable['u'] = BaseT, BaseT
}

// Encode maps an ASCII nucleotide sequence to its 2-bit form. U is
// treated as T; any other byte yields BaseInvalid.
func Encode(seq []byte) []uint8 {
	enc := make([]uint8, len(seq))
	for i, c := range seq {
		enc[i] = encodeTable[c]
	}
	return enc
}

var decodeTable = [4]byte{'A', 'C', 'G', 'T'}

// Decode is the inverse of Encode for the four valid bases; invalid
// positions decode to 'N'.
func Decode(enc []uint8) []byte {
	out := make([]byte, len(enc))
	for i, c := range enc {
		if c > BaseT {
			out[i] = 'N'
			continue
		}
		out[i] = decodeTable[c]
	}
	return out
}

// Complement returns the 2-bit complement of a base: XOR with 3 over
// {0..3}; BaseInvalid maps to itself.
func Complement(b uint8) uint8 {
	if b == BaseInvalid {
		return BaseInvalid
	}
	return b ^ 3
}

// ReverseComplement computes the reverse complement of an encoded
// sequence on demand; it does not mutate enc.
func ReverseComplement(enc []uint8) []uint8 {
	n := len(enc)
	out := make([]uint8, n)
	for i, c := range enc {
		out[n-1-i] = Complement(c)
	}
	return out
}

// Reference is one target sequence and its header, as produced by the
// (out-of-scope) reference preprocessing step. Its index within a
// part's References slice is the seed id stored in burst trie leaves
// and carried on WinHit/Alignment as RefID.
type Reference struct {
	Header string
	Seq    []byte
}

// WinHit is a (reference-seed-id, window-offset-on-read) pair
// accumulated by the seed search across windows. RefPos carries the
// matched occurrence's position within the reference, which the LIS
// chainer needs to build (ref_pos, read_pos) pairs.
type WinHit struct {
	RefID     uint32
	WinOffset int
	RefPos    int
}

// Alignment is an accepted gapped alignment produced by the LIS
// chainer/extender (component D).
type Alignment struct {
	RefID uint32
	// RefHeader is denormalized onto the alignment at accept time
	// (rather than resolved later from a RefID-indexed slice)
	// because a read's accepted alignments can span index parts
	// loaded and unloaded across separate outer-loop iterations;
	// carrying the name avoids needing every consumer to keep a
	// part's References slice alive past that part's iteration.
	RefHeader string
	RefStart  int
	RefEnd    int
	ReadStart int
	ReadEnd   int
	Score     int32
	Cigar     string
	EValue    float64
	Identity  float64
	Coverage  float64
	Reverse   bool
}

// Read is a short nucleotide sequence together with the mutable
// result state accumulated while it is matched against index parts.
// A Read is created by the Reader, owned exclusively by the Processor
// that pops it off the read queue, and serialized by the Writer.
type Read struct {
	// Ordinal is the monotonic identifier assigned at input time and
	// used as the key-value store checkpoint key.
	Ordinal uint64

	Name    string
	Seq     []byte // original ASCII sequence, for output
	Encoded []uint8
	Qual    string // optional

	IDWinHits []WinHit
	Alignments []Alignment

	// NumAlignments counts down from the configured per-read limit;
	// -1 means "no limit".
	NumAlignments int

	// MaxSWScore and LisCount persist the chainer's best-score and
	// LIS-chain-count bookkeeping across every chain.ProcessRead call
	// made for this read (one per pass, across both strands and every
	// index part it survives into), since the num_best_hits/min_lis
	// early-termination rule only fires once enough chains have been
	// seen over the read's whole lifetime, not within a single pass.
	MaxSWScore int32
	LisCount   int

	Hit       bool
	HitDenovo bool

	LastIndex int
	LastPart  int

	IsValid bool
}

// NewRead builds a Read from a name/sequence/quality triple, encoding
// the sequence and seeding the mutable fields to their initial state.
func NewRead(ordinal uint64, name string, seq []byte, qual string, numAlignments int) *Read {
	r := &Read{
		Ordinal:       ordinal,
		Name:          name,
		Seq:           append([]byte(nil), seq...),
		Encoded:       Encode(seq),
		Qual:          qual,
		NumAlignments: numAlignments,
		HitDenovo:     true,
		IsValid:       true,
		LastIndex:     -1,
		LastPart:      -1,
	}
	return r
}

// TooShort reports whether the read's encoded length is below the
// window length required by an index part; such reads are marked
// invalid and skipped by the driver.
func (r *Read) TooShort(lnwin int) bool {
	return len(r.Encoded) < lnwin
}

// OrdinalKey returns the big-endian byte-key form of r.Ordinal used
// for the key-value store, so that lexicographic byte order matches
// ordinal order (required by the embedded store's ordered iteration).
func OrdinalKey(ordinal uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, ordinal)
	return b
}
