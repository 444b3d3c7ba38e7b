// Copyright 2026, the rrnascreen contributors.

package pipeline

import (
	"bytes"
	"encoding/gob"

	"modernc.org/kv"

	"github.com/kshedden/rrnascreen/internal/seqcode"
)

// CheckpointStore is the embedded, persistent, byte-ordered key-value
// store used to carry per-read state across index-part iterations.
// Grounded on modernc.org/kv as used by kortschak-ins's ins/blast.go
// (kv.Create/kv.Open, Set wrapped in a transaction).
type CheckpointStore struct {
	db *kv.DB
}

// checkpoint is the compact, format-versioned record persisted per
// read: not the full Read (the input sequence is re-derivable from
// the original file), just the mutable decision state accumulated so
// far.
type checkpoint struct {
	Version    int
	Alignments []seqcode.Alignment
	Hit        bool
	HitDenovo  bool
	IsValid    bool
	LastIndex  int
	LastPart   int
	MaxSWScore int32
	LisCount   int
}

const checkpointVersion = 1

// OpenCheckpointStore opens (or creates) the store at path.
func OpenCheckpointStore(path string) (*CheckpointStore, error) {
	opts := &kv.Options{}
	db, err := kv.Open(path, opts)
	if err != nil {
		db, err = kv.Create(path, opts)
		if err != nil {
			return nil, err
		}
	}
	return &CheckpointStore{db: db}, nil
}

// Close closes the underlying store.
func (s *CheckpointStore) Close() error {
	return s.db.Close()
}

// Put persists read's current mutable state keyed by its ordinal.
func (s *CheckpointStore) Put(read *seqcode.Read) error {
	cp := checkpoint{
		Version:    checkpointVersion,
		Alignments: read.Alignments,
		Hit:        read.Hit,
		HitDenovo:  read.HitDenovo,
		IsValid:    read.IsValid,
		LastIndex:  read.LastIndex,
		LastPart:   read.LastPart,
		MaxSWScore: read.MaxSWScore,
		LisCount:   read.LisCount,
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(cp); err != nil {
		return err
	}

	if err := s.db.BeginTransaction(); err != nil {
		return err
	}
	if err := s.db.Set(seqcode.OrdinalKey(read.Ordinal), buf.Bytes()); err != nil {
		return err
	}
	return s.db.Commit()
}

// Rehydrate loads a previously persisted checkpoint, if any, and
// applies it onto read, so later index-part iterations resume from
// prior decision state instead of starting cold. Returns false if no
// checkpoint exists yet for this ordinal.
func (s *CheckpointStore) Rehydrate(read *seqcode.Read) (bool, error) {
	data, err := s.db.Get(nil, seqcode.OrdinalKey(read.Ordinal))
	if err != nil {
		return false, err
	}
	if data == nil {
		return false, nil
	}

	var cp checkpoint
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&cp); err != nil {
		return false, err
	}
	read.Alignments = cp.Alignments
	read.Hit = cp.Hit
	read.HitDenovo = cp.HitDenovo
	read.IsValid = cp.IsValid
	read.LastIndex = cp.LastIndex
	read.LastPart = cp.LastPart
	read.MaxSWScore = cp.MaxSWScore
	read.LisCount = cp.LisCount
	return true, nil
}
