// Copyright 2026, the rrnascreen contributors.

// Package sinkio holds the output-format writers: BLAST-tabular, SAM,
// FASTA-of-matched/unmatched reads, and OTU-map, plus the end-of-run
// log summary. Each is written by the Writer in the order items flow
// out of write_queue.
package sinkio

import "github.com/kshedden/rrnascreen/internal/seqcode"

// AlignmentSink accepts one read's final outcome, once all
// index-file/part iterations for it are complete. A single read may
// fan out to several sinks (e.g. BLAST-tabular and OTU-map
// simultaneously); the Writer holds a slice of these.
type AlignmentSink interface {
	WriteRead(read *seqcode.Read) error
	Close() error
}
