// Copyright 2026, the rrnascreen contributors.

package pipeline

import (
	"fmt"
	"os"

	"github.com/kshedden/rrnascreen/internal/ioformats"
	"github.com/kshedden/rrnascreen/internal/readdriver"
	"github.com/kshedden/rrnascreen/internal/refindex"
	"github.com/kshedden/rrnascreen/internal/rstats"
	"github.com/kshedden/rrnascreen/internal/sinkio"
)

// OuterLoopParams configures Run, the top-level outer loop: for each
// index file, for each part, load, spawn workers, join, unload.
type OuterLoopParams struct {
	IndexDirs     []string // one directory per index file, in order
	ReadFileName  string
	NumReaders    int
	NumProcessors int
	NumWriters    int
	QueueSize     int
	NumAlignments int
	Driver        *readdriver.Driver
	Store         *CheckpointStore
	Stats         *rstats.Stats
	Sinks         []sinkio.AlignmentSink
}

// Run iterates every (index file, part) pair, loading each part via
// refindex.Load, running RunPart over it, and unloading before moving
// on. A part number past the last one on disk surfaces as a Load
// error, which ends that index file's part loop (not the whole run).
func Run(p OuterLoopParams) error {
	for indexNum, dir := range p.IndexDirs {
		for partNum := 0; ; partNum++ {
			part, err := refindex.Load(dir, indexNum, partNum)
			if err != nil {
				if partNum == 0 {
					return fmt.Errorf("pipeline: loading index %d: %w", indexNum, err)
				}
				break // no more parts for this index file
			}

			f, err := os.Open(p.ReadFileName)
			if err != nil {
				return err
			}
			shared := NewSharedScanner(ioformats.NewScanner(f))

			err = RunPart(PartParams{
				Scanner:        shared,
				NumReaders:     p.NumReaders,
				Store:          p.Store,
				FirstIteration: indexNum == 0 && partNum == 0,
				FinalIteration: isFinalIteration(p.IndexDirs, indexNum, partNum),
				NumAlignments:  p.NumAlignments,
				Part:           part,
				Driver:         p.Driver,
				IndexNum:       indexNum,
				PartNum:        partNum,
				Stats:          p.Stats,
				Sinks:          p.Sinks,
				NumProcessors:  p.NumProcessors,
				NumWriters:     p.NumWriters,
				QueueSize:      p.QueueSize,
			})
			f.Close()
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// isFinalIteration reports whether (indexNum, partNum) is the true
// last (index, part) pair across the whole run: this index file has
// no part partNum+1, and no later index file has any parts at all.
// Both checks are existence probes (refindex.PartExists), not full
// Loads, so the lookahead doesn't cost an extra decode of a part the
// outer loop hasn't reached yet.
func isFinalIteration(indexDirs []string, indexNum, partNum int) bool {
	if refindex.PartExists(indexDirs[indexNum], indexNum, partNum+1) {
		return false
	}
	for i := indexNum + 1; i < len(indexDirs); i++ {
		if refindex.PartExists(indexDirs[i], i, 0) {
			return false
		}
	}
	return true
}
