// Copyright 2026, the rrnascreen contributors.

package pipeline

import (
	"sync"
	"sync/atomic"

	"github.com/kshedden/rrnascreen/internal/readdriver"
	"github.com/kshedden/rrnascreen/internal/refindex"
	"github.com/kshedden/rrnascreen/internal/rstats"
	"github.com/kshedden/rrnascreen/internal/seqcode"
	"github.com/kshedden/rrnascreen/internal/sinkio"
)

// ordinalCounter assigns monotonic read ordinals across reader
// goroutines within one part iteration.
type ordinalCounter struct {
	next uint64
}

func (c *ordinalCounter) take() uint64 {
	return atomic.AddUint64(&c.next, 1) - 1
}

// runReader implements the Reader role: scan input records, rehydrate
// from the checkpoint store on iterations after the first, push onto
// readQueue, and finalize as a producer on EOF.
//
// firstIteration is also the point where every input read is seen
// exactly once across the whole run (later iterations only re-feed
// reads an earlier part left unterminated), so read-length statistics
// are observed here rather than in the Processor, which sees a read
// once per index part it survives into.
func runReader(sc *SharedScanner, store *CheckpointStore, firstIteration bool, numAlignments int, counter *ordinalCounter, readQueue *Queue, stats *rstats.Stats, errCh chan<- error) {
	defer readQueue.ProducerDone()

	for {
		rec, ok := sc.Next()
		if !ok {
			if err := sc.Err(); err != nil {
				errCh <- err
			}
			return
		}

		ordinal := counter.take()
		read := seqcode.NewRead(ordinal, rec.Name, rec.Seq, rec.Qual, numAlignments)

		if firstIteration {
			stats.ObserveReadLength(len(read.Seq))
		}

		if !firstIteration {
			if _, err := store.Rehydrate(read); err != nil {
				errCh <- err
				return
			}
			if !read.IsValid || (read.Hit && numAlignments > 0 && len(read.Alignments) >= numAlignments) {
				// Already terminated by an earlier part; only
				// reads still eligible for more alignment are
				// re-fed into the pipeline.
				continue
			}
		}

		readQueue.Push(read)
	}
}

// runProcessor implements the Processor role: pop from readQueue,
// invoke the per-read driver (component E) for both strands unless
// Forward is set, push to writeQueue, and finalize as a producer of
// writeQueue on readQueue end-of-stream.
func runProcessor(readQueue, writeQueue *Queue, part *refindex.Part, driver *readdriver.Driver, indexNum, partNum int, stats *rstats.Stats, errCh chan<- error) {
	defer writeQueue.ProducerDone()

	for {
		read, ok := readQueue.Pop()
		if !ok {
			return
		}

		done := driver.ProcessRead(read, part, read.Encoded, false, indexNum, partNum, false)
		if !done && !driver.Config.Forward {
			rc := seqcode.ReverseComplement(read.Encoded)
			driver.ProcessRead(read, part, rc, true, indexNum, partNum, done)
		}

		if read.Hit {
			stats.RecordHit(refDBName(part))
		}
		if read.HitDenovo {
			stats.RecordDenovoEligible()
		}

		writeQueue.Push(read)
	}
}

func refDBName(part *refindex.Part) string {
	if len(part.References) == 0 {
		return "unknown"
	}
	return part.References[0].Header
}

// runWriter implements the Writer role: pop from writeQueue,
// checkpoint to the key-value store, and on the final iteration also
// fan the read out to the output sinks.
func runWriter(writeQueue *Queue, store *CheckpointStore, sinks []sinkio.AlignmentSink, isFinalIteration bool, errCh chan<- error) {
	for {
		read, ok := writeQueue.Pop()
		if !ok {
			return
		}

		if err := store.Put(read); err != nil {
			errCh <- err
			continue
		}

		if !isFinalIteration {
			continue
		}
		for _, sink := range sinks {
			if err := sink.WriteRead(read); err != nil {
				errCh <- err
			}
		}
	}
}

// PartParams bundles one RunPart invocation's inputs: the loaded
// index part, the driver configuration, which iteration this is (for
// rehydrate/final-emission gating), and the worker-pool sizes (R, P,
// W), which together fix the goroutine count at R+P+W for the outer
// loop's current part.
type PartParams struct {
	Scanner        *SharedScanner
	NumReaders     int
	Store          *CheckpointStore
	FirstIteration bool
	FinalIteration bool
	NumAlignments  int
	Part           *refindex.Part
	Driver         *readdriver.Driver
	IndexNum       int
	PartNum        int
	Stats          *rstats.Stats
	Sinks          []sinkio.AlignmentSink
	NumProcessors  int
	NumWriters     int
	QueueSize      int
}

// RunPart spawns R readers sharing one input scanner, P processors,
// and W writers over one loaded index part, waits for all to finish,
// and returns the first error recorded by any worker, joining and
// surfacing fatal errors from any stage.
func RunPart(p PartParams) error {
	numReaders := p.NumReaders
	readQueue := NewQueue(p.QueueSize, numReaders)
	writeQueue := NewQueue(p.QueueSize, p.NumProcessors)

	errCh := make(chan error, numReaders+p.NumProcessors+p.NumWriters)
	counter := &ordinalCounter{}

	var readers, processors, writers sync.WaitGroup

	readers.Add(numReaders)
	for i := 0; i < numReaders; i++ {
		go func() {
			defer readers.Done()
			runReader(p.Scanner, p.Store, p.FirstIteration, p.NumAlignments, counter, readQueue, p.Stats, errCh)
		}()
	}

	processors.Add(p.NumProcessors)
	for i := 0; i < p.NumProcessors; i++ {
		go func() {
			defer processors.Done()
			runProcessor(readQueue, writeQueue, p.Part, p.Driver, p.IndexNum, p.PartNum, p.Stats, errCh)
		}()
	}

	writers.Add(p.NumWriters)
	for i := 0; i < p.NumWriters; i++ {
		go func() {
			defer writers.Done()
			runWriter(writeQueue, p.Store, p.Sinks, p.FinalIteration, errCh)
		}()
	}

	readers.Wait()
	processors.Wait()
	writers.Wait()
	close(errCh)

	for err := range errCh {
		if err != nil {
			return err
		}
	}
	return nil
}
