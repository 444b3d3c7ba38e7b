// Copyright 2026, the rrnascreen contributors.

// Package pipeline implements the bounded multi-producer queue
// harness and outer loop: Reader -> read_queue -> Processor ->
// write_queue -> Writer, with a persistent key-value store carrying
// per-read state across index-part iterations.
package pipeline

import (
	"sync"

	"github.com/kshedden/rrnascreen/internal/seqcode"
)

// Queue is a bounded FIFO of *seqcode.Read with a known number of
// producers. It is built on a buffered channel plus a sync.WaitGroup
// tracking live producers: the channel is closed once every producer
// has finalized, substituting for an explicit mutex+condition-variable
// queue (channels are the idiomatic Go primitive for bounded
// producer/consumer hand-off; see DESIGN.md).
type Queue struct {
	ch chan *seqcode.Read
	wg sync.WaitGroup
}

// NewQueue returns a queue with the given capacity, expecting
// numProducers calls to ProducerDone before Pop reports end-of-stream.
func NewQueue(capacity, numProducers int) *Queue {
	q := &Queue{ch: make(chan *seqcode.Read, capacity)}
	q.wg.Add(numProducers)
	go func() {
		q.wg.Wait()
		close(q.ch)
	}()
	return q
}

// Push enqueues a Read, blocking while the queue is full.
func (q *Queue) Push(r *seqcode.Read) {
	q.ch <- r
}

// ProducerDone finalizes one producer. Call exactly once per producer
// goroutine that was counted in NewQueue's numProducers.
func (q *Queue) ProducerDone() {
	q.wg.Done()
}

// Pop blocks until an item is available or every producer has
// finalized and the queue has drained, in which case ok is false.
func (q *Queue) Pop() (r *seqcode.Read, ok bool) {
	r, ok = <-q.ch
	return r, ok
}
