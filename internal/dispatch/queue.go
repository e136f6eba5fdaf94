package dispatch

import (
	"context"
	"sync"

	"github.com/anchorline/sendbridge/internal/message"
	"github.com/anchorline/sendbridge/internal/metrics"
)

type queued struct {
	ctx    context.Context
	msg    message.Message
	result chan Outcome
}

// Queue serializes dispatch requests through a single Engine. Exactly one
// drain goroutine runs at a time, started lazily on the first enqueue and
// torn down when the pending list empties, so all engine state is only ever
// touched from the sequential drain path.
type Queue struct {
	engine *Engine

	mu         sync.Mutex
	pending    []queued
	processing bool
}

// NewQueue wraps an engine.
func NewQueue(engine *Engine) *Queue {
	return &Queue{engine: engine}
}

// Enqueue appends a message to the FIFO and returns a channel that receives
// its Outcome exactly once. Messages are dispatched in strict arrival order;
// one enqueued during an active drain runs after all earlier ones.
func (q *Queue) Enqueue(ctx context.Context, m message.Message) <-chan Outcome {
	result := make(chan Outcome, 1)

	q.mu.Lock()
	q.pending = append(q.pending, queued{ctx: ctx, msg: m, result: result})
	metrics.QueueDepth.Set(float64(len(q.pending)))
	if !q.processing {
		q.processing = true
		go q.drain()
	}
	q.mu.Unlock()

	return result
}

// drain pops and dispatches head messages until the queue empties, awaiting
// each outcome before moving on.
func (q *Queue) drain() {
	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			q.processing = false
			q.mu.Unlock()
			return
		}
		head := q.pending[0]
		q.pending = q.pending[1:]
		metrics.QueueDepth.Set(float64(len(q.pending)))
		q.mu.Unlock()

		out := q.engine.Dispatch(head.ctx, head.msg)
		head.result <- out
		close(head.result)
	}
}

// Depth returns the number of messages waiting (not counting one in flight).
func (q *Queue) Depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Processing reports whether a drain loop is active.
func (q *Queue) Processing() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.processing
}
