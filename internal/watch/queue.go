package watch

import (
	"context"
	"sync"
)

// queue is an unbounded FIFO of pending runs for one task. Each entry is
// the path that triggered the run.
type queue struct {
	mu      sync.Mutex
	pending []string
	signal  chan struct{}
}

func newQueue() *queue {
	return &queue{signal: make(chan struct{}, 1)}
}

func (q *queue) push(trigger string) {
	q.mu.Lock()
	q.pending = append(q.pending, trigger)
	q.mu.Unlock()
	select {
	case q.signal <- struct{}{}:
	default:
	}
}

func (q *queue) pop() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return "", false
	}
	next := q.pending[0]
	q.pending = q.pending[1:]
	return next, true
}

func (q *queue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// drain calls run for each queued entry in order until ctx is done.
func (q *queue) drain(ctx context.Context, run func(trigger string)) {
	for {
		for {
			if ctx.Err() != nil {
				return
			}
			trigger, ok := q.pop()
			if !ok {
				break
			}
			run(trigger)
		}
		select {
		case <-ctx.Done():
			return
		case <-q.signal:
		}
	}
}
