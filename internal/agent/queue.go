package agent

import "sync"

// Queue is the shared action mailbox: many producers, one consumer. Strict
// FIFO; unbounded. The consumer detaches the whole backlog per drain rather
// than popping items, so producers enqueueing mid-drain land in the next
// drain's snapshot.
type Queue struct {
	mu      sync.Mutex
	pending []Action
}

// NewQueue constructs an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Enqueue appends an action in arrival order.
func (q *Queue) Enqueue(action Action) {
	q.mu.Lock()
	q.pending = append(q.pending, action)
	q.mu.Unlock()
}

// Drain atomically detaches and returns the current backlog in enqueue
// order. Producers observe an empty queue immediately afterwards.
func (q *Queue) Drain() []Action {
	q.mu.Lock()
	detached := q.pending
	q.pending = nil
	q.mu.Unlock()
	return detached
}

// Len returns the number of pending actions.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
