// internal/action/queue.go
package action

import "errors"

// ErrQueueEmpty is returned by Dequeue when there is nothing to consume.
var ErrQueueEmpty = errors.New("action: queue is empty")

// Queue is a FIFO of pending actions. Appends go to the tail, the single
// consumer removes from the head. Queue does no locking of its own; the
// owning state container serializes access.
type Queue struct {
	items []*Action
}

// Enqueue appends an action to the tail.
func (q *Queue) Enqueue(a *Action) {
	q.items = append(q.items, a)
}

// EnqueueAll appends a burst of actions, preserving their order.
func (q *Queue) EnqueueAll(actions ...*Action) {
	q.items = append(q.items, actions...)
}

// Dequeue removes and returns the head of the queue.
func (q *Queue) Dequeue() (*Action, error) {
	if len(q.items) == 0 {
		return nil, ErrQueueEmpty
	}
	head := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	return head, nil
}

// Clear drops every pending action and returns how many were dropped.
// Clearing an empty queue is a no-op.
func (q *Queue) Clear() int {
	n := len(q.items)
	q.items = nil
	return n
}

// Len returns the number of pending actions.
func (q *Queue) Len() int { return len(q.items) }

// Snapshot returns a copy of the pending actions in order.
func (q *Queue) Snapshot() []*Action {
	out := make([]*Action, len(q.items))
	copy(out, q.items)
	return out
}
