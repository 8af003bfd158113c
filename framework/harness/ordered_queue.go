package harness

import "sync"

// orderedQueue releases items on its out channel in sequence-number order, starting at 1. An
// item that arrives before its predecessors is held back until they have all been released.
// The channel capacity must be at least the total number of items, since put never blocks
// waiting for a reader.
type orderedQueue[T any] struct {
	out       chan T
	next      int
	held      map[int]T
	lock      sync.Mutex
	closeOnce sync.Once
}

func newOrderedQueue[T any](capacity int) *orderedQueue[T] {
	return &orderedQueue[T]{
		out:  make(chan T, capacity),
		next: 1,
		held: make(map[int]T),
	}
}

// put adds an item, releasing it and any held items that follow it if it is the next one
// due. It returns false and ignores the item if that sequence number was already released or
// is already being held.
func (q *orderedQueue[T]) put(seq int, item T) bool {
	q.lock.Lock()
	defer q.lock.Unlock()
	if seq < q.next {
		return false
	}
	if _, dup := q.held[seq]; dup {
		return false
	}
	q.held[seq] = item
	for {
		ready, ok := q.held[q.next]
		if !ok {
			return true
		}
		delete(q.held, q.next)
		q.next++
		q.out <- ready
	}
}

func (q *orderedQueue[T]) heldBack() int {
	q.lock.Lock()
	defer q.lock.Unlock()
	return len(q.held)
}

func (q *orderedQueue[T]) close() {
	q.closeOnce.Do(func() {
		q.lock.Lock()
		close(q.out)
		q.lock.Unlock()
	})
}
