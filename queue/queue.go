// Package queue provides a FIFO shared between a producer goroutine and a
// polling consumer.
package queue

import (
	"sync"
)

// Queue is a generic thread-safe FIFO. Consumers either poll with TryPop or
// wait on Signal, which is poked after every Push.
type Queue[T any] struct {
	mu     sync.Mutex
	items  []T
	head   int
	signal chan struct{}
}

func New[T any]() *Queue[T] {
	return &Queue[T]{signal: make(chan struct{}, 1)}
}

// Push appends items and wakes one waiter.
func (q *Queue[T]) Push(items ...T) {
	if len(items) == 0 {
		return
	}
	q.mu.Lock()
	q.items = append(q.items, items...)
	q.mu.Unlock()
	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// TryPop removes the oldest item, if there is one.
func (q *Queue[T]) TryPop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var zero T
	if q.head >= len(q.items) {
		return zero, false
	}
	item := q.items[q.head]
	q.items[q.head] = zero
	q.head++
	if q.head == len(q.items) {
		q.items = q.items[:0]
		q.head = 0
	}
	return item, true
}

func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) - q.head
}

// Signal fires at least once after items become available. A receive does
// not guarantee the queue is still non-empty.
func (q *Queue[T]) Signal() <-chan struct{} {
	return q.signal
}
