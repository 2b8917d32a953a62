// Implements Queue, the FIFO used for dock staging lists.
// Items are enqueued at the back and may be pushed back to the front on retry.

package sim

import (
	"fmt"
	"strings"
)

// Queue is a FIFO of items with front re-insertion.
// In the warehouse it models the pallets staged at a dock awaiting put-away.
type Queue[T any] struct {
	items []T
}

// Enqueue adds an item to the back of the queue.
func (q *Queue[T]) Enqueue(item T) {
	q.items = append(q.items, item)
}

func (q *Queue[T]) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	for i, val := range q.items {
		sb.WriteString(fmt.Sprint(val))
		if i < len(q.items)-1 {
			sb.WriteString(" ")
		}
	}
	sb.WriteString("]")
	return sb.String()
}

// Len returns the number of items in the queue.
func (q *Queue[T]) Len() int {
	return len(q.items)
}

// Peek returns the item at the front without removing it.
// The boolean is false if the queue is empty.
func (q *Queue[T]) Peek() (T, bool) {
	var zero T
	if len(q.items) == 0 {
		return zero, false
	}
	return q.items[0], true
}

// PrependFront inserts an item at the front of the queue.
// Used when a put-away fails: the pallet goes back to the head of staging
// so it is the next one retried.
func (q *Queue[T]) PrependFront(item T) {
	q.items = append([]T{item}, q.items...)
}

// Items returns the queue contents for iteration.
// The returned slice is the queue's internal storage; callers MUST NOT
// append to or reslice it.
func (q *Queue[T]) Items() []T {
	return q.items
}

// Dequeue removes and returns the item at the front.
// The boolean is false if the queue is empty.
func (q *Queue[T]) Dequeue() (T, bool) {
	var zero T
	if len(q.items) == 0 {
		return zero, false
	}
	item := q.items[0]
	q.items = q.items[1:]
	return item, true
}
