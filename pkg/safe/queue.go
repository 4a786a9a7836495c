package safe

import (
	"container/list"
	"sync"
)

// Queue is a thread-safe FIFO: producers push at the front, consumers drain
// from the back.
type Queue[T any] struct {
	sync.Mutex
	linkedlist *list.List
	maxSize    int
}

func NewQueue[T any]() *Queue[T] {
	return &Queue[T]{linkedlist: list.New()}
}

// NewQueueLimited returns a queue that refuses pushes once it holds maxSize items.
func NewQueueLimited[T any](maxSize int) *Queue[T] {
	return &Queue[T]{linkedlist: list.New(), maxSize: maxSize}
}

// PushFront reports false when the queue is full.
func (q *Queue[T]) PushFront(v T) bool {
	q.Lock()
	defer q.Unlock()
	if q.maxSize > 0 && q.linkedlist.Len() >= q.maxSize {
		return false
	}
	q.linkedlist.PushFront(v)
	return true
}

// PopBackAll drains the queue, oldest first.
func (q *Queue[T]) PopBackAll() []T {
	q.Lock()
	defer q.Unlock()

	count := q.linkedlist.Len()
	if count == 0 {
		return nil
	}

	items := make([]T, 0, count)
	for i := 0; i < count; i++ {
		data := q.linkedlist.Remove(q.linkedlist.Back())
		if item, ok := data.(T); ok {
			items = append(items, item)
		}
	}
	return items
}

func (q *Queue[T]) Len() int {
	q.Lock()
	defer q.Unlock()
	return q.linkedlist.Len()
}
