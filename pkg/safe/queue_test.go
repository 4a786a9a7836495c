package safe

import (
	"reflect"
	"sync"
	"testing"
)

func TestQueueOrder(t *testing.T) {
	q := NewQueue[int]()
	for i := 1; i <= 3; i++ {
		q.PushFront(i)
	}

	if q.Len() != 3 {
		t.Fatalf("expected len 3, got %d", q.Len())
	}
	if got := q.PopBackAll(); !reflect.DeepEqual(got, []int{1, 2, 3}) {
		t.Fatalf("expected [1 2 3], got %v", got)
	}
	if got := q.PopBackAll(); got != nil {
		t.Fatalf("expected nil from empty queue, got %v", got)
	}
}

func TestQueueLimited(t *testing.T) {
	q := NewQueueLimited[string](2)
	if !q.PushFront("a") || !q.PushFront("b") {
		t.Fatal("expected pushes under the limit to succeed")
	}
	if q.PushFront("c") {
		t.Fatal("expected push over the limit to fail")
	}
}

func TestQueueConcurrentPush(t *testing.T) {
	q := NewQueue[int]()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			q.PushFront(v)
		}(i)
	}
	wg.Wait()

	if len(q.PopBackAll()) != 50 {
		t.Fatal("expected 50 items")
	}
}
