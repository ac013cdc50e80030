package queue

import (
	"context"
	"strconv"
	"sync"
	"testing"

	"github.com/okian/assessly/internal/domain/model"
)

func newJob(id string) Job {
	return model.Job{ID: id, Request: model.Request{Response: id}}
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}

	if !q.Enqueue(ctx, newJob("job1")) {
		t.Error("expected enqueue to succeed")
	}

	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	job := <-q.Dequeue(ctx)
	if job.ID != "job1" {
		t.Errorf("expected job1, got %v", job.ID)
	}

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if !q.Enqueue(ctx, newJob("job1")) {
		t.Error("expected enqueue to succeed")
	}
	if !q.Enqueue(ctx, newJob("job2")) {
		t.Error("expected enqueue to succeed")
	}

	if q.Enqueue(ctx, newJob("job3")) {
		t.Error("expected enqueue to fail when queue is full")
	}

	<-q.Dequeue(ctx)
	if !q.Enqueue(ctx, newJob("job3")) {
		t.Error("expected enqueue to succeed after a dequeue")
	}
	if q.Capacity() != 2 {
		t.Errorf("expected capacity 2, got %d", q.Capacity())
	}
}

func TestInMemoryQueue_BufferRaisedToCapacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(4), WithBufferSize(1))
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		if !q.Enqueue(ctx, newJob(strconv.Itoa(i))) {
			t.Fatalf("expected enqueue %d to succeed", i)
		}
	}
}

func TestInMemoryQueue_CancelledContext(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if q.Enqueue(ctx, newJob("job1")) {
		t.Error("expected enqueue with a cancelled context to fail")
	}
}

func TestInMemoryQueue_Close(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(4))
	ctx := context.Background()

	if !q.Enqueue(ctx, newJob("queued")) {
		t.Fatal("expected enqueue to succeed")
	}
	if err := q.Close(); err != nil {
		t.Fatalf("unexpected close error: %v", err)
	}
	if err := q.Close(); err != nil {
		t.Fatalf("second close should be a no-op, got %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to be closed")
	}
	if q.Enqueue(ctx, newJob("late")) {
		t.Error("expected enqueue after close to fail")
	}

	// Jobs queued before Close are still delivered.
	var ids []string
	for job := range q.Dequeue(ctx) {
		ids = append(ids, job.ID)
	}
	if len(ids) != 1 || ids[0] != "queued" {
		t.Errorf("expected [queued], got %v", ids)
	}
}

func TestInMemoryQueue_ConcurrentConsumers(t *testing.T) {
	const n = 200
	q := NewInMemoryQueue(WithCapacity(n))
	ctx := context.Background()

	for i := 0; i < n; i++ {
		if !q.Enqueue(ctx, newJob(strconv.Itoa(i))) {
			t.Fatalf("enqueue %d failed", i)
		}
	}
	_ = q.Close()

	var (
		mu   sync.Mutex
		seen = make(map[string]int)
		wg   sync.WaitGroup
	)
	for c := 0; c < 4; c++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range q.Dequeue(ctx) {
				mu.Lock()
				seen[job.ID]++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(seen) != n {
		t.Fatalf("expected %d distinct jobs, got %d", n, len(seen))
	}
	for id, count := range seen {
		if count != 1 {
			t.Errorf("job %s delivered %d times", id, count)
		}
	}
}
