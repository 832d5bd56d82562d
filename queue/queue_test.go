package queue

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestQueueProcessesJob(t *testing.T) {
	q := New(10, 1, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)

	var processed int32
	done := make(chan struct{})
	ok := q.Enqueue(Job{
		ID:     "job1",
		Source: "interaction-log",
		Work: func(ctx context.Context) error {
			atomic.AddInt32(&processed, 1)
			close(done)
			return nil
		},
	})
	if !ok {
		t.Fatalf("expected enqueue to succeed")
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("job did not complete")
	}
	if atomic.LoadInt32(&processed) != 1 {
		t.Fatalf("job not processed")
	}
}

func TestQueueFullDropsWithoutBlocking(t *testing.T) {
	q := New(1, 0, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)

	if ok := q.Enqueue(Job{ID: "first", Source: "test", Work: func(ctx context.Context) error { <-ctx.Done(); return ctx.Err() }}); !ok {
		t.Fatalf("expected first enqueue to succeed")
	}
	start := time.Now()
	if ok := q.Enqueue(Job{ID: "drop", Source: "test", Work: func(ctx context.Context) error { return nil }}); ok {
		t.Fatalf("expected enqueue to be rejected when queue is full")
	}
	if time.Since(start) > 100*time.Millisecond {
		t.Fatalf("full-queue enqueue must not block")
	}
	if q.Stats().Dropped != 1 {
		t.Fatalf("expected drop to be counted, stats=%+v", q.Stats())
	}
}

func TestJobFailureIsCountedNotFatal(t *testing.T) {
	q := New(4, 1, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)

	done := make(chan struct{})
	q.Enqueue(Job{
		ID:     "fails",
		Source: "interaction-log",
		Work:   func(ctx context.Context) error { return errors.New("db locked") },
		OnFinish: func(err error) {
			if err == nil {
				t.Error("expected failure to reach OnFinish")
			}
			close(done)
		},
	})
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("job did not finish")
	}
	stats := q.Stats()
	if stats.Failed != 1 || stats.Processed != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestPanicInJobIsRecovered(t *testing.T) {
	q := New(4, 1, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)

	q.Enqueue(Job{ID: "boom", Source: "test", Work: func(ctx context.Context) error { panic("boom") }})

	done := make(chan struct{})
	q.Enqueue(Job{ID: "after", Source: "test", Work: func(ctx context.Context) error { close(done); return nil }})
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("worker should survive a panicking job")
	}
}
