package importqueue

import (
	"context"
	"errors"
	"testing"
	"time"
)

func batchSizeOne(RequestKind) int { return 1 }
func batchSizeAll(RequestKind) int { return 64 }

func TestEnqueueDequeueRoundTrip(t *testing.T) {
	q := New()
	future := Enqueue[string](q, BlobRequest, "a", NormalPriority())

	reqs, kind, stopped := q.Dequeue(batchSizeOne)
	if stopped {
		t.Fatal("expected not stopped")
	}
	if kind != BlobRequest {
		t.Fatalf("expected BlobRequest, got %v", kind)
	}
	if len(reqs) != 1 || reqs[0].ID != "a" {
		t.Fatalf("unexpected dequeued requests: %+v", reqs)
	}

	MarkFinished(q, "a", "hello", nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	v, err := future.Wait(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "hello" {
		t.Fatalf("expected \"hello\", got %q", v)
	}
}

func TestEnqueueDedupesSameID(t *testing.T) {
	q := New()
	f1 := Enqueue[string](q, BlobRequest, "a", NormalPriority())
	f2 := Enqueue[string](q, BlobRequest, "a", NormalPriority())

	reqs, _, _ := q.Dequeue(batchSizeAll)
	if len(reqs) != 1 {
		t.Fatalf("expected a single deduplicated request, got %d", len(reqs))
	}

	MarkFinished(q, "a", "value", nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	v1, err1 := f1.Wait(ctx)
	v2, err2 := f2.Wait(ctx)
	if err1 != nil || err2 != nil {
		t.Fatalf("unexpected errors: %v, %v", err1, err2)
	}
	if v1 != "value" || v2 != "value" {
		t.Fatalf("expected both futures resolved to \"value\", got %q and %q", v1, v2)
	}
}

func TestDequeuePicksHighestPriorityBucket(t *testing.T) {
	q := New()
	Enqueue[string](q, PrefetchRequest, "low", LowPriority())
	Enqueue[string](q, BlobRequest, "high", HighPriority())

	_, kind, _ := q.Dequeue(batchSizeOne)
	if kind != BlobRequest {
		t.Fatalf("expected the high-priority blob bucket to be served first, got %v", kind)
	}
}

func TestMarkFinishedPropagatesError(t *testing.T) {
	q := New()
	future := Enqueue[string](q, BlobRequest, "a", NormalPriority())
	q.Dequeue(batchSizeOne)

	wantErr := errors.New("backing store failure")
	MarkFinished(q, "a", "", wantErr)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := future.Wait(ctx)
	if err != wantErr {
		t.Fatalf("expected propagated error, got %v", err)
	}
}

func TestMarkFinishedUnknownIDIsNoop(t *testing.T) {
	q := New()
	MarkFinished(q, "missing", "value", nil) // must not panic
}

func TestStopUnblocksDequeue(t *testing.T) {
	q := New()
	done := make(chan struct{})
	go func() {
		_, _, stopped := q.Dequeue(batchSizeOne)
		if !stopped {
			t.Error("expected stopped=true")
		}
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	q.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Dequeue did not unblock after Stop")
	}
}

func TestDropAllFailsOutstandingRequests(t *testing.T) {
	q := New()
	future := Enqueue[string](q, BlobRequest, "a", NormalPriority())

	wantErr := errors.New("shutdown")
	q.DropAll(wantErr)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := future.Wait(ctx)
	if err != wantErr {
		t.Fatalf("expected shutdown error, got %v", err)
	}
}

func TestEnqueueAfterStopNeverResolves(t *testing.T) {
	q := New()
	q.Stop()
	future := Enqueue[string](q, BlobRequest, "a", NormalPriority())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := future.Wait(ctx)
	if err != context.DeadlineExceeded {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}
