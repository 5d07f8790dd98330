package backingstore

import (
	"context"
	"errors"
	"testing"

	"github.com/edenfs-io/edenfs/pkg/edenerr"
	"github.com/edenfs-io/edenfs/pkg/model"
)

func TestBijectiveCompareObjectsById(t *testing.T) {
	var b Bijective
	if got := b.CompareObjectsById("a", "a"); got != Identical {
		t.Fatalf("expected Identical, got %v", got)
	}
	if got := b.CompareObjectsById("a", "b"); got != Different {
		t.Fatalf("expected Different, got %v", got)
	}
}

func TestEmptyBackingStoreReturnsNotFound(t *testing.T) {
	store := NewEmpty()
	ctx := context.Background()

	_, err := store.GetBlob(ctx, model.ObjectId("missing"))
	var notFound *edenerr.NotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}

	_, err = store.GetTree(ctx, model.ObjectId("missing"))
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}

	_, err = store.GetRootTree(ctx, model.RootId("missing"))
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestEmptyBackingStoreRecordingFetch(t *testing.T) {
	store := NewEmpty()
	ctx := context.Background()

	store.StartRecordingFetch()
	store.GetBlob(ctx, model.ObjectId("a"))
	store.GetTree(ctx, model.ObjectId("b"))
	fetched := store.StopRecordingFetch()

	if _, ok := fetched["a"]; !ok {
		t.Fatal("expected \"a\" to have been recorded")
	}
	if _, ok := fetched["b"]; !ok {
		t.Fatal("expected \"b\" to have been recorded")
	}

	// A second fetch after StopRecordingFetch should not be recorded.
	store.GetBlob(ctx, model.ObjectId("c"))
	if fetched2 := store.StopRecordingFetch(); len(fetched2) != 0 {
		t.Fatalf("expected no recording once stopped, got %v", fetched2)
	}
}

func TestEmptyBackingStoreStartRecordingTwiceDoesNotClear(t *testing.T) {
	store := NewEmpty()
	ctx := context.Background()

	store.StartRecordingFetch()
	store.GetBlob(ctx, model.ObjectId("a"))
	store.StartRecordingFetch() // second call must be a no-op
	store.GetBlob(ctx, model.ObjectId("b"))
	fetched := store.StopRecordingFetch()

	if len(fetched) != 2 {
		t.Fatalf("expected both fetches retained, got %v", fetched)
	}
}
