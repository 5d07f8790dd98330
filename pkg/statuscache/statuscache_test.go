package statuscache

import (
	"context"
	"testing"
	"time"

	"github.com/edenfs-io/edenfs/pkg/journal"
	"github.com/edenfs-io/edenfs/pkg/model"
	"github.com/edenfs-io/edenfs/pkg/path"
)

func rel(t *testing.T, s string) path.Relative {
	t.Helper()
	p, err := path.NewRelative(s)
	if err != nil {
		t.Fatalf("NewRelative(%q): %v", s, err)
	}
	return p
}

func TestGetFreshKeyReturnsPromise(t *testing.T) {
	j := journal.New(1 << 20)
	c := New[string](j)

	future, promise := c.Get(Key("abc", false), 1)
	if future != nil || promise == nil {
		t.Fatal("expected a fresh key to yield a promise, not a future")
	}

	promise.Fulfill("clean", nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	future2, promise2 := c.Get(Key("abc", false), 1)
	if promise2 != nil {
		t.Fatal("expected the now-cached result to be reused")
	}
	v, err := future2.Wait(ctx)
	if err != nil || v != "clean" {
		t.Fatalf("unexpected cached result: %q, %v", v, err)
	}
}

func TestGetSameSequenceReusesCachedResult(t *testing.T) {
	j := journal.New(1 << 20)
	c := New[string](j)
	key := Key("abc", false)
	c.Insert(key, 10, "result-at-10")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	future, promise := c.Get(key, 10)
	if promise != nil {
		t.Fatal("expected a ready future when curSeq == cachedSeq")
	}
	v, err := future.Wait(ctx)
	if err != nil || v != "result-at-10" {
		t.Fatalf("unexpected result: %q, %v", v, err)
	}
}

func TestGetHgOnlyAdvanceReusesCachedResult(t *testing.T) {
	j := journal.New(1 << 20)
	c := New[string](j)
	key := Key("abc", false)
	c.Insert(key, 1, "cached")

	j.RecordChanged(rel(t, ".hg/dirstate"), model.EntryKindRegularFile)
	j.RecordChanged(rel(t, ".hg/dirstate"), model.EntryKindRegularFile)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	future, promise := c.Get(key, 3)
	if promise != nil {
		t.Fatal("expected .hg-only advancement to still permit cache reuse")
	}
	v, err := future.Wait(ctx)
	if err != nil || v != "cached" {
		t.Fatalf("unexpected result: %q, %v", v, err)
	}
}

func TestGetNonHgChangeForcesRecompute(t *testing.T) {
	j := journal.New(1 << 20)
	c := New[string](j)
	key := Key("abc", false)
	c.Insert(key, 0, "stale")

	j.RecordChanged(rel(t, "src/main.rs"), model.EntryKindRegularFile)

	future, promise := c.Get(key, 1)
	if future != nil || promise == nil {
		t.Fatal("expected a non-.hg change to force a fresh promise")
	}
	promise.Fulfill("fresh", nil)
}

func TestDropPromiseIgnoresStaleSequence(t *testing.T) {
	j := journal.New(1 << 20)
	c := New[string](j)
	key := Key("abc", false)

	_, p1 := c.Get(key, 1)
	c.DropPromise(key, 999) // stale seq, must not remove p1's entry

	_, p2 := c.Get(key, 1)
	if p2 != nil {
		t.Fatal("expected the original promise to still be installed")
	}
	p1.Fulfill("value", nil)
}

func TestClearRemovesCacheAndPromises(t *testing.T) {
	j := journal.New(1 << 20)
	c := New[string](j)
	key := Key("abc", false)
	c.Insert(key, 1, "value")
	c.Clear()

	future, promise := c.Get(key, 1)
	if future != nil || promise == nil {
		t.Fatal("expected Clear to drop the cached entry, forcing a fresh promise")
	}
}

func TestWorkingCopyParentValidity(t *testing.T) {
	j := journal.New(1 << 20)
	c := New[string](j)

	if c.IsCachedWorkingDirValid("abc") {
		t.Fatal("expected an unset working copy parent to be invalid")
	}
	c.ResetCachedWorkingDir("abc")
	if !c.IsCachedWorkingDirValid("abc") {
		t.Fatal("expected a matching working copy parent to be valid")
	}
	if c.IsCachedWorkingDirValid("def") {
		t.Fatal("expected a mismatched working copy parent to be invalid")
	}
}
