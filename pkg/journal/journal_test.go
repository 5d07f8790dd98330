package journal

import (
	"testing"

	"github.com/edenfs-io/edenfs/pkg/model"
	"github.com/edenfs-io/edenfs/pkg/path"
)

func rel(t *testing.T, s string) path.Relative {
	t.Helper()
	r, err := path.NewRelative(s)
	if err != nil {
		t.Fatalf("NewRelative(%q): %v", s, err)
	}
	return r
}

func TestRecordCreatedThenChangedCompacts(t *testing.T) {
	j := New(1 << 20)
	foo := rel(t, "foo.txt")

	j.RecordCreated(foo, model.EntryKindRegularFile)
	j.RecordChanged(foo, model.EntryKindRegularFile)

	stats, ok := j.GetStats()
	if !ok {
		t.Fatal("expected stats to be present")
	}
	if stats.EntryCount != 1 {
		t.Fatalf("expected compaction to leave a single entry, got %d", stats.EntryCount)
	}

	// The compacted entry's SequenceID is reassigned to that of the delta
	// that triggered the merge (the Changed call, seq=2), not the original
	// Created call (seq=1).
	var seen *FileChangeDelta
	j.ForEachDelta(2, nil, func(d *FileChangeDelta) bool {
		seen = d
		return true
	}, func(*RootUpdateDelta) bool { return true })

	if seen == nil {
		t.Fatal("expected to observe the compacted delta")
	}
	if seen.Info1.ExistedBefore != false || seen.Info1.ExistedAfter != true {
		t.Fatalf("expected compacted info {false,true}, got %+v", seen.Info1)
	}
}

func TestCompactionKeepsUnrelatedEntrySeparate(t *testing.T) {
	j := New(1 << 20)
	foo := rel(t, "foo.txt")
	bar := rel(t, "bar.txt")

	j.RecordCreated(foo, model.EntryKindRegularFile)
	j.RecordChanged(foo, model.EntryKindRegularFile)
	j.RecordCreated(bar, model.EntryKindRegularFile)

	stats, _ := j.GetStats()
	if stats.EntryCount != 2 {
		t.Fatalf("expected 2 entries (compacted foo + bar), got %d", stats.EntryCount)
	}
}

func TestMemoryLimitTruncatesOldestEntry(t *testing.T) {
	j := New(1 << 20)
	foo := rel(t, "foo.txt")
	bar := rel(t, "bar.txt")

	j.RecordCreated(foo, model.EntryKindRegularFile) // seq=1
	j.RecordChanged(foo, model.EntryKindRegularFile) // seq=2; compacts into the back slot

	j.SetMemoryLimit(1)
	j.RecordCreated(bar, model.EntryKindRegularFile) // seq=3; forces eviction of the compacted foo delta

	rng := j.AccumulateRange(1)
	if !rng.IsTruncated {
		t.Fatal("expected AccumulateRange(1) to report truncation after the compacted foo delta was evicted")
	}
}

func TestRootUpdateNoopWhenUnchanged(t *testing.T) {
	j := New(1 << 20)
	j.RecordRootUpdateFrom("same", "same")

	if _, ok := j.GetStats(); ok {
		t.Fatal("expected no delta recorded for a no-op root update")
	}
}

func TestAccumulateRangeHgOnlyChanges(t *testing.T) {
	j := New(1 << 20)
	dirstate := rel(t, ".hg/dirstate")
	src := rel(t, "src/main.rs")

	j.RecordChanged(dirstate, model.EntryKindRegularFile) // seq=1, replaced below
	j.RecordChanged(dirstate, model.EntryKindRegularFile) // compacts; resident entry now carries seq=2

	rng := j.AccumulateRange(2)
	if rng.IsTruncated {
		t.Fatal("did not expect truncation")
	}
	if !rng.ContainsHgOnlyChanges {
		t.Fatal("expected .hg-only change to report ContainsHgOnlyChanges")
	}

	j.RecordChanged(src, model.EntryKindRegularFile) // seq=3

	rng2 := j.AccumulateRange(3)
	if rng2.ContainsHgOnlyChanges {
		t.Fatal("expected non-.hg change to clear ContainsHgOnlyChanges")
	}
}

func TestAccumulateRangeSnapshotTransitions(t *testing.T) {
	j := New(1 << 20)
	j.RecordRootUpdateFrom("", "commit-a")
	j.RecordRootUpdateFrom("commit-a", "commit-b")

	rng := j.AccumulateRange(1)
	if !rng.ContainsRootUpdate {
		t.Fatal("expected ContainsRootUpdate to be true across two root transitions")
	}
	want := []model.RootId{"", "commit-a", "commit-b"}
	if len(rng.SnapshotTransitions) != len(want) {
		t.Fatalf("expected %d transitions, got %v", len(want), rng.SnapshotTransitions)
	}
	for i, w := range want {
		if rng.SnapshotTransitions[i] != w {
			t.Fatalf("transition %d: got %q, want %q", i, rng.SnapshotTransitions[i], w)
		}
	}
}

func TestSubscriberNotifiedOnlyAfterObservation(t *testing.T) {
	j := New(1 << 20)
	notified := 0
	j.RegisterSubscriber(func() { notified++ })

	foo := rel(t, "foo.txt")
	j.RecordCreated(foo, model.EntryKindRegularFile)
	if notified != 0 {
		t.Fatalf("expected no notification before the first observation, got %d", notified)
	}

	j.GetLatest() // marks lastModificationHasBeenObserved

	j.RecordChanged(foo, model.EntryKindRegularFile)
	if notified != 1 {
		t.Fatalf("expected exactly one notification after an observed write, got %d", notified)
	}
}

func TestCancelSubscriberStopsNotifications(t *testing.T) {
	j := New(1 << 20)
	notified := 0
	id := j.RegisterSubscriber(func() { notified++ })
	j.CancelSubscriber(id)

	if j.IsSubscriberValid(id) {
		t.Fatal("expected subscriber to be invalid after cancellation")
	}

	j.GetLatest()
	j.RecordCreated(rel(t, "foo.txt"), model.EntryKindRegularFile)
	if notified != 0 {
		t.Fatalf("expected cancelled subscriber to not be notified, got %d calls", notified)
	}
}

func TestFlushResetsButKeepsRootContinuity(t *testing.T) {
	j := New(1 << 20)
	j.RecordRootUpdateFrom("", "commit-a")
	j.Flush()

	latest, ok := j.GetLatest()
	if !ok {
		t.Fatal("expected flush to leave a delta behind")
	}
	if latest.FromRoot != "commit-a" || latest.ToRoot != "commit-a" {
		t.Fatalf("expected flush delta to preserve root continuity, got %+v", latest)
	}
}
