package requestcontext

import (
	"testing"
	"time"

	"github.com/edenfs-io/edenfs/pkg/backingstore"
	"github.com/edenfs-io/edenfs/pkg/importqueue"
)

type recordedAccess struct {
	clientPid  int32
	accessType string
	cause      Cause
}

type fakeAccessLog struct {
	accesses []recordedAccess
}

func (f *fakeAccessLog) RecordAccess(clientPid int32, accessType string, cause Cause, duration time.Duration) {
	f.accesses = append(f.accesses, recordedAccess{clientPid, accessType, cause})
}

func TestFinishRecordsAccessForLastOrigin(t *testing.T) {
	log := &fakeAccessLog{}
	ctx := New(Fs, importqueue.NormalPriority(), log).WithClientPid(123)

	ctx.DidFetch(backingstore.FromMemoryCache)
	ctx.DidFetch(backingstore.FromNetworkFetch)
	ctx.Finish()

	if len(log.accesses) != 1 {
		t.Fatalf("expected exactly one recorded access, got %d", len(log.accesses))
	}
	got := log.accesses[0]
	if got.clientPid != 123 || got.accessType != "backingStoreImport" || got.cause != Fs {
		t.Fatalf("unexpected recorded access: %+v", got)
	}
}

func TestFinishWithoutClientPidRecordsNothing(t *testing.T) {
	log := &fakeAccessLog{}
	ctx := New(Prefetch, importqueue.LowPriority(), log)

	ctx.DidFetch(backingstore.FromDiskCache)
	ctx.Finish()

	if len(log.accesses) != 0 {
		t.Fatalf("expected no recorded accesses, got %d", len(log.accesses))
	}
}

func TestFinishIsIdempotent(t *testing.T) {
	log := &fakeAccessLog{}
	ctx := New(Fs, importqueue.NormalPriority(), log).WithClientPid(1)

	ctx.DidFetch(backingstore.FromMemoryCache)
	ctx.Finish()
	ctx.Finish()

	if len(log.accesses) != 1 {
		t.Fatalf("expected exactly one recorded access across repeated Finish calls, got %d", len(log.accesses))
	}
}

func TestDeprioritizePreservesKindAndLowersOffset(t *testing.T) {
	ctx := New(Fs, importqueue.HighPriority(), nil)
	ctx.Deprioritize(1000)

	got := ctx.Priority()
	if got.Kind != importqueue.High {
		t.Fatalf("expected Kind to be preserved, got %v", got.Kind)
	}
	if got.Offset != importqueue.HighPriority().Offset-1000 {
		t.Fatalf("unexpected offset after deprioritize: %d", got.Offset)
	}
}

func TestFinishWithoutAnyFetchRecordsNothing(t *testing.T) {
	log := &fakeAccessLog{}
	ctx := New(Fs, importqueue.NormalPriority(), log).WithClientPid(7)
	ctx.Finish()

	if len(log.accesses) != 0 {
		t.Fatalf("expected no recorded accesses when no fetch occurred, got %d", len(log.accesses))
	}
}
