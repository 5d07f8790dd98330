// Package requestcontext implements the per-request object carried through
// every object store fetch: priority, cause, client pid, and the duration
// measurement recorded against the process access log when the request
// finishes.
package requestcontext

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/edenfs-io/edenfs/pkg/backingstore"
	"github.com/edenfs-io/edenfs/pkg/importqueue"
)

// Cause identifies who initiated a fetch.
type Cause int

const (
	Unknown Cause = iota
	Fs
	Thrift
	Prefetch
)

func (c Cause) String() string {
	switch c {
	case Fs:
		return "fs"
	case Thrift:
		return "thrift"
	case Prefetch:
		return "prefetch"
	default:
		return "unknown"
	}
}

// AccessLog receives one RecordAccess call per Context that had a client pid
// set, when the Context is finished. It is a narrow interface so tests and
// the CLI can observe access recording without depending on the real
// per-process stats implementation.
type AccessLog interface {
	RecordAccess(clientPid int32, accessType string, cause Cause, duration time.Duration)
}

// accessTypeForOrigin maps the last observed fetch origin to the access log
// entry kind, per the core contract in §4.J.
func accessTypeForOrigin(origin backingstore.Origin) string {
	switch origin {
	case backingstore.FromMemoryCache:
		return "memoryCacheImport"
	case backingstore.FromDiskCache:
		return "diskCacheImport"
	case backingstore.FromNetworkFetch:
		return "backingStoreImport"
	default:
		return ""
	}
}

// Context is a per-request object carrying priority, cause, client pid,
// and a reference to the access log. Exactly one fetch is expected to flow
// through a single Context, though priority may be read/written
// concurrently with Deprioritize.
type Context struct {
	mu sync.Mutex

	priority    atomic.Int64
	cause       Cause
	clientPid   int32
	hasPid      bool
	requestInfo map[string]string
	accessLog   AccessLog

	startTime  time.Time
	started    bool
	lastOrigin backingstore.Origin
	finished   bool
}

// New constructs a Context with the given cause and priority, with no
// client pid set. Use WithClientPid to attach one.
func New(cause Cause, priority importqueue.ImportPriority, accessLog AccessLog) *Context {
	c := &Context{cause: cause, accessLog: accessLog}
	c.priority.Store(priority.Value())
	return c
}

// WithClientPid attaches a client process ID, enabling access-log recording
// when the context finishes.
func (c *Context) WithClientPid(pid int32) *Context {
	c.clientPid = pid
	c.hasPid = true
	return c
}

// WithRequestInfo attaches an optional request-info map, e.g. thrift call
// metadata.
func (c *Context) WithRequestInfo(info map[string]string) *Context {
	c.requestInfo = info
	return c
}

// Cause reports why this fetch was initiated.
func (c *Context) Cause() Cause {
	return c.cause
}

// RequestInfo returns the optional request-info map, which may be nil.
func (c *Context) RequestInfo() map[string]string {
	return c.requestInfo
}

// Priority returns the context's current fetch priority.
func (c *Context) Priority() importqueue.ImportPriority {
	return importqueue.PriorityFromValue(c.priority.Load())
}

// Deprioritize lowers the context's priority by delta via compare-and-swap,
// retrying until it wins the race against a concurrent deprioritize.
func (c *Context) Deprioritize(delta uint64) {
	for {
		prev := c.priority.Load()
		next := importqueue.PriorityFromValue(prev).GetDeprioritized(delta).Value()
		if c.priority.CompareAndSwap(prev, next) {
			return
		}
	}
}

// DidFetch records the origin of the most recent fetch performed under this
// context. It may be called concurrently by arbitrary goroutines and
// overwrites any previously observed origin; only the last one observed
// before Finish matters for access-log recording.
func (c *Context) DidFetch(origin backingstore.Origin) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started {
		c.startTime = time.Now()
		c.started = true
	}
	c.lastOrigin = origin
}

// Finish marks the request complete, recording an access-log entry if a
// client pid was set. Finish is idempotent; only the first call records.
func (c *Context) Finish() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.finished {
		return
	}
	c.finished = true

	if !c.hasPid || c.accessLog == nil || !c.started {
		return
	}
	accessType := accessTypeForOrigin(c.lastOrigin)
	if accessType == "" {
		return
	}
	c.accessLog.RecordAccess(c.clientPid, accessType, c.cause, time.Since(c.startTime))
}
