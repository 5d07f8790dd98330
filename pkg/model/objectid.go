// Package model defines the content-addressed object-graph types shared by
// the backing-store facade, the caches, and the object store orchestrator:
// object identifiers, trees, and blobs.
package model

import "bytes"

// ObjectId is an opaque, immutable, content-addressed identifier for a tree
// or blob. Its encoding is defined entirely by the backing store in use (see
// pkg/backingstore); the core only requires a total order and byte equality.
// Byte equality implies equality of referent; byte inequality does not imply
// different content (a single object may have more than one valid
// encoding, e.g. a path-dependent hash scheme).
type ObjectId string

// Bytes returns the raw bytes of the identifier.
func (id ObjectId) Bytes() []byte {
	return []byte(id)
}

// Equal performs byte-exact comparison.
func (id ObjectId) Equal(other ObjectId) bool {
	return id == other
}

// Less orders two object IDs by byte value, giving ObjectId a total order
// suitable for use as a map or sorted-index key.
func Less(a, b ObjectId) bool {
	return bytes.Compare([]byte(a), []byte(b)) < 0
}

// IsEmpty reports whether id carries no bytes.
func (id ObjectId) IsEmpty() bool {
	return len(id) == 0
}
