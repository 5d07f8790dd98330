package model

// Blob is an immutable file-content object.
type Blob struct {
	ID    ObjectId
	Bytes []byte
}

// Key returns the blob's ObjectId, satisfying the object cache's keyed-value
// contract.
func (b *Blob) Key() ObjectId {
	return b.ID
}

// SizeBytes returns the size of the blob's content, used by the object
// cache's size accounting.
func (b *Blob) SizeBytes() uint64 {
	return uint64(len(b.Bytes))
}

// BlobAuxData carries derived metadata about a blob's content: its size and
// content hashes. It is immutable once constructed and, unlike a Blob, may be
// fetched and cached independently of the blob's bytes.
type BlobAuxData struct {
	// ID is the same ObjectId as the blob this aux data describes.
	ID ObjectId

	// Size is the blob's content size in bytes.
	Size uint64
	// SHA1 is the SHA-1 digest of the blob's content.
	SHA1 [20]byte
	// Blake3 is the keyed BLAKE-3 digest of the blob's content, if the
	// backing store computed one. A zero-length slice means absent.
	Blake3 []byte
}

// Key returns the ObjectId the aux data describes.
func (a *BlobAuxData) Key() ObjectId {
	return a.ID
}

// SizeBytes returns the estimated in-memory footprint of the aux data.
func (a *BlobAuxData) SizeBytes() uint64 {
	return uint64(48 + len(a.Blake3))
}
