package objectstore

import (
	"encoding/binary"
	"fmt"

	"github.com/edenfs-io/edenfs/pkg/model"
	"github.com/edenfs-io/edenfs/pkg/path"
)

// The on-disk codecs below are small, purpose-built binary encodings for
// the three object kinds the local store persists. No library in the
// example pack offers a content-addressed tree/blob serialization format;
// see DESIGN.md for why this is one of the module's few hand-rolled binary
// formats, following the same big-endian, length-prefixed style as the
// SNAPSHOT codec (pkg/snapshot).

func putUint32(buf []byte, v uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return append(buf, b[:]...)
}

func putBytes(buf []byte, data []byte) []byte {
	buf = putUint32(buf, uint32(len(data)))
	return append(buf, data...)
}

func readUint32(data []byte) (uint32, []byte, error) {
	if len(data) < 4 {
		return 0, nil, fmt.Errorf("truncated local store payload")
	}
	return binary.BigEndian.Uint32(data[:4]), data[4:], nil
}

func readBytes(data []byte) ([]byte, []byte, error) {
	length, rest, err := readUint32(data)
	if err != nil {
		return nil, nil, err
	}
	if uint64(length) > uint64(len(rest)) {
		return nil, nil, fmt.Errorf("local store payload length overflow")
	}
	return rest[:length], rest[length:], nil
}

func encodeBlob(blob *model.Blob) []byte {
	buf := make([]byte, 0, len(blob.Bytes)+8)
	buf = putBytes(buf, []byte(blob.ID))
	buf = putBytes(buf, blob.Bytes)
	return buf
}

func decodeBlob(data []byte) (*model.Blob, error) {
	id, rest, err := readBytes(data)
	if err != nil {
		return nil, err
	}
	content, _, err := readBytes(rest)
	if err != nil {
		return nil, err
	}
	return &model.Blob{ID: model.ObjectId(id), Bytes: content}, nil
}

func encodeBlobAuxData(aux *model.BlobAuxData) []byte {
	buf := make([]byte, 0, 64+len(aux.Blake3))
	buf = putBytes(buf, []byte(aux.ID))
	buf = putUint32(buf, uint32(aux.Size))
	buf = append(buf, aux.SHA1[:]...)
	buf = putBytes(buf, aux.Blake3)
	return buf
}

func decodeBlobAuxData(data []byte) (*model.BlobAuxData, error) {
	id, rest, err := readBytes(data)
	if err != nil {
		return nil, err
	}
	size, rest, err := readUint32(rest)
	if err != nil {
		return nil, err
	}
	if len(rest) < 20 {
		return nil, fmt.Errorf("truncated blob aux data SHA-1")
	}
	var sha1 [20]byte
	copy(sha1[:], rest[:20])
	rest = rest[20:]
	blake3, _, err := readBytes(rest)
	if err != nil {
		return nil, err
	}
	return &model.BlobAuxData{ID: model.ObjectId(id), Size: uint64(size), SHA1: sha1, Blake3: blake3}, nil
}

func encodeTree(tree *model.Tree) []byte {
	entries := tree.Entries()
	buf := make([]byte, 0, 32+len(entries)*32)
	buf = putBytes(buf, []byte(tree.ID))
	if tree.CaseSensitivity == model.CaseSensitive {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}
	buf = putUint32(buf, uint32(len(entries)))
	for _, e := range entries {
		buf = putBytes(buf, []byte(e.Name.String()))
		buf = putBytes(buf, []byte(e.ID))
		buf = append(buf, byte(e.Kind))
	}
	return buf
}

func decodeTree(data []byte) (*model.Tree, error) {
	id, rest, err := readBytes(data)
	if err != nil {
		return nil, err
	}
	if len(rest) < 1 {
		return nil, fmt.Errorf("truncated tree case-sensitivity flag")
	}
	caseSensitivity := model.CaseInsensitive
	if rest[0] == 1 {
		caseSensitivity = model.CaseSensitive
	}
	rest = rest[1:]

	count, rest, err := readUint32(rest)
	if err != nil {
		return nil, err
	}

	entries := make([]model.TreeEntry, 0, count)
	for i := uint32(0); i < count; i++ {
		var nameBytes, idBytes []byte
		nameBytes, rest, err = readBytes(rest)
		if err != nil {
			return nil, err
		}
		idBytes, rest, err = readBytes(rest)
		if err != nil {
			return nil, err
		}
		if len(rest) < 1 {
			return nil, fmt.Errorf("truncated tree entry kind")
		}
		kind := model.EntryKind(rest[0])
		rest = rest[1:]

		name, err := path.NewComponent(string(nameBytes))
		if err != nil {
			return nil, fmt.Errorf("invalid tree entry name: %w", err)
		}
		entries = append(entries, model.TreeEntry{Name: name, ID: model.ObjectId(idBytes), Kind: kind})
	}

	return model.NewTree(model.ObjectId(id), caseSensitivity, entries), nil
}
