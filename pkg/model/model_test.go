package model

import (
	"testing"

	"github.com/edenfs-io/edenfs/pkg/path"
)

func TestObjectIdLess(t *testing.T) {
	if !Less(ObjectId("a"), ObjectId("b")) {
		t.Fatal("expected \"a\" < \"b\"")
	}
	if Less(ObjectId("b"), ObjectId("a")) {
		t.Fatal("expected \"b\" !< \"a\"")
	}
	if Less(ObjectId("a"), ObjectId("a")) {
		t.Fatal("expected \"a\" !< \"a\"")
	}
}

func TestObjectIdEmpty(t *testing.T) {
	if !ObjectId("").IsEmpty() {
		t.Fatal("expected empty ObjectId to report IsEmpty")
	}
	if ObjectId("x").IsEmpty() {
		t.Fatal("expected non-empty ObjectId to not report IsEmpty")
	}
}

func TestRootIdNull(t *testing.T) {
	if !NullRootId.IsNull() {
		t.Fatal("expected NullRootId.IsNull()")
	}
	if RootId("abc").IsNull() {
		t.Fatal("expected non-null RootId to not report IsNull")
	}
}

func entry(name string, kind EntryKind) TreeEntry {
	c, err := path.NewComponent(name)
	if err != nil {
		panic(err)
	}
	return TreeEntry{Name: c, ID: ObjectId(name), Kind: kind}
}

func TestTreeCaseSensitiveOrder(t *testing.T) {
	tree := NewTree("root", CaseSensitive, []TreeEntry{
		entry("banana", EntryKindRegularFile),
		entry("Apple", EntryKindRegularFile),
		entry("apple", EntryKindRegularFile),
	})
	if tree.Len() != 3 {
		t.Fatalf("expected 3 entries, got %d", tree.Len())
	}
	got := tree.Entries()
	want := []string{"Apple", "apple", "banana"}
	for i, w := range want {
		if string(got[i].Name) != w {
			t.Fatalf("entry %d: got %q, want %q", i, got[i].Name, w)
		}
	}
}

func TestTreeCaseInsensitiveOrderAndLookup(t *testing.T) {
	tree := NewTree("root", CaseInsensitive, []TreeEntry{
		entry("Banana", EntryKindRegularFile),
		entry("apple", EntryKindRegularFile),
	})
	got := tree.Entries()
	if string(got[0].Name) != "apple" || string(got[1].Name) != "Banana" {
		t.Fatalf("unexpected order: %v", got)
	}

	c, err := path.NewComponent("APPLE")
	if err != nil {
		t.Fatal(err)
	}
	e, ok := tree.Get(c)
	if !ok || string(e.Name) != "apple" {
		t.Fatalf("expected case-insensitive lookup to find \"apple\", got %+v, ok=%v", e, ok)
	}
}

func TestBlobSizeAndKey(t *testing.T) {
	b := &Blob{ID: "abc", Bytes: []byte("hello")}
	if b.SizeBytes() != 5 {
		t.Fatalf("expected size 5, got %d", b.SizeBytes())
	}
	if b.Key() != "abc" {
		t.Fatalf("expected key \"abc\", got %q", b.Key())
	}
}

func TestBlobAuxDataSize(t *testing.T) {
	a := &BlobAuxData{ID: "abc", Size: 5}
	if a.SizeBytes() != 48 {
		t.Fatalf("expected base size 48 with no blake3, got %d", a.SizeBytes())
	}
	a.Blake3 = make([]byte, 32)
	if a.SizeBytes() != 80 {
		t.Fatalf("expected size 80 with blake3, got %d", a.SizeBytes())
	}
}
