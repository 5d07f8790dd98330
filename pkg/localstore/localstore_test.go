package localstore

import "testing"

func TestPutGetRoundTrip(t *testing.T) {
	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	key := []byte("blob:abc")
	value := []byte("hello, world, this is a blob's content")

	if err := store.Put(key, value); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok, err := store.Get(key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("expected a hit")
	}
	if string(got) != string(value) {
		t.Fatalf("expected %q, got %q", value, got)
	}
}

func TestGetMissingKeyIsNotAnError(t *testing.T) {
	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	_, ok, err := store.Get([]byte("missing"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected a miss")
	}
}

func TestPutOverwritesExistingKey(t *testing.T) {
	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	key := []byte("tree:def")
	if err := store.Put(key, []byte("first")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := store.Put(key, []byte("second")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok, err := store.Get(key)
	if err != nil || !ok {
		t.Fatalf("Get: %v, ok=%v", err, ok)
	}
	if string(got) != "second" {
		t.Fatalf("expected the overwritten value, got %q", got)
	}
}
