package snapshot

import (
	"bytes"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/edenfs-io/edenfs/pkg/model"
)

func TestV4RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "SNAPSHOT")

	if err := SetCheckedOutCommit(path, model.RootId("def")); err != nil {
		t.Fatalf("SetCheckedOutCommit: %v", err)
	}
	if err := SetWorkingCopyParent(path, model.RootId("abc")); err != nil {
		t.Fatalf("SetWorkingCopyParent: %v", err)
	}

	want, err := hex.DecodeString("6564656E000000040000000361626300000003646566")
	if err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("unexpected SNAPSHOT bytes: got %x want %x", got, want)
	}

	parent, err := ReadParentCommit(path)
	if err != nil {
		t.Fatalf("ReadParentCommit: %v", err)
	}
	if parent.Steady == nil {
		t.Fatal("expected steady-state parent commit")
	}
	if parent.Steady.Parent != "abc" || parent.Steady.CheckedOut != "def" {
		t.Fatalf("unexpected parent commit: %+v", parent.Steady)
	}
}

func TestCheckoutInProgressRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "SNAPSHOT")

	if err := SetCheckoutInProgress(path, model.RootId("abc"), model.RootId("def")); err != nil {
		t.Fatalf("SetCheckoutInProgress: %v", err)
	}

	parent, err := ReadParentCommit(path)
	if err != nil {
		t.Fatalf("ReadParentCommit: %v", err)
	}
	if parent.InProgress == nil {
		t.Fatal("expected an in-progress checkout")
	}
	if parent.InProgress.From != "abc" || parent.InProgress.To != "def" {
		t.Fatalf("unexpected in-progress commit: %+v", parent.InProgress)
	}
	if parent.InProgress.Pid != int32(os.Getpid()) {
		t.Fatalf("expected pid %d, got %d", os.Getpid(), parent.InProgress.Pid)
	}
}

func TestLegacyV1RoundTrip(t *testing.T) {
	hash := bytes.Repeat([]byte{0xAB}, hash20Size)
	data := append([]byte(magic), 0, 0, 0, 1)
	data = append(data, hash...)

	parent, err := parseParentCommit(data)
	if err != nil {
		t.Fatalf("parseParentCommit: %v", err)
	}
	want := model.RootId(hex.EncodeToString(hash))
	if parent.Steady.Parent != want || parent.Steady.CheckedOut != want {
		t.Fatalf("unexpected legacy parent: %+v", parent.Steady)
	}
}

func TestBadMagicIsCorrupt(t *testing.T) {
	_, err := parseParentCommit([]byte("xden\x00\x00\x00\x04"))
	if err == nil {
		t.Fatal("expected an error for a bad magic")
	}
}

func TestShortFileIsCorrupt(t *testing.T) {
	_, err := parseParentCommit([]byte("ede"))
	if err == nil {
		t.Fatal("expected an error for a short file")
	}
}

func TestUnknownVersionIsCorrupt(t *testing.T) {
	data := append([]byte(magic), 0, 0, 0, 99)
	_, err := parseParentCommit(data)
	if err == nil {
		t.Fatal("expected an error for an unknown version")
	}
}

func TestLengthOverflowIsCorrupt(t *testing.T) {
	data := append([]byte(magic), 0, 0, 0, 4)
	data = append(data, 0, 0, 0, 200) // claims 200 bytes follow; none do
	_, err := parseParentCommit(data)
	if err == nil {
		t.Fatal("expected an error for a length overflow")
	}
}
