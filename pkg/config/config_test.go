package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseRepositoryConfigRequiredKeys(t *testing.T) {
	_, err := ParseRepositoryConfig([]byte(`[repository]
type = "hg"
`))
	if err == nil {
		t.Fatal("expected an error when path is missing")
	}
}

func TestParseRepositoryConfigDefaultsAndOverrides(t *testing.T) {
	cfg, err := ParseRepositoryConfig([]byte(`[repository]
path = "/home/user/repo"
type = "hg"
require-utf8-path = false
unknown-key = "ignored"
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Path != "/home/user/repo" || cfg.Type != "hg" {
		t.Fatalf("unexpected required fields: %+v", cfg)
	}
	if cfg.RequireUTF8Path != false {
		t.Fatalf("expected require-utf8-path override to take effect, got %+v", cfg)
	}
	if cfg.UseWriteBackCache != false {
		t.Fatalf("expected use-write-back-cache to default false, got %+v", cfg)
	}
	if cfg.GUID == "" {
		t.Fatal("expected a generated GUID when none is configured")
	}
}

func TestParseRepositoryConfigExplicitGUID(t *testing.T) {
	cfg, err := ParseRepositoryConfig([]byte(`[repository]
path = "/home/user/repo"
type = "hg"
guid = "11111111-1111-1111-1111-111111111111"
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.GUID != "11111111-1111-1111-1111-111111111111" {
		t.Fatalf("expected explicit GUID to be preserved, got %q", cfg.GUID)
	}
}

func TestParseClientDirectoryMapMissingFileYieldsEmpty(t *testing.T) {
	result, err := ParseClientDirectoryMap(filepath.Join(t.TempDir(), "config.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result) != 0 {
		t.Fatalf("expected an empty map, got %v", result)
	}
}

func TestParseClientDirectoryMapStripsCommentsAndTrailingCommas(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	contents := `{
  // a leading comment
  "client1": "/home/user/repo1", // trailing comment
  "client2": "/home/user/repo2",
}
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}

	result, err := ParseClientDirectoryMap(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result["client1"] != "/home/user/repo1" || result["client2"] != "/home/user/repo2" {
		t.Fatalf("unexpected parse result: %v", result)
	}
}

func TestParseClientDirectoryMapEmptyAfterStrippingYieldsEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte("// just a comment\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	result, err := ParseClientDirectoryMap(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result) != 0 {
		t.Fatalf("expected an empty map, got %v", result)
	}
}

func TestStripLineCommentsPreservesSlashesInStrings(t *testing.T) {
	input := []byte(`{"path": "C:\\//not-a-comment"}`)
	out := stripLineComments(input)
	if string(out) != string(input) {
		t.Fatalf("expected string contents to be preserved, got %q", out)
	}
}
