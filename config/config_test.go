package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, dir, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, "dispatch.toml"), []byte(body), 0o644); err != nil {
		t.Fatalf("writing dispatch.toml: %v", err)
	}
}

func TestDefaults(t *testing.T) {
	c := Default()
	if c.Hash.Attempts != 100000 {
		t.Errorf("Attempts = %d, want 100000", c.Hash.Attempts)
	}
	if c.Hash.MinRoom != 2 || c.Hash.MaxRoom != 6 {
		t.Errorf("rooms = [%d,%d], want [2,6]", c.Hash.MinRoom, c.Hash.MaxRoom)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
[hash]
attempts = 5000
min-room = 3
max-room = 4

[trace]
verbose = true
snapshot = "tables.cbor"
`)

	c, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if c.Hash.Attempts != 5000 {
		t.Errorf("Attempts = %d, want 5000", c.Hash.Attempts)
	}
	if c.Hash.MinRoom != 3 || c.Hash.MaxRoom != 4 {
		t.Errorf("rooms = [%d,%d], want [3,4]", c.Hash.MinRoom, c.Hash.MaxRoom)
	}
	if !c.Trace.Verbose {
		t.Error("Verbose should be set")
	}
	if want := filepath.Join(c.Dir, "tables.cbor"); c.SnapshotPath() != want {
		t.Errorf("SnapshotPath = %q, want %q", c.SnapshotPath(), want)
	}

	opts := c.Options()
	if opts.HashAttempts != 5000 || opts.HashMinRoom != 3 || opts.HashMaxRoom != 4 {
		t.Errorf("Options = %+v does not mirror config", opts)
	}
}

func TestLoadAppliesFloors(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
[hash]
attempts = -1
min-room = 0
max-room = 0
`)

	c, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if c.Hash.Attempts != 100000 {
		t.Errorf("Attempts = %d, want default floor", c.Hash.Attempts)
	}
	if c.Hash.MinRoom != 2 || c.Hash.MaxRoom != 2 {
		t.Errorf("rooms = [%d,%d], want [2,2]", c.Hash.MinRoom, c.Hash.MaxRoom)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(t.TempDir()); err == nil {
		t.Error("Load of an empty directory should fail")
	}
}

func TestFindAndLoadWalksUp(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "[hash]\nattempts = 7\n")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	c, err := FindAndLoad(nested)
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	if c == nil {
		t.Fatal("FindAndLoad should locate the ancestor config")
	}
	if c.Hash.Attempts != 7 {
		t.Errorf("Attempts = %d, want 7", c.Hash.Attempts)
	}
}

func TestFindAndLoadWithoutConfig(t *testing.T) {
	c, err := FindAndLoad(t.TempDir())
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	if c != nil {
		t.Error("FindAndLoad should return nil when no config exists")
	}
}
