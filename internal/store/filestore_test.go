package store

import (
	"os"
	"path/filepath"
	"testing"
)

type testDoc struct {
	Name  string         `yaml:"name"`
	Count int            `yaml:"count"`
	Tags  map[string]int `yaml:"tags,omitempty"`
}

func TestFileStoreRoundTrip(t *testing.T) {
	fs := NewFileStore(filepath.Join(t.TempDir(), "nested", "data"))

	in := testDoc{Name: "alpha", Count: 7, Tags: map[string]int{"x": 1, "y": 2}}
	if err := fs.Save("records", &in); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	var out testDoc
	if err := fs.Load("records", &out); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if out.Name != in.Name || out.Count != in.Count || len(out.Tags) != 2 {
		t.Fatalf("round trip mismatch: %+v", out)
	}
}

func TestFileStoreMissingFileIsEmptyDoc(t *testing.T) {
	fs := NewFileStore(t.TempDir())

	out := testDoc{Name: "untouched"}
	if err := fs.Load("nothing", &out); err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if out.Name != "untouched" {
		t.Fatalf("missing file mutated the doc: %+v", out)
	}
}

func TestFileStoreEmptyFileIsEmptyDoc(t *testing.T) {
	dir := t.TempDir()
	fs := NewFileStore(dir)
	if err := os.WriteFile(filepath.Join(dir, "records.yml"), nil, 0o600); err != nil {
		t.Fatalf("setup: %v", err)
	}

	var out testDoc
	if err := fs.Load("records", &out); err != nil {
		t.Fatalf("empty file should not error: %v", err)
	}
}

func TestFileStoreLastWriteWins(t *testing.T) {
	fs := NewFileStore(t.TempDir())

	if err := fs.Save("records", &testDoc{Name: "first", Count: 1}); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := fs.Save("records", &testDoc{Name: "second", Count: 2}); err != nil {
		t.Fatalf("rewrite failed: %v", err)
	}

	var out testDoc
	if err := fs.Load("records", &out); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if out.Name != "second" || out.Count != 2 {
		t.Fatalf("expected the full rewrite to win: %+v", out)
	}
}
