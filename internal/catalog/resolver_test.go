package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolver_FirstMatchWins(t *testing.T) {
	rootA, rootB := t.TempDir(), t.TempDir()

	for _, root := range []string{rootA, rootB} {
		if err := os.WriteFile(filepath.Join(root, "both.csv"), []byte("x"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := os.WriteFile(filepath.Join(rootB, "only-b.csv"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	r := NewResolver([]string{rootA, rootB})

	path, ok := r.Resolve("both.csv")
	if !ok {
		t.Fatal("Resolve(both.csv) not found")
	}
	if path != filepath.Join(rootA, "both.csv") {
		t.Errorf("Resolve(both.csv) = %q, want the first root's copy", path)
	}

	path, ok = r.Resolve("only-b.csv")
	if !ok || path != filepath.Join(rootB, "only-b.csv") {
		t.Errorf("Resolve(only-b.csv) = %q, %v; want rootB copy, true", path, ok)
	}

	if _, ok := r.Resolve("nowhere.csv"); ok {
		t.Error("Resolve(nowhere.csv) found, want missing")
	}
}

func TestResolver_IgnoresDirectories(t *testing.T) {
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, "data.csv"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	r := NewResolver([]string{root})
	if _, ok := r.Resolve("data.csv"); ok {
		t.Error("Resolve matched a directory, want file-only matches")
	}
}
