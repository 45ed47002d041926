package core

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func TestOracle_NoEntryForcesLoad(t *testing.T) {
	o := NewOracle(time.Minute)
	if !o.NeedsRefresh("/nonexistent", nil) {
		t.Error("NeedsRefresh(nil entry) = false, want true")
	}
}

func TestOracle_TrustsCacheWithinTTL(t *testing.T) {
	o := NewOracle(5 * time.Minute)

	// Path does not exist: within the TTL the file system must not be
	// touched at all, so this still reports fresh.
	entry := &Entry{CheckedAt: time.Now()}
	if o.NeedsRefresh("/nonexistent", entry) {
		t.Error("NeedsRefresh within TTL = true, want false")
	}
}

func TestOracle_HashGateAfterTTL(t *testing.T) {
	path := writeTemp(t, "data.csv", "a;b\n1;2\n")

	fp, err := HashFile(path)
	if err != nil {
		t.Fatalf("HashFile: %v", err)
	}

	o := NewOracle(5 * time.Minute)
	base := time.Now()
	o.now = func() time.Time { return base.Add(10 * time.Minute) }

	entry := &Entry{Fingerprint: fp, CheckedAt: base}

	// Unchanged content: stale clock but matching hash means no refresh.
	if o.NeedsRefresh(path, entry) {
		t.Error("NeedsRefresh with matching hash = true, want false")
	}

	// Same length, different bytes: the content hash is authoritative.
	if err := os.WriteFile(path, []byte("a;b\n1;3\n"), 0o644); err != nil {
		t.Fatalf("rewrite file: %v", err)
	}
	if !o.NeedsRefresh(path, entry) {
		t.Error("NeedsRefresh with changed content = false, want true")
	}
}

func TestOracle_HashFailureFailsOpen(t *testing.T) {
	o := NewOracle(time.Minute)
	base := time.Now()
	o.now = func() time.Time { return base.Add(time.Hour) }

	entry := &Entry{Fingerprint: "whatever", CheckedAt: base}
	if !o.NeedsRefresh(filepath.Join(t.TempDir(), "vanished.csv"), entry) {
		t.Error("NeedsRefresh with unreadable file = false, want true (fail open)")
	}
}

func TestHashFile_MatchesHashBytes(t *testing.T) {
	content := "col\nvalue\n"
	path := writeTemp(t, "x.csv", content)

	fromFile, err := HashFile(path)
	if err != nil {
		t.Fatalf("HashFile: %v", err)
	}
	if fromBytes := HashBytes([]byte(content)); fromFile != fromBytes {
		t.Errorf("HashFile = %s, HashBytes = %s; want equal", fromFile, fromBytes)
	}
}

func TestHashFile_MissingFile(t *testing.T) {
	_, err := HashFile(filepath.Join(t.TempDir(), "missing"))
	if err == nil {
		t.Fatal("HashFile on missing file: want error")
	}
	if _, ok := err.(*IOError); !ok {
		t.Errorf("error type = %T, want *IOError", err)
	}
}
