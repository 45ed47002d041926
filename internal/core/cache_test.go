package core

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/JonMunkholm/datafeed/internal/catalog"
)

// countingReader wraps a TableReader to count parses and optionally
// inject latency or failures. One parse corresponds to one file read in
// the refresh pipeline.
type countingReader struct {
	inner TableReader
	delay time.Duration
	fail  atomic.Bool
	calls atomic.Int64
}

func (c *countingReader) Parse(data []byte, spec catalog.FormatSpec) (*RawTable, error) {
	c.calls.Add(1)
	if c.delay > 0 {
		time.Sleep(c.delay)
	}
	if c.fail.Load() {
		return nil, &FormatError{Reason: "injected failure"}
	}
	return c.inner.Parse(data, spec)
}

// newTestStore builds an isolated registry holding one delimited dataset
// backed by a temp file and returns the store, the counting reader, and
// the file path.
func newTestStore(t *testing.T, id, content string, ttl time.Duration) (*Store, *countingReader, string) {
	t.Helper()

	root := t.TempDir()
	filename := id + ".csv"
	path := filepath.Join(root, filename)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write dataset file: %v", err)
	}

	reg := catalog.NewRegistry()
	reg.Register(catalog.Dataset{
		ID:       id,
		Filename: filename,
		Format: catalog.FormatSpec{
			Kind:      catalog.KindDelimited,
			Delimiter: ";",
			Encoding:  "utf-8",
			BadRows:   catalog.BadRowSkip,
		},
	})

	reader := &countingReader{inner: NewFileReader()}
	store := NewStore(reg, catalog.NewResolver([]string{root}), reader, ttl)
	return store, reader, path
}

func TestStore_GetLoadsAndCaches(t *testing.T) {
	store, reader, _ := newTestStore(t, "X", "id;name\n1;one\n2;two\n3;three\n", 5*time.Minute)
	ctx := context.Background()

	refreshed, entry, err := store.Get(ctx, "X")
	if err != nil {
		t.Fatalf("first Get: %v", err)
	}
	if !refreshed {
		t.Error("first Get refreshed = false, want true")
	}
	if entry.Meta.RowCount != 3 || len(entry.Records) != 3 {
		t.Errorf("rowCount = %d, records = %d, want 3 and 3", entry.Meta.RowCount, len(entry.Records))
	}
	if entry.Fingerprint == "" {
		t.Error("entry has no fingerprint")
	}

	// Second call within the TTL: no file read at all.
	refreshed, entry2, err := store.Get(ctx, "X")
	if err != nil {
		t.Fatalf("second Get: %v", err)
	}
	if refreshed {
		t.Error("second Get refreshed = true, want false")
	}
	if entry2 != entry {
		t.Error("second Get returned a different entry, want the cached one")
	}
	if got := reader.calls.Load(); got != 1 {
		t.Errorf("reads = %d, want 1", got)
	}
}

func TestStore_ContentChangeTriggersRefreshAfterTTL(t *testing.T) {
	store, reader, path := newTestStore(t, "X", "id;v\n1;a\n", 5*time.Minute)
	ctx := context.Background()

	if _, _, err := store.Get(ctx, "X"); err != nil {
		t.Fatalf("initial Get: %v", err)
	}

	// Step the oracle's clock past the TTL.
	base := time.Now()
	store.oracle.now = func() time.Time { return base.Add(10 * time.Minute) }

	// Same bytes: post-TTL hash check finds no change, no re-read.
	refreshed, _, err := store.Get(ctx, "X")
	if err != nil {
		t.Fatalf("Get after TTL, unchanged: %v", err)
	}
	if refreshed {
		t.Error("unchanged file refreshed = true, want false")
	}
	if got := reader.calls.Load(); got != 1 {
		t.Errorf("reads = %d, want 1 (hash check is not a parse)", got)
	}

	// Same size, different bytes: the hash is authoritative.
	if err := os.WriteFile(path, []byte("id;v\n1;b\n"), 0o644); err != nil {
		t.Fatalf("rewrite file: %v", err)
	}
	refreshed, entry, err := store.Get(ctx, "X")
	if err != nil {
		t.Fatalf("Get after content change: %v", err)
	}
	if !refreshed {
		t.Error("changed file refreshed = false, want true")
	}
	if got := entry.Records[0]["v"]; got != "b" {
		t.Errorf("record value = %v, want %q", got, "b")
	}
	if got := reader.calls.Load(); got != 2 {
		t.Errorf("reads = %d, want 2", got)
	}
}

func TestStore_CoalescesConcurrentRefreshes(t *testing.T) {
	store, reader, _ := newTestStore(t, "X", "id\n1\n2\n", 5*time.Minute)
	reader.delay = 50 * time.Millisecond
	ctx := context.Background()

	const callers = 8
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			refreshed, entry, err := store.Get(ctx, "X")
			if err != nil {
				t.Errorf("concurrent Get: %v", err)
				return
			}
			if !refreshed {
				t.Error("concurrent Get refreshed = false, want true")
			}
			if entry == nil || entry.Meta.RowCount != 2 {
				t.Error("concurrent Get returned incomplete entry")
			}
		}()
	}
	wg.Wait()

	if got := reader.calls.Load(); got != 1 {
		t.Errorf("reads = %d, want exactly 1 (coalescing)", got)
	}
}

func TestStore_ForceRefreshBypassesGates(t *testing.T) {
	store, reader, _ := newTestStore(t, "X", "id\n1\n", 5*time.Minute)
	ctx := context.Background()

	e1, err := store.ForceRefresh(ctx, "X")
	if err != nil {
		t.Fatalf("first ForceRefresh: %v", err)
	}
	e2, err := store.ForceRefresh(ctx, "X")
	if err != nil {
		t.Fatalf("second ForceRefresh: %v", err)
	}

	if got := reader.calls.Load(); got != 2 {
		t.Errorf("reads = %d, want 2 (force bypasses the gate both times)", got)
	}
	if e1.Fingerprint != e2.Fingerprint {
		t.Errorf("fingerprints differ after unchanged re-reads: %s vs %s", e1.Fingerprint, e2.Fingerprint)
	}
	if e2.CheckedAt.Before(e1.CheckedAt) {
		t.Error("CheckedAt went backwards")
	}
}

func TestStore_FailedRefreshKeepsPreviousEntry(t *testing.T) {
	store, reader, _ := newTestStore(t, "X", "id\n1\n", 5*time.Minute)
	ctx := context.Background()

	_, before, err := store.Get(ctx, "X")
	if err != nil {
		t.Fatalf("initial Get: %v", err)
	}

	reader.fail.Store(true)
	if _, err := store.ForceRefresh(ctx, "X"); err == nil {
		t.Fatal("ForceRefresh with failing reader: want error")
	}

	after, err := store.Peek("X")
	if err != nil {
		t.Fatalf("Peek: %v", err)
	}
	if after != before {
		t.Error("failed refresh replaced the previous entry")
	}
}

func TestStore_UnknownDatasetNotFound(t *testing.T) {
	store, _, _ := newTestStore(t, "X", "id\n1\n", 5*time.Minute)

	_, _, err := store.Get(context.Background(), "nope")
	if !IsNotFound(err) {
		t.Errorf("Get(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestStore_MissingFileNotFound(t *testing.T) {
	store, _, path := newTestStore(t, "X", "id\n1\n", 5*time.Minute)
	if err := os.Remove(path); err != nil {
		t.Fatalf("remove file: %v", err)
	}

	_, _, err := store.Get(context.Background(), "X")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get with absent file error = %v, want ErrNotFound", err)
	}
}

func TestStore_ListOmitsMissingFiles(t *testing.T) {
	store, _, _ := newTestStore(t, "X", "id\n1\n", 5*time.Minute)

	// "Y" is configured but its file exists in no candidate root.
	store.Catalog().Register(catalog.Dataset{
		ID:       "Y",
		Filename: "y.csv",
		Format:   catalog.FormatSpec{Kind: catalog.KindDelimited, Delimiter: ";", Encoding: "utf-8", BadRows: catalog.BadRowWarn},
	})

	infos := store.List()
	if len(infos) != 1 {
		t.Fatalf("List() returned %d datasets, want 1", len(infos))
	}
	if infos[0].ID != "X" {
		t.Errorf("List()[0].ID = %q, want %q", infos[0].ID, "X")
	}
	if infos[0].SizeBytes <= 0 {
		t.Errorf("SizeBytes = %d, want > 0", infos[0].SizeBytes)
	}
}

func TestStore_FirstRootWins(t *testing.T) {
	rootA, rootB := t.TempDir(), t.TempDir()
	for root, v := range map[string]string{rootA: "a", rootB: "b"} {
		if err := os.WriteFile(filepath.Join(root, "x.csv"), []byte("v\n"+v+"\n"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	reg := catalog.NewRegistry()
	reg.Register(catalog.Dataset{
		ID:       "X",
		Filename: "x.csv",
		Format:   catalog.FormatSpec{Kind: catalog.KindDelimited, Delimiter: ";", Encoding: "utf-8", BadRows: catalog.BadRowWarn},
	})

	store := NewStore(reg, catalog.NewResolver([]string{rootA, rootB}), NewFileReader(), time.Minute)
	_, entry, err := store.Get(context.Background(), "X")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got := entry.Records[0]["v"]; got != "a" {
		t.Errorf("record value = %v, want %q (first configured root)", got, "a")
	}
}

func TestWindow(t *testing.T) {
	entry := &Entry{Records: []Record{
		{"n": float64(1)}, {"n": float64(2)}, {"n": float64(3)}, {"n": float64(4)}, {"n": float64(5)},
	}}

	cases := []struct {
		name        string
		skip, limit int
		want        []float64
	}{
		{"all", 0, -1, []float64{1, 2, 3, 4, 5}},
		{"skip", 2, -1, []float64{3, 4, 5}},
		{"limit", 0, 2, []float64{1, 2}},
		{"skip then limit", 1, 2, []float64{2, 3}},
		{"skip past end", 9, -1, nil},
		{"limit past end", 0, 99, []float64{1, 2, 3, 4, 5}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Window(entry, tc.skip, tc.limit)
			if len(got) != len(tc.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tc.want))
			}
			for i, w := range tc.want {
				if got[i]["n"] != w {
					t.Errorf("record %d = %v, want %v", i, got[i]["n"], w)
				}
			}
		})
	}
}
