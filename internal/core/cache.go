package core

// cache.go is the stateful heart of the service: one Store maps each
// resolved file path to its cached Entry and orchestrates the
// oracle -> reader -> normalizer pipeline on refresh.
//
// Concurrency model:
//
//   - entries live behind a RWMutex; readers of a fresh entry never block
//     on I/O
//   - refreshes are coalesced per path through a singleflight group, so
//     N concurrent callers that all find the same path stale produce
//     exactly one file read; refreshes of different paths proceed in
//     parallel
//   - a new Entry is built fully off to the side and swapped in under the
//     write lock, so no reader ever observes records and metadata from
//     different loads
//
// A failed refresh leaves any pre-existing entry untouched and reports
// the error to the caller; stale-but-valid data beats a silent gap.

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/JonMunkholm/datafeed/internal/catalog"
)

// Store is the dataset cache. Construct with NewStore at startup; it owns
// its entries exclusively and has no ambient global state, so tests can
// instantiate isolated stores.
type Store struct {
	reg      *catalog.Registry
	resolver *catalog.Resolver
	reader   TableReader
	oracle   *Oracle

	mu      sync.RWMutex
	entries map[string]*Entry

	flight singleflight.Group

	// now is injectable for tests; defaults to time.Now.
	now func() time.Time
}

// NewStore creates a Store over the given registry, resolver, reader, and TTL.
func NewStore(reg *catalog.Registry, resolver *catalog.Resolver, reader TableReader, ttl time.Duration) *Store {
	return &Store{
		reg:      reg,
		resolver: resolver,
		reader:   reader,
		oracle:   NewOracle(ttl),
		entries:  make(map[string]*Entry),
		now:      time.Now,
	}
}

// Catalog returns the registry this store serves.
func (s *Store) Catalog() *catalog.Registry {
	return s.reg
}

// Get returns the current snapshot for the dataset id, refreshing it
// first if the oracle finds it stale. The returned bool reports whether a
// refresh occurred to produce the entry (including a coalesced refresh
// this caller joined).
func (s *Store) Get(ctx context.Context, id string) (bool, *Entry, error) {
	ds, path, err := s.resolve(id)
	if err != nil {
		return false, nil, err
	}

	entry := s.lookup(path)
	if !s.oracle.NeedsRefresh(path, entry) {
		return false, entry, nil
	}

	fresh, err := s.refreshPath(ctx, path, ds.Format)
	if err != nil {
		return false, nil, err
	}
	return true, fresh, nil
}

// ForceRefresh rebuilds the dataset unconditionally, bypassing both the
// TTL and content gates. Concurrent forces for the same path still
// coalesce into one read; back-to-back calls each hit the disk.
func (s *Store) ForceRefresh(ctx context.Context, id string) (*Entry, error) {
	ds, path, err := s.resolve(id)
	if err != nil {
		return nil, err
	}
	return s.refreshPath(ctx, path, ds.Format)
}

// Peek returns the cached entry for a dataset id without any freshness
// check or I/O beyond path resolution. Returns nil if nothing is cached.
func (s *Store) Peek(id string) (*Entry, error) {
	_, path, err := s.resolve(id)
	if err != nil {
		return nil, err
	}
	return s.lookup(path), nil
}

// List enumerates configured datasets whose backing file currently
// exists, in catalog order. Datasets with no resolvable file are omitted.
func (s *Store) List() []DatasetInfo {
	var out []DatasetInfo
	for _, ds := range s.reg.All() {
		path, ok := s.resolver.Resolve(ds.Filename)
		if !ok {
			continue
		}
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		out = append(out, DatasetInfo{
			ID:           ds.ID,
			Kind:         ds.Format.Kind,
			SizeBytes:    info.Size(),
			LastModified: info.ModTime().Format(time.RFC3339),
			Path:         path,
		})
	}
	return out
}

// WarmUp loads every configured dataset once, logging per-dataset
// failures instead of aborting: one unreadable file must not keep the
// rest of the catalog cold.
func (s *Store) WarmUp(ctx context.Context) {
	start := time.Now()
	loaded := 0
	for _, ds := range s.reg.All() {
		if ctx.Err() != nil {
			return
		}
		if _, _, err := s.Get(ctx, ds.ID); err != nil {
			slog.Error("initial load failed", "dataset", ds.ID, "error", err)
			continue
		}
		loaded++
	}
	slog.Info("initial load complete",
		"loaded", loaded,
		"configured", s.reg.Count(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

// Window applies skip then limit to an entry's records. limit < 0 means
// no limit. The returned slice aliases the entry's records, which are
// immutable once published.
func Window(entry *Entry, skip, limit int) []Record {
	records := entry.Records
	if skip > 0 {
		if skip >= len(records) {
			return []Record{}
		}
		records = records[skip:]
	}
	if limit >= 0 && limit < len(records) {
		records = records[:limit]
	}
	return records
}

// resolve maps a dataset id to its catalog entry and physical path.
func (s *Store) resolve(id string) (catalog.Dataset, string, error) {
	ds, ok := s.reg.Get(id)
	if !ok {
		return catalog.Dataset{}, "", fmt.Errorf("dataset %q: %w", id, ErrNotFound)
	}
	path, ok := s.resolver.Resolve(ds.Filename)
	if !ok {
		return catalog.Dataset{}, "", fmt.Errorf("file %q for dataset %q: %w", ds.Filename, id, ErrNotFound)
	}
	return ds, path, nil
}

func (s *Store) lookup(path string) *Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries[path]
}

// refreshPath runs the read pipeline for a path, coalescing concurrent
// callers through the singleflight group.
func (s *Store) refreshPath(ctx context.Context, path string, spec catalog.FormatSpec) (*Entry, error) {
	v, err, _ := s.flight.Do(path, func() (any, error) {
		return s.buildEntry(ctx, path, spec)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Entry), nil
}

// buildEntry reads the file once, fingerprints the same bytes it parses,
// and atomically publishes the new entry. On any failure the previous
// entry (if any) is left in place.
func (s *Store) buildEntry(ctx context.Context, path string, spec catalog.FormatSpec) (*Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &IOError{Path: path, Op: "read", Err: err}
	}

	raw, err := s.reader.Parse(data, spec)
	if err != nil {
		if fe, ok := err.(*FormatError); ok && fe.Path == "" {
			fe.Path = path
		}
		return nil, err
	}

	records, count := Normalize(raw)
	now := s.now()
	entry := &Entry{
		Columns: raw.Columns,
		Records: records,
		Meta: Metadata{
			LastUpdated: now.Format(time.RFC3339),
			SizeBytes:   int64(len(data)),
			RowCount:    count,
		},
		Fingerprint: HashBytes(data),
		CheckedAt:   now,
	}

	s.mu.Lock()
	if prev := s.entries[path]; prev != nil && entry.CheckedAt.Before(prev.CheckedAt) {
		// Keep CheckedAt monotonic per path.
		entry.CheckedAt = prev.CheckedAt
	}
	s.entries[path] = entry
	s.mu.Unlock()

	slog.Debug("dataset refreshed",
		"path", path,
		"rows", count,
		"size_bytes", len(data),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return entry, nil
}
