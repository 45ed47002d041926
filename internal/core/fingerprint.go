package core

// fingerprint.go implements the two-tier staleness check:
//
//  1. time gate: within the TTL the cache is trusted without touching the
//     file system at all
//  2. content gate: once the TTL elapses, the file's MD5 fingerprint is
//     compared against the cached one; only a real content change (or a
//     hash failure, which must propagate through a re-read) forces work
//
// The TTL gate means a file that changes and reverts inside one window
// can go unnoticed; that staleness blindness is an accepted tradeoff in
// exchange for not hashing large files on every request.

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"
)

// DefaultTTL is how long a cache entry is trusted without re-checking the file.
const DefaultTTL = 5 * time.Minute

// Oracle decides whether a cached entry for a path is stale.
type Oracle struct {
	TTL time.Duration

	// now is injectable for tests; defaults to time.Now.
	now func() time.Time
}

// NewOracle creates an Oracle with the given TTL (DefaultTTL if zero).
func NewOracle(ttl time.Duration) *Oracle {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Oracle{TTL: ttl, now: time.Now}
}

// NeedsRefresh reports whether the entry for path must be rebuilt.
//
// No entry forces the initial load. Within the TTL the entry is trusted.
// After the TTL the file is fingerprinted; a hash failure counts as stale
// so the underlying read error surfaces through the refresh path instead
// of being hidden here.
func (o *Oracle) NeedsRefresh(path string, entry *Entry) bool {
	if entry == nil {
		return true
	}

	if o.now().Sub(entry.CheckedAt) <= o.TTL {
		return false
	}

	current, err := HashFile(path)
	if err != nil {
		slog.Warn("fingerprint check failed, forcing refresh", "path", path, "error", err)
		return true
	}
	return current != entry.Fingerprint
}

// HashFile computes the MD5 fingerprint of the file's full byte stream.
// The hash confirms content change only; it has no security role.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", &IOError{Path: path, Op: "open", Err: err}
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", &IOError{Path: path, Op: "hash", Err: err}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashBytes computes the MD5 fingerprint of an in-memory byte slice.
// Used by refresh so the fingerprint describes exactly the bytes parsed.
func HashBytes(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

// String implements fmt.Stringer for logging.
func (o *Oracle) String() string {
	return fmt.Sprintf("Oracle{TTL: %s}", o.TTL)
}
