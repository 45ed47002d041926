package catalog

import (
	"os"
	"path/filepath"
)

// Resolver locates a dataset's backing file among an ordered list of
// candidate root directories. The first root containing the file wins.
type Resolver struct {
	Roots []string
}

// NewResolver creates a resolver over the given candidate roots,
// searched in the order provided.
func NewResolver(roots []string) *Resolver {
	return &Resolver{Roots: roots}
}

// Resolve returns the full path of the first existing copy of filename.
// Returns false if no candidate root contains the file.
func (r *Resolver) Resolve(filename string) (string, bool) {
	for _, root := range r.Roots {
		path := filepath.Join(root, filename)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}
