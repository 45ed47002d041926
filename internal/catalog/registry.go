package catalog

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds the loaded datasets. Construct with NewRegistry (or via
// Load) and pass it to the consumers that need it; there is no package
// global, so tests can build isolated registries.
type Registry struct {
	mu       sync.RWMutex
	datasets map[string]Dataset
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{datasets: make(map[string]Dataset)}
}

// Register adds a dataset to the registry.
// Panics if a dataset with the same id is already registered; Load
// validates id uniqueness before registering, so hitting this is a
// programming error.
func (r *Registry) Register(ds Dataset) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.datasets[ds.ID]; exists {
		panic(fmt.Sprintf("dataset already registered: %s", ds.ID))
	}
	r.datasets[ds.ID] = ds
}

// Get returns a dataset by id.
// Returns false if not found.
func (r *Registry) Get(id string) (Dataset, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ds, ok := r.datasets[id]
	return ds, ok
}

// All returns every registered dataset, sorted by id for consistent ordering.
func (r *Registry) All() []Dataset {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Dataset, 0, len(r.datasets))
	for _, ds := range r.datasets {
		result = append(result, ds)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	return result
}

// Count returns the number of registered datasets.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.datasets)
}
