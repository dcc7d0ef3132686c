package registry

import (
	"sort"
	"strings"
	"sync"
)

// Registry maps declared names to entries. Registration is process-scoped and
// last-writer-wins: registering an existing name silently replaces the entry so
// definitions can be swapped while developing. Entries are never removed
// individually; Reset exists for tests.
type Registry[T any] struct {
	mu      sync.RWMutex
	kind    string
	entries map[string]T
}

// New creates an empty registry. kind names the registry in diagnostics
// ("command", "binding", "plugin").
func New[T any](kind string) *Registry[T] {
	return &Registry[T]{
		kind:    kind,
		entries: make(map[string]T),
	}
}

// Kind returns the registry label.
func (r *Registry[T]) Kind() string {
	if r == nil {
		return ""
	}
	return r.kind
}

// Register inserts or overwrites the entry for name. Blank names are ignored.
func (r *Registry[T]) Register(name string, entry T) {
	if r == nil {
		return
	}
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[trimmed] = entry
}

// Lookup retrieves the entry registered under name.
func (r *Registry[T]) Lookup(name string) (T, bool) {
	var zero T
	if r == nil {
		return zero, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[strings.TrimSpace(name)]
	if !ok {
		return zero, false
	}
	return entry, true
}

// Has reports whether name is registered.
func (r *Registry[T]) Has(name string) bool {
	_, ok := r.Lookup(name)
	return ok
}

// Names returns the registered names sorted.
func (r *Registry[T]) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of entries.
func (r *Registry[T]) Len() int {
	if r == nil {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Reset drops every entry.
func (r *Registry[T]) Reset() {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = make(map[string]T)
}
