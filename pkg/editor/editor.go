// Package editor defines the editor handle produced by template
// materialization and the page-wide table that owns editors by key.
package editor

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/net/html"

	"github.com/goliatone/go-axelforms/pkg/field"
)

// KeyPrefix prefixes generated editor keys.
const KeyPrefix = "untitled"

// ErrNotReady is returned by data operations on an editor whose template has
// not been materialized yet.
var ErrNotReady = errors.New("editor: not ready")

// Editor is a live editing surface over one DOM subtree.
type Editor interface {
	Key() string
	Node() *html.Node
	Template() string
	Ready() bool

	Fields() []field.Field
	Field(variable string) (field.Field, bool)
	// Adopt adds a field that is not backed by a data-plugin node, such as a
	// required group proxy.
	Adopt(f field.Field)

	Serialize() ([]byte, error)
	Load(data []byte) error
	Reset()
	// Refresh re-collects fields after the subtree changed.
	Refresh() error
	Modified() bool
}

// Table owns the live editors by key. Registering under an existing key
// replaces the previous editor.
type Table struct {
	mu      sync.RWMutex
	editors map[string]Editor
	order   []string
	seq     int
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{editors: make(map[string]Editor)}
}

// Register stores e under key and reports whether an editor was replaced.
func (t *Table) Register(key string, e Editor) (bool, error) {
	if key == "" {
		return false, fmt.Errorf("editor: empty key")
	}
	if e == nil {
		return false, fmt.Errorf("editor: nil editor for key %q", key)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	_, replaced := t.editors[key]
	if !replaced {
		t.order = append(t.order, key)
	}
	t.editors[key] = e
	return replaced, nil
}

// Lookup returns the editor registered under key.
func (t *Table) Lookup(key string) (Editor, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.editors[key]
	return e, ok
}

// Keys returns the registered keys in registration order.
func (t *Table) Keys() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]string(nil), t.order...)
}

// SortedKeys returns the registered keys sorted.
func (t *Table) SortedKeys() []string {
	keys := t.Keys()
	sort.Strings(keys)
	return keys
}

// Editors returns the registered editors in registration order.
func (t *Table) Editors() []Editor {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Editor, 0, len(t.order))
	for _, key := range t.order {
		out = append(out, t.editors[key])
	}
	return out
}

// Len returns the number of registered editors.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.editors)
}

// NextKey returns a fresh generated key that is not in use.
func (t *Table) NextKey() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	for {
		t.seq++
		key := fmt.Sprintf("%s%d", KeyPrefix, t.seq)
		if _, taken := t.editors[key]; !taken {
			return key
		}
	}
}

// Owner returns the editor holding f.
func (t *Table) Owner(f field.Field) (Editor, bool) {
	for _, e := range t.Editors() {
		for _, candidate := range e.Fields() {
			if candidate == f {
				return e, true
			}
		}
	}
	return nil, false
}

// Reset drops every editor and restarts key generation.
func (t *Table) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.editors = make(map[string]Editor)
	t.order = nil
	t.seq = 0
}
