package editor

import (
	"fmt"

	"golang.org/x/net/html"

	"github.com/goliatone/go-axelforms/pkg/field"
)

// DocumentOption customises a Document.
type DocumentOption func(*Document)

// WithChangeHook installs fn as the change observer of every collected field.
func WithChangeHook(fn field.ChangeFunc) DocumentOption {
	return func(d *Document) {
		d.onChange = fn
	}
}

// WithRootName overrides the serialization root element (default "Data").
func WithRootName(name string) DocumentOption {
	return func(d *Document) {
		if name != "" {
			d.rootName = name
		}
	}
}

// Document is the field-backed editor built over a materialized subtree.
type Document struct {
	key      string
	node     *html.Node
	template string
	plugins  *field.Registry
	rootName string
	onChange field.ChangeFunc

	fields  []field.Field
	adopted []field.Field
	known   map[*html.Node]field.Field
	hooked  map[field.Field]bool
}

var _ Editor = (*Document)(nil)

// NewDocument collects the fields under node. The returned error joins plugin
// build failures; the document is usable regardless and holds every field
// that could be built.
func NewDocument(key string, node *html.Node, template string, plugins *field.Registry, options ...DocumentOption) (*Document, error) {
	if plugins == nil {
		plugins = field.NewRegistry()
	}
	d := &Document{
		key:      key,
		node:     node,
		template: template,
		plugins:  plugins,
		rootName: "Data",
		known:    make(map[*html.Node]field.Field),
		hooked:   make(map[field.Field]bool),
	}
	for _, opt := range options {
		if opt != nil {
			opt(d)
		}
	}
	return d, d.Refresh()
}

func (d *Document) Key() string      { return d.key }
func (d *Document) Node() *html.Node { return d.node }
func (d *Document) Template() string { return d.template }
func (d *Document) Ready() bool      { return true }

// Fields returns the collected fields in document order, adopted fields last.
func (d *Document) Fields() []field.Field {
	out := make([]field.Field, 0, len(d.fields)+len(d.adopted))
	out = append(out, d.fields...)
	return append(out, d.adopted...)
}

// Field returns the first field bound to variable.
func (d *Document) Field(variable string) (field.Field, bool) {
	for _, f := range d.Fields() {
		if f.Variable() == variable {
			return f, true
		}
	}
	return nil, false
}

func (d *Document) Adopt(f field.Field) {
	if f == nil {
		return
	}
	d.adopted = append(d.adopted, f)
	d.hook(f)
}

// Refresh re-collects fields. Fields whose node is still attached keep their
// state; fields of removed nodes are dropped.
func (d *Document) Refresh() error {
	fields, err := d.plugins.Collect(d.node, d.known)
	known := make(map[*html.Node]field.Field, len(fields))
	for _, f := range fields {
		known[f.Node()] = f
		d.hook(f)
	}
	d.fields = fields
	d.known = known
	if err != nil {
		return fmt.Errorf("editor %s: collect fields: %w", d.key, err)
	}
	return nil
}

func (d *Document) hook(f field.Field) {
	if d.onChange == nil || d.hooked[f] {
		return
	}
	d.hooked[f] = true
	f.OnChange(d.onChange)
}

func (d *Document) Reset() {
	for _, f := range d.fields {
		f.Reset()
	}
}

// Modified reports whether any field holds a meaningful value.
func (d *Document) Modified() bool {
	for _, f := range d.fields {
		if f.Modified() {
			return true
		}
	}
	return false
}

// Serialize writes the field values as XML.
func (d *Document) Serialize() ([]byte, error) {
	return encode(d.rootName, d.fields)
}

// Load applies serialized XML to the fields. Fields missing from data are
// loaded with no value.
func (d *Document) Load(data []byte) error {
	tree, err := decode(data)
	if err != nil {
		return fmt.Errorf("editor %s: load: %w", d.key, err)
	}
	for _, f := range d.fields {
		if f.Variable() == "" {
			continue
		}
		f.Load(tree.values(f.Variable()))
	}
	return nil
}
