package field

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/goliatone/go-axelforms/pkg/dom"
	"github.com/goliatone/go-axelforms/pkg/registry"
)

// Built-in plugin and filter names.
const (
	PluginInput   = "input"
	PluginDate    = "date"
	PluginChoice  = "choice"
	PluginChoice2 = "choice2"
	PluginSelect2 = "select2"
	PluginHTML    = "html"

	FilterOptional = "optional"
	FilterTrim     = "trim"
)

// Factory builds a field for a plugin node.
type Factory func(node *html.Node) (Field, error)

// Filter decorates a field after construction. Filters chain in declaration
// order, plugin defaults first, then the node's data-filter list.
type Filter func(f Field) Field

// Plugin is a plugin registry entry.
type Plugin struct {
	Factory Factory
	Filters []string
}

// Registry resolves data-plugin names to factories and filter chains.
type Registry struct {
	plugins *registry.Registry[Plugin]
	filters *registry.Registry[Filter]
}

// NewRegistry returns a registry holding the built-in plugins and filters.
func NewRegistry() *Registry {
	r := &Registry{
		plugins: registry.New[Plugin]("plugin"),
		filters: registry.New[Filter]("filter"),
	}
	r.registerBuiltins()
	return r
}

// RegisterPlugin adds or replaces a plugin.
func (r *Registry) RegisterPlugin(name string, plugin Plugin) {
	r.plugins.Register(name, plugin)
}

// RegisterFilter adds or replaces a filter.
func (r *Registry) RegisterFilter(name string, filter Filter) {
	r.filters.Register(name, filter)
}

// Plugins exposes the plugin table.
func (r *Registry) Plugins() *registry.Registry[Plugin] {
	return r.plugins
}

// Filters exposes the filter table.
func (r *Registry) Filters() *registry.Registry[Filter] {
	return r.filters
}

// Build instantiates the field declared by node's data-plugin attribute.
func (r *Registry) Build(node *html.Node) (Field, error) {
	name := strings.TrimSpace(dom.AttrOr(node, AttrPlugin, ""))
	if name == "" {
		return nil, fmt.Errorf("field: missing %s on <%s>", AttrPlugin, node.Data)
	}
	plugin, ok := r.plugins.Lookup(name)
	if !ok || plugin.Factory == nil {
		return nil, fmt.Errorf("field: unknown plugin %q", name)
	}
	f, err := plugin.Factory(node)
	if err != nil {
		return nil, fmt.Errorf("field: plugin %q: %w", name, err)
	}
	chain := append(append([]string(nil), plugin.Filters...), strings.Fields(dom.AttrOr(node, AttrFilter, ""))...)
	for _, filterName := range chain {
		filter, ok := r.filters.Lookup(filterName)
		if !ok {
			return nil, fmt.Errorf("field: plugin %q: unknown filter %q", name, filterName)
		}
		f = filter(f)
	}
	return f, nil
}

// Collect builds a field for every data-plugin node under root. Fields found
// in known are reused so state survives a re-collection (after a repeated
// group inserts new items, for example). Plugin nodes are not searched for
// nested plugins. Build failures are joined into the returned error; the
// fields that could be built are returned regardless.
func (r *Registry) Collect(root *html.Node, known map[*html.Node]Field) ([]Field, error) {
	var (
		fields []Field
		errs   []error
	)
	dom.Walk(root, func(n *html.Node) bool {
		if !dom.HasAttr(n, AttrPlugin) {
			return true
		}
		if f, ok := known[n]; ok {
			fields = append(fields, f)
			return false
		}
		f, err := r.Build(n)
		if err != nil {
			errs = append(errs, err)
			return false
		}
		fields = append(fields, f)
		return false
	})
	return fields, errors.Join(errs...)
}

type optionalSetter interface {
	SetOptional(bool)
}

type trimmed struct {
	Field
}

func (t trimmed) Unwrap() Field { return t.Field }

// Unwrap strips filter decorators and returns the plugin value, so callers
// can reach plugin specific methods (Choice.SetOptions, Date.Time).
func Unwrap(f Field) Field {
	for {
		w, ok := f.(interface{ Unwrap() Field })
		if !ok {
			return f
		}
		f = w.Unwrap()
	}
}

func (t trimmed) Update(ctx context.Context, values []string) {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.TrimSpace(v)
	}
	t.Field.Update(ctx, out)
}

func (r *Registry) registerBuiltins() {
	r.RegisterPlugin(PluginInput, Plugin{Factory: NewInput})
	r.RegisterPlugin(PluginDate, Plugin{Factory: NewDate, Filters: []string{FilterTrim}})
	r.RegisterPlugin(PluginChoice, Plugin{Factory: NewChoice})
	r.RegisterPlugin(PluginChoice2, Plugin{Factory: NewChoice2})
	r.RegisterPlugin(PluginSelect2, Plugin{Factory: NewSelect2})
	r.RegisterPlugin(PluginHTML, Plugin{Factory: NewHTML})

	r.RegisterFilter(FilterOptional, func(f Field) Field {
		if o, ok := Unwrap(f).(optionalSetter); ok {
			o.SetOptional(true)
		}
		return f
	})
	r.RegisterFilter(FilterTrim, func(f Field) Field {
		return trimmed{Field: f}
	})
}
