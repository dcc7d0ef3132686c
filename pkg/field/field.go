package field

import (
	"context"
	"strings"

	"golang.org/x/net/html"

	"github.com/goliatone/go-axelforms/pkg/dom"
)

// Attributes read off plugin nodes.
const (
	AttrPlugin   = "data-plugin"
	AttrVariable = "data-variable"
	AttrLabel    = "data-label"
	AttrDefault  = "data-default"
	AttrRequired = "data-required"
	AttrFilter   = "data-filter"
)

// Validator reports whether a field currently holds a valid value.
type Validator func(f Field) bool

// ChangeFunc observes user-driven updates.
type ChangeFunc func(ctx context.Context, f Field)

// Field is the capability set every editor adapter exposes. Data is always a
// list: single-valued plugins return at most one entry.
type Field interface {
	Node() *html.Node
	Variable() string
	Label() string
	Plugin() string
	Multiple() bool

	Data() []string
	// Load applies values coming from a data source; observers are not called.
	Load(values []string)
	// Update applies values coming from user input and notifies observers.
	Update(ctx context.Context, values []string)
	Reset()

	Modified() bool
	Optional() bool
	IsSet() bool
	Set()
	Unset()

	Required() bool
	SetRequired(required bool)
	Validate() bool
	AttachValidator(v Validator)

	Focus()
	OnChange(fn ChangeFunc)
}

// base carries the state shared by every plugin. Plugins embed it and point
// self at the outer value so validators and observers receive the plugin.
type base struct {
	self       Field
	node       *html.Node
	plugin     string
	variable   string
	label      string
	def        string
	hasDefault bool
	optional   bool
	set        bool
	required   bool
	validator  Validator
	observers  []ChangeFunc
}

func newBase(node *html.Node, plugin string) *base {
	b := &base{
		node:     node,
		plugin:   plugin,
		variable: strings.TrimSpace(dom.AttrOr(node, AttrVariable, dom.AttrOr(node, "name", ""))),
		label:    strings.TrimSpace(dom.AttrOr(node, AttrLabel, "")),
		set:      true,
		required: dom.HasAttr(node, "required") || dom.HasAttr(node, AttrRequired),
	}
	if def, ok := dom.Attr(node, AttrDefault); ok {
		b.def = def
		b.hasDefault = true
	}
	return b
}

func (b *base) Node() *html.Node { return b.node }
func (b *base) Variable() string { return b.variable }
func (b *base) Plugin() string { return b.plugin }
func (b *base) Optional() bool { return b.optional }
func (b *base) Required() bool { return b.required }
func (b *base) Default() string { return b.def }
func (b *base) HasDefault() bool { return b.hasDefault }
func (b *base) SetRequired(r bool) { b.required = r }

// Label falls back to the variable name.
func (b *base) Label() string {
	if b.label != "" {
		return b.label
	}
	return b.variable
}

// SetOptional switches the optional (set/unset) behaviour on or off. Optional
// fields start unset.
func (b *base) SetOptional(optional bool) {
	b.optional = optional
	if optional {
		b.Unset()
	} else {
		b.set = true
		dom.RemoveClass(b.node, "af-unset")
	}
}

// IsSet is always true for non optional fields.
func (b *base) IsSet() bool {
	return !b.optional || b.set
}

func (b *base) Set() {
	b.set = true
	dom.RemoveClass(b.node, "af-unset")
}

func (b *base) Unset() {
	if !b.optional {
		return
	}
	b.set = false
	dom.AddClass(b.node, "af-unset")
}

func (b *base) Focus() {
	dom.SetAttr(b.node, "autofocus", "autofocus")
}

// AttachValidator composes v with any validator already attached: the field
// is valid only when every attached validator accepts it.
func (b *base) AttachValidator(v Validator) {
	if v == nil {
		return
	}
	prev := b.validator
	if prev == nil {
		b.validator = v
		return
	}
	b.validator = func(f Field) bool {
		return prev(f) && v(f)
	}
}

func (b *base) Validate() bool {
	if b.validator == nil {
		return true
	}
	return b.validator(b.self)
}

func (b *base) OnChange(fn ChangeFunc) {
	if fn != nil {
		b.observers = append(b.observers, fn)
	}
}

func (b *base) notify(ctx context.Context) {
	for _, fn := range b.observers {
		fn(ctx, b.self)
	}
}

// syncSet applies the optional-field rule: a meaningful value sets the field,
// anything else unsets it.
func (b *base) syncSet(meaningful bool) {
	if meaningful {
		b.Set()
		return
	}
	b.Unset()
}

// Meaningful reports whether values represent real input rather than a
// placeholder or the default. Without a default, a single-valued field is
// meaningful when non-empty and a multi-valued field unless the selection is
// absent or a single empty entry. With a default, values are meaningful iff
// they differ from it. Load and Update share this predicate so data written by
// the editor reads back in the same state.
func Meaningful(values []string, multi, hasDefault bool, def string) bool {
	if hasDefault {
		if multi {
			return !(len(values) == 1 && values[0] == def)
		}
		return first(values) != def
	}
	if multi {
		return !(len(values) == 0 || (len(values) == 1 && values[0] == ""))
	}
	return first(values) != ""
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
