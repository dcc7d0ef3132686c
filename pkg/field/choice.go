package field

import (
	"context"
	"strings"

	"golang.org/x/net/html"

	"github.com/goliatone/go-axelforms/pkg/dom"
)

// State is the display state of a choice-family field.
type State int

const (
	// Unset means nothing is selected and there is no placeholder to show.
	Unset State = iota
	// SetWithPlaceholder means the placeholder entry is showing.
	SetWithPlaceholder
	// SetWithValue means a meaningful selection is showing.
	SetWithValue
)

func (s State) String() string {
	switch s {
	case SetWithPlaceholder:
		return "set-with-placeholder"
	case SetWithValue:
		return "set-with-value"
	default:
		return "unset"
	}
}

// Option is one selectable entry.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Choice backs the choice, choice2 and select2 plugins with a <select>
// element. choice2 is multi-valued by default; select2 accepts option lists
// replaced at runtime and, with data-tags, values that are not listed.
type Choice struct {
	*base
	multi       bool
	tags        bool
	placeholder bool
	state       State
}

// NewChoice wraps a <select> as a choice field.
func NewChoice(node *html.Node) (Field, error) {
	return newChoice(node, "choice", dom.HasAttr(node, "multiple")), nil
}

// NewChoice2 wraps a <select> as a multi-valued choice field.
func NewChoice2(node *html.Node) (Field, error) {
	dom.SetAttr(node, "multiple", "multiple")
	return newChoice(node, "choice2", true), nil
}

// NewSelect2 wraps a <select> as a select2 field.
func NewSelect2(node *html.Node) (Field, error) {
	f := newChoice(node, "select2", dom.HasAttr(node, "multiple"))
	f.tags = dom.HasAttr(node, "data-tags")
	return f, nil
}

func newChoice(node *html.Node, plugin string, multi bool) *Choice {
	f := &Choice{base: newBase(node, plugin), multi: multi}
	f.self = f
	if ph, ok := dom.Attr(node, "data-placeholder"); ok && placeholderOption(node) == nil {
		opt := dom.Element("option", "value", "", "data-placeholder", "true")
		dom.SetText(opt, ph)
		dom.Prepend(node, opt)
	}
	f.placeholder = placeholderOption(node) != nil
	f.state = f.stateFor(f.Data())
	return f
}

func placeholderOption(node *html.Node) *html.Node {
	for _, opt := range dom.Children(node) {
		if opt.Data == "option" && dom.AttrOr(opt, "value", dom.Text(opt)) == "" {
			return opt
		}
	}
	return nil
}

func (f *Choice) Multiple() bool { return f.multi }

// State returns the current display state.
func (f *Choice) State() State { return f.state }

// Options returns the listed entries, placeholder excluded.
func (f *Choice) Options() []Option {
	var out []Option
	for _, opt := range f.options() {
		value := optionValue(opt)
		if value == "" {
			continue
		}
		out = append(out, Option{Value: value, Label: optionLabel(opt)})
	}
	return out
}

// SetOptions replaces the option list, keeping the placeholder. Selected
// values that survive the replacement stay selected.
func (f *Choice) SetOptions(options []Option) {
	keep := make(map[string]struct{})
	for _, v := range f.Data() {
		keep[v] = struct{}{}
	}
	ph := placeholderOption(f.node)
	dom.RemoveChildren(f.node)
	if ph != nil {
		f.node.AppendChild(ph)
	}
	for _, o := range options {
		f.node.AppendChild(newOption(o))
	}
	var selected []string
	for _, o := range options {
		if _, ok := keep[o.Value]; ok {
			selected = append(selected, o.Value)
		}
	}
	f.apply(selected)
}

func newOption(o Option) *html.Node {
	opt := dom.Element("option", "value", o.Value)
	label := o.Label
	if label == "" {
		label = o.Value
	}
	dom.SetText(opt, label)
	return opt
}

func (f *Choice) options() []*html.Node {
	var out []*html.Node
	dom.Walk(f.node, func(n *html.Node) bool {
		if n.Data == "option" {
			out = append(out, n)
			return false
		}
		return true
	})
	return out
}

func optionValue(opt *html.Node) string {
	if v, ok := dom.Attr(opt, "value"); ok {
		return v
	}
	return strings.TrimSpace(dom.Text(opt))
}

func optionLabel(opt *html.Node) string {
	if label, ok := dom.Attr(opt, "data-label"); ok {
		return label
	}
	return strings.TrimSpace(dom.Text(opt))
}

// Data returns the selected values, placeholder excluded.
func (f *Choice) Data() []string {
	if f.optional && !f.set {
		return nil
	}
	var out []string
	for _, opt := range f.options() {
		if !dom.HasAttr(opt, "selected") {
			continue
		}
		if v := optionValue(opt); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func (f *Choice) stateFor(values []string) State {
	switch {
	case Meaningful(values, f.multi, f.hasDefault, f.def):
		return SetWithValue
	case f.placeholder:
		return SetWithPlaceholder
	default:
		return Unset
	}
}

// apply selects values and recomputes the state from what was actually
// selected. It is the single code path for both Load and Update.
func (f *Choice) apply(values []string) {
	if !f.multi && len(values) > 1 {
		values = values[:1]
	}
	wanted := make(map[string]struct{}, len(values))
	for _, v := range values {
		wanted[v] = struct{}{}
	}
	known := make(map[string]struct{})
	var applied []string
	for _, opt := range f.options() {
		v := optionValue(opt)
		known[v] = struct{}{}
		if _, ok := wanted[v]; ok && v != "" && (f.multi || len(applied) == 0) {
			dom.SetAttr(opt, "selected", "selected")
			applied = append(applied, v)
		} else {
			dom.RemoveAttr(opt, "selected")
		}
	}
	if f.tags {
		for _, v := range values {
			if _, ok := known[v]; ok || v == "" {
				continue
			}
			opt := newOption(Option{Value: v})
			dom.SetAttr(opt, "selected", "selected")
			f.node.AppendChild(opt)
			applied = append(applied, v)
		}
	}

	// Values missing from the option list are dropped.
	f.state = f.stateFor(applied)
	if f.state == SetWithPlaceholder && len(applied) == 0 {
		if ph := placeholderOption(f.node); ph != nil {
			dom.SetAttr(ph, "selected", "selected")
		}
	}
	dom.ToggleClass(f.node, "axel-choice-placeholder", f.state != SetWithValue)
	f.syncSet(f.state == SetWithValue)
}

func (f *Choice) Load(values []string) {
	f.apply(values)
}

func (f *Choice) Update(ctx context.Context, values []string) {
	f.apply(values)
	f.notify(ctx)
}

func (f *Choice) Reset() {
	if f.hasDefault {
		f.apply([]string{f.def})
		return
	}
	f.apply(nil)
}

// Modified reports a meaningful selection.
func (f *Choice) Modified() bool {
	return f.state == SetWithValue
}

// SelectAll selects every listed option (multi-valued fields only) or clears
// the selection.
func (f *Choice) SelectAll(ctx context.Context, selectAll bool) {
	if !selectAll {
		f.Update(ctx, nil)
		return
	}
	if !f.multi {
		return
	}
	var values []string
	for _, o := range f.Options() {
		values = append(values, o.Value)
	}
	f.Update(ctx, values)
}
