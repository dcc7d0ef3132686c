package binding

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/goliatone/go-axelforms/pkg/dom"
	"github.com/goliatone/go-axelforms/pkg/events"
	"github.com/goliatone/go-axelforms/pkg/field"
	"github.com/goliatone/go-axelforms/pkg/i18n"
	"github.com/goliatone/go-axelforms/pkg/registry"
	"github.com/goliatone/go-axelforms/pkg/transport"
)

// Built-in binding names.
const (
	NameRequired  = "required"
	NameRegexp    = "regexp"
	NameCondition = "condition"
	NameInterval  = "interval"
	NameAjax      = "ajax"
	NameSelect    = "select"
)

// RegisterBuiltins adds the built-in bindings to r.
func RegisterBuiltins(r *registry.Registry[Spec]) {
	r.Register(NameRequired, Spec{Factory: newRequired})
	r.Register(NameRegexp, Spec{
		Factory: newRegexp,
		Options: []string{OptionErrors},
		Params:  map[string]string{"regexp": Required},
	})
	r.Register(NameCondition, Spec{Factory: newCondition})
	r.Register(NameInterval, Spec{
		Factory: newInterval,
		Options: []string{OptionErrors},
		Params:  map[string]string{"min-date": Required, "max-date": Required},
	})
	r.Register(NameAjax, Spec{
		Factory: newAjax,
		Params:  map[string]string{"ajax-url": Required, "ajax-target": Required, "ajax-param": ""},
	})
	r.Register(NameSelect, Spec{Factory: newSelect})
}

func noFields(variable string) error {
	return fmt.Errorf("no field bound to %q", variable)
}

// required marks its field required. Several fields bound to the same
// variable form a group of which one member must be filled.
type requiredBinding struct {
	c *Context
}

func newRequired(c *Context) (Binding, error) {
	return &requiredBinding{c: c}, nil
}

func (b *requiredBinding) Start(context.Context) error {
	fields := b.c.Fields()
	switch len(fields) {
	case 0:
		return noFields(b.c.Variable)
	case 1:
		fields[0].SetRequired(true)
		return nil
	}
	group := field.NewRequiredGroup(b.c.Host, dom.AttrOr(b.c.Host, field.AttrLabel, ""), fields)
	if owner, ok := b.c.Editors.Owner(fields[0]); ok {
		owner.Adopt(group)
	}
	return nil
}

// regexp validates every value of its fields against a pattern.
type regexpBinding struct {
	c  *Context
	re *regexp.Regexp
}

func newRegexp(c *Context) (Binding, error) {
	re, err := regexp.Compile(c.Param("regexp"))
	if err != nil {
		return nil, fmt.Errorf("invalid data-regexp: %w", err)
	}
	return &regexpBinding{c: c, re: re}, nil
}

func (b *regexpBinding) Start(context.Context) error {
	fields := b.c.Fields()
	if len(fields) == 0 {
		return noFields(b.c.Variable)
	}
	for _, f := range fields {
		f.AttachValidator(b.matches)
	}
	if b.c.Errors != nil {
		b.c.Errors.Hide()
	}
	b.c.OnUpdate(b.c.Variable, func(context.Context, []string) {
		b.check()
	})
	return nil
}

func (b *regexpBinding) matches(f field.Field) bool {
	for _, v := range f.Data() {
		if v != "" && !b.re.MatchString(v) {
			return false
		}
	}
	return true
}

func (b *regexpBinding) check() bool {
	valid := true
	for _, f := range b.c.Fields() {
		if !b.matches(f) {
			valid = false
		}
	}
	if b.c.Errors != nil {
		b.c.Errors.Toggle(valid)
	}
	return valid
}

// condition disables the nodes under its host that carry
// data-avoid-<variable> when the variable holds the attribute value.
type conditionBinding struct {
	c    *Context
	attr string
}

func newCondition(c *Context) (Binding, error) {
	return &conditionBinding{c: c, attr: AvoidAttr(c.Variable)}, nil
}

// AvoidAttr is the attribute a condition binding looks for.
func AvoidAttr(variable string) string {
	return "data-avoid-" + strings.ReplaceAll(strings.Trim(variable, "/"), "/", "-")
}

func (b *conditionBinding) Start(context.Context) error {
	b.c.OnUpdate(b.c.Variable, func(context.Context, []string) {
		b.sync()
	})
	b.c.On(events.ContentReady, func(context.Context, *events.Event) {
		b.sync()
	})
	b.sync()
	return nil
}

var controls = dom.Any(dom.Tag("input"), dom.Tag("select"), dom.Tag("textarea"), dom.Tag("button"))

func (b *conditionBinding) sync() {
	current := make(map[string]struct{})
	for _, f := range b.c.Fields() {
		for _, v := range f.Data() {
			current[v] = struct{}{}
		}
	}
	for _, target := range dom.Find(b.c.Host, dom.WithAttr(b.attr)) {
		_, avoid := current[dom.AttrOr(target, b.attr, "")]
		for _, n := range append([]*html.Node{target}, dom.Find(target, controls)...) {
			if avoid {
				dom.Disable(n)
			} else {
				dom.Enable(n)
			}
		}
	}
}

// interval checks that the date bound to min-date does not follow the date
// bound to max-date.
type intervalBinding struct {
	c        *Context
	min, max string
}

func newInterval(c *Context) (Binding, error) {
	return &intervalBinding{c: c, min: c.Param("min-date"), max: c.Param("max-date")}, nil
}

func (b *intervalBinding) Start(context.Context) error {
	lo, hi := b.c.FieldsFor(b.min), b.c.FieldsFor(b.max)
	if len(lo) == 0 {
		return noFields(b.min)
	}
	if len(hi) == 0 {
		return noFields(b.max)
	}
	for _, f := range append(lo, hi...) {
		f.AttachValidator(func(field.Field) bool { return b.ordered() })
	}
	if b.c.Errors != nil {
		if el := b.c.Errors.Element(); el != nil && strings.TrimSpace(dom.Text(el)) == "" {
			dom.SetText(el, b.message())
		}
		b.c.Errors.Hide()
	}
	for _, variable := range []string{b.min, b.max} {
		b.c.OnUpdate(variable, func(context.Context, []string) {
			valid := b.ordered()
			if b.c.Errors != nil {
				b.c.Errors.Toggle(valid)
			}
		})
	}
	return nil
}

func (b *intervalBinding) message() string {
	return b.c.translate(i18n.IntervalInvalid, nil)
}

func (b *intervalBinding) ordered() bool {
	lo, okLo := firstDate(b.c.FieldsFor(b.min))
	hi, okHi := firstDate(b.c.FieldsFor(b.max))
	if !okLo || !okHi {
		return true
	}
	return !hi.Before(lo)
}

func firstDate(fields []field.Field) (t time.Time, ok bool) {
	for _, f := range fields {
		for _, v := range f.Data() {
			if v == "" {
				continue
			}
			return field.ParseDate(v)
		}
	}
	return t, false
}

// ajax reloads the options of the ajax-target fields each time its variable
// changes. Responses are applied in arrival order: a slow response to an
// earlier value overwrites the options of a faster later one.
type ajaxBinding struct {
	c *Context
}

// OptionsResponse is the JSON document expected from ajax-url.
type OptionsResponse struct {
	Items []field.Option `json:"items"`
}

func newAjax(c *Context) (Binding, error) {
	if c.Fetcher == nil {
		return nil, fmt.Errorf("no fetcher configured")
	}
	return &ajaxBinding{c: c}, nil
}

func (b *ajaxBinding) Start(ctx context.Context) error {
	b.c.OnUpdate(b.c.Variable, func(ctx context.Context, values []string) {
		if err := b.reload(ctx, values); err != nil {
			b.c.Report(ctx, err)
		}
	})
	var current []string
	for _, f := range b.c.Fields() {
		current = append(current, f.Data()...)
	}
	if len(current) > 0 && current[0] != "" {
		return b.reload(ctx, current)
	}
	return nil
}

func (b *ajaxBinding) param() string {
	if p := strings.TrimSpace(b.c.Param("ajax-param")); p != "" {
		return p
	}
	parts := strings.Split(strings.Trim(b.c.Variable, "/"), "/")
	return parts[len(parts)-1]
}

func (b *ajaxBinding) reload(ctx context.Context, values []string) error {
	targets := b.c.FieldsFor(b.c.Param("ajax-target"))
	if len(targets) == 0 {
		return noFields(b.c.Param("ajax-target"))
	}
	var options []field.Option
	if len(values) > 0 && values[0] != "" {
		url := transport.WithQuery(b.c.Resolver.Resolve(b.c.Param("ajax-url"), b.c.Host), b.param(), values[0])
		data, err := b.c.Fetcher.Fetch(ctx, url)
		if err != nil {
			return fmt.Errorf("load options: %w", err)
		}
		if options, err = decodeOptions(data); err != nil {
			return fmt.Errorf("decode options from %s: %w", url, err)
		}
	}
	for _, t := range targets {
		if s, ok := field.Unwrap(t).(interface{ SetOptions([]field.Option) }); ok {
			s.SetOptions(options)
		}
	}
	return nil
}

func decodeOptions(data []byte) ([]field.Option, error) {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var items []field.Option
		err := json.Unmarshal([]byte(trimmed), &items)
		return items, err
	}
	var resp OptionsResponse
	err := json.Unmarshal([]byte(trimmed), &resp)
	return resp.Items, err
}

// select selects or clears every option of its fields. A click on the host
// toggles between the two and broadcasts the choice as a select-all event.
type selectBinding struct {
	c    *Context
	next bool
}

func newSelect(c *Context) (Binding, error) {
	return &selectBinding{c: c, next: true}, nil
}

func (b *selectBinding) Start(context.Context) error {
	b.c.On(events.SelectAll, func(ctx context.Context, ev *events.Event) {
		p, ok := ev.Payload.(events.SelectAllPayload)
		if !ok || p.Variable != b.c.Variable {
			return
		}
		for _, f := range b.c.Fields() {
			if s, ok := field.Unwrap(f).(interface {
				SelectAll(context.Context, bool)
			}); ok {
				s.SelectAll(ctx, p.Select)
			}
		}
	})
	b.c.OnHost(events.Click, func(ctx context.Context, _ *events.Event) {
		b.c.Bus.Dispatch(ctx, b.c.Host, events.SelectAll, events.SelectAllPayload{Variable: b.c.Variable, Select: b.next})
		b.next = !b.next
	})
	return nil
}
