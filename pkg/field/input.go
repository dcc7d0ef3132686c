package field

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"

	"github.com/goliatone/go-axelforms/pkg/dom"
)

// Input is the text plugin, backed by an <input> or a <textarea>.
type Input struct {
	*base
}

// NewInput wraps node as a text field.
func NewInput(node *html.Node) (Field, error) {
	return newInput(node, "input"), nil
}

func newInput(node *html.Node, plugin string) *Input {
	f := &Input{base: newBase(node, plugin)}
	f.self = f
	f.set = true
	return f
}

func (f *Input) Multiple() bool { return false }

func (f *Input) value() string {
	if f.node.Data == "textarea" {
		return dom.Text(f.node)
	}
	return dom.AttrOr(f.node, "value", "")
}

func (f *Input) write(value string) {
	if f.node.Data == "textarea" {
		dom.SetText(f.node, value)
		return
	}
	dom.SetAttr(f.node, "value", value)
}

func (f *Input) Data() []string {
	if f.optional && !f.set {
		return nil
	}
	return []string{f.value()}
}

func (f *Input) apply(values []string) {
	f.write(first(values))
	f.syncSet(f.Modified())
}

func (f *Input) Load(values []string) {
	f.apply(values)
}

func (f *Input) Update(ctx context.Context, values []string) {
	f.apply(values)
	f.notify(ctx)
}

func (f *Input) Reset() {
	f.write(f.def)
	f.syncSet(false)
}

func (f *Input) Modified() bool {
	return Meaningful([]string{f.value()}, false, f.hasDefault, f.def)
}

// Date formats accepted on input. Values are stored in ISO form.
var dateLayouts = []string{"2006-01-02", "02/01/2006", "2/1/2006"}

// Date is the date plugin: a text input whose value is normalised to
// YYYY-MM-DD. Unparseable input is kept as typed and fails validation.
type Date struct {
	*Input
}

// NewDate wraps node as a date field.
func NewDate(node *html.Node) (Field, error) {
	f := &Date{Input: newInput(node, "date")}
	f.self = f
	f.AttachValidator(func(Field) bool {
		raw := f.value()
		if raw == "" {
			return true
		}
		_, ok := ParseDate(raw)
		return ok
	})
	return f, nil
}

// ParseDate accepts the supported layouts and returns the parsed date.
func ParseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Time returns the current value as a date.
func (f *Date) Time() (time.Time, bool) {
	return ParseDate(f.value())
}

func (f *Date) normalise(values []string) []string {
	raw := first(values)
	if t, ok := ParseDate(raw); ok {
		return []string{t.Format("2006-01-02")}
	}
	return []string{raw}
}

func (f *Date) Load(values []string) {
	f.apply(f.normalise(values))
}

func (f *Date) Update(ctx context.Context, values []string) {
	f.apply(f.normalise(values))
	f.notify(ctx)
}

var (
	htmlPolicyOnce sync.Once
	htmlPolicy     *bluemonday.Policy
)

func richTextPolicy() *bluemonday.Policy {
	htmlPolicyOnce.Do(func() {
		htmlPolicy = bluemonday.UGCPolicy()
	})
	return htmlPolicy
}

// HTML is the rich text plugin. Its value is the sanitized inner markup of
// the host element.
type HTML struct {
	*base
}

// NewHTML wraps node as a rich text field.
func NewHTML(node *html.Node) (Field, error) {
	f := &HTML{base: newBase(node, "html")}
	f.self = f
	return f, nil
}

func (f *HTML) Multiple() bool { return false }

func (f *HTML) Data() []string {
	if f.optional && !f.set {
		return nil
	}
	return []string{strings.TrimSpace(dom.InnerHTML(f.node))}
}

func (f *HTML) write(markup string) {
	clean := richTextPolicy().Sanitize(markup)
	dom.RemoveChildren(f.node)
	nodes, err := dom.ParseFragment(clean, f.node)
	if err != nil {
		dom.SetText(f.node, clean)
		return
	}
	for _, n := range nodes {
		f.node.AppendChild(n)
	}
}

func (f *HTML) apply(values []string) {
	f.write(first(values))
	f.syncSet(f.Modified())
}

func (f *HTML) Load(values []string) {
	f.apply(values)
}

func (f *HTML) Update(ctx context.Context, values []string) {
	f.apply(values)
	f.notify(ctx)
}

func (f *HTML) Reset() {
	f.write(f.def)
	f.syncSet(false)
}

func (f *HTML) Modified() bool {
	return Meaningful([]string{strings.TrimSpace(dom.Text(f.node))}, false, f.hasDefault, f.def)
}
