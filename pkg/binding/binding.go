// Package binding implements controllers attached to data-binding nodes. A
// binding observes the fields bound to its data-variable and produces a side
// effect: validation, conditional enabling, synchronized option lists.
package binding

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/net/html"

	"github.com/goliatone/go-axelforms/pkg/dom"
	"github.com/goliatone/go-axelforms/pkg/editor"
	"github.com/goliatone/go-axelforms/pkg/events"
	"github.com/goliatone/go-axelforms/pkg/field"
	"github.com/goliatone/go-axelforms/pkg/host"
	"github.com/goliatone/go-axelforms/pkg/i18n"
	"github.com/goliatone/go-axelforms/pkg/logging"
	"github.com/goliatone/go-axelforms/pkg/resolve"
)

// AttrVariable names the data path a binding operates over.
const AttrVariable = "data-variable"

// Required marks a parameter that must be present on the host node.
const Required = "\x00required"

// OptionErrors asks the installer for an ErrorPresenter.
const OptionErrors = "errors"

var (
	// ErrMissingVariable is reported when a binding host has no data-variable.
	ErrMissingVariable = errors.New("binding: missing data-variable")
	// ErrMissingParam is reported when a required parameter is absent.
	ErrMissingParam = errors.New("binding: missing required parameter")
)

// Binding is a live binding instance.
type Binding interface {
	Start(ctx context.Context) error
}

// Factory builds a binding over its install context.
type Factory func(c *Context) (Binding, error)

// Spec is a binding registry entry. Params maps parameter names, read from
// data-<name> attributes, to their default value or Required.
type Spec struct {
	Factory Factory
	Options []string
	Params  map[string]string
}

// HasOption reports whether the spec declares option.
func (s Spec) HasOption(option string) bool {
	for _, o := range s.Options {
		if o == option {
			return true
		}
	}
	return false
}

// ResolveParams reads the declared parameters off node. The error wraps
// ErrMissingParam and names the first missing required parameter.
func (s Spec) ResolveParams(node *html.Node) (map[string]string, error) {
	out := make(map[string]string, len(s.Params))
	for name, def := range s.Params {
		if value, ok := dom.Attr(node, "data-"+name); ok {
			out[name] = value
			continue
		}
		if def == Required {
			return nil, fmt.Errorf("%w: data-%s", ErrMissingParam, name)
		}
		out[name] = def
	}
	return out, nil
}

// Context is the shared state injected into a binding.
type Context struct {
	Document   *html.Node
	Host       *html.Node
	Name       string
	Variable   string
	Params     map[string]string
	Errors     *ErrorPresenter
	Bus        *events.Bus
	Editors    *editor.Table
	Fetcher    host.Fetcher
	Resolver   *resolve.Resolver
	Reporter   logging.Reporter
	Logger     logging.Logger
	Translator i18n.Translator
	Locale     string

	subs []*events.Subscription
}

// Param returns a resolved parameter.
func (c *Context) Param(name string) string {
	return c.Params[name]
}

// Fields returns the fields bound to the binding variable.
func (c *Context) Fields() []field.Field {
	return c.FieldsFor(c.Variable)
}

// FieldsFor returns the fields bound to variable. Fields inside the host
// subtree win; otherwise every editor of the document is searched.
func (c *Context) FieldsFor(variable string) []field.Field {
	if c.Editors == nil || variable == "" {
		return nil
	}
	var local, global []field.Field
	for _, e := range c.Editors.Editors() {
		for _, f := range e.Fields() {
			if f.Variable() != variable {
				continue
			}
			if dom.Contains(c.Host, f.Node()) {
				local = append(local, f)
			}
			global = append(global, f)
		}
	}
	if len(local) > 0 {
		return local
	}
	return global
}

// OnUpdate calls fn whenever a field bound to variable is updated by the user.
func (c *Context) OnUpdate(variable string, fn func(ctx context.Context, values []string)) *events.Subscription {
	return c.On(events.Update, func(ctx context.Context, ev *events.Event) {
		p, ok := ev.Payload.(events.UpdatePayload)
		if !ok || p.Variable != variable {
			return
		}
		fn(ctx, p.Values)
	})
}

// On subscribes fn at the document root.
func (c *Context) On(name events.Name, fn events.Handler) *events.Subscription {
	return c.track(c.Bus.On(c.root(), name, fn))
}

// OnHost subscribes fn on the host node.
func (c *Context) OnHost(name events.Name, fn events.Handler) *events.Subscription {
	return c.track(c.Bus.On(c.Host, name, fn))
}

func (c *Context) track(sub *events.Subscription) *events.Subscription {
	c.subs = append(c.subs, sub)
	return sub
}

// Stop removes every subscription made through the context.
func (c *Context) Stop() {
	for _, sub := range c.subs {
		c.Bus.Off(sub)
	}
	c.subs = nil
}

// Attached reports whether the host node is still part of the document.
func (c *Context) Attached() bool {
	return dom.Contains(c.root(), c.Host)
}

func (c *Context) root() *html.Node {
	if c.Document != nil {
		return c.Document
	}
	return dom.Root(c.Host)
}

// Report forwards err to the reporter, prefixed with the binding name.
func (c *Context) Report(ctx context.Context, err error) {
	if err == nil || c.Reporter == nil {
		return
	}
	c.Reporter.Report(ctx, fmt.Errorf("binding %s(%s): %w", c.Name, c.Variable, err))
}

func (c *Context) translate(key string, vars i18n.Vars) string {
	if c.Translator == nil {
		return i18n.Default().Translate(c.Locale, key, vars)
	}
	return c.Translator.Translate(c.Locale, key, vars)
}
