package binding

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/goliatone/go-axelforms/pkg/dom"
	"github.com/goliatone/go-axelforms/pkg/events"
)

// Attributes consulted by the error presenter.
const (
	AttrErrorScope = "data-error-scope"
	AttrError      = "data-error"
)

// ClassInvalid marks a field, a label or a binding host in error.
const ClassInvalid = "af-invalid"

// ErrorPresenter shows and hides the error element of a binding. The element
// is the node carrying data-error="<variable>" inside the error scope: the
// nearest ancestor of the host matching the host's data-error-scope selector,
// or the document when the attribute is absent or nothing matches.
type ErrorPresenter struct {
	host     *html.Node
	variable string
	scope    *html.Node
}

// NewErrorPresenter resolves the error scope of host.
func NewErrorPresenter(host *html.Node, variable string) *ErrorPresenter {
	p := &ErrorPresenter{host: host, variable: variable}
	if sel := strings.TrimSpace(dom.AttrOr(host, AttrErrorScope, "")); sel != "" {
		p.scope = events.Scope(host, dom.Selector(sel))
	} else {
		p.scope = dom.Root(host)
	}
	return p
}

// Scope returns the resolved error scope.
func (p *ErrorPresenter) Scope() *html.Node { return p.scope }

// Element returns the error element, or nil.
func (p *ErrorPresenter) Element() *html.Node {
	return dom.First(p.scope, dom.AttrEquals(AttrError, p.variable))
}

// Show reveals the error element and marks the host.
func (p *ErrorPresenter) Show() {
	if el := p.Element(); el != nil {
		dom.Show(el)
	}
	dom.AddClass(p.host, ClassInvalid)
}

// Hide conceals the error element and clears the host mark.
func (p *ErrorPresenter) Hide() {
	if el := p.Element(); el != nil {
		dom.Hide(el)
	}
	dom.RemoveClass(p.host, ClassInvalid)
}

// Toggle shows the error when valid is false.
func (p *ErrorPresenter) Toggle(valid bool) {
	if valid {
		p.Hide()
		return
	}
	p.Show()
}
