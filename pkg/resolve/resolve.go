// Package resolve expands the URL rewrite notation accepted by declarative
// attributes (data-template, data-src, ajax urls):
//
//	~/path   rebased onto the current page URL
//	^/path   rebased onto the nearest ancestor data-axel-base (default "/")
//	$^       replaced by the last path segment of the current page URL
//
// Query strings and fragments of the page URL never leak into the result.
package resolve

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/goliatone/go-axelforms/pkg/dom"
)

// AttrBase is the ancestor attribute consulted by the ^/ notation.
const AttrBase = "data-axel-base"

// Resolver rewrites declarative URLs relative to one page.
type Resolver struct {
	base    string
	segment string
}

// New builds a resolver for the page at pageURL. An empty pageURL yields a
// resolver whose page-relative forms resolve against "".
func New(pageURL string) (*Resolver, error) {
	r := &Resolver{}
	if strings.TrimSpace(pageURL) == "" {
		return r, nil
	}
	parsed, err := url.Parse(strings.TrimSpace(pageURL))
	if err != nil {
		return nil, fmt.Errorf("resolve: page url %q: %w", pageURL, err)
	}
	parsed.RawQuery = ""
	parsed.ForceQuery = false
	parsed.Fragment = ""
	parsed.RawFragment = ""

	r.base = strings.TrimRight(parsed.String(), "/")
	path := strings.TrimRight(parsed.Path, "/")
	if idx := strings.LastIndex(path, "/"); idx >= 0 {
		r.segment = path[idx+1:]
	} else {
		r.segment = path
	}
	return r, nil
}

// MustNew is New that panics, for tests and init-time wiring.
func MustNew(pageURL string) *Resolver {
	r, err := New(pageURL)
	if err != nil {
		panic(err)
	}
	return r
}

// PageBase returns the page URL stripped of query, fragment and trailing slash.
func (r *Resolver) PageBase() string {
	if r == nil {
		return ""
	}
	return r.base
}

// LastSegment returns the last path segment of the page URL.
func (r *Resolver) LastSegment() string {
	if r == nil {
		return ""
	}
	return r.segment
}

// Resolve rewrites value. node anchors the ^/ lookup and may be nil.
func (r *Resolver) Resolve(value string, node *html.Node) string {
	out := strings.TrimSpace(value)
	if out == "" {
		return ""
	}
	if strings.Contains(out, "$^") {
		out = strings.ReplaceAll(out, "$^", r.LastSegment())
	}
	switch {
	case strings.HasPrefix(out, "~/"):
		return r.PageBase() + "/" + out[2:]
	case strings.HasPrefix(out, "^/"):
		base := "/"
		if anchor := dom.Closest(node, dom.WithAttr(AttrBase)); anchor != nil {
			base = dom.AttrOr(anchor, AttrBase, "/")
		}
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		return base + out[2:]
	}
	return out
}
