// Package host is the boundary with the template editing framework: it turns
// a template URL into a live editor attached to a target node.
package host

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/net/html"

	"github.com/goliatone/go-axelforms/pkg/dom"
	"github.com/goliatone/go-axelforms/pkg/editor"
	"github.com/goliatone/go-axelforms/pkg/field"
	"github.com/goliatone/go-axelforms/pkg/logging"
)

// Request describes one materialization.
type Request struct {
	Key         string
	Target      *html.Node
	TemplateURL string
	// OnChange observes user updates of the materialized fields.
	OnChange field.ChangeFunc
}

// Host materializes templates into editors.
type Host interface {
	Materialize(ctx context.Context, req Request) (editor.Editor, error)
}

// Fetcher retrieves a resource by URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// FetcherFunc adapts a function into a Fetcher.
type FetcherFunc func(ctx context.Context, url string) ([]byte, error)

// Fetch delegates to the function.
func (fn FetcherFunc) Fetch(ctx context.Context, url string) ([]byte, error) {
	return fn(ctx, url)
}

// Option customises a Fragment host.
type Option func(*Fragment)

// WithReporter routes field build failures to r.
func WithReporter(r logging.Reporter) Option {
	return func(f *Fragment) {
		f.reporter = r
	}
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(f *Fragment) {
		f.logger = l
	}
}

// Fragment is the default host. It fetches the template markup, parses it as
// children of the target and wraps the target in an editor.Document.
type Fragment struct {
	fetcher  Fetcher
	plugins  *field.Registry
	reporter logging.Reporter
	logger   logging.Logger
}

var _ Host = (*Fragment)(nil)

// NewFragment builds a fragment host.
func NewFragment(fetcher Fetcher, plugins *field.Registry, options ...Option) *Fragment {
	f := &Fragment{fetcher: fetcher, plugins: plugins}
	for _, opt := range options {
		if opt != nil {
			opt(f)
		}
	}
	if f.plugins == nil {
		f.plugins = field.NewRegistry()
	}
	if f.logger == nil {
		f.logger = logging.Nop()
	}
	return f
}

// Materialize replaces the target's children with the template content. The
// target is left untouched when fetching or parsing fails.
func (f *Fragment) Materialize(ctx context.Context, req Request) (editor.Editor, error) {
	if req.Target == nil {
		return nil, errors.New("host: materialize: nil target")
	}
	if strings.TrimSpace(req.TemplateURL) == "" {
		return nil, errors.New("host: materialize: empty template url")
	}
	if f.fetcher == nil {
		return nil, errors.New("host: materialize: no fetcher configured")
	}

	raw, err := f.fetcher.Fetch(ctx, req.TemplateURL)
	if err != nil {
		return nil, errors.Wrapf(err, "host: fetch template %s", req.TemplateURL)
	}
	nodes, err := dom.ParseFragment(stripProlog(string(raw)), req.Target)
	if err != nil {
		return nil, errors.Wrapf(err, "host: parse template %s", req.TemplateURL)
	}

	dom.RemoveChildren(req.Target)
	for _, n := range nodes {
		if n.Type == html.CommentNode {
			continue
		}
		req.Target.AppendChild(n)
	}
	f.logger.Debug("template materialized", "key", req.Key, "template", req.TemplateURL, "nodes", len(nodes))

	doc, err := editor.NewDocument(req.Key, req.Target, req.TemplateURL, f.plugins, editor.WithChangeHook(req.OnChange))
	if err != nil && f.reporter != nil {
		f.reporter.Report(ctx, errors.Wrapf(err, "host: template %s", req.TemplateURL))
	}
	return doc, nil
}

// stripProlog drops a leading XML declaration, which an HTML parser would
// otherwise keep as a bogus comment.
func stripProlog(markup string) string {
	trimmed := strings.TrimSpace(markup)
	if !strings.HasPrefix(trimmed, "<?xml") {
		return markup
	}
	if end := strings.Index(trimmed, "?>"); end >= 0 {
		return trimmed[end+2:]
	}
	return markup
}
