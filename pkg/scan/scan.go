package scan

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/goliatone/go-axelforms/pkg/dom"
)

// Declarative attributes recognised by the scanner.
const (
	AttrTemplate = "data-template"
	AttrCommand  = "data-command"
	AttrBinding  = "data-binding"

	// TransformCommand is the command token that turns a data-template node
	// into an explicit (on demand) editor.
	TransformCommand = "transform"
)

// Declaration is one node carrying a declarative attribute together with the
// names it declares.
type Declaration struct {
	Node  *html.Node
	Names []string
	// Implicit is set on editor declarations that have no data-command and
	// therefore transform as soon as they are installed.
	Implicit bool
}

// Snapshot is the ordered work list produced by a scan. It is computed in full
// before any controller is instantiated: instantiation (a transform replacing
// a subtree, for instance) mutates the tree, so a live traversal would see
// half-installed nodes or skip siblings.
type Snapshot struct {
	Editors  []Declaration
	Commands []Declaration
	Bindings []Declaration
}

// Empty reports whether the scan found nothing.
func (s Snapshot) Empty() bool {
	return len(s.Editors) == 0 && len(s.Commands) == 0 && len(s.Bindings) == 0
}

// Document scans the content region of doc, i.e. everything below <body>.
// Documents without a body element are scanned from the root.
func Document(doc *html.Node) Snapshot {
	root := dom.Body(doc)
	if root == nil {
		root = doc
	}
	c := newCollector()
	dom.Walk(root, c.visit)
	return c.snapshot()
}

// Slice scans the sibling range start..end (inclusive) and their descendants.
// This is what runs after a repeated section inserts new siblings: nodes
// outside the range are already live and must not be installed twice. A nil
// end scans start only; an end that is not a following sibling of start stops
// the scan at the last sibling.
func Slice(start, end *html.Node) Snapshot {
	c := newCollector()
	for cur := start; cur != nil; cur = cur.NextSibling {
		dom.Walk(cur, c.visit)
		if end == nil || cur == end {
			break
		}
	}
	return c.snapshot()
}

// Split breaks a whitespace separated attribute value into names.
func Split(value string) []string {
	return strings.Fields(value)
}

type bucket struct {
	seen  map[*html.Node]struct{}
	decls []Declaration
}

func (b *bucket) add(decl Declaration) {
	if _, ok := b.seen[decl.Node]; ok {
		return
	}
	b.seen[decl.Node] = struct{}{}
	b.decls = append(b.decls, decl)
}

type collector struct {
	editors  bucket
	commands bucket
	bindings bucket
}

func newCollector() *collector {
	return &collector{
		editors:  bucket{seen: make(map[*html.Node]struct{})},
		commands: bucket{seen: make(map[*html.Node]struct{})},
		bindings: bucket{seen: make(map[*html.Node]struct{})},
	}
}

func (c *collector) visit(n *html.Node) bool {
	template, hasTemplate := dom.Attr(n, AttrTemplate)
	commandValue, hasCommand := dom.Attr(n, AttrCommand)
	tokens := Split(commandValue)

	switch {
	case hasTemplate && !hasCommand:
		c.editors.add(Declaration{Node: n, Names: []string{template}, Implicit: true})
	case hasCommand && containsToken(tokens, TransformCommand):
		c.editors.add(Declaration{Node: n, Names: []string{template}})
		if rest := withoutToken(tokens, TransformCommand); len(rest) > 0 {
			c.commands.add(Declaration{Node: n, Names: rest})
		}
	case hasCommand && len(tokens) > 0:
		c.commands.add(Declaration{Node: n, Names: tokens})
	}

	if names := Split(dom.AttrOr(n, AttrBinding, "")); len(names) > 0 {
		c.bindings.add(Declaration{Node: n, Names: names})
	}
	return true
}

func (c *collector) snapshot() Snapshot {
	return Snapshot{
		Editors:  cloneDecls(c.editors.decls),
		Commands: cloneDecls(c.commands.decls),
		Bindings: cloneDecls(c.bindings.decls),
	}
}

func cloneDecls(in []Declaration) []Declaration {
	if len(in) == 0 {
		return nil
	}
	out := make([]Declaration, len(in))
	for i, decl := range in {
		decl.Names = append([]string(nil), decl.Names...)
		out[i] = decl
	}
	return out
}

func containsToken(tokens []string, token string) bool {
	for _, t := range tokens {
		if t == token {
			return true
		}
	}
	return false
}

func withoutToken(tokens []string, token string) []string {
	var out []string
	for _, t := range tokens {
		if t != token {
			out = append(out, t)
		}
	}
	return out
}
