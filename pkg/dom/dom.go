package dom

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Parse reads a complete HTML document.
func Parse(r io.Reader) (*html.Node, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("dom: parse document: %w", err)
	}
	return doc, nil
}

// ParseString is Parse for in-memory markup.
func ParseString(markup string) (*html.Node, error) {
	return Parse(strings.NewReader(markup))
}

// ParseFragment parses markup as the children of context. A nil context parses
// the fragment as if it were placed inside <body>.
func ParseFragment(markup string, context *html.Node) ([]*html.Node, error) {
	if context == nil || context.Type != html.ElementNode {
		context = &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	}
	nodes, err := html.ParseFragment(strings.NewReader(markup), context)
	if err != nil {
		return nil, fmt.Errorf("dom: parse fragment: %w", err)
	}
	return nodes, nil
}

// Render serialises n and its descendants.
func Render(n *html.Node) string {
	if n == nil {
		return ""
	}
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return ""
	}
	return buf.String()
}

// InnerHTML serialises the children of n.
func InnerHTML(n *html.Node) string {
	if n == nil {
		return ""
	}
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		_ = html.Render(&buf, c)
	}
	return buf.String()
}

// Attr returns the value of the named attribute.
func Attr(n *html.Node, name string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, attr := range n.Attr {
		if attr.Namespace == "" && attr.Key == name {
			return attr.Val, true
		}
	}
	return "", false
}

// AttrOr returns the named attribute or def when it is missing.
func AttrOr(n *html.Node, name, def string) string {
	if value, ok := Attr(n, name); ok {
		return value
	}
	return def
}

// HasAttr reports whether n carries the named attribute.
func HasAttr(n *html.Node, name string) bool {
	_, ok := Attr(n, name)
	return ok
}

// SetAttr adds or replaces an attribute.
func SetAttr(n *html.Node, name, value string) {
	if n == nil {
		return
	}
	for i := range n.Attr {
		if n.Attr[i].Namespace == "" && n.Attr[i].Key == name {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: name, Val: value})
}

// RemoveAttr drops the named attribute if present.
func RemoveAttr(n *html.Node, name string) {
	if n == nil {
		return
	}
	out := n.Attr[:0]
	for _, attr := range n.Attr {
		if attr.Namespace == "" && attr.Key == name {
			continue
		}
		out = append(out, attr)
	}
	n.Attr = out
}

// Classes returns the class list of n.
func Classes(n *html.Node) []string {
	return strings.Fields(AttrOr(n, "class", ""))
}

// HasClass reports whether n has the class.
func HasClass(n *html.Node, class string) bool {
	for _, c := range Classes(n) {
		if c == class {
			return true
		}
	}
	return false
}

// AddClass appends classes that are not already present.
func AddClass(n *html.Node, classes ...string) {
	if n == nil {
		return
	}
	current := Classes(n)
	changed := false
	for _, class := range classes {
		class = strings.TrimSpace(class)
		if class == "" || contains(current, class) {
			continue
		}
		current = append(current, class)
		changed = true
	}
	if changed {
		SetAttr(n, "class", strings.Join(current, " "))
	}
}

// RemoveClass removes classes; the attribute is dropped when it ends up empty.
func RemoveClass(n *html.Node, classes ...string) {
	if n == nil {
		return
	}
	current := Classes(n)
	out := current[:0]
	for _, c := range current {
		if contains(classes, c) {
			continue
		}
		out = append(out, c)
	}
	if len(out) == 0 {
		RemoveAttr(n, "class")
		return
	}
	SetAttr(n, "class", strings.Join(out, " "))
}

// ToggleClass adds the class when on is true and removes it otherwise.
func ToggleClass(n *html.Node, class string, on bool) {
	if on {
		AddClass(n, class)
		return
	}
	RemoveClass(n, class)
}

// Disable marks a control as disabled, both the attribute and the visual class.
func Disable(n *html.Node) {
	SetAttr(n, "disabled", "disabled")
	AddClass(n, "disabled")
}

// Enable reverses Disable.
func Enable(n *html.Node) {
	RemoveAttr(n, "disabled")
	RemoveClass(n, "disabled")
}

// Disabled reports whether Disable was applied.
func Disabled(n *html.Node) bool {
	return HasAttr(n, "disabled")
}

// Hide and Show toggle the "hide" class used for visibility.
func Hide(n *html.Node) { AddClass(n, "hide") }

// Show removes the "hide" class.
func Show(n *html.Node) { RemoveClass(n, "hide") }

// Walk visits element nodes under root in document order, root included. The
// callback returns false to skip the children of the visited node.
func Walk(root *html.Node, fn func(*html.Node) bool) {
	if root == nil {
		return
	}
	if root.Type == html.ElementNode {
		if !fn(root) {
			return
		}
	}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		Walk(c, fn)
	}
}

// Find collects the elements under root (root included) accepted by match.
func Find(root *html.Node, match Matcher) []*html.Node {
	var out []*html.Node
	Walk(root, func(n *html.Node) bool {
		if match(n) {
			out = append(out, n)
		}
		return true
	})
	return out
}

// First returns the first element under root accepted by match.
func First(root *html.Node, match Matcher) *html.Node {
	var found *html.Node
	Walk(root, func(n *html.Node) bool {
		if found != nil {
			return false
		}
		if match(n) {
			found = n
			return false
		}
		return true
	})
	return found
}

// ByID returns the element with the given id.
func ByID(root *html.Node, id string) *html.Node {
	if id == "" {
		return nil
	}
	return First(root, func(n *html.Node) bool {
		value, ok := Attr(n, "id")
		return ok && value == id
	})
}

// Closest returns n or its nearest ancestor accepted by match.
func Closest(n *html.Node, match Matcher) *html.Node {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.Type == html.ElementNode && match(cur) {
			return cur
		}
	}
	return nil
}

// Root returns the top-most ancestor of n.
func Root(n *html.Node) *html.Node {
	if n == nil {
		return nil
	}
	for n.Parent != nil {
		n = n.Parent
	}
	return n
}

// Body returns the <body> element of doc, or nil.
func Body(doc *html.Node) *html.Node {
	return First(doc, Tag("body"))
}

// Contains reports whether n is root or one of its descendants.
func Contains(root, n *html.Node) bool {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur == root {
			return true
		}
	}
	return false
}

// Text concatenates the text content of n.
func Text(n *html.Node) string {
	if n == nil {
		return ""
	}
	var sb strings.Builder
	var visit func(*html.Node)
	visit = func(cur *html.Node) {
		if cur.Type == html.TextNode {
			sb.WriteString(cur.Data)
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(n)
	return sb.String()
}

// SetText replaces the children of n with a single text node.
func SetText(n *html.Node, text string) {
	if n == nil {
		return
	}
	RemoveChildren(n)
	n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
}

// Children returns the element children of n.
func Children(n *html.Node) []*html.Node {
	var out []*html.Node
	if n == nil {
		return out
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, c)
		}
	}
	return out
}

// RemoveChildren detaches every child of n.
func RemoveChildren(n *html.Node) {
	for n.FirstChild != nil {
		n.RemoveChild(n.FirstChild)
	}
}

// Detach removes n from its parent.
func Detach(n *html.Node) {
	if n != nil && n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// InsertAfter places n right after ref.
func InsertAfter(ref, n *html.Node) {
	if ref == nil || ref.Parent == nil {
		return
	}
	if ref.NextSibling == nil {
		ref.Parent.AppendChild(n)
		return
	}
	ref.Parent.InsertBefore(n, ref.NextSibling)
}

// Prepend inserts n as the first child of parent.
func Prepend(parent, n *html.Node) {
	if parent.FirstChild == nil {
		parent.AppendChild(n)
		return
	}
	parent.InsertBefore(n, parent.FirstChild)
}

// Clone deep-copies n. The copy is detached.
func Clone(n *html.Node) *html.Node {
	if n == nil {
		return nil
	}
	out := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
		Attr:      append([]html.Attribute(nil), n.Attr...),
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out.AppendChild(Clone(c))
	}
	return out
}

// Element builds a detached element.
func Element(tag string, attrs ...string) *html.Node {
	n := &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}
	for i := 0; i+1 < len(attrs); i += 2 {
		SetAttr(n, attrs[i], attrs[i+1])
	}
	return n
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
