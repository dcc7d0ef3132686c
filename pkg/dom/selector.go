package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// Matcher decides whether an element is selected.
type Matcher func(n *html.Node) bool

// Tag matches elements by tag name.
func Tag(name string) Matcher {
	name = strings.ToLower(name)
	return func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == name
	}
}

// Class matches elements carrying the class.
func Class(class string) Matcher {
	return func(n *html.Node) bool {
		return HasClass(n, class)
	}
}

// WithAttr matches elements carrying the attribute.
func WithAttr(name string) Matcher {
	return func(n *html.Node) bool {
		return HasAttr(n, name)
	}
}

// AttrEquals matches elements whose attribute equals value.
func AttrEquals(name, value string) Matcher {
	return func(n *html.Node) bool {
		got, ok := Attr(n, name)
		return ok && got == value
	}
}

// All matches when every matcher does.
func All(matchers ...Matcher) Matcher {
	return func(n *html.Node) bool {
		for _, m := range matchers {
			if !m(n) {
				return false
			}
		}
		return true
	}
}

// Any matches when at least one matcher does.
func Any(matchers ...Matcher) Matcher {
	return func(n *html.Node) bool {
		for _, m := range matchers {
			if m(n) {
				return true
			}
		}
		return false
	}
}

// Selector compiles the small selector subset used by declarative attributes:
// a comma separated list of compounds made of an optional tag, #id, .class and
// [attr] / [attr=value] parts, e.g. "div.control-group, fieldset[data-scope]".
// An empty selector matches nothing.
func Selector(sel string) Matcher {
	var alternatives []Matcher
	for _, part := range strings.Split(sel, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		alternatives = append(alternatives, compound(part))
	}
	if len(alternatives) == 0 {
		return func(*html.Node) bool { return false }
	}
	return Any(alternatives...)
}

func compound(sel string) Matcher {
	var parts []Matcher
	i := 0
	readIdent := func() string {
		start := i
		for i < len(sel) && !strings.ContainsRune(".#[", rune(sel[i])) {
			i++
		}
		return sel[start:i]
	}
	if tag := readIdent(); tag != "" && tag != "*" {
		parts = append(parts, Tag(tag))
	}
	for i < len(sel) {
		switch sel[i] {
		case '.':
			i++
			parts = append(parts, Class(readIdent()))
		case '#':
			i++
			parts = append(parts, AttrEquals("id", readIdent()))
		case '[':
			end := strings.IndexByte(sel[i:], ']')
			if end < 0 {
				end = len(sel) - i
			}
			body := sel[i+1 : i+end]
			i += end + 1
			if name, value, ok := strings.Cut(body, "="); ok {
				parts = append(parts, AttrEquals(strings.TrimSpace(name), strings.Trim(strings.TrimSpace(value), `"'`)))
			} else {
				parts = append(parts, WithAttr(strings.TrimSpace(body)))
			}
		default:
			i++
		}
	}
	parts = append(parts, func(n *html.Node) bool { return n.Type == html.ElementNode })
	return All(parts...)
}
