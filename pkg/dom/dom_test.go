package dom_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-axelforms/pkg/dom"
)

func TestClasses_AddRemoveToggle(t *testing.T) {
	n := dom.Element("div", "class", "a")
	dom.AddClass(n, "b", "a", "c")
	if diff := cmp.Diff([]string{"a", "b", "c"}, dom.Classes(n)); diff != "" {
		t.Fatalf("classes mismatch (-want +got):\n%s", diff)
	}

	dom.RemoveClass(n, "a", "c")
	dom.ToggleClass(n, "d", true)
	dom.ToggleClass(n, "b", false)
	if got := dom.AttrOr(n, "class", ""); got != "d" {
		t.Fatalf("expected class %q, got %q", "d", got)
	}

	dom.RemoveClass(n, "d")
	if dom.HasAttr(n, "class") {
		t.Fatalf("expected empty class attribute to be dropped")
	}
}

func TestSelector(t *testing.T) {
	doc, err := dom.ParseString(`<body><div id="a" class="control-group"><fieldset data-scope="x"><span class="label">L</span></fieldset></div></body>`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	span := dom.First(doc, dom.Selector("span.label"))
	if span == nil {
		t.Fatalf("span.label not found")
	}

	cases := map[string]string{
		"div.control-group":       "div",
		"fieldset[data-scope=x]":  "fieldset",
		"#a":                      "div",
		"p, fieldset[data-scope]": "fieldset",
	}
	for sel, want := range cases {
		got := dom.Closest(span, dom.Selector(sel))
		if got == nil || got.Data != want {
			t.Fatalf("closest %q: want %s, got %v", sel, want, got)
		}
	}
	if dom.Closest(span, dom.Selector("")) != nil {
		t.Fatalf("empty selector must not match")
	}
}

func TestCloneIsDetachedAndDeep(t *testing.T) {
	nodes, err := dom.ParseFragment(`<li class="item"><input name="x" value="1"></li>`, nil)
	if err != nil {
		t.Fatalf("parse fragment: %v", err)
	}
	if len(nodes) != 1 {
		t.Fatalf("expected one node, got %d", len(nodes))
	}
	clone := dom.Clone(nodes[0])
	if clone.Parent != nil {
		t.Fatalf("clone must be detached")
	}
	input := dom.First(clone, dom.Tag("input"))
	dom.SetAttr(input, "value", "2")
	if got := dom.AttrOr(dom.First(nodes[0], dom.Tag("input")), "value", ""); got != "1" {
		t.Fatalf("original mutated through clone: %q", got)
	}
}

func TestInsertAfterAndPrepend(t *testing.T) {
	parent := dom.Element("ul")
	a := dom.Element("li", "id", "a")
	parent.AppendChild(a)
	dom.InsertAfter(a, dom.Element("li", "id", "b"))
	dom.Prepend(parent, dom.Element("li", "id", "z"))

	var ids []string
	for _, c := range dom.Children(parent) {
		ids = append(ids, dom.AttrOr(c, "id", ""))
	}
	if diff := cmp.Diff([]string{"z", "a", "b"}, ids); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
}
