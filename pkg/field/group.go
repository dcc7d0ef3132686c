package field

import (
	"context"

	"golang.org/x/net/html"
)

// RequiredGroup stands for a set of fields of which at least one must be
// filled. It is always required and counts as modified as soon as any member
// holds a meaningful value; data operations fan out to the members.
type RequiredGroup struct {
	*base
	members []Field
}

// NewRequiredGroup builds a proxy over members anchored at node.
func NewRequiredGroup(node *html.Node, label string, members []Field) *RequiredGroup {
	g := &RequiredGroup{base: newBase(node, "required-group"), members: append([]Field(nil), members...)}
	g.self = g
	g.required = true
	if label != "" {
		g.label = label
	}
	return g
}

// Members returns the proxied fields.
func (g *RequiredGroup) Members() []Field {
	return append([]Field(nil), g.members...)
}

func (g *RequiredGroup) Multiple() bool { return true }

func (g *RequiredGroup) Data() []string {
	var out []string
	for _, m := range g.members {
		out = append(out, m.Data()...)
	}
	return out
}

// Load is a no-op: members load their own data.
func (g *RequiredGroup) Load([]string) {}

// Update notifies the group observers without touching members.
func (g *RequiredGroup) Update(ctx context.Context, _ []string) {
	g.notify(ctx)
}

func (g *RequiredGroup) Reset() {
	for _, m := range g.members {
		m.Reset()
	}
}

func (g *RequiredGroup) Modified() bool {
	for _, m := range g.members {
		if m.Modified() {
			return true
		}
	}
	return false
}

// SetRequired is ignored: a required group is always required.
func (g *RequiredGroup) SetRequired(bool) {}

func (g *RequiredGroup) Focus() {
	if len(g.members) > 0 {
		g.members[0].Focus()
	}
}
