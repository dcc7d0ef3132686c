package command

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/goliatone/go-axelforms/pkg/dom"
	"github.com/goliatone/go-axelforms/pkg/events"
)

// Add repeats the last node matching data-item inside the target editor. The
// copy is cleared, inserted after the original and announced with an
// item-added event, which triggers a slice install of the copy.
type Add struct {
	env  *Env
	node *html.Node
	item string
}

func newAdd(env *Env, node *html.Node) (Command, error) {
	item := strings.TrimSpace(dom.AttrOr(node, AttrItem, ""))
	if item == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingAttr, AttrItem)
	}
	a := &Add{env: env, node: node, item: item}
	env.OnClick(node, NameAdd, a)
	return a, nil
}

func (a *Add) Execute(ctx context.Context) error {
	ed, err := a.env.TargetEditor(a.node)
	if err != nil {
		return err
	}
	items := dom.Find(ed.Node(), dom.Selector(a.item))
	if len(items) == 0 {
		return fmt.Errorf("no %q item in %s", a.item, ed.Key())
	}
	last := items[len(items)-1]
	clone := dom.Clone(last)
	clearItem(clone)
	dom.InsertAfter(last, clone)

	if err := ed.Refresh(); err != nil {
		a.env.Report(ctx, fmt.Errorf("command add: %w", err))
	}
	a.env.dispatch(ctx, clone, events.ItemAdded, events.ItemAddedPayload{First: clone, Last: clone})
	return nil
}

// clearItem empties the controls of a copied item and drops the attributes
// that must stay unique in the page.
func clearItem(item *html.Node) {
	dom.Walk(item, func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return true
		}
		dom.RemoveAttr(n, "id")
		dom.RemoveAttr(n, AttrEditorKey)
		switch n.Data {
		case "input":
			dom.RemoveAttr(n, "checked")
			switch strings.ToLower(dom.AttrOr(n, "type", "text")) {
			case "checkbox", "radio", "submit", "button", "hidden":
			default:
				dom.RemoveAttr(n, "value")
			}
		case "textarea":
			dom.RemoveChildren(n)
		case "option":
			dom.RemoveAttr(n, "selected")
		}
		return true
	})
}
