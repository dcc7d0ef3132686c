package command

import (
	"context"
	"strings"

	"golang.org/x/net/html"

	"github.com/goliatone/go-axelforms/pkg/dom"
	"github.com/goliatone/go-axelforms/pkg/events"
	"github.com/goliatone/go-axelforms/pkg/registry"
	"github.com/goliatone/go-axelforms/pkg/scan"
)

// Built-in command names.
const (
	NameTransform = scan.TransformCommand
	NameSave      = "save"
	NameReset     = "reset"
	NameSubmit    = "submit"
	NameAdd       = "add"
	NameTrigger   = "trigger"
)

// RegisterBuiltins adds the built-in commands to r.
func RegisterBuiltins(r *registry.Registry[Spec]) {
	r.Register(NameTransform, Spec{Factory: newTransform})
	r.Register(NameSave, Spec{Factory: newSave, RequiresCheck: true})
	r.Register(NameReset, Spec{Factory: newReset, RequiresCheck: true})
	r.Register(NameSubmit, Spec{Factory: newSubmit, RequiresCheck: true})
	r.Register(NameAdd, Spec{Factory: newAdd, RequiresCheck: true})
	r.Register(NameTrigger, Spec{Factory: newTrigger, RequiresCheck: true})
}

// Reset clears the target editor, after confirmation when data-confirm is set.
type Reset struct {
	env  *Env
	node *html.Node
}

func newReset(env *Env, node *html.Node) (Command, error) {
	r := &Reset{env: env, node: node}
	env.OnClick(node, NameReset, r)
	return r, nil
}

func (r *Reset) Execute(ctx context.Context) error {
	ed, err := r.env.TargetEditor(r.node)
	if err != nil {
		return err
	}
	if msg := dom.AttrOr(r.node, AttrConfirm, ""); msg != "" && !r.env.confirm(ctx, msg) {
		return nil
	}
	ed.Reset()
	return nil
}

// Trigger dispatches data-trigger-event (axel-update by default) on the
// target editor. An update is sent once per field so bindings re-evaluate
// against the current values.
type Trigger struct {
	env  *Env
	node *html.Node
}

func newTrigger(env *Env, node *html.Node) (Command, error) {
	t := &Trigger{env: env, node: node}
	env.OnClick(node, NameTrigger, t)
	return t, nil
}

func (t *Trigger) Execute(ctx context.Context) error {
	ed, err := t.env.TargetEditor(t.node)
	if err != nil {
		return err
	}
	name := events.Name(strings.TrimSpace(dom.AttrOr(t.node, AttrTriggerEvent, string(events.Update))))
	switch name {
	case events.Update:
		for _, f := range ed.Fields() {
			t.env.dispatch(ctx, f.Node(), events.Update, events.UpdatePayload{Variable: f.Variable(), Values: f.Data()})
		}
	case events.ContentReady:
		t.env.dispatch(ctx, ed.Node(), name, events.ContentReadyPayload{Editor: ed.Key()})
	default:
		t.env.dispatch(ctx, ed.Node(), name, nil)
	}
	return nil
}
