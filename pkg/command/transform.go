package command

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"golang.org/x/net/html"

	"github.com/goliatone/go-axelforms/pkg/dom"
	"github.com/goliatone/go-axelforms/pkg/editor"
	"github.com/goliatone/go-axelforms/pkg/events"
	"github.com/goliatone/go-axelforms/pkg/field"
	"github.com/goliatone/go-axelforms/pkg/host"
	"github.com/goliatone/go-axelforms/pkg/scan"
)

// ClassEdition is added to a host node once its template is materialized.
const ClassEdition = "edition"

// State is the lifecycle state of a transform.
type State int

const (
	Uninitialized State = iota
	Ready
	Stale
)

func (s State) String() string {
	switch s {
	case Ready:
		return "ready"
	case Stale:
		return "stale"
	default:
		return "uninitialized"
	}
}

// Transform is the editor-producing command. It owns the editor key of its
// node and stands in the editor table for the editor it materializes, so
// commands can resolve it before the template is loaded.
type Transform struct {
	env      *Env
	node     *html.Node
	key      string
	implicit bool
	state    State
	template string
	ed       editor.Editor
}

var (
	_ editor.Editor = (*Transform)(nil)
	_ Starter       = (*Transform)(nil)
)

// NewTransform builds the transform for node. A node whose data-command
// does not name transform is implicit and transforms on Start.
func NewTransform(env *Env, node *html.Node) *Transform {
	tokens := scan.Split(dom.AttrOr(node, scan.AttrCommand, ""))
	implicit := true
	for _, token := range tokens {
		if token == scan.TransformCommand {
			implicit = false
		}
	}
	t := &Transform{env: env, node: node, implicit: implicit, key: EditorKey(env, node)}
	if dom.HasAttr(node, AttrCancel) {
		env.Subscribe(node, scan.TransformCommand, events.CancelEdit, t.cancelled)
	}
	return t
}

func newTransform(env *Env, node *html.Node) (Command, error) {
	return NewTransform(env, node), nil
}

// EditorKey derives the editor key of node: data-target, then id, then a key
// stamped by an earlier install, then a fresh generated key which is stamped
// on the node so that reinstalling finds the same key.
func EditorKey(env *Env, node *html.Node) string {
	for _, name := range []string{AttrTarget, "id", AttrEditorKey} {
		if key := strings.TrimSpace(dom.AttrOr(node, name, "")); key != "" {
			return key
		}
	}
	key := editor.KeyPrefix
	if env.Editors != nil {
		key = env.Editors.NextKey()
	}
	dom.SetAttr(node, AttrEditorKey, key)
	return key
}

// Implicit reports whether the transform runs on install.
func (t *Transform) Implicit() bool { return t.implicit }

// State returns the lifecycle state.
func (t *Transform) State() State { return t.state }

// Start transforms implicit declarations.
func (t *Transform) Start(ctx context.Context) error {
	if !t.implicit {
		return nil
	}
	return t.Transform(ctx, "", "")
}

// Execute transforms with the declared template and data source.
func (t *Transform) Execute(ctx context.Context) error {
	return t.Transform(ctx, "", "")
}

// Transform loads tpl into the node and dataURL into the editor. Empty
// arguments fall back to data-template and data-src. Requesting the loaded
// template again only reloads the data.
func (t *Transform) Transform(ctx context.Context, tpl, dataURL string) error {
	if tpl == "" {
		tpl = dom.AttrOr(t.node, scan.AttrTemplate, "")
	}
	if strings.TrimSpace(tpl) == "" {
		return fmt.Errorf("%w: %s", ErrMissingAttr, scan.AttrTemplate)
	}
	if dataURL == "" {
		dataURL = dom.AttrOr(t.node, AttrSrc, "")
	}
	templateURL := t.env.resolve(tpl, t.node)

	if t.state == Ready && templateURL == t.template {
		return t.reload(ctx, dataURL)
	}
	if t.env.Host == nil {
		t.state = Stale
		return errors.New("command: transform: no host configured")
	}

	ed, err := t.env.Host.Materialize(ctx, host.Request{
		Key:         t.key,
		Target:      t.node,
		TemplateURL: templateURL,
		OnChange:    t.changed,
	})
	if err != nil {
		t.state = Stale
		return fmt.Errorf("transform %s: %w", t.key, err)
	}
	t.ed = ed
	t.template = templateURL
	t.state = Ready
	dom.AddClass(t.node, ClassEdition)
	if class := templateClass(templateURL); class != "" {
		dom.AddClass(t.node, class)
	}
	t.env.logger().Debug("editor materialized", "key", t.key, "template", templateURL, "fields", len(ed.Fields()))

	var loadErr error
	if dataURL != "" {
		loadErr = t.load(ctx, dataURL)
	}
	if !t.implicit && t.env.Installer != nil && t.node.FirstChild != nil {
		t.env.Installer.InstallCommands(ctx, t.env.Document, t.node.FirstChild, t.node.LastChild)
		t.env.Installer.InstallBindings(ctx, t.env.Document, t.node.FirstChild, t.node.LastChild)
	}
	t.env.dispatch(ctx, t.node, events.ContentReady, events.ContentReadyPayload{Editor: t.key})
	return loadErr
}

func (t *Transform) reload(ctx context.Context, dataURL string) error {
	var err error
	if dataURL == "" {
		t.ed.Reset()
	} else {
		err = t.load(ctx, dataURL)
	}
	t.env.dispatch(ctx, t.node, events.ContentReady, events.ContentReadyPayload{Editor: t.key})
	return err
}

func (t *Transform) load(ctx context.Context, dataURL string) error {
	fetcher := t.env.fetcher()
	if fetcher == nil {
		return errors.New("command: transform: no client configured")
	}
	src := t.env.resolve(dataURL, t.node)
	data, err := fetcher.Fetch(ctx, src)
	if err != nil {
		return fmt.Errorf("load %s into %s: %w", src, t.key, err)
	}
	if err := t.ed.Load(data); err != nil {
		return fmt.Errorf("load %s into %s: %w", src, t.key, err)
	}
	return nil
}

func (t *Transform) changed(ctx context.Context, f field.Field) {
	t.env.dispatch(ctx, f.Node(), events.Update, events.UpdatePayload{Variable: f.Variable(), Values: f.Data()})
}

func (t *Transform) cancelled(ctx context.Context, _ *events.Event) {
	if target := strings.TrimSpace(dom.AttrOr(t.node, AttrCancel, "")); target != "" {
		t.env.navigate(ctx, t.env.resolve(target, t.node))
	}
}

// templateClass is the base file name of the template without extension.
func templateClass(templateURL string) string {
	p := templateURL
	if u, err := url.Parse(templateURL); err == nil {
		p = u.Path
	}
	base := path.Base(p)
	if base == "." || base == "/" {
		return ""
	}
	return strings.TrimSuffix(base, path.Ext(base))
}

func (t *Transform) Key() string      { return t.key }
func (t *Transform) Node() *html.Node { return t.node }
func (t *Transform) Template() string { return t.template }
func (t *Transform) Ready() bool      { return t.state == Ready }

func (t *Transform) Fields() []field.Field {
	if t.ed == nil {
		return nil
	}
	return t.ed.Fields()
}

func (t *Transform) Field(variable string) (field.Field, bool) {
	if t.ed == nil {
		return nil, false
	}
	return t.ed.Field(variable)
}

func (t *Transform) Adopt(f field.Field) {
	if t.ed != nil {
		t.ed.Adopt(f)
	}
}

func (t *Transform) Serialize() ([]byte, error) {
	if t.ed == nil {
		return nil, fmt.Errorf("%w: %s", editor.ErrNotReady, t.key)
	}
	return t.ed.Serialize()
}

func (t *Transform) Load(data []byte) error {
	if t.ed == nil {
		return fmt.Errorf("%w: %s", editor.ErrNotReady, t.key)
	}
	return t.ed.Load(data)
}

func (t *Transform) Reset() {
	if t.ed != nil {
		t.ed.Reset()
	}
}

func (t *Transform) Refresh() error {
	if t.ed == nil {
		return fmt.Errorf("%w: %s", editor.ErrNotReady, t.key)
	}
	return t.ed.Refresh()
}

func (t *Transform) Modified() bool {
	return t.ed != nil && t.ed.Modified()
}
