// Package command implements the controllers attached to data-command nodes
// and the table through which commands find each other.
package command

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/net/html"

	"github.com/goliatone/go-axelforms/pkg/dom"
	"github.com/goliatone/go-axelforms/pkg/editor"
	"github.com/goliatone/go-axelforms/pkg/events"
	"github.com/goliatone/go-axelforms/pkg/host"
	"github.com/goliatone/go-axelforms/pkg/i18n"
	"github.com/goliatone/go-axelforms/pkg/logging"
	"github.com/goliatone/go-axelforms/pkg/resolve"
	"github.com/goliatone/go-axelforms/pkg/transport"
)

// Attributes read by the built-in commands.
const (
	AttrTarget           = "data-target"
	AttrEditorKey        = "data-editor-key"
	AttrSrc              = "data-src"
	AttrCancel           = "data-cancel"
	AttrTransaction      = "data-transaction"
	AttrMethod           = "data-method"
	AttrConfirm          = "data-confirm"
	AttrValidationOutput = "data-validation-output"
	AttrValidationLabel  = "data-validation-label"
	AttrReplaceType      = "data-replace-type"
	AttrReplaceTarget    = "data-replace-target"
	AttrEventTarget      = "data-event-target"
	AttrForm             = "data-form"
	AttrItem             = "data-item"
	AttrTriggerEvent     = "data-trigger-event"
)

var (
	// ErrBusy is returned when a save is triggered while one is running.
	ErrBusy = errors.New("command: already running")
	// ErrNoEditor is returned when the target editor is not registered.
	ErrNoEditor = errors.New("command: no target editor")
	// ErrMissingAttr is returned by factories when a mandatory attribute is
	// absent.
	ErrMissingAttr = errors.New("command: missing attribute")
)

// Command is a live command bound to one trigger node.
type Command interface {
	Execute(ctx context.Context) error
}

// Starter is implemented by commands that act as soon as they are installed.
type Starter interface {
	Start(ctx context.Context) error
}

// Factory builds a command for node.
type Factory func(env *Env, node *html.Node) (Command, error)

// Spec is a command registry entry. RequiresCheck commands are only built
// when their data-target editor exists.
type Spec struct {
	Factory       Factory
	RequiresCheck bool
}

// Installer re-runs installation over a slice of the document.
type Installer interface {
	InstallCommands(ctx context.Context, doc, start, end *html.Node) []editor.Editor
	InstallBindings(ctx context.Context, doc, start, end *html.Node)
}

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(ctx context.Context, message string) bool
}

// ConfirmFunc adapts a function into a Confirmer.
type ConfirmFunc func(ctx context.Context, message string) bool

func (fn ConfirmFunc) Confirm(ctx context.Context, message string) bool { return fn(ctx, message) }

// Navigator leaves the page.
type Navigator interface {
	Navigate(ctx context.Context, url string)
}

// NavigateFunc adapts a function into a Navigator.
type NavigateFunc func(ctx context.Context, url string)

func (fn NavigateFunc) Navigate(ctx context.Context, url string) { fn(ctx, url) }

// Env is the page state shared by every command.
type Env struct {
	Document   *html.Node
	Editors    *editor.Table
	Commands   *Table
	Bus        *events.Bus
	Host       host.Host
	Client     *transport.Client
	// Fetcher loads editor data. It defaults to Client.
	Fetcher    host.Fetcher
	Resolver   *resolve.Resolver
	Installer  Installer
	Confirmer  Confirmer
	Navigator  Navigator
	Reporter   logging.Reporter
	Logger     logging.Logger
	Translator i18n.Translator
	Locale     string

	// ErrorContainer is the validation output of save commands that do
	// not name one.
	ErrorContainer string

	subs map[subKey]*events.Subscription
}

type subKey struct {
	node *html.Node
	typ  string
	name events.Name
}

// Subscribe attaches handler to name events reaching node on behalf of the
// command type typ. A later subscription for the same node, type and event
// replaces the earlier one, so reinstalling a node does not stack handlers.
func (env *Env) Subscribe(node *html.Node, typ string, name events.Name, handler events.Handler) {
	if env.Bus == nil {
		return
	}
	if env.subs == nil {
		env.subs = make(map[subKey]*events.Subscription)
	}
	key := subKey{node: node, typ: typ, name: name}
	if prev, ok := env.subs[key]; ok {
		env.Bus.Off(prev)
	}
	env.subs[key] = env.Bus.On(node, name, handler)
}

// OnClick runs cmd when node is clicked and not disabled.
func (env *Env) OnClick(node *html.Node, typ string, cmd Command) {
	env.Subscribe(node, typ, events.Click, func(ctx context.Context, _ *events.Event) {
		if dom.Disabled(node) {
			return
		}
		if err := cmd.Execute(ctx); err != nil {
			env.Report(ctx, fmt.Errorf("command %s: %w", typ, err))
		}
	})
}

// Report forwards err to the reporter.
func (env *Env) Report(ctx context.Context, err error) {
	if err == nil {
		return
	}
	if env.Reporter != nil {
		env.Reporter.Report(ctx, err)
		return
	}
	env.logger().Error("command error", "error", err)
}

func (env *Env) logger() logging.Logger {
	if env.Logger == nil {
		return logging.Nop()
	}
	return env.Logger
}

func (env *Env) translate(key string, vars i18n.Vars) string {
	if env.Translator == nil {
		return i18n.Default().Translate(env.Locale, key, vars)
	}
	return env.Translator.Translate(env.Locale, key, vars)
}

func (env *Env) confirm(ctx context.Context, message string) bool {
	if env.Confirmer == nil {
		return true
	}
	return env.Confirmer.Confirm(ctx, message)
}

func (env *Env) resolve(value string, node *html.Node) string {
	return env.Resolver.Resolve(value, node)
}

func (env *Env) fetcher() host.Fetcher {
	if env.Fetcher != nil {
		return env.Fetcher
	}
	if env.Client != nil {
		return env.Client
	}
	return nil
}

func (env *Env) dispatch(ctx context.Context, target *html.Node, name events.Name, payload any) {
	env.Bus.Dispatch(ctx, target, name, payload)
}

func (env *Env) navigate(ctx context.Context, url string) {
	if env.Navigator == nil {
		env.logger().Info("navigation requested", "url", url)
		return
	}
	env.Navigator.Navigate(ctx, url)
}

// TargetEditor returns the editor named by node's data-target.
func (env *Env) TargetEditor(node *html.Node) (editor.Editor, error) {
	key := strings.TrimSpace(dom.AttrOr(node, AttrTarget, ""))
	if key == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingAttr, AttrTarget)
	}
	if env.Editors == nil {
		return nil, fmt.Errorf("%w %q", ErrNoEditor, key)
	}
	ed, ok := env.Editors.Lookup(key)
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrNoEditor, key)
	}
	return ed, nil
}

// Key identifies a retrievable command.
type Key struct {
	ID   string
	Type string
}

// Table indexes commands by (node id, command type).
type Table struct {
	mu      sync.RWMutex
	entries map[Key]Command
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{entries: make(map[Key]Command)}
}

// Register stores cmd and reports whether an entry was replaced. Commands
// without an id are not retrievable and are ignored.
func (t *Table) Register(key Key, cmd Command) bool {
	if key.ID == "" || cmd == nil {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	_, replaced := t.entries[key]
	t.entries[key] = cmd
	return replaced
}

// Lookup returns the command of type typ declared on the node with id.
func (t *Table) Lookup(id, typ string) (Command, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	cmd, ok := t.entries[Key{ID: id, Type: typ}]
	return cmd, ok
}

// Keys returns the registered keys sorted by id then type.
func (t *Table) Keys() []Key {
	t.mu.RLock()
	keys := make([]Key, 0, len(t.entries))
	for k := range t.entries {
		keys = append(keys, k)
	}
	t.mu.RUnlock()
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].ID != keys[j].ID {
			return keys[i].ID < keys[j].ID
		}
		return keys[i].Type < keys[j].Type
	})
	return keys
}

// Len returns the number of registered commands.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Reset drops every command.
func (t *Table) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = make(map[Key]Command)
}
