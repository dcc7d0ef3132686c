package installer

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/goliatone/go-axelforms/pkg/binding"
	"github.com/goliatone/go-axelforms/pkg/command"
	"github.com/goliatone/go-axelforms/pkg/config"
	"github.com/goliatone/go-axelforms/pkg/dom"
	"github.com/goliatone/go-axelforms/pkg/editor"
	"github.com/goliatone/go-axelforms/pkg/scan"
)

// InstallCommands creates the editors and commands declared in doc, or in
// the sibling range start..end when start is set, and returns the editors it
// created. Editors are only created once a bundles path is configured.
func (i *Installer) InstallCommands(ctx context.Context, doc, start, end *html.Node) []editor.Editor {
	snap := snapshot(doc, start, end)

	var created []editor.Editor
	if len(snap.Editors) > 0 {
		if i.cfg.HasBundlesPath() {
			created = i.installEditors(ctx, snap.Editors)
		} else {
			i.report(ctx, fmt.Errorf("installer: %d editor declaration(s) skipped: %w", len(snap.Editors), config.ErrNoBundlesPath))
		}
	}

	for _, decl := range snap.Commands {
		for _, name := range decl.Names {
			i.installCommand(ctx, decl.Node, name)
		}
	}
	return created
}

func (i *Installer) installEditors(ctx context.Context, decls []scan.Declaration) []editor.Editor {
	spec, ok := i.commands.Lookup(command.NameTransform)
	if !ok {
		i.report(ctx, fmt.Errorf("installer: unknown command %q", command.NameTransform))
		return nil
	}

	created := make([]editor.Editor, 0, len(decls))
	var starters []command.Starter
	for _, decl := range decls {
		cmd, err := spec.Factory(i.env, decl.Node)
		if err != nil {
			i.report(ctx, fmt.Errorf("installer: editor on %s: %w", describe(decl.Node), err))
			continue
		}
		ed, ok := cmd.(editor.Editor)
		if !ok {
			i.report(ctx, fmt.Errorf("installer: %s command on %s does not produce an editor", command.NameTransform, describe(decl.Node)))
			continue
		}
		replaced, err := i.editors.Register(ed.Key(), ed)
		if err != nil {
			i.report(ctx, fmt.Errorf("installer: %w", err))
			continue
		}
		if replaced {
			i.logger.Debug("editor replaced", "key", ed.Key())
		}
		if id := dom.AttrOr(decl.Node, "id", ""); id != "" {
			i.table.Register(command.Key{ID: id, Type: command.NameTransform}, cmd)
		}
		created = append(created, ed)
		if s, ok := cmd.(command.Starter); ok {
			starters = append(starters, s)
		}
	}

	for _, s := range starters {
		if err := s.Start(ctx); err != nil {
			i.report(ctx, fmt.Errorf("installer: %w", err))
		}
	}
	return created
}

func (i *Installer) installCommand(ctx context.Context, node *html.Node, name string) {
	spec, ok := i.commands.Lookup(name)
	if !ok {
		i.report(ctx, fmt.Errorf("installer: unknown command %q on %s", name, describe(node)))
		return
	}
	if spec.RequiresCheck {
		key := strings.TrimSpace(dom.AttrOr(node, command.AttrTarget, ""))
		if _, ok := i.editors.Lookup(key); !ok {
			dom.Disable(node)
			i.logger.Warn("command disabled, target editor missing", "command", name, "target", key, "node", describe(node))
			return
		}
		dom.Enable(node)
	}

	cmd, err := spec.Factory(i.env, node)
	if err != nil {
		dom.Disable(node)
		i.report(ctx, fmt.Errorf("installer: command %s on %s: %w", name, describe(node), err))
		return
	}
	if id := dom.AttrOr(node, "id", ""); id != "" {
		i.table.Register(command.Key{ID: id, Type: name}, cmd)
	}
	if s, ok := cmd.(command.Starter); ok {
		if err := s.Start(ctx); err != nil {
			i.report(ctx, fmt.Errorf("installer: command %s on %s: %w", name, describe(node), err))
		}
	}
}

// InstallBindings creates the bindings declared in doc, or in the sibling
// range start..end when start is set. A binding already started on a node is
// not started again. Bindings whose host left the document are stopped first.
func (i *Installer) InstallBindings(ctx context.Context, doc, start, end *html.Node) {
	i.pruneBindings()
	snap := snapshot(doc, start, end)
	for _, decl := range snap.Bindings {
		variable := strings.TrimSpace(dom.AttrOr(decl.Node, binding.AttrVariable, ""))
		for _, name := range decl.Names {
			if variable == "" {
				i.report(ctx, fmt.Errorf("installer: binding %s on %s: %w", name, describe(decl.Node), binding.ErrMissingVariable))
				continue
			}
			i.installBinding(ctx, decl.Node, name, variable)
		}
	}
}

func (i *Installer) installBinding(ctx context.Context, node *html.Node, name, variable string) {
	key := bindingKey{node: node, name: name}
	if _, done := i.installed[key]; done {
		return
	}
	spec, ok := i.bindings.Lookup(name)
	if !ok {
		i.report(ctx, fmt.Errorf("installer: unknown binding %q on %s", name, describe(node)))
		return
	}
	params, err := spec.ResolveParams(node)
	if err != nil {
		i.report(ctx, fmt.Errorf("installer: binding %s(%s): %w", name, variable, err))
		return
	}

	c := &binding.Context{
		Document:   i.doc,
		Host:       node,
		Name:       name,
		Variable:   variable,
		Params:     params,
		Bus:        i.bus,
		Editors:    i.editors,
		Fetcher:    i.fetcher,
		Resolver:   i.resolver,
		Reporter:   i.reporter,
		Logger:     i.logger,
		Translator: i.translator,
		Locale:     i.cfg.Locale,
	}
	if c.Document == nil {
		c.Document = dom.Root(node)
	}
	if spec.HasOption(binding.OptionErrors) {
		c.Errors = binding.NewErrorPresenter(node, variable)
	}

	b, err := spec.Factory(c)
	if err != nil {
		i.report(ctx, fmt.Errorf("installer: binding %s(%s): %w", name, variable, err))
		return
	}
	if err := b.Start(ctx); err != nil {
		c.Stop()
		c.Report(ctx, err)
		return
	}
	i.installed[key] = c
}

// pruneBindings unsubscribes bindings whose host was detached, typically by
// a template materialized again over the same editor.
func (i *Installer) pruneBindings() {
	for key, c := range i.installed {
		if c.Attached() {
			continue
		}
		c.Stop()
		delete(i.installed, key)
	}
}
