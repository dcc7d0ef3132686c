// Package installer turns the declarative attributes of a document into live
// editors, commands and bindings.
//
// An install pass scans first and instantiates second. Editors are created
// before the commands of the same pass so that commands targeting them can be
// checked, and bindings are installed in their own pass once the editors they
// observe are materialized. Failures are reported per declaration; a pass is
// never aborted.
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
	"github.com/goliatone/go-axelforms/pkg/events"
	"github.com/goliatone/go-axelforms/pkg/field"
	"github.com/goliatone/go-axelforms/pkg/host"
	"github.com/goliatone/go-axelforms/pkg/i18n"
	"github.com/goliatone/go-axelforms/pkg/logging"
	"github.com/goliatone/go-axelforms/pkg/registry"
	"github.com/goliatone/go-axelforms/pkg/resolve"
	"github.com/goliatone/go-axelforms/pkg/scan"
	"github.com/goliatone/go-axelforms/pkg/transport"
)

type bindingKey struct {
	node *html.Node
	name string
}

// Installer owns the registries and the page-wide tables.
type Installer struct {
	cfg config.Config

	commands *registry.Registry[command.Spec]
	bindings *registry.Registry[binding.Spec]
	plugins  *field.Registry

	editors *editor.Table
	table   *command.Table
	bus     *events.Bus

	host       host.Host
	client     *transport.Client
	fetcher    host.Fetcher
	resolver   *resolve.Resolver
	confirmer  command.Confirmer
	navigator  command.Navigator
	translator i18n.Translator
	reporter   logging.Reporter
	logger     logging.Logger

	env       *command.Env
	ownClient bool
	doc       *html.Node
	installed map[bindingKey]*binding.Context
}

var _ command.Installer = (*Installer)(nil)

// New builds an installer with the built-in commands, bindings and plugins
// registered.
func New(options ...Option) *Installer {
	i := &Installer{
		commands:  registry.New[command.Spec]("command"),
		bindings:  registry.New[binding.Spec]("binding"),
		editors:   editor.NewTable(),
		table:     command.NewTable(),
		bus:       events.NewBus(),
		installed: make(map[bindingKey]*binding.Context),
	}
	command.RegisterBuiltins(i.commands)
	binding.RegisterBuiltins(i.bindings)
	for _, opt := range options {
		if opt != nil {
			opt(i)
		}
	}
	i.applyDefaults()
	return i
}

func (i *Installer) applyDefaults() {
	if i.logger == nil {
		i.logger = logging.Nop()
	}
	if i.reporter == nil {
		i.reporter = logging.LogReporter{Logger: i.logger}
	}
	if i.plugins == nil {
		i.plugins = field.NewRegistry()
	}
	if i.translator == nil {
		i.translator = i18n.Default()
	}
	if i.client == nil {
		timeout, err := i.cfg.TimeoutDuration()
		if err != nil {
			i.logger.Warn("invalid timeout, using default", "error", err)
			timeout = config.DefaultTimeout
		}
		i.client = transport.New(
			transport.WithTimeout(timeout),
			transport.WithBaseURL(i.cfg.PageURL),
			transport.WithLogger(i.logger),
		)
		i.ownClient = true
	}
	if i.fetcher == nil {
		i.fetcher = i.client
	}
	if i.host == nil {
		i.host = host.NewFragment(i.fetcher, i.plugins, host.WithReporter(i.reporter), host.WithLogger(i.logger))
	}
	i.env = &command.Env{
		Editors:    i.editors,
		Commands:   i.table,
		Bus:        i.bus,
		Host:       i.host,
		Client:     i.client,
		Fetcher:    i.fetcher,
		Installer:  i,
		Confirmer:  i.confirmer,
		Navigator:  i.navigator,
		Reporter:   i.reporter,
		Logger:     i.logger,
		Translator: i.translator,
	}
}

// Commands returns the command registry.
func (i *Installer) Commands() *registry.Registry[command.Spec] { return i.commands }

// Bindings returns the binding registry.
func (i *Installer) Bindings() *registry.Registry[binding.Spec] { return i.bindings }

// Plugins returns the field plugin registry.
func (i *Installer) Plugins() *field.Registry { return i.plugins }

// Editors returns the editor table.
func (i *Installer) Editors() *editor.Table { return i.editors }

// CommandTable returns the retrievable commands.
func (i *Installer) CommandTable() *command.Table { return i.table }

// Bus returns the event bus.
func (i *Installer) Bus() *events.Bus { return i.bus }

// Config returns the effective configuration.
func (i *Installer) Config() config.Config { return i.cfg }

// Install reads the page configuration of doc, subscribes slice installs for
// repeated items and, unless the page defers it, runs the install passes.
func (i *Installer) Install(ctx context.Context, doc *html.Node) error {
	if err := i.Bind(doc); err != nil {
		return err
	}
	if i.cfg.Deferred {
		i.logger.Info("install deferred", "bundles_path", i.cfg.BundlesPath)
		return nil
	}
	return i.Activate(ctx)
}

// Bind attaches the installer to doc without installing anything.
func (i *Installer) Bind(doc *html.Node) error {
	if doc == nil {
		return fmt.Errorf("installer: nil document")
	}
	if cfg, ok := config.FromDocument(doc); ok {
		i.cfg = i.cfg.Merge(cfg)
	}
	// The default client was built before the page configuration was merged.
	if i.ownClient && i.cfg.PageURL != "" {
		i.client.SetBaseURL(i.cfg.PageURL)
	}
	if i.resolver == nil && i.cfg.PageURL != "" {
		r, err := resolve.New(i.cfg.PageURL)
		if err != nil {
			return fmt.Errorf("installer: %w", err)
		}
		i.resolver = r
	}
	i.doc = doc
	i.env.Document = doc
	i.env.Resolver = i.resolver
	i.env.Locale = i.cfg.Locale
	i.env.ErrorContainer = i.cfg.ErrorContainer
	i.env.Subscribe(doc, "installer", events.ItemAdded, i.itemAdded)
	return nil
}

// Activate runs the install passes over the bound document. Deferred pages
// call it once their configuration is complete.
func (i *Installer) Activate(ctx context.Context) error {
	if i.doc == nil {
		return fmt.Errorf("installer: no document bound")
	}
	editors := i.InstallCommands(ctx, i.doc, nil, nil)
	i.InstallBindings(ctx, i.doc, nil, nil)
	i.logger.Debug("install pass complete", "editors", len(editors), "commands", i.table.Len(), "bindings", len(i.installed))
	return nil
}

// SetBundlesPath completes the configuration of a deferred page.
func (i *Installer) SetBundlesPath(path string) {
	i.cfg.BundlesPath = strings.TrimSpace(path)
}

func (i *Installer) itemAdded(ctx context.Context, ev *events.Event) {
	p, ok := ev.Payload.(events.ItemAddedPayload)
	if !ok || p.First == nil {
		return
	}
	i.InstallCommands(ctx, i.doc, p.First, p.Last)
	i.InstallBindings(ctx, i.doc, p.First, p.Last)
}

func snapshot(doc, start, end *html.Node) scan.Snapshot {
	if start == nil {
		return scan.Document(doc)
	}
	return scan.Slice(start, end)
}

func (i *Installer) report(ctx context.Context, err error) {
	i.reporter.Report(ctx, err)
}

// describe names a node in error messages.
func describe(n *html.Node) string {
	if n == nil {
		return "<nil>"
	}
	if id := dom.AttrOr(n, "id", ""); id != "" {
		return n.Data + "#" + id
	}
	return n.Data
}
