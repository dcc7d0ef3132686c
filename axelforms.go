package axelforms

import (
	"context"
	"fmt"
	"io"

	"golang.org/x/net/html"

	"github.com/goliatone/go-axelforms/pkg/binding"
	"github.com/goliatone/go-axelforms/pkg/command"
	"github.com/goliatone/go-axelforms/pkg/config"
	"github.com/goliatone/go-axelforms/pkg/dom"
	"github.com/goliatone/go-axelforms/pkg/editor"
	"github.com/goliatone/go-axelforms/pkg/installer"
)

// Installer aliases installer.Installer so callers can hold one without
// importing the sub package.
type Installer = installer.Installer

// Option configures an Installer.
type Option = installer.Option

// Config is the page-wide configuration.
type Config = config.Config

// Editor is a live editing surface keyed in the editor table.
type Editor = editor.Editor

// Command is an installed command instance.
type Command = command.Command

// BindingSpec describes a registered binding.
type BindingSpec = binding.Spec

// CommandSpec describes a registered command.
type CommandSpec = command.Spec

// New exposes the installer constructor from the top-level module.
func New(options ...Option) *Installer {
	return installer.New(options...)
}

// Install parses markup, runs the install passes over it and returns the
// installer holding the live editors and commands together with the document.
func Install(ctx context.Context, r io.Reader, options ...Option) (*Installer, *html.Node, error) {
	doc, err := dom.Parse(r)
	if err != nil {
		return nil, nil, fmt.Errorf("axelforms: parse: %w", err)
	}
	inst := installer.New(options...)
	if err := inst.Install(ctx, doc); err != nil {
		return nil, nil, err
	}
	return inst, doc, nil
}

// WithConfig forwards the base configuration to the installer.
func WithConfig(cfg Config) Option {
	return installer.WithConfig(cfg)
}

// LoadConfig reads a yaml, toml or json configuration file.
func LoadConfig(path string) (Config, error) {
	return config.Load(path)
}
