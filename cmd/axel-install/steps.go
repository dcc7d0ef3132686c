package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-axelforms/pkg/installer"
	"github.com/goliatone/go-axelforms/pkg/transport"
)

type stepKind int

const (
	stepClick stepKind = iota
	stepSet
)

// step is one -click or -set flag, kept in command line order.
type step struct {
	kind  stepKind
	id    string
	name  string
	value string
}

type stepFlag struct {
	steps *[]step
	kind  stepKind
}

func (f stepFlag) String() string { return "" }

func (f stepFlag) Set(raw string) error {
	s, err := parseStep(f.kind, raw)
	if err != nil {
		return err
	}
	*f.steps = append(*f.steps, s)
	return nil
}

func parseStep(kind stepKind, raw string) (step, error) {
	raw = strings.TrimSpace(raw)
	switch kind {
	case stepClick:
		id, name, _ := strings.Cut(raw, ":")
		if id == "" {
			return step{}, fmt.Errorf("click %q: missing element id", raw)
		}
		return step{kind: kind, id: id, name: name}, nil
	default:
		name, value, ok := strings.Cut(raw, "=")
		if !ok || name == "" {
			return step{}, fmt.Errorf("set %q: expected variable=value", raw)
		}
		return step{kind: kind, name: name, value: value}, nil
	}
}

func (s step) apply(ctx context.Context, inst *installer.Installer) error {
	if s.kind == stepSet {
		return s.set(ctx, inst)
	}
	return s.click(ctx, inst)
}

// click runs the command name of element id, or every command of the element
// in name order when name is empty.
func (s step) click(ctx context.Context, inst *installer.Installer) error {
	table := inst.CommandTable()
	if s.name != "" {
		cmd, ok := table.Lookup(s.id, s.name)
		if !ok {
			return fmt.Errorf("click %s: no %s command", s.id, s.name)
		}
		return cmd.Execute(ctx)
	}
	var ran int
	for _, key := range table.Keys() {
		if key.ID != s.id {
			continue
		}
		cmd, _ := table.Lookup(key.ID, key.Type)
		if err := cmd.Execute(ctx); err != nil {
			return fmt.Errorf("click %s: %w", s.id, err)
		}
		ran++
	}
	if ran == 0 {
		return fmt.Errorf("click %s: no command installed", s.id)
	}
	return nil
}

// set updates the field bound to the variable in every editor that has one.
// Comma separated values update multi-valued fields.
func (s step) set(ctx context.Context, inst *installer.Installer) error {
	var hit bool
	for _, ed := range inst.Editors().Editors() {
		f, ok := ed.Field(s.name)
		if !ok {
			continue
		}
		values := []string{s.value}
		if f.Multiple() {
			values = strings.Split(s.value, ",")
		}
		f.Update(ctx, values)
		hit = true
	}
	if !hit {
		return fmt.Errorf("set %s: no editor has this field", s.name)
	}
	return nil
}

// fileFetcher serves relative URLs from a directory and absolute ones over
// HTTP. Without a directory everything goes to the client.
type fileFetcher struct {
	root   string
	client *transport.Client
}

func newFileFetcher(root string, client *transport.Client) *fileFetcher {
	return &fileFetcher{root: root, client: client}
}

func (f *fileFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	if u.Scheme == "http" || u.Scheme == "https" || f.root == "" {
		return f.client.Fetch(ctx, rawURL)
	}
	if u.Scheme != "" && u.Scheme != "file" {
		return nil, fmt.Errorf("fetch %s: unsupported scheme %q", rawURL, u.Scheme)
	}
	rel := filepath.FromSlash(strings.TrimPrefix(u.Path, "/"))
	if strings.HasPrefix(filepath.Clean(rel), "..") {
		return nil, fmt.Errorf("fetch %s: outside %s", rawURL, f.root)
	}
	data, err := os.ReadFile(filepath.Join(f.root, rel))
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	return data, nil
}
