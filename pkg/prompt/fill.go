package prompt

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-axelforms/pkg/editor"
	"github.com/goliatone/go-axelforms/pkg/field"
)

type optionLister interface {
	Options() []field.Option
}

// Confirm adapts a Driver to the confirmation hook used by commands. An
// aborted prompt counts as a refusal.
func Confirm(d Driver) func(ctx context.Context, message string) bool {
	return func(ctx context.Context, message string) bool {
		ok, err := d.Confirm(ctx, ConfirmConfig{Message: message})
		if err != nil {
			return false
		}
		return ok
	}
}

// Fill asks for a value for every field of ed in document order and applies
// the answers as user input. Fields with a listed set of options are asked as
// selections, everything else as free text. Answers that leave a field
// invalid are asked again.
func Fill(ctx context.Context, d Driver, ed editor.Editor) error {
	if ed == nil {
		return errors.New("prompt: nil editor")
	}
	for _, f := range ed.Fields() {
		if err := fillField(ctx, d, f); err != nil {
			return fmt.Errorf("prompt: field %s: %w", f.Variable(), err)
		}
	}
	return nil
}

func fillField(ctx context.Context, d Driver, f field.Field) error {
	if lister, ok := f.(optionLister); ok {
		if options := lister.Options(); len(options) > 0 {
			return fillChoice(ctx, d, f, options)
		}
	}

	current := strings.Join(f.Data(), ", ")
	answer, err := d.Input(ctx, InputConfig{
		Message: message(f),
		Default: current,
		Validator: func(value string) error {
			if f.Required() && strings.TrimSpace(value) == "" {
				return errors.New("a value is required")
			}
			return nil
		},
	})
	if err != nil {
		return err
	}
	f.Update(ctx, []string{answer})
	if !f.Validate() {
		if err := d.Info(ctx, fmt.Sprintf("%q is not valid for %s", answer, f.Label())); err != nil {
			return err
		}
		return fillField(ctx, d, f)
	}
	return nil
}

func fillChoice(ctx context.Context, d Driver, f field.Field, options []field.Option) error {
	labels := make([]string, len(options))
	selected := make(map[string]struct{})
	for _, v := range f.Data() {
		selected[v] = struct{}{}
	}
	var defaults []int
	for i, o := range options {
		labels[i] = o.Label
		if _, ok := selected[o.Value]; ok {
			defaults = append(defaults, i)
		}
	}
	cfg := SelectConfig{Message: message(f), Options: labels, Defaults: defaults}

	var values []string
	if f.Multiple() {
		picked, err := d.MultiSelect(ctx, cfg)
		if err != nil {
			return err
		}
		for _, idx := range picked {
			values = append(values, options[idx].Value)
		}
	} else {
		idx, err := d.Select(ctx, cfg)
		if err != nil {
			return err
		}
		if idx >= 0 && idx < len(options) {
			values = []string{options[idx].Value}
		}
	}
	f.Update(ctx, values)
	return nil
}

func message(f field.Field) string {
	if f.Required() {
		return f.Label() + " *"
	}
	return f.Label()
}
