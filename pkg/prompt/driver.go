// Package prompt asks terminal users for confirmations and field values. It
// backs the command line installer: save confirmations become yes/no
// questions and editors can be filled field by field.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

// ErrAborted signals the user aborted input (Ctrl+C).
var ErrAborted = errors.New("prompt: aborted")

// InputConfig configures a single line prompt.
type InputConfig struct {
	Message   string
	Default   string
	Help      string
	Validator func(string) error
}

// ConfirmConfig configures a yes/no prompt.
type ConfirmConfig struct {
	Message string
	Default bool
	Help    string
}

// SelectConfig configures single and multi select prompts.
type SelectConfig struct {
	Message  string
	Options  []string
	Defaults []int // indices into Options
	Help     string
	PageSize int
}

// Driver abstracts the terminal so flows can be tested without one.
type Driver interface {
	Input(ctx context.Context, cfg InputConfig) (string, error)
	Confirm(ctx context.Context, cfg ConfirmConfig) (bool, error)
	Select(ctx context.Context, cfg SelectConfig) (int, error)
	MultiSelect(ctx context.Context, cfg SelectConfig) ([]int, error)
	Info(ctx context.Context, msg string) error
}

// Survey is the interactive Driver.
type Survey struct {
	Out io.Writer
}

var _ Driver = (*Survey)(nil)

// NewSurvey returns a Driver that prompts on the controlling terminal.
func NewSurvey() *Survey {
	return &Survey{Out: os.Stdout}
}

func (d *Survey) Input(ctx context.Context, cfg InputConfig) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var out string
	q := &survey.Input{
		Message: cfg.Message,
		Help:    cfg.Help,
		Default: cfg.Default,
	}
	var opts []survey.AskOpt
	if cfg.Validator != nil {
		opts = append(opts, survey.WithValidator(func(ans interface{}) error {
			s, _ := ans.(string)
			return cfg.Validator(s)
		}))
	}
	if err := survey.AskOne(q, &out, opts...); err != nil {
		return "", translate(err)
	}
	return out, nil
}

func (d *Survey) Confirm(ctx context.Context, cfg ConfirmConfig) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	var out bool
	q := &survey.Confirm{
		Message: cfg.Message,
		Help:    cfg.Help,
		Default: cfg.Default,
	}
	if err := survey.AskOne(q, &out); err != nil {
		return false, translate(err)
	}
	return out, nil
}

func (d *Survey) Select(ctx context.Context, cfg SelectConfig) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var out string
	q := &survey.Select{
		Message: cfg.Message,
		Options: cfg.Options,
		Help:    cfg.Help,
	}
	if cfg.PageSize > 0 {
		q.PageSize = cfg.PageSize
	}
	if len(cfg.Defaults) > 0 {
		if def := pick(cfg.Options, cfg.Defaults[:1]); len(def) == 1 {
			q.Default = def[0]
		}
	}
	if err := survey.AskOne(q, &out); err != nil {
		return 0, translate(err)
	}
	return indexOf(cfg.Options, out), nil
}

func (d *Survey) MultiSelect(ctx context.Context, cfg SelectConfig) ([]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []string
	q := &survey.MultiSelect{
		Message: cfg.Message,
		Options: cfg.Options,
		Help:    cfg.Help,
	}
	if cfg.PageSize > 0 {
		q.PageSize = cfg.PageSize
	}
	if len(cfg.Defaults) > 0 {
		q.Default = pick(cfg.Options, cfg.Defaults)
	}
	if err := survey.AskOne(q, &out); err != nil {
		return nil, translate(err)
	}
	return indicesOf(cfg.Options, out), nil
}

func (d *Survey) Info(ctx context.Context, msg string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	out := d.Out
	if out == nil {
		out = os.Stdout
	}
	_, err := fmt.Fprintln(out, msg)
	return err
}

func translate(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return ErrAborted
	}
	return err
}

func indexOf(options []string, value string) int {
	for i, option := range options {
		if option == value {
			return i
		}
	}
	return -1
}

func indicesOf(options, values []string) []int {
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		seen[v] = struct{}{}
	}
	var out []int
	for i, option := range options {
		if _, ok := seen[option]; ok {
			out = append(out, i)
		}
	}
	return out
}

func pick(options []string, indices []int) []string {
	var out []string
	for _, idx := range indices {
		if idx >= 0 && idx < len(options) {
			out = append(out, options[idx])
		}
	}
	return out
}
