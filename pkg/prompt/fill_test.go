package prompt_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-axelforms/pkg/dom"
	"github.com/goliatone/go-axelforms/pkg/editor"
	"github.com/goliatone/go-axelforms/pkg/field"
	"github.com/goliatone/go-axelforms/pkg/prompt"
)

type scriptedDriver struct {
	inputs  []string
	selects []int
	multi   [][]int
	confirm bool
	err     error

	asked []string
	infos []string
	last  prompt.SelectConfig
}

func (d *scriptedDriver) Input(_ context.Context, cfg prompt.InputConfig) (string, error) {
	d.asked = append(d.asked, cfg.Message)
	if len(d.inputs) == 0 {
		return "", errors.New("no scripted input left")
	}
	answer := d.inputs[0]
	d.inputs = d.inputs[1:]
	if cfg.Validator != nil {
		if err := cfg.Validator(answer); err != nil {
			return "", err
		}
	}
	return answer, nil
}

func (d *scriptedDriver) Confirm(_ context.Context, cfg prompt.ConfirmConfig) (bool, error) {
	d.asked = append(d.asked, cfg.Message)
	return d.confirm, d.err
}

func (d *scriptedDriver) Select(_ context.Context, cfg prompt.SelectConfig) (int, error) {
	d.asked = append(d.asked, cfg.Message)
	d.last = cfg
	idx := d.selects[0]
	d.selects = d.selects[1:]
	return idx, nil
}

func (d *scriptedDriver) MultiSelect(_ context.Context, cfg prompt.SelectConfig) ([]int, error) {
	d.asked = append(d.asked, cfg.Message)
	d.last = cfg
	picked := d.multi[0]
	d.multi = d.multi[1:]
	return picked, nil
}

func (d *scriptedDriver) Info(_ context.Context, msg string) error {
	d.infos = append(d.infos, msg)
	return nil
}

func newEditor(t *testing.T, markup string) *editor.Document {
	t.Helper()
	doc, err := dom.ParseString(markup)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	ed, err := editor.NewDocument("ed", dom.ByID(doc, "ed"), "form.xml", field.NewRegistry())
	if err != nil {
		t.Fatalf("new document: %v", err)
	}
	return ed
}

func TestFill_TextAndChoices(t *testing.T) {
	ed := newEditor(t, `<body><div id="ed">
<input data-plugin="input" data-variable="name" data-label="Name">
<select data-plugin="choice" data-variable="country"><option value="fr">France</option><option value="it">Italy</option></select>
<select data-plugin="choice2" data-variable="tags"><option value="a" selected>A</option><option value="b">B</option><option value="c">C</option></select>
</div></body>`)
	d := &scriptedDriver{inputs: []string{"Ada"}, selects: []int{1}, multi: [][]int{{1, 2}}}

	if err := prompt.Fill(context.Background(), d, ed); err != nil {
		t.Fatalf("fill: %v", err)
	}
	if diff := cmp.Diff([]string{"Name", "country", "tags"}, d.asked); diff != "" {
		t.Fatalf("prompts mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{0}, d.last.Defaults); diff != "" {
		t.Fatalf("current selection not offered as default (-want +got):\n%s", diff)
	}

	got, err := ed.Serialize()
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	want := `<Data><name>Ada</name><country>it</country><tags>b</tags><tags>c</tags></Data>`
	if diff := cmp.Diff(want, string(got)); diff != "" {
		t.Fatalf("serialization mismatch (-want +got):\n%s", diff)
	}
}

func TestFill_AsksAgainUntilValid(t *testing.T) {
	ed := newEditor(t, `<body><div id="ed"><input data-plugin="date" data-variable="born"></div></body>`)
	d := &scriptedDriver{inputs: []string{"someday", "10/12/1815"}}

	if err := prompt.Fill(context.Background(), d, ed); err != nil {
		t.Fatalf("fill: %v", err)
	}
	if len(d.infos) != 1 {
		t.Fatalf("expected one invalid notice, got %v", d.infos)
	}
	born, _ := ed.Field("born")
	if diff := cmp.Diff([]string{"1815-12-10"}, born.Data()); diff != "" {
		t.Fatalf("date mismatch (-want +got):\n%s", diff)
	}
}

func TestFill_PropagatesDriverErrors(t *testing.T) {
	ed := newEditor(t, `<body><div id="ed"><input data-plugin="input" data-variable="name"></div></body>`)
	if err := prompt.Fill(context.Background(), &scriptedDriver{}, ed); err == nil {
		t.Fatalf("expected error when the driver fails")
	}
	if err := prompt.Fill(context.Background(), &scriptedDriver{}, nil); err == nil {
		t.Fatalf("expected error for nil editor")
	}
}

func TestConfirm_AbortIsRefusal(t *testing.T) {
	ctx := context.Background()
	yes := prompt.Confirm(&scriptedDriver{confirm: true})
	if !yes(ctx, "Continue?") {
		t.Fatalf("expected acceptance")
	}
	aborted := prompt.Confirm(&scriptedDriver{confirm: true, err: prompt.ErrAborted})
	if aborted(ctx, "Continue?") {
		t.Fatalf("aborted prompt accepted")
	}
}
