package editor_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-axelforms/pkg/dom"
	"github.com/goliatone/go-axelforms/pkg/editor"
	"github.com/goliatone/go-axelforms/pkg/field"
)

const form = `<body><div id="ed">
<input data-plugin="input" data-variable="person/name" value="Ada">
<input data-plugin="input" data-variable="person/email" value="ada@example.com">
<select data-plugin="choice2" data-variable="tags"><option value="a" selected>A</option><option value="b" selected>B</option><option value="c">C</option></select>
<input data-plugin="input" data-variable="note" data-filter="optional">
</div></body>`

func newDocument(t *testing.T, markup string, options ...editor.DocumentOption) *editor.Document {
	t.Helper()
	doc, err := dom.ParseString(markup)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	d, err := editor.NewDocument("ed", dom.ByID(doc, "ed"), "form.xml", field.NewRegistry(), options...)
	if err != nil {
		t.Fatalf("new document: %v", err)
	}
	return d
}

func TestDocument_Serialize(t *testing.T) {
	d := newDocument(t, form)

	got, err := d.Serialize()
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	want := `<Data><person><name>Ada</name><email>ada@example.com</email></person><tags>a</tags><tags>b</tags></Data>`
	if diff := cmp.Diff(want, string(got)); diff != "" {
		t.Fatalf("serialization mismatch (-want +got):\n%s", diff)
	}
}

func TestDocument_LoadInvertsSerialize(t *testing.T) {
	src := newDocument(t, form)
	note, _ := src.Field("note")
	note.Update(context.Background(), []string{"hello"})
	data, err := src.Serialize()
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}

	dst := newDocument(t, `<body><div id="ed">
<input data-plugin="input" data-variable="person/name">
<input data-plugin="input" data-variable="person/email">
<select data-plugin="choice2" data-variable="tags"><option value="a">A</option><option value="b">B</option><option value="c">C</option></select>
<input data-plugin="input" data-variable="note" data-filter="optional">
</div></body>`)
	if err := dst.Load(data); err != nil {
		t.Fatalf("load: %v", err)
	}
	again, err := dst.Serialize()
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	if diff := cmp.Diff(string(data), string(again)); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
	if !dst.Modified() {
		t.Fatalf("loaded document should report modified fields")
	}
}

func TestDocument_LoadRejectsMalformedXML(t *testing.T) {
	d := newDocument(t, form)
	if err := d.Load([]byte("<Data><person>")); err == nil {
		t.Fatalf("expected an error for truncated xml")
	}
}

func TestDocument_ChangeHookAndRefresh(t *testing.T) {
	var changed []string
	d := newDocument(t, form, editor.WithChangeHook(func(_ context.Context, f field.Field) {
		changed = append(changed, f.Variable())
	}))

	name, ok := d.Field("person/name")
	if !ok {
		t.Fatalf("person/name not collected")
	}
	name.Update(context.Background(), []string{"Grace"})

	// A second refresh must neither rebuild the field nor hook it twice.
	if err := d.Refresh(); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	again, _ := d.Field("person/name")
	if again != name {
		t.Fatalf("refresh rebuilt an existing field")
	}
	again.Update(context.Background(), []string{"Hopper"})

	if diff := cmp.Diff([]string{"person/name", "person/name"}, changed); diff != "" {
		t.Fatalf("change notifications mismatch (-want +got):\n%s", diff)
	}
}

func TestDocument_AdoptAndReset(t *testing.T) {
	d := newDocument(t, form)
	name, _ := d.Field("person/name")
	email, _ := d.Field("person/email")
	group := field.NewRequiredGroup(d.Node(), "Contact", []field.Field{name, email})
	d.Adopt(group)

	if got := len(d.Fields()); got != 5 {
		t.Fatalf("expected 5 fields after adopt, got %d", got)
	}
	d.Reset()
	if d.Modified() {
		t.Fatalf("reset document must not be modified")
	}
}

func TestTable(t *testing.T) {
	table := editor.NewTable()
	d := newDocument(t, form)

	if key := table.NextKey(); key != "untitled1" {
		t.Fatalf("unexpected generated key %q", key)
	}
	replaced, err := table.Register("untitled2", d)
	if err != nil || replaced {
		t.Fatalf("first register: replaced=%v err=%v", replaced, err)
	}
	// untitled2 is taken, so generation skips it.
	if key := table.NextKey(); key != "untitled3" {
		t.Fatalf("unexpected generated key %q", key)
	}

	replaced, _ = table.Register("untitled2", d)
	if !replaced || table.Len() != 1 {
		t.Fatalf("re-registering must replace: replaced=%v len=%d", replaced, table.Len())
	}
	if _, err := table.Register("", d); err == nil {
		t.Fatalf("empty key must be rejected")
	}

	name, _ := d.Field("person/name")
	owner, ok := table.Owner(name)
	if !ok || owner != d {
		t.Fatalf("owner lookup failed")
	}

	table.Reset()
	if table.Len() != 0 || table.NextKey() != "untitled1" {
		t.Fatalf("reset must clear editors and key generation")
	}
}
