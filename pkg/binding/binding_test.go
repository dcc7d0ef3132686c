package binding_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/net/html"

	"github.com/goliatone/go-axelforms/components/choices"
	"github.com/goliatone/go-axelforms/pkg/binding"
	"github.com/goliatone/go-axelforms/pkg/dom"
	"github.com/goliatone/go-axelforms/pkg/editor"
	"github.com/goliatone/go-axelforms/pkg/events"
	"github.com/goliatone/go-axelforms/pkg/field"
	"github.com/goliatone/go-axelforms/pkg/host"
	"github.com/goliatone/go-axelforms/pkg/i18n"
	"github.com/goliatone/go-axelforms/pkg/logging"
	"github.com/goliatone/go-axelforms/pkg/registry"
	"github.com/goliatone/go-axelforms/pkg/resolve"
	"github.com/goliatone/go-axelforms/pkg/transport"
)

type fixture struct {
	t        *testing.T
	doc      *html.Node
	bus      *events.Bus
	editors  *editor.Table
	ed       *editor.Document
	specs    *registry.Registry[binding.Spec]
	reporter *logging.Recorder
	fetcher  host.Fetcher
	resolver *resolve.Resolver
}

func newFixture(t *testing.T, markup string) *fixture {
	t.Helper()
	doc, err := dom.ParseString(markup)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	fx := &fixture{
		t:        t,
		doc:      doc,
		bus:      events.NewBus(),
		editors:  editor.NewTable(),
		specs:    registry.New[binding.Spec]("binding"),
		reporter: logging.NewRecorder(nil),
		resolver: resolve.MustNew("http://example.com/app/page"),
	}
	binding.RegisterBuiltins(fx.specs)
	fx.ed, err = editor.NewDocument("ed", dom.ByID(doc, "ed"), "t.xml", field.NewRegistry(), editor.WithChangeHook(func(ctx context.Context, f field.Field) {
		fx.bus.Dispatch(ctx, f.Node(), events.Update, events.UpdatePayload{Variable: f.Variable(), Values: f.Data()})
	}))
	if err != nil {
		t.Fatalf("editor: %v", err)
	}
	if _, err := fx.editors.Register("ed", fx.ed); err != nil {
		t.Fatalf("register: %v", err)
	}
	return fx
}

// start installs the binding declared on the node with the given id.
func (fx *fixture) start(id, name string) error {
	fx.t.Helper()
	node := dom.ByID(fx.doc, id)
	spec, ok := fx.specs.Lookup(name)
	if !ok {
		fx.t.Fatalf("binding %q not registered", name)
	}
	params, err := spec.ResolveParams(node)
	if err != nil {
		return err
	}
	variable := dom.AttrOr(node, binding.AttrVariable, "")
	c := &binding.Context{
		Document: fx.doc,
		Host:     node,
		Name:     name,
		Variable: variable,
		Params:   params,
		Bus:      fx.bus,
		Editors:  fx.editors,
		Fetcher:  fx.fetcher,
		Resolver: fx.resolver,
		Reporter: fx.reporter,
		Logger:   logging.Nop(),
	}
	if spec.HasOption(binding.OptionErrors) {
		c.Errors = binding.NewErrorPresenter(node, variable)
	}
	b, err := spec.Factory(c)
	if err != nil {
		return err
	}
	return b.Start(context.Background())
}

func (fx *fixture) field(variable string) field.Field {
	fx.t.Helper()
	f, ok := fx.ed.Field(variable)
	if !ok {
		fx.t.Fatalf("field %q not found", variable)
	}
	return f
}

func TestValidate_ReportsBothBuckets(t *testing.T) {
	fx := newFixture(t, `<body>
<div id="errbox"></div>
<div id="ed">
  <div class="row"><label>Title</label><input data-plugin="input" data-variable="title" required></div>
  <div class="row"><label>Year:</label><input data-plugin="input" data-variable="year" value="abc"></div>
</div></body>`)
	title, year := fx.field("title"), fx.field("year")
	year.AttachValidator(func(field.Field) bool { return false })

	ok := binding.Validate([]field.Field{title, year}, "errbox", fx.doc, ".row", i18n.Default(), "en")
	if ok {
		t.Fatalf("expected validation to fail")
	}

	box := dom.ByID(fx.doc, "errbox")
	var paragraphs []string
	for _, p := range dom.Find(box, dom.Tag("p")) {
		paragraphs = append(paragraphs, dom.Text(p))
	}
	want := []string{"The field Title is required", "The field Year is invalid"}
	if diff := cmp.Diff(want, paragraphs); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}
	if !dom.HasClass(box, binding.ClassValidationFailed) {
		t.Fatalf("container must carry the failure class")
	}
	if !dom.HasClass(title.Node(), binding.ClassRequired) || dom.HasClass(title.Node(), binding.ClassInvalid) {
		t.Fatalf("title classes: %v", dom.Classes(title.Node()))
	}
	if !dom.HasClass(year.Node(), binding.ClassInvalid) || dom.HasClass(year.Node(), binding.ClassRequired) {
		t.Fatalf("year classes: %v", dom.Classes(year.Node()))
	}
	if label := dom.First(year.Node().Parent, dom.Tag("label")); !dom.HasClass(label, binding.ClassInvalid) {
		t.Fatalf("label of year must be marked invalid")
	}

	// Validating only the fixed field clears every mark.
	title.Update(context.Background(), []string{"Dune"})
	ok = binding.Validate([]field.Field{title}, "errbox", fx.doc, ".row", nil, "en")
	if !ok || dom.HasClass(box, binding.ClassValidationFailed) || len(dom.Find(box, dom.Tag("p"))) != 0 {
		t.Fatalf("expected a clean container after a successful validation")
	}
	if dom.HasClass(title.Node(), binding.ClassRequired) {
		t.Fatalf("required mark must be cleared")
	}
}

func TestResolveParams_RequiredAndDefaults(t *testing.T) {
	spec := binding.Spec{Params: map[string]string{"url": binding.Required, "param": "q"}}
	doc, _ := dom.ParseString(`<body><div id="a" data-url="/x"></div><div id="b" data-param="z"></div></body>`)

	params, err := spec.ResolveParams(dom.ByID(doc, "a"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(map[string]string{"url": "/x", "param": "q"}, params); diff != "" {
		t.Fatalf("params mismatch (-want +got):\n%s", diff)
	}

	_, err = spec.ResolveParams(dom.ByID(doc, "b"))
	if !errors.Is(err, binding.ErrMissingParam) || !strings.Contains(err.Error(), "data-url") {
		t.Fatalf("expected missing data-url, got %v", err)
	}
}

func TestErrorPresenter_Scope(t *testing.T) {
	doc, _ := dom.ParseString(`<body>
<span data-error="email" id="outer" class="hide"></span>
<div class="group" id="g"><span data-error="email" id="inner" class="hide"></span><div id="host" data-error-scope=".group"></div></div>
<div id="other"></div>
</body>`)

	p := binding.NewErrorPresenter(dom.ByID(doc, "host"), "email")
	if p.Scope() != dom.ByID(doc, "g") {
		t.Fatalf("expected the .group ancestor as scope")
	}
	p.Show()
	if dom.HasClass(dom.ByID(doc, "inner"), "hide") || !dom.HasClass(dom.ByID(doc, "outer"), "hide") {
		t.Fatalf("only the scoped error element must be shown")
	}
	if !dom.HasClass(dom.ByID(doc, "host"), binding.ClassInvalid) {
		t.Fatalf("host must be marked invalid")
	}
	p.Hide()
	if !dom.HasClass(dom.ByID(doc, "inner"), "hide") {
		t.Fatalf("error element must be hidden again")
	}

	global := binding.NewErrorPresenter(dom.ByID(doc, "other"), "email")
	if global.Element() != dom.ByID(doc, "outer") {
		t.Fatalf("without a scope the first error element of the document is used")
	}
}

func TestRequired_SingleAndGroup(t *testing.T) {
	fx := newFixture(t, `<body><div id="ed">
<div id="one" data-binding="required" data-variable="title"><input data-plugin="input" data-variable="title"></div>
<div id="many" data-binding="required" data-variable="contact" data-label="Phone or email">
  <input data-plugin="input" data-variable="contact">
  <input data-plugin="input" data-variable="contact">
</div>
<div id="none" data-binding="required" data-variable="missing"></div>
</div></body>`)

	if err := fx.start("one", binding.NameRequired); err != nil {
		t.Fatalf("start: %v", err)
	}
	if !fx.field("title").Required() {
		t.Fatalf("title must be required")
	}

	before := len(fx.ed.Fields())
	if err := fx.start("many", binding.NameRequired); err != nil {
		t.Fatalf("start: %v", err)
	}
	fields := fx.ed.Fields()
	if len(fields) != before+1 {
		t.Fatalf("expected a group to be adopted")
	}
	group, ok := fields[len(fields)-1].(*field.RequiredGroup)
	if !ok || group.Label() != "Phone or email" || len(group.Members()) != 2 {
		t.Fatalf("unexpected adopted field %#v", fields[len(fields)-1])
	}

	if err := fx.start("none", binding.NameRequired); err == nil {
		t.Fatalf("expected an error for a variable without fields")
	}
}

func TestRegexp_ValidatesOnUpdate(t *testing.T) {
	fx := newFixture(t, `<body><div id="ed">
<div id="host" data-binding="regexp" data-variable="zip" data-regexp="^[0-9]{5}$">
  <input data-plugin="input" data-variable="zip">
  <span data-error="zip" class="hide">Five digits</span>
</div>
<div id="nore" data-binding="regexp" data-variable="zip"></div>
</div></body>`)
	if err := fx.start("host", binding.NameRegexp); err != nil {
		t.Fatalf("start: %v", err)
	}
	zip := fx.field("zip")
	msg := dom.First(fx.doc, dom.AttrEquals("data-error", "zip"))

	zip.Update(context.Background(), []string{"12a"})
	if zip.Validate() || dom.HasClass(msg, "hide") {
		t.Fatalf("invalid zip must fail and show the error")
	}
	zip.Update(context.Background(), []string{"75001"})
	if !zip.Validate() || !dom.HasClass(msg, "hide") {
		t.Fatalf("valid zip must pass and hide the error")
	}

	if err := fx.start("nore", binding.NameRegexp); !errors.Is(err, binding.ErrMissingParam) {
		t.Fatalf("expected missing data-regexp, got %v", err)
	}
}

func TestCondition_DisablesAvoidedTargets(t *testing.T) {
	fx := newFixture(t, `<body><div id="ed">
<div id="host" data-binding="condition" data-variable="status">
  <select data-plugin="choice" data-variable="status"><option value="draft">Draft</option><option value="final">Final</option></select>
  <fieldset id="target" data-avoid-status="final"><input id="inner" type="text"></fieldset>
</div>
</div></body>`)
	status := fx.field("status")
	status.Load([]string{"draft"})
	if err := fx.start("host", binding.NameCondition); err != nil {
		t.Fatalf("start: %v", err)
	}
	target, inner := dom.ByID(fx.doc, "target"), dom.ByID(fx.doc, "inner")
	if dom.Disabled(target) || dom.Disabled(inner) {
		t.Fatalf("draft must keep the target enabled")
	}

	status.Update(context.Background(), []string{"final"})
	if !dom.Disabled(target) || !dom.Disabled(inner) {
		t.Fatalf("final must disable the target and its controls")
	}

	// A data load does not notify; content-ready resynchronises.
	status.Load([]string{"draft"})
	fx.bus.Dispatch(context.Background(), fx.ed.Node(), events.ContentReady, events.ContentReadyPayload{Editor: "ed"})
	if dom.Disabled(target) {
		t.Fatalf("content-ready must re-enable the target")
	}
}

func TestInterval_ChecksOrder(t *testing.T) {
	fx := newFixture(t, `<body><div id="ed">
<div id="host" data-binding="interval" data-variable="period" data-min-date="start" data-max-date="end">
  <input data-plugin="date" data-variable="start">
  <input data-plugin="date" data-variable="end">
  <span data-error="period" class="hide"></span>
</div>
<div id="partial" data-binding="interval" data-variable="period" data-min-date="start"></div>
</div></body>`)
	if err := fx.start("host", binding.NameInterval); err != nil {
		t.Fatalf("start: %v", err)
	}
	start, end := fx.field("start"), fx.field("end")
	msg := dom.First(fx.doc, dom.AttrEquals("data-error", "period"))
	if dom.Text(msg) == "" {
		t.Fatalf("empty error element must receive the default message")
	}

	start.Update(context.Background(), []string{"10/05/2024"})
	end.Update(context.Background(), []string{"2024-05-01"})
	if end.Validate() || dom.HasClass(msg, "hide") {
		t.Fatalf("end before start must be invalid")
	}
	end.Update(context.Background(), []string{"2024-05-10"})
	if !end.Validate() || !start.Validate() || !dom.HasClass(msg, "hide") {
		t.Fatalf("same day must be valid")
	}

	if err := fx.start("partial", binding.NameInterval); !errors.Is(err, binding.ErrMissingParam) {
		t.Fatalf("expected missing data-max-date, got %v", err)
	}
}

func TestAjax_ReloadsTargetOptions(t *testing.T) {
	srv := httptest.NewServer(choices.Handler(choices.WithTable(choices.Table{
		"fr": {{Value: "paris", Label: "Paris"}, {Value: "lyon", Label: "Lyon"}},
		"ch": {{Value: "bern", Label: "Bern"}},
	})))
	defer srv.Close()

	fx := newFixture(t, `<body><div id="ed">
<div id="host" data-binding="ajax" data-variable="country" data-ajax-url="`+srv.URL+`/api/choices" data-ajax-target="city" data-ajax-param="key">
  <select data-plugin="choice" data-variable="country"><option value="fr">France</option><option value="ch">Suisse</option></select>
</div>
<select data-plugin="select2" data-variable="city"><option value="old">Old</option></select>
<div id="broken" data-binding="ajax" data-variable="country"></div>
</div></body>`)
	fx.fetcher = transport.New()

	if err := fx.start("host", binding.NameAjax); err != nil {
		t.Fatalf("start: %v", err)
	}
	country := fx.field("country")
	city := field.Unwrap(fx.field("city")).(*field.Choice)

	country.Update(context.Background(), []string{"fr"})
	want := []field.Option{{Value: "paris", Label: "Paris"}, {Value: "lyon", Label: "Lyon"}}
	if diff := cmp.Diff(want, city.Options()); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}

	city.Update(context.Background(), []string{"lyon"})
	country.Update(context.Background(), []string{"ch"})
	if diff := cmp.Diff([]field.Option{{Value: "bern", Label: "Bern"}}, city.Options()); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
	if len(city.Data()) != 0 {
		t.Fatalf("a selection absent from the new list must be dropped, got %v", city.Data())
	}
	if got := len(fx.reporter.Errors()); got != 0 {
		t.Fatalf("unexpected reported errors: %v", fx.reporter.Errors())
	}

	if err := fx.start("broken", binding.NameAjax); !errors.Is(err, binding.ErrMissingParam) {
		t.Fatalf("expected missing ajax parameters, got %v", err)
	}
}

func TestAjax_ReportsFetchFailures(t *testing.T) {
	fx := newFixture(t, `<body><div id="ed">
<div id="host" data-binding="ajax" data-variable="country" data-ajax-url="~/options" data-ajax-target="city">
  <select data-plugin="choice" data-variable="country"><option value="fr">France</option></select>
</div>
<select data-plugin="select2" data-variable="city"></select>
</div></body>`)
	var requested []string
	fx.fetcher = host.FetcherFunc(func(_ context.Context, url string) ([]byte, error) {
		requested = append(requested, url)
		return nil, errors.New("offline")
	})
	if err := fx.start("host", binding.NameAjax); err != nil {
		t.Fatalf("start: %v", err)
	}

	fx.field("country").Update(context.Background(), []string{"fr"})
	if diff := cmp.Diff([]string{"http://example.com/app/page/options?country=fr"}, requested); diff != "" {
		t.Fatalf("requested url mismatch (-want +got):\n%s", diff)
	}
	if got := len(fx.reporter.Errors()); got != 1 {
		t.Fatalf("expected one reported error, got %d", got)
	}
}

func TestSelect_ClickTogglesSelection(t *testing.T) {
	fx := newFixture(t, `<body><div id="ed">
<button id="host" data-binding="select" data-variable="tags">All</button>
<select data-plugin="choice2" data-variable="tags"><option value="a">A</option><option value="b">B</option></select>
</div></body>`)
	if err := fx.start("host", binding.NameSelect); err != nil {
		t.Fatalf("start: %v", err)
	}
	tags := fx.field("tags")
	hostNode := dom.ByID(fx.doc, "host")

	fx.bus.Dispatch(context.Background(), hostNode, events.Click, nil)
	if diff := cmp.Diff([]string{"a", "b"}, tags.Data()); diff != "" {
		t.Fatalf("select all mismatch (-want +got):\n%s", diff)
	}
	fx.bus.Dispatch(context.Background(), hostNode, events.Click, nil)
	if len(tags.Data()) != 0 {
		t.Fatalf("second click must clear the selection")
	}
}
