package host_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/goliatone/go-axelforms/pkg/dom"
	"github.com/goliatone/go-axelforms/pkg/field"
	"github.com/goliatone/go-axelforms/pkg/host"
	"github.com/goliatone/go-axelforms/pkg/logging"
)

func templates(files map[string]string) host.Fetcher {
	return host.FetcherFunc(func(_ context.Context, url string) ([]byte, error) {
		body, ok := files[url]
		if !ok {
			return nil, errors.New("not found: " + url)
		}
		return []byte(body), nil
	})
}

func TestFragment_Materialize(t *testing.T) {
	doc, _ := dom.ParseString(`<body><div id="target"><p>loading</p></div></body>`)
	target := dom.ByID(doc, "target")
	rec := logging.NewRecorder(nil)
	h := host.NewFragment(templates(map[string]string{
		"/t/person.xml": `<?xml version="1.0"?>
<fieldset><input data-plugin="input" data-variable="name"><span data-plugin="bogus"></span></fieldset>`,
	}), field.NewRegistry(), host.WithReporter(rec))

	var changed []string
	ed, err := h.Materialize(context.Background(), host.Request{
		Key:         "person",
		Target:      target,
		TemplateURL: "/t/person.xml",
		OnChange: func(_ context.Context, f field.Field) {
			changed = append(changed, f.Variable())
		},
	})
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	if ed.Key() != "person" || ed.Node() != target || ed.Template() != "/t/person.xml" {
		t.Fatalf("unexpected editor identity: %s %s", ed.Key(), ed.Template())
	}
	if strings.Contains(dom.Render(target), "loading") || strings.Contains(dom.Render(target), "<?xml") {
		t.Fatalf("target content was not replaced: %s", dom.Render(target))
	}

	name, ok := ed.Field("name")
	if !ok {
		t.Fatalf("field not collected")
	}
	name.Update(context.Background(), []string{"Ada"})
	if len(changed) != 1 {
		t.Fatalf("expected change hook to run once, got %d", len(changed))
	}
	if got := len(rec.Errors()); got != 1 {
		t.Fatalf("expected the unknown plugin to be reported once, got %d", got)
	}
}

func TestFragment_FetchFailureLeavesTarget(t *testing.T) {
	doc, _ := dom.ParseString(`<body><div id="target"><p>keep</p></div></body>`)
	target := dom.ByID(doc, "target")
	h := host.NewFragment(templates(nil), nil)

	_, err := h.Materialize(context.Background(), host.Request{Key: "k", Target: target, TemplateURL: "/missing.xml"})
	if err == nil || !strings.Contains(err.Error(), "fetch template /missing.xml") {
		t.Fatalf("expected wrapped fetch error, got %v", err)
	}
	if !strings.Contains(dom.Render(target), "keep") {
		t.Fatalf("target must be untouched on failure")
	}
}
