package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-axelforms/pkg/config"
	"github.com/goliatone/go-axelforms/pkg/dom"
	"github.com/goliatone/go-axelforms/pkg/installer"
	"github.com/goliatone/go-axelforms/pkg/logging"
	"github.com/goliatone/go-axelforms/pkg/transport"
)

func TestParseStep(t *testing.T) {
	s, err := parseStep(stepClick, "save:reset")
	require.NoError(t, err)
	assert.Equal(t, step{kind: stepClick, id: "save", name: "reset"}, s)

	s, err = parseStep(stepClick, "save")
	require.NoError(t, err)
	assert.Equal(t, "", s.name)

	s, err = parseStep(stepSet, "person/name=Ada=Lovelace")
	require.NoError(t, err)
	assert.Equal(t, "person/name", s.name)
	assert.Equal(t, "Ada=Lovelace", s.value)

	_, err = parseStep(stepSet, "novalue")
	assert.Error(t, err)
	_, err = parseStep(stepClick, ":save")
	assert.Error(t, err)
}

func TestStepFlag_KeepsOrder(t *testing.T) {
	var steps []step
	click := stepFlag{steps: &steps, kind: stepClick}
	set := stepFlag{steps: &steps, kind: stepSet}
	require.NoError(t, click.Set("ed:transform"))
	require.NoError(t, set.Set("name=Ada"))
	require.NoError(t, click.Set("save"))

	require.Len(t, steps, 3)
	assert.Equal(t, stepClick, steps[0].kind)
	assert.Equal(t, stepSet, steps[1].kind)
	assert.Equal(t, "save", steps[2].id)
}

func TestFileFetcher(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "forms"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "forms", "a.xml"), []byte("<div/>"), 0o600))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("remote"))
	}))
	defer srv.Close()

	f := newFileFetcher(root, transport.New())
	ctx := context.Background()

	got, err := f.Fetch(ctx, "/forms/a.xml?v=2")
	require.NoError(t, err)
	assert.Equal(t, "<div/>", string(got))

	got, err = f.Fetch(ctx, srv.URL+"/data.xml")
	require.NoError(t, err)
	assert.Equal(t, "remote", string(got))

	_, err = f.Fetch(ctx, "../secret")
	assert.Error(t, err)
	_, err = f.Fetch(ctx, "ftp://example.com/a")
	assert.Error(t, err)
}

func TestSteps_SetThenClick(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "person.xml"),
		[]byte(`<div><input data-plugin="input" data-variable="name" data-default="?"></div>`), 0o600))

	doc, err := dom.ParseString(`<body>
<div id="ed" data-template="person.xml" data-command="transform"></div>
<button id="reset" data-command="reset" data-target="ed"></button>
</body>`)
	require.NoError(t, err)

	rec := logging.NewRecorder(nil)
	inst := installer.New(
		installer.WithConfig(config.Config{BundlesPath: "/bundles"}),
		installer.WithFetcher(newFileFetcher(root, transport.New())),
		installer.WithReporter(rec),
	)
	ctx := context.Background()
	require.NoError(t, inst.Install(ctx, doc))

	require.NoError(t, step{kind: stepClick, id: "ed", name: "transform"}.apply(ctx, inst))
	require.NoError(t, step{kind: stepSet, name: "name", value: "Ada"}.apply(ctx, inst))

	ed, ok := inst.Editors().Lookup("ed")
	require.True(t, ok)
	name, ok := ed.Field("name")
	require.True(t, ok)
	assert.Equal(t, []string{"Ada"}, name.Data())

	require.NoError(t, step{kind: stepClick, id: "reset"}.apply(ctx, inst))
	assert.Equal(t, []string{"?"}, name.Data())

	assert.Error(t, step{kind: stepSet, name: "missing", value: "x"}.apply(ctx, inst))
	assert.Error(t, step{kind: stepClick, id: "ghost"}.apply(ctx, inst))
	assert.Empty(t, rec.Errors())
}
