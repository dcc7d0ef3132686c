package registry_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-axelforms/pkg/registry"
)

func TestRegister_OverwritesSilently(t *testing.T) {
	reg := registry.New[int]("command")
	reg.Register("save", 1)
	reg.Register(" save ", 2)

	got, ok := reg.Lookup("save")
	if !ok || got != 2 {
		t.Fatalf("expected latest registration to win, got %d (ok=%v)", got, ok)
	}
	if reg.Len() != 1 {
		t.Fatalf("expected a single entry, got %d", reg.Len())
	}
}

func TestLookup_Missing(t *testing.T) {
	reg := registry.New[string]("binding")
	if _, ok := reg.Lookup("nope"); ok {
		t.Fatalf("expected miss")
	}
	reg.Register("", "ignored")
	if reg.Len() != 0 {
		t.Fatalf("blank names must be ignored")
	}
}

func TestNamesSortedAndReset(t *testing.T) {
	reg := registry.New[bool]("plugin")
	for _, name := range []string{"select2", "choice", "input"} {
		reg.Register(name, true)
	}
	if diff := cmp.Diff([]string{"choice", "input", "select2"}, reg.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
	reg.Reset()
	if reg.Has("choice") || reg.Len() != 0 {
		t.Fatalf("reset should clear entries")
	}
}
