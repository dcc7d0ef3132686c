// Package i18n renders the user-facing messages of the engine: validation
// summaries, confirmations and error notices. Messages are pongo2 templates
// keyed by locale.
package i18n

import (
	"fmt"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"
)

// DefaultLocale is used when a locale has no catalog.
const DefaultLocale = "en"

// Message keys.
const (
	ValidationRequired = "validation.required"
	ValidationInvalid  = "validation.invalid"
	SaveConfirm        = "save.confirm"
	SaveCancelled      = "save.cancelled"
	SaveFailed         = "save.failed"
	TransformFailed    = "transform.failed"
	MissingEditor      = "command.missing-editor"
	IntervalInvalid    = "interval.invalid"
)

// Vars are the values available to a message template.
type Vars map[string]any

// Translator renders a message.
type Translator interface {
	Translate(locale, key string, vars Vars) string
}

// Catalog maps locale -> key -> pongo2 template source.
type Catalog map[string]map[string]string

// Templates is a Translator backed by a Catalog. Compiled templates are
// cached.
type Templates struct {
	catalog Catalog

	mu    sync.Mutex
	cache map[string]*pongo2.Template
}

// New builds a translator over catalog.
func New(catalog Catalog) *Templates {
	return &Templates{catalog: catalog, cache: make(map[string]*pongo2.Template)}
}

var (
	defaultOnce sync.Once
	defaultTr   *Templates
)

// Default returns the built-in English and French translator.
func Default() *Templates {
	defaultOnce.Do(func() {
		defaultTr = New(defaultCatalog)
	})
	return defaultTr
}

// Translate renders key for locale, falling back to DefaultLocale and then to
// the key itself.
func (t *Templates) Translate(locale, key string, vars Vars) string {
	src, cacheKey, ok := t.lookup(locale, key)
	if !ok {
		return key
	}
	tpl, err := t.compile(cacheKey, src)
	if err != nil {
		return src
	}
	ctx := pongo2.Context{}
	for k, v := range vars {
		ctx[k] = v
	}
	out, err := tpl.Execute(ctx)
	if err != nil {
		return src
	}
	return strings.TrimSpace(out)
}

// Locales lists the locales with a catalog.
func (t *Templates) Locales() []string {
	out := make([]string, 0, len(t.catalog))
	for locale := range t.catalog {
		out = append(out, locale)
	}
	return out
}

func (t *Templates) lookup(locale, key string) (string, string, bool) {
	for _, candidate := range candidates(locale) {
		if messages, ok := t.catalog[candidate]; ok {
			if src, ok := messages[key]; ok {
				return src, candidate + "/" + key, true
			}
		}
	}
	return "", "", false
}

// candidates yields "fr-CA", "fr", then the default locale.
func candidates(locale string) []string {
	locale = strings.ToLower(strings.TrimSpace(locale))
	var out []string
	if locale != "" {
		out = append(out, locale)
		if idx := strings.IndexAny(locale, "-_"); idx > 0 {
			out = append(out, locale[:idx])
		}
	}
	return append(out, DefaultLocale)
}

func (t *Templates) compile(cacheKey, src string) (*pongo2.Template, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if tpl, ok := t.cache[cacheKey]; ok {
		return tpl, nil
	}
	tpl, err := pongo2.FromString(src)
	if err != nil {
		return nil, fmt.Errorf("i18n: compile %s: %w", cacheKey, err)
	}
	t.cache[cacheKey] = tpl
	return tpl, nil
}

// List joins labels for inclusion in a message.
func List(labels []string) string {
	return strings.Join(labels, ", ")
}
