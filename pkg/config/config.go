// Package config holds the installer configuration. Values come from a
// YAML, TOML or JSON file and from the configuration script of the page,
// which takes precedence.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/net/html"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-axelforms/pkg/dom"
)

// Attributes of the page configuration script.
const (
	AttrBundlesPath    = "data-bundles-path"
	AttrWhen           = "data-when"
	AttrLocale         = "data-locale"
	AttrErrorContainer = "data-error-container"

	// WhenDeferred postpones the automatic install pass.
	WhenDeferred = "deferred"
)

// DefaultTimeout bounds network requests when no timeout is configured.
const DefaultTimeout = 30 * time.Second

// ErrNoBundlesPath is reported when a page declares editors but the bundles
// path was never configured.
var ErrNoBundlesPath = errors.New("config: bundles path is not set")

// Config is the installer configuration.
type Config struct {
	BundlesPath    string `yaml:"bundles_path" toml:"bundles_path" json:"bundles_path"`
	Deferred       bool   `yaml:"deferred" toml:"deferred" json:"deferred"`
	Locale         string `yaml:"locale" toml:"locale" json:"locale"`
	PageURL        string `yaml:"page_url" toml:"page_url" json:"page_url"`
	Timeout        string `yaml:"timeout" toml:"timeout" json:"timeout"`
	ErrorContainer string `yaml:"error_container" toml:"error_container" json:"error_container"`
}

// Load reads the configuration file at path. The format follows the
// extension: .yaml, .yml, .toml or .json.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data, filepath.Ext(path))
}

// Parse decodes data in the format named by ext.
func Parse(data []byte, ext string) (Config, error) {
	var cfg Config
	if len(strings.TrimSpace(string(data))) == 0 {
		return cfg, nil
	}
	var err error
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "yaml", "yml":
		err = yaml.Unmarshal(data, &cfg)
	case "toml":
		err = toml.Unmarshal(data, &cfg)
	case "json":
		err = json.Unmarshal(data, &cfg)
	default:
		return cfg, fmt.Errorf("config: unsupported format %q", ext)
	}
	if err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", ext, err)
	}
	if _, err := cfg.TimeoutDuration(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// FromDocument reads the configuration script of doc: the first element
// carrying data-bundles-path. ok is false when the page has none.
func FromDocument(doc *html.Node) (cfg Config, ok bool) {
	script := dom.First(doc, dom.WithAttr(AttrBundlesPath))
	if script == nil {
		return cfg, false
	}
	cfg.BundlesPath = strings.TrimSpace(dom.AttrOr(script, AttrBundlesPath, ""))
	cfg.Deferred = strings.EqualFold(strings.TrimSpace(dom.AttrOr(script, AttrWhen, "")), WhenDeferred)
	cfg.Locale = strings.TrimSpace(dom.AttrOr(script, AttrLocale, ""))
	cfg.ErrorContainer = strings.TrimSpace(dom.AttrOr(script, AttrErrorContainer, ""))
	return cfg, true
}

// Merge returns c overlaid with the non-zero fields of over. Deferred is
// sticky: either side can defer.
func (c Config) Merge(over Config) Config {
	out := c
	if over.BundlesPath != "" {
		out.BundlesPath = over.BundlesPath
	}
	if over.Locale != "" {
		out.Locale = over.Locale
	}
	if over.PageURL != "" {
		out.PageURL = over.PageURL
	}
	if over.Timeout != "" {
		out.Timeout = over.Timeout
	}
	if over.ErrorContainer != "" {
		out.ErrorContainer = over.ErrorContainer
	}
	out.Deferred = c.Deferred || over.Deferred
	return out
}

// TimeoutDuration parses Timeout. An empty value yields DefaultTimeout.
func (c Config) TimeoutDuration() (time.Duration, error) {
	if strings.TrimSpace(c.Timeout) == "" {
		return DefaultTimeout, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(c.Timeout))
	if err != nil {
		return 0, fmt.Errorf("config: timeout %q: %w", c.Timeout, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("config: timeout %q must be positive", c.Timeout)
	}
	return d, nil
}

// HasBundlesPath reports whether editor creation is allowed.
func (c Config) HasBundlesPath() bool {
	return strings.TrimSpace(c.BundlesPath) != ""
}
