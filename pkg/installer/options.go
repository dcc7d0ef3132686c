package installer

import (
	"github.com/goliatone/go-axelforms/pkg/command"
	"github.com/goliatone/go-axelforms/pkg/config"
	"github.com/goliatone/go-axelforms/pkg/field"
	"github.com/goliatone/go-axelforms/pkg/host"
	"github.com/goliatone/go-axelforms/pkg/i18n"
	"github.com/goliatone/go-axelforms/pkg/logging"
	"github.com/goliatone/go-axelforms/pkg/resolve"
	"github.com/goliatone/go-axelforms/pkg/transport"
)

// Option customises an Installer.
type Option func(*Installer)

// WithConfig sets the base configuration. The page configuration script is
// layered over it at install time.
func WithConfig(cfg config.Config) Option {
	return func(i *Installer) {
		i.cfg = cfg
	}
}

// WithHost replaces the template host.
func WithHost(h host.Host) Option {
	return func(i *Installer) {
		i.host = h
	}
}

// WithClient sets the HTTP client used by save and submit.
func WithClient(c *transport.Client) Option {
	return func(i *Installer) {
		i.client = c
	}
}

// WithFetcher sets the fetcher used for templates, editor data and ajax
// option lists. It defaults to the client.
func WithFetcher(f host.Fetcher) Option {
	return func(i *Installer) {
		i.fetcher = f
	}
}

// WithResolver sets the URL resolver. Without it one is built from the
// configured page URL.
func WithResolver(r *resolve.Resolver) Option {
	return func(i *Installer) {
		i.resolver = r
	}
}

// WithPlugins sets the field plugin registry.
func WithPlugins(p *field.Registry) Option {
	return func(i *Installer) {
		i.plugins = p
	}
}

// WithConfirmer sets how users are asked for confirmation.
func WithConfirmer(c command.Confirmer) Option {
	return func(i *Installer) {
		i.confirmer = c
	}
}

// WithNavigator sets how redirects leave the page.
func WithNavigator(n command.Navigator) Option {
	return func(i *Installer) {
		i.navigator = n
	}
}

// WithTranslator sets the message catalog.
func WithTranslator(t i18n.Translator) Option {
	return func(i *Installer) {
		i.translator = t
	}
}

// WithReporter sets the central error hook.
func WithReporter(r logging.Reporter) Option {
	return func(i *Installer) {
		i.reporter = r
	}
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(i *Installer) {
		i.logger = l
	}
}
