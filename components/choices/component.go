package choices

import "net/http"

// Component serves the dependent option lists that ajax bindings fetch when
// their parent field changes. A page with a country select bound to
// data-ajax-url="/api/choices" mounts one Component and every city select
// below it is refilled from the same table.
type Component struct {
	opts Options
}

// New builds a component over the embedded lists unless WithTable is given.
func New(fns ...OptionFn) *Component {
	return &Component{opts: NewOptions(fns...)}
}

func (c *Component) Options() Options {
	if c == nil {
		return DefaultOptions()
	}
	return NewOptions(func(o *Options) { *o = c.opts })
}

// Choices returns the list for the parent value key, filtered by query and
// capped at the default limit. It is what the handler answers for
// ?key=<key>&q=<query>.
func (c *Component) Choices(key, query string) ([]Option, error) {
	opts := c.Options()
	table, err := tableFor(opts)
	if err != nil {
		return nil, err
	}
	return Search(table, key, query, 0, opts), nil
}

func (c *Component) Handler() http.Handler {
	if c == nil {
		return Handler()
	}
	return HandlerWithOptions(c.opts)
}

// RegisterRoutes mounts the list endpoint under basePath and returns the
// pattern ajax bindings should point data-ajax-url at.
func (c *Component) RegisterRoutes(mux Mux, basePath string) (string, error) {
	if c == nil {
		return RegisterRoutes(mux, basePath)
	}
	return RegisterRoutesWithOptions(mux, basePath, c.opts)
}
