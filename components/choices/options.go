package choices

import "net/http"

// GuardFunc rejects a request by returning an error. Errors implementing
// HTTPError choose the response status.
type GuardFunc func(r *http.Request) error

// Options configures the handler.
type Options struct {
	RoutePath    string
	KeyParam     string
	SearchParam  string
	LimitParam   string
	DefaultLimit int
	MaxLimit     int
	Guard        GuardFunc

	// Table overrides the embedded lists.
	Table Table
}

type OptionFn func(*Options)

func DefaultOptions() Options {
	return Options{
		RoutePath:    "/api/choices",
		KeyParam:     "key",
		SearchParam:  "q",
		LimitParam:   "limit",
		DefaultLimit: 50,
		MaxLimit:     200,
	}
}

// NewOptions applies fns over the defaults and clamps the result.
func NewOptions(fns ...OptionFn) Options {
	opts := DefaultOptions()
	for _, fn := range fns {
		if fn == nil {
			continue
		}
		fn(&opts)
	}
	defaults := DefaultOptions()
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = defaults.DefaultLimit
	}
	if opts.MaxLimit <= 0 {
		opts.MaxLimit = defaults.MaxLimit
	}
	if opts.RoutePath == "" {
		opts.RoutePath = defaults.RoutePath
	}
	if opts.KeyParam == "" {
		opts.KeyParam = defaults.KeyParam
	}
	if opts.SearchParam == "" {
		opts.SearchParam = defaults.SearchParam
	}
	if opts.LimitParam == "" {
		opts.LimitParam = defaults.LimitParam
	}
	if opts.Table != nil {
		opts.Table = opts.Table.Clone()
	}
	return opts
}

func WithRoutePath(path string) OptionFn {
	return func(o *Options) {
		o.RoutePath = path
	}
}

func WithKeyParam(name string) OptionFn {
	return func(o *Options) {
		o.KeyParam = name
	}
}

func WithSearchParam(name string) OptionFn {
	return func(o *Options) {
		o.SearchParam = name
	}
}

func WithLimitParam(name string) OptionFn {
	return func(o *Options) {
		o.LimitParam = name
	}
}

func WithDefaultLimit(limit int) OptionFn {
	return func(o *Options) {
		o.DefaultLimit = limit
	}
}

func WithMaxLimit(limit int) OptionFn {
	return func(o *Options) {
		o.MaxLimit = limit
	}
}

func WithGuard(guard GuardFunc) OptionFn {
	return func(o *Options) {
		o.Guard = guard
	}
}

func WithTable(table Table) OptionFn {
	return func(o *Options) {
		o.Table = table.Clone()
	}
}

func clampLimit(limit int, opts Options) int {
	if limit < 0 {
		return 0
	}
	if limit == 0 {
		limit = opts.DefaultLimit
	}
	if opts.MaxLimit > 0 && limit > opts.MaxLimit {
		return opts.MaxLimit
	}
	return limit
}
