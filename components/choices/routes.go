package choices

import (
	"fmt"
	"net/http"
	"path"
	"strings"
)

// Mux is satisfied by *http.ServeMux.
type Mux interface {
	Handle(pattern string, handler http.Handler)
}

// MountPath joins basePath and the configured route path.
func MountPath(basePath string, fns ...OptionFn) string {
	return joinRoute(basePath, NewOptions(fns...).RoutePath)
}

// RegisterRoutes mounts the handler under basePath and returns the pattern.
func RegisterRoutes(mux Mux, basePath string, fns ...OptionFn) (string, error) {
	return RegisterRoutesWithOptions(mux, basePath, NewOptions(fns...))
}

// RegisterRoutesWithOptions is RegisterRoutes for a pre-built Options value.
func RegisterRoutesWithOptions(mux Mux, basePath string, opts Options) (string, error) {
	if mux == nil {
		return "", fmt.Errorf("choices: missing mux")
	}
	opts = NewOptions(func(o *Options) { *o = opts })
	pattern := joinRoute(basePath, opts.RoutePath)
	mux.Handle(pattern, HandlerWithOptions(opts))
	return pattern, nil
}

func joinRoute(basePath, routePath string) string {
	routePath = "/" + strings.Trim(strings.TrimSpace(routePath), "/")
	basePath = strings.Trim(strings.TrimSpace(basePath), "/")
	if basePath == "" {
		return routePath
	}
	return path.Join("/"+basePath, routePath)
}
