package trscan

import "net/http"

// Component bundles the report builder: the widget page, the custom report
// endpoint, the static run trigger and the report status lookup. It owns the
// Options those handlers share.
type Component struct {
	opts Options
}

// New constructs a builder component mounted under /trscan unless
// WithRoutePath says otherwise. Routes that build widgets need WithFactory.
func New(fns ...OptionFn) *Component {
	opts := NewOptions(fns...)
	return &Component{opts: opts}
}

// Options returns a copy of the component configuration.
func (c *Component) Options() Options {
	if c == nil {
		return DefaultOptions()
	}
	return NewOptions(func(o *Options) { *o = c.opts })
}

// Handler serves the builder page at the route path, POST /report and
// /RunStatic for rendering, GET /reports/{id} for queued report status and
// /openapi.json for the API description.
func (c *Component) Handler() http.Handler {
	if c == nil {
		return Handler()
	}
	return HandlerWithOptions(c.opts)
}

// RegisterRoutes mounts the builder routes on mux below basePath joined with
// the configured route path, and returns that prefix.
func (c *Component) RegisterRoutes(mux Mux, basePath string) (string, error) {
	if c == nil {
		return RegisterRoutes(mux, basePath)
	}
	return RegisterRoutesWithOptions(mux, basePath, c.opts)
}
