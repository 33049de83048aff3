package trscan

import (
	"context"
	"net/http"
	"time"

	theme "github.com/goliatone/go-theme"
	"go.uber.org/zap"

	"github.com/goliatone/go-trscan/pkg/findings"
	"github.com/goliatone/go-trscan/pkg/metrics"
	"github.com/goliatone/go-trscan/pkg/render"
	rendertemplate "github.com/goliatone/go-trscan/pkg/render/template"
	"github.com/goliatone/go-trscan/pkg/reports"
	"github.com/goliatone/go-trscan/pkg/scanner"
	"github.com/goliatone/go-trscan/pkg/widgets"
)

const (
	DefaultRoutePath = "/trscan"
	defaultPageTitle = "Static Analysis"
)

// GuardFunc authorizes a request. A returned HTTPError picks the status,
// anything else answers 403.
type GuardFunc func(r *http.Request) error

// UserFunc resolves the requesting user. A nil user is unrestricted.
type UserFunc func(r *http.Request) (*findings.User, error)

// Submitter queues PDF reports. *reports.Queue implements it.
type Submitter interface {
	Submit(ctx context.Context, r *reports.Report, user *findings.User) error
}

// Scanner runs the static analyser. *scanner.Runner implements it.
type Scanner interface {
	Check() error
	Run(ctx context.Context, req scanner.Request) (scanner.Result, error)
}

type Options struct {
	RoutePath string
	PageTitle string
	Guard     GuardFunc
	UserFunc  UserFunc

	Factory   *widgets.Factory
	Renderers *render.Registry
	// Templates renders the builder page; nil uses the embedded page.
	Templates rendertemplate.TemplateRenderer
	// WidgetTemplates overrides the widget templates of reports and panels.
	WidgetTemplates rendertemplate.TemplateRenderer
	Theme           *theme.RendererConfig

	Queue   Submitter
	Reports reports.Store
	Runner  Scanner

	Logger  *zap.Logger
	Metrics *metrics.Metrics
	// ServerPort is appended to resolved hosts when the listener address is
	// not on the request context.
	ServerPort string
	Clock      func() time.Time
}

type OptionFn func(*Options)

func DefaultOptions() Options {
	return Options{
		RoutePath: DefaultRoutePath,
		PageTitle: defaultPageTitle,
		Clock:     time.Now,
	}
}

func NewOptions(fns ...OptionFn) Options {
	opts := DefaultOptions()
	for _, fn := range fns {
		if fn == nil {
			continue
		}
		fn(&opts)
	}
	if opts.RoutePath == "" {
		opts.RoutePath = DefaultRoutePath
	}
	if opts.PageTitle == "" {
		opts.PageTitle = defaultPageTitle
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return opts
}

func WithRoutePath(path string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.RoutePath = path
	}
}

func WithPageTitle(title string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.PageTitle = title
	}
}

func WithGuard(guard GuardFunc) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Guard = guard
	}
}

func WithUserFunc(fn UserFunc) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.UserFunc = fn
	}
}

func WithFactory(factory *widgets.Factory) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Factory = factory
	}
}

func WithRenderers(registry *render.Registry) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Renderers = registry
	}
}

func WithTemplates(templates rendertemplate.TemplateRenderer) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Templates = templates
	}
}

func WithWidgetTemplates(templates rendertemplate.TemplateRenderer) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.WidgetTemplates = templates
	}
}

func WithTheme(cfg *theme.RendererConfig) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Theme = cfg
	}
}

func WithQueue(queue Submitter) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Queue = queue
	}
}

func WithReports(store reports.Store) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Reports = store
	}
}

func WithRunner(runner Scanner) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Runner = runner
	}
}

func WithLogger(logger *zap.Logger) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Metrics = m
	}
}

func WithServerPort(port string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.ServerPort = port
	}
}

func WithClock(now func() time.Time) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Clock = now
	}
}
