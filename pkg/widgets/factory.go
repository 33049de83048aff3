package widgets

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-trscan/pkg/findings"
	"github.com/goliatone/go-trscan/pkg/forms"
	"github.com/goliatone/go-trscan/pkg/layout"
	"github.com/goliatone/go-trscan/pkg/logging"
	"github.com/goliatone/go-trscan/pkg/model"
)

// BuildRequest is the input of Factory.Build.
type BuildRequest struct {
	// Layout is the JSON descriptor posted by the report builder.
	Layout []byte
	// User scopes finding queries; nil is unrestricted.
	User *findings.User
	// Host prefixes links back to the application.
	Host          string
	FindingNotes  bool
	FindingImages bool
	// Page selects the finding list page shown in builder panels.
	Page int
}

// BuildEnv is what constructors see while a layout is built.
type BuildEnv struct {
	Repository    findings.Repository
	User          *findings.User
	Host          string
	FindingNotes  bool
	FindingImages bool
	Page          int
	PageSize      int
	Now           time.Time
	// PathRoot constrains path fields of option panels.
	PathRoot string
	// Pristine builds widgets for the builder palette: panels are not bound.
	Pristine bool
}

// Factory builds widget selections from layout descriptors.
type Factory struct {
	repo     findings.Repository
	registry *Registry
	now      func() time.Time
	pathRoot string
	pageSize int
}

// FactoryOption customises a Factory.
type FactoryOption func(*Factory)

// WithRegistry replaces the built-in kind registry.
func WithRegistry(registry *Registry) FactoryOption {
	return func(f *Factory) {
		if registry != nil {
			f.registry = registry
		}
	}
}

// WithClock sets the reference instant for date filters.
func WithClock(now func() time.Time) FactoryOption {
	return func(f *Factory) {
		if now != nil {
			f.now = now
		}
	}
}

// WithPathRoot constrains path fields of option panels to root.
func WithPathRoot(root string) FactoryOption {
	return func(f *Factory) {
		f.pathRoot = root
	}
}

// WithPageSize sets the finding list page size of builder panels.
func WithPageSize(size int) FactoryOption {
	return func(f *Factory) {
		if size > 0 {
			f.pageSize = size
		}
	}
}

// NewFactory returns a factory querying repo.
func NewFactory(repo findings.Repository, opts ...FactoryOption) *Factory {
	f := &Factory{
		repo:     repo,
		registry: NewRegistry(),
		now:      time.Now,
		pageSize: findings.DefaultPageSize,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// Registry returns the kind registry in use.
func (f *Factory) Registry() *Registry {
	return f.registry
}

// Build parses req.Layout and constructs one widget per entry, in order.
// Entries of unregistered kinds are skipped. Multiple kinds are keyed
// "<kind>-<index>"; a repeated singleton replaces the earlier widget and
// keeps its position.
func (f *Factory) Build(ctx context.Context, req BuildRequest) (*Selection, error) {
	entries, err := layout.Parse(req.Layout)
	if err != nil {
		return nil, err
	}
	return f.build(ctx, entries, f.env(req, false))
}

// Available builds the builder palette: one pristine widget per kind, keyed
// by kind, with every form field at its initial value.
func (f *Factory) Available(ctx context.Context, req BuildRequest, kinds ...layout.Kind) (*Selection, error) {
	entries := make([]layout.Entry, 0, len(kinds))
	for i, kind := range kinds {
		entries = append(entries, layout.Entry{Index: i, Kind: kind, Params: initialParams(kind)})
	}
	return f.build(ctx, entries, f.env(req, true))
}

func (f *Factory) env(req BuildRequest, pristine bool) BuildEnv {
	return BuildEnv{
		Repository:    f.repo,
		User:          req.User,
		Host:          req.Host,
		FindingNotes:  req.FindingNotes,
		FindingImages: req.FindingImages,
		Page:          max(req.Page, 1),
		PageSize:      f.pageSize,
		Now:           f.now(),
		PathRoot:      f.pathRoot,
		Pristine:      pristine,
	}
}

func (f *Factory) build(ctx context.Context, entries []layout.Entry, env BuildEnv) (*Selection, error) {
	logger := logging.FromContext(ctx)
	selection := NewSelection()
	for _, entry := range entries {
		build, ok := f.registry.Get(entry.Kind)
		if !ok {
			logger.Debug("skipping unknown widget kind", zap.String("kind", string(entry.Kind)), zap.Int("index", entry.Index))
			continue
		}
		widget, err := build(ctx, entry, env)
		if err != nil {
			return nil, fmt.Errorf("widgets: build %s: %w", entry.Key(), err)
		}
		selection.Set(paletteKey(entry, env.Pristine), widget)
	}
	return selection, nil
}

// paletteKey keys pristine widgets by bare kind: the builder page clones them
// and numbers the copies itself.
func paletteKey(entry layout.Entry, pristine bool) string {
	if pristine {
		return string(entry.Kind)
	}
	return entry.Key()
}

// initialParams lists every field of kind's form at its initial value.
func initialParams(kind layout.Kind) layout.Params {
	form, ok := forms.Lookup(string(kind))
	if !ok {
		return nil
	}
	params := make(layout.Params, 0, len(form.Fields))
	for _, field := range form.Fields {
		value := ""
		if field.Default != nil {
			value = fmt.Sprint(field.Default)
		}
		params = append(params, layout.Param{Name: field.Name, Value: value})
	}
	return params
}

func panelConstructor(build func(PanelConfig) Widget) Constructor {
	return func(_ context.Context, entry layout.Entry, env BuildEnv) (Widget, error) {
		cfg := PanelConfig{}
		if !env.Pristine {
			spec, err := entry.Decode()
			if err != nil {
				return nil, err
			}
			panelSpec, ok := spec.(layout.OptionPanelSpec)
			if !ok {
				return nil, fmt.Errorf("%w: %s is not an option panel", layout.ErrUnknownKind, entry.Kind)
			}
			form, _ := forms.Lookup(string(entry.Kind))
			values, err := forms.Bind(form, panelSpec.Values, forms.WithDecorators(forms.RootDecorator(env.PathRoot)))
			if err != nil && !errors.Is(err, forms.ErrInvalid) {
				return nil, err
			}
			cfg = PanelConfig{Values: values, Err: err}
		}
		widget := build(cfg)
		if d, ok := widget.(interface {
			decorate(...model.Decorator) error
		}); ok {
			if err := d.decorate(forms.RootDecorator(env.PathRoot)); err != nil {
				return nil, err
			}
		}
		return widget, nil
	}
}

func buildCoverPage(_ context.Context, entry layout.Entry, _ BuildEnv) (Widget, error) {
	spec, err := entry.Decode()
	if err != nil {
		return nil, err
	}
	s := spec.(layout.CoverPageSpec)
	return NewCoverPage(CoverPageConfig{Heading: s.Heading, SubHeading: s.SubHeading, MetaInfo: s.MetaInfo}), nil
}

func buildTableOfContents(_ context.Context, entry layout.Entry, _ BuildEnv) (Widget, error) {
	spec, err := entry.Decode()
	if err != nil {
		return nil, err
	}
	s := spec.(layout.TableOfContentsSpec)
	return NewTableOfContents(TableOfContentsConfig{Heading: s.Heading, Depth: s.Depth}), nil
}

func buildContent(_ context.Context, entry layout.Entry, _ BuildEnv) (Widget, error) {
	spec, err := entry.Decode()
	if err != nil {
		return nil, err
	}
	s := spec.(layout.ContentSpec)
	cfg := ContentConfig{Heading: s.Heading, Content: s.Content}
	if s.Panel == layout.KindLoadFilesContent {
		return NewLoadFilesContent(cfg), nil
	}
	return NewWYSIWYGContent(cfg), nil
}

func buildReportOptions(_ context.Context, entry layout.Entry, _ BuildEnv) (Widget, error) {
	spec, err := entry.Decode()
	if err != nil {
		return nil, err
	}
	s := spec.(layout.ReportOptionsSpec)
	return NewReportOptions(ReportOptionsConfig{
		ReportName:           s.ReportName,
		ReportType:           s.ReportType,
		IncludeFindingNotes:  s.IncludeFindingNotes,
		IncludeFindingImages: s.IncludeFindingImages,
	}), nil
}

// findingFilterFields are the parameters a finding list may filter on.
var findingFilterFields = fieldNames(forms.FindingFilter())

var endpointFilterFields = fieldNames(forms.EndpointFilter())

func fieldNames(form model.FormModel) map[string]bool {
	out := make(map[string]bool, len(form.Fields))
	for _, field := range form.Fields {
		out[field.Name] = true
	}
	return out
}

func restrict(values url.Values, allowed map[string]bool) url.Values {
	out := make(url.Values, len(values))
	for name, v := range values {
		if allowed[name] {
			out[name] = v
		}
	}
	return out
}

func buildFindingList(ctx context.Context, entry layout.Entry, env BuildEnv) (Widget, error) {
	if env.Repository == nil {
		return nil, errors.New("finding repository is required")
	}
	spec, err := entry.Decode()
	if err != nil {
		return nil, err
	}
	filter := restrict(spec.(layout.ListSpec).Filter, findingFilterFields)

	cfg := FindingListConfig{
		Filter:        filter,
		Host:          env.Host,
		FindingNotes:  env.FindingNotes,
		FindingImages: env.FindingImages,
	}
	if env.User != nil {
		cfg.UserID = env.User.ID
	}
	if _, err := forms.Bind(forms.FindingFilter(), filter); err != nil {
		var verr *forms.ValidationError
		if errors.As(err, &verr) {
			cfg.FilterErrors = verr.Fields
		}
	}

	query := findings.Query{Lookup: findings.FilterLookup(filter, env.Now, findings.FindingFields), ProductIDs: env.User.Scope()}
	all, err := env.Repository.Findings(ctx, query)
	if err != nil {
		return nil, err
	}
	cfg.Findings = all.Items
	cfg.Page = findings.Paginate(all.Items, env.Page, env.PageSize)

	if cfg.TitleWords, err = env.Repository.Words(ctx, "title", query); err != nil {
		return nil, err
	}
	if cfg.ComponentWords, err = env.Repository.Words(ctx, "component_name", query); err != nil {
		return nil, err
	}
	return NewFindingList(cfg), nil
}

func buildEndpointList(ctx context.Context, entry layout.Entry, env BuildEnv) (Widget, error) {
	if env.Repository == nil {
		return nil, errors.New("finding repository is required")
	}
	spec, err := entry.Decode()
	if err != nil {
		return nil, err
	}
	filter := restrict(spec.(layout.ListSpec).Filter, endpointFilterFields)
	scope := env.User.Scope()

	endpoints, err := env.Repository.Endpoints(ctx, findings.Query{
		Lookup:         findings.FilterLookup(filter, env.Now, findings.EndpointFields),
		ProductIDs:     scope,
		ReportableOnly: true,
	})
	if err != nil {
		return nil, err
	}
	reportable, err := env.Repository.Findings(ctx, findings.Query{Lookup: findings.ReportableLookup(), ProductIDs: scope})
	if err != nil {
		return nil, err
	}
	byEndpoint := make(map[int][]findings.Finding)
	for _, f := range reportable.Items {
		for _, id := range f.EndpointIDs {
			byEndpoint[id] = append(byEndpoint[id], f)
		}
	}
	return NewEndpointList(EndpointListConfig{
		Endpoints: endpoints,
		Findings:  byEndpoint,
		Filter:    filter,
		Host:      env.Host,
	}), nil
}
