// Package trscan exposes the report builder through a small set of entry
// points so callers can build and render custom reports without wiring the
// widget factory, renderer registry and HTTP component by hand.
package trscan

import (
	"context"
	"io/fs"

	theme "github.com/goliatone/go-theme"

	component "github.com/goliatone/go-trscan/components/trscan"
	"github.com/goliatone/go-trscan/pkg/findings"
	"github.com/goliatone/go-trscan/pkg/render"
	"github.com/goliatone/go-trscan/pkg/renderers/html"
	"github.com/goliatone/go-trscan/pkg/widgets"
)

// Widget aliases widgets.Widget for callers of the root package.
type Widget = widgets.Widget

// Selection is an ordered set of built widgets.
type Selection = widgets.Selection

// BuildRequest describes a layout plus the report level flags used to build it.
type BuildRequest = widgets.BuildRequest

// Format names an output format such as PDF or AsciiDoc.
type Format = render.Format

// User scopes finding queries to authorized products.
type User = findings.User

// NewFactory returns a widget factory backed by repo.
func NewFactory(repo findings.Repository, options ...widgets.FactoryOption) *widgets.Factory {
	return widgets.NewFactory(repo, options...)
}

// NewComponent returns the HTTP component with a factory over repo already
// configured. Options passed by the caller win over the default factory.
func NewComponent(repo findings.Repository, options ...component.OptionFn) *component.Component {
	fns := make([]component.OptionFn, 0, len(options)+1)
	fns = append(fns, component.WithFactory(widgets.NewFactory(repo)))
	fns = append(fns, options...)
	return component.New(fns...)
}

// Generate builds the layout in req and renders it in the requested format.
// PDF output is produced synchronously; the HTTP component queues it instead.
func Generate(ctx context.Context, repo findings.Repository, req BuildRequest, format Format, cfg *theme.RendererConfig) ([]byte, error) {
	selection, err := widgets.NewFactory(repo).Build(ctx, req)
	if err != nil {
		return nil, err
	}
	registry, err := component.DefaultRenderers(cfg)
	if err != nil {
		return nil, err
	}
	renderer, err := registry.Get(format)
	if err != nil {
		return nil, err
	}
	doc := render.Document{
		Widgets:       selection,
		Host:          req.Host,
		FindingNotes:  req.FindingNotes,
		FindingImages: req.FindingImages,
		Theme:         cfg,
	}
	if req.User != nil {
		doc.UserID = req.User.ID
	}
	return renderer.Render(ctx, doc)
}

// EmbeddedTemplates exposes the built-in widget templates so callers can
// layer overrides on top of them.
func EmbeddedTemplates() fs.FS {
	return widgets.TemplatesFS()
}

// ReportAssetsFS exposes the stylesheet linked by HTML reports.
//
// Typical mount:
//
//	mux.Handle("/static/",
//	  http.StripPrefix("/static/",
//	    http.FileServerFS(trscan.ReportAssetsFS()),
//	  ),
//	)
func ReportAssetsFS() fs.FS {
	return html.AssetsFS()
}
