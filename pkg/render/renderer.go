// Package render defines the report renderer capability: a Document built
// from a widget selection and the renderers that turn it into HTML, AsciiDoc
// or PDF.
package render

import (
	"context"
	"errors"

	theme "github.com/goliatone/go-theme"

	rendertemplate "github.com/goliatone/go-trscan/pkg/render/template"
	"github.com/goliatone/go-trscan/pkg/widgets"
)

var (
	// ErrUnsupportedFormat reports a format no renderer handles.
	ErrUnsupportedFormat = errors.New("render: unsupported report format")
	// ErrEmptyDocument reports a document without a widget selection.
	ErrEmptyDocument = errors.New("render: document has no widgets")
)

// Renderer converts a Document into a report.
type Renderer interface {
	Name() string
	Format() Format
	ContentType() string
	Render(ctx context.Context, doc Document) ([]byte, error)
}

// Document is what a renderer receives: the built widgets plus report level
// settings.
type Document struct {
	Title         string
	Widgets       *widgets.Selection
	Host          string
	FindingNotes  bool
	FindingImages bool
	UserID        int
	// Theme styles HTML output; nil uses the renderer defaults.
	Theme *theme.RendererConfig
	// Templates overrides the widget templates.
	Templates rendertemplate.TemplateRenderer
}

// Section is one rendered widget.
type Section struct {
	Key     string
	Kind    string
	Content string
}

// SectionFunc renders a widget in one format.
type SectionFunc func(ctx context.Context, w widgets.Widget, rc widgets.RenderContext) (string, error)

// Sections renders every widget of doc in layout order. Widgets with empty
// output are left out.
func Sections(ctx context.Context, doc Document, fn SectionFunc) ([]Section, error) {
	if doc.Widgets == nil {
		return nil, ErrEmptyDocument
	}
	outline := doc.Widgets.Outline()
	out := make([]Section, 0, doc.Widgets.Len())
	for _, key := range doc.Widgets.Keys() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		w, _ := doc.Widgets.Get(key)
		content, err := fn(ctx, w, widgets.RenderContext{
			Templates: doc.Templates,
			Anchor:    key,
			Outline:   outline,
		})
		if err != nil {
			return nil, err
		}
		if content == "" {
			continue
		}
		out = append(out, Section{Key: key, Kind: string(w.Kind()), Content: content})
	}
	return out, nil
}

// HTMLSection renders widgets with Widget.HTML.
func HTMLSection(ctx context.Context, w widgets.Widget, rc widgets.RenderContext) (string, error) {
	return w.HTML(ctx, rc)
}

// AsciiDocSection renders widgets with Widget.AsciiDoc.
func AsciiDocSection(ctx context.Context, w widgets.Widget, rc widgets.RenderContext) (string, error) {
	return w.AsciiDoc(ctx, rc)
}

// ReportTitle returns the document title: the explicit title, else the
// cover page heading.
func (d Document) ReportTitle() string {
	if d.Title != "" {
		return d.Title
	}
	if cover, ok := d.Widgets.CoverPage(); ok {
		return cover.Config().Heading
	}
	return ""
}
