// Package asciidoc renders custom reports as an AsciiDoc document. The cover
// page heading becomes the document title and the table of contents is
// enabled through header attributes.
package asciidoc

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/goliatone/go-trscan/pkg/render"
	rendertemplate "github.com/goliatone/go-trscan/pkg/render/template"
	"github.com/goliatone/go-trscan/pkg/render/template/gotemplate"
)

//go:embed templates/*.tmpl
var embeddedTemplates embed.FS

const (
	pageTemplate = "templates/custom_asciidoc_report.tmpl"
	defaultTitle = "Custom Report"
)

// TemplatesFS exposes the document template.
func TemplatesFS() fs.FS {
	return embeddedTemplates
}

type Option func(*Renderer)

// WithTemplateRenderer injects a custom template renderer implementation.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(r *Renderer) {
		if renderer != nil {
			r.templates = renderer
		}
	}
}

// WithAuthor sets the author line of the document header.
func WithAuthor(author string) Option {
	return func(r *Renderer) {
		r.author = author
	}
}

type Renderer struct {
	templates rendertemplate.TemplateRenderer
	author    string
}

var _ render.Renderer = (*Renderer)(nil)

func New(options ...Option) (*Renderer, error) {
	r := &Renderer{}
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}
	if r.templates == nil {
		engine, err := gotemplate.New(
			gotemplate.WithFS(TemplatesFS()),
			gotemplate.WithExtension(".tmpl"),
		)
		if err != nil {
			return nil, fmt.Errorf("asciidoc renderer: configure template renderer: %w", err)
		}
		r.templates = engine
	}
	return r, nil
}

func (r *Renderer) Name() string {
	return "custom_asciidoc_report"
}

func (r *Renderer) Format() render.Format {
	return render.FormatAsciiDoc
}

func (r *Renderer) ContentType() string {
	return "text/plain; charset=utf-8"
}

func (r *Renderer) Render(ctx context.Context, doc render.Document) ([]byte, error) {
	sections, err := render.Sections(ctx, doc, render.AsciiDocSection)
	if err != nil {
		return nil, fmt.Errorf("asciidoc renderer: render sections: %w", err)
	}

	title := doc.ReportTitle()
	if title == "" {
		title = defaultTitle
	}
	contents := make([]map[string]any, 0, len(sections))
	for _, s := range sections {
		contents = append(contents, map[string]any{"key": s.Key, "content": s.Content})
	}
	data := map[string]any{
		"title":    title,
		"author":   r.author,
		"host":     doc.Host,
		"sections": contents,
	}
	if toc, ok := doc.Widgets.TableOfContents(); ok {
		cfg := toc.Config()
		// AsciiDoc counts "==" sections as level 1.
		data["toc"] = map[string]any{"heading": cfg.Heading, "levels": max(cfg.Depth-1, 1)}
	}

	result, err := r.templates.RenderTemplate(pageTemplate, data)
	if err != nil {
		return nil, fmt.Errorf("asciidoc renderer: render template: %w", err)
	}
	return []byte(result), nil
}
