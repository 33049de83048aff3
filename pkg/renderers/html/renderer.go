// Package html renders custom reports as a standalone HTML page.
package html

import (
	"context"
	"fmt"
	"io/fs"
	"os"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-trscan/pkg/render"
	rendertemplate "github.com/goliatone/go-trscan/pkg/render/template"
	"github.com/goliatone/go-trscan/pkg/render/template/gotemplate"
)

const pageTemplate = "templates/custom_html_report.tmpl"

type Option func(*config)

type config struct {
	templateFS       fs.FS
	templateRenderer rendertemplate.TemplateRenderer
	theme            *theme.RendererConfig
}

// WithTemplatesFS layers an alternate page template bundle over the embedded
// one.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplatesDir loads the page template from a directory on disk.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		if path == "" {
			return
		}
		cfg.templateFS = os.DirFS(path)
	}
}

// WithTemplateRenderer injects a custom template renderer implementation.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.templateRenderer = renderer
		}
	}
}

// WithTheme sets the theme used when a document carries none.
func WithTheme(cfg *theme.RendererConfig) Option {
	return func(c *config) {
		c.theme = cfg
	}
}

type Renderer struct {
	templates rendertemplate.TemplateRenderer
	theme     *theme.RendererConfig
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs the HTML report renderer applying any provided options.
func New(options ...Option) (*Renderer, error) {
	cfg := config{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	renderer := cfg.templateRenderer
	if renderer == nil {
		files := []fs.FS{TemplatesFS()}
		if cfg.templateFS != nil {
			files = append([]fs.FS{cfg.templateFS}, files...)
		}
		engine, err := gotemplate.New(
			gotemplate.WithFS(files...),
			gotemplate.WithExtension(".tmpl"),
		)
		if err != nil {
			return nil, fmt.Errorf("html renderer: configure template renderer: %w", err)
		}
		renderer = engine
	}

	return &Renderer{templates: renderer, theme: cfg.theme}, nil
}

func (r *Renderer) Name() string {
	return "custom_html_report"
}

func (r *Renderer) Format() render.Format {
	return render.FormatHTML
}

func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

func (r *Renderer) Render(ctx context.Context, doc render.Document) ([]byte, error) {
	if r.templates == nil {
		return nil, fmt.Errorf("html renderer: template renderer is nil")
	}
	sections, err := render.Sections(ctx, doc, render.HTMLSection)
	if err != nil {
		return nil, fmt.Errorf("html renderer: render sections: %w", err)
	}

	cfg := doc.Theme
	if cfg == nil {
		cfg = r.theme
	}
	data := map[string]any{
		"title":      doc.ReportTitle(),
		"sections":   sectionViews(sections),
		"stylesheet": defaultStylesheet(),
	}
	if cfg != nil {
		data["theme"] = cfg.Theme
		data["variant"] = cfg.Variant
		data["theme_style"] = render.CSSVarsStyle(cfg.CSSVars)
		if cfg.AssetURL != nil {
			data["stylesheet_url"] = cfg.AssetURL("report.stylesheet")
		}
	}

	result, err := r.templates.RenderTemplate(pageTemplate, data)
	if err != nil {
		return nil, fmt.Errorf("html renderer: render template: %w", err)
	}
	return []byte(result), nil
}

func sectionViews(sections []render.Section) []map[string]any {
	out := make([]map[string]any, 0, len(sections))
	for _, s := range sections {
		out = append(out, map[string]any{"key": s.Key, "kind": s.Kind, "content": s.Content})
	}
	return out
}
