package trscan

import (
	"fmt"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-trscan/pkg/render"
	"github.com/goliatone/go-trscan/pkg/renderers/asciidoc"
	"github.com/goliatone/go-trscan/pkg/renderers/html"
	"github.com/goliatone/go-trscan/pkg/renderers/pdf"
)

// DefaultRenderers registers the HTML, AsciiDoc and PDF renderers. cfg styles
// the HTML and PDF output and may be nil.
func DefaultRenderers(cfg *theme.RendererConfig) (*render.Registry, error) {
	htmlRenderer, err := html.New(html.WithTheme(cfg))
	if err != nil {
		return nil, fmt.Errorf("trscan: html renderer: %w", err)
	}
	asciidocRenderer, err := asciidoc.New()
	if err != nil {
		return nil, fmt.Errorf("trscan: asciidoc renderer: %w", err)
	}
	registry := render.NewRegistry()
	for _, r := range []render.Renderer{htmlRenderer, asciidocRenderer, pdf.New(pdf.WithTheme(cfg))} {
		if err := registry.Register(r); err != nil {
			return nil, err
		}
	}
	return registry, nil
}
