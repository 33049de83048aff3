package trscan

import (
	"embed"
	"io/fs"
	"sync"

	gotemplate "github.com/goliatone/go-template"

	rendertemplate "github.com/goliatone/go-trscan/pkg/render/template"
)

//go:embed templates/*.tmpl
var embeddedTemplates embed.FS

const pageTemplate = "templates/trscan.tmpl"

// TemplatesFS exposes the builder page template.
func TemplatesFS() fs.FS {
	return embeddedTemplates
}

var _ rendertemplate.TemplateRenderer = (*gotemplate.Engine)(nil)

var (
	pageEngineOnce sync.Once
	pageEngine     *gotemplate.Engine
	pageEngineErr  error
)

// defaultPageTemplates renders the builder page with the go-template engine.
// Widget markup is produced by the widget templates before it reaches the
// page, so the page only needs a plain loader over TemplatesFS.
func defaultPageTemplates() (rendertemplate.TemplateRenderer, error) {
	pageEngineOnce.Do(func() {
		pageEngine, pageEngineErr = gotemplate.NewRenderer(
			gotemplate.WithFS(TemplatesFS()),
			gotemplate.WithExtension(".tmpl"),
		)
	})
	if pageEngineErr != nil {
		return nil, pageEngineErr
	}
	return pageEngine, nil
}
