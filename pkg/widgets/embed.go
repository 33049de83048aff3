package widgets

import (
	"embed"
	"fmt"
	"io/fs"
	"sync"

	rendertemplate "github.com/goliatone/go-trscan/pkg/render/template"
	"github.com/goliatone/go-trscan/pkg/render/template/gotemplate"
)

//go:embed templates/*.tmpl templates/html/*.tmpl templates/asciidoc/*.tmpl
var embeddedTemplates embed.FS

// Template names, relative to TemplatesFS.
const (
	TemplateReportWidget   = "templates/report_widget.tmpl"
	TemplateReportFindings = "templates/report_findings.tmpl"

	templateHTMLCoverPage    = "templates/html/cover_page.tmpl"
	templateHTMLTOC          = "templates/html/table_of_contents.tmpl"
	templateHTMLContent      = "templates/html/content.tmpl"
	templateHTMLFindingList  = "templates/html/finding_list.tmpl"
	templateHTMLEndpointList = "templates/html/endpoint_list.tmpl"

	templateAsciiDocCoverPage    = "templates/asciidoc/cover_page.tmpl"
	templateAsciiDocContent      = "templates/asciidoc/content.tmpl"
	templateAsciiDocFindingList  = "templates/asciidoc/finding_list.tmpl"
	templateAsciiDocEndpointList = "templates/asciidoc/endpoint_list.tmpl"
)

// TemplatesFS exposes the widget templates so callers can layer overrides
// on top of them.
func TemplatesFS() fs.FS {
	return embeddedTemplates
}

var (
	defaultEngineOnce sync.Once
	defaultEngine     *gotemplate.Engine
	defaultEngineErr  error
)

// NewTemplates returns an engine that looks templates up in dir before
// falling back to TemplatesFS. Files in dir use the same relative names.
func NewTemplates(dir string) (rendertemplate.TemplateRenderer, error) {
	engine, err := gotemplate.New(
		gotemplate.WithBaseDir(dir),
		gotemplate.WithFS(TemplatesFS()),
		gotemplate.WithExtension(".tmpl"),
	)
	if err != nil {
		return nil, fmt.Errorf("widgets: configure template renderer: %w", err)
	}
	return engine, nil
}

// DefaultTemplates returns a shared engine over TemplatesFS.
func DefaultTemplates() (rendertemplate.TemplateRenderer, error) {
	defaultEngineOnce.Do(func() {
		defaultEngine, defaultEngineErr = gotemplate.New(
			gotemplate.WithFS(TemplatesFS()),
			gotemplate.WithExtension(".tmpl"),
		)
		if defaultEngineErr != nil {
			defaultEngineErr = fmt.Errorf("widgets: configure template renderer: %w", defaultEngineErr)
		}
	})
	return defaultEngine, defaultEngineErr
}
