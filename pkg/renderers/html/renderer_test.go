package html_test

import (
	"context"
	"strings"
	"testing"
	"testing/fstest"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-trscan/pkg/render"
	"github.com/goliatone/go-trscan/pkg/renderers/html"
	"github.com/goliatone/go-trscan/pkg/testsupport"
	"github.com/goliatone/go-trscan/pkg/widgets"
)

func buildDocument(t *testing.T) render.Document {
	t.Helper()
	factory := widgets.NewFactory(testsupport.SampleRepository())
	selection, err := factory.Build(context.Background(), widgets.BuildRequest{
		Layout: testsupport.Layout(t,
			testsupport.E("cover-page", testsupport.P("heading", "Quarterly Audit"), testsupport.P("sub_heading", "Q1"), testsupport.P("meta_info", "")),
			testsupport.E("table-of-contents", testsupport.P("heading", "Contents"), testsupport.P("depth", "2")),
			testsupport.E("finding-list", testsupport.P("tags", "web")),
			testsupport.E("trscan-options", testsupport.P("scan_name", "Nightly"), testsupport.P("source_folder", "src")),
		),
		Host: "https://dojo.example.test",
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return render.Document{Widgets: selection, Host: "https://dojo.example.test"}
}

func TestRendererIdentity(t *testing.T) {
	r, err := html.New()
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if r.Name() != "custom_html_report" || r.Format() != render.FormatHTML || r.ContentType() != "text/html; charset=utf-8" {
		t.Fatalf("unexpected identity %s %s %s", r.Name(), r.Format(), r.ContentType())
	}
}

func TestRenderReport(t *testing.T) {
	r, err := html.New()
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	out, err := r.Render(context.Background(), buildDocument(t))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	page := string(out)

	for _, want := range []string{
		"<title>Quarterly Audit</title>",
		"<h1>Quarterly Audit</h1>",
		`href="#finding-list-2"`,
		`href="#finding-1"`,
		`id="finding-2"`,
		".severity-critical",
	} {
		if !strings.Contains(page, want) {
			t.Fatalf("page missing %q:\n%s", want, page)
		}
	}
	if strings.Contains(page, "Scan Details") {
		t.Fatalf("option panel leaked into report:\n%s", page)
	}
	if strings.Index(page, "<!-- cover-page -->") > strings.Index(page, "<!-- finding-list-2 -->") {
		t.Fatalf("sections out of order:\n%s", page)
	}
}

func TestRenderThemeVariables(t *testing.T) {
	cfg := &theme.RendererConfig{
		Theme:   "acme",
		Variant: "dark",
		CSSVars: map[string]string{"--brand": "#654321"},
		AssetURL: func(key string) string {
			if key == "report.stylesheet" {
				return "/assets/acme/report.css"
			}
			return ""
		},
	}
	r, err := html.New(html.WithTheme(cfg))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	out, err := r.Render(context.Background(), buildDocument(t))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	page := string(out)
	for _, want := range []string{
		`<link rel="stylesheet" href="/assets/acme/report.css">`,
		`data-theme="acme" data-variant="dark"`,
		"--brand: #654321;",
	} {
		if !strings.Contains(page, want) {
			t.Fatalf("page missing %q:\n%s", want, page)
		}
	}
}

func TestRenderTemplateOverride(t *testing.T) {
	override := fstest.MapFS{
		"templates/custom_html_report.tmpl": {Data: []byte(`{{ title }}:{% for section in sections %}{{ section.key }};{% endfor %}`)},
	}
	r, err := html.New(html.WithTemplatesFS(override))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	out, err := r.Render(context.Background(), buildDocument(t))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got := string(out); got != "Quarterly Audit:cover-page;table-of-contents;finding-list-2;" {
		t.Fatalf("unexpected output %q", got)
	}
}
