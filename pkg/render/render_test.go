package render_test

import (
	"context"
	"errors"
	"testing"

	theme "github.com/goliatone/go-theme"
	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-trscan/pkg/render"
	"github.com/goliatone/go-trscan/pkg/widgets"
)

type stubRenderer struct {
	name   string
	format render.Format
}

func (s stubRenderer) Name() string          { return s.name }
func (s stubRenderer) Format() render.Format { return s.format }
func (s stubRenderer) ContentType() string   { return "text/plain" }
func (s stubRenderer) Render(context.Context, render.Document) ([]byte, error) {
	return []byte(s.name), nil
}

func TestParseFormat(t *testing.T) {
	cases := map[string]render.Format{
		"HTML":     render.FormatHTML,
		"AsciiDoc": render.FormatAsciiDoc,
		"PDF":      render.FormatPDF,
	}
	for input, want := range cases {
		got, err := render.ParseFormat(input)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q) = %q, %v", input, got, err)
		}
	}
	for _, input := range []string{"docx", "asciidoc", "html", " PDF ", ""} {
		if _, err := render.ParseFormat(input); !errors.Is(err, render.ErrUnsupportedFormat) {
			t.Fatalf("ParseFormat(%q): expected ErrUnsupportedFormat, got %v", input, err)
		}
	}
}

func TestRegistry(t *testing.T) {
	registry := render.NewRegistry()
	registry.MustRegister(stubRenderer{name: "html", format: render.FormatHTML})
	registry.MustRegister(stubRenderer{name: "adoc", format: render.FormatAsciiDoc})

	if err := registry.Register(stubRenderer{name: "other", format: render.FormatHTML}); err == nil {
		t.Fatalf("expected duplicate format error")
	}
	if diff := cmp.Diff([]render.Format{render.FormatAsciiDoc, render.FormatHTML}, registry.List()); diff != "" {
		t.Fatalf("formats mismatch (-want +got):\n%s", diff)
	}
	got, err := registry.Get(render.FormatAsciiDoc)
	if err != nil || got.Name() != "adoc" {
		t.Fatalf("unexpected renderer %v, %v", got, err)
	}
	if _, err := registry.Get(render.FormatPDF); !errors.Is(err, render.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestSectionsSkipsEmptyOutput(t *testing.T) {
	selection := widgets.NewSelection()
	selection.Set("trscan-options", widgets.NewTrscanOptions(widgets.PanelConfig{}))
	selection.Set("wysiwyg-content-1", widgets.NewWYSIWYGContent(widgets.ContentConfig{Heading: "Intro", Content: "<p>Hi</p>"}))
	selection.Set("page-break-2", widgets.NewPageBreak())

	sections, err := render.Sections(context.Background(), render.Document{Widgets: selection}, render.AsciiDocSection)
	if err != nil {
		t.Fatalf("sections: %v", err)
	}
	var keys []string
	for _, s := range sections {
		keys = append(keys, s.Key)
	}
	if diff := cmp.Diff([]string{"wysiwyg-content-1", "page-break-2"}, keys); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}

	if _, err := render.Sections(context.Background(), render.Document{}, render.HTMLSection); !errors.Is(err, render.ErrEmptyDocument) {
		t.Fatalf("expected ErrEmptyDocument, got %v", err)
	}
}

func TestReportTitle(t *testing.T) {
	selection := widgets.NewSelection()
	selection.Set("cover-page", widgets.NewCoverPage(widgets.CoverPageConfig{Heading: "Audit"}))

	if got := (render.Document{Widgets: selection}).ReportTitle(); got != "Audit" {
		t.Fatalf("expected cover heading, got %q", got)
	}
	if got := (render.Document{Title: "Named", Widgets: selection}).ReportTitle(); got != "Named" {
		t.Fatalf("expected explicit title, got %q", got)
	}
}

func TestThemeConfigMergesVariant(t *testing.T) {
	catalog := render.NewThemeCatalog("", "")
	err := catalog.Register(&theme.Manifest{
		Name:    "acme",
		Version: "1.0.0",
		Tokens:  map[string]string{"brand": "#123456", "text-color": "#111111"},
		Assets: theme.Assets{
			Prefix: "/assets/themes/acme",
			Files:  map[string]string{"report.stylesheet": "report.css", "report.logo": "logo.png"},
		},
		Variants: map[string]theme.Variant{
			"dark": {
				Tokens: map[string]string{"brand": "#654321"},
				Assets: theme.Assets{Files: map[string]string{"report.logo": "logo-dark.png"}},
			},
		},
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	cfg, err := render.ThemeConfig(catalog, "acme", "dark")
	if err != nil {
		t.Fatalf("theme config: %v", err)
	}
	if cfg.Theme != "acme" || cfg.Variant != "dark" {
		t.Fatalf("unexpected selection %s/%s", cfg.Theme, cfg.Variant)
	}
	want := map[string]string{"--brand": "#654321", "--text-color": "#111111"}
	if diff := cmp.Diff(want, cfg.CSSVars); diff != "" {
		t.Fatalf("css vars mismatch (-want +got):\n%s", diff)
	}
	if got := cfg.AssetURL("report.logo"); got != "/assets/themes/acme/logo-dark.png" {
		t.Fatalf("unexpected logo url %s", got)
	}
	if got := cfg.AssetURL("report.stylesheet"); got != "/assets/themes/acme/report.css" {
		t.Fatalf("unexpected stylesheet url %s", got)
	}
	if got := cfg.AssetURL("missing"); got != "" {
		t.Fatalf("expected empty url, got %s", got)
	}
	if got := render.CSSVarsStyle(cfg.CSSVars); got != ":root {\n  --brand: #654321;\n  --text-color: #111111;\n}" {
		t.Fatalf("unexpected style %q", got)
	}
}

func TestThemeConfigDefaults(t *testing.T) {
	catalog := render.NewThemeCatalog("", "print")
	cfg, err := render.ThemeConfig(catalog, "", "")
	if err != nil {
		t.Fatalf("theme config: %v", err)
	}
	if cfg.Theme != render.DefaultThemeName || cfg.Variant != "print" {
		t.Fatalf("unexpected selection %s/%s", cfg.Theme, cfg.Variant)
	}
	if got := render.Token(cfg, "text-color", ""); got != "#000000" {
		t.Fatalf("expected print text colour, got %s", got)
	}
	if got := render.Token(nil, "text-color", "#fff"); got != "#fff" {
		t.Fatalf("expected fallback, got %s", got)
	}

	if _, err := render.ThemeConfig(catalog, "missing", ""); !errors.Is(err, render.ErrThemeNotFound) {
		t.Fatalf("expected ErrThemeNotFound, got %v", err)
	}
	if _, err := render.ThemeConfig(catalog, render.DefaultThemeName, "neon"); !errors.Is(err, render.ErrThemeNotFound) {
		t.Fatalf("expected ErrThemeNotFound for variant, got %v", err)
	}
}
