package widgets_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-trscan/pkg/findings"
	"github.com/goliatone/go-trscan/pkg/forms"
	"github.com/goliatone/go-trscan/pkg/layout"
	"github.com/goliatone/go-trscan/pkg/testsupport"
	"github.com/goliatone/go-trscan/pkg/widgets"
)

func build(t *testing.T, entries ...testsupport.Entry) *widgets.Selection {
	t.Helper()
	selection, err := newFactory().Build(context.Background(), widgets.BuildRequest{
		Layout: testsupport.Layout(t, entries...),
		Host:   "https://dojo.example.test/",
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return selection
}

func TestOptionPanelTitles(t *testing.T) {
	cases := []struct {
		widget widgets.Widget
		kind   layout.Kind
		title  string
		help   string
	}{
		{widgets.NewTrscanOptions(widgets.PanelConfig{}), layout.KindTrscanOptions, "Scan Details", "Fill out the following field and press Save and Run"},
		{widgets.NewExclusionContent(widgets.PanelConfig{}), layout.KindExclusionContent, "Exclusion List", "Select the Exclusion List File"},
		{widgets.NewFPContent(widgets.PanelConfig{}), layout.KindFPContent, "False Positives", "Select the False Positives File"},
		{widgets.NewAnalysisContent(widgets.PanelConfig{}), layout.KindAnalysisContent, "Analysis Options", "Check the Analysis Options"},
		{widgets.NewLanguageContent(widgets.PanelConfig{}), layout.KindLanguageContent, "Language Options", "Check the Language Options"},
		{widgets.NewOpenXMLContent(widgets.PanelConfig{}), layout.KindOpenXMLContent, "Open XML Analysis", "Load a Scan from XML"},
	}

	for _, tc := range cases {
		t.Run(string(tc.kind), func(t *testing.T) {
			if tc.widget.Kind() != tc.kind || tc.widget.Title() != tc.title || tc.widget.Multiple() {
				t.Fatalf("unexpected identity %s %q multiple=%v", tc.widget.Kind(), tc.widget.Title(), tc.widget.Multiple())
			}
			form, err := tc.widget.OptionForm(context.Background(), widgets.RenderContext{})
			if err != nil {
				t.Fatalf("option form: %v", err)
			}
			for _, want := range []string{`data-kind="` + string(tc.kind) + `"`, tc.title, tc.help} {
				if !strings.Contains(form, want) {
					t.Fatalf("option form missing %q:\n%s", want, form)
				}
			}
			html, err := tc.widget.HTML(context.Background(), widgets.RenderContext{})
			if err != nil || html != "" {
				t.Fatalf("expected empty report output, got %q, %v", html, err)
			}
		})
	}
}

func TestScanSettings(t *testing.T) {
	selection := build(t,
		E("trscan-options", P("scan_name", "Nightly"), P("product", "3"), P("source_folder", "src/app"), P("description", "")),
		E("fp-content", P("exclusions", "fp.txt")),
		E("openxml-content", P("exclusions", "previous.xml")),
		E("exclusion-content", P("exclusions", "exclude.txt")),
	)

	got, err := selection.ScanSettings()
	if err != nil {
		t.Fatalf("scan settings: %v", err)
	}
	want := map[string]string{
		"scan_name":       "Nightly",
		"product":         "3",
		"source_folder":   "src/app",
		"false_positives": "fp.txt",
		"xml_file":        "previous.xml",
		"exclusions":      "exclude.txt",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("settings mismatch (-want +got):\n%s", diff)
	}
}

func TestScanSettingsSkipsMarkers(t *testing.T) {
	selection := build(t, E("language-content", P("cpp", "overridden"), P("targetCPP", "cppWin64")))
	got, err := selection.ScanSettings()
	if err != nil {
		t.Fatalf("scan settings: %v", err)
	}
	if _, ok := got["cpp"]; ok {
		t.Fatalf("marker leaked into settings: %v", got)
	}
	if got["targetCPP"] != "cppWin64" || got["allowCICSProgramming"] != "false" {
		t.Fatalf("unexpected settings %v", got)
	}
}

func TestScanSettingsInvalidPanel(t *testing.T) {
	selection := build(t, E("trscan-options", P("scan_name", ""), P("source_folder", "src")))

	_, err := selection.ScanSettings()
	if !errors.Is(err, forms.ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
	var verr *forms.ValidationError
	if !errors.As(err, &verr) || len(verr.Fields["scan_name"]) == 0 {
		t.Fatalf("expected scan_name error, got %v", err)
	}

	w, _ := selection.Get("trscan-options")
	form, err := w.OptionForm(context.Background(), widgets.RenderContext{})
	if err != nil {
		t.Fatalf("option form: %v", err)
	}
	if !strings.Contains(form, "This field is required.") {
		t.Fatalf("expected field error in form:\n%s", form)
	}
}

func TestOutline(t *testing.T) {
	selection := build(t,
		E("cover-page", P("heading", "Report"), P("sub_heading", ""), P("meta_info", "")),
		E("wysiwyg-content", P("heading", "Intro"), P("content", ""), P("hidden_content", "<p>Hi</p>")),
		E("finding-list", P("tags", "native")),
		E("page-break"),
	)

	want := []widgets.Heading{
		{Title: "Intro", Anchor: "wysiwyg-content-1", Level: 2},
		{Title: "Finding List", Anchor: "finding-list-2", Level: 2},
		{Title: "Buffer overflow in report parser", Anchor: "finding-3", Level: 3},
	}
	if diff := cmp.Diff(want, selection.Outline()); diff != "" {
		t.Fatalf("outline mismatch (-want +got):\n%s", diff)
	}
}

func TestTableOfContentsDepth(t *testing.T) {
	outline := []widgets.Heading{
		{Title: "Intro", Anchor: "wysiwyg-content-0", Level: 2},
		{Title: "SQL Injection", Anchor: "finding-1", Level: 3},
	}
	ctx := context.Background()

	shallow := widgets.NewTableOfContents(widgets.TableOfContentsConfig{Heading: "Contents", Depth: 2})
	html, err := shallow.HTML(ctx, widgets.RenderContext{Outline: outline})
	if err != nil {
		t.Fatalf("html: %v", err)
	}
	if !strings.Contains(html, `href="#wysiwyg-content-0"`) || strings.Contains(html, `href="#finding-1"`) {
		t.Fatalf("unexpected shallow toc:\n%s", html)
	}

	deep := widgets.NewTableOfContents(widgets.TableOfContentsConfig{Heading: "Contents", Depth: 3})
	if diff := cmp.Diff(outline, deep.Entries(outline)); diff != "" {
		t.Fatalf("entries mismatch (-want +got):\n%s", diff)
	}

	adoc, err := deep.AsciiDoc(ctx, widgets.RenderContext{})
	if err != nil || adoc != "toc::[]\n" {
		t.Fatalf("unexpected asciidoc toc %q, %v", adoc, err)
	}
}

func TestContentRendering(t *testing.T) {
	w := widgets.NewWYSIWYGContent(widgets.ContentConfig{
		Heading: "Scope",
		Content: `<p>In scope <script>alert(1)</script><strong>hosts</strong></p>`,
	})
	rc := widgets.RenderContext{Anchor: "wysiwyg-content-0"}

	html, err := w.HTML(context.Background(), rc)
	if err != nil {
		t.Fatalf("html: %v", err)
	}
	if !strings.Contains(html, `id="wysiwyg-content-0"`) || !strings.Contains(html, "<strong>hosts</strong>") {
		t.Fatalf("unexpected html:\n%s", html)
	}
	if strings.Contains(html, "<script>") {
		t.Fatalf("script survived sanitizing:\n%s", html)
	}

	adoc, err := w.AsciiDoc(context.Background(), rc)
	if err != nil {
		t.Fatalf("asciidoc: %v", err)
	}
	if !strings.HasPrefix(adoc, "[[wysiwyg-content-0]]\n== Scope\n") || !strings.Contains(adoc, "++++\n<p>In scope") {
		t.Fatalf("unexpected asciidoc:\n%s", adoc)
	}
}

func TestLoadFilesDefaultHeading(t *testing.T) {
	w := widgets.NewLoadFilesContent(widgets.ContentConfig{Content: "<ul><li>main.c</li></ul>"})
	if w.Config().Heading != "Load Files" || !w.Multiple() {
		t.Fatalf("unexpected load files widget %+v", w.Config())
	}
}

func TestPageBreak(t *testing.T) {
	w := widgets.NewPageBreak()
	adoc, _ := w.AsciiDoc(context.Background(), widgets.RenderContext{})
	html, _ := w.HTML(context.Background(), widgets.RenderContext{})
	if adoc != "<<<\n" || !strings.Contains(html, "report-page-break") {
		t.Fatalf("unexpected page break %q / %q", adoc, html)
	}
}

func TestFindingListRendering(t *testing.T) {
	_, items := findings.Sample(testsupport.Now)
	w := widgets.NewFindingList(widgets.FindingListConfig{
		Findings:      items[:2],
		Host:          "https://dojo.example.test/",
		FindingNotes:  true,
		FindingImages: true,
	})
	rc := widgets.RenderContext{Anchor: "finding-list-0"}

	html, err := w.HTML(context.Background(), rc)
	if err != nil {
		t.Fatalf("html: %v", err)
	}
	for _, want := range []string{
		`id="finding-1"`,
		`href="https://dojo.example.test/finding/1"`,
		"severity-critical",
		"Confirmed with a time based payload.",
		`src="https://dojo.example.test/media/evidence/xss.png"`,
	} {
		if !strings.Contains(html, want) {
			t.Fatalf("html missing %q:\n%s", want, html)
		}
	}

	adoc, err := w.AsciiDoc(context.Background(), rc)
	if err != nil {
		t.Fatalf("asciidoc: %v", err)
	}
	for _, want := range []string{"[[finding-list-0]]\n== Finding List", "[[finding-2]]\n=== Reflected cross site scripting", "Severity:: High"} {
		if !strings.Contains(adoc, want) {
			t.Fatalf("asciidoc missing %q:\n%s", want, adoc)
		}
	}

	empty := widgets.NewFindingList(widgets.FindingListConfig{})
	html, _ = empty.HTML(context.Background(), rc)
	if !strings.Contains(html, "No findings found.") {
		t.Fatalf("expected empty message:\n%s", html)
	}
}

func TestFindingListOmitsNotesByDefault(t *testing.T) {
	_, items := findings.Sample(testsupport.Now)
	w := widgets.NewFindingList(widgets.FindingListConfig{Findings: items[:1]})
	html, err := w.HTML(context.Background(), widgets.RenderContext{})
	if err != nil {
		t.Fatalf("html: %v", err)
	}
	if strings.Contains(html, "Confirmed with a time based payload.") {
		t.Fatalf("notes rendered without being requested:\n%s", html)
	}
}

func TestFindingListOptionForm(t *testing.T) {
	selection := build(t, E("finding-list", P("tags", "web")))
	w, _ := selection.Get("finding-list-0")

	form, err := w.OptionForm(context.Background(), widgets.RenderContext{})
	if err != nil {
		t.Fatalf("option form: %v", err)
	}
	for _, want := range []string{
		"You can use this form to filter Findings and select only the ones regarding the Analysis",
		"SQL Injection in order lookup",
		"orders-service",
	} {
		if !strings.Contains(form, want) {
			t.Fatalf("option form missing %q:\n%s", want, form)
		}
	}
}

func TestReportOptionsRendersNothing(t *testing.T) {
	selection := build(t, E("report-options",
		P("include_finding_notes", "1"), P("include_finding_images", "0"),
		P("report_type", "PDF"), P("report_name", "Q1"),
	))
	opts, ok := selection.ReportOptions()
	if !ok {
		t.Fatalf("expected report options")
	}
	want := widgets.ReportOptionsConfig{ReportName: "Q1", ReportType: "PDF", IncludeFindingNotes: true}
	if diff := cmp.Diff(want, opts.Config()); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
	html, _ := opts.HTML(context.Background(), widgets.RenderContext{})
	if html != "" {
		t.Fatalf("expected no report output, got %q", html)
	}
}

func TestRegistryKindsOrder(t *testing.T) {
	registry := widgets.NewRegistry()
	kinds := registry.Kinds()
	if len(kinds) != 14 || kinds[0] != layout.KindTrscanOptions || kinds[len(kinds)-1] != layout.KindPageBreak {
		t.Fatalf("unexpected kinds %v", kinds)
	}

	registry.Register(layout.KindTrscanOptions, func(context.Context, layout.Entry, widgets.BuildEnv) (widgets.Widget, error) {
		return widgets.NewPageBreak(), nil
	})
	registry.Register("custom-chart", func(context.Context, layout.Entry, widgets.BuildEnv) (widgets.Widget, error) {
		return widgets.NewPageBreak(), nil
	})
	kinds = registry.Kinds()
	if kinds[0] != layout.KindTrscanOptions || kinds[len(kinds)-1] != "custom-chart" || !registry.Has("custom-chart") {
		t.Fatalf("unexpected kinds after register %v", kinds)
	}
}

func TestNewTemplatesPrefersDirectoryOverrides(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "templates", "html"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	override := `<header class="custom">{{ heading }}</header>`
	if err := os.WriteFile(filepath.Join(dir, "templates", "html", "cover_page.tmpl"), []byte(override), 0o644); err != nil {
		t.Fatalf("write override: %v", err)
	}

	engine, err := widgets.NewTemplates(dir)
	if err != nil {
		t.Fatalf("new templates: %v", err)
	}
	rc := widgets.RenderContext{Templates: engine}
	cover := widgets.NewCoverPage(widgets.CoverPageConfig{Heading: "Audit", SubHeading: "Q1"})

	html, err := cover.HTML(context.Background(), rc)
	if err != nil {
		t.Fatalf("html: %v", err)
	}
	if diff := cmp.Diff(`<header class="custom">Audit</header>`, html); diff != "" {
		t.Fatalf("override mismatch (-want +got):\n%s", diff)
	}

	doc, err := cover.AsciiDoc(context.Background(), rc)
	if err != nil {
		t.Fatalf("asciidoc: %v", err)
	}
	if !strings.Contains(doc, "Q1") {
		t.Fatalf("expected embedded asciidoc template to render the sub heading, got %q", doc)
	}
}
