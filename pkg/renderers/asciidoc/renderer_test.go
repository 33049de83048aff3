package asciidoc_test

import (
	"context"
	"strings"
	"testing"

	"github.com/goliatone/go-trscan/pkg/render"
	"github.com/goliatone/go-trscan/pkg/renderers/asciidoc"
	"github.com/goliatone/go-trscan/pkg/testsupport"
	"github.com/goliatone/go-trscan/pkg/widgets"
)

var (
	E = testsupport.E
	P = testsupport.P
)

func renderLayout(t *testing.T, entries ...testsupport.Entry) string {
	t.Helper()
	selection, err := widgets.NewFactory(testsupport.SampleRepository()).Build(context.Background(), widgets.BuildRequest{
		Layout: testsupport.Layout(t, entries...),
		Host:   "https://dojo.example.test",
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	r, err := asciidoc.New(asciidoc.WithAuthor("Security Team"))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	out, err := r.Render(context.Background(), render.Document{Widgets: selection, Host: "https://dojo.example.test"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	return string(out)
}

func TestRenderHeader(t *testing.T) {
	doc := renderLayout(t,
		E("cover-page", P("heading", "Quarterly Audit"), P("sub_heading", "First quarter"), P("meta_info", "")),
		E("table-of-contents", P("heading", "Contents"), P("depth", "2")),
		E("wysiwyg-content", P("heading", "Scope"), P("hidden_content", "<p>All hosts</p>")),
	)

	wantHeader := "= Quarterly Audit\nSecurity Team\n:doctype: book\n:sectanchors:\n:icons: font\n" +
		":toc: macro\n:toc-title: Contents\n:toclevels: 2\n:trscan-host: https://dojo.example.test\n\n"
	if !strings.HasPrefix(doc, wantHeader) {
		t.Fatalf("unexpected header:\n%s", doc)
	}
	for _, want := range []string{"[.lead]\nFirst quarter", "toc::[]\n", "[[wysiwyg-content-2]]\n== Scope"} {
		if !strings.Contains(doc, want) {
			t.Fatalf("document missing %q:\n%s", want, doc)
		}
	}
	if strings.Index(doc, "toc::[]") > strings.Index(doc, "== Scope") {
		t.Fatalf("toc placed after content:\n%s", doc)
	}
}

func TestRenderWithoutCoverOrTOC(t *testing.T) {
	doc := renderLayout(t, E("page-break"), E("endpoint-list"))

	if !strings.HasPrefix(doc, "= Custom Report\n") {
		t.Fatalf("expected default title:\n%s", doc)
	}
	if strings.Contains(doc, ":toc:") {
		t.Fatalf("unexpected toc attributes:\n%s", doc)
	}
	for _, want := range []string{"<<<\n", "[[endpoint-list-1]]", "https://api.example.com:8443/v1/orders"} {
		if !strings.Contains(doc, want) {
			t.Fatalf("document missing %q:\n%s", want, doc)
		}
	}
}

func TestRendererIdentity(t *testing.T) {
	r, err := asciidoc.New()
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if r.Name() != "custom_asciidoc_report" || r.Format() != render.FormatAsciiDoc {
		t.Fatalf("unexpected identity %s %s", r.Name(), r.Format())
	}
}
