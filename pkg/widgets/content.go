package widgets

import (
	"context"
	"strconv"
	"strings"

	"github.com/goliatone/go-trscan/pkg/forms"
	"github.com/goliatone/go-trscan/pkg/layout"
)

// CoverPageConfig configures a CoverPage.
type CoverPageConfig struct {
	Heading    string
	SubHeading string
	MetaInfo   string
}

// CoverPage opens the report. In AsciiDoc its heading becomes the document
// title, so AsciiDoc renders only the sub heading and meta information.
type CoverPage struct {
	base
	cfg CoverPageConfig
}

func NewCoverPage(cfg CoverPageConfig) *CoverPage {
	w := &CoverPage{base: newBase(layout.KindCoverPage, "Cover Page"), cfg: cfg}
	w.values = forms.Values{"heading": cfg.Heading, "sub_heading": cfg.SubHeading, "meta_info": cfg.MetaInfo}
	return w
}

func (w *CoverPage) Config() CoverPageConfig { return w.cfg }

func (w *CoverPage) HTML(_ context.Context, rc RenderContext) (string, error) {
	return rc.render(templateHTMLCoverPage, w.view())
}

func (w *CoverPage) AsciiDoc(_ context.Context, rc RenderContext) (string, error) {
	return rc.render(templateAsciiDocCoverPage, w.view())
}

func (w *CoverPage) view() map[string]any {
	return map[string]any{
		"heading":     w.cfg.Heading,
		"sub_heading": w.cfg.SubHeading,
		"meta_info":   w.cfg.MetaInfo,
	}
}

// TableOfContentsConfig configures a TableOfContents. Depth is the deepest
// heading level listed, counting the report title as level 1.
type TableOfContentsConfig struct {
	Heading string
	Depth   int
}

type TableOfContents struct {
	base
	cfg TableOfContentsConfig
}

func NewTableOfContents(cfg TableOfContentsConfig) *TableOfContents {
	w := &TableOfContents{base: newBase(layout.KindTableOfContents, "Table Of Contents"), cfg: cfg}
	w.values = forms.Values{"heading": cfg.Heading}
	if cfg.Depth > 1 {
		w.values["depth"] = strconv.Itoa(cfg.Depth - 1)
	}
	return w
}

func (w *TableOfContents) Config() TableOfContentsConfig { return w.cfg }

// Entries filters outline down to the configured depth.
func (w *TableOfContents) Entries(outline []Heading) []Heading {
	out := make([]Heading, 0, len(outline))
	for _, h := range outline {
		if h.Level <= w.cfg.Depth {
			out = append(out, h)
		}
	}
	return out
}

func (w *TableOfContents) HTML(_ context.Context, rc RenderContext) (string, error) {
	return rc.render(templateHTMLTOC, map[string]any{
		"heading": w.cfg.Heading,
		"depth":   w.cfg.Depth,
		"entries": w.Entries(rc.Outline),
	})
}

// AsciiDoc places the toc macro. The document header enables it.
func (w *TableOfContents) AsciiDoc(context.Context, RenderContext) (string, error) {
	return "toc::[]\n", nil
}

// ContentConfig configures rich-text sections.
type ContentConfig struct {
	Heading string
	// Content is editor markup; it is sanitized before rendering.
	Content string
}

type content struct {
	base
	cfg ContentConfig
}

func newContent(kind layout.Kind, title string, cfg ContentConfig) content {
	c := content{base: newBase(kind, title), cfg: cfg}
	c.values = forms.Values{"heading": cfg.Heading, "content": cfg.Content, "hidden_content": cfg.Content}
	return c
}

func (c *content) Config() ContentConfig { return c.cfg }

func (c *content) Headings(anchor string) []Heading {
	return []Heading{{Title: c.cfg.Heading, Anchor: anchor, Level: 2}}
}

func (c *content) HTML(_ context.Context, rc RenderContext) (string, error) {
	return rc.render(templateHTMLContent, c.view(rc))
}

func (c *content) AsciiDoc(_ context.Context, rc RenderContext) (string, error) {
	return rc.render(templateAsciiDocContent, c.view(rc))
}

func (c *content) view(rc RenderContext) map[string]any {
	return map[string]any{
		"anchor":  rc.Anchor,
		"heading": c.cfg.Heading,
		"content": forms.SanitizeRichText(c.cfg.Content),
	}
}

// WYSIWYGContent is a free rich-text section.
type WYSIWYGContent struct {
	content
}

func NewWYSIWYGContent(cfg ContentConfig) *WYSIWYGContent {
	return &WYSIWYGContent{content: newContent(layout.KindWYSIWYGContent, "Wysiwyg Content", cfg)}
}

// LoadFilesContent lists the files handed to the scanner. Its builder panel
// carries no help text.
type LoadFilesContent struct {
	content
}

func NewLoadFilesContent(cfg ContentConfig) *LoadFilesContent {
	if strings.TrimSpace(cfg.Heading) == "" {
		cfg.Heading = "Load Files"
	}
	return &LoadFilesContent{content: newContent(layout.KindLoadFilesContent, "Load Files", cfg)}
}

// PageBreak starts a new page in the rendered report.
type PageBreak struct {
	base
}

func NewPageBreak() *PageBreak {
	return &PageBreak{base: newBase(layout.KindPageBreak, "Page Break")}
}

func (w *PageBreak) HTML(context.Context, RenderContext) (string, error) {
	return `<div class="report-page-break">Page Break</div>` + "\n", nil
}

func (w *PageBreak) AsciiDoc(context.Context, RenderContext) (string, error) {
	return "<<<\n", nil
}

// ReportOptionsConfig configures ReportOptions.
type ReportOptionsConfig struct {
	ReportName           string
	ReportType           string
	IncludeFindingNotes  bool
	IncludeFindingImages bool
}

// ReportOptions overrides the report name, format and content flags. It
// renders nothing into the report.
type ReportOptions struct {
	base
	cfg ReportOptionsConfig
}

func NewReportOptions(cfg ReportOptionsConfig) *ReportOptions {
	w := &ReportOptions{base: newBase(layout.KindReportOptions, "Report Options"), cfg: cfg}
	w.values = forms.Values{
		"report_name":            cfg.ReportName,
		"report_type":            cfg.ReportType,
		"include_finding_notes":  yesNo(cfg.IncludeFindingNotes),
		"include_finding_images": yesNo(cfg.IncludeFindingImages),
	}
	return w
}

func (w *ReportOptions) Config() ReportOptionsConfig { return w.cfg }

func yesNo(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
