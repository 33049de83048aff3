// Package pdf renders custom reports as PDF documents with go-pdf/fpdf. It
// lays out widgets directly instead of converting HTML.
package pdf

import (
	"bytes"
	"context"
	"fmt"

	gofpdf "github.com/go-pdf/fpdf"
	theme "github.com/goliatone/go-theme"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/goliatone/go-trscan/pkg/render"
	"github.com/goliatone/go-trscan/pkg/widgets"
)

const defaultTitle = "Custom Report"

type Option func(*Renderer)

// WithPageSize selects an fpdf page size such as "A4" or "Letter".
func WithPageSize(size string) Option {
	return func(r *Renderer) {
		if size != "" {
			r.pageSize = size
		}
	}
}

// WithTheme sets the colours used when a document carries no theme.
func WithTheme(cfg *theme.RendererConfig) Option {
	return func(r *Renderer) {
		r.theme = cfg
	}
}

// WithCompression toggles stream compression. Uncompressed output keeps
// text searchable in the raw bytes.
func WithCompression(enabled bool) Option {
	return func(r *Renderer) {
		r.compress = enabled
	}
}

type Renderer struct {
	pageSize string
	theme    *theme.RendererConfig
	compress bool
}

var _ render.Renderer = (*Renderer)(nil)

func New(options ...Option) *Renderer {
	r := &Renderer{
		pageSize: "A4",
		compress: true,
	}
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

func (r *Renderer) Name() string {
	return "custom_pdf_report"
}

func (r *Renderer) Format() render.Format {
	return render.FormatPDF
}

func (r *Renderer) ContentType() string {
	return "application/pdf"
}

func (r *Renderer) Render(ctx context.Context, doc render.Document) ([]byte, error) {
	if doc.Widgets == nil {
		return nil, render.ErrEmptyDocument
	}
	title := doc.ReportTitle()
	if title == "" {
		title = defaultTitle
	}
	cfg := doc.Theme
	if cfg == nil {
		cfg = r.theme
	}

	pdf := gofpdf.New("P", "mm", r.pageSize, "")
	pdf.SetCompression(r.compress)
	pdf.SetTitle(title, true)
	pdf.SetCreator("trscan", true)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)

	w := newWriter(pdf, doc, cfg, cases.Title(language.English))
	pdf.SetFooterFunc(w.footer)
	pdf.AddPage()

	for _, key := range doc.Widgets.Keys() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		widget, _ := doc.Widgets.Get(key)
		switch v := widget.(type) {
		case *widgets.CoverPage:
			w.coverPage(v.Config())
		case *widgets.TableOfContents:
			w.tableOfContents(v.Config().Heading, v.Entries(w.outline))
		case *widgets.WYSIWYGContent:
			w.content(key, v.Config())
		case *widgets.LoadFilesContent:
			w.content(key, v.Config())
		case *widgets.FindingList:
			w.findingList(key, v.Title(), v.Config())
		case *widgets.EndpointList:
			w.endpointList(key, v.Title(), v.Config())
		case *widgets.PageBreak:
			pdf.AddPage()
		}
		if pdf.Err() {
			return nil, fmt.Errorf("pdf renderer: %s: %w", key, pdf.Error())
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf renderer: output: %w", err)
	}
	return buf.Bytes(), nil
}
