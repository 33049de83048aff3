package pdf

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	gofpdf "github.com/go-pdf/fpdf"
	theme "github.com/goliatone/go-theme"
	"golang.org/x/text/cases"

	"github.com/goliatone/go-trscan/pkg/findings"
	"github.com/goliatone/go-trscan/pkg/forms"
	"github.com/goliatone/go-trscan/pkg/render"
	"github.com/goliatone/go-trscan/pkg/widgets"
)

type rgb [3]int

var severityFallback = map[findings.Severity]string{
	findings.SeverityCritical: "#8b0000",
	findings.SeverityHigh:     "#d9534f",
	findings.SeverityMedium:   "#f0ad4e",
	findings.SeverityLow:      "#5bc0de",
	findings.SeverityInfo:     "#6c757d",
}

// writer lays out widgets on one fpdf document.
type writer struct {
	pdf     *gofpdf.Fpdf
	tr      func(string) string
	doc     render.Document
	theme   *theme.RendererConfig
	caser   cases.Caser
	outline []widgets.Heading
	links   map[string]int
	text    rgb
	heading rgb
}

func newWriter(pdf *gofpdf.Fpdf, doc render.Document, cfg *theme.RendererConfig, caser cases.Caser) *writer {
	w := &writer{
		pdf:     pdf,
		tr:      pdf.UnicodeTranslatorFromDescriptor(""),
		doc:     doc,
		theme:   cfg,
		caser:   caser,
		outline: doc.Widgets.Outline(),
		links:   make(map[string]int),
		text:    hexColor(render.Token(cfg, "text-color", "#212529")),
		heading: hexColor(render.Token(cfg, "heading-color", "#1f3a5f")),
	}
	for _, h := range w.outline {
		w.links[h.Anchor] = pdf.AddLink()
	}
	return w
}

func (w *writer) footer() {
	w.pdf.SetY(-15)
	w.pdf.SetFont("Helvetica", "I", 8)
	w.pdf.SetTextColor(128, 128, 128)
	w.pdf.CellFormat(0, 10, fmt.Sprintf("Page %d", w.pdf.PageNo()), "", 0, "C", false, 0, "")
}

// anchor marks the current position as the target of a heading link and
// adds a bookmark.
func (w *writer) anchor(key, title string, level int) {
	if link, ok := w.links[key]; ok {
		w.pdf.SetLink(link, -1, -1)
	}
	w.pdf.Bookmark(w.tr(title), level, -1)
}

func (w *writer) sectionHeading(key, title string) {
	w.pdf.Ln(4)
	w.anchor(key, title, 0)
	w.pdf.SetFont("Helvetica", "B", 16)
	w.setColor(w.heading)
	w.pdf.MultiCell(0, 9, w.tr(title), "", "L", false)
	w.pdf.Ln(2)
}

func (w *writer) body(size float64) {
	w.pdf.SetFont("Helvetica", "", size)
	w.setColor(w.text)
}

func (w *writer) setColor(c rgb) {
	w.pdf.SetTextColor(c[0], c[1], c[2])
}

func (w *writer) coverPage(cfg widgets.CoverPageConfig) {
	_, pageH := w.pdf.GetPageSize()
	w.pdf.SetY(pageH / 3)
	w.pdf.SetFont("Helvetica", "B", 26)
	w.setColor(w.heading)
	w.pdf.MultiCell(0, 12, w.tr(cfg.Heading), "", "C", false)
	if cfg.SubHeading != "" {
		w.pdf.Ln(4)
		w.pdf.SetFont("Helvetica", "", 16)
		w.pdf.MultiCell(0, 8, w.tr(cfg.SubHeading), "", "C", false)
	}
	if cfg.MetaInfo != "" {
		w.pdf.Ln(10)
		w.body(11)
		w.pdf.MultiCell(0, 6, w.tr(forms.StripTags(cfg.MetaInfo)), "", "C", false)
	}
	w.pdf.AddPage()
}

func (w *writer) tableOfContents(heading string, entries []widgets.Heading) {
	w.pdf.SetFont("Helvetica", "B", 16)
	w.setColor(w.heading)
	w.pdf.CellFormat(0, 10, w.tr(heading), "", 1, "L", false, 0, "")
	w.pdf.Ln(2)
	for _, entry := range entries {
		indent := float64(entry.Level-2) * 6
		w.pdf.SetX(20 + indent)
		if entry.Level <= 2 {
			w.pdf.SetFont("Helvetica", "B", 11)
		} else {
			w.pdf.SetFont("Helvetica", "", 10)
		}
		w.setColor(w.text)
		w.pdf.CellFormat(0, 7, w.tr(entry.Title), "", 1, "L", false, w.links[entry.Anchor], "")
	}
	w.pdf.AddPage()
}

func (w *writer) content(key string, cfg widgets.ContentConfig) {
	w.sectionHeading(key, cfg.Heading)
	w.body(11)
	w.pdf.MultiCell(0, 6, w.tr(plainText(cfg.Content)), "", "L", false)
	w.pdf.Ln(4)
}

func (w *writer) findingList(key, title string, cfg widgets.FindingListConfig) {
	w.sectionHeading(key, title)
	if len(cfg.Findings) == 0 {
		w.body(11)
		w.pdf.CellFormat(0, 7, "No findings found.", "", 1, "L", false, 0, "")
		return
	}
	notes := cfg.FindingNotes || w.doc.FindingNotes
	images := cfg.FindingImages || w.doc.FindingImages
	host := cfg.Host
	if host == "" {
		host = w.doc.Host
	}
	for _, f := range cfg.Findings {
		w.finding(f, host, notes, images)
	}
}

func (w *writer) finding(f findings.Finding, host string, notes, images bool) {
	w.pdf.Ln(3)
	w.anchor("finding-"+strconv.Itoa(f.ID), f.Title, 1)

	sev := w.severityColor(f.Severity)
	w.pdf.SetFillColor(sev[0], sev[1], sev[2])
	w.pdf.SetTextColor(255, 255, 255)
	w.pdf.SetFont("Helvetica", "B", 9)
	w.pdf.CellFormat(22, 7, w.caser.String(string(f.Severity)), "", 0, "C", true, 0, "")
	w.pdf.SetFont("Helvetica", "B", 12)
	w.setColor(w.heading)
	w.pdf.CellFormat(0, 7, " "+w.tr(f.Title), "", 1, "L", false, 0, findingURL(host, f.ID))
	w.pdf.Ln(1)

	rows := [][2]string{}
	if !f.Date.IsZero() {
		rows = append(rows, [2]string{"Date", f.Date.Format("2006-01-02")})
	}
	if f.CWE > 0 {
		rows = append(rows, [2]string{"CWE", strconv.Itoa(f.CWE)})
	}
	if component := strings.TrimSpace(f.ComponentName + " " + f.ComponentVersion); component != "" {
		rows = append(rows, [2]string{"Component", component})
	}
	if f.FilePath != "" {
		location := f.FilePath
		if f.Line > 0 {
			location += ":" + strconv.Itoa(f.Line)
		}
		rows = append(rows, [2]string{"Location", location})
	}
	if len(f.Tags) > 0 {
		rows = append(rows, [2]string{"Tags", strings.Join(f.Tags, ", ")})
	}
	for _, row := range rows {
		w.pdf.SetFont("Helvetica", "B", 9)
		w.setColor(w.text)
		w.pdf.CellFormat(30, 6, row[0], "", 0, "L", false, 0, "")
		w.pdf.SetFont("Helvetica", "", 9)
		w.pdf.CellFormat(0, 6, w.tr(row[1]), "", 1, "L", false, 0, "")
	}

	w.paragraph("Description", f.Description)
	w.paragraph("Mitigation", f.Mitigation)
	w.paragraph("Impact", f.Impact)

	if notes && len(f.Notes) > 0 {
		w.subheading("Notes")
		w.body(10)
		for _, n := range f.Notes {
			line := fmt.Sprintf("- %s (%s): %s", n.Author, n.Date.Format("2006-01-02"), n.Entry)
			w.pdf.MultiCell(0, 5, w.tr(line), "", "L", false)
		}
	}
	if images && len(f.Images) > 0 {
		w.subheading("Images")
		w.body(10)
		for _, img := range f.Images {
			url := strings.TrimRight(host, "/") + "/media/" + strings.TrimLeft(img.Path, "/")
			w.pdf.CellFormat(0, 5, w.tr(img.Caption+": "+url), "", 1, "L", false, 0, url)
		}
	}
}

func (w *writer) endpointList(key, title string, cfg widgets.EndpointListConfig) {
	w.sectionHeading(key, title)
	if len(cfg.Endpoints) == 0 {
		w.body(11)
		w.pdf.CellFormat(0, 7, "No endpoints found.", "", 1, "L", false, 0, "")
		return
	}
	host := cfg.Host
	if host == "" {
		host = w.doc.Host
	}
	for _, e := range cfg.Endpoints {
		w.pdf.Ln(2)
		w.anchor("endpoint-"+strconv.Itoa(e.ID), e.String(), 1)
		w.pdf.SetFont("Helvetica", "B", 12)
		w.setColor(w.heading)
		w.pdf.MultiCell(0, 7, w.tr(e.String()), "", "L", false)
		w.body(10)
		for _, f := range cfg.Findings[e.ID] {
			line := fmt.Sprintf("- %s: %s", w.caser.String(string(f.Severity)), f.Title)
			w.pdf.CellFormat(0, 5, w.tr(line), "", 1, "L", false, 0, findingURL(host, f.ID))
		}
	}
}

func (w *writer) subheading(label string) {
	w.pdf.Ln(1)
	w.pdf.SetFont("Helvetica", "B", 10)
	w.setColor(w.heading)
	w.pdf.CellFormat(0, 6, label, "", 1, "L", false, 0, "")
}

func (w *writer) paragraph(label, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	w.subheading(label)
	w.body(10)
	w.pdf.MultiCell(0, 5, w.tr(value), "", "L", false)
}

func (w *writer) severityColor(s findings.Severity) rgb {
	key := "severity-" + strings.ToLower(string(s))
	fallback, ok := severityFallback[s]
	if !ok {
		fallback = severityFallback[findings.SeverityInfo]
	}
	return hexColor(render.Token(w.theme, key, fallback))
}

func findingURL(host string, id int) string {
	if host == "" {
		return ""
	}
	return strings.TrimRight(host, "/") + "/finding/" + strconv.Itoa(id)
}

// hexColor parses "#rrggbb", returning black for anything else.
func hexColor(value string) rgb {
	value = strings.TrimPrefix(strings.TrimSpace(value), "#")
	if len(value) != 6 {
		return rgb{}
	}
	n, err := strconv.ParseUint(value, 16, 32)
	if err != nil {
		return rgb{}
	}
	return rgb{int(n >> 16 & 0xff), int(n >> 8 & 0xff), int(n & 0xff)}
}

var (
	blockBreak = regexp.MustCompile(`(?i)<br\s*/?>|</p>|</div>|</li>|</h[1-6]>|</tr>`)
	listItem   = regexp.MustCompile(`(?i)<li[^>]*>`)
)

// plainText turns editor markup into text, keeping paragraph and list
// structure as line breaks.
func plainText(markup string) string {
	markup = listItem.ReplaceAllString(markup, "- ")
	markup = blockBreak.ReplaceAllString(markup, "\n")
	lines := strings.Split(forms.StripTags(markup), "\n")
	out := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
