package widgets

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-trscan/pkg/findings"
	"github.com/goliatone/go-trscan/pkg/forms"
	"github.com/goliatone/go-trscan/pkg/layout"
)

const findingListHelp = "You can use this form to filter Findings and select only the ones regarding the Analysis"

// FindingListConfig configures a FindingList.
type FindingListConfig struct {
	// Findings are every finding matching Filter, rendered into the report.
	Findings []findings.Finding
	// Page is the slice shown in the builder panel.
	Page   findings.Page
	Filter url.Values
	// FilterErrors are field errors from binding Filter.
	FilterErrors map[string][]string
	// Host prefixes links back to findings, e.g. "https://dojo.example:8080".
	Host           string
	UserID         int
	FindingNotes   bool
	FindingImages  bool
	TitleWords     []string
	ComponentWords []string
}

// FindingList renders the findings selected by its filter.
type FindingList struct {
	base
	cfg FindingListConfig
}

func NewFindingList(cfg FindingListConfig) *FindingList {
	w := &FindingList{base: newBase(layout.KindFindingList, "Finding List"), cfg: cfg}
	form := forms.FindingFilter()
	w.form = &form
	w.help = findingListHelp
	w.values = filterValues(cfg.Filter)
	w.errors = cfg.FilterErrors
	return w
}

func (w *FindingList) Config() FindingListConfig { return w.cfg }

func (w *FindingList) Headings(anchor string) []Heading {
	out := []Heading{{Title: w.title, Anchor: anchor, Level: 2}}
	for _, f := range w.cfg.Findings {
		out = append(out, Heading{Title: f.Title, Anchor: findingAnchor(f.ID), Level: 3})
	}
	return out
}

func (w *FindingList) HTML(_ context.Context, rc RenderContext) (string, error) {
	return rc.render(templateHTMLFindingList, w.view(rc))
}

func (w *FindingList) AsciiDoc(_ context.Context, rc RenderContext) (string, error) {
	return rc.render(templateAsciiDocFindingList, w.view(rc))
}

func (w *FindingList) view(rc RenderContext) map[string]any {
	items := make([]map[string]any, 0, len(w.cfg.Findings))
	for _, f := range w.cfg.Findings {
		items = append(items, findingView(f, w.cfg.Host, w.cfg.FindingNotes, w.cfg.FindingImages))
	}
	return map[string]any{
		"anchor":                 rc.Anchor,
		"title":                  w.title,
		"findings":               items,
		"host":                   w.cfg.Host,
		"user_id":                w.cfg.UserID,
		"include_finding_notes":  w.cfg.FindingNotes,
		"include_finding_images": w.cfg.FindingImages,
	}
}

// OptionForm renders the filter panel with the current page of matches.
func (w *FindingList) OptionForm(_ context.Context, rc RenderContext) (string, error) {
	page := w.cfg.Page
	items := make([]map[string]any, 0, len(page.Items))
	for _, f := range page.Items {
		items = append(items, findingView(f, w.cfg.Host, false, false))
	}
	return rc.render(TemplateReportFindings, map[string]any{
		"kind":            string(w.kind),
		"title":           w.title,
		"multiple":        strconv.FormatBool(w.multiple),
		"extra_help":      w.help,
		"form":            w.formMarkup(rc),
		"findings":        items,
		"title_words":     w.cfg.TitleWords,
		"component_words": w.cfg.ComponentWords,
		"page": map[string]any{
			"number":       page.Number,
			"num_pages":    page.NumPages(),
			"total":        page.Total,
			"has_next":     page.HasNext(),
			"has_previous": page.HasPrevious(),
			"next":         page.Number + 1,
			"previous":     page.Number - 1,
		},
	})
}

// EndpointListConfig configures an EndpointList.
type EndpointListConfig struct {
	Endpoints []findings.Endpoint
	// Findings groups reportable findings by endpoint id.
	Findings map[int][]findings.Finding
	Filter   url.Values
	Host     string
}

// EndpointList renders endpoints with at least one reportable finding.
type EndpointList struct {
	base
	cfg EndpointListConfig
}

func NewEndpointList(cfg EndpointListConfig) *EndpointList {
	w := &EndpointList{base: newBase(layout.KindEndpointList, "Endpoint List"), cfg: cfg}
	form := forms.EndpointFilter()
	w.form = &form
	w.values = filterValues(cfg.Filter)
	return w
}

func (w *EndpointList) Config() EndpointListConfig { return w.cfg }

func (w *EndpointList) Headings(anchor string) []Heading {
	out := []Heading{{Title: w.title, Anchor: anchor, Level: 2}}
	for _, e := range w.cfg.Endpoints {
		out = append(out, Heading{Title: e.String(), Anchor: "endpoint-" + strconv.Itoa(e.ID), Level: 3})
	}
	return out
}

func (w *EndpointList) HTML(_ context.Context, rc RenderContext) (string, error) {
	return rc.render(templateHTMLEndpointList, w.view(rc))
}

func (w *EndpointList) AsciiDoc(_ context.Context, rc RenderContext) (string, error) {
	return rc.render(templateAsciiDocEndpointList, w.view(rc))
}

func (w *EndpointList) view(rc RenderContext) map[string]any {
	endpoints := make([]map[string]any, 0, len(w.cfg.Endpoints))
	for _, e := range w.cfg.Endpoints {
		related := make([]map[string]any, 0, len(w.cfg.Findings[e.ID]))
		for _, f := range w.cfg.Findings[e.ID] {
			related = append(related, findingView(f, w.cfg.Host, false, false))
		}
		endpoints = append(endpoints, map[string]any{
			"id":       e.ID,
			"url":      e.String(),
			"findings": related,
		})
	}
	return map[string]any{
		"anchor":    rc.Anchor,
		"title":     w.title,
		"endpoints": endpoints,
	}
}

func findingAnchor(id int) string {
	return "finding-" + strconv.Itoa(id)
}

// findingView flattens f for templates. Notes and images are only included
// when requested.
func findingView(f findings.Finding, host string, notes, images bool) map[string]any {
	view := map[string]any{
		"id":          f.ID,
		"title":       f.Title,
		"severity":    string(f.Severity),
		"description": f.Description,
		"mitigation":  f.Mitigation,
		"impact":      f.Impact,
		"references":  f.References,
		"component":   strings.TrimSpace(f.ComponentName + " " + f.ComponentVersion),
		"tags":        strings.Join(f.Tags, ", "),
		"url":         strings.TrimRight(host, "/") + "/finding/" + strconv.Itoa(f.ID),
	}
	if !f.Date.IsZero() {
		view["date"] = f.Date.Format(time.DateOnly)
	}
	if f.CWE > 0 {
		view["cwe"] = f.CWE
	}
	if f.FilePath != "" {
		location := f.FilePath
		if f.Line > 0 {
			location += ":" + strconv.Itoa(f.Line)
		}
		view["location"] = location
	}
	if notes && len(f.Notes) > 0 {
		out := make([]map[string]any, 0, len(f.Notes))
		for _, n := range f.Notes {
			out = append(out, map[string]any{
				"author": n.Author,
				"entry":  n.Entry,
				"date":   n.Date.Format(time.DateOnly),
			})
		}
		view["notes"] = out
	}
	if images && len(f.Images) > 0 {
		out := make([]map[string]any, 0, len(f.Images))
		for _, img := range f.Images {
			out = append(out, map[string]any{
				"caption": img.Caption,
				"url":     strings.TrimRight(host, "/") + "/media/" + strings.TrimLeft(img.Path, "/"),
			})
		}
		view["images"] = out
	}
	return view
}

// filterValues keeps the last submitted value per filter field for display.
func filterValues(filter url.Values) forms.Values {
	out := make(forms.Values, len(filter))
	for name, values := range filter {
		if len(values) > 0 {
			out[name] = values[len(values)-1]
		}
	}
	return out
}
