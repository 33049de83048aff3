// Package widgets implements the report sections and builder panels of the
// trscan plugin, and the factory that turns a posted layout into an ordered
// selection of widgets.
package widgets

import (
	"context"
	"strconv"

	"github.com/goliatone/go-trscan/pkg/forms"
	"github.com/goliatone/go-trscan/pkg/layout"
	"github.com/goliatone/go-trscan/pkg/model"
	rendertemplate "github.com/goliatone/go-trscan/pkg/render/template"
)

// Widget is a report section or a builder panel. HTML and AsciiDoc render
// the widget into a report; OptionForm renders its panel in the builder.
// Panels that only configure a scan render empty report output.
type Widget interface {
	Kind() layout.Kind
	Title() string
	Multiple() bool
	HTML(ctx context.Context, rc RenderContext) (string, error)
	AsciiDoc(ctx context.Context, rc RenderContext) (string, error)
	OptionForm(ctx context.Context, rc RenderContext) (string, error)
}

// Heading is one entry of the report outline.
type Heading struct {
	Title  string `json:"title"`
	Anchor string `json:"anchor"`
	// Level counts the report title as 1, so sections start at 2.
	Level int `json:"level"`
}

// Sectioned widgets contribute headings to the table of contents. anchor is
// the widget's selection key.
type Sectioned interface {
	Headings(anchor string) []Heading
}

// RenderContext carries what a widget renders with.
type RenderContext struct {
	// Templates defaults to DefaultTemplates.
	Templates rendertemplate.TemplateRenderer
	// Controls defaults to forms.DefaultControls.
	Controls *forms.Controls
	// Anchor is the selection key of the widget being rendered.
	Anchor string
	// Outline lists the headings of the whole report.
	Outline []Heading
}

func (rc RenderContext) render(name string, data map[string]any) (string, error) {
	engine := rc.Templates
	if engine == nil {
		var err error
		if engine, err = DefaultTemplates(); err != nil {
			return "", err
		}
	}
	return engine.RenderTemplate(name, data)
}

// base holds what every widget has: a kind, a title, a multiplicity flag and
// an optional bound form with its help text.
type base struct {
	kind     layout.Kind
	title    string
	multiple bool
	help     string
	form     *model.FormModel
	values   forms.Values
	errors   map[string][]string
}

func newBase(kind layout.Kind, title string) base {
	b := base{kind: kind, title: title, multiple: kind.Multiple()}
	if form, ok := forms.Lookup(string(kind)); ok {
		b.form = &form
	}
	return b
}

func (b *base) Kind() layout.Kind { return b.kind }
func (b *base) Title() string     { return b.title }
func (b *base) Multiple() bool    { return b.multiple }

func (b *base) HTML(context.Context, RenderContext) (string, error) {
	return "", nil
}

func (b *base) AsciiDoc(context.Context, RenderContext) (string, error) {
	return "", nil
}

func (b *base) OptionForm(_ context.Context, rc RenderContext) (string, error) {
	return rc.render(TemplateReportWidget, map[string]any{
		"kind":       string(b.kind),
		"title":      b.title,
		"multiple":   strconv.FormatBool(b.multiple),
		"extra_help": b.help,
		"form":       b.formMarkup(rc),
	})
}

func (b *base) formMarkup(rc RenderContext) string {
	if b.form == nil {
		return ""
	}
	return forms.RenderHTML(*b.form, b.values, forms.HTMLOptions{
		Controls: rc.Controls,
		Prefix:   string(b.kind),
		Errors:   b.errors,
	})
}

// decorate applies decorators to the bound form, for path pickers.
func (b *base) decorate(decorators ...model.Decorator) error {
	if b.form == nil {
		return nil
	}
	form := b.form.Clone()
	for _, d := range decorators {
		if d == nil {
			continue
		}
		if err := d.Decorate(&form); err != nil {
			return err
		}
	}
	b.form = &form
	return nil
}
