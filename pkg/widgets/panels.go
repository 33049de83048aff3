package widgets

import (
	"errors"

	"github.com/goliatone/go-trscan/pkg/forms"
	"github.com/goliatone/go-trscan/pkg/layout"
)

// PanelConfig configures a scan option panel.
type PanelConfig struct {
	// Values are the cleaned panel values; nil renders the form initials.
	Values forms.Values
	// Err is the binding error, a *forms.ValidationError.
	Err error
}

// panel is a scan option panel. It renders nothing into reports and feeds
// its values to the scanner.
type panel struct {
	base
	err error
	// rename maps field names to scanner setting names where panels share a
	// field name.
	rename map[string]string
}

func newPanel(kind layout.Kind, title, help string, cfg PanelConfig) panel {
	p := panel{base: newBase(kind, title), err: cfg.Err}
	p.help = help
	p.values = cfg.Values
	var verr *forms.ValidationError
	if errors.As(cfg.Err, &verr) {
		p.errors = verr.Fields
	}
	return p
}

// Settings returns the panel values keyed by scanner setting name. Section
// markers and empty values are left out.
func (p *panel) Settings() (map[string]string, error) {
	if p.err != nil {
		return nil, p.err
	}
	out := make(map[string]string, len(p.values))
	if p.form == nil {
		return out, nil
	}
	for _, field := range p.form.Fields {
		if field.ReadOnly {
			continue
		}
		value, ok := p.values[field.Name]
		if !ok || value == nil {
			continue
		}
		name := field.Name
		if renamed, ok := p.rename[name]; ok {
			name = renamed
		}
		out[name] = p.values.String(field.Name)
	}
	return out, nil
}

// Configurable is implemented by widgets that contribute scanner settings.
type Configurable interface {
	Settings() (map[string]string, error)
}

type TrscanOptions struct{ panel }

func NewTrscanOptions(cfg PanelConfig) *TrscanOptions {
	return &TrscanOptions{newPanel(layout.KindTrscanOptions, "Scan Details",
		"Fill out the following field and press Save and Run", cfg)}
}

type ExclusionContent struct{ panel }

func NewExclusionContent(cfg PanelConfig) *ExclusionContent {
	return &ExclusionContent{newPanel(layout.KindExclusionContent, "Exclusion List",
		"Select the Exclusion List File", cfg)}
}

type FPContent struct{ panel }

func NewFPContent(cfg PanelConfig) *FPContent {
	w := &FPContent{newPanel(layout.KindFPContent, "False Positives",
		"Select the False Positives File", cfg)}
	w.rename = map[string]string{"exclusions": "false_positives"}
	return w
}

type AnalysisContent struct{ panel }

func NewAnalysisContent(cfg PanelConfig) *AnalysisContent {
	return &AnalysisContent{newPanel(layout.KindAnalysisContent, "Analysis Options",
		"Check the Analysis Options", cfg)}
}

type LanguageContent struct{ panel }

func NewLanguageContent(cfg PanelConfig) *LanguageContent {
	return &LanguageContent{newPanel(layout.KindLanguageContent, "Language Options",
		"Check the Language Options", cfg)}
}

type OpenXMLContent struct{ panel }

func NewOpenXMLContent(cfg PanelConfig) *OpenXMLContent {
	w := &OpenXMLContent{newPanel(layout.KindOpenXMLContent, "Open XML Analysis",
		"Load a Scan from XML", cfg)}
	w.rename = map[string]string{"exclusions": "xml_file"}
	return w
}
