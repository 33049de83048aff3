package gotemplate

import (
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"
)

var defaultFiltersOnce sync.Once

// registerDefaultFilters installs the report filters into pongo2's process
// wide filter table. The table is not synchronised, so it runs once.
func registerDefaultFilters() {
	defaultFiltersOnce.Do(func() {
		defaults := map[string]pongo2.FilterFunction{
			"trim":           filterTrim,
			"adoc_heading":   filterAsciiDocHeading,
			"severity_class": filterSeverityClass,
		}
		for name, fn := range defaults {
			if !pongo2.FilterExists(name) {
				_ = pongo2.RegisterFilter(name, fn)
			}
		}
	})
}

func filterTrim(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	if in.Len() <= 0 {
		return pongo2.AsValue(""), nil
	}
	return pongo2.AsValue(strings.TrimSpace(in.String())), nil
}

// filterAsciiDocHeading prefixes the input with an AsciiDoc section marker:
// {{ title|adoc_heading:2 }} renders "== title". Levels are clamped to 1..6.
func filterAsciiDocHeading(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	level := 1
	if param != nil && param.IsInteger() {
		level = param.Integer()
	}
	level = min(max(level, 1), 6)
	title := strings.Join(strings.Fields(in.String()), " ")
	return pongo2.AsValue(strings.Repeat("=", level) + " " + title), nil
}

func filterSeverityClass(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	severity := strings.ToLower(strings.TrimSpace(in.String()))
	if severity == "" {
		severity = "info"
	}
	return pongo2.AsValue("severity-" + severity), nil
}
