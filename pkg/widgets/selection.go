package widgets

import (
	"fmt"
	"maps"
)

// Selection is the ordered set of widgets built from a layout, keyed by
// entry key.
type Selection struct {
	keys    []string
	widgets map[string]Widget
}

func NewSelection() *Selection {
	return &Selection{widgets: make(map[string]Widget)}
}

// Set stores w under key. Replacing a key keeps its position.
func (s *Selection) Set(key string, w Widget) {
	if _, ok := s.widgets[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.widgets[key] = w
}

// Keys lists keys in layout order.
func (s *Selection) Keys() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.keys...)
}

func (s *Selection) Get(key string) (Widget, bool) {
	if s == nil {
		return nil, false
	}
	w, ok := s.widgets[key]
	return w, ok
}

// Widgets lists widgets in layout order.
func (s *Selection) Widgets() []Widget {
	if s == nil {
		return nil
	}
	out := make([]Widget, 0, len(s.keys))
	for _, key := range s.keys {
		out = append(out, s.widgets[key])
	}
	return out
}

func (s *Selection) Len() int {
	if s == nil {
		return 0
	}
	return len(s.keys)
}

// ReportOptions returns the report options widget when the layout has one.
func (s *Selection) ReportOptions() (*ReportOptions, bool) {
	return find[*ReportOptions](s)
}

func (s *Selection) TableOfContents() (*TableOfContents, bool) {
	return find[*TableOfContents](s)
}

func (s *Selection) CoverPage() (*CoverPage, bool) {
	return find[*CoverPage](s)
}

func find[T Widget](s *Selection) (T, bool) {
	var zero T
	if s == nil {
		return zero, false
	}
	for _, key := range s.keys {
		if w, ok := s.widgets[key].(T); ok {
			return w, true
		}
	}
	return zero, false
}

// ScanSettings merges the settings of every option panel in layout order.
// The first invalid panel aborts the merge.
func (s *Selection) ScanSettings() (map[string]string, error) {
	out := make(map[string]string)
	if s == nil {
		return out, nil
	}
	for _, key := range s.keys {
		panel, ok := s.widgets[key].(Configurable)
		if !ok {
			continue
		}
		settings, err := panel.Settings()
		if err != nil {
			return nil, fmt.Errorf("widgets: %s: %w", key, err)
		}
		maps.Copy(out, settings)
	}
	return out, nil
}

// Outline lists the headings of every sectioned widget in layout order.
func (s *Selection) Outline() []Heading {
	if s == nil {
		return nil
	}
	var out []Heading
	for _, key := range s.keys {
		if sectioned, ok := s.widgets[key].(Sectioned); ok {
			out = append(out, sectioned.Headings(key)...)
		}
	}
	return out
}
