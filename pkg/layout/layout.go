// Package layout parses the report layout descriptor posted by the report
// builder: a JSON array of single-key objects mapping a widget kind to the
// name/value pairs of its option form. Order is the display order.
package layout

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"

	"github.com/goliatone/go-trscan/pkg/forms"
)

// Kind identifies a widget in the layout descriptor.
type Kind string

const (
	KindCoverPage        Kind = forms.CoverPageID
	KindTableOfContents  Kind = forms.TableOfContentsID
	KindWYSIWYGContent   Kind = forms.WYSIWYGContentID
	KindFindingList      Kind = "finding-list"
	KindEndpointList     Kind = "endpoint-list"
	KindPageBreak        Kind = "page-break"
	KindReportOptions    Kind = forms.ReportOptionsID
	KindTrscanOptions    Kind = forms.TrscanOptionsID
	KindExclusionContent Kind = forms.ExclusionContentID
	KindFPContent        Kind = forms.FPContentID
	KindAnalysisContent  Kind = forms.AnalysisContentID
	KindLanguageContent  Kind = forms.LanguageContentID
	KindOpenXMLContent   Kind = forms.OpenXMLContentID
	KindLoadFilesContent Kind = forms.LoadFilesContentID
)

var knownKinds = map[Kind]bool{
	KindCoverPage:        false,
	KindTableOfContents:  false,
	KindWYSIWYGContent:   true,
	KindFindingList:      true,
	KindEndpointList:     true,
	KindPageBreak:        true,
	KindReportOptions:    false,
	KindTrscanOptions:    false,
	KindExclusionContent: false,
	KindFPContent:        false,
	KindAnalysisContent:  false,
	KindLanguageContent:  false,
	KindOpenXMLContent:   false,
	KindLoadFilesContent: true,
}

// Known reports whether k names a supported widget.
func (k Kind) Known() bool {
	_, ok := knownKinds[k]
	return ok
}

// Multiple reports whether the kind may appear several times in a layout.
// Multiple kinds are keyed "<kind>-<index>", singletons by their bare kind.
func (k Kind) Multiple() bool {
	return knownKinds[k]
}

// Key returns the selection key of a widget of this kind at position index.
func (k Kind) Key(index int) string {
	if k.Multiple() {
		return string(k) + "-" + strconv.Itoa(index)
	}
	return string(k)
}

func (k Kind) String() string {
	return string(k)
}

var (
	// ErrMalformed reports a descriptor that is not an array of single-key
	// objects holding name/value lists.
	ErrMalformed = errors.New("layout: malformed descriptor")
	// ErrUnknownKind reports an entry whose kind has no widget.
	ErrUnknownKind = errors.New("layout: unknown widget kind")
	// ErrMissingField reports an entry lacking a field its widget needs.
	ErrMissingField = errors.New("layout: missing field")
	// ErrInvalidValue reports a field whose value cannot be decoded.
	ErrInvalidValue = errors.New("layout: invalid value")
)

// FieldError describes a field problem in a single layout entry.
type FieldError struct {
	Kind  Kind
	Index int
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("layout: %s[%d]: %v %q", e.Kind, e.Index, unwrapLabel(e.Err), e.Field)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

func unwrapLabel(err error) string {
	switch {
	case errors.Is(err, ErrMissingField):
		return "missing field"
	case errors.Is(err, ErrInvalidValue):
		return "invalid value for"
	case err == nil:
		return "field"
	default:
		return err.Error()
	}
}

// Param is one name/value pair of an entry. Non-string JSON scalars are
// accepted and kept in their textual form.
type Param struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// UnmarshalJSON accepts string, number, boolean or null values.
func (p *Param) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name  string          `json:"name"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.Name = raw.Name
	p.Value = ""

	value := bytes.TrimSpace(raw.Value)
	if len(value) == 0 || bytes.Equal(value, []byte("null")) {
		return nil
	}
	if value[0] == '"' {
		return json.Unmarshal(value, &p.Value)
	}
	if value[0] == '{' || value[0] == '[' {
		return fmt.Errorf("param %q: value must be a scalar", raw.Name)
	}
	p.Value = string(value)
	return nil
}

// Params keeps the name/value pairs of an entry in submission order.
type Params []Param

// Get returns the first value submitted under name.
func (p Params) Get(name string) (string, bool) {
	for _, param := range p {
		if param.Name == name {
			return param.Value, true
		}
	}
	return "", false
}

// Values returns the pairs as url.Values; repeated names accumulate.
func (p Params) Values() url.Values {
	out := make(url.Values, len(p))
	for _, param := range p {
		out[param.Name] = append(out[param.Name], param.Value)
	}
	return out
}

// ParamsFromMap builds params sorted by name.
func ParamsFromMap(values map[string]string) Params {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(Params, 0, len(names))
	for _, name := range names {
		out = append(out, Param{Name: name, Value: values[name]})
	}
	return out
}

// Entry is one widget selection of a layout.
type Entry struct {
	Index  int
	Kind   Kind
	Params Params
}

// Key returns the selection key of the entry.
func (e Entry) Key() string {
	return e.Kind.Key(e.Index)
}

// Parse decodes a layout descriptor. Entries keep their position; unknown
// kinds are returned as-is so callers can decide to skip them.
func Parse(data []byte) ([]Entry, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	entries := make([]Entry, 0, len(items))
	for idx, item := range items {
		var object map[string]json.RawMessage
		if err := json.Unmarshal(item, &object); err != nil || object == nil {
			return nil, fmt.Errorf("%w: entry %d is not an object", ErrMalformed, idx)
		}
		if len(object) != 1 {
			return nil, fmt.Errorf("%w: entry %d has %d keys, want 1", ErrMalformed, idx, len(object))
		}

		for key, raw := range object {
			var params Params
			if err := json.Unmarshal(raw, &params); err != nil {
				return nil, fmt.Errorf("%w: entry %d (%s): %v", ErrMalformed, idx, key, err)
			}
			entries = append(entries, Entry{Index: idx, Kind: Kind(key), Params: params})
		}
	}
	return entries, nil
}

// Marshal encodes entries back into a descriptor.
func Marshal(entries []Entry) ([]byte, error) {
	items := make([]map[string]Params, 0, len(entries))
	for _, entry := range entries {
		params := entry.Params
		if params == nil {
			params = Params{}
		}
		items = append(items, map[string]Params{string(entry.Kind): params})
	}
	return json.Marshal(items)
}
