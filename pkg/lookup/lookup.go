// Package lookup turns submitted filter parameters into query lookups. Keys
// follow the field__suffix convention understood by the findings query layer
// (for example "severity", "tags__in", "test__id" or "date__gte").
package lookup

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Lookup accumulates field lookups for a findings or endpoints query.
type Lookup map[string]any

// Suffixes appended to field names by Coerce.
const (
	SuffixIn = "__in"
	SuffixID = "__id"
)

// tagSeparator splits tag lists submitted by the filter widgets.
const tagSeparator = ", "

// integerFields keep their name when the submitted value is numeric; every
// other numeric value is treated as a foreign key id.
var integerFields = map[string]struct{}{
	"nb_occurences": {},
	"date":          {},
	"cwe":           {},
}

// ignoredParams are paging and ordering parameters that never become lookups.
var ignoredParams = map[string]struct{}{
	"page":                {},
	"page_size":           {},
	"o":                   {},
	"csrfmiddlewaretoken": {},
}

// Coerce infers the lookup key and typed value for a single submitted filter
// value. A nil value means the filter carries no constraint.
//
// Rules apply in order: tri-state booleans, tag lists, integers, strings.
func Coerce(field, raw string) (string, any) {
	switch raw {
	case "true":
		return field, true
	case "false":
		return field, false
	case "unknown":
		return field, nil
	}

	if strings.Contains(field, "tags") {
		return field + SuffixIn, strings.Split(raw, tagSeparator)
	}

	if n, err := strconv.Atoi(raw); err == nil {
		if _, keep := integerFields[field]; keep {
			return field, n
		}
		return field + SuffixID, n
	}

	if raw == "" {
		return field, nil
	}
	return field, raw
}

// Set stores value under key unless value is nil.
func (l Lookup) Set(key string, value any) {
	if l == nil || value == nil {
		return
	}
	l[key] = value
}

// Keys returns the lookup keys in sorted order.
func (l Lookup) Keys() []string {
	keys := make([]string, 0, len(l))
	for key := range l {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a shallow copy of the lookup.
func (l Lookup) Clone() Lookup {
	out := make(Lookup, len(l))
	for key, value := range l {
		out[key] = value
	}
	return out
}

// FromValues builds a lookup from submitted filter parameters. The "date"
// parameter is read as a DateRange code relative to now, repeated parameters
// become __in lists, paging parameters are skipped.
func FromValues(values url.Values, now time.Time) Lookup {
	return FromValuesFor(values, now, nil)
}

// FromValuesFor is FromValues where isRef decides which fields are foreign
// keys. Numeric values of other fields keep the bare field name and the raw
// text, so a title filter of "404" stays a title filter. A nil isRef applies
// Coerce unchanged.
func FromValuesFor(values url.Values, now time.Time, isRef func(field string) bool) Lookup {
	out := make(Lookup)
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if _, skip := ignoredParams[name]; skip {
			continue
		}
		raw := values[name]
		if len(raw) == 0 {
			continue
		}

		if name == "date" {
			if code, err := strconv.Atoi(raw[0]); err == nil {
				ApplyDateRange(DateRange(code), out, now)
			}
			continue
		}

		if len(raw) > 1 {
			items := make([]string, 0, len(raw))
			for _, value := range raw {
				if value = strings.TrimSpace(value); value != "" {
					items = append(items, value)
				}
			}
			if len(items) > 0 {
				out[name+SuffixIn] = items
			}
			continue
		}

		key, value := Coerce(name, raw[0])
		if isRef != nil && key == name+SuffixID && !isRef(name) {
			key, value = name, raw[0]
		}
		out.Set(key, value)
	}
	return out
}
