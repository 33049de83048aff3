package findings

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-trscan/pkg/lookup"
)

// FieldKind determines which lookups a field accepts and how values compare.
type FieldKind int

const (
	// KindText compares case-insensitively by substring, as the report
	// filters do for free text.
	KindText FieldKind = iota
	KindString
	KindInt
	KindBool
	KindDate
	KindTags
	// KindRef is a foreign key compared by id.
	KindRef
)

// FieldDef describes a queryable field. Column is the storage column used by
// SQL backends.
type FieldDef struct {
	Kind   FieldKind
	Column string
}

// Op is a lookup suffix.
type Op string

const (
	OpExact     Op = ""
	OpIn        Op = "in"
	OpID        Op = "id"
	OpGTE       Op = "gte"
	OpLT        Op = "lt"
	OpYear      Op = "year"
	OpMonth     Op = "month"
	OpDay       Op = "day"
	OpIContains Op = "icontains"
)

var knownOps = map[Op]struct{}{
	OpIn: {}, OpID: {}, OpGTE: {}, OpLT: {}, OpYear: {}, OpMonth: {}, OpDay: {}, OpIContains: {},
}

// FindingFields lists the queryable finding fields.
var FindingFields = map[string]FieldDef{
	"id":                        {Kind: KindInt, Column: "id"},
	"title":                     {Kind: KindText, Column: "title"},
	"severity":                  {Kind: KindString, Column: "severity"},
	"description":               {Kind: KindText, Column: "description"},
	"component_name":            {Kind: KindText, Column: "component_name"},
	"component_version":         {Kind: KindString, Column: "component_version"},
	"file_path":                 {Kind: KindText, Column: "file_path"},
	"cwe":                       {Kind: KindInt, Column: "cwe"},
	"nb_occurences":             {Kind: KindInt, Column: "nb_occurences"},
	"date":                      {Kind: KindDate, Column: "date"},
	"active":                    {Kind: KindBool, Column: "active"},
	"verified":                  {Kind: KindBool, Column: "verified"},
	"false_p":                   {Kind: KindBool, Column: "false_p"},
	"duplicate":                 {Kind: KindBool, Column: "duplicate"},
	"out_of_scope":              {Kind: KindBool, Column: "out_of_scope"},
	"tags":                      {Kind: KindTags, Column: "tag"},
	"test":                      {Kind: KindRef, Column: "test_id"},
	"test__engagement__product": {Kind: KindRef, Column: "product_id"},
}

// EndpointFields lists the queryable endpoint fields.
var EndpointFields = map[string]FieldDef{
	"id":       {Kind: KindInt, Column: "id"},
	"host":     {Kind: KindText, Column: "host"},
	"protocol": {Kind: KindString, Column: "protocol"},
	"path":     {Kind: KindText, Column: "path"},
	"port":     {Kind: KindInt, Column: "port"},
	"product":  {Kind: KindRef, Column: "product_id"},
}

// FilterLookup builds a lookup from submitted filter values for a query over
// fields. Only KindRef fields turn numeric values into __id lookups.
func FilterLookup(values url.Values, now time.Time, fields map[string]FieldDef) lookup.Lookup {
	return lookup.FromValuesFor(values, now, func(field string) bool {
		return fields[field].Kind == KindRef
	})
}

// Condition is one parsed lookup.
type Condition struct {
	Key   string
	Field string
	Def   FieldDef
	Op    Op
	Value any
}

// ParseConditions validates l against fields. Conditions are returned in key
// order.
func ParseConditions(l lookup.Lookup, fields map[string]FieldDef) ([]Condition, error) {
	out := make([]Condition, 0, len(l))
	for _, key := range l.Keys() {
		cond, err := parseCondition(key, l[key], fields)
		if err != nil {
			return nil, err
		}
		out = append(out, cond)
	}
	return out, nil
}

func parseCondition(key string, value any, fields map[string]FieldDef) (Condition, error) {
	name, op := key, OpExact
	if idx := strings.LastIndex(key, "__"); idx > 0 {
		if candidate := Op(key[idx+2:]); isKnownOp(candidate) {
			name, op = key[:idx], candidate
		}
	}
	def, ok := fields[name]
	if !ok {
		return Condition{}, wrapLookupErr(key, ErrUnknownField)
	}
	cond := Condition{Key: key, Field: name, Def: def, Op: op, Value: value}
	if !supports(def.Kind, op) {
		return Condition{}, wrapLookupErr(key, ErrUnsupportedLookup)
	}
	normalized, err := normalizeValue(cond)
	if err != nil {
		return Condition{}, fmt.Errorf("%w: %s: %v", ErrUnsupportedLookup, key, err)
	}
	cond.Value = normalized
	return cond, nil
}

func isKnownOp(op Op) bool {
	_, ok := knownOps[op]
	return ok
}

func supports(kind FieldKind, op Op) bool {
	switch op {
	case OpExact:
		return true
	case OpIn:
		return kind != KindBool
	case OpID:
		return kind == KindRef
	case OpGTE, OpLT:
		return kind == KindDate || kind == KindInt
	case OpYear, OpMonth, OpDay:
		return kind == KindDate
	case OpIContains:
		return kind == KindText || kind == KindString
	default:
		return false
	}
}

// normalizeValue converts lookup values to the comparison type of the field:
// int for KindInt/KindRef and date parts, time.Time for date bounds, bool for
// KindBool, []string or []int for __in lists.
func normalizeValue(cond Condition) (any, error) {
	switch cond.Op {
	case OpIn:
		items, err := toStrings(cond.Value)
		if err != nil {
			return nil, err
		}
		if cond.Def.Kind == KindInt || cond.Def.Kind == KindRef {
			ints := make([]int, 0, len(items))
			for _, item := range items {
				n, err := strconv.Atoi(strings.TrimSpace(item))
				if err != nil {
					return nil, fmt.Errorf("%q is not a number", item)
				}
				ints = append(ints, n)
			}
			return ints, nil
		}
		return items, nil
	case OpID, OpYear, OpMonth, OpDay:
		return toInt(cond.Value)
	case OpGTE, OpLT:
		if cond.Def.Kind == KindDate {
			return toTime(cond.Value)
		}
		return toInt(cond.Value)
	case OpIContains:
		return fmt.Sprint(cond.Value), nil
	}

	switch cond.Def.Kind {
	case KindInt, KindRef:
		return toInt(cond.Value)
	case KindBool:
		b, ok := cond.Value.(bool)
		if !ok {
			return nil, fmt.Errorf("%v is not a boolean", cond.Value)
		}
		return b, nil
	case KindDate:
		return toTime(cond.Value)
	default:
		return fmt.Sprint(cond.Value), nil
	}
}

func toStrings(value any) ([]string, error) {
	switch v := value.(type) {
	case []string:
		return v, nil
	case string:
		return []string{v}, nil
	case []int:
		out := make([]string, len(v))
		for i, n := range v {
			out[i] = strconv.Itoa(n)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%v is not a list", value)
	}
}

func toInt(value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("%q is not a number", v)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%v is not a number", value)
	}
}

func toTime(value any) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case string:
		t, err := time.Parse(time.DateOnly, strings.TrimSpace(v))
		if err != nil {
			return time.Time{}, fmt.Errorf("%q is not a date", v)
		}
		return t, nil
	default:
		return time.Time{}, fmt.Errorf("%v is not a date", value)
	}
}
