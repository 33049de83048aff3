package findings

import (
	"strings"
	"time"
)

func findingValue(f Finding, field string) any {
	switch field {
	case "id":
		return f.ID
	case "title":
		return f.Title
	case "severity":
		return string(f.Severity)
	case "description":
		return f.Description
	case "component_name":
		return f.ComponentName
	case "component_version":
		return f.ComponentVersion
	case "file_path":
		return f.FilePath
	case "cwe":
		return f.CWE
	case "nb_occurences":
		return f.NbOccurences
	case "date":
		return f.Date
	case "active":
		return f.Active
	case "verified":
		return f.Verified
	case "false_p":
		return f.FalsePositive
	case "duplicate":
		return f.Duplicate
	case "out_of_scope":
		return f.OutOfScope
	case "tags":
		return f.Tags
	case "test":
		return f.TestID
	case "test__engagement__product":
		return f.ProductID
	default:
		return nil
	}
}

func endpointValue(e Endpoint, field string) any {
	switch field {
	case "id":
		return e.ID
	case "host":
		return e.Host
	case "protocol":
		return e.Protocol
	case "path":
		return e.Path
	case "port":
		return e.Port
	case "product":
		return e.ProductID
	default:
		return nil
	}
}

// Match reports whether value satisfies cond. Value is the field value as
// returned for the record.
func Match(cond Condition, value any) bool {
	if cond.Def.Kind == KindTags {
		return matchTags(cond, value)
	}

	switch cond.Op {
	case OpIn:
		switch want := cond.Value.(type) {
		case []int:
			got, _ := value.(int)
			for _, n := range want {
				if n == got {
					return true
				}
			}
		case []string:
			got := stringOf(value)
			for _, s := range want {
				if s == got {
					return true
				}
			}
		}
		return false
	case OpID:
		got, _ := value.(int)
		return got == cond.Value.(int)
	case OpGTE, OpLT:
		return compareOrdered(cond, value)
	case OpYear, OpMonth, OpDay:
		t, ok := value.(time.Time)
		if !ok || t.IsZero() {
			return false
		}
		want := cond.Value.(int)
		switch cond.Op {
		case OpYear:
			return t.Year() == want
		case OpMonth:
			return int(t.Month()) == want
		default:
			return t.Day() == want
		}
	case OpIContains:
		return containsFold(stringOf(value), cond.Value.(string))
	}

	switch cond.Def.Kind {
	case KindText:
		return containsFold(stringOf(value), cond.Value.(string))
	case KindDate:
		t, _ := value.(time.Time)
		return sameDay(t, cond.Value.(time.Time))
	default:
		return value == cond.Value
	}
}

func matchTags(cond Condition, value any) bool {
	tags, _ := value.([]string)
	var want []string
	switch v := cond.Value.(type) {
	case []string:
		want = v
	case string:
		want = []string{v}
	}
	for _, tag := range tags {
		for _, w := range want {
			if strings.EqualFold(strings.TrimSpace(tag), strings.TrimSpace(w)) {
				return true
			}
		}
	}
	return false
}

func compareOrdered(cond Condition, value any) bool {
	switch want := cond.Value.(type) {
	case time.Time:
		got, ok := value.(time.Time)
		if !ok || got.IsZero() {
			return false
		}
		if cond.Op == OpGTE {
			return !got.Before(want)
		}
		return got.Before(want)
	case int:
		got, _ := value.(int)
		if cond.Op == OpGTE {
			return got >= want
		}
		return got < want
	}
	return false
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func stringOf(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	return ""
}
