package sqlstore

import (
	"strings"
	"time"

	"github.com/goliatone/go-trscan/pkg/findings"
)

// where accumulates AND-ed clauses. Column names come from the field
// whitelists in package findings; values are always bound.
type where struct {
	clauses []string
	args    []any
}

func (w *where) add(clause string, args ...any) {
	w.clauses = append(w.clauses, clause)
	w.args = append(w.args, args...)
}

func (w *where) sql() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

func (w *where) restrictProducts(ids []int) {
	if ids == nil {
		return
	}
	if len(ids) == 0 {
		w.add("0")
		return
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	w.add("product_id IN ("+placeholders(len(ids))+")", args...)
}

func buildWhere(conds []findings.Condition) *where {
	w := &where{}
	for _, cond := range conds {
		addCondition(w, cond)
	}
	return w
}

func addCondition(w *where, cond findings.Condition) {
	col := cond.Def.Column

	if cond.Def.Kind == findings.KindTags {
		var tags []string
		switch v := cond.Value.(type) {
		case []string:
			tags = v
		case string:
			tags = []string{v}
		}
		if len(tags) == 0 {
			w.add("0")
			return
		}
		args := make([]any, len(tags))
		for i, tag := range tags {
			args[i] = strings.ToLower(strings.TrimSpace(tag))
		}
		w.add("id IN (SELECT finding_id FROM finding_tags WHERE LOWER(tag) IN ("+placeholders(len(args))+"))", args...)
		return
	}

	switch cond.Op {
	case findings.OpIn:
		var args []any
		switch v := cond.Value.(type) {
		case []int:
			for _, n := range v {
				args = append(args, n)
			}
		case []string:
			for _, s := range v {
				args = append(args, s)
			}
		}
		if len(args) == 0 {
			w.add("0")
			return
		}
		w.add(col+" IN ("+placeholders(len(args))+")", args...)
	case findings.OpID:
		w.add(col+" = ?", cond.Value)
	case findings.OpGTE:
		w.add(col+" >= ?", bindValue(cond.Value))
	case findings.OpLT:
		w.add(col+" < ?", bindValue(cond.Value))
	case findings.OpYear:
		w.add("CAST(strftime('%Y', "+col+") AS INTEGER) = ?", cond.Value)
	case findings.OpMonth:
		w.add("CAST(strftime('%m', "+col+") AS INTEGER) = ?", cond.Value)
	case findings.OpDay:
		w.add("CAST(strftime('%d', "+col+") AS INTEGER) = ?", cond.Value)
	case findings.OpIContains:
		w.add("LOWER("+col+") LIKE ? ESCAPE '\\'", likePattern(cond.Value.(string)))
	default:
		if cond.Def.Kind == findings.KindText {
			w.add("LOWER("+col+") LIKE ? ESCAPE '\\'", likePattern(cond.Value.(string)))
			return
		}
		w.add(col+" = ?", bindValue(cond.Value))
	}
}

func bindValue(value any) any {
	switch v := value.(type) {
	case time.Time:
		return v.Format(time.DateOnly)
	case bool:
		if v {
			return 1
		}
		return 0
	default:
		return v
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(value string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(value)) + "%"
}
