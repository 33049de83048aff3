// Package sqlstore implements findings.Repository over SQLite.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-trscan/pkg/findings"
)

// Store reads and writes findings and endpoints.
type Store struct {
	db *sql.DB
}

var _ findings.Repository = (*Store)(nil)

// New wraps a migrated database.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const findingColumns = `id, title, severity, description, mitigation, impact, refs, component_name,
	component_version, file_path, line, cwe, date, active, verified, false_p, duplicate, out_of_scope,
	nb_occurences, product_id, test_id`

func (s *Store) Findings(ctx context.Context, q findings.Query) (findings.Page, error) {
	where, err := findingWhere(q)
	if err != nil {
		return findings.Page{}, err
	}

	var total int
	countSQL := `SELECT COUNT(*) FROM findings` + where.sql()
	if err := s.db.QueryRowContext(ctx, countSQL, where.args...).Scan(&total); err != nil {
		return findings.Page{}, fmt.Errorf("sqlstore: count findings: %w", err)
	}

	page := findings.Page{Number: 1, Size: total, Total: total}
	query := `SELECT ` + findingColumns + ` FROM findings` + where.sql() + ` ORDER BY severity_score DESC, id ASC`
	args := append([]any(nil), where.args...)
	if q.Page > 0 {
		page.Size = q.PageSize
		if page.Size <= 0 {
			page.Size = findings.DefaultPageSize
		}
		page.Number = q.Page
		if pages := page.NumPages(); page.Number > pages {
			page.Number = pages
		}
		query += ` LIMIT ? OFFSET ?`
		args = append(args, page.Size, (page.Number-1)*page.Size)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return findings.Page{}, fmt.Errorf("sqlstore: query findings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		f, err := scanFinding(rows)
		if err != nil {
			return findings.Page{}, err
		}
		page.Items = append(page.Items, f)
	}
	if err := rows.Err(); err != nil {
		return findings.Page{}, fmt.Errorf("sqlstore: iterate findings: %w", err)
	}
	rows.Close()

	if err := s.loadRelations(ctx, page.Items); err != nil {
		return findings.Page{}, err
	}
	return page, nil
}

func (s *Store) Endpoints(ctx context.Context, q findings.Query) ([]findings.Endpoint, error) {
	conds, err := findings.ParseConditions(q.Lookup, findings.EndpointFields)
	if err != nil {
		return nil, err
	}
	where := buildWhere(conds)
	where.restrictProducts(q.ProductIDs)
	if q.ReportableOnly {
		where.add(`id IN (SELECT fe.endpoint_id FROM finding_endpoints fe
			JOIN findings f ON f.id = fe.finding_id
			WHERE f.active = 1 AND f.verified = 1 AND f.false_p = 0 AND f.duplicate = 0 AND f.out_of_scope = 0)`)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, protocol, host, port, path, query, fragment, product_id
		FROM endpoints`+where.sql()+` ORDER BY host ASC, id ASC`, where.args...)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: query endpoints: %w", err)
	}
	defer rows.Close()

	var out []findings.Endpoint
	for rows.Next() {
		var e findings.Endpoint
		if err := rows.Scan(&e.ID, &e.Protocol, &e.Host, &e.Port, &e.Path, &e.Query, &e.Fragment, &e.ProductID); err != nil {
			return nil, fmt.Errorf("sqlstore: scan endpoint: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: iterate endpoints: %w", err)
	}
	return out, nil
}

func (s *Store) Words(ctx context.Context, field string, q findings.Query) ([]string, error) {
	def, ok := findings.FindingFields[field]
	if !ok || (def.Kind != findings.KindText && def.Kind != findings.KindString) {
		return nil, fmt.Errorf("%w: %s", findings.ErrUnknownField, field)
	}
	where, err := findingWhere(q)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT `+def.Column+` FROM findings`+where.sql(), where.args...)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: query words: %w", err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return nil, fmt.Errorf("sqlstore: scan words: %w", err)
		}
		values = append(values, value)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: iterate words: %w", err)
	}
	return findings.Words(values), nil
}

func findingWhere(q findings.Query) (*where, error) {
	conds, err := findings.ParseConditions(q.Lookup, findings.FindingFields)
	if err != nil {
		return nil, err
	}
	w := buildWhere(conds)
	w.restrictProducts(q.ProductIDs)
	return w, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFinding(row scanner) (findings.Finding, error) {
	var (
		f        findings.Finding
		severity string
		date     string
	)
	err := row.Scan(&f.ID, &f.Title, &severity, &f.Description, &f.Mitigation, &f.Impact, &f.References,
		&f.ComponentName, &f.ComponentVersion, &f.FilePath, &f.Line, &f.CWE, &date, &f.Active, &f.Verified,
		&f.FalsePositive, &f.Duplicate, &f.OutOfScope, &f.NbOccurences, &f.ProductID, &f.TestID)
	if err != nil {
		return findings.Finding{}, fmt.Errorf("sqlstore: scan finding: %w", err)
	}
	f.Severity = findings.Severity(severity)
	if date != "" {
		if t, err := time.Parse(time.DateOnly, date); err == nil {
			f.Date = t
		}
	}
	return f, nil
}

func (s *Store) loadRelations(ctx context.Context, items []findings.Finding) error {
	if len(items) == 0 {
		return nil
	}
	index := make(map[int]*findings.Finding, len(items))
	ids := make([]any, 0, len(items))
	for i := range items {
		index[items[i].ID] = &items[i]
		ids = append(ids, items[i].ID)
	}
	in := placeholders(len(ids))

	err := s.eachRow(ctx, `SELECT finding_id, tag FROM finding_tags WHERE finding_id IN (`+in+`) ORDER BY tag`, ids,
		func(row scanner) error {
			var id int
			var tag string
			if err := row.Scan(&id, &tag); err != nil {
				return err
			}
			index[id].Tags = append(index[id].Tags, tag)
			return nil
		})
	if err != nil {
		return fmt.Errorf("sqlstore: load tags: %w", err)
	}

	err = s.eachRow(ctx, `SELECT finding_id, endpoint_id FROM finding_endpoints WHERE finding_id IN (`+in+`) ORDER BY endpoint_id`, ids,
		func(row scanner) error {
			var id, endpoint int
			if err := row.Scan(&id, &endpoint); err != nil {
				return err
			}
			index[id].EndpointIDs = append(index[id].EndpointIDs, endpoint)
			return nil
		})
	if err != nil {
		return fmt.Errorf("sqlstore: load endpoints: %w", err)
	}

	err = s.eachRow(ctx, `SELECT finding_id, author, entry, date FROM finding_notes WHERE finding_id IN (`+in+`) ORDER BY id`, ids,
		func(row scanner) error {
			var id int
			var note findings.Note
			var date string
			if err := row.Scan(&id, &note.Author, &note.Entry, &date); err != nil {
				return err
			}
			note.Date, _ = time.Parse(time.RFC3339, date)
			index[id].Notes = append(index[id].Notes, note)
			return nil
		})
	if err != nil {
		return fmt.Errorf("sqlstore: load notes: %w", err)
	}

	err = s.eachRow(ctx, `SELECT finding_id, caption, path FROM finding_images WHERE finding_id IN (`+in+`) ORDER BY id`, ids,
		func(row scanner) error {
			var id int
			var image findings.Image
			if err := row.Scan(&id, &image.Caption, &image.Path); err != nil {
				return err
			}
			index[id].Images = append(index[id].Images, image)
			return nil
		})
	if err != nil {
		return fmt.Errorf("sqlstore: load images: %w", err)
	}
	return nil
}

func (s *Store) eachRow(ctx context.Context, query string, args []any, fn func(scanner) error) error {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := fn(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
