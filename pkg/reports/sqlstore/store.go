// Package sqlstore implements reports.Store over SQLite.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goliatone/go-trscan/pkg/reports"
)

type Store struct {
	db *sql.DB
}

var _ reports.Store = (*Store)(nil)

// New wraps a migrated database.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const reportColumns = `id, name, type, format, requester, task_id, options, host, finding_notes,
	finding_images, status, file, error, created_at, updated_at`

func (s *Store) Create(ctx context.Context, r *reports.Report) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO reports (`+reportColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Name, r.Type, r.Format, r.Requester, r.TaskID, r.Options, r.Host, r.FindingNotes,
		r.FindingImages, string(r.Status), r.File, r.Error, formatTime(r.CreatedAt), formatTime(r.UpdatedAt))
	if err != nil {
		return fmt.Errorf("sqlstore: insert report: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (reports.Report, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+reportColumns+` FROM reports WHERE id = ?`, id)
	r, err := scanReport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return reports.Report{}, fmt.Errorf("%w: %s", reports.ErrNotFound, id)
	}
	if err != nil {
		return reports.Report{}, fmt.Errorf("sqlstore: get report: %w", err)
	}
	return r, nil
}

func (s *Store) Update(ctx context.Context, r *reports.Report) error {
	res, err := s.db.ExecContext(ctx, `UPDATE reports SET name = ?, task_id = ?, status = ?, file = ?, error = ?,
		updated_at = ? WHERE id = ?`,
		r.Name, r.TaskID, string(r.Status), r.File, r.Error, formatTime(r.UpdatedAt), r.ID)
	if err != nil {
		return fmt.Errorf("sqlstore: update report: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlstore: update report: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", reports.ErrNotFound, r.ID)
	}
	return nil
}

func (s *Store) List(ctx context.Context, requester string, limit int) ([]reports.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports`
	var args []any
	if requester != "" {
		query += ` WHERE requester = ?`
		args = append(args, requester)
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: list reports: %w", err)
	}
	defer rows.Close()

	var out []reports.Report
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlstore: scan report: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReport(row scanner) (reports.Report, error) {
	var (
		r                reports.Report
		status           string
		created, updated string
	)
	err := row.Scan(&r.ID, &r.Name, &r.Type, &r.Format, &r.Requester, &r.TaskID, &r.Options, &r.Host,
		&r.FindingNotes, &r.FindingImages, &status, &r.File, &r.Error, &created, &updated)
	if err != nil {
		return reports.Report{}, err
	}
	r.Status = reports.Status(status)
	if r.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return reports.Report{}, fmt.Errorf("created_at %q: %w", created, err)
	}
	if r.UpdatedAt, err = time.Parse(time.RFC3339Nano, updated); err != nil {
		return reports.Report{}, fmt.Errorf("updated_at %q: %w", updated, err)
	}
	return r, nil
}

// formatTime writes fixed width UTC timestamps so created_at sorts as text.
func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000000Z07:00")
}
