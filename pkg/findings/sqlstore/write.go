package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/goliatone/go-trscan/pkg/findings"
)

// CreateEndpoint inserts e and sets its ID.
func (s *Store) CreateEndpoint(ctx context.Context, e *findings.Endpoint) error {
	res, err := s.db.ExecContext(ctx, `INSERT INTO endpoints (protocol, host, port, path, query, fragment, product_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)`, e.Protocol, e.Host, e.Port, e.Path, e.Query, e.Fragment, e.ProductID)
	if err != nil {
		return fmt.Errorf("sqlstore: insert endpoint: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlstore: endpoint id: %w", err)
	}
	e.ID = int(id)
	return nil
}

// CreateFinding inserts f with its tags, endpoint links, notes and images,
// and sets its ID.
func (s *Store) CreateFinding(ctx context.Context, f *findings.Finding) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlstore: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	date := ""
	if !f.Date.IsZero() {
		date = f.Date.Format(time.DateOnly)
	}
	res, err := tx.ExecContext(ctx, `INSERT INTO findings (title, severity, severity_score, description, mitigation,
		impact, refs, component_name, component_version, file_path, line, cwe, date, active, verified, false_p,
		duplicate, out_of_scope, nb_occurences, product_id, test_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.Title, string(f.Severity), f.Severity.Score(), f.Description, f.Mitigation, f.Impact, f.References,
		f.ComponentName, f.ComponentVersion, f.FilePath, f.Line, f.CWE, date, f.Active, f.Verified,
		f.FalsePositive, f.Duplicate, f.OutOfScope, f.NbOccurences, f.ProductID, f.TestID)
	if err != nil {
		return fmt.Errorf("sqlstore: insert finding: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlstore: finding id: %w", err)
	}

	if err = insertChildren(ctx, tx, id, f); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("sqlstore: commit: %w", err)
	}
	f.ID = int(id)
	return nil
}

func insertChildren(ctx context.Context, tx *sql.Tx, id int64, f *findings.Finding) error {
	for _, tag := range f.Tags {
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO finding_tags (finding_id, tag) VALUES (?, ?)`, id, tag); err != nil {
			return fmt.Errorf("sqlstore: insert tag: %w", err)
		}
	}
	for _, endpoint := range f.EndpointIDs {
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO finding_endpoints (finding_id, endpoint_id) VALUES (?, ?)`, id, endpoint); err != nil {
			return fmt.Errorf("sqlstore: link endpoint: %w", err)
		}
	}
	for _, note := range f.Notes {
		if _, err := tx.ExecContext(ctx, `INSERT INTO finding_notes (finding_id, author, entry, date) VALUES (?, ?, ?, ?)`,
			id, note.Author, note.Entry, note.Date.UTC().Format(time.RFC3339)); err != nil {
			return fmt.Errorf("sqlstore: insert note: %w", err)
		}
	}
	for _, image := range f.Images {
		if _, err := tx.ExecContext(ctx, `INSERT INTO finding_images (finding_id, caption, path) VALUES (?, ?, ?)`,
			id, image.Caption, image.Path); err != nil {
			return fmt.Errorf("sqlstore: insert image: %w", err)
		}
	}
	return nil
}

// Seed inserts endpoints then findings. Finding EndpointIDs are positions
// (1-based) into endpoints and are rewritten to the stored ids.
func (s *Store) Seed(ctx context.Context, endpoints []findings.Endpoint, items []findings.Finding) error {
	ids := make([]int, len(endpoints))
	for i := range endpoints {
		if err := s.CreateEndpoint(ctx, &endpoints[i]); err != nil {
			return err
		}
		ids[i] = endpoints[i].ID
	}
	for i := range items {
		f := items[i]
		linked := make([]int, 0, len(f.EndpointIDs))
		for _, pos := range f.EndpointIDs {
			if pos < 1 || pos > len(ids) {
				return fmt.Errorf("sqlstore: seed finding %q: endpoint position %d out of range", f.Title, pos)
			}
			linked = append(linked, ids[pos-1])
		}
		f.EndpointIDs = linked
		if err := s.CreateFinding(ctx, &f); err != nil {
			return err
		}
		items[i].ID = f.ID
	}
	return nil
}
