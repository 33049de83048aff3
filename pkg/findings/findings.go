// Package findings exposes the findings and endpoints recorded by the host
// application through a Repository. Widgets query it with lookups produced by
// package lookup; an in-memory implementation serves tests and demos and the
// sqlstore subpackage persists to SQLite.
package findings

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-trscan/pkg/lookup"
)

// Severity ranks a finding.
type Severity string

const (
	SeverityCritical Severity = "Critical"
	SeverityHigh     Severity = "High"
	SeverityMedium   Severity = "Medium"
	SeverityLow      Severity = "Low"
	SeverityInfo     Severity = "Info"
)

// Score orders severities, Critical highest. Unknown severities score 0.
func (s Severity) Score() int {
	switch s {
	case SeverityCritical:
		return 5
	case SeverityHigh:
		return 4
	case SeverityMedium:
		return 3
	case SeverityLow:
		return 2
	case SeverityInfo:
		return 1
	default:
		return 0
	}
}

// IsValid reports whether s is a known severity.
func (s Severity) IsValid() bool {
	return s.Score() > 0
}

// Note is a comment attached to a finding.
type Note struct {
	Author string    `json:"author"`
	Entry  string    `json:"entry"`
	Date   time.Time `json:"date"`
}

// Image is an evidence picture attached to a finding.
type Image struct {
	Caption string `json:"caption"`
	Path    string `json:"path"`
}

// Finding is a recorded security issue.
type Finding struct {
	ID               int       `json:"id"`
	Title            string    `json:"title"`
	Severity         Severity  `json:"severity"`
	Description      string    `json:"description"`
	Mitigation       string    `json:"mitigation"`
	Impact           string    `json:"impact"`
	References       string    `json:"references"`
	ComponentName    string    `json:"component_name"`
	ComponentVersion string    `json:"component_version"`
	FilePath         string    `json:"file_path"`
	Line             int       `json:"line"`
	CWE              int       `json:"cwe"`
	Date             time.Time `json:"date"`
	Active           bool      `json:"active"`
	Verified         bool      `json:"verified"`
	FalsePositive    bool      `json:"false_p"`
	Duplicate        bool      `json:"duplicate"`
	OutOfScope       bool      `json:"out_of_scope"`
	NbOccurences     int       `json:"nb_occurences"`
	Tags             []string  `json:"tags"`
	ProductID        int       `json:"product_id"`
	TestID           int       `json:"test_id"`
	EndpointIDs      []int     `json:"endpoint_ids"`
	Notes            []Note    `json:"notes"`
	Images           []Image   `json:"images"`
}

// Reportable reports whether the finding counts towards endpoint listings:
// active, verified and neither a false positive, a duplicate nor out of scope.
func (f Finding) Reportable() bool {
	return f.Active && f.Verified && !f.FalsePositive && !f.Duplicate && !f.OutOfScope
}

// Endpoint is a network location affected by findings.
type Endpoint struct {
	ID        int    `json:"id"`
	Protocol  string `json:"protocol"`
	Host      string `json:"host"`
	Port      int    `json:"port"`
	Path      string `json:"path"`
	Query     string `json:"query"`
	Fragment  string `json:"fragment"`
	ProductID int    `json:"product_id"`
}

func (e Endpoint) String() string {
	var b strings.Builder
	if e.Protocol != "" {
		b.WriteString(e.Protocol)
		b.WriteString("://")
	}
	host := e.Host
	if e.Port > 0 {
		host = net.JoinHostPort(host, strconv.Itoa(e.Port))
	}
	b.WriteString(host)
	if e.Path != "" {
		if !strings.HasPrefix(e.Path, "/") {
			b.WriteByte('/')
		}
		b.WriteString(e.Path)
	}
	if e.Query != "" {
		b.WriteByte('?')
		b.WriteString(e.Query)
	}
	if e.Fragment != "" {
		b.WriteByte('#')
		b.WriteString(e.Fragment)
	}
	return b.String()
}

// Query selects findings or endpoints.
type Query struct {
	Lookup lookup.Lookup
	// ProductIDs restricts results to the products the requester may see.
	// Nil means unrestricted.
	ProductIDs []int
	// Page is 1-based. Zero returns every match.
	Page     int
	PageSize int
	// ReportableOnly keeps endpoints with at least one reportable finding.
	ReportableOnly bool
}

// Page is one page of findings.
type Page struct {
	Items  []Finding
	Number int
	Size   int
	Total  int
}

// NumPages returns the page count, at least 1.
func (p Page) NumPages() int {
	if p.Size <= 0 || p.Total == 0 {
		return 1
	}
	return (p.Total + p.Size - 1) / p.Size
}

func (p Page) HasNext() bool     { return p.Number < p.NumPages() }
func (p Page) HasPrevious() bool { return p.Number > 1 }

// Repository fetches findings and endpoints.
type Repository interface {
	Findings(ctx context.Context, q Query) (Page, error)
	Endpoints(ctx context.Context, q Query) ([]Endpoint, error)
	// Words returns the distinct words longer than two characters found in
	// field across the matching findings, sorted.
	Words(ctx context.Context, field string, q Query) ([]string, error)
}

var (
	// ErrUnknownField reports a lookup on a field that cannot be queried.
	ErrUnknownField = errors.New("findings: unknown lookup field")
	// ErrUnsupportedLookup reports a suffix that does not apply to a field.
	ErrUnsupportedLookup = errors.New("findings: unsupported lookup")
)

// DefaultPageSize is the page size used by finding list option panels.
const DefaultPageSize = 25

func pageBounds(q Query, total int) (int, int, int, int) {
	if q.Page <= 0 {
		return 1, total, 0, total
	}
	size := q.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	number := q.Page
	pages := (total + size - 1) / size
	if pages < 1 {
		pages = 1
	}
	if number > pages {
		number = pages
	}
	start := (number - 1) * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}
	return number, size, start, end
}

func allowedProduct(ids []int, product int) bool {
	if ids == nil {
		return true
	}
	for _, id := range ids {
		if id == product {
			return true
		}
	}
	return false
}

func wrapLookupErr(key string, err error) error {
	return fmt.Errorf("%w: %s", err, key)
}

// Paginate slices items into the requested page. Page numbers outside the
// range are clamped; a zero page returns everything on one page.
func Paginate(items []Finding, page, size int) Page {
	number, size, start, end := pageBounds(Query{Page: page, PageSize: size}, len(items))
	return Page{Items: items[start:end], Number: number, Size: size, Total: len(items)}
}

// ReportableLookup selects findings counted by endpoint listings.
func ReportableLookup() lookup.Lookup {
	return lookup.Lookup{
		"active":       true,
		"verified":     true,
		"false_p":      false,
		"duplicate":    false,
		"out_of_scope": false,
	}
}
