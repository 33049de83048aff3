package findings

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Memory is an in-process Repository.
type Memory struct {
	mu        sync.RWMutex
	findings  []Finding
	endpoints []Endpoint
}

// NewMemory returns a repository holding copies of the supplied records.
func NewMemory(findings []Finding, endpoints []Endpoint) *Memory {
	m := &Memory{}
	m.Add(findings...)
	m.AddEndpoints(endpoints...)
	return m
}

// Add stores findings.
func (m *Memory) Add(findings ...Finding) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.findings = append(m.findings, findings...)
}

// AddEndpoints stores endpoints.
func (m *Memory) AddEndpoints(endpoints ...Endpoint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.endpoints = append(m.endpoints, endpoints...)
}

func (m *Memory) Findings(ctx context.Context, q Query) (Page, error) {
	matched, err := m.matchFindings(ctx, q)
	if err != nil {
		return Page{}, err
	}
	SortFindings(matched)

	number, size, start, end := pageBounds(q, len(matched))
	return Page{
		Items:  matched[start:end],
		Number: number,
		Size:   size,
		Total:  len(matched),
	}, nil
}

func (m *Memory) matchFindings(ctx context.Context, q Query) ([]Finding, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	conds, err := ParseConditions(q.Lookup, FindingFields)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Finding
	for _, f := range m.findings {
		if !allowedProduct(q.ProductIDs, f.ProductID) {
			continue
		}
		if matchesAll(conds, func(field string) any { return findingValue(f, field) }) {
			out = append(out, f)
		}
	}
	return out, nil
}

func (m *Memory) Endpoints(ctx context.Context, q Query) ([]Endpoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	conds, err := ParseConditions(q.Lookup, EndpointFields)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var reportable map[int]bool
	if q.ReportableOnly {
		reportable = make(map[int]bool)
		for _, f := range m.findings {
			if !f.Reportable() {
				continue
			}
			for _, id := range f.EndpointIDs {
				reportable[id] = true
			}
		}
	}

	var out []Endpoint
	for _, e := range m.endpoints {
		if reportable != nil && !reportable[e.ID] {
			continue
		}
		if !allowedProduct(q.ProductIDs, e.ProductID) {
			continue
		}
		if matchesAll(conds, func(field string) any { return endpointValue(e, field) }) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Host != out[j].Host {
			return out[i].Host < out[j].Host
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Memory) Words(ctx context.Context, field string, q Query) ([]string, error) {
	def, ok := FindingFields[field]
	if !ok || (def.Kind != KindText && def.Kind != KindString) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	matched, err := m.matchFindings(ctx, q)
	if err != nil {
		return nil, err
	}
	values := make([]string, 0, len(matched))
	for _, f := range matched {
		values = append(values, stringOf(findingValue(f, field)))
	}
	return Words(values), nil
}

func matchesAll(conds []Condition, value func(field string) any) bool {
	for _, cond := range conds {
		if !Match(cond, value(cond.Field)) {
			return false
		}
	}
	return true
}

// SortFindings orders findings by severity, highest first, then by id.
func SortFindings(items []Finding) {
	sort.SliceStable(items, func(i, j int) bool {
		si, sj := items[i].Severity.Score(), items[j].Severity.Score()
		if si != sj {
			return si > sj
		}
		return items[i].ID < items[j].ID
	})
}

// Words splits values on whitespace and returns the distinct words longer
// than two characters, sorted.
func Words(values []string) []string {
	seen := make(map[string]struct{})
	for _, value := range values {
		for _, word := range strings.Fields(value) {
			if len([]rune(word)) > 2 {
				seen[word] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(seen))
	for word := range seen {
		out = append(out, word)
	}
	sort.Strings(out)
	return out
}
