package testsupport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-trscan/pkg/findings"
)

// Now is the fixed reference instant used by fixtures and date lookups.
var Now = time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)

// Entry is one widget of a layout built by Layout. Params are name/value
// pairs kept in order so repeated names survive.
type Entry struct {
	Kind   string
	Params [][2]string
}

// E is shorthand for an Entry.
func E(kind string, params ...[2]string) Entry {
	return Entry{Kind: kind, Params: params}
}

// P is shorthand for a name/value pair.
func P(name, value string) [2]string {
	return [2]string{name, value}
}

// Layout encodes entries the way the report builder posts them.
func Layout(t *testing.T, entries ...Entry) []byte {
	t.Helper()

	type param struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	}
	payload := make([]map[string][]param, 0, len(entries))
	for _, entry := range entries {
		params := make([]param, 0, len(entry.Params))
		for _, p := range entry.Params {
			params = append(params, param{Name: p[0], Value: p[1]})
		}
		payload = append(payload, map[string][]param{entry.Kind: params})
	}
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal layout: %v", err)
	}
	return data
}

// SampleRepository returns an in-memory repository seeded with the sample
// findings relative to Now.
func SampleRepository() *findings.Memory {
	endpoints, items := findings.Sample(Now)
	return findings.NewMemory(items, endpoints)
}

// CompareGolden returns a diff string if the values differ.
func CompareGolden(want, got any) string {
	return cmp.Diff(want, got)
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// MustReadGoldenString reads a golden file and returns its string content.
func MustReadGoldenString(t *testing.T, path string) string {
	t.Helper()
	return string(MustReadGolden(t, path))
}

// WriteMaybeGolden updates a golden file when UPDATE_GOLDENS is set. Returns
// true if the golden was written (test should exit early).
func WriteMaybeGolden(t *testing.T, path string, data []byte) bool {
	t.Helper()
	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}

// CaptureTemplateOutput executes a render function that writes to an
// io.Writer, returning both the string result and the writer contents.
func CaptureTemplateOutput(t *testing.T, render func(io.Writer) (string, error)) (string, string) {
	t.Helper()

	var buf bytes.Buffer
	out, err := render(&buf)
	if err != nil {
		t.Fatalf("render template: %v", err)
	}

	return out, buf.String()
}
