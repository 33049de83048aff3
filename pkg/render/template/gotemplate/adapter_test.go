package gotemplate_test

import (
	"strings"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/goliatone/go-trscan/pkg/render/template/gotemplate"
)

func newEngine(t *testing.T) *gotemplate.Engine {
	t.Helper()
	engine, err := gotemplate.New(
		gotemplate.WithFS(fstest.MapFS{
			"widgets/title.tmpl": {Data: []byte(`<h2 class="{{ severity|severity_class }}">{{ title }}</h2>`)},
		}),
		gotemplate.WithExtension("tmpl"),
	)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

func TestRenderDispatchesInlineAndFileTemplates(t *testing.T) {
	engine := newEngine(t)
	data := map[string]any{"title": "SQL Injection", "severity": "High"}

	cases := []struct {
		name string
		in   string
		want string
	}{
		{name: "file without extension", in: "widgets/title", want: `<h2 class="severity-high">SQL Injection</h2>`},
		{name: "file with extension", in: "widgets/title.tmpl", want: `<h2 class="severity-high">SQL Injection</h2>`},
		{name: "inline variable", in: "{{ title }}", want: "SQL Injection"},
		{name: "inline tag", in: "{% if severity %}{{ title|adoc_heading:2 }}{% endif %}", want: "== SQL Injection"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var sb strings.Builder
			got, err := engine.Render(tc.in, data, &sb)
			if err != nil {
				t.Fatalf("render: %v", err)
			}
			if got != tc.want {
				t.Fatalf("render mismatch\nwant: %q\n got: %q", tc.want, got)
			}
			if sb.String() != tc.want {
				t.Fatalf("writer mismatch\nwant: %q\n got: %q", tc.want, sb.String())
			}
		})
	}
}

func TestRenderTemplateMissingFile(t *testing.T) {
	engine := newEngine(t)
	_, err := engine.Render("widgets/absent", nil)
	if err == nil || !strings.Contains(err.Error(), "widgets/absent.tmpl") {
		t.Fatalf("expected load error naming the template, got %v", err)
	}
}

func TestConcurrentEnginesAndRenders(t *testing.T) {
	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			engine, err := gotemplate.New(
				gotemplate.WithFS(fstest.MapFS{"t.tmpl": {Data: []byte(`{{ s|severity_class }}`)}}),
				gotemplate.WithExtension(".tmpl"),
			)
			if err != nil {
				errs <- err
				return
			}
			for j := 0; j < 5; j++ {
				got, err := engine.RenderTemplate("t", map[string]any{"s": "Low"})
				if err != nil {
					errs <- err
					return
				}
				if got != "severity-low" {
					t.Errorf("unexpected output %q", got)
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent render: %v", err)
	}
}
