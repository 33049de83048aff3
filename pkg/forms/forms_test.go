package forms_test

import (
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-trscan/pkg/forms"
	"github.com/goliatone/go-trscan/pkg/model"
)

func TestBindTrscanOptions(t *testing.T) {
	got, err := forms.Bind(forms.TrscanOptions(), url.Values{
		"scan_name":     {" nightly "},
		"product":       {"7"},
		"source_folder": {"/srv/src"},
	})
	if err != nil {
		t.Fatalf("bind: %v", err)
	}
	want := forms.Values{
		"scan_name":     "nightly",
		"product":       7,
		"source_folder": "/srv/src",
		"description":   nil,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestBindReportsFieldErrors(t *testing.T) {
	_, err := forms.Bind(forms.TrscanOptions(), url.Values{
		"scan_name": {strings.Repeat("x", 101)},
		"product":   {"seven"},
	})
	if !errors.Is(err, forms.ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
	var verr *forms.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	want := map[string][]string{
		"scan_name":     {"Ensure this value has at most 100 characters (it has 101)."},
		"product":       {"Enter a whole number."},
		"source_folder": {"This field is required."},
	}
	if diff := cmp.Diff(want, verr.Fields); diff != "" {
		t.Fatalf("field errors mismatch (-want +got):\n%s", diff)
	}
}

func TestBindInitialFallback(t *testing.T) {
	got, err := forms.Bind(forms.AnalysisContent(), url.Values{
		"linesBefore":   {"10"},
		"trusted":       {"ignored"},
		"targetBrowser": {"Chrome"},
	}, forms.WithInitialFallback())
	if err != nil {
		t.Fatalf("bind: %v", err)
	}

	if n, _ := got.Int("linesBefore"); n != 10 {
		t.Fatalf("linesBefore: want 10, got %d", n)
	}
	if n, _ := got.Int("maxVulnIssues"); n != 1500 {
		t.Fatalf("maxVulnIssues: want initial 1500, got %d", n)
	}
	if !got.Bool("applyExclusionList") {
		t.Fatalf("applyExclusionList should keep its initial value")
	}
	if got["trusted"] != nil {
		t.Fatalf("read-only marker should ignore submissions, got %v", got["trusted"])
	}
	if got.String("targetBrowser") != "Chrome" {
		t.Fatalf("targetBrowser: got %q", got.String("targetBrowser"))
	}
}

func TestBindCheckboxWithoutFallback(t *testing.T) {
	got, err := forms.Bind(forms.AnalysisContent(), url.Values{"socket": {"on"}})
	if err != nil {
		t.Fatalf("bind: %v", err)
	}
	if !got.Bool("socket") {
		t.Fatalf("socket should be checked")
	}
	if got.Bool("applyExclusionList") {
		t.Fatalf("absent checkbox should bind to false")
	}
}

func TestBindRejectsUnknownChoice(t *testing.T) {
	_, err := forms.Bind(forms.LanguageContent(), url.Values{"targetCPP": {"cppAmiga"}})
	var verr *forms.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if _, ok := verr.Fields["targetCPP"]; !ok {
		t.Fatalf("expected targetCPP error, got %v", verr.Fields)
	}
}

func TestValidateJSON(t *testing.T) {
	raw, err := forms.ValidateJSON(url.Values{"json": {`[{"page-break":[]}]`}})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if raw != `[{"page-break":[]}]` {
		t.Fatalf("unexpected payload %q", raw)
	}

	for name, values := range map[string]url.Values{
		"missing":   {},
		"malformed": {"json": {`[{"page-break":`}},
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := forms.ValidateJSON(values); !errors.Is(err, forms.ErrInvalid) {
				t.Fatalf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestControlsResolve(t *testing.T) {
	analysis := forms.AnalysisContent()
	loadFiles := forms.LoadFilesContent()
	options := forms.TrscanOptions()

	cases := []struct {
		form  model.FormModel
		field string
		want  string
	}{
		{analysis, "linesBefore", forms.ControlNumber},
		{analysis, "applyExclusionList", forms.ControlCheckbox},
		{analysis, "targetBrowser", forms.ControlSelect},
		{analysis, "trusted", forms.ControlReadOnly},
		{analysis, "defaultSourceFolder", forms.ControlPath},
		{loadFiles, "content", forms.ControlEditor},
		{loadFiles, "hidden_content", forms.ControlHidden},
		{options, "scan_name", forms.ControlInput},
		{options, "description", forms.ControlTextarea},
	}

	controls := forms.NewControls()
	for _, tc := range cases {
		t.Run(tc.field, func(t *testing.T) {
			field, ok := tc.form.Field(tc.field)
			if !ok {
				t.Fatalf("field %q not found", tc.field)
			}
			if got := controls.Resolve(field); got != tc.want {
				t.Fatalf("want %q, got %q", tc.want, got)
			}
		})
	}
}

func TestControlsRegisterCustomMatcher(t *testing.T) {
	controls := forms.NewControls()
	controls.Register("severity", 200, func(field model.Field) bool {
		return field.Name == "severity"
	})
	field, _ := forms.FindingFilter().Field("severity")
	if got := controls.Resolve(field); got != "severity" {
		t.Fatalf("custom matcher should win, got %q", got)
	}
}

func TestRenderHTMLEditor(t *testing.T) {
	markup := forms.RenderHTML(forms.LoadFilesContent(), forms.Values{
		"content": `<b>main.c</b><script>alert(1)</script>`,
	}, forms.HTMLOptions{Prefix: "load-files-0"})

	for _, want := range []string{
		`data-edit="bold"`,
		`data-edit="redo"`,
		`data-target="#id_load-files-0-content"`,
		`<b>main.c</b>`,
		`<input type="hidden" name="hidden_content" id="id_load-files-0-hidden_content" value="">`,
		`value="Load Files" maxlength="80"`,
	} {
		if !strings.Contains(markup, want) {
			t.Fatalf("markup missing %q:\n%s", want, markup)
		}
	}
	if strings.Contains(markup, "<script>") {
		t.Fatalf("editor content should be sanitised:\n%s", markup)
	}
}

func TestRenderHTMLErrors(t *testing.T) {
	markup := forms.RenderHTML(forms.FPContent(), nil, forms.HTMLOptions{
		Errors: map[string][]string{"exclusions": {"This field is required."}},
	})
	if !strings.Contains(markup, `class="form-group has-error"`) {
		t.Fatalf("expected error class:\n%s", markup)
	}
	if !strings.Contains(markup, "This field is required.") {
		t.Fatalf("expected error message:\n%s", markup)
	}
}

func TestCheckPath(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "src", "inner"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "fp.xml"), []byte("<fp/>"), 0o644); err != nil {
		t.Fatal(err)
	}

	decorated := forms.FPContent()
	if err := forms.RootDecorator(root).Decorate(&decorated); err != nil {
		t.Fatal(err)
	}
	file, _ := decorated.Field("exclusions")

	if err := forms.CheckPath(file, "fp.xml"); err != nil {
		t.Fatalf("fp.xml should be accepted: %v", err)
	}
	if err := forms.CheckPath(file, "src"); err == nil {
		t.Fatalf("folder should be rejected for a file field")
	}
	if err := forms.CheckPath(file, "missing.xml"); err == nil {
		t.Fatalf("missing file should be rejected")
	}
	if err := forms.CheckPath(file, "../etc/passwd"); !errors.Is(err, forms.ErrOutsideRoot) {
		t.Fatalf("expected ErrOutsideRoot, got %v", err)
	}

	folder := model.Field{
		Name: "source_folder",
		Type: model.FieldTypePath,
		Path: &model.PathConstraint{Root: root, AllowFolders: true, Recursive: true},
	}
	if err := forms.CheckPath(folder, filepath.Join("src", "inner")); err != nil {
		t.Fatalf("nested folder should be accepted: %v", err)
	}

	got, err := forms.ListPaths(*folder.Path)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"src", filepath.Join("src", "inner")}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("paths mismatch (-want +got):\n%s", diff)
	}
}

func TestBindWithRootDecorator(t *testing.T) {
	root := t.TempDir()
	_, err := forms.Bind(forms.FPContent(), url.Values{"exclusions": {"nope.xml"}},
		forms.WithDecorators(forms.RootDecorator(root)))
	if !errors.Is(err, forms.ErrInvalid) {
		t.Fatalf("expected ErrInvalid for missing file, got %v", err)
	}
}

func TestLookup(t *testing.T) {
	form, ok := forms.Lookup(forms.WYSIWYGContentID)
	if !ok {
		t.Fatalf("wysiwyg form not registered")
	}
	heading, _ := form.Field("heading")
	if heading.Default != "WYSIWYG Content" {
		t.Fatalf("unexpected heading initial %v", heading.Default)
	}
	if _, ok := forms.Lookup("nope"); ok {
		t.Fatalf("unknown id should not resolve")
	}
}
