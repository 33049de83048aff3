package reports_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goliatone/go-trscan/pkg/findings"
	"github.com/goliatone/go-trscan/pkg/metrics"
	"github.com/goliatone/go-trscan/pkg/render"
	"github.com/goliatone/go-trscan/pkg/reports"
	"github.com/goliatone/go-trscan/pkg/testsupport"
	"github.com/goliatone/go-trscan/pkg/widgets"
)

var (
	E = testsupport.E
	P = testsupport.P
)

type failingRenderer struct{}

func (failingRenderer) Name() string          { return "failing" }
func (failingRenderer) Format() render.Format { return render.FormatPDF }
func (failingRenderer) ContentType() string   { return "application/pdf" }
func (failingRenderer) Render(context.Context, render.Document) ([]byte, error) {
	return nil, errors.New("disk on fire")
}

func newQueue(t *testing.T, opts ...reports.QueueOption) (*reports.Queue, *reports.MemoryStore, string) {
	t.Helper()
	store := reports.NewMemoryStore()
	dir := filepath.Join(t.TempDir(), "out")
	factory := widgets.NewFactory(testsupport.SampleRepository(), widgets.WithClock(func() time.Time { return testsupport.Now }))
	opts = append([]reports.QueueOption{
		reports.WithOutputDir(dir),
		reports.WithClock(func() time.Time { return testsupport.Now }),
	}, opts...)
	return reports.NewQueue(store, factory, opts...), store, dir
}

func newReport(t *testing.T, entries ...testsupport.Entry) reports.Report {
	t.Helper()
	r := reports.NewReport("Quarterly", string(render.FormatPDF), "analyst", testsupport.Layout(t, entries...), testsupport.Now)
	r.Host = "https://dojo.example.test"
	return r
}

func TestProcessWritesPDF(t *testing.T) {
	q, store, dir := newQueue(t)
	ctx := context.Background()
	r := newReport(t, E("cover-page", P("heading", "Quarterly"), P("sub_heading", ""), P("meta_info", "")), E("finding-list"))
	if err := store.Create(ctx, &r); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := q.Process(ctx, reports.Job{ReportID: r.ID, User: &findings.User{ID: 7, ProductIDs: []int{1}}}); err != nil {
		t.Fatalf("process: %v", err)
	}

	got, err := store.Get(ctx, r.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != reports.StatusSuccess || !got.Done() {
		t.Fatalf("expected success, got %+v", got)
	}
	if want := filepath.Join(dir, r.ID+".pdf"); got.File != want {
		t.Fatalf("expected file %s, got %s", want, got.File)
	}
	data, err := os.ReadFile(got.File)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Fatalf("expected a PDF file")
	}
}

func TestProcessRecordsFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("bad layout", func(t *testing.T) {
		q, store, _ := newQueue(t)
		r := reports.NewReport("Broken", "PDF", "analyst", []byte(`{"not":"a list"}`), testsupport.Now)
		if err := store.Create(ctx, &r); err != nil {
			t.Fatalf("create: %v", err)
		}
		if err := q.Process(ctx, reports.Job{ReportID: r.ID}); err == nil {
			t.Fatalf("expected error")
		}
		got, _ := store.Get(ctx, r.ID)
		if got.Status != reports.StatusError || got.Error == "" {
			t.Fatalf("expected error status, got %+v", got)
		}
	})

	t.Run("renderer error", func(t *testing.T) {
		m := metrics.New()
		q, store, _ := newQueue(t, reports.WithRenderer(failingRenderer{}), reports.WithMetrics(m))
		r := newReport(t, E("page-break"))
		if err := store.Create(ctx, &r); err != nil {
			t.Fatalf("create: %v", err)
		}
		if err := q.Process(ctx, reports.Job{ReportID: r.ID}); err == nil {
			t.Fatalf("expected error")
		}
		got, _ := store.Get(ctx, r.ID)
		if got.Error != "disk on fire" {
			t.Fatalf("expected renderer error recorded, got %q", got.Error)
		}
	})

	t.Run("unknown report", func(t *testing.T) {
		q, _, _ := newQueue(t)
		err := q.Process(ctx, reports.Job{ReportID: "missing"})
		if !errors.Is(err, reports.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestSubmitRunsOnWorkers(t *testing.T) {
	q, store, _ := newQueue(t, reports.WithWorkers(2))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)

	var ids []string
	for i := 0; i < 3; i++ {
		r := newReport(t, E("page-break"))
		if err := q.Submit(ctx, &r, nil); err != nil {
			t.Fatalf("submit: %v", err)
		}
		if r.TaskID == "" {
			t.Fatalf("expected task id")
		}
		ids = append(ids, r.ID)
	}
	q.Close()

	for _, id := range ids {
		got, err := store.Get(ctx, id)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.Status != reports.StatusSuccess {
			t.Fatalf("report %s not rendered: %+v", id, got)
		}
	}
	if err := q.Enqueue(ctx, reports.Job{ReportID: ids[0]}); !errors.Is(err, reports.ErrQueueClosed) {
		t.Fatalf("expected ErrQueueClosed, got %v", err)
	}
}

func TestSubmitOnFullQueue(t *testing.T) {
	q, store, _ := newQueue(t, reports.WithQueueSize(1))
	ctx := context.Background()

	first := newReport(t, E("page-break"))
	if err := q.Submit(ctx, &first, nil); err != nil {
		t.Fatalf("submit: %v", err)
	}
	second := newReport(t, E("page-break"))
	err := q.Submit(ctx, &second, nil)
	if !errors.Is(err, reports.ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
	got, _ := store.Get(ctx, second.ID)
	if got.Status != reports.StatusError {
		t.Fatalf("expected rejected report marked as error, got %+v", got)
	}
}

func TestMemoryStoreList(t *testing.T) {
	store := reports.NewMemoryStore()
	ctx := context.Background()
	older := reports.NewReport("a", "PDF", "analyst", nil, testsupport.Now)
	newer := reports.NewReport("b", "PDF", "analyst", nil, testsupport.Now.Add(time.Hour))
	other := reports.NewReport("c", "PDF", "auditor", nil, testsupport.Now)
	for _, r := range []*reports.Report{&older, &newer, &other} {
		if err := store.Create(ctx, r); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	if err := store.Create(ctx, &older); err == nil {
		t.Fatalf("expected duplicate id error")
	}

	got, err := store.List(ctx, "analyst", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0].Name != "b" || got[1].Name != "a" {
		t.Fatalf("unexpected list %+v", got)
	}
	if got, _ := store.List(ctx, "", 1); len(got) != 1 || got[0].Name != "b" {
		t.Fatalf("unexpected limited list %+v", got)
	}

	missing := reports.Report{ID: "nope"}
	if err := store.Update(ctx, &missing); !errors.Is(err, reports.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
