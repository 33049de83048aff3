package reports

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	theme "github.com/goliatone/go-theme"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/goliatone/go-trscan/pkg/findings"
	"github.com/goliatone/go-trscan/pkg/logging"
	"github.com/goliatone/go-trscan/pkg/metrics"
	"github.com/goliatone/go-trscan/pkg/render"
	rendertemplate "github.com/goliatone/go-trscan/pkg/render/template"
	"github.com/goliatone/go-trscan/pkg/renderers/pdf"
	"github.com/goliatone/go-trscan/pkg/widgets"
)

const (
	DefaultWorkers   = 2
	DefaultQueueSize = 32
	DefaultOutputDir = "reports"
)

// Job asks the queue to produce one stored report on behalf of User.
type Job struct {
	ReportID string
	User     *findings.User
}

type QueueOption func(*Queue)

func WithWorkers(n int) QueueOption {
	return func(q *Queue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithQueueSize(n int) QueueOption {
	return func(q *Queue) {
		if n > 0 {
			q.size = n
		}
	}
}

// WithOutputDir sets the directory rendered files are written to.
func WithOutputDir(dir string) QueueOption {
	return func(q *Queue) {
		if dir != "" {
			q.outputDir = dir
		}
	}
}

// WithRenderer replaces the PDF renderer.
func WithRenderer(r render.Renderer) QueueOption {
	return func(q *Queue) {
		if r != nil {
			q.renderer = r
		}
	}
}

func WithMetrics(m *metrics.Metrics) QueueOption {
	return func(q *Queue) {
		q.metrics = m
	}
}

func WithLogger(logger *zap.Logger) QueueOption {
	return func(q *Queue) {
		if logger != nil {
			q.logger = logger
		}
	}
}

func WithClock(now func() time.Time) QueueOption {
	return func(q *Queue) {
		if now != nil {
			q.now = now
		}
	}
}

// WithTheme styles every rendered report.
func WithTheme(cfg *theme.RendererConfig) QueueOption {
	return func(q *Queue) {
		q.theme = cfg
	}
}

// WithTemplates overrides the widget templates used by rendered reports.
func WithTemplates(t rendertemplate.TemplateRenderer) QueueOption {
	return func(q *Queue) {
		q.templates = t
	}
}

// Queue renders stored reports on a fixed pool of workers. Jobs wait in a
// bounded buffer; Enqueue never blocks.
type Queue struct {
	store     Store
	factory   *widgets.Factory
	renderer  render.Renderer
	outputDir string
	metrics   *metrics.Metrics
	logger    *zap.Logger
	now       func() time.Time
	theme     *theme.RendererConfig
	templates rendertemplate.TemplateRenderer
	workers   int
	size      int

	jobs    chan Job
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
	closed  bool
}

func NewQueue(store Store, factory *widgets.Factory, opts ...QueueOption) *Queue {
	q := &Queue{
		store:     store,
		factory:   factory,
		outputDir: DefaultOutputDir,
		logger:    zap.NewNop(),
		now:       time.Now,
		workers:   DefaultWorkers,
		size:      DefaultQueueSize,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(q)
		}
	}
	if q.renderer == nil {
		q.renderer = pdf.New()
	}
	q.jobs = make(chan Job, q.size)
	return q
}

// Start launches the workers. They stop when ctx is cancelled or after
// Close once the buffer is drained. Calling Start twice is a no-op.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started || q.closed {
		return
	}
	q.started = true
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.work(ctx, i)
	}
}

func (q *Queue) work(ctx context.Context, worker int) {
	defer q.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-q.jobs:
			if !ok {
				return
			}
			if err := q.Process(ctx, job); err != nil {
				q.logger.Warn("report job failed",
					zap.Int("worker", worker),
					zap.String("report_id", job.ReportID),
					zap.Error(err),
				)
			}
		}
	}
}

// Enqueue buffers job without blocking.
func (q *Queue) Enqueue(ctx context.Context, job Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.jobs <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

// Submit stores r with a fresh task id and enqueues it. When the queue
// rejects the job the stored report is marked as failed.
func (q *Queue) Submit(ctx context.Context, r *Report, user *findings.User) error {
	r.TaskID = uuid.NewString()
	if err := q.store.Create(ctx, r); err != nil {
		return err
	}
	if err := q.Enqueue(ctx, Job{ReportID: r.ID, User: user}); err != nil {
		q.fail(ctx, r, err)
		return err
	}
	logging.FromContext(ctx).Info("report queued",
		zap.String("report_id", r.ID),
		zap.String("task_id", r.TaskID),
	)
	return nil
}

// Close stops accepting jobs and waits for the workers to finish.
func (q *Queue) Close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	q.mu.Unlock()
	q.wg.Wait()
}

// Path is where the rendered file of report id is written.
func (q *Queue) Path(id string) string {
	return filepath.Join(q.outputDir, id+"."+extension(q.renderer.Format()))
}

// Process runs one job synchronously: rebuild the widgets from the stored
// layout, render, write the file and record the outcome.
func (q *Queue) Process(ctx context.Context, job Job) error {
	r, err := q.store.Get(ctx, job.ReportID)
	if err != nil {
		return err
	}

	logger := q.logger.With(zap.String("report_id", r.ID), zap.String("task_id", r.TaskID))
	ctx = logging.WithContext(ctx, logger)

	r.Status = StatusRunning
	r.UpdatedAt = q.now().UTC()
	if err := q.store.Update(ctx, &r); err != nil {
		return err
	}

	start := time.Now()
	path, err := q.produce(ctx, r, job.User)
	format := string(q.renderer.Format())
	q.metrics.ObserveRender(format, time.Since(start))
	if err != nil {
		q.fail(ctx, &r, err)
		return err
	}

	r.Status = StatusSuccess
	r.File = path
	r.Error = ""
	r.UpdatedAt = q.now().UTC()
	if err := q.store.Update(ctx, &r); err != nil {
		return err
	}
	q.metrics.ReportFinished(format, string(StatusSuccess))
	logger.Info("report rendered", zap.String("file", path), zap.Duration("took", time.Since(start)))
	return nil
}

func (q *Queue) produce(ctx context.Context, r Report, user *findings.User) (string, error) {
	selection, err := q.factory.Build(ctx, widgets.BuildRequest{
		Layout:        []byte(r.Options),
		User:          user,
		Host:          r.Host,
		FindingNotes:  r.FindingNotes,
		FindingImages: r.FindingImages,
	})
	if err != nil {
		return "", err
	}

	userID := 0
	if user != nil {
		userID = user.ID
	}
	out, err := q.renderer.Render(ctx, render.Document{
		Title:         r.Name,
		Widgets:       selection,
		Host:          r.Host,
		FindingNotes:  r.FindingNotes,
		FindingImages: r.FindingImages,
		UserID:        userID,
		Theme:         q.theme,
		Templates:     q.templates,
	})
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(q.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("reports: output dir: %w", err)
	}
	path := q.Path(r.ID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, out, 0o644); err != nil {
		return "", fmt.Errorf("reports: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("reports: rename %s: %w", tmp, err)
	}
	return path, nil
}

func (q *Queue) fail(ctx context.Context, r *Report, cause error) {
	r.Status = StatusError
	r.Error = cause.Error()
	r.UpdatedAt = q.now().UTC()
	q.metrics.ReportFinished(string(q.renderer.Format()), string(StatusError))
	logger := logging.FromContext(ctx)
	if err := q.store.Update(ctx, r); err != nil {
		logger.Error("report status update failed", zap.String("report_id", r.ID), zap.Error(err))
	}
	logger.Warn("report failed", zap.String("report_id", r.ID), zap.Error(cause))
}

func extension(f render.Format) string {
	switch f {
	case render.FormatHTML:
		return "html"
	case render.FormatAsciiDoc:
		return "adoc"
	default:
		return "pdf"
	}
}
