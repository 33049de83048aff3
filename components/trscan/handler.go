package trscan

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-trscan/pkg/apispec"
	"github.com/goliatone/go-trscan/pkg/findings"
	"github.com/goliatone/go-trscan/pkg/forms"
	"github.com/goliatone/go-trscan/pkg/layout"
	"github.com/goliatone/go-trscan/pkg/logging"
	"github.com/goliatone/go-trscan/pkg/render"
	"github.com/goliatone/go-trscan/pkg/reports"
	"github.com/goliatone/go-trscan/pkg/scanner"
	"github.com/goliatone/go-trscan/pkg/widgets"
)

const reportNamePrefix = "Custom PDF Report: "

// Route names, also used as the metrics route label.
const (
	RoutePage      = "page"
	RouteReport    = "report"
	RouteRunStatic = "run_static"
	RouteStatus    = "report_status"
	RouteOpenAPI   = "openapi"
)

var (
	errNoFactory  = errors.New("trscan: widget factory not configured")
	errNoQueue    = errors.New("trscan: report queue not configured")
	errNoRunner   = errors.New("trscan: scanner not configured")
	errNoReports  = errors.New("trscan: report store not configured")
	errNotReady   = errors.New("trscan: report not ready")
	errMissingKey = errors.New("trscan: missing report id")
)

// inUseKinds seed the builder canvas.
var inUseKinds = []layout.Kind{layout.KindTrscanOptions}

// availableKinds fill the builder palette: scan panels first, then report
// sections.
var availableKinds = []layout.Kind{
	layout.KindAnalysisContent,
	layout.KindLanguageContent,
	layout.KindExclusionContent,
	layout.KindFPContent,
	layout.KindOpenXMLContent,
	layout.KindLoadFilesContent,
	layout.KindCoverPage,
	layout.KindTableOfContents,
	layout.KindWYSIWYGContent,
	layout.KindFindingList,
	layout.KindEndpointList,
	layout.KindPageBreak,
	layout.KindReportOptions,
}

type route struct {
	name    string
	suffix  string
	handler func(prefix string) http.Handler
}

type server struct {
	opts      Options
	renderers *render.Registry
	setupErr  error
}

func newServer(opts Options) *server {
	s := &server{opts: opts, renderers: opts.Renderers}
	if s.renderers == nil {
		s.renderers, s.setupErr = DefaultRenderers(opts.Theme)
	}
	return s
}

func (s *server) routes() []route {
	return []route{
		{name: RoutePage, suffix: "", handler: s.page},
		{name: RouteReport, suffix: "/report", handler: s.customReport},
		{name: RouteRunStatic, suffix: "/RunStatic", handler: s.runStatic},
		{name: RouteStatus, suffix: "/reports/", handler: s.reportStatus},
		{name: RouteOpenAPI, suffix: "/openapi.json", handler: func(string) http.Handler { return apispec.Handler() }},
	}
}

// Handler builds the component handler with default options plus any
// overrides. Routes are served under the configured route path.
func Handler(fns ...OptionFn) http.Handler {
	return HandlerWithOptions(NewOptions(fns...))
}

// HandlerWithOptions builds the component handler from a pre-built Options
// value.
func HandlerWithOptions(opts Options) http.Handler {
	mux := http.NewServeMux()
	if _, err := RegisterRoutesWithOptions(mux, "", opts); err != nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		})
	}
	return mux
}

// wrap applies the guard, request metrics and the request logger.
func (s *server) wrap(name string, next http.Handler) http.Handler {
	var h http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.opts.Guard != nil {
			if err := s.opts.Guard(r); err != nil {
				writeGuardError(w, err)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
	if s.opts.Metrics != nil {
		inner := h
		h = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &codeRecorder{ResponseWriter: w, code: http.StatusOK}
			inner.ServeHTTP(rec, r)
			s.opts.Metrics.HTTPRequest(name, rec.code)
		})
	}
	if s.opts.Logger != nil {
		h = logging.Middleware(s.opts.Logger, h)
	}
	return h
}

type codeRecorder struct {
	http.ResponseWriter
	code int
}

func (r *codeRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *codeRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func allow(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	w.Header().Set("Allow", strings.Join(methods, ", "))
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	return false
}

func (s *server) user(r *http.Request) (*findings.User, error) {
	if s.opts.UserFunc == nil {
		return nil, nil
	}
	return s.opts.UserFunc(r)
}

func (s *server) page(prefix string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !allow(w, r, http.MethodGet, http.MethodHead) {
			return
		}
		if s.opts.Factory == nil {
			writeError(w, r, errNoFactory)
			return
		}
		user, err := s.user(r)
		if err != nil {
			writeGuardError(w, err)
			return
		}
		ctx := r.Context()
		req := widgets.BuildRequest{
			User: user,
			Host: ResolveHost(r, s.opts.ServerPort),
			Page: atoi(r.URL.Query().Get("page")),
		}
		inUse, err := s.opts.Factory.Available(ctx, req, inUseKinds...)
		if err != nil {
			writeError(w, r, err)
			return
		}
		available, err := s.opts.Factory.Available(ctx, req, availableKinds...)
		if err != nil {
			writeError(w, r, err)
			return
		}

		rc := widgets.RenderContext{Templates: s.opts.WidgetTemplates}
		inUseViews, err := panelViews(ctx, inUse, rc)
		if err != nil {
			writeError(w, r, err)
			return
		}
		availableViews, err := panelViews(ctx, available, rc)
		if err != nil {
			writeError(w, r, err)
			return
		}

		engine := s.opts.Templates
		if engine == nil {
			if engine, err = defaultPageTemplates(); err != nil {
				writeError(w, r, err)
				return
			}
		}
		data := map[string]any{
			"title":             s.opts.PageTitle,
			"in_use_widgets":    inUseViews,
			"available_widgets": availableViews,
			"report_url":        prefix + "/report",
			"run_url":           prefix + "/RunStatic",
		}
		if s.opts.Theme != nil {
			data["css_vars"] = render.CSSVarsStyle(s.opts.Theme.CSSVars)
		}
		out, err := engine.Render(pageTemplate, data)
		if err != nil {
			writeError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodHead {
			return
		}
		_, _ = w.Write([]byte(out))
	})
}

func panelViews(ctx context.Context, selection *widgets.Selection, rc widgets.RenderContext) ([]map[string]string, error) {
	out := make([]map[string]string, 0, selection.Len())
	for _, key := range selection.Keys() {
		w, _ := selection.Get(key)
		rc.Anchor = key
		html, err := w.OptionForm(ctx, rc)
		if err != nil {
			return nil, err
		}
		out = append(out, map[string]string{"key": key, "kind": string(w.Kind()), "html": html})
	}
	return out, nil
}

// reportSettings are the report level choices of a layout.
type reportSettings struct {
	name          string
	format        string
	findingNotes  bool
	findingImages bool
}

func settingsFor(selection *widgets.Selection, user *findings.User) reportSettings {
	username := ""
	if user != nil {
		username = user.Username
	}
	settings := reportSettings{
		name:          reportNamePrefix + username,
		format:        forms.ReportTypeAsciiDoc,
		findingNotes:  true,
		findingImages: true,
	}
	if options, ok := selection.ReportOptions(); ok {
		cfg := options.Config()
		settings.name = reportNamePrefix + cfg.ReportName
		settings.format = cfg.ReportType
		settings.findingNotes = cfg.IncludeFindingNotes
		settings.findingImages = cfg.IncludeFindingImages
	}
	return settings
}

func (s *server) customReport(prefix string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !allow(w, r, http.MethodPost) {
			return
		}
		if s.opts.Factory == nil {
			writeError(w, r, errNoFactory)
			return
		}
		user, err := s.user(r)
		if err != nil {
			writeGuardError(w, err)
			return
		}
		if err := r.ParseForm(); err != nil {
			writeError(w, r, StatusError{Code: http.StatusBadRequest, Err: err})
			return
		}
		raw, err := forms.ValidateJSON(r.PostForm)
		if err != nil {
			writeError(w, r, StatusError{Code: http.StatusForbidden, Err: err})
			return
		}

		ctx := r.Context()
		req := widgets.BuildRequest{Layout: []byte(raw), User: user, Host: ResolveHost(r, s.opts.ServerPort)}
		selection, err := s.opts.Factory.Build(ctx, req)
		if err != nil {
			writeError(w, r, err)
			return
		}
		settings := settingsFor(selection, user)
		req.FindingNotes = settings.findingNotes
		req.FindingImages = settings.findingImages
		if selection, err = s.opts.Factory.Build(ctx, req); err != nil {
			writeError(w, r, err)
			return
		}

		format, err := render.ParseFormat(settings.format)
		if err != nil {
			writeError(w, r, err)
			return
		}
		logging.FromContext(ctx).Info("custom report requested",
			zap.String("format", string(format)),
			zap.Int("widgets", selection.Len()),
		)
		if format == render.FormatPDF {
			s.queueReport(w, r, prefix, req, settings)
			return
		}
		s.renderReport(w, r, format, selection, req, user)
	})
}

func (s *server) queueReport(w http.ResponseWriter, r *http.Request, prefix string, req widgets.BuildRequest, settings reportSettings) {
	if s.opts.Queue == nil {
		writeError(w, r, StatusError{Code: http.StatusServiceUnavailable, Err: errNoQueue})
		return
	}
	requester := ""
	if req.User != nil {
		requester = req.User.Username
	}
	report := reports.NewReport(settings.name, string(render.FormatPDF), requester, req.Layout, s.opts.Clock())
	report.Host = req.Host
	report.FindingNotes = settings.findingNotes
	report.FindingImages = settings.findingImages
	if err := s.opts.Queue.Submit(r.Context(), &report, req.User); err != nil {
		writeError(w, r, err)
		return
	}
	http.Redirect(w, r, prefix+"/reports/"+report.ID, http.StatusSeeOther)
}

func (s *server) renderReport(w http.ResponseWriter, r *http.Request, format render.Format, selection *widgets.Selection, req widgets.BuildRequest, user *findings.User) {
	if s.setupErr != nil {
		writeError(w, r, s.setupErr)
		return
	}
	renderer, err := s.renderers.Get(format)
	if err != nil {
		writeError(w, r, err)
		return
	}
	doc := render.Document{
		Widgets:       selection,
		Host:          req.Host,
		FindingNotes:  req.FindingNotes,
		FindingImages: req.FindingImages,
		Theme:         s.opts.Theme,
		Templates:     s.opts.WidgetTemplates,
	}
	if user != nil {
		doc.UserID = user.ID
	}

	start := time.Now()
	out, err := renderer.Render(r.Context(), doc)
	s.opts.Metrics.ObserveRender(string(format), time.Since(start))
	if err != nil {
		s.opts.Metrics.ReportFinished(string(format), string(reports.StatusError))
		writeError(w, r, err)
		return
	}
	s.opts.Metrics.ReportFinished(string(format), string(reports.StatusSuccess))
	w.Header().Set("Content-Type", renderer.ContentType())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

func (s *server) runStatic(string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !allow(w, r, http.MethodGet, http.MethodPost) {
			return
		}
		if s.opts.Runner == nil {
			writeError(w, r, StatusError{Code: http.StatusServiceUnavailable, Err: errNoRunner})
			return
		}
		if r.Method == http.MethodGet {
			writeText(w, http.StatusOK, scanner.CheckMessage(s.opts.Runner.Check()))
			return
		}
		if s.opts.Factory == nil {
			writeError(w, r, errNoFactory)
			return
		}
		user, err := s.user(r)
		if err != nil {
			writeGuardError(w, err)
			return
		}
		if err := r.ParseForm(); err != nil {
			writeError(w, r, StatusError{Code: http.StatusBadRequest, Err: err})
			return
		}
		raw, err := forms.ValidateJSON(r.PostForm)
		if err != nil {
			writeError(w, r, StatusError{Code: http.StatusForbidden, Err: err})
			return
		}

		ctx := r.Context()
		selection, err := s.opts.Factory.Build(ctx, widgets.BuildRequest{
			Layout: []byte(raw),
			User:   user,
			Host:   ResolveHost(r, s.opts.ServerPort),
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		settings, err := selection.ScanSettings()
		if err != nil {
			writeError(w, r, StatusError{Code: http.StatusBadRequest, Err: err})
			return
		}

		res, err := s.opts.Runner.Run(ctx, scanner.Request{Settings: settings})
		code := http.StatusOK
		switch {
		case err == nil:
		case errors.Is(err, scanner.ErrCompatibilityLayerMissing), errors.Is(err, scanner.ErrScriptMissing):
			code = http.StatusServiceUnavailable
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			code = http.StatusServiceUnavailable
		case errors.Is(err, scanner.ErrTimeout):
			code = http.StatusGatewayTimeout
		default:
			code = http.StatusBadGateway
		}
		writeText(w, code, res.Message())
	})
}

type reportResponse struct {
	Data reports.Report `json:"data"`
}

// reportStatus answers GET <route>/reports/<id> with the report record, or
// with the rendered file when ?download is set and the report succeeded.
func (s *server) reportStatus(prefix string) http.Handler {
	base := prefix + "/reports/"
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !allow(w, r, http.MethodGet, http.MethodHead) {
			return
		}
		if s.opts.Reports == nil {
			writeError(w, r, StatusError{Code: http.StatusServiceUnavailable, Err: errNoReports})
			return
		}
		id := strings.Trim(strings.TrimPrefix(r.URL.Path, base), "/")
		if id == "" || strings.Contains(id, "/") {
			writeError(w, r, StatusError{Code: http.StatusNotFound, Err: errMissingKey})
			return
		}
		user, err := s.user(r)
		if err != nil {
			writeGuardError(w, err)
			return
		}
		report, err := s.opts.Reports.Get(r.Context(), id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if user != nil && !user.Staff && report.Requester != user.Username {
			writeError(w, r, StatusError{Code: http.StatusNotFound, Err: reports.ErrNotFound})
			return
		}

		if _, ok := r.URL.Query()["download"]; ok {
			if report.Status != reports.StatusSuccess || report.File == "" {
				writeError(w, r, StatusError{Code: http.StatusConflict, Err: errNotReady})
				return
			}
			if format, err := render.ParseFormat(report.Format); err == nil && s.renderers != nil {
				if renderer, err := s.renderers.Get(format); err == nil {
					w.Header().Set("Content-Type", renderer.ContentType())
				}
			}
			w.Header().Set("Content-Disposition", "attachment; filename=\""+downloadName(report)+"\"")
			http.ServeFile(w, r, report.File)
			return
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodHead {
			return
		}
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(true)
		_ = enc.Encode(reportResponse{Data: report})
	})
}

func downloadName(r reports.Report) string {
	ext := "pdf"
	if i := strings.LastIndex(r.File, "."); i >= 0 && i < len(r.File)-1 {
		ext = r.File[i+1:]
	}
	return "custom_report_" + r.ID + "." + ext
}

func writeText(w http.ResponseWriter, code int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write([]byte(body))
}

func atoi(raw string) int {
	if raw == "" {
		return 0
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return value
}
