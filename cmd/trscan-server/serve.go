package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	theme "github.com/goliatone/go-theme"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-trscan/components/trscan"
	"github.com/goliatone/go-trscan/pkg/apispec"
	"github.com/goliatone/go-trscan/pkg/config"
	"github.com/goliatone/go-trscan/pkg/findings"
	findingsql "github.com/goliatone/go-trscan/pkg/findings/sqlstore"
	"github.com/goliatone/go-trscan/pkg/logging"
	"github.com/goliatone/go-trscan/pkg/metrics"
	"github.com/goliatone/go-trscan/pkg/render"
	rendertemplate "github.com/goliatone/go-trscan/pkg/render/template"
	"github.com/goliatone/go-trscan/pkg/renderers/pdf"
	"github.com/goliatone/go-trscan/pkg/reports"
	reportsql "github.com/goliatone/go-trscan/pkg/reports/sqlstore"
	"github.com/goliatone/go-trscan/pkg/scanner"
	"github.com/goliatone/go-trscan/pkg/storage/sqlite"
	"github.com/goliatone/go-trscan/pkg/widgets"
)

func setup() (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, nil, err
	}
	logger, err := logging.New(logging.Options{Level: cfg.Log.Level, Development: cfg.Log.Development})
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}

func runServe(parent context.Context) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logging.WithContext(ctx, logger)

	if _, err := apispec.Document(ctx); err != nil {
		return err
	}

	db, err := sqlite.OpenAndMigrate(ctx, cfg.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	themeCfg, err := loadTheme(cfg.Theme)
	if err != nil {
		return err
	}

	var widgetTemplates rendertemplate.TemplateRenderer
	if dir := cfg.Reports.TemplatesDir; dir != "" {
		if widgetTemplates, err = widgets.NewTemplates(dir); err != nil {
			return err
		}
	}

	m := metrics.New()
	store := reportsql.New(db)
	factory := widgets.NewFactory(findingsql.New(db),
		widgets.WithPathRoot(cfg.Forms.Root),
		widgets.WithPageSize(cfg.Reports.PageSize),
	)
	queue := reports.NewQueue(store, factory,
		reports.WithWorkers(cfg.Reports.Workers),
		reports.WithQueueSize(cfg.Reports.QueueSize),
		reports.WithOutputDir(cfg.Reports.OutputDir),
		reports.WithRenderer(pdf.New(pdf.WithTheme(themeCfg))),
		reports.WithTheme(themeCfg),
		reports.WithTemplates(widgetTemplates),
		reports.WithMetrics(m),
		reports.WithLogger(logger.Named("reports")),
	)
	queue.Start(ctx)
	defer queue.Close()

	runner := scanner.NewRunner(
		scanner.WithScript(cfg.Scanner.Script),
		scanner.WithBinary(cfg.Scanner.Binary),
		scanner.WithMarker(cfg.Scanner.Marker),
		scanner.WithWorkDir(cfg.Scanner.WorkDir),
		scanner.WithTimeout(cfg.Scanner.Timeout),
		scanner.WithLimiter(launchLimiter(cfg.Scanner)),
		scanner.WithMetrics(m),
	)
	if err := runner.Check(); err != nil {
		logger.Warn("static analysis unavailable", zap.String("status", scanner.CheckMessage(err)))
	}

	mux := http.NewServeMux()
	component := trscan.New(
		trscan.WithFactory(factory),
		trscan.WithReports(store),
		trscan.WithQueue(queue),
		trscan.WithRunner(runner),
		trscan.WithTheme(themeCfg),
		trscan.WithWidgetTemplates(widgetTemplates),
		trscan.WithMetrics(m),
		trscan.WithLogger(logger),
		trscan.WithServerPort(listenPort(cfg.Server.Addr)),
	)
	pattern, err := component.RegisterRoutes(mux, cfg.Server.BasePath)
	if err != nil {
		return err
	}
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}
	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Server.Addr), zap.String("route", pattern))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func runMigrate(ctx context.Context) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	db, err := sqlite.OpenAndMigrate(contextOrBackground(ctx), cfg.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()
	logger.Info("database migrated", zap.String("path", cfg.Database.Path))
	return nil
}

func runSeed(ctx context.Context) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx = contextOrBackground(ctx)
	db, err := sqlite.OpenAndMigrate(ctx, cfg.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	endpoints, items := findings.Sample(time.Now())
	if err := findingsql.New(db).Seed(ctx, endpoints, items); err != nil {
		return err
	}
	logger.Info("sample data loaded", zap.Int("endpoints", len(endpoints)), zap.Int("findings", len(items)))
	return nil
}

func contextOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

func launchLimiter(cfg config.Scanner) *rate.Limiter {
	interval := cfg.LaunchInterval()
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}

func listenPort(addr string) string {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return ""
	}
	return port
}

// loadTheme resolves the configured theme, registering an extra manifest
// file when one is configured.
func loadTheme(cfg config.Theme) (*theme.RendererConfig, error) {
	catalog := render.NewThemeCatalog(cfg.Name, cfg.Variant)
	if cfg.Manifest != "" {
		data, err := os.ReadFile(cfg.Manifest)
		if err != nil {
			return nil, fmt.Errorf("theme: read %s: %w", cfg.Manifest, err)
		}
		var manifest theme.Manifest
		if err := yaml.Unmarshal(data, &manifest); err != nil {
			return nil, fmt.Errorf("theme: decode %s: %w", cfg.Manifest, err)
		}
		if err := catalog.Register(&manifest); err != nil {
			return nil, err
		}
	}
	return render.ThemeConfig(catalog, cfg.Name, cfg.Variant)
}
