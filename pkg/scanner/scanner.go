// Package scanner launches the Windows static analysis batch script through
// a compatibility layer and reports what happened.
package scanner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/goliatone/go-trscan/pkg/logging"
	"github.com/goliatone/go-trscan/pkg/metrics"
)

const (
	DefaultScript  = "srcheck.bat"
	DefaultBinary  = "wine"
	DefaultMarker  = "WINEPREFIX"
	DefaultTimeout = 30 * time.Minute
)

var (
	// ErrCompatibilityLayerMissing reports that the marker variable is unset
	// or the compatibility binary cannot be found.
	ErrCompatibilityLayerMissing = errors.New("scanner: compatibility layer missing")
	// ErrScriptMissing reports that the batch script does not exist.
	ErrScriptMissing = errors.New("scanner: script missing")
	// ErrScanFailed reports a non-zero exit code.
	ErrScanFailed = errors.New("scanner: scan failed")
	// ErrTimeout reports a run killed by the configured timeout.
	ErrTimeout = errors.New("scanner: timed out")
)

// Command is one process invocation.
type Command struct {
	Name string
	Args []string
	Dir  string
}

// String renders the command line for logs.
func (c Command) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// Exec runs cmd and returns its combined output. Errors carrying an
// ExitCode() int method are treated as process exits.
type Exec func(ctx context.Context, cmd Command) ([]byte, error)

func execCommand(ctx context.Context, c Command) ([]byte, error) {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	return cmd.CombinedOutput()
}

type Option func(*Runner)

// WithScript sets the batch script, resolved against the working directory
// when relative.
func WithScript(path string) Option {
	return func(r *Runner) {
		if path != "" {
			r.script = path
		}
	}
}

// WithBinary sets the compatibility layer executable.
func WithBinary(name string) Option {
	return func(r *Runner) {
		if name != "" {
			r.binary = name
		}
	}
}

// WithMarker sets the environment variable that must be present for the
// compatibility layer to be considered configured.
func WithMarker(name string) Option {
	return func(r *Runner) {
		if name != "" {
			r.marker = name
		}
	}
}

func WithWorkDir(dir string) Option {
	return func(r *Runner) {
		r.workDir = dir
	}
}

func WithTimeout(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithLimiter throttles launches.
func WithLimiter(l *rate.Limiter) Option {
	return func(r *Runner) {
		if l != nil {
			r.limiter = l
		}
	}
}

func WithExec(fn Exec) Option {
	return func(r *Runner) {
		if fn != nil {
			r.exec = fn
		}
	}
}

// WithLookPath replaces exec.LookPath when resolving the binary.
func WithLookPath(fn func(string) (string, error)) Option {
	return func(r *Runner) {
		if fn != nil {
			r.lookPath = fn
		}
	}
}

// WithGetenv replaces os.Getenv when reading the marker.
func WithGetenv(fn func(string) string) Option {
	return func(r *Runner) {
		if fn != nil {
			r.getenv = fn
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Runner) {
		r.metrics = m
	}
}

// Runner launches scans. It is safe for concurrent use.
type Runner struct {
	script   string
	binary   string
	marker   string
	workDir  string
	timeout  time.Duration
	limiter  *rate.Limiter
	exec     Exec
	lookPath func(string) (string, error)
	getenv   func(string) string
	metrics  *metrics.Metrics
}

// NewRunner returns a runner allowing one launch every ten seconds.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		script:   DefaultScript,
		binary:   DefaultBinary,
		marker:   DefaultMarker,
		timeout:  DefaultTimeout,
		limiter:  rate.NewLimiter(rate.Every(10*time.Second), 1),
		exec:     execCommand,
		lookPath: exec.LookPath,
		getenv:   os.Getenv,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

func (r *Runner) scriptPath() string {
	if filepath.IsAbs(r.script) || r.workDir == "" {
		return r.script
	}
	return filepath.Join(r.workDir, r.script)
}

// Check verifies the compatibility layer and the script without running
// anything.
func (r *Runner) Check() error {
	if strings.TrimSpace(r.getenv(r.marker)) == "" {
		return fmt.Errorf("%w: %s is not set", ErrCompatibilityLayerMissing, r.marker)
	}
	if _, err := r.lookPath(r.binary); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCompatibilityLayerMissing, r.binary, err)
	}
	info, err := os.Stat(r.scriptPath())
	if err != nil || info.IsDir() {
		return fmt.Errorf("%w: %s", ErrScriptMissing, r.scriptPath())
	}
	return nil
}

// Request carries the scan settings collected from the option panels.
type Request struct {
	Settings map[string]string
}

// Args turns settings into --key=value flags in key order. Empty values are
// passed as bare --key flags.
func (req Request) Args() []string {
	keys := make([]string, 0, len(req.Settings))
	for key := range req.Settings {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, key := range keys {
		if value := req.Settings[key]; value != "" {
			out = append(out, "--"+key+"="+value)
		} else {
			out = append(out, "--"+key)
		}
	}
	return out
}

// Result describes one run. Err is also returned by Run.
type Result struct {
	Command  Command
	Output   []string
	ExitCode int
	Duration time.Duration
	Err      error
}

// Run checks the environment, waits for the limiter, and runs the script
// with the configured timeout.
func (r *Runner) Run(ctx context.Context, req Request) (Result, error) {
	logger := logging.FromContext(ctx)
	res := Result{
		Command: Command{
			Name: r.binary,
			Args: append([]string{r.scriptPath()}, req.Args()...),
			Dir:  r.workDir,
		},
		ExitCode: -1,
	}

	if err := r.Check(); err != nil {
		return r.finish(logger, res, err)
	}
	if err := r.limiter.Wait(ctx); err != nil {
		return r.finish(logger, res, fmt.Errorf("scanner: throttled: %w", err))
	}

	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	logger.Info("static analysis started", zap.String("command", res.Command.String()))
	start := time.Now()
	out, err := r.exec(runCtx, res.Command)
	res.Duration = time.Since(start)
	res.Output = lines(out)

	var exitErr interface{ ExitCode() int }
	switch {
	case runCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil:
		err = fmt.Errorf("%w after %s", ErrTimeout, r.timeout)
	case err == nil:
		res.ExitCode = 0
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
		err = fmt.Errorf("%w: exit code %d", ErrScanFailed, res.ExitCode)
	default:
		err = fmt.Errorf("scanner: run %s: %w", r.binary, err)
	}
	return r.finish(logger, res, err)
}

func (r *Runner) finish(logger *zap.Logger, res Result, err error) (Result, error) {
	res.Err = err
	r.metrics.ScanFinished(outcome(err), res.Duration)
	if err != nil {
		logger.Warn("static analysis did not complete", zap.Error(err), zap.Int("exit_code", res.ExitCode))
	} else {
		logger.Info("static analysis finished", zap.Duration("took", res.Duration), zap.Int("lines", len(res.Output)))
	}
	return res, err
}

// Message is the plaintext status returned to the browser.
func (res Result) Message() string {
	switch {
	case res.Err == nil:
		return fmt.Sprintf("Static analysis finished with exit code %d", res.ExitCode)
	case errors.Is(res.Err, ErrCompatibilityLayerMissing), errors.Is(res.Err, ErrScriptMissing):
		return CheckMessage(res.Err)
	case errors.Is(res.Err, ErrScanFailed):
		return fmt.Sprintf("Static analysis failed with exit code %d", res.ExitCode)
	case errors.Is(res.Err, ErrTimeout):
		return "Static analysis timed out"
	default:
		return "Static analysis could not run: " + res.Err.Error()
	}
}

// CheckMessage describes the outcome of Check.
func CheckMessage(err error) string {
	switch {
	case err == nil:
		return "Static analysis ready"
	case errors.Is(err, ErrCompatibilityLayerMissing):
		return "Static analysis could not start: missing executable"
	case errors.Is(err, ErrScriptMissing):
		return "Static analysis could not start: scanner script not found"
	default:
		return "Static analysis unavailable: " + err.Error()
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrCompatibilityLayerMissing):
		return "missing_executable"
	case errors.Is(err, ErrScriptMissing):
		return "missing_script"
	case errors.Is(err, ErrScanFailed):
		return "failed"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	default:
		return "error"
	}
}

func lines(out []byte) []string {
	out = bytes.TrimRight(out, "\r\n")
	if len(out) == 0 {
		return nil
	}
	parts := strings.Split(string(out), "\n")
	for i, p := range parts {
		parts[i] = strings.TrimRight(p, "\r")
	}
	return parts
}
