package scanner_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/time/rate"

	"github.com/goliatone/go-trscan/pkg/scanner"
)

type exitError int

func (e exitError) Error() string { return "exit status" }
func (e exitError) ExitCode() int { return int(e) }

type recorder struct {
	calls  []scanner.Command
	output string
	err    error
	wait   time.Duration
}

func (r *recorder) exec(ctx context.Context, cmd scanner.Command) ([]byte, error) {
	r.calls = append(r.calls, cmd)
	if r.wait > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(r.wait):
		}
	}
	return []byte(r.output), r.err
}

func newRunner(t *testing.T, rec *recorder, opts ...scanner.Option) (*scanner.Runner, string) {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, scanner.DefaultScript), []byte("@echo off\r\n"), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}
	base := []scanner.Option{
		scanner.WithWorkDir(dir),
		scanner.WithExec(rec.exec),
		scanner.WithLookPath(func(name string) (string, error) { return "/usr/bin/" + name, nil }),
		scanner.WithGetenv(func(string) string { return "/home/scan/.wine" }),
		scanner.WithLimiter(rate.NewLimiter(rate.Inf, 1)),
	}
	return scanner.NewRunner(append(base, opts...)...), dir
}

func TestRunBuildsCommand(t *testing.T) {
	rec := &recorder{output: "Scanning...\r\nDone\r\n"}
	runner, dir := newRunner(t, rec)

	res, err := runner.Run(context.Background(), scanner.Request{Settings: map[string]string{
		"scan_name":     "Nightly",
		"source_folder": "src",
		"targetBrowser": "",
	}})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	want := scanner.Command{
		Name: "wine",
		Args: []string{filepath.Join(dir, "srcheck.bat"), "--scan_name=Nightly", "--source_folder=src", "--targetBrowser"},
		Dir:  dir,
	}
	if diff := cmp.Diff([]scanner.Command{want}, rec.calls); diff != "" {
		t.Fatalf("command mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Scanning...", "Done"}, res.Output); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}
	if res.Message() != "Static analysis finished with exit code 0" {
		t.Fatalf("unexpected message %q", res.Message())
	}
}

func TestRunFailures(t *testing.T) {
	cases := []struct {
		name    string
		rec     *recorder
		opts    []scanner.Option
		wantErr error
		message string
		calls   int
	}{
		{
			name:    "marker unset",
			rec:     &recorder{},
			opts:    []scanner.Option{scanner.WithGetenv(func(string) string { return "" })},
			wantErr: scanner.ErrCompatibilityLayerMissing,
			message: "Static analysis could not start: missing executable",
		},
		{
			name: "binary not on path",
			rec:  &recorder{},
			opts: []scanner.Option{scanner.WithLookPath(func(string) (string, error) {
				return "", errors.New("not found")
			})},
			wantErr: scanner.ErrCompatibilityLayerMissing,
			message: "Static analysis could not start: missing executable",
		},
		{
			name:    "script missing",
			rec:     &recorder{},
			opts:    []scanner.Option{scanner.WithScript("other.bat")},
			wantErr: scanner.ErrScriptMissing,
			message: "Static analysis could not start: scanner script not found",
		},
		{
			name:    "non zero exit",
			rec:     &recorder{err: exitError(3)},
			wantErr: scanner.ErrScanFailed,
			message: "Static analysis failed with exit code 3",
			calls:   1,
		},
		{
			name:    "timeout",
			rec:     &recorder{wait: time.Second},
			opts:    []scanner.Option{scanner.WithTimeout(10 * time.Millisecond)},
			wantErr: scanner.ErrTimeout,
			message: "Static analysis timed out",
			calls:   1,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			runner, _ := newRunner(t, tc.rec, tc.opts...)
			res, err := runner.Run(context.Background(), scanner.Request{})
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
			if res.Message() != tc.message {
				t.Fatalf("unexpected message %q", res.Message())
			}
			if len(tc.rec.calls) != tc.calls {
				t.Fatalf("expected %d exec calls, got %d", tc.calls, len(tc.rec.calls))
			}
		})
	}
}

func TestRunThrottled(t *testing.T) {
	rec := &recorder{}
	runner, _ := newRunner(t, rec, scanner.WithLimiter(rate.NewLimiter(rate.Every(time.Hour), 1)))

	if _, err := runner.Run(context.Background(), scanner.Request{}); err != nil {
		t.Fatalf("first run: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	res, err := runner.Run(ctx, scanner.Request{})
	if err == nil {
		t.Fatalf("expected throttling error")
	}
	if len(rec.calls) != 1 {
		t.Fatalf("second run should not execute, got %d calls", len(rec.calls))
	}
	if res.Message() == "" {
		t.Fatalf("expected a message")
	}
}

func TestCheckMessage(t *testing.T) {
	rec := &recorder{}
	runner, _ := newRunner(t, rec)
	if err := runner.Check(); err != nil {
		t.Fatalf("check: %v", err)
	}
	if got := scanner.CheckMessage(nil); got != "Static analysis ready" {
		t.Fatalf("unexpected message %q", got)
	}
}
