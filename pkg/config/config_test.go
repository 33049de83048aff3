package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-trscan/pkg/config"
)

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trscan.yaml")
	doc := `
server:
  addr: ":9090"
  base_path: /security
scanner:
  timeout: 5m
  work_dir: /opt/trscan
reports:
  workers: 4
  templates_dir: /etc/trscan/templates
theme:
  variant: print
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv(config.EnvDatabase, "/var/lib/trscan.db")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	want := config.Default()
	want.Server.Addr = ":9090"
	want.Server.BasePath = "/security"
	want.Scanner.Timeout = 5 * time.Minute
	want.Scanner.WorkDir = "/opt/trscan"
	want.Reports.Workers = 4
	want.Reports.TemplatesDir = "/etc/trscan/templates"
	want.Theme.Variant = "print"
	want.Database.Path = "/var/lib/trscan.db"
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeRejectsUnknownKeys(t *testing.T) {
	cfg := config.Default()
	if err := config.Decode([]byte("server:\n  port: 80\n"), &cfg); err == nil {
		t.Fatalf("expected unknown key error")
	}
	if err := config.Decode(nil, &cfg); err != nil {
		t.Fatalf("empty document: %v", err)
	}
}

func TestValidateJoinsErrors(t *testing.T) {
	cfg := config.Default()
	cfg.Server.BasePath = "security"
	cfg.Reports.Workers = 0
	cfg.Database.Path = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	for _, want := range []string{"server.base_path", "reports.workers", "database.path"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q missing %q", err, want)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not exist error, got %v", err)
	}
}

func TestLaunchInterval(t *testing.T) {
	if got := (config.Scanner{LaunchesPerMinute: 6}).LaunchInterval(); got != 10*time.Second {
		t.Fatalf("expected 10s, got %s", got)
	}
	if got := (config.Scanner{}).LaunchInterval(); got != 0 {
		t.Fatalf("expected no throttling, got %s", got)
	}
}
