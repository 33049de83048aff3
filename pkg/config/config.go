// Package config loads the server configuration from YAML with defaults and
// environment overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment overrides.
const (
	EnvAddr     = "TRSCAN_ADDR"
	EnvDatabase = "TRSCAN_DB"
	EnvLogLevel = "TRSCAN_LOG_LEVEL"
)

type Config struct {
	Server   Server   `yaml:"server"`
	Database Database `yaml:"database"`
	Scanner  Scanner  `yaml:"scanner"`
	Reports  Reports  `yaml:"reports"`
	Forms    Forms    `yaml:"forms"`
	Theme    Theme    `yaml:"theme"`
	Log      Log      `yaml:"log"`
}

type Server struct {
	Addr         string        `yaml:"addr"`
	BasePath     string        `yaml:"base_path"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type Database struct {
	Path string `yaml:"path"`
}

type Scanner struct {
	Script  string        `yaml:"script"`
	Binary  string        `yaml:"binary"`
	Marker  string        `yaml:"marker"`
	WorkDir string        `yaml:"work_dir"`
	Timeout time.Duration `yaml:"timeout"`
	// LaunchesPerMinute throttles RunStatic.
	LaunchesPerMinute float64 `yaml:"launches_per_minute"`
}

type Reports struct {
	OutputDir string `yaml:"output_dir"`
	QueueSize int    `yaml:"queue_size"`
	Workers   int    `yaml:"workers"`
	// PageSize is the number of findings listed per builder panel page.
	PageSize int `yaml:"page_size"`
	// TemplatesDir holds widget template overrides, searched before the
	// embedded templates.
	TemplatesDir string `yaml:"templates_dir"`
}

type Forms struct {
	// Root is the directory path pickers browse.
	Root string `yaml:"root"`
}

type Theme struct {
	Name    string `yaml:"name"`
	Variant string `yaml:"variant"`
	// Manifest optionally points at a go-theme manifest registered next to
	// the built-in theme.
	Manifest string `yaml:"manifest"`
}

type Log struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Server: Server{
			Addr:            ":8080",
			BasePath:        "/",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: Database{Path: "trscan.db"},
		Scanner: Scanner{
			Script:            "srcheck.bat",
			Binary:            "wine",
			Marker:            "WINEPREFIX",
			Timeout:           30 * time.Minute,
			LaunchesPerMinute: 6,
		},
		Reports: Reports{OutputDir: "reports", QueueSize: 32, Workers: 2, PageSize: 25},
		Theme:   Theme{Name: "trscan"},
		Log:     Log{Level: "info"},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := Decode(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: %s: %w", path, err)
		}
	}
	cfg.ApplyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Decode unmarshals YAML into cfg, keeping values the document omits.
// Unknown keys are rejected.
func Decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

// ApplyEnv overrides fields from the environment.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := strings.TrimSpace(getenv(EnvAddr)); v != "" {
		c.Server.Addr = v
	}
	if v := strings.TrimSpace(getenv(EnvDatabase)); v != "" {
		c.Database.Path = v
	}
	if v := strings.TrimSpace(getenv(EnvLogLevel)); v != "" {
		c.Log.Level = v
	}
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if !strings.HasPrefix(c.Server.BasePath, "/") {
		errs = append(errs, fmt.Errorf("server.base_path %q must start with /", c.Server.BasePath))
	}
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path is required"))
	}
	if c.Scanner.Timeout <= 0 {
		errs = append(errs, errors.New("scanner.timeout must be positive"))
	}
	if c.Scanner.LaunchesPerMinute < 0 {
		errs = append(errs, errors.New("scanner.launches_per_minute must not be negative"))
	}
	if c.Reports.Workers < 1 {
		errs = append(errs, errors.New("reports.workers must be at least 1"))
	}
	if c.Reports.QueueSize < 1 {
		errs = append(errs, errors.New("reports.queue_size must be at least 1"))
	}
	if c.Reports.PageSize < 1 {
		errs = append(errs, errors.New("reports.page_size must be at least 1"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: invalid: %w", err)
	}
	return nil
}

// LaunchInterval converts LaunchesPerMinute to the delay between launches.
// Zero disables throttling.
func (s Scanner) LaunchInterval() time.Duration {
	if s.LaunchesPerMinute <= 0 {
		return 0
	}
	return time.Duration(float64(time.Minute) / s.LaunchesPerMinute)
}
