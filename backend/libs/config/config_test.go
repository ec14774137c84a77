package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

type nested struct {
	Host    string        `yaml:"host"`
	Timeout time.Duration `yaml:"timeout"`
}

type sample struct {
	Name     string   `yaml:"name" env:"SAMPLE_NAME"`
	Enabled  bool     `yaml:"enabled" env:"SAMPLE_ENABLED"`
	Interval int      `yaml:"interval" env:"SAMPLE_INTERVAL"`
	Ratio    float64  `yaml:"ratio" env:"SAMPLE_RATIO"`
	Tags     []string `yaml:"tags" env:"SAMPLE_TAGS"`
	Secret   string   `yaml:"secret" env:"-"`
	Remote   nested   `yaml:"remote"`
}

func TestLoadConfigFromFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	body := "name: from-file\ninterval: 30\nremote:\n  host: 10.0.0.1\n  timeout: 3s\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("SAMPLE_INTERVAL", "45")
	t.Setenv("SAMPLE_ENABLED", "true")
	t.Setenv("SAMPLE_TAGS", "a, b,,c")
	t.Setenv("REMOTE_TIMEOUT", "7")

	var cfg sample
	if err := LoadConfig(&cfg, path); err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Name != "from-file" {
		t.Fatalf("expected name from file, got %q", cfg.Name)
	}
	if cfg.Interval != 45 {
		t.Fatalf("expected env override 45, got %d", cfg.Interval)
	}
	if !cfg.Enabled {
		t.Fatalf("expected enabled from env")
	}
	if len(cfg.Tags) != 3 || cfg.Tags[0] != "a" || cfg.Tags[2] != "c" {
		t.Fatalf("unexpected tags: %v", cfg.Tags)
	}
	if cfg.Remote.Host != "10.0.0.1" {
		t.Fatalf("expected nested host from file, got %q", cfg.Remote.Host)
	}
	if cfg.Remote.Timeout != 7*time.Second {
		t.Fatalf("expected bare integer duration read as seconds, got %s", cfg.Remote.Timeout)
	}
}

func TestLoadConfigUsesPathEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	if err := os.WriteFile(path, []byte("name: via-env\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(PathEnv, path)

	var cfg sample
	if err := LoadConfig(&cfg, ""); err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Name != "via-env" {
		t.Fatalf("expected name via CONFIG_FILE, got %q", cfg.Name)
	}
}

func TestLoadConfigSkipsDashTag(t *testing.T) {
	t.Setenv(PathEnv, "")
	t.Setenv("SECRET", "leaked")

	var cfg sample
	if err := LoadConfig(&cfg, ""); err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Secret != "" {
		t.Fatalf("expected env:\"-\" field to be ignored, got %q", cfg.Secret)
	}
}

func TestLoadConfigRejectsBadInput(t *testing.T) {
	if err := LoadConfig(nil, ""); err == nil {
		t.Fatalf("expected error for nil target")
	}

	var notStruct int
	if err := LoadConfig(&notStruct, ""); err == nil {
		t.Fatalf("expected error for non-struct target")
	}

	t.Setenv(PathEnv, "")
	t.Setenv("SAMPLE_INTERVAL", "soon")
	var cfg sample
	if err := LoadConfig(&cfg, ""); err == nil {
		t.Fatalf("expected parse error for non-numeric interval")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	var cfg sample
	if err := LoadConfig(&cfg, filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
