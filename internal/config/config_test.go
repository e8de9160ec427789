package config

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DBDriver != DriverSQLite {
		t.Errorf("DBDriver = %q, want sqlite", cfg.DBDriver)
	}
	if cfg.Addr != ":8000" {
		t.Errorf("Addr = %q, want :8000", cfg.Addr)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Errorf("CORSOrigins = %v, want [*]", cfg.CORSOrigins)
	}
	if cfg.OTel {
		t.Error("OTel enabled by default")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STUDYBOT_ADDR", "127.0.0.1:9090")
	t.Setenv("STUDYBOT_CORS_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("STUDYBOT_OTEL", "true")
	t.Setenv("STUDYBOT_LOG_FORMAT", "json")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != "127.0.0.1:9090" {
		t.Errorf("Addr = %q", cfg.Addr)
	}
	if len(cfg.CORSOrigins) != 2 {
		t.Errorf("CORSOrigins = %v, want 2 entries", cfg.CORSOrigins)
	}
	if !cfg.OTel {
		t.Error("OTel = false, want true")
	}
	if got := cfg.Logging().Format; got != "json" {
		t.Errorf("Logging().Format = %q, want json", got)
	}
}

func TestLoad_Error(t *testing.T) {
	t.Setenv("STUDYBOT_OTEL", "maybe")
	_, err := Load()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

func TestDSN(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dir)

	got, err := Config{DBDriver: DriverSQLite}.DSN()
	if err != nil {
		t.Fatalf("DSN: %v", err)
	}
	if want := filepath.Join(dir, "studybot", "studybot.db"); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}

	explicit := filepath.Join(dir, "nested", "x.db")
	got, err = Config{DB: explicit}.DSN()
	if err != nil || got != explicit {
		t.Errorf("DSN() = %q, %v; want %q", got, err, explicit)
	}

	if _, err := (Config{DBDriver: DriverPostgres}).DSN(); err == nil {
		t.Error("postgres without STUDYBOT_DB: want error")
	}
	if _, err := (Config{DBDriver: "mysql"}).DSN(); err == nil {
		t.Error("unknown driver: want error")
	}
}
