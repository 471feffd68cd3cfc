package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/queuebridge/tap-aptify/pkg/jsonschema"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
host: myserver.database.windows.net
database: aptify
user: taps
password: secret
hd_jsonschema_types: true
start_date: "2024-01-01T00:00:00Z"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Port != 1433 {
		t.Errorf("default port = %d, want 1433", cfg.Port)
	}
	if cfg.Schema != "dbo" {
		t.Errorf("default schema = %q, want dbo", cfg.Schema)
	}
	if cfg.MapMode() != jsonschema.MapDetailed {
		t.Error("hd_jsonschema_types did not select the detailed mapping")
	}
	if got := cfg.StartTimestamp(); got.IsZero() || got.Year() != 2024 {
		t.Errorf("StartTimestamp() = %v", got)
	}
}

func TestLoadJSON(t *testing.T) {
	path := writeConfig(t, "config.json", `{
  "host": "localhost",
  "database": "aptify",
  "user": "sa",
  "password": "pw"
}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Host != "localhost" {
		t.Errorf("Host = %q", cfg.Host)
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"missing host", Config{Database: "d", User: "u", Password: "p"}, "host"},
		{"missing database", Config{Host: "h", User: "u", Password: "p"}, "database"},
		{"bad start date", Config{Host: "h", Database: "d", User: "u", Password: "p", StartDate: "yesterday"}, "start_date"},
		{"negative abort", Config{Host: "h", Database: "d", User: "u", Password: "p", AbortAtRecordCount: -1}, "abort_at_record_count"},
		{"bad batch format", Config{Host: "h", Database: "d", User: "u", Password: "p",
			Batch: &BatchConfig{Encoding: EncodingConfig{Format: "csv"}, Storage: StorageConfig{Root: "file:///tmp"}}}, "format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %v, want mention of %s", err, tt.want)
			}
		})
	}
}

func TestBuildDSN(t *testing.T) {
	cfg := Config{
		Host:     "myserver.database.windows.net",
		Port:     1433,
		Database: "aptify",
		User:     "taps",
		Password: "p@ss/word",
	}

	dsn := cfg.BuildDSN()
	if !strings.HasPrefix(dsn, "sqlserver://") {
		t.Errorf("DSN scheme: %s", dsn)
	}
	if !strings.Contains(dsn, "myserver.database.windows.net:1433") {
		t.Errorf("DSN host: %s", dsn)
	}
	if !strings.Contains(dsn, "database=aptify") {
		t.Errorf("DSN database: %s", dsn)
	}
	if !strings.Contains(dsn, "encrypt=true") {
		t.Errorf("DSN must default to encryption: %s", dsn)
	}
	if strings.Contains(dsn, "p@ss/word") {
		t.Errorf("password not URL-escaped: %s", dsn)
	}
}

func TestBuildDSNDriverOptions(t *testing.T) {
	cfg := Config{
		Host: "h", Port: 1433, Database: "d", User: "u", Password: "p",
		DriverOptions: map[string]string{"app name": "tap-aptify", "encrypt": "disable"},
	}

	dsn := cfg.BuildDSN()
	if !strings.Contains(dsn, "encrypt=disable") {
		t.Errorf("driver option did not override default: %s", dsn)
	}
}

func TestSampleRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := Save(path, Sample()); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() of sample config error: %v", err)
	}
	if _, err := time.Parse(time.RFC3339, cfg.StartDate); err != nil {
		t.Errorf("sample start_date not RFC 3339: %v", err)
	}
}
