package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidate_InvalidPort(t *testing.T) {
	cfg := Config{HTTP: HTTPConfig{Port: 0}, Store: StoreConfig{Backend: BackendMemory}}

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_Backends(t *testing.T) {
	tests := []struct {
		name    string
		store   StoreConfig
		wantErr bool
	}{
		{"memory", StoreConfig{Backend: BackendMemory}, false},
		{"memory with watch", StoreConfig{Backend: BackendMemory, Watch: true}, true},
		{"file", StoreConfig{Backend: BackendFile, Path: "db.json", Watch: true}, false},
		{"file without path", StoreConfig{Backend: BackendFile}, true},
		{"sqlite", StoreConfig{Backend: BackendSQLite, Path: "db.sqlite"}, false},
		{"sqlite without path", StoreConfig{Backend: BackendSQLite}, true},
		{"sqlite with watch", StoreConfig{Backend: BackendSQLite, Path: "db.sqlite", Watch: true}, true},
		{"redis", StoreConfig{Backend: BackendRedis, Addrs: []string{"localhost:6379"}}, false},
		{"redis without addrs", StoreConfig{Backend: BackendRedis}, true},
		{"unknown", StoreConfig{Backend: "mongo"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{HTTP: HTTPConfig{Port: 3000}, Store: tt.store}
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.Port != 3000 {
		t.Errorf("expected Port=3000, got %d", cfg.HTTP.Port)
	}
	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 10 {
		t.Errorf("expected WriteTimeoutSec=10, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("expected ShutdownSec=10, got %d", cfg.HTTP.ShutdownSec)
	}
	if cfg.Store.IDKey != "uuid" {
		t.Errorf("expected IDKey='uuid', got %q", cfg.Store.IDKey)
	}
	if cfg.Store.Backend != BackendMemory {
		t.Errorf("expected Backend=%q, got %q", BackendMemory, cfg.Store.Backend)
	}
	if cfg.Store.ReadinessTimeout != 10 {
		t.Errorf("expected ReadinessTimeout=10, got %d", cfg.Store.ReadinessTimeout)
	}
}

func TestApplyDefaults_SourceSelectsFileBackend(t *testing.T) {
	cfg := Config{Store: StoreConfig{Source: "db.json"}}
	cfg.ApplyDefaults()

	if cfg.Store.Backend != BackendFile {
		t.Errorf("expected Backend=%q, got %q", BackendFile, cfg.Store.Backend)
	}
	if cfg.Store.Path != "db.json" {
		t.Errorf("expected Path='db.json', got %q", cfg.Store.Path)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:  HTTPConfig{Port: 8080, ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Store: StoreConfig{IDKey: "id", Source: "seed.json", Backend: BackendSQLite, Path: "db.sqlite", ReadinessTimeout: 15},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.Port != 8080 {
		t.Errorf("expected Port=8080, got %d", cfg.HTTP.Port)
	}
	if cfg.HTTP.WriteTimeoutSec != 60 {
		t.Errorf("expected WriteTimeoutSec=60, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Store.IDKey != "id" {
		t.Errorf("expected IDKey='id', got %q", cfg.Store.IDKey)
	}
	if cfg.Store.Path != "db.sqlite" {
		t.Errorf("expected Path='db.sqlite', got %q", cfg.Store.Path)
	}
	if cfg.Store.ReadinessTimeout != 15 {
		t.Errorf("expected ReadinessTimeout=15, got %d", cfg.Store.ReadinessTimeout)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("JS_TEST_PORT", "4000")

	tests := []struct {
		in, want string
	}{
		{"port: ${JS_TEST_PORT}", "port: 4000"},
		{"port: ${JS_TEST_MISSING:-3000}", "port: 3000"},
		{"port: ${JS_TEST_PORT:-3000}", "port: 4000"},
		{"key: ${JS_TEST_MISSING}", "key: "},
	}
	for _, tt := range tests {
		if got := string(expandEnvVars([]byte(tt.in))); got != tt.want {
			t.Errorf("expandEnvVars(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoad_FileAndOverrides(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "config"), 0o750); err != nil {
		t.Fatal(err)
	}
	data := []byte("http:\n  port: 4000\nstore:\n  source: seed.yaml\ncors:\n  allowed_origins: [\"http://a.test\"]\n")
	if err := os.WriteFile(filepath.Join(dir, "config", "test.yaml"), data, 0o600); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)

	cfg, err := Load("test", func(c *Config) { c.Store.Watch = true })
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.Port != 4000 {
		t.Errorf("expected Port=4000, got %d", cfg.HTTP.Port)
	}
	if cfg.Store.Backend != BackendFile || cfg.Store.Path != "seed.yaml" || !cfg.Store.Watch {
		t.Errorf("unexpected store config: %+v", cfg.Store)
	}
	if len(cfg.CORS.AllowedOrigins) != 1 || cfg.CORS.AllowedOrigins[0] != "http://a.test" {
		t.Errorf("unexpected cors config: %+v", cfg.CORS)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("nonexistent-env")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.Port != 3000 || cfg.Store.Backend != BackendMemory {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}
