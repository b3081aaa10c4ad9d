package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const minimalEnvYAML = `
server:
  port: "8050"
upstream:
  timeout: 10s
cache:
  backend: file
`

// isolateEnv clears the variables Load reads so host settings do not leak into tests.
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"ENV_NAME", "PORT", "CACHE_BACKEND", "MEMCACHED_ADDRS", "MAPBOX_TOKEN"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoad_DefaultsFromMinimalFile(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	writeEnvFile(t, dir, minimalEnvYAML)

	cfg, err := LoadFrom(dir)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.ServerPort != "8050" {
		t.Errorf("ServerPort = %q, want 8050", cfg.ServerPort)
	}
	if cfg.CacheTTL != 24*time.Hour {
		t.Errorf("CacheTTL = %v, want 24h", cfg.CacheTTL)
	}
	if cfg.EVStatusTTL != 5*time.Minute {
		t.Errorf("EVStatusTTL = %v, want 5m", cfg.EVStatusTTL)
	}
	if cfg.DataDir != "static" || cfg.TempDir != "temp" {
		t.Errorf("DataDir/TempDir = %q/%q, want static/temp", cfg.DataDir, cfg.TempDir)
	}
	if cfg.Datasets.Landscape != "landschaft.gpkg" {
		t.Errorf("Datasets.Landscape = %q", cfg.Datasets.Landscape)
	}
	if !cfg.CoalesceEnabled || !cfg.CircuitBreakerEnabled {
		t.Error("coalescing and circuit breaker should default to enabled")
	}
	if cfg.MapboxToken != "" {
		t.Errorf("MapboxToken = %q, want empty", cfg.MapboxToken)
	}
	if cfg.SimplifyTolerance != 0.001 {
		t.Errorf("SimplifyTolerance = %v, want 0.001", cfg.SimplifyTolerance)
	}
	if cfg.RequestTimeout <= cfg.UpstreamTimeout {
		t.Errorf("RequestTimeout %v must exceed UpstreamTimeout %v", cfg.RequestTimeout, cfg.UpstreamTimeout)
	}
}

func TestLoad_UsesWorkingDirectory(t *testing.T) {
	isolateEnv(t)
	origWd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	dir := t.TempDir()
	writeEnvFile(t, dir, minimalEnvYAML)
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	defer func() { _ = os.Chdir(origWd) }()

	if _, err := Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
}

func TestLoad_EnvFileNotFound(t *testing.T) {
	isolateEnv(t)
	t.Setenv("ENV_NAME", "nonexistent")
	dir := t.TempDir()

	_, err := LoadFrom(dir)
	if err == nil {
		t.Fatal("LoadFrom() expected error for missing config file")
	}
	if !strings.Contains(err.Error(), "config file not found") {
		t.Errorf("error = %v, want config file not found", err)
	}
}

func TestLoad_MapboxTokenSources(t *testing.T) {
	t.Run("secrets file", func(t *testing.T) {
		isolateEnv(t)
		dir := t.TempDir()
		writeEnvFile(t, dir, minimalEnvYAML)
		writeSecretsFile(t, dir, "mapbox_token: pk.from-secrets\n")

		cfg, err := LoadFrom(dir)
		if err != nil {
			t.Fatalf("LoadFrom() error = %v", err)
		}
		if cfg.MapboxToken != "pk.from-secrets" {
			t.Errorf("MapboxToken = %q, want pk.from-secrets", cfg.MapboxToken)
		}
	})

	t.Run("env wins over secrets", func(t *testing.T) {
		isolateEnv(t)
		t.Setenv("MAPBOX_TOKEN", "pk.from-env")
		dir := t.TempDir()
		writeEnvFile(t, dir, minimalEnvYAML)
		writeSecretsFile(t, dir, "mapbox_token: pk.from-secrets\n")

		cfg, err := LoadFrom(dir)
		if err != nil {
			t.Fatalf("LoadFrom() error = %v", err)
		}
		if cfg.MapboxToken != "pk.from-env" {
			t.Errorf("MapboxToken = %q, want pk.from-env", cfg.MapboxToken)
		}
	})

	t.Run("dotenv file", func(t *testing.T) {
		isolateEnv(t)
		dir := t.TempDir()
		writeEnvFile(t, dir, minimalEnvYAML)
		if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("MAPBOX_TOKEN=pk.from-dotenv\n"), 0644); err != nil {
			t.Fatalf("write .env: %v", err)
		}

		cfg, err := LoadFrom(dir)
		if err != nil {
			t.Fatalf("LoadFrom() error = %v", err)
		}
		if cfg.MapboxToken != "pk.from-dotenv" {
			t.Errorf("MapboxToken = %q, want pk.from-dotenv", cfg.MapboxToken)
		}
	})
}

func TestLoad_EmptyDurationFallsBackToDefault(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	writeEnvFile(t, dir, `
upstream:
  timeout: 10s
cache:
  ttl: ""
  ev_status_ttl: ""
`)
	cfg, err := LoadFrom(dir)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.CacheTTL != 24*time.Hour {
		t.Errorf("CacheTTL = %v, want 24h", cfg.CacheTTL)
	}
	if cfg.EVStatusTTL != 5*time.Minute {
		t.Errorf("EVStatusTTL = %v, want 5m", cfg.EVStatusTTL)
	}
}

func TestLoad_InvalidDurationFallsBackToDefault(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	writeEnvFile(t, dir, `
upstream:
  timeout: 10s
cache:
  ttl: "one day"
shutdown:
  timeout: "-5s"
`)
	cfg, err := LoadFrom(dir)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.CacheTTL != 24*time.Hour {
		t.Errorf("CacheTTL = %v, want 24h", cfg.CacheTTL)
	}
	if cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 30s", cfg.ShutdownTimeout)
	}
}

func TestLoad_ValidationFailsWhenUpstreamTimeoutZero(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	writeEnvFile(t, dir, "upstream:\n  timeout: 0s\n")

	_, err := LoadFrom(dir)
	if err == nil {
		t.Fatal("LoadFrom() expected validation error")
	}
	if !strings.Contains(err.Error(), "upstream.timeout") {
		t.Errorf("error = %v, want upstream.timeout", err)
	}
}

func TestLoad_CacheBackend(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		env     string
		want    string
		wantErr bool
	}{
		{name: "default file", file: "", want: "file"},
		{name: "from yaml", file: "in_memory", want: "in_memory"},
		{name: "env override", file: "file", env: "MEMCACHED", want: "memcached"},
		{name: "unknown", file: "redis", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateEnv(t)
			if tt.env != "" {
				t.Setenv("CACHE_BACKEND", tt.env)
			}
			dir := t.TempDir()
			writeEnvFile(t, dir, "upstream:\n  timeout: 5s\ncache:\n  backend: \""+tt.file+"\"\n")

			cfg, err := LoadFrom(dir)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadFrom() error = %v", err)
			}
			if cfg.CacheBackend != tt.want {
				t.Errorf("CacheBackend = %q, want %q", cfg.CacheBackend, tt.want)
			}
		})
	}
}

func TestLoad_InvalidSecretsYAML(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	writeEnvFile(t, dir, minimalEnvYAML)
	writeSecretsFile(t, dir, "mapbox_token: [unclosed\n")

	if _, err := LoadFrom(dir); err == nil || !strings.Contains(err.Error(), "secrets") {
		t.Errorf("LoadFrom() error = %v, want secrets parse error", err)
	}
}

func TestLoad_InvalidConfigYAML(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	writeEnvFile(t, dir, "server: [\n")

	if _, err := LoadFrom(dir); err == nil || !strings.Contains(err.Error(), "parse config file") {
		t.Errorf("LoadFrom() error = %v, want parse error", err)
	}
}

func TestLoad_WarmAndLifecycleSettings(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	writeEnvFile(t, dir, `
upstream:
  timeout: 10s
cache:
  warm:
    keys: ["osm:CH:books", "zueri:101"]
    interval: 6h
    concurrency: 4
lifecycle:
  overload_window: 30s
  overload_threshold_pct: 90
  degraded_error_pct: 50
  degraded_retry_initial: 30s
`)
	cfg, err := LoadFrom(dir)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if len(cfg.WarmKeys) != 2 || cfg.WarmKeys[1] != "zueri:101" {
		t.Errorf("WarmKeys = %v", cfg.WarmKeys)
	}
	if cfg.WarmInterval != 6*time.Hour || cfg.WarmConcurrency != 4 {
		t.Errorf("WarmInterval/Concurrency = %v/%d", cfg.WarmInterval, cfg.WarmConcurrency)
	}
	if cfg.OverloadWindow != 30*time.Second || cfg.OverloadThresholdPct != 90 {
		t.Errorf("overload = %v/%d", cfg.OverloadWindow, cfg.OverloadThresholdPct)
	}
	if cfg.DegradedErrorPct != 50 || cfg.DegradedWindow != 5*time.Minute {
		t.Errorf("degraded = %v/%d", cfg.DegradedWindow, cfg.DegradedErrorPct)
	}
	if cfg.DegradedRetryInitial != 30*time.Second || cfg.DegradedRetryMax != 20*time.Minute {
		t.Errorf("degraded retry = %v..%v, want 30s..20m", cfg.DegradedRetryInitial, cfg.DegradedRetryMax)
	}
}

func TestDatasetPath(t *testing.T) {
	cfg := &Config{DataDir: "static"}
	if got := cfg.DatasetPath("wind-turb.csv"); got != filepath.Join("static", "wind-turb.csv") {
		t.Errorf("DatasetPath(relative) = %q", got)
	}
	abs := filepath.Join(t.TempDir(), "x.json")
	if got := cfg.DatasetPath(abs); got != abs {
		t.Errorf("DatasetPath(absolute) = %q, want %q", got, abs)
	}
}

// TestRepositoryConfigLoads guards config/dev.yaml against drifting from the loader.
func TestRepositoryConfigLoads(t *testing.T) {
	isolateEnv(t)
	root := findProjectRoot(t)
	cfg, err := LoadFrom(root)
	if err != nil {
		t.Fatalf("LoadFrom(%s) error = %v", root, err)
	}
	if cfg.CacheBackend != "file" {
		t.Errorf("dev CacheBackend = %q, want file", cfg.CacheBackend)
	}
}

func writeEnvFile(t *testing.T, dir, content string) {
	t.Helper()
	configDir := filepath.Join(dir, "config")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	env := os.Getenv("ENV_NAME")
	if env == "" {
		env = "dev"
	}
	if err := os.WriteFile(filepath.Join(configDir, env+".yaml"), []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func writeSecretsFile(t *testing.T, dir, content string) {
	t.Helper()
	configDir := filepath.Join(dir, "config")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(filepath.Join(configDir, "secrets.yaml"), []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func findProjectRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("go.mod not found")
		}
		dir = parent
	}
}
