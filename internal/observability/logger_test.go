package observability

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// TestParseLogLevel verifies that parseLogLevel correctly parses log level
// strings from environment variables, handling case-insensitivity and whitespace.
func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		env    string
		expect zapcore.Level
	}{
		{"", zap.InfoLevel},
		{"INFO", zap.InfoLevel},
		{"DEBUG", zap.DebugLevel},
		{"WARN", zap.WarnLevel},
		{"ERROR", zap.ErrorLevel},
		{"debug", zap.DebugLevel},
		{"  warn  ", zap.WarnLevel},
		{"invalid", zap.InfoLevel},
	}
	for _, tt := range tests {
		level := parseLogLevel(tt.env)
		if got := level.Level(); got != tt.expect {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tt.env, got, tt.expect)
		}
	}
}

func TestNewLogger(t *testing.T) {
	t.Setenv("LOG_FILE", "")
	logger, err := NewLogger()
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}
	if logger == nil {
		t.Fatal("NewLogger() returned nil logger")
	}

	logger.Info("test message")
	_ = logger.Sync() // best-effort; can fail on /dev/stderr in test env
}

// TestNewLogger_WritesFile verifies that LOG_FILE adds a file sink next to stderr.
func TestNewLogger_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "maps.log")
	t.Setenv("LOG_FILE", path)

	logger, err := NewLogger()
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}
	logger.Info("written to file")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if len(data) == 0 {
		t.Error("log file is empty, want at least one entry")
	}
}

func TestFlushTelemetry_ClosesLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "maps.log")
	t.Setenv("LOG_FILE", path)
	logger, err := NewLogger()
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}
	logger.Info("before shutdown")

	if err := FlushTelemetry(context.Background(), logger); err != nil {
		t.Fatalf("FlushTelemetry() error = %v", err)
	}
	if logFile != nil {
		t.Error("log file still open after flush")
	}
	if data, err := os.ReadFile(path); err != nil || len(data) == 0 {
		t.Errorf("log file = %q, %v", data, err)
	}
}

func TestFlushTelemetry_ContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := FlushTelemetry(ctx, zap.NewNop()); err == nil {
		t.Error("FlushTelemetry() with canceled context returned nil")
	}
}
