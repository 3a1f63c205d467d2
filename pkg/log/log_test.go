package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewHandlerJSON(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(NewHandler(&buf, Options{Level: "warn", Format: "json"}))
	l.Info("dropped")
	l.Warn("kept", slog.Int("prod_code", 4711))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d records, want 1: %q", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("record is not json: %v", err)
	}
	if rec["msg"] != "kept" || rec["prod_code"] != float64(4711) {
		t.Fatalf("unexpected record: %v", rec)
	}
}

func TestNewHandlerFile(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "fastlay.log")
	l := slog.New(NewHandler(&buf, Options{File: path}))
	l.With(slog.String("component", "test")).Info("hello")

	if !strings.Contains(buf.String(), "component=test") {
		t.Fatalf("console output missing attrs: %q", buf.String())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if !strings.Contains(string(data), `"component":"test"`) {
		t.Fatalf("file output missing attrs: %q", data)
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("FASTLAY_LOG_LEVEL", "debug")
	t.Setenv("FASTLAY_LOG_FORMAT", "json")
	t.Setenv("FASTLAY_LOG_SOURCE", "TRUE")
	t.Setenv("FASTLAY_LOG_FILE", "")

	opts := FromEnv()
	if opts.Level != "debug" || opts.Format != "json" || !opts.AddSource || opts.File != "" {
		t.Fatalf("FromEnv() = %+v", opts)
	}
}
