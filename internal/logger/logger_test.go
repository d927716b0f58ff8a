package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestNew_Production_ReturnsJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	l := New("production", &buf)

	if l == nil {
		t.Fatal("expected non-nil logger")
	}

	l.Info("test message", zap.String("key", "value"))

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected valid JSON log output, got error: %v\nraw output: %s", err, buf.String())
	}

	if entry["msg"] != "test message" {
		t.Errorf("msg = %q, want %q", entry["msg"], "test message")
	}
	if entry["key"] != "value" {
		t.Errorf("key = %q, want %q", entry["key"], "value")
	}
	if entry["level"] != "info" {
		t.Errorf("level = %q, want %q", entry["level"], "info")
	}
	if _, ok := entry["time"]; !ok {
		t.Error("expected 'time' field in JSON log output")
	}
}

func TestNew_Production_SuppressesDebug(t *testing.T) {
	var buf bytes.Buffer
	l := New("production", &buf)

	l.Debug("debug message")

	if buf.Len() != 0 {
		t.Errorf("expected no output for debug level, got %q", buf.String())
	}
}

func TestNew_Development_WritesConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	l := New("development", &buf)

	l.Debug("debug message", zap.String("key", "value"))

	out := buf.String()
	if !strings.Contains(out, "debug message") {
		t.Errorf("expected debug message in output, got %q", out)
	}
	if json.Valid(bytes.TrimSpace(buf.Bytes())) {
		t.Errorf("expected console format, got JSON: %q", out)
	}
}

func TestSetupDefault_ReplacesGlobalLogger(t *testing.T) {
	var buf bytes.Buffer
	_, restore := SetupDefault("production", &buf)
	defer restore()

	zap.L().Info("global message")

	if !strings.Contains(buf.String(), "global message") {
		t.Errorf("expected global logger output, got %q", buf.String())
	}
}
