package logging

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"strings"
	"testing"
)

// captureOutput runs fn with stdout redirected and returns what was written.
func captureOutput(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stdout = w
	defer func() { os.Stdout = old }()

	fn()
	_ = w.Close()
	out, _ := io.ReadAll(r)
	return string(out)
}

func decodeEntry(t *testing.T, raw string) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &m); err != nil {
		t.Fatalf("log line is not JSON: %v\nraw: %s", err, raw)
	}
	return m
}

func TestPlainEntry(t *testing.T) {
	logger := New("test-service")

	out := captureOutput(t, func() {
		logger.Plain().Info("service started")
	})

	entry := decodeEntry(t, out)
	if entry["service"] != "test-service" {
		t.Errorf("service = %v, want test-service", entry["service"])
	}
	if entry["level"] != "info" {
		t.Errorf("level = %v, want info", entry["level"])
	}
	if entry["msg"] != "service started" {
		t.Errorf("msg = %v", entry["msg"])
	}
}

func TestFluentFields(t *testing.T) {
	logger := New("test-service")

	out := captureOutput(t, func() {
		logger.Plain().
			WithMessageID("msg-1").
			WithProvider("primary").
			WithDestination("ops@example.com").
			WithField("attempt", 3).
			Warn("delivery attempt failed")
	})

	entry := decodeEntry(t, out)
	if entry["message_id"] != "msg-1" {
		t.Errorf("message_id = %v", entry["message_id"])
	}
	if entry["provider"] != "primary" {
		t.Errorf("provider = %v", entry["provider"])
	}
	if entry["destination"] != "ops@example.com" {
		t.Errorf("destination = %v", entry["destination"])
	}
	fields, ok := entry["fields"].(map[string]any)
	if !ok {
		t.Fatalf("fields missing: %v", entry)
	}
	if fields["attempt"] != float64(3) {
		t.Errorf("fields.attempt = %v, want 3", fields["attempt"])
	}
}

func TestWithError(t *testing.T) {
	out := captureOutput(t, func() {
		Plain().WithError(errors.New("connection refused")).Error("dispatch failed")
	})

	entry := decodeEntry(t, out)
	fields := entry["fields"].(map[string]any)
	if fields["error"] != "connection refused" {
		t.Errorf("fields.error = %v", fields["error"])
	}
	if entry["level"] != "error" {
		t.Errorf("level = %v, want error", entry["level"])
	}
}

func TestWithErrorNil(t *testing.T) {
	out := captureOutput(t, func() {
		Plain().WithError(nil).Info("all fine")
	})

	entry := decodeEntry(t, out)
	if _, present := entry["fields"]; present {
		t.Errorf("fields present for nil error: %v", entry)
	}
}

func TestWithFieldsMerge(t *testing.T) {
	out := captureOutput(t, func() {
		WithFields(map[string]any{"a": 1}).
			WithFields(map[string]any{"b": "two"}).
			Info("merged")
	})

	entry := decodeEntry(t, out)
	fields := entry["fields"].(map[string]any)
	if fields["a"] != float64(1) || fields["b"] != "two" {
		t.Errorf("fields = %v, want a=1 b=two", fields)
	}
}

func TestFormattedLevels(t *testing.T) {
	tests := []struct {
		name  string
		log   func()
		level string
		msg   string
	}{
		{"debugf", func() { Plain().Debugf("n=%d", 1) }, "debug", "n=1"},
		{"infof", func() { Plain().Infof("ok %s", "yes") }, "info", "ok yes"},
		{"warnf", func() { Plain().Warnf("slow %v", "2s") }, "warn", "slow 2s"},
		{"errorf", func() { Plain().Errorf("bad %d", 7) }, "error", "bad 7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := decodeEntry(t, captureOutput(t, tt.log))
			if entry["level"] != tt.level {
				t.Errorf("level = %v, want %s", entry["level"], tt.level)
			}
			if entry["msg"] != tt.msg {
				t.Errorf("msg = %v, want %s", entry["msg"], tt.msg)
			}
		})
	}
}

func TestWithContextNoTrace(t *testing.T) {
	out := captureOutput(t, func() {
		New("svc").WithContext(context.Background()).Info("no trace")
	})

	entry := decodeEntry(t, out)
	if _, present := entry["trace_id"]; present {
		t.Errorf("trace_id present without active span: %v", entry)
	}
}

func TestSetDefaultService(t *testing.T) {
	defer SetDefaultService("sendbridge")
	SetDefaultService("renamed")

	entry := decodeEntry(t, captureOutput(t, func() { Plain().Info("x") }))
	if entry["service"] != "renamed" {
		t.Errorf("service = %v, want renamed", entry["service"])
	}
}
