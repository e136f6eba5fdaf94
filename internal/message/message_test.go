package message

import (
	"testing"
	"time"
)

func TestNewEnvelope(t *testing.T) {
	m := Message{Destination: "ops@example.com", Subject: "deploy", Body: "done"}
	headers := map[string]string{"traceparent": "00-abc-def-01"}

	before := time.Now()
	env := NewEnvelope("msg-1", m, headers)
	after := time.Now()

	if env.MessageID != "msg-1" {
		t.Errorf("MessageID = %q, want msg-1", env.MessageID)
	}
	if got := env.Message(); got != m {
		t.Errorf("Message() = %+v, want %+v", got, m)
	}
	if env.TraceHeaders["traceparent"] != "00-abc-def-01" {
		t.Errorf("TraceHeaders = %v, want propagated headers", env.TraceHeaders)
	}

	published, err := time.Parse(time.RFC3339Nano, env.PublishedAt)
	if err != nil {
		t.Fatalf("PublishedAt parse error: %v", err)
	}
	if published.Before(before.Add(-time.Second)) || published.After(after.Add(time.Second)) {
		t.Errorf("PublishedAt %v not near now", published)
	}
}

func TestNewDeadLetter(t *testing.T) {
	env := NewEnvelope("msg-2", Message{Destination: "x"}, nil)

	dl := NewDeadLetter(env, "fallback", 5, "endpoint returned status 503", "dispatch failed after fallback")

	if dl.Type != DLQType {
		t.Errorf("Type = %q, want %q", dl.Type, DLQType)
	}
	if dl.Version != "v1" {
		t.Errorf("Version = %q, want v1", dl.Version)
	}
	if dl.Provider != "fallback" || dl.Attempts != 5 {
		t.Errorf("Provider/Attempts = %q/%d, want fallback/5", dl.Provider, dl.Attempts)
	}
	if dl.Envelope.MessageID != "msg-2" {
		t.Errorf("Envelope.MessageID = %q, want msg-2", dl.Envelope.MessageID)
	}
	if _, err := time.Parse(time.RFC3339Nano, dl.At); err != nil {
		t.Errorf("At timestamp parse error: %v", err)
	}
}

func TestDLQTypeConstant(t *testing.T) {
	if DLQType != "dispatch.dlq" {
		t.Errorf("DLQType = %q, want dispatch.dlq", DLQType)
	}
}
