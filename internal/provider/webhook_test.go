package provider

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/anchorline/sendbridge/internal/message"
)

func TestWebhookSendSignsRequest(t *testing.T) {
	const secret = "test-secret"
	var gotBody []byte
	var gotTS, gotSig string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotTS = r.Header.Get(TimestampHeader)
		gotSig = r.Header.Get(SignatureHeader)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := NewWebhook("primary", srv.URL, secret, srv.Client())
	m := message.Message{Destination: "ops@example.com", Subject: "hi", Body: "there"}
	if err := p.Send(context.Background(), m); err != nil {
		t.Fatalf("Send() = %v", err)
	}

	var decoded message.Message
	if err := json.Unmarshal(gotBody, &decoded); err != nil {
		t.Fatalf("request body not valid JSON: %v", err)
	}
	if decoded != m {
		t.Errorf("delivered message = %+v, want %+v", decoded, m)
	}

	ok, reason := VerifySignature(secret, gotBody, gotTS, gotSig, time.Minute)
	if !ok {
		t.Errorf("signature did not verify: %s", reason)
	}
}

func TestWebhookSendStatusErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr bool
	}{
		{"ok", http.StatusOK, false},
		{"created", http.StatusCreated, false},
		{"client error", http.StatusBadRequest, true},
		{"rate limited", http.StatusTooManyRequests, true},
		{"server error", http.StatusInternalServerError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			p := NewWebhook("primary", srv.URL, "s", srv.Client())
			err := p.Send(context.Background(), message.Message{Destination: "d"})
			if (err != nil) != tt.wantErr {
				t.Errorf("Send() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestWebhookSendConnectionError(t *testing.T) {
	// Server closed before the request fires.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	p := NewWebhook("primary", url, "s", nil)
	if err := p.Send(context.Background(), message.Message{Destination: "d"}); err == nil {
		t.Error("Send() = nil against closed server")
	}
}

func TestVerifySignature(t *testing.T) {
	const secret = "s3cret"
	body := []byte(`{"destination":"x"}`)
	now := strconv.FormatInt(time.Now().Unix(), 10)
	goodSig := "sha256=" + Sign(secret, body, now)

	tests := []struct {
		name   string
		secret string
		ts     string
		sig    string
		leeway time.Duration
		wantOK bool
	}{
		{"valid", secret, now, goodSig, time.Minute, true},
		{"valid without prefix", secret, now, Sign(secret, body, now), time.Minute, true},
		{"missing headers", secret, "", "", time.Minute, false},
		{"bad timestamp", secret, "not-a-number", goodSig, time.Minute, false},
		{"stale timestamp", secret, "1000000", goodSig, time.Minute, false},
		{"wrong secret", "other", now, goodSig, time.Minute, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, _ := VerifySignature(tt.secret, body, tt.ts, tt.sig, tt.leeway)
			if ok != tt.wantOK {
				t.Errorf("VerifySignature() = %v, want %v", ok, tt.wantOK)
			}
		})
	}
}
