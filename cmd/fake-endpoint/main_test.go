package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/anchorline/sendbridge/internal/config"
	"github.com/anchorline/sendbridge/internal/provider"
)

func TestHandleHookFailsFirstN(t *testing.T) {
	r := &receiver{cfg: config.Receiver{FailFirstN: 2}}

	for i := 1; i <= 2; i++ {
		rec := httptest.NewRecorder()
		r.handleHook(rec, httptest.NewRequest(http.MethodPost, "/hook", bytes.NewReader([]byte(`{}`))))
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("request %d status = %d, want 500", i, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	r.handleHook(rec, httptest.NewRequest(http.MethodPost, "/hook", bytes.NewReader([]byte(`{}`))))
	if rec.Code != http.StatusOK {
		t.Fatalf("request 3 status = %d, want 200 after recovery", rec.Code)
	}
}

func TestHandleHookVerifiesSignature(t *testing.T) {
	const secret = "hook-secret"
	r := &receiver{cfg: config.Receiver{EndpointSecret: secret, SigningLeewaySeconds: 300}}
	body := []byte(`{"destination":"x"}`)

	// Unsigned request is rejected.
	rec := httptest.NewRecorder()
	r.handleHook(rec, httptest.NewRequest(http.MethodPost, "/hook", bytes.NewReader(body)))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unsigned request status = %d, want 401", rec.Code)
	}

	// Properly signed request passes.
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	req := httptest.NewRequest(http.MethodPost, "/hook", bytes.NewReader(body))
	req.Header.Set(provider.TimestampHeader, ts)
	req.Header.Set(provider.SignatureHeader, "sha256="+provider.Sign(secret, body, ts))

	rec = httptest.NewRecorder()
	r.handleHook(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("signed request status = %d, want 200", rec.Code)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly-ten", 11, "exactly-ten"},
		{"this is too long", 7, "this is..."},
		{"", 5, ""},
	}

	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}
