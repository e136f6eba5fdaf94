package provider

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/anchorline/sendbridge/internal/message"
	"github.com/anchorline/sendbridge/internal/tracing"
)

const (
	// SignatureHeader carries "sha256=<hex>" over body||timestamp.
	SignatureHeader = "X-SendBridge-Signature"
	// TimestampHeader carries unix seconds used in the signature.
	TimestampHeader = "X-SendBridge-Timestamp"
)

// Webhook delivers messages as signed HTTP POSTs to a fixed endpoint.
// The engine sees it only through the Provider interface.
type Webhook struct {
	name   string
	url    string
	secret string
	client *http.Client
}

// NewWebhook creates a webhook provider. If client is nil a 15s-timeout
// client is used.
func NewWebhook(name, url, secret string, client *http.Client) *Webhook {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Webhook{name: name, url: url, secret: secret, client: client}
}

func (w *Webhook) Name() string { return w.name }

func (w *Webhook) Send(ctx context.Context, m message.Message) error {
	body, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("provider %s: encode message: %w", w.name, err)
	}

	ts := strconv.FormatInt(time.Now().Unix(), 10)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("provider %s: build request: %w", w.name, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(TimestampHeader, ts)
	req.Header.Set(SignatureHeader, "sha256="+Sign(w.secret, body, ts))
	if traceID := tracing.GetTraceID(ctx); traceID != "" {
		req.Header.Set("X-Trace-Id", traceID)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("provider %s: %w", w.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("provider %s: endpoint returned status %d", w.name, resp.StatusCode)
	}
	return nil
}

// Sign computes the hex HMAC-SHA256 of body||timestamp under secret. The
// receiving end verifies the same construction.
func Sign(secret string, body []byte, ts string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	mac.Write([]byte(ts))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a received body/timestamp/signature triple against
// secret, rejecting timestamps outside leeway of now.
func VerifySignature(secret string, body []byte, ts, sig string, leeway time.Duration) (bool, string) {
	if ts == "" || sig == "" {
		return false, "missing headers"
	}
	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return false, "invalid timestamp"
	}
	skew := time.Now().Unix() - unix
	if skew < 0 {
		skew = -skew
	}
	if skew > int64(leeway.Seconds()) {
		return false, "timestamp outside leeway"
	}
	got := sig
	if len(got) > 7 && got[:7] == "sha256=" {
		got = got[7:]
	}
	want := Sign(secret, body, ts)
	if !hmac.Equal([]byte(got), []byte(want)) {
		return false, "signature mismatch"
	}
	return true, ""
}
