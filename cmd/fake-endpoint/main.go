// fake-endpoint is a webhook receiver for local end-to-end testing of the
// dispatch pipeline. It verifies the signature headers produced by the
// webhook provider and can simulate an outage by failing the first N
// requests with a 500.
package main

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/anchorline/sendbridge/internal/config"
	"github.com/anchorline/sendbridge/internal/provider"
)

type receiver struct {
	cfg config.Receiver

	mu       sync.Mutex
	reqCount int
}

func main() {
	cfg := config.FromEnv().Receiver
	r := &receiver{cfg: cfg}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte(`{"ok":true}`)) })
	mux.HandleFunc("/hook", r.handleHook)

	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	log.Printf("fake-endpoint listening on %s", cfg.Port)
	log.Fatal(srv.ListenAndServe())
}

func (r *receiver) handleHook(w http.ResponseWriter, req *http.Request) {
	r.mu.Lock()
	r.reqCount++
	count := r.reqCount
	r.mu.Unlock()

	b, _ := io.ReadAll(req.Body)
	defer req.Body.Close()

	if r.cfg.EndpointSecret != "" {
		leeway := time.Duration(r.cfg.SigningLeewaySeconds) * time.Second
		ok, msg := provider.VerifySignature(
			r.cfg.EndpointSecret, b,
			req.Header.Get(provider.TimestampHeader),
			req.Header.Get(provider.SignatureHeader),
			leeway,
		)
		if !ok {
			log.Printf("fake-endpoint failed to verify signature: %s", msg)
			http.Error(w, "invalid signature: "+msg, http.StatusUnauthorized)
			return
		}
	}

	if r.cfg.ResponseDelayMS > 0 {
		time.Sleep(time.Duration(r.cfg.ResponseDelayMS) * time.Millisecond)
	}

	// Simulate flakiness: first N requests -> 500
	if count <= r.cfg.FailFirstN {
		log.Printf("FAILING (%d/%d) body=%s", count, r.cfg.FailFirstN, truncate(string(b), 160))
		http.Error(w, "temporary failure", http.StatusInternalServerError)
		return
	}

	log.Printf("fake-endpoint OK body=%q", truncate(string(b), 160))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`ok`))
}

// truncate shortens a string to n bytes with an ellipsis.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return fmt.Sprintf("%s...", s[:n])
}
