package health

import (
	"encoding/json"
	"net/http"

	"github.com/anchorline/sendbridge/internal/dispatch"
)

type Status struct {
	OK          bool   `json:"ok"`
	Message     string `json:"message,omitempty"`
	QueueDepth  int    `json:"queue_depth"`
	Processing  bool   `json:"processing"`
	BreakerOpen bool   `json:"breaker_open"`
}

// HTTPHandler returns an HTTP handler that reports dispatcher health. An
// open breaker is surfaced in the body but does not fail the probe; the
// process itself is healthy while it waits out the cooldown.
func HTTPHandler(q *dispatch.Queue, e *dispatch.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st := Status{OK: true, Message: "ok"}
		if q != nil {
			st.QueueDepth = q.Depth()
			st.Processing = q.Processing()
		}
		if e != nil {
			st.BreakerOpen = e.Breaker().Open()
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(st)
	}
}
