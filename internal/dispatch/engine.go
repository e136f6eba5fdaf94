package dispatch

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/anchorline/sendbridge/internal/breaker"
	"github.com/anchorline/sendbridge/internal/logging"
	"github.com/anchorline/sendbridge/internal/message"
	"github.com/anchorline/sendbridge/internal/metrics"
	"github.com/anchorline/sendbridge/internal/provider"
	"github.com/anchorline/sendbridge/internal/ratelimit"
	"github.com/anchorline/sendbridge/internal/tracing"
)

const (
	DefaultMaxRetries = 5
	DefaultRetryDelay = time.Second
)

// ErrCircuitOpen is the outcome message when the breaker rejects a dispatch.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// Config fixes the retry behaviour at engine construction time.
type Config struct {
	MaxRetries int           // attempts per provider
	RetryDelay time.Duration // base backoff, doubled per attempt
}

// Engine drives one dispatch at a time through rate limiting, breaker
// gating, a bounded retry loop against the primary provider and the same
// loop against the fallback. All engine state (limiter, breaker, outcome
// log) belongs to a single instance; independent engines do not interfere.
type Engine struct {
	primary  provider.Provider
	fallback provider.Provider
	breaker  *breaker.Breaker
	limiter  *ratelimit.Limiter
	cfg      Config
	log      *logging.Logger

	// sleep is the backoff wait; swapped out in tests.
	sleep func(time.Duration)

	mu       sync.Mutex
	outcomes []Outcome
}

// NewEngine wires an engine. fallback may be nil for single-tier setups.
func NewEngine(primary, fallback provider.Provider, br *breaker.Breaker, lim *ratelimit.Limiter, cfg Config, log *logging.Logger) *Engine {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	if br == nil {
		br = breaker.New(0, 0)
	}
	if lim == nil {
		lim = ratelimit.New(0)
	}
	if log == nil {
		log = logging.New("sendbridge-engine")
	}
	return &Engine{
		primary:  primary,
		fallback: fallback,
		breaker:  br,
		limiter:  lim,
		cfg:      cfg,
		log:      log,
		sleep:    time.Sleep,
	}
}

// SetSleep overrides the backoff wait. Test hook.
func (e *Engine) SetSleep(sleep func(time.Duration)) {
	e.sleep = sleep
}

// Breaker exposes the engine's breaker for health reporting.
func (e *Engine) Breaker() *breaker.Breaker {
	return e.breaker
}

// Dispatch runs one message through the full pipeline and returns its
// outcome. Every failure path terminates in a well-formed Outcome; Dispatch
// itself never fails.
func (e *Engine) Dispatch(ctx context.Context, m message.Message) Outcome {
	ctx, span := tracing.StartSpan(ctx, "dispatch.message",
		attribute.String("destination", m.Destination),
	)
	defer span.End()

	wait, _ := e.limiter.Wait(ctx)
	metrics.ThrottleWaitSeconds.Observe(wait.Seconds())
	if wait > 0 {
		tracing.AddSpanEvent(ctx, "dispatch.throttled",
			attribute.String("wait", wait.String()))
	}

	if !e.breaker.Allow() {
		tracing.AddSpanEvent(ctx, "dispatch.breaker_open")
		metrics.BreakerRejectionsTotal.Inc()
		e.log.WithContext(ctx).WithDestination(m.Destination).Warn("dispatch rejected, circuit breaker is open")
		return e.record(Outcome{
			Success:      false,
			ErrorMessage: ErrCircuitOpen.Error(),
			At:           time.Now(),
		})
	}

	out := e.sendWithProvider(ctx, e.primary, m)
	if !out.Success && e.fallback != nil {
		tracing.AddSpanEvent(ctx, "dispatch.fallback",
			attribute.String("provider", e.fallback.Name()))
		e.log.WithContext(ctx).WithProvider(e.primary.Name()).WithDestination(m.Destination).
			Warn("primary provider exhausted, falling back")
		out = e.sendWithProvider(ctx, e.fallback, m)
	}

	span.SetAttributes(
		attribute.Bool("dispatch.success", out.Success),
		attribute.String("dispatch.provider", out.Provider),
		attribute.Int("dispatch.attempts", out.Attempts),
	)
	status := "delivered"
	if !out.Success {
		status = "failed"
	}
	metrics.DispatchesTotal.WithLabelValues(status, out.Provider).Inc()
	return e.record(out)
}

// sendWithProvider runs the bounded retry loop for one provider. The breaker
// advances exactly once, when the whole sequence exhausts without success.
func (e *Engine) sendWithProvider(ctx context.Context, p provider.Provider, m message.Message) Outcome {
	var lastErr error
	for attempt := 1; attempt <= e.cfg.MaxRetries; attempt++ {
		err := p.Send(ctx, m)
		if err == nil {
			return Outcome{
				Success:  true,
				Provider: p.Name(),
				Attempts: attempt,
				At:       time.Now(),
			}
		}
		lastErr = err
		metrics.RetriesTotal.WithLabelValues(classifyReason(err)).Inc()
		e.log.WithContext(ctx).WithProvider(p.Name()).WithDestination(m.Destination).
			WithField("attempt", attempt).WithError(err).Warn("delivery attempt failed")

		if attempt < e.cfg.MaxRetries {
			delay := e.cfg.RetryDelay << (attempt - 1)
			tracing.AddSpanEvent(ctx, "dispatch.backoff",
				attribute.String("provider", p.Name()),
				attribute.Int("attempt", attempt),
				attribute.String("delay", delay.String()),
			)
			e.sleep(delay)
		}
	}

	e.breaker.RecordFailure()
	tracing.SetSpanError(ctx, lastErr)
	return Outcome{
		Success:      false,
		Provider:     p.Name(),
		Attempts:     e.cfg.MaxRetries,
		ErrorMessage: lastErr.Error(),
		At:           time.Now(),
	}
}

// record appends to the in-memory outcome log and returns out unchanged.
func (e *Engine) record(out Outcome) Outcome {
	e.mu.Lock()
	e.outcomes = append(e.outcomes, out)
	e.mu.Unlock()
	return out
}

// Outcomes returns a copy of the outcome log in dispatch order.
func (e *Engine) Outcomes() []Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Outcome, len(e.outcomes))
	copy(out, e.outcomes)
	return out
}

// classifyReason buckets a provider error for the retry metric.
func classifyReason(err error) string {
	s := strings.ToLower(err.Error())
	switch {
	case strings.Contains(s, "status 429"):
		return "http_429"
	case strings.Contains(s, "status 5"):
		return "http_5xx"
	case strings.Contains(s, "status 4"):
		return "http_4xx"
	case strings.Contains(s, "timeout"):
		return "timeout"
	case strings.Contains(s, "connection refused"):
		return "connection_refused"
	case strings.Contains(s, "no such host"), strings.Contains(s, "dns"):
		return "dns_error"
	default:
		return "other"
	}
}
