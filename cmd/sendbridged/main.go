package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/nsqio/go-nsq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"

	"github.com/anchorline/sendbridge/internal/breaker"
	"github.com/anchorline/sendbridge/internal/config"
	"github.com/anchorline/sendbridge/internal/dispatch"
	"github.com/anchorline/sendbridge/internal/health"
	"github.com/anchorline/sendbridge/internal/logging"
	"github.com/anchorline/sendbridge/internal/message"
	"github.com/anchorline/sendbridge/internal/metrics"
	"github.com/anchorline/sendbridge/internal/provider"
	"github.com/anchorline/sendbridge/internal/ratelimit"
	"github.com/anchorline/sendbridge/internal/tracing"
)

func main() {
	cfg := config.FromEnv()
	ctx := context.Background()

	logger := logging.New("sendbridged")

	shutdown, err := tracing.Init(ctx, "sendbridged")
	if err != nil {
		logger.Plain().WithError(err).Fatal("Failed to initialize tracing")
	}
	defer shutdown()

	// Prom metrics
	reg := prometheus.NewRegistry()
	metrics.MustRegister(reg)

	// Dispatch pipeline: providers -> engine -> queue
	primary := provider.NewWebhook(cfg.Providers.Primary.Name, cfg.Providers.Primary.URL, cfg.Providers.Primary.Secret, nil)
	fallback := provider.NewWebhook(cfg.Providers.Fallback.Name, cfg.Providers.Fallback.URL, cfg.Providers.Fallback.Secret, nil)
	engine := dispatch.NewEngine(
		primary,
		fallback,
		breaker.New(cfg.Engine.FailureThreshold, cfg.Engine.ResetTimeout),
		ratelimit.New(cfg.Engine.RateLimit),
		dispatch.Config{MaxRetries: cfg.Engine.MaxRetries, RetryDelay: cfg.Engine.RetryDelay},
		logger,
	)
	queue := dispatch.NewQueue(engine)

	// HTTP health/metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", health.HTTPHandler(queue, engine))
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	httpSrv := &http.Server{Addr: cfg.HTTPPort, Handler: mux}
	go func() {
		logger.Plain().WithField("addr", httpSrv.Addr).Info("dispatch HTTP server starting")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Plain().WithError(err).Fatal("dispatch HTTP server failed")
		}
	}()

	// NSQ consumer
	conf := nsq.NewConfig()
	conf.MaxInFlight = 1000
	consumer, err := nsq.NewConsumer(cfg.NSQ.MessagesTopic, cfg.NSQ.Channel, conf)
	if err != nil {
		logger.Plain().WithError(err).Fatal("nsq consumer creation failed")
	}

	// DLQ producer
	dlqProducer, err := nsq.NewProducer(cfg.NSQ.NsqdTCPAddr, nsq.NewConfig())
	if err != nil {
		logger.Plain().WithError(err).Fatal("nsq producer for DLQ creation failed")
	}
	defer dlqProducer.Stop()

	consumer.AddHandler(nsq.HandlerFunc(func(m *nsq.Message) error {
		var env message.Envelope
		if err := json.Unmarshal(m.Body, &env); err != nil {
			logger.Plain().WithError(err).Error("bad envelope payload")
			m.Finish() // terminal: don't retry bad payloads
			return nil
		}

		// Resume the publisher's trace and span the whole consume->outcome path.
		ctx := tracing.ExtractNSQ(ctx, env.TraceHeaders)
		ctx, span := tracing.StartSpan(ctx, "consume.message",
			attribute.String("message_id", env.MessageID),
			attribute.String("destination", env.Destination),
		)
		defer span.End()

		// The engine owns retries and fallback; the queue serializes. The
		// NSQ message is always finished, a failed outcome goes to the DLQ.
		out := <-queue.Enqueue(ctx, env.Message())

		if out.Success {
			logger.WithContext(ctx).WithMessageID(env.MessageID).WithProvider(out.Provider).
				WithField("attempts", out.Attempts).Info("message delivered")
			m.Finish()
			return nil
		}

		dl := message.NewDeadLetter(env, out.Provider, out.Attempts, out.ErrorMessage, dlqReason(out))
		b, _ := json.Marshal(dl)
		if err := dlqProducer.Publish(cfg.NSQ.DLQTopic, b); err != nil {
			logger.WithContext(ctx).WithMessageID(env.MessageID).WithError(err).Error("dlq publish failed")
			tracing.SetSpanError(ctx, err)
		} else {
			logger.WithContext(ctx).WithMessageID(env.MessageID).WithField("topic", cfg.NSQ.DLQTopic).Info("dlq published")
			tracing.AddSpanEvent(ctx, "nsq.published_dlq", attribute.String("topic", cfg.NSQ.DLQTopic))
		}
		metrics.DLQTotal.Inc()
		logger.WithContext(ctx).WithMessageID(env.MessageID).WithProvider(out.Provider).
			WithField("attempts", out.Attempts).WithField("error", out.ErrorMessage).Error("message dispatch failed")
		m.Finish()
		return nil
	}))

	// Connecting directly to NSQD forces channel creation, instead of the channel being lazily created on first publish
	if err := consumer.ConnectToNSQD(cfg.NSQ.NsqdTCPAddr); err != nil {
		logger.Plain().WithError(err).Fatal("connect to nsqd failed")
	}
	if err := consumer.ConnectToNSQLookupd(cfg.NSQ.LookupHTTPAddr); err != nil {
		logger.Plain().WithError(err).Fatal("connect to lookupd failed")
	}

	logger.Plain().Info("dispatch service started")

	// Graceful stop
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGTERM, syscall.SIGINT)
	<-stop

	logger.Plain().Info("Shutting down dispatch service")
	consumer.Stop()
	<-consumer.StopChan
	_ = httpSrv.Shutdown(context.Background())
	logger.Plain().Info("dispatch service stopped")
}

// dlqReason builds the human-readable reason recorded on a dead letter.
func dlqReason(out dispatch.Outcome) string {
	if out.ErrorMessage == dispatch.ErrCircuitOpen.Error() {
		return "rejected by open circuit breaker"
	}
	return fmt.Sprintf("dispatch failed after fallback, attempts=%d", out.Attempts)
}
