package config

import (
	"os"
	"strconv"
	"time"
)

type NSQ struct {
	NsqdTCPAddr    string // e.g. nsqd:4150
	LookupHTTPAddr string // e.g. http://nsqlookupd:4161
	MessagesTopic  string // NSQ topic for inbound dispatch requests
	DLQTopic       string // Dead letter queue topic
	Channel        string // NSQ channel name for the dispatch daemon
}

// Engine holds the dispatch tuning knobs. All are fixed at engine
// construction; nothing mutates them at runtime.
type Engine struct {
	MaxRetries       int           // Attempts per provider before fallback/DLQ
	RetryDelay       time.Duration // Base backoff, doubled per attempt
	RateLimit        time.Duration // Minimum spacing between dispatches
	FailureThreshold int           // Exhaustions before the breaker opens
	ResetTimeout     time.Duration // Cooldown before the breaker re-closes
}

// ProviderSpec configures one webhook delivery tier.
type ProviderSpec struct {
	Name   string
	URL    string
	Secret string
}

type Providers struct {
	Primary  ProviderSpec
	Fallback ProviderSpec
}

type Receiver struct {
	FailFirstN           int           // Number of requests to fail initially
	EndpointSecret       string        // Secret for signature verification
	SigningLeewaySeconds int           // Allowed timestamp skew in seconds
	ResponseDelayMS      int           // Simulated response delay in milliseconds
	Port                 string        // Server listen port
	ReadTimeout          time.Duration // HTTP read timeout
	WriteTimeout         time.Duration // HTTP write timeout
	IdleTimeout          time.Duration // HTTP idle timeout
}

type Config struct {
	AppName   string
	HTTPPort  string // :8082
	NSQ       NSQ
	Engine    Engine
	Providers Providers
	Receiver  Receiver
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func FromEnv() Config {
	return Config{
		AppName:  getenv("APP_NAME", "sendbridge"),
		HTTPPort: getenv("HTTP_PORT", ":8082"),
		NSQ: NSQ{
			NsqdTCPAddr:    getenv("NSQD_TCP_ADDR", "nsqd:4150"),
			LookupHTTPAddr: getenv("NSQ_LOOKUP_HTTP_ADDR", "http://nsqlookupd:4161"),
			MessagesTopic:  getenv("NSQ_MESSAGES_TOPIC", "messages"),
			DLQTopic:       getenv("NSQ_DLQ_TOPIC", "messages_dlq"),
			Channel:        getenv("NSQ_CHANNEL", "dispatch"),
		},
		Engine: Engine{
			MaxRetries:       getenvInt("MAX_RETRIES", 5),
			RetryDelay:       getenvDuration("RETRY_DELAY", time.Second),
			RateLimit:        getenvDuration("RATE_LIMIT", 2*time.Second),
			FailureThreshold: getenvInt("FAILURE_THRESHOLD", 3),
			ResetTimeout:     getenvDuration("RESET_TIMEOUT", 10*time.Second),
		},
		Providers: Providers{
			Primary: ProviderSpec{
				Name:   getenv("PRIMARY_PROVIDER_NAME", "primary"),
				URL:    getenv("PRIMARY_PROVIDER_URL", "http://localhost:8081/hook"),
				Secret: getenv("PRIMARY_PROVIDER_SECRET", ""),
			},
			Fallback: ProviderSpec{
				Name:   getenv("FALLBACK_PROVIDER_NAME", "fallback"),
				URL:    getenv("FALLBACK_PROVIDER_URL", "http://localhost:8084/hook"),
				Secret: getenv("FALLBACK_PROVIDER_SECRET", ""),
			},
		},
		Receiver: Receiver{
			FailFirstN:           getenvInt("FAIL_FIRST_N", 0),
			EndpointSecret:       getenv("ENDPOINT_SECRET", ""),
			SigningLeewaySeconds: getenvInt("SIGNING_LEEWAY_SECONDS", 300),
			ResponseDelayMS:      getenvInt("RESPONSE_DELAY_MS", 0),
			Port:                 getenv("FAKE_ENDPOINT_PORT", ":8081"),
			ReadTimeout:          getenvDuration("FAKE_ENDPOINT_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:         getenvDuration("FAKE_ENDPOINT_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:          getenvDuration("FAKE_ENDPOINT_IDLE_TIMEOUT", 60*time.Second),
		},
	}
}
