package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/anchorline/sendbridge/internal/breaker"
	"github.com/anchorline/sendbridge/internal/dispatch"
	"github.com/anchorline/sendbridge/internal/logging"
	"github.com/anchorline/sendbridge/internal/message"
	"github.com/anchorline/sendbridge/internal/provider"
	"github.com/anchorline/sendbridge/internal/ratelimit"
)

var (
	simCount        int
	simPrimaryRate  float64
	simFallbackRate float64
	simSeed         int64
	simFast         bool
)

// simulateCmd runs messages through an in-process engine with simulated
// providers, without touching NSQ or the network.
var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run a local dispatch simulation with flaky providers",
	Long: `Run messages through an in-process dispatch engine backed by simulated
providers with configurable success rates. Useful for observing retry,
fallback, rate-limit and circuit-breaker behaviour without a running daemon.

Examples:
  bridgectl simulate --count 5 --primary-rate 0.3 --fallback-rate 0.9
  bridgectl simulate --count 10 --fast`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if simCount <= 0 {
			return fmt.Errorf("--count must be positive")
		}

		primary := provider.NewSimulated("primary", simPrimaryRate, simSeed)
		fallback := provider.NewSimulated("fallback", simFallbackRate, simSeed+1)

		engCfg := dispatch.Config{MaxRetries: dispatch.DefaultMaxRetries, RetryDelay: dispatch.DefaultRetryDelay}
		rateLimit := ratelimit.DefaultInterval
		if simFast {
			engCfg.RetryDelay = time.Millisecond
			rateLimit = 0
		}

		engine := dispatch.NewEngine(
			primary,
			fallback,
			breaker.New(breaker.DefaultFailureThreshold, breaker.DefaultResetTimeout),
			ratelimit.New(rateLimit),
			engCfg,
			logging.New("bridgectl-simulate"),
		)
		queue := dispatch.NewQueue(engine)

		// Enqueue everything up front so the drain loop processes in
		// arrival order, then await the outcomes in the same order.
		results := make([]<-chan dispatch.Outcome, 0, simCount)
		for i := 0; i < simCount; i++ {
			m := message.Message{
				Destination: fmt.Sprintf("simulated-%d", i+1),
				Subject:     "simulation",
				Body:        fmt.Sprintf("message %d of %d", i+1, simCount),
			}
			results = append(results, queue.Enqueue(context.Background(), m))
		}

		outcomes := make([]dispatch.Outcome, 0, simCount)
		for _, ch := range results {
			outcomes = append(outcomes, <-ch)
		}

		if outputJSON {
			printOutput(outcomes)
			return nil
		}
		for i, out := range outcomes {
			status := "DELIVERED"
			detail := ""
			if !out.Success {
				status = "FAILED"
				detail = " (" + out.ErrorMessage + ")"
			}
			fmt.Printf("%2d  %-9s provider=%-8s attempts=%d%s\n", i+1, status, out.Provider, out.Attempts, detail)
		}
		fmt.Printf("\nprimary calls=%d fallback calls=%d\n", primary.Calls(), fallback.Calls())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().IntVar(&simCount, "count", 3, "number of messages to dispatch")
	simulateCmd.Flags().Float64Var(&simPrimaryRate, "primary-rate", 0.5, "primary provider success probability (0-1)")
	simulateCmd.Flags().Float64Var(&simFallbackRate, "fallback-rate", 0.9, "fallback provider success probability (0-1)")
	simulateCmd.Flags().Int64Var(&simSeed, "seed", time.Now().UnixNano(), "RNG seed for reproducible runs")
	simulateCmd.Flags().BoolVar(&simFast, "fast", false, "collapse backoff and rate-limit waits")
}
