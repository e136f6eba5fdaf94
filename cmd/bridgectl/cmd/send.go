package cmd

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/nsqio/go-nsq"
	"github.com/spf13/cobra"

	"github.com/anchorline/sendbridge/internal/message"
	"github.com/anchorline/sendbridge/internal/tracing"
)

var (
	sendTo      string
	sendSubject string
	sendBody    string
)

// sendCmd publishes a dispatch request to the messages topic.
var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Publish a message for dispatch",
	Long: `Publish a message to the NSQ messages topic. The sendbridged daemon
picks it up, dispatches it through the configured providers and reports the
outcome via its logs and metrics.

Examples:
  bridgectl send --to ops@example.com --subject "deploy done" --body "all green"
  bridgectl send --to +15551234567 --body "check the dashboard"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if sendTo == "" {
			return fmt.Errorf("--to is required")
		}

		producer, err := nsq.NewProducer(nsqdAddr, nsq.NewConfig())
		if err != nil {
			return fmt.Errorf("create producer: %w", err)
		}
		defer producer.Stop()

		env := message.NewEnvelope(newMessageID(), message.Message{
			Destination: sendTo,
			Subject:     sendSubject,
			Body:        sendBody,
		}, tracing.InjectNSQ(context.Background()))

		b, err := json.Marshal(env)
		if err != nil {
			return fmt.Errorf("encode envelope: %w", err)
		}
		if err := producer.Publish(topic, b); err != nil {
			return fmt.Errorf("publish to %s: %w", topic, err)
		}

		if outputJSON {
			printOutput(env)
		} else {
			fmt.Printf("Published message %s to topic %q\n", env.MessageID, topic)
		}
		return nil
	},
}

// newMessageID returns a random 16-byte hex identifier.
func newMessageID() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().StringVar(&sendTo, "to", "", "destination identifier (required)")
	sendCmd.Flags().StringVar(&sendSubject, "subject", "", "message subject")
	sendCmd.Flags().StringVar(&sendBody, "body", "", "message body")
}
