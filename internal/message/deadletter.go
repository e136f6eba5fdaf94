package message

import "time"

const DLQType = "dispatch.dlq"

// DeadLetter is published to the DLQ topic when a dispatch exhausts both
// providers (or is rejected by an open breaker) and the outcome is final.
type DeadLetter struct {
	Type      string   `json:"type"`    // "dispatch.dlq"
	Version   string   `json:"version"` // schema version
	At        string   `json:"at"`      // RFC3339 time the DLQ was emitted
	Reason    string   `json:"reason"`  // human/debug text
	Provider  string   `json:"provider,omitempty"`
	Attempts  int      `json:"attempts"`
	LastError string   `json:"last_error,omitempty"`
	Envelope  Envelope `json:"envelope"` // full message snapshot
}

func NewDeadLetter(e Envelope, provider string, attempts int, lastErr, reason string) DeadLetter {
	return DeadLetter{
		Type:      DLQType,
		Version:   "v1",
		At:        time.Now().Format(time.RFC3339Nano),
		Reason:    reason,
		Provider:  provider,
		Attempts:  attempts,
		LastError: lastErr,
		Envelope:  e,
	}
}
