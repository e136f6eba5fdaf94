package message

import "time"

// Message is the payload handed to the dispatch core. The core treats every
// field as opaque; only providers interpret them.
type Message struct {
	Destination string `json:"destination"`
	Subject     string `json:"subject"`
	Body        string `json:"body"`
}

// Envelope is the NSQ wire form of a message. TraceHeaders carry OTel
// propagation context across the queue boundary.
type Envelope struct {
	MessageID    string            `json:"message_id"`
	Destination  string            `json:"destination"`
	Subject      string            `json:"subject"`
	Body         string            `json:"body"`
	PublishedAt  string            `json:"published_at"` // RFC3339
	TraceHeaders map[string]string `json:"trace_headers,omitempty"`
}

// Message extracts the dispatchable payload from an envelope.
func (e Envelope) Message() Message {
	return Message{
		Destination: e.Destination,
		Subject:     e.Subject,
		Body:        e.Body,
	}
}

// NewEnvelope wraps a message for publishing.
func NewEnvelope(id string, m Message, traceHeaders map[string]string) Envelope {
	return Envelope{
		MessageID:    id,
		Destination:  m.Destination,
		Subject:      m.Subject,
		Body:         m.Body,
		PublishedAt:  time.Now().Format(time.RFC3339Nano),
		TraceHeaders: traceHeaders,
	}
}
