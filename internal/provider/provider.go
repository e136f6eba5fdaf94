package provider

import (
	"context"

	"github.com/anchorline/sendbridge/internal/message"
)

// Provider is a delivery backend capability: attempt to deliver a message,
// succeed or fail. Providers carry no retry logic and no engine state; the
// dispatch engine owns retries, rate limiting and circuit breaking.
type Provider interface {
	Name() string
	Send(ctx context.Context, m message.Message) error
}

// Func adapts a plain function to the Provider interface.
type Func struct {
	ProviderName string
	SendFunc     func(ctx context.Context, m message.Message) error
}

func (f Func) Name() string { return f.ProviderName }

func (f Func) Send(ctx context.Context, m message.Message) error {
	return f.SendFunc(ctx, m)
}
