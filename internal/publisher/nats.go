// Package publisher announces finished digests on the event bus.
package publisher

import (
	"context"
	"fmt"

	"github.com/blockedby/infocompass/internal/nats"
	"github.com/blockedby/infocompass/internal/pipeline"
)

// JetStreamClient interface to allow mocking
type JetStreamClient interface {
	Publish(ctx context.Context, subject string, data any) error
}

// NATSPublisher implements pipeline.EventPublisher
type NATSPublisher struct {
	js JetStreamClient
}

// NewNATSPublisher creates a new publisher
func NewNATSPublisher(client JetStreamClient) *NATSPublisher {
	return &NATSPublisher{js: client}
}

// PublishDigestReady publishes a digest.ready event
func (p *NATSPublisher) PublishDigestReady(ctx context.Context, event pipeline.DigestEvent) error {
	if err := p.js.Publish(ctx, nats.DigestReadySubject, event); err != nil {
		return fmt.Errorf("publish digest event: %w", err)
	}
	return nil
}
