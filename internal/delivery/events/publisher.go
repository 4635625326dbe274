package events

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/jglobalproperties/estate_api/internal/config"
	"github.com/jglobalproperties/estate_api/internal/pkg/logger"
)

const (
	publishRetryAttempts = 3
	publishRetryWait     = 250 * time.Millisecond
)

// Publisher publishes moderation and newsletter events to JetStream
type Publisher struct {
	nc     *nats.Conn
	js     nats.JetStreamContext
	logger *logger.Logger
}

// NewPublisher connects to NATS and makes sure every stream the API publishes to exists
func NewPublisher(cfg *config.Config, log *logger.Logger) (*Publisher, error) {
	nc, err := Connect(cfg.NATS.URL, "estate-api", log)
	if err != nil {
		return nil, err
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	streams := NewStreamConfig(js, log)
	for _, spec := range []StreamSpec{ModerationStream, NewsletterStream} {
		if err := streams.EnsureStream(spec); err != nil {
			nc.Close()
			return nil, err
		}
	}

	return &Publisher{
		nc:     nc,
		js:     js,
		logger: log.Component("publisher"),
	}, nil
}

// messageID derives the JetStream deduplication id from the payload. Events carry a
// nanosecond timestamp, so only a retried publish of the same event collapses.
func messageID(subject string, data []byte) string {
	sum := sha256.Sum256(append([]byte(subject+"\x00"), data...))
	return hex.EncodeToString(sum[:16])
}

// Publish stores data on subject and waits for the stream ack. Publishing is retried
// while the stream is unavailable, such as during a server restart.
func (p *Publisher) Publish(ctx context.Context, subject string, data []byte) error {
	pubAck, err := p.js.Publish(subject, data,
		nats.Context(ctx),
		nats.MsgId(messageID(subject, data)),
		nats.RetryAttempts(publishRetryAttempts),
		nats.RetryWait(publishRetryWait),
	)
	if err != nil {
		p.logger.With("subject", subject).Error("Failed to publish message to JetStream", err)
		return fmt.Errorf("failed to publish to JetStream: %w", err)
	}

	if pubAck.Duplicate {
		p.logger.Debugf("Duplicate publish on %s dropped by stream %s", subject, pubAck.Stream)
		return nil
	}

	p.logger.WithFields(map[string]interface{}{
		"subject":  subject,
		"stream":   pubAck.Stream,
		"sequence": pubAck.Sequence,
	}).Debug("Published message to JetStream")

	return nil
}

// Close drains pending acks and closes the NATS connection
func (p *Publisher) Close() {
	if p.nc == nil {
		return
	}
	if err := p.nc.Drain(); err != nil {
		p.logger.Warnf("Failed to drain NATS connection: %v", err)
		p.nc.Close()
	}
	p.logger.Info("NATS publisher connection closed")
}

// NopPublisher drops every event. Used when NATS is unavailable.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, []byte) error { return nil }
