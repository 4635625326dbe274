package events

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/jglobalproperties/estate_api/internal/config"
	"github.com/jglobalproperties/estate_api/internal/domain"
	"github.com/jglobalproperties/estate_api/internal/pkg/logger"
)

// NotifierQueue is the queue group shared by notifier replicas, so each event is handled once
const NotifierQueue = "estate-notifier"

// Handler processes one message
type Handler func(subject string, data []byte) error

// Consumer handles core NATS queue subscriptions
type Consumer struct {
	nc     *nats.Conn
	queue  string
	logger *logger.Logger
	subs   []*nats.Subscription
}

// NewConsumer connects to NATS. Subscriptions join the NotifierQueue group.
func NewConsumer(cfg *config.Config, log *logger.Logger) (*Consumer, error) {
	nc, err := Connect(cfg.NATS.URL, "estate-notifier", log)
	if err != nil {
		return nil, err
	}

	return &Consumer{
		nc:     nc,
		queue:  NotifierQueue,
		logger: log.Component("consumer"),
	}, nil
}

// Subscribe delivers every message on subject to handler. Handler errors are logged.
func (c *Consumer) Subscribe(subject string, handler Handler) error {
	sub, err := c.nc.QueueSubscribe(subject, c.queue, func(msg *nats.Msg) {
		if err := handler(msg.Subject, msg.Data); err != nil {
			c.logger.Errorf(err, "Failed to handle message on subject %s", msg.Subject)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to subject %s: %w", subject, err)
	}

	c.subs = append(c.subs, sub)
	c.logger.WithFields(map[string]interface{}{
		"subject": subject,
		"queue":   c.queue,
	}).Info("Subscribed to NATS subject")
	return nil
}

// Close unsubscribes everything and closes the NATS connection
func (c *Consumer) Close() {
	for _, sub := range c.subs {
		if err := sub.Unsubscribe(); err != nil {
			c.logger.Warnf("Failed to unsubscribe from %s: %v", sub.Subject, err)
		}
	}
	if c.nc != nil {
		c.nc.Close()
		c.logger.Info("NATS consumer connection closed")
	}
}

// LoggingHandler logs moderation and newsletter events as structured entries.
// Payloads on other subjects are logged as raw JSON.
func LoggingHandler(log *logger.Logger) Handler {
	return func(subject string, data []byte) error {
		switch subject {
		case SubjectModeration:
			var event domain.ModerationEvent
			if err := json.Unmarshal(data, &event); err != nil {
				return fmt.Errorf("invalid moderation event: %w", err)
			}
			log.WithFields(map[string]interface{}{
				"type":   event.Type,
				"item":   event.ItemID,
				"parent": event.ParentKind + ":" + event.ParentID.String(),
				"from":   event.From,
				"to":     event.To,
			}).Info("Moderation event")

		case SubjectNewsletter:
			var event domain.NewsletterEvent
			if err := json.Unmarshal(data, &event); err != nil {
				return fmt.Errorf("invalid newsletter event: %w", err)
			}
			log.WithFields(map[string]interface{}{
				"type":   event.Type,
				"email":  event.Email,
				"source": event.Source,
			}).Info("Newsletter event")

		default:
			if !json.Valid(data) {
				return fmt.Errorf("invalid event on %s", subject)
			}
			log.With("subject", subject).Infof("Event: %s", data)
		}
		return nil
	}
}
