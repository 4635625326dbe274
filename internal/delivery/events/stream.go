package events

import (
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/jglobalproperties/estate_api/internal/domain"
	"github.com/jglobalproperties/estate_api/internal/pkg/logger"
)

const (
	SubjectModeration = domain.SubjectModeration
	SubjectNewsletter = domain.SubjectNewsletter

	// ReconcilerConsumer is the durable consumer of the aggregate reconciler
	ReconcilerConsumer = "aggregate-reconciler"

	// MaxDeliveryAttempts is the max number of delivery attempts before discarding.
	// A dropped event is healed by the next event for the same parent or by the periodic sweep.
	MaxDeliveryAttempts = 3

	// AckWait is how long to wait for acknowledgment before redelivery
	AckWait = 30 * time.Second
)

// StreamSpec describes a JetStream stream owned by this service
type StreamSpec struct {
	Name        string
	Subject     string
	Retention   nats.RetentionPolicy
	MaxAge      time.Duration
	Description string
}

var (
	// ModerationStream is a work queue drained by the reconciler
	ModerationStream = StreamSpec{
		Name:        "MODERATION",
		Subject:     SubjectModeration,
		Retention:   nats.WorkQueuePolicy,
		MaxAge:      24 * time.Hour,
		Description: "Review and comment moderation events for aggregate reconciliation",
	}

	// NewsletterStream keeps a week of subscription changes
	NewsletterStream = StreamSpec{
		Name:        "NEWSLETTER",
		Subject:     SubjectNewsletter,
		Retention:   nats.LimitsPolicy,
		MaxAge:      7 * 24 * time.Hour,
		Description: "Newsletter subscription events",
	}
)

// StreamConfig holds the JetStream stream configuration
type StreamConfig struct {
	js     nats.JetStreamContext
	logger *logger.Logger
}

// NewStreamConfig creates a new stream configuration helper
func NewStreamConfig(js nats.JetStreamContext, log *logger.Logger) *StreamConfig {
	return &StreamConfig{
		js:     js,
		logger: log,
	}
}

// generateExponentialBackoff creates a backoff schedule for NATS redeliveries.
// MaxDeliver N requires N-1 backoff durations (first delivery is immediate).
func generateExponentialBackoff(maxDeliveryAttempts int) []time.Duration {
	if maxDeliveryAttempts <= 1 {
		return nil
	}

	backoff := make([]time.Duration, maxDeliveryAttempts-1)
	for i := range backoff {
		backoff[i] = time.Duration(1<<i) * time.Second
	}
	return backoff
}

// EnsureStream creates the stream if it does not exist yet
func (s *StreamConfig) EnsureStream(spec StreamSpec) error {
	stream, err := s.js.StreamInfo(spec.Name)

	if errors.Is(err, nats.ErrStreamNotFound) {
		s.logger.WithFields(map[string]any{
			"stream":   spec.Name,
			"subjects": spec.Subject,
		}).Info("Creating JetStream stream")

		_, err = s.js.AddStream(&nats.StreamConfig{
			Name:        spec.Name,
			Subjects:    []string{spec.Subject},
			Retention:   spec.Retention,
			Storage:     nats.FileStorage,
			Replicas:    1,
			MaxAge:      spec.MaxAge,
			Discard:     nats.DiscardOld,
			Description: spec.Description,
		})
		if err != nil {
			return fmt.Errorf("failed to create stream %s: %w", spec.Name, err)
		}

		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to get stream info: %w", err)
	}

	s.logger.WithFields(map[string]any{
		"stream":   stream.Config.Name,
		"messages": stream.State.Msgs,
		"bytes":    stream.State.Bytes,
	}).Debug("JetStream stream already exists")

	return nil
}

// EnsureReconcilerConsumer creates the durable pull consumer of the aggregate reconciler.
// Messages that fail MaxDeliveryAttempts times are dropped; recomputation reads current rows
// so the next event for the parent, or the periodic sweep, restores the aggregate.
func (s *StreamConfig) EnsureReconcilerConsumer() error {
	consumerInfo, err := s.js.ConsumerInfo(ModerationStream.Name, ReconcilerConsumer)

	if errors.Is(err, nats.ErrConsumerNotFound) {
		s.logger.WithFields(map[string]any{
			"stream":   ModerationStream.Name,
			"consumer": ReconcilerConsumer,
		}).Info("Creating JetStream consumer")

		_, err = s.js.AddConsumer(ModerationStream.Name, &nats.ConsumerConfig{
			Durable:       ReconcilerConsumer,
			AckPolicy:     nats.AckExplicitPolicy,
			AckWait:       AckWait,
			MaxDeliver:    MaxDeliveryAttempts,
			FilterSubject: SubjectModeration,
			BackOff:       generateExponentialBackoff(MaxDeliveryAttempts),
			Description:   "Aggregate reconciler for moderation events",
		})
		if err != nil {
			return fmt.Errorf("failed to create consumer: %w", err)
		}

		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to get consumer info: %w", err)
	}

	s.logger.WithFields(map[string]any{
		"consumer":    consumerInfo.Name,
		"pending":     consumerInfo.NumPending,
		"redelivered": consumerInfo.NumRedelivered,
		"ack_pending": consumerInfo.NumAckPending,
	}).Info("JetStream consumer already exists")

	return nil
}
