// Package newsletter manages newsletter subscriptions
package newsletter

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/jglobalproperties/estate_api/internal/domain"
	"github.com/jglobalproperties/estate_api/internal/pkg/logger"
	"github.com/jglobalproperties/estate_api/internal/pkg/validator"
)

// DefaultSource is recorded when a subscription does not name where it came from
const DefaultSource = "homepage_modal"

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// SubscribeInput is a subscription request. IP address and user agent are filled in by the transport.
type SubscribeInput struct {
	Email     string `json:"email" validate:"required,email,max=255"`
	Name      string `json:"name" validate:"max=100"`
	Source    string `json:"source" validate:"max=50"`
	IPAddress string `json:"-"`
	UserAgent string `json:"-"`
}

// UnsubscribeInput is an unsubscription request
type UnsubscribeInput struct {
	Email string `json:"email" validate:"required,email"`
}

// Stats counts subscribers by state
type Stats struct {
	Active   int `json:"active"`
	Inactive int `json:"inactive"`
	Total    int `json:"total"`
}

// Service handles newsletter subscriptions
type Service struct {
	repo      domain.SubscriberRepository
	publisher EventPublisher
	logger    *logger.Logger
	now       func() time.Time

	inflight sync.WaitGroup
}

// NewService creates a new newsletter service
func NewService(repo domain.SubscriberRepository, publisher EventPublisher, log *logger.Logger) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		logger:    log.Component("newsletter"),
		now:       time.Now,
	}
}

// Subscribe creates a subscription or reactivates a lapsed one.
// It returns true when an inactive subscription was reactivated.
func (s *Service) Subscribe(ctx context.Context, in SubscribeInput) (bool, error) {
	if err := validator.Struct(in); err != nil {
		return false, err
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	source := strings.TrimSpace(in.Source)

	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		s.logger.Error("Failed to look up subscriber", err)
		return false, err
	}

	if existing != nil {
		if existing.IsActive {
			return false, fmt.Errorf("email is already subscribed: %w", domain.ErrAlreadyExists)
		}

		if in.Name != "" {
			existing.Name = &in.Name
		}
		if source != "" {
			existing.Source = source
		}
		existing.IsActive = true
		existing.SubscribedAt = s.now().UTC()
		existing.UnsubscribedAt = nil
		existing.IPAddress = optional(in.IPAddress)
		existing.UserAgent = optional(in.UserAgent)

		if err := s.repo.Update(ctx, existing); err != nil {
			s.logger.Error("Failed to reactivate subscriber", err)
			return false, err
		}

		s.record(ctx, email, domain.ActivityResubscribed, fmt.Sprintf("Resubscribed from %s", orDefault(source, "unknown")))
		s.publish(domain.EventResubscribed, email, existing.Source)
		s.logger.Infof("Reactivated subscription: %s", email)
		return true, nil
	}

	if source == "" {
		source = DefaultSource
	}
	sub := &domain.Subscriber{
		Email:     email,
		Name:      optional(in.Name),
		Source:    source,
		IsActive:  true,
		IPAddress: optional(in.IPAddress),
		UserAgent: optional(in.UserAgent),
	}
	if err := s.repo.Create(ctx, sub); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return false, fmt.Errorf("email is already subscribed: %w", err)
		}
		s.logger.Error("Failed to create subscriber", err)
		return false, err
	}

	s.record(ctx, email, domain.ActivitySubscribed, fmt.Sprintf("Subscribed from %s", source))
	s.publish(domain.EventSubscribed, email, source)
	s.logger.Infof("New subscription: %s", email)
	return false, nil
}

// Unsubscribe deactivates a subscription. It returns false when it was already inactive.
func (s *Service) Unsubscribe(ctx context.Context, in UnsubscribeInput) (bool, error) {
	if err := validator.Struct(in); err != nil {
		return false, err
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))

	sub, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Debugf("Unsubscribe for unknown email")
		} else {
			s.logger.Error("Failed to look up subscriber", err)
		}
		return false, err
	}

	if !sub.IsActive {
		return false, nil
	}

	now := s.now().UTC()
	sub.IsActive = false
	sub.UnsubscribedAt = &now
	if err := s.repo.Update(ctx, sub); err != nil {
		s.logger.Error("Failed to deactivate subscriber", err)
		return false, err
	}

	s.record(ctx, email, domain.ActivityUnsubscribed, "")
	s.publish(domain.EventUnsubscribed, email, sub.Source)
	s.logger.Infof("Unsubscribed: %s", email)
	return true, nil
}

// Subscribers returns a page of active subscribers, newest first, with the active total and stats
func (s *Service) Subscribers(ctx context.Context, limit, offset int) ([]*domain.Subscriber, int, *Stats, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	subs, err := s.repo.ListActive(ctx, limit, offset)
	if err != nil {
		s.logger.Error("Failed to list subscribers", err)
		return nil, 0, nil, err
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		return nil, 0, nil, err
	}

	return subs, stats.Active, stats, nil
}

// Stats counts active and inactive subscribers
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	active, err := s.repo.CountByActive(ctx, true)
	if err != nil {
		s.logger.Error("Failed to count active subscribers", err)
		return nil, err
	}
	inactive, err := s.repo.CountByActive(ctx, false)
	if err != nil {
		s.logger.Error("Failed to count inactive subscribers", err)
		return nil, err
	}
	return &Stats{Active: active, Inactive: inactive, Total: active + inactive}, nil
}

// ExportCSV writes every active subscriber to w as CSV with a header row
func (s *Service) ExportCSV(ctx context.Context, w io.Writer) (int, error) {
	subs, err := s.repo.ListActive(ctx, 0, 0)
	if err != nil {
		s.logger.Error("Failed to list subscribers for export", err)
		return 0, err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Email", "Name", "Subscribed At", "Source"}); err != nil {
		return 0, err
	}
	for _, sub := range subs {
		name := ""
		if sub.Name != nil {
			name = *sub.Name
		}
		record := []string{sub.Email, name, sub.SubscribedAt.UTC().Format(time.RFC3339), sub.Source}
		if err := cw.Write(record); err != nil {
			return 0, err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, err
	}

	s.logger.Infof("Exported %d subscribers", len(subs))
	return len(subs), nil
}

// Wait blocks until every published event has been handed to the broker
func (s *Service) Wait() {
	s.inflight.Wait()
}

// record writes an audit row; failures are logged only
func (s *Service) record(ctx context.Context, email, action, details string) {
	activity := &domain.SubscriberActivity{Email: email, Action: action, Details: optional(details)}
	if err := s.repo.LogActivity(ctx, activity); err != nil {
		s.logger.Errorf(err, "Failed to log %s activity", action)
	}
}

func (s *Service) publish(eventType, email, source string) {
	data, err := json.Marshal(domain.NewsletterEvent{
		Type:      eventType,
		Timestamp: s.now().UTC(),
		Email:     email,
		Source:    source,
	})
	if err != nil {
		s.logger.Errorf(err, "Failed to marshal %s event", eventType)
		return
	}

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := s.publisher.Publish(ctx, domain.SubjectNewsletter, data); err != nil {
			s.logger.Errorf(err, "Failed to publish %s event", eventType)
		}
	}()
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
