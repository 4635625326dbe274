package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Subscriber is a newsletter subscription. Unsubscribing keeps the row and clears IsActive.
type Subscriber struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	Email          string     `json:"email" db:"email"`
	Name           *string    `json:"name,omitempty" db:"name"`
	Source         string     `json:"source" db:"source"`
	IsActive       bool       `json:"is_active" db:"is_active"`
	IPAddress      *string    `json:"-" db:"ip_address"`
	UserAgent      *string    `json:"-" db:"user_agent"`
	SubscribedAt   time.Time  `json:"subscribed_at" db:"subscribed_at"`
	UnsubscribedAt *time.Time `json:"unsubscribed_at,omitempty" db:"unsubscribed_at"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
}

// Newsletter activity actions
const (
	ActivitySubscribed   = "subscribed"
	ActivityResubscribed = "resubscribed"
	ActivityUnsubscribed = "unsubscribed"
)

// SubscriberActivity is an audit row for subscription changes
type SubscriberActivity struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	Action    string    `json:"action" db:"action"`
	Details   *string   `json:"details,omitempty" db:"details"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// SubscriberRepository defines the interface for newsletter data access
type SubscriberRepository interface {
	Create(ctx context.Context, sub *Subscriber) error
	GetByEmail(ctx context.Context, email string) (*Subscriber, error)

	// Update writes name, source, activity flag and timestamps
	Update(ctx context.Context, sub *Subscriber) error

	// ListActive returns active subscribers, most recent first. limit <= 0 returns all.
	ListActive(ctx context.Context, limit, offset int) ([]*Subscriber, error)
	CountByActive(ctx context.Context, active bool) (int, error)
	LogActivity(ctx context.Context, activity *SubscriberActivity) error
}
