package postgres

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/jglobalproperties/estate_api/internal/domain"
)

const subscriberColumns = `id, email, name, source, is_active, ip_address, user_agent, subscribed_at, unsubscribed_at, created_at`

// SubscriberRepository implements domain.SubscriberRepository for PostgreSQL
type SubscriberRepository struct {
	db *sqlx.DB
}

// NewSubscriberRepository creates a new PostgreSQL newsletter repository
func NewSubscriberRepository(db *sqlx.DB) *SubscriberRepository {
	return &SubscriberRepository{db: db}
}

// Create inserts a subscriber
func (r *SubscriberRepository) Create(ctx context.Context, sub *domain.Subscriber) error {
	query := `
		INSERT INTO newsletter_subscribers (email, name, source, is_active, ip_address, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, subscribed_at, created_at
	`

	sub.Email = strings.ToLower(sub.Email)
	err := r.db.QueryRowxContext(ctx, query,
		sub.Email,
		sub.Name,
		sub.Source,
		sub.IsActive,
		sub.IPAddress,
		sub.UserAgent,
	).Scan(&sub.ID, &sub.SubscribedAt, &sub.CreatedAt)
	return translate(err)
}

// GetByEmail retrieves a subscriber by email, case-insensitively
func (r *SubscriberRepository) GetByEmail(ctx context.Context, email string) (*domain.Subscriber, error) {
	var sub domain.Subscriber
	query := `SELECT ` + subscriberColumns + ` FROM newsletter_subscribers WHERE email = $1`
	if err := r.db.GetContext(ctx, &sub, query, strings.ToLower(email)); err != nil {
		return nil, translate(err)
	}
	return &sub, nil
}

// Update writes name, source, activity flag and timestamps
func (r *SubscriberRepository) Update(ctx context.Context, sub *domain.Subscriber) error {
	query := `
		UPDATE newsletter_subscribers
		SET name = $1, source = $2, is_active = $3, subscribed_at = $4, unsubscribed_at = $5,
		    ip_address = $6, user_agent = $7
		WHERE id = $8
	`

	result, err := r.db.ExecContext(ctx, query,
		sub.Name,
		sub.Source,
		sub.IsActive,
		sub.SubscribedAt,
		sub.UnsubscribedAt,
		sub.IPAddress,
		sub.UserAgent,
		sub.ID,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListActive returns active subscribers, most recent first
func (r *SubscriberRepository) ListActive(ctx context.Context, limit, offset int) ([]*domain.Subscriber, error) {
	query := `SELECT ` + subscriberColumns + ` FROM newsletter_subscribers WHERE is_active = TRUE ORDER BY subscribed_at DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT $1 OFFSET $2`
		args = append(args, limit, offset)
	}

	subs := []*domain.Subscriber{}
	if err := r.db.SelectContext(ctx, &subs, query, args...); err != nil {
		return nil, err
	}
	return subs, nil
}

// CountByActive counts subscribers with the given activity flag
func (r *SubscriberRepository) CountByActive(ctx context.Context, active bool) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM newsletter_subscribers WHERE is_active = $1`, active); err != nil {
		return 0, err
	}
	return count, nil
}

// LogActivity appends an audit row
func (r *SubscriberRepository) LogActivity(ctx context.Context, activity *domain.SubscriberActivity) error {
	query := `
		INSERT INTO newsletter_activities (email, action, details)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	return r.db.QueryRowxContext(ctx, query, strings.ToLower(activity.Email), activity.Action, activity.Details).
		Scan(&activity.ID, &activity.CreatedAt)
}
