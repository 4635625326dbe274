// Package moderation owns the review and blog comment lifecycle and keeps the
// denormalized aggregates on listings and blogs in line with the approved rows.
package moderation

import (
	"context"
	"sync"
	"time"

	"github.com/jglobalproperties/estate_api/internal/domain"
	"github.com/jglobalproperties/estate_api/internal/pkg/logger"
)

const (
	defaultListingReviewsLimit = 50
	maxListingReviewsLimit     = 100
	defaultPageLimit           = 20
	maxPageLimit               = 100
)

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// ReviewCache caches the public review page of a listing
type ReviewCache interface {
	GetListingReviews(ctx context.Context, ref domain.ParentRef, status domain.ModerationStatus, limit int) (*domain.ListingReviews, error)
	SetListingReviews(ctx context.Context, ref domain.ParentRef, status domain.ModerationStatus, limit int, page *domain.ListingReviews) error
	InvalidateListing(ctx context.Context, ref domain.ParentRef) error
}

// RetryPolicy bounds the compare-and-set loop of aggregate writes
type RetryPolicy struct {
	Attempts       int
	InitialBackoff time.Duration
}

// DefaultRetryPolicy retries a conflicting aggregate write twice, waiting 100ms then 200ms
var DefaultRetryPolicy = RetryPolicy{Attempts: 3, InitialBackoff: 100 * time.Millisecond}

// Option configures an Engine
type Option func(*Engine)

// WithRetryPolicy overrides DefaultRetryPolicy
func WithRetryPolicy(p RetryPolicy) Option {
	return func(e *Engine) {
		e.retry = p
	}
}

// Engine moderates reviews and comments and recomputes parent aggregates
type Engine struct {
	reviews   domain.ReviewRepository
	comments  domain.CommentRepository
	listings  domain.ListingRepository
	blogs     domain.BlogRepository
	cache     ReviewCache
	publisher EventPublisher
	logger    *logger.Logger
	retry     RetryPolicy

	// in-flight event publications
	inflight sync.WaitGroup
}

// NewEngine creates a new moderation engine
func NewEngine(
	reviews domain.ReviewRepository,
	comments domain.CommentRepository,
	listings domain.ListingRepository,
	blogs domain.BlogRepository,
	cache ReviewCache,
	publisher EventPublisher,
	log *logger.Logger,
	opts ...Option,
) *Engine {
	e := &Engine{
		reviews:   reviews,
		comments:  comments,
		listings:  listings,
		blogs:     blogs,
		cache:     cache,
		publisher: publisher,
		logger:    log.Component("moderation"),
		retry:     DefaultRetryPolicy,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Wait blocks until every event published so far has been handed to the broker
func (e *Engine) Wait() {
	e.inflight.Wait()
}

func (e *Engine) invalidate(ctx context.Context, ref domain.ParentRef) {
	if err := e.cache.InvalidateListing(ctx, ref); err != nil {
		e.logger.Warnf("Failed to invalidate cache for %s: %v", ref, err)
	}
}

func clampPage(limit, offset, def, max int) (int, int) {
	if limit <= 0 {
		limit = def
	}
	if limit > max {
		limit = max
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
