package moderation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/jglobalproperties/estate_api/internal/domain"
	"github.com/jglobalproperties/estate_api/internal/pkg/logger"
)

type fixture struct {
	reviews   *MockReviewRepository
	comments  *MockCommentRepository
	listings  *MockListingRepository
	blogs     *MockBlogRepository
	cache     *MockReviewCache
	publisher *MockPublisher
	engine    *Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		reviews:   new(MockReviewRepository),
		comments:  new(MockCommentRepository),
		listings:  new(MockListingRepository),
		blogs:     new(MockBlogRepository),
		cache:     new(MockReviewCache),
		publisher: new(MockPublisher),
	}
	f.publisher.On("Publish", mock.Anything, domain.SubjectModeration, mock.Anything).Return(nil).Maybe()
	f.cache.On("InvalidateListing", mock.Anything, mock.Anything).Return(nil).Maybe()

	f.engine = NewEngine(
		f.reviews, f.comments, f.listings, f.blogs, f.cache, f.publisher,
		logger.New("test"),
		WithRetryPolicy(RetryPolicy{Attempts: 3, InitialBackoff: time.Millisecond}),
	)
	return f
}

func (f *fixture) assertExpectations(t *testing.T) {
	t.Helper()
	f.engine.Wait()
	f.reviews.AssertExpectations(t)
	f.comments.AssertExpectations(t)
	f.listings.AssertExpectations(t)
	f.blogs.AssertExpectations(t)
	f.cache.AssertExpectations(t)
	f.publisher.AssertExpectations(t)
}

func ptr[T any](v T) *T {
	return &v
}

func newReview(ref domain.ParentRef, status domain.ModerationStatus, rating int) *domain.Review {
	r := &domain.Review{
		ID:      uuid.New(),
		Name:    "Reviewer",
		Email:   "reviewer@example.com",
		Rating:  rating,
		Comment: "Nice place",
		Status:  status,
	}
	r.SetParent(ref)
	return r
}

func withStatus(r *domain.Review, status domain.ModerationStatus) *domain.Review {
	cp := *r
	cp.Status = status
	return &cp
}

// memListings is an in-memory listing aggregate store with real version semantics
type memListings struct {
	domain.ListingRepository

	mu     sync.Mutex
	aggs   map[domain.ParentRef]domain.RatingAggregate
	writes int
}

func newMemListings(refs ...domain.ParentRef) *memListings {
	m := &memListings{aggs: map[domain.ParentRef]domain.RatingAggregate{}}
	for _, ref := range refs {
		m.aggs[ref] = domain.RatingAggregate{Version: 1}
	}
	return m
}

func (m *memListings) Exists(_ context.Context, ref domain.ParentRef) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.aggs[ref]
	return ok, nil
}

func (m *memListings) GetAggregate(_ context.Context, ref domain.ParentRef) (*domain.RatingAggregate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	agg, ok := m.aggs[ref]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &agg, nil
}

func (m *memListings) UpdateAggregate(_ context.Context, ref domain.ParentRef, agg domain.RatingAggregate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.aggs[ref]
	if !ok {
		return domain.ErrNotFound
	}
	if current.Version != agg.Version {
		return domain.ErrConflict
	}
	agg.Version++
	m.aggs[ref] = agg
	m.writes++
	return nil
}

func (m *memListings) get(ref domain.ParentRef) domain.RatingAggregate {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.aggs[ref]
}
