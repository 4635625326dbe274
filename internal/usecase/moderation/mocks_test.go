package moderation

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/jglobalproperties/estate_api/internal/domain"
)

type MockReviewRepository struct {
	mock.Mock
}

func (m *MockReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	args := m.Called(ctx, review)
	if args.Error(0) == nil {
		review.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *MockReviewRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *MockReviewRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Review, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Review), args.Error(1)
}

func (m *MockReviewRepository) List(ctx context.Context, filter domain.ReviewFilter) ([]*domain.Review, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Review), args.Error(1)
}

func (m *MockReviewRepository) Count(ctx context.Context, filter domain.ReviewFilter) (int, error) {
	args := m.Called(ctx, filter)
	return args.Int(0), args.Error(1)
}

func (m *MockReviewRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ModerationStatus) (*domain.Review, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *MockReviewRepository) UpdateStatusBulk(ctx context.Context, ids []uuid.UUID, status domain.ModerationStatus) (int64, error) {
	args := m.Called(ctx, ids, status)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockReviewRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockReviewRepository) ApprovedRatings(ctx context.Context, parent domain.ParentRef) ([]int, error) {
	args := m.Called(ctx, parent)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int), args.Error(1)
}

func (m *MockReviewRepository) CountsByStatus(ctx context.Context, parent domain.ParentRef) (map[domain.ModerationStatus]int, error) {
	args := m.Called(ctx, parent)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[domain.ModerationStatus]int), args.Error(1)
}

func (m *MockReviewRepository) ApprovedHistogram(ctx context.Context, parent domain.ParentRef) (map[int]int, error) {
	args := m.Called(ctx, parent)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int]int), args.Error(1)
}

type MockCommentRepository struct {
	mock.Mock
}

func (m *MockCommentRepository) Create(ctx context.Context, comment *domain.BlogComment) error {
	args := m.Called(ctx, comment)
	if args.Error(0) == nil {
		comment.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *MockCommentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.BlogComment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BlogComment), args.Error(1)
}

func (m *MockCommentRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.BlogComment, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.BlogComment), args.Error(1)
}

func (m *MockCommentRepository) ListByBlog(ctx context.Context, blogID uuid.UUID, status domain.ModerationStatus, limit, offset int) ([]*domain.BlogComment, error) {
	args := m.Called(ctx, blogID, status, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.BlogComment), args.Error(1)
}

func (m *MockCommentRepository) CountByBlog(ctx context.Context, blogID uuid.UUID, status domain.ModerationStatus) (int, error) {
	args := m.Called(ctx, blogID, status)
	return args.Int(0), args.Error(1)
}

func (m *MockCommentRepository) ListByStatus(ctx context.Context, status domain.ModerationStatus, limit, offset int) ([]*domain.BlogComment, error) {
	args := m.Called(ctx, status, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.BlogComment), args.Error(1)
}

func (m *MockCommentRepository) CountByStatus(ctx context.Context, status domain.ModerationStatus) (int, error) {
	args := m.Called(ctx, status)
	return args.Int(0), args.Error(1)
}

func (m *MockCommentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ModerationStatus) (*domain.BlogComment, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BlogComment), args.Error(1)
}

func (m *MockCommentRepository) UpdateStatusBulk(ctx context.Context, ids []uuid.UUID, status domain.ModerationStatus) (int64, error) {
	args := m.Called(ctx, ids, status)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCommentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

// MockListingRepository mocks only the listing methods the engine calls
type MockListingRepository struct {
	mock.Mock
	domain.ListingRepository
}

func (m *MockListingRepository) Exists(ctx context.Context, ref domain.ParentRef) (bool, error) {
	args := m.Called(ctx, ref)
	return args.Bool(0), args.Error(1)
}

func (m *MockListingRepository) GetAggregate(ctx context.Context, ref domain.ParentRef) (*domain.RatingAggregate, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RatingAggregate), args.Error(1)
}

func (m *MockListingRepository) UpdateAggregate(ctx context.Context, ref domain.ParentRef, agg domain.RatingAggregate) error {
	return m.Called(ctx, ref, agg).Error(0)
}

// MockBlogRepository mocks only the blog methods the engine calls
type MockBlogRepository struct {
	mock.Mock
	domain.BlogRepository
}

func (m *MockBlogRepository) IsPublished(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockBlogRepository) GetCommentAggregate(ctx context.Context, id uuid.UUID) (*domain.CommentAggregate, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CommentAggregate), args.Error(1)
}

func (m *MockBlogRepository) UpdateCommentAggregate(ctx context.Context, id uuid.UUID, agg domain.CommentAggregate) error {
	return m.Called(ctx, id, agg).Error(0)
}

type MockReviewCache struct {
	mock.Mock
}

func (m *MockReviewCache) GetListingReviews(ctx context.Context, ref domain.ParentRef, status domain.ModerationStatus, limit int) (*domain.ListingReviews, error) {
	args := m.Called(ctx, ref, status, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ListingReviews), args.Error(1)
}

func (m *MockReviewCache) SetListingReviews(ctx context.Context, ref domain.ParentRef, status domain.ModerationStatus, limit int, page *domain.ListingReviews) error {
	return m.Called(ctx, ref, status, limit, page).Error(0)
}

func (m *MockReviewCache) InvalidateListing(ctx context.Context, ref domain.ParentRef) error {
	return m.Called(ctx, ref).Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, subject string, data []byte) error {
	return m.Called(ctx, subject, data).Error(0)
}
