package moderation

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jglobalproperties/estate_api/internal/domain"
	"github.com/jglobalproperties/estate_api/internal/pkg/logger"
)

func engineWithListings(f *fixture, listings domain.ListingRepository) *Engine {
	return NewEngine(
		f.reviews, f.comments, listings, f.blogs, f.cache, f.publisher,
		logger.New("test"),
		WithRetryPolicy(RetryPolicy{Attempts: 3, InitialBackoff: time.Millisecond}),
	)
}

func repeat(rating, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = rating
	}
	return out
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name      string
		ratings   []int
		wantCount int
		wantMean  *float64
	}{
		{"none", nil, 0, nil},
		{"single", []int{4}, 1, ptr(4.0)},
		{"rounds up", []int{5, 5, 4}, 3, ptr(4.7)},
		{"rounds down", []int{5, 4, 4}, 3, ptr(4.3)},
		{"half goes up", []int{1, 2, 2, 2}, 4, ptr(1.8)},
		{"even", []int{5, 4, 3, 2}, 4, ptr(3.5)},
		// 23/20 = 1.15 rounds half away from zero, as ROUND(1.15::numeric, 1) does
		{"hundredths half goes up", append(repeat(1, 17), 2, 2, 2), 20, ptr(1.2)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			count, mean := summarize(tt.ratings)
			assert.Equal(t, tt.wantCount, count)
			if tt.wantMean == nil {
				assert.Nil(t, mean)
				return
			}
			require.NotNil(t, mean)
			assert.InDelta(t, *tt.wantMean, *mean, 1e-9)
		})
	}
}

func TestRecomputeListingAggregate_MatchesApprovedRows(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	statuses := []domain.ModerationStatus{domain.StatusPending, domain.StatusApproved, domain.StatusRejected}

	for i := 0; i < 50; i++ {
		f := newFixture(t)
		ref := domain.HouseRef(uuid.New())
		listings := newMemListings(ref)
		engine := engineWithListings(f, listings)

		var approved []int
		for n := rng.Intn(12); n > 0; n-- {
			rating := rng.Intn(5) + 1
			if statuses[rng.Intn(len(statuses))] == domain.StatusApproved {
				approved = append(approved, rating)
			}
		}
		f.reviews.On("ApprovedRatings", mock.Anything, ref).Return(approved, nil)

		require.NoError(t, engine.RecomputeListingAggregate(context.Background(), ref))

		got := listings.get(ref)
		assert.Equal(t, len(approved), got.TotalReviews)
		if len(approved) == 0 {
			assert.Nil(t, got.AverageRating)
			continue
		}
		sum := 0
		for _, r := range approved {
			sum += r
		}
		want := math.Round(float64(sum)/float64(len(approved))*10) / 10
		require.NotNil(t, got.AverageRating)
		assert.InDelta(t, want, *got.AverageRating, 1e-9)
	}
}

func TestRecomputeListingAggregate_Scenario(t *testing.T) {
	f := newFixture(t)
	ref := domain.LandRef(uuid.New())
	listings := newMemListings(ref)
	engine := engineWithListings(f, listings)
	ctx := context.Background()

	// [5,4,3] approved, one pending and one rejected row excluded by the repository
	f.reviews.On("ApprovedRatings", mock.Anything, ref).Return([]int{5, 4, 3}, nil).Once()
	require.NoError(t, engine.RecomputeListingAggregate(ctx, ref))

	got := listings.get(ref)
	assert.Equal(t, 3, got.TotalReviews)
	require.NotNil(t, got.AverageRating)
	assert.Equal(t, 4.0, *got.AverageRating)

	// approving a fourth review rated 2
	f.reviews.On("ApprovedRatings", mock.Anything, ref).Return([]int{5, 4, 3, 2}, nil).Once()
	require.NoError(t, engine.RecomputeListingAggregate(ctx, ref))

	got = listings.get(ref)
	assert.Equal(t, 4, got.TotalReviews)
	assert.Equal(t, 3.5, *got.AverageRating)
}

func TestRecomputeListingAggregate_Idempotent(t *testing.T) {
	f := newFixture(t)
	ref := domain.HouseRef(uuid.New())
	listings := newMemListings(ref)
	engine := engineWithListings(f, listings)
	ctx := context.Background()

	f.reviews.On("ApprovedRatings", mock.Anything, ref).Return([]int{5, 5, 4}, nil)

	require.NoError(t, engine.RecomputeListingAggregate(ctx, ref))
	first := listings.get(ref)

	require.NoError(t, engine.RecomputeListingAggregate(ctx, ref))
	second := listings.get(ref)

	assert.Equal(t, first.TotalReviews, second.TotalReviews)
	assert.Equal(t, *first.AverageRating, *second.AverageRating)
	assert.Equal(t, 1, listings.writes, "unchanged values are not rewritten")
}

func TestRecomputeListingAggregate_RetriesOnConflict(t *testing.T) {
	f := newFixture(t)
	ref := domain.HouseRef(uuid.New())
	ctx := context.Background()

	f.listings.On("GetAggregate", mock.Anything, ref).Return(&domain.RatingAggregate{Version: 1}, nil).Once()
	f.listings.On("GetAggregate", mock.Anything, ref).Return(&domain.RatingAggregate{Version: 2}, nil).Once()
	f.reviews.On("ApprovedRatings", mock.Anything, ref).Return([]int{4}, nil).Twice()
	f.listings.On("UpdateAggregate", mock.Anything, ref, domain.RatingAggregate{AverageRating: ptr(4.0), TotalReviews: 1, Version: 1}).
		Return(domain.ErrConflict).Once()
	f.listings.On("UpdateAggregate", mock.Anything, ref, domain.RatingAggregate{AverageRating: ptr(4.0), TotalReviews: 1, Version: 2}).
		Return(nil).Once()

	err := f.engine.RecomputeListingAggregate(ctx, ref)

	assert.NoError(t, err)
	f.assertExpectations(t)
}

func TestRecomputeListingAggregate_GivesUpAfterAttempts(t *testing.T) {
	f := newFixture(t)
	ref := domain.HouseRef(uuid.New())

	f.listings.On("GetAggregate", mock.Anything, ref).Return(&domain.RatingAggregate{Version: 1}, nil)
	f.reviews.On("ApprovedRatings", mock.Anything, ref).Return([]int{3}, nil)
	f.listings.On("UpdateAggregate", mock.Anything, ref, mock.Anything).Return(domain.ErrConflict)

	err := f.engine.RecomputeListingAggregate(context.Background(), ref)

	assert.ErrorIs(t, err, domain.ErrConflict)
	f.listings.AssertNumberOfCalls(t, "UpdateAggregate", 3)
}

func TestRecomputeListingAggregate_MissingListingIsNoop(t *testing.T) {
	f := newFixture(t)
	ref := domain.LandRef(uuid.New())

	f.listings.On("GetAggregate", mock.Anything, ref).Return(nil, domain.ErrNotFound)

	err := f.engine.RecomputeListingAggregate(context.Background(), ref)

	assert.NoError(t, err)
	f.listings.AssertNotCalled(t, "UpdateAggregate", mock.Anything, mock.Anything, mock.Anything)
	f.assertExpectations(t)
}

func TestRecomputeListingAggregate_ListingDeletedMidway(t *testing.T) {
	f := newFixture(t)
	ref := domain.LandRef(uuid.New())

	f.listings.On("GetAggregate", mock.Anything, ref).Return(&domain.RatingAggregate{Version: 4}, nil)
	f.reviews.On("ApprovedRatings", mock.Anything, ref).Return([]int{5}, nil)
	f.listings.On("UpdateAggregate", mock.Anything, ref, mock.Anything).Return(domain.ErrNotFound)

	assert.NoError(t, f.engine.RecomputeListingAggregate(context.Background(), ref))
}

func TestRecomputeListingAggregate_StorageErrorPropagates(t *testing.T) {
	f := newFixture(t)
	ref := domain.LandRef(uuid.New())
	boom := errors.New("connection reset")

	f.listings.On("GetAggregate", mock.Anything, ref).Return(&domain.RatingAggregate{Version: 1}, nil)
	f.reviews.On("ApprovedRatings", mock.Anything, ref).Return(nil, boom)

	err := f.engine.RecomputeListingAggregate(context.Background(), ref)

	assert.ErrorIs(t, err, boom)
	f.reviews.AssertNumberOfCalls(t, "ApprovedRatings", 1)
}

func TestRecomputeBlogAggregate(t *testing.T) {
	f := newFixture(t)
	blogID := uuid.New()

	f.blogs.On("GetCommentAggregate", mock.Anything, blogID).Return(&domain.CommentAggregate{TotalComments: 2, Version: 5}, nil)
	f.comments.On("CountByBlog", mock.Anything, blogID, domain.StatusApproved).Return(3, nil)
	f.blogs.On("UpdateCommentAggregate", mock.Anything, blogID, domain.CommentAggregate{TotalComments: 3, Version: 5}).Return(nil)

	assert.NoError(t, f.engine.RecomputeBlogAggregate(context.Background(), blogID))
	f.assertExpectations(t)
}

func TestRecomputeBlogAggregate_UnchangedSkipsWrite(t *testing.T) {
	f := newFixture(t)
	blogID := uuid.New()

	f.blogs.On("GetCommentAggregate", mock.Anything, blogID).Return(&domain.CommentAggregate{TotalComments: 3, Version: 5}, nil)
	f.comments.On("CountByBlog", mock.Anything, blogID, domain.StatusApproved).Return(3, nil)

	assert.NoError(t, f.engine.RecomputeBlogAggregate(context.Background(), blogID))
	f.blogs.AssertNotCalled(t, "UpdateCommentAggregate", mock.Anything, mock.Anything, mock.Anything)
}

func TestRecomputeBlogAggregate_MissingBlogIsNoop(t *testing.T) {
	f := newFixture(t)
	blogID := uuid.New()

	f.blogs.On("GetCommentAggregate", mock.Anything, blogID).Return(nil, domain.ErrNotFound)

	assert.NoError(t, f.engine.RecomputeBlogAggregate(context.Background(), blogID))
}

func TestWithConflictRetry_StopsOnContextCancel(t *testing.T) {
	f := newFixture(t)
	engine := NewEngine(f.reviews, f.comments, f.listings, f.blogs, f.cache, f.publisher, logger.New("test"),
		WithRetryPolicy(RetryPolicy{Attempts: 3, InitialBackoff: time.Hour}))

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := engine.withConflictRetry(ctx, func() error {
		calls++
		cancel()
		return domain.ErrConflict
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
