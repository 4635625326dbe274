package moderation

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/jglobalproperties/estate_api/internal/domain"
)

// roundRating rounds half away from zero to one decimal place
func roundRating(v float64) float64 {
	return math.Round(v*10) / 10
}

// summarize returns the number of ratings and their rounded mean, nil when there are none
func summarize(ratings []int) (int, *float64) {
	if len(ratings) == 0 {
		return 0, nil
	}

	sum := 0
	for _, r := range ratings {
		sum += r
	}

	mean := roundRating(float64(sum) / float64(len(ratings)))
	return len(ratings), &mean
}

func sameAverage(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// withConflictRetry runs fn until it succeeds, fails with something other than
// domain.ErrConflict, or the policy runs out of attempts
func (e *Engine) withConflictRetry(ctx context.Context, fn func() error) error {
	var err error
	backoff := e.retry.InitialBackoff

	for attempt := 0; attempt < e.retry.Attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff *= 2
		}

		err = fn()
		if !errors.Is(err, domain.ErrConflict) {
			return err
		}

		e.logger.WithFields(map[string]interface{}{
			"attempt": attempt + 1,
		}).Debug("Aggregate version moved, retrying")
	}

	return err
}

// RecomputeListingAggregate recounts the approved reviews of a listing and stores
// their count and rounded mean on it. A missing listing is a no-op.
func (e *Engine) RecomputeListingAggregate(ctx context.Context, ref domain.ParentRef) error {
	err := e.withConflictRetry(ctx, func() error {
		current, err := e.listings.GetAggregate(ctx, ref)
		if err != nil {
			return err
		}

		ratings, err := e.reviews.ApprovedRatings(ctx, ref)
		if err != nil {
			return err
		}

		count, mean := summarize(ratings)
		if count == current.TotalReviews && sameAverage(mean, current.AverageRating) {
			return nil
		}

		return e.listings.UpdateAggregate(ctx, ref, domain.RatingAggregate{
			AverageRating: mean,
			TotalReviews:  count,
			Version:       current.Version,
		})
	})

	if errors.Is(err, domain.ErrNotFound) {
		e.logger.Debugf("Skipping aggregate of missing listing %s", ref)
		return nil
	}
	if err != nil {
		e.logger.WithFields(map[string]interface{}{
			"parent": ref.String(),
		}).Error("Failed to recompute listing aggregate", err)
		return err
	}

	return nil
}

// RecomputeBlogAggregate recounts the approved comments of a blog. A missing blog is a no-op.
func (e *Engine) RecomputeBlogAggregate(ctx context.Context, blogID uuid.UUID) error {
	err := e.withConflictRetry(ctx, func() error {
		current, err := e.blogs.GetCommentAggregate(ctx, blogID)
		if err != nil {
			return err
		}

		count, err := e.comments.CountByBlog(ctx, blogID, domain.StatusApproved)
		if err != nil {
			return err
		}

		if count == current.TotalComments {
			return nil
		}

		return e.blogs.UpdateCommentAggregate(ctx, blogID, domain.CommentAggregate{
			TotalComments: count,
			Version:       current.Version,
		})
	})

	if errors.Is(err, domain.ErrNotFound) {
		e.logger.Debugf("Skipping aggregate of missing blog %s", blogID)
		return nil
	}
	if err != nil {
		e.logger.WithFields(map[string]interface{}{
			"blog_id": blogID,
		}).Error("Failed to recompute blog aggregate", err)
		return err
	}

	return nil
}
