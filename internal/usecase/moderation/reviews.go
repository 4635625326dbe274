package moderation

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jglobalproperties/estate_api/internal/domain"
	"github.com/jglobalproperties/estate_api/internal/pkg/validator"
)

// ReviewSubmission is a public review with its listing already resolved
type ReviewSubmission struct {
	Name    string           `json:"name" validate:"required,min=1,max=100"`
	Email   string           `json:"email" validate:"required,email"`
	Rating  int              `json:"rating" validate:"required,min=1,max=5"`
	Comment string           `json:"comment" validate:"required,min=1,max=5000"`
	Parent  domain.ParentRef `json:"-"`
}

// SubmitReview stores a new PENDING review. Aggregates are untouched since pending rows do not count.
func (e *Engine) SubmitReview(ctx context.Context, in ReviewSubmission) (*domain.Review, error) {
	if err := validator.Struct(in); err != nil {
		return nil, err
	}
	if in.Parent.IsZero() {
		return nil, fmt.Errorf("%w: either land_id or house_id must be provided", domain.ErrInvalidInput)
	}

	exists, err := e.listings.Exists(ctx, in.Parent)
	if err != nil {
		e.logger.Error("Failed to check listing", err)
		return nil, err
	}
	if !exists {
		e.logger.Debugf("Listing not found: %s", in.Parent)
		return nil, fmt.Errorf("%s %w", in.Parent.Kind, domain.ErrNotFound)
	}

	review := &domain.Review{
		Name:    in.Name,
		Email:   in.Email,
		Rating:  in.Rating,
		Comment: in.Comment,
		Status:  domain.StatusPending,
	}
	review.SetParent(in.Parent)

	if err := e.reviews.Create(ctx, review); err != nil {
		e.logger.Error("Failed to create review", err)
		return nil, err
	}

	e.invalidate(ctx, in.Parent)
	e.publish(reviewEvent(domain.EventReviewSubmitted, review, "", domain.StatusPending))

	e.logger.WithFields(map[string]interface{}{
		"review_id": review.ID,
		"parent":    in.Parent.String(),
		"rating":    review.Rating,
	}).Info("Review submitted")

	return review, nil
}

// GetReview retrieves a review by ID
func (e *Engine) GetReview(ctx context.Context, id uuid.UUID) (*domain.Review, error) {
	review, err := e.reviews.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			e.logger.Debugf("Review not found: %s", id)
		} else {
			e.logger.Error("Failed to get review", err)
		}
		return nil, err
	}
	return review, nil
}

// ListReviews returns a filtered page of reviews and the total matching the filter
func (e *Engine) ListReviews(ctx context.Context, filter domain.ReviewFilter) ([]*domain.Review, int, error) {
	filter.Limit, filter.Offset = clampPage(filter.Limit, filter.Offset, defaultPageLimit, maxPageLimit)

	reviews, err := e.reviews.List(ctx, filter)
	if err != nil {
		e.logger.Error("Failed to list reviews", err)
		return nil, 0, err
	}

	total, err := e.reviews.Count(ctx, filter)
	if err != nil {
		e.logger.Error("Failed to count reviews", err)
		return nil, 0, err
	}

	return reviews, total, nil
}

// PendingReviews returns the moderation queue, oldest first
func (e *Engine) PendingReviews(ctx context.Context, limit, offset int) ([]*domain.Review, int, error) {
	status := domain.StatusPending
	return e.ListReviews(ctx, domain.ReviewFilter{
		Status:    &status,
		SortBy:    "created_at",
		Ascending: true,
		Limit:     limit,
		Offset:    offset,
	})
}

// SetReviewStatus moves a review to status. The listing is recomputed only when the
// approved set can change, that is when the old or the new status is APPROVED.
func (e *Engine) SetReviewStatus(ctx context.Context, id uuid.UUID, status domain.ModerationStatus) (*domain.Review, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, status)
	}

	current, err := e.GetReview(ctx, id)
	if err != nil {
		return nil, err
	}

	if !current.Status.CanTransition(status) {
		return nil, fmt.Errorf("%w: %s to %s", domain.ErrInvalidTransition, current.Status, status)
	}

	updated, err := e.reviews.UpdateStatus(ctx, id, status)
	if err != nil {
		e.logger.Error("Failed to update review status", err)
		return nil, err
	}

	// The row is committed: the cache and the event must follow even when the recount fails,
	// so the reconciler can heal the aggregate.
	var recomputeErr error
	ref, hasParent := updated.Parent()
	if hasParent && current.Status.AffectsAggregate(status) {
		recomputeErr = e.RecomputeListingAggregate(ctx, ref)
	}
	if hasParent {
		e.invalidate(ctx, ref)
	}

	e.publish(reviewEvent(domain.EventReviewStatusChanged, updated, current.Status, status))

	if recomputeErr != nil {
		return nil, recomputeErr
	}

	e.logger.WithFields(map[string]interface{}{
		"review_id": id,
		"from":      current.Status,
		"to":        status,
	}).Info("Review status updated")

	return updated, nil
}

// BulkSetReviewStatus moves every review in ids to status. The call fails as a whole when any
// id is unknown or any transition is not allowed. Each affected listing is recomputed once.
func (e *Engine) BulkSetReviewStatus(ctx context.Context, ids []uuid.UUID, status domain.ModerationStatus) (int64, error) {
	if !status.IsValid() {
		return 0, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, status)
	}

	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return 0, fmt.Errorf("%w: no review ids given", domain.ErrInvalidInput)
	}

	found, err := e.reviews.GetByIDs(ctx, ids)
	if err != nil {
		e.logger.Error("Failed to load reviews", err)
		return 0, err
	}
	if len(found) != len(ids) {
		return 0, fmt.Errorf("%d of %d reviews: %w", len(ids)-len(found), len(ids), domain.ErrNotFound)
	}

	for _, r := range found {
		if !r.Status.CanTransition(status) {
			return 0, fmt.Errorf("%w: review %s is %s", domain.ErrInvalidTransition, r.ID, r.Status)
		}
	}

	updated, err := e.reviews.UpdateStatusBulk(ctx, ids, status)
	if err != nil {
		e.logger.Error("Failed to bulk update review status", err)
		return 0, err
	}

	touched := map[domain.ParentRef]struct{}{}
	recompute := map[domain.ParentRef]struct{}{}
	for _, r := range found {
		ref, ok := r.Parent()
		if !ok {
			continue
		}
		touched[ref] = struct{}{}
		if r.Status.AffectsAggregate(status) {
			recompute[ref] = struct{}{}
		}
	}

	var g errgroup.Group
	for ref := range recompute {
		ref := ref
		g.Go(func() error {
			return e.RecomputeListingAggregate(ctx, ref)
		})
	}
	recomputeErr := g.Wait()

	for ref := range touched {
		e.invalidate(ctx, ref)
	}
	for _, r := range found {
		e.publish(reviewEvent(domain.EventReviewStatusChanged, r, r.Status, status))
	}

	if recomputeErr != nil {
		return 0, recomputeErr
	}

	e.logger.WithFields(map[string]interface{}{
		"count":    updated,
		"status":   status,
		"listings": len(recompute),
	}).Info("Reviews bulk updated")

	return updated, nil
}

// RemoveReview deletes a review and recomputes its listing if it was approved
func (e *Engine) RemoveReview(ctx context.Context, id uuid.UUID) error {
	review, err := e.GetReview(ctx, id)
	if err != nil {
		return err
	}

	if err := e.reviews.Delete(ctx, id); err != nil {
		e.logger.Error("Failed to delete review", err)
		return err
	}

	var recomputeErr error
	ref, hasParent := review.Parent()
	if hasParent && review.Status == domain.StatusApproved {
		recomputeErr = e.RecomputeListingAggregate(ctx, ref)
	}
	if hasParent {
		e.invalidate(ctx, ref)
	}

	e.publish(reviewEvent(domain.EventReviewDeleted, review, review.Status, ""))

	if recomputeErr != nil {
		return recomputeErr
	}

	e.logger.WithFields(map[string]interface{}{
		"review_id": id,
		"status":    review.Status,
	}).Info("Review deleted")

	return nil
}

// ReviewStats computes review counts, the approved rating histogram and the rounded mean
// from the current rows of a listing
func (e *Engine) ReviewStats(ctx context.Context, ref domain.ParentRef) (*domain.ReviewStats, error) {
	counts, err := e.reviews.CountsByStatus(ctx, ref)
	if err != nil {
		e.logger.Error("Failed to count reviews by status", err)
		return nil, err
	}

	histogram, err := e.reviews.ApprovedHistogram(ctx, ref)
	if err != nil {
		e.logger.Error("Failed to build rating histogram", err)
		return nil, err
	}

	stats := &domain.ReviewStats{
		ApprovedReviews:    counts[domain.StatusApproved],
		PendingReviews:     counts[domain.StatusPending],
		RejectedReviews:    counts[domain.StatusRejected],
		RatingDistribution: make(map[int]int, 5),
	}
	stats.TotalReviews = stats.ApprovedReviews + stats.PendingReviews + stats.RejectedReviews

	approved, sum := 0, 0
	for rating := 1; rating <= 5; rating++ {
		n := histogram[rating]
		stats.RatingDistribution[rating] = n
		approved += n
		sum += rating * n
	}
	if approved > 0 {
		mean := roundRating(float64(sum) / float64(approved))
		stats.AverageRating = &mean
	}

	return stats, nil
}

// ListingStats is ReviewStats for an existing listing; unknown listings return domain.ErrNotFound
func (e *Engine) ListingStats(ctx context.Context, ref domain.ParentRef) (*domain.ReviewStats, error) {
	if err := e.requireListing(ctx, ref); err != nil {
		return nil, err
	}
	return e.ReviewStats(ctx, ref)
}

// ListingReviews returns the newest reviews of a listing with its stats. A nil status returns
// reviews in every status. Pages are cached per listing until the next change to its reviews.
func (e *Engine) ListingReviews(ctx context.Context, ref domain.ParentRef, status *domain.ModerationStatus, limit int) (*domain.ListingReviews, error) {
	limit, _ = clampPage(limit, 0, defaultListingReviewsLimit, maxListingReviewsLimit)

	var cacheStatus domain.ModerationStatus = "ALL"
	if status != nil {
		cacheStatus = *status
	}

	page, err := e.cache.GetListingReviews(ctx, ref, cacheStatus, limit)
	if err == nil {
		e.logger.Debugf("Cache hit for %s reviews (status=%s, limit=%d)", ref, cacheStatus, limit)
		return page, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		e.logger.Warnf("Failed to read review cache for %s: %v", ref, err)
	}

	if err := e.requireListing(ctx, ref); err != nil {
		return nil, err
	}

	reviews, err := e.reviews.List(ctx, domain.ReviewFilter{
		Parent: &ref,
		Status: status,
		SortBy: "created_at",
		Limit:  limit,
	})
	if err != nil {
		e.logger.Error("Failed to list listing reviews", err)
		return nil, err
	}

	stats, err := e.ReviewStats(ctx, ref)
	if err != nil {
		return nil, err
	}

	page = &domain.ListingReviews{Reviews: reviews, Stats: stats}
	if err := e.cache.SetListingReviews(ctx, ref, cacheStatus, limit, page); err != nil {
		e.logger.Warnf("Failed to cache reviews for %s: %v", ref, err)
	}

	return page, nil
}

func (e *Engine) requireListing(ctx context.Context, ref domain.ParentRef) error {
	exists, err := e.listings.Exists(ctx, ref)
	if err != nil {
		e.logger.Error("Failed to check listing", err)
		return err
	}
	if !exists {
		e.logger.Debugf("Listing not found: %s", ref)
		return fmt.Errorf("%s %w", ref.Kind, domain.ErrNotFound)
	}
	return nil
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
