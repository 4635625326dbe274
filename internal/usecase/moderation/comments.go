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

// CommentSubmission is a public comment on a blog post
type CommentSubmission struct {
	BlogID  uuid.UUID `json:"-" validate:"required"`
	Name    string    `json:"name" validate:"required,min=1,max=100"`
	Email   string    `json:"email" validate:"required,email"`
	Comment string    `json:"comment" validate:"required,min=1,max=5000"`
}

// SubmitComment stores a new PENDING comment on a published blog
func (e *Engine) SubmitComment(ctx context.Context, in CommentSubmission) (*domain.BlogComment, error) {
	if err := validator.Struct(in); err != nil {
		return nil, err
	}

	if err := e.requirePublishedBlog(ctx, in.BlogID); err != nil {
		return nil, err
	}

	comment := &domain.BlogComment{
		BlogID:  in.BlogID,
		Name:    in.Name,
		Email:   in.Email,
		Comment: in.Comment,
		Status:  domain.StatusPending,
	}

	if err := e.comments.Create(ctx, comment); err != nil {
		e.logger.Error("Failed to create comment", err)
		return nil, err
	}

	e.publish(commentEvent(domain.EventCommentSubmitted, comment, "", domain.StatusPending))

	e.logger.WithFields(map[string]interface{}{
		"comment_id": comment.ID,
		"blog_id":    comment.BlogID,
	}).Info("Comment submitted")

	return comment, nil
}

// BlogComments returns a page of a published blog's comments, newest first.
// A nil status means APPROVED.
func (e *Engine) BlogComments(ctx context.Context, blogID uuid.UUID, status *domain.ModerationStatus, limit, offset int) ([]*domain.BlogComment, int, error) {
	limit, offset = clampPage(limit, offset, defaultPageLimit, maxPageLimit)

	st := domain.StatusApproved
	if status != nil {
		st = *status
	}

	if err := e.requirePublishedBlog(ctx, blogID); err != nil {
		return nil, 0, err
	}

	comments, err := e.comments.ListByBlog(ctx, blogID, st, limit, offset)
	if err != nil {
		e.logger.Error("Failed to list blog comments", err)
		return nil, 0, err
	}

	total, err := e.comments.CountByBlog(ctx, blogID, st)
	if err != nil {
		e.logger.Error("Failed to count blog comments", err)
		return nil, 0, err
	}

	return comments, total, nil
}

// PendingComments returns the comment moderation queue across all blogs, oldest first
func (e *Engine) PendingComments(ctx context.Context, limit, offset int) ([]*domain.BlogComment, int, error) {
	limit, offset = clampPage(limit, offset, defaultPageLimit, maxPageLimit)

	comments, err := e.comments.ListByStatus(ctx, domain.StatusPending, limit, offset)
	if err != nil {
		e.logger.Error("Failed to list pending comments", err)
		return nil, 0, err
	}

	total, err := e.comments.CountByStatus(ctx, domain.StatusPending)
	if err != nil {
		e.logger.Error("Failed to count pending comments", err)
		return nil, 0, err
	}

	return comments, total, nil
}

func (e *Engine) getComment(ctx context.Context, id uuid.UUID) (*domain.BlogComment, error) {
	comment, err := e.comments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			e.logger.Debugf("Comment not found: %s", id)
		} else {
			e.logger.Error("Failed to get comment", err)
		}
		return nil, err
	}
	return comment, nil
}

// SetCommentStatus moves a comment to status and recounts its blog when the approved set can change
func (e *Engine) SetCommentStatus(ctx context.Context, id uuid.UUID, status domain.ModerationStatus) (*domain.BlogComment, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, status)
	}

	current, err := e.getComment(ctx, id)
	if err != nil {
		return nil, err
	}

	if !current.Status.CanTransition(status) {
		return nil, fmt.Errorf("%w: %s to %s", domain.ErrInvalidTransition, current.Status, status)
	}

	updated, err := e.comments.UpdateStatus(ctx, id, status)
	if err != nil {
		e.logger.Error("Failed to update comment status", err)
		return nil, err
	}

	var recomputeErr error
	if current.Status.AffectsAggregate(status) {
		recomputeErr = e.RecomputeBlogAggregate(ctx, updated.BlogID)
	}

	e.publish(commentEvent(domain.EventCommentStatusChanged, updated, current.Status, status))

	if recomputeErr != nil {
		return nil, recomputeErr
	}

	e.logger.WithFields(map[string]interface{}{
		"comment_id": id,
		"from":       current.Status,
		"to":         status,
	}).Info("Comment status updated")

	return updated, nil
}

// BulkSetCommentStatus moves every comment in ids to status, all or nothing, and recounts each affected blog once
func (e *Engine) BulkSetCommentStatus(ctx context.Context, ids []uuid.UUID, status domain.ModerationStatus) (int64, error) {
	if !status.IsValid() {
		return 0, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, status)
	}

	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return 0, fmt.Errorf("%w: no comment ids given", domain.ErrInvalidInput)
	}

	found, err := e.comments.GetByIDs(ctx, ids)
	if err != nil {
		e.logger.Error("Failed to load comments", err)
		return 0, err
	}
	if len(found) != len(ids) {
		return 0, fmt.Errorf("%d of %d comments: %w", len(ids)-len(found), len(ids), domain.ErrNotFound)
	}

	for _, c := range found {
		if !c.Status.CanTransition(status) {
			return 0, fmt.Errorf("%w: comment %s is %s", domain.ErrInvalidTransition, c.ID, c.Status)
		}
	}

	updated, err := e.comments.UpdateStatusBulk(ctx, ids, status)
	if err != nil {
		e.logger.Error("Failed to bulk update comment status", err)
		return 0, err
	}

	recompute := map[uuid.UUID]struct{}{}
	for _, c := range found {
		if c.Status.AffectsAggregate(status) {
			recompute[c.BlogID] = struct{}{}
		}
	}

	var g errgroup.Group
	for blogID := range recompute {
		blogID := blogID
		g.Go(func() error {
			return e.RecomputeBlogAggregate(ctx, blogID)
		})
	}
	recomputeErr := g.Wait()

	for _, c := range found {
		e.publish(commentEvent(domain.EventCommentStatusChanged, c, c.Status, status))
	}

	if recomputeErr != nil {
		return 0, recomputeErr
	}

	e.logger.WithFields(map[string]interface{}{
		"count":  updated,
		"status": status,
		"blogs":  len(recompute),
	}).Info("Comments bulk updated")

	return updated, nil
}

// RemoveComment deletes a comment and recounts its blog if it was approved
func (e *Engine) RemoveComment(ctx context.Context, id uuid.UUID) error {
	comment, err := e.getComment(ctx, id)
	if err != nil {
		return err
	}

	if err := e.comments.Delete(ctx, id); err != nil {
		e.logger.Error("Failed to delete comment", err)
		return err
	}

	var recomputeErr error
	if comment.Status == domain.StatusApproved {
		recomputeErr = e.RecomputeBlogAggregate(ctx, comment.BlogID)
	}

	e.publish(commentEvent(domain.EventCommentDeleted, comment, comment.Status, ""))

	if recomputeErr != nil {
		return recomputeErr
	}

	e.logger.WithFields(map[string]interface{}{
		"comment_id": id,
		"status":     comment.Status,
	}).Info("Comment deleted")

	return nil
}

func (e *Engine) requirePublishedBlog(ctx context.Context, blogID uuid.UUID) error {
	published, err := e.blogs.IsPublished(ctx, blogID)
	if err != nil {
		e.logger.Error("Failed to check blog", err)
		return err
	}
	if !published {
		e.logger.Debugf("Blog not found or not published: %s", blogID)
		return fmt.Errorf("blog %w", domain.ErrNotFound)
	}
	return nil
}
