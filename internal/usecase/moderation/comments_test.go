package moderation

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jglobalproperties/estate_api/internal/domain"
)

func newComment(blogID uuid.UUID, status domain.ModerationStatus) *domain.BlogComment {
	return &domain.BlogComment{
		ID:      uuid.New(),
		BlogID:  blogID,
		Name:    "Reader",
		Email:   "reader@example.com",
		Comment: "Great write-up",
		Status:  status,
	}
}

func commentWithStatus(c *domain.BlogComment, status domain.ModerationStatus) *domain.BlogComment {
	cp := *c
	cp.Status = status
	return &cp
}

func (f *fixture) expectRecount(blogID uuid.UUID, before, after int) {
	f.blogs.On("GetCommentAggregate", mock.Anything, blogID).Return(&domain.CommentAggregate{TotalComments: before, Version: 4}, nil).Once()
	f.comments.On("CountByBlog", mock.Anything, blogID, domain.StatusApproved).Return(after, nil).Once()
	if before != after {
		f.blogs.On("UpdateCommentAggregate", mock.Anything, blogID, domain.CommentAggregate{TotalComments: after, Version: 4}).Return(nil).Once()
	}
}

func TestSubmitComment_Success(t *testing.T) {
	f := newFixture(t)
	blogID := uuid.New()

	f.blogs.On("IsPublished", mock.Anything, blogID).Return(true, nil)
	f.comments.On("Create", mock.Anything, mock.MatchedBy(func(c *domain.BlogComment) bool {
		return c.BlogID == blogID && c.Status == domain.StatusPending
	})).Return(nil)

	comment, err := f.engine.SubmitComment(context.Background(), CommentSubmission{
		BlogID:  blogID,
		Name:    "Reader",
		Email:   "reader@example.com",
		Comment: "Thanks for the tips",
	})

	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, comment.Status)
	f.assertExpectations(t)
	f.blogs.AssertNotCalled(t, "GetCommentAggregate", mock.Anything, mock.Anything)
}

func TestSubmitComment_UnpublishedBlog(t *testing.T) {
	f := newFixture(t)
	blogID := uuid.New()

	f.blogs.On("IsPublished", mock.Anything, blogID).Return(false, nil)

	_, err := f.engine.SubmitComment(context.Background(), CommentSubmission{
		BlogID:  blogID,
		Name:    "Reader",
		Email:   "reader@example.com",
		Comment: "Hello",
	})

	assert.ErrorIs(t, err, domain.ErrNotFound)
	f.comments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSubmitComment_InvalidEmail(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.SubmitComment(context.Background(), CommentSubmission{
		BlogID:  uuid.New(),
		Name:    "Reader",
		Email:   "not-an-email",
		Comment: "Hello",
	})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	f.blogs.AssertNotCalled(t, "IsPublished", mock.Anything, mock.Anything)
}

func TestSetCommentStatus_ApproveRecountsBlog(t *testing.T) {
	f := newFixture(t)
	blogID := uuid.New()
	comment := newComment(blogID, domain.StatusPending)

	f.comments.On("GetByID", mock.Anything, comment.ID).Return(comment, nil)
	f.comments.On("UpdateStatus", mock.Anything, comment.ID, domain.StatusApproved).
		Return(commentWithStatus(comment, domain.StatusApproved), nil)
	f.expectRecount(blogID, 2, 3)

	updated, err := f.engine.SetCommentStatus(context.Background(), comment.ID, domain.StatusApproved)

	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, updated.Status)
	f.assertExpectations(t)
}

func TestSetCommentStatus_PendingToRejectedSkipsRecount(t *testing.T) {
	f := newFixture(t)
	comment := newComment(uuid.New(), domain.StatusPending)

	f.comments.On("GetByID", mock.Anything, comment.ID).Return(comment, nil)
	f.comments.On("UpdateStatus", mock.Anything, comment.ID, domain.StatusRejected).
		Return(commentWithStatus(comment, domain.StatusRejected), nil)

	_, err := f.engine.SetCommentStatus(context.Background(), comment.ID, domain.StatusRejected)

	require.NoError(t, err)
	f.assertExpectations(t)
	f.blogs.AssertNotCalled(t, "GetCommentAggregate", mock.Anything, mock.Anything)
}

func TestSetCommentStatus_InvalidTransition(t *testing.T) {
	f := newFixture(t)
	comment := newComment(uuid.New(), domain.StatusApproved)

	f.comments.On("GetByID", mock.Anything, comment.ID).Return(comment, nil)

	_, err := f.engine.SetCommentStatus(context.Background(), comment.ID, domain.StatusPending)

	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	f.comments.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestBulkSetCommentStatus_SameBlogRecountedOnce(t *testing.T) {
	f := newFixture(t)
	blogID := uuid.New()
	a := newComment(blogID, domain.StatusPending)
	b := newComment(blogID, domain.StatusRejected)
	ids := []uuid.UUID{a.ID, b.ID}

	f.comments.On("GetByIDs", mock.Anything, ids).Return([]*domain.BlogComment{a, b}, nil)
	f.comments.On("UpdateStatusBulk", mock.Anything, ids, domain.StatusApproved).Return(int64(2), nil)
	f.expectRecount(blogID, 0, 2)

	n, err := f.engine.BulkSetCommentStatus(context.Background(), ids, domain.StatusApproved)

	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	f.assertExpectations(t)
	f.blogs.AssertNumberOfCalls(t, "GetCommentAggregate", 1)
}

func TestBulkSetCommentStatus_MissingID(t *testing.T) {
	f := newFixture(t)
	a := newComment(uuid.New(), domain.StatusPending)
	ids := []uuid.UUID{a.ID, uuid.New()}

	f.comments.On("GetByIDs", mock.Anything, ids).Return([]*domain.BlogComment{a}, nil)

	_, err := f.engine.BulkSetCommentStatus(context.Background(), ids, domain.StatusApproved)

	assert.ErrorIs(t, err, domain.ErrNotFound)
	f.comments.AssertNotCalled(t, "UpdateStatusBulk", mock.Anything, mock.Anything, mock.Anything)
}

func TestRemoveComment(t *testing.T) {
	t.Run("approved comment recounts", func(t *testing.T) {
		f := newFixture(t)
		blogID := uuid.New()
		comment := newComment(blogID, domain.StatusApproved)

		f.comments.On("GetByID", mock.Anything, comment.ID).Return(comment, nil)
		f.comments.On("Delete", mock.Anything, comment.ID).Return(nil)
		f.expectRecount(blogID, 1, 0)

		require.NoError(t, f.engine.RemoveComment(context.Background(), comment.ID))
		f.assertExpectations(t)
	})

	t.Run("pending comment skips recount", func(t *testing.T) {
		f := newFixture(t)
		comment := newComment(uuid.New(), domain.StatusPending)

		f.comments.On("GetByID", mock.Anything, comment.ID).Return(comment, nil)
		f.comments.On("Delete", mock.Anything, comment.ID).Return(nil)

		require.NoError(t, f.engine.RemoveComment(context.Background(), comment.ID))
		f.assertExpectations(t)
		f.blogs.AssertNotCalled(t, "GetCommentAggregate", mock.Anything, mock.Anything)
	})
}

func TestCommentModeration_RecountFailureStillPublishes(t *testing.T) {
	boom := errors.New("connection reset")

	t.Run("status change", func(t *testing.T) {
		f := newFixture(t)
		blogID := uuid.New()
		comment := newComment(blogID, domain.StatusApproved)

		f.comments.On("GetByID", mock.Anything, comment.ID).Return(comment, nil)
		f.comments.On("UpdateStatus", mock.Anything, comment.ID, domain.StatusRejected).
			Return(commentWithStatus(comment, domain.StatusRejected), nil)
		f.blogs.On("GetCommentAggregate", mock.Anything, blogID).Return(nil, boom)

		_, err := f.engine.SetCommentStatus(context.Background(), comment.ID, domain.StatusRejected)

		assert.ErrorIs(t, err, boom)
		f.engine.Wait()
		f.publisher.AssertCalled(t, "Publish", mock.Anything, domain.SubjectModeration, mock.Anything)
	})

	t.Run("delete", func(t *testing.T) {
		f := newFixture(t)
		blogID := uuid.New()
		comment := newComment(blogID, domain.StatusApproved)

		f.comments.On("GetByID", mock.Anything, comment.ID).Return(comment, nil)
		f.comments.On("Delete", mock.Anything, comment.ID).Return(nil)
		f.blogs.On("GetCommentAggregate", mock.Anything, blogID).Return(nil, boom)

		err := f.engine.RemoveComment(context.Background(), comment.ID)

		assert.ErrorIs(t, err, boom)
		f.engine.Wait()
		f.publisher.AssertCalled(t, "Publish", mock.Anything, domain.SubjectModeration, mock.Anything)
	})
}

func TestBlogComments_DefaultsToApproved(t *testing.T) {
	f := newFixture(t)
	blogID := uuid.New()
	comments := []*domain.BlogComment{newComment(blogID, domain.StatusApproved)}

	f.blogs.On("IsPublished", mock.Anything, blogID).Return(true, nil)
	f.comments.On("ListByBlog", mock.Anything, blogID, domain.StatusApproved, 20, 0).Return(comments, nil)
	f.comments.On("CountByBlog", mock.Anything, blogID, domain.StatusApproved).Return(1, nil)

	got, total, err := f.engine.BlogComments(context.Background(), blogID, nil, 0, 0)

	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, 1, total)
	f.assertExpectations(t)
}

func TestPendingComments(t *testing.T) {
	f := newFixture(t)

	f.comments.On("ListByStatus", mock.Anything, domain.StatusPending, 100, 40).Return([]*domain.BlogComment{}, nil)
	f.comments.On("CountByStatus", mock.Anything, domain.StatusPending).Return(41, nil)

	_, total, err := f.engine.PendingComments(context.Background(), 500, 40)

	require.NoError(t, err)
	assert.Equal(t, 41, total)
	f.assertExpectations(t)
}
