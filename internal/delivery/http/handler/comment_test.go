package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/jglobalproperties/estate_api/internal/domain"
	"github.com/jglobalproperties/estate_api/internal/usecase/moderation"
)

type MockCommentModerator struct {
	mock.Mock
}

func (m *MockCommentModerator) SubmitComment(ctx context.Context, in moderation.CommentSubmission) (*domain.BlogComment, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BlogComment), args.Error(1)
}

func (m *MockCommentModerator) BlogComments(ctx context.Context, blogID uuid.UUID, status *domain.ModerationStatus, limit, offset int) ([]*domain.BlogComment, int, error) {
	args := m.Called(ctx, blogID, status, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*domain.BlogComment), args.Int(1), args.Error(2)
}

func (m *MockCommentModerator) PendingComments(ctx context.Context, limit, offset int) ([]*domain.BlogComment, int, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*domain.BlogComment), args.Int(1), args.Error(2)
}

func (m *MockCommentModerator) SetCommentStatus(ctx context.Context, id uuid.UUID, status domain.ModerationStatus) (*domain.BlogComment, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BlogComment), args.Error(1)
}

func (m *MockCommentModerator) BulkSetCommentStatus(ctx context.Context, ids []uuid.UUID, status domain.ModerationStatus) (int64, error) {
	args := m.Called(ctx, ids, status)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCommentModerator) RemoveComment(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func TestCommentHandler_Create(t *testing.T) {
	svc := new(MockCommentModerator)
	h := NewCommentHandler(svc, testLogger())

	blogID := uuid.New()
	svc.On("SubmitComment", mock.Anything, moderation.CommentSubmission{
		BlogID:  blogID,
		Name:    "Lee",
		Email:   "lee@example.com",
		Comment: "Nice read",
	}).Return(&domain.BlogComment{ID: uuid.New(), BlogID: blogID, Status: domain.StatusPending}, nil)

	w := httptest.NewRecorder()
	h.Create(w, newRequest(t, http.MethodPost, "/", CreateCommentRequest{
		Name: "Lee", Email: "lee@example.com", Comment: " Nice read ",
	}, map[string]string{"blogId": blogID.String()}))

	assert.Equal(t, http.StatusCreated, w.Code)
	svc.AssertExpectations(t)
}

func TestCommentHandler_Create_Errors(t *testing.T) {
	t.Run("bad blog id", func(t *testing.T) {
		h := NewCommentHandler(new(MockCommentModerator), testLogger())

		w := httptest.NewRecorder()
		h.Create(w, newRequest(t, http.MethodPost, "/", CreateCommentRequest{}, map[string]string{"blogId": "x"}))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unpublished blog", func(t *testing.T) {
		svc := new(MockCommentModerator)
		h := NewCommentHandler(svc, testLogger())
		svc.On("SubmitComment", mock.Anything, mock.Anything).Return(nil, domain.ErrNotFound)

		w := httptest.NewRecorder()
		h.Create(w, newRequest(t, http.MethodPost, "/", CreateCommentRequest{Name: "a", Email: "a@b.co", Comment: "c"},
			map[string]string{"blogId": uuid.NewString()}))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("validation", func(t *testing.T) {
		svc := new(MockCommentModerator)
		h := NewCommentHandler(svc, testLogger())
		svc.On("SubmitComment", mock.Anything, mock.Anything).Return(nil, domain.ErrInvalidInput)

		w := httptest.NewRecorder()
		h.Create(w, newRequest(t, http.MethodPost, "/", CreateCommentRequest{Name: "a", Email: "bad"},
			map[string]string{"blogId": uuid.NewString()}))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestCommentHandler_ByBlog_OnlyApproved(t *testing.T) {
	svc := new(MockCommentModerator)
	h := NewCommentHandler(svc, testLogger())

	blogID := uuid.New()
	approved := domain.StatusApproved
	svc.On("BlogComments", mock.Anything, blogID, &approved, 20, 0).Return([]*domain.BlogComment{}, 0, nil)

	w := httptest.NewRecorder()
	h.ByBlog(w, newRequest(t, http.MethodGet, "/?status=PENDING", nil, map[string]string{"blogId": blogID.String()}))

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestCommentHandler_AdminByBlog_StatusFilter(t *testing.T) {
	svc := new(MockCommentModerator)
	h := NewCommentHandler(svc, testLogger())

	blogID := uuid.New()
	rejected := domain.StatusRejected
	svc.On("BlogComments", mock.Anything, blogID, &rejected, 5, 10).Return([]*domain.BlogComment{}, 12, nil)

	w := httptest.NewRecorder()
	h.AdminByBlog(w, newRequest(t, http.MethodGet, "/?status=rejected&limit=5&offset=10", nil,
		map[string]string{"blogId": blogID.String()}))

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestCommentHandler_Pending(t *testing.T) {
	svc := new(MockCommentModerator)
	h := NewCommentHandler(svc, testLogger())

	svc.On("PendingComments", mock.Anything, 20, 0).Return([]*domain.BlogComment{}, 0, nil)

	w := httptest.NewRecorder()
	h.Pending(w, newRequest(t, http.MethodGet, "/", nil, nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCommentHandler_Moderation(t *testing.T) {
	id := uuid.New()

	t.Run("approve", func(t *testing.T) {
		svc := new(MockCommentModerator)
		h := NewCommentHandler(svc, testLogger())
		svc.On("SetCommentStatus", mock.Anything, id, domain.StatusApproved).
			Return(&domain.BlogComment{ID: id, Status: domain.StatusApproved}, nil)

		w := httptest.NewRecorder()
		h.Approve(w, newRequest(t, http.MethodPut, "/", nil, map[string]string{"commentId": id.String()}))

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("status to pending is rejected", func(t *testing.T) {
		svc := new(MockCommentModerator)
		h := NewCommentHandler(svc, testLogger())
		svc.On("SetCommentStatus", mock.Anything, id, domain.StatusPending).Return(nil, domain.ErrInvalidTransition)

		w := httptest.NewRecorder()
		h.UpdateStatus(w, newRequest(t, http.MethodPut, "/", StatusRequest{Status: "pending"}, map[string]string{"commentId": id.String()}))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("bulk reject", func(t *testing.T) {
		svc := new(MockCommentModerator)
		h := NewCommentHandler(svc, testLogger())
		svc.On("BulkSetCommentStatus", mock.Anything, []uuid.UUID{id}, domain.StatusRejected).Return(int64(1), nil)

		w := httptest.NewRecorder()
		h.BulkReject(w, newRequest(t, http.MethodPost, "/", BulkRequest{IDs: []uuid.UUID{id}}, nil))

		assert.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, "1 comment rejected", body["message"])
		assert.Equal(t, float64(1), body["data"].(map[string]any)["count"])
	})

	t.Run("delete", func(t *testing.T) {
		svc := new(MockCommentModerator)
		h := NewCommentHandler(svc, testLogger())
		svc.On("RemoveComment", mock.Anything, id).Return(nil)

		w := httptest.NewRecorder()
		h.Delete(w, newRequest(t, http.MethodDelete, "/", nil, map[string]string{"commentId": id.String()}))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Comment deleted successfully", decodeBody(t, w)["message"])
	})

	t.Run("delete unknown", func(t *testing.T) {
		svc := new(MockCommentModerator)
		h := NewCommentHandler(svc, testLogger())
		svc.On("RemoveComment", mock.Anything, id).Return(domain.ErrNotFound)

		w := httptest.NewRecorder()
		h.Delete(w, newRequest(t, http.MethodDelete, "/", nil, map[string]string{"commentId": id.String()}))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
