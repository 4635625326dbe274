package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/jglobalproperties/estate_api/internal/delivery/http/request"
	"github.com/jglobalproperties/estate_api/internal/delivery/http/response"
	"github.com/jglobalproperties/estate_api/internal/domain"
	"github.com/jglobalproperties/estate_api/internal/pkg/logger"
	"github.com/jglobalproperties/estate_api/internal/usecase/moderation"
)

// CommentModerator is the part of the moderation engine the comment endpoints use
type CommentModerator interface {
	SubmitComment(ctx context.Context, in moderation.CommentSubmission) (*domain.BlogComment, error)
	BlogComments(ctx context.Context, blogID uuid.UUID, status *domain.ModerationStatus, limit, offset int) ([]*domain.BlogComment, int, error)
	PendingComments(ctx context.Context, limit, offset int) ([]*domain.BlogComment, int, error)
	SetCommentStatus(ctx context.Context, id uuid.UUID, status domain.ModerationStatus) (*domain.BlogComment, error)
	BulkSetCommentStatus(ctx context.Context, ids []uuid.UUID, status domain.ModerationStatus) (int64, error)
	RemoveComment(ctx context.Context, id uuid.UUID) error
}

// CommentHandler handles HTTP requests for blog comments
type CommentHandler struct {
	service CommentModerator
	logger  *logger.Logger
}

// NewCommentHandler creates a new comment handler
func NewCommentHandler(service CommentModerator, log *logger.Logger) *CommentHandler {
	return &CommentHandler{
		service: service,
		logger:  log,
	}
}

// CreateCommentRequest represents the request body for commenting on a blog post
type CreateCommentRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Comment string `json:"comment"`
}

// Create handles POST /api/v1/blogs/{blogId}/comments
// @Summary Comment on a blog post
// @Description New comments are PENDING until moderated
// @Tags Comments
// @Accept json
// @Produce json
// @Param blogId path string true "Blog ID (UUID)"
// @Param comment body CreateCommentRequest true "Comment"
// @Success 201 {object} map[string]interface{} "Comment submitted"
// @Failure 400 {object} map[string]string "Invalid request body"
// @Failure 404 {object} map[string]string "Blog not found"
// @Router /blogs/{blogId}/comments [post]
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	blogID, err := request.GetUUIDParam(r, "blogId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid blog ID")
		return
	}

	var req CreateCommentRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	comment, err := h.service.SubmitComment(r.Context(), moderation.CommentSubmission{
		BlogID:  blogID,
		Name:    strings.TrimSpace(req.Name),
		Email:   strings.TrimSpace(req.Email),
		Comment: strings.TrimSpace(req.Comment),
	})
	if err != nil {
		response.DomainError(w, h.logger, err)
		return
	}

	response.Created(w, comment)
}

// ByBlog handles GET /api/v1/blogs/{blogId}/comments
// @Summary Approved comments of a blog post
// @Tags Comments
// @Produce json
// @Param blogId path string true "Blog ID (UUID)"
// @Param limit query int false "Number of items per page (max 100)" default(20)
// @Param offset query int false "Number of items to skip" default(0)
// @Success 200 {object} map[string]interface{} "Paginated list of comments"
// @Failure 404 {object} map[string]string "Blog not found"
// @Router /blogs/{blogId}/comments [get]
func (h *CommentHandler) ByBlog(w http.ResponseWriter, r *http.Request) {
	approved := domain.StatusApproved
	h.list(w, r, &approved)
}

// AdminByBlog handles GET /api/v1/admin/blogs/{blogId}/comments
// @Summary Comments of a blog post in any status
// @Tags Comments
// @Produce json
// @Security BearerAuth
// @Param blogId path string true "Blog ID (UUID)"
// @Param status query string false "Moderation status" default(APPROVED)
// @Param limit query int false "Number of items per page (max 100)" default(20)
// @Param offset query int false "Number of items to skip" default(0)
// @Success 200 {object} map[string]interface{} "Paginated list of comments"
// @Router /admin/blogs/{blogId}/comments [get]
func (h *CommentHandler) AdminByBlog(w http.ResponseWriter, r *http.Request) {
	status, err := request.GetStatusQuery(r, "status")
	if err != nil {
		response.DomainError(w, h.logger, err)
		return
	}
	h.list(w, r, status)
}

func (h *CommentHandler) list(w http.ResponseWriter, r *http.Request, status *domain.ModerationStatus) {
	blogID, err := request.GetUUIDParam(r, "blogId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid blog ID")
		return
	}
	limit, offset := request.GetPaginationParams(r)

	comments, total, err := h.service.BlogComments(r.Context(), blogID, status, limit, offset)
	if err != nil {
		response.DomainError(w, h.logger, err)
		return
	}

	response.Paginated(w, comments, total, limit, offset)
}

// Pending handles GET /api/v1/blogs/comments/pending
// @Summary Comment moderation queue
// @Description Pending comments across all blog posts, oldest first
// @Tags Comments
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Number of items per page (max 100)" default(20)
// @Param offset query int false "Number of items to skip" default(0)
// @Success 200 {object} map[string]interface{} "Paginated list of pending comments"
// @Router /blogs/comments/pending [get]
func (h *CommentHandler) Pending(w http.ResponseWriter, r *http.Request) {
	limit, offset := request.GetPaginationParams(r)

	comments, total, err := h.service.PendingComments(r.Context(), limit, offset)
	if err != nil {
		response.DomainError(w, h.logger, err)
		return
	}

	response.Paginated(w, comments, total, limit, offset)
}

// UpdateStatus handles PUT /api/v1/blogs/comments/{commentId}/status
// @Summary Change the status of a comment
// @Tags Comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param commentId path string true "Comment ID (UUID)"
// @Param status body StatusRequest true "New status"
// @Success 200 {object} map[string]interface{} "Updated comment"
// @Failure 400 {object} map[string]string "Invalid status or transition"
// @Failure 404 {object} map[string]string "Comment not found"
// @Router /blogs/comments/{commentId}/status [put]
func (h *CommentHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req StatusRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	status, err := domain.ParseModerationStatus(req.Status)
	if err != nil {
		response.DomainError(w, h.logger, err)
		return
	}

	h.setStatus(w, r, status)
}

// Approve handles PUT /api/v1/blogs/comments/{commentId}/approve
// @Summary Approve a comment
// @Tags Comments
// @Produce json
// @Security BearerAuth
// @Param commentId path string true "Comment ID (UUID)"
// @Success 200 {object} map[string]interface{} "Approved comment"
// @Router /blogs/comments/{commentId}/approve [put]
func (h *CommentHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, domain.StatusApproved)
}

// Reject handles PUT /api/v1/blogs/comments/{commentId}/reject
// @Summary Reject a comment
// @Tags Comments
// @Produce json
// @Security BearerAuth
// @Param commentId path string true "Comment ID (UUID)"
// @Success 200 {object} map[string]interface{} "Rejected comment"
// @Router /blogs/comments/{commentId}/reject [put]
func (h *CommentHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, domain.StatusRejected)
}

func (h *CommentHandler) setStatus(w http.ResponseWriter, r *http.Request, status domain.ModerationStatus) {
	id, err := request.GetUUIDParam(r, "commentId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid comment ID")
		return
	}

	comment, err := h.service.SetCommentStatus(r.Context(), id, status)
	if err != nil {
		response.DomainError(w, h.logger, err)
		return
	}

	response.Success(w, comment)
}

// BulkApprove handles POST /api/v1/blogs/comments/bulk/approve
// @Summary Approve several comments
// @Tags Comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param ids body BulkRequest true "Comment IDs"
// @Success 200 {object} map[string]interface{} "Number of updated comments with a summary message"
// @Router /blogs/comments/bulk/approve [post]
func (h *CommentHandler) BulkApprove(w http.ResponseWriter, r *http.Request) {
	h.bulk(w, r, domain.StatusApproved)
}

// BulkReject handles POST /api/v1/blogs/comments/bulk/reject
// @Summary Reject several comments
// @Tags Comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param ids body BulkRequest true "Comment IDs"
// @Success 200 {object} map[string]interface{} "Number of updated comments with a summary message"
// @Router /blogs/comments/bulk/reject [post]
func (h *CommentHandler) BulkReject(w http.ResponseWriter, r *http.Request) {
	h.bulk(w, r, domain.StatusRejected)
}

func (h *CommentHandler) bulk(w http.ResponseWriter, r *http.Request, status domain.ModerationStatus) {
	var req BulkRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	count, err := h.service.BulkSetCommentStatus(r.Context(), req.IDs, status)
	if err != nil {
		response.DomainError(w, h.logger, err)
		return
	}

	response.SuccessMessage(w, bulkMessage(count, "comment", status), map[string]int64{"count": count})
}

// Delete handles DELETE /api/v1/blogs/comments/{commentId}
// @Summary Delete a comment
// @Tags Comments
// @Security BearerAuth
// @Param commentId path string true "Comment ID (UUID)"
// @Success 200 {object} map[string]interface{} "Comment deleted"
// @Failure 404 {object} map[string]string "Comment not found"
// @Router /blogs/comments/{commentId} [delete]
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetUUIDParam(r, "commentId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid comment ID")
		return
	}

	if err := h.service.RemoveComment(r.Context(), id); err != nil {
		response.DomainError(w, h.logger, err)
		return
	}

	response.Message(w, "Comment deleted successfully")
}
