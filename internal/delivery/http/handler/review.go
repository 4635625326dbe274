package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/jglobalproperties/estate_api/internal/delivery/http/request"
	"github.com/jglobalproperties/estate_api/internal/delivery/http/response"
	"github.com/jglobalproperties/estate_api/internal/domain"
	"github.com/jglobalproperties/estate_api/internal/pkg/logger"
	"github.com/jglobalproperties/estate_api/internal/usecase/moderation"
)

// ReviewModerator is the part of the moderation engine the review endpoints use
type ReviewModerator interface {
	SubmitReview(ctx context.Context, in moderation.ReviewSubmission) (*domain.Review, error)
	GetReview(ctx context.Context, id uuid.UUID) (*domain.Review, error)
	ListReviews(ctx context.Context, filter domain.ReviewFilter) ([]*domain.Review, int, error)
	PendingReviews(ctx context.Context, limit, offset int) ([]*domain.Review, int, error)
	SetReviewStatus(ctx context.Context, id uuid.UUID, status domain.ModerationStatus) (*domain.Review, error)
	BulkSetReviewStatus(ctx context.Context, ids []uuid.UUID, status domain.ModerationStatus) (int64, error)
	RemoveReview(ctx context.Context, id uuid.UUID) error
	ListingStats(ctx context.Context, ref domain.ParentRef) (*domain.ReviewStats, error)
	ListingReviews(ctx context.Context, ref domain.ParentRef, status *domain.ModerationStatus, limit int) (*domain.ListingReviews, error)
}

// ReviewHandler handles HTTP requests for reviews
type ReviewHandler struct {
	service ReviewModerator
	logger  *logger.Logger
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(service ReviewModerator, log *logger.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: service,
		logger:  log,
	}
}

// CreateReviewRequest represents the request body for creating a review.
// Exactly one of land_id and house_id must be set.
type CreateReviewRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
	LandID  string `json:"land_id,omitempty"`
	HouseID string `json:"house_id,omitempty"`
}

// StatusRequest represents the request body for changing a review status
type StatusRequest struct {
	Status string `json:"status"`
}

// BulkRequest represents the request body of bulk moderation endpoints
type BulkRequest struct {
	IDs []uuid.UUID `json:"ids"`
}

// Create handles POST /api/v1/reviews
// @Summary Submit a review
// @Description Submit a review of a house or land listing. New reviews are PENDING until moderated.
// @Tags Reviews
// @Accept json
// @Produce json
// @Param review body CreateReviewRequest true "Review details"
// @Success 201 {object} map[string]interface{} "Review submitted"
// @Failure 400 {object} map[string]string "Invalid request body"
// @Failure 404 {object} map[string]string "Listing not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /reviews [post]
func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateReviewRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	parent, err := domain.ResolveParent(req.LandID, req.HouseID)
	if err != nil {
		response.DomainError(w, h.logger, err)
		return
	}

	review, err := h.service.SubmitReview(r.Context(), moderation.ReviewSubmission{
		Name:    strings.TrimSpace(req.Name),
		Email:   strings.TrimSpace(req.Email),
		Rating:  req.Rating,
		Comment: strings.TrimSpace(req.Comment),
		Parent:  parent,
	})
	if err != nil {
		response.DomainError(w, h.logger, err)
		return
	}

	response.Created(w, review)
}

// GetByID handles GET /api/v1/reviews/{id}
// @Summary Get a review
// @Tags Reviews
// @Produce json
// @Param id path string true "Review ID (UUID)"
// @Success 200 {object} map[string]interface{} "Review"
// @Failure 400 {object} map[string]string "Invalid review ID"
// @Failure 404 {object} map[string]string "Review not found"
// @Router /reviews/{id} [get]
func (h *ReviewHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetUUIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid review ID")
		return
	}

	review, err := h.service.GetReview(r.Context(), id)
	if err != nil {
		response.DomainError(w, h.logger, err)
		return
	}

	response.Success(w, review)
}

// ByLand handles GET /api/v1/reviews/land/{landId}
// @Summary Reviews of a land listing
// @Description Newest reviews of a land listing with rating statistics. Results are cached.
// @Tags Reviews
// @Produce json
// @Param landId path string true "Land ID (UUID)"
// @Param status query string false "PENDING, APPROVED or REJECTED; all statuses when omitted"
// @Param limit query int false "Number of reviews (max 100)" default(50)
// @Success 200 {object} map[string]interface{} "Reviews and stats"
// @Failure 404 {object} map[string]string "Land not found"
// @Router /reviews/land/{landId} [get]
func (h *ReviewHandler) ByLand(w http.ResponseWriter, r *http.Request) {
	h.byListing(w, r, domain.ParentLand, "landId")
}

// ByHouse handles GET /api/v1/reviews/house/{houseId}
// @Summary Reviews of a house listing
// @Description Newest reviews of a house listing with rating statistics. Results are cached.
// @Tags Reviews
// @Produce json
// @Param houseId path string true "House ID (UUID)"
// @Param status query string false "PENDING, APPROVED or REJECTED; all statuses when omitted"
// @Param limit query int false "Number of reviews (max 100)" default(50)
// @Success 200 {object} map[string]interface{} "Reviews and stats"
// @Failure 404 {object} map[string]string "House not found"
// @Router /reviews/house/{houseId} [get]
func (h *ReviewHandler) ByHouse(w http.ResponseWriter, r *http.Request) {
	h.byListing(w, r, domain.ParentHouse, "houseId")
}

func (h *ReviewHandler) byListing(w http.ResponseWriter, r *http.Request, kind domain.ParentKind, param string) {
	id, err := request.GetUUIDParam(r, param)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid "+string(kind)+" ID")
		return
	}

	status, err := request.GetStatusQuery(r, "status")
	if err != nil {
		response.DomainError(w, h.logger, err)
		return
	}

	page, err := h.service.ListingReviews(r.Context(), domain.ParentRef{Kind: kind, ID: id}, status, request.GetIntQuery(r, "limit", 0))
	if err != nil {
		response.DomainError(w, h.logger, err)
		return
	}

	response.Success(w, page)
}

// List handles GET /api/v1/reviews
// @Summary List reviews
// @Description Filtered list of reviews for moderators
// @Tags Reviews
// @Produce json
// @Security BearerAuth
// @Param status query string false "Moderation status"
// @Param rating query int false "Exact rating"
// @Param land_id query string false "Land ID"
// @Param house_id query string false "House ID"
// @Param is_verified query bool false "Verified reviews only"
// @Param search query string false "Matches name, email or comment"
// @Param sort_by query string false "created_at, rating, name or status" default(created_at)
// @Param sort_order query string false "asc or desc" default(desc)
// @Param limit query int false "Number of items per page (max 100)" default(20)
// @Param offset query int false "Number of items to skip" default(0)
// @Success 200 {object} map[string]interface{} "Paginated list of reviews"
// @Failure 400 {object} map[string]string "Invalid filter"
// @Router /reviews [get]
func (h *ReviewHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := reviewFilter(r)
	if err != nil {
		response.DomainError(w, h.logger, err)
		return
	}

	reviews, total, err := h.service.ListReviews(r.Context(), filter)
	if err != nil {
		response.DomainError(w, h.logger, err)
		return
	}

	response.Paginated(w, reviews, total, filter.Limit, filter.Offset)
}

func reviewFilter(r *http.Request) (domain.ReviewFilter, error) {
	q := r.URL.Query()
	filter := domain.ReviewFilter{
		Search:    strings.TrimSpace(q.Get("search")),
		SortBy:    q.Get("sort_by"),
		Ascending: strings.EqualFold(q.Get("sort_order"), "asc"),
	}
	filter.Limit, filter.Offset = request.GetPaginationParams(r)

	status, err := request.GetStatusQuery(r, "status")
	if err != nil {
		return filter, err
	}
	filter.Status = status

	if rating := request.GetIntQuery(r, "rating", 0); rating >= 1 && rating <= 5 {
		filter.Rating = &rating
	}

	verified, err := request.GetBoolQuery(r, "is_verified")
	if err != nil {
		return filter, err
	}
	filter.IsVerified = verified

	if q.Get("land_id") != "" || q.Get("house_id") != "" {
		parent, err := domain.ResolveParent(q.Get("land_id"), q.Get("house_id"))
		if err != nil {
			return filter, err
		}
		filter.Parent = &parent
	}

	return filter, nil
}

// Pending handles GET /api/v1/reviews/pending
// @Summary Moderation queue
// @Description Pending reviews, oldest first
// @Tags Reviews
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Number of items per page (max 100)" default(20)
// @Param offset query int false "Number of items to skip" default(0)
// @Success 200 {object} map[string]interface{} "Paginated list of pending reviews"
// @Router /reviews/pending [get]
func (h *ReviewHandler) Pending(w http.ResponseWriter, r *http.Request) {
	limit, offset := request.GetPaginationParams(r)

	reviews, total, err := h.service.PendingReviews(r.Context(), limit, offset)
	if err != nil {
		response.DomainError(w, h.logger, err)
		return
	}

	response.Paginated(w, reviews, total, limit, offset)
}

// Stats handles GET /api/v1/reviews/stats/{kind}/{id}
// @Summary Review statistics of a listing
// @Tags Reviews
// @Produce json
// @Security BearerAuth
// @Param kind path string true "land or house"
// @Param id path string true "Listing ID (UUID)"
// @Success 200 {object} map[string]interface{} "Review stats"
// @Failure 400 {object} map[string]string "Invalid listing"
// @Failure 404 {object} map[string]string "Listing not found"
// @Router /reviews/stats/{kind}/{id} [get]
func (h *ReviewHandler) Stats(w http.ResponseWriter, r *http.Request) {
	kind, err := domain.ParseParentKind(chi.URLParam(r, "kind"))
	if err != nil {
		response.DomainError(w, h.logger, err)
		return
	}
	id, err := request.GetUUIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid listing ID")
		return
	}

	stats, err := h.service.ListingStats(r.Context(), domain.ParentRef{Kind: kind, ID: id})
	if err != nil {
		response.DomainError(w, h.logger, err)
		return
	}

	response.Success(w, stats)
}

// UpdateStatus handles PUT /api/v1/reviews/{id}/status
// @Summary Change the status of a review
// @Tags Reviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Review ID (UUID)"
// @Param status body StatusRequest true "New status"
// @Success 200 {object} map[string]interface{} "Updated review"
// @Failure 400 {object} map[string]string "Invalid status or transition"
// @Failure 404 {object} map[string]string "Review not found"
// @Router /reviews/{id}/status [put]
func (h *ReviewHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
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

// Approve handles PUT /api/v1/reviews/{id}/approve
// @Summary Approve a review
// @Tags Reviews
// @Produce json
// @Security BearerAuth
// @Param id path string true "Review ID (UUID)"
// @Success 200 {object} map[string]interface{} "Approved review"
// @Failure 404 {object} map[string]string "Review not found"
// @Router /reviews/{id}/approve [put]
func (h *ReviewHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, domain.StatusApproved)
}

// Reject handles PUT /api/v1/reviews/{id}/reject
// @Summary Reject a review
// @Tags Reviews
// @Produce json
// @Security BearerAuth
// @Param id path string true "Review ID (UUID)"
// @Success 200 {object} map[string]interface{} "Rejected review"
// @Failure 404 {object} map[string]string "Review not found"
// @Router /reviews/{id}/reject [put]
func (h *ReviewHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, domain.StatusRejected)
}

func (h *ReviewHandler) setStatus(w http.ResponseWriter, r *http.Request, status domain.ModerationStatus) {
	id, err := request.GetUUIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid review ID")
		return
	}

	review, err := h.service.SetReviewStatus(r.Context(), id, status)
	if err != nil {
		response.DomainError(w, h.logger, err)
		return
	}

	response.Success(w, review)
}

// BulkApprove handles POST /api/v1/reviews/bulk/approve
// @Summary Approve several reviews
// @Description All or nothing: fails when any ID is unknown or cannot be approved
// @Tags Reviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param ids body BulkRequest true "Review IDs"
// @Success 200 {object} map[string]interface{} "Number of updated reviews with a summary message"
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 404 {object} map[string]string "Some reviews not found"
// @Router /reviews/bulk/approve [post]
func (h *ReviewHandler) BulkApprove(w http.ResponseWriter, r *http.Request) {
	h.bulk(w, r, domain.StatusApproved)
}

// BulkReject handles POST /api/v1/reviews/bulk/reject
// @Summary Reject several reviews
// @Description All or nothing: fails when any ID is unknown or cannot be rejected
// @Tags Reviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param ids body BulkRequest true "Review IDs"
// @Success 200 {object} map[string]interface{} "Number of updated reviews with a summary message"
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 404 {object} map[string]string "Some reviews not found"
// @Router /reviews/bulk/reject [post]
func (h *ReviewHandler) BulkReject(w http.ResponseWriter, r *http.Request) {
	h.bulk(w, r, domain.StatusRejected)
}

func (h *ReviewHandler) bulk(w http.ResponseWriter, r *http.Request, status domain.ModerationStatus) {
	var req BulkRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	count, err := h.service.BulkSetReviewStatus(r.Context(), req.IDs, status)
	if err != nil {
		response.DomainError(w, h.logger, err)
		return
	}

	response.SuccessMessage(w, bulkMessage(count, "review", status), map[string]int64{"count": count})
}

// Delete handles DELETE /api/v1/reviews/{id}
// @Summary Delete a review
// @Description Deleting an approved review recomputes the listing rating
// @Tags Reviews
// @Security BearerAuth
// @Param id path string true "Review ID (UUID)"
// @Success 200 {object} map[string]interface{} "Review deleted"
// @Failure 404 {object} map[string]string "Review not found"
// @Router /reviews/{id} [delete]
func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetUUIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid review ID")
		return
	}

	if err := h.service.RemoveReview(r.Context(), id); err != nil {
		response.DomainError(w, h.logger, err)
		return
	}

	response.Message(w, "Review deleted successfully")
}

// bulkMessage summarises a bulk moderation, e.g. "3 reviews approved"
func bulkMessage(count int64, noun string, status domain.ModerationStatus) string {
	if count != 1 {
		noun += "s"
	}
	return fmt.Sprintf("%d %s %s", count, noun, strings.ToLower(string(status)))
}
