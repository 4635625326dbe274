package handler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jglobalproperties/estate_api/internal/delivery/http/request"
	"github.com/jglobalproperties/estate_api/internal/delivery/http/response"
	"github.com/jglobalproperties/estate_api/internal/domain"
	"github.com/jglobalproperties/estate_api/internal/pkg/logger"
	"github.com/jglobalproperties/estate_api/internal/usecase/newsletter"
)

// NewsletterService is the newsletter use case consumed by NewsletterHandler
type NewsletterService interface {
	Subscribe(ctx context.Context, in newsletter.SubscribeInput) (bool, error)
	Unsubscribe(ctx context.Context, in newsletter.UnsubscribeInput) (bool, error)
	Subscribers(ctx context.Context, limit, offset int) ([]*domain.Subscriber, int, *newsletter.Stats, error)
	ExportCSV(ctx context.Context, w io.Writer) (int, error)
}

// NewsletterHandler handles newsletter subscription endpoints
type NewsletterHandler struct {
	service NewsletterService
	logger  *logger.Logger
	now     func() time.Time
}

// NewNewsletterHandler creates a new newsletter handler
func NewNewsletterHandler(service NewsletterService, log *logger.Logger) *NewsletterHandler {
	return &NewsletterHandler{
		service: service,
		logger:  log,
		now:     time.Now,
	}
}

// Subscribe handles POST /api/v1/newsletter/subscribe
// @Summary Subscribe to the newsletter
// @Description Creates a subscription or reactivates an inactive one
// @Tags Newsletter
// @Accept json
// @Produce json
// @Param subscription body newsletter.SubscribeInput true "Subscriber"
// @Success 201 {object} map[string]interface{} "Subscribed"
// @Success 200 {object} map[string]interface{} "Subscription reactivated"
// @Failure 409 {object} map[string]string "Already subscribed"
// @Router /newsletter/subscribe [post]
func (h *NewsletterHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var in newsletter.SubscribeInput
	if err := request.DecodeJSON(r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	in.IPAddress = request.ClientIP(r)
	in.UserAgent = r.UserAgent()

	reactivated, err := h.service.Subscribe(r.Context(), in)
	if err != nil {
		response.DomainError(w, h.logger, err)
		return
	}

	if reactivated {
		response.Message(w, "Welcome back! Your subscription has been reactivated")
		return
	}
	response.JSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "Successfully subscribed to the newsletter",
	})
}

// Unsubscribe handles POST /api/v1/newsletter/unsubscribe
// @Summary Unsubscribe from the newsletter
// @Tags Newsletter
// @Accept json
// @Produce json
// @Param subscription body newsletter.UnsubscribeInput true "Subscriber email"
// @Success 200 {object} map[string]interface{} "Unsubscribed"
// @Failure 404 {object} map[string]string "Email not subscribed"
// @Router /newsletter/unsubscribe [post]
func (h *NewsletterHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	var in newsletter.UnsubscribeInput
	if err := request.DecodeJSON(r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	changed, err := h.service.Unsubscribe(r.Context(), in)
	if err != nil {
		response.DomainError(w, h.logger, err)
		return
	}

	if !changed {
		response.Message(w, "Email is already unsubscribed")
		return
	}
	response.Message(w, "Successfully unsubscribed from the newsletter")
}

// Subscribers handles GET /api/v1/newsletter/subscribers
// @Summary Active subscribers
// @Tags Newsletter
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Number of items per page (max 100)" default(50)
// @Param offset query int false "Number of items to skip" default(0)
// @Success 200 {object} map[string]interface{} "Subscribers, pagination and stats"
// @Router /newsletter/subscribers [get]
func (h *NewsletterHandler) Subscribers(w http.ResponseWriter, r *http.Request) {
	limit := request.GetIntQuery(r, "limit", 50)
	_, offset := request.GetPaginationParams(r)

	subs, total, stats, err := h.service.Subscribers(r.Context(), limit, offset)
	if err != nil {
		response.DomainError(w, h.logger, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    subs,
		"pagination": map[string]int{
			"total":  total,
			"limit":  limit,
			"offset": offset,
		},
		"stats": stats,
	})
}

// Export handles GET /api/v1/newsletter/export
// @Summary Export active subscribers as CSV
// @Tags Newsletter
// @Produce text/csv
// @Security BearerAuth
// @Success 200 {file} file "CSV file"
// @Router /newsletter/export [get]
func (h *NewsletterHandler) Export(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if _, err := h.service.ExportCSV(r.Context(), &buf); err != nil {
		response.DomainError(w, h.logger, err)
		return
	}

	filename := fmt.Sprintf("newsletter-subscribers-%s.csv", h.now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
