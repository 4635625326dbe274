package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/jglobalproperties/estate_api/internal/delivery/http/request"
	"github.com/jglobalproperties/estate_api/internal/delivery/http/response"
	"github.com/jglobalproperties/estate_api/internal/domain"
	"github.com/jglobalproperties/estate_api/internal/pkg/logger"
	"github.com/jglobalproperties/estate_api/internal/usecase/event"
)

// EventService is the event use case consumed by EventHandler
type EventService interface {
	Create(ctx context.Context, in event.CreateInput) (*domain.Event, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Event, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Event, error)
	List(ctx context.Context, filter domain.EventFilter) ([]*domain.Event, int, error)
	Update(ctx context.Context, id uuid.UUID, in event.UpdateInput) (*domain.Event, error)
	Delete(ctx context.Context, id uuid.UUID) error
	SetImage(ctx context.Context, id uuid.UUID, in event.ImageUpload) (*domain.Event, error)
	RemoveImage(ctx context.Context, id uuid.UUID) (*domain.Event, error)
	MaxImageBytes() int64
}

// EventHandler handles HTTP requests for events
type EventHandler struct {
	service EventService
	logger  *logger.Logger
}

// NewEventHandler creates a new event handler
func NewEventHandler(service EventService, log *logger.Logger) *EventHandler {
	return &EventHandler{
		service: service,
		logger:  log,
	}
}

// List handles GET /api/v1/events
// @Summary List events
// @Tags Events
// @Produce json
// @Param search query string false "Matches title, description, location or organizer"
// @Param location query string false "Location contains"
// @Param organizer query string false "Organizer contains"
// @Param is_past query bool false "Only past (true) or upcoming (false) events"
// @Param date query string false "Events on this day (YYYY-MM-DD)"
// @Param sort_by query string false "created_at, date or title" default(created_at)
// @Param sort_order query string false "asc or desc" default(desc)
// @Param limit query int false "Number of items per page (max 100)" default(20)
// @Param offset query int false "Number of items to skip" default(0)
// @Success 200 {object} map[string]interface{} "Paginated list of events"
// @Failure 400 {object} map[string]string "Invalid query"
// @Router /events [get]
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.EventFilter{
		Search:    strings.TrimSpace(q.Get("search")),
		Location:  strings.TrimSpace(q.Get("location")),
		Organizer: strings.TrimSpace(q.Get("organizer")),
		SortBy:    strings.ToLower(q.Get("sort_by")),
	}
	filter.Limit, filter.Offset = request.GetPaginationParams(r)

	past, err := request.GetBoolQuery(r, "is_past")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "is_past must be true or false")
		return
	}
	filter.Past = past

	if raw := q.Get("date"); raw != "" {
		day, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		filter.Day = &day
	}

	switch strings.ToLower(q.Get("sort_order")) {
	case "", "desc":
	case "asc":
		filter.Ascending = true
	default:
		response.DomainError(w, h.logger, fmt.Errorf("%w: sort_order must be asc or desc", domain.ErrInvalidInput))
		return
	}

	events, total, err := h.service.List(r.Context(), filter)
	if err != nil {
		response.DomainError(w, h.logger, err)
		return
	}

	response.Paginated(w, events, total, filter.Limit, filter.Offset)
}

// GetByID handles GET /api/v1/events/{eventId}
// @Summary Get an event
// @Tags Events
// @Produce json
// @Param eventId path string true "Event ID (UUID)"
// @Success 200 {object} map[string]interface{} "Event"
// @Failure 404 {object} map[string]string "Event not found"
// @Router /events/{eventId} [get]
func (h *EventHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetUUIDParam(r, "eventId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid event ID")
		return
	}

	ev, err := h.service.Get(r.Context(), id)
	if err != nil {
		response.DomainError(w, h.logger, err)
		return
	}

	response.Success(w, ev)
}

// GetBySlug handles GET /api/v1/events/slug/{slug}
// @Summary Get an event by slug
// @Tags Events
// @Produce json
// @Param slug path string true "Event slug"
// @Success 200 {object} map[string]interface{} "Event"
// @Failure 404 {object} map[string]string "Event not found"
// @Router /events/slug/{slug} [get]
func (h *EventHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	ev, err := h.service.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		response.DomainError(w, h.logger, err)
		return
	}

	response.Success(w, ev)
}

// Create handles POST /api/v1/events
// @Summary Create an event
// @Tags Events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param event body event.CreateInput true "Event"
// @Success 201 {object} map[string]interface{} "Created event"
// @Failure 400 {object} map[string]string "Invalid request body"
// @Router /events [post]
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in event.CreateInput
	if err := request.DecodeJSON(r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ev, err := h.service.Create(r.Context(), in)
	if err != nil {
		response.DomainError(w, h.logger, err)
		return
	}

	response.Created(w, ev)
}

// Update handles PUT /api/v1/events/{eventId}
// @Summary Update an event
// @Tags Events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventId path string true "Event ID (UUID)"
// @Param event body event.UpdateInput true "Fields to change"
// @Success 200 {object} map[string]interface{} "Updated event"
// @Failure 404 {object} map[string]string "Event not found"
// @Router /events/{eventId} [put]
func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetUUIDParam(r, "eventId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid event ID")
		return
	}

	var in event.UpdateInput
	if err := request.DecodeJSON(r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ev, err := h.service.Update(r.Context(), id, in)
	if err != nil {
		response.DomainError(w, h.logger, err)
		return
	}

	response.Success(w, ev)
}

// Delete handles DELETE /api/v1/events/{eventId}
// @Summary Delete an event and its image
// @Tags Events
// @Produce json
// @Security BearerAuth
// @Param eventId path string true "Event ID (UUID)"
// @Success 200 {object} map[string]interface{} "Event deleted"
// @Failure 404 {object} map[string]string "Event not found"
// @Router /events/{eventId} [delete]
func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetUUIDParam(r, "eventId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid event ID")
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		response.DomainError(w, h.logger, err)
		return
	}

	response.Message(w, "Event deleted successfully")
}

// UploadImage handles POST /api/v1/events/{eventId}/image
// @Summary Set the event image
// @Description Replaces any existing image
// @Tags Events
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param eventId path string true "Event ID (UUID)"
// @Param image formData file true "Image file"
// @Param caption formData string false "Caption"
// @Success 200 {object} map[string]interface{} "Updated event"
// @Failure 400 {object} map[string]string "Invalid upload"
// @Failure 404 {object} map[string]string "Event not found"
// @Failure 413 {object} map[string]string "File too large"
// @Router /events/{eventId}/image [post]
func (h *EventHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetUUIDParam(r, "eventId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid event ID")
		return
	}

	upload, ok := readImageForm(w, r, "image", h.service.MaxImageBytes())
	if !ok {
		return
	}
	defer upload.Close()

	ev, err := h.service.SetImage(r.Context(), id, event.ImageUpload{
		Filename: upload.filename,
		Body:     upload.file,
		Caption:  r.FormValue("caption"),
	})
	if err != nil {
		response.DomainError(w, h.logger, err)
		return
	}

	response.Success(w, ev)
}

// DeleteImage handles DELETE /api/v1/events/{eventId}/image
// @Summary Remove the event image
// @Tags Events
// @Produce json
// @Security BearerAuth
// @Param eventId path string true "Event ID (UUID)"
// @Success 200 {object} map[string]interface{} "Image removed"
// @Failure 404 {object} map[string]string "Event or image not found"
// @Router /events/{eventId}/image [delete]
func (h *EventHandler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetUUIDParam(r, "eventId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid event ID")
		return
	}

	ev, err := h.service.RemoveImage(r.Context(), id)
	if err != nil {
		response.DomainError(w, h.logger, err)
		return
	}

	response.SuccessMessage(w, "Event image removed", ev)
}
