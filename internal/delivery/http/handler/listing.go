package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/jglobalproperties/estate_api/internal/delivery/http/request"
	"github.com/jglobalproperties/estate_api/internal/delivery/http/response"
	"github.com/jglobalproperties/estate_api/internal/domain"
	"github.com/jglobalproperties/estate_api/internal/pkg/logger"
	"github.com/jglobalproperties/estate_api/internal/usecase/listing"
)

// ListingService is the listing use case consumed by ListingHandler
type ListingService interface {
	Create(ctx context.Context, kind domain.ParentKind, in listing.CreateInput) (*domain.Listing, error)
	GetByID(ctx context.Context, kind domain.ParentKind, id uuid.UUID) (*domain.Listing, error)
	GetBySlug(ctx context.Context, kind domain.ParentKind, slug string) (*domain.Listing, error)
	List(ctx context.Context, kind domain.ParentKind, filter domain.ListingFilter) ([]*domain.Listing, int, error)
	Update(ctx context.Context, kind domain.ParentKind, id uuid.UUID, in listing.UpdateInput) (*domain.Listing, error)
	Delete(ctx context.Context, kind domain.ParentKind, id uuid.UUID) error

	Units(ctx context.Context, kind domain.ParentKind, id uuid.UUID) ([]domain.ListingUnit, error)
	ReplaceUnits(ctx context.Context, kind domain.ParentKind, id uuid.UUID, in listing.ReplaceUnitsInput) ([]domain.ListingUnit, error)
	Images(ctx context.Context, kind domain.ParentKind, id uuid.UUID) ([]domain.ListingImage, error)
	AddImage(ctx context.Context, kind domain.ParentKind, id uuid.UUID, in listing.ImageUpload) (*domain.ListingImage, error)
	UpdateImage(ctx context.Context, kind domain.ParentKind, id, imageID uuid.UUID, in listing.ImageUpdateInput) (*domain.ListingImage, error)
	DeleteImage(ctx context.Context, kind domain.ParentKind, id, imageID uuid.UUID) error
	MaxImageBytes() int64
}

// ListingHandler serves one listing kind. Houses and lands share the implementation.
type ListingHandler struct {
	kind    domain.ParentKind
	service ListingService
	logger  *logger.Logger
}

// NewListingHandler creates a handler for listings of the given kind
func NewListingHandler(kind domain.ParentKind, service ListingService, log *logger.Logger) *ListingHandler {
	return &ListingHandler{
		kind:    kind,
		service: service,
		logger:  log,
	}
}

// Create handles POST /api/v1/houses and POST /api/v1/lands
// @Summary Create a listing
// @Tags Listings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param kind path string true "houses or lands"
// @Param listing body listing.CreateInput true "Listing details with optional units"
// @Success 201 {object} map[string]interface{} "Created listing"
// @Failure 400 {object} map[string]string "Invalid request body"
// @Failure 409 {object} map[string]string "Slug already taken"
// @Router /{kind} [post]
func (h *ListingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in listing.CreateInput
	if err := request.DecodeJSON(r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	created, err := h.service.Create(r.Context(), h.kind, in)
	if err != nil {
		response.DomainError(w, h.logger, err)
		return
	}

	response.Created(w, created)
}

// GetByID handles GET /api/v1/houses/{id} and GET /api/v1/lands/{id}
// @Summary Get a listing
// @Tags Listings
// @Produce json
// @Param kind path string true "houses or lands"
// @Param id path string true "Listing ID (UUID)"
// @Success 200 {object} map[string]interface{} "Listing"
// @Failure 404 {object} map[string]string "Listing not found"
// @Router /{kind}/{id} [get]
func (h *ListingHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetUUIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid "+string(h.kind)+" ID")
		return
	}

	found, err := h.service.GetByID(r.Context(), h.kind, id)
	if err != nil {
		response.DomainError(w, h.logger, err)
		return
	}

	response.Success(w, found)
}

// GetBySlug handles GET /api/v1/houses/slug/{slug} and GET /api/v1/lands/slug/{slug}
// @Summary Get a listing by slug
// @Tags Listings
// @Produce json
// @Param kind path string true "houses or lands"
// @Param slug path string true "Listing slug"
// @Success 200 {object} map[string]interface{} "Listing"
// @Failure 404 {object} map[string]string "Listing not found"
// @Router /{kind}/slug/{slug} [get]
func (h *ListingHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	found, err := h.service.GetBySlug(r.Context(), h.kind, chi.URLParam(r, "slug"))
	if err != nil {
		response.DomainError(w, h.logger, err)
		return
	}

	response.Success(w, found)
}

// List handles GET /api/v1/houses and GET /api/v1/lands
// @Summary List listings
// @Tags Listings
// @Produce json
// @Param kind path string true "houses or lands"
// @Param search query string false "Matches title or location"
// @Param status query string false "AVAILABLE, RESERVED or SOLD"
// @Param limit query int false "Number of items per page (max 100)" default(20)
// @Param offset query int false "Number of items to skip" default(0)
// @Success 200 {object} map[string]interface{} "Paginated list of listings"
// @Router /{kind} [get]
func (h *ListingHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := domain.ListingFilter{Search: strings.TrimSpace(r.URL.Query().Get("search"))}
	filter.Limit, filter.Offset = request.GetPaginationParams(r)

	if raw := r.URL.Query().Get("status"); raw != "" {
		status := domain.ListingStatus(strings.ToUpper(raw))
		switch status {
		case domain.ListingAvailable, domain.ListingReserved, domain.ListingSold:
			filter.Status = &status
		default:
			response.DomainError(w, h.logger, fmt.Errorf("%w: unknown listing status %q", domain.ErrInvalidInput, raw))
			return
		}
	}

	listings, total, err := h.service.List(r.Context(), h.kind, filter)
	if err != nil {
		response.DomainError(w, h.logger, err)
		return
	}

	response.Paginated(w, listings, total, filter.Limit, filter.Offset)
}

// Update handles PUT /api/v1/houses/{id} and PUT /api/v1/lands/{id}
// @Summary Update a listing
// @Description Partial update. Rating fields are derived from reviews and cannot be set.
// @Tags Listings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param kind path string true "houses or lands"
// @Param id path string true "Listing ID (UUID)"
// @Param listing body listing.UpdateInput true "Fields to change"
// @Success 200 {object} map[string]interface{} "Updated listing"
// @Failure 404 {object} map[string]string "Listing not found"
// @Failure 409 {object} map[string]string "Stale version"
// @Router /{kind}/{id} [put]
func (h *ListingHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetUUIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid "+string(h.kind)+" ID")
		return
	}

	var in listing.UpdateInput
	if err := request.DecodeJSON(r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated, err := h.service.Update(r.Context(), h.kind, id, in)
	if err != nil {
		response.DomainError(w, h.logger, err)
		return
	}

	response.Success(w, updated)
}

// Delete handles DELETE /api/v1/houses/{id} and DELETE /api/v1/lands/{id}
// @Summary Delete a listing and its reviews
// @Tags Listings
// @Security BearerAuth
// @Param kind path string true "houses or lands"
// @Param id path string true "Listing ID (UUID)"
// @Success 204 "Listing deleted"
// @Failure 404 {object} map[string]string "Listing not found"
// @Router /{kind}/{id} [delete]
func (h *ListingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetUUIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid "+string(h.kind)+" ID")
		return
	}

	if err := h.service.Delete(r.Context(), h.kind, id); err != nil {
		response.DomainError(w, h.logger, err)
		return
	}

	response.NoContent(w)
}

// Units handles GET /api/v1/houses/{id}/units and GET /api/v1/lands/{id}/units
// @Summary List the units of a listing
// @Tags Listings
// @Produce json
// @Param kind path string true "houses or lands"
// @Param id path string true "Listing ID (UUID)"
// @Success 200 {object} map[string]interface{} "Units, smallest first"
// @Failure 404 {object} map[string]string "Listing not found"
// @Router /{kind}/{id}/units [get]
func (h *ListingHandler) Units(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetUUIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid "+string(h.kind)+" ID")
		return
	}

	units, err := h.service.Units(r.Context(), h.kind, id)
	if err != nil {
		response.DomainError(w, h.logger, err)
		return
	}

	response.Success(w, units)
}

// ReplaceUnits handles PUT /api/v1/houses/{id}/units and PUT /api/v1/lands/{id}/units
// @Summary Replace the units of a listing
// @Description The body is the complete new set; an empty list removes every unit.
// @Tags Listings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param kind path string true "houses or lands"
// @Param id path string true "Listing ID (UUID)"
// @Param units body listing.ReplaceUnitsInput true "New units"
// @Success 200 {object} map[string]interface{} "Stored units"
// @Failure 400 {object} map[string]string "Invalid unit"
// @Failure 404 {object} map[string]string "Listing not found"
// @Router /{kind}/{id}/units [put]
func (h *ListingHandler) ReplaceUnits(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetUUIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid "+string(h.kind)+" ID")
		return
	}

	var in listing.ReplaceUnitsInput
	if err := request.DecodeJSON(r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	units, err := h.service.ReplaceUnits(r.Context(), h.kind, id, in)
	if err != nil {
		response.DomainError(w, h.logger, err)
		return
	}

	response.Success(w, units)
}

// Images handles GET /api/v1/houses/{id}/images and GET /api/v1/lands/{id}/images
// @Summary List the images of a listing
// @Tags Listings
// @Produce json
// @Param kind path string true "houses or lands"
// @Param id path string true "Listing ID (UUID)"
// @Success 200 {object} map[string]interface{} "Images in display order"
// @Failure 404 {object} map[string]string "Listing not found"
// @Router /{kind}/{id}/images [get]
func (h *ListingHandler) Images(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetUUIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid "+string(h.kind)+" ID")
		return
	}

	images, err := h.service.Images(r.Context(), h.kind, id)
	if err != nil {
		response.DomainError(w, h.logger, err)
		return
	}

	response.Success(w, images)
}

// AddImage handles POST /api/v1/houses/{id}/images and POST /api/v1/lands/{id}/images
// @Summary Add an image to a listing
// @Description The first image of a listing becomes its primary image. Without an order the image is appended.
// @Tags Listings
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param kind path string true "houses or lands"
// @Param id path string true "Listing ID (UUID)"
// @Param image formData file true "Image"
// @Param caption formData string false "Caption"
// @Param is_primary formData bool false "Make this the primary image"
// @Param order formData int false "Display position, starting at 0"
// @Success 201 {object} map[string]interface{} "Stored image"
// @Failure 400 {object} map[string]string "Missing or unsupported file"
// @Failure 404 {object} map[string]string "Listing not found"
// @Failure 413 {object} map[string]string "File too large"
// @Router /{kind}/{id}/images [post]
func (h *ListingHandler) AddImage(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetUUIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid "+string(h.kind)+" ID")
		return
	}

	upload, ok := readImageForm(w, r, "image", h.service.MaxImageBytes())
	if !ok {
		return
	}
	defer upload.Close()

	in := listing.ImageUpload{
		Filename: upload.filename,
		Body:     upload.file,
		Caption:  r.FormValue("caption"),
	}
	if raw := r.FormValue("is_primary"); raw != "" {
		if in.IsPrimary, err = strconv.ParseBool(raw); err != nil {
			response.Error(w, http.StatusBadRequest, "is_primary must be true or false")
			return
		}
	}
	if raw := r.FormValue("order"); raw != "" {
		order, err := strconv.Atoi(raw)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "order must be an integer")
			return
		}
		in.Order = &order
	}

	image, err := h.service.AddImage(r.Context(), h.kind, id, in)
	if err != nil {
		response.DomainError(w, h.logger, err)
		return
	}

	response.Created(w, image)
}

// UpdateImage handles PUT /api/v1/houses/{id}/images/{imageId} and PUT /api/v1/lands/{id}/images/{imageId}
// @Summary Change caption, order or primary flag of a listing image
// @Tags Listings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param kind path string true "houses or lands"
// @Param id path string true "Listing ID (UUID)"
// @Param imageId path string true "Image ID (UUID)"
// @Param image body listing.ImageUpdateInput true "Fields to change"
// @Success 200 {object} map[string]interface{} "Updated image"
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 404 {object} map[string]string "Image not found"
// @Router /{kind}/{id}/images/{imageId} [put]
func (h *ListingHandler) UpdateImage(w http.ResponseWriter, r *http.Request) {
	id, imageID, ok := h.imageParams(w, r)
	if !ok {
		return
	}

	var in listing.ImageUpdateInput
	if err := request.DecodeJSON(r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	image, err := h.service.UpdateImage(r.Context(), h.kind, id, imageID, in)
	if err != nil {
		response.DomainError(w, h.logger, err)
		return
	}

	response.Success(w, image)
}

// DeleteImage handles DELETE /api/v1/houses/{id}/images/{imageId} and DELETE /api/v1/lands/{id}/images/{imageId}
// @Summary Delete a listing image
// @Description Deleting the primary image promotes the first remaining one
// @Tags Listings
// @Produce json
// @Security BearerAuth
// @Param kind path string true "houses or lands"
// @Param id path string true "Listing ID (UUID)"
// @Param imageId path string true "Image ID (UUID)"
// @Success 200 {object} map[string]interface{} "Image deleted"
// @Failure 404 {object} map[string]string "Image not found"
// @Router /{kind}/{id}/images/{imageId} [delete]
func (h *ListingHandler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	id, imageID, ok := h.imageParams(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteImage(r.Context(), h.kind, id, imageID); err != nil {
		response.DomainError(w, h.logger, err)
		return
	}

	response.Message(w, "Image deleted successfully")
}

func (h *ListingHandler) imageParams(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	id, err := request.GetUUIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid "+string(h.kind)+" ID")
		return uuid.Nil, uuid.Nil, false
	}
	imageID, err := request.GetUUIDParam(r, "imageId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid image ID")
		return uuid.Nil, uuid.Nil, false
	}
	return id, imageID, true
}
