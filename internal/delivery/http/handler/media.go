package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/jglobalproperties/estate_api/internal/delivery/http/request"
	"github.com/jglobalproperties/estate_api/internal/delivery/http/response"
	"github.com/jglobalproperties/estate_api/internal/domain"
	"github.com/jglobalproperties/estate_api/internal/pkg/logger"
	"github.com/jglobalproperties/estate_api/internal/usecase/media"
)

// MediaService is the media use case consumed by MediaHandler
type MediaService interface {
	Upload(ctx context.Context, in media.UploadInput) (*domain.Media, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Media, error)
	List(ctx context.Context, limit, offset int) ([]*domain.Media, int, error)
	Delete(ctx context.Context, id uuid.UUID) error
	MaxUploadBytes() int64
}

// MediaHandler handles image uploads
type MediaHandler struct {
	service MediaService
	logger  *logger.Logger
}

// NewMediaHandler creates a new media handler
func NewMediaHandler(service MediaService, log *logger.Logger) *MediaHandler {
	return &MediaHandler{
		service: service,
		logger:  log,
	}
}

// Upload handles POST /api/v1/media
// @Summary Upload an image
// @Description JPEG, PNG or GIF. Images larger than the configured bounds are downscaled.
// @Tags Media
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "Image"
// @Param alt formData string false "Alt text"
// @Param caption formData string false "Caption"
// @Success 201 {object} map[string]interface{} "Stored media"
// @Failure 400 {object} map[string]string "Missing or unsupported file"
// @Failure 413 {object} map[string]string "File too large"
// @Router /media [post]
func (h *MediaHandler) Upload(w http.ResponseWriter, r *http.Request) {
	upload, ok := readImageForm(w, r, "file", h.service.MaxUploadBytes())
	if !ok {
		return
	}
	defer upload.Close()

	stored, err := h.service.Upload(r.Context(), media.UploadInput{
		Filename: upload.filename,
		Body:     upload.file,
		Alt:      r.FormValue("alt"),
		Caption:  r.FormValue("caption"),
	})
	if err != nil {
		response.DomainError(w, h.logger, err)
		return
	}

	response.Created(w, stored)
}

// GetByID handles GET /api/v1/media/{id}
// @Summary Get media metadata
// @Tags Media
// @Produce json
// @Security BearerAuth
// @Param id path string true "Media ID (UUID)"
// @Success 200 {object} map[string]interface{} "Media"
// @Failure 404 {object} map[string]string "Media not found"
// @Router /media/{id} [get]
func (h *MediaHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetUUIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid media ID")
		return
	}

	item, err := h.service.Get(r.Context(), id)
	if err != nil {
		response.DomainError(w, h.logger, err)
		return
	}

	response.Success(w, item)
}

// List handles GET /api/v1/media
// @Summary List media
// @Tags Media
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Number of items per page (max 100)" default(20)
// @Param offset query int false "Number of items to skip" default(0)
// @Success 200 {object} map[string]interface{} "Paginated list of media"
// @Router /media [get]
func (h *MediaHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := request.GetPaginationParams(r)

	items, total, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		response.DomainError(w, h.logger, err)
		return
	}

	response.Paginated(w, items, total, limit, offset)
}

// Delete handles DELETE /api/v1/media/{id}
// @Summary Delete media
// @Description Removes the stored object and then its metadata
// @Tags Media
// @Security BearerAuth
// @Param id path string true "Media ID (UUID)"
// @Success 204 "Media deleted"
// @Failure 404 {object} map[string]string "Media not found"
// @Router /media/{id} [delete]
func (h *MediaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetUUIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid media ID")
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		response.DomainError(w, h.logger, err)
		return
	}

	response.NoContent(w)
}
