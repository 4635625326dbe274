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
	"github.com/jglobalproperties/estate_api/internal/usecase/blog"
)

// BlogService is the blog use case consumed by BlogHandler
type BlogService interface {
	Create(ctx context.Context, in blog.CreateInput) (*domain.Blog, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Blog, error)
	GetPublished(ctx context.Context, id uuid.UUID) (*domain.Blog, error)
	GetPublishedBySlug(ctx context.Context, slug string) (*domain.Blog, error)
	List(ctx context.Context, filter domain.BlogFilter, published bool) ([]*domain.Blog, int, error)
	Update(ctx context.Context, id uuid.UUID, in blog.UpdateInput) (*domain.Blog, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// BlogHandler handles HTTP requests for blog posts
type BlogHandler struct {
	service BlogService
	logger  *logger.Logger
}

// NewBlogHandler creates a new blog handler
func NewBlogHandler(service BlogService, log *logger.Logger) *BlogHandler {
	return &BlogHandler{
		service: service,
		logger:  log,
	}
}

// List handles GET /api/v1/blogs
// @Summary List published blog posts
// @Tags Blogs
// @Produce json
// @Param category query string false "Category"
// @Param search query string false "Matches title or excerpt"
// @Param limit query int false "Number of items per page (max 100)" default(20)
// @Param offset query int false "Number of items to skip" default(0)
// @Success 200 {object} map[string]interface{} "Paginated list of blog posts"
// @Router /blogs [get]
func (h *BlogHandler) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, true)
}

// AdminList handles GET /api/v1/admin/blogs
// @Summary List blog posts in any status
// @Tags Blogs
// @Produce json
// @Security BearerAuth
// @Param status query string false "DRAFT, PUBLISHED or ARCHIVED"
// @Param category query string false "Category"
// @Param search query string false "Matches title or excerpt"
// @Param limit query int false "Number of items per page (max 100)" default(20)
// @Param offset query int false "Number of items to skip" default(0)
// @Success 200 {object} map[string]interface{} "Paginated list of blog posts"
// @Router /admin/blogs [get]
func (h *BlogHandler) AdminList(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, false)
}

func (h *BlogHandler) list(w http.ResponseWriter, r *http.Request, published bool) {
	q := r.URL.Query()
	filter := domain.BlogFilter{
		Category: strings.TrimSpace(q.Get("category")),
		Search:   strings.TrimSpace(q.Get("search")),
	}
	filter.Limit, filter.Offset = request.GetPaginationParams(r)

	if raw := q.Get("status"); raw != "" && !published {
		status := domain.BlogStatus(strings.ToUpper(raw))
		switch status {
		case domain.BlogDraft, domain.BlogPublished, domain.BlogArchived:
			filter.Status = &status
		default:
			response.DomainError(w, h.logger, fmt.Errorf("%w: unknown blog status %q", domain.ErrInvalidInput, raw))
			return
		}
	}

	blogs, total, err := h.service.List(r.Context(), filter, published)
	if err != nil {
		response.DomainError(w, h.logger, err)
		return
	}

	response.Paginated(w, blogs, total, filter.Limit, filter.Offset)
}

// GetByID handles GET /api/v1/blogs/{blogId}
// @Summary Read a published blog post
// @Description Counts a view
// @Tags Blogs
// @Produce json
// @Param blogId path string true "Blog ID (UUID)"
// @Success 200 {object} map[string]interface{} "Blog post"
// @Failure 404 {object} map[string]string "Blog not found"
// @Router /blogs/{blogId} [get]
func (h *BlogHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetUUIDParam(r, "blogId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid blog ID")
		return
	}

	post, err := h.service.GetPublished(r.Context(), id)
	if err != nil {
		response.DomainError(w, h.logger, err)
		return
	}

	response.Success(w, post)
}

// GetBySlug handles GET /api/v1/blogs/slug/{slug}
// @Summary Read a published blog post by slug
// @Tags Blogs
// @Produce json
// @Param slug path string true "Blog slug"
// @Success 200 {object} map[string]interface{} "Blog post"
// @Failure 404 {object} map[string]string "Blog not found"
// @Router /blogs/slug/{slug} [get]
func (h *BlogHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	post, err := h.service.GetPublishedBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		response.DomainError(w, h.logger, err)
		return
	}

	response.Success(w, post)
}

// AdminGet handles GET /api/v1/admin/blogs/{blogId}
// @Summary Get a blog post in any status
// @Tags Blogs
// @Produce json
// @Security BearerAuth
// @Param blogId path string true "Blog ID (UUID)"
// @Success 200 {object} map[string]interface{} "Blog post"
// @Failure 404 {object} map[string]string "Blog not found"
// @Router /admin/blogs/{blogId} [get]
func (h *BlogHandler) AdminGet(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetUUIDParam(r, "blogId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid blog ID")
		return
	}

	post, err := h.service.Get(r.Context(), id)
	if err != nil {
		response.DomainError(w, h.logger, err)
		return
	}

	response.Success(w, post)
}

// Create handles POST /api/v1/blogs
// @Summary Create a blog post
// @Tags Blogs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param blog body blog.CreateInput true "Blog post"
// @Success 201 {object} map[string]interface{} "Created blog post"
// @Failure 400 {object} map[string]string "Invalid request body"
// @Router /blogs [post]
func (h *BlogHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in blog.CreateInput
	if err := request.DecodeJSON(r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	post, err := h.service.Create(r.Context(), in)
	if err != nil {
		response.DomainError(w, h.logger, err)
		return
	}

	response.Created(w, post)
}

// Update handles PUT /api/v1/blogs/{blogId}
// @Summary Update a blog post
// @Tags Blogs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param blogId path string true "Blog ID (UUID)"
// @Param blog body blog.UpdateInput true "Fields to change"
// @Success 200 {object} map[string]interface{} "Updated blog post"
// @Failure 404 {object} map[string]string "Blog not found"
// @Router /blogs/{blogId} [put]
func (h *BlogHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetUUIDParam(r, "blogId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid blog ID")
		return
	}

	var in blog.UpdateInput
	if err := request.DecodeJSON(r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	post, err := h.service.Update(r.Context(), id, in)
	if err != nil {
		response.DomainError(w, h.logger, err)
		return
	}

	response.Success(w, post)
}

// Delete handles DELETE /api/v1/blogs/{blogId}
// @Summary Delete a blog post and its comments
// @Tags Blogs
// @Security BearerAuth
// @Param blogId path string true "Blog ID (UUID)"
// @Success 204 "Blog deleted"
// @Failure 404 {object} map[string]string "Blog not found"
// @Router /blogs/{blogId} [delete]
func (h *BlogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetUUIDParam(r, "blogId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid blog ID")
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		response.DomainError(w, h.logger, err)
		return
	}

	response.NoContent(w)
}
