package blog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jglobalproperties/estate_api/internal/domain"
	"github.com/jglobalproperties/estate_api/internal/pkg/logger"
	"github.com/jglobalproperties/estate_api/internal/pkg/slug"
	"github.com/jglobalproperties/estate_api/internal/pkg/validator"
)

const updateAttempts = 3

// CreateInput holds the fields of a new blog post. Content is HTML.
type CreateInput struct {
	Title    string            `json:"title" validate:"required,min=1,max=255"`
	Content  string            `json:"content" validate:"required"`
	Excerpt  string            `json:"excerpt" validate:"max=500"`
	Category string            `json:"category" validate:"max=100"`
	Status   domain.BlogStatus `json:"status" validate:"omitempty,oneof=DRAFT PUBLISHED ARCHIVED"`
}

// UpdateInput is a partial update; nil fields are left unchanged
type UpdateInput struct {
	Title    *string            `json:"title" validate:"omitempty,min=1,max=255"`
	Content  *string            `json:"content" validate:"omitempty,min=1"`
	Excerpt  *string            `json:"excerpt" validate:"omitempty,max=500"`
	Category *string            `json:"category" validate:"omitempty,max=100"`
	Status   *domain.BlogStatus `json:"status" validate:"omitempty,oneof=DRAFT PUBLISHED ARCHIVED"`
}

// Service handles blog posts
type Service struct {
	repo   domain.BlogRepository
	logger *logger.Logger
	now    func() time.Time
}

// NewService creates a new blog service
func NewService(repo domain.BlogRepository, log *logger.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: log.Component("blog"),
		now:    time.Now,
	}
}

// Create stores a new post. A missing excerpt is derived from the content.
func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Blog, error) {
	if err := validator.Struct(in); err != nil {
		s.logger.Debugf("Blog validation failed: %v", err)
		return nil, err
	}

	blogSlug, err := s.uniqueSlug(ctx, in.Title, uuid.Nil)
	if err != nil {
		return nil, err
	}

	blog := &domain.Blog{
		Title:    in.Title,
		Slug:     blogSlug,
		Content:  in.Content,
		Excerpt:  strings.TrimSpace(in.Excerpt),
		Category: in.Category,
		Status:   in.Status,
	}
	if blog.Status == "" {
		blog.Status = domain.BlogDraft
	}
	if blog.Excerpt == "" {
		blog.Excerpt = Excerpt(blog.Content, ExcerptLength)
	}
	s.stampPublished(blog)

	if err := s.repo.Create(ctx, blog); err != nil {
		if !errors.Is(err, domain.ErrAlreadyExists) {
			s.logger.Error("Failed to create blog", err)
		}
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"blog_id": blog.ID,
		"slug":    blog.Slug,
		"status":  blog.Status,
	}).Info("Blog created successfully")

	return blog, nil
}

// Get retrieves any post by ID
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Blog, error) {
	blog, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logLookup(err, id.String())
		return nil, err
	}
	return blog, nil
}

// GetPublished retrieves a published post by ID and counts the view
func (s *Service) GetPublished(ctx context.Context, id uuid.UUID) (*domain.Blog, error) {
	blog, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logLookup(err, id.String())
		return nil, err
	}
	return s.view(ctx, blog)
}

// GetPublishedBySlug retrieves a published post by slug and counts the view
func (s *Service) GetPublishedBySlug(ctx context.Context, blogSlug string) (*domain.Blog, error) {
	blog, err := s.repo.GetBySlug(ctx, blogSlug)
	if err != nil {
		s.logLookup(err, blogSlug)
		return nil, err
	}
	return s.view(ctx, blog)
}

func (s *Service) view(ctx context.Context, blog *domain.Blog) (*domain.Blog, error) {
	if blog.Status != domain.BlogPublished {
		s.logger.Debugf("Blog not published: %s", blog.ID)
		return nil, fmt.Errorf("blog %w", domain.ErrNotFound)
	}

	if err := s.repo.IncrementViews(ctx, blog.ID); err != nil {
		s.logger.Warnf("Failed to count view of blog %s: %v", blog.ID, err)
	} else {
		blog.ViewCount++
	}
	return blog, nil
}

// List returns a page of posts. Public callers pass published=true which overrides any status filter.
func (s *Service) List(ctx context.Context, filter domain.BlogFilter, published bool) ([]*domain.Blog, int, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	if published {
		status := domain.BlogPublished
		filter.Status = &status
	}

	blogs, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list blogs", err)
		return nil, 0, err
	}

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to count blogs", err)
		return nil, 0, err
	}

	return blogs, total, nil
}

// Update applies a partial update. The comment count is never written here.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*domain.Blog, error) {
	if err := validator.Struct(in); err != nil {
		s.logger.Debugf("Blog validation failed: %v", err)
		return nil, err
	}

	var blog *domain.Blog
	var err error
	for attempt := 0; attempt < updateAttempts; attempt++ {
		blog, err = s.repo.GetByID(ctx, id)
		if err != nil {
			s.logLookup(err, id.String())
			return nil, err
		}

		if err = s.apply(ctx, blog, in); err != nil {
			return nil, err
		}

		err = s.repo.Update(ctx, blog)
		if !errors.Is(err, domain.ErrConflict) {
			break
		}
		s.logger.Debugf("Blog %s changed during update, retrying", id)
	}
	if err != nil {
		if !errors.Is(err, domain.ErrConflict) && !errors.Is(err, domain.ErrNotFound) {
			s.logger.Error("Failed to update blog", err)
		}
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"blog_id": blog.ID,
		"status":  blog.Status,
		"version": blog.Version,
	}).Info("Blog updated successfully")

	return blog, nil
}

func (s *Service) apply(ctx context.Context, blog *domain.Blog, in UpdateInput) error {
	if in.Title != nil && *in.Title != blog.Title {
		blogSlug, err := s.uniqueSlug(ctx, *in.Title, blog.ID)
		if err != nil {
			return err
		}
		blog.Title = *in.Title
		blog.Slug = blogSlug
	}
	if in.Content != nil {
		blog.Content = *in.Content
		if in.Excerpt == nil {
			blog.Excerpt = Excerpt(blog.Content, ExcerptLength)
		}
	}
	if in.Excerpt != nil {
		blog.Excerpt = strings.TrimSpace(*in.Excerpt)
		if blog.Excerpt == "" {
			blog.Excerpt = Excerpt(blog.Content, ExcerptLength)
		}
	}
	if in.Category != nil {
		blog.Category = *in.Category
	}
	if in.Status != nil {
		blog.Status = *in.Status
	}
	s.stampPublished(blog)
	return nil
}

// stampPublished records the first publication time
func (s *Service) stampPublished(blog *domain.Blog) {
	if blog.Status == domain.BlogPublished && blog.PublishedAt == nil {
		now := s.now().UTC()
		blog.PublishedAt = &now
	}
}

// Delete removes a post and its comments
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		s.logLookup(err, id.String())
		return err
	}

	s.logger.WithFields(map[string]interface{}{
		"blog_id": id,
	}).Info("Blog deleted successfully")

	return nil
}

func (s *Service) uniqueSlug(ctx context.Context, title string, excludeID uuid.UUID) (string, error) {
	base := slug.Make(title)
	if base == "" {
		return "", fmt.Errorf("%w: title must contain letters or digits", domain.ErrInvalidInput)
	}

	unique, err := slug.Unique(ctx, base, func(ctx context.Context, candidate string) (bool, error) {
		return s.repo.SlugExists(ctx, candidate, excludeID)
	})
	if err != nil {
		s.logger.Error("Failed to generate slug", err)
		return "", err
	}
	return unique, nil
}

func (s *Service) logLookup(err error, key string) {
	if errors.Is(err, domain.ErrNotFound) {
		s.logger.Debugf("Blog not found: %s", key)
		return
	}
	s.logger.Error("Failed to load blog", err)
}
