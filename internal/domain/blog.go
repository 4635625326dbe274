package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// BlogStatus is the publication state of a blog post
type BlogStatus string

const (
	BlogDraft     BlogStatus = "DRAFT"
	BlogPublished BlogStatus = "PUBLISHED"
	BlogArchived  BlogStatus = "ARCHIVED"
)

// Blog is a blog post. TotalComments counts approved comments and is only written by the moderation engine.
type Blog struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	Title         string     `json:"title" db:"title" validate:"required,min=1,max=255"`
	Slug          string     `json:"slug" db:"slug"`
	Excerpt       string     `json:"excerpt" db:"excerpt" validate:"max=500"`
	Content       string     `json:"content" db:"content" validate:"required"`
	Category      string     `json:"category" db:"category" validate:"max=100"`
	Status        BlogStatus `json:"status" db:"status" validate:"required,oneof=DRAFT PUBLISHED ARCHIVED"`
	ViewCount     int        `json:"view_count" db:"view_count"`
	TotalComments int        `json:"total_comments" db:"total_comments"`
	Version       int        `json:"version" db:"version"`
	PublishedAt   *time.Time `json:"published_at,omitempty" db:"published_at"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

// CommentAggregate is the denormalized comment summary stored on a blog
type CommentAggregate struct {
	TotalComments int `json:"total_comments" db:"total_comments"`
	Version       int `json:"version" db:"version"`
}

// BlogFilter narrows blog queries
type BlogFilter struct {
	Status   *BlogStatus
	Category string
	Search   string
	Limit    int
	Offset   int
}

// BlogRepository defines the interface for blog data access
type BlogRepository interface {
	Create(ctx context.Context, blog *Blog) error
	GetByID(ctx context.Context, id uuid.UUID) (*Blog, error)
	GetBySlug(ctx context.Context, slug string) (*Blog, error)
	SlugExists(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error)
	List(ctx context.Context, filter BlogFilter) ([]*Blog, error)
	Count(ctx context.Context, filter BlogFilter) (int, error)

	// Update updates editable fields guarded by the version column
	Update(ctx context.Context, blog *Blog) error
	Delete(ctx context.Context, id uuid.UUID) error
	IncrementViews(ctx context.Context, id uuid.UUID) error
	ListIDs(ctx context.Context) ([]uuid.UUID, error)

	// IsPublished reports whether the blog exists and is published
	IsPublished(ctx context.Context, id uuid.UUID) (bool, error)

	// GetCommentAggregate reads the stored comment summary of a blog
	GetCommentAggregate(ctx context.Context, id uuid.UUID) (*CommentAggregate, error)

	// UpdateCommentAggregate writes the comment summary if the blog version still equals agg.Version
	UpdateCommentAggregate(ctx context.Context, id uuid.UUID, agg CommentAggregate) error
}
