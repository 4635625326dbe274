package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// BlogComment is a reader comment on a blog post
type BlogComment struct {
	ID        uuid.UUID        `json:"id" db:"id"`
	BlogID    uuid.UUID        `json:"blog_id" db:"blog_id" validate:"required"`
	Name      string           `json:"name" db:"name" validate:"required,min=1,max=100"`
	Email     string           `json:"email" db:"email" validate:"required,email"`
	Comment   string           `json:"comment" db:"comment" validate:"required,min=1,max=5000"`
	Status    ModerationStatus `json:"status" db:"status"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt time.Time        `json:"updated_at" db:"updated_at"`
}

// CommentRepository defines the interface for blog comment data access
type CommentRepository interface {
	// Create inserts a comment
	Create(ctx context.Context, comment *BlogComment) error

	// GetByID retrieves a comment by ID
	GetByID(ctx context.Context, id uuid.UUID) (*BlogComment, error)

	// GetByIDs retrieves every comment whose ID is in ids
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*BlogComment, error)

	// ListByBlog retrieves comments of a blog in a status, newest first
	ListByBlog(ctx context.Context, blogID uuid.UUID, status ModerationStatus, limit, offset int) ([]*BlogComment, error)

	// CountByBlog counts comments of a blog in a status
	CountByBlog(ctx context.Context, blogID uuid.UUID, status ModerationStatus) (int, error)

	// ListByStatus retrieves comments in a status across all blogs, oldest first
	ListByStatus(ctx context.Context, status ModerationStatus, limit, offset int) ([]*BlogComment, error)

	// CountByStatus counts comments in a status across all blogs
	CountByStatus(ctx context.Context, status ModerationStatus) (int, error)

	// UpdateStatus writes a new status and returns the updated row
	UpdateStatus(ctx context.Context, id uuid.UUID, status ModerationStatus) (*BlogComment, error)

	// UpdateStatusBulk writes a new status to every comment in ids
	UpdateStatusBulk(ctx context.Context, ids []uuid.UUID, status ModerationStatus) (int64, error)

	// Delete removes a comment
	Delete(ctx context.Context, id uuid.UUID) error
}
