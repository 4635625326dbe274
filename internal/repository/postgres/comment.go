package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jglobalproperties/estate_api/internal/domain"
)

const commentColumns = `id, blog_id, name, email, comment, status, created_at, updated_at`

// CommentRepository implements domain.CommentRepository for PostgreSQL
type CommentRepository struct {
	db *sqlx.DB
}

// NewCommentRepository creates a new PostgreSQL blog comment repository
func NewCommentRepository(db *sqlx.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

// Create inserts a comment
func (r *CommentRepository) Create(ctx context.Context, comment *domain.BlogComment) error {
	query := `
		INSERT INTO blog_comments (blog_id, name, email, comment, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		comment.BlogID,
		comment.Name,
		comment.Email,
		comment.Comment,
		comment.Status,
	).Scan(&comment.ID, &comment.CreatedAt, &comment.UpdatedAt)
	return translate(err)
}

// GetByID retrieves a comment by ID
func (r *CommentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.BlogComment, error) {
	var comment domain.BlogComment
	err := r.db.GetContext(ctx, &comment, `SELECT `+commentColumns+` FROM blog_comments WHERE id = $1`, id)
	if err != nil {
		return nil, translate(err)
	}
	return &comment, nil
}

// GetByIDs retrieves the comments whose IDs are in ids
func (r *CommentRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.BlogComment, error) {
	if len(ids) == 0 {
		return []*domain.BlogComment{}, nil
	}

	comments := []*domain.BlogComment{}
	query := `SELECT ` + commentColumns + ` FROM blog_comments WHERE id = ANY($1::uuid[])`
	if err := r.db.SelectContext(ctx, &comments, query, pq.Array(uuidStrings(ids))); err != nil {
		return nil, err
	}
	return comments, nil
}

// ListByBlog retrieves comments of a blog in a status, newest first
func (r *CommentRepository) ListByBlog(ctx context.Context, blogID uuid.UUID, status domain.ModerationStatus, limit, offset int) ([]*domain.BlogComment, error) {
	query := `
		SELECT ` + commentColumns + `
		FROM blog_comments
		WHERE blog_id = $1 AND status = $2
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`

	comments := []*domain.BlogComment{}
	if err := r.db.SelectContext(ctx, &comments, query, blogID, status, limit, offset); err != nil {
		return nil, err
	}
	return comments, nil
}

// CountByBlog counts comments of a blog in a status
func (r *CommentRepository) CountByBlog(ctx context.Context, blogID uuid.UUID, status domain.ModerationStatus) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM blog_comments WHERE blog_id = $1 AND status = $2`
	if err := r.db.GetContext(ctx, &count, query, blogID, status); err != nil {
		return 0, err
	}
	return count, nil
}

// ListByStatus retrieves comments in a status across all blogs, oldest first
func (r *CommentRepository) ListByStatus(ctx context.Context, status domain.ModerationStatus, limit, offset int) ([]*domain.BlogComment, error) {
	query := `
		SELECT ` + commentColumns + `
		FROM blog_comments
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT $2 OFFSET $3
	`

	comments := []*domain.BlogComment{}
	if err := r.db.SelectContext(ctx, &comments, query, status, limit, offset); err != nil {
		return nil, err
	}
	return comments, nil
}

// CountByStatus counts comments in a status across all blogs
func (r *CommentRepository) CountByStatus(ctx context.Context, status domain.ModerationStatus) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM blog_comments WHERE status = $1`, status); err != nil {
		return 0, err
	}
	return count, nil
}

// UpdateStatus writes a new status and returns the updated row
func (r *CommentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ModerationStatus) (*domain.BlogComment, error) {
	query := `
		UPDATE blog_comments
		SET status = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING ` + commentColumns

	var comment domain.BlogComment
	if err := r.db.GetContext(ctx, &comment, query, status, id); err != nil {
		return nil, translate(err)
	}
	return &comment, nil
}

// UpdateStatusBulk writes a new status to every comment in ids
func (r *CommentRepository) UpdateStatusBulk(ctx context.Context, ids []uuid.UUID, status domain.ModerationStatus) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query := `UPDATE blog_comments SET status = $1, updated_at = NOW() WHERE id = ANY($2::uuid[])`
	result, err := r.db.ExecContext(ctx, query, status, pq.Array(uuidStrings(ids)))
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Delete removes a comment
func (r *CommentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM blog_comments WHERE id = $1`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
