package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jglobalproperties/estate_api/internal/domain"
)

const blogColumns = `id, title, slug, excerpt, content, category, status, view_count, total_comments, version, published_at, created_at, updated_at`

// BlogRepository implements domain.BlogRepository for PostgreSQL
type BlogRepository struct {
	db *sqlx.DB
}

// NewBlogRepository creates a new PostgreSQL blog repository
func NewBlogRepository(db *sqlx.DB) *BlogRepository {
	return &BlogRepository{db: db}
}

// Create creates a new blog
func (r *BlogRepository) Create(ctx context.Context, blog *domain.Blog) error {
	query := `
		INSERT INTO blogs (title, slug, excerpt, content, category, status, published_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, view_count, total_comments, version, created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		blog.Title,
		blog.Slug,
		blog.Excerpt,
		blog.Content,
		blog.Category,
		blog.Status,
		blog.PublishedAt,
	).Scan(
		&blog.ID,
		&blog.ViewCount,
		&blog.TotalComments,
		&blog.Version,
		&blog.CreatedAt,
		&blog.UpdatedAt,
	)
	return translate(err)
}

// GetByID retrieves a blog by ID
func (r *BlogRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Blog, error) {
	var blog domain.Blog
	if err := r.db.GetContext(ctx, &blog, `SELECT `+blogColumns+` FROM blogs WHERE id = $1`, id); err != nil {
		return nil, translate(err)
	}
	return &blog, nil
}

// GetBySlug retrieves a blog by slug
func (r *BlogRepository) GetBySlug(ctx context.Context, slug string) (*domain.Blog, error) {
	var blog domain.Blog
	if err := r.db.GetContext(ctx, &blog, `SELECT `+blogColumns+` FROM blogs WHERE slug = $1`, slug); err != nil {
		return nil, translate(err)
	}
	return &blog, nil
}

// SlugExists reports whether a slug is taken by a blog other than excludeID
func (r *BlogRepository) SlugExists(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM blogs WHERE slug = $1 AND id <> $2)`
	if err := r.db.GetContext(ctx, &exists, query, slug, excludeID); err != nil {
		return false, err
	}
	return exists, nil
}

func blogWhere(filter domain.BlogFilter) *whereBuilder {
	w := &whereBuilder{}
	if filter.Status != nil {
		w.add("status = $%d", *filter.Status)
	}
	if filter.Category != "" {
		w.add("category = $%d", filter.Category)
	}
	if filter.Search != "" {
		w.add("(title ILIKE $%[1]d OR excerpt ILIKE $%[1]d)", "%"+filter.Search+"%")
	}
	return w
}

// List retrieves blogs, most recently published first
func (r *BlogRepository) List(ctx context.Context, filter domain.BlogFilter) ([]*domain.Blog, error) {
	w := blogWhere(filter)
	query := fmt.Sprintf(`SELECT %s FROM blogs%s ORDER BY COALESCE(published_at, created_at) DESC LIMIT %s OFFSET %s`,
		blogColumns, w.clause(), w.next(filter.Limit), w.next(filter.Offset))

	blogs := []*domain.Blog{}
	if err := r.db.SelectContext(ctx, &blogs, query, w.args...); err != nil {
		return nil, err
	}
	return blogs, nil
}

// Count returns the number of blogs matching the filter
func (r *BlogRepository) Count(ctx context.Context, filter domain.BlogFilter) (int, error) {
	w := blogWhere(filter)

	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM blogs`+w.clause(), w.args...); err != nil {
		return 0, err
	}
	return count, nil
}

// Update updates the editable fields of a blog guarded by its version
func (r *BlogRepository) Update(ctx context.Context, blog *domain.Blog) error {
	query := `
		UPDATE blogs
		SET title = $1, slug = $2, excerpt = $3, content = $4, category = $5, status = $6, published_at = $7,
		    updated_at = NOW(), version = version + 1
		WHERE id = $8 AND version = $9
		RETURNING version, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		blog.Title,
		blog.Slug,
		blog.Excerpt,
		blog.Content,
		blog.Category,
		blog.Status,
		blog.PublishedAt,
		blog.ID,
		blog.Version,
	).Scan(&blog.Version, &blog.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return r.conflictOrMissing(ctx, blog.ID)
	}
	return translate(err)
}

// Delete removes a blog and its comments
func (r *BlogRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM blogs WHERE id = $1`, id)
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

// IncrementViews bumps the view counter without touching the version
func (r *BlogRepository) IncrementViews(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `UPDATE blogs SET view_count = view_count + 1 WHERE id = $1`, id)
	return err
}

// ListIDs returns the ID of every blog
func (r *BlogRepository) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	ids := []uuid.UUID{}
	if err := r.db.SelectContext(ctx, &ids, `SELECT id FROM blogs ORDER BY id`); err != nil {
		return nil, err
	}
	return ids, nil
}

// IsPublished reports whether the blog exists and is published
func (r *BlogRepository) IsPublished(ctx context.Context, id uuid.UUID) (bool, error) {
	var published bool
	query := `SELECT EXISTS(SELECT 1 FROM blogs WHERE id = $1 AND status = $2)`
	if err := r.db.GetContext(ctx, &published, query, id, domain.BlogPublished); err != nil {
		return false, err
	}
	return published, nil
}

// GetCommentAggregate reads the stored comment summary of a blog
func (r *BlogRepository) GetCommentAggregate(ctx context.Context, id uuid.UUID) (*domain.CommentAggregate, error) {
	var agg domain.CommentAggregate
	if err := r.db.GetContext(ctx, &agg, `SELECT total_comments, version FROM blogs WHERE id = $1`, id); err != nil {
		return nil, translate(err)
	}
	return &agg, nil
}

// UpdateCommentAggregate writes the comment summary if the blog version still equals agg.Version
func (r *BlogRepository) UpdateCommentAggregate(ctx context.Context, id uuid.UUID, agg domain.CommentAggregate) error {
	query := `
		UPDATE blogs
		SET total_comments = $1, version = version + 1, updated_at = NOW()
		WHERE id = $2 AND version = $3
	`

	result, err := r.db.ExecContext(ctx, query, agg.TotalComments, id, agg.Version)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return r.conflictOrMissing(ctx, id)
	}
	return nil
}

func (r *BlogRepository) conflictOrMissing(ctx context.Context, id uuid.UUID) error {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM blogs WHERE id = $1)`, id); err != nil {
		return err
	}
	if !exists {
		return domain.ErrNotFound
	}
	return domain.ErrConflict
}
