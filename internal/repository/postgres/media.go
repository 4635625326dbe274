package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jglobalproperties/estate_api/internal/domain"
)

const mediaColumns = `id, url, storage_key, filename, mimetype, size, width, height, alt, caption, created_at`

// MediaRepository implements domain.MediaRepository for PostgreSQL
type MediaRepository struct {
	db *sqlx.DB
}

// NewMediaRepository creates a new PostgreSQL media repository
func NewMediaRepository(db *sqlx.DB) *MediaRepository {
	return &MediaRepository{db: db}
}

func (r *MediaRepository) Create(ctx context.Context, media *domain.Media) error {
	query := `
		INSERT INTO media (url, storage_key, filename, mimetype, size, width, height, alt, caption)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		media.URL,
		media.Key,
		media.Filename,
		media.MimeType,
		media.Size,
		media.Width,
		media.Height,
		media.Alt,
		media.Caption,
	).Scan(&media.ID, &media.CreatedAt)
	return translate(err)
}

func (r *MediaRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Media, error) {
	var media domain.Media
	if err := r.db.GetContext(ctx, &media, `SELECT `+mediaColumns+` FROM media WHERE id = $1`, id); err != nil {
		return nil, translate(err)
	}
	return &media, nil
}

func (r *MediaRepository) List(ctx context.Context, limit, offset int) ([]*domain.Media, error) {
	items := []*domain.Media{}
	query := `SELECT ` + mediaColumns + ` FROM media ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	if err := r.db.SelectContext(ctx, &items, query, limit, offset); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *MediaRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM media`); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *MediaRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM media WHERE id = $1`, id)
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
