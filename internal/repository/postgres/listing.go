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

const listingColumns = `id, title, slug, description, location, price, status, average_rating, total_reviews, version, created_at, updated_at`

// ListingRepository implements domain.ListingRepository for PostgreSQL.
// Houses and lands share a schema and live in separate tables selected by kind.
type ListingRepository struct {
	db *sqlx.DB
}

// NewListingRepository creates a new PostgreSQL listing repository
func NewListingRepository(db *sqlx.DB) *ListingRepository {
	return &ListingRepository{db: db}
}

// Create creates a new listing together with its units
func (r *ListingRepository) Create(ctx context.Context, listing *domain.Listing) error {
	table, err := listingTable(listing.Kind)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (title, slug, description, location, price, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, average_rating, total_reviews, version, created_at, updated_at
	`, table)

	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		err := tx.QueryRowxContext(
			ctx,
			query,
			listing.Title,
			listing.Slug,
			listing.Description,
			listing.Location,
			listing.Price,
			listing.Status,
		).Scan(
			&listing.ID,
			&listing.AverageRating,
			&listing.TotalReviews,
			&listing.Version,
			&listing.CreatedAt,
			&listing.UpdatedAt,
		)
		if err != nil {
			return translate(err)
		}

		if len(listing.Units) == 0 {
			return nil
		}
		units, err := insertUnits(ctx, tx, listing.Ref(), listing.Units)
		if err != nil {
			return err
		}
		listing.Units = units
		return nil
	})
}

func (r *ListingRepository) getOne(ctx context.Context, kind domain.ParentKind, where string, arg interface{}) (*domain.Listing, error) {
	table, err := listingTable(kind)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`, listingColumns, table, where)

	var listing domain.Listing
	if err := r.db.GetContext(ctx, &listing, query, arg); err != nil {
		return nil, translate(err)
	}
	listing.Kind = kind

	return &listing, nil
}

// GetByID retrieves a listing by ID
func (r *ListingRepository) GetByID(ctx context.Context, kind domain.ParentKind, id uuid.UUID) (*domain.Listing, error) {
	return r.getOne(ctx, kind, "id", id)
}

// GetBySlug retrieves a listing by slug
func (r *ListingRepository) GetBySlug(ctx context.Context, kind domain.ParentKind, slug string) (*domain.Listing, error) {
	return r.getOne(ctx, kind, "slug", slug)
}

// SlugExists reports whether a slug is taken by a listing other than excludeID
func (r *ListingRepository) SlugExists(ctx context.Context, kind domain.ParentKind, slug string, excludeID uuid.UUID) (bool, error) {
	table, err := listingTable(kind)
	if err != nil {
		return false, err
	}

	var exists bool
	query := fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM %s WHERE slug = $1 AND id <> $2)`, table)
	if err := r.db.GetContext(ctx, &exists, query, slug, excludeID); err != nil {
		return false, err
	}

	return exists, nil
}

func listingWhere(filter domain.ListingFilter) *whereBuilder {
	w := &whereBuilder{}
	if filter.Status != nil {
		w.add("status = $%d", *filter.Status)
	}
	if filter.Search != "" {
		w.add("(title ILIKE $%[1]d OR location ILIKE $%[1]d OR description ILIKE $%[1]d)", "%"+filter.Search+"%")
	}
	return w
}

// List retrieves a paginated list of listings, newest first
func (r *ListingRepository) List(ctx context.Context, kind domain.ParentKind, filter domain.ListingFilter) ([]*domain.Listing, error) {
	table, err := listingTable(kind)
	if err != nil {
		return nil, err
	}

	w := listingWhere(filter)
	query := fmt.Sprintf(`SELECT %s FROM %s%s ORDER BY created_at DESC LIMIT %s OFFSET %s`,
		listingColumns, table, w.clause(), w.next(filter.Limit), w.next(filter.Offset))

	listings := []*domain.Listing{}
	if err := r.db.SelectContext(ctx, &listings, query, w.args...); err != nil {
		return nil, err
	}
	for _, l := range listings {
		l.Kind = kind
	}

	return listings, nil
}

// Count returns the number of listings matching the filter
func (r *ListingRepository) Count(ctx context.Context, kind domain.ParentKind, filter domain.ListingFilter) (int, error) {
	table, err := listingTable(kind)
	if err != nil {
		return 0, err
	}

	w := listingWhere(filter)

	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM `+table+w.clause(), w.args...); err != nil {
		return 0, err
	}

	return count, nil
}

// Update updates the editable fields of a listing. The aggregate columns are left alone.
func (r *ListingRepository) Update(ctx context.Context, listing *domain.Listing) error {
	table, err := listingTable(listing.Kind)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET title = $1, slug = $2, description = $3, location = $4, price = $5, status = $6,
		    updated_at = NOW(), version = version + 1
		WHERE id = $7 AND version = $8
		RETURNING version, updated_at
	`, table)

	err = r.db.QueryRowxContext(
		ctx,
		query,
		listing.Title,
		listing.Slug,
		listing.Description,
		listing.Location,
		listing.Price,
		listing.Status,
		listing.ID,
		listing.Version,
	).Scan(&listing.Version, &listing.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return r.conflictOrMissing(ctx, listing.Ref())
	}
	return translate(err)
}

// Delete removes a listing; its reviews, units and image rows go with it through the foreign keys
func (r *ListingRepository) Delete(ctx context.Context, kind domain.ParentKind, id uuid.UUID) error {
	table, err := listingTable(kind)
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = $1`, id)
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

// ListIDs returns the ID of every listing of a kind
func (r *ListingRepository) ListIDs(ctx context.Context, kind domain.ParentKind) ([]uuid.UUID, error) {
	table, err := listingTable(kind)
	if err != nil {
		return nil, err
	}

	ids := []uuid.UUID{}
	if err := r.db.SelectContext(ctx, &ids, `SELECT id FROM `+table+` ORDER BY id`); err != nil {
		return nil, err
	}

	return ids, nil
}

// Exists reports whether the referenced listing exists
func (r *ListingRepository) Exists(ctx context.Context, ref domain.ParentRef) (bool, error) {
	table, err := listingTable(ref.Kind)
	if err != nil {
		return false, err
	}

	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM `+table+` WHERE id = $1)`, ref.ID); err != nil {
		return false, err
	}

	return exists, nil
}

// GetAggregate reads the stored review summary of a listing
func (r *ListingRepository) GetAggregate(ctx context.Context, ref domain.ParentRef) (*domain.RatingAggregate, error) {
	table, err := listingTable(ref.Kind)
	if err != nil {
		return nil, err
	}

	var agg domain.RatingAggregate
	query := `SELECT average_rating, total_reviews, version FROM ` + table + ` WHERE id = $1`
	if err := r.db.GetContext(ctx, &agg, query, ref.ID); err != nil {
		return nil, translate(err)
	}

	return &agg, nil
}

// UpdateAggregate writes a review summary if the listing version still equals agg.Version
func (r *ListingRepository) UpdateAggregate(ctx context.Context, ref domain.ParentRef, agg domain.RatingAggregate) error {
	table, err := listingTable(ref.Kind)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET average_rating = $1, total_reviews = $2, version = version + 1, updated_at = NOW()
		WHERE id = $3 AND version = $4
	`, table)

	result, err := r.db.ExecContext(ctx, query, agg.AverageRating, agg.TotalReviews, ref.ID, agg.Version)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return r.conflictOrMissing(ctx, ref)
	}

	return nil
}

// conflictOrMissing explains why a version-guarded write touched no rows
func (r *ListingRepository) conflictOrMissing(ctx context.Context, ref domain.ParentRef) error {
	exists, err := r.Exists(ctx, ref)
	if err != nil {
		return err
	}
	if !exists {
		return domain.ErrNotFound
	}
	return domain.ErrConflict
}
