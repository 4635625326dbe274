package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jglobalproperties/estate_api/internal/domain"
)

const (
	unitColumns  = `id, COALESCE(land_id, house_id) AS listing_id, size, unit, price, available, created_at`
	imageColumns = `id, COALESCE(land_id, house_id) AS listing_id, url, storage_key, caption, is_primary, sort_order, created_at`
)

// ListingAssetRepository implements domain.ListingAssetRepository for PostgreSQL.
// Units and images reference their listing through land_id or house_id, like reviews.
type ListingAssetRepository struct {
	db *sqlx.DB
}

// NewListingAssetRepository creates a new PostgreSQL repository for listing units and images
func NewListingAssetRepository(db *sqlx.DB) *ListingAssetRepository {
	return &ListingAssetRepository{db: db}
}

// ListUnits returns the units of a listing, smallest first
func (r *ListingAssetRepository) ListUnits(ctx context.Context, ref domain.ParentRef) ([]domain.ListingUnit, error) {
	column, err := parentColumn(ref.Kind)
	if err != nil {
		return nil, err
	}

	units := []domain.ListingUnit{}
	query := fmt.Sprintf(`SELECT %s FROM listing_units WHERE %s = $1 ORDER BY size, created_at`, unitColumns, column)
	if err := r.db.SelectContext(ctx, &units, query, ref.ID); err != nil {
		return nil, err
	}

	return units, nil
}

// ReplaceUnits swaps every unit of a listing for units
func (r *ListingAssetRepository) ReplaceUnits(ctx context.Context, ref domain.ParentRef, units []domain.ListingUnit) ([]domain.ListingUnit, error) {
	column, err := parentColumn(ref.Kind)
	if err != nil {
		return nil, err
	}

	var stored []domain.ListingUnit
	err = withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := lockListing(ctx, tx, ref); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM listing_units WHERE `+column+` = $1`, ref.ID); err != nil {
			return err
		}

		var err error
		stored, err = insertUnits(ctx, tx, ref, units)
		return err
	})
	if err != nil {
		return nil, err
	}

	return stored, nil
}

func insertUnits(ctx context.Context, tx *sqlx.Tx, ref domain.ParentRef, units []domain.ListingUnit) ([]domain.ListingUnit, error) {
	column, err := parentColumn(ref.Kind)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		INSERT INTO listing_units (%s, size, unit, price, available)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, column)

	stored := make([]domain.ListingUnit, 0, len(units))
	for _, u := range units {
		u.ListingID = ref.ID
		if err := tx.QueryRowxContext(ctx, query, ref.ID, u.Size, u.Unit, u.Price, u.Available).Scan(&u.ID, &u.CreatedAt); err != nil {
			return nil, translate(err)
		}
		stored = append(stored, u)
	}

	return stored, nil
}

// ListImages returns the images of a listing in display order
func (r *ListingAssetRepository) ListImages(ctx context.Context, ref domain.ParentRef) ([]domain.ListingImage, error) {
	column, err := parentColumn(ref.Kind)
	if err != nil {
		return nil, err
	}

	images := []domain.ListingImage{}
	query := fmt.Sprintf(`SELECT %s FROM listing_images WHERE %s = $1 ORDER BY sort_order, created_at`, imageColumns, column)
	if err := r.db.SelectContext(ctx, &images, query, ref.ID); err != nil {
		return nil, err
	}

	return images, nil
}

// PrimaryImages returns the primary image of each listing that has one
func (r *ListingAssetRepository) PrimaryImages(ctx context.Context, kind domain.ParentKind, ids []uuid.UUID) (map[uuid.UUID]domain.ListingImage, error) {
	column, err := parentColumn(kind)
	if err != nil {
		return nil, err
	}

	primary := make(map[uuid.UUID]domain.ListingImage, len(ids))
	if len(ids) == 0 {
		return primary, nil
	}

	var images []domain.ListingImage
	query := fmt.Sprintf(`SELECT %s FROM listing_images WHERE %s = ANY($1) AND is_primary`, imageColumns, column)
	if err := r.db.SelectContext(ctx, &images, query, pq.Array(uuidStrings(ids))); err != nil {
		return nil, err
	}
	for _, img := range images {
		primary[img.ListingID] = img
	}

	return primary, nil
}

// GetImage retrieves one image of a listing
func (r *ListingAssetRepository) GetImage(ctx context.Context, ref domain.ParentRef, imageID uuid.UUID) (*domain.ListingImage, error) {
	column, err := parentColumn(ref.Kind)
	if err != nil {
		return nil, err
	}

	var image domain.ListingImage
	query := fmt.Sprintf(`SELECT %s FROM listing_images WHERE id = $1 AND %s = $2`, imageColumns, column)
	if err := r.db.GetContext(ctx, &image, query, imageID, ref.ID); err != nil {
		return nil, translate(err)
	}

	return &image, nil
}

// AddImage stores an image. A nil order appends it after the last one.
func (r *ListingAssetRepository) AddImage(ctx context.Context, ref domain.ParentRef, image *domain.ListingImage, order *int) error {
	column, err := parentColumn(ref.Kind)
	if err != nil {
		return err
	}

	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := lockListing(ctx, tx, ref); err != nil {
			return err
		}

		var existing struct {
			Count int `db:"count"`
			Next  int `db:"next"`
		}
		query := `SELECT COUNT(*) AS count, COALESCE(MAX(sort_order) + 1, 0) AS next FROM listing_images WHERE ` + column + ` = $1`
		if err := tx.GetContext(ctx, &existing, query, ref.ID); err != nil {
			return err
		}

		if existing.Count == 0 {
			image.IsPrimary = true
		}
		image.Order = existing.Next
		if order != nil {
			image.Order = *order
		}
		if image.IsPrimary && existing.Count > 0 {
			if err := demotePrimary(ctx, tx, column, ref.ID, uuid.Nil); err != nil {
				return err
			}
		}

		insert := fmt.Sprintf(`
			INSERT INTO listing_images (%s, url, storage_key, caption, is_primary, sort_order)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, created_at
		`, column)
		image.ListingID = ref.ID
		return translate(tx.QueryRowxContext(ctx, insert, ref.ID, image.URL, image.Key, image.Caption, image.IsPrimary, image.Order).
			Scan(&image.ID, &image.CreatedAt))
	})
}

// UpdateImage writes caption, order and primary flag of an image
func (r *ListingAssetRepository) UpdateImage(ctx context.Context, ref domain.ParentRef, image *domain.ListingImage) error {
	column, err := parentColumn(ref.Kind)
	if err != nil {
		return err
	}

	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := lockListing(ctx, tx, ref); err != nil {
			return err
		}
		if image.IsPrimary {
			if err := demotePrimary(ctx, tx, column, ref.ID, image.ID); err != nil {
				return err
			}
		}

		query := fmt.Sprintf(`
			UPDATE listing_images SET caption = $1, is_primary = $2, sort_order = $3
			WHERE id = $4 AND %s = $5
		`, column)
		result, err := tx.ExecContext(ctx, query, image.Caption, image.IsPrimary, image.Order, image.ID, ref.ID)
		if err != nil {
			return err
		}
		return requireRow(result)
	})
}

// DeleteImage removes an image and promotes the first remaining one when it was primary
func (r *ListingAssetRepository) DeleteImage(ctx context.Context, ref domain.ParentRef, imageID uuid.UUID) error {
	column, err := parentColumn(ref.Kind)
	if err != nil {
		return err
	}

	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := lockListing(ctx, tx, ref); err != nil {
			return err
		}

		var wasPrimary bool
		query := `DELETE FROM listing_images WHERE id = $1 AND ` + column + ` = $2 RETURNING is_primary`
		if err := tx.GetContext(ctx, &wasPrimary, query, imageID, ref.ID); err != nil {
			return translate(err)
		}
		if !wasPrimary {
			return nil
		}

		promote := fmt.Sprintf(`
			UPDATE listing_images SET is_primary = TRUE
			WHERE id = (SELECT id FROM listing_images WHERE %s = $1 ORDER BY sort_order, created_at LIMIT 1)
		`, column)
		_, err := tx.ExecContext(ctx, promote, ref.ID)
		return err
	})
}

// lockListing serializes image and unit writes of one listing and reports a missing listing
func lockListing(ctx context.Context, tx *sqlx.Tx, ref domain.ParentRef) error {
	table, err := listingTable(ref.Kind)
	if err != nil {
		return err
	}

	var id uuid.UUID
	if err := tx.GetContext(ctx, &id, `SELECT id FROM `+table+` WHERE id = $1 FOR UPDATE`, ref.ID); err != nil {
		return translate(err)
	}
	return nil
}

func demotePrimary(ctx context.Context, tx *sqlx.Tx, column string, listingID, keep uuid.UUID) error {
	query := `UPDATE listing_images SET is_primary = FALSE WHERE ` + column + ` = $1 AND is_primary AND id <> $2`
	_, err := tx.ExecContext(ctx, query, listingID, keep)
	return err
}
