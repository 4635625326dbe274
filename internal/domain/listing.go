package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ListingStatus is the sale state of a listing
type ListingStatus string

const (
	ListingAvailable ListingStatus = "AVAILABLE"
	ListingReserved  ListingStatus = "RESERVED"
	ListingSold      ListingStatus = "SOLD"
)

// Listing represents a house or a land plot for sale.
// AverageRating and TotalReviews are derived from approved reviews and are only written by the moderation engine.
type Listing struct {
	ID            uuid.UUID     `json:"id" db:"id"`
	Kind          ParentKind    `json:"kind" db:"-"`
	Title         string        `json:"title" db:"title" validate:"required,min=1,max=255"`
	Slug          string        `json:"slug" db:"slug"`
	Description   *string       `json:"description,omitempty" db:"description"`
	Location      string        `json:"location" db:"location" validate:"max=255"`
	Price         float64       `json:"price" db:"price" validate:"gte=0"`
	Status        ListingStatus `json:"status" db:"status" validate:"omitempty,oneof=AVAILABLE RESERVED SOLD"`
	AverageRating *float64      `json:"average_rating" db:"average_rating"`
	TotalReviews  int           `json:"total_reviews" db:"total_reviews"`
	Version       int           `json:"version" db:"version"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at" db:"updated_at"`

	// Units are written with the listing on create. Images are managed separately.
	Units  []ListingUnit  `json:"units,omitempty" db:"-"`
	Images []ListingImage `json:"images,omitempty" db:"-"`
}

// Ref returns the listing as a review parent
func (l *Listing) Ref() ParentRef {
	return ParentRef{Kind: l.Kind, ID: l.ID}
}

// RatingAggregate is the denormalized review summary stored on a listing
type RatingAggregate struct {
	AverageRating *float64 `json:"average_rating" db:"average_rating"`
	TotalReviews  int      `json:"total_reviews" db:"total_reviews"`
	Version       int      `json:"version" db:"version"`
}

// ListingFilter narrows listing queries
type ListingFilter struct {
	Search string
	Status *ListingStatus
	Limit  int
	Offset int
}

// ListingRepository defines the interface for house and land data access
type ListingRepository interface {
	// Create creates a new listing; Kind selects the table
	Create(ctx context.Context, listing *Listing) error

	// GetByID retrieves a listing by ID
	GetByID(ctx context.Context, kind ParentKind, id uuid.UUID) (*Listing, error)

	// GetBySlug retrieves a listing by slug
	GetBySlug(ctx context.Context, kind ParentKind, slug string) (*Listing, error)

	// SlugExists reports whether a slug is taken by a listing other than excludeID
	SlugExists(ctx context.Context, kind ParentKind, slug string, excludeID uuid.UUID) (bool, error)

	// List retrieves a paginated list of listings, newest first
	List(ctx context.Context, kind ParentKind, filter ListingFilter) ([]*Listing, error)

	// Count returns the number of listings matching the filter
	Count(ctx context.Context, kind ParentKind, filter ListingFilter) (int, error)

	// Update updates editable fields guarded by the version column
	Update(ctx context.Context, listing *Listing) error

	// Delete removes a listing and its reviews
	Delete(ctx context.Context, kind ParentKind, id uuid.UUID) error

	// ListIDs returns the ID of every listing of a kind
	ListIDs(ctx context.Context, kind ParentKind) ([]uuid.UUID, error)

	// Exists reports whether the referenced listing exists
	Exists(ctx context.Context, ref ParentRef) (bool, error)

	// GetAggregate reads the stored review summary of a listing
	GetAggregate(ctx context.Context, ref ParentRef) (*RatingAggregate, error)

	// UpdateAggregate writes a review summary if the listing version still equals agg.Version.
	// It returns ErrConflict when the version moved and ErrNotFound when the listing is gone.
	UpdateAggregate(ctx context.Context, ref ParentRef, agg RatingAggregate) error
}

// ListingUnit is a purchasable portion of a listing, e.g. a 600 sqm plot of an estate
type ListingUnit struct {
	ID        uuid.UUID `json:"id" db:"id"`
	ListingID uuid.UUID `json:"listing_id" db:"listing_id"`
	Size      float64   `json:"size" db:"size" validate:"gt=0"`
	Unit      string    `json:"unit" db:"unit" validate:"max=20"`
	Price     float64   `json:"price" db:"price" validate:"gte=0"`
	Available bool      `json:"available" db:"available"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// DefaultUnitOfArea applies when a unit is created without one
const DefaultUnitOfArea = "sqm"

// ListingImage is a stored photo of a listing. Every listing that has images has exactly one primary.
type ListingImage struct {
	ID        uuid.UUID `json:"id" db:"id"`
	ListingID uuid.UUID `json:"listing_id" db:"listing_id"`
	URL       string    `json:"url" db:"url"`
	Key       string    `json:"-" db:"storage_key"`
	Caption   *string   `json:"caption,omitempty" db:"caption"`
	IsPrimary bool      `json:"is_primary" db:"is_primary"`
	Order     int       `json:"order" db:"sort_order"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ListingAssetRepository stores the units and images of listings
type ListingAssetRepository interface {
	// ListUnits returns the units of a listing, smallest first
	ListUnits(ctx context.Context, ref ParentRef) ([]ListingUnit, error)

	// ReplaceUnits swaps every unit of a listing for units in one transaction
	ReplaceUnits(ctx context.Context, ref ParentRef, units []ListingUnit) ([]ListingUnit, error)

	// ListImages returns the images of a listing in display order
	ListImages(ctx context.Context, ref ParentRef) ([]ListingImage, error)

	// PrimaryImages returns the primary image of each listing that has one, keyed by listing ID
	PrimaryImages(ctx context.Context, kind ParentKind, ids []uuid.UUID) (map[uuid.UUID]ListingImage, error)

	GetImage(ctx context.Context, ref ParentRef, imageID uuid.UUID) (*ListingImage, error)

	// AddImage stores an image. A nil order appends it; the first image of a listing is always primary.
	AddImage(ctx context.Context, ref ParentRef, image *ListingImage, order *int) error

	// UpdateImage writes caption, order and primary flag. Marking an image primary demotes the previous one.
	UpdateImage(ctx context.Context, ref ParentRef, image *ListingImage) error

	// DeleteImage removes an image and promotes the next one when it was primary
	DeleteImage(ctx context.Context, ref ParentRef, imageID uuid.UUID) error
}
