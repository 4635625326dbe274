package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Review represents a user review of a house or land listing
type Review struct {
	ID         uuid.UUID        `json:"id" db:"id"`
	Name       string           `json:"name" db:"name" validate:"required,min=1,max=100"`
	Email      string           `json:"email" db:"email" validate:"required,email"`
	Rating     int              `json:"rating" db:"rating" validate:"required,min=1,max=5"`
	Comment    string           `json:"comment" db:"comment" validate:"required,min=1,max=5000"`
	LandID     *uuid.UUID       `json:"land_id,omitempty" db:"land_id"`
	HouseID    *uuid.UUID       `json:"house_id,omitempty" db:"house_id"`
	Status     ModerationStatus `json:"status" db:"status"`
	IsVerified bool             `json:"is_verified" db:"is_verified"`
	CreatedAt  time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at" db:"updated_at"`
}

// Parent returns the listing the review belongs to. ok is false when neither column is set.
func (r *Review) Parent() (ref ParentRef, ok bool) {
	switch {
	case r.LandID != nil:
		return LandRef(*r.LandID), true
	case r.HouseID != nil:
		return HouseRef(*r.HouseID), true
	}
	return ParentRef{}, false
}

// SetParent stores ref in the matching column and clears the other one
func (r *Review) SetParent(ref ParentRef) {
	id := ref.ID
	r.LandID, r.HouseID = nil, nil
	switch ref.Kind {
	case ParentLand:
		r.LandID = &id
	case ParentHouse:
		r.HouseID = &id
	}
}

// ReviewStats is an on-demand report computed from the current review rows of a listing
type ReviewStats struct {
	TotalReviews       int         `json:"total_reviews"`
	ApprovedReviews    int         `json:"approved_reviews"`
	PendingReviews     int         `json:"pending_reviews"`
	RejectedReviews    int         `json:"rejected_reviews"`
	AverageRating      *float64    `json:"average_rating"`
	RatingDistribution map[int]int `json:"rating_distribution"`
}

// ReviewFilter narrows review listings. Nil fields are not applied.
type ReviewFilter struct {
	Parent     *ParentRef
	Status     *ModerationStatus
	Rating     *int
	IsVerified *bool
	Search     string
	SortBy     string
	Ascending  bool
	Limit      int
	Offset     int
}

// ReviewRepository defines the interface for review data access
type ReviewRepository interface {
	// Create inserts a review
	Create(ctx context.Context, review *Review) error

	// GetByID retrieves a review by ID
	GetByID(ctx context.Context, id uuid.UUID) (*Review, error)

	// GetByIDs retrieves every review whose ID is in ids; missing IDs are simply absent
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*Review, error)

	// List retrieves reviews matching the filter
	List(ctx context.Context, filter ReviewFilter) ([]*Review, error)

	// Count returns the number of reviews matching the filter, ignoring limit and offset
	Count(ctx context.Context, filter ReviewFilter) (int, error)

	// UpdateStatus writes a new status and returns the updated row
	UpdateStatus(ctx context.Context, id uuid.UUID, status ModerationStatus) (*Review, error)

	// UpdateStatusBulk writes a new status to every review in ids and returns the rows affected
	UpdateStatusBulk(ctx context.Context, ids []uuid.UUID, status ModerationStatus) (int64, error)

	// Delete removes a review
	Delete(ctx context.Context, id uuid.UUID) error

	// ApprovedRatings returns the rating of every approved review of a listing
	ApprovedRatings(ctx context.Context, parent ParentRef) ([]int, error)

	// CountsByStatus returns the number of reviews of a listing per status
	CountsByStatus(ctx context.Context, parent ParentRef) (map[ModerationStatus]int, error)

	// ApprovedHistogram returns approved review counts keyed by rating
	ApprovedHistogram(ctx context.Context, parent ParentRef) (map[int]int, error)
}

// ListingReviews is the public review page of a listing
type ListingReviews struct {
	Reviews []*Review    `json:"reviews"`
	Stats   *ReviewStats `json:"stats"`
}
