package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event is a dated happening such as an open house or an estate inspection day.
// IsPast is derived from StartsAt when the row is read.
type Event struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Title        string    `json:"title" db:"title"`
	Slug         string    `json:"slug" db:"slug"`
	Description  string    `json:"description" db:"description"`
	Location     string    `json:"location" db:"location"`
	Organizer    string    `json:"organizer" db:"organizer"`
	StartsAt     time.Time `json:"date" db:"starts_at"`
	IsPast       bool      `json:"is_past" db:"is_past"`
	ImageURL     *string   `json:"image_url,omitempty" db:"image_url"`
	ImageKey     *string   `json:"-" db:"image_key"`
	ImageCaption *string   `json:"image_caption,omitempty" db:"image_caption"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Event sort keys
const (
	EventSortCreated = "created_at"
	EventSortDate    = "date"
	EventSortTitle   = "title"
)

// EventFilter narrows event queries. Day matches events starting on that UTC calendar day.
type EventFilter struct {
	Search    string
	Location  string
	Organizer string
	Past      *bool
	Day       *time.Time
	SortBy    string
	Ascending bool
	Limit     int
	Offset    int
}

// EventRepository defines the interface for event data access
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id uuid.UUID) (*Event, error)
	GetBySlug(ctx context.Context, slug string) (*Event, error)
	SlugExists(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error)
	List(ctx context.Context, filter EventFilter) ([]*Event, error)
	Count(ctx context.Context, filter EventFilter) (int, error)

	// Update writes every editable column including the image
	Update(ctx context.Context, event *Event) error
	Delete(ctx context.Context, id uuid.UUID) error
}
