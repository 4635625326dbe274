package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Media is an image stored in object storage
type Media struct {
	ID        uuid.UUID `json:"id" db:"id"`
	URL       string    `json:"url" db:"url"`
	Key       string    `json:"key" db:"storage_key"`
	Filename  string    `json:"filename" db:"filename"`
	MimeType  string    `json:"mimetype" db:"mimetype"`
	Size      int64     `json:"size" db:"size"`
	Width     *int      `json:"width,omitempty" db:"width"`
	Height    *int      `json:"height,omitempty" db:"height"`
	Alt       *string   `json:"alt,omitempty" db:"alt"`
	Caption   *string   `json:"caption,omitempty" db:"caption"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// MediaRepository defines the interface for media metadata access
type MediaRepository interface {
	Create(ctx context.Context, media *Media) error
	GetByID(ctx context.Context, id uuid.UUID) (*Media, error)
	List(ctx context.Context, limit, offset int) ([]*Media, error)
	Count(ctx context.Context) (int, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
