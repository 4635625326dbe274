package listing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/jglobalproperties/estate_api/internal/domain"
	"github.com/jglobalproperties/estate_api/internal/pkg/validator"
	"github.com/jglobalproperties/estate_api/internal/usecase/media"
)

// ImageStore processes uploaded images and keeps them in object storage
type ImageStore interface {
	Store(ctx context.Context, in media.UploadInput) (*domain.Media, error)
	Discard(ctx context.Context, key string) error
	MaxUploadBytes() int64
}

// UnitInput describes one unit of a listing. Unit defaults to sqm and Available to true.
type UnitInput struct {
	Size      float64 `json:"size" validate:"gt=0"`
	Unit      string  `json:"unit" validate:"max=20"`
	Price     float64 `json:"price" validate:"gte=0"`
	Available *bool   `json:"available"`
}

// ReplaceUnitsInput is the complete new set of units of a listing
type ReplaceUnitsInput struct {
	Units []UnitInput `json:"units" validate:"max=50,dive"`
}

// ImageUpload is a new listing image. A nil Order appends it.
type ImageUpload struct {
	Filename  string
	Body      io.Reader
	Caption   string
	IsPrimary bool
	Order     *int `validate:"omitempty,gte=0"`
}

// ImageUpdateInput changes image metadata; nil fields are left unchanged
type ImageUpdateInput struct {
	Caption   *string `json:"caption" validate:"omitempty,max=500"`
	IsPrimary *bool   `json:"is_primary"`
	Order     *int    `json:"order" validate:"omitempty,gte=0"`
}

func toUnits(in []UnitInput) []domain.ListingUnit {
	if len(in) == 0 {
		return nil
	}

	units := make([]domain.ListingUnit, len(in))
	for i, u := range in {
		units[i] = domain.ListingUnit{
			Size:      u.Size,
			Unit:      strings.TrimSpace(u.Unit),
			Price:     u.Price,
			Available: u.Available == nil || *u.Available,
		}
		if units[i].Unit == "" {
			units[i].Unit = domain.DefaultUnitOfArea
		}
	}
	return units
}

// MaxImageBytes is the largest accepted image upload
func (s *Service) MaxImageBytes() int64 {
	return s.images.MaxUploadBytes()
}

// Units returns the units of a listing
func (s *Service) Units(ctx context.Context, kind domain.ParentKind, id uuid.UUID) ([]domain.ListingUnit, error) {
	ref := domain.ParentRef{Kind: kind, ID: id}
	if err := s.requireListing(ctx, ref); err != nil {
		return nil, err
	}

	units, err := s.assets.ListUnits(ctx, ref)
	if err != nil {
		s.logger.Error("Failed to list units", err)
		return nil, err
	}
	return units, nil
}

// ReplaceUnits swaps the units of a listing for a new set. An empty set removes them all.
func (s *Service) ReplaceUnits(ctx context.Context, kind domain.ParentKind, id uuid.UUID, in ReplaceUnitsInput) ([]domain.ListingUnit, error) {
	if err := validator.Struct(in); err != nil {
		s.logger.Debugf("Unit validation failed: %v", err)
		return nil, err
	}

	ref := domain.ParentRef{Kind: kind, ID: id}
	units, err := s.assets.ReplaceUnits(ctx, ref, toUnits(in.Units))
	if err != nil {
		s.logLookup(err, kind, id.String())
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"listing_id": id,
		"kind":       kind,
		"units":      len(units),
	}).Info("Listing units replaced")

	return units, nil
}

// Images returns the images of a listing in display order
func (s *Service) Images(ctx context.Context, kind domain.ParentKind, id uuid.UUID) ([]domain.ListingImage, error) {
	ref := domain.ParentRef{Kind: kind, ID: id}
	if err := s.requireListing(ctx, ref); err != nil {
		return nil, err
	}

	images, err := s.assets.ListImages(ctx, ref)
	if err != nil {
		s.logger.Error("Failed to list images", err)
		return nil, err
	}
	return images, nil
}

// AddImage stores an uploaded image and attaches it to a listing.
// The stored object is removed again when the listing cannot take it.
func (s *Service) AddImage(ctx context.Context, kind domain.ParentKind, id uuid.UUID, in ImageUpload) (*domain.ListingImage, error) {
	if err := validator.Struct(in); err != nil {
		return nil, err
	}

	ref := domain.ParentRef{Kind: kind, ID: id}
	if err := s.requireListing(ctx, ref); err != nil {
		return nil, err
	}

	stored, err := s.images.Store(ctx, media.UploadInput{Filename: in.Filename, Body: in.Body, Caption: in.Caption})
	if err != nil {
		return nil, err
	}

	image := &domain.ListingImage{
		URL:       stored.URL,
		Key:       stored.Key,
		Caption:   stored.Caption,
		IsPrimary: in.IsPrimary,
	}
	if err := s.assets.AddImage(ctx, ref, image, in.Order); err != nil {
		s.logLookup(err, kind, id.String())
		s.discard(ctx, stored.Key)
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"listing_id": id,
		"kind":       kind,
		"image_id":   image.ID,
		"primary":    image.IsPrimary,
	}).Info("Listing image added")

	return image, nil
}

// UpdateImage changes caption, order or primary flag of an image.
// The primary image can only lose its flag by marking another image primary.
func (s *Service) UpdateImage(ctx context.Context, kind domain.ParentKind, id, imageID uuid.UUID, in ImageUpdateInput) (*domain.ListingImage, error) {
	if err := validator.Struct(in); err != nil {
		return nil, err
	}

	ref := domain.ParentRef{Kind: kind, ID: id}
	image, err := s.assets.GetImage(ctx, ref, imageID)
	if err != nil {
		s.logImageLookup(err, ref, imageID)
		return nil, err
	}

	if in.IsPrimary != nil && !*in.IsPrimary && image.IsPrimary {
		return nil, fmt.Errorf("%w: mark another image primary instead", domain.ErrInvalidInput)
	}
	if in.Caption != nil {
		image.Caption = optionalCaption(*in.Caption)
	}
	if in.IsPrimary != nil {
		image.IsPrimary = *in.IsPrimary
	}
	if in.Order != nil {
		image.Order = *in.Order
	}

	if err := s.assets.UpdateImage(ctx, ref, image); err != nil {
		s.logImageLookup(err, ref, imageID)
		return nil, err
	}

	return image, nil
}

// DeleteImage detaches an image from its listing and removes the stored object
func (s *Service) DeleteImage(ctx context.Context, kind domain.ParentKind, id, imageID uuid.UUID) error {
	ref := domain.ParentRef{Kind: kind, ID: id}
	image, err := s.assets.GetImage(ctx, ref, imageID)
	if err != nil {
		s.logImageLookup(err, ref, imageID)
		return err
	}

	if err := s.assets.DeleteImage(ctx, ref, imageID); err != nil {
		s.logImageLookup(err, ref, imageID)
		return err
	}
	s.discard(ctx, image.Key)

	s.logger.WithFields(map[string]interface{}{
		"listing_id": id,
		"kind":       kind,
		"image_id":   imageID,
	}).Info("Listing image deleted")

	return nil
}

func (s *Service) withAssets(ctx context.Context, listing *domain.Listing) (*domain.Listing, error) {
	units, err := s.assets.ListUnits(ctx, listing.Ref())
	if err != nil {
		s.logger.Error("Failed to list units", err)
		return nil, err
	}
	images, err := s.assets.ListImages(ctx, listing.Ref())
	if err != nil {
		s.logger.Error("Failed to list images", err)
		return nil, err
	}

	listing.Units = units
	listing.Images = images
	return listing, nil
}

func (s *Service) attachPrimaryImages(ctx context.Context, kind domain.ParentKind, listings []*domain.Listing) error {
	if len(listings) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(listings))
	for i, l := range listings {
		ids[i] = l.ID
	}

	primary, err := s.assets.PrimaryImages(ctx, kind, ids)
	if err != nil {
		s.logger.Error("Failed to load primary images", err)
		return err
	}
	for _, l := range listings {
		if img, ok := primary[l.ID]; ok {
			l.Images = []domain.ListingImage{img}
		}
	}
	return nil
}

func (s *Service) requireListing(ctx context.Context, ref domain.ParentRef) error {
	exists, err := s.repo.Exists(ctx, ref)
	if err != nil {
		s.logger.Error("Failed to check listing", err)
		return err
	}
	if !exists {
		s.logger.Debugf("%s not found: %s", ref.Kind, ref.ID)
		return fmt.Errorf("%s %w", ref.Kind, domain.ErrNotFound)
	}
	return nil
}

// discard removes an object that no row references any more. A failure leaves an orphan behind.
func (s *Service) discard(ctx context.Context, key string) {
	if err := s.images.Discard(ctx, key); err != nil {
		s.logger.Warnf("Orphaned image object %s: %v", key, err)
	}
}

func (s *Service) logImageLookup(err error, ref domain.ParentRef, imageID uuid.UUID) {
	if errors.Is(err, domain.ErrNotFound) {
		s.logger.Debugf("Image %s of %s not found", imageID, ref)
		return
	}
	s.logger.Error("Failed to access listing image", err)
}

func optionalCaption(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
