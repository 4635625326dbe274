package listing

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jglobalproperties/estate_api/internal/domain"
	"github.com/jglobalproperties/estate_api/internal/pkg/logger"
	"github.com/jglobalproperties/estate_api/internal/pkg/slug"
	"github.com/jglobalproperties/estate_api/internal/pkg/validator"
)

// updateAttempts bounds the read-modify-write loop of Update. The version of a
// listing also moves when its review aggregate is rewritten.
const updateAttempts = 3

// CacheInvalidator drops cached review pages of a listing
type CacheInvalidator interface {
	InvalidateListing(ctx context.Context, ref domain.ParentRef) error
}

// CreateInput holds the editable fields of a new listing and its units
type CreateInput struct {
	Title       string               `json:"title" validate:"required,min=1,max=255"`
	Description *string              `json:"description"`
	Location    string               `json:"location" validate:"max=255"`
	Price       float64              `json:"price" validate:"gte=0"`
	Status      domain.ListingStatus `json:"status" validate:"omitempty,oneof=AVAILABLE RESERVED SOLD"`
	Units       []UnitInput          `json:"units" validate:"omitempty,max=50,dive"`
}

// UpdateInput is a partial update; nil fields are left unchanged.
// When Version is set it must match the stored version.
type UpdateInput struct {
	Title       *string               `json:"title" validate:"omitempty,min=1,max=255"`
	Description *string               `json:"description"`
	Location    *string               `json:"location" validate:"omitempty,max=255"`
	Price       *float64              `json:"price" validate:"omitempty,gte=0"`
	Status      *domain.ListingStatus `json:"status" validate:"omitempty,oneof=AVAILABLE RESERVED SOLD"`
	Version     *int                  `json:"version"`
}

// Service handles house and land listings with their units and images
type Service struct {
	repo   domain.ListingRepository
	assets domain.ListingAssetRepository
	images ImageStore
	cache  CacheInvalidator
	logger *logger.Logger
}

// NewService creates a new listing service
func NewService(repo domain.ListingRepository, assets domain.ListingAssetRepository, images ImageStore, cache CacheInvalidator, log *logger.Logger) *Service {
	return &Service{
		repo:   repo,
		assets: assets,
		images: images,
		cache:  cache,
		logger: log.Component("listing"),
	}
}

// Create creates a listing of the given kind with a unique slug derived from its title
func (s *Service) Create(ctx context.Context, kind domain.ParentKind, in CreateInput) (*domain.Listing, error) {
	if err := validator.Struct(in); err != nil {
		s.logger.Debugf("Listing validation failed: %v", err)
		return nil, err
	}

	listingSlug, err := s.uniqueSlug(ctx, kind, in.Title, uuid.Nil)
	if err != nil {
		return nil, err
	}

	listing := &domain.Listing{
		Kind:        kind,
		Title:       in.Title,
		Slug:        listingSlug,
		Description: in.Description,
		Location:    in.Location,
		Price:       in.Price,
		Status:      in.Status,
		Units:       toUnits(in.Units),
	}
	if listing.Status == "" {
		listing.Status = domain.ListingAvailable
	}

	if err := s.repo.Create(ctx, listing); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, fmt.Errorf("%s slug %q: %w", kind, listingSlug, err)
		}
		s.logger.Error("Failed to create listing", err)
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"listing_id": listing.ID,
		"kind":       kind,
		"slug":       listing.Slug,
		"units":      len(listing.Units),
	}).Info("Listing created successfully")

	return listing, nil
}

// GetByID retrieves a listing by ID with its units and images
func (s *Service) GetByID(ctx context.Context, kind domain.ParentKind, id uuid.UUID) (*domain.Listing, error) {
	listing, err := s.repo.GetByID(ctx, kind, id)
	if err != nil {
		s.logLookup(err, kind, id.String())
		return nil, err
	}
	return s.withAssets(ctx, listing)
}

// GetBySlug retrieves a listing by slug with its units and images
func (s *Service) GetBySlug(ctx context.Context, kind domain.ParentKind, listingSlug string) (*domain.Listing, error) {
	listing, err := s.repo.GetBySlug(ctx, kind, listingSlug)
	if err != nil {
		s.logLookup(err, kind, listingSlug)
		return nil, err
	}
	return s.withAssets(ctx, listing)
}

// List retrieves a paginated list of listings and the total matching the filter.
// Each listing carries only its primary image.
func (s *Service) List(ctx context.Context, kind domain.ParentKind, filter domain.ListingFilter) ([]*domain.Listing, int, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	listings, err := s.repo.List(ctx, kind, filter)
	if err != nil {
		s.logger.Error("Failed to list listings", err)
		return nil, 0, err
	}

	total, err := s.repo.Count(ctx, kind, filter)
	if err != nil {
		s.logger.Error("Failed to count listings", err)
		return nil, 0, err
	}

	if err := s.attachPrimaryImages(ctx, kind, listings); err != nil {
		return nil, 0, err
	}

	return listings, total, nil
}

// Update applies a partial update. Aggregate fields are never written here.
func (s *Service) Update(ctx context.Context, kind domain.ParentKind, id uuid.UUID, in UpdateInput) (*domain.Listing, error) {
	if err := validator.Struct(in); err != nil {
		s.logger.Debugf("Listing validation failed: %v", err)
		return nil, err
	}

	var listing *domain.Listing
	var err error
	for attempt := 0; attempt < updateAttempts; attempt++ {
		listing, err = s.repo.GetByID(ctx, kind, id)
		if err != nil {
			s.logLookup(err, kind, id.String())
			return nil, err
		}
		if in.Version != nil && *in.Version != listing.Version {
			return nil, fmt.Errorf("%s %s is at version %d: %w", kind, id, listing.Version, domain.ErrConflict)
		}

		if err = s.apply(ctx, listing, in); err != nil {
			return nil, err
		}

		err = s.repo.Update(ctx, listing)
		if !errors.Is(err, domain.ErrConflict) || in.Version != nil {
			break
		}
		s.logger.Debugf("Listing %s changed during update, retrying", id)
	}
	if err != nil {
		if !errors.Is(err, domain.ErrConflict) && !errors.Is(err, domain.ErrNotFound) {
			s.logger.Error("Failed to update listing", err)
		}
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"listing_id": listing.ID,
		"kind":       kind,
		"version":    listing.Version,
	}).Info("Listing updated successfully")

	return listing, nil
}

func (s *Service) apply(ctx context.Context, listing *domain.Listing, in UpdateInput) error {
	if in.Title != nil && *in.Title != listing.Title {
		listingSlug, err := s.uniqueSlug(ctx, listing.Kind, *in.Title, listing.ID)
		if err != nil {
			return err
		}
		listing.Title = *in.Title
		listing.Slug = listingSlug
	}
	if in.Description != nil {
		listing.Description = in.Description
	}
	if in.Location != nil {
		listing.Location = *in.Location
	}
	if in.Price != nil {
		listing.Price = *in.Price
	}
	if in.Status != nil {
		listing.Status = *in.Status
	}
	return nil
}

// Delete removes a listing together with its reviews, units and images
func (s *Service) Delete(ctx context.Context, kind domain.ParentKind, id uuid.UUID) error {
	ref := domain.ParentRef{Kind: kind, ID: id}
	images, err := s.assets.ListImages(ctx, ref)
	if err != nil {
		s.logger.Error("Failed to list listing images", err)
		return err
	}

	if err := s.repo.Delete(ctx, kind, id); err != nil {
		s.logLookup(err, kind, id.String())
		return err
	}

	if err := s.cache.InvalidateListing(ctx, ref); err != nil {
		s.logger.Warnf("Failed to invalidate cache for %s: %v", ref, err)
	}

	for _, img := range images {
		s.discard(ctx, img.Key)
	}

	s.logger.WithFields(map[string]interface{}{
		"listing_id": id,
		"kind":       kind,
	}).Info("Listing deleted successfully")

	return nil
}

func (s *Service) uniqueSlug(ctx context.Context, kind domain.ParentKind, title string, excludeID uuid.UUID) (string, error) {
	base := slug.Make(title)
	if base == "" {
		return "", fmt.Errorf("%w: title must contain letters or digits", domain.ErrInvalidInput)
	}

	unique, err := slug.Unique(ctx, base, func(ctx context.Context, candidate string) (bool, error) {
		return s.repo.SlugExists(ctx, kind, candidate, excludeID)
	})
	if err != nil {
		s.logger.Error("Failed to generate slug", err)
		return "", err
	}
	return unique, nil
}

func (s *Service) logLookup(err error, kind domain.ParentKind, key string) {
	if errors.Is(err, domain.ErrNotFound) {
		s.logger.Debugf("%s not found: %s", kind, key)
		return
	}
	s.logger.Error("Failed to load listing", err)
}
