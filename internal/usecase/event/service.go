package event

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jglobalproperties/estate_api/internal/domain"
	"github.com/jglobalproperties/estate_api/internal/pkg/logger"
	"github.com/jglobalproperties/estate_api/internal/pkg/slug"
	"github.com/jglobalproperties/estate_api/internal/pkg/validator"
	"github.com/jglobalproperties/estate_api/internal/usecase/media"
)

// ImageStore processes uploaded images and keeps them in object storage
type ImageStore interface {
	Store(ctx context.Context, in media.UploadInput) (*domain.Media, error)
	Discard(ctx context.Context, key string) error
	MaxUploadBytes() int64
}

// CreateInput holds the fields of a new event
type CreateInput struct {
	Title       string    `json:"title" validate:"required,min=1,max=200"`
	Description string    `json:"description" validate:"required"`
	Location    string    `json:"location" validate:"required,max=255"`
	Organizer   string    `json:"organizer" validate:"required,max=255"`
	Date        time.Time `json:"date"`
}

// UpdateInput is a partial update; nil fields are left unchanged
type UpdateInput struct {
	Title       *string    `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string    `json:"description" validate:"omitempty,min=1"`
	Location    *string    `json:"location" validate:"omitempty,min=1,max=255"`
	Organizer   *string    `json:"organizer" validate:"omitempty,min=1,max=255"`
	Date        *time.Time `json:"date"`
}

// ImageUpload replaces the image of an event
type ImageUpload struct {
	Filename string
	Body     io.Reader
	Caption  string
}

// Service handles events
type Service struct {
	repo   domain.EventRepository
	images ImageStore
	logger *logger.Logger
}

// NewService creates a new event service
func NewService(repo domain.EventRepository, images ImageStore, log *logger.Logger) *Service {
	return &Service{
		repo:   repo,
		images: images,
		logger: log.Component("event"),
	}
}

// MaxImageBytes is the largest accepted image upload
func (s *Service) MaxImageBytes() int64 {
	return s.images.MaxUploadBytes()
}

// Create stores a new event
func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Event, error) {
	if err := validator.Struct(in); err != nil {
		s.logger.Debugf("Event validation failed: %v", err)
		return nil, err
	}
	if in.Date.IsZero() {
		return nil, fmt.Errorf("%w: date is required", domain.ErrInvalidInput)
	}

	eventSlug, err := s.uniqueSlug(ctx, in.Title, uuid.Nil)
	if err != nil {
		return nil, err
	}

	event := &domain.Event{
		Title:       strings.TrimSpace(in.Title),
		Slug:        eventSlug,
		Description: in.Description,
		Location:    strings.TrimSpace(in.Location),
		Organizer:   strings.TrimSpace(in.Organizer),
		StartsAt:    in.Date.UTC(),
	}
	if err := s.repo.Create(ctx, event); err != nil {
		if !errors.Is(err, domain.ErrAlreadyExists) {
			s.logger.Error("Failed to create event", err)
		}
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"event_id": event.ID,
		"slug":     event.Slug,
		"date":     event.StartsAt,
	}).Info("Event created successfully")

	return event, nil
}

// Get retrieves an event by ID
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logLookup(err, id.String())
		return nil, err
	}
	return event, nil
}

// GetBySlug retrieves an event by slug
func (s *Service) GetBySlug(ctx context.Context, eventSlug string) (*domain.Event, error) {
	event, err := s.repo.GetBySlug(ctx, eventSlug)
	if err != nil {
		s.logLookup(err, eventSlug)
		return nil, err
	}
	return event, nil
}

// List returns a page of events. Unknown sort keys are rejected.
func (s *Service) List(ctx context.Context, filter domain.EventFilter) ([]*domain.Event, int, error) {
	switch filter.SortBy {
	case "":
		filter.SortBy = domain.EventSortCreated
	case domain.EventSortCreated, domain.EventSortDate, domain.EventSortTitle:
	default:
		return nil, 0, fmt.Errorf("%w: cannot sort events by %q", domain.ErrInvalidInput, filter.SortBy)
	}
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	events, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list events", err)
		return nil, 0, err
	}

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to count events", err)
		return nil, 0, err
	}

	return events, total, nil
}

// Update applies a partial update. A new title also moves the slug.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*domain.Event, error) {
	if err := validator.Struct(in); err != nil {
		s.logger.Debugf("Event validation failed: %v", err)
		return nil, err
	}
	if in.Date != nil && in.Date.IsZero() {
		return nil, fmt.Errorf("%w: date cannot be empty", domain.ErrInvalidInput)
	}

	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logLookup(err, id.String())
		return nil, err
	}

	if in.Title != nil && strings.TrimSpace(*in.Title) != event.Title {
		eventSlug, err := s.uniqueSlug(ctx, *in.Title, event.ID)
		if err != nil {
			return nil, err
		}
		event.Title = strings.TrimSpace(*in.Title)
		event.Slug = eventSlug
	}
	if in.Description != nil {
		event.Description = *in.Description
	}
	if in.Location != nil {
		event.Location = strings.TrimSpace(*in.Location)
	}
	if in.Organizer != nil {
		event.Organizer = strings.TrimSpace(*in.Organizer)
	}
	if in.Date != nil {
		event.StartsAt = in.Date.UTC()
	}

	if err := s.repo.Update(ctx, event); err != nil {
		s.logLookup(err, id.String())
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"event_id": event.ID,
		"slug":     event.Slug,
	}).Info("Event updated successfully")

	return event, nil
}

// Delete removes an event together with its stored image
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logLookup(err, id.String())
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.logLookup(err, id.String())
		return err
	}
	if event.ImageKey != nil {
		s.discard(ctx, *event.ImageKey)
	}

	s.logger.WithFields(map[string]interface{}{
		"event_id": id,
	}).Info("Event deleted successfully")

	return nil
}

// SetImage stores an uploaded image as the event image and drops the previous one
func (s *Service) SetImage(ctx context.Context, id uuid.UUID, in ImageUpload) (*domain.Event, error) {
	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logLookup(err, id.String())
		return nil, err
	}

	stored, err := s.images.Store(ctx, media.UploadInput{Filename: in.Filename, Body: in.Body, Caption: in.Caption})
	if err != nil {
		return nil, err
	}

	previous := event.ImageKey
	event.ImageURL = &stored.URL
	event.ImageKey = &stored.Key
	event.ImageCaption = stored.Caption

	if err := s.repo.Update(ctx, event); err != nil {
		s.logLookup(err, id.String())
		s.discard(ctx, stored.Key)
		return nil, err
	}
	if previous != nil {
		s.discard(ctx, *previous)
	}

	s.logger.WithFields(map[string]interface{}{
		"event_id": id,
		"key":      stored.Key,
	}).Info("Event image replaced")

	return event, nil
}

// RemoveImage clears the event image
func (s *Service) RemoveImage(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logLookup(err, id.String())
		return nil, err
	}
	if event.ImageKey == nil {
		return nil, fmt.Errorf("event image %w", domain.ErrNotFound)
	}

	key := *event.ImageKey
	event.ImageURL = nil
	event.ImageKey = nil
	event.ImageCaption = nil

	if err := s.repo.Update(ctx, event); err != nil {
		s.logLookup(err, id.String())
		return nil, err
	}
	s.discard(ctx, key)

	return event, nil
}

func (s *Service) uniqueSlug(ctx context.Context, title string, excludeID uuid.UUID) (string, error) {
	base := slug.Make(title)
	if base == "" {
		return "", fmt.Errorf("%w: title must contain letters or digits", domain.ErrInvalidInput)
	}

	unique, err := slug.Unique(ctx, base, func(ctx context.Context, candidate string) (bool, error) {
		return s.repo.SlugExists(ctx, candidate, excludeID)
	})
	if err != nil {
		s.logger.Error("Failed to generate slug", err)
		return "", err
	}
	return unique, nil
}

func (s *Service) discard(ctx context.Context, key string) {
	if err := s.images.Discard(ctx, key); err != nil {
		s.logger.Warnf("Orphaned image object %s: %v", key, err)
	}
}

func (s *Service) logLookup(err error, key string) {
	if errors.Is(err, domain.ErrNotFound) {
		s.logger.Debugf("Event not found: %s", key)
		return
	}
	s.logger.Error("Failed to access event", err)
}
