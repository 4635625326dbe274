// Package media stores uploaded images in object storage and keeps their metadata
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/jglobalproperties/estate_api/internal/config"
	"github.com/jglobalproperties/estate_api/internal/domain"
	"github.com/jglobalproperties/estate_api/internal/pkg/imaging"
	"github.com/jglobalproperties/estate_api/internal/pkg/logger"
)

// ObjectStorage stores uploaded files
type ObjectStorage interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
	Delete(ctx context.Context, key string) error
}

// UploadInput is a single image upload
type UploadInput struct {
	Filename string
	Body     io.Reader
	Alt      string
	Caption  string
}

// Service handles media uploads
type Service struct {
	repo      domain.MediaRepository
	storage   ObjectStorage
	prefix    string
	maxWidth  uint
	maxHeight uint
	maxBytes  int64
	logger    *logger.Logger
}

// NewService creates a new media service
func NewService(repo domain.MediaRepository, storage ObjectStorage, cfg config.StorageConfig, log *logger.Logger) *Service {
	return &Service{
		repo:      repo,
		storage:   storage,
		prefix:    strings.Trim(cfg.Prefix, "/"),
		maxWidth:  cfg.MaxImageWidth,
		maxHeight: cfg.MaxImageHeight,
		maxBytes:  cfg.MaxUploadBytes,
		logger:    log.Component("media"),
	}
}

// MaxUploadBytes is the largest accepted upload
func (s *Service) MaxUploadBytes() int64 {
	return s.maxBytes
}

// Upload downscales an image to the configured bounds, stores it and records its metadata
func (s *Service) Upload(ctx context.Context, in UploadInput) (*domain.Media, error) {
	media, err := s.Store(ctx, in)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, media); err != nil {
		s.logger.Error("Failed to save media", err)
		if delErr := s.storage.Delete(ctx, media.Key); delErr != nil {
			s.logger.Errorf(delErr, "Failed to remove orphaned object %s", media.Key)
		}
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"media_id": media.ID,
		"key":      media.Key,
		"size":     media.Size,
	}).Info("Media uploaded")

	return media, nil
}

// Store downscales and stores an image without recording it in the media library.
// Listing and event images are stored this way and referenced by their owner.
func (s *Service) Store(ctx context.Context, in UploadInput) (*domain.Media, error) {
	raw, err := io.ReadAll(io.LimitReader(in.Body, s.maxBytes+1))
	if err != nil {
		s.logger.Error("Failed to read upload", err)
		return nil, err
	}
	if int64(len(raw)) > s.maxBytes {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", domain.ErrInvalidInput, s.maxBytes)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty file", domain.ErrInvalidInput)
	}

	img, err := imaging.Process(bytes.NewReader(raw), s.maxWidth, s.maxHeight)
	if err != nil {
		if errors.Is(err, imaging.ErrUnsupportedFormat) {
			return nil, fmt.Errorf("%w: only jpeg, png and gif images are accepted", domain.ErrInvalidInput)
		}
		s.logger.Error("Failed to process image", err)
		return nil, err
	}

	key := path.Join(s.prefix, uuid.NewString()+img.Ext)
	url, err := s.storage.Put(ctx, key, img.ContentType, img.Data)
	if err != nil {
		s.logger.Error("Failed to store image", err)
		return nil, err
	}

	width, height := img.Width, img.Height
	s.logger.Debugf("Stored %s (%dx%d, %d bytes)", key, width, height, len(img.Data))

	return &domain.Media{
		URL:      url,
		Key:      key,
		Filename: path.Base(strings.ReplaceAll(in.Filename, "\\", "/")),
		MimeType: img.ContentType,
		Size:     int64(len(img.Data)),
		Width:    &width,
		Height:   &height,
		Alt:      optional(in.Alt),
		Caption:  optional(in.Caption),
	}, nil
}

// Discard deletes a stored object that is no longer referenced
func (s *Service) Discard(ctx context.Context, key string) error {
	if err := s.storage.Delete(ctx, key); err != nil {
		s.logger.Errorf(err, "Failed to delete object %s", key)
		return err
	}
	return nil
}

// Get retrieves media metadata by ID
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Media, error) {
	media, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Debugf("Media not found: %s", id)
		} else {
			s.logger.Error("Failed to get media", err)
		}
		return nil, err
	}
	return media, nil
}

// List returns a page of media, newest first, with the total count
func (s *Service) List(ctx context.Context, limit, offset int) ([]*domain.Media, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	items, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error("Failed to list media", err)
		return nil, 0, err
	}

	total, err := s.repo.Count(ctx)
	if err != nil {
		s.logger.Error("Failed to count media", err)
		return nil, 0, err
	}

	return items, total, nil
}

// Delete removes the stored object and then its metadata
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	media, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.storage.Delete(ctx, media.Key); err != nil {
		s.logger.Error("Failed to delete object", err)
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("Failed to delete media", err)
		return err
	}

	s.logger.WithFields(map[string]interface{}{
		"media_id": id,
		"key":      media.Key,
	}).Info("Media deleted")

	return nil
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
