package listing

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/jglobalproperties/estate_api/internal/domain"
	"github.com/jglobalproperties/estate_api/internal/usecase/media"
)

// MockAssetRepository is a mock implementation of domain.ListingAssetRepository
type MockAssetRepository struct {
	mock.Mock
}

func (m *MockAssetRepository) ListUnits(ctx context.Context, ref domain.ParentRef) ([]domain.ListingUnit, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ListingUnit), args.Error(1)
}

func (m *MockAssetRepository) ReplaceUnits(ctx context.Context, ref domain.ParentRef, units []domain.ListingUnit) ([]domain.ListingUnit, error) {
	args := m.Called(ctx, ref, units)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ListingUnit), args.Error(1)
}

func (m *MockAssetRepository) ListImages(ctx context.Context, ref domain.ParentRef) ([]domain.ListingImage, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ListingImage), args.Error(1)
}

func (m *MockAssetRepository) PrimaryImages(ctx context.Context, kind domain.ParentKind, ids []uuid.UUID) (map[uuid.UUID]domain.ListingImage, error) {
	args := m.Called(ctx, kind, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]domain.ListingImage), args.Error(1)
}

func (m *MockAssetRepository) GetImage(ctx context.Context, ref domain.ParentRef, imageID uuid.UUID) (*domain.ListingImage, error) {
	args := m.Called(ctx, ref, imageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	cp := *args.Get(0).(*domain.ListingImage)
	return &cp, args.Error(1)
}

func (m *MockAssetRepository) AddImage(ctx context.Context, ref domain.ParentRef, image *domain.ListingImage, order *int) error {
	args := m.Called(ctx, ref, image, order)
	if args.Error(0) == nil {
		image.ID = uuid.New()
		image.ListingID = ref.ID
	}
	return args.Error(0)
}

func (m *MockAssetRepository) UpdateImage(ctx context.Context, ref domain.ParentRef, image *domain.ListingImage) error {
	return m.Called(ctx, ref, image).Error(0)
}

func (m *MockAssetRepository) DeleteImage(ctx context.Context, ref domain.ParentRef, imageID uuid.UUID) error {
	return m.Called(ctx, ref, imageID).Error(0)
}

type MockImageStore struct {
	mock.Mock
}

func (m *MockImageStore) Store(ctx context.Context, in media.UploadInput) (*domain.Media, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Media), args.Error(1)
}

func (m *MockImageStore) Discard(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *MockImageStore) MaxUploadBytes() int64 {
	return 1 << 20
}
