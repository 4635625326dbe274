package listing

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jglobalproperties/estate_api/internal/domain"
	"github.com/jglobalproperties/estate_api/internal/pkg/logger"
)

// MockListingRepository is a mock implementation of domain.ListingRepository
type MockListingRepository struct {
	mock.Mock
}

func (m *MockListingRepository) Create(ctx context.Context, listing *domain.Listing) error {
	args := m.Called(ctx, listing)
	if args.Error(0) == nil {
		listing.ID = uuid.New()
		listing.Version = 1
	}
	return args.Error(0)
}

func (m *MockListingRepository) GetByID(ctx context.Context, kind domain.ParentKind, id uuid.UUID) (*domain.Listing, error) {
	args := m.Called(ctx, kind, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	// hand out a copy so a retried update starts from a fresh row
	cp := *args.Get(0).(*domain.Listing)
	return &cp, args.Error(1)
}

func (m *MockListingRepository) GetBySlug(ctx context.Context, kind domain.ParentKind, slug string) (*domain.Listing, error) {
	args := m.Called(ctx, kind, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Listing), args.Error(1)
}

func (m *MockListingRepository) SlugExists(ctx context.Context, kind domain.ParentKind, slug string, excludeID uuid.UUID) (bool, error) {
	args := m.Called(ctx, kind, slug, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockListingRepository) List(ctx context.Context, kind domain.ParentKind, filter domain.ListingFilter) ([]*domain.Listing, error) {
	args := m.Called(ctx, kind, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Listing), args.Error(1)
}

func (m *MockListingRepository) Count(ctx context.Context, kind domain.ParentKind, filter domain.ListingFilter) (int, error) {
	args := m.Called(ctx, kind, filter)
	return args.Int(0), args.Error(1)
}

func (m *MockListingRepository) Update(ctx context.Context, listing *domain.Listing) error {
	args := m.Called(ctx, listing)
	if args.Error(0) == nil {
		listing.Version++
	}
	return args.Error(0)
}

func (m *MockListingRepository) Delete(ctx context.Context, kind domain.ParentKind, id uuid.UUID) error {
	return m.Called(ctx, kind, id).Error(0)
}

func (m *MockListingRepository) ListIDs(ctx context.Context, kind domain.ParentKind) ([]uuid.UUID, error) {
	args := m.Called(ctx, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockListingRepository) Exists(ctx context.Context, ref domain.ParentRef) (bool, error) {
	args := m.Called(ctx, ref)
	return args.Bool(0), args.Error(1)
}

func (m *MockListingRepository) GetAggregate(ctx context.Context, ref domain.ParentRef) (*domain.RatingAggregate, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RatingAggregate), args.Error(1)
}

func (m *MockListingRepository) UpdateAggregate(ctx context.Context, ref domain.ParentRef, agg domain.RatingAggregate) error {
	return m.Called(ctx, ref, agg).Error(0)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) InvalidateListing(ctx context.Context, ref domain.ParentRef) error {
	return m.Called(ctx, ref).Error(0)
}

type fixture struct {
	repo   *MockListingRepository
	assets *MockAssetRepository
	images *MockImageStore
	cache  *MockCache
}

func newFixture() (*Service, *fixture) {
	f := &fixture{
		repo:   new(MockListingRepository),
		assets: new(MockAssetRepository),
		images: new(MockImageStore),
		cache:  new(MockCache),
	}
	return NewService(f.repo, f.assets, f.images, f.cache, logger.New("test")), f
}

func newService() (*Service, *MockListingRepository, *MockCache) {
	service, f := newFixture()
	return service, f.repo, f.cache
}

func TestService_Create_Success(t *testing.T) {
	service, repo, _ := newService()

	repo.On("SlugExists", mock.Anything, domain.ParentHouse, "sunny-villa", uuid.Nil).Return(false, nil)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(l *domain.Listing) bool {
		return l.Kind == domain.ParentHouse && l.Slug == "sunny-villa" && l.Status == domain.ListingAvailable
	})).Return(nil)

	listing, err := service.Create(context.Background(), domain.ParentHouse, CreateInput{
		Title: "Sunny Villa!",
		Price: 250000,
	})

	require.NoError(t, err)
	assert.Equal(t, "sunny-villa", listing.Slug)
	assert.Nil(t, listing.AverageRating)
	assert.Zero(t, listing.TotalReviews)
	repo.AssertExpectations(t)
}

func TestService_Create_SlugTaken(t *testing.T) {
	service, repo, _ := newService()

	repo.On("SlugExists", mock.Anything, domain.ParentLand, "river-plot", uuid.Nil).Return(true, nil)
	repo.On("SlugExists", mock.Anything, domain.ParentLand, "river-plot-1", uuid.Nil).Return(true, nil)
	repo.On("SlugExists", mock.Anything, domain.ParentLand, "river-plot-2", uuid.Nil).Return(false, nil)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)

	listing, err := service.Create(context.Background(), domain.ParentLand, CreateInput{Title: "River Plot"})

	require.NoError(t, err)
	assert.Equal(t, "river-plot-2", listing.Slug)
}

func TestService_Create_DuplicateRace(t *testing.T) {
	service, repo, _ := newService()

	repo.On("SlugExists", mock.Anything, domain.ParentHouse, "loft", uuid.Nil).Return(false, nil)
	repo.On("Create", mock.Anything, mock.Anything).Return(domain.ErrAlreadyExists)

	_, err := service.Create(context.Background(), domain.ParentHouse, CreateInput{Title: "Loft"})

	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestService_Create_InvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		input CreateInput
	}{
		{"empty title", CreateInput{Title: ""}},
		{"negative price", CreateInput{Title: "Cabin", Price: -1}},
		{"unknown status", CreateInput{Title: "Cabin", Status: "LEASED"}},
		{"title without letters", CreateInput{Title: "!!!"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, repo, _ := newService()

			_, err := service.Create(context.Background(), domain.ParentHouse, tt.input)

			assert.ErrorIs(t, err, domain.ErrInvalidInput)
			repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestService_Create_WithUnits(t *testing.T) {
	service, repo, _ := newService()
	sold := false

	repo.On("SlugExists", mock.Anything, domain.ParentLand, "palm-estate", uuid.Nil).Return(false, nil)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(l *domain.Listing) bool {
		return len(l.Units) == 2 &&
			l.Units[0].Unit == domain.DefaultUnitOfArea && l.Units[0].Available &&
			l.Units[1].Unit == "acre" && !l.Units[1].Available
	})).Return(nil)

	_, err := service.Create(context.Background(), domain.ParentLand, CreateInput{
		Title: "Palm Estate",
		Units: []UnitInput{
			{Size: 600, Price: 4000000},
			{Size: 1, Unit: "acre", Price: 25000000, Available: &sold},
		},
	})

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestService_Create_InvalidUnit(t *testing.T) {
	service, repo, _ := newService()

	_, err := service.Create(context.Background(), domain.ParentLand, CreateInput{
		Title: "Palm Estate",
		Units: []UnitInput{{Size: 0, Price: 100}},
	})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestService_GetByID_AttachesUnitsAndImages(t *testing.T) {
	service, f := newFixture()
	id := uuid.New()
	ref := domain.HouseRef(id)

	f.repo.On("GetByID", mock.Anything, domain.ParentHouse, id).Return(&domain.Listing{ID: id, Kind: domain.ParentHouse}, nil)
	f.assets.On("ListUnits", mock.Anything, ref).Return([]domain.ListingUnit{{Size: 250, Unit: "sqm"}}, nil)
	f.assets.On("ListImages", mock.Anything, ref).Return([]domain.ListingImage{{URL: "a"}, {URL: "b"}}, nil)

	listing, err := service.GetByID(context.Background(), domain.ParentHouse, id)

	require.NoError(t, err)
	assert.Len(t, listing.Units, 1)
	assert.Len(t, listing.Images, 2)
}

func TestService_GetByID_NotFound(t *testing.T) {
	service, repo, _ := newService()
	id := uuid.New()

	repo.On("GetByID", mock.Anything, domain.ParentLand, id).Return(nil, domain.ErrNotFound)

	listing, err := service.GetByID(context.Background(), domain.ParentLand, id)

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Nil(t, listing)
}

func TestService_List_ClampsPagination(t *testing.T) {
	service, repo, _ := newService()
	expected := domain.ListingFilter{Search: "lake", Limit: 20, Offset: 0}

	repo.On("List", mock.Anything, domain.ParentHouse, expected).Return([]*domain.Listing{}, nil)
	repo.On("Count", mock.Anything, domain.ParentHouse, expected).Return(0, nil)

	_, total, err := service.List(context.Background(), domain.ParentHouse, domain.ListingFilter{Search: "lake", Limit: 500, Offset: -3})

	require.NoError(t, err)
	assert.Equal(t, 0, total)
	repo.AssertExpectations(t)
}

func TestService_List_AttachesPrimaryImage(t *testing.T) {
	service, f := newFixture()
	withImage := &domain.Listing{ID: uuid.New(), Kind: domain.ParentLand}
	without := &domain.Listing{ID: uuid.New(), Kind: domain.ParentLand}

	f.repo.On("List", mock.Anything, domain.ParentLand, mock.Anything).Return([]*domain.Listing{withImage, without}, nil)
	f.repo.On("Count", mock.Anything, domain.ParentLand, mock.Anything).Return(2, nil)
	f.assets.On("PrimaryImages", mock.Anything, domain.ParentLand, []uuid.UUID{withImage.ID, without.ID}).
		Return(map[uuid.UUID]domain.ListingImage{withImage.ID: {URL: "cover", IsPrimary: true}}, nil)

	listings, _, err := service.List(context.Background(), domain.ParentLand, domain.ListingFilter{})

	require.NoError(t, err)
	require.Len(t, listings[0].Images, 1)
	assert.Equal(t, "cover", listings[0].Images[0].URL)
	assert.Empty(t, listings[1].Images)
}

func TestService_Update_RenamesSlugAndKeepsAggregate(t *testing.T) {
	service, repo, _ := newService()
	id := uuid.New()
	avg := 4.5
	stored := &domain.Listing{
		ID: id, Kind: domain.ParentHouse, Title: "Old", Slug: "old",
		AverageRating: &avg, TotalReviews: 2, Version: 5,
	}

	repo.On("GetByID", mock.Anything, domain.ParentHouse, id).Return(stored, nil)
	repo.On("SlugExists", mock.Anything, domain.ParentHouse, "new-name", id).Return(false, nil)
	repo.On("Update", mock.Anything, mock.MatchedBy(func(l *domain.Listing) bool {
		return l.Slug == "new-name" && l.Version == 5 && l.TotalReviews == 2 && *l.AverageRating == 4.5
	})).Return(nil)

	title := "New Name"
	listing, err := service.Update(context.Background(), domain.ParentHouse, id, UpdateInput{Title: &title})

	require.NoError(t, err)
	assert.Equal(t, 6, listing.Version)
	repo.AssertExpectations(t)
}

func TestService_Update_RetriesWhenAggregateMoved(t *testing.T) {
	service, repo, _ := newService()
	id := uuid.New()
	stored := &domain.Listing{ID: id, Kind: domain.ParentLand, Title: "Plot", Slug: "plot", Version: 2}

	repo.On("GetByID", mock.Anything, domain.ParentLand, id).Return(stored, nil)
	repo.On("Update", mock.Anything, mock.Anything).Return(domain.ErrConflict).Once()
	repo.On("Update", mock.Anything, mock.Anything).Return(nil).Once()

	price := 1000.0
	_, err := service.Update(context.Background(), domain.ParentLand, id, UpdateInput{Price: &price})

	require.NoError(t, err)
	repo.AssertNumberOfCalls(t, "GetByID", 2)
	repo.AssertNumberOfCalls(t, "Update", 2)
}

func TestService_Update_StaleVersion(t *testing.T) {
	service, repo, _ := newService()
	id := uuid.New()
	stored := &domain.Listing{ID: id, Kind: domain.ParentLand, Title: "Plot", Slug: "plot", Version: 3}

	repo.On("GetByID", mock.Anything, domain.ParentLand, id).Return(stored, nil)

	version := 2
	_, err := service.Update(context.Background(), domain.ParentLand, id, UpdateInput{Version: &version})

	assert.ErrorIs(t, err, domain.ErrConflict)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestService_Delete_InvalidatesCacheAndDiscardsImages(t *testing.T) {
	service, f := newFixture()
	id := uuid.New()

	f.assets.On("ListImages", mock.Anything, domain.HouseRef(id)).
		Return([]domain.ListingImage{{Key: "estate/a.jpg"}, {Key: "estate/b.jpg"}}, nil)
	f.repo.On("Delete", mock.Anything, domain.ParentHouse, id).Return(nil)
	f.cache.On("InvalidateListing", mock.Anything, domain.HouseRef(id)).Return(nil)
	f.images.On("Discard", mock.Anything, "estate/a.jpg").Return(nil)
	f.images.On("Discard", mock.Anything, "estate/b.jpg").Return(assert.AnError)

	require.NoError(t, service.Delete(context.Background(), domain.ParentHouse, id))
	f.repo.AssertExpectations(t)
	f.cache.AssertExpectations(t)
	f.images.AssertExpectations(t)
}

func TestService_Delete_NotFound(t *testing.T) {
	service, f := newFixture()
	id := uuid.New()

	f.assets.On("ListImages", mock.Anything, domain.HouseRef(id)).Return([]domain.ListingImage{}, nil)
	f.repo.On("Delete", mock.Anything, domain.ParentHouse, id).Return(domain.ErrNotFound)

	assert.ErrorIs(t, service.Delete(context.Background(), domain.ParentHouse, id), domain.ErrNotFound)
	f.cache.AssertNotCalled(t, "InvalidateListing", mock.Anything, mock.Anything)
	f.images.AssertNotCalled(t, "Discard", mock.Anything, mock.Anything)
}
