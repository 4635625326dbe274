package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/jglobalproperties/estate_api/internal/domain"
	"github.com/jglobalproperties/estate_api/internal/usecase/listing"
)

type MockListingService struct {
	mock.Mock
}

func (m *MockListingService) Create(ctx context.Context, kind domain.ParentKind, in listing.CreateInput) (*domain.Listing, error) {
	args := m.Called(ctx, kind, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Listing), args.Error(1)
}

func (m *MockListingService) GetByID(ctx context.Context, kind domain.ParentKind, id uuid.UUID) (*domain.Listing, error) {
	args := m.Called(ctx, kind, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Listing), args.Error(1)
}

func (m *MockListingService) GetBySlug(ctx context.Context, kind domain.ParentKind, slug string) (*domain.Listing, error) {
	args := m.Called(ctx, kind, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Listing), args.Error(1)
}

func (m *MockListingService) List(ctx context.Context, kind domain.ParentKind, filter domain.ListingFilter) ([]*domain.Listing, int, error) {
	args := m.Called(ctx, kind, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*domain.Listing), args.Int(1), args.Error(2)
}

func (m *MockListingService) Update(ctx context.Context, kind domain.ParentKind, id uuid.UUID, in listing.UpdateInput) (*domain.Listing, error) {
	args := m.Called(ctx, kind, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Listing), args.Error(1)
}

func (m *MockListingService) Delete(ctx context.Context, kind domain.ParentKind, id uuid.UUID) error {
	return m.Called(ctx, kind, id).Error(0)
}

func (m *MockListingService) Units(ctx context.Context, kind domain.ParentKind, id uuid.UUID) ([]domain.ListingUnit, error) {
	args := m.Called(ctx, kind, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ListingUnit), args.Error(1)
}

func (m *MockListingService) ReplaceUnits(ctx context.Context, kind domain.ParentKind, id uuid.UUID, in listing.ReplaceUnitsInput) ([]domain.ListingUnit, error) {
	args := m.Called(ctx, kind, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ListingUnit), args.Error(1)
}

func (m *MockListingService) Images(ctx context.Context, kind domain.ParentKind, id uuid.UUID) ([]domain.ListingImage, error) {
	args := m.Called(ctx, kind, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ListingImage), args.Error(1)
}

func (m *MockListingService) AddImage(ctx context.Context, kind domain.ParentKind, id uuid.UUID, in listing.ImageUpload) (*domain.ListingImage, error) {
	args := m.Called(ctx, kind, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ListingImage), args.Error(1)
}

func (m *MockListingService) UpdateImage(ctx context.Context, kind domain.ParentKind, id, imageID uuid.UUID, in listing.ImageUpdateInput) (*domain.ListingImage, error) {
	args := m.Called(ctx, kind, id, imageID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ListingImage), args.Error(1)
}

func (m *MockListingService) DeleteImage(ctx context.Context, kind domain.ParentKind, id, imageID uuid.UUID) error {
	return m.Called(ctx, kind, id, imageID).Error(0)
}

func (m *MockListingService) MaxImageBytes() int64 {
	return 1024
}

func TestListingHandler_Create_UsesKind(t *testing.T) {
	svc := new(MockListingService)
	h := NewListingHandler(domain.ParentLand, svc, testLogger())

	in := listing.CreateInput{Title: "Hillside plot", Location: "Ubud", Price: 120000}
	svc.On("Create", mock.Anything, domain.ParentLand, in).
		Return(&domain.Listing{ID: uuid.New(), Kind: domain.ParentLand, Title: in.Title, Slug: "hillside-plot"}, nil)

	w := httptest.NewRecorder()
	h.Create(w, newRequest(t, http.MethodPost, "/api/v1/lands", in, nil))

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "hillside-plot", decodeBody(t, w)["data"].(map[string]any)["slug"])
	svc.AssertExpectations(t)
}

func TestListingHandler_Create_Duplicate(t *testing.T) {
	svc := new(MockListingService)
	h := NewListingHandler(domain.ParentHouse, svc, testLogger())

	svc.On("Create", mock.Anything, domain.ParentHouse, mock.Anything).Return(nil, domain.ErrAlreadyExists)

	w := httptest.NewRecorder()
	h.Create(w, newRequest(t, http.MethodPost, "/", listing.CreateInput{Title: "Villa"}, nil))

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestListingHandler_GetBySlug(t *testing.T) {
	svc := new(MockListingService)
	h := NewListingHandler(domain.ParentHouse, svc, testLogger())

	svc.On("GetBySlug", mock.Anything, domain.ParentHouse, "sea-view").Return(nil, domain.ErrNotFound)

	w := httptest.NewRecorder()
	h.GetBySlug(w, newRequest(t, http.MethodGet, "/", nil, map[string]string{"slug": "sea-view"}))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListingHandler_GetByID_BadID(t *testing.T) {
	h := NewListingHandler(domain.ParentHouse, new(MockListingService), testLogger())

	w := httptest.NewRecorder()
	h.GetByID(w, newRequest(t, http.MethodGet, "/", nil, map[string]string{"id": "x"}))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid house ID", decodeBody(t, w)["error"])
}

func TestListingHandler_List(t *testing.T) {
	t.Run("status filter", func(t *testing.T) {
		svc := new(MockListingService)
		h := NewListingHandler(domain.ParentHouse, svc, testLogger())

		sold := domain.ListingSold
		svc.On("List", mock.Anything, domain.ParentHouse, domain.ListingFilter{
			Search: "beach", Status: &sold, Limit: 20, Offset: 0,
		}).Return([]*domain.Listing{}, 0, nil)

		w := httptest.NewRecorder()
		h.List(w, newRequest(t, http.MethodGet, "/?search=beach&status=sold", nil, nil))

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("unknown status", func(t *testing.T) {
		svc := new(MockListingService)
		h := NewListingHandler(domain.ParentHouse, svc, testLogger())

		w := httptest.NewRecorder()
		h.List(w, newRequest(t, http.MethodGet, "/?status=rented", nil, nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestListingHandler_Update_Conflict(t *testing.T) {
	svc := new(MockListingService)
	h := NewListingHandler(domain.ParentLand, svc, testLogger())

	id := uuid.New()
	version := 2
	svc.On("Update", mock.Anything, domain.ParentLand, id, mock.MatchedBy(func(in listing.UpdateInput) bool {
		return in.Version != nil && *in.Version == version
	})).Return(nil, domain.ErrConflict)

	w := httptest.NewRecorder()
	h.Update(w, newRequest(t, http.MethodPut, "/", map[string]any{"price": 10, "version": version},
		map[string]string{"id": id.String()}))

	assert.Equal(t, http.StatusConflict, w.Code)
	svc.AssertExpectations(t)
}

func TestListingHandler_Delete(t *testing.T) {
	svc := new(MockListingService)
	h := NewListingHandler(domain.ParentLand, svc, testLogger())

	id := uuid.New()
	svc.On("Delete", mock.Anything, domain.ParentLand, id).Return(nil)

	w := httptest.NewRecorder()
	h.Delete(w, newRequest(t, http.MethodDelete, "/", nil, map[string]string{"id": id.String()}))

	assert.Equal(t, http.StatusNoContent, w.Code)
	svc.AssertExpectations(t)
}

func TestListingHandler_AddImage(t *testing.T) {
	svc := new(MockListingService)
	h := NewListingHandler(domain.ParentHouse, svc, testLogger())
	id := uuid.New()

	svc.On("AddImage", mock.Anything, domain.ParentHouse, id, mock.MatchedBy(func(in listing.ImageUpload) bool {
		return in.Filename == "pool.jpg" && in.Caption == "Pool" && in.IsPrimary && in.Order != nil && *in.Order == 1
	})).Return(&domain.ListingImage{ID: uuid.New(), ListingID: id, IsPrimary: true, Order: 1}, nil)

	req := multipartUpload(t, "image", "pool.jpg", []byte("jpeg-bytes"), map[string]string{
		"caption":    "Pool",
		"is_primary": "true",
		"order":      "1",
	})

	w := httptest.NewRecorder()
	h.AddImage(w, withParams(req, map[string]string{"id": id.String()}))

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, true, decodeBody(t, w)["data"].(map[string]any)["is_primary"])
	svc.AssertExpectations(t)
}

func TestListingHandler_AddImage_BadFields(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]string
	}{
		{"primary flag", map[string]string{"is_primary": "maybe"}},
		{"order", map[string]string{"order": "first"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockListingService)
			h := NewListingHandler(domain.ParentLand, svc, testLogger())

			req := multipartUpload(t, "image", "a.jpg", []byte("x"), tt.fields)
			w := httptest.NewRecorder()
			h.AddImage(w, withParams(req, map[string]string{"id": uuid.NewString()}))

			assert.Equal(t, http.StatusBadRequest, w.Code)
			svc.AssertNotCalled(t, "AddImage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestListingHandler_AddImage_TooLarge(t *testing.T) {
	svc := new(MockListingService)
	h := NewListingHandler(domain.ParentLand, svc, testLogger())

	req := multipartUpload(t, "image", "huge.jpg", make([]byte, 2048), nil)
	w := httptest.NewRecorder()
	h.AddImage(w, withParams(req, map[string]string{"id": uuid.NewString()}))

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestListingHandler_DeleteImage(t *testing.T) {
	svc := new(MockListingService)
	h := NewListingHandler(domain.ParentLand, svc, testLogger())
	id, imageID := uuid.New(), uuid.New()

	svc.On("DeleteImage", mock.Anything, domain.ParentLand, id, imageID).Return(nil)

	w := httptest.NewRecorder()
	h.DeleteImage(w, newRequest(t, http.MethodDelete, "/", nil, map[string]string{"id": id.String(), "imageId": imageID.String()}))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Image deleted successfully", decodeBody(t, w)["message"])
}

func TestListingHandler_UpdateImage_InvalidImageID(t *testing.T) {
	h := NewListingHandler(domain.ParentLand, new(MockListingService), testLogger())

	w := httptest.NewRecorder()
	h.UpdateImage(w, newRequest(t, http.MethodPut, "/", listing.ImageUpdateInput{}, map[string]string{"id": uuid.NewString(), "imageId": "cover"}))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid image ID", decodeBody(t, w)["error"])
}

func TestListingHandler_ReplaceUnits(t *testing.T) {
	svc := new(MockListingService)
	h := NewListingHandler(domain.ParentLand, svc, testLogger())
	id := uuid.New()

	in := listing.ReplaceUnitsInput{Units: []listing.UnitInput{{Size: 500, Unit: "sqm", Price: 3500000}}}
	svc.On("ReplaceUnits", mock.Anything, domain.ParentLand, id, in).
		Return([]domain.ListingUnit{{ID: uuid.New(), ListingID: id, Size: 500, Unit: "sqm", Price: 3500000, Available: true}}, nil)

	w := httptest.NewRecorder()
	h.ReplaceUnits(w, newRequest(t, http.MethodPut, "/", in, map[string]string{"id": id.String()}))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody(t, w)["data"], 1)
}

func TestListingHandler_Units_NotFound(t *testing.T) {
	svc := new(MockListingService)
	h := NewListingHandler(domain.ParentHouse, svc, testLogger())
	id := uuid.New()

	svc.On("Units", mock.Anything, domain.ParentHouse, id).Return(nil, domain.ErrNotFound)

	w := httptest.NewRecorder()
	h.Units(w, newRequest(t, http.MethodGet, "/", nil, map[string]string{"id": id.String()}))

	assert.Equal(t, http.StatusNotFound, w.Code)
}
