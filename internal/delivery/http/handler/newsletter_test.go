package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/jglobalproperties/estate_api/internal/domain"
	"github.com/jglobalproperties/estate_api/internal/usecase/newsletter"
)

type MockNewsletterService struct {
	mock.Mock
}

func (m *MockNewsletterService) Subscribe(ctx context.Context, in newsletter.SubscribeInput) (bool, error) {
	args := m.Called(ctx, in)
	return args.Bool(0), args.Error(1)
}

func (m *MockNewsletterService) Unsubscribe(ctx context.Context, in newsletter.UnsubscribeInput) (bool, error) {
	args := m.Called(ctx, in)
	return args.Bool(0), args.Error(1)
}

func (m *MockNewsletterService) Subscribers(ctx context.Context, limit, offset int) ([]*domain.Subscriber, int, *newsletter.Stats, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, nil, args.Error(3)
	}
	return args.Get(0).([]*domain.Subscriber), args.Int(1), args.Get(2).(*newsletter.Stats), args.Error(3)
}

func (m *MockNewsletterService) ExportCSV(ctx context.Context, w io.Writer) (int, error) {
	args := m.Called(ctx, w)
	if content := args.String(2); content != "" {
		io.WriteString(w, content)
	}
	return args.Int(0), args.Error(1)
}

func TestNewsletterHandler_Subscribe_RecordsClient(t *testing.T) {
	svc := new(MockNewsletterService)
	h := NewNewsletterHandler(svc, testLogger())

	svc.On("Subscribe", mock.Anything, newsletter.SubscribeInput{
		Email:     "reader@example.com",
		Source:    "footer",
		IPAddress: "203.0.113.7",
		UserAgent: "test-agent",
	}).Return(false, nil)

	req := newRequest(t, http.MethodPost, "/", map[string]string{"email": "reader@example.com", "source": "footer"}, nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	req.Header.Set("User-Agent", "test-agent")

	w := httptest.NewRecorder()
	h.Subscribe(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	svc.AssertExpectations(t)
}

func TestNewsletterHandler_Subscribe_Outcomes(t *testing.T) {
	tests := []struct {
		name        string
		reactivated bool
		err         error
		wantStatus  int
	}{
		{"reactivated", true, nil, http.StatusOK},
		{"already active", false, domain.ErrAlreadyExists, http.StatusConflict},
		{"invalid email", false, domain.ErrInvalidInput, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockNewsletterService)
			h := NewNewsletterHandler(svc, testLogger())
			svc.On("Subscribe", mock.Anything, mock.Anything).Return(tt.reactivated, tt.err)

			w := httptest.NewRecorder()
			h.Subscribe(w, newRequest(t, http.MethodPost, "/", map[string]string{"email": "a@b.co"}, nil))

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestNewsletterHandler_Unsubscribe(t *testing.T) {
	tests := []struct {
		name       string
		changed    bool
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"deactivated", true, nil, http.StatusOK, "Successfully unsubscribed from the newsletter"},
		{"already inactive", false, nil, http.StatusOK, "Email is already unsubscribed"},
		{"unknown", false, domain.ErrNotFound, http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockNewsletterService)
			h := NewNewsletterHandler(svc, testLogger())
			svc.On("Unsubscribe", mock.Anything, newsletter.UnsubscribeInput{Email: "a@b.co"}).Return(tt.changed, tt.err)

			w := httptest.NewRecorder()
			h.Unsubscribe(w, newRequest(t, http.MethodPost, "/", map[string]string{"email": "a@b.co"}, nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, decodeBody(t, w)["message"])
			}
		})
	}
}

func TestNewsletterHandler_Subscribers(t *testing.T) {
	svc := new(MockNewsletterService)
	h := NewNewsletterHandler(svc, testLogger())

	svc.On("Subscribers", mock.Anything, 50, 0).
		Return([]*domain.Subscriber{{Email: "a@b.co", IsActive: true}}, 1, &newsletter.Stats{Active: 1, Inactive: 2, Total: 3}, nil)

	w := httptest.NewRecorder()
	h.Subscribers(w, newRequest(t, http.MethodGet, "/", nil, nil))

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	stats := body["stats"].(map[string]any)
	assert.Equal(t, float64(2), stats["inactive"])
	assert.Equal(t, float64(1), body["pagination"].(map[string]any)["total"])
}

func TestNewsletterHandler_Export(t *testing.T) {
	svc := new(MockNewsletterService)
	h := NewNewsletterHandler(svc, testLogger())
	h.now = func() time.Time { return time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC) }

	csv := "Email,Name,Subscribed At,Source\na@b.co,,2024-03-01T00:00:00Z,homepage_modal\n"
	svc.On("ExportCSV", mock.Anything, mock.Anything).Return(1, nil, csv)

	w := httptest.NewRecorder()
	h.Export(w, newRequest(t, http.MethodGet, "/", nil, nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="newsletter-subscribers-2024-03-09.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, csv, w.Body.String())
}

func TestNewsletterHandler_Export_Failure(t *testing.T) {
	svc := new(MockNewsletterService)
	h := NewNewsletterHandler(svc, testLogger())

	svc.On("ExportCSV", mock.Anything, mock.Anything).Return(0, errors.New("db down"), "")

	w := httptest.NewRecorder()
	h.Export(w, newRequest(t, http.MethodGet, "/", nil, nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Empty(t, w.Header().Get("Content-Disposition"))
}
