package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jglobalproperties/estate_api/internal/delivery/http/middleware"
	"github.com/jglobalproperties/estate_api/internal/domain"
	"github.com/jglobalproperties/estate_api/internal/usecase/auth"
)

type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) SignUp(ctx context.Context, in auth.SignUpInput) (*auth.Session, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Session), args.Error(1)
}

func (m *MockAuthenticator) SignIn(ctx context.Context, in auth.SignInInput) (*auth.Session, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Session), args.Error(1)
}

func (m *MockAuthenticator) Profile(ctx context.Context, claims *auth.Claims) (*domain.User, error) {
	args := m.Called(ctx, claims)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func testSession() *auth.Session {
	return &auth.Session{
		User: &domain.User{ID: uuid.New(), Email: "admin@example.com", PasswordHash: "secret-hash"},
		Token: &auth.Token{
			AccessToken: "signed.jwt.value",
			TokenType:   "Bearer",
			ExpiresIn:   3600,
			ExpiresAt:   time.Now().Add(time.Hour),
		},
	}
}

func findCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.AccessTokenCookie {
			return c
		}
	}
	require.Fail(t, "access token cookie not set")
	return nil
}

func TestAuthHandler_SignIn_SetsCookie(t *testing.T) {
	svc := new(MockAuthenticator)
	h := NewAuthHandler(svc, true, testLogger())

	in := auth.SignInInput{Email: "admin@example.com", Password: "password1"}
	svc.On("SignIn", mock.Anything, in).Return(testSession(), nil)

	w := httptest.NewRecorder()
	h.SignIn(w, newRequest(t, http.MethodPost, "/api/v1/auth/signin", in, nil))

	assert.Equal(t, http.StatusOK, w.Code)
	cookie := findCookie(t, w)
	assert.Equal(t, "signed.jwt.value", cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)

	assert.NotContains(t, w.Body.String(), "secret-hash")
	assert.NotContains(t, w.Body.String(), "password")
}

func TestAuthHandler_SignIn_BadCredentials(t *testing.T) {
	svc := new(MockAuthenticator)
	h := NewAuthHandler(svc, false, testLogger())

	svc.On("SignIn", mock.Anything, mock.Anything).Return(nil, domain.ErrUnauthorized)

	w := httptest.NewRecorder()
	h.SignIn(w, newRequest(t, http.MethodPost, "/", auth.SignInInput{Email: "a@b.co", Password: "x"}, nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, w.Result().Cookies())
}

func TestAuthHandler_SignUp(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		svc := new(MockAuthenticator)
		h := NewAuthHandler(svc, false, testLogger())
		svc.On("SignUp", mock.Anything, mock.Anything).Return(testSession(), nil)

		w := httptest.NewRecorder()
		h.SignUp(w, newRequest(t, http.MethodPost, "/", auth.SignUpInput{Name: "A", Email: "a@b.co", Password: "password1"}, nil))

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.False(t, findCookie(t, w).Secure)
	})

	t.Run("limit reached", func(t *testing.T) {
		svc := new(MockAuthenticator)
		h := NewAuthHandler(svc, false, testLogger())
		svc.On("SignUp", mock.Anything, mock.Anything).Return(nil, domain.ErrForbidden)

		w := httptest.NewRecorder()
		h.SignUp(w, newRequest(t, http.MethodPost, "/", auth.SignUpInput{Name: "A", Email: "a@b.co", Password: "password1"}, nil))

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestAuthHandler_Logout_ClearsCookie(t *testing.T) {
	h := NewAuthHandler(new(MockAuthenticator), false, testLogger())

	w := httptest.NewRecorder()
	h.Logout(w, newRequest(t, http.MethodPost, "/", nil, nil))

	assert.Equal(t, http.StatusOK, w.Code)
	cookie := findCookie(t, w)
	assert.Empty(t, cookie.Value)
	assert.Less(t, cookie.MaxAge, 0)
}

func TestAuthHandler_Profile(t *testing.T) {
	t.Run("from claims", func(t *testing.T) {
		svc := new(MockAuthenticator)
		h := NewAuthHandler(svc, false, testLogger())

		claims := &auth.Claims{Email: "admin@example.com"}
		svc.On("Profile", mock.Anything, claims).Return(&domain.User{Email: "admin@example.com"}, nil)

		req := newRequest(t, http.MethodGet, "/", nil, nil)
		req = req.WithContext(middleware.WithClaims(req.Context(), claims))

		w := httptest.NewRecorder()
		h.Profile(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("no claims", func(t *testing.T) {
		h := NewAuthHandler(new(MockAuthenticator), false, testLogger())

		w := httptest.NewRecorder()
		h.Profile(w, newRequest(t, http.MethodGet, "/", nil, nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
