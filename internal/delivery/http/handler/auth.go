package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/jglobalproperties/estate_api/internal/delivery/http/middleware"
	"github.com/jglobalproperties/estate_api/internal/delivery/http/request"
	"github.com/jglobalproperties/estate_api/internal/delivery/http/response"
	"github.com/jglobalproperties/estate_api/internal/domain"
	"github.com/jglobalproperties/estate_api/internal/pkg/logger"
	"github.com/jglobalproperties/estate_api/internal/usecase/auth"
)

// Authenticator is the auth use case consumed by AuthHandler
type Authenticator interface {
	SignUp(ctx context.Context, in auth.SignUpInput) (*auth.Session, error)
	SignIn(ctx context.Context, in auth.SignInInput) (*auth.Session, error)
	Profile(ctx context.Context, claims *auth.Claims) (*domain.User, error)
}

// AuthHandler handles administrator sign-up, sign-in and session endpoints
type AuthHandler struct {
	service      Authenticator
	secureCookie bool
	logger       *logger.Logger
}

// NewAuthHandler creates a new auth handler. secureCookie marks the session cookie HTTPS-only.
func NewAuthHandler(service Authenticator, secureCookie bool, log *logger.Logger) *AuthHandler {
	return &AuthHandler{
		service:      service,
		secureCookie: secureCookie,
		logger:       log,
	}
}

// SignUp handles POST /api/v1/auth/signup
// @Summary Create an administrator account
// @Description Only allowed while fewer than the configured number of accounts exist
// @Tags Auth
// @Accept json
// @Produce json
// @Param account body auth.SignUpInput true "Account details"
// @Success 201 {object} map[string]interface{} "User and token"
// @Failure 403 {object} map[string]string "Account limit reached"
// @Failure 409 {object} map[string]string "Email already registered"
// @Router /auth/signup [post]
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var in auth.SignUpInput
	if err := request.DecodeJSON(r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	session, err := h.service.SignUp(r.Context(), in)
	if err != nil {
		response.DomainError(w, h.logger, err)
		return
	}

	h.setCookie(w, session.Token.AccessToken, session.Token.ExpiresAt)
	response.Created(w, session)
}

// SignIn handles POST /api/v1/auth/signin
// @Summary Sign in
// @Description Returns a bearer token and sets it as an http-only cookie
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body auth.SignInInput true "Credentials"
// @Success 200 {object} map[string]interface{} "User and token"
// @Failure 401 {object} map[string]string "Invalid credentials"
// @Router /auth/signin [post]
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var in auth.SignInInput
	if err := request.DecodeJSON(r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	session, err := h.service.SignIn(r.Context(), in)
	if err != nil {
		response.DomainError(w, h.logger, err)
		return
	}

	h.setCookie(w, session.Token.AccessToken, session.Token.ExpiresAt)
	response.Success(w, session)
}

// Logout handles POST /api/v1/auth/logout
// @Summary Sign out
// @Description Clears the session cookie
// @Tags Auth
// @Produce json
// @Success 200 {object} map[string]interface{} "Signed out"
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	response.Message(w, "Signed out")
}

// Profile handles GET /api/v1/auth/profile
// @Summary Current administrator
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "User"
// @Failure 401 {object} map[string]string "Not signed in"
// @Router /auth/profile [get]
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	user, err := h.service.Profile(r.Context(), claims)
	if err != nil {
		response.DomainError(w, h.logger, err)
		return
	}

	response.Success(w, user)
}

func (h *AuthHandler) setCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}
