// Package auth handles administrator accounts and access tokens
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/jglobalproperties/estate_api/internal/config"
	"github.com/jglobalproperties/estate_api/internal/domain"
	"github.com/jglobalproperties/estate_api/internal/pkg/logger"
	"github.com/jglobalproperties/estate_api/internal/pkg/validator"
)

// BcryptCost is the work factor of stored password hashes
const BcryptCost = 12

// SignUpInput holds the fields of a new administrator
type SignUpInput struct {
	Name     string `json:"name" validate:"required,min=1,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// SignInInput holds administrator credentials
type SignInInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Session is a signed-in user with its token
type Session struct {
	User  *domain.User `json:"user"`
	Token *Token       `json:"token"`
}

// Service handles sign-up, sign-in and token validation
type Service struct {
	users    domain.UserRepository
	secret   []byte
	ttl      time.Duration
	maxUsers int
	cost     int
	logger   *logger.Logger
	now      func() time.Time
}

// NewService creates a new auth service
func NewService(users domain.UserRepository, cfg config.AuthConfig, log *logger.Logger) *Service {
	return &Service{
		users:    users,
		secret:   []byte(cfg.JWTSecret),
		ttl:      cfg.TokenTTL,
		maxUsers: cfg.MaxUsers,
		cost:     BcryptCost,
		logger:   log.Component("auth"),
		now:      time.Now,
	}
}

// SignUp creates an administrator while fewer than the configured maximum exist
func (s *Service) SignUp(ctx context.Context, in SignUpInput) (*Session, error) {
	if err := validator.Struct(in); err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))

	count, err := s.users.Count(ctx)
	if err != nil {
		s.logger.Error("Failed to count users", err)
		return nil, err
	}
	if s.maxUsers > 0 && count >= s.maxUsers {
		s.logger.Warnf("Sign-up refused, %d of %d accounts exist", count, s.maxUsers)
		return nil, fmt.Errorf("%w: maximum number of accounts reached", domain.ErrForbidden)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		s.logger.Error("Failed to hash password", err)
		return nil, err
	}

	user := &domain.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, fmt.Errorf("email %w", domain.ErrAlreadyExists)
		}
		s.logger.Error("Failed to create user", err)
		return nil, err
	}

	token, err := signToken(user, s.secret, s.ttl, s.now())
	if err != nil {
		s.logger.Error("Failed to sign token", err)
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"user_id": user.ID,
	}).Info("User signed up")

	return &Session{User: user, Token: token}, nil
}

// SignIn verifies credentials and issues a token
func (s *Service) SignIn(ctx context.Context, in SignInInput) (*Session, error) {
	if err := validator.Struct(in); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(in.Email)))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Debugf("Sign-in for unknown email")
			return nil, fmt.Errorf("%w: invalid credentials", domain.ErrUnauthorized)
		}
		s.logger.Error("Failed to load user", err)
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		s.logger.Debugf("Wrong password for user %s", user.ID)
		return nil, fmt.Errorf("%w: invalid credentials", domain.ErrUnauthorized)
	}

	token, err := signToken(user, s.secret, s.ttl, s.now())
	if err != nil {
		s.logger.Error("Failed to sign token", err)
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"user_id": user.ID,
	}).Info("User signed in")

	return &Session{User: user, Token: token}, nil
}

// ValidateToken checks a raw token and returns its claims
func (s *Service) ValidateToken(raw string) (*Claims, error) {
	return parseToken(raw, s.secret)
}

// Profile returns the user a token was issued to
func (s *Service) Profile(ctx context.Context, claims *Claims) (*domain.User, error) {
	id, err := claims.UserID()
	if err != nil {
		return nil, fmt.Errorf("%w: invalid subject", domain.ErrUnauthorized)
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: account no longer exists", domain.ErrUnauthorized)
		}
		s.logger.Error("Failed to load user", err)
		return nil, err
	}
	return user, nil
}
