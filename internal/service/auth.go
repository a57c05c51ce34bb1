package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/portalapi/portal-api/internal/crypto"
	"github.com/portalapi/portal-api/internal/model"
	"github.com/portalapi/portal-api/internal/repository"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 6

// StoreProvider yields the live store, connecting first if needed.
type StoreProvider interface {
	EnsureReady(ctx context.Context) (repository.Store, error)
}

// AuthService handles authentication business logic.
type AuthService struct {
	db        StoreProvider
	jwtSecret string
	jwtExpiry time.Duration
}

// NewAuthService creates a new AuthService.
func NewAuthService(db StoreProvider, secret string, expiry time.Duration) *AuthService {
	return &AuthService{
		db:        db,
		jwtSecret: secret,
		jwtExpiry: expiry,
	}
}

// dummyHash is compared against when the email is unknown so both login failures cost the same.
var dummyHash = sync.OnceValue(func() string {
	h, err := crypto.HashPassword("portal-dummy-password")
	if err != nil {
		return ""
	}
	return h
})

// Register creates a new user account and returns an auth token.
func (s *AuthService) Register(ctx context.Context, req model.CreateUserRequest) (model.AuthResponse, error) {
	name := strings.TrimSpace(req.Name)
	email := normalizeEmail(req.Email)
	password := strings.TrimSpace(req.Password)

	if name == "" || email == "" || password == "" {
		return model.AuthResponse{}, ErrFieldsRequired
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return model.AuthResponse{}, ErrPasswordTooShort
	}
	if len(password) > crypto.MaxPasswordBytes {
		return model.AuthResponse{}, ErrPasswordTooLong
	}

	store, err := s.db.EnsureReady(ctx)
	if err != nil {
		return model.AuthResponse{}, err
	}
	users := store.Users()

	if _, err := users.GetByEmail(ctx, email); err == nil {
		return model.AuthResponse{}, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return model.AuthResponse{}, err
	}

	hash, err := crypto.HashPassword(password)
	if err != nil {
		return model.AuthResponse{}, err
	}

	user := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
	}

	if err := users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return model.AuthResponse{}, ErrEmailTaken
		}
		return model.AuthResponse{}, err
	}

	token, err := crypto.GenerateToken(user.ID, s.jwtSecret, s.jwtExpiry)
	if err != nil {
		return model.AuthResponse{}, err
	}

	slog.InfoContext(ctx, "user registered", "user_id", user.ID)

	return model.AuthResponse{
		Success: true,
		Message: "Registration successful",
		Token:   token,
		User:    user.PublicView(),
	}, nil
}

// Login authenticates a user and returns an auth token.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (model.AuthResponse, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return model.AuthResponse{}, ErrCredentialsRequired
	}

	store, err := s.db.EnsureReady(ctx)
	if err != nil {
		return model.AuthResponse{}, err
	}

	user, err := store.Users().GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			_, _ = crypto.VerifyPassword(req.Password, dummyHash())
			return model.AuthResponse{}, ErrInvalidCredentials
		}
		return model.AuthResponse{}, err
	}

	match, err := crypto.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil {
		return model.AuthResponse{}, err
	}
	if !match {
		return model.AuthResponse{}, ErrInvalidCredentials
	}

	token, err := crypto.GenerateToken(user.ID, s.jwtSecret, s.jwtExpiry)
	if err != nil {
		return model.AuthResponse{}, err
	}

	return model.AuthResponse{
		Success: true,
		Token:   token,
		User:    user.PublicView(),
	}, nil
}

// VerifyToken checks a bearer token and returns the user ID it was issued for.
func (s *AuthService) VerifyToken(token string) (string, error) {
	if token == "" {
		return "", ErrInvalidToken
	}
	claims, err := crypto.ValidateToken(token, s.jwtSecret)
	if err != nil {
		return "", ErrInvalidToken
	}
	return claims.UserID, nil
}

// GetProfile returns the public view of the user the token was issued for.
func (s *AuthService) GetProfile(ctx context.Context, token string) (model.UserResponse, error) {
	userID, err := s.VerifyToken(token)
	if err != nil {
		return model.UserResponse{}, err
	}
	return s.GetUser(ctx, userID)
}

// GetUser retrieves a user by ID and returns safe user data.
func (s *AuthService) GetUser(ctx context.Context, userID string) (model.UserResponse, error) {
	store, err := s.db.EnsureReady(ctx)
	if err != nil {
		return model.UserResponse{}, err
	}

	user, err := store.Users().GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.UserResponse{}, ErrUserNotFound
		}
		return model.UserResponse{}, err
	}

	return user.PublicView(), nil
}

// UpdateProfile applies the non-empty fields of req to the token's user.
func (s *AuthService) UpdateProfile(ctx context.Context, token string, req model.UpdateUserRequest) (model.UserResponse, error) {
	userID, err := s.VerifyToken(token)
	if err != nil {
		return model.UserResponse{}, err
	}

	store, err := s.db.EnsureReady(ctx)
	if err != nil {
		return model.UserResponse{}, err
	}
	users := store.Users()

	user, err := users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.UserResponse{}, ErrUserNotFound
		}
		return model.UserResponse{}, err
	}

	name := strings.TrimSpace(req.Name)
	email := normalizeEmail(req.Email)
	if name == "" && email == "" {
		return user.PublicView(), nil
	}
	if name != "" {
		user.Name = name
	}
	if email != "" {
		user.Email = email
	}

	if err := users.Update(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateEmail):
			return model.UserResponse{}, ErrEmailTaken
		case errors.Is(err, repository.ErrUserNotFound):
			return model.UserResponse{}, ErrUserNotFound
		}
		return model.UserResponse{}, err
	}

	slog.InfoContext(ctx, "user profile updated", "user_id", user.ID)

	return user.PublicView(), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
