package service

import (
	"context"
	"errors"
	"strings"

	"github.com/taskdeck/taskdeck-go/internal/crypto"
	"github.com/taskdeck/taskdeck-go/internal/model"
	"github.com/taskdeck/taskdeck-go/internal/repository"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNameRequired       = errors.New("name is required")
	ErrEmailRequired      = errors.New("a valid email is required")
	ErrPasswordTooShort   = errors.New("password must be at least 6 characters")
	ErrEmailTaken         = errors.New("email already taken")
	ErrUserNotFound       = errors.New("user not found")
)

const minPasswordLength = 6

// AuthService handles account registration, credential verification and
// profile updates.
type AuthService struct {
	repo   *repository.UserRepository
	hasher *crypto.Hasher
	codec  *crypto.TokenCodec
}

// NewAuthService creates a new AuthService.
func NewAuthService(repo *repository.UserRepository, hasher *crypto.Hasher, codec *crypto.TokenCodec) *AuthService {
	return &AuthService{
		repo:   repo,
		hasher: hasher,
		codec:  codec,
	}
}

// Register creates a new account and returns it with a bearer token.
// Emails are stored normalized so the unique index enforces
// case-insensitive uniqueness.
func (s *AuthService) Register(ctx context.Context, req model.CreateUserRequest) (model.AuthResponse, error) {
	if strings.TrimSpace(req.Name) == "" {
		return model.AuthResponse{}, ErrNameRequired
	}
	email := normalizeEmail(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		return model.AuthResponse{}, ErrEmailRequired
	}
	if len(req.Password) < minPasswordLength {
		return model.AuthResponse{}, ErrPasswordTooShort
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return model.AuthResponse{}, err
	}

	user := &model.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: hash,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return model.AuthResponse{}, ErrEmailTaken
		}
		return model.AuthResponse{}, err
	}

	return s.respondWithToken(user)
}

// Login verifies credentials and returns the account with a bearer token.
// An unknown email and a wrong password produce the same error so the
// response cannot be used to enumerate accounts.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (model.AuthResponse, error) {
	user, err := s.repo.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.AuthResponse{}, ErrInvalidCredentials
		}
		return model.AuthResponse{}, err
	}

	match, err := s.hasher.Compare(req.Password, user.PasswordHash)
	if err != nil {
		return model.AuthResponse{}, err
	}
	if !match {
		return model.AuthResponse{}, ErrInvalidCredentials
	}

	return s.respondWithToken(user)
}

// GetUser retrieves an account by ID and returns its API view.
func (s *AuthService) GetUser(ctx context.Context, userID int64) (model.UserResponse, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.UserResponse{}, ErrUserNotFound
		}
		return model.UserResponse{}, err
	}

	return user.View(), nil
}

// UpdateProfile updates an account's name and email and returns the fresh
// view with a reissued token.
func (s *AuthService) UpdateProfile(ctx context.Context, userID int64, req model.UpdateProfileRequest) (model.AuthResponse, error) {
	if strings.TrimSpace(req.Name) == "" {
		return model.AuthResponse{}, ErrNameRequired
	}
	email := normalizeEmail(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		return model.AuthResponse{}, ErrEmailRequired
	}

	err := s.repo.UpdateProfile(ctx, userID, strings.TrimSpace(req.Name), email)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateEmail):
			return model.AuthResponse{}, ErrEmailTaken
		case errors.Is(err, repository.ErrUserNotFound):
			return model.AuthResponse{}, ErrUserNotFound
		default:
			return model.AuthResponse{}, err
		}
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return model.AuthResponse{}, err
	}

	return s.respondWithToken(user)
}

func (s *AuthService) respondWithToken(user *model.User) (model.AuthResponse, error) {
	token, err := s.codec.Issue(user.ID)
	if err != nil {
		return model.AuthResponse{}, err
	}

	return model.AuthResponse{
		Token: token,
		User:  user.View(),
	}, nil
}

// normalizeEmail case-folds and trims an email so lookups and the unique
// index agree on identity.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
