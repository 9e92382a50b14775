// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"

	"github.com/bookhive/bookhive/internal/auth"
	"github.com/bookhive/bookhive/internal/metrics"
	"github.com/bookhive/bookhive/internal/model"
	"github.com/bookhive/bookhive/internal/repository"
)

// User service errors.
var (
	ErrMissingFields    = errors.New("all fields are required")
	ErrUsernameTooShort = errors.New("username must be at least 3 characters")
	ErrPasswordTooShort = errors.New("password must be at least 6 characters")
	ErrEmailTaken       = errors.New("email already exists")
	ErrUsernameTaken    = errors.New("username already exists")
	// ErrInvalidCredentials is the single login failure: callers cannot
	// tell an unknown email from a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Minimum lengths are counted in runes, not bytes, so multibyte
// usernames are measured the way users perceive them.
const (
	minUsernameLen = 3
	minPasswordLen = 6
)

// UserStore is the credential store the user service depends on.
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

// UserService handles registration and login.
type UserService struct {
	store   UserStore
	tokens  *auth.TokenService
	metrics metrics.Recorder
}

// NewUserService creates a new UserService.
func NewUserService(store UserStore, tokens *auth.TokenService, recorder metrics.Recorder) *UserService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &UserService{
		store:   store,
		tokens:  tokens,
		metrics: recorder,
	}
}

// AuthResult is returned by Register and Login: a session token plus the
// public fields of the account. The password hash never leaves the service.
type AuthResult struct {
	Token string
	User  model.PublicUser
}

// Register creates a new account and issues a session token.
// The password is hashed exactly once, before persistence. Duplicate
// username or email surfaces as ErrUsernameTaken / ErrEmailTaken.
func (s *UserService) Register(ctx context.Context, username, email, password string) (*AuthResult, error) {
	if username == "" || email == "" || password == "" {
		return nil, ErrMissingFields
	}
	if utf8.RuneCountInString(username) < minUsernameLen {
		return nil, ErrUsernameTooShort
	}
	if utf8.RuneCountInString(password) < minPasswordLen {
		return nil, ErrPasswordTooShort
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &model.User{
		ID:           ulid.Make().String(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		ProfileImage: model.DefaultProfileImage(username),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrEmailExists):
			return nil, ErrEmailTaken
		case errors.Is(err, repository.ErrUsernameExists):
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	s.metrics.IncUserRegistered()

	return &AuthResult{Token: token, User: user.Public()}, nil
}

// Login verifies credentials and issues a session token. Every credential
// failure collapses into ErrInvalidCredentials.
func (s *UserService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	if email == "" || password == "" {
		return nil, ErrMissingFields
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.metrics.IncLoginFailed()
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	match, err := auth.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !match {
		s.metrics.IncLoginFailed()
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	s.metrics.IncLoginSucceeded()

	return &AuthResult{Token: token, User: user.Public()}, nil
}
