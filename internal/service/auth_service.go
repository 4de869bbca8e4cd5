// Package service holds the business rules behind each route group.
package service

import (
	"context"

	"devconnect/internal/auth"
	"devconnect/internal/featureflags"
	"devconnect/internal/models"
	"devconnect/internal/observability"
	"devconnect/internal/repository"
	"devconnect/internal/validation"
)

const invalidCredentials = "Invalid Credentials"

type AuthService struct {
	users  repository.UserRepository
	codec  *auth.Codec
	hasher *auth.Hasher
	flags  *featureflags.Manager
}

type RegisterInput struct {
	Name     string `json:"name" validate:"notblank" msg:"Name is required"`
	Email    string `json:"email" validate:"required,email" msg:"Please include a valid email"`
	Password string `json:"password" validate:"min=6" msg:"Please enter a password with 6 or more characters"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email" msg:"Please include a valid email"`
	Password string `json:"password" validate:"required" msg:"Password is required"`
}

func NewAuthService(users repository.UserRepository, codec *auth.Codec, hasher *auth.Hasher, flags *featureflags.Manager) *AuthService {
	return &AuthService{
		users:  users,
		codec:  codec,
		hasher: hasher,
		flags:  flags,
	}
}

// Register creates a Member account and returns a session token for it.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (string, error) {
	if s.flags != nil && !s.flags.Enabled(featureflags.Registration, 0) {
		return "", models.NewForbiddenError("Registration is currently disabled")
	}
	if err := validation.Struct(in); err != nil {
		return "", err
	}

	user, err := createAccount(ctx, s.users, s.hasher, in.Name, in.Email, in.Password, models.RoleMember)
	if err != nil {
		return "", err
	}
	return s.issue(user.ID)
}

// Login checks the credentials and returns a fresh session token. Unknown
// email and wrong password produce the same error.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (string, error) {
	if err := validation.Struct(in); err != nil {
		return "", err
	}

	user, err := s.users.GetByEmail(ctx, validation.NormalizeEmail(in.Email))
	if err != nil {
		return "", err
	}
	if user == nil {
		observability.AuthFailures.WithLabelValues("invalid_credentials").Inc()
		return "", models.NewValidationError(invalidCredentials)
	}

	ok, err := s.hasher.Compare(user.Password, in.Password)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	if !ok {
		observability.AuthFailures.WithLabelValues("invalid_credentials").Inc()
		return "", models.NewValidationError(invalidCredentials)
	}
	return s.issue(user.ID)
}

// Me returns the account behind claim.
func (s *AuthService) Me(ctx context.Context, claim auth.SessionClaim) (*models.User, error) {
	return s.users.GetByID(ctx, claim.UserID)
}

func (s *AuthService) issue(userID uint) (string, error) {
	token, err := s.codec.Issue(userID)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	return token, nil
}

// createAccount stores a new user with a hashed password and a gravatar
// avatar. An address already in use is a validation error.
func createAccount(ctx context.Context, users repository.UserRepository, hasher *auth.Hasher, name, email, password string, role models.Role) (*models.User, error) {
	email = validation.NormalizeEmail(email)

	existing, err := users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewValidationError("User already exists")
	}

	hashed, err := hasher.Hash(password)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Name:     name,
		Email:    email,
		Password: hashed,
		Avatar:   auth.GravatarURL(email),
		Role:     role,
	}
	if err := users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
