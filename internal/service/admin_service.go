package service

import (
	"context"

	"devconnect/internal/auth"
	"devconnect/internal/models"
	"devconnect/internal/repository"
	"devconnect/internal/validation"
)

// AdminService manages accounts on behalf of administrators. Callers are
// expected to have passed the admin gate already.
type AdminService struct {
	users    repository.UserRepository
	profiles repository.ProfileRepository
	posts    repository.PostRepository
	hasher   *auth.Hasher
}

type CreateUserInput struct {
	Name     string `json:"name" validate:"notblank" msg:"Name is required"`
	Email    string `json:"email" validate:"required,email" msg:"Please include a valid email"`
	Password string `json:"password" validate:"min=6" msg:"Please enter a password with 6 or more characters"`
	Role     string `json:"role" validate:"omitempty,role"`
}

// Dashboard is the summary shown on GET /admin.
type Dashboard struct {
	Users    int64 `json:"users"`
	Admins   int   `json:"admins"`
	Profiles int64 `json:"profiles"`
	Posts    int64 `json:"posts"`
}

func NewAdminService(
	users repository.UserRepository,
	profiles repository.ProfileRepository,
	posts repository.PostRepository,
	hasher *auth.Hasher,
) *AdminService {
	return &AdminService{
		users:    users,
		profiles: profiles,
		posts:    posts,
		hasher:   hasher,
	}
}

// ListUsers returns every account without password, avatar or version.
func (s *AdminService) ListUsers(ctx context.Context) ([]models.UserSummary, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.UserSummary, 0, len(users))
	for _, u := range users {
		out = append(out, models.UserSummary{
			ID:        u.ID,
			Name:      u.Name,
			Email:     u.Email,
			Role:      u.Role,
			CreatedAt: u.CreatedAt,
			UpdatedAt: u.UpdatedAt,
		})
	}
	return out, nil
}

// CreateUser adds an account. Role defaults to Member.
func (s *AdminService) CreateUser(ctx context.Context, in CreateUserInput) (*models.User, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	role := models.RoleMember
	if in.Role != "" {
		role = models.Role(in.Role)
	}
	return createAccount(ctx, s.users, s.hasher, in.Name, in.Email, in.Password, role)
}

// UpdateUser applies in to any account, including its role.
func (s *AdminService) UpdateUser(ctx context.Context, id uint, in UpdateUserInput) (*models.User, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyUserUpdate(user, in, s.hasher); err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteUser removes an account and its profile. The user's posts stay.
func (s *AdminService) DeleteUser(ctx context.Context, id uint) error {
	return deleteAccount(ctx, s.users, s.profiles, id)
}

func (s *AdminService) Dashboard(ctx context.Context) (*Dashboard, error) {
	var d Dashboard
	var err error
	if d.Users, err = s.users.Count(ctx); err != nil {
		return nil, err
	}
	admins, err := s.users.ListByRole(ctx, models.RoleAdmin)
	if err != nil {
		return nil, err
	}
	d.Admins = len(admins)
	if d.Profiles, err = s.profiles.Count(ctx); err != nil {
		return nil, err
	}
	if d.Posts, err = s.posts.Count(ctx); err != nil {
		return nil, err
	}
	return &d, nil
}
