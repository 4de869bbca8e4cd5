package service

import (
	"context"
	"strings"

	"devconnect/internal/auth"
	"devconnect/internal/models"
	"devconnect/internal/repository"
	"devconnect/internal/validation"
)

type UserService struct {
	users    repository.UserRepository
	profiles repository.ProfileRepository
	hasher   *auth.Hasher
	policy   *auth.Policy
}

// UpdateUserInput is a partial account update. Nil fields are left unchanged.
type UpdateUserInput struct {
	Name     *string `json:"name" validate:"omitempty,notblank" msg:"Name is required"`
	Email    *string `json:"email" validate:"omitempty,email" msg:"Please include a valid email"`
	Avatar   *string `json:"avatar"`
	Password *string `json:"password" validate:"omitempty,min=6" msg:"Please enter a password with 6 or more characters"`
	Role     *string `json:"role" validate:"omitempty,role"`
}

func NewUserService(users repository.UserRepository, profiles repository.ProfileRepository, hasher *auth.Hasher, policy *auth.Policy) *UserService {
	return &UserService{
		users:    users,
		profiles: profiles,
		hasher:   hasher,
		policy:   policy,
	}
}

// UpdateSelf applies in to the account targetID, which must be the caller's
// own. Changing the role additionally requires the caller to be an admin.
func (s *UserService) UpdateSelf(ctx context.Context, claim auth.SessionClaim, targetID uint, in UpdateUserInput) (*models.User, error) {
	if err := s.policy.Require(ctx, claim, models.RoleMember, auth.Owner(targetID)); err != nil {
		return nil, err
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if in.Role != nil && models.Role(*in.Role) != user.Role {
		if err := s.policy.Require(ctx, claim, models.RoleAdmin, nil); err != nil {
			return nil, err
		}
	}

	if err := applyUserUpdate(user, in, s.hasher); err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteSelf removes the caller's account and profile. Posts are kept.
func (s *UserService) DeleteSelf(ctx context.Context, claim auth.SessionClaim) error {
	if err := s.policy.Require(ctx, claim, models.RoleMember, auth.Owner(claim.UserID)); err != nil {
		return err
	}
	return deleteAccount(ctx, s.users, s.profiles, claim.UserID)
}

// applyUserUpdate copies the supplied fields onto user, hashing a new password.
func applyUserUpdate(user *models.User, in UpdateUserInput, hasher *auth.Hasher) error {
	if in.Name != nil {
		user.Name = strings.TrimSpace(*in.Name)
	}
	if in.Email != nil {
		user.Email = validation.NormalizeEmail(*in.Email)
	}
	if in.Avatar != nil {
		user.Avatar = *in.Avatar
	}
	if in.Role != nil {
		user.Role = models.Role(*in.Role)
	}
	if in.Password != nil {
		hashed, err := hasher.Hash(*in.Password)
		if err != nil {
			return models.NewInternalError(err)
		}
		user.Password = hashed
	}
	return nil
}

// deleteAccount removes the user's profile, if any, and then the user.
func deleteAccount(ctx context.Context, users repository.UserRepository, profiles repository.ProfileRepository, userID uint) error {
	if _, err := users.GetByID(ctx, userID); err != nil {
		return err
	}
	if _, err := profiles.DeleteByUserID(ctx, userID); err != nil {
		return err
	}
	return users.Delete(ctx, userID)
}
