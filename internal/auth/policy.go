package auth

import (
	"context"
	"fmt"

	"devconnect/internal/models"
)

// Reason explains a denied decision.
type Reason string

const (
	ReasonNone         Reason = ""
	ReasonForbidden    Reason = "Forbidden"
	ReasonUnauthorized Reason = "Unauthorized"
)

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed bool
	Reason  Reason
}

// Allow is the permitting decision.
var Allow = Decision{Allowed: true}

// Deny returns a refusing decision with the given reason.
func Deny(reason Reason) Decision {
	return Decision{Reason: reason}
}

// RoleLookup resolves the stored role of a user.
type RoleLookup interface {
	RoleOf(ctx context.Context, userID uint) (models.Role, error)
}

// RoleLookupFunc adapts a function to RoleLookup.
type RoleLookupFunc func(ctx context.Context, userID uint) (models.Role, error)

// RoleOf calls f.
func (f RoleLookupFunc) RoleOf(ctx context.Context, userID uint) (models.Role, error) {
	return f(ctx, userID)
}

// Policy is the single authorization decision point for every mutation.
type Policy struct {
	roles  RoleLookup
	denied func(Reason)
}

// NewPolicy builds a Policy. onDeny, if set, is called for every denial.
func NewPolicy(roles RoleLookup, onDeny func(Reason)) *Policy {
	return &Policy{roles: roles, denied: onDeny}
}

// Owner is a convenience for passing a resource owner id.
func Owner(id uint) *uint {
	return &id
}

// Authorize evaluates, in order: the admin role requirement, the
// self-ownership requirement, then plain authentication.
func (p *Policy) Authorize(ctx context.Context, claim SessionClaim, required models.Role, ownerID *uint) (Decision, error) {
	if required == models.RoleAdmin {
		if p.roles == nil {
			return Decision{}, fmt.Errorf("authorize: no role lookup configured")
		}
		role, err := p.roles.RoleOf(ctx, claim.UserID)
		if models.HasCode(err, models.CodeNotFound) {
			return p.deny(ReasonForbidden), nil
		}
		if err != nil {
			return Decision{}, fmt.Errorf("authorize: lookup role of user %d: %w", claim.UserID, err)
		}
		if role != models.RoleAdmin {
			return p.deny(ReasonForbidden), nil
		}
		return Allow, nil
	}

	if ownerID != nil {
		if claim.UserID == 0 || claim.UserID != *ownerID {
			return p.deny(ReasonUnauthorized), nil
		}
		return Allow, nil
	}

	return Allow, nil
}

// Require is Authorize with denials turned into AppErrors.
func (p *Policy) Require(ctx context.Context, claim SessionClaim, required models.Role, ownerID *uint) error {
	d, err := p.Authorize(ctx, claim, required, ownerID)
	if err != nil {
		return models.NewInternalError(err)
	}
	if d.Allowed {
		return nil
	}
	if d.Reason == ReasonForbidden {
		return models.NewForbiddenError("Admin access required")
	}
	return models.NewUnauthorizedError("User not authorized")
}

func (p *Policy) deny(reason Reason) Decision {
	if p.denied != nil {
		p.denied(reason)
	}
	return Deny(reason)
}
