// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// Role is the privilege level of a user account.
type Role string

const (
	RoleMember Role = "Member"
	RoleAdmin  Role = "Admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleMember || r == RoleAdmin
}

// User is a registered account. Password only ever holds a bcrypt hash.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"not null" json:"-"`
	Avatar    string    `json:"avatar"`
	Role      Role      `gorm:"type:varchar(16);not null;default:Member" json:"role"`
	CreatedAt time.Time `json:"date"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UserSummary is the admin listing projection of a user.
type UserSummary struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"date"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Owner is the public identity joined onto profiles.
type Owner struct {
	ID     uint   `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}
