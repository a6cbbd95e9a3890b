package model

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Role tags.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// UserStore defines persistence operations for users.
//
// Create must rely on the store's uniqueness constraints and return
// ErrDuplicateUsername or ErrDuplicateEmail when they are violated.
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	GetByUsername(ctx context.Context, username string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	Create(ctx context.Context, user User) (User, error)
}

// User represents a stored user with authentication material.
// An empty Email means the user has no address on file.
type User struct {
	ID           uuid.UUID
	Username     string
	Email        string
	PasswordHash string
	Roles        []string
	RealName     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasRole reports whether the user carries the given role tag.
func (u User) HasRole(role string) bool {
	return slices.Contains(u.Roles, role)
}

// Identity returns the token-facing view of the user.
func (u User) Identity() Identity {
	return Identity{
		UserID:   u.ID,
		Username: u.Username,
		Roles:    slices.Clone(u.Roles),
	}
}
