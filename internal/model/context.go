package model

import (
	"context"
	"slices"

	"github.com/google/uuid"
)

// Identity is the authenticated principal attached to a request.
type Identity struct {
	UserID   uuid.UUID
	Username string
	Roles    []string
}

// HasRole reports whether the identity carries the given role tag.
func (i Identity) HasRole(role string) bool {
	return slices.Contains(i.Roles, role)
}

type ContextManager interface {
	SetIdentityToContext(ctx context.Context, identity Identity) context.Context
	GetIdentityFromContext(ctx context.Context) (Identity, bool)
}
