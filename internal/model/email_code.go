package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// PurposeLogin is the only supported one-time code purpose.
const PurposeLogin = "login"

// CodeStore defines persistence operations for one-time email codes.
type CodeStore interface {
	Create(ctx context.Context, code EmailCode) error
	// GetLatestValid returns the most recently created unused code for
	// (email, purpose) that is still unexpired at now.
	GetLatestValid(ctx context.Context, email, purpose string, now time.Time) (EmailCode, error)
	// Consume flips used from false to true. It returns ErrCodeConsumed
	// when the code was already used.
	Consume(ctx context.Context, id uuid.UUID) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// EmailCode is a hashed one-time code sent to an email address.
type EmailCode struct {
	ID        uuid.UUID
	Email     string
	CodeHash  string
	Purpose   string
	ExpiresAt time.Time
	Used      bool
	CreatedAt time.Time
}

// IsValid reports whether the code can still be verified at now.
func (c EmailCode) IsValid(now time.Time) bool {
	return !c.Used && now.Before(c.ExpiresAt)
}
