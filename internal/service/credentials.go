package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/adminauth-server/internal/apierrors"
	"github.com/dtroode/adminauth-server/internal/logger"
	"github.com/dtroode/adminauth-server/internal/model"
	"github.com/dtroode/adminauth-server/internal/secret"
)

// SecretHasher hashes and verifies passwords and one-time codes.
type SecretHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, encoded string) (bool, error)
}

// Credentials owns user identity records and password verification.
type Credentials struct {
	users  model.UserStore
	hasher SecretHasher
	logger *logger.Logger
	opts   options

	dummyOnce sync.Once
	dummyHash string
}

func NewCredentials(users model.UserStore, hasher SecretHasher, logger *logger.Logger, opts ...Option) *Credentials {
	c := &Credentials{
		users:  users,
		hasher: hasher,
		logger: logger,
		opts:   options{now: time.Now, rand: rand.Reader},
	}
	for _, opt := range opts {
		opt(&c.opts)
	}
	return c
}

// Register validates reg, hashes the password and stores a new user.
// Uniqueness is enforced by the store; the lookups before insert only
// give an early answer.
func (c *Credentials) Register(ctx context.Context, reg model.Registration) (model.User, error) {
	if err := validateUsername(reg.Username); err != nil {
		return model.User{}, err
	}
	if err := validatePassword(reg.Password); err != nil {
		return model.User{}, err
	}

	var email string
	if strings.TrimSpace(reg.Email) != "" {
		normalized, err := NormalizeEmail(reg.Email)
		if err != nil {
			return model.User{}, err
		}
		email = normalized
	}

	realName, err := normalizeRealName(reg.RealName)
	if err != nil {
		return model.User{}, err
	}

	roles, err := normalizeRoles(reg.Roles)
	if err != nil {
		return model.User{}, err
	}

	if _, err := c.users.GetByUsername(ctx, reg.Username); err == nil {
		return model.User{}, apierrors.NewErrUsernameTaken(reg.Username)
	} else if !errors.Is(err, model.ErrNotFound) {
		return model.User{}, fmt.Errorf("failed to get user by username: %w", err)
	}

	if email != "" {
		if _, err := c.users.GetByEmail(ctx, email); err == nil {
			return model.User{}, apierrors.NewErrEmailTaken()
		} else if !errors.Is(err, model.ErrNotFound) {
			return model.User{}, fmt.Errorf("failed to get user by email: %w", err)
		}
	}

	hash, err := c.hasher.Hash(reg.Password)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := c.create(ctx, reg.Username, email, hash, realName, roles)
	if err != nil {
		return model.User{}, c.mapDuplicate(err, reg.Username)
	}

	c.logger.Info("Credentials service: user registered",
		"user_id", user.ID.String(),
		"username", user.Username)

	return user, nil
}

// FindByUsername looks a user up by exact username.
func (c *Credentials) FindByUsername(ctx context.Context, username string) (model.User, error) {
	return c.users.GetByUsername(ctx, username)
}

// FindByEmail looks a user up by email, matched after lowercasing.
func (c *Credentials) FindByEmail(ctx context.Context, email string) (model.User, error) {
	return c.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
}

// FindByID looks a user up by id.
func (c *Credentials) FindByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	return c.users.GetByID(ctx, id)
}

// VerifyPassword reports whether candidate matches the user's stored hash.
func (c *Credentials) VerifyPassword(user model.User, candidate string) bool {
	ok, err := c.hasher.Verify(candidate, user.PasswordHash)
	if err != nil {
		c.logger.Warn("Credentials service: stored password hash is unreadable",
			"user_id", user.ID.String(),
			"error", err.Error())
		return false
	}
	return ok
}

// Authenticate resolves username (an email address is matched against
// emails first) and checks password. Every failure is the same error, and an
// unknown user still pays for one hash verification.
func (c *Credentials) Authenticate(ctx context.Context, username, password string) (model.User, error) {
	user, err := c.lookupLogin(ctx, username)
	if err != nil {
		if !errors.Is(err, model.ErrNotFound) {
			return model.User{}, fmt.Errorf("failed to get user: %w", err)
		}
		c.burnVerification(password)
		return model.User{}, apierrors.NewErrInvalidCredentials()
	}

	if !c.VerifyPassword(user, password) {
		return model.User{}, apierrors.NewErrInvalidCredentials()
	}

	return user, nil
}

// lookupLogin resolves an address by email before username, so a username
// shaped like someone's address never shadows the address owner.
func (c *Credentials) lookupLogin(ctx context.Context, identifier string) (model.User, error) {
	email, err := NormalizeEmail(identifier)
	if err != nil {
		return c.users.GetByUsername(ctx, identifier)
	}

	user, err := c.users.GetByEmail(ctx, email)
	if err == nil || !errors.Is(err, model.ErrNotFound) {
		return user, err
	}
	return c.users.GetByUsername(ctx, identifier)
}

func (c *Credentials) burnVerification(password string) {
	c.dummyOnce.Do(func() {
		hash, err := c.hasher.Hash("no-such-user")
		if err == nil {
			c.dummyHash = hash
		}
	})
	if c.dummyHash != "" {
		_, _ = c.hasher.Verify(password, c.dummyHash)
	}
}

// EnsureByEmail returns the user owning email, creating one with an
// unusable random password when none exists. The new username is the
// address itself, suffixed when that name is already taken.
func (c *Credentials) EnsureByEmail(ctx context.Context, email string) (model.User, error) {
	user, err := c.users.GetByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return model.User{}, fmt.Errorf("failed to get user by email: %w", err)
	}

	placeholder, err := secret.RandomString(c.opts.rand, 32)
	if err != nil {
		return model.User{}, err
	}
	hash, err := c.hasher.Hash(placeholder)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to hash placeholder password: %w", err)
	}

	username := email
	for attempt := 0; attempt < 3; attempt++ {
		user, err = c.create(ctx, username, email, hash, "", []string{model.RoleUser})
		switch {
		case err == nil:
			c.logger.Info("Credentials service: user created from email",
				"user_id", user.ID.String())
			return user, nil
		case errors.Is(err, model.ErrDuplicateEmail):
			// Lost a race with a concurrent request for the same address.
			return c.users.GetByEmail(ctx, email)
		case errors.Is(err, model.ErrDuplicateUsername):
			suffix, serr := secret.RandomString(c.opts.rand, 3)
			if serr != nil {
				return model.User{}, serr
			}
			username = email + "-" + suffix
		default:
			return model.User{}, err
		}
	}

	return model.User{}, fmt.Errorf("failed to pick a free username for %s", email)
}

func (c *Credentials) create(ctx context.Context, username, email, hash, realName string, roles []string) (model.User, error) {
	now := c.opts.now().UTC()
	return c.users.Create(ctx, model.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Roles:        roles,
		RealName:     realName,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

func (c *Credentials) mapDuplicate(err error, username string) error {
	switch {
	case errors.Is(err, model.ErrDuplicateUsername):
		return apierrors.NewErrUsernameTaken(username)
	case errors.Is(err, model.ErrDuplicateEmail):
		return apierrors.NewErrEmailTaken()
	default:
		c.logger.Error("Credentials service: failed to create user",
			"username", username,
			"error", err.Error())
		return fmt.Errorf("failed to create user: %w", err)
	}
}
