package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/adminauth-server/internal/apierrors"
	"github.com/dtroode/adminauth-server/internal/logger"
	"github.com/dtroode/adminauth-server/internal/mail"
	"github.com/dtroode/adminauth-server/internal/model"
	"github.com/dtroode/adminauth-server/internal/secret"
)

const codeLength = 6

// CodePolicy controls one-time code issuance.
type CodePolicy struct {
	TTL            time.Duration
	ResendCooldown time.Duration
	// EchoCode returns the plaintext code to the caller. Never set in production.
	EchoCode bool
	// MaxAttempts retires a code after that many wrong guesses. Zero disables the cap.
	MaxAttempts int
}

// Codes issues and verifies single-use email login codes.
type Codes struct {
	store       model.CodeStore
	credentials *Credentials
	hasher      SecretHasher
	mailer      model.MailDispatcher
	policy      CodePolicy
	logger      *logger.Logger
	opts        options
	attempts    *attemptCounter
}

func NewCodes(
	store model.CodeStore,
	credentials *Credentials,
	hasher SecretHasher,
	mailer model.MailDispatcher,
	policy CodePolicy,
	logger *logger.Logger,
	opts ...Option,
) *Codes {
	c := &Codes{
		store:       store,
		credentials: credentials,
		hasher:      hasher,
		mailer:      mailer,
		policy:      policy,
		logger:      logger,
		opts:        options{now: time.Now, rand: rand.Reader},
		attempts:    newAttemptCounter(),
	}
	for _, opt := range opts {
		opt(&c.opts)
	}
	return c
}

// Issue creates a login code for email and mails it. The user record is
// created on first use.
func (c *Codes) Issue(ctx context.Context, rawEmail, purpose string) (model.IssuedCode, error) {
	email, err := NormalizeEmail(rawEmail)
	if err != nil {
		return model.IssuedCode{}, err
	}
	if purpose != model.PurposeLogin {
		return model.IssuedCode{}, apierrors.NewErrUnsupportedPurpose(purpose)
	}

	if _, err := c.credentials.EnsureByEmail(ctx, email); err != nil {
		return model.IssuedCode{}, err
	}

	now := c.opts.now().UTC()

	latest, err := c.store.GetLatestValid(ctx, email, purpose, now)
	switch {
	case err == nil:
		if age := now.Sub(latest.CreatedAt); age < c.policy.ResendCooldown {
			c.logger.Info("Codes service: resend refused during cooldown",
				"email", email)
			return model.IssuedCode{}, apierrors.NewErrCodeResendCooldown(c.policy.ResendCooldown - age)
		}
	case errors.Is(err, model.ErrNotFound):
	default:
		return model.IssuedCode{}, fmt.Errorf("failed to get latest code: %w", err)
	}

	plain, err := secret.NumericCode(c.opts.rand)
	if err != nil {
		return model.IssuedCode{}, err
	}
	hash, err := c.hasher.Hash(plain)
	if err != nil {
		return model.IssuedCode{}, fmt.Errorf("failed to hash code: %w", err)
	}

	record := model.EmailCode{
		ID:        uuid.New(),
		Email:     email,
		CodeHash:  hash,
		Purpose:   purpose,
		ExpiresAt: now.Add(c.policy.TTL),
		CreatedAt: now,
	}
	if err := c.store.Create(ctx, record); err != nil {
		return model.IssuedCode{}, fmt.Errorf("failed to store code: %w", err)
	}

	msg, err := mail.LoginCodeMessage(email, plain, c.policy.TTL)
	if err != nil {
		c.retire(ctx, record.ID)
		return model.IssuedCode{}, apierrors.NewErrInternal(err)
	}

	if err := c.mailer.Send(ctx, msg); err != nil {
		c.logger.Error("Codes service: failed to send code",
			"email", email,
			"error", err.Error())
		c.retire(ctx, record.ID)
		return model.IssuedCode{}, apierrors.NewErrInternal(fmt.Errorf("failed to send code: %w", err))
	}

	c.logger.Info("Codes service: code sent",
		"email", email,
		"code_id", record.ID.String())

	issued := model.IssuedCode{ExpiresIn: c.policy.TTL}
	if c.policy.EchoCode {
		issued.Code = plain
	}
	return issued, nil
}

// retire marks a code as used so it cannot be verified and does not hold
// the resend cooldown.
func (c *Codes) retire(ctx context.Context, id uuid.UUID) {
	if err := c.store.Consume(context.WithoutCancel(ctx), id); err != nil && !errors.Is(err, model.ErrCodeConsumed) {
		c.logger.Warn("Codes service: failed to retire code",
			"code_id", id.String(),
			"error", err.Error())
	}
}

// Verify consumes the latest valid code for email and returns its owner.
// Every rejection is the same error.
func (c *Codes) Verify(ctx context.Context, rawEmail, code string) (model.User, error) {
	email, err := NormalizeEmail(rawEmail)
	if err != nil {
		return model.User{}, err
	}
	if !isNumericCode(code) {
		return model.User{}, apierrors.NewErrInvalidOrExpiredCode()
	}

	now := c.opts.now().UTC()

	record, err := c.store.GetLatestValid(ctx, email, model.PurposeLogin, now)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.User{}, apierrors.NewErrInvalidOrExpiredCode()
		}
		return model.User{}, fmt.Errorf("failed to get latest code: %w", err)
	}

	ok, err := c.hasher.Verify(code, record.CodeHash)
	if err != nil || !ok {
		c.recordFailure(ctx, record, now)
		return model.User{}, apierrors.NewErrInvalidOrExpiredCode()
	}

	c.attempts.forget(record.ID)
	if err := c.store.Consume(ctx, record.ID); err != nil {
		if errors.Is(err, model.ErrCodeConsumed) {
			return model.User{}, apierrors.NewErrInvalidOrExpiredCode()
		}
		return model.User{}, fmt.Errorf("failed to consume code: %w", err)
	}

	user, err := c.credentials.FindByEmail(ctx, email)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

func (c *Codes) recordFailure(ctx context.Context, record model.EmailCode, now time.Time) {
	if c.policy.MaxAttempts <= 0 {
		return
	}
	if c.attempts.fail(record.ID, record.ExpiresAt, now) < c.policy.MaxAttempts {
		return
	}

	c.logger.Warn("Codes service: code retired after too many wrong guesses",
		"email", record.Email,
		"code_id", record.ID.String())
	c.attempts.forget(record.ID)
	c.retire(ctx, record.ID)
}

func isNumericCode(code string) bool {
	if len(code) != codeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}
