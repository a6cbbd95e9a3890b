package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/dtroode/adminauth-server/internal/apierrors"
	"github.com/dtroode/adminauth-server/internal/logger"
	"github.com/dtroode/adminauth-server/internal/model"
)

// Auth is the request-facing authentication service.
type Auth struct {
	credentials  *Credentials
	codes        *Codes
	tokenService *TokenService
	logger       *logger.Logger
}

func NewAuth(
	credentials *Credentials,
	codes *Codes,
	tokenService *TokenService,
	logger *logger.Logger,
) *Auth {
	return &Auth{
		credentials:  credentials,
		codes:        codes,
		tokenService: tokenService,
		logger:       logger,
	}
}

// Register creates a password account with the default role set.
// Any roles on reg are ignored.
func (a *Auth) Register(ctx context.Context, reg model.Registration) (model.User, error) {
	a.logger.Debug("Auth service: registering user",
		"username", reg.Username)

	reg.Roles = nil
	return a.credentials.Register(ctx, reg)
}

// CreateUser creates a password account with the roles on reg.
func (a *Auth) CreateUser(ctx context.Context, reg model.Registration) (model.User, error) {
	a.logger.Debug("Auth service: creating user",
		"username", reg.Username,
		"roles", reg.Roles)

	return a.credentials.Register(ctx, reg)
}

func (a *Auth) Login(ctx context.Context, username, password string) (model.Session, error) {
	user, err := a.credentials.Authenticate(ctx, username, password)
	if err != nil {
		if errors.Is(err, apierrors.ErrValidation) {
			a.logger.Info("Auth service: login rejected",
				"username", username)
		}
		return model.Session{}, err
	}

	return a.session(user)
}

func (a *Auth) SendEmailCode(ctx context.Context, email, purpose string) (model.IssuedCode, error) {
	return a.codes.Issue(ctx, email, purpose)
}

func (a *Auth) LoginWithEmailCode(ctx context.Context, email, code string) (model.Session, error) {
	user, err := a.codes.Verify(ctx, email, code)
	if err != nil {
		return model.Session{}, err
	}

	return a.session(user)
}

// Profile returns the user behind an authenticated identity.
func (a *Auth) Profile(ctx context.Context, userID uuid.UUID) (model.User, error) {
	user, err := a.credentials.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.User{}, apierrors.NewErrInvalidAuthorizationToken()
		}
		return model.User{}, fmt.Errorf("failed to get user by id: %w", err)
	}
	return user, nil
}

func (a *Auth) session(user model.User) (model.Session, error) {
	token, err := a.tokenService.Issue(user)
	if err != nil {
		a.logger.Error("Auth service: failed to issue token",
			"user_id", user.ID.String(),
			"error", err.Error())
		return model.Session{}, err
	}

	a.logger.Info("Auth service: user logged in",
		"user_id", user.ID.String())

	return model.Session{Token: token, User: user}, nil
}
