package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/dtroode/adminauth-server/internal/apierrors"
	"github.com/dtroode/adminauth-server/internal/logger"
	"github.com/dtroode/adminauth-server/internal/model"
)

// TokenService issues bearer tokens for users and resolves them back
// into identities. It composes the TokenManager.
type TokenService struct {
	manager model.TokenManager
	logger  *logger.Logger
}

func NewTokenService(manager model.TokenManager, logger *logger.Logger) *TokenService {
	return &TokenService{manager: manager, logger: logger}
}

func (s *TokenService) Issue(user model.User) (string, error) {
	token, err := s.manager.GenerateAccessToken(user.Identity())
	if err != nil {
		if errors.Is(err, apierrors.ErrConfig) {
			return "", err
		}
		return "", fmt.Errorf("issue access: %w", err)
	}
	return token, nil
}

// GetIdentity validates token. Configuration errors pass through; every
// other failure is reported as an invalid token.
func (s *TokenService) GetIdentity(_ context.Context, token string) (model.Identity, error) {
	identity, err := s.manager.ParseAccessToken(token)
	if err != nil {
		if errors.Is(err, apierrors.ErrConfig) {
			s.logger.Error("Token service: cannot validate tokens",
				"error", err.Error())
			return model.Identity{}, err
		}
		s.logger.Debug("Token service: token rejected",
			"error", err.Error())
		return model.Identity{}, apierrors.NewErrInvalidAuthorizationToken()
	}
	return identity, nil
}
