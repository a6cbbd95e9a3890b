package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dtroode/adminauth-server/internal/api/http/response"
	"github.com/dtroode/adminauth-server/internal/apierrors"
	"github.com/dtroode/adminauth-server/internal/logger"
	"github.com/dtroode/adminauth-server/internal/model"
)

// TokenService resolves an identity from a bearer token.
type TokenService interface {
	GetIdentity(ctx context.Context, token string) (model.Identity, error)
}

// Authenticate validates bearer tokens and injects the identity into the
// request context.
type Authenticate struct {
	tokenService   TokenService
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewAuthenticate creates a new Authenticate middleware instance.
func NewAuthenticate(tokenService TokenService, contextManager model.ContextManager, logger *logger.Logger) *Authenticate {
	return &Authenticate{tokenService: tokenService, contextManager: contextManager, logger: logger}
}

// Handle accepts "Authorization: Bearer <token>" as well as a bare token.
func (m *Authenticate) Handle(c *gin.Context) {
	tokenString := bearerToken(c.GetHeader("Authorization"))
	if tokenString == "" {
		response.Error(c, apierrors.NewErrMissingAuthorizationToken())
		return
	}

	ctx := c.Request.Context()
	identity, err := m.tokenService.GetIdentity(ctx, tokenString)
	if err != nil {
		m.logger.Debug("Authenticate middleware: token rejected",
			"path", c.Request.URL.Path,
			"error", err.Error())
		response.Error(c, err)
		return
	}

	c.Request = c.Request.WithContext(m.contextManager.SetIdentityToContext(ctx, identity))
	c.Next()
}

const bearerPrefix = "bearer "

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	switch {
	case strings.EqualFold(header, strings.TrimSpace(bearerPrefix)):
		return ""
	case len(header) >= len(bearerPrefix) && strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix):
		return strings.TrimSpace(header[len(bearerPrefix):])
	default:
		return header
	}
}
