package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/dtroode/adminauth-server/internal/api/http/response"
	"github.com/dtroode/adminauth-server/internal/apierrors"
	"github.com/dtroode/adminauth-server/internal/logger"
	"github.com/dtroode/adminauth-server/internal/model"
)

// RequireRole rejects requests whose identity lacks role. It must run
// after Authenticate.
func RequireRole(role string, contextManager model.ContextManager, logger *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := contextManager.GetIdentityFromContext(c.Request.Context())
		if !ok {
			response.Error(c, apierrors.NewErrMissingAuthorizationToken())
			return
		}

		if !identity.HasRole(role) {
			logger.Info("Role middleware: access denied",
				"user_id", identity.UserID.String(),
				"required_role", role)
			response.Error(c, apierrors.NewErrForbidden())
			return
		}

		c.Next()
	}
}
