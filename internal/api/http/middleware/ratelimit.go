package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/dtroode/adminauth-server/internal/api/http/response"
	"github.com/dtroode/adminauth-server/internal/apierrors"
	"github.com/dtroode/adminauth-server/internal/logger"
	"github.com/dtroode/adminauth-server/internal/model"
)

// RateLimit limits requests per client IP and route.
type RateLimit struct {
	limiter model.Limiter
	logger  *logger.Logger
}

// NewRateLimit creates a new RateLimit middleware.
func NewRateLimit(limiter model.Limiter, logger *logger.Logger) *RateLimit {
	return &RateLimit{limiter: limiter, logger: logger}
}

// Handle returns a handler counting hits under route. Limiter failures
// let the request through.
func (m *RateLimit) Handle(route string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := route + ":" + c.ClientIP()

		allowed, retryAfter, err := m.limiter.Allow(c.Request.Context(), key)
		if err != nil {
			m.logger.Warn("Rate limit middleware: limiter unavailable",
				"key", key,
				"error", err.Error())
			c.Next()
			return
		}

		if !allowed {
			m.logger.Info("Rate limit middleware: request limited",
				"key", key,
				"retry_after", retryAfter.String())
			response.Error(c, apierrors.NewErrTooManyRequests(retryAfter))
			return
		}

		c.Next()
	}
}
