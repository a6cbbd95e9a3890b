package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/dtroode/adminauth-server/internal/api/http/response"
	"github.com/dtroode/adminauth-server/internal/apierrors"
	"github.com/dtroode/adminauth-server/internal/logger"
)

// Recovery turns a panic in a handler into a 500 envelope.
func Recovery(logger *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("HTTP handler panicked",
					"method", c.Request.Method,
					"path", c.Request.URL.Path,
					"panic", fmt.Sprint(r))
				response.Error(c, apierrors.NewErrInternal(fmt.Errorf("panic: %v", r)))
			}
		}()

		c.Next()
	}
}
