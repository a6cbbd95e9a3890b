// Package response writes the JSON envelope shared by every endpoint:
// {"code": 0|<status>, "data": ..., "error": null|<kind>, "message": ...}.
package response

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dtroode/adminauth-server/internal/apierrors"
)

// Envelope is the response body.
type Envelope struct {
	Code    int     `json:"code"`
	Data    any     `json:"data"`
	Error   *string `json:"error"`
	Message string  `json:"message"`
}

// OK writes a 200 success envelope.
func OK(c *gin.Context, data any, message string) {
	Success(c, http.StatusOK, data, message)
}

// Success writes a success envelope with status.
func Success(c *gin.Context, status int, data any, message string) {
	c.JSON(status, Envelope{Code: 0, Data: data, Message: message})
}

// Error aborts the request with the envelope for err. Errors that are not
// *apierrors.APIError are reported as internal errors.
func Error(c *gin.Context, err error) {
	apiErr := apierrors.From(err)
	status := apiErr.HTTPStatus()

	if apiErr.RetryAfter > 0 {
		c.Header("Retry-After", strconv.Itoa(int(math.Ceil(apiErr.RetryAfter.Seconds()))))
	}

	kind := string(apiErr.Kind)
	c.AbortWithStatusJSON(status, Envelope{
		Code:    status,
		Data:    nil,
		Error:   &kind,
		Message: apiErr.Message,
	})
}
