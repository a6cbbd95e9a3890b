// Package apierrors defines the errors that cross the request boundary.
//
// Every failure a client can observe is an *APIError. Anything else that
// reaches the boundary is reported as an internal error.
package apierrors

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Kind classifies an APIError.
type Kind string

const (
	KindValidation    Kind = "validation_error"
	KindDuplicate     Kind = "duplicate_error"
	KindAuth          Kind = "auth_error"
	KindRateLimit     Kind = "rate_limit_error"
	KindAuthorization Kind = "authorization_error"
	KindConfig        Kind = "config_error"
	KindNotFound      Kind = "not_found_error"
	KindInternal      Kind = "internal_error"
)

var statusByKind = map[Kind]int{
	KindValidation:    http.StatusBadRequest,
	KindDuplicate:     http.StatusBadRequest,
	KindAuth:          http.StatusUnauthorized,
	KindRateLimit:     http.StatusTooManyRequests,
	KindAuthorization: http.StatusForbidden,
	KindConfig:        http.StatusInternalServerError,
	KindNotFound:      http.StatusNotFound,
	KindInternal:      http.StatusInternalServerError,
}

// Sentinels for errors.Is matching by kind.
var (
	ErrValidation    = &APIError{Kind: KindValidation}
	ErrDuplicate     = &APIError{Kind: KindDuplicate}
	ErrAuth          = &APIError{Kind: KindAuth}
	ErrRateLimit     = &APIError{Kind: KindRateLimit}
	ErrAuthorization = &APIError{Kind: KindAuthorization}
	ErrConfig        = &APIError{Kind: KindConfig}
	ErrNotFound      = &APIError{Kind: KindNotFound}
	ErrInternal      = &APIError{Kind: KindInternal}
)

// APIError is a classified, client-safe error.
type APIError struct {
	Kind    Kind
	Message string
	// RetryAfter is set for rate limit errors.
	RetryAfter time.Duration
	// Err is the underlying cause. It is never shown to clients.
	Err error
}

func newError(kind Kind, message string) *APIError {
	return &APIError{Kind: kind, Message: message}
}

// Error implements error.
func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *APIError) Unwrap() error {
	return e.Err
}

// Is matches another APIError of the same kind. A target with a message
// also requires the message to match.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Message == "" || t.Message == e.Message
}

// HTTPStatus returns the status code aligned with the error kind.
func (e *APIError) HTTPStatus() int {
	if status, ok := statusByKind[e.Kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// From extracts the APIError from err's chain, or wraps err as internal.
func From(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return NewErrInternal(err)
}

func NewErrValidation(message string) *APIError {
	return newError(KindValidation, message)
}

func NewErrUnsupportedPurpose(purpose string) *APIError {
	return newError(KindValidation, fmt.Sprintf("unsupported code purpose %q", purpose))
}

func NewErrInvalidOrExpiredCode() *APIError {
	return newError(KindValidation, "invalid or expired code")
}

// NewErrInvalidCredentials is returned for both unknown users and wrong passwords.
func NewErrInvalidCredentials() *APIError {
	return newError(KindValidation, "invalid credentials")
}

func NewErrUsernameTaken(username string) *APIError {
	return newError(KindDuplicate, fmt.Sprintf("username %q already exists", username))
}

func NewErrEmailTaken() *APIError {
	return newError(KindDuplicate, "email already in use")
}

func NewErrMissingAuthorizationToken() *APIError {
	return newError(KindAuth, "token required")
}

func NewErrInvalidAuthorizationToken() *APIError {
	return newError(KindAuth, "invalid token")
}

func NewErrCodeResendCooldown(retryAfter time.Duration) *APIError {
	return &APIError{
		Kind:       KindRateLimit,
		Message:    "code was sent recently, try again later",
		RetryAfter: retryAfter,
	}
}

func NewErrTooManyRequests(retryAfter time.Duration) *APIError {
	return &APIError{
		Kind:       KindRateLimit,
		Message:    "too many requests",
		RetryAfter: retryAfter,
	}
}

func NewErrForbidden() *APIError {
	return newError(KindAuthorization, "forbidden")
}

func NewErrRouteNotFound() *APIError {
	return newError(KindNotFound, "route not found")
}

func NewErrSigningSecretMissing() *APIError {
	return newError(KindConfig, "server misconfiguration: token signing secret is not set")
}

func NewErrInternal(err error) *APIError {
	return &APIError{Kind: KindInternal, Message: "internal server error", Err: err}
}
