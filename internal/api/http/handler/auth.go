package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dtroode/adminauth-server/internal/api/http/response"
	"github.com/dtroode/adminauth-server/internal/apierrors"
	"github.com/dtroode/adminauth-server/internal/logger"
	"github.com/dtroode/adminauth-server/internal/model"
)

// AuthService defines user registration and login operations.
type AuthService interface {
	Register(ctx context.Context, reg model.Registration) (model.User, error)
	CreateUser(ctx context.Context, reg model.Registration) (model.User, error)
	Login(ctx context.Context, username, password string) (model.Session, error)
	SendEmailCode(ctx context.Context, email, purpose string) (model.IssuedCode, error)
	LoginWithEmailCode(ctx context.Context, email, code string) (model.Session, error)
	Profile(ctx context.Context, userID uuid.UUID) (model.User, error)
}

// Auth handles HTTP endpoints for authentication.
type Auth struct {
	authService    AuthService
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewAuth creates a new Auth handler.
func NewAuth(authService AuthService, contextManager model.ContextManager, logger *logger.Logger) *Auth {
	return &Auth{
		authService:    authService,
		contextManager: contextManager,
		logger:         logger,
	}
}

// Register creates a password account.
func (h *Auth) Register(c *gin.Context) {
	var req registerRequest
	if !h.bind(c, &req, "username and password are required") {
		return
	}

	h.logger.Debug("Auth handler: processing registration request",
		"username", req.Username)

	user, err := h.authService.Register(c.Request.Context(), model.Registration{
		Username: req.Username,
		Password: req.Password,
		Email:    req.Email,
		RealName: req.RealName,
	})
	if err != nil {
		h.fail(c, "registration", err)
		return
	}

	response.Success(c, http.StatusCreated, newUserSummary(user), "registered")
}

// Login exchanges a username (or email) and password for a token.
func (h *Auth) Login(c *gin.Context) {
	var req loginRequest
	if !h.bind(c, &req, "username and password are required") {
		return
	}

	session, err := h.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.fail(c, "login", err)
		return
	}

	response.OK(c, sessionResponse{Token: session.Token, User: newUserSummary(session.User)}, "logged in")
}

// SendEmailCode mails a one-time login code.
func (h *Auth) SendEmailCode(c *gin.Context) {
	var req sendEmailCodeRequest
	if !h.bind(c, &req, "email is required") {
		return
	}
	if req.Purpose == "" {
		req.Purpose = model.PurposeLogin
	}

	issued, err := h.authService.SendEmailCode(c.Request.Context(), req.Email, req.Purpose)
	if err != nil {
		h.fail(c, "send email code", err)
		return
	}

	response.OK(c, sendEmailCodeResponse{
		ExpiresIn: int64(issued.ExpiresIn.Seconds()),
		Code:      issued.Code,
	}, "code sent")
}

// LoginWithEmailCode exchanges a one-time code for a token.
func (h *Auth) LoginWithEmailCode(c *gin.Context) {
	var req emailCodeLoginRequest
	if !h.bind(c, &req, "email and code are required") {
		return
	}

	session, err := h.authService.LoginWithEmailCode(c.Request.Context(), req.Email, req.Code)
	if err != nil {
		h.fail(c, "email code login", err)
		return
	}

	response.OK(c, sessionResponse{Token: session.Token, User: newUserSummary(session.User)}, "logged in")
}

// Logout acknowledges the request. Tokens are stateless; the client
// discards its copy.
func (h *Auth) Logout(c *gin.Context) {
	response.OK(c, nil, "logged out")
}

// Profile returns the authenticated user.
func (h *Auth) Profile(c *gin.Context) {
	identity, ok := h.contextManager.GetIdentityFromContext(c.Request.Context())
	if !ok {
		response.Error(c, apierrors.NewErrMissingAuthorizationToken())
		return
	}

	user, err := h.authService.Profile(c.Request.Context(), identity.UserID)
	if err != nil {
		h.fail(c, "profile", err)
		return
	}

	response.OK(c, newUserSummary(user), "ok")
}

// CreateUser creates an account with explicit roles. Admin only.
func (h *Auth) CreateUser(c *gin.Context) {
	var req createUserRequest
	if !h.bind(c, &req, "username, password and roles are required") {
		return
	}

	user, err := h.authService.CreateUser(c.Request.Context(), model.Registration{
		Username: req.Username,
		Password: req.Password,
		Email:    req.Email,
		RealName: req.RealName,
		Roles:    req.Roles,
	})
	if err != nil {
		h.fail(c, "create user", err)
		return
	}

	response.Success(c, http.StatusCreated, newUserSummary(user), "created")
}

func (h *Auth) bind(c *gin.Context, req any, message string) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.logger.Debug("Auth handler: malformed request",
			"path", c.Request.URL.Path,
			"error", err.Error())
		response.Error(c, apierrors.NewErrValidation(message))
		return false
	}
	return true
}

func (h *Auth) fail(c *gin.Context, op string, err error) {
	var apiErr *apierrors.APIError
	if !errors.As(err, &apiErr) || apiErr.HTTPStatus() >= http.StatusInternalServerError {
		h.logger.Error("Auth handler: request failed",
			"operation", op,
			"error", err.Error())
	}
	response.Error(c, err)
}
