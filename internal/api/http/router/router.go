package router

import (
	"github.com/gin-gonic/gin"

	"github.com/dtroode/adminauth-server/internal/api/http/handler"
	"github.com/dtroode/adminauth-server/internal/api/http/middleware"
	"github.com/dtroode/adminauth-server/internal/api/http/response"
	"github.com/dtroode/adminauth-server/internal/apierrors"
	"github.com/dtroode/adminauth-server/internal/logger"
	"github.com/dtroode/adminauth-server/internal/model"
)

// Router builds the HTTP API.
type Router struct {
	authService    handler.AuthService
	tokenService   middleware.TokenService
	contextManager model.ContextManager
	limiter        model.Limiter
	logger         *logger.Logger
}

// New creates new HTTP Router instance. A nil limiter disables request
// limiting.
func New(
	authService handler.AuthService,
	tokenService middleware.TokenService,
	contextManager model.ContextManager,
	limiter model.Limiter,
	logger *logger.Logger,
) *Router {
	return &Router{
		authService:    authService,
		tokenService:   tokenService,
		contextManager: contextManager,
		limiter:        limiter,
		logger:         logger,
	}
}

// Register wires middleware and routes into a new engine.
func (r *Router) Register() *gin.Engine {
	engine := gin.New()
	engine.Use(
		middleware.NewLogging(r.logger).Handle,
		middleware.Recovery(r.logger),
	)
	engine.NoRoute(func(c *gin.Context) {
		response.Error(c, apierrors.NewErrRouteNotFound())
	})

	authenticate := middleware.NewAuthenticate(r.tokenService, r.contextManager, r.logger)
	authHandler := handler.NewAuth(r.authService, r.contextManager, r.logger)

	api := engine.Group("/api")

	auth := api.Group("/auth")
	auth.POST("/register", r.limit("register"), authHandler.Register)
	auth.POST("/login", r.limit("login"), authHandler.Login)
	auth.POST("/send-email-code", r.limit("send-email-code"), authHandler.SendEmailCode)
	auth.POST("/login/email-code", r.limit("login-email-code"), authHandler.LoginWithEmailCode)
	auth.POST("/logout", authHandler.Logout)
	auth.GET("/profile", authenticate.Handle, authHandler.Profile)

	admin := api.Group("/admin", authenticate.Handle, middleware.RequireRole(model.RoleAdmin, r.contextManager, r.logger))
	admin.POST("/users", authHandler.CreateUser)

	return engine
}

func (r *Router) limit(route string) gin.HandlerFunc {
	if r.limiter == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return middleware.NewRateLimit(r.limiter, r.logger).Handle(route)
}
