package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"emberchat/authgate/internal/config"
	"emberchat/authgate/internal/handler/middleware"
	jwtpkg "emberchat/authgate/pkg/jwt"
)

func SetupRouter(
	cfg *config.Config,
	logger *zap.Logger,
	jwtManager *jwtpkg.Manager,
	inviteHandler *InviteHandler,
	authHandler *AuthHandler,
	identityHandler *IdentityHandler,
	adminHandler *AdminHandler,
) *gin.Engine {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.CORS(cfg.CORS))

	// Health check
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Invite claim endpoint, consumed by the public sign-up form.
	r.POST("/invite/claim", inviteHandler.Claim)

	// Public auth routes
	auth := r.Group("/api/v1/auth")
	{
		auth.POST("/magic-link", authHandler.RequestMagicLink)
		auth.GET("/magic-link/verify", authHandler.VerifyMagicLink)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
	}

	// Protected routes
	protected := r.Group("/api/v1")
	protected.Use(middleware.JWTAuth(jwtManager))
	{
		protected.POST("/auth/logout", authHandler.Logout)

		// Identity management
		protected.POST("/identities/password", identityHandler.BindPassword)
		protected.DELETE("/identities/:id", identityHandler.Unbind)
		protected.GET("/identities", identityHandler.List)
	}

	// Admin routes (JWT + admin check)
	admin := r.Group("/api/v1/admin")
	admin.Use(middleware.JWTAuth(jwtManager))
	admin.Use(middleware.AdminAuth(cfg.Admin.UserIDs))
	{
		admin.POST("/invite-codes", adminHandler.CreateInviteCode)
		admin.GET("/invite-codes", adminHandler.ListInviteCodes)
		admin.PATCH("/invite-codes/:code/active", adminHandler.SetInviteCodeActive)
	}

	return r
}
