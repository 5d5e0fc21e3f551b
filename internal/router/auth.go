package router

import (
	"github.com/Payphone-Digital/auth-service/internal/dto"
	"github.com/Payphone-Digital/auth-service/internal/model"
	"github.com/gin-gonic/gin"
)

func (r *Router) authRoutes(version *gin.RouterGroup) {
	auth := version.Group("/auth")
	{
		// Public routes (no authentication required)
		auth.POST("/register",
			r.validMw.ValidateRequestBody(func() any { return &dto.RegisterRequest{} }),
			r.authHandler.Register)
		auth.POST("/login",
			r.validMw.ValidateRequestBody(func() any { return &dto.LoginRequest{} }),
			r.authHandler.Login)
		auth.POST("/refresh-token",
			r.validMw.ValidateRequestBody(func() any { return &dto.RefreshTokenRequest{} }),
			r.authHandler.RefreshToken)

		// Protected routes (access token required)
		protected := auth.Group("")
		protected.Use(r.authMw.RequireAuth())
		{
			protected.POST("/logout", r.authHandler.Logout)
			protected.GET("/me", r.authHandler.Me)
		}
	}
}

func (r *Router) adminRoutes(version *gin.RouterGroup) {
	admin := version.Group("/admin")
	admin.Use(r.authMw.RequireAuth(), r.authMw.RequireRole(model.RoleAdmin))
	{
		admin.GET("/ping", r.authHandler.AdminPing)
	}
}
