package handler

import (
	"net/http"

	"github.com/Payphone-Digital/auth-service/internal/constants"
	"github.com/Payphone-Digital/auth-service/internal/dto"
	apperrors "github.com/Payphone-Digital/auth-service/internal/errors"
	"github.com/Payphone-Digital/auth-service/internal/middleware"
	"github.com/Payphone-Digital/auth-service/internal/service"
	ctxutil "github.com/Payphone-Digital/auth-service/pkg/context"
	"github.com/Payphone-Digital/auth-service/pkg/logger"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService   *service.AuthService
	exposeDetails bool
}

// NewAuthHandler builds the auth endpoints. exposeDetails controls whether
// error causes are echoed to clients; it is false in production.
func NewAuthHandler(authService *service.AuthService, exposeDetails bool) *AuthHandler {
	return &AuthHandler{
		authService:   authService,
		exposeDetails: exposeDetails,
	}
}

// Register creates a user account and returns an access token for it
func (h *AuthHandler) Register(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "Register")

	req, ok := middleware.ValidatedBody[dto.RegisterRequest](c)
	if !ok {
		respondError(c, apperrors.ErrInvalidInput, h.exposeDetails)
		return
	}

	user, token, err := h.authService.Register(ctx, service.RegisterParams{
		Email:      req.Email,
		Password:   req.Password,
		Name:       req.Name,
		Role:       req.Role,
		PushTarget: req.FCMToken,
	})
	if err != nil {
		logger.WarnWithContext(ctx, "Registration failed").
			String("email", req.Email).
			Err(err).
			Log()
		respondError(c, err, h.exposeDetails)
		return
	}

	logger.InfoWithContext(ctx, "User registered").
		String("user_id", user.ID).
		String("role", user.Role.String()).
		Log()

	c.JSON(http.StatusCreated, constants.BuildSuccessResponse(constants.MsgRegistered, dto.RegisterResponse{Token: token}))
}

// Login handles user authentication
func (h *AuthHandler) Login(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "Login")

	req, ok := middleware.ValidatedBody[dto.LoginRequest](c)
	if !ok {
		respondError(c, apperrors.ErrInvalidInput, h.exposeDetails)
		return
	}

	session, err := h.authService.Login(ctx, req.Email, req.Password, req.FCMToken)
	if err != nil {
		logger.WarnWithContext(ctx, "Login failed").
			String("email", req.Email).
			Err(err).
			Log()
		respondError(c, err, h.exposeDetails)
		return
	}

	c.JSON(http.StatusOK, constants.BuildSuccessResponse(constants.MsgLoginSuccessful, dto.LoginResponse{
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		User:         session.User,
	}))
}

// RefreshToken exchanges a refresh token for a new access token
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "RefreshToken")

	req, ok := middleware.ValidatedBody[dto.RefreshTokenRequest](c)
	if !ok {
		respondError(c, apperrors.ErrInvalidInput, h.exposeDetails)
		return
	}

	access, _, err := h.authService.RefreshAccessToken(ctx, req.RefreshToken)
	if err != nil {
		logger.WarnWithContext(ctx, "Token refresh failed").
			Err(err).
			Log()
		respondError(c, err, h.exposeDetails)
		return
	}

	c.JSON(http.StatusOK, constants.BuildSuccessResponse(constants.MsgTokenRefreshed, dto.RefreshTokenResponse{AccessToken: access}))
}

// Logout revokes the supplied refresh token. It always answers 200; a
// missing body or a revocation failure is only logged.
func (h *AuthHandler) Logout(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "Logout")

	var req dto.LogoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.DebugWithContext(ctx, "Logout without a readable body").
			Err(err).
			Log()
	}

	if err := h.authService.Logout(ctx, req.RefreshToken); err != nil {
		logger.ErrorWithContext(ctx, "Failed to revoke refresh token on logout").
			Err(err).
			Log()
	}

	c.JSON(http.StatusOK, constants.BuildSuccessResponse(constants.MsgLogoutSuccessful, nil))
}

// Me returns the identity bound by the auth gate
func (h *AuthHandler) Me(c *gin.Context) {
	id, ok := ctxutil.IdentityFrom(c.Request.Context())
	if !ok {
		respondError(c, apperrors.ErrNotAuthenticated, h.exposeDetails)
		return
	}

	c.JSON(http.StatusOK, constants.BuildSuccessResponse(constants.MsgCurrentUser, dto.MeResponse{
		User: dto.IdentityResponse{ID: id.ID, Role: id.Role},
	}))
}

// AdminPing is reachable by admins only
func (h *AuthHandler) AdminPing(c *gin.Context) {
	c.JSON(http.StatusOK, constants.BuildSuccessResponse(constants.MsgAdminAccess, nil))
}
