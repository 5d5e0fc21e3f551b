package middleware

import (
	"context"
	"slices"
	"strings"

	"github.com/Payphone-Digital/auth-service/internal/constants"
	apperrors "github.com/Payphone-Digital/auth-service/internal/errors"
	"github.com/Payphone-Digital/auth-service/internal/model"
	ctxutil "github.com/Payphone-Digital/auth-service/pkg/context"
	"github.com/Payphone-Digital/auth-service/pkg/logger"
	"github.com/gin-gonic/gin"
)

// AccessVerifier resolves an access token to its active owner.
type AccessVerifier interface {
	VerifyAccess(ctx context.Context, token string) (*model.User, error)
}

type AuthMiddleware struct {
	verifier      AccessVerifier
	exposeDetails bool
}

// NewAuthMiddleware builds the authorization gate. exposeDetails controls
// whether error causes are echoed to clients; it is false in production.
func NewAuthMiddleware(verifier AccessVerifier, exposeDetails bool) *AuthMiddleware {
	return &AuthMiddleware{
		verifier:      verifier,
		exposeDetails: exposeDetails,
	}
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// value. The scheme is case-sensitive and the token may not contain spaces.
func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || scheme != constants.AuthScheme {
		return "", false
	}
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}
	return token, true
}

// RequireAuth validates the access token and binds the caller's identity to
// the request context.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "middleware", "RequireAuth")

		token, ok := bearerToken(c.GetHeader(constants.HeaderAuthorization))
		if !ok {
			logger.DebugWithContext(ctx, "Missing or malformed Authorization header").
				Method(c.Request.Method).
				Path(c.Request.URL.Path).
				Log()
			abortWithError(c, apperrors.ErrNoToken, m.exposeDetails)
			return
		}

		user, err := m.verifier.VerifyAccess(ctx, token)
		if err != nil {
			logger.WarnWithContext(ctx, "Access token rejected").
				Method(c.Request.Method).
				Path(c.Request.URL.Path).
				Err(err).
				Log()
			abortWithError(c, err, m.exposeDetails)
			return
		}

		authed := ctxutil.WithIdentity(c.Request.Context(), ctxutil.Identity{ID: user.ID, Role: user.Role})
		c.Request = c.Request.WithContext(authed)

		logger.DebugWithContext(authed, "User authenticated").
			String("role", user.Role.String()).
			Log()

		c.Next()
	}
}

// RequireRole admits only identities whose role is in roles. It must run
// after RequireAuth.
func (m *AuthMiddleware) RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		id, ok := ctxutil.IdentityFrom(ctx)
		if !ok {
			abortWithError(c, apperrors.ErrNotAuthenticated, m.exposeDetails)
			return
		}

		if !slices.Contains(roles, id.Role) {
			logger.WarnWithContext(ctx, "Role not permitted").
				String("role", id.Role.String()).
				Path(c.Request.URL.Path).
				Log()
			abortWithError(c, apperrors.ErrForbidden, m.exposeDetails)
			return
		}

		c.Next()
	}
}

func abortWithError(c *gin.Context, err error, exposeDetails bool) {
	c.AbortWithStatusJSON(apperrors.ErrorResponse(err, exposeDetails))
}
