package middleware

import (
	"net/http"

	"github.com/Payphone-Digital/auth-service/internal/constants"
	"github.com/Payphone-Digital/auth-service/pkg/logger"
	"github.com/Payphone-Digital/auth-service/pkg/validation"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const validatedBodyKey = "validated_body"

type ValidationMiddleware struct {
	exposeDetails bool
}

func NewValidationMiddleware(exposeDetails bool) *ValidationMiddleware {
	return &ValidationMiddleware{exposeDetails: exposeDetails}
}

// ValidateRequestBody decodes the JSON body into a value from factory, runs
// the binding rules and stores the result for ValidatedBody.
func (m *ValidationMiddleware) ValidateRequestBody(factory func() any) gin.HandlerFunc {
	return func(c *gin.Context) {
		request := factory()

		if err := c.ShouldBindJSON(request); err != nil {
			messages := validation.Messages(err)
			if messages == nil {
				logger.GetLogger().Debug("Middleware: JSON decoding failed",
					zap.String("client_ip", c.ClientIP()),
					zap.String("path", c.Request.URL.Path),
					zap.Error(err),
				)
				var details any
				if m.exposeDetails {
					details = err.Error()
				}
				c.AbortWithStatusJSON(http.StatusBadRequest, constants.BuildErrorResponse(constants.MsgInvalidJSON, details))
				return
			}

			logger.GetLogger().Warn("Middleware: Request validation failed",
				zap.String("client_ip", c.ClientIP()),
				zap.String("path", c.Request.URL.Path),
				zap.Strings("validation_errors", messages),
			)
			c.AbortWithStatusJSON(http.StatusBadRequest, constants.BuildErrorResponse(constants.MsgValidationFailed, messages))
			return
		}

		c.Set(validatedBodyKey, request)
		c.Next()
	}
}

// ValidatedBody returns the request stored by ValidateRequestBody.
func ValidatedBody[T any](c *gin.Context) (*T, bool) {
	v, ok := c.Get(validatedBodyKey)
	if !ok {
		return nil, false
	}
	req, ok := v.(*T)
	return req, ok
}
