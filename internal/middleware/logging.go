package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Payphone-Digital/auth-service/internal/constants"
	ctxutil "github.com/Payphone-Digital/auth-service/pkg/context"
	"github.com/Payphone-Digital/auth-service/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	maxLoggedBody = 64 * 1024
	slowRequest   = 2 * time.Second
	redacted      = "[FILTERED]"
)

// sensitiveFields are replaced before a request body is logged.
var sensitiveFields = []string{"password", "refreshToken", "accessToken"}

// LoggingMiddleware logs one line per request. Request bodies are only logged
// when logBody is set, with credentials filtered.
func LoggingMiddleware(logBody bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		var requestBody []byte
		if logBody && c.Request.Body != nil && c.Request.ContentLength <= maxLoggedBody {
			requestBody, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(requestBody))
		}

		c.Next()

		latency := time.Since(startTime)
		status := c.Writer.Status()

		fields := []zap.Field{
			zap.String("request_id", ctxutil.GetRequestID(c.Request.Context())),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("query", c.Request.URL.RawQuery),
			zap.String("client_ip", c.ClientIP()),
			zap.String("user_agent", c.Request.UserAgent()),
			zap.Int("status_code", status),
			zap.Duration("latency", latency),
			zap.Int("response_size", c.Writer.Size()),
		}
		if userID := ctxutil.GetUserID(c.Request.Context()); userID != "" {
			fields = append(fields, zap.String("user_id", userID))
		}
		if len(requestBody) > 0 {
			fields = append(fields, zap.String("request_body", redactBody(requestBody)))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("error", c.Errors.String()))
		}

		switch {
		case status >= http.StatusInternalServerError:
			logger.GetLogger().Error("Server error", fields...)
		case status >= http.StatusBadRequest:
			logger.GetLogger().Warn("Client error", fields...)
		case latency > slowRequest:
			logger.GetLogger().Warn("Slow request", fields...)
		default:
			logger.GetLogger().Info("Request completed", fields...)
		}
	}
}

// redactBody returns body with sensitive top-level JSON fields filtered.
// Bodies that are not JSON objects are omitted.
func redactBody(body []byte) string {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return "[non-JSON body omitted]"
	}
	for key := range payload {
		for _, field := range sensitiveFields {
			if strings.EqualFold(key, field) {
				payload[key] = redacted
			}
		}
	}
	out, err := json.Marshal(payload)
	if err != nil {
		return "[unencodable body omitted]"
	}
	return string(out)
}

// RecoveryMiddleware recovers from panics, logs them with a stack trace and
// answers 500.
func RecoveryMiddleware() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.LogPanic(recovered)

		c.AbortWithStatusJSON(http.StatusInternalServerError, constants.BuildErrorResponse(constants.MsgInternalError, nil))
	})
}

// SecurityLoggingMiddleware flags scanner user agents and records login
// attempts by source address.
func SecurityLoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		userAgent := c.Request.UserAgent()

		if isSuspiciousUserAgent(userAgent) {
			logger.GetLogger().Warn("Suspicious user agent detected",
				zap.String("client_ip", clientIP),
				zap.String("user_agent", userAgent),
				zap.String("path", c.Request.URL.Path),
			)
		}

		if c.Request.Method == http.MethodPost && strings.HasSuffix(c.Request.URL.Path, "/auth/login") {
			logger.GetLogger().Info("Login attempt",
				zap.String("client_ip", clientIP),
				zap.String("user_agent", userAgent),
			)
		}

		c.Next()
	}
}

func isSuspiciousUserAgent(userAgent string) bool {
	suspiciousPatterns := []string{
		"sqlmap", "nikto", "nmap", "masscan", "burp", "scanner",
	}

	ua := strings.ToLower(userAgent)
	for _, pattern := range suspiciousPatterns {
		if strings.Contains(ua, pattern) {
			return true
		}
	}
	return false
}
