package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Payphone-Digital/auth-service/internal/constants"
)

// DomainError represents a domain-specific error with a code and message
type DomainError struct {
	Code    string
	Message string
	Err     error // underlying error for wrapping
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is and errors.As
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches on Code so that a wrapped domain error still matches its sentinel.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WrapError wraps an existing error with domain error context
func WrapError(domainErr *DomainError, err error) *DomainError {
	return &DomainError{
		Code:    domainErr.Code,
		Message: domainErr.Message,
		Err:     err,
	}
}

// Error codes
const (
	CodeDuplicateUser          = "DUPLICATE_USER"
	CodeInvalidRole            = "INVALID_ROLE"
	CodeInvalidCredentials     = "INVALID_CREDENTIALS"
	CodeInvalidOrExpiredToken  = "INVALID_OR_EXPIRED_TOKEN"
	CodeNoToken                = "NO_TOKEN"
	CodeUserNotFoundOrInactive = "USER_NOT_FOUND_OR_INACTIVE"
	CodeNotAuthenticated       = "NOT_AUTHENTICATED"
	CodeForbidden              = "FORBIDDEN"
	CodePersistence            = "PERSISTENCE_ERROR"
	CodeInvalidInput           = "INVALID_INPUT"
	CodeInternal               = "INTERNAL_ERROR"
)

// Predefined domain errors
var (
	// Registration and login
	ErrDuplicateUser      = NewDomainError(CodeDuplicateUser, "User already exists")
	ErrInvalidRole        = NewDomainError(CodeInvalidRole, "Invalid role")
	ErrInvalidCredentials = NewDomainError(CodeInvalidCredentials, "Invalid credentials")

	// Token verification
	ErrInvalidOrExpiredToken  = NewDomainError(CodeInvalidOrExpiredToken, "Invalid or expired token")
	ErrNoToken                = NewDomainError(CodeNoToken, "You are not logged in! Please log in to get access")
	ErrUserNotFoundOrInactive = NewDomainError(CodeUserNotFoundOrInactive, "User not found or inactive")

	// Authorization
	ErrNotAuthenticated = NewDomainError(CodeNotAuthenticated, "User not authenticated")
	ErrForbidden        = NewDomainError(CodeForbidden, "You do not have permission to perform this action")

	// Validation
	ErrInvalidInput = NewDomainError(CodeInvalidInput, "invalid input")

	// System errors
	ErrPersistence = NewDomainError(CodePersistence, "storage operation failed")
	ErrInternal    = NewDomainError(CodeInternal, "Internal Server Error")
)

// IsDomainError checks if an error is a domain error
func IsDomainError(err error) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr)
}

// GetDomainError extracts the domain error from an error
func GetDomainError(err error) *DomainError {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// IsOperational reports whether err is an expected client-facing failure
// (4xx) rather than an infrastructure fault.
func IsOperational(err error) bool {
	status := ToHTTPStatus(err)
	return status >= 400 && status < 500
}

// ToHTTPStatus maps domain errors to HTTP status codes
// This should only be used in the handler/presentation layer
func ToHTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErrorToHTTPStatus(domainErr)
	}

	return http.StatusInternalServerError
}

func domainErrorToHTTPStatus(err *DomainError) int {
	switch err.Code {
	// 400 Bad Request
	case CodeDuplicateUser, CodeInvalidRole, CodeInvalidCredentials, CodeInvalidInput:
		return http.StatusBadRequest

	// 401 Unauthorized
	case CodeInvalidOrExpiredToken, CodeNoToken, CodeUserNotFoundOrInactive, CodeNotAuthenticated:
		return http.StatusUnauthorized

	// 403 Forbidden
	case CodeForbidden:
		return http.StatusForbidden

	// 500 Internal Server Error (default)
	default:
		return http.StatusInternalServerError
	}
}

// GetErrorMessage returns the client-safe message. Infrastructure errors never
// expose their cause here; use err.Error() for server-side logging.
func GetErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}

	return ErrInternal.Message
}

// ErrorResponse returns the status and error envelope for err. The cause of a
// wrapped or unknown error is only included when exposeDetails is set.
func ErrorResponse(err error, exposeDetails bool) (int, map[string]any) {
	var details any
	if exposeDetails {
		if de := GetDomainError(err); de == nil || de.Err != nil {
			details = err.Error()
		}
	}
	return ToHTTPStatus(err), constants.BuildErrorResponse(GetErrorMessage(err), details)
}
