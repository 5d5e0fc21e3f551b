package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var customValidationMessages = map[string]map[string]string{
	"email": {
		"required": "email is required",
		"email":    "email must be a valid email address",
	},
	"password": {
		"required": "password is required",
		"min":      "password must be at least 8 characters",
		"max":      "password must be at most 72 characters",
	},
	"name": {
		"required": "name is required",
	},
	"refreshToken": {
		"required": "refreshToken is required",
	},
}

// Setup makes validation errors report JSON field names instead of Go
// struct field names. Call once before serving requests.
func Setup() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
}

// CustomMessage returns the field-specific messages, if any
func CustomMessage(field string) map[string]string {
	return customValidationMessages[field]
}

// DefaultMessage describes a failed rule on field
func DefaultMessage(field, tag, param string) string {
	switch tag {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, param)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, param)
	case "len":
		return fmt.Sprintf("%s must be exactly %s characters", field, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, param)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// Messages converts a binding error into client-facing messages. It returns
// nil when err is not a validation error (malformed JSON, for instance).
func Messages(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	out := make([]string, 0, len(verrs))
	for _, e := range verrs {
		if fieldMessages := CustomMessage(e.Field()); fieldMessages != nil {
			if msg, ok := fieldMessages[e.Tag()]; ok {
				out = append(out, msg)
				continue
			}
		}
		out = append(out, DefaultMessage(e.Field(), e.Tag(), e.Param()))
	}
	return out
}
