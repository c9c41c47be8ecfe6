package model

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"catalog/internal/rbac/apperrors"

	"github.com/go-playground/validator/v10"
)

var (
	validate *validator.Validate
	once     sync.Once
)

func GetValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New()
		// report json names so messages match the request body
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// FormatValidationError converts validator errors to ErrorDetail, listing every failed field.
func FormatValidationError(err error) *ErrorDetail {
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		details := make([]apperrors.FieldError, 0, len(validationErrors))
		for _, e := range validationErrors {
			field := e.Namespace()
			if i := strings.Index(field, "."); i >= 0 {
				field = field[i+1:]
			}
			details = append(details, apperrors.FieldError{
				Field:   field,
				Message: "Field validation for '" + e.Field() + "' failed on the '" + e.Tag() + "' tag",
			})
		}
		return &ErrorDetail{
			Code:    "bad_request",
			Message: details[0].Message,
			Details: details,
		}
	}

	return &ErrorDetail{
		Code:    "bad_request",
		Message: err.Error(),
	}
}

func badRequest(msg string) *ErrorDetail {
	return &ErrorDetail{Code: "bad_request", Message: msg}
}
