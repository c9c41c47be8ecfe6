package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"catalog/internal/rbac/apperrors"
	"catalog/internal/rbac/model"

	"github.com/labstack/echo/v4"
)

// httpError maps a service error to an HTTP status and body
func httpError(c echo.Context, err error) (int, model.ErrorResponse) {
	var (
		status  int
		code    string
		msg     = apperrors.Message(err)
		details []apperrors.FieldError
	)

	var detail *model.ErrorDetail
	var validation *apperrors.ValidationError
	var forbidden *apperrors.ForbiddenError
	var httpErr *echo.HTTPError

	switch {
	case errors.As(err, &detail):
		status, code, msg, details = http.StatusBadRequest, "bad_request", detail.Message, detail.Details
	case errors.As(err, &validation):
		status, code, msg, details = http.StatusBadRequest, "bad_request", "Validation failed", validation.Errors
	case errors.Is(err, apperrors.ErrUnauthenticated):
		status, code, msg = http.StatusUnauthorized, "unauthorized", "Unauthorized"
	case errors.As(err, &forbidden):
		status, code = http.StatusForbidden, "forbidden"
		msg = "You don't have permission to " + forbidden.Action + " " + forbidden.Resource
	case errors.Is(err, apperrors.ErrForbidden):
		status, code = http.StatusForbidden, "forbidden"
	case errors.Is(err, apperrors.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, apperrors.ErrConflict):
		status, code = http.StatusConflict, "conflict"
	case errors.Is(err, apperrors.ErrBadRequest):
		status, code = http.StatusBadRequest, "bad_request"
	case errors.Is(err, apperrors.ErrBackendUnavailable):
		status, code, msg = http.StatusServiceUnavailable, "service_unavailable", "Search backend is unavailable"
	case errors.As(err, &httpErr):
		status, code = httpErr.Code, "bad_request"
		msg, _ = httpErr.Message.(string)
	default:
		status, code, msg = http.StatusInternalServerError, "internal_error", "Internal server error"
	}

	return status, model.ErrorResponse{
		Error: model.ErrorDetail{
			Code:      code,
			Message:   msg,
			RequestID: c.Response().Header().Get(echo.HeaderXRequestID),
			Details:   details,
		},
	}
}

// respondError writes the mapped error. Server-side failures are logged with the request id.
func respondError(c echo.Context, err error) error {
	status, body := httpError(c, err)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(c.Request().Context(), "request failed",
			slog.String("request_id", body.Error.RequestID),
			slog.String("path", c.Path()),
			slog.Any("error", err),
		)
	}
	return c.JSON(status, body)
}
