package errors

import (
	"context"
	"errors"
	"net/http"

	"gorm.io/gorm"
)

// Status converts repo/service errors into an HTTP status code.
// Keeps handlers clean by centralizing error mapping.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK

	case IsValidation(err):
		return http.StatusBadRequest

	case errors.Is(err, ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound

	case errors.Is(err, ErrInvalidTransition):
		return http.StatusConflict

	case errors.Is(err, ErrPermissionDenied):
		return http.StatusForbidden

	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, ErrUpstreamTimeout):
		return http.StatusGatewayTimeout

	case errors.Is(err, context.Canceled):
		// client went away
		return 499

	default:
		return http.StatusInternalServerError
	}
}
