package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"solowcrew/internal/apperrors"
)

// errorStatus maps domain errors to HTTP status codes. Precondition
// failures are part of normal control flow and come back as 409 with a
// machine-readable reason; everything unexpected stays a 500.
var errorStatus = []struct {
	err    error
	code   int
	reason string
}{
	{apperrors.ErrAlreadyJoined, http.StatusConflict, "already_joined"},
	{apperrors.ErrPoolFull, http.StatusConflict, "pool_full"},
	{apperrors.ErrPoolExpired, http.StatusConflict, "pool_expired"},
	{apperrors.ErrPoolClosed, http.StatusConflict, "pool_closed"},
	{apperrors.ErrNotReady, http.StatusConflict, "not_ready"},
	{apperrors.ErrNoMembership, http.StatusConflict, "no_membership"},
	{apperrors.ErrContention, http.StatusConflict, "contention"},
	{apperrors.ErrNotFound, http.StatusNotFound, "not_found"},
	{apperrors.ErrInvalidData, http.StatusUnprocessableEntity, "invalid_data"},
	{apperrors.ErrInvalidSignature, http.StatusBadRequest, "invalid_signature"},
	{apperrors.ErrIncompleteNotification, http.StatusBadRequest, "incomplete_notification"},
	{apperrors.ErrDependencyUnavailable, http.StatusBadGateway, "dependency_unavailable"},
}

// JSONErrorHandler is the Echo error handler for the API. Domain errors get
// their mapped status and reason; echo.HTTPError passes through.
func JSONErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	reason := "internal_error"
	message := "Something went wrong. Please try again later."

	for _, m := range errorStatus {
		if errors.Is(err, m.err) {
			code = m.code
			reason = m.reason
			message = m.err.Error()
			break
		}
	}

	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		reason = http.StatusText(code)
		if msg, ok := he.Message.(string); ok && msg != "" {
			message = msg
		}
	}

	if code >= http.StatusInternalServerError {
		c.Logger().Error(err)
	}

	_ = c.JSON(code, map[string]string{
		"error":  reason,
		"detail": message,
	})
}
