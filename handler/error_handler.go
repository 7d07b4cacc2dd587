package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"personal-brand-api/common"
	"personal-brand-api/service"
)

func ErrorHandlingMiddleware(next func(http.ResponseWriter, *http.Request) *common.AppError) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := next(w, r); err != nil {
			err.Send(w)
		}
	}
}

// mapServiceError translates service errors into HTTP responses. Unknown
// errors become a generic 500 with the cause logged.
func mapServiceError(err error) *common.AppError {
	switch {
	case errors.Is(err, service.ErrDuplicateEmail):
		return common.NewAppError(http.StatusConflict, "User with this email already exists", nil)
	case errors.Is(err, service.ErrInvalidCredentials):
		return common.Unauthorized("Invalid credentials")
	case errors.Is(err, service.ErrInvalidRefreshToken):
		return common.Unauthorized("Invalid refresh token")
	case errors.Is(err, service.ErrInvalidToken):
		return common.Unauthorized("Invalid or expired token")
	case errors.Is(err, service.ErrInvalidOrExpiredToken):
		return common.BadRequest("Invalid or expired reset token", nil)
	case errors.Is(err, service.ErrPasswordTooLong):
		return common.BadRequest("Password exceeds 72 bytes", nil)
	case errors.Is(err, service.ErrForbidden):
		return common.NewAppError(http.StatusForbidden, "You can only update your own profile", nil)
	case errors.Is(err, service.ErrUserNotFound):
		return common.NewAppError(http.StatusNotFound, "User not found", nil)
	case errors.Is(err, service.ErrAdminNotConfigured):
		return common.NewAppError(http.StatusInternalServerError, "Admin password not configured", err)
	default:
		return common.NewAppError(http.StatusInternalServerError, "Internal server error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
