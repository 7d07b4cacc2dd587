// file: service/errors.go

package service

import "errors"

var (
	ErrDuplicateEmail        = errors.New("user with this email already exists")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrInvalidRefreshToken   = errors.New("invalid refresh token")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired reset token")
	ErrInvalidToken          = errors.New("invalid token")
	ErrHashing               = errors.New("password hashing failed")
	ErrPasswordTooLong       = errors.New("password exceeds 72 bytes")
	ErrAdminNotConfigured    = errors.New("admin password not configured")
	ErrUserNotFound          = errors.New("user not found")
	ErrForbidden             = errors.New("you can only update your own profile")
)
