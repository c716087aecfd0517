package auth

import (
	"errors"
	"net/http"
)

var (
	// ErrInvalidFormat reports a malformed email or password.
	ErrInvalidFormat = errors.New("invalid format")
	// ErrDuplicateEmail reports that an active user already holds the email.
	ErrDuplicateEmail = errors.New("user already exists")
	// ErrInvalidToken reports a token that fails signature or structure checks.
	ErrInvalidToken = errors.New("invalid token")
	// ErrUserNotFound reports a subject with no active user behind it.
	ErrUserNotFound = errors.New("user not found or inactive")
	// ErrInternal hides storage and other unexpected failures from callers.
	ErrInternal = errors.New("internal server error")
)

// StatusCode maps an AuthService error onto the HTTP status returned to clients.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, ErrInvalidFormat), errors.Is(err, ErrDuplicateEmail):
		return http.StatusBadRequest
	case errors.Is(err, ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, ErrUserNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
