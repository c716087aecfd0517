package identity

import "errors"

var (
	// ErrNotFound is returned when no user is stored for the requested key.
	ErrNotFound = errors.New("user not found")

	// ErrDuplicateEmail is returned by Save when another active user already
	// holds the email.
	ErrDuplicateEmail = errors.New("email already registered")
)
