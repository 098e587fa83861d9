package user

import "errors"

var (
	// ErrAccountNotFound indicates the account doesn't exist.
	ErrAccountNotFound = errors.New("account not found")
	// ErrForbidden indicates the caller lacks the admin role.
	ErrForbidden = errors.New("admin role required")
	// ErrInvalidInput indicates invalid account input.
	ErrInvalidInput = errors.New("invalid account input")
)
