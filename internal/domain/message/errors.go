package message

import "errors"

var (
	// ErrInvalidInput indicates empty content, asset, or an invalid quota.
	ErrInvalidInput = errors.New("invalid message input")
	// ErrQuotaExceeded indicates the sender has used up the global quota.
	ErrQuotaExceeded = errors.New("message quota exceeded")
)
