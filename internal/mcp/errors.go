package mcp

import (
	"errors"
	"fmt"

	"github.com/rpggio/assetguard/internal/domain/activity"
	"github.com/rpggio/assetguard/internal/domain/asset"
	"github.com/rpggio/assetguard/internal/domain/message"
	"github.com/rpggio/assetguard/internal/domain/user"
	"github.com/rpggio/assetguard/internal/repository"
)

// Error codes returned to callers.
const (
	CodeInvalidInput     = "INVALID_INPUT"
	CodeQuotaExceeded    = "QUOTA_EXCEEDED"
	CodeStoreUnavailable = "STORE_UNAVAILABLE"
	CodeNotFound         = "NOT_FOUND"
	CodeForbidden        = "FORBIDDEN"
	CodeContention       = "CONTENTION"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeMethodNotFound   = "METHOD_NOT_FOUND"
	CodeInternal         = "INTERNAL"
)

var (
	// ErrUnauthorized indicates a call without a resolved caller identity.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrUnknownMethod indicates a method name the handler does not serve.
	ErrUnknownMethod = errors.New("unknown method")
	// ErrInvalidParams indicates params that could not be decoded.
	ErrInvalidParams = errors.New("invalid params")
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
	Retryable    bool   `json:"retryable,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) CodeValue() string {
	return e.Code
}

func (e *APIError) MessageValue() string {
	return e.Message
}

func (e *APIError) DetailsValue() any {
	return e.Details
}

func (e *APIError) RecoveryHintValue() string {
	return e.RecoveryHint
}

// StepDetails describes where a multi-step write stopped.
type StepDetails struct {
	Step      string   `json:"step"`
	Completed []string `json:"completed"`
}

// MapError maps domain errors to MCP error codes. Errors without a mapping
// become a generic INTERNAL error so store internals never leak to callers.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	mapped := mapCause(err)
	var stepErr *asset.StepError
	if errors.As(err, &stepErr) {
		completed := stepErr.Completed
		if completed == nil {
			completed = []string{}
		}
		mapped.Details = StepDetails{Step: stepErr.Step, Completed: completed}
		mapped.Retryable = true
		if mapped.RecoveryHint == "" {
			mapped.RecoveryHint = "Repeat the call; completed steps are idempotent"
		}
	}
	return mapped
}

func mapCause(err error) *APIError {
	switch {
	case errors.Is(err, ErrInvalidParams),
		errors.Is(err, asset.ErrInvalidInput),
		errors.Is(err, message.ErrInvalidInput),
		errors.Is(err, user.ErrInvalidInput),
		errors.Is(err, activity.ErrInvalidInput):
		return &APIError{Code: CodeInvalidInput, Message: err.Error(), RecoveryHint: "Fix the arguments; ids and content must be non-empty, quotas positive"}
	case errors.Is(err, message.ErrQuotaExceeded):
		return &APIError{Code: CodeQuotaExceeded, Message: "message quota exceeded", RecoveryHint: "Ask an administrator to raise the quota"}
	case errors.Is(err, asset.ErrAssetNotFound):
		return &APIError{Code: CodeNotFound, Message: "asset not found", RecoveryHint: "Check the asset id"}
	case errors.Is(err, user.ErrAccountNotFound), errors.Is(err, repository.ErrNotFound):
		return &APIError{Code: CodeNotFound, Message: "not found"}
	case errors.Is(err, user.ErrForbidden):
		return &APIError{Code: CodeForbidden, Message: "admin role required"}
	case errors.Is(err, asset.ErrContention):
		return &APIError{Code: CodeContention, Message: "asset modified concurrently", RecoveryHint: "Retry the call", Retryable: true}
	case errors.Is(err, repository.ErrUnavailable):
		return &APIError{Code: CodeStoreUnavailable, Message: "store unavailable", RecoveryHint: "Retry with backoff", Retryable: true}
	case errors.Is(err, ErrUnauthorized), errors.Is(err, user.ErrInvalidToken):
		return &APIError{Code: CodeUnauthorized, Message: "unauthorized"}
	case errors.Is(err, ErrUnknownMethod):
		return &APIError{Code: CodeMethodNotFound, Message: err.Error()}
	default:
		return &APIError{Code: CodeInternal, Message: "internal error", RecoveryHint: "Try again later"}
	}
}
