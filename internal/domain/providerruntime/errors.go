package providerruntime

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode classifies a provider runtime failure.
type ErrorCode string

const (
	ErrSessionExpired      ErrorCode = "session_expired"
	ErrInvalidAuth         ErrorCode = "invalid_auth"
	ErrMissingAuth         ErrorCode = "missing_auth"
	ErrRateLimited         ErrorCode = "rate_limited"
	ErrProviderUnavailable ErrorCode = "provider_unavailable"
	ErrUnexpected          ErrorCode = "unexpected_error"
)

// errorTraits carries the fixed remediation and retryability per code.
var errorTraits = map[ErrorCode]struct {
	remediation string
	retryable   bool
}{
	ErrSessionExpired:      {"Sign in again to refresh the token session, then rerun.", true},
	ErrInvalidAuth:         {"Check the configured API key for this provider and update it.", false},
	ErrMissingAuth:         {"Add an API key or sign in for this provider before running.", false},
	ErrRateLimited:         {"Wait a moment and retry; reduce the request rate if it persists.", true},
	ErrProviderUnavailable: {"The provider is unreachable or overloaded. Retry shortly.", true},
	ErrUnexpected:          {"Inspect the provider response; report the issue if it persists.", false},
}

// RuntimeError is the single typed failure shape every adapter surfaces.
// It serializes cleanly so structure survives process boundaries.
type RuntimeError struct {
	ProviderID  string    `json:"providerId"`
	Code        ErrorCode `json:"code"`
	Message     string    `json:"message"`
	Remediation string    `json:"remediation"`
	Retryable   bool      `json:"retryable"`
}

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewRuntimeError builds a RuntimeError with the fixed remediation and
// retryability for the given code.
func NewRuntimeError(providerID string, code ErrorCode, message string) *RuntimeError {
	traits := errorTraits[code]
	return &RuntimeError{
		ProviderID:  providerID,
		Code:        code,
		Message:     message,
		Remediation: traits.remediation,
		Retryable:   traits.retryable,
	}
}

// MapError classifies an arbitrary upstream failure into the runtime error
// taxonomy. Already-typed errors pass through unchanged. Classification is
// ordered: session expiry beats the generic 401 match.
func MapError(providerID string, err error) *RuntimeError {
	var typed *RuntimeError
	if errors.As(err, &typed) {
		return typed
	}

	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, "session expired", "token expired"):
		return NewRuntimeError(providerID, ErrSessionExpired, err.Error())
	case containsAny(msg, "invalid api key", "unauthorized", "401"):
		return NewRuntimeError(providerID, ErrInvalidAuth, err.Error())
	case containsAny(msg, "missing api key", "no api key", "auth missing"):
		return NewRuntimeError(providerID, ErrMissingAuth, err.Error())
	case containsAny(msg, "rate limit", "429"):
		return NewRuntimeError(providerID, ErrRateLimited, err.Error())
	default:
		return NewRuntimeError(providerID, ErrProviderUnavailable, err.Error())
	}
}

// FromHTTPStatus classifies a non-2xx vendor response by status code.
// 529 is the vendor-specific "overloaded" status.
func FromHTTPStatus(providerID string, status int, body string) *RuntimeError {
	message := fmt.Sprintf("provider %s returned HTTP %d", providerID, status)
	if trimmed := strings.TrimSpace(body); trimmed != "" {
		message = fmt.Sprintf("%s: %s", message, trimmed)
	}

	switch {
	case status == 401 || status == 403:
		return NewRuntimeError(providerID, ErrInvalidAuth, message)
	case status == 429:
		return NewRuntimeError(providerID, ErrRateLimited, message)
	case status >= 500 || status == 529:
		return NewRuntimeError(providerID, ErrProviderUnavailable, message)
	default:
		return NewRuntimeError(providerID, ErrUnexpected, message)
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
