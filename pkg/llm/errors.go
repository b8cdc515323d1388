package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorCategory is the stable categorical code carried by LLM errors.
type ErrorCategory string

const (
	CategoryTransport ErrorCategory = "transport"
	CategoryRateLimit ErrorCategory = "rate_limit"
	CategoryAuth      ErrorCategory = "auth"
	CategoryTimeout   ErrorCategory = "timeout"
	CategoryMalformed ErrorCategory = "malformed"
	CategoryFiltered  ErrorCategory = "filtered"
)

// Error is a failed LLM call with a stable category and the provider's
// message. Connection loss, HTTP errors, and malformed chunks all fail
// the whole stream with this type.
type Error struct {
	Category ErrorCategory
	Message  string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("llm %s: %s", e.Category, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError builds an Error wrapping err.
func NewError(category ErrorCategory, err error) *Error {
	return &Error{Category: category, Message: err.Error(), Err: err}
}

// AsError extracts an *Error from err, if present.
func AsError(err error) (*Error, bool) {
	var le *Error
	ok := errors.As(err, &le)
	return le, ok
}

// categoryForStatus maps an HTTP status code to an error category.
func categoryForStatus(code int) ErrorCategory {
	switch {
	case code == 401 || code == 403:
		return CategoryAuth
	case code == 429:
		return CategoryRateLimit
	case code == 408:
		return CategoryTimeout
	case code == 400 || code == 422:
		return CategoryMalformed
	default:
		return CategoryTransport
	}
}

// categorize classifies an arbitrary provider error. Providers that
// expose typed errors map those first and fall back here for
// transport-level failures.
func categorize(err error) ErrorCategory {
	if errors.Is(err, context.DeadlineExceeded) {
		return CategoryTimeout
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429") || strings.Contains(msg, "rate limit") || strings.Contains(msg, "resource exhausted"):
		return CategoryRateLimit
	case strings.Contains(msg, "401") || strings.Contains(msg, "403") || strings.Contains(msg, "unauthorized") || strings.Contains(msg, "permission denied") || strings.Contains(msg, "api key"):
		return CategoryAuth
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline exceeded"):
		return CategoryTimeout
	case strings.Contains(msg, "content filter") || strings.Contains(msg, "safety"):
		return CategoryFiltered
	default:
		return CategoryTransport
	}
}
