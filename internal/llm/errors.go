package llm

import (
	"errors"
	"fmt"
)

// Kind classifies completion failures for report aggregation.
type Kind string

const (
	KindRateLimited     Kind = "rate_limited"
	KindTimeout         Kind = "timeout"
	KindProvider        Kind = "provider_error"
	KindInvalidResponse Kind = "invalid_response"
	KindConfiguration   Kind = "configuration_error"
)

// Error wraps a completion failure with its kind.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the failure kind from err, defaulting to provider_error.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var lerr *Error
	if errors.As(err, &lerr) {
		return lerr.Kind
	}
	return KindProvider
}

// retryable reports whether a failure kind is worth another attempt.
// Invalid responses and configuration mistakes do not improve on retry.
func retryable(kind Kind) bool {
	switch kind {
	case KindRateLimited, KindTimeout, KindProvider:
		return true
	default:
		return false
	}
}
