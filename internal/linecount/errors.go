package linecount

import (
	"errors"
	"fmt"
)

// Kind classifies aggregation failures.
type Kind string

const (
	KindUnauthorized      Kind = "unauthorized"
	KindNotFound          Kind = "not_found"
	KindMalformedResponse Kind = "malformed_response"
	KindTimeout           Kind = "timeout"
	KindRateLimited       Kind = "rate_limited"
	KindPerFile           Kind = "per_file_failure"
	KindInternal          Kind = "internal"
)

// Error is a classified failure. Message is the short client-facing text.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Errorf builds a classified error wrapping err.
func Errorf(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// ErrTokenRequired is returned before any remote call when no credential is configured.
var ErrTokenRequired = &Error{Kind: KindInternal, Message: "GitHub token required"}

// KindOf extracts the Kind of err, defaulting to KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
