package llm

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	ErrKindAuth       ErrorKind = "auth"
	ErrKindRateLimit  ErrorKind = "rate_limit"
	ErrKindBadRequest ErrorKind = "bad_request"
	ErrKindNotFound   ErrorKind = "not_found"
	ErrKindQuota      ErrorKind = "quota"
	ErrKindServer     ErrorKind = "server"
	ErrKindTimeout    ErrorKind = "timeout"
	ErrKindCanceled   ErrorKind = "canceled"
	ErrKindParse      ErrorKind = "parse"

	// ErrKindMalformedStream indicates a protocol desync in a streamed
	// response (conflicting tool-call fragments, stream ended mid-tool-call).
	// Never retryable.
	ErrKindMalformedStream ErrorKind = "malformed_stream"

	ErrKindUnknown ErrorKind = "unknown"
)

// LLMError is a provider-agnostic error container.
//
// It is designed for enterprise use: stable classification, raw payload access,
// and retry-related hints.
type LLMError struct {
	Provider string
	Kind     ErrorKind

	HTTPStatus   int
	ProviderCode string
	Message      string

	Retryable bool

	// Raw is an optional raw error payload (e.g. the HTTP response body).
	Raw []byte

	Cause error
}

func (e *LLMError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Provider != "" {
		return fmt.Sprintf("llm %s: %s", e.Provider, msg)
	}
	return fmt.Sprintf("llm: %s", msg)
}

func (e *LLMError) Unwrap() error { return e.Cause }

func AsLLMError(err error) (*LLMError, bool) {
	var e *LLMError
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsKind reports whether err is (or wraps) an LLMError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	if e, ok := AsLLMError(err); ok {
		return e.Kind == kind
	}
	return false
}

// IsRetryable reports whether err carries a retryable hint.
//
// The session driver never acts on this; it exists for callers that implement
// their own fallback routing on top of terminal errors.
func IsRetryable(err error) bool {
	if e, ok := AsLLMError(err); ok {
		return e.Retryable
	}
	return false
}
