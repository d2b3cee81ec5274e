package tokenkit

import (
	"errors"
	"fmt"
)

// ErrorKind classifies every failure the engine can surface. The set is
// closed; callers switch on KindOf instead of probing concrete types.
type ErrorKind string

const (
	// KindInsecureAlgorithm — algorithm is not on the allow-list ("none" included).
	KindInsecureAlgorithm ErrorKind = "insecure_algorithm"
	// KindInvalidKeyMaterial — key fails length/format checks for its algorithm family.
	KindInvalidKeyMaterial ErrorKind = "invalid_key_material"
	// KindInvalidDuration — malformed relative time expression.
	KindInvalidDuration ErrorKind = "invalid_duration"
	// KindSigningFailure — the underlying cryptographic signing call failed.
	KindSigningFailure ErrorKind = "signing_failure"
	// KindTokenExpired — current time is past exp (plus tolerance).
	KindTokenExpired ErrorKind = "token_expired"
	// KindInvalidSignature — cryptographic signature check failed, or the
	// header algorithm did not match the pinned algorithm.
	KindInvalidSignature ErrorKind = "invalid_signature"
	// KindInvalidToken — structural decode failure or claim mismatch
	// (issuer, audience, not-before, provider-specific checks).
	KindInvalidToken ErrorKind = "invalid_token"
	// KindConfiguration — the caller supplied neither or both of key and
	// key-set URI, or an otherwise unusable option set.
	KindConfiguration ErrorKind = "configuration"
	// KindKeyFetch — network, transport, or non-2xx failure resolving a key set.
	KindKeyFetch ErrorKind = "key_fetch"
	// KindUnsupportedProvider — unknown enterprise provider kind.
	KindUnsupportedProvider ErrorKind = "unsupported_provider"
)

// Error is the engine's only error type. Messages carry structured,
// low-information descriptions: never key material, never remote bodies.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// NewError creates an Error of the given kind.
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Errorf creates an Error of the given kind with a formatted message.
func Errorf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError attaches a kind and message to an underlying cause.
func WrapError(err error, kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of err, or "" when err is not an engine Error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind anywhere in its chain.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
