package errors

import (
	"errors"
	"fmt"
)

// Error kinds for the dashboard. Every request-time kind is handled the same
// way at the HTTP boundary (redirect to the start of authentication); the kind
// only matters for logging and metrics.
var (
	// Startup
	ErrConfiguration = errors.New("configuration error")

	// OAuth
	ErrAuthExchange = errors.New("auth exchange failed")
	ErrTokenExpired = errors.New("token expired")

	// Remote report / invoice calls
	ErrUpstreamFetch = errors.New("upstream fetch failed")

	// Group and session stores
	ErrPersistence = errors.New("persistence error")

	// Session errors
	ErrSessionNotFound = errors.New("session not found")
	ErrUnknownTenant   = errors.New("tenant not authorised for session")

	// General errors
	ErrNotFound = errors.New("not found")
)

// Error tags an underlying failure with its kind and a short machine-readable
// cause, e.g. Kind=ErrAuthExchange Cause="nonce_mismatch".
type Error struct {
	Kind  error
	Op    string
	Cause string
	Err   error
}

// E builds a tagged error. err may be nil when the cause alone explains it.
func E(kind error, op, cause string, err error) *Error {
	return &Error{Kind: kind, Op: op, Cause: cause, Err: err}
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Cause != "" {
		msg += " (" + e.Cause + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the kind as well as anything in the wrapped chain.
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

// KindOf returns the kind of the first tagged error in err's chain, or nil.
func KindOf(err error) error {
	var tagged *Error
	if errors.As(err, &tagged) {
		return tagged.Kind
	}
	return nil
}

// CauseOf returns the cause of the first tagged error in err's chain.
func CauseOf(err error) string {
	var tagged *Error
	if errors.As(err, &tagged) {
		return tagged.Cause
	}
	return ""
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// New is errors.New, re-exported so callers need only this package.
func New(text string) error {
	return errors.New(text)
}
