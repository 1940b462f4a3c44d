package jwt

import (
	"fmt"
	"time"
)

// tokenError is the shared base of the error taxonomy.
type tokenError struct {
	msg   string
	inner error
}

// Error implements the error interface
func (e *tokenError) Error() string {
	if e.inner != nil {
		return fmt.Sprintf("%s: %s", e.msg, e.inner.Error())
	}
	return e.msg
}

// Unwrap returns the inner cause, if any.
func (e *tokenError) Unwrap() error {
	return e.inner
}

// Error is the base failure returned from signing and verification.
// Temporal validity failures are reported with the more specific
// ExpiredError and NotBeforeError types; everything else, including
// malformed tokens, signature mismatches, and claim expectation
// mismatches, is reported as *Error.
type Error struct {
	tokenError
}

// NewError returns a base token error wrapping an optional inner cause.
func NewError(msg string, inner error) *Error {
	return &Error{tokenError{msg: msg, inner: inner}}
}

// ExpiredError is returned from Verify when the token expiration has
// passed. ExpiredAt carries the expiration instant from the token.
type ExpiredError struct {
	tokenError
	ExpiredAt time.Time
}

func newExpiredError(expiredAt time.Time) *ExpiredError {
	return &ExpiredError{
		tokenError: tokenError{msg: "token expired"},
		ExpiredAt:  expiredAt,
	}
}

// NotBeforeError is returned from Verify when the token is not yet
// active. NotBefore carries the activation instant from the token.
type NotBeforeError struct {
	tokenError
	NotBefore time.Time
}

func newNotBeforeError(notBefore time.Time) *NotBeforeError {
	return &NotBeforeError{
		tokenError: tokenError{msg: "token not active yet"},
		NotBefore:  notBefore,
	}
}
