package oracle

import (
	"errors"
	"fmt"
)

// Error is a business-logic failure of an oracle operation.
//
// Errors include:
//   - Unauthorized: a non-owner attempted a write
//   - AlreadyInitialized: construction against a backend that has an owner
//   - NotInitialized: resuming a backend that never had an owner
//   - InvalidIdentity: an empty owner identity
//
// Storage failures are not Errors; they are wrapped backend errors.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Caller is the identity that made the failing call, when relevant.
	Caller string

	// Owner is the configured owner, when relevant.
	Owner string
}

// ErrorCode categorizes oracle errors.
type ErrorCode string

const (
	// ErrCodeUnauthorized indicates the caller is not the owner.
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"

	// ErrCodeAlreadyInitialized indicates the backend already has an owner.
	ErrCodeAlreadyInitialized ErrorCode = "ALREADY_INITIALIZED"

	// ErrCodeNotInitialized indicates the backend has no owner yet.
	ErrCodeNotInitialized ErrorCode = "NOT_INITIALIZED"

	// ErrCodeInvalidIdentity indicates an unusable identity string.
	ErrCodeInvalidIdentity ErrorCode = "INVALID_IDENTITY"
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Caller != "" {
		return fmt.Sprintf("%s: %s (caller=%s)", e.Code, e.Message, e.Caller)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewUnauthorizedError creates the error returned when caller is not owner.
func NewUnauthorizedError(caller, owner string) *Error {
	return &Error{
		Code:    ErrCodeUnauthorized,
		Message: "only the owner can store prophecies",
		Caller:  caller,
		Owner:   owner,
	}
}

// NewAlreadyInitializedError creates the error returned on a second
// construction. owner is the identity that remains in place.
func NewAlreadyInitializedError(owner string) *Error {
	return &Error{
		Code:    ErrCodeAlreadyInitialized,
		Message: "oracle already initialized",
		Owner:   owner,
	}
}

// NewNotInitializedError creates the error returned when no owner exists.
func NewNotInitializedError() *Error {
	return &Error{
		Code:    ErrCodeNotInitialized,
		Message: "oracle not initialized: no owner recorded",
	}
}

// NewInvalidIdentityError creates the error returned for an empty identity.
func NewInvalidIdentityError(what string) *Error {
	return &Error{
		Code:    ErrCodeInvalidIdentity,
		Message: what + " identity must not be empty",
	}
}

// IsUnauthorized reports whether err is an Unauthorized error.
// Uses errors.As to handle wrapped errors.
func IsUnauthorized(err error) bool {
	return hasCode(err, ErrCodeUnauthorized)
}

// IsAlreadyInitialized reports whether err is an AlreadyInitialized error.
func IsAlreadyInitialized(err error) bool {
	return hasCode(err, ErrCodeAlreadyInitialized)
}

// IsNotInitialized reports whether err is a NotInitialized error.
func IsNotInitialized(err error) bool {
	return hasCode(err, ErrCodeNotInitialized)
}

// IsInvalidIdentity reports whether err is an InvalidIdentity error.
func IsInvalidIdentity(err error) bool {
	return hasCode(err, ErrCodeInvalidIdentity)
}

func hasCode(err error, code ErrorCode) bool {
	var oe *Error
	if errors.As(err, &oe) {
		return oe.Code == code
	}
	return false
}
