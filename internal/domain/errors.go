/**
 * @description
 * This file defines the error taxonomy shared across the dashboard core.
 *
 * Key properties:
 * - ValidationError and UnsupportedCurrencyError are local: they block a
 *   submission before any network call is made.
 * - AuthError and NetworkError are non-fatal and retryable by the user;
 *   the owning state machine stays in its current state.
 * - ErrSessionExpired is the only error that forces an automatic state
 *   transition: any collaborator returning HTTP 401 clears the session.
 */
package domain

import (
	"errors"
	"fmt"
)

// ErrSessionExpired is returned when the upstream rejects the bearer token.
var ErrSessionExpired = errors.New("session expired")

// ErrRateUnavailable is returned by the rate cache before its first
// successful refresh populated a pair.
var ErrRateUnavailable = errors.New("rate unavailable")

// ValidationError is a local precondition failure. It never reaches the
// network layer.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// NewValidationError builds a ValidationError for a named field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// UnsupportedCurrencyError reports an operation that is illegal for the
// account's currency, e.g. withdrawing from a crypto account.
type UnsupportedCurrencyError struct {
	Currency  Currency
	Operation OperationKind
}

func (e *UnsupportedCurrencyError) Error() string {
	return fmt.Sprintf("%s is not supported for %s accounts", e.Operation, e.Currency)
}

// AuthError reports rejected credentials or an invalid verification code.
// The message is the upstream's verbatim error when one was provided.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	if e.Message == "" {
		return "authentication failed"
	}
	return e.Message
}

// NetworkError wraps a transport-level failure talking to the wallet
// service. It is transient; the user may simply retry.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("wallet service unreachable: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// UpstreamError carries the wallet service's own error message for a
// non-2xx response. It is displayed verbatim to the user.
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("wallet service error (status %d)", e.StatusCode)
}
