package models

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrDuplicateEntry      = errors.New("duplicate entry")
	ErrInvalidFormat       = errors.New("invalid format")
	ErrValidation          = errors.New("validation failed")
	ErrLockedOut           = errors.New("locked out")
	ErrCapacityExceeded    = errors.New("capacity exceeded")
	ErrRecoveryUnavailable = errors.New("pin recovery unavailable")
)

// ValidationError reports a rejected field before any store mutation happens.
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

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError builds a ValidationError for field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// LockKind distinguishes the PIN counter from the security-word counter.
type LockKind string

const (
	LockPIN      LockKind = "pin"
	LockSecurity LockKind = "security"
)

// LockedOutError is returned while a lockout deadline is still in the future.
type LockedOutError struct {
	Kind      LockKind
	Until     time.Time
	Remaining time.Duration
}

func (e *LockedOutError) Error() string {
	return fmt.Sprintf("locked for %ds", e.RemainingSeconds())
}

func (e *LockedOutError) Unwrap() error { return ErrLockedOut }

// RemainingSeconds rounds the remaining lock time up to whole seconds.
func (e *LockedOutError) RemainingSeconds() int {
	return int(math.Ceil(e.Remaining.Seconds()))
}
