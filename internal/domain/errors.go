package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for conditions callers branch on with errors.Is.
var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrTransactionFailed = errors.New("transaction failed")
)

// ValidationError marks bad or missing caller input, detected before any
// database mutation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ConstraintViolation is returned when the store rejects a write. Unique
// distinguishes unique-key collisions (e.g. a duplicate tran_id) from other
// constraint failures.
type ConstraintViolation struct {
	Unique bool
	Err    error
}

func (e *ConstraintViolation) Error() string {
	if e.Unique {
		return fmt.Sprintf("unique constraint violation: %v", e.Err)
	}
	return fmt.Sprintf("constraint violation: %v", e.Err)
}

func (e *ConstraintViolation) Unwrap() error { return e.Err }

// GatewayError is a network failure or a non-success response from the
// external payment gateway. Reason carries the gateway-reported cause when
// one was available.
type GatewayError struct {
	Reason string
	Err    error
}

func (e *GatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gateway error: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("gateway error: %s", e.Reason)
}

func (e *GatewayError) Unwrap() error { return e.Err }
