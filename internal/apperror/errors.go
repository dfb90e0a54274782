// Package apperror defines the typed error taxonomy the engine, portfolio,
// and betting repositories raise. Every error carries a stable Code so
// callers can branch with errors.Is against the package-level sentinels
// instead of string-matching messages.
package apperror

import (
	"errors"
	"fmt"
)

// AppError is an engine-level error with a stable code and optional cause.
type AppError struct {
	Code    string
	Message string
	Details interface{}
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

// Is reports whether target is an *AppError with the same Code.
func (e *AppError) Is(target error) bool {
	var appErr *AppError
	if !errors.As(target, &appErr) {
		return false
	}
	return appErr.Code == e.Code
}

// Sentinel codes, one per spec error kind. Compare with errors.Is against
// these zero-value markers.
var (
	ErrInvalidStake       = &AppError{Code: "INVALID_STAKE", Message: "invalid stake"}
	ErrInsufficientCash   = &AppError{Code: "INSUFFICIENT_CASH", Message: "insufficient available cash"}
	ErrUnknownBet         = &AppError{Code: "UNKNOWN_BET", Message: "unknown bet"}
	ErrAlreadySettled     = &AppError{Code: "ALREADY_SETTLED", Message: "bet already settled"}
	ErrUnknownPendingBet  = &AppError{Code: "UNKNOWN_PENDING_BET", Message: "unknown pending bet"}
	ErrInvalidSchedule    = &AppError{Code: "INVALID_SCHEDULE", Message: "invalid schedule entry"}
	ErrDataValidation     = &AppError{Code: "DATA_VALIDATION", Message: "data validation failed"}
	ErrUnsupportedDataType = &AppError{Code: "UNSUPPORTED_DATA_TYPE", Message: "unsupported data type"}
)

// NewInvalidStake reports a non-positive or otherwise malformed stake.
func NewInvalidStake(stake float64) *AppError {
	return &AppError{
		Code:    ErrInvalidStake.Code,
		Message: fmt.Sprintf("stake must be positive, got %v", stake),
	}
}

// NewInsufficientCash reports a bet request exceeding available cash.
func NewInsufficientCash(available, requested float64) *AppError {
	return &AppError{
		Code:    ErrInsufficientCash.Code,
		Message: fmt.Sprintf("requested stake %v exceeds available cash %v", requested, available),
		Details: map[string]float64{"available": available, "requested": requested},
	}
}

// NewUnknownBet reports an operation referencing a bet id the repository
// has no record of.
func NewUnknownBet(betID string) *AppError {
	return &AppError{
		Code:    ErrUnknownBet.Code,
		Message: fmt.Sprintf("unknown bet id %q", betID),
		Details: betID,
	}
}

// NewAlreadySettled reports a settlement attempt on a bet that has already
// settled.
func NewAlreadySettled(betID string) *AppError {
	return &AppError{
		Code:    ErrAlreadySettled.Code,
		Message: fmt.Sprintf("bet %q already settled", betID),
		Details: betID,
	}
}

// NewUnknownPendingBet reports a confirmation referencing a bet id that was
// never placed, or was already confirmed.
func NewUnknownPendingBet(betID string) *AppError {
	return &AppError{
		Code:    ErrUnknownPendingBet.Code,
		Message: fmt.Sprintf("no pending bet with id %q", betID),
		Details: betID,
	}
}

// NewInvalidSchedule reports a schedule entry the engine cannot prepare
// (malformed cron expression, callback of the wrong arity, non-positive
// tick interval, etc).
func NewInvalidSchedule(reason string) *AppError {
	return &AppError{Code: ErrInvalidSchedule.Code, Message: reason}
}

// NewDataValidation reports one or more malformed ingestion records.
func NewDataValidation(rowErrors []error) *AppError {
	return &AppError{
		Code:    ErrDataValidation.Code,
		Message: fmt.Sprintf("%d record(s) failed validation", len(rowErrors)),
		Details: rowErrors,
	}
}

// NewUnsupportedDataType reports a data-source kind the ingestion layer
// does not know how to read.
func NewUnsupportedDataType(kind string) *AppError {
	return &AppError{
		Code:    ErrUnsupportedDataType.Code,
		Message: fmt.Sprintf("unsupported data source type %q", kind),
		Details: kind,
	}
}

// As is a thin wrapper for errors.As, kept for parity with callers used to
// the package-qualified form.
func As(err error, target interface{}) bool { return errors.As(err, target) }

// Is is a thin wrapper for errors.Is.
func Is(err, target error) bool { return errors.Is(err, target) }
