package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRole is returned when a referenced user does not hold the role
	// an operation needs (e.g. a prescribing doctor).
	ErrInvalidRole = errors.New("invalid role")
	// ErrInvalidStatus is returned for an unknown prescription or payment status.
	ErrInvalidStatus = errors.New("invalid status")
	// ErrNegativeFill is returned when a fill would take quantity_filled below zero.
	ErrNegativeFill = errors.New("quantity filled cannot become negative")
	// ErrConflict covers uniqueness and dependent-row violations.
	ErrConflict = errors.New("conflict")
	// ErrUnauthorized is returned for bad credentials.
	ErrUnauthorized = errors.New("invalid credentials")
	// ErrEmptyPrescription is returned when a prescription has no items.
	ErrEmptyPrescription = errors.New("prescription needs at least one item")
	// ErrInvalidInput marks requests that passed schema validation but are
	// still unusable (bad date ranges, non-positive quantities).
	ErrInvalidInput = errors.New("invalid input")
)

// NotFoundError reports a missing entity targeted by a mutation.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// NotFound builds a NotFoundError.
func NotFound(entity string, id int64) error {
	return &NotFoundError{Entity: entity, ID: id}
}

type InsufficientStockError struct {
	MedicineID int64
	Available  int64
	Requested  int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for medicine %d: available %d, requested %d", e.MedicineID, e.Available, e.Requested)
}

type OverfillError struct {
	Prescribed int64
	Filled     int64
	Attempted  int64
}

func (e *OverfillError) Error() string {
	return fmt.Sprintf("cannot fill %d more: prescribed %d, already filled %d", e.Attempted, e.Prescribed, e.Filled)
}

// ConflictError wraps ErrConflict with a reason.
func ConflictError(reason string) error {
	return fmt.Errorf("%w: %s", ErrConflict, reason)
}

// InvalidInput wraps ErrInvalidInput with a reason.
func InvalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
