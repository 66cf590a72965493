package workflow

import (
	"errors"
	"fmt"
)

var (
	ErrRoleConflict = errors.New("role conflict")
	ErrNotAssigned  = errors.New("not assigned")
	ErrLocked       = errors.New("locked")
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrPrecondition = errors.New("precondition failed")

	ErrRequestPersonRequired        = errors.New("request person is required")
	ErrRequestBusinessRequired      = errors.New("request business is required")
	ErrRequestQualificationRequired = errors.New("request qualification is required")
)

// RoleConflictError names the role that already blocks a new assignment.
type RoleConflictError struct {
	Existing  Role
	Requested Role
}

func (e *RoleConflictError) Error() string {
	if e.Existing == e.Requested {
		return fmt.Sprintf("role conflict: person already holds %s for this qualification", e.Existing)
	}
	return fmt.Sprintf("role conflict: person holds %s and cannot also be %s for this qualification", e.Existing, e.Requested)
}

func (e *RoleConflictError) Is(target error) bool { return target == ErrRoleConflict }

// ValidationError reports a rejected field value.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func Invalid(field string, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

func NotFound(what string) error {
	return fmt.Errorf("%s: %w", what, ErrNotFound)
}

func NotAssigned(reason string) error {
	return fmt.Errorf("%w: %s", ErrNotAssigned, reason)
}

func Locked(reason string) error {
	return fmt.Errorf("%w: %s", ErrLocked, reason)
}

func Precondition(reason string) error {
	return fmt.Errorf("%w: %s", ErrPrecondition, reason)
}
