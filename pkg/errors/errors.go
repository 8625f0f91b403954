package errors

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrNotFound           = errors.New("entity not found")
	ErrInvalidState       = errors.New("operation not allowed in current state")
	ErrDuplicateOperation = errors.New("operation already applied")
	ErrExternalDependency = errors.New("external dependency failed")
	ErrDataIntegrity      = errors.New("data integrity violation")
	ErrCancellationLocked = errors.New("application can no longer be cancelled by the tenant")
)

// BusinessError represents a business logic error
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error codes
const (
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeInvalidState       = "INVALID_STATE"
	ErrCodeDuplicateOperation = "DUPLICATE_OPERATION"
	ErrCodeExternalDependency = "EXTERNAL_DEPENDENCY"
	ErrCodeDataIntegrity      = "DATA_INTEGRITY"
	ErrCodeDatabaseError      = "DATABASE_ERROR"
	ErrCodeCancellationLocked = "CANCELLATION_LOCKED"
)

// Wrap common errors with business context

func WrapNotFound(entity, id string) *BusinessError {
	return NewBusinessError(
		ErrCodeNotFound,
		fmt.Sprintf("%s with ID %s not found", entity, id),
		ErrNotFound,
	)
}

func WrapInvalidState(message string) *BusinessError {
	return NewBusinessError(ErrCodeInvalidState, message, ErrInvalidState)
}

func WrapDuplicateOperation(message string) *BusinessError {
	return NewBusinessError(ErrCodeDuplicateOperation, message, ErrDuplicateOperation)
}

func WrapExternalDependency(dependency string, err error) *BusinessError {
	return NewBusinessError(
		ErrCodeExternalDependency,
		fmt.Sprintf("%s call failed", dependency),
		errors.Join(ErrExternalDependency, err),
	)
}

func WrapDataIntegrity(message string) *BusinessError {
	return NewBusinessError(ErrCodeDataIntegrity, message, ErrDataIntegrity)
}

func WrapDatabaseError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeDatabaseError,
		"database operation failed",
		err,
	)
}

func WrapCancellationLocked(message string) *BusinessError {
	return NewBusinessError(ErrCodeCancellationLocked, message, ErrCancellationLocked)
}

// IsNotFound reports whether err is a not-found business error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateOperation reports whether err is an idempotency hit. Callers
// in batch contexts treat these as silent no-ops, not failures.
func IsDuplicateOperation(err error) bool {
	return errors.Is(err, ErrDuplicateOperation)
}

// IsInvalidState reports whether err is an invalid-state rejection.
func IsInvalidState(err error) bool {
	return errors.Is(err, ErrInvalidState)
}
