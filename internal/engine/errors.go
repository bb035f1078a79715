package engine

import (
	"errors"
	"fmt"
)

// Code categorizes operation errors.
type Code string

const (
	// CodeValidation indicates bad input: unknown entity or field,
	// uncoercible value, oversized page request.
	CodeValidation Code = "VALIDATION"

	// CodeNotFound indicates an update or delete on a missing key.
	CodeNotFound Code = "NOT_FOUND"

	// CodeConflict indicates an optimistic version mismatch on update.
	CodeConflict Code = "CONFLICT"

	// CodeConnection indicates the store could not be reached.
	CodeConnection Code = "CONNECTION"

	// CodeSchema indicates schema initialization failed or drift was
	// detected; also returned for operations before startup completed.
	CodeSchema Code = "SCHEMA"

	// CodeStorage indicates the underlying operation failed for any
	// other reason.
	CodeStorage Code = "STORAGE"
)

// OperationError is the typed failure surfaced by every engine operation.
// Callers branch on Code; nothing is retried by the engine itself.
type OperationError struct {
	// Code identifies the error category.
	Code Code

	// Message is a human-readable description.
	Message string

	// Entity is the affected entity type, when known.
	Entity string

	// Key is the affected primary key, when known.
	Key string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *OperationError) Error() string {
	switch {
	case e.Entity != "" && e.Key != "":
		return fmt.Sprintf("%s: %s (entity=%s, key=%s)", e.Code, e.Message, e.Entity, e.Key)
	case e.Entity != "":
		return fmt.Sprintf("%s: %s (entity=%s)", e.Code, e.Message, e.Entity)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// Unwrap exposes the underlying cause to errors.Is/As chains.
func (e *OperationError) Unwrap() error {
	return e.Err
}

// CodeOf extracts the operation error code from err.
// Returns CodeStorage for errors that are not OperationErrors.
func CodeOf(err error) Code {
	var oe *OperationError
	if errors.As(err, &oe) {
		return oe.Code
	}
	return CodeStorage
}

// IsValidation reports whether err is a validation failure.
// Uses errors.As to handle wrapped errors.
func IsValidation(err error) bool {
	return CodeOf(err) == CodeValidation
}

// IsNotFound reports whether err is a missing-key failure.
func IsNotFound(err error) bool {
	return CodeOf(err) == CodeNotFound
}

// IsConflict reports whether err is an optimistic concurrency failure.
func IsConflict(err error) bool {
	return CodeOf(err) == CodeConflict
}

// ValidationErrorf creates a validation OperationError.
func ValidationErrorf(entityName, format string, args ...any) *OperationError {
	return &OperationError{
		Code:    CodeValidation,
		Message: fmt.Sprintf(format, args...),
		Entity:  entityName,
	}
}

// NotFoundError creates an OperationError for a missing key.
func NotFoundError(entityName, key string) *OperationError {
	return &OperationError{
		Code:    CodeNotFound,
		Message: "no such row",
		Entity:  entityName,
		Key:     key,
	}
}

// ConflictError creates an OperationError for a version mismatch.
func ConflictError(entityName, key string, supplied, current int64) *OperationError {
	return &OperationError{
		Code:    CodeConflict,
		Message: fmt.Sprintf("version mismatch: supplied %d, current %d", supplied, current),
		Entity:  entityName,
		Key:     key,
	}
}

func storageError(entityName, msg string, err error) *OperationError {
	return &OperationError{Code: CodeStorage, Message: msg, Entity: entityName, Err: err}
}

func connectionError(msg string, err error) *OperationError {
	return &OperationError{Code: CodeConnection, Message: msg, Err: err}
}

func schemaError(msg string, err error) *OperationError {
	return &OperationError{Code: CodeSchema, Message: msg, Err: err}
}
