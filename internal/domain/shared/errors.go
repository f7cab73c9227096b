package shared

import "errors"

// ErrorKind classifies a domain error for the caller's retry/abort decision.
type ErrorKind string

const (
	// KindValidation marks malformed or out-of-range input. Never retried.
	KindValidation ErrorKind = "VALIDATION"
	// KindCalculation marks missing or unusable upstream data for a
	// calculation. The caller decides whether to skip or abort the batch.
	KindCalculation ErrorKind = "CALCULATION"
	// KindDataIntegrity marks a violated domain invariant. Fatal for the
	// affected record; surfaced for operator investigation, never clamped
	// silently.
	KindDataIntegrity ErrorKind = "DATA_INTEGRITY"
	// KindGeneric is used by errors that predate the classification.
	KindGeneric ErrorKind = "GENERIC"
)

// DomainError represents a domain-level error
type DomainError struct {
	Kind    ErrorKind `json:"kind"`
	Code    string    `json:"code"`
	Message string    `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new unclassified domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{Kind: KindGeneric, Code: code, Message: message}
}

// NewValidationError creates a validation error
func NewValidationError(code, message string) *DomainError {
	return &DomainError{Kind: KindValidation, Code: code, Message: message}
}

// NewCalculationError creates a calculation error
func NewCalculationError(code, message string) *DomainError {
	return &DomainError{Kind: KindCalculation, Code: code, Message: message}
}

// NewDataIntegrityError creates a data integrity error
func NewDataIntegrityError(code, message string) *DomainError {
	return &DomainError{Kind: KindDataIntegrity, Code: code, Message: message}
}

// KindOf returns the ErrorKind of err, or KindGeneric for non-domain errors
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindGeneric
}

// IsValidationError reports whether err is a validation error
func IsValidationError(err error) bool {
	return KindOf(err) == KindValidation
}

// IsCalculationError reports whether err is a calculation error
func IsCalculationError(err error) bool {
	return KindOf(err) == KindCalculation
}

// IsDataIntegrityError reports whether err is a data integrity error
func IsDataIntegrityError(err error) bool {
	return KindOf(err) == KindDataIntegrity
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewValidationError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
)
