package dto

import (
	"errors"
	"net/http"
	"strings"

	"github.com/inkwell/backend/internal/domain/shared"
)

// Transport-level error codes, used when the failure happens before any
// domain logic runs
const (
	ErrCodeBadRequest   = "BAD_REQUEST"
	ErrCodeInvalidJSON  = "INVALID_JSON"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// statusByCode pins the handful of domain codes whose status cannot be
// derived from naming conventions or the error kind.
var statusByCode = map[string]int{
	"NOT_FOUND":             http.StatusNotFound,
	"ALREADY_EXISTS":        http.StatusConflict,
	"CONCURRENCY_CONFLICT":  http.StatusConflict,
	"INVALID_STATE":         http.StatusUnprocessableEntity,
	"INVALID_STATUS":        http.StatusUnprocessableEntity,
	"POOL_EXHAUSTED":        http.StatusConflict,
	"NOT_A_RETURN":          http.StatusUnprocessableEntity,
	"FORMAT_NOT_LISTED":     http.StatusUnprocessableEntity,
	"AUTHOR_NOT_OWNER":      http.StatusUnprocessableEntity,
	"ISBN_ALREADY_ASSIGNED": http.StatusConflict,
	"ARCHIVE_FAILED":        http.StatusBadGateway,
}

// HTTPStatusForDomainError maps a domain error to its HTTP status.
// Validation errors are 400, missing resources 404, duplicates 409; the
// remaining business-rule rejections surface as 422.
func HTTPStatusForDomainError(err *shared.DomainError) int {
	if status, ok := statusByCode[err.Code]; ok {
		return status
	}
	if err.Kind == shared.KindValidation {
		return http.StatusBadRequest
	}
	if strings.HasSuffix(err.Code, "_NOT_FOUND") {
		return http.StatusNotFound
	}
	if strings.HasPrefix(err.Code, "DUPLICATE_") || strings.HasPrefix(err.Code, "ALREADY_") {
		return http.StatusConflict
	}
	switch err.Kind {
	case shared.KindCalculation, shared.KindDataIntegrity:
		return http.StatusUnprocessableEntity
	}
	return http.StatusUnprocessableEntity
}

// HTTPStatusForError maps any error to an HTTP status, defaulting to 500
// for errors the domain did not classify
func HTTPStatusForError(err error) int {
	if errors.Is(err, shared.ErrNotFound) {
		return http.StatusNotFound
	}
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return HTTPStatusForDomainError(domainErr)
	}
	return http.StatusInternalServerError
}
