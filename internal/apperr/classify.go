package apperr

import (
	"errors"
	"net/http"
)

// StatusCode maps an invocation error to the HTTP status reported to the caller.
// A nil error is a success.
func StatusCode(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var valErr *ValidationError
	if errors.As(err, &valErr) {
		return http.StatusBadRequest
	}

	var nfErr *NotFoundError
	if errors.As(err, &nfErr) {
		return http.StatusNotFound
	}

	// StorageError, ProcessingError and anything unclassified
	return http.StatusInternalServerError
}

// IsStorage reports whether err is (or wraps) a StorageError.
func IsStorage(err error) bool {
	var stErr *StorageError
	return errors.As(err, &stErr)
}

// Kind returns a short label used for logs and metrics.
func Kind(err error) string {
	var (
		valErr  *ValidationError
		nfErr   *NotFoundError
		stErr   *StorageError
		procErr *ProcessingError
	)
	switch {
	case err == nil:
		return "none"
	case errors.As(err, &valErr):
		return "validation"
	case errors.As(err, &nfErr):
		return "not_found"
	case errors.As(err, &stErr):
		return "storage"
	case errors.As(err, &procErr):
		return "processing"
	default:
		return "internal"
	}
}
