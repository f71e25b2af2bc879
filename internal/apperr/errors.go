package apperr

import "fmt"

// ValidationError represents malformed or missing invocation input
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NotFoundError represents a source object absent from the bucket
type NotFoundError struct {
	Bucket string
	Key    string
	Err    error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Object not found: s3://%s/%s", e.Bucket, e.Key)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// StorageError represents any object storage failure other than not-found
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// ProcessingError represents a failure to open, render or encode the document
type ProcessingError struct {
	Page    int // 1-based, 0 when the failure is document-wide
	Message string
	Err     error
}

func (e *ProcessingError) Error() string {
	msg := e.Message
	if e.Page > 0 {
		msg = fmt.Sprintf("page %d: %s", e.Page, msg)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ProcessingError) Unwrap() error { return e.Err }

// Validation builds a ValidationError with a formatted message.
func Validation(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}
