package roster

import (
	"errors"
	"fmt"
)

// ErrorType represents the category of error
type ErrorType string

const (
	ErrorTypePersistence ErrorType = "persistence"
	ErrorTypeDecode      ErrorType = "decode"
	ErrorTypeConfig      ErrorType = "config"
	ErrorTypeInternal    ErrorType = "internal"
)

// Error codes
const (
	ErrCodePersistenceRead   = "PERSISTENCE_READ_FAILED"
	ErrCodePersistenceWrite  = "PERSISTENCE_WRITE_FAILED"
	ErrCodeBlobCorrupted     = "BLOB_CORRUPTED"
	ErrCodeEncodeFailed      = "ENCODE_FAILED"
	ErrCodeUnsupportedMode   = "UNSUPPORTED_STORAGE_MODE"
	ErrCodeUnsupportedDriver = "UNSUPPORTED_BACKEND"
	ErrCodeInternal          = "INTERNAL_ERROR"
)

// Error is the typed error used at the persistence boundary. Validation failures are
// never reported through Error; they travel as ValidationResult.
type Error struct {
	Type    ErrorType      `json:"type"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Key     string         `json:"key,omitempty"`
	Details map[string]any `json:"details,omitempty"`
	Cause   error          `json:"-"`
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s:%s] %s", e.Type, e.Code, e.Message)
	if e.Key != "" {
		msg = fmt.Sprintf("[%s:%s] key '%s': %s", e.Type, e.Code, e.Key, e.Message)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetail adds a single detail
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause adds a cause
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithKey adds storage key context
func (e *Error) WithKey(key string) *Error {
	e.Key = key
	return e
}

// NewError creates a new Error
func NewError(errorType ErrorType, code, message string) *Error {
	return &Error{
		Type:    errorType,
		Code:    code,
		Message: message,
	}
}

// NewPersistenceReadError reports a backend that could not be read.
func NewPersistenceReadError(key string, cause error) *Error {
	return NewError(ErrorTypePersistence, ErrCodePersistenceRead, "failed to read from storage").
		WithKey(key).
		WithCause(cause)
}

// NewPersistenceWriteError reports a backend that rejected a write.
func NewPersistenceWriteError(key string, cause error) *Error {
	return NewError(ErrorTypePersistence, ErrCodePersistenceWrite, "failed to write to storage").
		WithKey(key).
		WithCause(cause)
}

// NewBlobCorruptedError reports a stored blob that could not be decoded.
func NewBlobCorruptedError(key string, cause error) *Error {
	return NewError(ErrorTypeDecode, ErrCodeBlobCorrupted, "stored data could not be decoded").
		WithKey(key).
		WithCause(cause)
}

// NewEncodeError reports a collection that could not be serialized.
func NewEncodeError(key string, cause error) *Error {
	return NewError(ErrorTypeDecode, ErrCodeEncodeFailed, "failed to encode data").
		WithKey(key).
		WithCause(cause)
}

// NewUnsupportedModeError reports an unknown storage mode or backend.
func NewUnsupportedModeError(code, value string) *Error {
	return NewError(ErrorTypeConfig, code, fmt.Sprintf("unsupported value %q", value))
}

// HasCode reports whether err is, or wraps, an *Error with the given code.
func HasCode(err error, code string) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// IsPersistenceError reports whether err is, or wraps, a persistence error.
func IsPersistenceError(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Type == ErrorTypePersistence
}
