package errors

import (
	"encoding/json"
	"fmt"
)

// ErrorCode represents a specific error condition
type ErrorCode string

const (
	// Configuration errors
	ErrCodeConfigNotFound ErrorCode = "CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  ErrorCode = "CONFIG_INVALID"
	ErrCodeConfigExists   ErrorCode = "CONFIG_EXISTS"

	// Watch session errors
	ErrCodeInvalidPattern ErrorCode = "INVALID_PATTERN"
	ErrCodeWatchInit      ErrorCode = "WATCH_INIT"

	// Command execution errors
	ErrCodeCommandNotFound ErrorCode = "COMMAND_NOT_FOUND"
	ErrCodeCommandFailed   ErrorCode = "COMMAND_FAILED"

	// General errors
	ErrCodeInternal         ErrorCode = "INTERNAL_ERROR"
	ErrCodeInvalidInput     ErrorCode = "INVALID_INPUT"
	ErrCodePermissionDenied ErrorCode = "PERMISSION_DENIED"
)

// DevflowError represents a structured error with context
type DevflowError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// Error implements the error interface
func (e *DevflowError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *DevflowError) Unwrap() error {
	return e.Cause
}

// WithDetail adds a detail to the error
func (e *DevflowError) WithDetail(key string, value interface{}) *DevflowError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// ToJSON converts the error to JSON
func (e *DevflowError) ToJSON() string {
	data, _ := json.MarshalIndent(e, "", "  ")
	return string(data)
}

// New creates a new DevflowError
func New(code ErrorCode, message string) *DevflowError {
	return &DevflowError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with a DevflowError
func Wrap(err error, code ErrorCode, message string) *DevflowError {
	return &DevflowError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// As returns the first DevflowError in err's chain.
func As(err error) (*DevflowError, bool) {
	for err != nil {
		if devErr, ok := err.(*DevflowError); ok {
			return devErr, true
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil, false
		}
		err = unwrapper.Unwrap()
	}
	return nil, false
}

// Is checks if an error is a specific DevflowError code
func Is(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}

	devErr, ok := err.(*DevflowError)
	if !ok {
		// Try to unwrap
		if unwrapper, ok := err.(interface{ Unwrap() error }); ok {
			return Is(unwrapper.Unwrap(), code)
		}
		return false
	}

	if devErr.Code == code {
		return true
	}
	return Is(devErr.Cause, code)
}

// GetCode extracts the error code from an error
func GetCode(err error) ErrorCode {
	devErr, ok := As(err)
	if !ok {
		return ""
	}
	return devErr.Code
}
