// Package errors provides the structured error type shared by every wavechat
// package, with machine-readable codes and HTTP status mapping.
package errors

import (
	"fmt"
	"net/http"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if a user-initiated repeat could succeed.
	Retryable bool `json:"retryable"`
	// HTTPStatus is the status the error originated from, or the closest match.
	HTTPStatus int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Retryable:  IsRetryableCode(code),
	}
}

// --- Constructors ---

// RequestFailed creates the single error surfaced for any unsuccessful backend
// call. Status is 0 when no response was received.
func RequestFailed(status int, detail string) *AppError {
	return &AppError{
		Code: ErrCodeRequestFailed, Message: fmt.Sprintf("Error %d: %s", status, detail),
		HTTPStatus: status, Retryable: true,
		Details: map[string]any{"status": status, "detail": detail},
	}
}

// LoadAborted creates the internal error for a load whose lifecycle is gone.
func LoadAborted(source string) *AppError {
	return &AppError{
		Code: ErrCodeLoadAborted, Message: "load superseded before it completed",
		Details: map[string]any{"source": source},
	}
}

// LoadFailed creates an error for audio the rendering surface could not load.
func LoadFailed(source string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeLoadFailed, Message: fmt.Sprintf("Unable to load %s.", source),
		Retryable: true, Details: map[string]any{"source": source}, Cause: cause,
	}
}

// InvalidSelection creates an error for a rejected selection.
func InvalidSelection(reason string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidSelection, Message: fmt.Sprintf("Invalid selection: %s", reason),
		HTTPStatus: http.StatusBadRequest,
	}
}

// InvalidInput creates a new AppError for invalid input.
func InvalidInput(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("Invalid input: %s", reason),
		HTTPStatus: http.StatusBadRequest, Details: details,
	}
}

// Validation creates a new AppError for struct validation failures.
func Validation(message string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidInput, Message: message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NoActiveSession creates an error for chat attempted before analysis.
func NoActiveSession() *AppError {
	return &AppError{
		Code: ErrCodeNoActiveSession, Message: "No analysis session yet. Run an analysis first.",
		HTTPStatus: http.StatusConflict,
	}
}

// SourceChanged creates an error for a result that arrived after the audio it
// was computed for was replaced.
func SourceChanged(source string) *AppError {
	return &AppError{
		Code: ErrCodeSourceChanged, Message: fmt.Sprintf("%s was replaced before the analysis finished.", source),
		HTTPStatus: http.StatusConflict, Details: map[string]any{"source": source},
	}
}
