package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Request errors
const (
	// ErrCodeRequestFailed indicates the backend answered with a non-success
	// status, or could not be reached at all (status 0).
	ErrCodeRequestFailed ErrorCode = "REQUEST_FAILED"
)

// Waveform lifecycle errors. These never leave the controller.
const (
	// ErrCodeLoadAborted indicates a load finished after its lifecycle was torn down.
	ErrCodeLoadAborted ErrorCode = "LOAD_ABORTED"
	// ErrCodeLoadFailed indicates the rendering surface could not load the audio.
	ErrCodeLoadFailed ErrorCode = "LOAD_FAILED"
)

// Validation errors
const (
	// ErrCodeInvalidSelection indicates a selection that violates start < end <= duration.
	ErrCodeInvalidSelection ErrorCode = "INVALID_SELECTION"
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// Session errors
const (
	// ErrCodeNoActiveSession indicates a chat message was sent before any analysis succeeded.
	ErrCodeNoActiveSession ErrorCode = "NO_ACTIVE_SESSION"
	// ErrCodeSourceChanged indicates an analysis finished for audio that is no longer loaded.
	ErrCodeSourceChanged ErrorCode = "SOURCE_CHANGED"
)

// Internal errors
const (
	// ErrCodeInternal indicates an unexpected internal failure.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// Nothing is retried automatically. Retryable only tells a UI whether offering
// the user a "try again" action makes sense.
var retryableCodes = map[ErrorCode]bool{
	ErrCodeRequestFailed: true,
	ErrCodeLoadFailed:    true,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
