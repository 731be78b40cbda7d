package errors

import (
	stderrors "errors"
)

// IsAppError checks if an error is an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err is an AppError carrying code.
func HasCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}

// IsRequestFailed reports whether err is a RequestFailed error.
func IsRequestFailed(err error) bool { return HasCode(err, ErrCodeRequestFailed) }

// IsInvalidSelection reports whether err is an InvalidSelection error.
func IsInvalidSelection(err error) bool { return HasCode(err, ErrCodeInvalidSelection) }

// IsNoActiveSession reports whether err is a NoActiveSession error.
func IsNoActiveSession(err error) bool { return HasCode(err, ErrCodeNoActiveSession) }

// IsSourceChanged reports whether err is a SourceChanged error.
func IsSourceChanged(err error) bool { return HasCode(err, ErrCodeSourceChanged) }

// IsLoadAborted reports whether err is a LoadAborted error.
func IsLoadAborted(err error) bool { return HasCode(err, ErrCodeLoadAborted) }

// Detail returns the backend detail carried by a RequestFailed error, or "".
func Detail(err error) string {
	appErr, ok := AsAppError(err)
	if !ok || appErr.Code != ErrCodeRequestFailed {
		return ""
	}
	d, _ := appErr.Details["detail"].(string)
	return d
}

// Status returns the HTTP status carried by an AppError, or 0.
func Status(err error) int {
	appErr, ok := AsAppError(err)
	if !ok {
		return 0
	}
	return appErr.HTTPStatus
}
